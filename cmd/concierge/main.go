package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/app"
	"github.com/Freeeeeet/concierge_slots/internal/config"
	"github.com/Freeeeeet/concierge_slots/internal/controller/httpapi"
	"github.com/Freeeeeet/concierge_slots/internal/controller/notify"
	"github.com/Freeeeeet/concierge_slots/internal/repository"
	"github.com/Freeeeeet/concierge_slots/internal/repository/base"
	"github.com/Freeeeeet/concierge_slots/internal/repository/memstore"
	"github.com/Freeeeeet/concierge_slots/internal/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// stores набор хранилищ, выбранный по STORAGE
type stores struct {
	calendars service.CalendarStore
	rules     service.RuleStore
	overrides service.OverrideStore
	bookings  service.BookingStore
	catalog   service.Catalog
	health    httpapi.HealthChecker
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, app.LogFileOptions{Path: cfg.LogFile})
	defer logger.Sync()

	if !cfg.EnvFileLoaded {
		logger.Info("No .env file found, using environment variables")
	}
	logger.Info("Starting concierge slots service",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", cfg.Location.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.close()

	// Сервисы
	availabilityService := service.NewAvailabilityService(
		st.calendars, st.rules, st.overrides, st.bookings, st.catalog,
		cfg.Location, cfg.MaxResolveDays, logger.Named("availability"),
	)
	bookingService := service.NewBookingService(
		availabilityService, st.calendars, st.bookings, st.catalog,
		cfg.CommitTimeout, cfg.MaxResolveDays, logger.Named("booking"),
	)
	handler := httpapi.NewHandler(httpapi.Deps{
		Calendars:    service.NewCalendarService(st.calendars, logger.Named("calendar")),
		Rules:        service.NewRuleService(st.calendars, st.rules, st.overrides, cfg.MaxResolveDays, logger.Named("rules")),
		Availability: availabilityService,
		Bookings:     bookingService,
		Catalog:      service.NewCatalogService(st.catalog, logger.Named("catalog")),
		Notifier:     newNotifier(cfg, logger),
		Health:       st.health,
		Logger:       logger,
	})

	router := httpapi.NewRouter(handler, httpapi.Options{
		RequestTimeout: cfg.RequestTimeout,
		CommitLimiter:  httpapi.NewClientRateLimiter(ctx, httpapi.LimiterConfig{
			Rate:    httpapi.PerMinute(cfg.CommitRatePerMin),
			Burst:   cfg.CommitBurst,
			IdleTTL: cfg.CommitLimiterTTL,
		}),
	})

	scheduler := app.NewScheduler(bookingService, cfg.CompletionInterval, logger.Named("scheduler"))
	scheduler.Start(ctx)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	scheduler.Stop()

	logger.Info("Service stopped")
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data will be lost on restart")
		mem := memstore.New()
		return &stores{
			calendars: mem.Calendars(),
			rules:     mem.Rules(),
			overrides: mem.Overrides(),
			bookings:  mem.Bookings(),
			catalog:   mem.Experiences(),
			health:    mem,
			close:     func() {},
		}, nil
	}

	pool, err := app.ConnectDB(ctx, cfg.DBDSN, logger)
	if err != nil {
		return nil, err
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		pool.Close()
		return nil, err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	return &stores{
		calendars: repository.NewCalendarRepository(pool),
		rules:     repository.NewRuleRepository(pool, logger.Named("rules_repo")),
		overrides: repository.NewOverrideRepository(pool),
		bookings:  repository.NewBookingRepository(pool),
		catalog:   repository.NewExperienceRepository(pool),
		health:    base.NewRepository(pool),
		close:     pool.Close,
	}, nil
}

// newNotifier Telegram если задан токен, иначе уведомления отключены
func newNotifier(cfg *config.Config, logger *zap.Logger) notify.Notifier {
	if !cfg.NotificationsEnabled() {
		logger.Info("Operator notifications disabled")
		return notify.Nop{}
	}

	b, err := notify.NewBot(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to create Telegram bot, notifications disabled", zap.Error(err))
		return notify.Nop{}
	}
	return notify.NewTelegramNotifier(b, cfg.OperatorChatID, logger.Named("notify"))
}
