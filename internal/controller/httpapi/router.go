// Package httpapi HTTP-транспорт: операторский CRUD правил и календарей,
// витринные запросы доступности и фиксация броней.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/controller/notify"
	"github.com/Freeeeeet/concierge_slots/internal/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HealthChecker проверка доступности хранилища
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps зависимости обработчиков
type Deps struct {
	Calendars    *service.CalendarService
	Rules        *service.RuleService
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
	Catalog      *service.CatalogService
	Notifier     notify.Notifier
	Health       HealthChecker
	Logger       *zap.Logger
}

type Handler struct {
	calendars    *service.CalendarService
	rules        *service.RuleService
	availability *service.AvailabilityService
	bookings     *service.BookingService
	catalog      *service.CatalogService
	notifier     notify.Notifier
	health       HealthChecker
	logger       *zap.Logger
}

func NewHandler(deps Deps) *Handler {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Handler{
		calendars:    deps.Calendars,
		rules:        deps.Rules,
		availability: deps.Availability,
		bookings:     deps.Bookings,
		catalog:      deps.Catalog,
		notifier:     notifier,
		health:       deps.Health,
		logger:       deps.Logger,
	}
}

// Options настройки роутера
type Options struct {
	RequestTimeout time.Duration
	// CommitLimiter ограничивает POST /api/bookings, nil отключает ограничение
	CommitLimiter *ClientRateLimiter
}

// NewRouter регистрирует все маршруты API
func NewRouter(h *Handler, opts Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(RecoverMiddleware(h.logger), LoggingMiddleware(h.logger), TimeoutMiddleware(opts.RequestTimeout))

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Календари
	api.HandleFunc("/calendars", h.ListCalendars).Methods(http.MethodGet)
	api.HandleFunc("/calendars", h.CreateCalendar).Methods(http.MethodPost)
	api.HandleFunc("/calendars/{id}", h.GetCalendar).Methods(http.MethodGet)
	api.HandleFunc("/calendars/{id}", h.UpdateCalendar).Methods(http.MethodPut)
	api.HandleFunc("/calendars/{id}", h.DeleteCalendar).Methods(http.MethodDelete)
	api.HandleFunc("/calendars/{id}/active", h.SetCalendarActive).Methods(http.MethodPut)

	// Регулярные правила
	api.HandleFunc("/calendars/{id}/rules", h.ListRules).Methods(http.MethodGet)
	api.HandleFunc("/calendars/{id}/rules", h.CreateRule).Methods(http.MethodPost)
	api.HandleFunc("/rules/{id}", h.GetRule).Methods(http.MethodGet)
	api.HandleFunc("/rules/{id}", h.UpdateRule).Methods(http.MethodPut)
	api.HandleFunc("/rules/{id}", h.DeleteRule).Methods(http.MethodDelete)
	api.HandleFunc("/rules/{id}/active", h.SetRuleActive).Methods(http.MethodPut)

	// Исключения по датам
	api.HandleFunc("/calendars/{id}/overrides", h.ListOverrides).Methods(http.MethodGet)
	api.HandleFunc("/calendars/{id}/overrides", h.CreateOverride).Methods(http.MethodPost)
	api.HandleFunc("/overrides/{id}", h.GetOverride).Methods(http.MethodGet)
	api.HandleFunc("/overrides/{id}", h.UpdateOverride).Methods(http.MethodPut)
	api.HandleFunc("/overrides/{id}", h.DeleteOverride).Methods(http.MethodDelete)

	// Доступность
	api.HandleFunc("/calendars/{id}/availability", h.ResolveCalendar).Methods(http.MethodGet)
	api.HandleFunc("/availability", h.ResolveAcrossCalendars).Methods(http.MethodGet)

	// Брони
	api.HandleFunc("/bookings", RateLimit(opts.CommitLimiter, h.CommitBooking)).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/cancel", h.CancelBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/confirm", h.ConfirmBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/complete", h.CompleteBooking).Methods(http.MethodPost)
	api.HandleFunc("/calendars/{id}/bookings", h.ListBookings).Methods(http.MethodGet)

	// Зеркало каталога
	api.HandleFunc("/experiences", h.ListExperiences).Methods(http.MethodGet)
	api.HandleFunc("/experiences/{id}", h.GetExperience).Methods(http.MethodGet)
	api.HandleFunc("/experiences/{id}", h.SyncExperience).Methods(http.MethodPut)

	return r
}

// Healthz пингует хранилище
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}
