package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/Freeeeeet/concierge_slots/internal/app"
	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// openTestPool подключается к TEST_DB_DSN и накатывает миграции; без переменной тест пропускается
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	logger := zap.NewNop()
	pool, err := app.ConnectDB(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, logger)
	require.NoError(t, err)
	require.NoError(t, migrator.Run(ctx))
	require.NoError(t, migrator.Close())
	return pool
}

func createCalendar(t *testing.T, calendars *repository.CalendarRepository) *model.Calendar {
	t.Helper()
	calendar := &model.Calendar{ID: "test-" + uuid.NewString(), Name: "Test", IsActive: true}
	require.NoError(t, calendars.Create(context.Background(), calendar))
	return calendar
}

func TestPostgres_CreateIfFreeUnderRace(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	calendars := repository.NewCalendarRepository(pool)
	bookings := repository.NewBookingRepository(pool)
	calendar := createCalendar(t, calendars)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM bookings WHERE calendar_id = $1`, calendar.ID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM calendars WHERE id = $1`, calendar.ID)
	})

	date := model.MustParseDate("2031-02-05")
	const attempts = 20
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		wins, lost int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := bookings.CreateIfFree(ctx, &model.Booking{
				ID:              uuid.NewString(),
				CalendarID:      calendar.ID,
				ExperienceID:    "exp1",
				Date:            date,
				Time:            model.MustParseClock("09:00"),
				DurationMinutes: 120,
				Guest:           model.GuestInfo{Name: "Guest", Email: "guest@example.com", GuestCount: 2},
				Status:          model.BookingStatusConfirmed,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, repository.ErrDuplicate):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, lost)

	holding, err := bookings.ListHolding(ctx, calendar.ID, "exp1", model.DateRange{From: date, To: date})
	require.NoError(t, err)
	assert.Len(t, holding, 1)
}

func TestPostgres_OverrideUniquePerDate(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	calendars := repository.NewCalendarRepository(pool)
	overrides := repository.NewOverrideRepository(pool)
	calendar := createCalendar(t, calendars)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM calendars WHERE id = $1`, calendar.ID)
	})

	date := model.MustParseDate("2031-03-01")
	first := &model.DateOverride{ID: uuid.NewString(), CalendarID: calendar.ID, Date: date, IsBlocked: true}
	require.NoError(t, overrides.Create(ctx, first))

	second := &model.DateOverride{ID: uuid.NewString(), CalendarID: calendar.ID, Date: date, IsBlocked: true}
	assert.ErrorIs(t, overrides.Create(ctx, second), repository.ErrDuplicate)

	deleted, err := overrides.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = overrides.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPostgres_DeleteUnlessLastActive(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	calendars := repository.NewCalendarRepository(pool)

	// Тест работает на пустой таблице календарей, иначе посторонние строки влияют на подсчёт
	var existing int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM calendars`).Scan(&existing))
	if existing > 0 {
		t.Skip("calendars table is not empty")
	}

	active := createCalendar(t, calendars)
	dormant := &model.Calendar{ID: "test-" + uuid.NewString(), Name: "Dormant", IsActive: false}
	require.NoError(t, calendars.Create(ctx, dormant))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM calendars WHERE id = ANY($1)`, []string{active.ID, dormant.ID})
	})

	assert.ErrorIs(t, calendars.DeleteUnlessLast(ctx, active.ID), repository.ErrLastCalendar)
	require.NoError(t, calendars.DeleteUnlessLast(ctx, dormant.ID))
	assert.ErrorIs(t, calendars.DeleteUnlessLast(ctx, active.ID), repository.ErrLastCalendar)
}
