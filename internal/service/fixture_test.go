package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	monday  = model.MustParseDate("2024-02-05")
	tuesday = model.MustParseDate("2024-02-06")
)

type fixture struct {
	store        *memstore.Store
	calendars    *CalendarService
	rules        *RuleService
	availability *AvailabilityService
	bookings     *BookingService
	catalog      *CatalogService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithBookings(t, nil, time.Second)
}

// newFixtureWithBookings позволяет подменить хранилище броней у протокола фиксации
func newFixtureWithBookings(t *testing.T, wrap func(BookingStore) BookingStore, commitTimeout time.Duration) *fixture {
	t.Helper()

	store := memstore.New()
	logger := zap.NewNop()

	var bookingStore BookingStore = store.Bookings()
	if wrap != nil {
		bookingStore = wrap(bookingStore)
	}

	availability := NewAvailabilityService(
		store.Calendars(), store.Rules(), store.Overrides(), store.Bookings(), store.Experiences(),
		time.UTC, 62, logger,
	)
	availability.SetClock(fixedClock("2024-02-01T12:00:00Z"))

	return &fixture{
		store:        store,
		calendars:    NewCalendarService(store.Calendars(), logger),
		rules:        NewRuleService(store.Calendars(), store.Rules(), store.Overrides(), 62, logger),
		availability: availability,
		bookings:     NewBookingService(availability, store.Calendars(), bookingStore, store.Experiences(), commitTimeout, 62, logger),
		catalog:      NewCatalogService(store.Experiences(), logger),
	}
}

func fixedClock(rfc3339 string) func() time.Time {
	now, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return now }
}

func boolPtr(b bool) *bool { return &b }

func window(start, end string) model.TimeWindow {
	return model.TimeWindow{Start: model.MustParseClock(start), End: model.MustParseClock(end)}
}

func day(d model.Date) model.DateRange {
	return model.DateRange{From: d, To: d}
}

// seedScenario: cal-main, будни 09:00-11:00 для всех впечатлений, exp1 длится 2 часа
func (f *fixture) seedScenario(t *testing.T) *model.RecurringRule {
	t.Helper()
	ctx := context.Background()

	_, err := f.calendars.CreateCalendar(ctx, CalendarInput{ID: "cal-main", Name: "Main", Color: "#3366ff"})
	require.NoError(t, err)

	_, err = f.catalog.SyncExperience(ctx, "exp1", ExperienceInput{Name: "City walk", DurationMinutes: 120, IsActive: true})
	require.NoError(t, err)

	rule, err := f.rules.CreateRecurringRule(ctx, "cal-main", RuleInput{
		Name:     "Weekdays",
		Weekdays: []int{1, 2, 3, 4, 5},
		Windows:  []model.TimeWindow{window("09:00", "11:00")},
	})
	require.NoError(t, err)
	return rule
}

func guest() model.GuestInfo {
	return model.GuestInfo{Name: "Anna", Email: "anna@example.com", GuestCount: 2}
}

func commitRequest(date model.Date, at string) CommitRequest {
	return CommitRequest{
		CalendarID:   "cal-main",
		ExperienceID: "exp1",
		Date:         date,
		Time:         model.MustParseClock(at),
		Guest:        guest(),
	}
}
