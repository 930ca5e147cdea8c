package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/availability"
	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const defaultResolveWorkers = 8

// CalendarAvailability результат разрешения одного календаря в общей выдаче
type CalendarAvailability struct {
	Calendar *model.Calendar     `json:"calendar"`
	Days     []model.ResolvedDay `json:"days"`
}

// AvailabilityService путь чтения: собирает снимок из хранилищ и отдаёт его чистому движку.
// Ничего не блокирует и ничего не кэширует, поэтому отмена брони видна сразу.
type AvailabilityService struct {
	calendars CalendarStore
	rules     RuleStore
	overrides OverrideStore
	bookings  BookingStore
	catalog   Catalog
	location  *time.Location
	maxDays   int
	workers   int
	now       func() time.Time
	logger    *zap.Logger
}

func NewAvailabilityService(
	calendars CalendarStore,
	rules RuleStore,
	overrides OverrideStore,
	bookings BookingStore,
	catalog Catalog,
	location *time.Location,
	maxDays int,
	logger *zap.Logger,
) *AvailabilityService {
	if location == nil {
		location = time.UTC
	}
	return &AvailabilityService{
		calendars: calendars,
		rules:     rules,
		overrides: overrides,
		bookings:  bookings,
		catalog:   catalog,
		location:  location,
		maxDays:   maxDays,
		workers:   defaultResolveWorkers,
		now:       time.Now,
		logger:    logger,
	}
}

// SetClock подменяет источник текущего времени (тесты, фиксированная дата)
func (s *AvailabilityService) SetClock(now func() time.Time) {
	s.now = now
}

// Today сегодняшняя дата в часовом поясе сервиса
func (s *AvailabilityService) Today() model.Date {
	return model.Today(s.now(), s.location)
}

// Resolve разрешает слоты календаря для впечатления на каждую дату диапазона.
// duration > 0 заменяет длительность из каталога.
func (s *AvailabilityService) Resolve(ctx context.Context, calendarID, experienceID string, dates model.DateRange, duration time.Duration) ([]model.ResolvedDay, error) {
	if err := dates.Validate(s.maxDays); err != nil {
		return nil, validationf("%v", err)
	}
	if experienceID == "" {
		return nil, validationf("experience_id is required")
	}

	calendar, err := s.calendars.GetByID(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	if calendar == nil {
		return nil, notFound("calendar", calendarID)
	}

	experience, err := s.catalog.GetExperience(ctx, experienceID)
	if err != nil {
		return nil, fmt.Errorf("get experience: %w", err)
	}

	in, err := s.snapshot(ctx, calendar, experienceID, experience, dates, duration)
	if err != nil {
		return nil, err
	}
	return availability.Resolve(in), nil
}

// ResolveAcrossCalendars разрешает все активные календари параллельно ограниченным пулом
func (s *AvailabilityService) ResolveAcrossCalendars(ctx context.Context, experienceID string, dates model.DateRange) ([]CalendarAvailability, error) {
	if err := dates.Validate(s.maxDays); err != nil {
		return nil, validationf("%v", err)
	}
	if experienceID == "" {
		return nil, validationf("experience_id is required")
	}

	calendars, err := s.calendars.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	experience, err := s.catalog.GetExperience(ctx, experienceID)
	if err != nil {
		return nil, fmt.Errorf("get experience: %w", err)
	}

	type indexed struct {
		order int
		CalendarAvailability
	}

	p := pool.NewWithResults[indexed]().
		WithContext(ctx).
		WithMaxGoroutines(s.workers).
		WithCancelOnError()

	for i, calendar := range calendars {
		p.Go(func(ctx context.Context) (indexed, error) {
			in, err := s.snapshot(ctx, calendar, experienceID, experience, dates, 0)
			if err != nil {
				return indexed{}, fmt.Errorf("calendar %s: %w", calendar.ID, err)
			}
			return indexed{
				order: i,
				CalendarAvailability: CalendarAvailability{
					Calendar: calendar,
					Days:     availability.Resolve(in),
				},
			}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].order < results[j].order })
	out := make([]CalendarAvailability, 0, len(results))
	for _, r := range results {
		out = append(out, r.CalendarAvailability)
	}

	s.logger.Debug("Resolved availability across calendars",
		zap.String("experience_id", experienceID),
		zap.Int("calendars", len(out)),
		zap.Int("days", dates.Days()),
	)
	return out, nil
}

// snapshot читает правила, исключения и занятые брони и собирает вход движка
func (s *AvailabilityService) snapshot(
	ctx context.Context,
	calendar *model.Calendar,
	experienceID string,
	experience *model.Experience,
	dates model.DateRange,
	duration time.Duration,
) (availability.Input, error) {
	in := availability.Input{
		Calendar:     calendar,
		ExperienceID: experienceID,
		Range:        dates,
		Today:        s.Today(),
		Duration:     duration,
	}
	if experience != nil {
		in.ExperienceActive = experience.IsActive
		if in.Duration <= 0 {
			in.Duration = experience.Duration()
		}
	}

	// Выключенный календарь и снятое с продажи впечатление не требуют чтения правил
	if !calendar.IsActive || !in.ExperienceActive {
		return in, nil
	}

	rules, err := s.rules.ListByCalendar(ctx, calendar.ID)
	if err != nil {
		return in, fmt.Errorf("list rules: %w", err)
	}
	overrides, err := s.overrides.ListByCalendar(ctx, calendar.ID, dates)
	if err != nil {
		return in, fmt.Errorf("list overrides: %w", err)
	}
	bookings, err := s.bookings.ListHolding(ctx, calendar.ID, experienceID, dates)
	if err != nil {
		return in, fmt.Errorf("list bookings: %w", err)
	}

	in.Facts = make([]model.AvailabilityFact, 0, len(rules)+len(overrides))
	for _, rule := range rules {
		in.Facts = append(in.Facts, rule)
	}
	for _, override := range overrides {
		in.Facts = append(in.Facts, override)
	}
	in.Bookings = bookings
	return in, nil
}
