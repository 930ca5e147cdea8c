// Package memstore хранилище в памяти с теми же контрактами, что и PostgreSQL-репозитории.
// Используется в режиме STORAGE=memory и в тестах сервисов.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository"
)

// Store общее состояние всех таблиц под одним мьютексом
type Store struct {
	mu          sync.RWMutex
	calendars   map[string]*model.Calendar
	rules       map[string]*model.RecurringRule
	overrides   map[string]*model.DateOverride
	bookings    map[string]*model.Booking
	experiences map[string]*model.Experience
	now         func() time.Time
}

func New() *Store {
	return &Store{
		calendars:   make(map[string]*model.Calendar),
		rules:       make(map[string]*model.RecurringRule),
		overrides:   make(map[string]*model.DateOverride),
		bookings:    make(map[string]*model.Booking),
		experiences: make(map[string]*model.Experience),
		now:         time.Now,
	}
}

func (s *Store) Calendars() *CalendarStore     { return &CalendarStore{s} }
func (s *Store) Rules() *RuleStore             { return &RuleStore{s} }
func (s *Store) Overrides() *OverrideStore     { return &OverrideStore{s} }
func (s *Store) Bookings() *BookingStore       { return &BookingStore{s} }
func (s *Store) Experiences() *ExperienceStore { return &ExperienceStore{s} }

// Ping всегда успешен
func (s *Store) Ping(context.Context) error { return nil }

// ===== Calendars =====

type CalendarStore struct{ s *Store }

func (c *CalendarStore) Create(_ context.Context, calendar *model.Calendar) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, exists := c.s.calendars[calendar.ID]; exists {
		return repository.ErrDuplicate
	}
	calendar.CreatedAt = c.s.now()
	calendar.UpdatedAt = calendar.CreatedAt
	c.s.calendars[calendar.ID] = cloneCalendar(calendar)
	return nil
}

func (c *CalendarStore) GetByID(_ context.Context, id string) (*model.Calendar, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	if calendar, ok := c.s.calendars[id]; ok {
		return cloneCalendar(calendar), nil
	}
	return nil, nil
}

func (c *CalendarStore) List(_ context.Context, includeInactive bool) ([]*model.Calendar, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var calendars []*model.Calendar
	for _, calendar := range c.s.calendars {
		if calendar.IsActive || includeInactive {
			calendars = append(calendars, cloneCalendar(calendar))
		}
	}
	sort.Slice(calendars, func(i, j int) bool {
		if calendars[i].Name != calendars[j].Name {
			return calendars[i].Name < calendars[j].Name
		}
		return calendars[i].ID < calendars[j].ID
	})
	return calendars, nil
}

func (c *CalendarStore) Update(_ context.Context, calendar *model.Calendar) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	existing, ok := c.s.calendars[calendar.ID]
	if !ok {
		return repository.ErrNotFound
	}
	calendar.CreatedAt = existing.CreatedAt
	calendar.UpdatedAt = c.s.now()
	c.s.calendars[calendar.ID] = cloneCalendar(calendar)
	return nil
}

func (c *CalendarStore) DeleteUnlessLast(_ context.Context, id string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	target, ok := c.s.calendars[id]
	if !ok {
		return repository.ErrNotFound
	}
	active := 0
	for _, calendar := range c.s.calendars {
		if calendar.IsActive {
			active++
		}
	}
	if len(c.s.calendars) <= 1 || (target.IsActive && active <= 1) {
		return repository.ErrLastCalendar
	}
	for _, b := range c.s.bookings {
		if b.CalendarID == id {
			return repository.ErrReferenced
		}
	}

	delete(c.s.calendars, id)
	for ruleID, rule := range c.s.rules {
		if rule.CalendarID == id {
			delete(c.s.rules, ruleID)
		}
	}
	for overrideID, o := range c.s.overrides {
		if o.CalendarID == id {
			delete(c.s.overrides, overrideID)
		}
	}
	return nil
}

// ===== Recurring rules =====

type RuleStore struct{ s *Store }

func (r *RuleStore) Create(_ context.Context, rule *model.RecurringRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.calendars[rule.CalendarID]; !ok {
		return repository.ErrNotFound
	}
	if _, exists := r.s.rules[rule.ID]; exists {
		return repository.ErrDuplicate
	}
	rule.CreatedAt = r.s.now()
	rule.UpdatedAt = rule.CreatedAt
	r.s.rules[rule.ID] = cloneRule(rule)
	return nil
}

func (r *RuleStore) GetByID(_ context.Context, id string) (*model.RecurringRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if rule, ok := r.s.rules[id]; ok {
		return cloneRule(rule), nil
	}
	return nil, nil
}

func (r *RuleStore) ListByCalendar(_ context.Context, calendarID string) ([]*model.RecurringRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rules []*model.RecurringRule
	for _, rule := range r.s.rules {
		if rule.CalendarID == calendarID {
			rules = append(rules, cloneRule(rule))
		}
	}
	sort.Slice(rules, func(i, j int) bool {
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.Before(rules[j].CreatedAt)
		}
		return rules[i].ID < rules[j].ID
	})
	return rules, nil
}

func (r *RuleStore) Update(_ context.Context, rule *model.RecurringRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.rules[rule.ID]
	if !ok {
		return repository.ErrNotFound
	}
	rule.CalendarID = existing.CalendarID
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = r.s.now()
	r.s.rules[rule.ID] = cloneRule(rule)
	return nil
}

func (r *RuleStore) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.rules[id]
	delete(r.s.rules, id)
	return ok, nil
}

// ===== Date overrides =====

type OverrideStore struct{ s *Store }

func (o *OverrideStore) dateTaken(calendarID string, date model.Date, exceptID string) bool {
	for _, existing := range o.s.overrides {
		if existing.ID != exceptID && existing.CalendarID == calendarID && existing.Date == date {
			return true
		}
	}
	return false
}

func (o *OverrideStore) Create(_ context.Context, override *model.DateOverride) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	if _, ok := o.s.calendars[override.CalendarID]; !ok {
		return repository.ErrNotFound
	}
	if o.dateTaken(override.CalendarID, override.Date, "") {
		return repository.ErrDuplicate
	}
	override.CreatedAt = o.s.now()
	override.UpdatedAt = override.CreatedAt
	o.s.overrides[override.ID] = cloneOverride(override)
	return nil
}

func (o *OverrideStore) GetByID(_ context.Context, id string) (*model.DateOverride, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	if override, ok := o.s.overrides[id]; ok {
		return cloneOverride(override), nil
	}
	return nil, nil
}

func (o *OverrideStore) ListByCalendar(_ context.Context, calendarID string, dates model.DateRange) ([]*model.DateOverride, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	var overrides []*model.DateOverride
	for _, override := range o.s.overrides {
		if override.CalendarID == calendarID && dates.Contains(override.Date) {
			overrides = append(overrides, cloneOverride(override))
		}
	}
	sort.Slice(overrides, func(i, j int) bool {
		return overrides[i].Date.Before(overrides[j].Date)
	})
	return overrides, nil
}

func (o *OverrideStore) Update(_ context.Context, override *model.DateOverride) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	existing, ok := o.s.overrides[override.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if o.dateTaken(existing.CalendarID, override.Date, override.ID) {
		return repository.ErrDuplicate
	}
	override.CalendarID = existing.CalendarID
	override.CreatedAt = existing.CreatedAt
	override.UpdatedAt = o.s.now()
	o.s.overrides[override.ID] = cloneOverride(override)
	return nil
}

func (o *OverrideStore) Delete(_ context.Context, id string) (bool, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	_, ok := o.s.overrides[id]
	delete(o.s.overrides, id)
	return ok, nil
}

// ===== Bookings =====

type BookingStore struct{ s *Store }

// CreateIfFree проверка ключа и вставка под одним эксклюзивным замком
func (b *BookingStore) CreateIfFree(_ context.Context, booking *model.Booking) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if _, ok := b.s.calendars[booking.CalendarID]; !ok {
		return repository.ErrNotFound
	}
	key := booking.Key()
	for _, existing := range b.s.bookings {
		if existing.Status.HoldsSlot() && existing.Key() == key {
			return repository.ErrDuplicate
		}
	}

	booking.CreatedAt = b.s.now()
	booking.UpdatedAt = booking.CreatedAt
	b.s.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (b *BookingStore) GetByID(_ context.Context, id string) (*model.Booking, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	if booking, ok := b.s.bookings[id]; ok {
		return cloneBooking(booking), nil
	}
	return nil, nil
}

func (b *BookingStore) ListHolding(_ context.Context, calendarID, experienceID string, dates model.DateRange) ([]*model.Booking, error) {
	return b.list(func(booking *model.Booking) bool {
		return booking.CalendarID == calendarID &&
			booking.ExperienceID == experienceID &&
			booking.Status.HoldsSlot() &&
			dates.Contains(booking.Date)
	}), nil
}

func (b *BookingStore) ListByCalendar(_ context.Context, calendarID string, dates model.DateRange) ([]*model.Booking, error) {
	return b.list(func(booking *model.Booking) bool {
		return booking.CalendarID == calendarID && dates.Contains(booking.Date)
	}), nil
}

func (b *BookingStore) list(match func(*model.Booking) bool) []*model.Booking {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	var bookings []*model.Booking
	for _, booking := range b.s.bookings {
		if match(booking) {
			bookings = append(bookings, cloneBooking(booking))
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Date != bookings[j].Date {
			return bookings[i].Date.Before(bookings[j].Date)
		}
		if bookings[i].Time != bookings[j].Time {
			return bookings[i].Time < bookings[j].Time
		}
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})
	return bookings
}

func (b *BookingStore) TransitionStatus(_ context.Context, id string, from []model.BookingStatus, to model.BookingStatus) (*model.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	booking, ok := b.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !slices.Contains(from, booking.Status) {
		return cloneBooking(booking), repository.ErrStaleStatus
	}

	booking.Status = to
	booking.UpdatedAt = b.s.now()
	if to == model.BookingStatusCancelled {
		cancelledAt := booking.UpdatedAt
		booking.CancelledAt = &cancelledAt
	}
	return cloneBooking(booking), nil
}

func (b *BookingStore) CompleteBefore(_ context.Context, date model.Date) (int64, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	var n int64
	for _, booking := range b.s.bookings {
		if booking.Status == model.BookingStatusConfirmed && booking.Date.Before(date) {
			booking.Status = model.BookingStatusCompleted
			booking.UpdatedAt = b.s.now()
			n++
		}
	}
	return n, nil
}

// ===== Experiences =====

type ExperienceStore struct{ s *Store }

func (e *ExperienceStore) GetExperience(_ context.Context, id string) (*model.Experience, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if experience, ok := e.s.experiences[id]; ok {
		copied := *experience
		return &copied, nil
	}
	return nil, nil
}

func (e *ExperienceStore) ListExperiences(_ context.Context) ([]*model.Experience, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	experiences := make([]*model.Experience, 0, len(e.s.experiences))
	for _, experience := range e.s.experiences {
		copied := *experience
		experiences = append(experiences, &copied)
	}
	sort.Slice(experiences, func(i, j int) bool {
		if experiences[i].Name != experiences[j].Name {
			return experiences[i].Name < experiences[j].Name
		}
		return experiences[i].ID < experiences[j].ID
	})
	return experiences, nil
}

func (e *ExperienceStore) UpsertExperience(_ context.Context, experience *model.Experience) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	experience.UpdatedAt = e.s.now()
	copied := *experience
	e.s.experiences[experience.ID] = &copied
	return nil
}

// ===== copies =====

func cloneCalendar(c *model.Calendar) *model.Calendar {
	copied := *c
	if c.Assignee != nil {
		assignee := *c.Assignee
		copied.Assignee = &assignee
	}
	return &copied
}

func cloneRule(r *model.RecurringRule) *model.RecurringRule {
	copied := *r
	copied.Weekdays = slices.Clone(r.Weekdays)
	copied.Windows = slices.Clone(r.Windows)
	copied.ExperienceIDs = slices.Clone(r.ExperienceIDs)
	return &copied
}

func cloneOverride(o *model.DateOverride) *model.DateOverride {
	copied := *o
	copied.Windows = slices.Clone(o.Windows)
	copied.ExperienceIDs = slices.Clone(o.ExperienceIDs)
	if o.Note != nil {
		note := *o.Note
		copied.Note = &note
	}
	return &copied
}

func cloneBooking(b *model.Booking) *model.Booking {
	copied := *b
	if b.CancelledAt != nil {
		cancelledAt := *b.CancelledAt
		copied.CancelledAt = &cancelledAt
	}
	return &copied
}
