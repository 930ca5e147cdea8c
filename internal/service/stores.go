package service

import (
	"context"

	"github.com/Freeeeeet/concierge_slots/internal/model"
)

// Контракты хранилищ. Реализуются repository (PostgreSQL) и memstore.
// GetByID/GetExperience возвращают nil, nil если записи нет.

type CalendarStore interface {
	Create(ctx context.Context, calendar *model.Calendar) error
	GetByID(ctx context.Context, id string) (*model.Calendar, error)
	List(ctx context.Context, includeInactive bool) ([]*model.Calendar, error)
	Update(ctx context.Context, calendar *model.Calendar) error
	// DeleteUnlessLast атомарно проверяет что календарь не последний и удаляет его
	DeleteUnlessLast(ctx context.Context, id string) error
}

type RuleStore interface {
	Create(ctx context.Context, rule *model.RecurringRule) error
	GetByID(ctx context.Context, id string) (*model.RecurringRule, error)
	ListByCalendar(ctx context.Context, calendarID string) ([]*model.RecurringRule, error)
	Update(ctx context.Context, rule *model.RecurringRule) error
	Delete(ctx context.Context, id string) (bool, error)
}

type OverrideStore interface {
	Create(ctx context.Context, override *model.DateOverride) error
	GetByID(ctx context.Context, id string) (*model.DateOverride, error)
	ListByCalendar(ctx context.Context, calendarID string, dates model.DateRange) ([]*model.DateOverride, error)
	Update(ctx context.Context, override *model.DateOverride) error
	Delete(ctx context.Context, id string) (bool, error)
}

type BookingStore interface {
	// CreateIfFree единственная критическая секция: проверка ключа слота и вставка атомарны.
	// Проигравший гонку получает repository.ErrDuplicate.
	CreateIfFree(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListHolding(ctx context.Context, calendarID, experienceID string, dates model.DateRange) ([]*model.Booking, error)
	ListByCalendar(ctx context.Context, calendarID string, dates model.DateRange) ([]*model.Booking, error)
	TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) (*model.Booking, error)
	CompleteBefore(ctx context.Context, date model.Date) (int64, error)
}

// Catalog граница с сервисом каталога впечатлений
type Catalog interface {
	GetExperience(ctx context.Context, id string) (*model.Experience, error)
	ListExperiences(ctx context.Context) ([]*model.Experience, error)
	UpsertExperience(ctx context.Context, experience *model.Experience) error
}
