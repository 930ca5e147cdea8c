package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CalendarInput поля календаря, которые задаёт оператор
type CalendarInput struct {
	ID       string  `json:"id,omitempty" validate:"omitempty,max=64"`
	Name     string  `json:"name" validate:"required,max=100"`
	Color    string  `json:"color" validate:"omitempty,hexcolor"`
	Assignee *string `json:"assignee,omitempty" validate:"omitempty,max=100"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// CalendarService реестр календарей. Единственное место, где охраняется
// правило "в системе всегда есть хотя бы один календарь".
type CalendarService struct {
	calendars CalendarStore
	logger    *zap.Logger
}

func NewCalendarService(calendars CalendarStore, logger *zap.Logger) *CalendarService {
	return &CalendarService{
		calendars: calendars,
		logger:    logger,
	}
}

// CreateCalendar создаёт календарь, по умолчанию активный
func (s *CalendarService) CreateCalendar(ctx context.Context, in CalendarInput) (*model.Calendar, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	calendar := &model.Calendar{
		ID:       in.ID,
		Name:     in.Name,
		Color:    in.Color,
		Assignee: in.Assignee,
		IsActive: true,
	}
	if calendar.ID == "" {
		calendar.ID = uuid.NewString()
	}
	if in.IsActive != nil {
		calendar.IsActive = *in.IsActive
	}

	err := s.calendars.Create(ctx, calendar)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, conflictf("calendar %s already exists", calendar.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("create calendar: %w", err)
	}

	s.logger.Info("Calendar created",
		zap.String("calendar_id", calendar.ID),
		zap.String("name", calendar.Name),
		zap.Bool("active", calendar.IsActive),
	)
	return calendar, nil
}

// GetCalendar возвращает календарь или ErrNotFound
func (s *CalendarService) GetCalendar(ctx context.Context, id string) (*model.Calendar, error) {
	calendar, err := s.calendars.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if calendar == nil {
		return nil, notFound("calendar", id)
	}
	return calendar, nil
}

func (s *CalendarService) ListCalendars(ctx context.Context, includeInactive bool) ([]*model.Calendar, error) {
	return s.calendars.List(ctx, includeInactive)
}

// UpdateCalendar меняет название, цвет и ответственного. Флаг активности меняется только если передан.
func (s *CalendarService) UpdateCalendar(ctx context.Context, id string, in CalendarInput) (*model.Calendar, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	calendar, err := s.GetCalendar(ctx, id)
	if err != nil {
		return nil, err
	}

	calendar.Name = in.Name
	calendar.Color = in.Color
	calendar.Assignee = in.Assignee
	if in.IsActive != nil {
		calendar.IsActive = *in.IsActive
	}

	if err := s.save(ctx, calendar); err != nil {
		return nil, err
	}

	s.logger.Info("Calendar updated", zap.String("calendar_id", id))
	return calendar, nil
}

// SetCalendarActive включает или выключает календарь. Правила и история броней сохраняются.
func (s *CalendarService) SetCalendarActive(ctx context.Context, id string, active bool) (*model.Calendar, error) {
	calendar, err := s.GetCalendar(ctx, id)
	if err != nil {
		return nil, err
	}
	if calendar.IsActive == active {
		return calendar, nil
	}

	calendar.IsActive = active
	if err := s.save(ctx, calendar); err != nil {
		return nil, err
	}

	s.logger.Info("Calendar active flag changed",
		zap.String("calendar_id", id),
		zap.Bool("active", active),
	)
	return calendar, nil
}

func (s *CalendarService) save(ctx context.Context, calendar *model.Calendar) error {
	err := s.calendars.Update(ctx, calendar)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("calendar", calendar.ID)
	}
	if err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	return nil
}

// DeleteCalendar удаляет календарь вместе с его правилами и исключениями.
// Нельзя удалить последний календарь и последний активный календарь;
// календарь с бронями нужно выключать, а не удалять.
func (s *CalendarService) DeleteCalendar(ctx context.Context, id string) error {
	err := s.calendars.DeleteUnlessLast(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound("calendar", id)
	case errors.Is(err, repository.ErrLastCalendar):
		s.logger.Warn("Refused to delete the last calendar", zap.String("calendar_id", id))
		return fmt.Errorf("%w: calendar %s is the last remaining or last active calendar", ErrInvariantViolation, id)
	case errors.Is(err, repository.ErrReferenced):
		return conflictf("calendar %s has bookings, deactivate it instead", id)
	case err != nil:
		return fmt.Errorf("delete calendar: %w", err)
	}

	s.logger.Info("Calendar deleted", zap.String("calendar_id", id))
	return nil
}
