package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/availability"
	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommitOutcome исход фиксации. Проигранная гонка это обычный результат, а не сбой.
type CommitOutcome string

const (
	OutcomeCommitted        CommitOutcome = "committed"
	OutcomeAlreadyTaken     CommitOutcome = "already_taken"
	OutcomeCalendarInactive CommitOutcome = "calendar_inactive"
	OutcomeSlotNotOffered   CommitOutcome = "slot_not_offered"
	OutcomeUnknown          CommitOutcome = "unknown" // таймаут внутри вставки: перечитайте состояние брони
)

// CommitRequest заявка покупателя на один слот
type CommitRequest struct {
	CalendarID   string          `json:"calendar_id" validate:"required,max=64"`
	ExperienceID string          `json:"experience_id" validate:"required,max=64"`
	Date         model.Date      `json:"date"`
	Time         model.ClockTime `json:"time"`
	Guest        model.GuestInfo `json:"guest"`
}

type CommitResult struct {
	Outcome CommitOutcome  `json:"outcome"`
	Booking *model.Booking `json:"booking,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// Err сопоставляет исходу ошибку таксономии, nil для успешной фиксации
func (r CommitResult) Err() error {
	switch r.Outcome {
	case OutcomeCommitted:
		return nil
	case OutcomeAlreadyTaken:
		return ErrAlreadyTaken
	case OutcomeCalendarInactive:
		return ErrCalendarInactive
	case OutcomeSlotNotOffered:
		return ErrSlotNotOffered
	default:
		return ErrUnknown
	}
}

func rejected(outcome CommitOutcome, reason string) *CommitResult {
	return &CommitResult{Outcome: outcome, Reason: reason}
}

// BookingService протокол фиксации броней и их жизненный цикл
type BookingService struct {
	availability  *AvailabilityService
	calendars     CalendarStore
	bookings      BookingStore
	catalog       Catalog
	commitTimeout time.Duration
	maxDays       int
	logger        *zap.Logger
}

func NewBookingService(
	availabilityService *AvailabilityService,
	calendars CalendarStore,
	bookings BookingStore,
	catalog Catalog,
	commitTimeout time.Duration,
	maxDays int,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		availability:  availabilityService,
		calendars:     calendars,
		bookings:      bookings,
		catalog:       catalog,
		commitTimeout: commitTimeout,
		maxDays:       maxDays,
		logger:        logger,
	}
}

// Commit превращает свободный слот в бронь.
//
// Перед вставкой слот заново разрешается по текущим правилам: клиент мог видеть устаревшую
// картину. Сама проверка занятости и вставка выполняются атомарно хранилищем. Отмена ctx
// учитывается только до начала вставки; после этого попытка доводится до конца или до
// commitTimeout, и таймаут даёт OutcomeUnknown.
func (s *BookingService) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if err := validateCommit(req); err != nil {
		return nil, err
	}

	calendar, err := s.calendars.GetByID(ctx, req.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	if calendar == nil {
		return rejected(OutcomeSlotNotOffered, "calendar does not exist"), nil
	}
	if !calendar.IsActive {
		return rejected(OutcomeCalendarInactive, "calendar is inactive"), nil
	}

	experience, err := s.catalog.GetExperience(ctx, req.ExperienceID)
	if err != nil {
		return nil, fmt.Errorf("get experience: %w", err)
	}
	if experience == nil || !experience.IsActive || experience.DurationMinutes <= 0 {
		return rejected(OutcomeSlotNotOffered, "experience is not available"), nil
	}

	day := model.DateRange{From: req.Date, To: req.Date}
	in, err := s.availability.snapshot(ctx, calendar, req.ExperienceID, experience, day, 0)
	if err != nil {
		return nil, err
	}
	resolved := availability.ResolveDay(in, req.Date)
	if !resolved.Offers(req.Time) {
		return rejected(OutcomeSlotNotOffered, fmt.Sprintf("no slot at %s on %s (%s)", req.Time, req.Date, resolved.Status)), nil
	}

	// Последняя точка, где отмена вызывающим ещё допустима
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("commit cancelled before insert: %w", err)
	}

	booking := &model.Booking{
		ID:              uuid.NewString(),
		CalendarID:      req.CalendarID,
		ExperienceID:    req.ExperienceID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: experience.DurationMinutes,
		Guest:           req.Guest,
		Status:          model.BookingStatusConfirmed,
	}
	if experience.RequiresBookingApproval {
		booking.Status = model.BookingStatusPending
	}

	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
	defer cancel()

	err = s.bookings.CreateIfFree(insertCtx, booking)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicate):
		s.logger.Info("Slot commit lost the race",
			zap.String("calendar_id", req.CalendarID),
			zap.String("experience_id", req.ExperienceID),
			zap.Stringer("date", req.Date),
			zap.Stringer("time", req.Time),
		)
		return rejected(OutcomeAlreadyTaken, "slot is no longer available"), nil
	case errors.Is(err, repository.ErrNotFound):
		return rejected(OutcomeSlotNotOffered, "calendar was removed"), nil
	default:
		// Попытка вставки уже началась: исход неизвестен, клиенту нужно перечитать состояние
		s.logger.Error("Slot commit ended without a definite outcome",
			zap.String("calendar_id", req.CalendarID),
			zap.Stringer("date", req.Date),
			zap.Stringer("time", req.Time),
			zap.Error(err),
		)
		return &CommitResult{Outcome: OutcomeUnknown, Reason: "commit outcome unknown, re-query booking state"}, nil
	}

	s.logger.Info("Slot booked",
		zap.String("booking_id", booking.ID),
		zap.String("calendar_id", booking.CalendarID),
		zap.String("experience_id", booking.ExperienceID),
		zap.Stringer("date", booking.Date),
		zap.Stringer("time", booking.Time),
		zap.String("status", string(booking.Status)),
	)
	return &CommitResult{Outcome: OutcomeCommitted, Booking: booking}, nil
}

func validateCommit(req CommitRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.Date.IsZero() {
		return validationf("date is required")
	}
	if !req.Time.Valid() {
		return validationf("time %s is out of day range", req.Time)
	}
	return nil
}

// GetBooking возвращает бронь или ErrNotFound
func (s *BookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, notFound("booking", id)
	}
	return booking, nil
}

// ListBookings все брони календаря в диапазоне, включая отменённые
func (s *BookingService) ListBookings(ctx context.Context, calendarID string, dates model.DateRange) ([]*model.Booking, error) {
	if err := dates.Validate(s.maxDays); err != nil {
		return nil, validationf("%v", err)
	}
	return s.bookings.ListByCalendar(ctx, calendarID, dates)
}

// CancelBooking освобождает слот. Повторная отмена возвращает ту же бронь без ошибки.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id,
		[]model.BookingStatus{model.BookingStatusPending, model.BookingStatusConfirmed},
		model.BookingStatusCancelled,
	)
}

// ConfirmBooking подтверждает ожидающую бронь
func (s *BookingService) ConfirmBooking(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id,
		[]model.BookingStatus{model.BookingStatusPending},
		model.BookingStatusConfirmed,
	)
}

// CompleteBooking помечает подтверждённую бронь завершённой
func (s *BookingService) CompleteBooking(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id,
		[]model.BookingStatus{model.BookingStatusConfirmed},
		model.BookingStatusCompleted,
	)
}

func (s *BookingService) transition(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) (*model.Booking, error) {
	booking, err := s.bookings.TransitionStatus(ctx, id, from, to)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("booking", id)
	case errors.Is(err, repository.ErrStaleStatus):
		// Бронь уже в целевом статусе: повтор той же операции не ошибка
		if booking == nil {
			return nil, conflictf("booking %s cannot move to %s", id, to)
		}
		if booking.Status == to {
			return booking, nil
		}
		return nil, conflictf("booking %s is %s, cannot move to %s", id, booking.Status, to)
	case err != nil:
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	s.logger.Info("Booking status changed",
		zap.String("booking_id", id),
		zap.String("status", string(to)),
	)
	return booking, nil
}

// CompletePastBookings завершает подтверждённые брони, дата которых уже прошла
func (s *BookingService) CompletePastBookings(ctx context.Context) (int64, error) {
	today := s.availability.Today()
	n, err := s.bookings.CompleteBefore(ctx, today)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Past bookings completed",
			zap.Int64("count", n),
			zap.Stringer("before", today),
		)
	}
	return n, nil
}
