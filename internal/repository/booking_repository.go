package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

const bookingColumns = `id, calendar_id, experience_id, booking_date, booking_time, duration_minutes, guest, status, created_at, updated_at, cancelled_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		booking model.Booking
		date    time.Time
		clock   string
	)
	err := row.Scan(
		&booking.ID,
		&booking.CalendarID,
		&booking.ExperienceID,
		&date,
		&clock,
		&booking.DurationMinutes,
		&booking.Guest,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.CancelledAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Date = model.DateOf(date)
	booking.Time, err = model.ParseClock(clock)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", booking.ID, err)
	}
	return &booking, nil
}

func collectBookings(rows pgx.Rows) ([]*model.Booking, error) {
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// CreateIfFree атомарно проверяет ключ слота и вставляет бронь в одной транзакции.
// Проигравший гонку писатель получает ErrDuplicate от уникального индекса uq_bookings_active_slot.
func (r *BookingRepository) CreateIfFree(ctx context.Context, booking *model.Booking) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		var taken bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM bookings
				WHERE calendar_id = $1
				  AND experience_id = $2
				  AND booking_date = $3
				  AND booking_time = $4
				  AND status <> 'cancelled'
			)
		`,
			booking.CalendarID,
			booking.ExperienceID,
			booking.Date.Time(),
			booking.Time.String(),
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("check slot taken: %w", err)
		}
		if taken {
			return ErrDuplicate
		}

		query := `
			INSERT INTO bookings (id, calendar_id, experience_id, booking_date, booking_time, duration_minutes, guest, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at
		`
		err = tx.QueryRow(
			ctx, query,
			booking.ID,
			booking.CalendarID,
			booking.ExperienceID,
			booking.Date.Time(),
			booking.Time.String(),
			booking.DurationMinutes,
			booking.Guest,
			booking.Status,
		).Scan(&booking.CreatedAt, &booking.UpdatedAt)

		switch {
		case base.IsUniqueViolation(err):
			return ErrDuplicate
		case base.IsForeignKeyViolation(err):
			return fmt.Errorf("create booking: calendar %s: %w", booking.CalendarID, ErrNotFound)
		case err != nil:
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
}

// GetByID получает бронирование по ID, nil если не найдено
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.Pool().QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// ListHolding неотменённые брони (календарь, впечатление) в диапазоне дат
func (r *BookingRepository) ListHolding(ctx context.Context, calendarID, experienceID string, dates model.DateRange) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE calendar_id = $1
		  AND experience_id = $2
		  AND booking_date >= $3
		  AND booking_date <= $4
		  AND status <> 'cancelled'
		ORDER BY booking_date, booking_time
	`

	rows, err := r.Pool().Query(ctx, query, calendarID, experienceID, dates.From.Time(), dates.To.Time())
	if err != nil {
		return nil, fmt.Errorf("get holding bookings: %w", err)
	}
	return collectBookings(rows)
}

// ListByCalendar все брони календаря в диапазоне дат, включая отменённые
func (r *BookingRepository) ListByCalendar(ctx context.Context, calendarID string, dates model.DateRange) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE calendar_id = $1
		  AND booking_date >= $2
		  AND booking_date <= $3
		ORDER BY booking_date, booking_time, created_at
	`

	rows, err := r.Pool().Query(ctx, query, calendarID, dates.From.Time(), dates.To.Time())
	if err != nil {
		return nil, fmt.Errorf("get bookings by calendar: %w", err)
	}
	return collectBookings(rows)
}

// TransitionStatus переводит бронь в статус to, только если текущий статус входит в from.
// ErrNotFound если брони нет, ErrStaleStatus если статус уже другой.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) (*model.Booking, error) {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}

	query := `
		UPDATE bookings
		SET status = $2,
		    updated_at = now(),
		    cancelled_at = CASE WHEN $2 = 'cancelled' THEN now() ELSE cancelled_at END
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.Pool().QueryRow(ctx, query, id, string(to), allowed))
	if err == nil {
		return booking, nil
	}
	if !base.IsNotFound(err) {
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	return existing, ErrStaleStatus
}

// CompleteBefore помечает подтверждённые брони до указанной даты как завершённые
func (r *BookingRepository) CompleteBefore(ctx context.Context, date model.Date) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = now()
		WHERE status = 'confirmed' AND booking_date < $1
	`

	affected, err := r.ExecAffected(ctx, query, date.Time())
	if err != nil {
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}
	return affected, nil
}
