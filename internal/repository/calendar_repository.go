package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CalendarRepository struct {
	*base.Repository
}

func NewCalendarRepository(pool *pgxpool.Pool) *CalendarRepository {
	return &CalendarRepository{Repository: base.NewRepository(pool)}
}

const calendarColumns = `id, name, color, assignee, is_active, created_at, updated_at`

func scanCalendar(row pgx.Row) (*model.Calendar, error) {
	var c model.Calendar
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Color,
		&c.Assignee,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create создаёт новый календарь
func (r *CalendarRepository) Create(ctx context.Context, calendar *model.Calendar) error {
	query := `
		INSERT INTO calendars (id, name, color, assignee, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.Pool().QueryRow(
		ctx, query,
		calendar.ID,
		calendar.Name,
		calendar.Color,
		calendar.Assignee,
		calendar.IsActive,
	).Scan(&calendar.CreatedAt, &calendar.UpdatedAt)

	if base.IsUniqueViolation(err) {
		return fmt.Errorf("create calendar %s: %w", calendar.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create calendar: %w", err)
	}

	return nil
}

// GetByID получает календарь по ID, nil если не найден
func (r *CalendarRepository) GetByID(ctx context.Context, id string) (*model.Calendar, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendars WHERE id = $1`

	calendar, err := scanCalendar(r.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get calendar by id: %w", err)
	}

	return calendar, nil
}

// List возвращает календари, по умолчанию только активные
func (r *CalendarRepository) List(ctx context.Context, includeInactive bool) ([]*model.Calendar, error) {
	query := `
		SELECT ` + calendarColumns + `
		FROM calendars
		WHERE is_active = true OR $1
		ORDER BY name, id
	`

	rows, err := r.Pool().Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	defer rows.Close()

	var calendars []*model.Calendar
	for rows.Next() {
		calendar, err := scanCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar: %w", err)
		}
		calendars = append(calendars, calendar)
	}

	return calendars, rows.Err()
}

// Update обновляет название, цвет, ответственного и флаг активности
func (r *CalendarRepository) Update(ctx context.Context, calendar *model.Calendar) error {
	query := `
		UPDATE calendars
		SET name = $2, color = $3, assignee = $4, is_active = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.Pool().QueryRow(
		ctx, query,
		calendar.ID,
		calendar.Name,
		calendar.Color,
		calendar.Assignee,
		calendar.IsActive,
	).Scan(&calendar.UpdatedAt)

	if base.IsNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}

	return nil
}

// DeleteUnlessLast удаляет календарь, если после удаления останется хотя бы один календарь
// и хотя бы один активный. Все строки calendars блокируются, чтобы два параллельных удаления
// не обошли проверку.
func (r *CalendarRepository) DeleteUnlessLast(ctx context.Context, id string) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id, is_active FROM calendars ORDER BY id FOR UPDATE`)
		if err != nil {
			return fmt.Errorf("lock calendars: %w", err)
		}

		var (
			total, active  int
			found          bool
			targetIsActive bool
		)
		for rows.Next() {
			var (
				calendarID string
				isActive   bool
			)
			if err := rows.Scan(&calendarID, &isActive); err != nil {
				rows.Close()
				return fmt.Errorf("scan calendar: %w", err)
			}
			total++
			if isActive {
				active++
			}
			if calendarID == id {
				found = true
				targetIsActive = isActive
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("lock calendars: %w", err)
		}

		if !found {
			return ErrNotFound
		}
		if total <= 1 || (targetIsActive && active <= 1) {
			return ErrLastCalendar
		}

		_, err = tx.Exec(ctx, `DELETE FROM calendars WHERE id = $1`, id)
		if base.IsForeignKeyViolation(err) {
			return ErrReferenced
		}
		if err != nil {
			return fmt.Errorf("delete calendar: %w", err)
		}
		return nil
	})
}
