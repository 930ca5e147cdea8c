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

// OverrideRepository хранит исключения по датам, не более одного на (календарь, дата)
type OverrideRepository struct {
	*base.Repository
}

func NewOverrideRepository(pool *pgxpool.Pool) *OverrideRepository {
	return &OverrideRepository{Repository: base.NewRepository(pool)}
}

const overrideColumns = `id, calendar_id, override_date, is_blocked, windows, experience_ids, note, created_at, updated_at`

func scanOverride(row pgx.Row) (*model.DateOverride, error) {
	o := &model.DateOverride{}
	var date time.Time
	err := row.Scan(
		&o.ID,
		&o.CalendarID,
		&date,
		&o.IsBlocked,
		&o.Windows,
		&o.ExperienceIDs,
		&o.Note,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Date = model.DateOf(date)
	return o, nil
}

// Create создаёт исключение. Повторная вставка на ту же дату даёт ErrDuplicate.
func (r *OverrideRepository) Create(ctx context.Context, o *model.DateOverride) error {
	query := `
		INSERT INTO date_overrides (id, calendar_id, override_date, is_blocked, windows, experience_ids, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.Pool().QueryRow(
		ctx, query,
		o.ID,
		o.CalendarID,
		o.Date.Time(),
		o.IsBlocked,
		nonNilWindows(o.Windows),
		nonNilStrings(o.ExperienceIDs),
		o.Note,
	).Scan(&o.CreatedAt, &o.UpdatedAt)

	switch {
	case base.IsUniqueViolation(err):
		return fmt.Errorf("create date override for %s: %w", o.Date, ErrDuplicate)
	case base.IsForeignKeyViolation(err):
		return fmt.Errorf("create date override: calendar %s: %w", o.CalendarID, ErrNotFound)
	case err != nil:
		return fmt.Errorf("create date override: %w", err)
	}

	return nil
}

// GetByID получает исключение по ID, nil если не найдено
func (r *OverrideRepository) GetByID(ctx context.Context, id string) (*model.DateOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM date_overrides WHERE id = $1`

	o, err := scanOverride(r.Pool().QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get date override by id: %w", err)
	}

	return o, nil
}

// ListByCalendar исключения календаря в диапазоне дат включительно
func (r *OverrideRepository) ListByCalendar(ctx context.Context, calendarID string, dates model.DateRange) ([]*model.DateOverride, error) {
	query := `
		SELECT ` + overrideColumns + `
		FROM date_overrides
		WHERE calendar_id = $1
		  AND override_date >= $2
		  AND override_date <= $3
		ORDER BY override_date
	`

	rows, err := r.Pool().Query(ctx, query, calendarID, dates.From.Time(), dates.To.Time())
	if err != nil {
		return nil, fmt.Errorf("get date overrides by calendar: %w", err)
	}
	defer rows.Close()

	var overrides []*model.DateOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scan date override: %w", err)
		}
		overrides = append(overrides, o)
	}

	return overrides, rows.Err()
}

// Update обновляет исключение. Перенос на уже занятую дату даёт ErrDuplicate.
func (r *OverrideRepository) Update(ctx context.Context, o *model.DateOverride) error {
	query := `
		UPDATE date_overrides
		SET override_date = $2, is_blocked = $3, windows = $4, experience_ids = $5, note = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.Pool().QueryRow(
		ctx, query,
		o.ID,
		o.Date.Time(),
		o.IsBlocked,
		nonNilWindows(o.Windows),
		nonNilStrings(o.ExperienceIDs),
		o.Note,
	).Scan(&o.UpdatedAt)

	switch {
	case base.IsNotFound(err):
		return ErrNotFound
	case base.IsUniqueViolation(err):
		return fmt.Errorf("update date override to %s: %w", o.Date, ErrDuplicate)
	case err != nil:
		return fmt.Errorf("update date override: %w", err)
	}

	return nil
}

// Delete удаляет исключение. Отсутствующий ID не ошибка.
func (r *OverrideRepository) Delete(ctx context.Context, id string) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM date_overrides WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete date override: %w", err)
	}
	return affected > 0, nil
}
