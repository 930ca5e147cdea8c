package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExperienceRepository локальное зеркало каталога впечатлений
type ExperienceRepository struct {
	*base.Repository
}

func NewExperienceRepository(pool *pgxpool.Pool) *ExperienceRepository {
	return &ExperienceRepository{Repository: base.NewRepository(pool)}
}

const experienceColumns = `id, name, duration_minutes, is_active, requires_booking_approval, updated_at`

func scanExperience(row pgx.Row) (*model.Experience, error) {
	var e model.Experience
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.DurationMinutes,
		&e.IsActive,
		&e.RequiresBookingApproval,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetExperience получает впечатление по ID, nil если каталог его не знает
func (r *ExperienceRepository) GetExperience(ctx context.Context, id string) (*model.Experience, error) {
	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE id = $1`

	e, err := scanExperience(r.Pool().QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get experience by id: %w", err)
	}
	return e, nil
}

// ListExperiences все впечатления зеркала
func (r *ExperienceRepository) ListExperiences(ctx context.Context) ([]*model.Experience, error) {
	rows, err := r.Pool().Query(ctx, `SELECT `+experienceColumns+` FROM experiences ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	defer rows.Close()

	var experiences []*model.Experience
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, fmt.Errorf("scan experience: %w", err)
		}
		experiences = append(experiences, e)
	}
	return experiences, rows.Err()
}

// UpsertExperience синхронизирует запись каталога
func (r *ExperienceRepository) UpsertExperience(ctx context.Context, e *model.Experience) error {
	query := `
		INSERT INTO experiences (id, name, duration_minutes, is_active, requires_booking_approval)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    duration_minutes = EXCLUDED.duration_minutes,
		    is_active = EXCLUDED.is_active,
		    requires_booking_approval = EXCLUDED.requires_booking_approval,
		    updated_at = now()
		RETURNING updated_at
	`

	err := r.Pool().QueryRow(
		ctx, query,
		e.ID,
		e.Name,
		e.DurationMinutes,
		e.IsActive,
		e.RequiresBookingApproval,
	).Scan(&e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert experience: %w", err)
	}
	return nil
}
