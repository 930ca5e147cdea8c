package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// RuleRepository управляет регулярными правилами доступности в базе данных
type RuleRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewRuleRepository создаёт новый репозиторий
func NewRuleRepository(pool *pgxpool.Pool, logger *zap.Logger) *RuleRepository {
	return &RuleRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

const ruleColumns = `id, calendar_id, name, weekdays, windows, experience_ids, is_active, created_at, updated_at`

func scanRule(row pgx.Row) (*model.RecurringRule, error) {
	rule := &model.RecurringRule{}
	err := row.Scan(
		&rule.ID,
		&rule.CalendarID,
		&rule.Name,
		&rule.Weekdays,
		&rule.Windows,
		&rule.ExperienceIDs,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func nonNilWindows(w []model.TimeWindow) []model.TimeWindow {
	if w == nil {
		return []model.TimeWindow{}
	}
	return w
}

// Create создаёт новое регулярное правило
func (r *RuleRepository) Create(ctx context.Context, rule *model.RecurringRule) error {
	query := `
		INSERT INTO recurring_rules (id, calendar_id, name, weekdays, windows, experience_ids, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.Pool().QueryRow(
		ctx,
		query,
		rule.ID,
		rule.CalendarID,
		rule.Name,
		nonNilInts(rule.Weekdays),
		nonNilWindows(rule.Windows),
		nonNilStrings(rule.ExperienceIDs),
		rule.IsActive,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)

	if base.IsForeignKeyViolation(err) {
		return fmt.Errorf("create recurring rule: calendar %s: %w", rule.CalendarID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create recurring rule: %w", err)
	}

	return nil
}

// GetByID получает правило по ID, nil если не найдено
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*model.RecurringRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM recurring_rules WHERE id = $1`

	rule, err := scanRule(r.Pool().QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recurring rule by id: %w", err)
	}

	return rule, nil
}

// ListByCalendar получает все правила календаря, включая неактивные
func (r *RuleRepository) ListByCalendar(ctx context.Context, calendarID string) ([]*model.RecurringRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM recurring_rules
		WHERE calendar_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.Pool().Query(ctx, query, calendarID)
	if err != nil {
		return nil, fmt.Errorf("get recurring rules by calendar: %w", err)
	}
	defer rows.Close()

	var rules []*model.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// Update обновляет правило целиком
func (r *RuleRepository) Update(ctx context.Context, rule *model.RecurringRule) error {
	query := `
		UPDATE recurring_rules
		SET name = $2, weekdays = $3, windows = $4, experience_ids = $5, is_active = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.Pool().QueryRow(
		ctx,
		query,
		rule.ID,
		rule.Name,
		nonNilInts(rule.Weekdays),
		nonNilWindows(rule.Windows),
		nonNilStrings(rule.ExperienceIDs),
		rule.IsActive,
	).Scan(&rule.UpdatedAt)

	if base.IsNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update recurring rule: %w", err)
	}

	return nil
}

// Delete удаляет правило. Отсутствующий ID не ошибка: возвращает false.
func (r *RuleRepository) Delete(ctx context.Context, id string) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM recurring_rules WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete recurring rule: %w", err)
	}

	if affected == 0 {
		r.logger.Debug("Recurring rule already absent", zap.String("rule_id", id))
	}

	return affected > 0, nil
}
