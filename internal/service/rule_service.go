package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RuleInput регулярное правило в том виде, в каком его присылает оператор
type RuleInput struct {
	Name          string             `json:"name" validate:"max=200"`
	Weekdays      []int              `json:"weekdays"`
	Windows       []model.TimeWindow `json:"windows"`
	ExperienceIDs []string           `json:"experience_ids"`
	IsActive      *bool              `json:"is_active,omitempty"`
}

// OverrideInput исключение на дату: либо IsBlocked, либо список окон
type OverrideInput struct {
	Date          model.Date         `json:"date"`
	IsBlocked     bool               `json:"is_blocked"`
	Windows       []model.TimeWindow `json:"windows"`
	ExperienceIDs []string           `json:"experience_ids"`
	Note          *string            `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// RuleService хранилище фактов доступности: регулярные правила и исключения по датам
type RuleService struct {
	calendars CalendarStore
	rules     RuleStore
	overrides OverrideStore
	maxDays   int
	logger    *zap.Logger
}

func NewRuleService(
	calendars CalendarStore,
	rules RuleStore,
	overrides OverrideStore,
	maxDays int,
	logger *zap.Logger,
) *RuleService {
	return &RuleService{
		calendars: calendars,
		rules:     rules,
		overrides: overrides,
		maxDays:   maxDays,
		logger:    logger,
	}
}

// ===== Regular rules =====

// CreateRecurringRule создаёт правило. Несуществующий календарь это ошибка валидации.
func (s *RuleService) CreateRecurringRule(ctx context.Context, calendarID string, in RuleInput) (*model.RecurringRule, error) {
	rule, err := s.buildRule(in)
	if err != nil {
		return nil, err
	}
	if err := s.requireCalendar(ctx, calendarID); err != nil {
		return nil, err
	}

	rule.ID = uuid.NewString()
	rule.CalendarID = calendarID

	err = s.rules.Create(ctx, rule)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, validationf("calendar %s does not exist", calendarID)
	}
	if err != nil {
		return nil, fmt.Errorf("create recurring rule: %w", err)
	}

	s.logger.Info("Recurring rule created",
		zap.String("rule_id", rule.ID),
		zap.String("calendar_id", calendarID),
		zap.Ints("weekdays", rule.Weekdays),
		zap.Int("windows", len(rule.Windows)),
	)
	return rule, nil
}

// UpdateRecurringRule перезаписывает правило целиком с той же валидацией, что и создание
func (s *RuleService) UpdateRecurringRule(ctx context.Context, id string, in RuleInput) (*model.RecurringRule, error) {
	existing, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	rule, err := s.buildRule(in)
	if err != nil {
		return nil, err
	}
	rule.ID = existing.ID
	rule.CalendarID = existing.CalendarID
	rule.CreatedAt = existing.CreatedAt
	if in.IsActive == nil {
		rule.IsActive = existing.IsActive
	}

	if err := s.saveRule(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("Recurring rule updated", zap.String("rule_id", id))
	return rule, nil
}

// SetRuleActive включает или выключает правило без его удаления
func (s *RuleService) SetRuleActive(ctx context.Context, id string, active bool) (*model.RecurringRule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule.IsActive == active {
		return rule, nil
	}

	rule.IsActive = active
	if err := s.saveRule(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("Recurring rule active flag changed",
		zap.String("rule_id", id),
		zap.Bool("active", active),
	)
	return rule, nil
}

func (s *RuleService) saveRule(ctx context.Context, rule *model.RecurringRule) error {
	err := s.rules.Update(ctx, rule)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("recurring rule", rule.ID)
	}
	if err != nil {
		return fmt.Errorf("update recurring rule: %w", err)
	}
	return nil
}

func (s *RuleService) GetRule(ctx context.Context, id string) (*model.RecurringRule, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, notFound("recurring rule", id)
	}
	return rule, nil
}

// ListRulesForCalendar все правила календаря, включая выключенные
func (s *RuleService) ListRulesForCalendar(ctx context.Context, calendarID string) ([]*model.RecurringRule, error) {
	if err := s.requireExisting(ctx, calendarID); err != nil {
		return nil, err
	}
	return s.rules.ListByCalendar(ctx, calendarID)
}

// DeleteRule идемпотентен: удаление несуществующего правила не ошибка
func (s *RuleService) DeleteRule(ctx context.Context, id string) error {
	deleted, err := s.rules.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		s.logger.Info("Recurring rule deleted", zap.String("rule_id", id))
	}
	return nil
}

func (s *RuleService) buildRule(in RuleInput) (*model.RecurringRule, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	weekdays, err := normalizeWeekdays(in.Weekdays)
	if err != nil {
		return nil, err
	}
	if len(in.Windows) == 0 {
		return nil, validationf("at least one window is required")
	}
	windows, err := normalizeWindows(in.Windows)
	if err != nil {
		return nil, err
	}

	rule := &model.RecurringRule{
		Name:          in.Name,
		Weekdays:      weekdays,
		Windows:       windows,
		ExperienceIDs: normalizeScope(in.ExperienceIDs),
		IsActive:      true,
	}
	if in.IsActive != nil {
		rule.IsActive = *in.IsActive
	}
	return rule, nil
}

// ===== Date overrides =====

// CreateDateOverride создаёт исключение. Второе исключение на ту же дату это ConflictError:
// менять существующее нужно через UpdateDateOverride.
func (s *RuleService) CreateDateOverride(ctx context.Context, calendarID string, in OverrideInput) (*model.DateOverride, error) {
	override, err := buildOverride(in)
	if err != nil {
		return nil, err
	}
	if err := s.requireCalendar(ctx, calendarID); err != nil {
		return nil, err
	}

	override.ID = uuid.NewString()
	override.CalendarID = calendarID

	err = s.overrides.Create(ctx, override)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, conflictf("override for %s already exists on calendar %s, edit it instead", override.Date, calendarID)
	case errors.Is(err, repository.ErrNotFound):
		return nil, validationf("calendar %s does not exist", calendarID)
	case err != nil:
		return nil, fmt.Errorf("create date override: %w", err)
	}

	s.logger.Info("Date override created",
		zap.String("override_id", override.ID),
		zap.String("calendar_id", calendarID),
		zap.Stringer("date", override.Date),
		zap.Bool("blocked", override.IsBlocked),
	)
	return override, nil
}

// UpdateDateOverride перезаписывает исключение. Перенос на дату, где уже есть исключение, даёт ConflictError.
func (s *RuleService) UpdateDateOverride(ctx context.Context, id string, in OverrideInput) (*model.DateOverride, error) {
	existing, err := s.GetOverride(ctx, id)
	if err != nil {
		return nil, err
	}

	override, err := buildOverride(in)
	if err != nil {
		return nil, err
	}
	override.ID = existing.ID
	override.CalendarID = existing.CalendarID
	override.CreatedAt = existing.CreatedAt

	err = s.overrides.Update(ctx, override)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, conflictf("override for %s already exists on calendar %s", override.Date, override.CalendarID)
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("date override", id)
	case err != nil:
		return nil, fmt.Errorf("update date override: %w", err)
	}

	s.logger.Info("Date override updated",
		zap.String("override_id", id),
		zap.Stringer("date", override.Date),
	)
	return override, nil
}

func (s *RuleService) GetOverride(ctx context.Context, id string) (*model.DateOverride, error) {
	override, err := s.overrides.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if override == nil {
		return nil, notFound("date override", id)
	}
	return override, nil
}

// ListOverridesForCalendar исключения в диапазоне дат включительно
func (s *RuleService) ListOverridesForCalendar(ctx context.Context, calendarID string, dates model.DateRange) ([]*model.DateOverride, error) {
	if err := dates.Validate(s.maxDays); err != nil {
		return nil, validationf("%v", err)
	}
	if err := s.requireExisting(ctx, calendarID); err != nil {
		return nil, err
	}
	return s.overrides.ListByCalendar(ctx, calendarID, dates)
}

// DeleteOverride идемпотентен
func (s *RuleService) DeleteOverride(ctx context.Context, id string) error {
	deleted, err := s.overrides.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		s.logger.Info("Date override deleted", zap.String("override_id", id))
	}
	return nil
}

func buildOverride(in OverrideInput) (*model.DateOverride, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, validationf("date is required")
	}

	override := &model.DateOverride{
		Date:          in.Date,
		IsBlocked:     in.IsBlocked,
		ExperienceIDs: normalizeScope(in.ExperienceIDs),
		Note:          in.Note,
	}

	// У заблокированного дня окон нет
	if in.IsBlocked {
		return override, nil
	}
	if len(in.Windows) == 0 {
		return nil, validationf("windows are required unless the day is blocked")
	}
	windows, err := normalizeWindows(in.Windows)
	if err != nil {
		return nil, err
	}
	override.Windows = windows
	return override, nil
}

// requireCalendar на пути записи отсутствующий календарь это ошибка валидации
func (s *RuleService) requireCalendar(ctx context.Context, calendarID string) error {
	calendar, err := s.calendars.GetByID(ctx, calendarID)
	if err != nil {
		return fmt.Errorf("get calendar: %w", err)
	}
	if calendar == nil {
		return validationf("calendar %s does not exist", calendarID)
	}
	return nil
}

// requireExisting на пути чтения отсутствующий календарь это ErrNotFound
func (s *RuleService) requireExisting(ctx context.Context, calendarID string) error {
	calendar, err := s.calendars.GetByID(ctx, calendarID)
	if err != nil {
		return fmt.Errorf("get calendar: %w", err)
	}
	if calendar == nil {
		return notFound("calendar", calendarID)
	}
	return nil
}

// normalizeWeekdays проверяет диапазон 0..6, убирает повторы и сортирует
func normalizeWeekdays(weekdays []int) ([]int, error) {
	if len(weekdays) == 0 {
		return nil, validationf("weekdays must not be empty")
	}

	out := make([]int, 0, len(weekdays))
	for _, wd := range weekdays {
		if wd < 0 || wd > 6 {
			return nil, validationf("weekday %d is out of range 0-6", wd)
		}
		out = append(out, wd)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// normalizeWindows проверяет каждое окно и сортирует по началу.
// Пересечения разрешены: при разрешении слотов окна сливаются.
func normalizeWindows(windows []model.TimeWindow) ([]model.TimeWindow, error) {
	out := slices.Clone(windows)
	for i, w := range out {
		if err := w.Validate(); err != nil {
			return nil, validationf("window %d: %v", i, err)
		}
	}
	slices.SortStableFunc(out, func(a, b model.TimeWindow) int {
		if a.Start != b.Start {
			return int(a.Start - b.Start)
		}
		return int(a.End - b.End)
	})
	return out, nil
}

// normalizeScope убирает пустые и повторяющиеся id, пустой результат значит "все впечатления"
func normalizeScope(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
