package model

import (
	"slices"
	"time"
)

// AvailabilityFact декларативный факт о доступности календаря.
// Реализуют только *RecurringRule и *DateOverride, разбирается через type switch.
type AvailabilityFact interface {
	FactCalendarID() string
	availabilityFact()
}

// RecurringRule еженедельный шаблон доступности без даты окончания
type RecurringRule struct {
	ID            string       `json:"id"`
	CalendarID    string       `json:"calendar_id"`
	Name          string       `json:"name"`
	Weekdays      []int        `json:"weekdays"` // 0 = Sunday, 6 = Saturday
	Windows       []TimeWindow `json:"windows"`
	ExperienceIDs []string     `json:"experience_ids"` // пусто = все впечатления календаря
	IsActive      bool         `json:"is_active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (r *RecurringRule) FactCalendarID() string { return r.CalendarID }
func (r *RecurringRule) availabilityFact()      {}

// OnWeekday проверяет что правило действует в указанный день недели
func (r *RecurringRule) OnWeekday(wd time.Weekday) bool {
	return slices.Contains(r.Weekdays, int(wd))
}

// AppliesTo проверяет что правило распространяется на впечатление
func (r *RecurringRule) AppliesTo(experienceID string) bool {
	return ScopeIncludes(r.ExperienceIDs, experienceID)
}

// DateOverride разовое исключение на конкретную дату: либо блокирует день,
// либо заменяет (не дополняет) окна регулярных правил
type DateOverride struct {
	ID            string       `json:"id"`
	CalendarID    string       `json:"calendar_id"`
	Date          Date         `json:"date"`
	IsBlocked     bool         `json:"is_blocked"`
	Windows       []TimeWindow `json:"windows"`
	ExperienceIDs []string     `json:"experience_ids"`
	Note          *string      `json:"note,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (o *DateOverride) FactCalendarID() string { return o.CalendarID }
func (o *DateOverride) availabilityFact()      {}

// AppliesTo проверяет что окна исключения распространяются на впечатление
func (o *DateOverride) AppliesTo(experienceID string) bool {
	return ScopeIncludes(o.ExperienceIDs, experienceID)
}

// ScopeIncludes пустой список означает "все впечатления"
func ScopeIncludes(scope []string, experienceID string) bool {
	return len(scope) == 0 || slices.Contains(scope, experienceID)
}
