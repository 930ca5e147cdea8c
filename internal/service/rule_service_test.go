package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		calendarID string
		in         RuleInput
	}{
		{
			name:       "empty weekdays",
			calendarID: "cal-main",
			in:         RuleInput{Windows: []model.TimeWindow{window("09:00", "10:00")}},
		},
		{
			name:       "weekday out of range",
			calendarID: "cal-main",
			in:         RuleInput{Weekdays: []int{7}, Windows: []model.TimeWindow{window("09:00", "10:00")}},
		},
		{
			name:       "window start equals end",
			calendarID: "cal-main",
			in:         RuleInput{Weekdays: []int{1}, Windows: []model.TimeWindow{window("10:00", "10:00")}},
		},
		{
			name:       "window start after end",
			calendarID: "cal-main",
			in:         RuleInput{Weekdays: []int{1}, Windows: []model.TimeWindow{window("12:00", "10:00")}},
		},
		{
			name:       "no windows",
			calendarID: "cal-main",
			in:         RuleInput{Weekdays: []int{1}},
		},
		{
			name:       "unknown calendar",
			calendarID: "cal-missing",
			in:         RuleInput{Weekdays: []int{1}, Windows: []model.TimeWindow{window("09:00", "10:00")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rules.CreateRecurringRule(ctx, tt.calendarID, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRuleService_NormalizesInput(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	ctx := context.Background()

	rule, err := f.rules.CreateRecurringRule(ctx, "cal-main", RuleInput{
		Name:          "Mixed",
		Weekdays:      []int{5, 1, 1, 3},
		Windows:       []model.TimeWindow{window("14:00", "16:00"), window("09:00", "11:00")},
		ExperienceIDs: []string{"exp1", "", "exp1", "exp2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, rule.Weekdays)
	assert.Equal(t, []model.TimeWindow{window("09:00", "11:00"), window("14:00", "16:00")}, rule.Windows)
	assert.Equal(t, []string{"exp1", "exp2"}, rule.ExperienceIDs)
	assert.True(t, rule.IsActive)

	updated, err := f.rules.UpdateRecurringRule(ctx, rule.ID, RuleInput{
		Name:     "Mornings",
		Weekdays: []int{6},
		Windows:  []model.TimeWindow{window("08:00", "10:00")},
	})
	require.NoError(t, err)
	assert.Equal(t, "cal-main", updated.CalendarID)
	assert.Equal(t, []int{6}, updated.Weekdays)
	assert.Empty(t, updated.ExperienceIDs)

	got, err := f.rules.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mornings", got.Name)

	_, err = f.rules.UpdateRecurringRule(ctx, "missing", RuleInput{Weekdays: []int{1}, Windows: []model.TimeWindow{window("08:00", "10:00")}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRuleService_IdempotentDelete(t *testing.T) {
	f := newFixture(t)
	rule := f.seedScenario(t)
	ctx := context.Background()

	require.NoError(t, f.rules.DeleteRule(ctx, "does-not-exist"))
	require.NoError(t, f.rules.DeleteOverride(ctx, "does-not-exist"))

	require.NoError(t, f.rules.DeleteRule(ctx, rule.ID))
	require.NoError(t, f.rules.DeleteRule(ctx, rule.ID))

	rules, err := f.rules.ListRulesForCalendar(ctx, "cal-main")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRuleService_OverridePerDateIsUnique(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	ctx := context.Background()

	first, err := f.rules.CreateDateOverride(ctx, "cal-main", OverrideInput{
		Date:    monday,
		Windows: []model.TimeWindow{window("14:00", "16:00")},
	})
	require.NoError(t, err)

	_, err = f.rules.CreateDateOverride(ctx, "cal-main", OverrideInput{Date: monday, IsBlocked: true})
	assert.ErrorIs(t, err, ErrConflict)

	other, err := f.rules.CreateDateOverride(ctx, "cal-main", OverrideInput{Date: tuesday, IsBlocked: true})
	require.NoError(t, err)

	// Перенос на занятую дату тоже конфликт
	_, err = f.rules.UpdateDateOverride(ctx, other.ID, OverrideInput{Date: monday, IsBlocked: true})
	assert.ErrorIs(t, err, ErrConflict)

	note := "staff training"
	updated, err := f.rules.UpdateDateOverride(ctx, first.ID, OverrideInput{Date: monday, IsBlocked: true, Note: &note})
	require.NoError(t, err)
	assert.True(t, updated.IsBlocked)
	assert.Empty(t, updated.Windows)

	overrides, err := f.rules.ListOverridesForCalendar(ctx, "cal-main", model.DateRange{From: monday, To: tuesday})
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.Equal(t, monday, overrides[0].Date)
	require.NotNil(t, overrides[0].Note)
	assert.Equal(t, note, *overrides[0].Note)
}

func TestRuleService_OverrideValidation(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	ctx := context.Background()

	_, err := f.rules.CreateDateOverride(ctx, "cal-main", OverrideInput{Date: monday})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.rules.CreateDateOverride(ctx, "cal-main", OverrideInput{
		Date:    monday,
		Windows: []model.TimeWindow{window("16:00", "14:00")},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.rules.CreateDateOverride(ctx, "cal-main", OverrideInput{IsBlocked: true})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.rules.CreateDateOverride(ctx, "cal-missing", OverrideInput{Date: monday, IsBlocked: true})
	assert.ErrorIs(t, err, ErrValidation)

	// Окна заблокированного дня отбрасываются
	blocked, err := f.rules.CreateDateOverride(ctx, "cal-main", OverrideInput{
		Date:      monday,
		IsBlocked: true,
		Windows:   []model.TimeWindow{window("16:00", "14:00")},
	})
	require.NoError(t, err)
	assert.Empty(t, blocked.Windows)

	_, err = f.rules.ListOverridesForCalendar(ctx, "cal-main", model.DateRange{From: tuesday, To: monday})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.rules.ListOverridesForCalendar(ctx, "cal-missing", day(monday))
	assert.ErrorIs(t, err, ErrNotFound)
}
