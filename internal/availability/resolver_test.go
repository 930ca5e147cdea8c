package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/concierge_slots/internal/model"
)

func window(start, end string) model.TimeWindow {
	return model.TimeWindow{Start: model.MustParseClock(start), End: model.MustParseClock(end)}
}

func weekdayRule(windows ...model.TimeWindow) *model.RecurringRule {
	return &model.RecurringRule{
		ID:         "rule-weekdays",
		CalendarID: "cal-main",
		Name:       "Weekdays",
		Weekdays:   []int{1, 2, 3, 4, 5},
		Windows:    windows,
		IsActive:   true,
	}
}

func baseInput(facts ...model.AvailabilityFact) Input {
	day := model.MustParseDate("2024-02-05") // понедельник
	return Input{
		Calendar:         &model.Calendar{ID: "cal-main", Name: "Main", IsActive: true},
		ExperienceID:     "exp1",
		ExperienceActive: true,
		Duration:         2 * time.Hour,
		Range:            model.DateRange{From: day, To: day},
		Today:            model.MustParseDate("2024-02-01"),
		Facts:            facts,
	}
}

func TestResolve_RecurringRuleScenario(t *testing.T) {
	in := baseInput(weekdayRule(window("09:00", "11:00")))

	days := Resolve(in)
	require.Len(t, days, 1)
	assert.Equal(t, model.DayStatusOpen, days[0].Status)
	require.Len(t, days[0].Slots, 1)
	assert.Equal(t, "09:00", days[0].Slots[0].Start.String())
	assert.Equal(t, "11:00", days[0].Slots[0].End.String())
	assert.True(t, days[0].Slots[0].Available)

	in.Bookings = []*model.Booking{{
		CalendarID:   "cal-main",
		ExperienceID: "exp1",
		Date:         model.MustParseDate("2024-02-05"),
		Time:         model.MustParseClock("09:00"),
		Status:       model.BookingStatusConfirmed,
	}}

	days = Resolve(in)
	require.Len(t, days[0].Slots, 1)
	assert.False(t, days[0].Slots[0].Available)
}

func TestResolve_BlockedOverrideWins(t *testing.T) {
	blocked := &model.DateOverride{
		ID:         "ovr-1",
		CalendarID: "cal-main",
		Date:       model.MustParseDate("2024-02-05"),
		IsBlocked:  true,
		Windows:    []model.TimeWindow{window("08:00", "20:00")},
	}
	second := weekdayRule(window("13:00", "17:00"))
	second.ID = "rule-afternoon"

	days := Resolve(baseInput(weekdayRule(window("09:00", "11:00")), second, blocked))

	require.Len(t, days, 1)
	assert.Empty(t, days[0].Slots)
	assert.Equal(t, model.DayStatusBlocked, days[0].Status)
	require.NotNil(t, days[0].OverrideID)
	assert.Equal(t, "ovr-1", *days[0].OverrideID)
}

func TestResolve_OverrideReplacesRecurringWindows(t *testing.T) {
	override := &model.DateOverride{
		ID:         "ovr-1",
		CalendarID: "cal-main",
		Date:       model.MustParseDate("2024-02-05"),
		Windows:    []model.TimeWindow{window("14:00", "16:00")},
	}

	days := Resolve(baseInput(weekdayRule(window("09:00", "11:00")), override))

	require.Len(t, days[0].Slots, 1)
	assert.Equal(t, "14:00", days[0].Slots[0].Start.String())
}

func TestResolve_OverrideScopedToOtherExperience(t *testing.T) {
	override := &model.DateOverride{
		ID:            "ovr-1",
		CalendarID:    "cal-main",
		Date:          model.MustParseDate("2024-02-05"),
		Windows:       []model.TimeWindow{window("14:00", "16:00")},
		ExperienceIDs: []string{"exp2"},
	}

	days := Resolve(baseInput(weekdayRule(window("09:00", "11:00")), override))

	assert.Empty(t, days[0].Slots)
	assert.Equal(t, model.DayStatusNoAvailability, days[0].Status)
}

func TestResolve_RuleScopeAndWeekday(t *testing.T) {
	scoped := weekdayRule(window("09:00", "11:00"))
	scoped.ExperienceIDs = []string{"exp2"}
	weekend := &model.RecurringRule{
		ID:         "rule-weekend",
		CalendarID: "cal-main",
		Weekdays:   []int{0, 6},
		Windows:    []model.TimeWindow{window("10:00", "12:00")},
		IsActive:   true,
	}

	days := Resolve(baseInput(scoped, weekend))

	assert.Empty(t, days[0].Slots)
	assert.Equal(t, model.DayStatusNoAvailability, days[0].Status)
}

func TestResolve_InactiveRuleIgnored(t *testing.T) {
	rule := weekdayRule(window("09:00", "11:00"))
	rule.IsActive = false

	days := Resolve(baseInput(rule))

	assert.Empty(t, days[0].Slots)
}

func TestResolve_InactiveCalendar(t *testing.T) {
	in := baseInput(weekdayRule(window("09:00", "11:00")))
	in.Calendar.IsActive = false

	days := Resolve(in)

	assert.Empty(t, days[0].Slots)
	assert.Equal(t, model.DayStatusCalendarInactive, days[0].Status)
}

func TestResolve_InactiveExperience(t *testing.T) {
	in := baseInput(weekdayRule(window("09:00", "11:00")))
	in.ExperienceActive = false

	days := Resolve(in)

	assert.Empty(t, days[0].Slots)
	assert.Equal(t, model.DayStatusExperienceInactive, days[0].Status)
}

func TestResolve_PastDatesFlagged(t *testing.T) {
	in := baseInput(weekdayRule(window("09:00", "11:00")))
	in.Today = model.MustParseDate("2024-02-06")
	in.Range = model.DateRange{From: model.MustParseDate("2024-02-05"), To: model.MustParseDate("2024-02-06")}

	days := Resolve(in)

	require.Len(t, days, 2)
	assert.Equal(t, model.DayStatusPast, days[0].Status)
	assert.Empty(t, days[0].Slots)
	assert.Equal(t, model.DayStatusOpen, days[1].Status)
	assert.Len(t, days[1].Slots, 1)
}

func TestResolve_CancelledBookingDoesNotHoldSlot(t *testing.T) {
	in := baseInput(weekdayRule(window("09:00", "13:00")))
	in.Bookings = []*model.Booking{
		{CalendarID: "cal-main", ExperienceID: "exp1", Date: model.MustParseDate("2024-02-05"), Time: model.MustParseClock("09:00"), Status: model.BookingStatusCancelled},
		{CalendarID: "cal-main", ExperienceID: "exp2", Date: model.MustParseDate("2024-02-05"), Time: model.MustParseClock("11:00"), Status: model.BookingStatusConfirmed},
	}

	days := Resolve(in)

	require.Len(t, days[0].Slots, 2)
	assert.True(t, days[0].Slots[0].Available)
	assert.True(t, days[0].Slots[1].Available, "booking of another experience must not hold the slot")
}

func TestResolve_IsDeterministic(t *testing.T) {
	in := baseInput(weekdayRule(window("09:00", "17:00")))
	in.Range = model.DateRange{From: model.MustParseDate("2024-02-05"), To: model.MustParseDate("2024-02-11")}

	assert.Equal(t, Resolve(in), Resolve(in))
}

func TestMergeWindows(t *testing.T) {
	tests := []struct {
		name string
		in   []model.TimeWindow
		want []model.TimeWindow
	}{
		{
			name: "overlapping merged",
			in:   []model.TimeWindow{window("10:00", "12:00"), window("09:00", "11:00")},
			want: []model.TimeWindow{window("09:00", "12:00")},
		},
		{
			name: "touching kept apart",
			in:   []model.TimeWindow{window("09:00", "11:00"), window("11:00", "13:00")},
			want: []model.TimeWindow{window("09:00", "11:00"), window("11:00", "13:00")},
		},
		{
			name: "duplicate listing collapses",
			in:   []model.TimeWindow{window("09:00", "11:00"), window("09:00", "11:00")},
			want: []model.TimeWindow{window("09:00", "11:00")},
		},
		{
			name: "contained window absorbed",
			in:   []model.TimeWindow{window("09:00", "17:00"), window("10:00", "11:00")},
			want: []model.TimeWindow{window("09:00", "17:00")},
		},
		{
			name: "invalid window dropped",
			in:   []model.TimeWindow{window("12:00", "10:00")},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeWindows(tt.in))
		})
	}
}

func TestExpandSlots_StepEqualsDuration(t *testing.T) {
	slots := ExpandSlots([]model.TimeWindow{window("09:00", "14:30")}, 90*time.Minute)

	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[0].Start.String())
	assert.Equal(t, "10:30", slots[1].Start.String())
	assert.Equal(t, "12:00", slots[2].Start.String())
	assert.Equal(t, "13:30", slots[2].End.String())
}

func TestExpandSlots_WindowShorterThanDuration(t *testing.T) {
	assert.Empty(t, ExpandSlots([]model.TimeWindow{window("09:00", "10:00")}, 2*time.Hour))
}

func TestExpandSlots_EndOfDay(t *testing.T) {
	slots := ExpandSlots([]model.TimeWindow{window("22:00", "24:00")}, time.Hour)

	require.Len(t, slots, 2)
	assert.Equal(t, "24:00", slots[1].End.String())
}

func TestResolveDay_MergeBeforeExpand(t *testing.T) {
	rule := weekdayRule(window("09:00", "11:00"), window("10:00", "12:00"))

	day := ResolveDay(baseInput(rule), model.MustParseDate("2024-02-05"))

	require.Len(t, day.Slots, 1)
	assert.Equal(t, "09:00", day.Slots[0].Start.String())
	assert.True(t, day.Offers(model.MustParseClock("09:00")))
	assert.False(t, day.Offers(model.MustParseClock("10:00")))
}

func TestResolve_RuleWeekdaysOutsideRangeIgnored(t *testing.T) {
	rule := weekdayRule(window("09:00", "11:00"))
	rule.Weekdays = []int{1, 1, 9, -1}

	in := baseInput(rule)
	in.Range.To = model.MustParseDate("2024-02-06") // вторник

	days := Resolve(in)
	require.Len(t, days, 2)
	require.Len(t, days[0].Slots, 1)
	assert.Equal(t, "09:00", days[0].Slots[0].Start.String())
	assert.Empty(t, days[1].Slots)
	assert.Equal(t, model.DayStatusNoAvailability, days[1].Status)
}
