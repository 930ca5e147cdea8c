// Package availability сводит регулярные правила, исключения по датам и занятые брони
// в итоговый список слотов по дням. Пакет не делает ввода-вывода и не читает часы:
// одинаковый вход всегда даёт одинаковый результат.
package availability

import (
	"sort"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/model"
)

// Input снимок состояния для одного календаря и одного впечатления
type Input struct {
	Calendar     *model.Calendar
	ExperienceID string
	// ExperienceActive false означает что каталог снял впечатление с продажи
	ExperienceActive bool
	Duration         time.Duration
	Range            model.DateRange
	// Today сегодняшняя дата в часовом поясе сервиса
	Today    model.Date
	Facts    []model.AvailabilityFact
	Bookings []*model.Booking
}

// Resolve возвращает по одному ResolvedDay на каждую дату диапазона
func Resolve(in Input) []model.ResolvedDay {
	idx := newFactIndex(in.Calendar.ID, in.Facts)
	taken := takenStarts(in.Calendar.ID, in.ExperienceID, in.Bookings)

	days := make([]model.ResolvedDay, 0, in.Range.Days())
	in.Range.Each(func(d model.Date) {
		days = append(days, resolveDay(in, idx, taken, d))
	})
	return days
}

// ResolveDay разрешает одну дату; используется при повторной проверке на фиксации
func ResolveDay(in Input, d model.Date) model.ResolvedDay {
	idx := newFactIndex(in.Calendar.ID, in.Facts)
	taken := takenStarts(in.Calendar.ID, in.ExperienceID, in.Bookings)
	return resolveDay(in, idx, taken, d)
}

func resolveDay(in Input, idx *factIndex, taken map[dayStart]struct{}, d model.Date) model.ResolvedDay {
	day := model.ResolvedDay{Date: d, Slots: []model.TimeSlot{}}

	switch {
	case d.Before(in.Today):
		day.Status = model.DayStatusPast
		return day
	case !in.Calendar.IsActive:
		day.Status = model.DayStatusCalendarInactive
		return day
	case !in.ExperienceActive || in.Duration <= 0:
		day.Status = model.DayStatusExperienceInactive
		return day
	}

	windows, status, override := idx.candidateWindows(in.ExperienceID, d)
	if override != nil {
		id := override.ID
		day.OverrideID = &id
	}
	if status != model.DayStatusOpen {
		day.Status = status
		return day
	}

	for _, slot := range ExpandSlots(MergeWindows(windows), in.Duration) {
		_, busy := taken[dayStart{date: d, start: slot.Start}]
		slot.Available = !busy
		day.Slots = append(day.Slots, slot)
	}

	if len(day.Slots) == 0 {
		day.Status = model.DayStatusNoAvailability
	} else {
		day.Status = model.DayStatusOpen
	}
	return day
}

// factIndex раскладывает факты одного календаря: исключения по датам и правила по дням недели
type factIndex struct {
	overrides map[model.Date]*model.DateOverride
	rules     map[time.Weekday][]*model.RecurringRule
}

func newFactIndex(calendarID string, facts []model.AvailabilityFact) *factIndex {
	idx := &factIndex{
		overrides: make(map[model.Date]*model.DateOverride),
		rules:     make(map[time.Weekday][]*model.RecurringRule),
	}

	for _, fact := range facts {
		if fact.FactCalendarID() != calendarID {
			continue
		}

		switch f := fact.(type) {
		case *model.DateOverride:
			idx.overrides[f.Date] = f
		case *model.RecurringRule:
			if !f.IsActive {
				continue
			}
			for wd := time.Sunday; wd <= time.Saturday; wd++ {
				if f.OnWeekday(wd) {
					idx.rules[wd] = append(idx.rules[wd], f)
				}
			}
		}
	}

	return idx
}

// candidateWindows применяет приоритет: исключение на дату всегда важнее регулярных правил
func (idx *factIndex) candidateWindows(experienceID string, d model.Date) ([]model.TimeWindow, model.DayStatus, *model.DateOverride) {
	if o, ok := idx.overrides[d]; ok {
		if o.IsBlocked {
			return nil, model.DayStatusBlocked, o
		}
		if !o.AppliesTo(experienceID) {
			return nil, model.DayStatusNoAvailability, o
		}
		return o.Windows, model.DayStatusOpen, o
	}

	var windows []model.TimeWindow
	for _, rule := range idx.rules[d.Weekday()] {
		if !rule.AppliesTo(experienceID) {
			continue
		}
		windows = append(windows, rule.Windows...)
	}
	if len(windows) == 0 {
		return nil, model.DayStatusNoAvailability, nil
	}
	return windows, model.DayStatusOpen, nil
}

// MergeWindows объединяет пересекающиеся окна. Соприкасающиеся окна
// (09:00-11:00 и 11:00-13:00) остаются раздельными, как их задал оператор.
func MergeWindows(windows []model.TimeWindow) []model.TimeWindow {
	if len(windows) == 0 {
		return nil
	}

	sorted := make([]model.TimeWindow, 0, len(windows))
	for _, w := range windows {
		if w.Validate() != nil {
			continue
		}
		sorted = append(sorted, w)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var merged []model.TimeWindow
	for _, w := range sorted {
		if n := len(merged); n > 0 && w.Start < merged[n-1].End {
			if w.End > merged[n-1].End {
				merged[n-1].End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// ExpandSlots режет окна на слоты с шагом ровно в длительность.
// Хвост короче длительности отбрасывается.
func ExpandSlots(windows []model.TimeWindow, d time.Duration) []model.TimeSlot {
	if d < time.Minute {
		return nil
	}

	var slots []model.TimeSlot
	for _, w := range windows {
		for start := w.Start; w.Fits(start, d); start = start.Add(d) {
			slots = append(slots, model.TimeSlot{Start: start, End: start.Add(d), Available: true})
		}
	}
	return slots
}

type dayStart struct {
	date  model.Date
	start model.ClockTime
}

// takenStarts собирает занятые старты: точное совпадение ключа, не пересечение интервалов
func takenStarts(calendarID, experienceID string, bookings []*model.Booking) map[dayStart]struct{} {
	taken := make(map[dayStart]struct{}, len(bookings))
	for _, b := range bookings {
		if b.CalendarID != calendarID || b.ExperienceID != experienceID || !b.Status.HoldsSlot() {
			continue
		}
		taken[dayStart{date: b.Date, start: b.Time}] = struct{}{}
	}
	return taken
}
