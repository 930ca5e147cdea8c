package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout формат календарной даты в API и в БД
const DateLayout = "2006-01-02"

// Date календарная дата без времени и часового пояса
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate разбирает "YYYY-MM-DD"
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate только для тестов и констант
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf возвращает календарную дату момента t в его часовом поясе
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today текущая дата в указанном часовом поясе
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// Time полночь этой даты в UTC
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (d Date) After(o Date) bool {
	return d.Time().After(o.Time())
}

// DaysUntil количество дней от d до o (отрицательное если o раньше)
func (d Date) DaysUntil(o Date) int {
	return int(o.Time().Sub(d.Time()).Hours() / 24)
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange включительный диапазон дат [From, To]
type DateRange struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// Validate проверяет что From <= To и диапазон не длиннее maxDays
func (r DateRange) Validate(maxDays int) error {
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("date range bounds are required")
	}
	if r.To.Before(r.From) {
		return fmt.Errorf("date range end %s is before start %s", r.To, r.From)
	}
	if maxDays > 0 && r.Days() > maxDays {
		return fmt.Errorf("date range of %d days exceeds limit of %d", r.Days(), maxDays)
	}
	return nil
}

// Days количество дней в диапазоне включительно
func (r DateRange) Days() int {
	return r.From.DaysUntil(r.To) + 1
}

// Contains проверяет попадание даты в диапазон
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Each перебирает даты диапазона по порядку
func (r DateRange) Each(fn func(Date)) {
	for d := r.From; !d.After(r.To); d = d.AddDays(1) {
		fn(d)
	}
}
