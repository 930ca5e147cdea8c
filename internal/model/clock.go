package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClockTime время суток в минутах от полуночи (0..1440)
// 1440 допустимо только как конец окна ("24:00")
type ClockTime int

const (
	minutesPerDay = 24 * 60
	clockLayout   = "%02d:%02d"
)

// ParseClock разбирает строку формата "HH:MM"
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}

	hour, ok := twoDigits(parts[0])
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q: hour must be two digits", s)
	}
	minute, ok := twoDigits(parts[1])
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q: minute must be two digits", s)
	}

	if hour > 24 || minute > 59 {
		return 0, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	if hour == 24 && minute != 0 {
		return 0, fmt.Errorf("invalid clock time %q: out of range", s)
	}

	return ClockTime(hour*60 + minute), nil
}

// twoDigits разбирает ровно две ASCII-цифры; знаки и пробелы не допускаются
func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// MustParseClock как ParseClock, но паникует при ошибке. Только для констант и тестов.
func MustParseClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Clock собирает время суток из часов и минут
func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// Valid проверяет что значение лежит в пределах суток
func (c ClockTime) Valid() bool {
	return c >= 0 && c <= minutesPerDay
}

// Add сдвигает время на длительность (с точностью до минуты)
func (c ClockTime) Add(d time.Duration) ClockTime {
	return c + ClockTime(d/time.Minute)
}

func (c ClockTime) String() string {
	return fmt.Sprintf(clockLayout, c.Hour(), c.Minute())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("clock time must be a string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimeWindow полуоткрытый интервал [Start, End) внутри одних суток
type TimeWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Validate проверяет что start < end и оба значения в пределах суток
func (w TimeWindow) Validate() error {
	if !w.Start.Valid() || !w.End.Valid() {
		return fmt.Errorf("window %s-%s is out of day range", w.Start, w.End)
	}
	if w.Start >= w.End {
		return fmt.Errorf("window start %s must be before end %s", w.Start, w.End)
	}
	return nil
}

// Fits проверяет что [start, start+d) целиком лежит внутри окна
func (w TimeWindow) Fits(start ClockTime, d time.Duration) bool {
	return start >= w.Start && start.Add(d) <= w.End
}

func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}
