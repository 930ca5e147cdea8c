package model

// DayStatus объясняет почему у дня такой набор слотов
type DayStatus string

const (
	DayStatusOpen               DayStatus = "open"                // есть хотя бы одно окно
	DayStatusPast               DayStatus = "past"                // дата в прошлом, день закрыт
	DayStatusBlocked            DayStatus = "blocked"             // исключение с is_blocked
	DayStatusCalendarInactive   DayStatus = "calendar_inactive"   // календарь выключен
	DayStatusExperienceInactive DayStatus = "experience_inactive" // впечатление снято с продажи
	DayStatusNoAvailability     DayStatus = "no_availability"     // правил на этот день нет
)

// TimeSlot дискретный слот длиной в одно впечатление
type TimeSlot struct {
	Start     ClockTime `json:"start"`
	End       ClockTime `json:"end"`
	Available bool      `json:"available"`
}

// ResolvedDay результат разрешения доступности на одну дату. Не хранится.
type ResolvedDay struct {
	Date       Date       `json:"date"`
	Status     DayStatus  `json:"status"`
	OverrideID *string    `json:"override_id,omitempty"`
	Slots      []TimeSlot `json:"slots"`
}

// AvailableCount количество свободных слотов
func (d ResolvedDay) AvailableCount() int {
	n := 0
	for _, s := range d.Slots {
		if s.Available {
			n++
		}
	}
	return n
}

// Offers проверяет что старт t сгенерирован для этого дня (независимо от занятости)
func (d ResolvedDay) Offers(t ClockTime) bool {
	for _, s := range d.Slots {
		if s.Start == t {
			return true
		}
	}
	return false
}
