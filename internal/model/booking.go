package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает подтверждения оператора
	BookingStatusConfirmed BookingStatus = "confirmed" // Подтверждено
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено, слот снова свободен
	BookingStatusCompleted BookingStatus = "completed" // Завершено
)

// HoldsSlot бронирование занимает слот во всех статусах кроме cancelled
func (s BookingStatus) HoldsSlot() bool {
	return s != BookingStatusCancelled
}

// GuestInfo данные гостя передаются ядром насквозь, не интерпретируются
type GuestInfo struct {
	Name            string `json:"name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=32"`
	GuestCount      int    `json:"guest_count" validate:"required,min=1,max=100"`
	SpecialRequests string `json:"special_requests,omitempty" validate:"max=2000"`
}

// SlotKey ключ взаимного исключения при фиксации брони
type SlotKey struct {
	CalendarID   string    `json:"calendar_id"`
	ExperienceID string    `json:"experience_id"`
	Date         Date      `json:"date"`
	Time         ClockTime `json:"time"`
}

type Booking struct {
	ID              string        `json:"id"`
	CalendarID      string        `json:"calendar_id"`
	ExperienceID    string        `json:"experience_id"`
	Date            Date          `json:"date"`
	Time            ClockTime     `json:"time"`
	DurationMinutes int           `json:"duration_minutes"`
	Guest           GuestInfo     `json:"guest"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
}

func (b *Booking) Key() SlotKey {
	return SlotKey{
		CalendarID:   b.CalendarID,
		ExperienceID: b.ExperienceID,
		Date:         b.Date,
		Time:         b.Time,
	}
}
