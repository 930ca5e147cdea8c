package model

import "time"

// Experience зеркало записи каталога: длительность и флаг доступности
type Experience struct {
	ID                      string    `json:"id"`
	Name                    string    `json:"name"`
	DurationMinutes         int       `json:"duration_minutes"`
	IsActive                bool      `json:"is_active"`
	RequiresBookingApproval bool      `json:"requires_booking_approval"` // бронь создаётся в статусе pending
	UpdatedAt               time.Time `json:"updated_at"`
}

func (e *Experience) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}
