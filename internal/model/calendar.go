package model

import "time"

// Calendar независимый бронируемый ресурс (например, сотрудник)
type Calendar struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Assignee  *string   `json:"assignee,omitempty"` // nil = не назначен
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
