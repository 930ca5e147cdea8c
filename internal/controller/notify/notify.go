// Package notify уведомляет оператора о новых и отменённых бронях.
// Доставка best-effort: ошибки только логируются и никогда не влияют на исход фиксации.
package notify

import (
	"context"

	"github.com/Freeeeeet/concierge_slots/internal/model"
)

// Notifier получатель событий жизненного цикла брони
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking, calendar *model.Calendar)
	BookingCancelled(ctx context.Context, booking *model.Booking)
}

// Nop используется когда TELEGRAM_TOKEN не задан
type Nop struct{}

func (Nop) BookingCreated(context.Context, *model.Booking, *model.Calendar) {}
func (Nop) BookingCancelled(context.Context, *model.Booking)                 {}
