package notify

import (
	"context"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// Sender часть API бота, которой достаточно для уведомлений. Реализуется *bot.Bot.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier отправляет уведомления в чат операторов
type TelegramNotifier struct {
	sender Sender
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(sender Sender, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		chatID: chatID,
		logger: logger,
	}
}

// NewBot создаёт клиента Telegram Bot API
func NewBot(token string) (*bot.Bot, error) {
	return bot.New(token)
}

func (n *TelegramNotifier) BookingCreated(ctx context.Context, booking *model.Booking, calendar *model.Calendar) {
	n.sendAsync(ctx, booking.ID, BookingCreatedText(booking, calendar))
}

func (n *TelegramNotifier) BookingCancelled(ctx context.Context, booking *model.Booking) {
	n.sendAsync(ctx, booking.ID, BookingCancelledText(booking))
}

// sendAsync не задерживает ответ клиенту и переживает завершение HTTP-запроса
func (n *TelegramNotifier) sendAsync(ctx context.Context, bookingID, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	go func() {
		defer cancel()
		n.send(ctx, bookingID, text)
	}()
}

func (n *TelegramNotifier) send(ctx context.Context, bookingID, text string) {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		n.logger.Warn("Failed to notify operators",
			zap.String("booking_id", bookingID),
			zap.Error(err),
		)
		return
	}
	n.logger.Debug("Operators notified", zap.String("booking_id", bookingID))
}
