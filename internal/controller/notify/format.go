package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/concierge_slots/internal/model"
)

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// WeekdayShortName краткое название дня недели на русском
func WeekdayShortName(weekday int) string {
	names := []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}
	if weekday >= 0 && weekday < len(names) {
		return names[weekday]
	}
	return "?"
}

// FormatSlot "05.02.2024 (Пн) 09:00-11:00"
func FormatSlot(b *model.Booking) string {
	end := b.Time + model.ClockTime(b.DurationMinutes)
	return fmt.Sprintf("%02d.%02d.%d (%s) %s-%s",
		b.Date.Day, int(b.Date.Month), b.Date.Year,
		WeekdayShortName(int(b.Date.Weekday())),
		b.Time, end,
	)
}

// PluralizeGuests склонение слова "гость"
func PluralizeGuests(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "гость"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "гостя"
	}
	return "гостей"
}

// BookingCreatedText текст уведомления о новой брони (HTML)
func BookingCreatedText(b *model.Booking, calendar *model.Calendar) string {
	var sb strings.Builder

	if b.Status == model.BookingStatusPending {
		sb.WriteString("⏳ <b>Новый запрос на бронь</b>\n\n")
	} else {
		sb.WriteString("✅ <b>Новая бронь</b>\n\n")
	}

	calendarName := b.CalendarID
	if calendar != nil {
		calendarName = calendar.Name
	}

	fmt.Fprintf(&sb, "🗓 Календарь: %s\n", html.EscapeString(calendarName))
	fmt.Fprintf(&sb, "🎟 Впечатление: %s\n", html.EscapeString(b.ExperienceID))
	fmt.Fprintf(&sb, "📅 Слот: %s (%s)\n", FormatSlot(b), FormatDuration(b.DurationMinutes))
	fmt.Fprintf(&sb, "👤 Гость: %s, %d %s\n",
		html.EscapeString(b.Guest.Name), b.Guest.GuestCount, PluralizeGuests(b.Guest.GuestCount))
	fmt.Fprintf(&sb, "✉️ %s", html.EscapeString(b.Guest.Email))
	if b.Guest.Phone != "" {
		fmt.Fprintf(&sb, ", %s", html.EscapeString(b.Guest.Phone))
	}
	if b.Guest.SpecialRequests != "" {
		fmt.Fprintf(&sb, "\n💬 %s", html.EscapeString(b.Guest.SpecialRequests))
	}
	fmt.Fprintf(&sb, "\n\nID: <code>%s</code>", b.ID)

	return sb.String()
}

// BookingCancelledText текст уведомления об отмене
func BookingCancelledText(b *model.Booking) string {
	return fmt.Sprintf(
		"❌ <b>Бронь отменена</b>\n\n"+
			"📅 Слот: %s\n"+
			"👤 Гость: %s\n\n"+
			"Слот снова доступен для записи.\n"+
			"ID: <code>%s</code>",
		FormatSlot(b),
		html.EscapeString(b.Guest.Name),
		b.ID,
	)
}
