package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/concierge_slots/internal/service"
	"go.uber.org/zap"
)

type commitErrorResponse struct {
	errorResponse
	Outcome service.CommitOutcome `json:"outcome"`
	Reason  string                `json:"reason,omitempty"`
}

// CommitBooking POST /api/bookings. Отказы протокола отдаются как 409/503 с полем outcome,
// клиент после них должен заново запросить доступность.
func (h *Handler) CommitBooking(w http.ResponseWriter, r *http.Request) {
	var req service.CommitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.bookings.Commit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if outcomeErr := result.Err(); outcomeErr != nil {
		status, kind := errorStatus(outcomeErr)
		writeJSON(w, status, commitErrorResponse{
			errorResponse: errorResponse{Error: outcomeErr.Error(), Kind: kind},
			Outcome:       result.Outcome,
			Reason:        result.Reason,
		})
		return
	}

	calendar, err := h.calendars.GetCalendar(r.Context(), result.Booking.CalendarID)
	if err != nil {
		h.logger.Debug("Calendar lookup for notification failed", zap.Error(err))
	}
	h.notifier.BookingCreated(r.Context(), result.Booking, calendar)

	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.GetBooking(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// CancelBooking идемпотентна; оператор уведомляется только о первой отмене
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	before, err := h.bookings.GetBooking(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	booking, err := h.bookings.CancelBooking(r.Context(), before.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if before.Status.HoldsSlot() {
		h.notifier.BookingCancelled(r.Context(), booking)
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.ConfirmBooking(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.CompleteBooking(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	dates, err := dateRangeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	bookings, err := h.bookings.ListBookings(r.Context(), pathID(r), dates)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// ===== Catalog mirror =====

func (h *Handler) ListExperiences(w http.ResponseWriter, r *http.Request) {
	experiences, err := h.catalog.ListExperiences(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, experiences)
}

func (h *Handler) GetExperience(w http.ResponseWriter, r *http.Request) {
	experience, err := h.catalog.GetExperience(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, experience)
}

func (h *Handler) SyncExperience(w http.ResponseWriter, r *http.Request) {
	var in service.ExperienceInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	experience, err := h.catalog.SyncExperience(r.Context(), pathID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, experience)
}
