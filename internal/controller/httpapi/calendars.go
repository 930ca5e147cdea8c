package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/concierge_slots/internal/service"
)

func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	includeInactive, err := boolParam(r, "include_inactive")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	calendars, err := h.calendars.ListCalendars(r.Context(), includeInactive)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendars)
}

func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var in service.CalendarInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	calendar, err := h.calendars.CreateCalendar(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, calendar)
}

func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	calendar, err := h.calendars.GetCalendar(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar)
}

func (h *Handler) UpdateCalendar(w http.ResponseWriter, r *http.Request) {
	var in service.CalendarInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	calendar, err := h.calendars.UpdateCalendar(r.Context(), pathID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar)
}

func (h *Handler) SetCalendarActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	active, err := req.value()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	calendar, err := h.calendars.SetCalendarActive(r.Context(), pathID(r), active)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar)
}

func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	if err := h.calendars.DeleteCalendar(r.Context(), pathID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
