package httpapi

import "net/http"

// ResolveCalendar GET /api/calendars/{id}/availability?experience_id=&from=&to=&duration_minutes=
func (h *Handler) ResolveCalendar(w http.ResponseWriter, r *http.Request) {
	dates, err := dateRangeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	duration, err := durationParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	days, err := h.availability.Resolve(r.Context(), pathID(r), r.URL.Query().Get("experience_id"), dates, duration)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// ResolveAcrossCalendars GET /api/availability?experience_id=&from=&to=
func (h *Handler) ResolveAcrossCalendars(w http.ResponseWriter, r *http.Request) {
	dates, err := dateRangeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	results, err := h.availability.ResolveAcrossCalendars(r.Context(), r.URL.Query().Get("experience_id"), dates)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
