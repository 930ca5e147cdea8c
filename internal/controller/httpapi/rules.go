package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/concierge_slots/internal/service"
)

// ===== Regular rules =====

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.ListRulesForCalendar(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var in service.RuleInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	rule, err := h.rules.CreateRecurringRule(r.Context(), pathID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.rules.GetRule(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var in service.RuleInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	rule, err := h.rules.UpdateRecurringRule(r.Context(), pathID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) SetRuleActive(w http.ResponseWriter, r *http.Request) {
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

	rule, err := h.rules.SetRuleActive(r.Context(), pathID(r), active)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// DeleteRule отвечает 204 и для отсутствующего правила
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.rules.DeleteRule(r.Context(), pathID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Date overrides =====

func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	dates, err := dateRangeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	overrides, err := h.rules.ListOverridesForCalendar(r.Context(), pathID(r), dates)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overrides)
}

func (h *Handler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	var in service.OverrideInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	override, err := h.rules.CreateDateOverride(r.Context(), pathID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, override)
}

func (h *Handler) GetOverride(w http.ResponseWriter, r *http.Request) {
	override, err := h.rules.GetOverride(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, override)
}

func (h *Handler) UpdateOverride(w http.ResponseWriter, r *http.Request) {
	var in service.OverrideInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	override, err := h.rules.UpdateDateOverride(r.Context(), pathID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, override)
}

func (h *Handler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	if err := h.rules.DeleteOverride(r.Context(), pathID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
