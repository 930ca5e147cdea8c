package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Freeeeeet/concierge_slots/internal/service"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorStatus переводит таксономию ошибок в HTTP-статус и короткое имя вида ошибки
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrAlreadyTaken):
		return http.StatusConflict, "already_taken"
	case errors.Is(err, service.ErrSlotNotOffered):
		return http.StatusConflict, "slot_not_offered"
	case errors.Is(err, service.ErrCalendarInactive):
		return http.StatusConflict, "calendar_inactive"
	case errors.Is(err, service.ErrInvariantViolation):
		return http.StatusUnprocessableEntity, "invariant_violation"
	case errors.Is(err, service.ErrUnknown):
		return http.StatusServiceUnavailable, "unknown"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := errorStatus(err)

	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}

	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

// decodeJSON читает тело запроса; неизвестные поля и мусор после объекта это ошибка валидации
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", service.ErrValidation, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", service.ErrValidation)
	}
	return nil
}
