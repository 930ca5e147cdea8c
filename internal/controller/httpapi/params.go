package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/service"
)

// dateRangeParam читает ?from=YYYY-MM-DD&to=YYYY-MM-DD; to по умолчанию равен from
func dateRangeParam(r *http.Request) (model.DateRange, error) {
	q := r.URL.Query()

	from, err := model.ParseDate(q.Get("from"))
	if err != nil {
		return model.DateRange{}, fmt.Errorf("%w: from: %v", service.ErrValidation, err)
	}

	to := from
	if raw := q.Get("to"); raw != "" {
		to, err = model.ParseDate(raw)
		if err != nil {
			return model.DateRange{}, fmt.Errorf("%w: to: %v", service.ErrValidation, err)
		}
	}
	return model.DateRange{From: from, To: to}, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", service.ErrValidation, name)
	}
	return v, nil
}

// durationParam ?duration_minutes=N, 0 если не задан
func durationParam(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("duration_minutes")
	if raw == "" {
		return 0, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 || minutes > 24*60 {
		return 0, fmt.Errorf("%w: duration_minutes must be between 1 and 1440", service.ErrValidation)
	}
	return time.Duration(minutes) * time.Minute, nil
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func (a activeRequest) value() (bool, error) {
	if a.Active == nil {
		return false, fmt.Errorf("%w: active is required", service.ErrValidation)
	}
	return *a.Active, nil
}
