package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"github.com/Freeeeeet/concierge_slots/internal/repository/memstore"
	"github.com/Freeeeeet/concierge_slots/internal/service"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingNotifier запоминает уведомления вместо отправки
type recordingNotifier struct {
	mu        sync.Mutex
	created   []string
	cancelled []string
}

func (n *recordingNotifier) BookingCreated(_ context.Context, b *model.Booking, _ *model.Calendar) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, b.ID)
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, b *model.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b.ID)
}

type testServer struct {
	router   *mux.Router
	notifier *recordingNotifier
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	store := memstore.New()
	logger := zap.NewNop()

	availability := service.NewAvailabilityService(
		store.Calendars(), store.Rules(), store.Overrides(), store.Bookings(), store.Experiences(),
		time.UTC, 62, logger,
	)
	availability.SetClock(func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) })

	notifier := &recordingNotifier{}
	h := NewHandler(Deps{
		Calendars:    service.NewCalendarService(store.Calendars(), logger),
		Rules:        service.NewRuleService(store.Calendars(), store.Rules(), store.Overrides(), 62, logger),
		Availability: availability,
		Bookings:     service.NewBookingService(availability, store.Calendars(), store.Bookings(), store.Experiences(), time.Second, 62, logger),
		Catalog:      service.NewCatalogService(store.Experiences(), logger),
		Notifier:     notifier,
		Health:       store,
		Logger:       logger,
	})
	return &testServer{router: NewRouter(h, opts), notifier: notifier}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seed повторяет сценарий: cal-main, будни 09:00-11:00, exp1 на 2 часа
func (s *testServer) seed(t *testing.T) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/calendars", map[string]any{"id": "cal-main", "name": "Main", "color": "#112233"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/api/experiences/exp1", map[string]any{"name": "City walk", "duration_minutes": 120, "is_active": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/calendars/cal-main/rules", map[string]any{
		"name":     "Weekdays",
		"weekdays": []int{1, 2, 3, 4, 5},
		"windows":  []map[string]string{{"start": "09:00", "end": "11:00"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func commitBody() map[string]any {
	return map[string]any{
		"calendar_id":   "cal-main",
		"experience_id": "exp1",
		"date":          "2024-02-05",
		"time":          "09:00",
		"guest":         map[string]any{"name": "Anna", "email": "anna@example.com", "guest_count": 2},
	}
}

func TestScenario_ResolveCommitResolve(t *testing.T) {
	s := newTestServer(t, Options{})
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/calendars/cal-main/availability?experience_id=exp1&from=2024-02-05&to=2024-02-05", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	days := decode[[]model.ResolvedDay](t, rec)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 1)
	assert.Equal(t, model.TimeSlot{Start: model.Clock(9, 0), End: model.Clock(11, 0), Available: true}, days[0].Slots[0])

	rec = s.do(t, http.MethodPost, "/api/bookings", commitBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[service.CommitResult](t, rec)
	assert.Equal(t, service.OutcomeCommitted, result.Outcome)
	require.NotNil(t, result.Booking)
	assert.Equal(t, []string{result.Booking.ID}, s.notifier.created)

	rec = s.do(t, http.MethodGet, "/api/calendars/cal-main/availability?experience_id=exp1&from=2024-02-05", nil)
	days = decode[[]model.ResolvedDay](t, rec)
	assert.False(t, days[0].Slots[0].Available)

	rec = s.do(t, http.MethodPost, "/api/bookings", commitBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "already_taken", body["outcome"])

	// Отмена возвращает слот; повторная отмена не шлёт второе уведомление
	rec = s.do(t, http.MethodPost, "/api/bookings/"+result.Booking.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/bookings/"+result.Booking.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.notifier.cancelled, 1)

	rec = s.do(t, http.MethodGet, "/api/calendars/cal-main/availability?experience_id=exp1&from=2024-02-05", nil)
	days = decode[[]model.ResolvedDay](t, rec)
	assert.True(t, days[0].Slots[0].Available)
}

func TestBlockedOverrideAndConflict(t *testing.T) {
	s := newTestServer(t, Options{})
	s.seed(t)

	rec := s.do(t, http.MethodPost, "/api/calendars/cal-main/overrides", map[string]any{"date": "2024-02-05", "is_blocked": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	override := decode[model.DateOverride](t, rec)

	rec = s.do(t, http.MethodPost, "/api/calendars/cal-main/overrides", map[string]any{"date": "2024-02-05", "is_blocked": true})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/calendars/cal-main/availability?experience_id=exp1&from=2024-02-05", nil)
	days := decode[[]model.ResolvedDay](t, rec)
	assert.Empty(t, days[0].Slots)
	assert.Equal(t, model.DayStatusBlocked, days[0].Status)

	rec = s.do(t, http.MethodPost, "/api/bookings", commitBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_not_offered", decode[map[string]any](t, rec)["outcome"])

	rec = s.do(t, http.MethodDelete, "/api/overrides/"+override.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/overrides/"+override.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, Options{})
	s.seed(t)

	rec := s.do(t, http.MethodDelete, "/api/calendars/cal-main", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invariant_violation", decode[errorResponse](t, rec).Kind)

	// Выключенный второй календарь не спасает последний активный
	rec = s.do(t, http.MethodPost, "/api/calendars", map[string]any{"name": "Dormant", "is_active": false})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodDelete, "/api/calendars/cal-main", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/calendars/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/calendars/cal-main/rules", map[string]any{"weekdays": []int{}, "windows": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/calendars", map[string]any{"name": "x", "unexpected": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/calendars/cal-main/availability?experience_id=exp1&from=05.02.2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := commitBody()
	body["guest"] = map[string]any{"name": "Anna", "email": "broken", "guest_count": 1}
	rec = s.do(t, http.MethodPost, "/api/bookings", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/calendars/cal-main/active", map[string]any{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/bookings", commitBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "calendar_inactive", decode[map[string]any](t, rec)["outcome"])
}

func TestResolveAcrossCalendarsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/availability?experience_id=exp1&from=2024-02-05&to=2024-02-06", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]service.CalendarAvailability](t, rec)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Days, 2)
}

func TestCommitRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newTestServer(t, Options{CommitLimiter: NewClientRateLimiter(ctx, LimiterConfig{Rate: PerMinute(1), Burst: 1})})
	s.seed(t)

	rec := s.do(t, http.MethodPost, "/api/bookings", commitBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/bookings", commitBody())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Остальные маршруты лимит не затрагивает
	rec = s.do(t, http.MethodGet, "/api/calendars", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
