package httpapi

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultLimiterIdleTTL = 10 * time.Minute
	limiterSweepPeriod    = time.Minute
)

// LimiterConfig параметры ограничения фиксаций
type LimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// IdleTTL через сколько простоя бакет клиента забывается; 0 = 10 минут
	IdleTTL time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter token bucket на каждого клиента для POST /api/bookings
type ClientRateLimiter struct {
	cfg     LimiterConfig
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewClientRateLimiter запускает фоновую чистку простаивающих бакетов до отмены ctx
func NewClientRateLimiter(ctx context.Context, cfg LimiterConfig) *ClientRateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultLimiterIdleTTL
	}
	rl := &ClientRateLimiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	go rl.sweepLoop(ctx)
	return rl
}

// PerMinute переводит "N в минуту" в rate.Limit
func PerMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}

// Reserve пытается взять токен клиента. При отказе возвращает, через сколько токен появится;
// резерв при этом отменяется, чтобы отказанные запросы не отодвигали следующий токен.
func (rl *ClientRateLimiter) Reserve(client string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	b, ok := rl.buckets[client]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)}
		rl.buckets[client] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, rl.cfg.IdleTTL
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Allow как Reserve, без задержки
func (rl *ClientRateLimiter) Allow(client string) bool {
	ok, _ := rl.Reserve(client)
	return ok
}

// evict удаляет бакеты, простаивающие дольше IdleTTL, и возвращает их число
func (rl *ClientRateLimiter) evict(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for client, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.cfg.IdleTTL {
			delete(rl.buckets, client)
			n++
		}
	}
	return n
}

func (rl *ClientRateLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evict(rl.now())
		case <-ctx.Done():
			return
		}
	}
}

// clientIP первый адрес из X-Forwarded-For, затем X-Real-IP, затем хост из RemoteAddr
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit отвечает 429 с Retry-After в секундах до следующего токена. nil лимитер пропускает всё.
func RateLimit(rl *ClientRateLimiter, next http.HandlerFunc) http.HandlerFunc {
	if rl == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if ok, wait := rl.Reserve(clientIP(r)); !ok {
			seconds := int(math.Ceil(wait.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests", Kind: "rate_limited"})
			return
		}
		next(w, r)
	}
}
