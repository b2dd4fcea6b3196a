package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"movie-favorites/internal/apperr"
	"movie-favorites/internal/httpx"
	"movie-favorites/internal/observability"
)

const maxTrackedClients = 5000

// RateLimiter throttles credential endpoints per client IP with a token
// bucket that refills max tokens every window. The client is the socket peer
// unless a trusted proxy middleware rewrote RemoteAddr upstream. At most
// maxClients buckets are kept.
type RateLimiter struct {
	mu         sync.Mutex
	limit      rate.Limit
	burst      int
	limiters   map[string]*clientLimiter
	maxClients int
	now        func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return &RateLimiter{
		limit:      rate.Every(window / time.Duration(maxRequests)),
		burst:      maxRequests,
		limiters:   make(map[string]*clientLimiter),
		maxClients: maxTrackedClients,
		now:        time.Now,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := observability.ClientIP(r)

		allowed, retryAfter := l.allow(ip)
		if !allowed {
			seconds := max(int(retryAfter.Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			observability.FromContext(r.Context()).Warn("auth_rate_limited", "ip", ip, "retry_after", seconds)
			httpx.WriteError(w, r, apperr.ErrTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= l.maxClients {
			l.evict(now)
		}
		entry = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	if entry.limiter.AllowN(now, 1) {
		return true, 0
	}

	reservation := entry.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return false, delay
}

// evict drops every bucket that has fully refilled. When none has, the least
// recently seen client is dropped so the map never exceeds maxClients.
func (l *RateLimiter) evict(now time.Time) {
	var (
		oldestKey  string
		oldestSeen time.Time
	)
	for key, entry := range l.limiters {
		if entry.limiter.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, key)
			continue
		}
		if oldestKey == "" || entry.lastSeen.Before(oldestSeen) {
			oldestKey, oldestSeen = key, entry.lastSeen
		}
	}

	if len(l.limiters) >= l.maxClients && oldestKey != "" {
		delete(l.limiters, oldestKey)
	}
}

