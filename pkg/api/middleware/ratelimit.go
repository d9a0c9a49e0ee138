package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rostermind/rostermind/pkg/api/response"
)

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// clientLimiter pairs a token bucket with its last-seen time so idle
// clients can be evicted.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter tracks one token bucket per client IP.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
}

const clientIdleTimeout = 3 * time.Minute

// RateLimit returns a middleware that limits requests per client IP using
// a token bucket. Responses above the limit are 429 with a Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	rl := &rateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				response.Error(w,
					http.StatusTooManyRequests,
					response.ErrCodeRateLimited,
					"Rate limit exceeded",
					GetRequestID(r.Context()),
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *rateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cl, ok := rl.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[client] = cl
	}
	cl.lastSeen = now

	// Opportunistic eviction keeps the map from growing without bound.
	if len(rl.clients) > 1024 {
		for key, other := range rl.clients {
			if now.Sub(other.lastSeen) > clientIdleTimeout {
				delete(rl.clients, key)
			}
		}
	}

	return cl.limiter.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
