package httpmiddleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client rate limiter.
type RateLimitConfig struct {
	// RPS is the sustained requests-per-second budget per client IP.
	RPS float64
	// Burst is the number of requests a client may send at once before the
	// sustained rate applies. Defaults to RPS when zero.
	Burst int
	// IdleTTL is how long an idle client's bucket is kept before eviction.
	// Defaults to one minute.
	IdleTTL time.Duration
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns a middleware applying a per-IP token bucket. Requests
// over budget are answered with 429 and the JSON error envelope.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RPS)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = time.Minute
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*clientBucket)
	)

	get := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		b, ok := clients[ip]
		if !ok {
			// Piggyback eviction on bucket creation; the client set is
			// bounded by the terminal fleet, so a full sweep stays cheap.
			for addr, old := range clients {
				if now.Sub(old.lastSeen) > cfg.IdleTTL {
					delete(clients, addr)
				}
			}
			b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)}
			clients[ip] = b
		}
		b.lastSeen = now
		return b.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !get(ip).Allow() {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"error":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
