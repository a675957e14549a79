package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	httperrors "exemplo.com.br/creditos/internal/infrastructure/http"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	log     *slog.Logger
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second per IP
// with the given burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int, log *slog.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		log:     log,
	}
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl.rps <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.limiter(ip, time.Now()).Allow() {
			retryAfter := int(math.Ceil(1 / float64(rl.rps)))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			rl.log.Warn("Rate limit exceeded", "client_ip", ip, "path", r.URL.Path)
			httperrors.WriteError(w, http.StatusTooManyRequests, httperrors.MsgTooManyRequests, nil, rl.log)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiter(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if c, ok := rl.clients[ip]; ok {
		c.lastSeen = now
		return c.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.clients[ip] = &client{limiter: lim, lastSeen: now}
	return lim
}

// Cleanup forgets clients idle since before now minus the idle TTL.
func (rl *RateLimiter) Cleanup(now time.Time) int {
	cutoff := now.Add(-rl.idleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || rl.rps <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := rl.Cleanup(now); n > 0 {
					rl.log.Debug("Rate limiter clients evicted", "count", n)
				}
			}
		}
	}()
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
