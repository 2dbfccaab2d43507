package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"pizzeria-backend/config"
	"pizzeria-backend/pkg/utils"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer than
// clientTTL are dropped by a background loop that stops with ctx or Shutdown.
type RateLimiter struct {
	mu            sync.Mutex
	visitors      map[string]*visitor
	limit         rate.Limit
	burst         int
	cleanupPeriod time.Duration
	clientTTL     time.Duration
	exempt        map[string]bool
	clientIP      *ClientIPResolver
	now           func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRateLimiter starts a limiter allowing limit requests per second with the given burst.
// Requests to exemptPaths (health probes) are never counted. Clients are keyed by their
// peer address; see NewRateLimiterFromConfig for proxy-aware keying.
func NewRateLimiter(ctx context.Context, limit rate.Limit, burst int, cleanupPeriod, clientTTL time.Duration, exemptPaths ...string) *RateLimiter {
	rl := &RateLimiter{
		visitors:      make(map[string]*visitor),
		limit:         limit,
		burst:         burst,
		cleanupPeriod: cleanupPeriod,
		clientTTL:     clientTTL,
		exempt:        make(map[string]bool, len(exemptPaths)),
		now:           time.Now,
	}
	for _, p := range exemptPaths {
		rl.exempt[p] = true
	}
	rl.ctx, rl.cancel = context.WithCancel(ctx)
	go rl.cleanupLoop()
	return rl
}

// NewRateLimiterFromConfig uses RATE_LIMIT_RPS / RATE_LIMIT_BURST, exempts the health endpoints
// and keys clients through ips.
func NewRateLimiterFromConfig(ctx context.Context, cfg *config.Config, ips *ClientIPResolver) *RateLimiter {
	rl := NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst,
		time.Minute, 3*time.Minute, "/health", "/api/v1/health")
	rl.clientIP = ips
	return rl
}

func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	limitHeader := strconv.FormatFloat(float64(rl.limit), 'f', -1, 64)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if !rl.allow(rl.clientIP.ClientIP(r)) {
				w.Header().Set("X-RateLimit-Limit", limitHeader)
				w.Header().Set("Retry-After", "1")
				utils.WriteError(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.clientTTL)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// Len reports the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Shutdown stops the cleanup goroutine.
func (rl *RateLimiter) Shutdown() {
	rl.cancel()
}
