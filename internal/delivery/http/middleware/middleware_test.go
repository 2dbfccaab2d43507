package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pizzeria-backend/config"
	"pizzeria-backend/internal/domain"
	"pizzeria-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := utils.GenerateJWT("ops", "ops@example.com", role, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRequireAdmin(t *testing.T) {
	utils.SetSecret("middleware-test")
	t.Cleanup(func() { utils.SetSecret("") })

	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{name: "no token", auth: "", status: http.StatusUnauthorized},
		{name: "garbage token", auth: "Bearer not-a-jwt", status: http.StatusUnauthorized},
		{name: "customer role", auth: bearer(t, "customer"), status: http.StatusForbidden},
		{name: "admin role", auth: bearer(t, domain.RoleAdmin), status: http.StatusOK},
	}

	h := RequireAdmin(okHandler)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/tariff/reload", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAuthMiddleware_PutsUserInContext(t *testing.T) {
	utils.SetSecret("middleware-test")
	t.Cleanup(func() { utils.SetSecret("") })

	var got *domain.User
	h := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Value(domain.UserContextKey).(*domain.User)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, domain.RoleAdmin))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, &domain.User{ID: "ops", Email: "ops@example.com", Role: domain.RoleAdmin}, got)
}

func TestCORS(t *testing.T) {
	h := NewCORSMiddleware(&config.Config{AllowedOrigin: "https://pizza.example, http://localhost:3000"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tariff/zones", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/tariff/zones", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	called := false
	preflight := NewCORSMiddleware(&config.Config{AllowedOrigin: "*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec = httptest.NewRecorder()
	preflight.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/tariff/quote", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 1, 2, time.Minute, time.Minute)
	defer rl.Shutdown()
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tariff/validate", nil)
		req.RemoteAddr = "203.0.113.7:51000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tariff/validate", nil)
	req.RemoteAddr = "198.51.100.2:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_ExemptPathsAndCleanup(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 1, 1, time.Hour, time.Minute, "/health")
	defer rl.Shutdown()

	now := time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Zero(t, rl.Len(), "health probes are not tracked")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tariff/zones", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tariff/zones", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, 1, rl.Len())

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	assert.Zero(t, rl.Len())
}

func TestNewRateLimiterFromConfig(t *testing.T) {
	rl := NewRateLimiterFromConfig(context.Background(), &config.Config{RateLimitRPS: 2.5, RateLimitBurst: 5}, nil)
	defer rl.Shutdown()

	assert.InDelta(t, 2.5, float64(rl.limit), 1e-9)
	assert.Equal(t, 5, rl.burst)
	assert.True(t, rl.exempt["/api/v1/health"])
}

func TestClientIP_UntrustedPeerIgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	req.Header.Set("X-Real-IP", "203.0.113.6")

	var noProxies *ClientIPResolver
	assert.Equal(t, "192.0.2.1", noProxies.ClientIP(req))

	res, err := NewClientIPResolver([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1", res.ClientIP(req))
}

func TestClientIP_TrustedProxy(t *testing.T) {
	res, err := NewClientIPResolver([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"no headers", "10.1.2.3:80", "", "", "10.1.2.3"},
		{"single hop", "10.1.2.3:80", "203.0.113.5", "", "203.0.113.5"},
		{"spoofed leading entry", "10.1.2.3:80", "198.51.100.77, 203.0.113.5", "", "203.0.113.5"},
		{"trusted hops skipped", "192.0.2.10:80", "203.0.113.5, 10.9.9.9", "", "203.0.113.5"},
		{"real ip fallback", "10.1.2.3:80", "", "203.0.113.6", "203.0.113.6"},
		{"ipv4 mapped peer", "[::ffff:10.1.2.3]:80", "203.0.113.5", "", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, res.ClientIP(req))
		})
	}
}

func TestNewClientIPResolver_RejectsGarbage(t *testing.T) {
	_, err := NewClientIPResolver([]string{"10.0.0.0/8", "proxy.internal"})
	assert.ErrorContains(t, err, "proxy.internal")
}

func TestRateLimiter_ForgedForwardedForSharesBucket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{RateLimitRPS: 1, RateLimitBurst: 1}
	rl := NewRateLimiterFromConfig(ctx, cfg, nil)
	defer rl.Shutdown()
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tariff/quote", nil)
		req.RemoteAddr = "203.0.113.7:51000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, rl.Len())
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	h := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tariff/resolve?postalCode=10115", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 8)
}
