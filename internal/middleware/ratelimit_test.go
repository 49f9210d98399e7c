package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLimiter(t *testing.T, rate int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(rate, window)
	t.Cleanup(rl.Stop)

	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_AllowAndRefill(t *testing.T) {
	rl, now := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients are limited separately")

	*now = now.Add(20 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "a third of the window refills one token")
	assert.False(t, rl.Allow("10.0.0.1"))

	*now = now.Add(time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl, now := newTestLimiter(t, 1, time.Minute)
	rl.Allow("10.0.0.1")

	*now = now.Add(2 * time.Hour)
	rl.evictIdle()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Empty(t, rl.clients)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestGetClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1:1234", GetClientKey(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", GetClientKey(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", GetClientKey(r))
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/farmers", nil))
		codes = append(codes, rec.Code)
		last = rec
	}

	require.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, last.Body.String())
}
