package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(now *time.Time) *rateLimiter {
	return &rateLimiter{
		window:        10 * time.Second,
		last:          make(map[string]time.Time),
		sweepInterval: time.Minute,
		now: func() time.Time {
			return *now
		},
	}
}

func runLimited(l *rateLimiter, path, userID string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", path, nil)
	if userID != "" {
		c.Set(ContextUserIDKey, userID)
	}
	l.handle(c)
	return c
}

func TestRateLimiterHandle_BlocksWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := newTestLimiter(&now)

	require.False(t, runLimited(limiter, "/api/v1/chat/message", "u1").IsAborted())
	require.True(t, runLimited(limiter, "/api/v1/chat/message", "u1").IsAborted())

	now = now.Add(11 * time.Second)
	require.False(t, runLimited(limiter, "/api/v1/chat/message", "u1").IsAborted())
}

func TestRateLimiterHandle_KeysAreIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := newTestLimiter(&now)

	require.False(t, runLimited(limiter, "/api/v1/chat/message", "u1").IsAborted())
	require.False(t, runLimited(limiter, "/api/v1/chat/message", "u2").IsAborted())
	require.False(t, runLimited(limiter, "/api/v1/auth/login", "u1").IsAborted())
}

func TestRateLimiterHandle_ZeroWindowDisables(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := newTestLimiter(&now)
	limiter.window = 0
	for i := 0; i < 3; i++ {
		require.False(t, runLimited(limiter, "/x", "").IsAborted())
	}
}

func TestRateLimiterCleanupExpiredLocked_RemovesExpiredEntries(t *testing.T) {
	base := time.Now()
	limiter := &rateLimiter{
		window:        10 * time.Second,
		last:          make(map[string]time.Time),
		sweepInterval: 10 * time.Second,
		now:           time.Now,
	}
	limiter.last["expired"] = base.Add(-20 * time.Second)
	limiter.last["active"] = base.Add(-2 * time.Second)

	limiter.mu.Lock()
	limiter.cleanupExpiredLocked(base)
	limiter.mu.Unlock()

	require.NotContains(t, limiter.last, "expired")
	require.Contains(t, limiter.last, "active")
	require.False(t, limiter.lastSweep.IsZero())
}

func TestRateLimiterHandle_SweepsOnInterval(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := newTestLimiter(&now)
	limiter.last["stale"] = now.Add(-time.Hour)
	limiter.lastSweep = now.Add(-2 * time.Minute)

	runLimited(limiter, "/x", "u1")
	require.NotContains(t, limiter.last, "stale")
	require.Equal(t, now, limiter.lastSweep)
}
