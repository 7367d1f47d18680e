package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("requests within the budget pass", func(t *testing.T) {
		l := NewMemoryLimiter(2, time.Minute)

		for i := 0; i < 2; i++ {
			allowed, _, err := l.Allow(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, retryAfter, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Greater(t, retryAfter, time.Duration(0))
	})

	t.Run("keys are counted independently", func(t *testing.T) {
		l := NewMemoryLimiter(1, time.Minute)

		allowed, _, _ := l.Allow(ctx, "1.2.3.4")
		assert.True(t, allowed)
		allowed, _, _ = l.Allow(ctx, "5.6.7.8")
		assert.True(t, allowed)
	})

	t.Run("window expiry resets the counter", func(t *testing.T) {
		l := NewMemoryLimiter(1, 30*time.Millisecond)

		allowed, _, _ := l.Allow(ctx, "1.2.3.4")
		assert.True(t, allowed)
		allowed, _, _ = l.Allow(ctx, "1.2.3.4")
		assert.False(t, allowed)

		time.Sleep(50 * time.Millisecond)

		allowed, _, _ = l.Allow(ctx, "1.2.3.4")
		assert.True(t, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(NewMemoryLimiter(2, time.Minute), nil))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do().Code)
	assert.Equal(t, http.StatusOK, do().Code)

	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
