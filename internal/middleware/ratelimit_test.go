package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnvironment(t *testing.T, env string) {
	t.Helper()
	prev := appEnv
	SetEnvironment(env)
	t.Cleanup(func() { SetEnvironment(prev) })
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit_Bypass(t *testing.T) {
	for _, env := range []string{"test", "development"} {
		t.Run(env, func(t *testing.T) {
			withEnvironment(t, env)
			allowed, err := CheckRateLimit(context.Background(), nil, "auth", "ip:1", 1, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		})
	}
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	withEnvironment(t, "production")
	allowed, err := CheckRateLimit(context.Background(), nil, "auth", "ip:1", 1, time.Minute)
	assert.ErrorIs(t, err, errNoRedis)
	assert.False(t, allowed)
}

func TestCheckRateLimit_CountsWithinWindow(t *testing.T) {
	withEnvironment(t, "production")
	mr, rdb := newRedis(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "auth", "ip:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := CheckRateLimit(ctx, rdb, "auth", "ip:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, mr.TTL(RateLimitKey("auth", "ip:1")))

	// Other callers have their own budget.
	allowed, err = CheckRateLimit(ctx, rdb, "auth", "ip:2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	mr.FastForward(2 * time.Minute)
	allowed, err = CheckRateLimit(ctx, rdb, "auth", "ip:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	withEnvironment(t, "production")
	_, rdb := newRedis(t)

	app := fiber.New()
	app.Post("/login", RateLimit(rdb, 1, time.Minute, "auth"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestRateLimitMiddleware_FailurePolicies(t *testing.T) {
	withEnvironment(t, "production")
	mr, rdb := newRedis(t)
	mr.Close()

	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	app := fiber.New()
	app.Get("/open", RateLimit(rdb, 1, time.Minute, "open"), ok)
	app.Get("/closed", RateLimitWithPolicy(rdb, 1, time.Minute, FailClosed, "closed"), ok)

	tests := []struct {
		path string
		want int
	}{
		{"/open", http.StatusOK},
		{"/closed", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			start := time.Now()
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), 5000)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Less(t, time.Since(start), time.Second, "unreachable redis must not stall the request")
		})
	}
}
