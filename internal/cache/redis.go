// Package cache provides the Redis client used for token revocation and rate limiting.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"campusforum/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// NewClient builds a client from either a redis:// URL or a bare host:port.
func NewClient(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(metricsHook{})
	return rdb, nil
}

// InitRedis connects the shared client. A failed connection leaves the
// package without a client and callers degrade to running without Redis.
func InitRedis(addr string) {
	rdb, err := NewClient(addr)
	if err != nil {
		slog.Warn("invalid REDIS_URL, continuing without redis", slog.String("addr", addr), slog.String("error", err.Error()))
		client = nil
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable, continuing without redis", slog.String("error", err.Error()))
		_ = rdb.Close()
		client = nil
		return
	}
	client = rdb
	slog.Info("redis connected")
}

// GetClient returns the shared client, or nil when Redis is not configured.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the shared client. Tests point it at miniredis.
func SetClient(rdb *redis.Client) {
	client = rdb
}
