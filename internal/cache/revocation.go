package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// RevokedKey is the Redis key marking a token id as revoked.
func RevokedKey(jti string) string {
	return revokedKeyPrefix + jti
}

// Revocations records revoked refresh tokens until they would have expired anyway.
type Revocations struct {
	rdb *redis.Client
}

// NewRevocations wraps rdb. A nil client turns every call into a no-op.
func NewRevocations(rdb *redis.Client) *Revocations {
	return &Revocations{rdb: rdb}
}

// Revoke marks jti as revoked for ttl. Tokens already past expiry are skipped.
func (r *Revocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if r == nil || r.rdb == nil {
		slog.WarnContext(ctx, "redis unavailable, token revocation not persisted", slog.String("jti", jti))
		return nil
	}
	return r.rdb.Set(ctx, RevokedKey(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti was revoked. Without Redis nothing is revoked.
func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r == nil || r.rdb == nil || jti == "" {
		return false, nil
	}
	err := r.rdb.Get(ctx, RevokedKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
