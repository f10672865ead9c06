package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetThrottle bounds how often reset mail goes out per address, backed by
// a SETNX key with a TTL. Key format: reset:cooldown:<email>
type ResetThrottle struct {
	client   *redis.Client
	cooldown time.Duration
}

// NewResetThrottle creates a throttle allowing one send per cooldown window.
func NewResetThrottle(client *redis.Client, cooldown time.Duration) *ResetThrottle {
	return &ResetThrottle{client: client, cooldown: cooldown}
}

// Allow reports whether a send to email may proceed now. The first caller in
// a window claims the key and may send; later callers are denied until the
// key expires.
func (t *ResetThrottle) Allow(ctx context.Context, email string) (bool, error) {
	if t.cooldown <= 0 {
		return true, nil
	}
	ok, err := t.client.SetNX(ctx, t.key(email), "1", t.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("reset throttle: %w", err)
	}
	return ok, nil
}

func (t *ResetThrottle) key(email string) string {
	return "reset:cooldown:" + email
}
