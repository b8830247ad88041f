package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tripsearch_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// RedisTier is the slower persisted cache tier. It is keyed identically to
// the in-memory tier and survives process restarts within its own TTL.
// A nil *RedisTier is valid and behaves as an always-miss tier.
type RedisTier struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

// NewRedisTier connects to redis using a redis:// URL. Returns an error when
// the URL cannot be parsed; connectivity problems surface per-operation.
func NewRedisTier(redisURL, prefix string, log *logger.Logger) (*RedisTier, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &RedisTier{
		client: redis.NewClient(opt),
		prefix: prefix,
		log:    log,
	}, nil
}

// Get loads the JSON-encoded value under key into dest. Misses, decode
// failures and transport errors all report false; the engine falls through
// to the provider path.
func (t *RedisTier) Get(ctx context.Context, key string, dest any) bool {
	if t == nil || t.client == nil {
		return false
	}

	payload, err := t.client.Get(ctx, t.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil && t.log != nil {
			t.log.Error("redis cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		if t.log != nil {
			t.log.Error("redis cache decode failed", "key", key, "error", err)
		}
		return false
	}

	return true
}

// Set stores val as JSON under key for ttl. Failures are logged and dropped;
// the persisted tier is best-effort.
func (t *RedisTier) Set(ctx context.Context, key string, val any, ttl time.Duration) {
	if t == nil || t.client == nil {
		return
	}

	payload, err := json.Marshal(val)
	if err != nil {
		if t.log != nil {
			t.log.Error("redis cache encode failed", "key", key, "error", err)
		}
		return
	}

	if err := t.client.Set(ctx, t.prefix+key, payload, ttl).Err(); err != nil {
		if t.log != nil {
			t.log.Error("redis cache write failed", "key", key, "error", err)
		}
	}
}

// Ping checks connectivity. A disabled tier is always healthy.
func (t *RedisTier) Ping(ctx context.Context) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Ping(ctx).Err()
}

// Close releases the underlying connection.
func (t *RedisTier) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}
