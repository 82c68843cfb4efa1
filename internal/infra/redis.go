package infra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedis creates and validates a go-redis client connection.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Validate connectivity at startup
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

const (
	dedupKeyPrefix = "inbound:dedup:"
	dedupTTL       = 24 * time.Hour
)

// RedisDeduper remembers provider message ids with a SETNX-and-expire, so
// webhook redeliveries inside the window are recognized. The window only
// needs to outlast the provider's retry schedule; the audit table's unique
// index covers anything beyond it.
type RedisDeduper struct {
	rdb *redis.Client
}

func NewRedisDeduper(rdb *redis.Client) *RedisDeduper {
	return &RedisDeduper{rdb: rdb}
}

// FirstSeen claims the id and reports whether this call was the first to
// do so.
func (d *RedisDeduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	return d.rdb.SetNX(ctx, dedupKeyPrefix+id, 1, dedupTTL).Result()
}

// Forget releases a claimed id so the provider's retry of a failed
// delivery is processed instead of dropped.
func (d *RedisDeduper) Forget(ctx context.Context, id string) {
	if err := d.rdb.Del(ctx, dedupKeyPrefix+id).Err(); err != nil {
		log.Warn().Err(err).Str("provider_message_id", id).Msg("dedup: failed to release id")
	}
}
