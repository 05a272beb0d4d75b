package aicache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared answer cache used when several API instances should
// see each other's cached AI answers.
type Redis struct {
	redisdb *redis.Client
	ttl     time.Duration
}

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func New(cfg Config) *Redis {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Redis{redisdb: redisdb, ttl: cfg.TTL}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.redisdb.Get(ctx, key).Bytes()

	if err != nil {
		// a miss and a broken redis look the same to callers
		return nil, false
	}

	return raw, true
}

func (c *Redis) Set(ctx context.Context, key string, val []byte) {
	// best effort; a failed write only costs a future cache miss
	_ = c.redisdb.Set(ctx, key, val, c.ttl).Err()
}

// Ping checks redis connectivity.

func (c *Redis) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

// Close closes the client.

func (c *Redis) Close() error {
	return c.redisdb.Close()
}
