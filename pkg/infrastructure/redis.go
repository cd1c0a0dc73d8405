package infrastructure

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the session cache connection settings.
type RedisConfig struct {
	URL      string // redis://host:port/db, or rediss:// for TLS
	Password string // overrides any password embedded in URL
}

// NewRedisClient builds a client without dialing; connectivity is checked by
// the session store so that startup never blocks on Redis.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis: url not configured")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	// failures are absorbed by the in-memory fallback; retrying here only adds latency
	opts.MaxRetries = -1

	return redis.NewClient(opts), nil
}
