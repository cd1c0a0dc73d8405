// Package session keeps one CV document per anonymous session. Redis is the
// primary backend; an in-process map takes over whenever Redis cannot be
// reached, so storage trouble never reaches callers.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"cv-builder/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix  = "cv:session:"
	DefaultTTL = 24 * time.Hour

	BackendRedis  = "redis"
	BackendMemory = "memory"

	defaultRetries = 10
	backoffBase    = 50 * time.Millisecond
	backoffMax     = time.Second
)

// Key returns the namespaced cache key for a session id.
func Key(sessionID string) string { return KeyPrefix + sessionID }

type Stats struct {
	TotalSessions int    `json:"totalSessions"`
	Backend       string `json:"backend"`
	UsingFallback bool   `json:"usingFallback"`
	Timestamp     string `json:"timestamp"`
}

type Health struct {
	Status         string `json:"status"`
	Connected      bool   `json:"connected"`
	FallbackActive bool   `json:"fallbackActive"`
	Message        string `json:"message,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Store is the contract the rest of the service depends on.
type Store interface {
	Get(ctx context.Context, sessionID string) (*model.Document, bool)
	Set(ctx context.Context, sessionID string, doc *model.Document, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string)
	ExtendTTL(ctx context.Context, sessionID string)
	Keys(ctx context.Context) []string
	Stats(ctx context.Context) Stats
	Health(ctx context.Context) Health
}

// Cache implements Store over an optional Redis client and a Memory fallback.
type Cache struct {
	client   *redis.Client
	fallback *Memory
	ttl      time.Duration
	retries  int
	log      *slog.Logger

	connected    atomic.Bool
	reconnecting atomic.Bool
	gaveUp       atomic.Bool
}

type Option func(*Cache)

// WithTTL sets the lifetime applied by ExtendTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithRetries bounds the connection attempts of Connect and of each
// background reconnect loop.
func WithRetries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.retries = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

func WithFallback(m *Memory) Option {
	return func(c *Cache) {
		if m != nil {
			c.fallback = m
		}
	}
}

// NewCache builds a store around client. A nil client yields a memory-only
// store. Call Connect before serving to promote Redis.
func NewCache(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{
		client:   client,
		fallback: NewMemory(),
		ttl:      DefaultTTL,
		retries:  defaultRetries,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fallback exposes the in-process store, mainly for periodic sweeping.
func (c *Cache) Fallback() *Memory { return c.fallback }

// Connect pings Redis with bounded exponential backoff. When every attempt
// fails the cache stays in fallback mode for the rest of the process.
func (c *Cache) Connect(ctx context.Context) error {
	if c.client == nil {
		c.gaveUp.Store(true)
		return errors.New("session: redis not configured")
	}
	if err := c.ping(ctx); err != nil {
		c.gaveUp.Store(true)
		c.log.Warn("redis connection failed, using in-memory fallback", "attempts", c.retries, "error", err)
		return err
	}
	c.connected.Store(true)
	c.log.Info("redis connected")
	return nil
}

func (c *Cache) ping(ctx context.Context) error {
	var err error
	for i := 0; i < c.retries; i++ {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = c.client.Ping(pctx).Err()
		cancel()
		if err == nil {
			return nil
		}
		if i < c.retries-1 {
			select {
			case <-time.After(backoff(i)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

func backoff(attempt int) time.Duration {
	if attempt > 10 {
		return backoffMax
	}
	return min(backoffBase<<attempt, backoffMax)
}

func (c *Cache) useRedis() bool {
	return c.client != nil && c.connected.Load()
}

// markDown switches to the fallback after a backend error and starts a single
// reconnect loop unless an earlier loop already gave up.
func (c *Cache) markDown(op string, err error) {
	if !c.connected.CompareAndSwap(true, false) {
		return
	}
	c.log.Warn("redis operation failed, switching to in-memory fallback", "op", op, "error", err)
	if c.gaveUp.Load() || !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.reconnecting.Store(false)
		if err := c.ping(context.Background()); err != nil {
			c.gaveUp.Store(true)
			c.log.Warn("redis reconnect exhausted, staying on in-memory fallback", "attempts", c.retries, "error", err)
			return
		}
		c.promote(context.Background())
		c.connected.Store(true)
		c.log.Info("redis reconnected")
	}()
}

// promote copies documents written to the fallback during an outage back to
// Redis, keeping their remaining lifetime. Entries that fail to copy stay in
// the fallback, where Get still finds them first.
func (c *Cache) promote(ctx context.Context) {
	entries := c.fallback.Entries(KeyPrefix)
	moved := 0
	for _, e := range entries {
		if err := c.client.Set(ctx, e.Key, e.Data, e.TTL).Err(); err != nil {
			c.log.Warn("copy fallback session to redis", "key", e.Key, "error", err)
			return
		}
		// a write that landed meanwhile is newer and stays put
		if c.fallback.CompareAndDelete(e.Key, e.Data) {
			moved++
		}
	}
	if moved > 0 {
		c.log.Info("moved fallback sessions to redis", "count", moved)
	}
}

// Get returns the session's document. A fallback copy only exists when it
// was written after the Redis copy, so it is read first.
func (c *Cache) Get(ctx context.Context, sessionID string) (*model.Document, bool) {
	key := Key(sessionID)
	if data, ok := c.fallback.Get(key); ok {
		return c.decode(key, data)
	}
	if !c.useRedis() {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return c.decode(key, data)
	case errors.Is(err, redis.Nil):
	default:
		c.markDown("get", err)
	}
	return nil, false
}

func (c *Cache) decode(key string, data []byte) (*model.Document, bool) {
	var d model.Document
	if err := json.Unmarshal(data, &d); err != nil {
		c.log.Warn("discarding unreadable session document", "key", key, "error", err)
		return nil, false
	}
	return &d, true
}

// Set stores doc for ttl. Only encoding failures are returned.
func (c *Cache) Set(ctx context.Context, sessionID string, doc *model.Document, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	key := Key(sessionID)
	if c.useRedis() {
		err := c.client.Set(ctx, key, data, ttl).Err()
		if err == nil {
			// a stale copy written while degraded must not shadow this write later
			c.fallback.Delete(key)
			return nil
		}
		c.markDown("set", err)
	}
	c.log.Debug("using fallback storage", "session", sessionID)
	c.fallback.Set(key, data, ttl)
	return nil
}

func (c *Cache) Delete(ctx context.Context, sessionID string) {
	key := Key(sessionID)
	if c.useRedis() {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.markDown("delete", err)
		}
	}
	c.fallback.Delete(key)
}

func (c *Cache) ExtendTTL(ctx context.Context, sessionID string) {
	key := Key(sessionID)
	if c.useRedis() {
		if err := c.client.Expire(ctx, key, c.ttl).Err(); err != nil {
			c.markDown("expire", err)
		}
	}
	c.fallback.Extend(key, c.ttl)
}

// Keys lists the ids of all live sessions across both backends.
func (c *Cache) Keys(ctx context.Context) []string {
	seen := map[string]bool{}
	if c.useRedis() {
		iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			seen[iter.Val()] = true
		}
		if err := iter.Err(); err != nil {
			c.markDown("scan", err)
		}
	}
	for _, k := range c.fallback.Keys(KeyPrefix) {
		seen[k] = true
	}

	ids := make([]string, 0, len(seen))
	for k := range seen {
		ids = append(ids, strings.TrimPrefix(k, KeyPrefix))
	}
	sort.Strings(ids)
	return ids
}

func (c *Cache) Stats(ctx context.Context) Stats {
	ids := c.Keys(ctx)
	backend := BackendMemory
	if c.useRedis() {
		backend = BackendRedis
	}
	return Stats{
		TotalSessions: len(ids),
		Backend:       backend,
		UsingFallback: backend == BackendMemory,
		Timestamp:     model.FormatTime(time.Now()),
	}
}

func (c *Cache) Health(ctx context.Context) Health {
	h := Health{Timestamp: model.FormatTime(time.Now())}
	if !c.useRedis() {
		h.Status = "degraded"
		h.FallbackActive = true
		h.Message = "Using in-memory fallback storage"
		return h
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.markDown("ping", err)
		h.Status = "degraded"
		h.FallbackActive = true
		h.Message = err.Error()
		return h
	}
	h.Status = "healthy"
	h.Connected = true
	return h
}

// RunSweeper prunes expired fallback entries every interval until ctx ends.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.fallback.Sweep(); n > 0 {
				c.log.Debug("swept expired fallback sessions", "count", n)
			}
		}
	}
}
