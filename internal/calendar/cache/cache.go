// Package cache puts a Redis read-through cache in front of a calendar
// Service's busy lookups.
//
// Entries are keyed by calendar, window and a per-calendar generation
// counter. Writes through the cache bump the generation, which orphans every
// cached window for that calendar; orphans expire with their TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"smartscheduler/internal/calendar"
	"smartscheduler/internal/domain"
	"smartscheduler/internal/observe"
)

const keyPrefix = "smartscheduler:busy:"

// kv is the subset of Redis the cache uses. Get reports a missing key as
// redis.Nil.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) error
}

type redisKV struct {
	client *redis.Client
}

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r redisKV) Incr(ctx context.Context, key string) error {
	return r.client.Incr(ctx, key).Err()
}

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// BusyCache wraps a calendar Service. Redis failures are logged and the call
// falls through to the wrapped service; they never fail the lookup.
type BusyCache struct {
	next    calendar.Service
	kv      kv
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observe.Metrics
}

func New(next calendar.Service, client *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *observe.Metrics) *BusyCache {
	return newBusyCache(next, redisKV{client: client}, ttl, logger, metrics)
}

func newBusyCache(next calendar.Service, store kv, ttl time.Duration, logger *slog.Logger, metrics *observe.Metrics) *BusyCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &BusyCache{
		next:    next,
		kv:      store,
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "busy_cache")),
		metrics: metrics,
	}
}

func generationKey(calendarID string) string {
	return keyPrefix + "gen:" + calendarID
}

func windowKey(calendarID, gen string, start, end time.Time) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", keyPrefix, calendarID, gen, start.UTC().Unix(), end.UTC().Unix())
}

func (c *BusyCache) generation(ctx context.Context, calendarID string) (string, error) {
	gen, err := c.kv.Get(ctx, generationKey(calendarID))
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *BusyCache) BusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error) {
	gen, err := c.generation(ctx, calendarID)
	if err != nil {
		c.cacheError(ctx, "read generation", err)
		return c.next.BusyIntervals(ctx, calendarID, start, end)
	}
	key := windowKey(calendarID, gen, start, end)

	raw, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var busy []domain.TimeInterval
		if jsonErr := json.Unmarshal([]byte(raw), &busy); jsonErr == nil {
			c.metrics.RecordCacheLookup(ctx, "hit")
			return busy, nil
		}
		c.cacheError(ctx, "decode entry", fmt.Errorf("key %s: corrupt entry", key))
	case errors.Is(err, redis.Nil):
		c.metrics.RecordCacheLookup(ctx, "miss")
	default:
		c.cacheError(ctx, "read entry", err)
	}

	busy, err := c.next.BusyIntervals(ctx, calendarID, start, end)
	if err != nil {
		return nil, err
	}
	if b, jsonErr := json.Marshal(busy); jsonErr == nil {
		if setErr := c.kv.Set(ctx, key, string(b), c.ttl); setErr != nil {
			c.cacheError(ctx, "write entry", setErr)
		}
	}
	return busy, nil
}

func (c *BusyCache) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
	return c.next.ListEvents(ctx, calendarID, start, end)
}

func (c *BusyCache) CreateEvent(ctx context.Context, calendarID string, in calendar.EventInput) (domain.Event, error) {
	ev, err := c.next.CreateEvent(ctx, calendarID, in)
	if err != nil {
		return domain.Event{}, err
	}
	c.invalidate(ctx, calendarID)
	return ev, nil
}

func (c *BusyCache) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.next.DeleteEvent(ctx, calendarID, eventID); err != nil {
		return err
	}
	c.invalidate(ctx, calendarID)
	return nil
}

func (c *BusyCache) invalidate(ctx context.Context, calendarID string) {
	if err := c.kv.Incr(ctx, generationKey(calendarID)); err != nil {
		c.cacheError(ctx, "bump generation", err)
	}
}

func (c *BusyCache) cacheError(ctx context.Context, op string, err error) {
	c.metrics.RecordCacheLookup(ctx, "error")
	c.logger.Warn("busy cache degraded", slog.String("op", op), slog.Any("err", err))
}
