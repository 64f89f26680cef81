// Package cache provides a Redis read-through cache in front of a link store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	keyPrefix  = "shortlink:"
	DefaultTTL = time.Hour
)

type linkStore interface {
	Exists(ctx context.Context, shortCode string) (bool, error)
	Insert(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error)
	Lookup(ctx context.Context, shortCode string) (*entity.ShortLink, error)
	IncrementClicks(ctx context.Context, shortCode string) error
	ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.ShortLink, error)
}

// Connect opens a Redis client and checks that the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	const op = "adapter.cache.Connect"

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%s: failed to ping redis: %w", op, err)
	}

	return rdb, nil
}

// LinkCache keeps recently resolved links in Redis. The store stays the source
// of truth: inserts and click increments always go to it, and any Redis
// failure falls back to the store.
//
// Cached click counts go stale, so owner statistics must read the store directly.
type LinkCache struct {
	store  linkStore
	rdb    *redis.Client
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*LinkCache)

// WithTTL sets the upper bound for how long an entry stays cached.
func WithTTL(ttl time.Duration) Option {
	return func(c *LinkCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewLinkCache(store linkStore, rdb *redis.Client, logger *slog.Logger, opts ...Option) *LinkCache {
	c := &LinkCache{
		store:  store,
		rdb:    rdb,
		logger: logger,
		ttl:    DefaultTTL,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type cachedLink struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	Owner       string    `json:"owner,omitempty"`
	ClickCount  int64     `json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toCachedLink(link *entity.ShortLink) cachedLink {
	return cachedLink{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		Owner:       link.Owner,
		ClickCount:  link.ClickCount,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
	}
}

func (l cachedLink) toEntity() *entity.ShortLink {
	return &entity.ShortLink{
		ID:          l.ID,
		ShortCode:   l.ShortCode,
		OriginalURL: l.OriginalURL,
		Owner:       l.Owner,
		ClickCount:  l.ClickCount,
		CreatedAt:   l.CreatedAt,
		ExpiresAt:   l.ExpiresAt,
	}
}

func key(shortCode string) string {
	return keyPrefix + shortCode
}

// entryTTL caps ttl so that an entry never outlives the link itself.
func entryTTL(ttl time.Duration, expiresAt, now time.Time) time.Duration {
	if left := expiresAt.Sub(now); left < ttl {
		return left
	}
	return ttl
}

func (c *LinkCache) Exists(ctx context.Context, shortCode string) (bool, error) {
	return c.store.Exists(ctx, shortCode)
}

func (c *LinkCache) Insert(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error) {
	stored, err := c.store.Insert(ctx, link)
	if err != nil {
		return nil, err
	}

	c.set(ctx, stored)
	return stored, nil
}

func (c *LinkCache) Lookup(ctx context.Context, shortCode string) (*entity.ShortLink, error) {
	const op = "adapter.cache.LinkCache.Lookup"

	data, err := c.rdb.Get(ctx, key(shortCode)).Bytes()
	switch {
	case err == nil:
		var cl cachedLink
		if err := json.Unmarshal(data, &cl); err != nil {
			c.warn(ctx, op, shortCode, err)
			break
		}
		return cl.toEntity(), nil
	case !errors.Is(err, redis.Nil):
		c.warn(ctx, op, shortCode, err)
	}

	link, err := c.store.Lookup(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	c.set(ctx, link)
	return link, nil
}

func (c *LinkCache) IncrementClicks(ctx context.Context, shortCode string) error {
	return c.store.IncrementClicks(ctx, shortCode)
}

func (c *LinkCache) ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.ShortLink, error) {
	return c.store.ListByOwner(ctx, owner, limit)
}

func (c *LinkCache) set(ctx context.Context, link *entity.ShortLink) {
	const op = "adapter.cache.LinkCache.set"

	ttl := entryTTL(c.ttl, link.ExpiresAt, c.now())
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(toCachedLink(link))
	if err != nil {
		c.warn(ctx, op, link.ShortCode, err)
		return
	}

	if err := c.rdb.Set(ctx, key(link.ShortCode), data, ttl).Err(); err != nil {
		c.warn(ctx, op, link.ShortCode, err)
	}
}

func (c *LinkCache) warn(ctx context.Context, op, shortCode string, err error) {
	c.logger.WarnContext(ctx, "redis cache unavailable",
		slog.String("op", op),
		slog.String("short_code", shortCode),
		slog.Any("err", err),
	)
}
