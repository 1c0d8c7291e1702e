package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/invoicepro/invoicepro/internal/platform/cache"
)

const keyPrefix = "invoicepro:dashboard"

// Cache keeps computed statistics in Redis. Every user has a version
// counter that is part of each key, so bumping it drops the user's entries.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache returns a cache. A nil client disables caching.
func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func versionKey(userID int64) string {
	return fmt.Sprintf("%s:%d:version", keyPrefix, userID)
}

func (c *Cache) version(ctx context.Context, userID int64) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return ver, err
}

// Key builds the versioned key for one view of one user.
func (c *Cache) Key(ctx context.Context, userID int64, view string) (string, error) {
	ver, err := c.version(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("dashboard: cache version: %w", err)
	}
	return keyPrefix + ":" + strconv.FormatInt(userID, 10) + ":" + view + ":v" + strconv.FormatInt(ver, 10), nil
}

// Fetch loads key into dest, computing and storing it on a miss. Concurrent
// misses for the same key share one load.
func (c *Cache) Fetch(ctx context.Context, userID int64, view string, dest any, load func(context.Context) (any, error)) error {
	if c == nil || c.client == nil {
		return assign(ctx, dest, load)
	}
	key, err := c.Key(ctx, userID, view)
	if err != nil {
		// Redis is down: serve uncached.
		return assign(ctx, dest, load)
	}
	if ok, err := cache.GetJSON(ctx, c.client, key, dest); err == nil && ok {
		return nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		_ = cache.SetJSON(ctx, c.client, key, json.RawMessage(raw), c.ttl)
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

// Bump invalidates every cached view of userID.
func (c *Cache) Bump(ctx context.Context, userID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, versionKey(userID)).Err(); err != nil {
		return fmt.Errorf("dashboard: bump cache: %w", err)
	}
	return nil
}

func assign(ctx context.Context, dest any, load func(context.Context) (any, error)) error {
	value, err := load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
