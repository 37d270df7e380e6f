package cache

import (
	"context"
	"time"
)

// Locker serializes work on one key across service instances.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// JSONCache stores JSON documents under string keys.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

var (
	_ Locker    = (*RedisClient)(nil)
	_ JSONCache = (*RedisClient)(nil)
)
