package stores

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisClient = redis.UniversalClient

// NewRedisClient connects and pings the redis at uri
func NewRedisClient(ctx context.Context, uri string) (RedisClient, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}
	rc := redis.NewClient(opt)
	if err = rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rc, nil
}
