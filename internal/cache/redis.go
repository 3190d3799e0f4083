package cache

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Connect parses a redis:// URI (or bare host:port) and pings the server
func Connect(ctx context.Context, uri string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		parsed, err := redis.ParseURL(uri)
		if err != nil {
			return nil, errors.Wrap(err, "parse REDIS_URI")
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: uri}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}
