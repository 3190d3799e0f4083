package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"gsjt/internal/model"
)

// CatalogCache keeps the assembled scenario catalog in Redis
type CatalogCache interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context) ([]*model.Scenario, error)
	Set(ctx context.Context, scenarios []*model.Scenario) error
	Invalidate(ctx context.Context) error
}

type catalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a catalog cache; ttl 0 keeps entries until invalidated
func NewCatalogCache(client *redis.Client, ttl time.Duration) CatalogCache {
	return &catalogCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *catalogCache) key() string {
	return "gsjt:catalog:scenarios"
}

func (c *catalogCache) Get(ctx context.Context) ([]*model.Scenario, error) {
	data, err := c.client.Get(ctx, c.key()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get cached catalog")
	}
	var scenarios []*model.Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, errors.Wrap(err, "decode cached catalog")
	}
	return scenarios, nil
}

func (c *catalogCache) Set(ctx context.Context, scenarios []*model.Scenario) error {
	data, err := json.Marshal(scenarios)
	if err != nil {
		return errors.Wrap(err, "encode catalog")
	}
	return errors.Wrap(c.client.Set(ctx, c.key(), data, c.ttl).Err(), "cache catalog")
}

func (c *catalogCache) Invalidate(ctx context.Context) error {
	return errors.Wrap(c.client.Del(ctx, c.key()).Err(), "invalidate catalog")
}
