package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NextMind-AI/marlie/catalog"

	"github.com/redis/go-redis/v9"
)

const catalogPrefix = "catalog:"

var _ catalog.Snapshot = (*CatalogStore)(nil)

// CatalogStore holds the per-tenant service snapshot searched on every turn.
type CatalogStore struct {
	client *Client
}

func NewCatalogStore(client *Client) *CatalogStore {
	return &CatalogStore{client: client}
}

// Load returns nil when the tenant has no snapshot yet.
func (s *CatalogStore) Load(ctx context.Context, tenantID string) ([]catalog.Service, error) {
	raw, err := s.client.rdb.Get(ctx, catalogPrefix+tenantID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: load catalog %s: %w", tenantID, err)
	}

	var services []catalog.Service
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, fmt.Errorf("redis: decode catalog %s: %w", tenantID, err)
	}
	return services, nil
}

func (s *CatalogStore) Save(ctx context.Context, tenantID string, services []catalog.Service) error {
	data, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("redis: encode catalog %s: %w", tenantID, err)
	}
	if err := s.client.rdb.Set(ctx, catalogPrefix+tenantID, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: save catalog %s: %w", tenantID, err)
	}
	return nil
}
