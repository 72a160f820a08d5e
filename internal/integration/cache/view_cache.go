// Package cache keeps ledger state that must outlive the process in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
)

const viewKey = "ledger:view:latest"

// viewCache implements the adapter.ViewCache interface.
type viewCache struct {
	client *redis.Client
}

// NewViewCache creates a Redis-backed cache of the last published view.
func NewViewCache(client *redis.Client) adapter.ViewCache {
	return &viewCache{client: client}
}

// Save replaces the cached view. The view has no expiry; it is only ever
// superseded by a newer one.
func (c *viewCache) Save(ctx context.Context, view *entity.LedgerView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	return c.client.Set(ctx, viewKey, data, 0).Err()
}

// Load returns the cached view.
func (c *viewCache) Load(ctx context.Context) (*entity.LedgerView, error) {
	data, err := c.client.Get(ctx, viewKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domainerror.ErrNoPublishedView
		}
		return nil, err
	}

	var view entity.LedgerView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to decode cached view: %w", err)
	}
	return &view, nil
}
