package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/expense-ledger/backend/internal/application/adapter"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

const sessionKeyPrefix = "ledger:pager:"

// sessionStore implements the adapter.PagerSessionStore interface.
type sessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPagerSessionStore creates a Redis-backed pagination session store.
// Sessions expire ttl after their last use.
func NewPagerSessionStore(client *redis.Client, ttl time.Duration) adapter.PagerSessionStore {
	return &sessionStore{client: client, ttl: ttl}
}

// Load returns the state saved for sessionID.
func (s *sessionStore) Load(ctx context.Context, sessionID string) (*valueobject.PagerState, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domainerror.ErrSessionNotFound
		}
		return nil, err
	}

	var state valueobject.PagerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode pager state: %w", err)
	}
	return &state, nil
}

// Save stores state for sessionID and refreshes its expiry.
func (s *sessionStore) Save(ctx context.Context, sessionID string, state valueobject.PagerState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode pager state: %w", err)
	}
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, data, s.ttl).Err()
}
