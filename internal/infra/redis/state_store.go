package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/repository"
)

var _ repository.ConversationStore = (*StateStore)(nil)

// StateStore keeps conversation snapshots in Redis with a per-key TTL,
// so abandoned conversations age out instead of piling up forever.
type StateStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewStateStore(client RedisClient, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) stateKey(chatID int64) string {
	return fmt.Sprintf("conv_state:%d", chatID)
}

// Get returns the stored snapshot, or the default state when the key is
// missing or has expired.
func (s *StateStore) Get(ctx context.Context, chatID int64) (model.ConversationState, error) {
	data, err := s.client.Get(ctx, s.stateKey(chatID))
	if err != nil {
		if Nil(err) {
			return model.NewConversationState(), nil
		}
		return model.ConversationState{}, fmt.Errorf("get state: %w", err)
	}

	var state model.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return model.ConversationState{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

func (s *StateStore) Save(ctx context.Context, chatID int64, state model.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return s.client.Set(ctx, s.stateKey(chatID), data, s.ttl)
}
