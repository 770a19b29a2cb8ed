package memory

import (
	"context"
	"sync"

	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/repository"
)

var _ repository.ConversationStore = (*StateStore)(nil)

// StateStore keeps conversation snapshots in process memory. Entries live
// for the lifetime of the process; there is no eviction. Use the Redis
// store when that matters.
type StateStore struct {
	mu     sync.RWMutex
	states map[int64]model.ConversationState
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[int64]model.ConversationState)}
}

// Get returns the stored snapshot, atomically creating the default state
// for an unseen id. Concurrent first-time callers all observe the same
// fresh entry.
func (s *StateStore) Get(ctx context.Context, chatID int64) (model.ConversationState, error) {
	s.mu.RLock()
	st, ok := s.states[chatID]
	s.mu.RUnlock()
	if ok {
		return st, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[chatID]; ok {
		return st, nil
	}
	st = model.NewConversationState()
	s.states[chatID] = st
	return st, nil
}

func (s *StateStore) Save(ctx context.Context, chatID int64, state model.ConversationState) error {
	s.mu.Lock()
	s.states[chatID] = state
	s.mu.Unlock()
	return nil
}
