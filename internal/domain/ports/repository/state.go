package repository

import (
	"context"

	"telegram-insurance-bot/internal/domain/model"
)

// ConversationStore holds one state snapshot per conversation id.
//
// Get must atomically create and return the default state for an unseen id
// (race-free get-or-create). Save unconditionally replaces the snapshot;
// last-writer-wins is acceptable because events for one id are processed
// one at a time by the runner.
type ConversationStore interface {
	Get(ctx context.Context, chatID int64) (model.ConversationState, error)
	Save(ctx context.Context, chatID int64, state model.ConversationState) error
}
