package adapter

import (
	"context"

	"telegram-insurance-bot/internal/domain/model"
)

// Assistant answers free text that falls outside the guided flow.
// The stage hint lets the provider tailor its reply to where the user is
// in the flow. On error the runner substitutes a canned apology.
type Assistant interface {
	Respond(ctx context.Context, userText string, stage model.Stage) (string, error)
}
