package assistant

import (
	"context"
	"fmt"
	"time"

	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/adapter"
)

var _ adapter.Assistant = (*NoopAssistant)(nil)

// NoopAssistant implements adapter.Assistant for local/dev runs.
type NoopAssistant struct{}

func NewNoopAssistant() *NoopAssistant {
	return &NoopAssistant{}
}

func (n *NoopAssistant) Respond(ctx context.Context, userText string, stage model.Stage) (string, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("[noop-assistant] (%s) You said: %s", stage, userText), nil
}
