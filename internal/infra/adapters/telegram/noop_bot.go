package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-insurance-bot/internal/domain/ports/adapter"
)

var _ adapter.Transport = (*NoopTransport)(nil)

// NoopTransport implements adapter.Transport for local/dev runs.
// It logs outgoing traffic instead of talking to Telegram.
type NoopTransport struct {
	log *zerolog.Logger
}

func NewNoopTransport(logger *zerolog.Logger) *NoopTransport {
	return &NoopTransport{log: logger}
}

func (t *NoopTransport) delay(ctx context.Context) error {
	select {
	case <-time.After(100 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *NoopTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := t.delay(ctx); err != nil {
		return err
	}
	t.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("[noop-telegram] send")
	return nil
}

func (t *NoopTransport) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := t.delay(ctx); err != nil {
		return err
	}
	t.log.Info().Int64("chat_id", chatID).Str("text", text).Interface("buttons", rows).Msg("[noop-telegram] send buttons")
	return nil
}

func (t *NoopTransport) SendDocument(ctx context.Context, chatID int64, data []byte, filename, caption string) error {
	if err := t.delay(ctx); err != nil {
		return err
	}
	t.log.Info().Int64("chat_id", chatID).Str("filename", filename).Int("bytes", len(data)).Msg("[noop-telegram] send document")
	return nil
}

func (t *NoopTransport) AckCallback(ctx context.Context, callbackID string) error {
	t.log.Debug().Str("callback_id", callbackID).Msg("[noop-telegram] ack")
	return nil
}

func (t *NoopTransport) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	return []byte(fileID), nil
}
