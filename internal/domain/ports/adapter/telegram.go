package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Transport is the narrow contract the runner needs from the chat
// transport. Implementations must honor context cancellation on every
// call so StopPolling can abort in-flight sends.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
	SendDocument(ctx context.Context, chatID int64, data []byte, filename, caption string) error
	AckCallback(ctx context.Context, callbackID string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}
