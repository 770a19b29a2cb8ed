package adapter

import (
	"context"

	"telegram-insurance-bot/internal/domain/model"
)

// DocumentExtractor parses an uploaded passport image.
//
// A field the service cannot recognize comes back as the Unknown sentinel,
// never as an error. An error return means the extraction service itself
// was unreachable; the runner treats that as recoverable.
type DocumentExtractor interface {
	ParsePassport(ctx context.Context, image []byte) (model.ExtractedData, error)
}
