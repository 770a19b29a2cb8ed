package ocr

import (
	"context"
	"time"

	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/adapter"
)

var _ adapter.DocumentExtractor = (*NoopExtractor)(nil)

// NoopExtractor implements adapter.DocumentExtractor for local/dev runs,
// returning fixed sample data without calling any OCR service.
type NoopExtractor struct{}

func NewNoopExtractor() *NoopExtractor {
	return &NoopExtractor{}
}

func (n *NoopExtractor) ParsePassport(ctx context.Context, image []byte) (model.ExtractedData, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return model.ExtractedData{}, ctx.Err()
	}
	return model.NewExtractedData("John", "Doe", "P-123456", mockVehicleID), nil
}
