package domain

import "errors"

// Collaborator failure categories. Adapters wrap their transport-level
// errors with these so callers can classify a fault without knowing
// which provider is behind the port.
var (
	ErrExtractionFailed     = errors.New("document extraction failed")
	ErrGenerationFailed     = errors.New("policy generation failed")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)
