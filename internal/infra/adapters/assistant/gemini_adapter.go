package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"telegram-insurance-bot/internal/domain"
	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Assistant = (*GeminiAdapter)(nil)

// GeminiAdapter implements adapter.Assistant using the official SDK.
type GeminiAdapter struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func NewGeminiAdapter(ctx context.Context, apiKey, modelName string, maxTokens int) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	if maxTokens <= 0 {
		maxTokens = 150
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: modelName, maxTokens: maxTokens}, nil
}

func (g *GeminiAdapter) Respond(ctx context.Context, userText string, stage model.Stage) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userText),
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(g.maxTokens),
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: systemPrompt(stage)}},
			},
		})
	if err != nil {
		// Keep the provider error in the chain so cancellation stays recognizable.
		return "", fmt.Errorf("%w: %w", domain.ErrAssistantUnavailable, err)
	}

	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if t := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text); t != "" {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: empty response", domain.ErrAssistantUnavailable)
}
