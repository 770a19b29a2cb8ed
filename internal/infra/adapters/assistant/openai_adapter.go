package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"telegram-insurance-bot/internal/domain"
	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Assistant = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.Assistant using the official SDK's
// Chat Completions API.
type OpenAIAdapter struct {
	client    openai.Client
	model     string
	maxTokens int
}

func NewOpenAIAdapter(apiKey, modelName string, maxTokens int) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return &OpenAIAdapter{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     modelName,
		maxTokens: maxTokens,
	}, nil
}

func (o *OpenAIAdapter) Respond(ctx context.Context, userText string, stage model.Stage) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(o.model),
		MaxTokens: openai.Int(int64(o.maxTokens)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(stage)),
			openai.UserMessage(userText),
		},
	})
	if err != nil {
		// Keep the provider error in the chain so cancellation stays recognizable.
		return "", fmt.Errorf("%w: %w", domain.ErrAssistantUnavailable, err)
	}
	for _, c := range resp.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			return strings.TrimSpace(c.Message.Content), nil
		}
	}
	return "", fmt.Errorf("%w: no choice content", domain.ErrAssistantUnavailable)
}
