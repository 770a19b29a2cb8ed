package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"telegram-insurance-bot/internal/domain"
	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Assistant = (*HuggingFaceAdapter)(nil)

// HuggingFaceAdapter implements adapter.Assistant against a Hugging Face
// text-generation inference endpoint.
// Authorization: Bearer <HF_API_TOKEN>
type HuggingFaceAdapter struct {
	apiToken  string
	apiURL    string
	maxTokens int
	client    *http.Client
}

func NewHuggingFaceAdapter(apiToken, apiURL string, maxTokens int) (*HuggingFaceAdapter, error) {
	if apiToken == "" {
		return nil, errors.New("huggingface api token empty")
	}
	if apiURL == "" {
		return nil, errors.New("huggingface api url empty")
	}
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return &HuggingFaceAdapter{
		apiToken:  apiToken,
		apiURL:    apiURL,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (h *HuggingFaceAdapter) Respond(ctx context.Context, userText string, stage model.Stage) (string, error) {
	prompt := systemPrompt(stage) + "\n\nUser: " + userText

	reqBody := struct {
		Inputs     string `json:"inputs"`
		Parameters struct {
			MaxNewTokens   int     `json:"max_new_tokens"`
			ReturnFullText bool    `json:"return_full_text"`
			Temperature    float64 `json:"temperature"`
			TopP           float64 `json:"top_p"`
		} `json:"parameters"`
	}{Inputs: prompt}
	reqBody.Parameters.MaxNewTokens = h.maxTokens
	reqBody.Parameters.Temperature = 0.7
	reqBody.Parameters.TopP = 0.9

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.apiURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiToken)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: huggingface http %d", domain.ErrAssistantUnavailable, resp.StatusCode)
	}

	var payload []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode huggingface response: %w", domain.ErrAssistantUnavailable, err)
	}
	if len(payload) == 0 || strings.TrimSpace(payload[0].GeneratedText) == "" {
		return "", fmt.Errorf("%w: empty huggingface response", domain.ErrAssistantUnavailable)
	}
	return strings.TrimSpace(payload[0].GeneratedText), nil
}
