package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rcliao/agent-persona/internal/model"
)

// DefaultOpenAIURL is the base URL used when none is configured.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// OpenAIGenerator calls any OpenAI-compatible chat completions API,
// including local servers such as Ollama.
type OpenAIGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model            string          `json:"model"`
	Messages         []openaiMessage `json:"messages"`
	Temperature      float64         `json:"temperature"`
	MaxTokens        int             `json:"max_tokens,omitempty"`
	Stop             []string        `json:"stop,omitempty"`
	PresencePenalty  float64         `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64         `json:"frequency_penalty,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIGenerator creates a generator. Timeouts come from the caller's
// context, so the HTTP client itself has none.
func NewOpenAIGenerator(baseURL, apiKey, modelName string) *OpenAIGenerator {
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	return &OpenAIGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   modelName,
		client:  &http.Client{},
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	body, err := json.Marshal(openaiRequest{
		Model:            g.model,
		Messages:         []openaiMessage{{Role: "user", Content: prompt}},
		Temperature:      p.Temperature,
		MaxTokens:        p.MaxTokens,
		Stop:             p.StopSequences,
		PresencePenalty:  p.PresencePenalty,
		FrequencyPenalty: p.FrequencyPenalty,
	})
	if err != nil {
		return "", newError(model.ReasonProvider, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", newError(model.ReasonProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", classifyTransport(ctx, fmt.Errorf("openai request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransport(ctx, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", newError(reasonForStatus(resp.StatusCode), fmt.Errorf("openai error %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var result openaiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", newError(model.ReasonMalformed, fmt.Errorf("parse response: %w", err))
	}
	if result.Error != nil {
		return "", newError(model.ReasonProvider, fmt.Errorf("openai error: %s", result.Error.Message))
	}
	if len(result.Choices) == 0 {
		return "", newError(model.ReasonMalformed, fmt.Errorf("no completion returned"))
	}
	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", newError(model.ReasonMalformed, fmt.Errorf("empty completion"))
	}
	return text, nil
}

// reasonForStatus classifies a non-200 HTTP status.
func reasonForStatus(code int) model.CompletionReason {
	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return model.ReasonRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return model.ReasonTimeout
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.ReasonAuth
	default:
		return model.ReasonProvider
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
