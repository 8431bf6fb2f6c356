package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rcliao/agent-persona/internal/model"
)

// GeminiGenerator generates text with Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini client for the given API key.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: modelName}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), geminiConfig(p))
	if err != nil {
		return "", classifyGemini(ctx, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", newError(model.ReasonMalformed, fmt.Errorf("gemini returned no text"))
	}
	return text, nil
}

func geminiConfig(p Params) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:   genai.Ptr(float32(p.Temperature)),
		StopSequences: p.StopSequences,
	}
	if p.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.MaxTokens)
	}
	if p.PresencePenalty != 0 {
		cfg.PresencePenalty = genai.Ptr(float32(p.PresencePenalty))
	}
	if p.FrequencyPenalty != 0 {
		cfg.FrequencyPenalty = genai.Ptr(float32(p.FrequencyPenalty))
	}
	return cfg
}

func classifyGemini(ctx context.Context, err error) *model.CompletionError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newError(reasonForStatus(apiErr.Code), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return newError(reasonForStatus(apiErrPtr.Code), err)
	}
	return classifyTransport(ctx, err)
}
