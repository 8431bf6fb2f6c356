package completion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	gen, err := New(ctx, Config{Provider: "openai", BaseURL: "http://localhost:11434/v1", Model: "llama3"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Retrying{}, gen)

	_, err = New(ctx, Config{Provider: "gemini", APIKeyEnv: "AGENT_PERSONA_TEST_MISSING_KEY"}, nil)
	assert.Error(t, err, "gemini requires a key")

	_, err = New(ctx, Config{Provider: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}

func TestGeminiConfig(t *testing.T) {
	cfg := geminiConfig(Params{Temperature: 0.7, MaxTokens: 128, StopSequences: []string{"END"}, FrequencyPenalty: 0.2})
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.7, float64(*cfg.Temperature), 1e-6)
	assert.Equal(t, int32(128), cfg.MaxOutputTokens)
	assert.Equal(t, []string{"END"}, cfg.StopSequences)
	assert.Nil(t, cfg.PresencePenalty)
	require.NotNil(t, cfg.FrequencyPenalty)
}
