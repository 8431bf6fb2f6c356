package personality

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-persona/internal/model"
)

func TestDefaultIsValid(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())
	for _, s := range model.AllStates {
		assert.NotEmpty(t, p.Patterns(s), "no response patterns for %s", s)
	}
	for m := range model.KnownModes {
		assert.NotEmpty(t, p.Narratives[m], "no narratives for %s", m)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	doc := `
name: ada
baseTemperature: 1.1
creativityBias: 1
emotionalVolatility: 0.2
memoryRetentionDays: 7
stopSequences: ["\n\nUser:"]
defaultMode: noir
responsePatterns:
  chaotic: ["Speak in riddles."]
narratives:
  noir:
    - "Rain fell on {concept}."
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Name)
	assert.Equal(t, 1.1, p.BaseTemperature)
	assert.Equal(t, 7, p.MemoryRetentionDays)
	assert.Equal(t, []string{"\n\nUser:"}, p.StopSequences)
	assert.Equal(t, model.Mode("noir"), p.DefaultMode)
	assert.Equal(t, []string{"Speak in riddles."}, p.Patterns(model.StateChaotic))
	assert.Equal(t, []string{"Rain fell on {concept}."}, p.Narratives["noir"])

	// omitted fields keep defaults
	assert.Equal(t, 512, p.MaxTokens)
	assert.NotEmpty(t, p.Patterns(model.StateExcited))
	assert.NotEmpty(t, p.Narratives[model.ModeAbsurdist])
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	docs := map[string]string{
		"temperature": "baseTemperature: 2.5",
		"bias":        "creativityBias: -0.1",
		"volatility":  "emotionalVolatility: 1.5",
		"retention":   "memoryRetentionDays: -3",
		"state":       "responsePatterns:\n  grumpy: [\"x\"]",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Equal(t, model.ErrKindValidation, model.KindOf(err), "%v", err)
		})
	}

	_, err := Parse([]byte("name: [unclosed"))
	assert.Error(t, err)
}

func TestTemperature(t *testing.T) {
	p := Default()
	p.BaseTemperature = 1.0
	p.CreativityBias = 1.0

	assert.InDelta(t, 1.0, p.Temperature(model.StateNeutral), 1e-9)
	assert.InDelta(t, 1.2, p.Temperature(model.StateCreative), 1e-9)
	assert.InDelta(t, 1.3, p.Temperature(model.StateChaotic), 1e-9)
	assert.InDelta(t, 0.8, p.Temperature(model.StateAnalytical), 1e-9)

	p.BaseTemperature = 1.9
	assert.Equal(t, 2.0, p.Temperature(model.StateChaotic))

	p.BaseTemperature = 0.1
	assert.Equal(t, 0.0, p.Temperature(model.StateAnalytical))
}

func TestParams(t *testing.T) {
	p := Default()
	p.StopSequences = []string{"END"}

	params := p.Params(model.StateExcited)
	assert.InDelta(t, p.BaseTemperature+p.CreativityBias*0.1, params.Temperature, 1e-9)
	assert.Equal(t, p.MaxTokens, params.MaxTokens)
	assert.Equal(t, []string{"END"}, params.StopSequences)
	assert.Equal(t, p.PresencePenalty, params.PresencePenalty)
	assert.Equal(t, p.FrequencyPenalty, params.FrequencyPenalty)
}
