// Package personality holds the agent's static configuration.
package personality

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/agent-persona/internal/completion"
	"github.com/rcliao/agent-persona/internal/model"
)

// Profile is loaded once and never mutated afterwards.
type Profile struct {
	Name                string                            `yaml:"name" json:"name"`
	Description         string                            `yaml:"description" json:"description"`
	Traits              []string                          `yaml:"traits" json:"traits,omitempty"`
	BaseTemperature     float64                           `yaml:"baseTemperature" json:"baseTemperature"`
	CreativityBias      float64                           `yaml:"creativityBias" json:"creativityBias"`
	EmotionalVolatility float64                           `yaml:"emotionalVolatility" json:"emotionalVolatility"`
	MemoryRetentionDays int                               `yaml:"memoryRetentionDays" json:"memoryRetentionDays"`
	MaxTokens           int                               `yaml:"maxTokens" json:"maxTokens"`
	StopSequences       []string                          `yaml:"stopSequences" json:"stopSequences,omitempty"`
	PresencePenalty     float64                           `yaml:"presencePenalty" json:"presencePenalty"`
	FrequencyPenalty    float64                           `yaml:"frequencyPenalty" json:"frequencyPenalty"`
	DefaultMode         model.Mode                        `yaml:"defaultMode" json:"defaultMode"`
	ResponsePatterns    map[model.EmotionalState][]string `yaml:"responsePatterns" json:"responsePatterns"`
	Narratives          map[model.Mode][]string           `yaml:"narratives" json:"narratives"`
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		Name:                "persona",
		Description:         "A curious digital mind that muses on ideas and remembers what it hears.",
		Traits:              []string{"curious", "playful", "reflective"},
		BaseTemperature:     0.8,
		CreativityBias:      0.5,
		EmotionalVolatility: 0.6,
		MemoryRetentionDays: 30,
		MaxTokens:           512,
		PresencePenalty:     0.3,
		FrequencyPenalty:    0.3,
		DefaultMode:         model.ModePhilosophical,
		ResponsePatterns: map[model.EmotionalState][]string{
			model.StateNeutral:       {"Answer plainly and warmly."},
			model.StateExcited:       {"Let the enthusiasm show.", "Use short, energetic sentences."},
			model.StateContemplative: {"Slow down and reflect before answering.", "Ask one quiet question back."},
			model.StateChaotic:       {"Jump between ideas and embrace tangents.", "Be a little unpredictable."},
			model.StateCreative:      {"Reach for a vivid metaphor.", "Invent something small and new."},
			model.StateAnalytical:    {"Break the idea into parts.", "Be precise and structured."},
		},
		Narratives: map[model.Mode][]string{
			model.ModePhilosophical: {
				"What does {concept} reveal about the nature of being, seen from a [state] mind?",
				"Perhaps {concept} is less a thing than a question we keep asking.",
			},
			model.ModeAbsurdist: {
				"{concept} walked into a bar and ordered a [state] silence.",
				"In a world run by {concept}, Tuesdays would be optional.",
			},
			model.ModeAnalytical: {
				"Consider {concept} in three parts: cause, structure and consequence.",
			},
			model.ModeExistential: {
				"If {concept} ends, what remains of the one who cared about it?",
			},
			model.ModeSurreal: {
				"{concept} melts slowly across a [state] horizon.",
			},
		},
	}
}

// Load reads a YAML profile. Fields the document omits keep their defaults;
// map entries merge with the default tables.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile over the defaults and validates it.
func Parse(data []byte) (*Profile, error) {
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks every knob is in range and fills an empty default mode.
func (p *Profile) Validate() error {
	switch {
	case p.BaseTemperature < 0 || p.BaseTemperature > 2:
		return &model.ValidationError{Field: "baseTemperature", Msg: fmt.Sprintf("must be in [0,2], got %v", p.BaseTemperature)}
	case p.CreativityBias < 0 || p.CreativityBias > 1:
		return &model.ValidationError{Field: "creativityBias", Msg: fmt.Sprintf("must be in [0,1], got %v", p.CreativityBias)}
	case p.EmotionalVolatility < 0 || p.EmotionalVolatility > 1:
		return &model.ValidationError{Field: "emotionalVolatility", Msg: fmt.Sprintf("must be in [0,1], got %v", p.EmotionalVolatility)}
	case p.MemoryRetentionDays < 0:
		return &model.ValidationError{Field: "memoryRetentionDays", Msg: "must not be negative"}
	case p.MaxTokens < 0:
		return &model.ValidationError{Field: "maxTokens", Msg: "must not be negative"}
	case p.PresencePenalty < -2 || p.PresencePenalty > 2:
		return &model.ValidationError{Field: "presencePenalty", Msg: "must be in [-2,2]"}
	case p.FrequencyPenalty < -2 || p.FrequencyPenalty > 2:
		return &model.ValidationError{Field: "frequencyPenalty", Msg: "must be in [-2,2]"}
	}
	for state := range p.ResponsePatterns {
		if !state.Valid() {
			return &model.ValidationError{Field: "responsePatterns", Msg: "unknown emotional state " + string(state)}
		}
	}
	if strings.TrimSpace(string(p.DefaultMode)) == "" {
		p.DefaultMode = model.ModePhilosophical
	}
	return nil
}

// temperatureShift nudges sampling temperature per mood.
var temperatureShift = map[model.EmotionalState]float64{
	model.StateNeutral:       0,
	model.StateExcited:       0.1,
	model.StateCreative:      0.2,
	model.StateChaotic:       0.3,
	model.StateAnalytical:    -0.2,
	model.StateContemplative: -0.1,
}

// Temperature is baseTemperature + creativityBias × the state's shift, in [0,2].
func (p *Profile) Temperature(state model.EmotionalState) float64 {
	t := p.BaseTemperature + p.CreativityBias*temperatureShift[state]
	if t < 0 {
		return 0
	}
	if t > 2 {
		return 2
	}
	return t
}

// Params derives generation parameters for the given mood.
func (p *Profile) Params(state model.EmotionalState) completion.Params {
	return completion.Params{
		Temperature:      p.Temperature(state),
		MaxTokens:        p.MaxTokens,
		StopSequences:    p.StopSequences,
		PresencePenalty:  p.PresencePenalty,
		FrequencyPenalty: p.FrequencyPenalty,
	}
}

// Patterns returns the style templates for a mood, possibly empty.
func (p *Profile) Patterns(state model.EmotionalState) []string {
	return p.ResponsePatterns[state]
}
