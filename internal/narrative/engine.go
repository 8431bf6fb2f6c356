// Package narrative composes short themed fragments in a selectable mode.
package narrative

import (
	"strings"
	"sync"

	"github.com/rcliao/agent-persona/internal/model"
)

// GenericTemplate is used when neither the requested nor the default mode has templates.
const GenericTemplate = "Thinking about {concept} while feeling [state]."

// fallbackTopic stands in for an empty topic when no theme has been set yet.
const fallbackTopic = "existence"

// Engine picks templates round-robin per mode and remembers the last topic.
// It is safe for concurrent use.
type Engine struct {
	templates   map[model.Mode][]string
	defaultMode model.Mode

	mu       sync.Mutex
	rotation map[model.Mode]int
	theme    string
}

// New creates an engine over mode → templates. Blank templates are dropped.
// An empty defaultMode means philosophical.
func New(templates map[model.Mode][]string, defaultMode model.Mode) *Engine {
	if defaultMode == "" {
		defaultMode = model.ModePhilosophical
	}
	clean := make(map[model.Mode][]string, len(templates))
	for mode, list := range templates {
		for _, tpl := range list {
			if strings.TrimSpace(tpl) != "" {
				clean[mode] = append(clean[mode], tpl)
			}
		}
	}
	return &Engine{
		templates:   clean,
		defaultMode: defaultMode,
		rotation:    make(map[model.Mode]int),
	}
}

// DefaultMode returns the mode used when a request names none or an unknown one.
func (e *Engine) DefaultMode() model.Mode {
	return e.defaultMode
}

// Known reports whether mode is accepted without falling back: one of the
// built-in modes or any mode the profile supplies templates for.
func (e *Engine) Known(mode model.Mode) bool {
	return model.KnownModes[mode] || len(e.templates[mode]) > 0
}

// Resolve returns the mode Compose would draw templates from, or "" when
// only the generic template is left.
func (e *Engine) Resolve(mode model.Mode) model.Mode {
	if e.Known(mode) && len(e.templates[mode]) > 0 {
		return mode
	}
	if len(e.templates[e.defaultMode]) > 0 {
		return e.defaultMode
	}
	return ""
}

// Compose renders the next template for mode, substituting {concept} with
// topic and [state] with state, and records topic as the current theme.
// Unknown modes fall back to the default mode, then to GenericTemplate.
// An empty topic reuses the current theme.
func (e *Engine) Compose(topic string, mode model.Mode, state model.EmotionalState) string {
	topic = strings.TrimSpace(topic)

	e.mu.Lock()
	defer e.mu.Unlock()

	if topic == "" {
		topic = e.theme
	}
	if topic == "" {
		topic = fallbackTopic
	}
	if !state.Valid() {
		state = model.StateNeutral
	}

	tpl := GenericTemplate
	if key := e.Resolve(mode); key != "" {
		list := e.templates[key]
		idx := e.rotation[key] % len(list)
		e.rotation[key] = idx + 1
		tpl = list[idx]
	}

	e.theme = topic
	return render(tpl, topic, state)
}

func render(tpl, topic string, state model.EmotionalState) string {
	out := strings.ReplaceAll(tpl, "{concept}", topic)
	out = strings.ReplaceAll(out, "[state]", string(state))
	if strings.TrimSpace(out) == "" {
		return render(GenericTemplate, topic, state)
	}
	return out
}

// CurrentTheme returns the last composed topic, if any.
func (e *Engine) CurrentTheme() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.theme, e.theme != ""
}

// SetTheme restores a previously saved theme.
func (e *Engine) SetTheme(theme string) {
	e.mu.Lock()
	e.theme = strings.TrimSpace(theme)
	e.mu.Unlock()
}
