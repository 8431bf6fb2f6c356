package model

import "time"

// EmotionalState is the agent's discrete mood classification.
type EmotionalState string

const (
	StateNeutral       EmotionalState = "neutral"
	StateExcited       EmotionalState = "excited"
	StateContemplative EmotionalState = "contemplative"
	StateChaotic       EmotionalState = "chaotic"
	StateCreative      EmotionalState = "creative"
	StateAnalytical    EmotionalState = "analytical"
)

// AllStates lists every emotional state in a stable order.
var AllStates = []EmotionalState{
	StateNeutral,
	StateExcited,
	StateContemplative,
	StateChaotic,
	StateCreative,
	StateAnalytical,
}

// Valid reports whether s is one of the six defined states.
func (s EmotionalState) Valid() bool {
	switch s {
	case StateNeutral, StateExcited, StateContemplative, StateChaotic, StateCreative, StateAnalytical:
		return true
	}
	return false
}

// ParseEmotionalState validates a state string. Empty defaults to neutral.
func ParseEmotionalState(s string) (EmotionalState, error) {
	if s == "" {
		return StateNeutral, nil
	}
	st := EmotionalState(s)
	if !st.Valid() {
		return "", &ValidationError{Field: "emotionalContext", Msg: "unknown emotional state " + s}
	}
	return st, nil
}

// EmotionalSnapshot is a point-in-time copy of the emotional state machine.
type EmotionalSnapshot struct {
	Current          EmotionalState `json:"current"`
	Volatility       float64        `json:"volatility"`
	LastTransitionAt time.Time      `json:"lastTransitionAt"`
}

// Mode selects the narrative style.
type Mode string

const (
	ModePhilosophical Mode = "philosophical"
	ModeAbsurdist     Mode = "absurdist"
	ModeAnalytical    Mode = "analytical"
	ModeExistential   Mode = "existential"
	ModeSurreal       Mode = "surreal"
)

// KnownModes is the set of narrative modes accepted without fallback.
var KnownModes = map[Mode]bool{
	ModePhilosophical: true,
	ModeAbsurdist:     true,
	ModeAnalytical:    true,
	ModeExistential:   true,
	ModeSurreal:       true,
}
