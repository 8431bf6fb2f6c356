// Package emotion tracks the agent's mood as a small probabilistic state machine.
package emotion

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rcliao/agent-persona/internal/model"
)

const (
	// polarityThreshold is the |score| below which sentiment counts as neutral.
	polarityThreshold = 0.1

	highIntensity   = 0.8
	lowIntensity    = 0.3
	sustainedInputs = 3
	volatilityStep  = 0.1
)

// Polarity is the sign of a sentiment score.
type Polarity int

const (
	Negative Polarity = iota - 1
	Neutral
	Positive
)

// PolarityOf buckets a sentiment score.
func PolarityOf(score float64) Polarity {
	switch {
	case score >= polarityThreshold:
		return Positive
	case score <= -polarityThreshold:
		return Negative
	default:
		return Neutral
	}
}

func (p Polarity) String() string {
	switch p {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

// Rand is the random source driving transitions. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Transition reports the outcome of one Update.
type Transition struct {
	From        model.EmotionalState `json:"from"`
	To          model.EmotionalState `json:"to"`
	Changed     bool                 `json:"changed"`
	Probability float64              `json:"probability"`
	Polarity    string               `json:"polarity"`
}

// Machine is the emotional state machine. It is safe for concurrent use.
type Machine struct {
	mu sync.Mutex

	current          model.EmotionalState
	lastTransitionAt time.Time
	baseVolatility   float64
	volatility       float64
	highStreak       int

	rng Rand
	now func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithRand sets the random source. Defaults to a time-seeded math/rand source.
func WithRand(r Rand) Option {
	return func(m *Machine) { m.rng = r }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// NewMachine starts in neutral with the given profile volatility.
func NewMachine(volatility float64, opts ...Option) *Machine {
	m := &Machine{
		current: model.StateNeutral,
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m.baseVolatility = clamp(volatility, 0, 1)
	m.volatility = m.baseVolatility
	m.lastTransitionAt = m.now().UTC()
	return m
}

// Update feeds one input's sentiment and intensity into the machine.
// Out-of-range inputs are clamped; NaN counts as neutral sentiment and
// zero intensity. The state moves with probability
// intensity × volatility; the target is drawn from the weighted table
// for the current state and the sentiment's polarity.
func (m *Machine) Update(sentiment, intensity float64) Transition {
	if math.IsNaN(sentiment) {
		sentiment = 0
	}
	if math.IsNaN(intensity) {
		intensity = 0
	}
	sentiment = clamp(sentiment, -1, 1)
	intensity = clamp(intensity, 0, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.trackIntensity(intensity)

	pol := PolarityOf(sentiment)
	t := Transition{
		From:        m.current,
		To:          m.current,
		Probability: clamp(intensity*m.volatility, 0, 1),
		Polarity:    pol.String(),
	}
	if m.rng.Float64() >= t.Probability {
		return t
	}

	next := pick(transitions[m.current][pol], m.rng.Float64())
	if next != m.current {
		m.current = next
		m.lastTransitionAt = m.now().UTC()
		t.To = next
		t.Changed = true
	}
	return t
}

// trackIntensity raises volatility after sustained high-intensity input and
// drops it back to the profile value once input calms down.
func (m *Machine) trackIntensity(intensity float64) {
	switch {
	case intensity >= highIntensity:
		m.highStreak++
		if m.highStreak >= sustainedInputs {
			m.volatility = clamp(m.volatility+volatilityStep, 0, 1)
			m.highStreak = 0
		}
	case intensity < lowIntensity:
		m.highStreak = 0
		m.volatility = m.baseVolatility
	default:
		m.highStreak = 0
	}
}

// Current returns the current state.
func (m *Machine) Current() model.EmotionalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Snapshot returns a copy of the machine's observable state.
func (m *Machine) Snapshot() model.EmotionalSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.EmotionalSnapshot{
		Current:          m.current,
		Volatility:       m.volatility,
		LastTransitionAt: m.lastTransitionAt,
	}
}

// Restore resumes from a previously saved snapshot. Volatility is clamped
// to at least the profile value.
func (m *Machine) Restore(s model.EmotionalSnapshot) error {
	if !s.Current.Valid() {
		return &model.ValidationError{Field: "current", Msg: "unknown emotional state " + string(s.Current)}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s.Current
	m.volatility = clamp(s.Volatility, m.baseVolatility, 1)
	if !s.LastTransitionAt.IsZero() {
		m.lastTransitionAt = s.LastTransitionAt.UTC()
	}
	return nil
}
