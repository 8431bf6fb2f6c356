// Package orchestrator runs one conversational turn through mood, memory,
// narrative and completion.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/rcliao/agent-persona/internal/completion"
	"github.com/rcliao/agent-persona/internal/emotion"
	"github.com/rcliao/agent-persona/internal/memory"
	"github.com/rcliao/agent-persona/internal/model"
	"github.com/rcliao/agent-persona/internal/narrative"
	"github.com/rcliao/agent-persona/internal/personality"
	"github.com/rcliao/agent-persona/internal/storage"
)

const (
	// StateCollection holds the persisted mood and theme.
	StateCollection = "state"
	stateRecordID   = "agent"

	DefaultMaxInputLength = 4000
	DefaultContextBudget  = 1000
	DefaultMaxInFlight    = 4
)

// Config tunes the orchestrator. Zero values take the defaults.
type Config struct {
	MaxInputLength  int // runes
	ContextBudget   int // approximate tokens of memory context in the prompt
	AssociatedLimit int
	MaxInFlight     int // concurrent completion calls
}

func (c *Config) applyDefaults() {
	if c.MaxInputLength <= 0 {
		c.MaxInputLength = DefaultMaxInputLength
	}
	if c.ContextBudget <= 0 {
		c.ContextBudget = DefaultContextBudget
	}
	if c.AssociatedLimit <= 0 {
		c.AssociatedLimit = memory.DefaultAssociatedLimit
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
}

// Deps are the collaborators an Orchestrator composes.
type Deps struct {
	Profile   *personality.Profile
	Memory    *memory.Store
	Emotion   *emotion.Machine
	Analyzer  *emotion.Analyzer
	Narrative *narrative.Engine
	Generator completion.Generator
	State     storage.Storage // optional; persists mood and theme between runs
	Logger    *zap.Logger
}

// Orchestrator is safe for concurrent use. Mood and narrative updates and
// memory commits happen under one lock; the completion call does not hold it.
type Orchestrator struct {
	profile   *personality.Profile
	memory    *memory.Store
	emotion   *emotion.Machine
	analyzer  *emotion.Analyzer
	narrative *narrative.Engine
	gen       completion.Generator
	state     storage.Storage
	logger    *zap.Logger
	cfg       Config

	mu       sync.Mutex
	styleIdx map[model.EmotionalState]int

	inflight *semaphore.Weighted
}

// New wires an orchestrator. Profile, Memory and Generator are required;
// the rest are built from the profile when nil.
func New(d Deps, cfg Config) (*Orchestrator, error) {
	if d.Profile == nil || d.Memory == nil || d.Generator == nil {
		return nil, errors.New("orchestrator: profile, memory and generator are required")
	}
	if d.Emotion == nil {
		d.Emotion = emotion.NewMachine(d.Profile.EmotionalVolatility)
	}
	if d.Analyzer == nil {
		d.Analyzer = emotion.NewAnalyzer()
	}
	if d.Narrative == nil {
		d.Narrative = narrative.New(d.Profile.Narratives, d.Profile.DefaultMode)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	cfg.applyDefaults()

	return &Orchestrator{
		profile:   d.Profile,
		memory:    d.Memory,
		emotion:   d.Emotion,
		analyzer:  d.Analyzer,
		narrative: d.Narrative,
		gen:       d.Generator,
		state:     d.State,
		logger:    d.Logger,
		cfg:       cfg,
		styleIdx:  make(map[model.EmotionalState]int),
		inflight:  semaphore.NewWeighted(int64(cfg.MaxInFlight)),
	}, nil
}

// Hints carry optional per-call context.
type Hints struct {
	Mode model.Mode `json:"mode,omitempty"`
}

// Result is the outcome of one Process call.
type Result struct {
	ResponseText string                  `json:"responseText"`
	Emotional    model.EmotionalSnapshot `json:"emotionalSnapshot"`
	NewMemories  []model.MemoryRecord    `json:"newMemories"`
	Transition   emotion.Transition      `json:"transition"`
	Narrative    string                  `json:"narrative"`
	Associated   int                     `json:"associated"`
}

// turn is what the locked preparation phase hands to the completion phase.
type turn struct {
	prompt     string
	params     completion.Params
	transition emotion.Transition
	fragment   string
	associated int
}

// Process handles one input. The mood shift is kept even when generation
// fails; memories are only written after a successful completion.
func (o *Orchestrator) Process(ctx context.Context, input string, platform model.Platform, hints Hints) (*Result, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &model.ValidationError{Field: "input", Msg: "must not be empty"}
	}
	if n := utf8.RuneCountInString(input); n > o.cfg.MaxInputLength {
		return nil, &model.ValidationError{Field: "input", Msg: fmt.Sprintf("%d characters exceeds maximum of %d", n, o.cfg.MaxInputLength)}
	}
	platform, err := model.ParsePlatform(string(platform))
	if err != nil {
		return nil, err
	}

	t := o.prepare(input, platform, hints)

	text, genErr := o.generate(ctx, t)
	if genErr != nil {
		o.logger.Warn("completion failed", zap.Error(genErr))
		o.mu.Lock()
		defer o.mu.Unlock()
		// the context may already be gone; the mood shift is saved regardless
		if err := o.saveState(context.WithoutCancel(ctx)); err != nil {
			return nil, errors.Join(genErr, err)
		}
		return nil, genErr
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	mems, err := o.commit(ctx, input, text, platform)
	if err != nil {
		return nil, err
	}
	// memories are committed; only the saved mood goes stale
	if err := o.saveState(ctx); err != nil {
		o.logger.Warn("state save failed after commit", zap.Error(err))
	}

	o.logger.Debug("turn complete",
		zap.String("state", string(t.transition.To)),
		zap.Bool("changed", t.transition.Changed),
		zap.Int("associated", t.associated),
	)
	return &Result{
		ResponseText: text,
		Emotional:    o.emotion.Snapshot(),
		NewMemories:  mems,
		Transition:   t.transition,
		Narrative:    t.fragment,
		Associated:   t.associated,
	}, nil
}

// prepare runs the serialized steps before generation.
func (o *Orchestrator) prepare(input string, platform model.Platform, hints Hints) turn {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.analyzer.Analyze(input)
	tr := o.emotion.Update(s.Score, s.Intensity)
	state := tr.To

	associated := o.memory.Associated(input, o.cfg.AssociatedLimit)

	mode := hints.Mode
	if mode == "" {
		mode = o.narrative.DefaultMode()
	}
	fragment := o.narrative.Compose(topicOf(input), mode, state)

	prompt := buildPrompt(promptParts{
		profile:  o.profile,
		state:    state,
		style:    o.nextStyle(state),
		fragment: fragment,
		memories: packMemories(associated, o.cfg.ContextBudget),
		platform: platform,
		input:    input,
	})

	o.logger.Debug("turn prepared",
		zap.Float64("sentiment", s.Score),
		zap.Float64("intensity", s.Intensity),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
		zap.String("mode", string(mode)),
	)
	return turn{
		prompt:     prompt,
		params:     o.profile.Params(state),
		transition: tr,
		fragment:   fragment,
		associated: len(associated),
	}
}

// generate calls the completion provider without holding the state lock.
func (o *Orchestrator) generate(ctx context.Context, t turn) (string, error) {
	if err := o.inflight.Acquire(ctx, 1); err != nil {
		return "", &model.CompletionError{Reason: model.ReasonCanceled, Err: err}
	}
	defer o.inflight.Release(1)

	text, err := o.gen.Generate(ctx, t.prompt, t.params)
	if err != nil {
		var ce *model.CompletionError
		if !errors.As(err, &ce) {
			err = &model.CompletionError{Reason: model.ReasonProvider, Err: err}
		}
		return "", err
	}
	return text, nil
}

// commit appends the exchange as two interaction memories tagged with the
// mood at commit time. If the second write fails the first is purged so
// the exchange is stored whole or not at all.
func (o *Orchestrator) commit(ctx context.Context, input, response string, platform model.Platform) ([]model.MemoryRecord, error) {
	state := o.emotion.Current()

	in, err := o.memory.Append(ctx, memory.AppendParams{
		Content:          input,
		Kind:             model.KindInteraction,
		EmotionalContext: state,
		Platform:         platform,
	})
	if err != nil {
		return nil, err
	}

	out, err := o.memory.Append(ctx, memory.AppendParams{
		Content:          response,
		Kind:             model.KindInteraction,
		EmotionalContext: state,
		Platform:         platform,
	})
	if err != nil {
		if perr := o.memory.Purge(context.WithoutCancel(ctx), in.ID); perr != nil {
			return nil, errors.Join(err, perr)
		}
		return nil, err
	}
	return []model.MemoryRecord{in, out}, nil
}

// nextStyle rotates through the profile's response patterns for state.
func (o *Orchestrator) nextStyle(state model.EmotionalState) string {
	patterns := o.profile.Patterns(state)
	if len(patterns) == 0 {
		return ""
	}
	i := o.styleIdx[state] % len(patterns)
	o.styleIdx[state] = i + 1
	return patterns[i]
}

// topicOf picks the strongest keyword of the input, or "" to let the
// narrative engine reuse its current theme.
func topicOf(input string) string {
	assoc := memory.Associations(input)
	if len(assoc) == 0 {
		return ""
	}
	return assoc[0]
}

// View is a read-only picture of the agent's current mood and theme.
type View struct {
	Emotional   model.EmotionalSnapshot `json:"emotionalSnapshot"`
	Theme       string                  `json:"currentTheme,omitempty"`
	DefaultMode model.Mode              `json:"defaultMode"`
}

// View returns the current mood and narrative theme.
func (o *Orchestrator) View() View {
	theme, _ := o.narrative.CurrentTheme()
	return View{
		Emotional:   o.emotion.Snapshot(),
		Theme:       theme,
		DefaultMode: o.narrative.DefaultMode(),
	}
}

// Narrate composes a fragment in the current mood without generating a
// reply. The resulting theme is saved like any other turn.
func (o *Orchestrator) Narrate(ctx context.Context, topic string, mode model.Mode) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if mode == "" {
		mode = o.narrative.DefaultMode()
	}
	fragment := o.narrative.Compose(topic, mode, o.emotion.Current())
	if err := o.saveState(ctx); err != nil {
		return "", err
	}
	return fragment, nil
}

// savedState is the JSON document stored under StateCollection.
type savedState struct {
	Emotional model.EmotionalSnapshot `json:"emotional"`
	Theme     string                  `json:"theme,omitempty"`
}

// saveState persists mood and theme. Callers hold o.mu.
func (o *Orchestrator) saveState(ctx context.Context) error {
	if o.state == nil {
		return nil
	}
	theme, _ := o.narrative.CurrentTheme()
	data, err := json.Marshal(savedState{Emotional: o.emotion.Snapshot(), Theme: theme})
	if err != nil {
		return &model.PersistenceError{Op: "save state", Err: err}
	}
	err = o.state.Put(ctx, StateCollection, storage.Record{
		ID:        stateRecordID,
		CreatedAt: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return &model.PersistenceError{Op: "save state", Err: err}
	}
	return nil
}

// Restore resumes mood and theme saved by a previous run. A missing record
// leaves the fresh state untouched.
func (o *Orchestrator) Restore(ctx context.Context) error {
	if o.state == nil {
		return nil
	}
	rec, err := o.state.Get(ctx, StateCollection, stateRecordID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return &model.PersistenceError{Op: "restore state", Err: err}
	}

	var s savedState
	if err := json.Unmarshal(rec.Data, &s); err != nil {
		return &model.PersistenceError{Op: "restore state", Err: fmt.Errorf("decode: %w", err)}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.emotion.Restore(s.Emotional); err != nil {
		return err
	}
	o.narrative.SetTheme(s.Theme)
	o.logger.Debug("state restored", zap.String("state", string(s.Emotional.Current)))
	return nil
}
