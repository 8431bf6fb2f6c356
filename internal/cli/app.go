package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rcliao/agent-persona/internal/completion"
	"github.com/rcliao/agent-persona/internal/emotion"
	"github.com/rcliao/agent-persona/internal/memory"
	"github.com/rcliao/agent-persona/internal/model"
	"github.com/rcliao/agent-persona/internal/orchestrator"
	"github.com/rcliao/agent-persona/internal/personality"
	"github.com/rcliao/agent-persona/internal/storage"
	"github.com/rcliao/agent-persona/internal/storage/backends"
)

// app is the wired engine a command works against.
type app struct {
	storage storage.Storage
	memory  *memory.Store
	profile *personality.Profile
	orch    *orchestrator.Orchestrator
}

// errOffline is returned by commands that never generate text.
var errOffline = errors.New("text generation is not available for this command")

// openApp opens storage, hydrates memory and restores the saved mood.
// Only commands that generate replies pass withGenerator.
func openApp(ctx context.Context, withGenerator bool) (*app, error) {
	profile, err := loadProfile()
	if err != nil {
		return nil, err
	}

	st, err := backends.Open(ctx, cfg.Backend())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	mem := memory.New(st,
		memory.WithCollection(cfg.Storage.Collection),
		memory.WithLogger(logger),
	)
	if err := mem.Load(ctx); err != nil {
		st.Close()
		return nil, err
	}

	var gen completion.Generator = completion.GeneratorFunc(func(ctx context.Context, prompt string, p completion.Params) (string, error) {
		return "", &model.CompletionError{Reason: model.ReasonProvider, Err: errOffline}
	})
	if withGenerator {
		gen, err = completion.New(ctx, cfg.Generator(), logger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("create generator: %w", err)
		}
	}

	var opts []emotion.Option
	if cfg.Engine.Seed != 0 {
		opts = append(opts, emotion.WithRand(rand.New(rand.NewSource(cfg.Engine.Seed))))
	}

	orch, err := orchestrator.New(orchestrator.Deps{
		Profile:   profile,
		Memory:    mem,
		Emotion:   emotion.NewMachine(profile.EmotionalVolatility, opts...),
		Generator: gen,
		State:     st,
		Logger:    logger,
	}, cfg.Orchestrator())
	if err != nil {
		st.Close()
		return nil, err
	}
	if err := orch.Restore(ctx); err != nil {
		st.Close()
		return nil, err
	}

	return &app{storage: st, memory: mem, profile: profile, orch: orch}, nil
}

func (a *app) Close() error {
	return a.storage.Close()
}

// retentionDays is the configured window, falling back to the profile's.
func (a *app) retentionDays() int {
	if cfg.Retention.Days > 0 {
		return cfg.Retention.Days
	}
	return a.profile.MemoryRetentionDays
}

func loadProfile() (*personality.Profile, error) {
	profile := personality.Default()
	if cfg.Engine.ProfilePath != "" {
		var err error
		profile, err = personality.Load(cfg.Engine.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
	}
	if cfg.Engine.DefaultMode != "" {
		profile.DefaultMode = model.Mode(cfg.Engine.DefaultMode)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return profile, nil
}
