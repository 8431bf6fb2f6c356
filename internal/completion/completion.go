// Package completion provides pluggable text-generation providers.
package completion

import (
	"context"
	"errors"
	"net"

	"github.com/rcliao/agent-persona/internal/model"
)

// Params are the generation knobs passed with every prompt.
type Params struct {
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"maxTokens"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	PresencePenalty  float64  `json:"presencePenalty"`
	FrequencyPenalty float64  `json:"frequencyPenalty"`
}

// Generator produces text for a prompt. Failures are *model.CompletionError.
type Generator interface {
	Generate(ctx context.Context, prompt string, p Params) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, p Params) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	return f(ctx, prompt, p)
}

// newError wraps err with a reason.
func newError(reason model.CompletionReason, err error) *model.CompletionError {
	return &model.CompletionError{Reason: reason, Err: err}
}

// classifyTransport maps a failed round trip to a completion error. The
// caller's context wins: a canceled context is never reported as a
// provider fault.
func classifyTransport(ctx context.Context, err error) *model.CompletionError {
	var ce *model.CompletionError
	if errors.As(err, &ce) {
		return ce
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return newError(model.ReasonTimeout, err)
		}
		return newError(model.ReasonCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(model.ReasonTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(model.ReasonTimeout, err)
	}
	return newError(model.ReasonProvider, err)
}
