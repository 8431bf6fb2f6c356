package completion

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/agent-persona/internal/model"
)

// RetryPolicy bounds attempts on transient failures.
type RetryPolicy struct {
	MaxRetries  int           // retries after the first attempt
	BackoffBase time.Duration // delay before the first retry, doubled each time
	BackoffMax  time.Duration // cap on a single delay
	Timeout     time.Duration // per-attempt deadline; 0 means none
}

// DefaultRetryPolicy is used when the configuration leaves fields unset.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:  3,
	BackoffBase: 500 * time.Millisecond,
	BackoffMax:  5 * time.Second,
	Timeout:     30 * time.Second,
}

// Retrying wraps a Generator with per-attempt timeouts and capped
// exponential backoff. Only rate-limit and timeout failures are retried.
type Retrying struct {
	next   Generator
	policy RetryPolicy
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next. A nil logger disables logging.
func NewRetrying(next Generator, policy RetryPolicy, logger *zap.Logger) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Retrying{next: next, policy: policy, logger: logger, sleep: sleepCtx}
}

func (r *Retrying) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	var lastErr *model.CompletionError
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.backoff(attempt)
			r.logger.Warn("retrying completion",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.String("reason", string(lastErr.Reason)),
			)
			if err := r.sleep(ctx, delay); err != nil {
				return "", classifyTransport(ctx, err)
			}
		}

		text, err := r.attempt(ctx, prompt, p)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !err.Transient() || ctx.Err() != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (r *Retrying) attempt(ctx context.Context, prompt string, p Params) (string, *model.CompletionError) {
	attemptCtx := ctx
	if r.policy.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, r.policy.Timeout)
		defer cancel()
	}

	text, err := r.next.Generate(attemptCtx, prompt, p)
	if err == nil {
		return text, nil
	}
	// The parent outranks whatever the provider reported.
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", newError(model.ReasonTimeout, err)
		}
		return "", newError(model.ReasonCanceled, err)
	}
	if attemptCtx.Err() != nil {
		return "", newError(model.ReasonTimeout, err)
	}
	return "", classifyTransport(ctx, err)
}

// backoff returns BackoffBase × 2^(attempt-1), capped at BackoffMax.
func (r *Retrying) backoff(attempt int) time.Duration {
	d := r.policy.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if r.policy.BackoffMax > 0 && d >= r.policy.BackoffMax {
			return r.policy.BackoffMax
		}
	}
	if r.policy.BackoffMax > 0 && d > r.policy.BackoffMax {
		d = r.policy.BackoffMax
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
