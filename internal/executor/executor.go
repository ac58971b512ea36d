package executor

import (
	"context"
	"time"

	"github.com/MrJJimenez/applycli/internal/models"
	"github.com/MrJJimenez/applycli/internal/portal"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRetries is how many times a Timeout is retried within one
	// run. Other failure kinds are never retried.
	DefaultMaxRetries = 2
	// DefaultBackoff is the fixed pause between retry attempts.
	DefaultBackoff = 5 * time.Second
)

// Executor drives the collaborator-side submission for AutoApply decisions
// with a bounded retry policy.
type Executor struct {
	submitter  portal.Submitter
	maxRetries int
	backoff    time.Duration
	sleep      func(context.Context, time.Duration)
	logger     zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(e *Executor) {
		if d >= 0 {
			e.backoff = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// withSleep replaces the backoff pause; tests use it to avoid real delays.
func withSleep(fn func(context.Context, time.Duration)) Option {
	return func(e *Executor) {
		e.sleep = fn
	}
}

func New(submitter portal.Submitter, opts ...Option) *Executor {
	e := &Executor{
		submitter:  submitter,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		sleep:      sleepCtx,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute submits id through the collaborator. Only Timeout failures are
// retried, with a fixed backoff, up to maxRetries retries. It returns the
// number of attempts made and the error of the final attempt; nil means the
// application was submitted.
func (e *Executor) Execute(ctx context.Context, id models.JobIdentifier, profile models.Profile) (int, error) {
	attempts := 0
	for {
		attempts++
		err := e.submitter.Submit(ctx, id, profile)
		if err == nil {
			return attempts, nil
		}

		kind := portal.KindOf(err)
		if !kind.Retryable() || attempts > e.maxRetries {
			return attempts, err
		}

		e.logger.Debug().
			Str("job", string(id)).
			Int("attempt", attempts).
			Str("kind", string(kind)).
			Msg("submission timed out, retrying")

		e.sleep(ctx, e.backoff)
		if ctx.Err() != nil {
			return attempts, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
