package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/triagegate/pkg/provider"
)

// AttemptFailure records one provider's terminal failure during a
// chain walk.
type AttemptFailure struct {
	Provider string
	Kind     provider.Kind
	Err      error
}

// ExhaustedError reports that every usable provider in the chain
// failed, enumerating each provider's last failure kind.
type ExhaustedError struct {
	Failures []AttemptFailure
}

func (e *ExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return "no providers configured"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s=%s", f.Provider, f.Kind))
	}
	return "all providers failed: " + strings.Join(parts, ", ")
}

// Orchestrator tries providers strictly in order, one at a time, and
// stops at the first success. Sequential attempts bound cost: a request
// never bills two providers for the same generation.
type Orchestrator struct {
	chain          []provider.Client
	retry          RetryPolicy
	attemptTimeout time.Duration
	log            zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAttemptTimeout bounds each individual provider call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.attemptTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New creates an orchestrator over an ordered provider chain.
func New(chain []provider.Client, retry RetryPolicy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		chain:          chain,
		retry:          retry,
		attemptTimeout: 30 * time.Second,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Providers returns the names of the chain in attempt order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, 0, len(o.chain))
	for _, c := range o.chain {
		names = append(names, c.Name())
	}
	return names
}

// Generate walks the chain and returns the first successful text. A
// request carrying an image only attempts vision-capable providers.
func (o *Orchestrator) Generate(ctx context.Context, req provider.Request) (string, error) {
	exhausted := &ExhaustedError{}

	for _, client := range o.chain {
		if req.Image != nil && !client.SupportsVision() {
			continue
		}

		text, err := o.callWithRetry(ctx, client, req)
		if err == nil {
			o.log.Debug().Str("provider", client.Name()).Msg("provider call succeeded")
			return text, nil
		}

		kind := provider.KindOf(err)
		if kind == provider.KindNotConfigured {
			o.log.Debug().Str("provider", client.Name()).Msg("provider not configured, skipping")
			continue
		}

		o.log.Warn().Str("provider", client.Name()).Stringer("kind", kind).Err(err).
			Msg("provider failed, falling back")
		exhausted.Failures = append(exhausted.Failures, AttemptFailure{
			Provider: client.Name(),
			Kind:     kind,
			Err:      err,
		})

		// A dead parent context makes every remaining provider futile.
		if ctx.Err() != nil {
			break
		}
	}

	return "", exhausted
}

func (o *Orchestrator) callWithRetry(ctx context.Context, client provider.Client, req provider.Request) (string, error) {
	return o.retry.Do(ctx, client.Name(), func(ctx context.Context) (string, error) {
		if o.attemptTimeout > 0 {
			callCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
			defer cancel()
			return client.Generate(callCtx, req)
		}
		return client.Generate(ctx, req)
	})
}

// IsExhausted reports whether err is a whole-chain failure.
func IsExhausted(err error) bool {
	var e *ExhaustedError
	return errors.As(err, &e)
}
