package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultCallTimeout bounds a single provider attempt.
const DefaultCallTimeout = 30 * time.Second

// Prompt is a single reasoning request: a system instruction plus the user
// payload built by the auditor.
type Prompt struct {
	System string
	User   string
}

// Provider is one model backend. Complete returns the raw model text or an
// error; transport and remote failures are classified by the chain, not here.
type Provider interface {
	ID() string
	Complete(ctx context.Context, p Prompt) (string, error)
}

// FailureKind classifies why a provider attempt was abandoned.
type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureTransport FailureKind = "transport"
	FailureRemote    FailureKind = "remote"
	FailureMalformed FailureKind = "malformed"
)

// Failure records one abandoned provider attempt.
type Failure struct {
	ProviderID string
	Kind       FailureKind
	Err        error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s: %v", f.ProviderID, f.Kind, f.Err)
}

// RemoteError is a non-2xx response reported by a provider API.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("provider API error (%d): %s", e.Status, e.Body)
}

// Structured is the model verdict parsed from raw output. Findings stay raw
// here: providers return either plain strings or objects, and normalization
// into violations is the auditor's job.
type Structured struct {
	Approved   bool              `json:"approved"`
	Confidence float64           `json:"confidence"`
	Findings   []json.RawMessage `json:"findings"`
	Reasoning  string            `json:"reasoning"`
}

// Result is the outcome of one Analyze call. When ParseOK is false the chain
// was exhausted: Structured holds the inconclusive payload (approved=false,
// confidence 0) and RawOutput holds the last raw text seen, if any.
type Result struct {
	ProviderID string
	RawOutput  string
	ParseOK    bool
	Structured Structured
	Failures   []Failure
}

// Chain tries providers strictly in configuration order and returns the first
// success. There is no retry against the same provider; the retry budget is
// spent on provider diversity.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// NewChain builds a fallback chain over the given providers. A nil limiter
// disables rate limiting; a zero timeout falls back to DefaultCallTimeout.
func NewChain(providers []Provider, timeout time.Duration, limiter *rate.Limiter, log zerolog.Logger) *Chain {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Chain{
		providers: providers,
		timeout:   timeout,
		limiter:   limiter,
		log:       log,
	}
}

// Providers returns the configured provider IDs in fallback order.
func (c *Chain) Providers() []string {
	ids := make([]string, len(c.providers))
	for i, p := range c.providers {
		ids[i] = p.ID()
	}
	return ids
}

// Analyze attempts each provider in order, bounding every attempt by the
// per-call timeout. It never returns an error: when every provider fails the
// result carries ParseOK=false and an inconclusive structured payload, so the
// caller can always produce a verdict.
func (c *Chain) Analyze(ctx context.Context, p Prompt) Result {
	var failures []Failure
	var lastRaw string

	for _, provider := range c.providers {
		// A cancelled parent context stops the chain before the provider is
		// attempted; the failure list only records real attempts.
		if ctx.Err() != nil {
			break
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				break
			}
		}

		raw, err := c.attempt(ctx, provider, p)
		if raw != "" {
			lastRaw = raw
		}
		if err != nil {
			f := Failure{ProviderID: provider.ID(), Kind: classify(err), Err: err}
			failures = append(failures, f)
			c.log.Warn().
				Str("provider", f.ProviderID).
				Str("kind", string(f.Kind)).
				Err(err).
				Msg("provider attempt failed, trying next")
			continue
		}

		structured, err := parseStructured(raw)
		if err != nil {
			f := Failure{ProviderID: provider.ID(), Kind: FailureMalformed, Err: err}
			failures = append(failures, f)
			c.log.Warn().
				Str("provider", f.ProviderID).
				Err(err).
				Msg("provider output unparseable, trying next")
			continue
		}

		c.log.Debug().
			Str("provider", provider.ID()).
			Bool("approved", structured.Approved).
			Float64("confidence", structured.Confidence).
			Msg("provider analysis complete")
		return Result{
			ProviderID: provider.ID(),
			RawOutput:  raw,
			ParseOK:    true,
			Structured: structured,
			Failures:   failures,
		}
	}

	c.log.Error().
		Int("attempts", len(failures)).
		Msg("all providers failed, returning inconclusive result")
	return Result{
		RawOutput:  lastRaw,
		ParseOK:    false,
		Structured: Structured{Approved: false, Confidence: 0},
		Failures:   failures,
	}
}

func (c *Chain) attempt(ctx context.Context, provider Provider, p Prompt) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return provider.Complete(callCtx, p)
}

func classify(err error) FailureKind {
	var remote *RemoteError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.As(err, &remote):
		return FailureRemote
	default:
		return FailureTransport
	}
}
