package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const goodVerdict = `{"approved": true, "confidence": 0.9, "findings": [], "reasoning": "consistent invoice"}`

func newTestChain(providers ...Provider) *Chain {
	return NewChain(providers, time.Second, nil, zerolog.Nop())
}

func TestChain_Analyze_FirstProviderSucceeds(t *testing.T) {
	t.Parallel()

	t.Run("Given a healthy primary When analyzed Then fallbacks are never called", func(t *testing.T) {
		primary := newMockProvider("anthropic", goodVerdict)
		fallback := newMockProvider("openai", goodVerdict)

		res := newTestChain(primary, fallback).Analyze(context.Background(), Prompt{User: "audit"})

		if !res.ParseOK {
			t.Fatalf("expected parse ok, failures: %v", res.Failures)
		}
		if res.ProviderID != "anthropic" {
			t.Errorf("ProviderID = %q, want anthropic", res.ProviderID)
		}
		if !res.Structured.Approved || res.Structured.Confidence != 0.9 {
			t.Errorf("structured = %+v", res.Structured)
		}
		if fallback.CallCount != 0 {
			t.Errorf("fallback called %d times, want 0", fallback.CallCount)
		}
	})
}

func TestChain_Analyze_FallbackOrder(t *testing.T) {
	t.Parallel()

	t.Run("Given a failing primary When analyzed Then next provider answers", func(t *testing.T) {
		primary := newMockProvider("anthropic", "")
		primary.Err = errMockTransport
		fallback := newMockProvider("openai", goodVerdict)

		res := newTestChain(primary, fallback).Analyze(context.Background(), Prompt{User: "audit"})

		if !res.ParseOK || res.ProviderID != "openai" {
			t.Fatalf("expected openai success, got %+v", res)
		}
		if primary.CallCount != 1 {
			t.Errorf("primary called %d times, want exactly 1 (no same-provider retry)", primary.CallCount)
		}
		if len(res.Failures) != 1 || res.Failures[0].Kind != FailureTransport {
			t.Errorf("failures = %v, want one transport failure", res.Failures)
		}
	})

	t.Run("Given a remote error When analyzed Then failure kind is remote", func(t *testing.T) {
		primary := newMockProvider("anthropic", "")
		primary.Err = &RemoteError{Status: 500, Body: "overloaded"}
		fallback := newMockProvider("openai", goodVerdict)

		res := newTestChain(primary, fallback).Analyze(context.Background(), Prompt{})

		if len(res.Failures) != 1 || res.Failures[0].Kind != FailureRemote {
			t.Fatalf("failures = %v, want one remote failure", res.Failures)
		}
	})

	t.Run("Given a timed-out primary When analyzed Then failure kind is timeout", func(t *testing.T) {
		primary := newMockProvider("anthropic", "")
		primary.CompleteFunc = func(ctx context.Context, p Prompt) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}
		fallback := newMockProvider("openai", goodVerdict)

		chain := NewChain([]Provider{primary, fallback}, 10*time.Millisecond, nil, zerolog.Nop())
		res := chain.Analyze(context.Background(), Prompt{})

		if !res.ParseOK || res.ProviderID != "openai" {
			t.Fatalf("expected openai success, got %+v", res)
		}
		if len(res.Failures) != 1 || res.Failures[0].Kind != FailureTimeout {
			t.Errorf("failures = %v, want one timeout failure", res.Failures)
		}
	})

	t.Run("Given two failing providers When analyzed Then the third answers", func(t *testing.T) {
		first := newMockProvider("anthropic", "")
		first.Err = errMockTransport
		second := newMockProvider("openai", "")
		second.Err = &RemoteError{Status: 503, Body: "unavailable"}
		third := newMockProvider("gemini", goodVerdict)

		res := newTestChain(first, second, third).Analyze(context.Background(), Prompt{User: "audit"})

		if !res.ParseOK || res.ProviderID != "gemini" {
			t.Fatalf("expected gemini success, got %+v", res)
		}
		if first.CallCount != 1 || second.CallCount != 1 || third.CallCount != 1 {
			t.Errorf("call counts = %d/%d/%d, want exactly one each", first.CallCount, second.CallCount, third.CallCount)
		}
		if len(res.Failures) != 2 {
			t.Fatalf("failures = %v, want 2", res.Failures)
		}
		if res.Failures[0].ProviderID != "anthropic" || res.Failures[0].Kind != FailureTransport {
			t.Errorf("first failure = %v, want anthropic transport", res.Failures[0])
		}
		if res.Failures[1].ProviderID != "openai" || res.Failures[1].Kind != FailureRemote {
			t.Errorf("second failure = %v, want openai remote", res.Failures[1])
		}
	})

	t.Run("Given malformed primary output When analyzed Then next provider answers", func(t *testing.T) {
		primary := newMockProvider("anthropic", "I think this invoice looks fine.")
		fallback := newMockProvider("openai", goodVerdict)

		res := newTestChain(primary, fallback).Analyze(context.Background(), Prompt{})

		if !res.ParseOK || res.ProviderID != "openai" {
			t.Fatalf("expected openai success, got %+v", res)
		}
		if len(res.Failures) != 1 || res.Failures[0].Kind != FailureMalformed {
			t.Errorf("failures = %v, want one malformed failure", res.Failures)
		}
	})
}

func TestChain_Analyze_AllProvidersFail(t *testing.T) {
	t.Parallel()

	t.Run("Given every provider failing When analyzed Then inconclusive result", func(t *testing.T) {
		a := newMockProvider("anthropic", "")
		a.Err = errMockTransport
		b := newMockProvider("openai", "")
		b.Err = &RemoteError{Status: 429, Body: "rate limited"}

		res := newTestChain(a, b).Analyze(context.Background(), Prompt{})

		if res.ParseOK {
			t.Fatal("expected ParseOK=false")
		}
		if res.Structured.Approved || res.Structured.Confidence != 0 {
			t.Errorf("structured = %+v, want inconclusive", res.Structured)
		}
		if len(res.Failures) != 2 {
			t.Errorf("failures = %v, want 2", res.Failures)
		}
	})

	t.Run("Given only malformed output When exhausted Then last raw text is kept", func(t *testing.T) {
		a := newMockProvider("anthropic", "approved, no irregularities found")

		res := newTestChain(a).Analyze(context.Background(), Prompt{})

		if res.ParseOK {
			t.Fatal("expected ParseOK=false")
		}
		if res.RawOutput != "approved, no irregularities found" {
			t.Errorf("RawOutput = %q, want last raw text preserved", res.RawOutput)
		}
	})
}

func TestChain_Analyze_CancelledContext(t *testing.T) {
	t.Parallel()

	t.Run("Given a cancelled context When analyzed Then no providers are called", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		primary := newMockProvider("anthropic", goodVerdict)
		res := newTestChain(primary).Analyze(ctx, Prompt{})

		if res.ParseOK {
			t.Fatal("expected inconclusive result")
		}
		if primary.CallCount != 0 {
			t.Errorf("provider called %d times after cancellation", primary.CallCount)
		}
		if len(res.Failures) != 0 {
			t.Errorf("failures = %v, want none for providers never attempted", res.Failures)
		}
	})
}

func TestParseStructured(t *testing.T) {
	t.Parallel()

	t.Run("Given fenced JSON When parsed Then fences are stripped", func(t *testing.T) {
		raw := "```json\n" + goodVerdict + "\n```"
		s, err := parseStructured(raw)
		if err != nil {
			t.Fatalf("parseStructured: %v", err)
		}
		if !s.Approved || s.Confidence != 0.9 || s.Reasoning != "consistent invoice" {
			t.Errorf("structured = %+v", s)
		}
	})

	t.Run("Given mixed findings When parsed Then raw messages survive", func(t *testing.T) {
		raw := `{"approved": false, "confidence": 0.8, "findings": ["odd discount", {"description": "ICMS low", "severity": "medium"}], "reasoning": "r"}`
		s, err := parseStructured(raw)
		if err != nil {
			t.Fatalf("parseStructured: %v", err)
		}
		if len(s.Findings) != 2 {
			t.Errorf("findings = %v, want 2 raw entries", s.Findings)
		}
	})

	t.Run("Given out-of-range confidence When parsed Then error", func(t *testing.T) {
		if _, err := parseStructured(`{"approved": true, "confidence": 1.4}`); err == nil {
			t.Fatal("expected error for confidence > 1")
		}
	})

	t.Run("Given prose When parsed Then error", func(t *testing.T) {
		if _, err := parseStructured("the invoice seems fine"); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestChain_Providers(t *testing.T) {
	t.Parallel()

	t.Run("Given a chain When listed Then IDs follow fallback order", func(t *testing.T) {
		chain := newTestChain(newMockProvider("anthropic", ""), newMockProvider("openai", ""), newMockProvider("gemini", ""))
		ids := chain.Providers()
		want := []string{"anthropic", "openai", "gemini"}
		for i, id := range want {
			if ids[i] != id {
				t.Fatalf("Providers() = %v, want %v", ids, want)
			}
		}
	})
}
