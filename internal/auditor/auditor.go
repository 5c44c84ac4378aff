package auditor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nfaudit/nfaudit/internal/gateway"
	"github.com/nfaudit/nfaudit/internal/nfe"
	"github.com/nfaudit/nfaudit/internal/rules"
)

// heuristicConfidence is assigned when the verdict had to be extracted from
// free text instead of structured JSON.
const heuristicConfidence = 0.7

// ModelGateway is the slice of the gateway chain the auditor needs.
type ModelGateway interface {
	Analyze(ctx context.Context, p gateway.Prompt) gateway.Result
}

// Analysis is the auditor's well-typed result. The coordinator always receives
// one of these, even when every provider failed.
type Analysis struct {
	Approved   bool
	Confidence float64
	Findings   []rules.Violation
	Reasoning  string
	ProviderID string
	Heuristic  bool
}

// Auditor runs the contextual reasoning step over an invoice.
type Auditor struct {
	gw  ModelGateway
	log zerolog.Logger
}

// New creates an Auditor over the given gateway.
func New(gw ModelGateway, log zerolog.Logger) *Auditor {
	return &Auditor{gw: gw, log: log}
}

// Audit builds one reasoning request from the invoice, the violations already
// found, and optional case context, and sends it through the gateway. It never
// returns an error: unparseable output falls back to heuristic extraction, and
// a fully failed chain yields an inconclusive analysis with zero confidence.
func (a *Auditor) Audit(ctx context.Context, inv nfe.Invoice, prior []rules.Violation, caseContext string) Analysis {
	res := a.gw.Analyze(ctx, buildPrompt(inv, prior, caseContext))

	if res.ParseOK {
		return Analysis{
			Approved:   res.Structured.Approved,
			Confidence: res.Structured.Confidence,
			Findings:   normalizeFindings(res.Structured.Findings),
			Reasoning:  res.Structured.Reasoning,
			ProviderID: res.ProviderID,
		}
	}

	if res.RawOutput != "" {
		approved := extractApproval(res.RawOutput)
		a.log.Warn().
			Str("invoice", inv.Number).
			Bool("approved", approved).
			Msg("structured parse failed, using heuristic extraction")
		return Analysis{
			Approved:   approved,
			Confidence: heuristicConfidence,
			Reasoning:  res.RawOutput,
			Heuristic:  true,
		}
	}

	a.log.Error().
		Str("invoice", inv.Number).
		Int("failures", len(res.Failures)).
		Msg("model analysis unavailable")
	return Analysis{
		Approved:   false,
		Confidence: 0,
		Findings: []rules.Violation{{
			Kind:     rules.KindModelFinding,
			Message:  "contextual analysis unavailable: all model providers failed",
			Severity: rules.SeverityMedium,
			Source:   rules.SourceModel,
		}},
	}
}

// modelFinding is the object form a provider may return inside findings.
type modelFinding struct {
	Description string `json:"description"`
	Message     string `json:"message"`
	Severity    string `json:"severity"`
}

// normalizeFindings folds the model's findings, plain strings or objects, into
// violations. Unrecognized severities default to medium.
func normalizeFindings(raw []json.RawMessage) []rules.Violation {
	var out []rules.Violation
	for _, msg := range raw {
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, rules.Violation{
					Kind:     rules.KindModelFinding,
					Message:  s,
					Severity: rules.SeverityMedium,
					Source:   rules.SourceModel,
				})
			}
			continue
		}

		var f modelFinding
		if err := json.Unmarshal(msg, &f); err != nil {
			continue
		}
		text := f.Description
		if text == "" {
			text = f.Message
		}
		if text == "" {
			continue
		}
		out = append(out, rules.Violation{
			Kind:     rules.KindModelFinding,
			Message:  text,
			Severity: findingSeverity(f.Severity),
			Source:   rules.SourceModel,
		})
	}
	return out
}

func findingSeverity(s string) rules.Severity {
	switch strings.ToLower(s) {
	case "critical", "critica", "crítica", "high", "alta":
		return rules.SeverityCritical
	case "low", "baixa", "minor", "info":
		return rules.SeverityLow
	default:
		return rules.SeverityMedium
	}
}

// extractApproval guesses the verdict from free text. Rejection vocabulary
// wins over approval vocabulary so "não aprovado" reads as a rejection.
func extractApproval(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range []string{"reprov", "reject", "não aprov", "nao aprov", "not approv"} {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	for _, kw := range []string{"aprovad", "approve", "no irregularities", "sem irregularidades"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
