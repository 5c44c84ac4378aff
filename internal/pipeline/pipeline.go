package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nfaudit/nfaudit/internal/auditor"
	"github.com/nfaudit/nfaudit/internal/nfe"
	"github.com/nfaudit/nfaudit/internal/rules"
	"github.com/nfaudit/nfaudit/internal/validation"
)

// Stage identifies where a pipeline run terminated.
type Stage string

const (
	StageConsolidated       Stage = "consolidated"
	StageRejectedStructural Stage = "rejected_structural"
	StageRejectedCritical   Stage = "rejected_critical"
	StageRejectedTechnical  Stage = "rejected_technical"
)

// Deterministic rejections carry a fixed high confidence; a failed model run
// rejects with none at all.
const (
	deterministicConfidence = 0.95
	rejectionConfidenceCap  = 0.7
	confidencePenaltyStep   = 0.05
	confidencePenaltyMax    = 0.30
	maxJustifiedCriticals   = 3
	maxReasoningExcerpt     = 200
)

// Verdict is the single output of a pipeline run. It is built exactly once,
// from a completed or short-circuited run, and never exposed mid-computation.
type Verdict struct {
	AuditID       uuid.UUID         `json:"audit_id"`
	Approved      bool              `json:"approved"`
	Violations    []rules.Violation `json:"violations"`
	Confidence    float64           `json:"confidence"`
	Justification string            `json:"justification"`
	Elapsed       time.Duration     `json:"elapsed"`
	Stage         Stage             `json:"stage"`
	Warnings      []string          `json:"warnings,omitempty"`
}

// ContextAuditor is the reasoning step the coordinator suspends on.
type ContextAuditor interface {
	Audit(ctx context.Context, inv nfe.Invoice, prior []rules.Violation, caseContext string) auditor.Analysis
}

// Coordinator drives one invoice through structural validation, deterministic
// rules, and contextual analysis, then consolidates a verdict. Instances are
// safe for concurrent use across distinct invoices; no state is shared
// between runs.
type Coordinator struct {
	validator *validation.Validator
	engine    *rules.Engine
	auditor   ContextAuditor
	threshold float64
	strict    bool
	log       zerolog.Logger
}

// NewCoordinator wires the three stages together. threshold is the acceptance
// confidence below which an approval is downgraded; strict enables the
// critical-violation short circuit.
func NewCoordinator(v *validation.Validator, e *rules.Engine, a ContextAuditor, threshold float64, strict bool, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		validator: v,
		engine:    e,
		auditor:   a,
		threshold: threshold,
		strict:    strict,
		log:       log,
	}
}

// Audit is the single public entry point. It never returns an error and never
// panics: any failure inside the stages is folded into a terminal verdict.
func (c *Coordinator) Audit(ctx context.Context, inv nfe.Invoice, caseContext string) (verdict Verdict) {
	start := time.Now()
	id := uuid.New()

	defer func() {
		if r := recover(); r != nil {
			c.log.Error().
				Str("audit_id", id.String()).
				Str("invoice", inv.Number).
				Interface("panic", r).
				Msg("pipeline run panicked")
			verdict = technicalVerdict(id, r, time.Since(start))
		}
	}()

	verdict = c.run(ctx, id, inv, caseContext)
	verdict.Elapsed = time.Since(start)

	c.log.Info().
		Str("audit_id", id.String()).
		Str("invoice", inv.Number).
		Bool("approved", verdict.Approved).
		Float64("confidence", verdict.Confidence).
		Str("stage", string(verdict.Stage)).
		Int("violations", len(verdict.Violations)).
		Dur("elapsed", verdict.Elapsed).
		Msg("audit complete")
	return verdict
}

func (c *Coordinator) run(ctx context.Context, id uuid.UUID, inv nfe.Invoice, caseContext string) Verdict {
	structural := c.validator.Validate(inv)
	if !structural.Valid {
		violations := make([]rules.Violation, 0, len(structural.Errors))
		for _, msg := range structural.Errors {
			violations = append(violations, rules.Violation{
				Kind:     rules.KindDocumentStructure,
				Message:  msg,
				Severity: rules.SeverityCritical,
				Source:   rules.SourceRuleEngine,
			})
		}
		return Verdict{
			AuditID:       id,
			Approved:      false,
			Violations:    violations,
			Confidence:    deterministicConfidence,
			Justification: rejectionJustification(violations, ""),
			Stage:         StageRejectedStructural,
			Warnings:      structural.Warnings,
		}
	}

	violations := c.engine.Evaluate(inv)
	if c.strict && rules.CountCritical(violations) > 0 {
		criticals := rules.FilterCritical(violations)
		return Verdict{
			AuditID:       id,
			Approved:      false,
			Violations:    criticals,
			Confidence:    deterministicConfidence,
			Justification: rejectionJustification(criticals, ""),
			Stage:         StageRejectedCritical,
			Warnings:      structural.Warnings,
		}
	}

	analysis := c.auditor.Audit(ctx, inv, rules.FilterNonCritical(violations), caseContext)
	return c.consolidate(id, violations, analysis, structural.Warnings)
}

func (c *Coordinator) consolidate(id uuid.UUID, ruleViolations []rules.Violation, analysis auditor.Analysis, warnings []string) Verdict {
	all := make([]rules.Violation, 0, len(ruleViolations)+len(analysis.Findings))
	all = append(all, ruleViolations...)
	all = append(all, analysis.Findings...)

	approved := rules.CountCritical(all) == 0 && analysis.Approved

	penalty := confidencePenaltyStep * float64(len(all))
	if penalty > confidencePenaltyMax {
		penalty = confidencePenaltyMax
	}
	confidence := clamp01(analysis.Confidence - penalty)
	if !approved && confidence > rejectionConfidenceCap {
		confidence = rejectionConfidenceCap
	}

	justification := consolidatedJustification(approved, all, analysis.Reasoning)
	if approved && confidence < c.threshold {
		approved = false
		justification += fmt.Sprintf(" Confidence %.2f is below the acceptance threshold %.2f; approval downgraded to rejection.", confidence, c.threshold)
	}

	return Verdict{
		AuditID:       id,
		Approved:      approved,
		Violations:    all,
		Confidence:    confidence,
		Justification: justification,
		Stage:         StageConsolidated,
		Warnings:      warnings,
	}
}

func technicalVerdict(id uuid.UUID, cause interface{}, elapsed time.Duration) Verdict {
	v := rules.Violation{
		Kind:     rules.KindModelFinding,
		Message:  fmt.Sprintf("technical error during audit: %v", cause),
		Severity: rules.SeverityCritical,
		Source:   rules.SourceModel,
	}
	return Verdict{
		AuditID:       id,
		Approved:      false,
		Violations:    []rules.Violation{v},
		Confidence:    0,
		Justification: "Invoice rejected: a technical error interrupted the audit. " + v.Message,
		Elapsed:       elapsed,
		Stage:         StageRejectedTechnical,
	}
}

// consolidatedJustification branches on which violations dominate: none, only
// low/medium, or any critical.
func consolidatedJustification(approved bool, violations []rules.Violation, reasoning string) string {
	criticals := rules.FilterCritical(violations)

	var b strings.Builder
	switch {
	case len(violations) == 0:
		b.WriteString("Invoice approved: deterministic checks and contextual analysis found no violations.")
	case len(criticals) == 0 && approved:
		fmt.Fprintf(&b, "Invoice approved with reservations: %d non-critical violation(s) noted.", len(violations))
	case len(criticals) == 0:
		fmt.Fprintf(&b, "Invoice rejected: %d violation(s) found and the contextual analysis did not approve.", len(violations))
	default:
		b.WriteString(criticalSummary(criticals))
	}
	appendReasoning(&b, reasoning)
	return b.String()
}

func rejectionJustification(violations []rules.Violation, reasoning string) string {
	var b strings.Builder
	b.WriteString(criticalSummary(violations))
	appendReasoning(&b, reasoning)
	return b.String()
}

func criticalSummary(criticals []rules.Violation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice rejected: %d critical violation(s).", len(criticals))
	for i, v := range criticals {
		if i == maxJustifiedCriticals {
			break
		}
		fmt.Fprintf(&b, " [%d] %s.", i+1, v.Message)
	}
	return b.String()
}

func appendReasoning(b *strings.Builder, reasoning string) {
	reasoning = strings.TrimSpace(reasoning)
	if reasoning == "" {
		return
	}
	if len(reasoning) > maxReasoningExcerpt {
		cut := maxReasoningExcerpt
		// Back up to a rune boundary so accented text is never split mid-rune.
		for cut > 0 && !utf8.RuneStart(reasoning[cut]) {
			cut--
		}
		reasoning = reasoning[:cut] + "..."
	}
	b.WriteString(" Model reasoning: ")
	b.WriteString(reasoning)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
