package auditor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nfaudit/nfaudit/internal/gateway"
	"github.com/nfaudit/nfaudit/internal/nfe"
	"github.com/nfaudit/nfaudit/internal/rules"
)

const systemPrompt = `You are a senior Brazilian fiscal auditor reviewing electronic tax invoices (NF-e).
You receive the invoice fields, the violations already found by deterministic rule checks, and optional case context.
Focus on irregularities the deterministic checks cannot see: implausible values for the operation type, suspicious issuer/recipient combinations, discounts inconsistent with the goods, signs of fiscal fraud.
Do not repeat violations already listed.

Return ONLY valid JSON with exactly these fields:
{"approved": bool, "confidence": float between 0 and 1, "findings": ["..."], "reasoning": "..."}`

// buildPrompt assembles the single reasoning request sent through the model
// gateway: invoice JSON, prior rule violations, and free-form case context.
func buildPrompt(inv nfe.Invoice, prior []rules.Violation, caseContext string) gateway.Prompt {
	var b strings.Builder

	b.WriteString("Invoice record:\n")
	invJSON, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		fmt.Fprintf(&b, "%+v\n", inv)
	} else {
		b.Write(invJSON)
		b.WriteString("\n")
	}

	if len(prior) == 0 {
		b.WriteString("\nDeterministic rule checks found no violations.\n")
	} else {
		b.WriteString("\nViolations already found by deterministic rule checks (do not repeat):\n")
		for i, v := range prior {
			fmt.Fprintf(&b, "[%d] (%s/%s) %s\n", i+1, v.Severity, v.Kind, v.Message)
		}
	}

	if caseContext != "" {
		b.WriteString("\nCase context:\n")
		b.WriteString(caseContext)
		b.WriteString("\n")
	}

	b.WriteString("\nEvaluate the invoice and return ONLY the JSON verdict.\n")

	return gateway.Prompt{System: systemPrompt, User: b.String()}
}
