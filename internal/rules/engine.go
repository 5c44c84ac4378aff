package rules

import (
	"fmt"
	"math"

	"github.com/nfaudit/nfaudit/internal/nfe"
)

// Absolute tolerances in BRL for recomputed values. Differences at the
// boundary are accepted; only strictly greater divergences violate.
const (
	TaxTolerance   = 0.50
	TotalTolerance = 0.10
)

// Thresholds for the low-severity plausibility checks.
const (
	minPlausibleTotal = 1.00
	maxPlausibleTotal = 1_000_000.00
)

// centDiff returns the absolute difference between two monetary values
// rounded to whole cents. Tolerance boundaries are inclusive, and comparing
// raw float64 differences would push an exact-boundary value over the line.
func centDiff(a, b float64) float64 {
	return math.Round(math.Abs(a-b)*100) / 100
}

// Engine applies the deterministic fiscal rules to an invoice. It is pure:
// no I/O, no state beyond the read-only tables, safe for concurrent use.
type Engine struct {
	tables *Tables
}

// NewEngine creates a rule engine over the given tables.
func NewEngine(tables *Tables) *Engine {
	return &Engine{tables: tables}
}

// Evaluate runs every rule against the invoice and returns the violations in
// a fixed order: company identifiers, CFOP compatibility, tax recomputation
// (ICMS, IPI, PIS, COFINS), total consistency, cross-field sanity, and
// finally the low-severity plausibility checks. Justification text is built
// from this order, so it must not change.
func (e *Engine) Evaluate(inv nfe.Invoice) []Violation {
	var out []Violation

	out = append(out, e.checkCNPJs(inv)...)
	out = append(out, e.checkCFOP(inv)...)
	out = append(out, e.checkTaxes(inv)...)
	out = append(out, e.checkTotal(inv)...)
	out = append(out, e.checkCrossFields(inv)...)
	out = append(out, e.checkPlausibility(inv)...)

	return out
}

func (e *Engine) checkCNPJs(inv nfe.Invoice) []Violation {
	var out []Violation
	if inv.IssuerCNPJ != "" && !ValidCNPJ(inv.IssuerCNPJ) {
		out = append(out, Violation{
			Kind:     KindDocumentStructure,
			Message:  fmt.Sprintf("issuer CNPJ %s has invalid check digits", inv.IssuerCNPJ),
			Severity: SeverityCritical,
			Source:   SourceRuleEngine,
		})
	}
	if inv.RecipientCNPJ != "" && !ValidCNPJ(inv.RecipientCNPJ) {
		out = append(out, Violation{
			Kind:     KindDocumentStructure,
			Message:  fmt.Sprintf("recipient CNPJ %s has invalid check digits", inv.RecipientCNPJ),
			Severity: SeverityCritical,
			Source:   SourceRuleEngine,
		})
	}
	return out
}

func (e *Engine) checkCFOP(inv nfe.Invoice) []Violation {
	if !e.tables.KnownCFOP(inv.CFOP) {
		return []Violation{{
			Kind:     KindTaxCode,
			Message:  fmt.Sprintf("CFOP %s is not in the canonical table", inv.CFOP),
			Severity: SeverityCritical,
			Source:   SourceRuleEngine,
		}}
	}
	if !e.tables.CompatibleCFOP(inv.CFOP, inv.OperationType) {
		return []Violation{{
			Kind:     KindTaxCode,
			Message:  fmt.Sprintf("CFOP %s (%s) is incompatible with operation type %q", inv.CFOP, e.tables.CFOPDescription(inv.CFOP), inv.OperationType),
			Severity: SeverityCritical,
			Source:   SourceRuleEngine,
		}}
	}
	return nil
}

// checkTaxes recomputes each declared tax from its base and the static rate
// tables. A zero base (or a zero declared value for the non-ICMS kinds, which
// may indicate exemption) skips the check rather than flagging it; exemption
// plausibility is handled by checkPlausibility.
func (e *Engine) checkTaxes(inv nfe.Invoice) []Violation {
	var out []Violation

	if inv.ICMSBase > 0 {
		rate := e.tables.ICMSRate(inv.UF())
		expected := inv.ICMSBase * rate.Percent / 100
		if diff := centDiff(inv.ICMSValue, expected); diff > TaxTolerance {
			out = append(out, Violation{
				Kind: KindTaxCode,
				Message: fmt.Sprintf(
					"ICMS mismatch: expected R$ %.2f (%.1f%% of R$ %.2f, %s rate), declared R$ %.2f (difference R$ %.2f)",
					expected, rate.Percent, inv.ICMSBase, rate.Origin, inv.ICMSValue, diff),
				Severity: SeverityCritical,
				Source:   SourceRuleEngine,
			})
		}
	}

	if inv.IPIValue > 0 && inv.GoodsValue > 0 {
		rate := e.tables.IPIRate(inv.ProductClass)
		expected := inv.GoodsValue * rate.Percent / 100
		if diff := centDiff(inv.IPIValue, expected); diff > TaxTolerance {
			out = append(out, Violation{
				Kind: KindTaxCode,
				Message: fmt.Sprintf(
					"IPI mismatch: expected R$ %.2f (%.1f%% of R$ %.2f, %s rate), declared R$ %.2f",
					expected, rate.Percent, inv.GoodsValue, rate.Origin, inv.IPIValue),
				Severity: SeverityMedium,
				Source:   SourceRuleEngine,
			})
		}
	}

	if inv.PISValue > 0 && inv.GoodsValue > 0 {
		rate := e.tables.PISRate(inv.TaxRegime)
		expected := inv.GoodsValue * rate.Percent / 100
		if diff := centDiff(inv.PISValue, expected); diff > TaxTolerance {
			out = append(out, Violation{
				Kind: KindTaxCode,
				Message: fmt.Sprintf(
					"PIS mismatch: expected R$ %.2f (%.2f%% of R$ %.2f), declared R$ %.2f",
					expected, rate.Percent, inv.GoodsValue, inv.PISValue),
				Severity: SeverityMedium,
				Source:   SourceRuleEngine,
			})
		}
	}

	if inv.COFINSValue > 0 && inv.GoodsValue > 0 {
		rate := e.tables.COFINSRate(inv.TaxRegime)
		expected := inv.GoodsValue * rate.Percent / 100
		if diff := centDiff(inv.COFINSValue, expected); diff > TaxTolerance {
			out = append(out, Violation{
				Kind: KindTaxCode,
				Message: fmt.Sprintf(
					"COFINS mismatch: expected R$ %.2f (%.2f%% of R$ %.2f), declared R$ %.2f",
					expected, rate.Percent, inv.GoodsValue, inv.COFINSValue),
				Severity: SeverityMedium,
				Source:   SourceRuleEngine,
			})
		}
	}

	return out
}

// checkTotal verifies the grand total: goods + IPI - discount. ICMS is not
// added because it is already embedded in the goods value.
func (e *Engine) checkTotal(inv nfe.Invoice) []Violation {
	if inv.GoodsValue == 0 && inv.TotalValue == 0 {
		return nil
	}
	expected := inv.GoodsValue + inv.IPIValue - inv.Discount
	diff := centDiff(inv.TotalValue, expected)
	if diff > TotalTolerance {
		return []Violation{{
			Kind: KindValueConsistency,
			Message: fmt.Sprintf(
				"total mismatch: expected R$ %.2f, declared R$ %.2f (difference R$ %.2f)",
				expected, inv.TotalValue, diff),
			Severity: SeverityMedium,
			Source:   SourceRuleEngine,
		}}
	}
	return nil
}

func (e *Engine) checkCrossFields(inv nfe.Invoice) []Violation {
	var out []Violation
	if inv.ICMSValue > inv.GoodsValue {
		out = append(out, Violation{
			Kind: KindValueConsistency,
			Message: fmt.Sprintf(
				"declared ICMS (R$ %.2f) exceeds goods value (R$ %.2f)",
				inv.ICMSValue, inv.GoodsValue),
			Severity: SeverityMedium,
			Source:   SourceRuleEngine,
		})
	}
	if inv.TotalValue < 0 {
		out = append(out, Violation{
			Kind:     KindValueConsistency,
			Message:  fmt.Sprintf("total value cannot be negative (R$ %.2f)", inv.TotalValue),
			Severity: SeverityCritical,
			Source:   SourceRuleEngine,
		})
	}
	return out
}

// checkPlausibility raises low-severity flags that never block approval but
// are surfaced to the reasoning step and the final report.
func (e *Engine) checkPlausibility(inv nfe.Invoice) []Violation {
	var out []Violation
	if inv.TotalValue > 0 && inv.TotalValue < minPlausibleTotal {
		out = append(out, Violation{
			Kind:     KindValueConsistency,
			Message:  fmt.Sprintf("total value unusually low (R$ %.2f)", inv.TotalValue),
			Severity: SeverityLow,
			Source:   SourceRuleEngine,
		})
	}
	if inv.TotalValue > maxPlausibleTotal {
		out = append(out, Violation{
			Kind:     KindValueConsistency,
			Message:  fmt.Sprintf("total value unusually high (R$ %.2f)", inv.TotalValue),
			Severity: SeverityLow,
			Source:   SourceRuleEngine,
		})
	}
	if inv.TotalValue > 0 && inv.ICMSValue == 0 && inv.IPIValue == 0 && inv.PISValue == 0 && inv.COFINSValue == 0 {
		out = append(out, Violation{
			Kind:     KindValueConsistency,
			Message:  "all taxes are zero; verify whether the operation is exempt",
			Severity: SeverityLow,
			Source:   SourceRuleEngine,
		})
	}
	return out
}
