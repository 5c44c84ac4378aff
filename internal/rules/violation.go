package rules

// Kind classifies what a violation is about.
type Kind string

const (
	KindTaxCode           Kind = "tax_code"
	KindDocumentStructure Kind = "document_structure"
	KindValueConsistency  Kind = "value_consistency"
	KindModelFinding      Kind = "model_finding"
)

// Severity grades how strongly a violation weighs on the verdict. Critical
// violations force rejection regardless of the reasoning step.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Source identifies which layer produced a violation.
type Source string

const (
	SourceRuleEngine Source = "rule_engine"
	SourceModel      Source = "model"
)

// Violation is an immutable value object describing one irregularity found
// during an audit run. Order of creation is preserved through consolidation
// because justification text is built from it.
type Violation struct {
	Kind     Kind     `json:"kind"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Source   Source   `json:"source"`
}

// Critical reports whether the violation forces rejection.
func (v Violation) Critical() bool { return v.Severity == SeverityCritical }

// CountCritical returns how many violations in the list are critical.
func CountCritical(violations []Violation) int {
	n := 0
	for _, v := range violations {
		if v.Critical() {
			n++
		}
	}
	return n
}

// FilterCritical returns the critical subset, preserving order.
func FilterCritical(violations []Violation) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Critical() {
			out = append(out, v)
		}
	}
	return out
}

// FilterNonCritical returns the medium and low subset, preserving order.
func FilterNonCritical(violations []Violation) []Violation {
	var out []Violation
	for _, v := range violations {
		if !v.Critical() {
			out = append(out, v)
		}
	}
	return out
}
