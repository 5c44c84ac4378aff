package validation

import (
	"fmt"
	"time"

	"github.com/nfaudit/nfaudit/internal/nfe"
	"github.com/nfaudit/nfaudit/internal/rules"
)

// Result is the outcome of structural validation. Valid is true iff Errors is
// empty; Warnings never affect validity.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Issue-date sanity windows. Outside these the invoice is still structurally
// valid but gets flagged for review.
const (
	maxInvoiceAge    = 5 * 365 * 24 * time.Hour
	retroactiveLimit = 5 * 24 * time.Hour
)

// Validator performs the structural pass over an invoice record. It is purely
// deterministic and never calls external services; the clock is injectable so
// date checks stay testable.
type Validator struct {
	now func() time.Time
}

// NewValidator returns a Validator using the wall clock.
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorAt returns a Validator with a fixed clock.
func NewValidatorAt(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Validate checks required-field presence, company-identifier format, and the
// access-key check digit, in that order. A missing access key is tolerated
// with a warning so partial records can still flow through the pipeline.
func (v *Validator) Validate(inv nfe.Invoice) Result {
	var errs, warns []string

	errs = append(errs, requiredFieldErrors(inv)...)

	for _, f := range []struct {
		label, value string
	}{
		{"issuer_cnpj", inv.IssuerCNPJ},
		{"recipient_cnpj", inv.RecipientCNPJ},
	} {
		if f.value == "" {
			continue
		}
		cnpj := rules.NormalizeCNPJ(f.value)
		if len(cnpj) != 14 || !allDigits(cnpj) {
			errs = append(errs, fmt.Sprintf("%s: must be 14 numeric digits", f.label))
		}
	}

	switch {
	case inv.AccessKey == "":
		warns = append(warns, "access_key: absent; check-digit verification skipped")
	case len(inv.AccessKey) != nfe.AccessKeyLength || !allDigits(inv.AccessKey):
		errs = append(errs, fmt.Sprintf("access_key: must be %d numeric digits", nfe.AccessKeyLength))
	default:
		want := accessKeyCheckDigit(inv.AccessKey[:nfe.AccessKeyLength-1])
		if got := int(inv.AccessKey[nfe.AccessKeyLength-1] - '0'); got != want {
			errs = append(errs, fmt.Sprintf("access_key: check digit %d does not match computed %d", got, want))
		}
	}

	warns = append(warns, v.issueDateWarnings(inv.IssueDate)...)

	return Result{Valid: len(errs) == 0, Errors: errs, Warnings: warns}
}

func requiredFieldErrors(inv nfe.Invoice) []string {
	var errs []string
	if inv.Number == "" {
		errs = append(errs, "number: required field missing or empty")
	}
	if inv.IssuerCNPJ == "" {
		errs = append(errs, "issuer_cnpj: required field missing or empty")
	}
	if inv.RecipientCNPJ == "" {
		errs = append(errs, "recipient_cnpj: required field missing or empty")
	}
	if inv.IssueDate.IsZero() {
		errs = append(errs, "issue_date: required field missing or empty")
	}
	if inv.CFOP == "" {
		errs = append(errs, "cfop: required field missing or empty")
	}
	if inv.TotalValue == 0 {
		errs = append(errs, "total_value: required field missing or empty")
	}
	return errs
}

// issueDateWarnings flags dates that are legal to carry but fiscally unusual:
// future issuance, documents past the retention horizon, and retroactive
// issuance beyond the grace window.
func (v *Validator) issueDateWarnings(issued time.Time) []string {
	if issued.IsZero() {
		return nil
	}
	now := v.now()
	switch {
	case issued.After(now):
		return []string{"issue_date: in the future"}
	case now.Sub(issued) > maxInvoiceAge:
		return []string{"issue_date: more than 5 years old"}
	case now.Sub(issued) > retroactiveLimit:
		return []string{fmt.Sprintf("issue_date: retroactive by %d days", int(now.Sub(issued).Hours()/24))}
	}
	return nil
}
