package rules

import "strings"

// CNPJ check-digit weight vectors defined by the Receita Federal algorithm:
// first pass over 12 digits, second pass over 13.
var (
	cnpjWeightsFirst  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeightsSecond = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// NormalizeCNPJ strips the usual punctuation from a formatted CNPJ.
func NormalizeCNPJ(cnpj string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cnpj)
}

// ValidCNPJ verifies both modulo-11 check digits of a 14-digit company
// identifier. Repeated-digit sequences are rejected outright; they satisfy
// the checksum but are never issued.
func ValidCNPJ(cnpj string) bool {
	cnpj = NormalizeCNPJ(cnpj)
	if len(cnpj) != 14 {
		return false
	}
	if strings.Count(cnpj, cnpj[:1]) == 14 {
		return false
	}

	if digit(cnpj[12]) != cnpjCheckDigit(cnpj[:12], cnpjWeightsFirst) {
		return false
	}
	return digit(cnpj[13]) == cnpjCheckDigit(cnpj[:13], cnpjWeightsSecond)
}

// CNPJCheckDigits computes the two check digits for a 12-digit CNPJ base.
// Used by tests to build valid identifiers.
func CNPJCheckDigits(base string) (int, int) {
	d1 := cnpjCheckDigit(base, cnpjWeightsFirst)
	d2 := cnpjCheckDigit(base+string(rune('0'+d1)), cnpjWeightsSecond)
	return d1, d2
}

func cnpjCheckDigit(digits string, weights []int) int {
	sum := 0
	for i := 0; i < len(digits) && i < len(weights); i++ {
		sum += digit(digits[i]) * weights[i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func digit(b byte) int { return int(b - '0') }
