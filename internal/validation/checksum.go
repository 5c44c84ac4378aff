package validation

// accessKeyCheckDigit computes the modulo-11 check digit over the first 43
// digits of an NF-e access key. Weights cycle 2..9 applied right-to-left;
// a remainder of 0 or 1 maps to digit 0, anything else to 11 minus the
// remainder.
func accessKeyCheckDigit(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
