package compare

import "math"

// parseNumber parses a decimal floating point number from a prefix of
// s, stopping at the first byte that cannot extend the number.  It
// returns false when s has no leading number at all.  Unlike
// strconv.ParseFloat, trailing garbage is fine and no allocation is
// ever made, which matters when it runs twice per comparison.
func parseNumber(s []byte) (float64, bool) {
	var i int
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	var mant float64
	var sawDigit bool
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		mant = mant*10 + float64(s[i]-'0')
		sawDigit = true
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		frac := 0.1
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			mant += float64(s[i]-'0') * frac
			frac /= 10
			sawDigit = true
			i++
		}
	}
	if !sawDigit {
		return 0, false
	}
	// An exponent only counts if at least one digit follows the 'e'
	// and optional sign; otherwise "1e" parses as 1 with "e" left
	// over, matching strtod.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		expNeg := false
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			expNeg = s[j] == '-'
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			exp := 0
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				if exp < 10000 {
					exp = exp*10 + int(s[j]-'0')
				}
				j++
			}
			if expNeg {
				exp = -exp
			}
			// Scaling a zero mantissa by an overflowing
			// exponent would produce 0*+Inf = NaN, which is not
			// ordered; zero stays zero for any exponent.
			if mant != 0 {
				mant *= math.Pow(10, float64(exp))
			}
		}
	}
	if neg {
		mant = -mant
	}
	return mant, true
}
