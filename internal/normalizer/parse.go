package normalizer

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/rshade/footprint/internal/activity"
)

// DefaultServings is used when a servings value is missing or unreadable.
const DefaultServings = 1

// ParseFloat reads a non-negative number from f. Like a browser's
// parseFloat it accepts the longest numeric prefix, so "2.5e3 kWh" reads as
// 2500. Empty, non-numeric, NaN, infinite and out-of-range input returns def.
// Negative values are clamped to 0. It never fails.
func ParseFloat(f activity.Field, def float64) float64 {
	s := strings.TrimSpace(f.String())
	if s == "" {
		return clampNonNegative(def)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		v, err = strconv.ParseFloat(leadingDecimal(s), 64)
	}
	switch {
	case errors.Is(err, strconv.ErrRange):
		// Overflow reports ±Inf; underflow reports the rounded value.
		if math.IsInf(v, 0) {
			return clampNonNegative(def)
		}
	case err != nil:
		return clampNonNegative(def)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return clampNonNegative(def)
	}
	return clampNonNegative(v)
}

// ParseServings reads a servings count from f using the integer prefix of the
// text ("2.7" and "2 plates" both read as 2). Missing, unreadable and
// non-positive values become DefaultServings.
func ParseServings(f activity.Field) int {
	n, ok := parseIntPrefix(strings.TrimSpace(f.String()))
	if !ok || n < 1 {
		return DefaultServings
	}
	return n
}

// ClampServings applies the servings floor to an already-typed count.
func ClampServings(n int) int {
	if n < 1 {
		return DefaultServings
	}
	return n
}

// ClampDistance applies the non-negative rule to an already-typed value.
func ClampDistance(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return clampNonNegative(v)
}

func clampNonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// leadingDecimal returns the longest prefix of s that is a decimal number
// with an optional exponent, so "12km" reads as 12 and "1e5km" as 1e5.
// It returns "" when s does not start with a number.
func leadingDecimal(s string) string {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}

	digits := 0
	for ; i < len(s) && isDigit(s[i]); i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && isDigit(s[i]); i++ {
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	end := i

	// An exponent counts only when at least one digit follows it.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '-' || s[j] == '+') {
			j++
		}
		k := j
		for ; k < len(s) && isDigit(s[k]); k++ {
		}
		if k > j {
			end = k
		}
	}
	return s[:end]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseIntPrefix reads an optional sign followed by base-10 digits.
func parseIntPrefix(s string) (int, bool) {
	const maxServings = 1 << 30
	i, neg := 0, false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}

	n, digits := 0, 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n < maxServings {
			n = n*10 + int(s[i]-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if n > maxServings {
		n = maxServings
	}
	if neg {
		n = -n
	}
	return n, true
}
