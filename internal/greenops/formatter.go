package greenops

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer is the locale-aware printer used for thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators: 18248 → "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat rounds f to precision places and adds thousand separators to
// the integer part: FormatFloat(1234.567, 2) → "1,234.57".
func FormatFloat(f float64, precision int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if precision <= 0 {
		return FormatNumber(int64(math.Round(f)))
	}

	formatted := strconv.FormatFloat(f, 'f', precision, 64)
	intPart, frac, ok := strings.Cut(formatted, ".")
	if !ok {
		return formatted
	}
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return formatted
	}
	// strconv drops the sign for "-0"; keep it so -0.4 renders as "-0.4".
	if n == 0 && strings.HasPrefix(intPart, "-") {
		return "-0." + frac
	}
	return FormatNumber(n) + "." + frac
}

// FormatKg renders a kilogram quantity for display with two decimals.
func FormatKg(kg float64) string {
	return FormatFloat(kg, 2) + " kg CO₂"
}

// FormatQuantity renders a kilogram quantity in the requested unit. Unknown
// units fall back to kilograms.
func FormatQuantity(kg float64, unit string) string {
	v, err := ConvertFromKg(kg, unit)
	if err != nil {
		return FormatKg(kg)
	}
	return fmt.Sprintf("%s %s", FormatFloat(v, 2), strings.ToLower(unit))
}

// FormatLarge formats large numbers with abbreviated notation:
// 1500000000 → "~1.5 billion", 2500000 → "~2.5 million". Smaller values use
// comma separators.
func FormatLarge(n float64) string {
	if n >= BillionThreshold {
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	}
	if n >= LargeNumberThreshold {
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	}
	return FormatNumber(int64(math.Round(n)))
}
