package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var roundingContext = func() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfEven
	return ctx
}()

// RoundTo2 rounds v to two decimal places, half to even, using decimal
// arithmetic on the shortest representation of v. NaN and infinities become 0.
//
// Examples:
//
//	RoundTo2(1.005)   -> 1    (shortest repr is 1.005, ties to even)
//	RoundTo2(2.675)   -> 2.68
//	RoundTo2(100000)  -> 100000
func RoundTo2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	var d apd.Decimal
	if _, _, err := d.SetString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
		return math.Round(v*100) / 100
	}
	var out apd.Decimal
	if _, err := roundingContext.Quantize(&out, &d, -2); err != nil {
		return math.Round(v*100) / 100
	}
	f, err := out.Float64()
	if err != nil {
		return math.Round(v*100) / 100
	}
	return f
}

// ParseAmount parses a salary figure such as "85000" or "85000.50".
func ParseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}

// FormatUSD renders v as a dollar amount with thousands separators, e.g. "$150,000.00".
func FormatUSD(v float64) string {
	return message.NewPrinter(language.English).Sprintf("$%.2f", v)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
