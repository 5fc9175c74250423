package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseCurrency converts free-form user input ("$1,234.56", "-$12.00",
// "1234") into an amount. Everything except digits, '.' and '-' is
// stripped before parsing; anything that still fails to parse, or parses
// to a non-finite value, yields 0.
func ParseCurrency(input string) float64 {
	var b strings.Builder
	for _, r := range input {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatCurrency renders a US-dollar amount with two decimals and
// thousands separators. Negative amounts get a leading '-', not
// parentheses: -100 -> "-$100.00".
func FormatCurrency(amount float64) string {
	if math.Signbit(amount) && amount != 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -amount)
	}
	return "$" + humanize.FormatFloat("#,###.##", math.Abs(amount))
}
