// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxPriceDecimals caps the precision derived from a box size.
const maxPriceDecimals = 8

// PriceDecimals returns how many decimal places are needed to show prices
// on a grid of the given box size, e.g. 0.0005 needs 4 and 2 needs 0.
func PriceDecimals(boxSize float64) int {
	if boxSize <= 0 {
		return 2
	}
	exp := decimal.NewFromFloat(boxSize).Exponent()
	if exp >= 0 {
		return 0
	}
	if -exp > maxPriceDecimals {
		return maxPriceDecimals
	}
	return int(-exp)
}

// FormatPrice formats a price with a fixed number of decimals.
func FormatPrice(price float64, decimals int) string {
	return decimal.NewFromFloat(price).StringFixed(int32(decimals))
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatCount formats an integer with thousands separators.
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// PadLeft right-aligns s in a field of width runes.
func PadLeft(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}
