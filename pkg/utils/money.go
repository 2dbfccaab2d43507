package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountExponent bounds the decimal exponent ParseAmount accepts in either direction.
// Rescaling "1e5000000" to cents builds a five-million-digit integer.
const maxAmountExponent = 10

// MaxAmount is the largest absolute amount ParseAmount accepts.
var MaxAmount = decimal.NewFromInt(1_000_000)

var ErrAmountOutOfRange = errors.New("amount out of range")

// ParseAmount parses a query-string amount. A decimal comma is accepted ("12,50"),
// an empty string yields fallback. Amounts beyond MaxAmount or with more than
// maxAmountExponent digits of scale fail with ErrAmountOutOfRange.
func ParseAmount(s string, fallback decimal.Decimal) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	// the exponent check must come first: comparing against MaxAmount rescales d
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountOutOfRange, s)
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountOutOfRange, s)
	}
	return d, nil
}
