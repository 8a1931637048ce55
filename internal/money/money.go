// Package money keeps amounts in minor currency units.
//
// The only legitimate unit conversion in the service is FromLegacyMajor, used
// for the legacy course endpoint that still reports prices in major units.
// Every other amount crossing the backend boundary is already minor.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
)

const minorPerMajor = 100

var hundred = decimal.NewFromInt(minorPerMajor)

// FromLegacyMajor converts a major-unit amount ("499", "499.50", 499.5) to
// minor units. Negative amounts and sub-minor precision are rejected.
func FromLegacyMajor(major string) (int64, error) {
	major = strings.TrimSpace(major)
	if major == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(major)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domainErrors.ErrInvalidAmount, major)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", domainErrors.ErrInvalidAmount, major)
	}
	minor := d.Mul(hundred)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than two decimals", domainErrors.ErrInvalidAmount, major)
	}
	return minor.IntPart(), nil
}

// Format renders minor amount for display, e.g. 50000 INR -> "INR 500.00".
func Format(minor int64, currency string) string {
	return currency + " " + decimal.New(minor, -2).StringFixed(2)
}
