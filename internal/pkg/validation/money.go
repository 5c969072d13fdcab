package validation

import "github.com/shopspring/decimal"

// IsWholeCents reports whether d has no precision below one cent. Trailing
// zeros are fine ("10.500"); "0.005" is not.
func IsWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
