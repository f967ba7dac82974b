package amm

import "github.com/shopspring/decimal"

// ToAtomic converts a display amount into atomic units, rounding down.
func ToAtomic(display decimal.Decimal, decimals uint8) decimal.Decimal {
	return display.Shift(int32(decimals)).Floor()
}

// FromAtomic converts atomic units into a display amount without rounding.
func FromAtomic(atomic decimal.Decimal, decimals uint8) decimal.Decimal {
	return atomic.Shift(-int32(decimals))
}

// FormatAtomic renders an atomic amount in display units with exactly
// decimals fractional digits.
func FormatAtomic(atomic decimal.Decimal, decimals uint8) string {
	return FromAtomic(atomic, decimals).StringFixed(int32(decimals))
}

// ParseAmount parses a user-entered amount. Empty or malformed input is zero so
// partially typed fields quote as zero.
func ParseAmount(input string) decimal.Decimal {
	if input == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero
	}
	return d
}
