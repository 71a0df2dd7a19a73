package token

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToRaw parses a human decimal amount ("1.5") into raw base units for the
// asset's decimals. This is the only place user input crosses into integer
// arithmetic; everything past this point works on raw uint64 amounts.
func (a Asset) ToRaw(amount string) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative: %s", amount)
	}
	raw := d.Shift(int32(a.Decimals)).Truncate(0)
	if !raw.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s overflows u64 at %d decimals", amount, a.Decimals)
	}
	return raw.BigInt().Uint64(), nil
}

// FromRaw renders raw base units as a human decimal string.
func (a Asset) FromRaw(raw uint64) string {
	return decimal.NewFromUint64(raw).Shift(-int32(a.Decimals)).String()
}
