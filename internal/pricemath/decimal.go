package pricemath

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var two192Dec = decimal.NewFromBigInt(q192.ToBig(), 0)

// ParsePriceX192 converts a human-readable token-per-currency price into its
// Q192 raw representation, accounting for the decimal scale of both assets.
func ParsePriceX192(price string, tokenDecimals, currencyDecimals int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	if d.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	raw := d.Shift(tokenDecimals - currencyDecimals).Mul(two192Dec).BigInt()
	out, overflow := uint256.FromBig(raw)
	if overflow || out.IsZero() {
		return nil, ErrInvalidPrice
	}
	return out, nil
}

// FormatPriceX192 renders a Q192 raw price back into a human-readable
// decimal string.
func FormatPriceX192(priceX192 *uint256.Int, tokenDecimals, currencyDecimals int32) string {
	d := decimal.NewFromBigInt(priceX192.ToBig(), 0)
	return d.DivRound(two192Dec, 36).Shift(currencyDecimals - tokenDecimals).String()
}
