// Package pricemath converts auction clearing prices into the pool's
// fixed-point price representations and matches raised currency against a
// token reserve at that price.
//
// A clearing price is always expressed as token units per one currency
// unit, scaled by 2^192. Pool prices follow the convention of pricing
// currency0 in currency1, so the sqrt price is inverted whenever the
// currency sorts after the token.
package pricemath

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/fullmath"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/tickmath"
)

var ErrInvalidPrice = errors.New("pricemath: invalid price")

var (
	q96        = uint256.MustFromDecimal("79228162514264337593543950336")
	q192       = new(uint256.Int).Lsh(uint256.NewInt(1), 192)
	maxUint160 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 160), 1)
)

// TokenIsCurrency0 reports whether the token sorts before the currency and
// therefore takes the currency0 slot of the pool.
func TokenIsCurrency0(token, currency common.Address) bool {
	return bytes.Compare(token.Bytes(), currency.Bytes()) < 0
}

// SqrtPriceX96 derives the pool's starting sqrt price from a Q192
// token-per-currency clearing price.
//
// Fails with ErrInvalidPrice when the raw price is zero, when the inverted
// price would not fit 160 bits, or when the result falls outside the global
// admissible sqrt price bounds.
func SqrtPriceX96(priceX192 *uint256.Int, token, currency common.Address) (*uint256.Int, error) {
	if priceX192 == nil || priceX192.IsZero() {
		return nil, ErrInvalidPrice
	}

	sqrtPrice := new(uint256.Int).Sqrt(priceX192)
	if TokenIsCurrency0(token, currency) {
		// The pool prices the token in currency, the inverse of the
		// auction orientation. Invert in sqrt space.
		sqrtPrice.Div(q192, sqrtPrice)
		if sqrtPrice.Gt(maxUint160) {
			return nil, ErrInvalidPrice
		}
	}

	if sqrtPrice.Lt(tickmath.MinSqrtPrice) || !sqrtPrice.Lt(tickmath.MaxSqrtPrice) {
		return nil, ErrInvalidPrice
	}
	return sqrtPrice, nil
}

// TokenAmountForCurrency matches currencyAmount against the token reserve at
// priceX192. When the naive token amount exceeds reserveCeiling it is clamped
// there and the currency actually consumed is recomputed, with the remainder
// reported as leftover.
//
// For every valid input, currencyUsed + leftover == currencyAmount and
// tokenAmount <= reserveCeiling.
func TokenAmountForCurrency(priceX192, currencyAmount, reserveCeiling *uint256.Int) (tokenAmount, currencyUsed, leftover *uint256.Int, err error) {
	if priceX192 == nil || priceX192.IsZero() {
		return nil, nil, nil, ErrInvalidPrice
	}

	tokenAmount, err = fullmath.MulDiv(currencyAmount, priceX192, q192)
	if err != nil {
		return nil, nil, nil, err
	}

	if !tokenAmount.Gt(reserveCeiling) {
		return tokenAmount, new(uint256.Int).Set(currencyAmount), new(uint256.Int), nil
	}

	tokenAmount = new(uint256.Int).Set(reserveCeiling)
	currencyUsed, err = fullmath.MulDivRoundingUp(reserveCeiling, q192, priceX192)
	if err != nil {
		return nil, nil, nil, err
	}
	if currencyUsed.Gt(currencyAmount) {
		currencyUsed.Set(currencyAmount)
	}
	leftover = new(uint256.Int).Sub(currencyAmount, currencyUsed)
	return tokenAmount, currencyUsed, leftover, nil
}
