package fullmath

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrDivisionByZero = errors.New("fullmath: division by zero")
	ErrOverflow       = errors.New("fullmath: result does not fit 256 bits")
)

var (
	one        = uint256.NewInt(1)
	maxUint256 = new(uint256.Int).Not(uint256.NewInt(0))
)

// MulDiv returns floor(a*b/denominator) computed with a 512-bit
// intermediate product.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	result, overflow := new(uint256.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	return result, nil
}

// MulDivRoundingUp returns ceil(a*b/denominator).
func MulDivRoundingUp(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	result, err := MulDiv(a, b, denominator)
	if err != nil {
		return nil, err
	}
	rem := new(uint256.Int).MulMod(a, b, denominator)
	if !rem.IsZero() {
		if result.Eq(maxUint256) {
			return nil, ErrOverflow
		}
		result.Add(result, one)
	}
	return result, nil
}

// DivRoundingUp returns ceil(a/denominator).
func DivRoundingUp(a, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	quot := new(uint256.Int).Div(a, denominator)
	rem := new(uint256.Int).Mod(a, denominator)
	if !rem.IsZero() {
		quot.Add(quot, one)
	}
	return quot, nil
}
