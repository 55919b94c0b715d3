package pricemath

import (
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/fullmath"
)

// LiquidityForAmount0 computes the largest liquidity fundable with amount0
// over the range [sqrtRatioAX96, sqrtRatioBX96].
func LiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0 *uint256.Int) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	intermediate, err := fullmath.MulDiv(sqrtRatioAX96, sqrtRatioBX96, q96)
	if err != nil {
		return nil, err
	}
	return fullmath.MulDiv(amount0, intermediate, new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96))
}

// LiquidityForAmount1 computes the largest liquidity fundable with amount1
// over the range [sqrtRatioAX96, sqrtRatioBX96].
func LiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1 *uint256.Int) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	return fullmath.MulDiv(amount1, q96, new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96))
}

// LiquidityForAmounts computes the two-sided liquidity for a range given the
// current sqrt price. When the price sits inside the range the result is the
// minimum of the liquidities each amount can fund on its own.
func LiquidityForAmounts(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *uint256.Int) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	switch {
	case !sqrtRatioX96.Gt(sqrtRatioAX96):
		return LiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0)
	case sqrtRatioX96.Lt(sqrtRatioBX96):
		liquidity0, err := LiquidityForAmount0(sqrtRatioX96, sqrtRatioBX96, amount0)
		if err != nil {
			return nil, err
		}
		liquidity1, err := LiquidityForAmount1(sqrtRatioAX96, sqrtRatioX96, amount1)
		if err != nil {
			return nil, err
		}
		if liquidity0.Lt(liquidity1) {
			return liquidity0, nil
		}
		return liquidity1, nil
	default:
		return LiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1)
	}
}
