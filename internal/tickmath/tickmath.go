// Package tickmath holds the pure integer tick arithmetic shared by the
// planner and the pool ledger. All position boundaries must be produced by
// the spacing helpers here; ad hoc rounding elsewhere leads to misaligned
// positions.
package tickmath

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the lowest tick usable on any pool.
	MinTick int32 = -887272
	// MaxTick is the highest tick usable on any pool.
	MaxTick int32 = -MinTick

	// MinTickSpacing and MaxTickSpacing bound the admissible pool
	// tick spacings.
	MinTickSpacing int32 = 1
	MaxTickSpacing int32 = 32767
)

var (
	// MinSqrtPrice is the sqrt price at MinTick.
	MinSqrtPrice = uint256.NewInt(4295128739)
	// MaxSqrtPrice is the sqrt price at MaxTick.
	MaxSqrtPrice = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")
)

var (
	ErrTickOutOfRange      = errors.New("tickmath: tick out of range")
	ErrSqrtPriceOutOfRange = errors.New("tickmath: sqrt price out of range")
)

var (
	one         = uint256.NewInt(1)
	q32         = uint256.NewInt(1 << 32)
	maxUint128  = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(one, 128), 1)
	maxUint256  = new(uint256.Int).Not(uint256.NewInt(0))
	ratioAtBit  [20]*uint256.Int
	ratioAtZero = uint256.MustFromHex("0x100000000000000000000000000000000")
)

func init() {
	for i, hex := range []string{
		"0xfffcb933bd6fad37aa2d162d1a594001",
		"0xfff97272373d413259a46990580e213a",
		"0xfff2e50f5f656932ef12357cf3c7fdcc",
		"0xffe5caca7e10e4e61c3624eaa0941cd0",
		"0xffcb9843d60f6159c9db58835c926644",
		"0xff973b41fa98c081472e6896dfb254c0",
		"0xff2ea16466c96a3843ec78b326b52861",
		"0xfe5dee046a99a2a811c461f1969c3053",
		"0xfcbe86c7900a88aedcffc83b479aa3a4",
		"0xf987a7253ac413176f2b074cf7815e54",
		"0xf3392b0822b70005940c7a398e4b70f3",
		"0xe7159475a2c29b7443b29c7fa6e889d9",
		"0xd097f3bdfd2022b8845ad8f792aa5825",
		"0xa9f746462d870fdf8a65dc1f90e061e5",
		"0x70d869a156d2a1b890bb3df62baf32f7",
		"0x31be135f97d08fd981231505542fcfa6",
		"0x9aa508b5b7a84e1c677de54f3e99bc9",
		"0x5d6af8dedb81196699c329225ee604",
		"0x2216e584f5fa1ea926041bedfe98",
		"0x48a170391f7dc42444e8fa2",
	} {
		ratioAtBit[i] = uint256.MustFromHex(hex)
	}
}

// FloorToSpacing rounds tick down to the nearest multiple of spacing.
func FloorToSpacing(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}

// CeilToSpacing rounds tick up to the nearest multiple of spacing.
func CeilToSpacing(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && tick > 0 {
		q++
	}
	return q * spacing
}

// StrictCeilToSpacing rounds up like CeilToSpacing but always moves an
// already-aligned tick up by one full spacing.
func StrictCeilToSpacing(tick, spacing int32) int32 {
	if tick%spacing == 0 {
		return tick + spacing
	}
	return CeilToSpacing(tick, spacing)
}

// MinUsableTick is the lowest spacing-aligned tick.
func MinUsableTick(spacing int32) int32 {
	return CeilToSpacing(MinTick, spacing)
}

// MaxUsableTick is the highest spacing-aligned tick.
func MaxUsableTick(spacing int32) int32 {
	return FloorToSpacing(MaxTick, spacing)
}

// MaxLiquidityPerTick splits the global uint128 liquidity budget across
// every distinct usable tick for the given spacing.
func MaxLiquidityPerTick(spacing int32) *uint256.Int {
	numTicks := uint64((MaxUsableTick(spacing)-MinUsableTick(spacing))/spacing + 1)
	return new(uint256.Int).Div(maxUint128, uint256.NewInt(numTicks))
}

// SqrtRatioAtTick returns sqrt(1.0001)^tick as a Q64.96 value, computed by
// the standard bit decomposition over precomputed Q128 ratios.
func SqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}
	if absTick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	ratio := new(uint256.Int).Set(ratioAtZero)
	if absTick&1 != 0 {
		ratio.Set(ratioAtBit[0])
	}
	for bit := 1; bit < 20; bit++ {
		if absTick&(1<<bit) != 0 {
			ratio.Rsh(ratio.Mul(ratio, ratioAtBit[bit]), 128)
		}
	}
	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128 down to Q96, rounding up.
	result := new(uint256.Int)
	if !new(uint256.Int).Mod(ratio, q32).IsZero() {
		result.AddUint64(result.Div(ratio, q32), 1)
	} else {
		result.Div(ratio, q32)
	}
	return result, nil
}

// TickAtSqrtRatio returns the largest tick whose sqrt ratio is less than or
// equal to sqrtPriceX96, via the fixed-point log2 decomposition.
func TickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96.Lt(MinSqrtPrice) || !sqrtPriceX96.Lt(MaxSqrtPrice) {
		return 0, ErrSqrtPriceOutOfRange
	}

	ratioX128 := new(uint256.Int).Lsh(sqrtPriceX96, 32)
	msb := uint(ratioX128.BitLen() - 1)

	r := new(uint256.Int)
	if msb >= 128 {
		r.Rsh(ratioX128, msb-127)
	} else {
		r.Lsh(ratioX128, 127-msb)
	}

	// log2 in signed Q64.64, two's complement over uint256.
	log2 := new(uint256.Int).Sub(uint256.NewInt(uint64(msb)), uint256.NewInt(128))
	log2.Lsh(log2, 64)

	for i := 0; i < 14; i++ {
		r.Rsh(r.Mul(r, r), 127)
		f := new(uint256.Int).Rsh(r, 128)
		log2.Or(log2, new(uint256.Int).Lsh(f, uint(63-i)))
		r.Rsh(r, uint(f.Uint64()))
	}

	logSqrt10001 := new(uint256.Int).Mul(log2, uint256.MustFromHex("0x3627A301D71055774C85"))

	tickLow := int32(int64(new(uint256.Int).Rsh(
		new(uint256.Int).Sub(logSqrt10001, uint256.MustFromHex("0x28F6481AB7F045A5AF012A19D003AAA")), 128).Uint64()))
	tickHigh := int32(int64(new(uint256.Int).Rsh(
		new(uint256.Int).Add(logSqrt10001, uint256.MustFromHex("0xDB2DF09E81959A81455E260799A0632F")), 128).Uint64()))

	if tickLow == tickHigh {
		return tickLow, nil
	}
	ratioHigh, err := SqrtRatioAtTick(tickHigh)
	if err != nil {
		return 0, err
	}
	if !sqrtPriceX96.Lt(ratioHigh) {
		return tickHigh, nil
	}
	return tickLow, nil
}
