package tickmath

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestFloorToSpacing(t *testing.T) {
	tests := []struct {
		tick    int32
		spacing int32
		want    int32
	}{
		{0, 60, 0},
		{59, 60, 0},
		{60, 60, 60},
		{61, 60, 60},
		{-1, 60, -60},
		{-60, 60, -60},
		{-61, 60, -120},
		{887272, 60, 887220},
		{-887272, 60, -887280},
	}
	for _, tt := range tests {
		if got := FloorToSpacing(tt.tick, tt.spacing); got != tt.want {
			t.Errorf("FloorToSpacing(%d, %d) = %d, want %d", tt.tick, tt.spacing, got, tt.want)
		}
	}
}

func TestCeilToSpacing(t *testing.T) {
	tests := []struct {
		tick    int32
		spacing int32
		want    int32
	}{
		{0, 60, 0},
		{1, 60, 60},
		{60, 60, 60},
		{-1, 60, 0},
		{-59, 60, 0},
		{-60, 60, -60},
		{-61, 60, -60},
		{-887272, 60, -887220},
	}
	for _, tt := range tests {
		if got := CeilToSpacing(tt.tick, tt.spacing); got != tt.want {
			t.Errorf("CeilToSpacing(%d, %d) = %d, want %d", tt.tick, tt.spacing, got, tt.want)
		}
	}
}

func TestStrictCeilToSpacing(t *testing.T) {
	// Aligned input must move a full spacing up, never stay in place.
	if got := StrictCeilToSpacing(120, 60); got != 180 {
		t.Errorf("StrictCeilToSpacing(120, 60) = %d, want 180", got)
	}
	if got := StrictCeilToSpacing(0, 60); got != 60 {
		t.Errorf("StrictCeilToSpacing(0, 60) = %d, want 60", got)
	}
	if got := StrictCeilToSpacing(-60, 60); got != 0 {
		t.Errorf("StrictCeilToSpacing(-60, 60) = %d, want 0", got)
	}
	// Unaligned behaves like CeilToSpacing.
	if got := StrictCeilToSpacing(61, 60); got != 120 {
		t.Errorf("StrictCeilToSpacing(61, 60) = %d, want 120", got)
	}
	if got := StrictCeilToSpacing(-61, 60); got != -60 {
		t.Errorf("StrictCeilToSpacing(-61, 60) = %d, want -60", got)
	}
}

func TestUsableTicks(t *testing.T) {
	if got := MinUsableTick(60); got != -887220 {
		t.Errorf("MinUsableTick(60) = %d, want -887220", got)
	}
	if got := MaxUsableTick(60); got != 887220 {
		t.Errorf("MaxUsableTick(60) = %d, want 887220", got)
	}
	if got := MinUsableTick(1); got != MinTick {
		t.Errorf("MinUsableTick(1) = %d, want %d", got, MinTick)
	}
	if got := MaxUsableTick(1); got != MaxTick {
		t.Errorf("MaxUsableTick(1) = %d, want %d", got, MaxTick)
	}
}

func TestMaxLiquidityPerTick(t *testing.T) {
	// Known value for spacing 60 from the reference tick bitmap layout.
	want := uint256.MustFromDecimal("11505743598341114571880798222544994")
	if got := MaxLiquidityPerTick(60); !got.Eq(want) {
		t.Errorf("MaxLiquidityPerTick(60) = %s, want %s", got.Dec(), want.Dec())
	}

	// Coarser spacing spans fewer ticks and therefore caps higher.
	if !MaxLiquidityPerTick(200).Gt(MaxLiquidityPerTick(10)) {
		t.Error("cap should grow with spacing")
	}
}

func TestSqrtRatioAtTickBounds(t *testing.T) {
	minRatio, err := SqrtRatioAtTick(MinTick)
	if err != nil {
		t.Fatalf("SqrtRatioAtTick(MinTick): %v", err)
	}
	if !minRatio.Eq(MinSqrtPrice) {
		t.Errorf("SqrtRatioAtTick(MinTick) = %s, want %s", minRatio.Dec(), MinSqrtPrice.Dec())
	}

	maxRatio, err := SqrtRatioAtTick(MaxTick)
	if err != nil {
		t.Fatalf("SqrtRatioAtTick(MaxTick): %v", err)
	}
	if !maxRatio.Eq(MaxSqrtPrice) {
		t.Errorf("SqrtRatioAtTick(MaxTick) = %s, want %s", maxRatio.Dec(), MaxSqrtPrice.Dec())
	}

	zeroRatio, err := SqrtRatioAtTick(0)
	if err != nil {
		t.Fatalf("SqrtRatioAtTick(0): %v", err)
	}
	q96 := uint256.MustFromDecimal("79228162514264337593543950336")
	if !zeroRatio.Eq(q96) {
		t.Errorf("SqrtRatioAtTick(0) = %s, want %s", zeroRatio.Dec(), q96.Dec())
	}

	if _, err := SqrtRatioAtTick(MaxTick + 1); err != ErrTickOutOfRange {
		t.Errorf("expected ErrTickOutOfRange, got %v", err)
	}
}

func TestTickAtSqrtRatioRoundTrip(t *testing.T) {
	for _, tick := range []int32{MinTick, -887220, -100000, -60, -1, 0, 1, 60, 100000, 887220, MaxTick - 1} {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("SqrtRatioAtTick(%d): %v", tick, err)
		}
		got, err := TickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("TickAtSqrtRatio at tick %d: %v", tick, err)
		}
		if got != tick {
			t.Errorf("round trip at tick %d got %d", tick, got)
		}
	}
}

func TestTickAtSqrtRatioOutOfRange(t *testing.T) {
	below := new(uint256.Int).SubUint64(MinSqrtPrice, 1)
	if _, err := TickAtSqrtRatio(below); err != ErrSqrtPriceOutOfRange {
		t.Errorf("below min: expected ErrSqrtPriceOutOfRange, got %v", err)
	}
	if _, err := TickAtSqrtRatio(MaxSqrtPrice); err != ErrSqrtPriceOutOfRange {
		t.Errorf("at max: expected ErrSqrtPriceOutOfRange, got %v", err)
	}
}
