package pricemath

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/tickmath"
)

var (
	lowAddr  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	highAddr = common.HexToAddress("0xf000000000000000000000000000000000000001")
)

func TestSqrtPriceX96NoInversion(t *testing.T) {
	// Currency sorts before the token, so the auction orientation already
	// matches the pool orientation: sqrtPrice = floor(sqrt(priceX192)).
	price := new(uint256.Int).Lsh(uint256.NewInt(1), 192)
	got, err := SqrtPriceX96(price, highAddr, lowAddr)
	if err != nil {
		t.Fatalf("SqrtPriceX96: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	if !got.Eq(want) {
		t.Fatalf("SqrtPriceX96 = %s, want %s", got.Dec(), want.Dec())
	}
}

func TestSqrtPriceX96Inversion(t *testing.T) {
	// Token takes the currency0 slot; a 4x token-per-currency price must
	// become a sqrt pool price of 2^96/2.
	price := new(uint256.Int).Lsh(uint256.NewInt(4), 192)
	got, err := SqrtPriceX96(price, lowAddr, highAddr)
	if err != nil {
		t.Fatalf("SqrtPriceX96: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 95)
	if !got.Eq(want) {
		t.Fatalf("SqrtPriceX96 = %s, want %s", got.Dec(), want.Dec())
	}
}

func TestSqrtPriceX96Invalid(t *testing.T) {
	if _, err := SqrtPriceX96(uint256.NewInt(0), lowAddr, highAddr); err != ErrInvalidPrice {
		t.Errorf("zero price: got %v", err)
	}
	// sqrt(1) = 1, far below the admissible minimum.
	if _, err := SqrtPriceX96(uint256.NewInt(1), highAddr, lowAddr); err != ErrInvalidPrice {
		t.Errorf("tiny price: got %v", err)
	}
	// Inverting a price of 1 yields 2^192, which exceeds 160 bits.
	if _, err := SqrtPriceX96(uint256.NewInt(1), lowAddr, highAddr); err != ErrInvalidPrice {
		t.Errorf("inverted overflow: got %v", err)
	}
}

func TestSqrtPriceWithinTickBounds(t *testing.T) {
	price := new(uint256.Int).Lsh(uint256.NewInt(3), 190)
	got, err := SqrtPriceX96(price, highAddr, lowAddr)
	if err != nil {
		t.Fatalf("SqrtPriceX96: %v", err)
	}
	if got.Lt(tickmath.MinSqrtPrice) || !got.Lt(tickmath.MaxSqrtPrice) {
		t.Fatalf("result %s escapes global bounds", got.Dec())
	}
}

func TestTokenAmountForCurrencyExact(t *testing.T) {
	price := new(uint256.Int).Lsh(uint256.NewInt(1), 192) // 1:1
	tokenAmount, used, leftover, err := TokenAmountForCurrency(price, uint256.NewInt(500), uint256.NewInt(500))
	if err != nil {
		t.Fatalf("TokenAmountForCurrency: %v", err)
	}
	if tokenAmount.Uint64() != 500 {
		t.Errorf("tokenAmount = %d, want 500", tokenAmount.Uint64())
	}
	if used.Uint64() != 500 {
		t.Errorf("currencyUsed = %d, want 500", used.Uint64())
	}
	if !leftover.IsZero() {
		t.Errorf("leftover = %d, want 0", leftover.Uint64())
	}
}

func TestTokenAmountForCurrencyClamped(t *testing.T) {
	price := new(uint256.Int).Lsh(uint256.NewInt(1), 192)
	tokenAmount, used, leftover, err := TokenAmountForCurrency(price, uint256.NewInt(600), uint256.NewInt(500))
	if err != nil {
		t.Fatalf("TokenAmountForCurrency: %v", err)
	}
	if tokenAmount.Uint64() != 500 {
		t.Errorf("tokenAmount = %d, want 500 (clamped)", tokenAmount.Uint64())
	}
	if used.Uint64() != 500 {
		t.Errorf("currencyUsed = %d, want 500", used.Uint64())
	}
	if leftover.Uint64() != 100 {
		t.Errorf("leftover = %d, want 100", leftover.Uint64())
	}
}

func TestTokenAmountForCurrencyConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		price := new(uint256.Int).Lsh(uint256.NewInt(rng.Uint64()%(1<<40)+1), uint(160+rng.Intn(40)))
		currencyAmount := uint256.NewInt(rng.Uint64() % (1 << 50))
		ceiling := uint256.NewInt(rng.Uint64() % (1 << 50))

		tokenAmount, used, leftover, err := TokenAmountForCurrency(price, currencyAmount, ceiling)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if tokenAmount.Gt(ceiling) {
			t.Fatalf("case %d: tokenAmount %s exceeds ceiling %s", i, tokenAmount.Dec(), ceiling.Dec())
		}
		sum := new(uint256.Int).Add(used, leftover)
		if !sum.Eq(currencyAmount) {
			t.Fatalf("case %d: used %s + leftover %s != currency %s", i, used.Dec(), leftover.Dec(), currencyAmount.Dec())
		}
		if used.Gt(currencyAmount) {
			t.Fatalf("case %d: used %s exceeds currency %s", i, used.Dec(), currencyAmount.Dec())
		}
	}
}

func TestLiquidityForAmountsInsideRange(t *testing.T) {
	sqrtLow, err := tickmath.SqrtRatioAtTick(-600)
	if err != nil {
		t.Fatal(err)
	}
	sqrtHigh, err := tickmath.SqrtRatioAtTick(600)
	if err != nil {
		t.Fatal(err)
	}
	sqrtCur, err := tickmath.SqrtRatioAtTick(0)
	if err != nil {
		t.Fatal(err)
	}

	amount := uint256.NewInt(1_000_000)
	liquidity, err := LiquidityForAmounts(sqrtCur, sqrtLow, sqrtHigh, amount, amount)
	if err != nil {
		t.Fatalf("LiquidityForAmounts: %v", err)
	}
	if liquidity.IsZero() {
		t.Fatal("liquidity should be nonzero")
	}

	l0, err := LiquidityForAmount0(sqrtCur, sqrtHigh, amount)
	if err != nil {
		t.Fatal(err)
	}
	l1, err := LiquidityForAmount1(sqrtLow, sqrtCur, amount)
	if err != nil {
		t.Fatal(err)
	}
	min := l0
	if l1.Lt(l0) {
		min = l1
	}
	if !liquidity.Eq(min) {
		t.Fatalf("liquidity %s should be the min of %s and %s", liquidity.Dec(), l0.Dec(), l1.Dec())
	}
}

func TestLiquidityForAmountsOutsideRange(t *testing.T) {
	sqrtLow, _ := tickmath.SqrtRatioAtTick(100)
	sqrtHigh, _ := tickmath.SqrtRatioAtTick(200)
	sqrtBelow, _ := tickmath.SqrtRatioAtTick(0)
	sqrtAbove, _ := tickmath.SqrtRatioAtTick(300)

	amount0 := uint256.NewInt(1_000_000)
	amount1 := uint256.NewInt(2_000_000)

	below, err := LiquidityForAmounts(sqrtBelow, sqrtLow, sqrtHigh, amount0, amount1)
	if err != nil {
		t.Fatal(err)
	}
	want0, _ := LiquidityForAmount0(sqrtLow, sqrtHigh, amount0)
	if !below.Eq(want0) {
		t.Errorf("below range should only use amount0")
	}

	above, err := LiquidityForAmounts(sqrtAbove, sqrtLow, sqrtHigh, amount0, amount1)
	if err != nil {
		t.Fatal(err)
	}
	want1, _ := LiquidityForAmount1(sqrtLow, sqrtHigh, amount1)
	if !above.Eq(want1) {
		t.Errorf("above range should only use amount1")
	}
}

func TestParseFormatPriceX192(t *testing.T) {
	raw, err := ParsePriceX192("2", 18, 18)
	if err != nil {
		t.Fatalf("ParsePriceX192: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(2), 192)
	if !raw.Eq(want) {
		t.Fatalf("ParsePriceX192 = %s, want %s", raw.Dec(), want.Dec())
	}
	if got := FormatPriceX192(raw, 18, 18); got != "2" {
		t.Fatalf("FormatPriceX192 = %q, want \"2\"", got)
	}

	// Decimal scale difference shifts the raw value.
	raw6, err := ParsePriceX192("1", 18, 6)
	if err != nil {
		t.Fatalf("ParsePriceX192 scaled: %v", err)
	}
	want6 := new(uint256.Int).Mul(new(uint256.Int).Lsh(uint256.NewInt(1), 192), uint256.NewInt(1_000_000_000_000))
	if !raw6.Eq(want6) {
		t.Fatalf("ParsePriceX192 scaled = %s, want %s", raw6.Dec(), want6.Dec())
	}

	if _, err := ParsePriceX192("0", 18, 18); err == nil {
		t.Error("zero price should fail")
	}
	if _, err := ParsePriceX192("-1", 18, 18); err == nil {
		t.Error("negative price should fail")
	}
	if _, err := ParsePriceX192("nope", 18, 18); err == nil {
		t.Error("garbage price should fail")
	}
}
