package planner

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/pricemath"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/tickmath"
)

// PoolConfig identifies the target pool in auction orientation: Token is the
// launched asset, Currency the asset raised by the auction.
type PoolConfig struct {
	Token       common.Address
	Currency    common.Address
	Fee         uint32
	TickSpacing int32
}

// Sorted returns the pool's currency pair in address order.
func (c PoolConfig) Sorted() (currency0, currency1 common.Address) {
	if pricemath.TokenIsCurrency0(c.Token, c.Currency) {
		return c.Token, c.Currency
	}
	return c.Currency, c.Token
}

// TickBounds is a candidate one-sided tick range. The zero value is the "no
// valid range" sentinel; callers must test it through Valid, never by
// comparing ticks against zero.
type TickBounds struct {
	Lower int32
	Upper int32
}

// Valid reports whether the bounds describe a non-empty range.
func (b TickBounds) Valid() bool {
	return b.Lower < b.Upper
}

// FullRange builds the mandatory position over the widest usable tick range
// and appends its four operations: settle both currencies, mint, then
// clear-or-take the token-side rounding slack. It does not cap-check the
// resulting liquidity; that decision belongs to the orchestrator, which
// treats an oversized full-range position as a hard failure.
func FullRange(cfg PoolConfig, sqrtPriceX96, tokenAmount, currencyAmount *uint256.Int, recipient common.Address) (*Plan, *uint256.Int, error) {
	currency0, currency1 := cfg.Sorted()
	amount0, amount1 := currencyAmount, tokenAmount
	if currency0 == cfg.Token {
		amount0, amount1 = tokenAmount, currencyAmount
	}

	tickLower := tickmath.MinUsableTick(cfg.TickSpacing)
	tickUpper := tickmath.MaxUsableTick(cfg.TickSpacing)
	sqrtLower, err := tickmath.SqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtUpper, err := tickmath.SqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}

	liquidity, err := pricemath.LiquidityForAmounts(sqrtPriceX96, sqrtLower, sqrtUpper, amount0, amount1)
	if err != nil {
		return nil, nil, fmt.Errorf("full range liquidity: %w", err)
	}

	settle0, err := EncodeSettle(SettleParams{Currency: currency0, Amount: amount0})
	if err != nil {
		return nil, nil, err
	}
	settle1, err := EncodeSettle(SettleParams{Currency: currency1, Amount: amount1})
	if err != nil {
		return nil, nil, err
	}
	mint, err := EncodeMint(MintParams{
		Currency0:   currency0,
		Currency1:   currency1,
		Fee:         cfg.Fee,
		TickSpacing: cfg.TickSpacing,
		TickLower:   tickLower,
		TickUpper:   tickUpper,
		Liquidity:   liquidity,
		Amount0Max:  amount0,
		Amount1Max:  amount1,
		Recipient:   recipient,
	})
	if err != nil {
		return nil, nil, err
	}
	clear, err := EncodeClearOrTake(ClearOrTakeParams{Currency: cfg.Token, AmountMax: tokenAmount})
	if err != nil {
		return nil, nil, err
	}

	plan := NewPlan()
	for _, op := range []struct {
		action byte
		params []byte
	}{
		{ActionSettle, settle0},
		{ActionSettle, settle1},
		{ActionMintPosition, mint},
		{ActionClearOrTake, clear},
	} {
		if err := plan.Add(op.action, op.params); err != nil {
			return nil, nil, err
		}
	}
	return plan, liquidity, nil
}

// OneSidedSpec describes the optional leftover position: the single asset
// funding it and the amount available.
type OneSidedSpec struct {
	SqrtPriceX96 *uint256.Int
	Asset        common.Address
	Amount       *uint256.Int
	Recipient    common.Address
}

// OneSidedBounds computes the tick range for a position funded entirely by
// one asset. A currency0 position sits strictly above the current tick, a
// currency1 position strictly below. Degenerate ranges near the extremes
// collapse to the sentinel bounds.
func OneSidedBounds(spacing int32, currentTick int32, assetIsCurrency0 bool) TickBounds {
	if assetIsCurrency0 {
		lower := tickmath.StrictCeilToSpacing(currentTick, spacing)
		upper := tickmath.MaxUsableTick(spacing)
		if lower >= upper {
			return TickBounds{}
		}
		return TickBounds{Lower: lower, Upper: upper}
	}
	lower := tickmath.MinUsableTick(spacing)
	upper := tickmath.FloorToSpacing(currentTick, spacing)
	if upper <= lower {
		return TickBounds{}
	}
	return TickBounds{Lower: lower, Upper: upper}
}

// OneSided appends the optional one-sided position to plan: settle, mint,
// clear-or-take. It degrades gracefully rather than failing: when the tick
// range is degenerate, the amount funds no liquidity, or the combined
// liquidity would exceed the per-tick cap, the plan is left untouched and
// included is false. An error is only returned for genuinely invalid input.
func OneSided(cfg PoolConfig, spec OneSidedSpec, plan *Plan, existingLiquidity *uint256.Int) (included bool, err error) {
	if spec.Amount == nil || spec.Amount.IsZero() {
		return false, nil
	}

	currentTick, err := tickmath.TickAtSqrtRatio(spec.SqrtPriceX96)
	if err != nil {
		return false, err
	}

	currency0, currency1 := cfg.Sorted()
	assetIsCurrency0 := spec.Asset == currency0

	bounds := OneSidedBounds(cfg.TickSpacing, currentTick, assetIsCurrency0)
	if !bounds.Valid() {
		return false, nil
	}

	sqrtLower, err := tickmath.SqrtRatioAtTick(bounds.Lower)
	if err != nil {
		return false, err
	}
	sqrtUpper, err := tickmath.SqrtRatioAtTick(bounds.Upper)
	if err != nil {
		return false, err
	}

	var liquidity *uint256.Int
	if assetIsCurrency0 {
		liquidity, err = pricemath.LiquidityForAmount0(sqrtLower, sqrtUpper, spec.Amount)
	} else {
		liquidity, err = pricemath.LiquidityForAmount1(sqrtLower, sqrtUpper, spec.Amount)
	}
	if err != nil {
		return false, fmt.Errorf("one-sided liquidity: %w", err)
	}
	if liquidity.IsZero() {
		return false, nil
	}

	combined := new(uint256.Int).Add(existingLiquidity, liquidity)
	if combined.Gt(tickmath.MaxLiquidityPerTick(cfg.TickSpacing)) {
		return false, nil
	}

	amount0Max, amount1Max := new(uint256.Int), new(uint256.Int)
	if assetIsCurrency0 {
		amount0Max = spec.Amount
	} else {
		amount1Max = spec.Amount
	}

	settle, err := EncodeSettle(SettleParams{Currency: spec.Asset, Amount: spec.Amount})
	if err != nil {
		return false, err
	}
	mint, err := EncodeMint(MintParams{
		Currency0:   currency0,
		Currency1:   currency1,
		Fee:         cfg.Fee,
		TickSpacing: cfg.TickSpacing,
		TickLower:   bounds.Lower,
		TickUpper:   bounds.Upper,
		Liquidity:   liquidity,
		Amount0Max:  amount0Max,
		Amount1Max:  amount1Max,
		Recipient:   spec.Recipient,
	})
	if err != nil {
		return false, err
	}
	clear, err := EncodeClearOrTake(ClearOrTakeParams{Currency: spec.Asset, AmountMax: spec.Amount})
	if err != nil {
		return false, err
	}

	for _, op := range []struct {
		action byte
		params []byte
	}{
		{ActionSettle, settle},
		{ActionMintPosition, mint},
		{ActionClearOrTake, clear},
	} {
		if err := plan.Add(op.action, op.params); err != nil {
			return false, err
		}
	}
	return true, nil
}

// FinalTakePair appends the terminal operation recovering any residual open
// balances of both currencies back to the orchestrator.
func FinalTakePair(cfg PoolConfig, plan *Plan, recipient common.Address) error {
	currency0, currency1 := cfg.Sorted()
	params, err := EncodeTakePair(TakePairParams{
		Currency0: currency0,
		Currency1: currency1,
		Recipient: recipient,
	})
	if err != nil {
		return err
	}
	return plan.Add(ActionTakePair, params)
}
