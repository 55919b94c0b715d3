package main

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/planner"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/pricemath"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/strategy"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/tickmath"
)

// Placeholder pool assets for offline planning; --token-first flips which
// address slot the token occupies.
var (
	planSlotA = common.HexToAddress("0x0000000000000000000000000000000000000001")
	planSlotB = common.HexToAddress("0x0000000000000000000000000000000000000002")
	planOwner = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

type planOutput struct {
	PriceX192        string   `json:"price_x192"`
	SqrtPriceX96     string   `json:"sqrt_price_x96"`
	Tick             int32    `json:"tick"`
	TokenAmount      string   `json:"token_amount"`
	CurrencyUsed     string   `json:"currency_used"`
	LeftoverCurrency string   `json:"leftover_currency"`
	Liquidity        string   `json:"liquidity"`
	OneSidedIncluded bool     `json:"one_sided_included"`
	Ops              []planOp `json:"ops"`
}

type planOp struct {
	Seq    int    `json:"seq"`
	Action uint8  `json:"action"`
	Params string `json:"params"`
}

func runPlan(cmd *cobra.Command, _ []string) error {
	priceStr, _ := cmd.Flags().GetString("price")
	raisedStr, _ := cmd.Flags().GetString("raised")
	reserveStr, _ := cmd.Flags().GetString("reserve")
	tokenDecimals, _ := cmd.Flags().GetUint("token-decimals")
	currencyDecimals, _ := cmd.Flags().GetUint("currency-decimals")
	fee, _ := cmd.Flags().GetUint32("fee")
	tickSpacing, _ := cmd.Flags().GetInt32("tick-spacing")
	tokenFirst, _ := cmd.Flags().GetBool("token-first")
	policyStr, _ := cmd.Flags().GetString("one-sided-policy")

	if priceStr == "" || raisedStr == "" || reserveStr == "" {
		return fmt.Errorf("price, raised, and reserve are required")
	}
	policy, err := strategy.ParseOneSidedPolicy(policyStr)
	if err != nil {
		return err
	}
	raised, err := uint256.FromDecimal(raisedStr)
	if err != nil {
		return fmt.Errorf("parse raised: %w", err)
	}
	reserve, err := uint256.FromDecimal(reserveStr)
	if err != nil {
		return fmt.Errorf("parse reserve: %w", err)
	}
	priceX192, err := pricemath.ParsePriceX192(priceStr, int32(tokenDecimals), int32(currencyDecimals))
	if err != nil {
		return err
	}

	tokenAddr, currencyAddr := planSlotB, planSlotA
	if tokenFirst {
		tokenAddr, currencyAddr = planSlotA, planSlotB
	}

	sqrtPriceX96, err := pricemath.SqrtPriceX96(priceX192, tokenAddr, currencyAddr)
	if err != nil {
		return err
	}
	tick, err := tickmath.TickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return err
	}
	tokenAmount, currencyUsed, leftover, err := pricemath.TokenAmountForCurrency(priceX192, raised, reserve)
	if err != nil {
		return err
	}

	poolCfg := planner.PoolConfig{
		Token:       tokenAddr,
		Currency:    currencyAddr,
		Fee:         fee,
		TickSpacing: tickSpacing,
	}
	plan, liquidity, err := planner.FullRange(poolCfg, sqrtPriceX96, tokenAmount, currencyUsed, planOwner)
	if err != nil {
		return err
	}

	tokenLeftover := new(uint256.Int).Sub(reserve, tokenAmount)
	oneSidedAsset, oneSidedAmount := tokenAddr, tokenLeftover
	if !leftover.IsZero() {
		oneSidedAsset, oneSidedAmount = currencyAddr, leftover
	}
	allowed := policy == strategy.PolicyAuto ||
		(policy == strategy.PolicyTokenOnly && oneSidedAsset == tokenAddr) ||
		(policy == strategy.PolicyCurrencyOnly && oneSidedAsset == currencyAddr)

	included := false
	if allowed && !oneSidedAmount.IsZero() {
		included, err = planner.OneSided(poolCfg, planner.OneSidedSpec{
			SqrtPriceX96: sqrtPriceX96,
			Asset:        oneSidedAsset,
			Amount:       oneSidedAmount,
			Recipient:    planOwner,
		}, plan, liquidity)
		if err != nil {
			return err
		}
	}
	if err := planner.FinalTakePair(poolCfg, plan, planOwner); err != nil {
		return err
	}
	if err := plan.Finalize(); err != nil {
		return err
	}
	actions, err := plan.Actions()
	if err != nil {
		return err
	}
	params, err := plan.Params()
	if err != nil {
		return err
	}

	out := planOutput{
		PriceX192:        priceX192.Dec(),
		SqrtPriceX96:     sqrtPriceX96.Dec(),
		Tick:             tick,
		TokenAmount:      tokenAmount.Dec(),
		CurrencyUsed:     currencyUsed.Dec(),
		LeftoverCurrency: leftover.Dec(),
		Liquidity:        liquidity.Dec(),
		OneSidedIncluded: included,
		Ops:              make([]planOp, len(actions)),
	}
	for i, action := range actions {
		out.Ops[i] = planOp{Seq: i, Action: action, Params: hexutil.Encode(params[i])}
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
