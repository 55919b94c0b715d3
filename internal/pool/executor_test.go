package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/planner"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/token"
)

var executorAddr = common.HexToAddress("0xe00000000000000000000000000000000000000e")

func newTestExecutor(t *testing.T, nowFn func() uint64) (*PositionManager, *Manager, *token.Ledger) {
	t.Helper()
	m, ledger := newTestManager(t)
	pm := NewPositionManager(PositionManagerOptions{
		Address:  executorAddr,
		Manager:  m,
		RefundTo: executorAddr,
		Now:      nowFn,
	})
	return pm, m, ledger
}

func buildFullRangePlan(t *testing.T, tokenAmount, currencyAmount uint64) (cfg planner.PoolConfig, actions []byte, params [][]byte) {
	t.Helper()
	cfg = planner.PoolConfig{
		Token:       currency0,
		Currency:    currency1,
		Fee:         3000,
		TickSpacing: 60,
	}
	plan, _, err := planner.FullRange(cfg, sqrtPriceOne(), uint256.NewInt(tokenAmount), uint256.NewInt(currencyAmount), executorAddr)
	if err != nil {
		t.Fatalf("FullRange: %v", err)
	}
	if err := planner.FinalTakePair(cfg, plan, executorAddr); err != nil {
		t.Fatal(err)
	}
	if err := plan.Finalize(); err != nil {
		t.Fatal(err)
	}
	actions, err = plan.Actions()
	if err != nil {
		t.Fatal(err)
	}
	params, err = plan.Params()
	if err != nil {
		t.Fatal(err)
	}
	return cfg, actions, params
}

func TestSubmitPlanFullRange(t *testing.T) {
	pm, m, ledger := newTestExecutor(t, nil)
	if _, err := m.Initialize(testKey(), sqrtPriceOne()); err != nil {
		t.Fatal(err)
	}
	for _, asset := range []common.Address{currency0, currency1} {
		if err := ledger.Mint(asset, executorAddr, uint256.NewInt(1_000_000)); err != nil {
			t.Fatal(err)
		}
	}

	_, actions, params := buildFullRangePlan(t, 1_000_000, 1_000_000)
	if err := pm.SubmitPlan(context.Background(), actions, params, 0); err != nil {
		t.Fatalf("SubmitPlan: %v", err)
	}

	liq, ok := m.PositionLiquidity(testKey(), executorAddr, -887_220, 887_220)
	if !ok || liq.IsZero() {
		t.Fatalf("full-range position missing (ok=%v)", ok)
	}
	// Conservation across executor + manager: the mint consumed what the
	// settles paid in, and the terminal take-pair returned the rest.
	for _, asset := range []common.Address{currency0, currency1} {
		execBal := ledger.BalanceOf(asset, executorAddr)
		mgrBal := ledger.BalanceOf(asset, managerAddr)
		total := new(uint256.Int).Add(execBal, mgrBal)
		if total.Uint64() != 1_000_000 {
			t.Errorf("asset %s total = %d, want 1000000", asset.Hex(), total.Uint64())
		}
		if mgrBal.IsZero() {
			t.Errorf("asset %s: manager took nothing", asset.Hex())
		}
	}
}

func TestSubmitPlanAtomicOnFailure(t *testing.T) {
	pm, m, ledger := newTestExecutor(t, nil)
	if _, err := m.Initialize(testKey(), sqrtPriceOne()); err != nil {
		t.Fatal(err)
	}
	// Fund only one side; settlement of the other cannot be afforded.
	if err := ledger.Mint(currency0, executorAddr, uint256.NewInt(1_000_000)); err != nil {
		t.Fatal(err)
	}

	_, actions, params := buildFullRangePlan(t, 1_000_000, 1_000_000)
	if err := pm.SubmitPlan(context.Background(), actions, params, 0); err == nil {
		t.Fatal("underfunded plan must fail")
	}
	if _, ok := m.PositionLiquidity(testKey(), executorAddr, -887_220, 887_220); ok {
		t.Error("position survived a failed plan")
	}
	if got := ledger.BalanceOf(currency0, executorAddr).Uint64(); got != 1_000_000 {
		t.Errorf("executor balance = %d after failed plan, want untouched", got)
	}
	if got := ledger.BalanceOf(currency0, managerAddr).Uint64(); got != 0 {
		t.Errorf("manager balance = %d after failed plan", got)
	}
}

func TestSubmitPlanDeadline(t *testing.T) {
	clock := uint64(100)
	pm, m, _ := newTestExecutor(t, func() uint64 { return clock })
	if _, err := m.Initialize(testKey(), sqrtPriceOne()); err != nil {
		t.Fatal(err)
	}
	_, actions, params := buildFullRangePlan(t, 1, 1)
	if err := pm.SubmitPlan(context.Background(), actions, params, 99); !errors.Is(err, ErrDeadlineExceeded) {
		t.Errorf("expired deadline: got %v", err)
	}
}

func TestSubmitPlanShapeMismatch(t *testing.T) {
	pm, _, _ := newTestExecutor(t, nil)
	err := pm.SubmitPlan(context.Background(), []byte{planner.ActionSettle}, nil, 0)
	if !errors.Is(err, ErrPlanShapeMismatch) {
		t.Errorf("got %v, want ErrPlanShapeMismatch", err)
	}
}

func TestSubmitPlanUnknownAction(t *testing.T) {
	pm, m, _ := newTestExecutor(t, nil)
	if _, err := m.Initialize(testKey(), sqrtPriceOne()); err != nil {
		t.Fatal(err)
	}
	err := pm.SubmitPlan(context.Background(), []byte{0xff}, [][]byte{nil}, 0)
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("got %v, want ErrUnknownAction", err)
	}
}

func TestSubmitPlanEnforcesMintCaps(t *testing.T) {
	pm, m, ledger := newTestExecutor(t, nil)
	if _, err := m.Initialize(testKey(), sqrtPriceOne()); err != nil {
		t.Fatal(err)
	}
	for _, asset := range []common.Address{currency0, currency1} {
		if err := ledger.Mint(asset, executorAddr, uint256.NewInt(1_000_000)); err != nil {
			t.Fatal(err)
		}
	}

	settle0, err := planner.EncodeSettle(planner.SettleParams{Currency: currency0, Amount: uint256.NewInt(1_000_000)})
	if err != nil {
		t.Fatal(err)
	}
	settle1, err := planner.EncodeSettle(planner.SettleParams{Currency: currency1, Amount: uint256.NewInt(1_000_000)})
	if err != nil {
		t.Fatal(err)
	}
	mint, err := planner.EncodeMint(planner.MintParams{
		Currency0:   currency0,
		Currency1:   currency1,
		Fee:         3000,
		TickSpacing: 60,
		TickLower:   -600,
		TickUpper:   600,
		Liquidity:   uint256.NewInt(1_000_000),
		Amount0Max:  uint256.NewInt(1),
		Amount1Max:  uint256.NewInt(1),
		Recipient:   executorAddr,
	})
	if err != nil {
		t.Fatal(err)
	}

	actions := []byte{planner.ActionSettle, planner.ActionSettle, planner.ActionMintPosition}
	params := [][]byte{settle0, settle1, mint}
	if err := pm.SubmitPlan(context.Background(), actions, params, 0); err == nil {
		t.Fatal("mint beyond amount caps must fail")
	}
}
