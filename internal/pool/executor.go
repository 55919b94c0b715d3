package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/planner"
)

var (
	ErrPlanShapeMismatch = errors.New("pool: actions and params length mismatch")
	ErrDeadlineExceeded  = errors.New("pool: plan deadline exceeded")
	ErrUnknownAction     = errors.New("pool: unknown plan action")
)

// PositionManager executes finalized plans against the pool manager. The
// whole batch runs inside a single unlock, so a failing operation leaves
// neither pool state nor ledger balances changed.
type PositionManager struct {
	addr     common.Address
	mgr      *Manager
	refundTo common.Address
	now      func() uint64
	logger   *zap.Logger
}

// PositionManagerOptions wires the executor's collaborators. Now defaults to
// a zero clock, which disables deadline enforcement in tests.
type PositionManagerOptions struct {
	Address  common.Address
	Manager  *Manager
	RefundTo common.Address
	Now      func() uint64
	Logger   *zap.Logger
}

func NewPositionManager(opts PositionManagerOptions) *PositionManager {
	now := opts.Now
	if now == nil {
		now = func() uint64 { return 0 }
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PositionManager{
		addr:     opts.Address,
		mgr:      opts.Manager,
		refundTo: opts.RefundTo,
		now:      now,
		logger:   logger,
	}
}

func (pm *PositionManager) Address() common.Address {
	return pm.addr
}

// SubmitPlan runs the batch atomically: every operation inside one unlock,
// all deltas zero at the end, ledger transfers applied only on full success.
func (pm *PositionManager) SubmitPlan(_ context.Context, actions []byte, params [][]byte, deadline uint64) error {
	if len(actions) != len(params) {
		return ErrPlanShapeMismatch
	}
	if deadline != 0 && pm.now() > deadline {
		return ErrDeadlineExceeded
	}

	err := pm.mgr.Unlock(func() error {
		for i, action := range actions {
			if err := pm.dispatch(action, params[i]); err != nil {
				return fmt.Errorf("plan op %d (0x%02x): %w", i, action, err)
			}
		}
		return nil
	})
	if err != nil {
		pm.logger.Warn("plan rejected", zap.Int("ops", len(actions)), zap.Error(err))
		return err
	}
	pm.logger.Info("plan executed", zap.Int("ops", len(actions)))
	return nil
}

func (pm *PositionManager) dispatch(action byte, params []byte) error {
	switch action {
	case planner.ActionSettle:
		p, err := planner.DecodeSettle(params)
		if err != nil {
			return err
		}
		return pm.mgr.Settle(p.Currency, p.Amount, pm.addr)

	case planner.ActionMintPosition:
		p, err := planner.DecodeMint(params)
		if err != nil {
			return err
		}
		key := PoolKey{
			Currency0:   p.Currency0,
			Currency1:   p.Currency1,
			Fee:         p.Fee,
			TickSpacing: p.TickSpacing,
		}
		amount0, amount1, err := pm.mgr.ModifyLiquidity(p.Recipient, key, p.TickLower, p.TickUpper, p.Liquidity)
		if err != nil {
			return err
		}
		if amount0.Gt(p.Amount0Max) || amount1.Gt(p.Amount1Max) {
			return fmt.Errorf("mint consumed %s/%s beyond caps %s/%s",
				amount0.Dec(), amount1.Dec(), p.Amount0Max.Dec(), p.Amount1Max.Dec())
		}
		return nil

	case planner.ActionClearOrTake:
		p, err := planner.DecodeClearOrTake(params)
		if err != nil {
			return err
		}
		return pm.mgr.ClearOrTake(p.Currency, p.AmountMax, pm.refundTo)

	case planner.ActionTakePair:
		p, err := planner.DecodeTakePair(params)
		if err != nil {
			return err
		}
		return pm.mgr.TakePair(p.Currency0, p.Currency1, p.Recipient)

	default:
		return ErrUnknownAction
	}
}
