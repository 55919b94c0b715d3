package pool

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/tickmath"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/token"
)

var (
	ErrNotUnlocked        = errors.New("pool: operation requires an active unlock")
	ErrCurrencyNotSettled = errors.New("pool: nonzero delta after unlock")
	ErrNegativeTake       = errors.New("pool: take exceeds credit")
)

// Manager owns every pool and the flash-accounting context. Balance-moving
// operations are only legal inside Unlock; at the end of the callback every
// currency delta must be zero and the queued transfers are applied against
// the asset ledger as one batch.
type Manager struct {
	mu     sync.Mutex
	addr   common.Address
	ledger *token.Ledger
	logger *zap.Logger
	pools  map[common.Hash]*poolState
	lock   *lockContext
}

type lockContext struct {
	deltas  map[common.Address]*big.Int
	pending []pendingTransfer
}

type pendingTransfer struct {
	asset  common.Address
	from   common.Address
	to     common.Address
	amount *uint256.Int
}

func NewManager(addr common.Address, ledger *token.Ledger, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		addr:   addr,
		ledger: ledger,
		logger: logger,
		pools:  make(map[common.Hash]*poolState),
	}
}

func (m *Manager) Address() common.Address {
	return m.addr
}

// Initialize creates a pool at the given starting sqrt price. Rejects
// repeat initialization of the same key.
func (m *Manager) Initialize(key PoolKey, sqrtPriceX96 *uint256.Int) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := key.validate(); err != nil {
		return 0, err
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.IsZero() {
		return 0, ErrInvalidSqrtPrice
	}
	tick, err := tickmath.TickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return 0, ErrInvalidSqrtPrice
	}

	id := key.ID()
	if _, ok := m.pools[id]; ok {
		return 0, ErrAlreadyInitialized
	}
	m.pools[id] = &poolState{
		key:          key,
		sqrtPriceX96: new(uint256.Int).Set(sqrtPriceX96),
		tick:         tick,
		liquidity:    new(uint256.Int),
		ticks:        make(map[int32]*tickInfo),
		positions:    make(map[positionKey]*Position),
	}
	m.logger.Info("pool initialized",
		zap.String("pool", id.Hex()),
		zap.String("sqrt_price", sqrtPriceX96.Dec()),
		zap.Int32("tick", tick),
	)
	return tick, nil
}

// InitializePool adapts Initialize to the orchestrator's collaborator
// boundary.
func (m *Manager) InitializePool(_ context.Context, currency0, currency1 common.Address, fee uint32, tickSpacing int32, sqrtPriceX96 *uint256.Int) (int32, error) {
	return m.Initialize(PoolKey{
		Currency0:   currency0,
		Currency1:   currency1,
		Fee:         fee,
		TickSpacing: tickSpacing,
	}, sqrtPriceX96)
}

// Unlock opens a flash-accounting context, runs fn, and requires every
// currency delta to net to zero before applying the queued ledger
// transfers. Any failure rolls all pool state back; no balances move.
func (m *Manager) Unlock(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[common.Hash]*poolState, len(m.pools))
	for id, p := range m.pools {
		snapshot[id] = p.clone()
	}

	m.lock = &lockContext{deltas: make(map[common.Address]*big.Int)}
	err := fn()
	if err == nil {
		err = m.lock.requireSettled()
	}
	if err == nil {
		err = m.applyPending(m.lock.pending)
	}
	m.lock = nil
	if err != nil {
		m.pools = snapshot
		return err
	}
	return nil
}

func (lc *lockContext) requireSettled() error {
	for _, delta := range lc.deltas {
		if delta.Sign() != 0 {
			return ErrCurrencyNotSettled
		}
	}
	return nil
}

// applyPending checks that every payer can afford its aggregate outflow,
// then executes the transfers; the pre-check keeps a mid-batch failure from
// leaving the ledger half-applied.
func (m *Manager) applyPending(pending []pendingTransfer) error {
	type account struct {
		asset common.Address
		owner common.Address
	}
	outflow := make(map[account]*uint256.Int)
	inflow := make(map[account]*uint256.Int)
	for _, t := range pending {
		out := account{asset: t.asset, owner: t.from}
		if v, ok := outflow[out]; ok {
			v.Add(v, t.amount)
		} else {
			outflow[out] = new(uint256.Int).Set(t.amount)
		}
		in := account{asset: t.asset, owner: t.to}
		if v, ok := inflow[in]; ok {
			v.Add(v, t.amount)
		} else {
			inflow[in] = new(uint256.Int).Set(t.amount)
		}
	}
	for acct, owed := range outflow {
		available := m.ledger.BalanceOf(acct.asset, acct.owner)
		if in, ok := inflow[acct]; ok {
			available.Add(available, in)
		}
		if available.Lt(owed) {
			return token.ErrInsufficientBalance
		}
	}
	for _, t := range pending {
		if err := m.ledger.Transfer(t.asset, t.from, t.to, t.amount); err != nil {
			return err
		}
	}
	return nil
}

func (lc *lockContext) accountDelta(currency common.Address, delta *big.Int) {
	if d, ok := lc.deltas[currency]; ok {
		d.Add(d, delta)
		return
	}
	lc.deltas[currency] = new(big.Int).Set(delta)
}

// Delta returns the caller's current net delta for a currency: negative
// means owed to the pool, positive means credit.
func (m *Manager) Delta(currency common.Address) (*big.Int, error) {
	if m.lock == nil {
		return nil, ErrNotUnlocked
	}
	if d, ok := m.lock.deltas[currency]; ok {
		return new(big.Int).Set(d), nil
	}
	return new(big.Int), nil
}

// ModifyLiquidity adds liquidity to a position, accruing the owed amounts
// as negative deltas.
func (m *Manager) ModifyLiquidity(owner common.Address, key PoolKey, tickLower, tickUpper int32, liquidity *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	if m.lock == nil {
		return nil, nil, ErrNotUnlocked
	}
	p, ok := m.pools[key.ID()]
	if !ok {
		return nil, nil, ErrNotInitialized
	}
	amount0, amount1, err = p.modifyLiquidity(owner, tickLower, tickUpper, liquidity)
	if err != nil {
		return nil, nil, err
	}
	m.lock.accountDelta(key.Currency0, new(big.Int).Neg(amount0.ToBig()))
	m.lock.accountDelta(key.Currency1, new(big.Int).Neg(amount1.ToBig()))
	return amount0, amount1, nil
}

// Settle pays amount of currency from payer into the pool, reducing the
// caller's debt.
func (m *Manager) Settle(currency common.Address, amount *uint256.Int, payer common.Address) error {
	if m.lock == nil {
		return ErrNotUnlocked
	}
	m.lock.pending = append(m.lock.pending, pendingTransfer{
		asset:  currency,
		from:   payer,
		to:     m.addr,
		amount: new(uint256.Int).Set(amount),
	})
	m.lock.accountDelta(currency, amount.ToBig())
	return nil
}

// Take withdraws amount of currency from the pool to the recipient,
// consuming caller credit.
func (m *Manager) Take(currency common.Address, amount *uint256.Int, to common.Address) error {
	if m.lock == nil {
		return ErrNotUnlocked
	}
	m.lock.pending = append(m.lock.pending, pendingTransfer{
		asset:  currency,
		from:   m.addr,
		to:     to,
		amount: new(uint256.Int).Set(amount),
	})
	m.lock.accountDelta(currency, new(big.Int).Neg(amount.ToBig()))
	return nil
}

// ClearOrTake resolves a positive residual delta: forfeited to the pool
// when it does not exceed amountMax, otherwise taken in full to the
// recipient. A non-positive delta is left untouched.
func (m *Manager) ClearOrTake(currency common.Address, amountMax *uint256.Int, to common.Address) error {
	if m.lock == nil {
		return ErrNotUnlocked
	}
	delta, err := m.Delta(currency)
	if err != nil {
		return err
	}
	if delta.Sign() <= 0 {
		return nil
	}
	amount, overflow := uint256.FromBig(delta)
	if overflow {
		return ErrNegativeTake
	}
	if !amount.Gt(amountMax) {
		// Forfeit: zero the credit without moving balances.
		m.lock.accountDelta(currency, new(big.Int).Neg(delta))
		return nil
	}
	return m.Take(currency, amount, to)
}

// TakePair drains any positive residual deltas of both currencies to the
// recipient.
func (m *Manager) TakePair(currency0, currency1, to common.Address) error {
	if m.lock == nil {
		return ErrNotUnlocked
	}
	for _, currency := range []common.Address{currency0, currency1} {
		delta, err := m.Delta(currency)
		if err != nil {
			return err
		}
		if delta.Sign() <= 0 {
			continue
		}
		amount, overflow := uint256.FromBig(delta)
		if overflow {
			return ErrNegativeTake
		}
		if err := m.Take(currency, amount, to); err != nil {
			return err
		}
	}
	return nil
}

// PositionLiquidity reads a position's liquidity outside any unlock.
func (m *Manager) PositionLiquidity(key PoolKey, owner common.Address, tickLower, tickUpper int32) (*uint256.Int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[key.ID()]
	if !ok {
		return nil, false
	}
	pos, ok := p.positions[positionKey{owner: owner, tickLower: tickLower, tickUpper: tickUpper}]
	if !ok {
		return nil, false
	}
	return new(uint256.Int).Set(pos.Liquidity), true
}

// Slot0 reads the pool's current price and tick.
func (m *Manager) Slot0(key PoolKey) (sqrtPriceX96 *uint256.Int, tick int32, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[key.ID()]
	if !ok {
		return nil, 0, ErrNotInitialized
	}
	return new(uint256.Int).Set(p.sqrtPriceX96), p.tick, nil
}
