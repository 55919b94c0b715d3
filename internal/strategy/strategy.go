// Package strategy orchestrates a launch from funding through auction close
// to the one-shot liquidity migration: it converts the clearing price into a
// pool price, matches raised currency against the token reserve, builds the
// bounded position plan, and drives the pool ledger and executor.
package strategy

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/planner"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/pricemath"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/tickmath"
)

// migrateDeadlineWindow is how far past the migration timestamp the
// submitted plan stays valid.
const migrateDeadlineWindow = 600

// AssetLedger is the balance book the strategy settles against.
type AssetLedger interface {
	Transfer(asset, from, to common.Address, amount *uint256.Int) error
	BalanceOf(asset, holder common.Address) *uint256.Int
}

// Auction is the consumed boundary of the price-discovery mechanism; the
// reads fail until the auction has closed.
type Auction interface {
	Address() common.Address
	FinalPrice() (*uint256.Int, error)
	RaisedAmount() (*uint256.Int, error)
}

// AuctionFactory creates the auction selling supply of the token, settling
// raised currency to the beneficiary.
type AuctionFactory func(tokenAsset common.Address, supply *uint256.Int, beneficiary common.Address) Auction

// PoolLedger initializes pools; repeat initialization of a key must fail.
type PoolLedger interface {
	Address() common.Address
	InitializePool(ctx context.Context, currency0, currency1 common.Address, fee uint32, tickSpacing int32, sqrtPriceX96 *uint256.Int) (int32, error)
}

// PositionExecutor runs a finalized plan atomically.
type PositionExecutor interface {
	Address() common.Address
	SubmitPlan(ctx context.Context, actions []byte, params [][]byte, deadline uint64) error
}

// ReserveAccounting is the supply split fixed at funding time.
type ReserveAccounting struct {
	TotalSupply   *uint256.Int
	AuctionSupply *uint256.Int
	ReserveSupply *uint256.Int
}

// MigrationData is the migration result, set exactly once.
type MigrationData struct {
	SqrtPriceX96     *uint256.Int
	TokenAmount      *uint256.Int
	CurrencyAmount   *uint256.Int
	LeftoverCurrency *uint256.Int
	Liquidity        *uint256.Int

	ShouldCreateOneSided bool
	HasOneSidedParams    bool
}

// Strategy holds the launch lifecycle. All operations are serialized by one
// mutex; collaborators are injected at construction and never swapped.
type Strategy struct {
	mu sync.Mutex

	addr     common.Address
	cfg      Config
	ledger   AssetLedger
	factory  AuctionFactory
	pool     PoolLedger
	executor PositionExecutor
	logger   *zap.Logger

	state      State
	accounting *ReserveAccounting
	auction    Auction

	migration   *MigrationData
	planActions []byte
	planParams  [][]byte
}

// Options wires a strategy. Logger may be nil.
type Options struct {
	Address  common.Address
	Config   Config
	Ledger   AssetLedger
	Factory  AuctionFactory
	Pool     PoolLedger
	Executor PositionExecutor
	Logger   *zap.Logger
}

// New validates the config against the reserved addresses (the strategy
// itself and the pool ledger) and returns a constructed strategy.
func New(opts Options) (*Strategy, error) {
	if err := opts.Config.Validate(opts.Address, opts.Pool.Address()); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{
		addr:     opts.Address,
		cfg:      opts.Config,
		ledger:   opts.Ledger,
		factory:  opts.Factory,
		pool:     opts.Pool,
		executor: opts.Executor,
		logger:   logger,
		state:    StateConstructed,
	}, nil
}

func (s *Strategy) Address() common.Address {
	return s.addr
}

func (s *Strategy) Config() Config {
	return s.cfg
}

func (s *Strategy) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Accounting returns the supply split, available once funded.
func (s *Strategy) Accounting() (ReserveAccounting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accounting == nil {
		return ReserveAccounting{}, false
	}
	return ReserveAccounting{
		TotalSupply:   new(uint256.Int).Set(s.accounting.TotalSupply),
		AuctionSupply: new(uint256.Int).Set(s.accounting.AuctionSupply),
		ReserveSupply: new(uint256.Int).Set(s.accounting.ReserveSupply),
	}, true
}

// AuctionAddress returns the created auction's address, once live.
func (s *Strategy) AuctionAddress() (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auction == nil {
		return common.Address{}, false
	}
	return s.auction.Address(), true
}

// MigrationData returns the migration result, available once migrated.
func (s *Strategy) MigrationData() (MigrationData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.migration == nil {
		return MigrationData{}, false
	}
	out := MigrationData{
		SqrtPriceX96:         new(uint256.Int).Set(s.migration.SqrtPriceX96),
		TokenAmount:          new(uint256.Int).Set(s.migration.TokenAmount),
		CurrencyAmount:       new(uint256.Int).Set(s.migration.CurrencyAmount),
		LeftoverCurrency:     new(uint256.Int).Set(s.migration.LeftoverCurrency),
		Liquidity:            new(uint256.Int).Set(s.migration.Liquidity),
		ShouldCreateOneSided: s.migration.ShouldCreateOneSided,
		HasOneSidedParams:    s.migration.HasOneSidedParams,
	}
	return out, true
}

// PlanOps returns the executed operation batch, available once migrated.
func (s *Strategy) PlanOps() (actions []byte, params [][]byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.migration == nil {
		return nil, nil, false
	}
	actions = make([]byte, len(s.planActions))
	copy(actions, s.planActions)
	params = make([][]byte, len(s.planParams))
	copy(params, s.planParams)
	return actions, params, true
}

// MigrationReady reports whether the auction has closed and the migration
// threshold has passed.
func (s *Strategy) MigrationReady(now uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuctionLive || now < s.cfg.MigrationAllowedAt {
		return false
	}
	_, err := s.auction.FinalPrice()
	return err == nil
}

// OnFunded records the token funding, fixes the supply split, and creates
// the auction exactly once, transferring the auction supply to it.
func (s *Strategy) OnFunded(_ context.Context, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConstructed {
		return ErrAuctionExists
	}
	if amount == nil || !amount.Eq(s.cfg.TotalSupply) {
		return ErrFundingMismatch
	}
	if s.ledger.BalanceOf(s.cfg.Token, s.addr).Lt(amount) {
		return ErrFundingMismatch
	}

	auctionSupply := new(uint256.Int).Mul(amount, uint256.NewInt(uint64(s.cfg.SplitBps)))
	auctionSupply.Div(auctionSupply, uint256.NewInt(uint64(SplitDenominator)))
	if auctionSupply.IsZero() {
		return ErrInvalidSplit
	}
	reserveSupply := new(uint256.Int).Sub(amount, auctionSupply)

	auction := s.factory(s.cfg.Token, auctionSupply, s.addr)
	if err := s.ledger.Transfer(s.cfg.Token, s.addr, auction.Address(), auctionSupply); err != nil {
		return fmt.Errorf("fund auction: %w", err)
	}

	s.accounting = &ReserveAccounting{
		TotalSupply:   new(uint256.Int).Set(amount),
		AuctionSupply: auctionSupply,
		ReserveSupply: reserveSupply,
	}
	s.auction = auction
	if err := s.advance(eventFunded); err != nil {
		return err
	}
	if err := s.advance(eventAuctionOpened); err != nil {
		return err
	}
	s.logger.Info("strategy funded",
		zap.String("auction", auction.Address().Hex()),
		zap.String("auction_supply", auctionSupply.Dec()),
		zap.String("reserve_supply", reserveSupply.Dec()),
	)
	return nil
}

// Migrate performs the one-shot liquidity migration. Any failure leaves the
// state at auction-live with no migration result recorded.
func (s *Strategy) Migrate(ctx context.Context, now uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuctionLive {
		return ErrMigrationNotAllowed
	}
	if now < s.cfg.MigrationAllowedAt {
		return fmt.Errorf("%w: before threshold %d", ErrMigrationNotAllowed, s.cfg.MigrationAllowedAt)
	}
	priceX192, err := s.auction.FinalPrice()
	if err != nil {
		return fmt.Errorf("%w: auction not closed", ErrMigrationNotAllowed)
	}
	raised, err := s.auction.RaisedAmount()
	if err != nil {
		return fmt.Errorf("%w: auction not closed", ErrMigrationNotAllowed)
	}

	currencyAmount := new(uint256.Int).Set(raised)
	if s.cfg.CurrencyCap != nil && !s.cfg.CurrencyCap.IsZero() && currencyAmount.Gt(s.cfg.CurrencyCap) {
		currencyAmount.Set(s.cfg.CurrencyCap)
	}

	sqrtPriceX96, err := pricemath.SqrtPriceX96(priceX192, s.cfg.Token, s.cfg.Currency)
	if err != nil {
		return err
	}
	tokenAmount, currencyUsed, leftoverCurrency, err := pricemath.TokenAmountForCurrency(
		priceX192, currencyAmount, s.accounting.ReserveSupply)
	if err != nil {
		return err
	}

	poolCfg := planner.PoolConfig{
		Token:       s.cfg.Token,
		Currency:    s.cfg.Currency,
		Fee:         s.cfg.Fee,
		TickSpacing: s.cfg.TickSpacing,
	}
	plan, liquidity, err := planner.FullRange(poolCfg, sqrtPriceX96, tokenAmount, currencyUsed, s.addr)
	if err != nil {
		return err
	}
	if liquidity.Gt(tickmath.MaxLiquidityPerTick(s.cfg.TickSpacing)) {
		return ErrInvalidLiquidity
	}

	// The one-sided position is funded by whichever side the clamp left
	// over: leftover currency when the reserve bound, otherwise the
	// unmatched token reserve.
	tokenLeftover := new(uint256.Int).Sub(s.accounting.ReserveSupply, tokenAmount)
	oneSidedAsset, oneSidedAmount := s.cfg.Token, tokenLeftover
	if !leftoverCurrency.IsZero() {
		oneSidedAsset, oneSidedAmount = s.cfg.Currency, leftoverCurrency
	}
	shouldCreate := !oneSidedAmount.IsZero() && s.oneSidedAllowed(oneSidedAsset)

	included := false
	if shouldCreate {
		included, err = planner.OneSided(poolCfg, planner.OneSidedSpec{
			SqrtPriceX96: sqrtPriceX96,
			Asset:        oneSidedAsset,
			Amount:       oneSidedAmount,
			Recipient:    s.addr,
		}, plan, liquidity)
		if err != nil {
			return err
		}
	}
	if err := planner.FinalTakePair(poolCfg, plan, s.addr); err != nil {
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

	currency0, currency1 := poolCfg.Sorted()
	if _, err := s.pool.InitializePool(ctx, currency0, currency1, s.cfg.Fee, s.cfg.TickSpacing, sqrtPriceX96); err != nil {
		return fmt.Errorf("initialize pool: %w", err)
	}

	tokenCommitted := new(uint256.Int).Set(tokenAmount)
	currencyCommitted := new(uint256.Int).Set(currencyUsed)
	if included {
		if oneSidedAsset == s.cfg.Token {
			tokenCommitted.Add(tokenCommitted, oneSidedAmount)
		} else {
			currencyCommitted.Add(currencyCommitted, oneSidedAmount)
		}
	}
	if err := s.fundExecutor(tokenCommitted, currencyCommitted); err != nil {
		return err
	}

	if err := s.executor.SubmitPlan(ctx, actions, params, now+migrateDeadlineWindow); err != nil {
		if rbErr := s.refundFromExecutor(); rbErr != nil {
			s.logger.Error("refund after failed plan", zap.Error(rbErr))
		}
		return fmt.Errorf("submit plan: %w", err)
	}

	if err := s.sweepDust(); err != nil {
		return err
	}

	s.migration = &MigrationData{
		SqrtPriceX96:         sqrtPriceX96,
		TokenAmount:          tokenAmount,
		CurrencyAmount:       currencyUsed,
		LeftoverCurrency:     leftoverCurrency,
		Liquidity:            liquidity,
		ShouldCreateOneSided: shouldCreate,
		HasOneSidedParams:    included,
	}
	s.planActions = actions
	s.planParams = params
	if err := s.advance(eventMigrated); err != nil {
		return err
	}
	s.logger.Info("migration complete",
		zap.String("sqrt_price", sqrtPriceX96.Dec()),
		zap.String("token_amount", tokenAmount.Dec()),
		zap.String("currency_amount", currencyUsed.Dec()),
		zap.String("liquidity", liquidity.Dec()),
		zap.Bool("one_sided", included),
		zap.Int("plan_ops", len(actions)),
	)
	return nil
}

func (s *Strategy) oneSidedAllowed(asset common.Address) bool {
	switch s.cfg.OneSidedPolicy {
	case PolicyAuto:
		return true
	case PolicyTokenOnly:
		return asset == s.cfg.Token
	case PolicyCurrencyOnly:
		return asset == s.cfg.Currency
	}
	return false
}

func (s *Strategy) fundExecutor(tokenAmount, currencyAmount *uint256.Int) error {
	if err := s.ledger.Transfer(s.cfg.Token, s.addr, s.executor.Address(), tokenAmount); err != nil {
		return fmt.Errorf("fund executor: %w", err)
	}
	if err := s.ledger.Transfer(s.cfg.Currency, s.addr, s.executor.Address(), currencyAmount); err != nil {
		// Return the token side so the failed migration moves nothing.
		if rbErr := s.ledger.Transfer(s.cfg.Token, s.executor.Address(), s.addr, tokenAmount); rbErr != nil {
			s.logger.Error("refund after failed funding", zap.Error(rbErr))
		}
		return fmt.Errorf("fund executor: %w", err)
	}
	return nil
}

func (s *Strategy) refundFromExecutor() error {
	for _, asset := range []common.Address{s.cfg.Token, s.cfg.Currency} {
		bal := s.ledger.BalanceOf(asset, s.executor.Address())
		if bal.IsZero() {
			continue
		}
		if err := s.ledger.Transfer(asset, s.executor.Address(), s.addr, bal); err != nil {
			return err
		}
	}
	return nil
}

// sweepDust forwards whatever the migration left with the strategy to the
// configured recipient: capped currency, unmatched reserve, and the
// executor's returned residuals.
func (s *Strategy) sweepDust() error {
	for _, asset := range []common.Address{s.cfg.Token, s.cfg.Currency} {
		bal := s.ledger.BalanceOf(asset, s.addr)
		if bal.IsZero() {
			continue
		}
		if err := s.ledger.Transfer(asset, s.addr, s.cfg.Recipient, bal); err != nil {
			return fmt.Errorf("sweep dust: %w", err)
		}
	}
	return nil
}

// SweepToken sends the strategy's remaining token balance to the operator.
func (s *Strategy) SweepToken(_ context.Context, caller common.Address, now uint64) error {
	return s.sweep(s.cfg.Token, caller, now)
}

// SweepCurrency sends the strategy's remaining currency balance to the
// operator.
func (s *Strategy) SweepCurrency(_ context.Context, caller common.Address, now uint64) error {
	return s.sweep(s.cfg.Currency, caller, now)
}

func (s *Strategy) sweep(asset common.Address, caller common.Address, now uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now < s.cfg.SweepAllowedAt {
		return fmt.Errorf("%w: before threshold %d", ErrSweepNotAllowed, s.cfg.SweepAllowedAt)
	}
	if caller != s.cfg.Operator {
		return ErrNotOperator
	}
	bal := s.ledger.BalanceOf(asset, s.addr)
	if bal.IsZero() {
		return nil
	}
	if err := s.ledger.Transfer(asset, s.addr, s.cfg.Operator, bal); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	s.logger.Info("sweep complete",
		zap.String("asset", asset.Hex()),
		zap.String("amount", bal.Dec()),
	)
	return nil
}
