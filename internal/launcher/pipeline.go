// Package launcher drives a full launch scenario end to end: token
// issuance, strategy funding, the simulated bid schedule, auction close,
// migration, and the optional post-migration sweeps.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/auction"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/config"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/model"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/pool"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/pricemath"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/storage"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/strategy"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/tickmath"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/token"
)

var ErrInvalidConfig = errors.New("launcher: invalid config")

// Clock is the simulated timeline a scenario runs against. It only moves
// forward.
type Clock struct {
	now uint64
}

func NewClock(start uint64) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() uint64 {
	return c.now
}

// Advance moves the clock to the given time; earlier times are ignored.
func (c *Clock) Advance(to uint64) {
	if to > c.now {
		c.now = to
	}
}

// Result collects every record a run produced.
type Result struct {
	Token     common.Address
	Launch    model.LaunchRecord
	Migration model.MigrationRecord
	PlanOps   []model.PlanOpRecord
	Sweeps    []model.SweepRecord
}

// Pipeline executes launch scenarios. Store may be nil when no persistence
// is wanted.
type Pipeline struct {
	cfg    config.LaunchConfig
	store  storage.Storage
	logger *zap.Logger
}

func New(cfg config.LaunchConfig, store storage.Storage, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, store: store, logger: logger}
}

// derivedAddress gives the scenario's infrastructure accounts stable,
// label-derived addresses.
func derivedAddress(label string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("launcher/" + label))[12:])
}

type bid struct {
	bidder common.Address
	amount *uint256.Int
	limit  *uint256.Int
}

// Run executes the configured scenario on a fresh ledger and returns the
// produced records.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	cfg := p.cfg

	totalSupply, err := parseAmount(cfg.TotalSupply, "total-supply")
	if err != nil {
		return nil, err
	}
	if cfg.TokenName == "" || cfg.TokenSymbol == "" {
		return nil, fmt.Errorf("%w: token name and symbol are required", ErrInvalidConfig)
	}
	if !common.IsHexAddress(cfg.Recipient) || !common.IsHexAddress(cfg.Operator) {
		return nil, fmt.Errorf("%w: recipient and operator must be hex addresses", ErrInvalidConfig)
	}
	policy, err := strategy.ParseOneSidedPolicy(cfg.OneSidedPolicy)
	if err != nil {
		return nil, err
	}
	var currencyCap *uint256.Int
	if cfg.CurrencyCap != "" {
		if currencyCap, err = parseAmount(cfg.CurrencyCap, "currency-cap"); err != nil {
			return nil, err
		}
	}
	bids, err := p.parseBids()
	if err != nil {
		return nil, err
	}

	launcherAddr := derivedAddress("deployer")
	strategyAddr := derivedAddress("strategy")
	currencyAddr := derivedAddress("currency")
	managerAddr := derivedAddress("pool-manager")
	executorAddr := derivedAddress("position-manager")

	ledger := token.NewLedger()
	if err := ledger.Register(currencyAddr, token.Metadata{
		Name:     "Launch Currency",
		Symbol:   "CUR",
		Decimals: cfg.CurrencyDecimals,
	}); err != nil {
		return nil, err
	}

	var salt [32]byte
	if cfg.Salt != "" {
		salt = common.HexToHash(cfg.Salt)
	}
	tokenAddr, err := ledger.Issue(launcherAddr, token.IssueParams{
		Name:        cfg.TokenName,
		Symbol:      cfg.TokenSymbol,
		Decimals:    cfg.TokenDecimals,
		TotalSupply: totalSupply,
		Salt:        salt,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	p.logger.Info("token issued",
		zap.String("token", tokenAddr.Hex()),
		zap.String("symbol", cfg.TokenSymbol),
		zap.String("supply", totalSupply.Dec()),
	)

	clock := NewClock(0)
	manager := pool.NewManager(managerAddr, ledger, p.logger)
	executor := pool.NewPositionManager(pool.PositionManagerOptions{
		Address:  executorAddr,
		Manager:  manager,
		RefundTo: strategyAddr,
		Now:      clock.Now,
		Logger:   p.logger,
	})

	factory := auction.NewFactory(ledger, currencyAddr)
	var liveAuction *auction.Auction
	strat, err := strategy.New(strategy.Options{
		Address: strategyAddr,
		Config: strategy.Config{
			Token:              tokenAddr,
			Currency:           currencyAddr,
			Fee:                cfg.Fee,
			TickSpacing:        cfg.TickSpacing,
			TotalSupply:        totalSupply,
			SplitBps:           cfg.SplitBps,
			MaxSplitBps:        cfg.MaxSplitBps,
			Recipient:          common.HexToAddress(cfg.Recipient),
			Operator:           common.HexToAddress(cfg.Operator),
			MigrationAllowedAt: cfg.MigrationAllowedAt,
			SweepAllowedAt:     cfg.SweepAllowedAt,
			CurrencyCap:        currencyCap,
			OneSidedPolicy:     policy,
		},
		Ledger: ledger,
		Factory: func(tokenAsset common.Address, supply *uint256.Int, beneficiary common.Address) strategy.Auction {
			liveAuction = factory.Create(tokenAsset, supply, beneficiary)
			return liveAuction
		},
		Pool:     manager,
		Executor: executor,
		Logger:   p.logger,
	})
	if err != nil {
		return nil, err
	}

	// Fund: the deployer hands the whole supply to the strategy.
	if err := ledger.Transfer(tokenAddr, launcherAddr, strategyAddr, totalSupply); err != nil {
		return nil, fmt.Errorf("fund strategy: %w", err)
	}
	if err := strat.OnFunded(ctx, totalSupply); err != nil {
		return nil, err
	}
	fundedAt := clock.Now()

	for i, b := range bids {
		if err := ledger.Mint(currencyAddr, b.bidder, b.amount); err != nil {
			return nil, err
		}
		if err := liveAuction.PlaceBid(b.bidder, b.amount, b.limit); err != nil {
			return nil, fmt.Errorf("bid %d: %w", i, err)
		}
	}
	if cfg.ClearingPrice != "" {
		price, err := pricemath.ParsePriceX192(cfg.ClearingPrice,
			int32(cfg.TokenDecimals), int32(cfg.CurrencyDecimals))
		if err != nil {
			return nil, err
		}
		if err := liveAuction.CloseAtPrice(price); err != nil {
			return nil, fmt.Errorf("close auction: %w", err)
		}
	} else {
		if err := liveAuction.Close(); err != nil {
			return nil, fmt.Errorf("close auction: %w", err)
		}
	}

	clock.Advance(cfg.MigrationAllowedAt)
	if err := strat.Migrate(ctx, clock.Now()); err != nil {
		return nil, err
	}

	result, err := p.collect(strat, liveAuction, ledger, tokenAddr, currencyAddr, salt, fundedAt, clock)
	if err != nil {
		return nil, err
	}

	if cfg.Sweep {
		sweeps, err := p.runSweeps(ctx, strat, ledger, tokenAddr, currencyAddr, clock)
		if err != nil {
			return nil, err
		}
		result.Sweeps = sweeps
	}

	if err := p.persist(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) parseBids() ([]bid, error) {
	bids := make([]bid, 0, len(p.cfg.Bids))
	for i, entry := range p.cfg.Bids {
		parts := strings.SplitN(entry, "@", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: bid %q must be amount@price", ErrInvalidConfig, entry)
		}
		amount, err := parseAmount(parts[0], "bid amount")
		if err != nil {
			return nil, err
		}
		limit, err := pricemath.ParsePriceX192(parts[1],
			int32(p.cfg.TokenDecimals), int32(p.cfg.CurrencyDecimals))
		if err != nil {
			return nil, fmt.Errorf("bid %q: %w", entry, err)
		}
		bids = append(bids, bid{
			bidder: derivedAddress(fmt.Sprintf("bidder-%d", i)),
			amount: amount,
			limit:  limit,
		})
	}
	return bids, nil
}

func (p *Pipeline) collect(strat *strategy.Strategy, a *auction.Auction, ledger *token.Ledger, tokenAddr, currencyAddr common.Address, salt [32]byte, fundedAt uint64, clock *Clock) (*Result, error) {
	acct, ok := strat.Accounting()
	if !ok {
		return nil, errors.New("launcher: accounting missing after migration")
	}
	data, ok := strat.MigrationData()
	if !ok {
		return nil, errors.New("launcher: migration data missing")
	}
	actions, params, ok := strat.PlanOps()
	if !ok {
		return nil, errors.New("launcher: plan ops missing")
	}
	meta, _ := ledger.Metadata(tokenAddr)
	auctionAddr, _ := strat.AuctionAddress()
	clearing, err := a.FinalPrice()
	if err != nil {
		return nil, err
	}
	tick, err := tickmath.TickAtSqrtRatio(data.SqrtPriceX96)
	if err != nil {
		return nil, err
	}

	currency0, currency1 := tokenAddr, currencyAddr
	if !pricemath.TokenIsCurrency0(tokenAddr, currencyAddr) {
		currency0, currency1 = currencyAddr, tokenAddr
	}
	poolID := pool.PoolKey{
		Currency0:   currency0,
		Currency1:   currency1,
		Fee:         p.cfg.Fee,
		TickSpacing: p.cfg.TickSpacing,
	}.ID()

	res := &Result{
		Token: tokenAddr,
		Launch: model.LaunchRecord{
			Token:         tokenAddr.Hex(),
			Name:          meta.Name,
			Symbol:        meta.Symbol,
			Decimals:      meta.Decimals,
			TotalSupply:   acct.TotalSupply.Dec(),
			MerkleRoot:    meta.MerkleRoot.Hex(),
			Salt:          hexutil.Encode(salt[:]),
			Strategy:      strat.Address().Hex(),
			Auction:       auctionAddr.Hex(),
			AuctionSupply: acct.AuctionSupply.Dec(),
			ReserveSupply: acct.ReserveSupply.Dec(),
			FundedAt:      fundedAt,
		},
		Migration: model.MigrationRecord{
			Token:            tokenAddr.Hex(),
			Currency:         currencyAddr.Hex(),
			PoolID:           poolID.Hex(),
			ClearingPrice:    clearing.Dec(),
			SqrtPrice:        data.SqrtPriceX96.Dec(),
			Tick:             tick,
			TokenAmount:      data.TokenAmount.Dec(),
			CurrencyAmount:   data.CurrencyAmount.Dec(),
			LeftoverCurrency: data.LeftoverCurrency.Dec(),
			Liquidity:        data.Liquidity.Dec(),
			OneSidedPlanned:  data.ShouldCreateOneSided,
			OneSidedIncluded: data.HasOneSidedParams,
			PlanOps:          len(actions),
			MigratedAt:       clock.Now(),
		},
	}
	res.PlanOps = make([]model.PlanOpRecord, len(actions))
	for i, action := range actions {
		res.PlanOps[i] = model.PlanOpRecord{
			Token:  tokenAddr.Hex(),
			Seq:    i,
			Action: action,
			Params: hexutil.Encode(params[i]),
		}
	}
	return res, nil
}

func (p *Pipeline) runSweeps(ctx context.Context, strat *strategy.Strategy, ledger *token.Ledger, tokenAddr, currencyAddr common.Address, clock *Clock) ([]model.SweepRecord, error) {
	clock.Advance(p.cfg.SweepAllowedAt)
	operator := common.HexToAddress(p.cfg.Operator)

	var sweeps []model.SweepRecord
	for _, sw := range []struct {
		asset common.Address
		run   func(context.Context, common.Address, uint64) error
	}{
		{tokenAddr, strat.SweepToken},
		{currencyAddr, strat.SweepCurrency},
	} {
		before := ledger.BalanceOf(sw.asset, operator)
		if err := sw.run(ctx, operator, clock.Now()); err != nil {
			return nil, err
		}
		swept := new(uint256.Int).Sub(ledger.BalanceOf(sw.asset, operator), before)
		if swept.IsZero() {
			continue
		}
		sweeps = append(sweeps, model.SweepRecord{
			Token:   tokenAddr.Hex(),
			Asset:   sw.asset.Hex(),
			Caller:  operator.Hex(),
			Amount:  swept.Dec(),
			SweptAt: clock.Now(),
		})
	}
	return sweeps, nil
}

func (p *Pipeline) persist(res *Result) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.PutLaunch(res.Launch); err != nil {
		return fmt.Errorf("store launch: %w", err)
	}
	if err := p.store.PutMigration(res.Migration); err != nil {
		return fmt.Errorf("store migration: %w", err)
	}
	if err := p.store.PutPlanOps(res.PlanOps); err != nil {
		return fmt.Errorf("store plan ops: %w", err)
	}
	if err := p.store.PutSweeps(res.Sweeps); err != nil {
		return fmt.Errorf("store sweeps: %w", err)
	}
	return nil
}

func parseAmount(s, field string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidConfig, field)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, field, err)
	}
	return v, nil
}
