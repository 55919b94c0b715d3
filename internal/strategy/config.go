package strategy

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/tickmath"
)

// SplitDenominator scales the auction split fraction in basis points.
const SplitDenominator uint32 = 10_000

// FeeMax caps the pool fee in hundredths of a bip.
const FeeMax uint32 = 1_000_000

var (
	ErrInvalidSplit         = errors.New("strategy: invalid supply split")
	ErrInvalidTickSpacing   = errors.New("strategy: tick spacing out of range")
	ErrInvalidFee           = errors.New("strategy: fee exceeds maximum")
	ErrReservedRecipient    = errors.New("strategy: recipient is a reserved address")
	ErrSweepBeforeMigration = errors.New("strategy: sweep threshold not after migration threshold")
	ErrInvalidOperator      = errors.New("strategy: operator is the zero address")
	ErrInvalidSupply        = errors.New("strategy: zero total supply")
	ErrFundingMismatch      = errors.New("strategy: funded amount does not match supply")
	ErrMigrationNotAllowed  = errors.New("strategy: migration not allowed")
	ErrSweepNotAllowed      = errors.New("strategy: sweep not allowed")
	ErrNotOperator          = errors.New("strategy: caller is not the operator")
	ErrInvalidLiquidity     = errors.New("strategy: liquidity exceeds per-tick cap")
	ErrAuctionExists        = errors.New("strategy: auction already created")
	ErrInvalidTransition    = errors.New("strategy: invalid state transition")
	ErrInvalidPolicy        = errors.New("strategy: unknown one-sided policy")
)

// OneSidedPolicy gates which leftover side may fund the optional one-sided
// position.
type OneSidedPolicy uint8

const (
	PolicyAuto OneSidedPolicy = iota
	PolicyTokenOnly
	PolicyCurrencyOnly
	PolicyOff
)

func (p OneSidedPolicy) String() string {
	switch p {
	case PolicyAuto:
		return "auto"
	case PolicyTokenOnly:
		return "token-only"
	case PolicyCurrencyOnly:
		return "currency-only"
	case PolicyOff:
		return "off"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// ParseOneSidedPolicy maps a config string onto a policy value.
func ParseOneSidedPolicy(s string) (OneSidedPolicy, error) {
	switch s {
	case "auto", "":
		return PolicyAuto, nil
	case "token-only":
		return PolicyTokenOnly, nil
	case "currency-only":
		return PolicyCurrencyOnly, nil
	case "off":
		return PolicyOff, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// Config is the immutable launch parameterization. Validated once at
// construction; the strategy never mutates it.
type Config struct {
	Token       common.Address
	Currency    common.Address
	Fee         uint32
	TickSpacing int32

	TotalSupply *uint256.Int
	SplitBps    uint32
	MaxSplitBps uint32

	Recipient common.Address
	Operator  common.Address

	MigrationAllowedAt uint64
	SweepAllowedAt     uint64

	// CurrencyCap bounds the raised currency committed to liquidity; nil
	// means uncapped. Excess stays with the strategy as sweepable dust.
	CurrencyCap *uint256.Int

	OneSidedPolicy OneSidedPolicy
}

// Validate checks the config against the reserved addresses the recipient
// must not collide with (the zero address is always reserved).
func (c Config) Validate(reserved ...common.Address) error {
	if c.TotalSupply == nil || c.TotalSupply.IsZero() {
		return ErrInvalidSupply
	}
	maxSplit := c.MaxSplitBps
	if maxSplit == 0 {
		maxSplit = SplitDenominator
	}
	if c.SplitBps == 0 || c.SplitBps > maxSplit || c.SplitBps > SplitDenominator {
		return ErrInvalidSplit
	}
	if c.TickSpacing < tickmath.MinTickSpacing || c.TickSpacing > tickmath.MaxTickSpacing {
		return ErrInvalidTickSpacing
	}
	if c.Fee > FeeMax {
		return ErrInvalidFee
	}
	if c.Recipient == (common.Address{}) {
		return ErrReservedRecipient
	}
	for _, addr := range reserved {
		if c.Recipient == addr {
			return ErrReservedRecipient
		}
	}
	if c.SweepAllowedAt <= c.MigrationAllowedAt {
		return ErrSweepBeforeMigration
	}
	if c.Operator == (common.Address{}) {
		return ErrInvalidOperator
	}
	return nil
}
