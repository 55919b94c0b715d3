package distribution

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/token"
)

var (
	ErrAlreadyClaimed = errors.New("distribution: already claimed")
	ErrInvalidProof   = errors.New("distribution: invalid proof")
)

// Distributor pays merkle-proved claims from its own funded balance. Claims
// are marked in a word-indexed bitmap, one bit per leaf index.
type Distributor struct {
	mu      sync.Mutex
	addr    common.Address
	asset   common.Address
	root    common.Hash
	ledger  *token.Ledger
	logger  *zap.Logger
	claimed map[uint64]uint64
}

func NewDistributor(addr, asset common.Address, root common.Hash, ledger *token.Ledger, logger *zap.Logger) *Distributor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Distributor{
		addr:    addr,
		asset:   asset,
		root:    root,
		ledger:  ledger,
		logger:  logger,
		claimed: make(map[uint64]uint64),
	}
}

func (d *Distributor) Address() common.Address {
	return d.addr
}

// IsClaimed reports whether the leaf index has been paid out.
func (d *Distributor) IsClaimed(index uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isClaimed(index)
}

func (d *Distributor) isClaimed(index uint64) bool {
	word := d.claimed[index/64]
	return word&(1<<(index%64)) != 0
}

func (d *Distributor) setClaimed(index uint64) {
	d.claimed[index/64] |= 1 << (index % 64)
}

// Claim verifies the proof against the root, marks the leaf claimed, and
// transfers the entitlement to the leaf account.
func (d *Distributor) Claim(leaf Leaf, proof []common.Hash) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isClaimed(leaf.Index) {
		return ErrAlreadyClaimed
	}
	if !VerifyProof(d.root, leaf, proof) {
		return ErrInvalidProof
	}
	if err := d.ledger.Transfer(d.asset, d.addr, leaf.Account, leaf.Amount); err != nil {
		return fmt.Errorf("claim %d: %w", leaf.Index, err)
	}
	d.setClaimed(leaf.Index)
	d.logger.Info("claim paid",
		zap.Uint64("index", leaf.Index),
		zap.String("account", leaf.Account.Hex()),
		zap.String("amount", leaf.Amount.Dec()),
	)
	return nil
}
