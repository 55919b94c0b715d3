// Package token provides the in-memory asset ledger the launcher's
// subsystems settle against, plus CREATE2-addressed token issuance.
package token

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrUnknownAsset        = errors.New("token: unknown asset")
	ErrAssetExists         = errors.New("token: asset already registered")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)

// Metadata describes a registered asset.
type Metadata struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *uint256.Int
	MerkleRoot  common.Hash
}

// Ledger is a double-entry balance book keyed by (asset, holder).
type Ledger struct {
	mu       sync.Mutex
	balances map[common.Address]map[common.Address]*uint256.Int
	meta     map[common.Address]Metadata
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[common.Address]map[common.Address]*uint256.Int),
		meta:     make(map[common.Address]Metadata),
	}
}

// Register records a new asset. Registering the same address twice fails.
func (l *Ledger) Register(asset common.Address, meta Metadata) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.meta[asset]; ok {
		return ErrAssetExists
	}
	l.meta[asset] = meta
	l.balances[asset] = make(map[common.Address]*uint256.Int)
	return nil
}

// Mint credits amount of asset to the holder.
func (l *Ledger) Mint(asset, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	book, ok := l.balances[asset]
	if !ok {
		return ErrUnknownAsset
	}
	credit(book, to, amount)
	return nil
}

// Transfer moves amount of asset between holders.
func (l *Ledger) Transfer(asset, from, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	book, ok := l.balances[asset]
	if !ok {
		return ErrUnknownAsset
	}
	if amount.IsZero() {
		return nil
	}
	bal, ok := book[from]
	if !ok || bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	credit(book, to, amount)
	return nil
}

// BalanceOf returns a copy of the holder's balance; zero for unknown pairs.
func (l *Ledger) BalanceOf(asset, holder common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	book, ok := l.balances[asset]
	if !ok {
		return new(uint256.Int)
	}
	bal, ok := book[holder]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(bal)
}

// Metadata returns the registered metadata for an asset.
func (l *Ledger) Metadata(asset common.Address) (Metadata, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	meta, ok := l.meta[asset]
	return meta, ok
}

func credit(book map[common.Address]*uint256.Int, to common.Address, amount *uint256.Int) {
	if bal, ok := book[to]; ok {
		bal.Add(bal, amount)
		return
	}
	book[to] = new(uint256.Int).Set(amount)
}
