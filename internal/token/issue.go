package token

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/create2"
)

var ErrInvalidIssueParams = errors.New("token: invalid issue params")

// IssueParams describes a token to create.
type IssueParams struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *uint256.Int
	MerkleRoot  common.Hash
	Salt        [32]byte
}

// Issue registers a new token at its CREATE2-derived address and mints the
// full supply to the deployer.
func (l *Ledger) Issue(deployer common.Address, p IssueParams) (common.Address, error) {
	if p.Name == "" || p.Symbol == "" || p.TotalSupply == nil || p.TotalSupply.IsZero() {
		return common.Address{}, ErrInvalidIssueParams
	}

	addr := create2.Address(deployer, p.Salt, InitCodeHash(p))
	if err := l.Register(addr, Metadata{
		Name:        p.Name,
		Symbol:      p.Symbol,
		Decimals:    p.Decimals,
		TotalSupply: new(uint256.Int).Set(p.TotalSupply),
		MerkleRoot:  p.MerkleRoot,
	}); err != nil {
		return common.Address{}, fmt.Errorf("issue %s: %w", p.Symbol, err)
	}
	if err := l.Mint(addr, deployer, p.TotalSupply); err != nil {
		return common.Address{}, fmt.Errorf("issue %s: %w", p.Symbol, err)
	}
	return addr, nil
}

// InitCodeHash commits to everything that parameterizes the token's
// deployment, so equal parameters derive equal addresses.
func InitCodeHash(p IssueParams) common.Hash {
	supply := p.TotalSupply.Bytes32()
	return crypto.Keccak256Hash(
		[]byte(p.Name),
		[]byte(p.Symbol),
		[]byte{p.Decimals},
		supply[:],
		p.MerkleRoot.Bytes(),
	)
}
