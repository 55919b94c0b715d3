package auction

import (
	"encoding/binary"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/token"
)

// Factory creates auctions at deterministic addresses, one per launch.
type Factory struct {
	mu       sync.Mutex
	ledger   *token.Ledger
	currency common.Address
	seq      uint64
}

func NewFactory(ledger *token.Ledger, currency common.Address) *Factory {
	return &Factory{ledger: ledger, currency: currency}
}

// Create builds a fresh auction selling supply of tokenAsset for the
// factory's currency, settling proceeds to beneficiary.
func (f *Factory) Create(tokenAsset common.Address, supply *uint256.Int, beneficiary common.Address) *Auction {
	f.mu.Lock()
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], seq)
	addr := common.BytesToAddress(crypto.Keccak256(
		[]byte("auction"),
		tokenAsset.Bytes(),
		beneficiary.Bytes(),
		nonce[:],
	)[12:])
	return New(addr, tokenAsset, f.currency, supply, beneficiary, f.ledger)
}
