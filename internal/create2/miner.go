package create2

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidMineParams = errors.New("create2: invalid mine parameters")

// MineParams configures a salt search.
type MineParams struct {
	Deployer     common.Address
	InitCodeHash common.Hash
	// FlagMask selects address bits that must all be set in the derived
	// address (hook permission flags live in the low address bits).
	FlagMask common.Address
	// VanityPrefix is an optional hex prefix the derived address must
	// start with, matched case-insensitively.
	VanityPrefix string
	Workers      int
}

// MineResult is a salt whose derived address satisfies the search criteria.
type MineResult struct {
	Salt     [32]byte
	Address  common.Address
	Attempts uint64
}

// MineSalt searches salt space across Workers goroutines until a salt
// produces an address matching FlagMask and VanityPrefix, or ctx is done.
func MineSalt(ctx context.Context, p MineParams) (MineResult, error) {
	if p.Deployer == (common.Address{}) || p.InitCodeHash == (common.Hash{}) {
		return MineResult{}, ErrInvalidMineParams
	}
	prefix := strings.ToLower(strings.TrimPrefix(p.VanityPrefix, "0x"))
	for _, c := range prefix {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return MineResult{}, fmt.Errorf("%w: vanity prefix is not hex", ErrInvalidMineParams)
		}
	}
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		attempts uint64
		once     sync.Once
		result   MineResult
		wg       sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset uint64) {
			defer wg.Done()
			var salt [32]byte
			for nonce := offset; ; nonce += uint64(workers) {
				select {
				case <-ctx.Done():
					return
				default:
				}
				binary.BigEndian.PutUint64(salt[24:], nonce)
				addr := Address(p.Deployer, salt, p.InitCodeHash)
				atomic.AddUint64(&attempts, 1)
				if matchesMask(addr, p.FlagMask) && matchesPrefix(addr, prefix) {
					once.Do(func() {
						result = MineResult{Salt: salt, Address: addr, Attempts: atomic.LoadUint64(&attempts)}
						cancel()
					})
					return
				}
			}
		}(uint64(w))
	}
	wg.Wait()

	if result.Address == (common.Address{}) {
		return MineResult{}, ctx.Err()
	}
	return result, nil
}

func matchesMask(addr, mask common.Address) bool {
	for i := range addr {
		if addr[i]&mask[i] != mask[i] {
			return false
		}
	}
	return true
}

func matchesPrefix(addr common.Address, prefix string) bool {
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(common.Bytes2Hex(addr.Bytes())), prefix)
}
