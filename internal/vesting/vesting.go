// Package vesting provides linear time-release of a fee allocation held by
// the stream's own escrow account.
package vesting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/token"
)

var ErrInvalidStream = errors.New("vesting: invalid stream")

// Stream releases Total of Asset from the escrow address to the beneficiary
// linearly over [Start, Start+Duration]. A zero duration vests instantly.
type Stream struct {
	mu sync.Mutex

	addr        common.Address
	asset       common.Address
	beneficiary common.Address
	total       *uint256.Int
	start       uint64
	duration    uint64
	released    *uint256.Int
	ledger      *token.Ledger
}

// StreamParams parameterizes a stream.
type StreamParams struct {
	Address     common.Address
	Asset       common.Address
	Beneficiary common.Address
	Total       *uint256.Int
	Start       uint64
	Duration    uint64
}

func NewStream(p StreamParams, ledger *token.Ledger) (*Stream, error) {
	if p.Total == nil || p.Total.IsZero() || p.Beneficiary == (common.Address{}) {
		return nil, ErrInvalidStream
	}
	return &Stream{
		addr:        p.Address,
		asset:       p.Asset,
		beneficiary: p.Beneficiary,
		total:       new(uint256.Int).Set(p.Total),
		start:       p.Start,
		duration:    p.Duration,
		released:    new(uint256.Int),
		ledger:      ledger,
	}, nil
}

func (s *Stream) Address() common.Address {
	return s.addr
}

// Vested is the total amount unlocked by the schedule at now.
func (s *Stream) Vested(now uint64) *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vested(now)
}

func (s *Stream) vested(now uint64) *uint256.Int {
	if now < s.start {
		return new(uint256.Int)
	}
	elapsed := now - s.start
	if s.duration == 0 || elapsed >= s.duration {
		return new(uint256.Int).Set(s.total)
	}
	v := new(uint256.Int).Mul(s.total, uint256.NewInt(elapsed))
	return v.Div(v, uint256.NewInt(s.duration))
}

// Releasable is the vested amount not yet paid out.
func (s *Stream) Releasable(now uint64) *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(uint256.Int).Sub(s.vested(now), s.released)
}

// Release transfers the newly vested amount to the beneficiary and returns
// it. Nothing due is a successful no-op returning zero.
func (s *Stream) Release(_ context.Context, now uint64) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := new(uint256.Int).Sub(s.vested(now), s.released)
	if due.IsZero() {
		return due, nil
	}
	if err := s.ledger.Transfer(s.asset, s.addr, s.beneficiary, due); err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}
	s.released.Add(s.released, due)
	return due, nil
}

// Released is the amount already paid out.
func (s *Stream) Released() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(uint256.Int).Set(s.released)
}
