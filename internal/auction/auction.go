// Package auction implements the sealed uniform-clearing auction that
// discovers the launch price. The migration engine only ever consumes its
// boundary: FinalPrice and RaisedAmount after close.
package auction

import (
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/fullmath"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/token"
)

var (
	ErrAuctionClosed = errors.New("auction: already closed")
	ErrAuctionOpen   = errors.New("auction: not closed yet")
	ErrNoBids        = errors.New("auction: no bids")
	ErrInvalidBid    = errors.New("auction: invalid bid")
)

var q192 = new(uint256.Int).Lsh(uint256.NewInt(1), 192)

// Bid is a sealed commitment of currency at a limit price. The limit is the
// fewest token units per currency unit (Q192) the bidder will accept; a
// lower limit concedes a higher per-token price.
type Bid struct {
	Bidder         common.Address
	Amount         *uint256.Int
	LimitPriceX192 *uint256.Int
}

// Auction escrows bid currency until close, then settles the included bids
// to the beneficiary at one uniform clearing price and refunds the rest.
type Auction struct {
	mu          sync.Mutex
	addr        common.Address
	token       common.Address
	currency    common.Address
	supply      *uint256.Int
	beneficiary common.Address
	ledger      *token.Ledger

	bids   []Bid
	closed bool

	clearingPriceX192 *uint256.Int
	raised            *uint256.Int
}

func New(addr, tokenAsset, currency common.Address, supply *uint256.Int, beneficiary common.Address, ledger *token.Ledger) *Auction {
	return &Auction{
		addr:        addr,
		token:       tokenAsset,
		currency:    currency,
		supply:      new(uint256.Int).Set(supply),
		beneficiary: beneficiary,
		ledger:      ledger,
	}
}

func (a *Auction) Address() common.Address {
	return a.addr
}

// PlaceBid escrows the bid currency with the auction. Rejected once the
// auction is closed or when the amount or limit price is zero.
func (a *Auction) PlaceBid(bidder common.Address, amount, limitPriceX192 *uint256.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAuctionClosed
	}
	if amount == nil || amount.IsZero() || limitPriceX192 == nil || limitPriceX192.IsZero() {
		return ErrInvalidBid
	}
	if err := a.ledger.Transfer(a.currency, bidder, a.addr, amount); err != nil {
		return err
	}
	a.bids = append(a.bids, Bid{
		Bidder:         bidder,
		Amount:         new(uint256.Int).Set(amount),
		LimitPriceX192: new(uint256.Int).Set(limitPriceX192),
	})
	return nil
}

// Close derives the uniform clearing price: walking bids from the most
// aggressive limit upward, it is the first limit at which cumulative token
// demand covers the supply, or the highest limit when demand never does.
func (a *Auction) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAuctionClosed
	}
	if len(a.bids) == 0 {
		return ErrNoBids
	}

	sorted := a.sortedBids()
	cum := new(uint256.Int)
	clearing := sorted[len(sorted)-1].LimitPriceX192
	for _, bid := range sorted {
		cum.Add(cum, bid.Amount)
		demand, err := fullmath.MulDiv(cum, bid.LimitPriceX192, q192)
		if err != nil {
			return err
		}
		if !demand.Lt(a.supply) {
			clearing = bid.LimitPriceX192
			break
		}
	}
	return a.settle(sorted, clearing)
}

// CloseAtPrice closes at an externally chosen clearing price, filling only
// bids whose limit does not exceed it.
func (a *Auction) CloseAtPrice(priceX192 *uint256.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAuctionClosed
	}
	if priceX192 == nil || priceX192.IsZero() {
		return ErrInvalidBid
	}

	var included []Bid
	for _, bid := range a.sortedBids() {
		if !bid.LimitPriceX192.Gt(priceX192) {
			included = append(included, bid)
		}
	}
	return a.settle(included, priceX192)
}

// settle fills sorted bids until either the escrow or the supply-implied
// currency cap runs out, pays the beneficiary, and refunds the remainder.
func (a *Auction) settle(included []Bid, clearing *uint256.Int) error {
	capacity := new(uint256.Int)
	for _, bid := range included {
		capacity.Add(capacity, bid.Amount)
	}
	if maxRaise, err := fullmath.MulDiv(a.supply, q192, clearing); err == nil && maxRaise.Lt(capacity) {
		capacity.Set(maxRaise)
	}

	raised := new(uint256.Int)
	remaining := new(uint256.Int).Set(capacity)
	for _, bid := range included {
		if remaining.IsZero() {
			break
		}
		fill := bid.Amount
		if fill.Gt(remaining) {
			fill = remaining
		}
		if err := a.ledger.Transfer(a.currency, a.addr, a.beneficiary, fill); err != nil {
			return err
		}
		raised.Add(raised, fill)
		remaining.Sub(remaining, fill)
	}

	if bal := a.ledger.BalanceOf(a.currency, a.addr); !bal.IsZero() {
		if err := a.refundUnfilled(included, capacity); err != nil {
			return err
		}
	}

	a.clearingPriceX192 = new(uint256.Int).Set(clearing)
	a.raised = raised
	a.closed = true
	return nil
}

// refundUnfilled returns escrow to bidders whose bids were not (fully)
// filled, in the original bid order.
func (a *Auction) refundUnfilled(included []Bid, filledCapacity *uint256.Int) error {
	filled := make(map[common.Address]*uint256.Int)
	remaining := new(uint256.Int).Set(filledCapacity)
	for _, bid := range included {
		if remaining.IsZero() {
			break
		}
		fill := new(uint256.Int).Set(bid.Amount)
		if fill.Gt(remaining) {
			fill.Set(remaining)
		}
		if prev, ok := filled[bid.Bidder]; ok {
			prev.Add(prev, fill)
		} else {
			filled[bid.Bidder] = fill
		}
		remaining.Sub(remaining, fill)
	}

	for _, bid := range a.bids {
		refund := new(uint256.Int).Set(bid.Amount)
		if f, ok := filled[bid.Bidder]; ok {
			if !f.IsZero() {
				take := new(uint256.Int).Set(refund)
				if f.Lt(take) {
					take.Set(f)
				}
				refund.Sub(refund, take)
				f.Sub(f, take)
			}
		}
		if refund.IsZero() {
			continue
		}
		if err := a.ledger.Transfer(a.currency, a.addr, bid.Bidder, refund); err != nil {
			return err
		}
	}
	return nil
}

func (a *Auction) sortedBids() []Bid {
	sorted := make([]Bid, len(a.bids))
	copy(sorted, a.bids)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LimitPriceX192.Lt(sorted[j].LimitPriceX192)
	})
	return sorted
}

// FinalPrice is the uniform clearing price, readable only after close.
func (a *Auction) FinalPrice() (*uint256.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		return nil, ErrAuctionOpen
	}
	return new(uint256.Int).Set(a.clearingPriceX192), nil
}

// RaisedAmount is the currency settled to the beneficiary, readable only
// after close.
func (a *Auction) RaisedAmount() (*uint256.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		return nil, ErrAuctionOpen
	}
	return new(uint256.Int).Set(a.raised), nil
}
