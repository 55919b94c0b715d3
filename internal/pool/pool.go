// Package pool is a singleton in-memory pool ledger in the v4 mold: every
// pool lives inside one Manager, liquidity changes are flash-accounted as
// currency deltas, and all balances settle against the asset ledger in one
// atomic unlock.
package pool

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/fullmath"
	"github.com/Uniswap/liquidity-launcher-sub001/internal/tickmath"
)

// FeeMax caps the fee tier in hundredths of a bip.
const FeeMax uint32 = 1_000_000

var (
	ErrCurrenciesNotSorted   = errors.New("pool: currencies not sorted")
	ErrInvalidFee            = errors.New("pool: fee exceeds maximum")
	ErrInvalidTickSpacing    = errors.New("pool: tick spacing out of range")
	ErrAlreadyInitialized    = errors.New("pool: already initialized")
	ErrNotInitialized        = errors.New("pool: not initialized")
	ErrInvalidSqrtPrice      = errors.New("pool: sqrt price out of bounds")
	ErrInvalidTickRange      = errors.New("pool: invalid tick range")
	ErrTickLiquidityOverflow = errors.New("pool: tick liquidity cap exceeded")
	ErrZeroLiquidity         = errors.New("pool: zero liquidity delta")
)

var q96 = uint256.MustFromDecimal("79228162514264337593543950336")

// PoolKey identifies a pool by its sorted currency pair, fee tier, and tick
// spacing.
type PoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         uint32
	TickSpacing int32
}

// ID is the keccak digest of the key's packed fields.
func (k PoolKey) ID() common.Hash {
	var buf [48]byte
	copy(buf[0:20], k.Currency0.Bytes())
	copy(buf[20:40], k.Currency1.Bytes())
	binary.BigEndian.PutUint32(buf[40:44], k.Fee)
	binary.BigEndian.PutUint32(buf[44:48], uint32(k.TickSpacing))
	return crypto.Keccak256Hash(buf[:])
}

func (k PoolKey) validate() error {
	if bytes.Compare(k.Currency0.Bytes(), k.Currency1.Bytes()) >= 0 {
		return ErrCurrenciesNotSorted
	}
	if k.Fee > FeeMax {
		return ErrInvalidFee
	}
	if k.TickSpacing < tickmath.MinTickSpacing || k.TickSpacing > tickmath.MaxTickSpacing {
		return ErrInvalidTickSpacing
	}
	return nil
}

type tickInfo struct {
	liquidityGross *uint256.Int
}

// Position is a liquidity position keyed by owner and tick range.
type Position struct {
	Liquidity *uint256.Int
}

type positionKey struct {
	owner     common.Address
	tickLower int32
	tickUpper int32
}

type poolState struct {
	key          PoolKey
	sqrtPriceX96 *uint256.Int
	tick         int32
	liquidity    *uint256.Int
	ticks        map[int32]*tickInfo
	positions    map[positionKey]*Position
}

func (p *poolState) clone() *poolState {
	cp := &poolState{
		key:          p.key,
		sqrtPriceX96: new(uint256.Int).Set(p.sqrtPriceX96),
		tick:         p.tick,
		liquidity:    new(uint256.Int).Set(p.liquidity),
		ticks:        make(map[int32]*tickInfo, len(p.ticks)),
		positions:    make(map[positionKey]*Position, len(p.positions)),
	}
	for t, info := range p.ticks {
		cp.ticks[t] = &tickInfo{liquidityGross: new(uint256.Int).Set(info.liquidityGross)}
	}
	for k, pos := range p.positions {
		cp.positions[k] = &Position{Liquidity: new(uint256.Int).Set(pos.Liquidity)}
	}
	return cp
}

// modifyLiquidity applies a positive liquidity delta over a tick range and
// returns the currency amounts the pool is owed, rounded down so the
// amounts never exceed what the matching liquidity formula was fed.
func (p *poolState) modifyLiquidity(owner common.Address, tickLower, tickUpper int32, liquidity *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	if liquidity == nil || liquidity.IsZero() {
		return nil, nil, ErrZeroLiquidity
	}
	spacing := p.key.TickSpacing
	if tickLower >= tickUpper ||
		tickLower%spacing != 0 || tickUpper%spacing != 0 ||
		tickLower < tickmath.MinUsableTick(spacing) || tickUpper > tickmath.MaxUsableTick(spacing) {
		return nil, nil, ErrInvalidTickRange
	}

	liquidityCap := tickmath.MaxLiquidityPerTick(spacing)
	for _, t := range []int32{tickLower, tickUpper} {
		info, ok := p.ticks[t]
		if !ok {
			info = &tickInfo{liquidityGross: new(uint256.Int)}
			p.ticks[t] = info
		}
		next := new(uint256.Int).Add(info.liquidityGross, liquidity)
		if next.Gt(liquidityCap) {
			return nil, nil, ErrTickLiquidityOverflow
		}
		info.liquidityGross = next
	}

	sqrtLower, err := tickmath.SqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtUpper, err := tickmath.SqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}

	amount0, amount1 = new(uint256.Int), new(uint256.Int)
	switch {
	case p.tick < tickLower:
		amount0, err = amount0Delta(sqrtLower, sqrtUpper, liquidity)
	case p.tick < tickUpper:
		if amount0, err = amount0Delta(p.sqrtPriceX96, sqrtUpper, liquidity); err == nil {
			amount1, err = amount1Delta(sqrtLower, p.sqrtPriceX96, liquidity)
		}
		if err == nil {
			p.liquidity.Add(p.liquidity, liquidity)
		}
	default:
		amount1, err = amount1Delta(sqrtLower, sqrtUpper, liquidity)
	}
	if err != nil {
		return nil, nil, err
	}

	pk := positionKey{owner: owner, tickLower: tickLower, tickUpper: tickUpper}
	pos, ok := p.positions[pk]
	if !ok {
		pos = &Position{Liquidity: new(uint256.Int)}
		p.positions[pk] = pos
	}
	pos.Liquidity.Add(pos.Liquidity, liquidity)

	return amount0, amount1, nil
}

// amount0Delta is liquidity << 96 * (sqrtB - sqrtA) / sqrtB / sqrtA,
// rounded down.
func amount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	res, err := fullmath.MulDiv(numerator1, numerator2, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}
	return res.Div(res, sqrtRatioAX96), nil
}

// amount1Delta is liquidity * (sqrtB - sqrtA) / 2^96, rounded down.
func amount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	return fullmath.MulDiv(liquidity, new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96), q96)
}
