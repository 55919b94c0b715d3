package planner

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Parameter payloads are ABI tuples so the executor can decode them without
// sharing Go types with the planner's callers.

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

var (
	typeAddress = mustType("address")
	typeUint256 = mustType("uint256")
	typeUint24  = mustType("uint24")
	typeInt24   = mustType("int24")
)

var (
	settleArgs = abi.Arguments{
		{Name: "currency", Type: typeAddress},
		{Name: "amount", Type: typeUint256},
	}
	mintArgs = abi.Arguments{
		{Name: "currency0", Type: typeAddress},
		{Name: "currency1", Type: typeAddress},
		{Name: "fee", Type: typeUint24},
		{Name: "tickSpacing", Type: typeInt24},
		{Name: "tickLower", Type: typeInt24},
		{Name: "tickUpper", Type: typeInt24},
		{Name: "liquidity", Type: typeUint256},
		{Name: "amount0Max", Type: typeUint256},
		{Name: "amount1Max", Type: typeUint256},
		{Name: "recipient", Type: typeAddress},
	}
	clearOrTakeArgs = abi.Arguments{
		{Name: "currency", Type: typeAddress},
		{Name: "amountMax", Type: typeUint256},
	}
	takePairArgs = abi.Arguments{
		{Name: "currency0", Type: typeAddress},
		{Name: "currency1", Type: typeAddress},
		{Name: "recipient", Type: typeAddress},
	}
)

// SettleParams pays an owed currency amount into the pool ledger.
type SettleParams struct {
	Currency common.Address
	Amount   *uint256.Int
}

// MintParams mints a liquidity position over a tick range.
type MintParams struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         uint32
	TickSpacing int32
	TickLower   int32
	TickUpper   int32
	Liquidity   *uint256.Int
	Amount0Max  *uint256.Int
	Amount1Max  *uint256.Int
	Recipient   common.Address
}

// ClearOrTakeParams forfeits a positive residual delta up to AmountMax, or
// takes the full residual when it exceeds the cap.
type ClearOrTakeParams struct {
	Currency  common.Address
	AmountMax *uint256.Int
}

// TakePairParams recovers any residual open balances of both currencies.
type TakePairParams struct {
	Currency0 common.Address
	Currency1 common.Address
	Recipient common.Address
}

func EncodeSettle(p SettleParams) ([]byte, error) {
	return settleArgs.Pack(p.Currency, p.Amount.ToBig())
}

func DecodeSettle(data []byte) (SettleParams, error) {
	vals, err := settleArgs.Unpack(data)
	if err != nil {
		return SettleParams{}, fmt.Errorf("decode settle: %w", err)
	}
	amount, err := toUint256(vals[1])
	if err != nil {
		return SettleParams{}, fmt.Errorf("decode settle: %w", err)
	}
	return SettleParams{
		Currency: vals[0].(common.Address),
		Amount:   amount,
	}, nil
}

func EncodeMint(p MintParams) ([]byte, error) {
	return mintArgs.Pack(
		p.Currency0,
		p.Currency1,
		big.NewInt(int64(p.Fee)),
		big.NewInt(int64(p.TickSpacing)),
		big.NewInt(int64(p.TickLower)),
		big.NewInt(int64(p.TickUpper)),
		p.Liquidity.ToBig(),
		p.Amount0Max.ToBig(),
		p.Amount1Max.ToBig(),
		p.Recipient,
	)
}

func DecodeMint(data []byte) (MintParams, error) {
	vals, err := mintArgs.Unpack(data)
	if err != nil {
		return MintParams{}, fmt.Errorf("decode mint: %w", err)
	}
	liquidity, err := toUint256(vals[6])
	if err != nil {
		return MintParams{}, fmt.Errorf("decode mint liquidity: %w", err)
	}
	amount0Max, err := toUint256(vals[7])
	if err != nil {
		return MintParams{}, fmt.Errorf("decode mint amount0Max: %w", err)
	}
	amount1Max, err := toUint256(vals[8])
	if err != nil {
		return MintParams{}, fmt.Errorf("decode mint amount1Max: %w", err)
	}
	return MintParams{
		Currency0:   vals[0].(common.Address),
		Currency1:   vals[1].(common.Address),
		Fee:         uint32(vals[2].(*big.Int).Uint64()),
		TickSpacing: int32(vals[3].(*big.Int).Int64()),
		TickLower:   int32(vals[4].(*big.Int).Int64()),
		TickUpper:   int32(vals[5].(*big.Int).Int64()),
		Liquidity:   liquidity,
		Amount0Max:  amount0Max,
		Amount1Max:  amount1Max,
		Recipient:   vals[9].(common.Address),
	}, nil
}

func EncodeClearOrTake(p ClearOrTakeParams) ([]byte, error) {
	return clearOrTakeArgs.Pack(p.Currency, p.AmountMax.ToBig())
}

func DecodeClearOrTake(data []byte) (ClearOrTakeParams, error) {
	vals, err := clearOrTakeArgs.Unpack(data)
	if err != nil {
		return ClearOrTakeParams{}, fmt.Errorf("decode clear-or-take: %w", err)
	}
	amountMax, err := toUint256(vals[1])
	if err != nil {
		return ClearOrTakeParams{}, fmt.Errorf("decode clear-or-take: %w", err)
	}
	return ClearOrTakeParams{
		Currency:  vals[0].(common.Address),
		AmountMax: amountMax,
	}, nil
}

func EncodeTakePair(p TakePairParams) ([]byte, error) {
	return takePairArgs.Pack(p.Currency0, p.Currency1, p.Recipient)
}

func DecodeTakePair(data []byte) (TakePairParams, error) {
	vals, err := takePairArgs.Unpack(data)
	if err != nil {
		return TakePairParams{}, fmt.Errorf("decode take-pair: %w", err)
	}
	return TakePairParams{
		Currency0: vals[0].(common.Address),
		Currency1: vals[1].(common.Address),
		Recipient: vals[2].(common.Address),
	}, nil
}

func toUint256(v interface{}) (*uint256.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected abi value type %T", v)
	}
	out, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("abi value overflows 256 bits")
	}
	return out, nil
}
