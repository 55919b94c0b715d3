package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/create2"
)

type mineOutput struct {
	Salt       string `json:"salt"`
	Address    string `json:"address"`
	Attempts   uint64 `json:"attempts"`
	SenderSalt string `json:"sender_salt,omitempty"`
}

func runMineSalt(cmd *cobra.Command, _ []string) error {
	deployerStr, _ := cmd.Flags().GetString("deployer")
	hashStr, _ := cmd.Flags().GetString("init-code-hash")
	maskStr, _ := cmd.Flags().GetString("flag-mask")
	prefix, _ := cmd.Flags().GetString("prefix")
	workers, _ := cmd.Flags().GetInt("workers")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	senderStr, _ := cmd.Flags().GetString("sender")

	if !common.IsHexAddress(deployerStr) {
		return fmt.Errorf("deployer %q is not an address", deployerStr)
	}
	hashBytes, err := hexutil.Decode(hashStr)
	if err != nil || len(hashBytes) != common.HashLength {
		return fmt.Errorf("init-code-hash %q is not a 32-byte hex value", hashStr)
	}
	var mask common.Address
	if maskStr != "" {
		if !common.IsHexAddress(maskStr) {
			return fmt.Errorf("flag-mask %q is not an address", maskStr)
		}
		mask = common.HexToAddress(maskStr)
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := create2.MineSalt(ctx, create2.MineParams{
		Deployer:     common.HexToAddress(deployerStr),
		InitCodeHash: common.BytesToHash(hashBytes),
		FlagMask:     mask,
		VanityPrefix: prefix,
		Workers:      workers,
	})
	if err != nil {
		return fmt.Errorf("mine salt: %w", err)
	}

	out := mineOutput{
		Salt:     hexutil.Encode(res.Salt[:]),
		Address:  res.Address.Hex(),
		Attempts: res.Attempts,
	}
	if senderStr != "" {
		if !common.IsHexAddress(senderStr) {
			return fmt.Errorf("sender %q is not an address", senderStr)
		}
		chained := create2.SenderSalt(common.HexToAddress(senderStr), res.Salt)
		out.SenderSalt = hexutil.Encode(chained[:])
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
