// Package create2 derives deterministic deployment addresses and mines
// salts whose derived address carries a hook-permission flag mask and an
// optional vanity prefix.
package create2

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Address computes the CREATE2 address for (deployer, salt, initCodeHash).
func Address(deployer common.Address, salt [32]byte, initCodeHash common.Hash) common.Address {
	return crypto.CreateAddress2(deployer, salt, initCodeHash.Bytes())
}

// SenderSalt re-encodes a mined salt with the committing sender, binding the
// final deployment address to the caller.
func SenderSalt(sender common.Address, salt [32]byte) [32]byte {
	return crypto.Keccak256Hash(common.LeftPadBytes(sender.Bytes(), 32), salt[:])
}

// ChainSalts applies the sender commitment followed by the launcher
// commitment, the order the deployment path consumes them in.
func ChainSalts(sender, launcher common.Address, salt [32]byte) [32]byte {
	return SenderSalt(launcher, SenderSalt(sender, salt))
}
