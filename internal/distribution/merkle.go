// Package distribution implements merkle-proof gated token claims: a sorted-
// pair keccak tree over (index, account, amount) leaves and a distributor
// that pays claims from a funded pot.
package distribution

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var ErrLeafOutOfRange = errors.New("distribution: leaf index out of range")

// Leaf is one distribution entitlement.
type Leaf struct {
	Index   uint64
	Account common.Address
	Amount  *uint256.Int
}

// LeafHash commits to the entitlement. The index is part of the hash so two
// equal grants to one account stay distinct leaves.
func LeafHash(l Leaf) common.Hash {
	idx := uint256.NewInt(l.Index).Bytes32()
	amount := l.Amount.Bytes32()
	return crypto.Keccak256Hash(idx[:], l.Account.Bytes(), amount[:])
}

// hashPair combines two nodes in sorted order, so proofs need no left/right
// direction bits.
func hashPair(a, b common.Hash) common.Hash {
	if bytesCompare(a, b) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a.Bytes(), b.Bytes())
}

func bytesCompare(a, b common.Hash) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// BuildRoot computes the merkle root over the leaves. Odd nodes at any level
// are promoted unchanged. An empty leaf set has a zero root.
func BuildRoot(leaves []Leaf) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	level := make([]common.Hash, len(leaves))
	for i, l := range leaves {
		level[i] = LeafHash(l)
	}
	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}

// Proof returns the sibling path for the leaf at position i.
func Proof(leaves []Leaf, i int) ([]common.Hash, error) {
	if i < 0 || i >= len(leaves) {
		return nil, ErrLeafOutOfRange
	}
	level := make([]common.Hash, len(leaves))
	for j, l := range leaves {
		level[j] = LeafHash(l)
	}

	var proof []common.Hash
	pos := i
	for len(level) > 1 {
		sibling := pos ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for j := 0; j < len(level); j += 2 {
			if j+1 == len(level) {
				next = append(next, level[j])
				continue
			}
			next = append(next, hashPair(level[j], level[j+1]))
		}
		level = next
		pos /= 2
	}
	return proof, nil
}

// VerifyProof folds the sibling path over the leaf hash and compares the
// result against the root.
func VerifyProof(root common.Hash, leaf Leaf, proof []common.Hash) bool {
	node := LeafHash(leaf)
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}
