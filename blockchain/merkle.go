// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/spvnet/spvd/util/chainhash"
)

// hashMerkleBranches takes two hashes, treated as the left and right tree
// nodes, and returns the hash of their concatenation. This is a helper
// function used to aid in the generation of a merkle tree.
func hashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	// Concatenate the left and right nodes.
	var hash [chainhash.HashSize * 2]byte
	copy(hash[:chainhash.HashSize], left[:])
	copy(hash[chainhash.HashSize:], right[:])

	return chainhash.DoubleHashH(hash[:])
}

// VerifyMerkleProof recomputes a merkle root from the given leaf and the
// sibling path and reports whether it matches the expected root. The
// siblings are ordered from the bottom level of the tree to the top; the
// leaf index selects, per level, whether the running hash is the left or the
// right operand. An empty sibling path is the single-leaf tree, where the
// leaf itself must equal the root.
func VerifyMerkleProof(leaf chainhash.Hash, siblings []chainhash.Hash,
	leafIndex uint64, expectedRoot chainhash.Hash) bool {

	current := leaf
	index := leafIndex
	for i := range siblings {
		if index&1 == 0 {
			current = hashMerkleBranches(&current, &siblings[i])
		} else {
			current = hashMerkleBranches(&siblings[i], &current)
		}
		index >>= 1
	}

	return current == expectedRoot
}
