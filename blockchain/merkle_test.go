// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/spvnet/spvd/util/chainhash"
)

// testLeaves returns four distinct leaf hashes and the merkle internals built
// from them, so proofs can be checked against a hand-assembled tree.
func testLeaves() (leaves [4]chainhash.Hash, left, right, root chainhash.Hash) {
	for i := range leaves {
		leaves[i][0] = byte(i + 1)
	}
	left = hashMerkleBranches(&leaves[0], &leaves[1])
	right = hashMerkleBranches(&leaves[2], &leaves[3])
	root = hashMerkleBranches(&left, &right)
	return leaves, left, right, root
}

func TestVerifyMerkleProof(t *testing.T) {
	leaves, left, right, root := testLeaves()

	tests := []struct {
		name     string
		leaf     chainhash.Hash
		siblings []chainhash.Hash
		index    uint64
		root     chainhash.Hash
		want     bool
	}{
		{
			name:     "leaf 0, valid proof",
			leaf:     leaves[0],
			siblings: []chainhash.Hash{leaves[1], right},
			index:    0,
			root:     root,
			want:     true,
		},
		{
			name:     "leaf 3, valid proof",
			leaf:     leaves[3],
			siblings: []chainhash.Hash{leaves[2], left},
			index:    3,
			root:     root,
			want:     true,
		},
		{
			name:     "right proof, wrong index",
			leaf:     leaves[3],
			siblings: []chainhash.Hash{leaves[2], left},
			index:    2,
			root:     root,
			want:     false,
		},
		{
			name:     "tampered sibling",
			leaf:     leaves[0],
			siblings: []chainhash.Hash{leaves[2], right},
			index:    0,
			root:     root,
			want:     false,
		},
		{
			name:  "single leaf tree, leaf is the root",
			leaf:  leaves[0],
			index: 0,
			root:  leaves[0],
			want:  true,
		},
		{
			name:  "single leaf tree, mismatch",
			leaf:  leaves[0],
			index: 0,
			root:  leaves[1],
			want:  false,
		},
	}

	for _, test := range tests {
		got := VerifyMerkleProof(test.leaf, test.siblings, test.index, test.root)
		if got != test.want {
			t.Errorf("%s: got %t, want %t", test.name, got, test.want)
		}
	}
}

// TestVerifyInclusion checks the proof verification anchored through a stored
// header's merkle root.
func TestVerifyInclusion(t *testing.T) {
	harness := newTestHarness(t)
	chain := harness.chain

	leaves, _, right, root := testLeaves()

	// Commit the assembled root in the genesis header.
	genesis := harness.unsolvedNextHeader(nil)
	genesis.MerkleRoot = root
	solveHeader(genesis)
	harness.accept(genesis)
	genesisHash := genesis.BlockHash()

	included, err := chain.VerifyInclusion(&genesisHash, &leaves[0],
		[]chainhash.Hash{leaves[1], right}, 0)
	if err != nil {
		t.Fatalf("VerifyInclusion: unexpected error: %v", err)
	}
	if !included {
		t.Fatal("valid inclusion proof rejected")
	}

	included, err = chain.VerifyInclusion(&genesisHash, &leaves[2],
		[]chainhash.Hash{leaves[1], right}, 0)
	if err != nil {
		t.Fatalf("VerifyInclusion: unexpected error: %v", err)
	}
	if included {
		t.Fatal("proof for the wrong transaction accepted")
	}

	// Unknown anchoring header.
	_, err = chain.VerifyInclusion(&chainhash.ZeroHash, &leaves[0],
		[]chainhash.Hash{leaves[1], right}, 0)
	if err == nil {
		t.Fatal("VerifyInclusion against an unknown header: expected an error")
	}
}
