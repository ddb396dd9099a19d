// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/spvnet/spvd/util"
	"github.com/spvnet/spvd/util/chainhash"
	"github.com/spvnet/spvd/wire"
)

// blockNode represents a header within the block chain. Nodes are created
// only by validated insertion and are never mutated afterwards, so all fields
// may be read without holding the chain lock.
type blockNode struct {
	// parent is the parent node for this node. It is nil for the genesis
	// node.
	parent *blockNode

	// hash is the double sha256 of the 80-byte serialized header.
	hash chainhash.Hash

	// workSum is the total amount of work in the chain up to and
	// including this node.
	workSum *big.Int

	// height is the position in the block chain.
	height uint64

	// Some fields from the header to aid in best chain selection and
	// reconstructing headers from memory. These must be treated as
	// immutable.
	version    int32
	bits       uint32
	nonce      uint32
	timestamp  int64
	merkleRoot chainhash.Hash
}

// newBlockNode returns a new block node for the given header and parent node.
// The parent is nil for a genesis header. This function is NOT safe for
// concurrent access.
func newBlockNode(header *wire.BlockHeader, parent *blockNode) *blockNode {
	node := &blockNode{
		parent:     parent,
		hash:       header.BlockHash(),
		workSum:    util.CalcWork(header.Bits),
		version:    header.Version,
		bits:       header.Bits,
		nonce:      header.Nonce,
		timestamp:  header.Timestamp.Unix(),
		merkleRoot: header.MerkleRoot,
	}
	if parent != nil {
		node.height = parent.height + 1
		node.workSum = node.workSum.Add(parent.workSum, node.workSum)
	}
	return node
}

// Header constructs a block header from the node and returns it.
//
// This function is safe for concurrent access.
func (node *blockNode) Header() *wire.BlockHeader {
	// No lock is needed because all accessed fields are immutable.
	prevHash := chainhash.ZeroHash
	if node.parent != nil {
		prevHash = node.parent.hash
	}
	return &wire.BlockHeader{
		Version:    node.version,
		PrevBlock:  prevHash,
		MerkleRoot: node.merkleRoot,
		Timestamp:  time.Unix(node.timestamp, 0),
		Bits:       node.bits,
		Nonce:      node.nonce,
	}
}

// Ancestor returns the ancestor block node at the provided height by
// following the parent chain backwards from this node. The returned block
// will be nil when a height is requested that is after the height of the
// passed node.
//
// This function is safe for concurrent access.
func (node *blockNode) Ancestor(height uint64) *blockNode {
	if height > node.height {
		return nil
	}

	n := node
	for ; n != nil && n.height != height; n = n.parent {
		// Intentionally left blank
	}

	return n
}

// RelativeAncestor returns the ancestor block node a relative 'distance'
// blocks before this node. Nil is returned when distance exceeds the node's
// height.
//
// This function is safe for concurrent access.
func (node *blockNode) RelativeAncestor(distance uint64) *blockNode {
	if distance > node.height {
		return nil
	}
	return node.Ancestor(node.height - distance)
}

// CalcPastMedianTime returns the median time of up to medianTimeBlocks
// ancestors, this node included, walking the parent chain.
//
// When fewer than medianTimeBlocks ancestors exist, the oldest collected
// timestamp is returned rather than a true median. That floor is a
// compatibility rule and must not be corrected to a real median.
//
// This function is safe for concurrent access.
func (node *blockNode) CalcPastMedianTime(medianTimeBlocks int) int64 {
	timestamps := make([]int64, 0, medianTimeBlocks)
	iterNode := node
	for i := 0; i < medianTimeBlocks && iterNode != nil; i++ {
		timestamps = append(timestamps, iterNode.timestamp)
		iterNode = iterNode.parent
	}

	if len(timestamps) < medianTimeBlocks {
		// The walk ran out of ancestors, so the last collected
		// timestamp is the oldest one.
		return timestamps[len(timestamps)-1]
	}

	sort.Sort(timeSorter(timestamps))
	return timestamps[len(timestamps)/2]
}

// String returns a string that contains the block hash and height.
func (node blockNode) String() string {
	return fmt.Sprintf("%s (%d)", node.hash, node.height)
}

// timeSorter implements sort.Interface to allow a slice of timestamps to be
// sorted.
type timeSorter []int64

// Len returns the number of timestamps in the slice. It is part of the
// sort.Interface implementation.
func (s timeSorter) Len() int {
	return len(s)
}

// Swap swaps the timestamps at the passed indices. It is part of the
// sort.Interface implementation.
func (s timeSorter) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Less returns whether the timestamp with index i should sort before the
// timestamp with index j. It is part of the sort.Interface implementation.
func (s timeSorter) Less(i, j int) bool {
	return s[i] < s[j]
}
