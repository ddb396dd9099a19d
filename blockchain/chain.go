// Copyright (c) 2013-2018 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/spvnet/spvd/chaincfg"
	"github.com/spvnet/spvd/dbaccess"
	"github.com/spvnet/spvd/util/chainhash"
	"github.com/spvnet/spvd/wire"
)

// Config is a descriptor which specifies the blockchain instance configuration.
type Config struct {
	// Params identifies which chain parameters the chain is associated
	// with.
	//
	// This field is required.
	Params *chaincfg.Params

	// DB defines the database which houses the headers accepted so far.
	// When it is non-nil, the stored headers are replayed on creation and
	// every newly accepted header is persisted.
	//
	// This field is optional.
	DB *dbaccess.DatabaseContext
}

// Chain provides functions for working with a chain of validated block
// headers. It includes functionality such as rejecting duplicate headers,
// ensuring headers follow all consensus rules, best chain selection with
// bounded reorganization handling, and merkle inclusion proof checking.
type Chain struct {
	// The following fields are set when the instance is created and can't
	// be changed afterwards, so there is no need to protect them with a
	// separate mutex.
	params              *chaincfg.Params
	db                  *dbaccess.DatabaseContext
	minRetargetTimespan int64 // target timespan / adjustment factor
	maxRetargetTimespan int64 // target timespan * adjustment factor

	// chainLock protects all of the fields below it.
	chainLock sync.RWMutex

	// index houses every validated header, including headers on side
	// chains which are not part of the best chain.
	index map[chainhash.Hash]*blockNode

	// mainChain maps heights to the hash of the best chain header at that
	// height. Entries above the current tip height are stale leftovers of
	// reorganizations to a lower tip and are not canonical.
	mainChain map[uint64]chainhash.Hash

	// tip is the header with the most cumulative work, or nil before any
	// header has been accepted.
	tip *blockNode

	// notifications must only be accessed with notificationsLock held.
	notificationsLock sync.RWMutex
	notifications     []NotificationCallback
}

// New returns a Chain instance using the provided configuration details.
func New(config *Config) (*Chain, error) {
	if config.Params == nil {
		return nil, AssertError("blockchain.New chain parameters nil")
	}

	params := config.Params
	targetTimespan := int64(params.TargetTimespan.Seconds())
	adjustmentFactor := params.RetargetAdjustmentFactor
	c := &Chain{
		params:              params,
		db:                  config.DB,
		minRetargetTimespan: targetTimespan / adjustmentFactor,
		maxRetargetTimespan: targetTimespan * adjustmentFactor,
		index:               make(map[chainhash.Hash]*blockNode),
		mainChain:           make(map[uint64]chainhash.Hash),
	}

	if config.DB != nil {
		err := c.replayStoredHeaders()
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// replayStoredHeaders rebuilds the in-memory chain state from the persisted
// header log. The log records headers in acceptance order, so replaying it
// front to back revalidates cheaply and reconstructs the same tip.
func (c *Chain) replayStoredHeaders() error {
	storedHeaders, err := dbaccess.FetchHeaders(c.db)
	if err != nil {
		return err
	}

	for i, headerBytes := range storedHeaders {
		_, err := c.acceptHeaderBytes(headerBytes)
		if err != nil {
			return errors.Wrapf(err, "replaying stored header %d of %d",
				i+1, len(storedHeaders))
		}
	}

	if c.tip != nil {
		log.Infof("Replayed %d stored headers, chain tip %s",
			len(storedHeaders), c.tip)
	}
	return nil
}

// connectBestChain handles selecting the best chain after the passed node has
// been added to the index. A node with more cumulative work than the current
// tip becomes the new tip, rewriting the height index through the fork point
// when needed. Nodes that do not beat the tip are retained as side chain
// headers without touching the height index.
//
// It returns whether the chain tip changed.
//
// This function MUST be called with the chain lock held (for writes).
func (c *Chain) connectBestChain(node *blockNode) (bool, error) {
	// The first accepted header is the tip unconditionally.
	if c.tip == nil {
		c.mainChain[node.height] = node.hash
		c.tip = node
		return true, nil
	}

	if node.workSum.Cmp(c.tip.workSum) > 0 {
		err := c.reorganizeChain(node)
		if err != nil {
			return false, err
		}
		return true, nil
	}

	// A direct extension of the tip that somehow fails to raise the
	// cumulative work. Unreachable while every valid header carries
	// positive work, but kept so tip extension never depends on it.
	if node.parent == c.tip {
		c.mainChain[node.height] = node.hash
		c.tip = node
		return true, nil
	}

	log.Debugf("Header %s extends a side chain, current tip remains %s",
		node, c.tip)
	return false, nil
}

// reorganizeChain switches the best chain to the one ending in the passed
// node. It walks back from the node to the deepest ancestor already on the
// best chain, rewrites the height index for the walked range, and moves the
// tip. The walk is bounded by the network's maximum reorganization depth and
// no state is modified when the bound is exceeded.
//
// This function MUST be called with the chain lock held (for writes).
func (c *Chain) reorganizeChain(node *blockNode) error {
	// Collect the nodes to attach, newest first, stopping at the first
	// ancestor whose height index entry already matches.
	attachNodes := make([]*blockNode, 0, 1)
	for walk := node; ; walk = walk.parent {
		if existing, ok := c.mainChain[walk.height]; ok && existing == walk.hash {
			break
		}
		attachNodes = append(attachNodes, walk)
		if uint64(len(attachNodes)) > c.params.MaxReorgDepth {
			str := fmt.Sprintf("reorganization to block %s would "+
				"rewrite more than %d height entries", node.hash,
				c.params.MaxReorgDepth)
			return ruleError(ErrReorgTooDeep, str)
		}
		if walk.parent == nil {
			break
		}
	}

	for _, attach := range attachNodes {
		c.mainChain[attach.height] = attach.hash
	}
	oldTip := c.tip
	c.tip = node

	if len(attachNodes) > 1 || node.parent != oldTip {
		log.Infof("REORGANIZE: chain tip moved from %s to %s (%d headers rewritten)",
			oldTip, node, len(attachNodes))
	} else {
		log.Debugf("Chain tip extended to %s", node)
	}
	return nil
}

// isCanonical returns whether the passed node is on the best chain. Height
// index entries above the tip height are stale remains of a reorganization to
// a lower tip and do not count.
//
// This function MUST be called with the chain lock held (for reads).
func (c *Chain) isCanonical(node *blockNode) bool {
	if c.tip == nil || node.height > c.tip.height {
		return false
	}
	hash, ok := c.mainChain[node.height]
	return ok && hash == node.hash
}

// TipHash returns the hash of the current best chain tip, or nil when no
// header has been accepted yet.
//
// This function is safe for concurrent access.
func (c *Chain) TipHash() *chainhash.Hash {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	if c.tip == nil {
		return nil
	}
	hash := c.tip.hash
	return &hash
}

// TipHeight returns the height of the current best chain tip. It is 0 both
// for an empty chain and for a chain holding only a genesis header; use
// TipHash to tell the two apart.
//
// This function is safe for concurrent access.
func (c *Chain) TipHeight() uint64 {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	if c.tip == nil {
		return 0
	}
	return c.tip.height
}

// Status returns whether the header with the given hash is on the best chain
// and, when it is, its confirmation count: the number of best chain headers
// from it up to the tip, inclusive. Unknown and side chain headers both
// report (false, 0); use HeaderByHash to tell the two apart.
//
// This function is safe for concurrent access.
func (c *Chain) Status(hash *chainhash.Hash) (isCanonical bool, confirmations uint64) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	node, ok := c.index[*hash]
	if !ok || !c.isCanonical(node) {
		return false, 0
	}
	return true, c.tip.height - node.height + 1
}

// IsMature returns whether the header with the given hash is buried at least
// CoinbaseMaturity blocks below the current tip, making its coinbase
// spendable. A header that is not on the best chain is never mature.
//
// This function is safe for concurrent access.
func (c *Chain) IsMature(hash *chainhash.Hash) bool {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	node, ok := c.index[*hash]
	if !ok || !c.isCanonical(node) {
		return false
	}
	return c.tip.height >= node.height+c.params.CoinbaseMaturity
}

// HeaderByHash returns the header identified by the given hash, whether it is
// on the best chain or not.
//
// This function is safe for concurrent access.
func (c *Chain) HeaderByHash(hash *chainhash.Hash) (*wire.BlockHeader, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	node, ok := c.index[*hash]
	if !ok {
		return nil, errors.Errorf("header %s is not known", hash)
	}
	return node.Header(), nil
}

// BlockHeight returns the height of the header with the given hash.
//
// This function is safe for concurrent access.
func (c *Chain) BlockHeight(hash *chainhash.Hash) (uint64, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	node, ok := c.index[*hash]
	if !ok {
		return 0, errors.Errorf("header %s is not known", hash)
	}
	return node.height, nil
}

// MerkleRoot returns the merkle root committed to by the header with the
// given hash.
//
// This function is safe for concurrent access.
func (c *Chain) MerkleRoot(hash *chainhash.Hash) (*chainhash.Hash, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	node, ok := c.index[*hash]
	if !ok {
		return nil, errors.Errorf("header %s is not known", hash)
	}
	root := node.merkleRoot
	return &root, nil
}

// HashAtHeight returns the hash of the best chain header at the given height.
// Heights above the current tip are rejected even when a stale index entry
// from an earlier reorganization exists there.
//
// This function is safe for concurrent access.
func (c *Chain) HashAtHeight(height uint64) (*chainhash.Hash, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	if c.tip == nil || height > c.tip.height {
		return nil, errors.Errorf("no best chain header at height %d", height)
	}
	hash, ok := c.mainChain[height]
	if !ok {
		return nil, errors.Errorf("no best chain header at height %d", height)
	}
	return &hash, nil
}

// VerifyInclusion checks a merkle inclusion proof for the given transaction
// id against the merkle root committed to by the identified header. It
// returns an error when the header is unknown and false when the proof does
// not connect the transaction to the root.
//
// This function is safe for concurrent access.
func (c *Chain) VerifyInclusion(headerHash, txID *chainhash.Hash,
	siblings []chainhash.Hash, leafIndex uint64) (bool, error) {

	root, err := c.MerkleRoot(headerHash)
	if err != nil {
		return false, err
	}
	return VerifyMerkleProof(*txID, siblings, leafIndex, *root), nil
}
