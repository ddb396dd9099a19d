// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"

	"github.com/spvnet/spvd/dbaccess"
	"github.com/spvnet/spvd/util/chainhash"
	"github.com/spvnet/spvd/wire"
)

// chainEvent is a notification queued during header acceptance and delivered
// to subscribers only after the chain state has been committed.
type chainEvent struct {
	typ  NotificationType
	data interface{}
}

// acceptHeaderBytes deserializes the raw header and runs it through the
// acceptance path. It returns the notifications to deliver on success.
//
// This function MUST be called with the chain lock held (for writes).
func (c *Chain) acceptHeaderBytes(headerBytes []byte) ([]chainEvent, error) {
	if len(headerBytes) != wire.BlockHeaderPayload {
		str := fmt.Sprintf("serialized block header is %d bytes, not %d",
			len(headerBytes), wire.BlockHeaderPayload)
		return nil, ruleError(ErrMalformedHeader, str)
	}

	var header wire.BlockHeader
	err := header.Deserialize(bytes.NewReader(headerBytes))
	if err != nil {
		str := fmt.Sprintf("block header failed to deserialize: %v", err)
		return nil, ruleError(ErrMalformedHeader, str)
	}

	return c.acceptHeader(&header)
}

// acceptHeader performs the full set of validation rules on the header, adds
// it to the index, and hands it to the best chain selection logic. Either the
// header is fully connected or no state changes at all.
//
// This function MUST be called with the chain lock held (for writes).
func (c *Chain) acceptHeader(header *wire.BlockHeader) ([]chainEvent, error) {
	hash := header.BlockHash()
	if _, exists := c.index[hash]; exists {
		str := fmt.Sprintf("already have block %s", hash)
		return nil, ruleError(ErrDuplicateBlock, str)
	}

	// A genesis header has no parent and anchors a chain at height 0.
	// Everything else must reference an already accepted header.
	var parent *blockNode
	if !header.IsGenesis() {
		var ok bool
		parent, ok = c.index[header.PrevBlock]
		if !ok {
			str := fmt.Sprintf("previous block %s is unknown",
				header.PrevBlock)
			return nil, ruleError(ErrPreviousBlockUnknown, str)
		}
	}

	height := uint64(0)
	if parent != nil {
		height = parent.height + 1
	}

	err := c.checkHeaderContext(header, parent, height)
	if err != nil {
		return nil, err
	}

	node := newBlockNode(header, parent)
	c.index[hash] = node

	tipChanged, err := c.connectBestChain(node)
	if err != nil {
		// Undo the index insertion so a rejected header leaves no
		// trace.
		delete(c.index, hash)
		return nil, err
	}

	log.Debugf("Accepted block %s", node)

	events := []chainEvent{{typ: NTHeaderAdded, data: node.Header()}}
	if tipChanged {
		tipHash := node.hash
		events = append(events, chainEvent{typ: NTChainTipUpdated, data: &tipHash})
	}
	return events, nil
}

// ProcessHeader is the main workhorse for handing a raw serialized header to
// the chain. It validates the header against the consensus rules, stores it,
// updates the best chain when appropriate, and persists the header when a
// database is configured. Acceptance happens on a staged copy so a failed
// database write leaves no trace in memory and the header can simply be
// resubmitted.
//
// This function is safe for concurrent access.
func (c *Chain) ProcessHeader(headerBytes []byte) error {
	c.chainLock.Lock()
	staged := c.stage()
	events, err := staged.acceptHeaderBytes(headerBytes)
	if err == nil && c.db != nil {
		err = dbaccess.StoreHeader(c.db, headerBytes)
	}
	if err == nil {
		c.commit(staged)
	}
	c.chainLock.Unlock()
	if err != nil {
		return err
	}

	for _, event := range events {
		c.sendNotification(event.typ, event.data)
	}
	return nil
}

// ProcessHeaders hands an ordered batch of raw serialized headers to the
// chain atomically: either every header is accepted, or the first failure is
// returned and the chain is left exactly as it was before the call.
// Notifications are delivered only after the whole batch has committed.
//
// This function is safe for concurrent access.
func (c *Chain) ProcessHeaders(rawHeaders [][]byte) error {
	c.chainLock.Lock()
	staged := c.stage()
	var events []chainEvent
	var err error
	for i, headerBytes := range rawHeaders {
		var headerEvents []chainEvent
		headerEvents, err = staged.acceptHeaderBytes(headerBytes)
		if err != nil {
			err = errors.Wrapf(err, "header %d of %d rejected, "+
				"batch discarded", i+1, len(rawHeaders))
			break
		}
		events = append(events, headerEvents...)
	}

	if err == nil && c.db != nil {
		for _, headerBytes := range rawHeaders {
			err = dbaccess.StoreHeader(c.db, headerBytes)
			if err != nil {
				break
			}
		}
	}
	if err == nil {
		c.commit(staged)
	}
	c.chainLock.Unlock()
	if err != nil {
		return err
	}

	for _, event := range events {
		c.sendNotification(event.typ, event.data)
	}
	return nil
}

// stage returns a Chain whose index and height maps are copies of this
// chain's, sharing the immutable block nodes. Mutating the staged chain
// leaves the original untouched until commit.
//
// This function MUST be called with the chain lock held (for writes).
func (c *Chain) stage() *Chain {
	index := make(map[chainhash.Hash]*blockNode, len(c.index))
	for hash, node := range c.index {
		index[hash] = node
	}
	mainChain := make(map[uint64]chainhash.Hash, len(c.mainChain))
	for height, hash := range c.mainChain {
		mainChain[height] = hash
	}
	return &Chain{
		params:              c.params,
		minRetargetTimespan: c.minRetargetTimespan,
		maxRetargetTimespan: c.maxRetargetTimespan,
		index:               index,
		mainChain:           mainChain,
		tip:                 c.tip,
	}
}

// commit adopts the staged chain's state.
//
// This function MUST be called with the chain lock held (for writes).
func (c *Chain) commit(staged *Chain) {
	c.index = staged.index
	c.mainChain = staged.mainChain
	c.tip = staged.tip
}
