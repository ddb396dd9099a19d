// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/spvnet/spvd/util"
)

// calcNextRequiredDifficulty calculates the required difficulty for the
// header at the given height whose parent is the passed node. The parent is
// nil only for a genesis header, which is required to use the network's
// proof-of-work limit.
func (c *Chain) calcNextRequiredDifficulty(parent *blockNode, height uint64) (uint32, error) {
	// Genesis block.
	if parent == nil {
		return c.params.PowLimitBits, nil
	}

	// Return the previous block's difficulty requirements if this block
	// is not at a difficulty retarget interval.
	if height%c.params.BlocksPerRetarget != 0 {
		return parent.bits, nil
	}

	// Get the block node at the previous retarget (targetTimespan days
	// worth of blocks).
	epochStart := parent.RelativeAncestor(c.params.BlocksPerRetarget - 1)
	if epochStart == nil {
		return 0, AssertError("unable to obtain epoch start node")
	}

	// Limit the amount of adjustment that can occur to the previous
	// difficulty.
	actualTimespan := parent.timestamp - epochStart.timestamp
	adjustedTimespan := actualTimespan
	if actualTimespan < c.minRetargetTimespan {
		adjustedTimespan = c.minRetargetTimespan
	} else if actualTimespan > c.maxRetargetTimespan {
		adjustedTimespan = c.maxRetargetTimespan
	}

	// Calculate new target difficulty as:
	//  currentDifficulty * (adjustedTimespan / targetTimespan)
	// The result uses integer division which means it will be slightly
	// rounded down.
	oldTarget := util.CompactToBig(parent.bits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(adjustedTimespan))
	targetTimespan := int64(c.params.TargetTimespan.Seconds())
	newTarget.Div(newTarget, big.NewInt(targetTimespan))

	// Limit new value to the proof of work limit.
	if newTarget.Cmp(c.params.PowLimit) > 0 {
		newTarget.Set(c.params.PowLimit)
	}

	// Log new target difficulty and return it. The new target logging is
	// intentionally converting the bits back to a number instead of using
	// newTarget since conversion to the compact representation loses
	// precision.
	newTargetBits := util.BigToCompact(newTarget)
	log.Debugf("Difficulty retarget at block height %d", height)
	log.Debugf("Old target %08x (%064x)", parent.bits, oldTarget)
	log.Debugf("New target %08x (%064x)", newTargetBits,
		util.CompactToBig(newTargetBits))
	log.Debugf("Actual timespan %d, adjusted timespan %d, target timespan %d",
		actualTimespan, adjustedTimespan, targetTimespan)

	return newTargetBits, nil
}
