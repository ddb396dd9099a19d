// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/spvnet/spvd/util"
	"github.com/spvnet/spvd/util/chainhash"
	"github.com/spvnet/spvd/wire"
)

// checkProofOfWork ensures the block header bits which indicate the target
// difficulty is in min/max range and that the block hash is less than the
// target difficulty as claimed.
func (c *Chain) checkProofOfWork(header *wire.BlockHeader) error {
	// The target difficulty must be larger than zero.
	target := util.CompactToBig(header.Bits)
	if target.Sign() <= 0 {
		str := fmt.Sprintf("block target difficulty of %064x is too low",
			target)
		return ruleError(ErrUnexpectedDifficulty, str)
	}

	// The target difficulty must be less than the maximum allowed.
	if target.Cmp(c.params.PowLimit) > 0 {
		str := fmt.Sprintf("block target difficulty of %064x is "+
			"higher than max of %064x", target, c.params.PowLimit)
		return ruleError(ErrUnexpectedDifficulty, str)
	}

	// The block hash must be less than the claimed target.
	hash := header.BlockHash()
	hashNum := chainhash.HashToBig(&hash)
	if hashNum.Cmp(target) > 0 {
		str := fmt.Sprintf("block hash of %064x is higher than "+
			"expected max of %064x", hashNum, target)
		return ruleError(ErrHighHash, str)
	}

	return nil
}

// checkHeaderContext performs the validation checks which depend on the
// header's position within the chain: the stated difficulty must equal the
// value the retarget rule demands at this height, the header hash must
// satisfy that difficulty, and the timestamp must be after the median time
// of the recent ancestors.
func (c *Chain) checkHeaderContext(header *wire.BlockHeader, parent *blockNode, height uint64) error {
	// Ensure the difficulty specified in the header matches the
	// calculated difficulty based on the previous block and difficulty
	// retarget rules.
	expectedBits, err := c.calcNextRequiredDifficulty(parent, height)
	if err != nil {
		return err
	}
	if header.Bits != expectedBits {
		str := fmt.Sprintf("block difficulty of %08x is not the"+
			" expected value of %08x", header.Bits, expectedBits)
		return ruleError(ErrUnexpectedDifficulty, str)
	}

	err = c.checkProofOfWork(header)
	if err != nil {
		return err
	}

	// Ensure the timestamp for the block header is after the median time
	// of the last several blocks. A genesis header has no lower bound.
	if parent != nil {
		medianTime := parent.CalcPastMedianTime(c.params.MedianTimeBlocks)
		if header.Timestamp.Unix() <= medianTime {
			str := fmt.Sprintf("block timestamp of %d is not after"+
				" expected %d", header.Timestamp.Unix(), medianTime)
			return ruleError(ErrTimeTooOld, str)
		}
	}

	return nil
}
