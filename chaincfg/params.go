// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"

	"github.com/spvnet/spvd/util"
	"github.com/spvnet/spvd/util/chainhash"
	"github.com/spvnet/spvd/wire"
)

// These variables are the chain proof-of-work limit parameters for each
// default network. The limit doubles as the required target of a genesis
// header and as the ceiling applied after every retarget.
var (
	// mainPowLimit is the highest proof of work value a block can have
	// for the main network: the standard difficulty-1 target.
	mainPowLimit = util.CompactToBig(mainPowLimitBits)

	// simNetPowLimit is the highest proof of work value a block can have
	// for the simulation test network. It is kept high enough that header
	// hashes found by a trivial nonce search satisfy it.
	simNetPowLimit = util.CompactToBig(simNetPowLimitBits)
)

const (
	mainPowLimitBits   uint32 = 0x1d00ffff
	simNetPowLimitBits uint32 = 0x207fffff
)

// Params defines a network by its parameters. These parameters may be used
// by applications to differentiate networks as well as to drive the header
// validation rules.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// GenesisHeader defines the first header of the chain, when the
	// network fixes one. Networks used for simulation leave it nil and
	// accept any genesis-shaped header that meets PowLimitBits.
	GenesisHeader *wire.BlockHeader

	// GenesisHash is the starting header hash.
	GenesisHash *chainhash.Hash

	// PowLimit defines the highest allowed proof of work value for a
	// header as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// header in compact form. It is the required target of a genesis
	// header.
	PowLimitBits uint32

	// BlocksPerRetarget is the number of headers in a difficulty epoch.
	// The target is recomputed whenever a header's height is a multiple
	// of this value.
	BlocksPerRetarget uint64

	// TargetTimePerBlock is the desired amount of time to generate each
	// header.
	TargetTimePerBlock time.Duration

	// TargetTimespan is the desired amount of time that should elapse
	// over one difficulty epoch.
	TargetTimespan time.Duration

	// RetargetAdjustmentFactor is the adjustment factor used to limit the
	// minimum and maximum amount of adjustment that can occur between
	// difficulty retargets.
	RetargetAdjustmentFactor int64

	// CoinbaseMaturity is the number of blocks a header must be buried
	// below the tip before its newly created output may be paid out.
	CoinbaseMaturity uint64

	// MedianTimeBlocks is the number of previous headers which should be
	// used to calculate the median time used to validate header
	// timestamps.
	MedianTimeBlocks int

	// MaxReorgDepth bounds how many height-index entries a single chain
	// reorganization may rewrite. A reorganization deeper than this is
	// rejected outright.
	MaxReorgDepth uint64
}

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:          "mainnet",
	GenesisHeader: &genesisHeader,
	GenesisHash:   &genesisHash,
	PowLimit:      mainPowLimit,
	PowLimitBits:  mainPowLimitBits,

	BlocksPerRetarget:        2016,
	TargetTimePerBlock:       time.Minute * 10,
	TargetTimespan:           time.Minute * 10 * 2016,
	RetargetAdjustmentFactor: 4,

	CoinbaseMaturity: 100,
	MedianTimeBlocks: 11,
	MaxReorgDepth:    10,
}

// SimNetParams defines the network parameters for the simulation test
// network. This network is intended for private use where headers are
// produced on demand, so there is no fixed genesis: the first zero-previous
// header meeting PowLimitBits starts the chain.
var SimNetParams = Params{
	Name:         "simnet",
	PowLimit:     simNetPowLimit,
	PowLimitBits: simNetPowLimitBits,

	BlocksPerRetarget:        2016,
	TargetTimePerBlock:       time.Minute * 10,
	TargetTimespan:           time.Minute * 10 * 2016,
	RetargetAdjustmentFactor: 4,

	CoinbaseMaturity: 100,
	MedianTimeBlocks: 11,
	MaxReorgDepth:    10,
}
