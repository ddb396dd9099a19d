// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"
	"time"

	"github.com/spvnet/spvd/chaincfg"
	"github.com/spvnet/spvd/util/chainhash"
	"github.com/spvnet/spvd/wire"
)

// TestChainStartsEmpty ensures a fresh chain reports no tip and knows no
// headers.
func TestChainStartsEmpty(t *testing.T) {
	harness := newTestHarness(t)
	chain := harness.chain

	if tipHash := chain.TipHash(); tipHash != nil {
		t.Fatalf("TipHash on empty chain: got %s, want nil", tipHash)
	}
	if height := chain.TipHeight(); height != 0 {
		t.Fatalf("TipHeight on empty chain: got %d, want 0", height)
	}
	isCanonical, confirmations := chain.Status(&chainhash.ZeroHash)
	if isCanonical || confirmations != 0 {
		t.Fatalf("Status of unknown hash: got (%t, %d), want (false, 0)",
			isCanonical, confirmations)
	}
}

// TestStraightLineExtension grows a simple chain and verifies the tip, the
// height index and the per-header queries along the way.
func TestStraightLineExtension(t *testing.T) {
	harness := newTestHarness(t)
	chain := harness.chain

	genesis := harness.nextHeader(nil)
	harness.accept(genesis)
	genesisHash := genesis.BlockHash()

	if tipHash := chain.TipHash(); tipHash == nil || *tipHash != genesisHash {
		t.Fatalf("tip after genesis: got %v, want %s", tipHash, genesisHash)
	}

	tip := harness.extendChain(genesis, 5)
	tipHash := tip.BlockHash()

	if gotTip := chain.TipHash(); gotTip == nil || *gotTip != tipHash {
		t.Fatalf("tip after extension: got %v, want %s", gotTip, tipHash)
	}
	if height := chain.TipHeight(); height != 5 {
		t.Fatalf("tip height: got %d, want 5", height)
	}

	// The tip is its own single confirmation; the genesis header is
	// confirmed by every header on the chain.
	isCanonical, confirmations := chain.Status(&tipHash)
	if !isCanonical || confirmations != 1 {
		t.Fatalf("Status(tip): got (%t, %d), want (true, 1)",
			isCanonical, confirmations)
	}
	isCanonical, confirmations = chain.Status(&genesisHash)
	if !isCanonical || confirmations != 6 {
		t.Fatalf("Status(genesis): got (%t, %d), want (true, 6)",
			isCanonical, confirmations)
	}

	hashAtZero, err := chain.HashAtHeight(0)
	if err != nil {
		t.Fatalf("HashAtHeight(0): unexpected error: %v", err)
	}
	if *hashAtZero != genesisHash {
		t.Fatalf("HashAtHeight(0): got %s, want %s", hashAtZero, genesisHash)
	}
	if _, err := chain.HashAtHeight(6); err == nil {
		t.Fatal("HashAtHeight above the tip: expected an error")
	}

	header, err := chain.HeaderByHash(&genesisHash)
	if err != nil {
		t.Fatalf("HeaderByHash(genesis): unexpected error: %v", err)
	}
	if header.BlockHash() != genesisHash {
		t.Fatalf("HeaderByHash returned header hashing to %s, want %s",
			header.BlockHash(), genesisHash)
	}

	root, err := chain.MerkleRoot(&genesisHash)
	if err != nil {
		t.Fatalf("MerkleRoot(genesis): unexpected error: %v", err)
	}
	if *root != genesis.MerkleRoot {
		t.Fatalf("MerkleRoot(genesis): got %s, want %s", root,
			genesis.MerkleRoot)
	}
}

// TestRejections exercises the malformed, duplicate, orphan, difficulty and
// proof-of-work rejection paths and verifies rejected headers leave no trace.
func TestRejections(t *testing.T) {
	harness := newTestHarness(t)
	chain := harness.chain

	// Truncated raw header.
	err := chain.ProcessHeader(make([]byte, 79))
	checkRuleError(t, err, ErrMalformedHeader)

	genesis := harness.nextHeader(nil)
	harness.accept(genesis)

	// Exact duplicate.
	err = harness.process(genesis)
	checkRuleError(t, err, ErrDuplicateBlock)

	// Unknown previous block.
	orphan := harness.unsolvedNextHeader(genesis)
	orphan.PrevBlock = chainhash.Hash{0x01}
	solveHeader(orphan)
	err = harness.process(orphan)
	checkRuleError(t, err, ErrPreviousBlockUnknown)

	// Difficulty bits that don't match the required value.
	wrongBits := harness.unsolvedNextHeader(genesis)
	wrongBits.Bits = harness.params.PowLimitBits - 1
	solveHeader(wrongBits)
	err = harness.process(wrongBits)
	checkRuleError(t, err, ErrUnexpectedDifficulty)

	// Correct bits but an unsolved hash.
	unsolved := harness.unsolvedNextHeader(genesis)
	unsolveHeader(unsolved)
	err = harness.process(unsolved)
	checkRuleError(t, err, ErrHighHash)

	for _, rejected := range []*wire.BlockHeader{orphan, wrongBits, unsolved} {
		hash := rejected.BlockHash()
		if _, err := chain.HeaderByHash(&hash); err == nil {
			t.Fatalf("rejected header %s is present in the store", hash)
		}
	}
	if height := chain.TipHeight(); height != 0 {
		t.Fatalf("tip height after rejections: got %d, want 0", height)
	}
}

// TestTimestampRule ensures headers must be strictly newer than the median
// time of their ancestors, and that with few ancestors the oldest collected
// timestamp acts as the floor.
func TestTimestampRule(t *testing.T) {
	harness := newTestHarness(t)

	genesis := harness.nextHeader(nil)
	harness.accept(genesis)
	first := harness.nextHeader(genesis)
	harness.accept(first)

	// With only two ancestors the floor is the genesis timestamp, not the
	// parent's. Equal to the floor must be rejected.
	tooOld := harness.unsolvedNextHeader(first)
	tooOld.Timestamp = genesis.Timestamp
	solveHeader(tooOld)
	err := harness.process(tooOld)
	checkRuleError(t, err, ErrTimeTooOld)

	// One second past the floor is accepted even though it is well before
	// the parent's own timestamp.
	barelyNew := harness.unsolvedNextHeader(first)
	barelyNew.Timestamp = genesis.Timestamp.Add(time.Second)
	solveHeader(barelyNew)
	err = harness.process(barelyNew)
	if err != nil {
		t.Fatalf("header one second past the floor was rejected: %v", err)
	}
}

// TestForkChoiceAndReorg replays the canonical fork scenario: a side chain is
// retained without moving the tip until it accumulates strictly more work,
// at which point the height index is rewritten through the fork point.
func TestForkChoiceAndReorg(t *testing.T) {
	harness := newTestHarness(t)
	chain := harness.chain

	genesis := harness.nextHeader(nil)
	harness.accept(genesis)

	// Main chain: genesis <- a1 <- a2.
	a1 := harness.nextHeader(genesis)
	harness.accept(a1)
	a2 := harness.nextHeader(a1)
	harness.accept(a2)
	a2Hash := a2.BlockHash()

	// Side chain: genesis <- b1. Less cumulative work, so the tip must
	// not move, but the header is retained.
	b1 := harness.nextHeader(genesis)
	harness.accept(b1)
	b1Hash := b1.BlockHash()

	if tipHash := chain.TipHash(); *tipHash != a2Hash {
		t.Fatalf("tip moved on a lower-work side header: got %s, want %s",
			tipHash, a2Hash)
	}
	if isCanonical, confirmations := chain.Status(&b1Hash); isCanonical || confirmations != 0 {
		t.Fatalf("side header status: got (%t, %d), want (false, 0)",
			isCanonical, confirmations)
	}
	if _, err := chain.HeaderByHash(&b1Hash); err != nil {
		t.Fatalf("side header was not retained: %v", err)
	}
	if hash, _ := chain.HashAtHeight(1); *hash != a1.BlockHash() {
		t.Fatalf("height 1 points at %s, want the main chain header", hash)
	}

	// Matching cumulative work must not move the tip either.
	b2 := harness.nextHeader(b1)
	harness.accept(b2)
	if tipHash := chain.TipHash(); *tipHash != a2Hash {
		t.Fatalf("tip moved on an equal-work side header: got %s, want %s",
			tipHash, a2Hash)
	}

	// One more side header tips the balance and forces a reorganization.
	b3 := harness.nextHeader(b2)
	harness.accept(b3)
	b3Hash := b3.BlockHash()

	if tipHash := chain.TipHash(); *tipHash != b3Hash {
		t.Fatalf("tip after reorg: got %s, want %s", tipHash, b3Hash)
	}
	if height := chain.TipHeight(); height != 3 {
		t.Fatalf("tip height after reorg: got %d, want 3", height)
	}

	wantByHeight := map[uint64]chainhash.Hash{
		0: genesis.BlockHash(),
		1: b1Hash,
		2: b2.BlockHash(),
		3: b3Hash,
	}
	for height, want := range wantByHeight {
		hash, err := chain.HashAtHeight(height)
		if err != nil {
			t.Fatalf("HashAtHeight(%d): unexpected error: %v", height, err)
		}
		if *hash != want {
			t.Fatalf("HashAtHeight(%d): got %s, want %s", height, hash, want)
		}
	}

	// The reorganized-onto headers gain canonical status and the displaced
	// ones lose it, though they stay queryable.
	if isCanonical, confirmations := chain.Status(&b1Hash); !isCanonical || confirmations != 3 {
		t.Fatalf("side header status after reorg: got (%t, %d), want (true, 3)",
			isCanonical, confirmations)
	}
	if isCanonical, confirmations := chain.Status(&a2Hash); isCanonical || confirmations != 0 {
		t.Fatalf("displaced header status: got (%t, %d), want (false, 0)",
			isCanonical, confirmations)
	}
	if _, err := chain.HeaderByHash(&a2Hash); err != nil {
		t.Fatalf("displaced header was not retained: %v", err)
	}
}

// TestReorgTooDeep ensures a reorganization past the configured bound is
// rejected wholesale, leaving the chain exactly as it was.
func TestReorgTooDeep(t *testing.T) {
	params := chaincfg.SimNetParams
	params.MaxReorgDepth = 3
	harness := newTestHarnessWithParams(t, &params)
	chain := harness.chain

	genesis := harness.nextHeader(nil)
	harness.accept(genesis)
	aTip := harness.extendChain(genesis, 5)
	aTipHash := aTip.BlockHash()

	// Side chain from genesis, one header at a time. The first five match
	// or trail the main chain's work and are retained quietly.
	bTip := genesis
	for i := 0; i < 5; i++ {
		bTip = harness.nextHeader(bTip)
		harness.accept(bTip)
	}

	// The sixth side header exceeds the main chain's work, but connecting
	// it would rewrite six height entries.
	b6 := harness.nextHeader(bTip)
	err := harness.process(b6)
	checkRuleError(t, err, ErrReorgTooDeep)

	// No state may have changed, including the rejected header itself.
	if tipHash := chain.TipHash(); *tipHash != aTipHash {
		t.Fatalf("tip after rejected reorg: got %s, want %s", tipHash, aTipHash)
	}
	b6Hash := b6.BlockHash()
	if _, err := chain.HeaderByHash(&b6Hash); err == nil {
		t.Fatalf("rejected header %s is present in the store", b6Hash)
	}
}

// TestIsMature checks the coinbase maturity boundary exactly at the required
// burial depth, and that side chain headers are never mature.
func TestIsMature(t *testing.T) {
	harness := newTestHarness(t)
	chain := harness.chain

	genesis := harness.nextHeader(nil)
	harness.accept(genesis)
	genesisHash := genesis.BlockHash()
	second := harness.nextHeader(genesis)
	harness.accept(second)
	secondHash := second.BlockHash()

	// A side chain header at height 1; it never becomes mature no matter
	// how deep the main chain grows.
	side := harness.nextHeader(genesis)
	harness.accept(side)
	sideHash := side.BlockHash()

	// Grow the main chain to height 99: the genesis header is then buried
	// 99 blocks below the tip, one short of maturity.
	tip := harness.extendChain(second, 98)
	if chain.IsMature(&genesisHash) {
		t.Fatal("genesis mature 99 blocks below the tip")
	}

	// Height 100 buries it exactly deep enough.
	harness.accept(harness.nextHeader(tip))
	if !chain.IsMature(&genesisHash) {
		t.Fatal("genesis not mature 100 blocks below the tip")
	}
	if chain.IsMature(&secondHash) {
		t.Fatal("height 1 header mature 99 blocks below the tip")
	}
	if chain.IsMature(&sideHash) {
		t.Fatal("side chain header reported mature")
	}
	if chain.IsMature(&chainhash.ZeroHash) {
		t.Fatal("unknown header reported mature")
	}
}
