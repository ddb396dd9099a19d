// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/spvnet/spvd/chaincfg"
	"github.com/spvnet/spvd/util"
	"github.com/spvnet/spvd/util/chainhash"
	"github.com/spvnet/spvd/wire"
)

// testHarness bundles a chain instance with the helpers the tests use to
// grow it. The simulation network's proof-of-work limit is trivial, so
// solving headers on the fly is cheap.
type testHarness struct {
	t      *testing.T
	params *chaincfg.Params
	chain  *Chain

	// headerCounter makes every generated header unique via its merkle
	// root, so siblings with identical parents and timestamps still get
	// distinct hashes.
	headerCounter uint64
}

func newTestHarness(t *testing.T) *testHarness {
	params := chaincfg.SimNetParams
	return newTestHarnessWithParams(t, &params)
}

func newTestHarnessWithParams(t *testing.T, params *chaincfg.Params) *testHarness {
	chain, err := New(&Config{Params: params})
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return &testHarness{t: t, params: params, chain: chain}
}

// solveHeader finds a nonce for which the header hash satisfies its own
// claimed difficulty. With the simulation network's limit roughly every
// second nonce works.
func solveHeader(header *wire.BlockHeader) {
	target := util.CompactToBig(header.Bits)
	for nonce := uint32(0); ; nonce++ {
		header.Nonce = nonce
		hash := header.BlockHash()
		if chainhash.HashToBig(&hash).Cmp(target) <= 0 {
			return
		}
	}
}

// unsolveHeader finds a nonce for which the header hash does NOT satisfy the
// claimed difficulty.
func unsolveHeader(header *wire.BlockHeader) {
	target := util.CompactToBig(header.Bits)
	for nonce := uint32(0); ; nonce++ {
		header.Nonce = nonce
		hash := header.BlockHash()
		if chainhash.HashToBig(&hash).Cmp(target) > 0 {
			return
		}
	}
}

// nextHeader builds a solved header extending the given parent, or a genesis
// header when parent is nil. The timestamp advances one target spacing past
// the parent.
func (h *testHarness) nextHeader(parent *wire.BlockHeader) *wire.BlockHeader {
	header := h.unsolvedNextHeader(parent)
	solveHeader(header)
	return header
}

func (h *testHarness) unsolvedNextHeader(parent *wire.BlockHeader) *wire.BlockHeader {
	h.headerCounter++
	var merkleRoot chainhash.Hash
	binary.LittleEndian.PutUint64(merkleRoot[:8], h.headerCounter)

	header := &wire.BlockHeader{
		Version:    1,
		MerkleRoot: merkleRoot,
		Timestamp:  time.Unix(1401292357, 0),
		Bits:       h.params.PowLimitBits,
	}
	if parent != nil {
		header.PrevBlock = parent.BlockHash()
		header.Timestamp = parent.Timestamp.Add(h.params.TargetTimePerBlock)
		header.Bits = parent.Bits
	}
	return header
}

func serializeHeader(t *testing.T, header *wire.BlockHeader) []byte {
	var buf bytes.Buffer
	err := header.Serialize(&buf)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %v", err)
	}
	return buf.Bytes()
}

// process hands the header to the chain and returns the processing error.
func (h *testHarness) process(header *wire.BlockHeader) error {
	return h.chain.ProcessHeader(serializeHeader(h.t, header))
}

// accept hands the header to the chain and fails the test when it is
// rejected.
func (h *testHarness) accept(header *wire.BlockHeader) {
	err := h.process(header)
	if err != nil {
		h.t.Fatalf("ProcessHeader(%s): unexpected error: %v",
			header.BlockHash(), err)
	}
}

// extendChain accepts numHeaders solved headers on top of parent and returns
// the last one. A nil parent starts with a fresh genesis header.
func (h *testHarness) extendChain(parent *wire.BlockHeader, numHeaders int) *wire.BlockHeader {
	for i := 0; i < numHeaders; i++ {
		header := h.nextHeader(parent)
		h.accept(header)
		parent = header
	}
	return parent
}

// checkRuleError ensures the given error is a RuleError with the wanted code.
func checkRuleError(t *testing.T, err error, wantCode ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected rule error %v, got no error", wantCode)
	}
	var ruleErr RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected rule error %v, got %T: %v", wantCode, err, err)
	}
	if ruleErr.ErrorCode != wantCode {
		t.Fatalf("wrong rule error code: got %v, want %v (%v)",
			ruleErr.ErrorCode, wantCode, err)
	}
}
