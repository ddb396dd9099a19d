// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"math/big"
	"testing"
)

func TestCompactToBig(t *testing.T) {
	tests := []struct {
		compact uint32
		want    *big.Int
	}{
		{0x00000000, big.NewInt(0)},
		{0x01003456, big.NewInt(0x00)},
		{0x03123456, big.NewInt(0x123456)},
		{0x04123456, big.NewInt(0x12345600)},
		{0x05009234, big.NewInt(0x92340000)},
		// Difficulty 1 on the main network.
		{0x1d00ffff, new(big.Int).Lsh(big.NewInt(0xffff), 208)},
		// The simulation network limit.
		{0x207fffff, new(big.Int).Lsh(big.NewInt(0x7fffff), 232)},
	}

	for _, test := range tests {
		got := CompactToBig(test.compact)
		if got.Cmp(test.want) != 0 {
			t.Errorf("CompactToBig(%08x): got %x, want %x",
				test.compact, got, test.want)
		}
	}
}

func TestBigToCompactRoundTrip(t *testing.T) {
	compacts := []uint32{
		0x03123456,
		0x04123456,
		0x1d00ffff,
		0x1b0404cb,
		0x207fffff,
	}

	for _, compact := range compacts {
		got := BigToCompact(CompactToBig(compact))
		if got != compact {
			t.Errorf("round trip of %08x: got %08x", compact, got)
		}
	}

	if got := BigToCompact(big.NewInt(0)); got != 0 {
		t.Errorf("BigToCompact(0): got %08x, want 0", got)
	}

	// A mantissa with the sign bit set is pushed into the next exponent.
	if got := BigToCompact(big.NewInt(0x00800000)); got != 0x04008000 {
		t.Errorf("BigToCompact(0x800000): got %08x, want 04008000", got)
	}
}

func TestCalcWork(t *testing.T) {
	// The well-known work value of a difficulty-1 header.
	want := big.NewInt(0x100010001)
	if got := CalcWork(0x1d00ffff); got.Cmp(want) != 0 {
		t.Errorf("CalcWork(1d00ffff): got %x, want %x", got, want)
	}

	// Negative and zero targets carry no work.
	if got := CalcWork(0x00000000); got.Sign() != 0 {
		t.Errorf("CalcWork(0): got %x, want 0", got)
	}
	if got := CalcWork(0x03923456); got.Sign() != 0 {
		t.Errorf("CalcWork(negative target): got %x, want 0", got)
	}

	// A smaller target must carry strictly more work.
	easy := CalcWork(0x207fffff)
	hard := CalcWork(0x1d00ffff)
	if hard.Cmp(easy) <= 0 {
		t.Error("lower target did not yield more work")
	}
}
