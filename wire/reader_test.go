// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

// TestVarIntBoundaries checks the compact integer encoding at each width
// boundary through an encode/decode cycle.
func TestVarIntBoundaries(t *testing.T) {
	values := []uint64{
		0, 1, 0xfc,
		0xfd, 0xffff,
		0x10000, 0xffffffff,
		0x100000000, 0xffffffffffffffff,
	}

	for _, val := range values {
		encoded := AppendVarInt(nil, val)
		if len(encoded) != VarIntSerializeSize(val) {
			t.Errorf("value %d: encoded %d bytes, VarIntSerializeSize says %d",
				val, len(encoded), VarIntSerializeSize(val))
		}

		r := newByteReader(encoded)
		decoded, err := r.readVarInt()
		if err != nil {
			t.Errorf("value %d: unexpected decode error: %v", val, err)
			continue
		}
		if decoded != val {
			t.Errorf("round trip mismatch: got %d, want %d", decoded, val)
		}
		if r.remaining() != 0 {
			t.Errorf("value %d: %d bytes left unread", val, r.remaining())
		}
	}
}

// TestVarIntMalformed ensures every truncation of a multi-byte varint is
// rejected.
func TestVarIntMalformed(t *testing.T) {
	full := AppendVarInt(nil, 0x100000000)
	for cut := 0; cut < len(full); cut++ {
		r := newByteReader(full[:cut])
		_, err := r.readVarInt()
		if !errors.Is(err, ErrMalformedVarInt) {
			t.Errorf("cut at %d: got %v, want ErrMalformedVarInt", cut, err)
		}
	}
}

func TestByteReader(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c}
	r := newByteReader(buf)

	got, err := r.readUint32()
	if err != nil {
		t.Fatalf("readUint32: unexpected error: %v", err)
	}
	if got != 0x04030201 {
		t.Fatalf("readUint32: got %08x, want 04030201", got)
	}

	b, err := r.readBytes(2)
	if err != nil {
		t.Fatalf("readBytes: unexpected error: %v", err)
	}
	if !bytes.Equal(b, []byte{0x05, 0x06}) {
		t.Fatalf("readBytes: got %x, want 0506", b)
	}

	if err := r.skip(6); err != nil {
		t.Fatalf("skip: unexpected error: %v", err)
	}
	if r.remaining() != 0 {
		t.Fatalf("remaining: got %d, want 0", r.remaining())
	}

	if err := r.skip(1); !errors.Is(err, ErrTruncatedTransaction) {
		t.Fatalf("skip past the end: got %v, want ErrTruncatedTransaction", err)
	}
}
