// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"github.com/pkg/errors"

	"github.com/spvnet/spvd/util/chainhash"
)

const (
	// txVersionSize is the number of bytes the transaction version occupies.
	txVersionSize = 4

	// txLockTimeSize is the number of bytes the transaction locktime occupies.
	txLockTimeSize = 4

	// outPointSize is the number of bytes a serialized outpoint occupies:
	// a 32-byte previous transaction hash plus a 4-byte output index.
	outPointSize = chainhash.HashSize + 4

	// sequenceSize is the number of bytes an input sequence occupies.
	sequenceSize = 4

	// witnessMarker and witnessFlag are the two bytes that, immediately
	// following the version, mark a segregated-witness serialization.
	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// OutPoint defines a data type that is used to track previous transaction
// outputs.
type OutPoint struct {
	TxID  chainhash.Hash
	Index uint32
}

// TxOut defines an extracted transaction output: its value in base units and
// its locking script.
type TxOut struct {
	Value    uint64
	PkScript []byte
}

// hasWitnessEncoding returns whether the raw transaction carries the segwit
// marker and flag bytes directly after the version.
func hasWitnessEncoding(raw []byte) bool {
	return len(raw) >= txVersionSize+2 &&
		raw[txVersionSize] == witnessMarker &&
		raw[txVersionSize+1] == witnessFlag
}

// skipInput advances the reader past a single serialized input: outpoint,
// varint-prefixed signature script and sequence.
func skipInput(r *byteReader) error {
	if err := r.skip(outPointSize); err != nil {
		return err
	}
	scriptLen, err := r.readVarInt()
	if err != nil {
		return err
	}
	if err := r.skip(scriptLen); err != nil {
		return err
	}
	return r.skip(sequenceSize)
}

// ExtractOutput parses the raw transaction far enough to return the output at
// the given index. It returns ErrOutputIndexOutOfRange when index is not
// lower than the transaction's output count.
func ExtractOutput(raw []byte, index uint64) (*TxOut, error) {
	r := newByteReader(raw)
	if err := r.skip(txVersionSize); err != nil {
		return nil, err
	}
	if hasWitnessEncoding(raw) {
		if err := r.skip(2); err != nil {
			return nil, err
		}
	}

	inputCount, err := r.readVarInt()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < inputCount; i++ {
		if err := skipInput(r); err != nil {
			return nil, err
		}
	}

	outputCount, err := r.readVarInt()
	if err != nil {
		return nil, err
	}
	if index >= outputCount {
		return nil, errors.Wrapf(ErrOutputIndexOutOfRange,
			"requested output %d of a transaction with %d outputs",
			index, outputCount)
	}

	for i := uint64(0); ; i++ {
		value, err := r.readUint64()
		if err != nil {
			return nil, err
		}
		scriptLen, err := r.readVarInt()
		if err != nil {
			return nil, err
		}
		script, err := r.readBytes(scriptLen)
		if err != nil {
			return nil, err
		}
		if i == index {
			pkScript := make([]byte, len(script))
			copy(pkScript, script)
			return &TxOut{Value: value, PkScript: pkScript}, nil
		}
	}
}

// ExtractFirstInput parses the raw transaction far enough to return the
// outpoint of its first input. It returns ErrNoInputs when the input count is
// zero.
func ExtractFirstInput(raw []byte) (*OutPoint, error) {
	r := newByteReader(raw)
	if err := r.skip(txVersionSize); err != nil {
		return nil, err
	}
	if hasWitnessEncoding(raw) {
		if err := r.skip(2); err != nil {
			return nil, err
		}
	}

	inputCount, err := r.readVarInt()
	if err != nil {
		return nil, err
	}
	if inputCount == 0 {
		return nil, errors.WithStack(ErrNoInputs)
	}

	prevTxID, err := r.readBytes(chainhash.HashSize)
	if err != nil {
		return nil, err
	}
	prevIndex, err := r.readUint32()
	if err != nil {
		return nil, err
	}

	outPoint := &OutPoint{Index: prevIndex}
	copy(outPoint.TxID[:], prevTxID)
	return outPoint, nil
}

// StripWitness reconstructs the legacy (pre-segwit) serialization of the raw
// transaction: version, inputs and outputs verbatim, locktime, with the
// witness marker/flag and the per-input witness stacks dropped. The whole
// buffer is parsed; ErrTruncatedTransaction is returned when the transaction
// does not end exactly at the end of the buffer.
//
// For a transaction without a witness marker the result is byte-for-byte the
// input serialization.
func StripWitness(raw []byte) ([]byte, error) {
	r := newByteReader(raw)
	if err := r.skip(txVersionSize); err != nil {
		return nil, err
	}
	hasWitness := hasWitnessEncoding(raw)
	if hasWitness {
		if err := r.skip(2); err != nil {
			return nil, err
		}
	}

	// Inputs and outputs are copied verbatim, so only their span within
	// the buffer is needed.
	baseStart := r.cursor

	inputCount, err := r.readVarInt()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < inputCount; i++ {
		if err := skipInput(r); err != nil {
			return nil, err
		}
	}

	outputCount, err := r.readVarInt()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < outputCount; i++ {
		if err := r.skip(8); err != nil {
			return nil, err
		}
		scriptLen, err := r.readVarInt()
		if err != nil {
			return nil, err
		}
		if err := r.skip(scriptLen); err != nil {
			return nil, err
		}
	}
	baseEnd := r.cursor

	// The witness section holds one stack per input, each a varint item
	// count followed by varint-length-prefixed items.
	if hasWitness {
		for i := uint64(0); i < inputCount; i++ {
			itemCount, err := r.readVarInt()
			if err != nil {
				return nil, err
			}
			for j := uint64(0); j < itemCount; j++ {
				itemLen, err := r.readVarInt()
				if err != nil {
					return nil, err
				}
				if err := r.skip(itemLen); err != nil {
					return nil, err
				}
			}
		}
	}

	lockTime, err := r.readBytes(txLockTimeSize)
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, errors.Wrapf(ErrTruncatedTransaction,
			"%d trailing bytes after locktime", r.remaining())
	}

	stripped := make([]byte, 0, txVersionSize+(baseEnd-baseStart)+txLockTimeSize)
	stripped = append(stripped, raw[:txVersionSize]...)
	stripped = append(stripped, raw[baseStart:baseEnd]...)
	stripped = append(stripped, lockTime...)
	return stripped, nil
}

// TxID computes the canonical transaction identifier: the double hash of the
// legacy serialization. Like all hashes it is displayed byte-reversed
// relative to its wire order.
func TxID(raw []byte) (chainhash.Hash, error) {
	stripped, err := StripWitness(raw)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(stripped), nil
}
