package wire

import "github.com/pkg/errors"

// Parse errors returned for rejected raw input. They carry no state and are
// safe to retry with corrected data.
var (
	// ErrMalformedVarInt is returned when a compact variable-length
	// integer is truncated mid-encoding.
	ErrMalformedVarInt = errors.New("malformed compact integer")

	// ErrTruncatedTransaction is returned when a raw transaction does not
	// parse to exactly the end of its buffer.
	ErrTruncatedTransaction = errors.New("truncated transaction")

	// ErrOutputIndexOutOfRange is returned when an output index is not
	// lower than the transaction's output count.
	ErrOutputIndexOutOfRange = errors.New("output index out of range")

	// ErrNoInputs is returned when a transaction's input count is zero
	// and an input is requested.
	ErrNoInputs = errors.New("transaction has no inputs")
)
