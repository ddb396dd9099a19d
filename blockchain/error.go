// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrDuplicateBlock indicates a header with the same hash already
	// exists in the store.
	ErrDuplicateBlock ErrorCode = iota

	// ErrPreviousBlockUnknown indicates the previous header referenced by
	// a non-genesis header is not known.
	ErrPreviousBlockUnknown

	// ErrMalformedHeader indicates the submitted bytes do not deserialize
	// to an 80-byte header.
	ErrMalformedHeader

	// ErrUnexpectedDifficulty indicates specified bits do not align with
	// the expected value either because it doesn't match the calculated
	// value based on difficulty rules or it is out of the valid range.
	ErrUnexpectedDifficulty

	// ErrHighHash indicates the block does not hash to a value which is
	// lower than the required target difficulty.
	ErrHighHash

	// ErrTimeTooOld indicates the time is not after the median time of
	// the last several blocks per the chain consensus rules.
	ErrTimeTooOld

	// ErrReorgTooDeep indicates connecting a header would rewrite more
	// height-index entries than the configured reorganization bound
	// allows.
	ErrReorgTooDeep
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrDuplicateBlock:       "ErrDuplicateBlock",
	ErrPreviousBlockUnknown: "ErrPreviousBlockUnknown",
	ErrMalformedHeader:      "ErrMalformedHeader",
	ErrUnexpectedDifficulty: "ErrUnexpectedDifficulty",
	ErrHighHash:             "ErrHighHash",
	ErrTimeTooOld:           "ErrTimeTooOld",
	ErrReorgTooDeep:         "ErrReorgTooDeep",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation. It is used to indicate that
// processing of a header failed due to one of the many validation rules. The
// caller can use type assertions to determine if a failure was specifically
// due to a rule violation and access the ErrorCode field to ascertain the
// specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
