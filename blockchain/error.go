// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// ErrorCode identifies a kind of header-acceptance failure.
type ErrorCode int

const (
	// ErrMissingParent indicates the submitted header's previous
	// fingerprint is not present in the store. The header is buffered as
	// an orphan (unless the orphan buffer is full) and retried once its
	// parent is accepted.
	ErrMissingParent ErrorCode = iota

	// ErrBadProofOfWork indicates the header's fingerprint, read as a
	// big-endian integer, exceeds the declared difficulty target.
	ErrBadProofOfWork

	// ErrBadDifficultyTransition indicates the header's difficulty
	// target does not match the value the retarget rule requires.
	ErrBadDifficultyTransition

	// ErrTimestampTooOld indicates the header's timestamp does not
	// exceed the median of the preceding eleven headers.
	ErrTimestampTooOld

	// ErrOrphanBufferFull indicates an orphan header was dropped because
	// the bounded orphan buffer was already at capacity.
	ErrOrphanBufferFull

	// ErrStorageCorrupt indicates an I/O failure in the underlying
	// header store; new header acceptance halts until restart.
	ErrStorageCorrupt

	// ErrAlreadyLocked indicates another process already holds the
	// header store's advisory lock.
	ErrAlreadyLocked
)

var errorCodeStrings = map[ErrorCode]string{
	ErrMissingParent:           "missing parent",
	ErrBadProofOfWork:          "bad proof of work",
	ErrBadDifficultyTransition: "bad difficulty transition",
	ErrTimestampTooOld:         "timestamp too old",
	ErrOrphanBufferFull:        "orphan buffer full",
	ErrStorageCorrupt:          "storage corrupt",
	ErrAlreadyLocked:           "header store already locked",
}

// String returns the English description of c.
func (c ErrorCode) String() string {
	if s, ok := errorCodeStrings[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown ErrorCode (%d)", int(c))
}

// RuleError identifies a header or transaction that failed a consensus
// check. The header is never stored when this error is returned.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether err is a RuleError carrying the given code.
func IsErrorCode(err error, c ErrorCode) bool {
	rerr, ok := err.(RuleError)
	return ok && rerr.ErrorCode == c
}
