// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "fmt"

// ErrorCode identifies a kind of codec error.
type ErrorCode int

const (
	// ErrTruncated indicates the buffer ran out of bytes before a value
	// could be fully decoded. It is also the code for an over-long
	// command string, a headers entry declaring transactions, and an
	// unsupported transaction flag byte.
	ErrTruncated ErrorCode = iota

	// ErrMalformedVarInt indicates a variable-length integer was not
	// minimally encoded when strict decoding was requested.
	ErrMalformedVarInt

	// ErrMessageTooLarge indicates a declared length or count exceeded its
	// cap: a message payload above MaxMessagePayload, or a per-field limit
	// such as an inventory, address, locator or byte-string length.
	ErrMessageTooLarge

	// ErrBadMagic indicates the four magic bytes at a supposed message
	// boundary did not match the network in use.
	ErrBadMagic

	// ErrMalformedDifficulty indicates a compact difficulty target used a
	// disallowed sign bit, an out-of-range exponent, or a non-canonical
	// mantissa.
	ErrMalformedDifficulty

	// ErrChecksumMismatch indicates a message's checksum field did not
	// match the double-SHA256 of its payload.
	ErrChecksumMismatch

	// ErrUnknownCommand indicates a message command string did not match
	// any command in the catalog.
	ErrUnknownCommand
)

var errorCodeStrings = map[ErrorCode]string{
	ErrTruncated:           "truncated",
	ErrMalformedVarInt:     "malformed varint",
	ErrMessageTooLarge:     "message too large",
	ErrBadMagic:            "bad magic",
	ErrMalformedDifficulty: "malformed difficulty",
	ErrChecksumMismatch:    "checksum mismatch",
	ErrUnknownCommand:      "unknown command",
}

// String returns the ErrorCode as a human-readable string.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("unknown ErrorCode (%d)", int(e))
}

// MessageError houses a codec error along with a textual description.
type MessageError struct {
	Code        ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e *MessageError) Error() string {
	return e.Description
}

func messageError(code ErrorCode, desc string) *MessageError {
	return &MessageError{Code: code, Description: desc}
}

func messageErrorf(code ErrorCode, format string, args ...interface{}) *MessageError {
	return &MessageError{Code: code, Description: fmt.Sprintf(format, args...)}
}
