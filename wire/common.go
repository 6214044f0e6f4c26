// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
)

// MaxVarIntPayload is the maximum payload size, in bytes, of a
// variable-length integer.
const MaxVarIntPayload = 9

// MaxMessagePayload is the hard cap on any single message's payload, per
// spec.md 4.1.
const MaxMessagePayload = 32 * 1024 * 1024

func readElement(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return messageError(ErrTruncated, "unexpected EOF reading element")
	}
	return nil
}

// ReadUint8 reads a single byte.
func ReadUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if err := readElement(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a little-endian uint16.
func ReadUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if err := readElement(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadUint32 reads a little-endian uint32.
func ReadUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if err := readElement(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// ReadUint64 reads a little-endian uint64.
func ReadUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if err := readElement(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// WriteUint8 writes a single byte.
func WriteUint8(w io.Writer, val uint8) error {
	_, err := w.Write([]byte{val})
	return err
}

// WriteUint16 writes a little-endian uint16.
func WriteUint16(w io.Writer, val uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], val)
	_, err := w.Write(b[:])
	return err
}

// WriteUint32 writes a little-endian uint32.
func WriteUint32(w io.Writer, val uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], val)
	_, err := w.Write(b[:])
	return err
}

// WriteUint64 writes a little-endian uint64.
func WriteUint64(w io.Writer, val uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], val)
	_, err := w.Write(b[:])
	return err
}

// ReadVarInt reads a variable-length integer per spec.md 4.1: one byte if
// < 0xFD, else a 0xFD/0xFE/0xFF prefix followed by a 2/4/8-byte
// little-endian value. When strict is true, non-minimal encodings fail
// with ErrMalformedVarInt.
func ReadVarInt(r io.Reader, strict bool) (uint64, error) {
	discriminant, err := ReadUint8(r)
	if err != nil {
		return 0, err
	}

	var rv uint64
	var minVal uint64
	switch discriminant {
	case 0xff:
		v, err := ReadUint64(r)
		if err != nil {
			return 0, err
		}
		rv, minVal = v, 0x100000000
	case 0xfe:
		v, err := ReadUint32(r)
		if err != nil {
			return 0, err
		}
		rv, minVal = uint64(v), 0x10000
	case 0xfd:
		v, err := ReadUint16(r)
		if err != nil {
			return 0, err
		}
		rv, minVal = uint64(v), 0xfd
	default:
		return uint64(discriminant), nil
	}

	if strict && rv < minVal {
		return 0, messageErrorf(ErrMalformedVarInt,
			"non-minimal varint encoding: %d encoded with prefix requiring >= %d", rv, minVal)
	}
	return rv, nil
}

// WriteVarInt writes val using the minimal varint encoding.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		return WriteUint8(w, uint8(val))
	case val <= 0xffff:
		if err := WriteUint8(w, 0xfd); err != nil {
			return err
		}
		return WriteUint16(w, uint16(val))
	case val <= 0xffffffff:
		if err := WriteUint8(w, 0xfe); err != nil {
			return err
		}
		return WriteUint32(w, uint32(val))
	default:
		if err := WriteUint8(w, 0xff); err != nil {
			return err
		}
		return WriteUint64(w, val)
	}
}

// VarIntSerializeSize returns the number of bytes it would take to encode
// val as a variable-length integer.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes reads a variable-length byte slice: a VarInt length prefix
// followed by that many bytes. maxAllowed bounds the length to guard
// against a hostile or corrupted length field allocating unbounded memory.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r, false)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, messageErrorf(ErrMessageTooLarge,
			"%s length %d exceeds max allowed %d", fieldName, count, maxAllowed)
	}

	b := make([]byte, count)
	if err := readElement(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes writes b as a VarInt length prefix followed by its bytes.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVarString reads a variable-length byte string (addr user agents,
// command strings in reject messages, and similar).
func ReadVarString(r io.Reader, maxAllowed uint64) (string, error) {
	b, err := ReadVarBytes(r, maxAllowed, "varstring")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteVarString writes s as a variable-length byte string.
func WriteVarString(w io.Writer, s string) error {
	return WriteVarBytes(w, []byte(s))
}
