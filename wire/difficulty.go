// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "math/big"

// CompactToBig decodes a compact-form difficulty target (spec.md 3: one
// byte exponent E, three bytes mantissa M, sign bit disallowed; value is
// M * 256^(E-3)) into the 256-bit unsigned threshold it represents.
//
// It fails with an *MessageError carrying ErrMalformedDifficulty when the
// exponent exceeds 32, the mantissa's would-be sign bit (bit 23) is set, or
// the mantissa is non-zero but encoded below the canonical floor 0x008000
// (spec.md 3: "canonical form requires M >= 0x008000").
func CompactToBig(compact uint32) (*big.Int, error) {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := compact >> 24

	if isNegative {
		return nil, messageError(ErrMalformedDifficulty,
			"compact difficulty mantissa has the sign bit set")
	}
	if exponent > 32 {
		return nil, messageErrorf(ErrMalformedDifficulty,
			"compact difficulty exponent %d exceeds 32", exponent)
	}
	if mantissa != 0 && mantissa < 0x008000 {
		// A non-zero mantissa below the canonical floor could be
		// re-expressed with a smaller exponent and a left-shifted
		// mantissa; spec.md 3 rejects the ambiguity outright rather than
		// accept the non-canonical form the way Bitcoin Core's consensus
		// code silently tolerates it.
		return nil, messageErrorf(ErrMalformedDifficulty,
			"compact difficulty mantissa 0x%06x is below the canonical floor 0x008000", mantissa)
	}

	var n *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		n = big.NewInt(int64(mantissa))
	} else {
		n = big.NewInt(int64(mantissa))
		n.Lsh(n, uint(8*(exponent-3)))
	}
	return n, nil
}

// BigToCompact encodes the 256-bit unsigned threshold n into the compact
// mantissa-and-exponent form described in spec.md 3.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// The sign bit (0x00800000) is reserved, so if it would be set by the
	// mantissa's own top bit, shift one byte right and bump the exponent.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	return uint32(exponent<<24) | mantissa
}

// CompactCanonical reports whether compact is the canonical encoding of the
// threshold it decodes to: mantissa == 0, or mantissa >= 0x008000 (spec.md
// 3). A non-canonical mantissa below the floor means a smaller exponent
// could express the same value, which BigToCompact would never produce.
func CompactCanonical(compact uint32) bool {
	mantissa := compact & 0x007fffff
	if mantissa == 0 {
		return true
	}
	return mantissa >= 0x008000
}

// CompareCompact compares two compact-form targets as the unsigned integers
// they represent under canonical encoding (spec.md 3: "the codec uses long
// ordering"). It returns -1, 0, or 1 as a < b, a == b, a > b.
func CompareCompact(a, b uint32) (int, error) {
	ai, err := CompactToBig(a)
	if err != nil {
		return 0, err
	}
	bi, err := CompactToBig(b)
	if err != nil {
		return 0, err
	}
	return ai.Cmp(bi), nil
}
