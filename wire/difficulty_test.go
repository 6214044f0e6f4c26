// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactDifficultyVectors(t *testing.T) {
	// spec.md 8 scenario 3.
	got, err := CompactToBig(0x1d00ffff)
	require.NoError(t, err)
	want, ok := new(big.Int).SetString("00000000ffff0000000000000000000000000000000000000000000000000000", 16)
	require.True(t, ok)
	require.Equal(t, 0, got.Cmp(want))
	require.Equal(t, uint32(0x1d00ffff), BigToCompact(got))

	easiest, err := CompactToBig(0x207fffff)
	require.NoError(t, err)
	wantEasiest, ok := new(big.Int).SetString("7fffff0000000000000000000000000000000000000000000000000000000000", 16)
	require.True(t, ok)
	require.Equal(t, 0, easiest.Cmp(wantEasiest))
}

func TestCompactDifficultyErrors(t *testing.T) {
	_, err := CompactToBig(33 << 24) // exponent 33 > 32
	require.Error(t, err)

	_, err = CompactToBig(0x01800000) // sign bit set
	require.Error(t, err)

	_, err = CompactToBig(0x04007fff) // mantissa below canonical floor
	require.Error(t, err)
}

func TestCompactCompareOrdering(t *testing.T) {
	// A smaller compact-form target (harder difficulty) must compare less
	// than a larger one under CompareCompact, matching big.Int ordering.
	cmp, err := CompareCompact(0x1d00ffff, 0x1b0404cb)
	require.NoError(t, err)
	require.Equal(t, 1, cmp)
}
