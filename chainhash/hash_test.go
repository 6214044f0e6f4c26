// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHashStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), HashSize, HashSize).Draw(t, "raw")
		var h Hash
		require.NoError(t, h.SetBytes(raw))

		parsed, err := NewHashFromStr(h.String())
		require.NoError(t, err)
		require.True(t, h.IsEqual(parsed))
	})
}

func TestGenesisFingerprint(t *testing.T) {
	// Mainnet genesis block header hash, displayed (reversed) form, from
	// spec.md scenario 1/2's network.
	const genesis = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	h, err := NewHashFromStr(genesis)
	require.NoError(t, err)
	require.Equal(t, genesis, h.String())
}

func TestIsEqualNil(t *testing.T) {
	var a *Hash
	var b *Hash
	require.True(t, a.IsEqual(b))

	h := HashH([]byte("x"))
	require.False(t, h.IsEqual(nil))
}
