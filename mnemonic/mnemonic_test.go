// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnemonic

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeedMatchesBIP39Vector(t *testing.T) {
	phrase := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	want := "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04"

	seed, err := Seed(phrase, "TREZOR")
	require.NoError(t, err)
	require.Equal(t, want, hex.EncodeToString(seed))
}
