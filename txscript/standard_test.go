// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPayToPubKeyHashRoundTrip(t *testing.T) {
	hash := bytes.Repeat([]byte{0x11}, 20)
	script, err := PayToPubKeyHashScript(hash)
	require.NoError(t, err)

	class, payload := ExtractPkScriptAddr(script)
	require.Equal(t, PubKeyHashTy, class)
	require.Equal(t, hash, payload)
}

func TestPayToScriptHashRoundTrip(t *testing.T) {
	hash := bytes.Repeat([]byte{0x22}, 20)
	script, err := PayToScriptHashScript(hash)
	require.NoError(t, err)

	class, payload := ExtractPkScriptAddr(script)
	require.Equal(t, ScriptHashTy, class)
	require.Equal(t, hash, payload)
}

func TestPayToWitnessPubKeyHashRoundTrip(t *testing.T) {
	hash := bytes.Repeat([]byte{0x33}, 20)
	script, err := PayToWitnessPubKeyHashScript(hash)
	require.NoError(t, err)

	class, payload := ExtractPkScriptAddr(script)
	require.Equal(t, WitnessV0PubKeyHashTy, class)
	require.Equal(t, hash, payload)
}

func TestPayToWitnessScriptHashRoundTrip(t *testing.T) {
	hash := bytes.Repeat([]byte{0x44}, 32)
	script, err := PayToWitnessScriptHashScript(hash)
	require.NoError(t, err)

	class, payload := ExtractPkScriptAddr(script)
	require.Equal(t, WitnessV0ScriptHashTy, class)
	require.Equal(t, hash, payload)
}

func TestNonStandardScript(t *testing.T) {
	class, _ := ExtractPkScriptAddr([]byte{OP_RETURN, 0x01, 0x02})
	require.Equal(t, NonStandardTy, class)
}

func TestScriptBuilderMinimalPush(t *testing.T) {
	script, err := NewScriptBuilder().AddData([]byte{0xde, 0xad}).Script()
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0xde, 0xad}, script)
}
