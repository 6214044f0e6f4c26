// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fastScryptParams keeps encryption round trips quick in tests; the
// production default (DefaultScryptParams) is deliberately expensive.
var fastScryptParams = ScryptParams{N: 1 << 4, R: 1, P: 1}

func TestSaveLoadRoundTripsEncryptedKey(t *testing.T) {
	w := New(1000)
	k, err := NewKey()
	require.NoError(t, err)
	wantPub := k.PubKey.SerializeCompressed()

	require.NoError(t, k.Encrypt("hunter2", fastScryptParams))
	require.True(t, k.IsEncrypted())
	w.AddKey(k)

	path := filepath.Join(t.TempDir(), "wallet.snap")
	require.NoError(t, w.Save(path))

	loaded := New(1000)
	require.NoError(t, loaded.Load(path))

	keys := loaded.keys.Keys()
	require.Len(t, keys, 1)
	require.True(t, keys[0].IsEncrypted())
	require.NotNil(t, keys[0].PubKey)
	require.Equal(t, wantPub, keys[0].PubKey.SerializeCompressed())

	priv, err := keys[0].Decrypt("hunter2", fastScryptParams)
	require.NoError(t, err)
	require.Equal(t, k.Hash160(), (&Key{PrivKey: priv, PubKey: priv.PubKey()}).Hash160())
}

func TestSaveLoadRoundTripsPlaintextKeyAndCreatedTimestamp(t *testing.T) {
	w := New(1000)
	k, err := NewKey()
	require.NoError(t, err)
	w.AddKey(k)

	path := filepath.Join(t.TempDir(), "wallet.snap")
	require.NoError(t, w.Save(path))

	loaded := New(1000)
	require.NoError(t, loaded.Load(path))

	keys := loaded.keys.Keys()
	require.Len(t, keys, 1)
	require.False(t, keys[0].IsEncrypted())
	require.Equal(t, k.Hash160(), keys[0].Hash160())
	require.WithinDuration(t, k.Created, keys[0].Created, time.Second)
}
