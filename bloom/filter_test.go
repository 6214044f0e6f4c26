// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bloom

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/node/wire"
)

func TestFilterNoFalseNegatives(t *testing.T) {
	f := NewFilter(100, 1e-5, 0, wire.BloomUpdateAll)

	elements := make([][]byte, 100)
	for i := range elements {
		elements[i] = []byte{byte(i), byte(i >> 8), 0xaa, 0xbb}
		f.Add(elements[i])
	}

	for _, e := range elements {
		require.True(t, f.Matches(e))
	}
}

func TestFilterFalsePositiveRateWithinBudget(t *testing.T) {
	const n = 1000
	const rate = 1e-3
	f := NewFilter(n, rate, 7, wire.BloomUpdateAll)

	for i := 0; i < n; i++ {
		f.Add([]byte{byte(i), byte(i >> 8), byte(i >> 16), 0x01})
	}

	falsePositives := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		candidate := []byte{byte(i), byte(i >> 8), byte(i >> 16), 0x02}
		if f.Matches(candidate) {
			falsePositives++
		}
	}

	observed := float64(falsePositives) / float64(trials)
	require.Less(t, observed, rate*2, "observed false positive rate should stay within 2x the configured target")
}

func TestMsgFilterLoadRoundTrip(t *testing.T) {
	f := NewFilter(10, 1e-4, 5, wire.BloomUpdateP2PubkeyOnly)
	f.Add([]byte("hello"))

	msg := f.MsgFilterLoad()
	loaded := LoadFilter(msg)

	require.True(t, loaded.Matches([]byte("hello")))
	require.Equal(t, wire.BloomUpdateP2PubkeyOnly, loaded.UpdateType())
}
