// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/node/wire"
)

func testConfig() Config {
	return Config{
		Net:             wire.RegTest,
		ProtocolVersion: wire.ProtocolVersion,
		Services:        0,
		UserAgent:       "/test:0.0.1/",
		BestHeight:      func() int32 { return 0 },
	}
}

// remoteHandshake drives the other end of a net.Pipe as a well-behaved
// remote peer: reads our version, replies with its own version + verack,
// and expects our verack back.
func remoteHandshake(t *testing.T, conn net.Conn, theirNonce uint64, theirHeight int32) {
	t.Helper()

	msg, _, err := wire.ReadMessage(conn, wire.ProtocolVersion, wire.RegTest)
	require.NoError(t, err)
	_, ok := msg.(*wire.MsgVersion)
	require.True(t, ok)

	version := &wire.MsgVersion{
		ProtocolVersion: int32(wire.ProtocolVersion),
		Nonce:           theirNonce,
		UserAgent:       "/remote:0.0.1/",
		LastBlock:       theirHeight,
		Timestamp:       time.Now(),
	}
	require.NoError(t, wire.WriteMessage(conn, version, wire.ProtocolVersion, wire.RegTest))
	require.NoError(t, wire.WriteMessage(conn, &wire.MsgVerAck{}, wire.ProtocolVersion, wire.RegTest))

	msg, _, err = wire.ReadMessage(conn, wire.ProtocolVersion, wire.RegTest)
	require.NoError(t, err)
	_, ok = msg.(*wire.MsgVerAck)
	require.True(t, ok)
}

func TestHandshakeReachesVeracked(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	p := New(local, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	remoteHandshake(t, remote, 0xdeadbeef, 500)

	require.Eventually(t, func() bool {
		return p.State() == StateVeracked
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, int32(500), p.Height())

	cancel()
	<-done
}

func TestHandshakeRejectsSelfConnection(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	cfg := testConfig()
	p := New(local, cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()

	msg, _, err := wire.ReadMessage(remote, wire.ProtocolVersion, wire.RegTest)
	require.NoError(t, err)
	ourVersion := msg.(*wire.MsgVersion)

	// Echo our own nonce back: the handshake must detect this as a
	// self-connection and close rather than complete (spec.md 4.4 step 2).
	reply := &wire.MsgVersion{
		ProtocolVersion: int32(wire.ProtocolVersion),
		Nonce:           ourVersion.Nonce,
		Timestamp:       time.Now(),
	}
	_ = wire.WriteMessage(remote, reply, wire.ProtocolVersion, wire.RegTest)

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrSelfConnection)
	case <-time.After(time.Second):
		t.Fatal("peer did not close on self-connection")
	}
}

func TestHandshakeRejectsOldProtocolVersion(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	p := New(local, testConfig())

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()

	_, _, err := wire.ReadMessage(remote, wire.ProtocolVersion, wire.RegTest)
	require.NoError(t, err)

	reply := &wire.MsgVersion{
		ProtocolVersion: 70001, // below wire.MinAcceptableProtocolVersion
		Nonce:           0x1234,
		Timestamp:       time.Now(),
	}
	_ = wire.WriteMessage(remote, reply, wire.ProtocolVersion, wire.RegTest)

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrProtocolVersionTooOld)
	case <-time.After(time.Second):
		t.Fatal("peer did not reject old protocol version")
	}
}
