// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peergroup

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/node/peer"
	"github.com/btcspv/node/wire"
)

func testGroupConfig() Config {
	return Config{
		ProtocolVersion: wire.ProtocolVersion,
		UserAgent:       "/test:0.0.1/",
		BestHeight:      func() int32 { return 0 },
		TargetPeers:     4,
	}
}

// handshakeOver drives a net.Pipe peer through a full handshake from the
// remote side: replies with its own version/verack and consumes ours, so
// the local *peer.Peer reaches StateVeracked.
func handshakeOver(t *testing.T, conn net.Conn, height int32) {
	t.Helper()
	msg, _, err := wire.ReadMessage(conn, wire.ProtocolVersion, wire.MainNet)
	require.NoError(t, err)
	_, ok := msg.(*wire.MsgVersion)
	require.True(t, ok)

	version := &wire.MsgVersion{
		ProtocolVersion: int32(wire.ProtocolVersion),
		Nonce:           0xabad1dea,
		Timestamp:       time.Now(),
		LastBlock:       height,
	}
	require.NoError(t, wire.WriteMessage(conn, version, wire.ProtocolVersion, wire.MainNet))
	require.NoError(t, wire.WriteMessage(conn, &wire.MsgVerAck{}, wire.ProtocolVersion, wire.MainNet))

	msg, _, err = wire.ReadMessage(conn, wire.ProtocolVersion, wire.MainNet)
	require.NoError(t, err)
	_, ok = msg.(*wire.MsgVerAck)
	require.True(t, ok)
}

// newPipedPeer returns a handshaked *peer.Peer backed by a net.Pipe, plus
// the remote end of the pipe so a test can drive further protocol
// exchanges (inv/getdata/tx) from the simulated remote side.
func newPipedPeer(t *testing.T, height int32) (*peer.Peer, net.Conn) {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() { local.Close(); remote.Close() })

	p := peer.New(local, peer.Config{
		Net:             wire.MainNet,
		ProtocolVersion: wire.ProtocolVersion,
		UserAgent:       "/test:0.0.1/",
		BestHeight:      func() int32 { return 0 },
	})

	go func() { _ = p.Run(context.Background()) }()
	handshakeOver(t, remote, height)

	require.Eventually(t, func() bool {
		return p.State() == peer.StateVeracked
	}, time.Second, 5*time.Millisecond)

	return p, remote
}

func TestElectDownloadPeerPicksHighestHeight(t *testing.T) {
	g := New(testGroupConfig(), NewReservoir())

	low, _ := newPipedPeer(t, 100)
	high, _ := newPipedPeer(t, 500)

	g.mu.Lock()
	g.active["low"] = low
	g.active["high"] = high
	g.mu.Unlock()

	g.electDownloadPeer()

	require.Equal(t, high, g.DownloadPeer())
}

// ackInv waits for the next inv message on remote and, if it is present,
// replies with getdata for the announced tx, simulating a real peer's
// broadcast acknowledgement (spec.md 4.5: "respond with getdata").
func ackInv(remote net.Conn, tx *wire.MsgTx) {
	msg, _, err := wire.ReadMessage(remote, wire.ProtocolVersion, wire.MainNet)
	if err != nil {
		return
	}
	if _, ok := msg.(*wire.MsgInv); ok {
		getData := wire.NewMsgGetData()
		getData.AddInvVect(&wire.InvVect{Type: wire.InvTypeTx, Hash: tx.TxHash()})
		_ = wire.WriteMessage(remote, getData, wire.ProtocolVersion, wire.MainNet)
	}
}

func TestBroadcastSucceedsWithMajorityAck(t *testing.T) {
	g := New(testGroupConfig(), NewReservoir())

	pa, ra := newPipedPeer(t, 0)
	pb, rb := newPipedPeer(t, 0)
	pc, _ := newPipedPeer(t, 0) // never acks

	g.mu.Lock()
	g.active["a"] = pa
	g.active["b"] = pb
	g.active["c"] = pc
	g.mu.Unlock()

	tx := &wire.MsgTx{Version: 1}

	// Two of the three remotes ack the inv by replying with getdata;
	// ceil(3/2) = 2, so the broadcast must succeed.
	go ackInv(ra, tx)
	go ackInv(rb, tx)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result := g.Broadcast(ctx, tx)

	_, err := result.Wait(context.Background())
	require.NoError(t, err)
}

func TestBroadcastFailsWithoutMajorityAck(t *testing.T) {
	g := New(testGroupConfig(), NewReservoir())

	pa, ra := newPipedPeer(t, 0)
	pb, _ := newPipedPeer(t, 0) // never acks
	pc, _ := newPipedPeer(t, 0) // never acks

	g.mu.Lock()
	g.active["a"] = pa
	g.active["b"] = pb
	g.active["c"] = pc
	g.mu.Unlock()

	tx := &wire.MsgTx{Version: 1}

	// Only one of three remotes acks; ceil(3/2) = 2, so the broadcast
	// must time out and fail.
	go ackInv(ra, tx)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	result := g.Broadcast(ctx, tx)

	_, err := result.Wait(context.Background())
	require.Error(t, err)
}

func TestReservoirRoundTripsThroughDiscovery(t *testing.T) {
	g := New(testGroupConfig(), NewReservoir())
	g.AddGossipedAddr("203.0.113.1:8333", time.Now())
	require.Equal(t, 1, g.reservoir.Len())
}
