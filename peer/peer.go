// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer implements the per-connection protocol state machine
// (C4): handshake, keepalive, header synchronization, transaction
// discovery, and Bloom-filtered Merkle block validation, grounded on
// the teacher's net.Conn/context/WaitGroup connection-handling idiom
// (mining/mobilex/pool/stratum.go) generalized from a JSON-line
// protocol to the binary wire.Message catalog.
package peer

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/btcsuite/btclog"

	"github.com/btcspv/node/async"
	"github.com/btcspv/node/blockchain"
	"github.com/btcspv/node/bloom"
	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/event"
	"github.com/btcspv/node/wire"
)

// State is a position in the handshake state machine (spec.md 4.4).
type State int

const (
	StateDialing State = iota
	StateSentVersion
	StateBothVersions
	StateVeracked
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDialing:
		return "dialing"
	case StateSentVersion:
		return "sent_version"
	case StateBothVersions:
		return "both_versions"
	case StateVeracked:
		return "veracked"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	pingInterval  = 2 * time.Minute
	silenceLimit  = 20 * time.Minute
	txFetchWindow = 500 * time.Millisecond
)

// ErrSelfConnection is returned from the handshake when the remote's
// version nonce matches the one we sent, per spec.md 4.4 step 2.
var ErrSelfConnection = errors.New("peer: connected to self")

// ErrProtocolVersionTooOld rejects handshakes below the hard floor.
var ErrProtocolVersionTooOld = errors.New("peer: protocol version below minimum acceptable")

// ErrDisconnected completes pending futures when the peer is closed.
var ErrDisconnected = errors.New("peer: disconnected")

// TxReceiver hands a newly received transaction to attached wallets
// (spec.md 4.4, "on tx reception, hand to attached wallets").
type TxReceiver func(tx *wire.MsgTx, fromBlock *chainhash.Hash)

// Event is published for state changes a PeerGroup cares about.
type Event struct {
	Peer   *Peer
	Kind   EventKind
	Reject *wire.MsgReject
}

type EventKind int

const (
	EventHandshakeComplete EventKind = iota
	EventDisconnected
	EventHeightChanged
	EventRejected
)

// Config bundles what a Peer needs beyond the raw connection.
type Config struct {
	Net             wire.BitcoinNet
	ProtocolVersion uint32
	Services        wire.ServiceFlag
	UserAgent       string
	BestHeight      func() int32
	Chain           *blockchain.BlockChain
	OnTx            TxReceiver
	Log             btclog.Logger
}

// Peer drives the P2P protocol over one connection (C4).
type Peer struct {
	cfg  Config
	conn net.Conn
	w    *bufio.Writer
	log  btclog.Logger

	mu              sync.Mutex
	state           State
	ourNonce        uint64
	theirNonce      uint64
	negotiatedPver  uint32
	theirServices   wire.ServiceFlag
	theirHeight     int32
	sendHeadersMode bool
	isDownloadPeer  bool

	pendingInv map[chainhash.Hash]time.Time

	filter      *bloom.Filter
	filterEpoch uint64

	inMerkleBlock     bool
	merkleMatchesLeft []chainhash.Hash
	pendingTxSources  map[chainhash.Hash]bool

	pingNonce uint64
	pingSent  time.Time
	rtt       time.Duration
	lastRecv  time.Time

	sendCh chan wire.Message

	events *event.Bus[Event]

	broadcastAcks map[chainhash.Hash]*async.Future[bool]
	txProvider    TxProvider

	closeOnce sync.Once
	closed    chan struct{}
}

// New wraps conn, ready to run its handshake via Run.
func New(conn net.Conn, cfg Config) *Peer {
	var nonceBuf [8]byte
	_, _ = rand.Read(nonceBuf[:])

	return &Peer{
		cfg:              cfg,
		conn:             conn,
		w:                bufio.NewWriter(conn),
		log:              cfg.Log,
		state:            StateDialing,
		ourNonce:         binary.LittleEndian.Uint64(nonceBuf[:]),
		pendingInv:       make(map[chainhash.Hash]time.Time),
		pendingTxSources: make(map[chainhash.Hash]bool),
		sendCh:           make(chan wire.Message, 64),
		events:           event.NewBus[Event](),
		broadcastAcks:    make(map[chainhash.Hash]*async.Future[bool]),
		closed:           make(chan struct{}),
	}
}

// Subscribe registers l for peer lifecycle events.
func (p *Peer) Subscribe(l event.Listener[Event]) {
	p.events.Subscribe(l)
}

// State returns the current handshake state.
func (p *Peer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RemoteAddr returns the underlying connection's remote address.
func (p *Peer) RemoteAddr() net.Addr { return p.conn.RemoteAddr() }

// Height returns the remote's last reported best height.
func (p *Peer) Height() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theirHeight
}

// RTT returns the most recently measured ping round-trip time.
func (p *Peer) RTT() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rtt
}

// SetDownloadPeer marks or unmarks this peer as the header-download peer
// (spec.md 4.5, election is PeerGroup's job; this is just the flag).
func (p *Peer) SetDownloadPeer(v bool) {
	p.mu.Lock()
	p.isDownloadPeer = v
	p.mu.Unlock()
}

// Run performs the handshake then services the connection until ctx is
// cancelled or an unrecoverable error occurs. It blocks.
func (p *Peer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.writePump(ctx)
	}()

	if err := p.sendVersion(); err != nil {
		p.Close()
		wg.Wait()
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.keepalive(ctx)
	}()

	err := p.readLoop(ctx)
	p.Close()
	cancel()
	wg.Wait()
	return err
}

// Close drops the connection, fails pending futures, and publishes
// EventDisconnected (spec.md 4.4, "Cancellation").
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.state = StateClosed
		pending := p.broadcastAcks
		p.broadcastAcks = make(map[chainhash.Hash]*async.Future[bool])
		p.mu.Unlock()

		for _, f := range pending {
			f.Complete(false, ErrDisconnected)
		}

		close(p.closed)
		_ = p.conn.Close()
		p.events.Publish(Event{Peer: p, Kind: EventDisconnected})
		p.events.Drain()
	})
}

func (p *Peer) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.closed:
			return
		case msg := <-p.sendCh:
			if err := wire.WriteMessage(p.w, msg, p.negotiatedOrDefault(), p.cfg.Net); err != nil {
				if p.log != nil {
					p.log.Debugf("write error: %v", err)
				}
				return
			}
			if err := p.w.Flush(); err != nil {
				return
			}
		}
	}
}

func (p *Peer) negotiatedOrDefault() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.negotiatedPver != 0 {
		return p.negotiatedPver
	}
	return p.cfg.ProtocolVersion
}

func (p *Peer) send(msg wire.Message) {
	select {
	case p.sendCh <- msg:
	case <-p.closed:
	}
}

func (p *Peer) sendVersion() error {
	local, remote := addrsFromConn(p.conn)
	msg := &wire.MsgVersion{
		ProtocolVersion: int32(p.cfg.ProtocolVersion),
		Services:        p.cfg.Services,
		Timestamp:       time.Now(),
		AddrRecv:        remote,
		AddrFrom:        local,
		Nonce:           p.ourNonce,
		UserAgent:       p.cfg.UserAgent,
		LastBlock:       p.cfg.BestHeight(),
	}
	p.mu.Lock()
	p.state = StateSentVersion
	p.mu.Unlock()
	p.send(msg)
	return nil
}

func addrsFromConn(conn net.Conn) (local, remote wire.NetAddress) {
	if tcp, ok := conn.LocalAddr().(*net.TCPAddr); ok {
		local = wire.NetAddress{IP: tcp.IP, Port: uint16(tcp.Port)}
	}
	if tcp, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		remote = wire.NetAddress{IP: tcp.IP, Port: uint16(tcp.Port)}
	}
	return local, remote
}

func (p *Peer) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, _, err := wire.ReadMessage(p.conn, p.negotiatedOrDefault(), p.cfg.Net)
		if err != nil {
			var wireErr *wire.MessageError
			if errors.As(err, &wireErr) && wireErr.Code == wire.ErrUnknownCommand {
				// Unknown commands parse to an opaque payload and are
				// dropped, not treated as a connection error.
				continue
			}
			return fmt.Errorf("peer: read failed: %w", err)
		}
		p.mu.Lock()
		p.lastRecv = time.Now()
		p.mu.Unlock()

		if err := p.dispatch(msg); err != nil {
			return err
		}
	}
}

func (p *Peer) dispatch(msg wire.Message) error {
	switch m := msg.(type) {
	case *wire.MsgVersion:
		return p.handleVersion(m)
	case *wire.MsgVerAck:
		return p.handleVerAck()
	case *wire.MsgSendHeaders:
		p.mu.Lock()
		p.sendHeadersMode = true
		p.mu.Unlock()
		return nil
	case *wire.MsgPing:
		p.send(&wire.MsgPong{Nonce: m.Nonce})
		return nil
	case *wire.MsgPong:
		p.handlePong(m)
		return nil
	case *wire.MsgHeaders:
		return p.handleHeaders(m)
	case *wire.MsgInv:
		return p.handleInv(m)
	case *wire.MsgGetData:
		return p.handleGetData(m)
	case *wire.MsgNotFound:
		return nil
	case *wire.MsgTx:
		return p.handleTx(m)
	case *wire.MsgMerkleBlock:
		return p.handleMerkleBlock(m)
	case *wire.MsgFilterLoad:
		p.mu.Lock()
		p.filter = bloom.LoadFilter(m)
		p.mu.Unlock()
		return nil
	case *wire.MsgFilterAdd:
		p.mu.Lock()
		if p.filter != nil {
			p.filter.Add(m.Data)
		}
		p.mu.Unlock()
		return nil
	case *wire.MsgReject:
		p.handleReject(m)
		return nil
	default:
		return nil // unknown/uninteresting commands are dropped
	}
}

func (p *Peer) handleVersion(m *wire.MsgVersion) error {
	if uint32(m.ProtocolVersion) < wire.MinAcceptableProtocolVersion {
		return ErrProtocolVersionTooOld
	}

	p.mu.Lock()
	if m.Nonce == p.ourNonce {
		p.mu.Unlock()
		return ErrSelfConnection
	}
	p.theirNonce = m.Nonce
	p.theirServices = m.Services
	p.theirHeight = m.LastBlock
	p.negotiatedPver = minUint32(p.cfg.ProtocolVersion, uint32(m.ProtocolVersion))
	wasSent := p.state == StateSentVersion
	p.state = StateBothVersions
	p.mu.Unlock()

	if !wasSent {
		if err := p.sendVersion(); err != nil {
			return err
		}
	}
	p.send(&wire.MsgVerAck{})
	return nil
}

func (p *Peer) handleVerAck() error {
	p.mu.Lock()
	p.state = StateVeracked
	p.mu.Unlock()
	p.events.Publish(Event{Peer: p, Kind: EventHandshakeComplete})
	p.events.Drain()
	return nil
}

func minUint32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func (p *Peer) keepalive(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.closed:
			return
		case <-ticker.C:
			p.mu.Lock()
			silent := time.Since(p.lastRecv)
			p.mu.Unlock()
			if p.lastRecvSet() && silent > silenceLimit {
				p.Close()
				return
			}
			var nonceBuf [8]byte
			_, _ = rand.Read(nonceBuf[:])
			nonce := binary.LittleEndian.Uint64(nonceBuf[:])
			p.mu.Lock()
			p.pingNonce = nonce
			p.pingSent = time.Now()
			p.mu.Unlock()
			p.send(&wire.MsgPing{Nonce: nonce})
		}
	}
}

func (p *Peer) lastRecvSet() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.lastRecv.IsZero()
}

func (p *Peer) handlePong(m *wire.MsgPong) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.Nonce == p.pingNonce && !p.pingSent.IsZero() {
		p.rtt = time.Since(p.pingSent)
	}
}

// RequestHeaders sends getheaders built from the chain's current block
// locator (spec.md 4.4, "header synchronization").
func (p *Peer) RequestHeaders() {
	if p.cfg.Chain == nil {
		return
	}
	locator := p.cfg.Chain.BlockLocator()
	req := wire.NewMsgGetHeaders()
	req.ProtocolVersion = p.negotiatedOrDefault()
	req.BlockLocatorHashes = locator
	p.send(req)
}

func (p *Peer) handleHeaders(m *wire.MsgHeaders) error {
	if p.cfg.Chain == nil {
		return nil
	}
	for _, h := range m.Headers {
		if err := p.cfg.Chain.AcceptHeader(h); err != nil {
			if p.log != nil {
				p.log.Debugf("rejected header from peer: %v", err)
			}
		}
	}
	if len(m.Headers) >= wire.MaxHeadersPerMsg {
		p.RequestHeaders()
	}
	return nil
}

func (p *Peer) handleInv(m *wire.MsgInv) error {
	var toFetch []*wire.InvVect
	now := time.Now()
	p.mu.Lock()
	for _, iv := range m.InvList {
		if iv.Type != wire.InvTypeTx && iv.Type != wire.InvTypeWitnessTx {
			continue
		}
		if _, known := p.pendingInv[iv.Hash]; known {
			continue
		}
		p.pendingInv[iv.Hash] = now
		toFetch = append(toFetch, iv)
	}
	p.mu.Unlock()

	if len(toFetch) == 0 {
		return nil
	}
	time.AfterFunc(txFetchWindow, func() {
		req := wire.NewMsgGetData()
		for _, iv := range toFetch {
			req.AddInvVect(iv)
		}
		p.send(req)
	})
	return nil
}

func (p *Peer) handleGetData(m *wire.MsgGetData) error {
	// Broadcast responder: a full implementation would look up
	// outgoing transactions by fingerprint in the PeerGroup's
	// broadcast table; that lookup is injected by PeerGroup via
	// SetTxProvider since Peer itself holds no transaction store.
	p.mu.Lock()
	provider := p.txProvider
	p.mu.Unlock()

	for _, iv := range m.InvList {
		if iv.Type != wire.InvTypeTx {
			continue
		}

		// A remote requesting data for a tx we announced is the
		// acknowledgement spec.md 4.5 defines for broadcast: "await at
		// least min_ack peers to respond with getdata". Complete the
		// ack here, not on receiving the tx back, since a remote's own
		// inv round trip for the same hash never sends the tx to us.
		p.mu.Lock()
		if ack, ok := p.broadcastAcks[iv.Hash]; ok {
			ack.Complete(true, nil)
			delete(p.broadcastAcks, iv.Hash)
		}
		p.mu.Unlock()

		if provider == nil {
			continue
		}
		if tx, ok := provider(iv.Hash); ok {
			p.send(tx)
		}
	}
	return nil
}

func (p *Peer) handleTx(m *wire.MsgTx) error {
	hash := m.TxHash()
	p.mu.Lock()
	delete(p.pendingInv, hash)
	inMerkle := p.inMerkleBlock
	var fromBlock *chainhash.Hash
	if inMerkle && len(p.merkleMatchesLeft) > 0 && p.merkleMatchesLeft[0] == hash {
		p.merkleMatchesLeft = p.merkleMatchesLeft[1:]
		if len(p.merkleMatchesLeft) == 0 {
			p.inMerkleBlock = false
		}
	}
	p.mu.Unlock()

	if p.cfg.OnTx != nil {
		p.cfg.OnTx(m, fromBlock)
	}
	return nil
}

func (p *Peer) handleMerkleBlock(m *wire.MsgMerkleBlock) error {
	matches, err := bloom.ExtractMatches(m)
	if err != nil {
		return fmt.Errorf("peer: invalid merkleblock: %w", err)
	}
	p.mu.Lock()
	p.inMerkleBlock = len(matches) > 0
	p.merkleMatchesLeft = matches
	p.mu.Unlock()
	return nil
}

func (p *Peer) handleReject(m *wire.MsgReject) {
	p.mu.Lock()
	if ack, ok := p.broadcastAcks[m.Hash]; ok {
		ack.Complete(false, fmt.Errorf("peer rejected broadcast: %s", m.Reason))
		delete(p.broadcastAcks, m.Hash)
	}
	p.mu.Unlock()
	p.events.Publish(Event{Peer: p, Kind: EventRejected, Reject: m})
	p.events.Drain()
}

// LoadFilter sends filterload to the remote before requesting filtered
// (Merkle) blocks (spec.md 4.4, "Bloom filter").
func (p *Peer) LoadFilter(f *bloom.Filter, epoch uint64) {
	p.mu.Lock()
	p.filterEpoch = epoch
	p.mu.Unlock()
	p.send(f.MsgFilterLoad())
}

// Announce sends inv(tx) and registers a future completed when the
// remote requests it via getdata (the ack, per spec.md 4.5 broadcast
// protocol step 2) or rejects it.
func (p *Peer) Announce(tx *wire.MsgTx) *async.Future[bool] {
	hash := tx.TxHash()
	f := async.NewFuture[bool]()

	p.mu.Lock()
	p.broadcastAcks[hash] = f
	p.mu.Unlock()

	inv := wire.NewMsgInv()
	inv.AddInvVect(&wire.InvVect{Type: wire.InvTypeTx, Hash: hash})
	p.send(inv)
	return f
}

// txProvider is consulted to answer getdata requests for transactions
// this peer has announced via Announce; PeerGroup wires it in.
type TxProvider func(hash chainhash.Hash) (*wire.MsgTx, bool)

func (p *Peer) SetTxProvider(fn TxProvider) {
	p.mu.Lock()
	p.txProvider = fn
	p.mu.Unlock()
}
