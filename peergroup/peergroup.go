// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peergroup

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/btcsuite/go-socks/socks"
	"golang.org/x/sync/errgroup"

	"github.com/btcspv/node/async"
	"github.com/btcspv/node/blockchain"
	"github.com/btcspv/node/bloom"
	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/chaincfg"
	"github.com/btcspv/node/peer"
	"github.com/btcspv/node/wire"
)

const (
	defaultTargetPeers   = 4
	maxBroadcastPeers    = 8
	dialTimeout          = 5 * time.Second
	maxDialRetries       = 3
	broadcastBudget      = 20 * time.Second
	rebroadcastInterval  = 5 * time.Minute
	heightSwitchMargin   = 2
)

// Dialer abstracts the outbound connection, direct or via SOCKS5 proxy.
type Dialer func(network, address string) (net.Conn, error)

// Config configures a PeerGroup.
type Config struct {
	Params           *chaincfg.Params
	Chain            *blockchain.BlockChain
	TargetPeers      int
	ProtocolVersion  uint32
	Services         wire.ServiceFlag
	UserAgent        string
	BestHeight       func() int32
	OnTx             peer.TxReceiver
	Proxy            string // optional SOCKS5 proxy address
	StaticAddrs      []string
	Log              btclog.Logger
}

// PeerGroup maintains a target number of healthy peers, elects a
// header-download peer, and disseminates wallet-driven actions (C5).
type PeerGroup struct {
	cfg       Config
	reservoir *Reservoir
	dial      Dialer

	mu            sync.Mutex
	active        map[string]*peer.Peer
	downloadPeer  *peer.Peer
	filterEpoch   uint64
	outgoingTxs   map[chainhash.Hash]*wire.MsgTx

	log btclog.Logger
}

// New returns a PeerGroup using reservoir for discovery/persistence. If
// cfg.Proxy is set, outbound connections dial through a SOCKS5 proxy
// (SPEC_FULL.md 4.5a); otherwise a plain net.Dialer is used.
func New(cfg Config, reservoir *Reservoir) *PeerGroup {
	if cfg.TargetPeers <= 0 {
		cfg.TargetPeers = defaultTargetPeers
	}

	var dial Dialer
	if cfg.Proxy != "" {
		proxy := &socks.Proxy{Addr: cfg.Proxy}
		dial = proxy.Dial
	} else {
		d := &net.Dialer{Timeout: dialTimeout}
		dial = d.Dial
	}

	return &PeerGroup{
		cfg:         cfg,
		reservoir:   reservoir,
		dial:        dial,
		active:      make(map[string]*peer.Peer),
		outgoingTxs: make(map[chainhash.Hash]*wire.MsgTx),
		log:         cfg.Log,
	}
}

// Seed adds the network's DNS seeds and any configured static addresses
// to the discovery reservoir (spec.md 4.5, "Discovery sources").
func (g *PeerGroup) Seed(ctx context.Context) {
	now := time.Now()
	for _, addr := range g.cfg.StaticAddrs {
		g.reservoir.Add(addr, now)
	}
	if g.cfg.Params == nil {
		return
	}
	var eg errgroup.Group
	for _, seed := range g.cfg.Params.DNSSeeds {
		seed := seed
		eg.Go(func() error {
			ips, err := net.DefaultResolver.LookupHost(ctx, seed.Host)
			if err != nil {
				if g.log != nil {
					g.log.Debugf("dns seed lookup failed for %s: %v", seed.Host, err)
				}
				return nil
			}
			for _, ip := range ips {
				g.reservoir.Add(net.JoinHostPort(ip, g.cfg.Params.DefaultPort), now)
			}
			return nil
		})
	}
	_ = eg.Wait() // per-seed errors are already swallowed and logged above
}

// AddGossipedAddr records an address learned from a peer's addr message.
func (g *PeerGroup) AddGossipedAddr(addr string, seen time.Time) {
	g.reservoir.Add(addr, seen)
}

// Run maintains the active peer count at the target until ctx is
// cancelled (spec.md 4.5, "Maintain active peer count = target").
func (g *PeerGroup) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	rebroadcast := time.NewTicker(rebroadcastInterval)
	defer rebroadcast.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.fillToTarget(ctx)
		case <-rebroadcast.C:
			g.rebroadcastPending()
		}
	}
}

func (g *PeerGroup) activeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

func (g *PeerGroup) fillToTarget(ctx context.Context) {
	for g.activeCount() < g.cfg.TargetPeers {
		g.mu.Lock()
		exclude := make(map[string]bool, len(g.active))
		for addr := range g.active {
			exclude[addr] = true
		}
		g.mu.Unlock()

		addr, ok := g.reservoir.PopFreshest(exclude)
		if !ok {
			return
		}
		go g.dialWithRetry(ctx, addr)
		return // one dial attempt per tick keeps fan-out bounded
	}
}

func (g *PeerGroup) dialWithRetry(ctx context.Context, addr string) {
	backoff := dialTimeout
	for attempt := 0; attempt < maxDialRetries; attempt++ {
		conn, err := g.dial("tcp", addr)
		if err == nil {
			g.adopt(ctx, conn, addr)
			return
		}
		if g.log != nil {
			g.log.Debugf("dial %s failed (attempt %d): %v", addr, attempt+1, err)
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff *= 2
	}
	g.reservoir.MarkFailed(addr)
}

func (g *PeerGroup) adopt(ctx context.Context, conn net.Conn, addr string) {
	p := peer.New(conn, peer.Config{
		Net:             g.cfg.Params.Net,
		ProtocolVersion: g.cfg.ProtocolVersion,
		Services:        g.cfg.Services,
		UserAgent:       g.cfg.UserAgent,
		BestHeight:      g.cfg.BestHeight,
		Chain:           g.cfg.Chain,
		OnTx:            g.cfg.OnTx,
		Log:             g.log,
	})
	p.SetTxProvider(g.lookupOutgoingTx)
	p.Subscribe(func(evt peer.Event) {
		g.handlePeerEvent(addr, evt)
	})

	g.mu.Lock()
	g.active[addr] = p
	g.mu.Unlock()

	go func() {
		_ = p.Run(ctx)
		g.mu.Lock()
		delete(g.active, addr)
		if g.downloadPeer == p {
			g.downloadPeer = nil
		}
		g.mu.Unlock()
	}()
}

func (g *PeerGroup) handlePeerEvent(addr string, evt peer.Event) {
	switch evt.Kind {
	case peer.EventHandshakeComplete:
		g.reservoir.Add(addr, time.Now())
		g.electDownloadPeer()
		evt.Peer.RequestHeaders()
	case peer.EventHeightChanged:
		g.electDownloadPeer()
	}
}

// electDownloadPeer picks the highest-reporting handshaked peer, ties
// broken by shortest RTT (spec.md 4.5, "Download peer election").
func (g *PeerGroup) electDownloadPeer() {
	g.mu.Lock()
	defer g.mu.Unlock()

	candidates := make([]*peer.Peer, 0, len(g.active))
	for _, p := range g.active {
		if p.State() == peer.StateVeracked {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Height() != candidates[j].Height() {
			return candidates[i].Height() > candidates[j].Height()
		}
		return candidates[i].RTT() < candidates[j].RTT()
	})
	best := candidates[0]
	if g.downloadPeer != best {
		if g.downloadPeer != nil {
			if best.Height()-g.downloadPeer.Height() < heightSwitchMargin && g.downloadPeer.State() == peer.StateVeracked {
				return
			}
			g.downloadPeer.SetDownloadPeer(false)
		}
		g.downloadPeer = best
		best.SetDownloadPeer(true)
	}
}

// Broadcast announces tx to a random subset of active peers and waits
// for at least ceil(peers/2) acknowledgements, per spec.md 4.5's
// broadcast protocol.
func (g *PeerGroup) Broadcast(ctx context.Context, tx *wire.MsgTx) *async.Future[chainhash.Hash] {
	result := async.NewFuture[chainhash.Hash]()
	hash := tx.TxHash()

	g.mu.Lock()
	g.outgoingTxs[hash] = tx
	peers := make([]*peer.Peer, 0, len(g.active))
	for _, p := range g.active {
		peers = append(peers, p)
	}
	g.mu.Unlock()

	rand.Shuffle(len(peers), func(i, j int) { peers[i], peers[j] = peers[j], peers[i] })
	if len(peers) > maxBroadcastPeers {
		peers = peers[:maxBroadcastPeers]
	}
	if len(peers) == 0 {
		result.Complete(chainhash.Hash{}, fmt.Errorf("no active peers to broadcast to"))
		return result
	}

	minAck := (len(peers) + 1) / 2

	go func() {
		budgetCtx, cancel := context.WithTimeout(ctx, broadcastBudget)
		defer cancel()

		acks := make(chan bool, len(peers))
		for _, p := range peers {
			f := p.Announce(tx)
			go func(f *async.Future[bool]) {
				ok, err := f.Wait(budgetCtx)
				acks <- err == nil && ok
			}(f)
		}

		succeeded := 0
		for i := 0; i < len(peers); i++ {
			select {
			case ok := <-acks:
				if ok {
					succeeded++
				}
				if succeeded >= minAck {
					result.Complete(hash, nil)
					return
				}
			case <-budgetCtx.Done():
				result.Complete(chainhash.Hash{}, fmt.Errorf("broadcast timed out with %d/%d acks", succeeded, minAck))
				return
			}
		}
		result.Complete(chainhash.Hash{}, fmt.Errorf("broadcast failed: only %d/%d peers acknowledged", succeeded, minAck))
	}()

	return result
}

func (g *PeerGroup) lookupOutgoingTx(hash chainhash.Hash) (*wire.MsgTx, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tx, ok := g.outgoingTxs[hash]
	return tx, ok
}

func (g *PeerGroup) rebroadcastPending() {
	g.mu.Lock()
	txs := make([]*wire.MsgTx, 0, len(g.outgoingTxs))
	for _, tx := range g.outgoingTxs {
		txs = append(txs, tx)
	}
	g.mu.Unlock()

	for _, tx := range txs {
		g.Broadcast(context.Background(), tx)
	}
}

// ConfirmBroadcast removes a transaction from the rebroadcast set once
// it has confirmed.
func (g *PeerGroup) ConfirmBroadcast(hash chainhash.Hash) {
	g.mu.Lock()
	delete(g.outgoingTxs, hash)
	g.mu.Unlock()
}

// UpdateFilter recomputes and pushes the combined Bloom filter to every
// active peer under a new, monotonically increasing epoch (spec.md 4.5,
// "Filter distribution").
func (g *PeerGroup) UpdateFilter(f *bloom.Filter) {
	g.mu.Lock()
	g.filterEpoch++
	epoch := g.filterEpoch
	peers := make([]*peer.Peer, 0, len(g.active))
	for _, p := range g.active {
		peers = append(peers, p)
	}
	g.mu.Unlock()

	for _, p := range peers {
		p.LoadFilter(f, epoch)
	}
}

// ActivePeers returns a snapshot of currently active peers.
func (g *PeerGroup) ActivePeers() []*peer.Peer {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*peer.Peer, 0, len(g.active))
	for _, p := range g.active {
		out = append(out, p)
	}
	return out
}

// DownloadPeer returns the currently elected header-download peer, if
// any.
func (g *PeerGroup) DownloadPeer() *peer.Peer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.downloadPeer
}
