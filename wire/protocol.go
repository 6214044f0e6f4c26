// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// ProtocolVersion is the latest protocol version this package supports.
	ProtocolVersion uint32 = 70016

	// NetAddressTimeVersion is the protocol version which added the
	// timestamp field to net addresses (pver >= NetAddressTimeVersion).
	NetAddressTimeVersion uint32 = 31402

	// BIP0031Version is the protocol version after which a pong message
	// and nonce field in ping were added (pver > BIP0031Version).
	BIP0031Version uint32 = 60000

	// BIP0035Version is the protocol version which added the mempool
	// message (pver >= BIP0035Version).
	BIP0035Version uint32 = 60002

	// BIP0037Version is the protocol version which added the connection
	// bloom filtering messages and extended the version message with a
	// relay flag (pver >= BIP0037Version). See spec.md 4.4.
	BIP0037Version uint32 = 70001

	// RejectVersion is the protocol version which added the reject
	// message.
	RejectVersion uint32 = 70002

	// MinAcceptableProtocolVersion is the hard floor below which a peer's
	// version message is rejected during the handshake (spec.md 4.4
	// step 2).
	MinAcceptableProtocolVersion uint32 = RejectVersion

	// BIP0111Version is the protocol version which added the SFNodeBloom
	// service flag.
	BIP0111Version uint32 = 70011

	// SendHeadersVersion is the protocol version which added the
	// sendheaders message.
	SendHeadersVersion uint32 = 70012

	// FeeFilterVersion is the protocol version which added the feefilter
	// message.
	FeeFilterVersion uint32 = 70013

	// AddrV2Version is the protocol version which added the addrv2
	// message.
	AddrV2Version uint32 = 70016
)

const (
	// NodeNetworkLimitedBlockThreshold is the number of blocks that a node
	// broadcasting SFNodeNetworkLimited MUST be able to serve from the tip.
	NodeNetworkLimitedBlockThreshold = 288
)

// ServiceFlag identifies services supported by a peer.
type ServiceFlag uint64

const (
	// SFNodeNetwork indicates the peer is a full node able to serve
	// complete blocks, not just headers.
	SFNodeNetwork ServiceFlag = 1 << iota

	// SFNodeGetUTXO indicates the peer supports the getutxos/utxos
	// messages (BIP0064). Recognized, not served, by this library.
	SFNodeGetUTXO

	// SFNodeBloom indicates the peer supports bloom-filtered connections
	// (BIP0037). This is the flag a download peer must advertise for
	// PeerGroup to use it for filtered sync.
	SFNodeBloom

	// SFNodeWitness indicates the peer relays blocks and transactions
	// including witness data (segwit).
	SFNodeWitness

	// SFNodeXthin indicates the peer supports Xtreme Thinblocks.
	// Recognized for compatibility; not implemented.
	SFNodeXthin

	// SFNodeBit5 is reserved.
	SFNodeBit5

	// SFNodeCF indicates the peer supports committed (compact) filters.
	// Recognized for compatibility; this library only implements BIP0037
	// bloom filters (spec.md Non-goals).
	SFNodeCF

	// SFNodeNetworkLimited indicates the peer can only serve the most
	// recent NodeNetworkLimitedBlockThreshold blocks.
	SFNodeNetworkLimited
)

// sfStrings maps service flags back to their constant names for pretty
// printing.
var sfStrings = map[ServiceFlag]string{
	SFNodeNetwork:        "SFNodeNetwork",
	SFNodeGetUTXO:        "SFNodeGetUTXO",
	SFNodeBloom:          "SFNodeBloom",
	SFNodeWitness:        "SFNodeWitness",
	SFNodeXthin:          "SFNodeXthin",
	SFNodeBit5:           "SFNodeBit5",
	SFNodeCF:             "SFNodeCF",
	SFNodeNetworkLimited: "SFNodeNetworkLimited",
}

// orderedSFStrings lists service flags from lowest to highest bit, used to
// produce a deterministic String() output.
var orderedSFStrings = []ServiceFlag{
	SFNodeNetwork,
	SFNodeGetUTXO,
	SFNodeBloom,
	SFNodeWitness,
	SFNodeXthin,
	SFNodeBit5,
	SFNodeCF,
	SFNodeNetworkLimited,
}

// HasFlag returns whether f has every bit set in s.
func (f ServiceFlag) HasFlag(s ServiceFlag) bool {
	return f&s == s
}

// String returns the ServiceFlag in human-readable, pipe-delimited form.
func (f ServiceFlag) String() string {
	if f == 0 {
		return "0x0"
	}

	s := ""
	for _, flag := range orderedSFStrings {
		if f&flag == flag {
			s += sfStrings[flag] + "|"
			f -= flag
		}
	}

	s = strings.TrimRight(s, "|")
	if f != 0 {
		s += "|0x" + strconv.FormatUint(uint64(f), 16)
	}
	return strings.TrimLeft(s, "|")
}

// BitcoinNet identifies the network a message belongs to by its magic
// bytes. spec.md 6 names four networks by ASCII identifier; the magic
// constants below are this library's concrete encoding of those four.
type BitcoinNet uint32

const (
	// MainNet is the production network.
	MainNet BitcoinNet = 0xd9b4bef9

	// TestNet is the public test network.
	TestNet BitcoinNet = 0x0709110b

	// SigNet is the signature-gated test network used for coordinated
	// testing without a single miner's trust assumption.
	SigNet BitcoinNet = 0x40cf030a

	// RegTest is the regression test network: no peer discovery, blocks
	// mined on demand by the test harness.
	RegTest BitcoinNet = 0xdab5bffa
)

// bnStrings maps networks back to their constant names for pretty
// printing.
var bnStrings = map[BitcoinNet]string{
	MainNet: "MainNet",
	TestNet: "TestNet",
	SigNet:  "SigNet",
	RegTest: "RegTest",
}

// String returns the BitcoinNet in human-readable form.
func (n BitcoinNet) String() string {
	if s, ok := bnStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown BitcoinNet (%d)", uint32(n))
}
