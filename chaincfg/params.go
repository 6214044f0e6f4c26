// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the network identities recognized by this
// module: production, test, signet and regtest. Each identity carries the
// magic bytes, default port, maximum-money cap, genesis header and
// difficulty-retarget parameters a BlockChain needs to validate headers.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/wire"
)

var bigOne = big.NewInt(1)

// mainPowLimit is the highest proof-of-work target (lowest difficulty)
// permitted on the production network: 2^224 - 1.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// regressionPowLimit is the highest proof-of-work target permitted on
// regtest: 2^255 - 1, so a single hash will almost always satisfy it.
var regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

// DNSSeed identifies a DNS seed used for peer discovery.
type DNSSeed struct {
	Host         string
	HasFiltering bool
}

// String returns the seed hostname.
func (d DNSSeed) String() string { return d.Host }

// Checkpoint identifies a known-good point in the header chain. Headers
// below the last checkpoint need not be individually validated by a
// fast-sync client; this module does not implement that optimization but
// carries the field for parity with the reference stack.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// Params bundles everything a BlockChain needs to know about a network
// identity (spec.md 6, "Network identities").
type Params struct {
	// Name is the ASCII identifier string, "<org>.<purpose>".
	Name string

	// Net is the magic bytes that open every wire message on this
	// network.
	Net wire.BitcoinNet

	// DefaultPort is the TCP port peers listen on by default.
	DefaultPort string

	// DNSSeeds lists hostnames PeerGroup's discovery strategy may query
	// for peer addresses.
	DNSSeeds []DNSSeed

	// GenesisBlock is the first block of the chain.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is GenesisBlock's fingerprint, cached to avoid
	// recomputing it on every chain initialization.
	GenesisHash *chainhash.Hash

	// PowLimit is the highest allowed proof-of-work target as an
	// arbitrary-precision integer.
	PowLimit *big.Int

	// PowLimitBits is PowLimit in compact form.
	PowLimitBits uint32

	// PoWNoRetargeting disables difficulty retargeting entirely. Only
	// regtest-style networks set this.
	PoWNoRetargeting bool

	// MaxMoney is the consensus cap on the total spendable supply,
	// denominated in the smallest unit.
	MaxMoney int64

	// CoinbaseMaturity is the number of confirmations a coinbase output
	// needs before it is spendable.
	CoinbaseMaturity uint16

	// TargetTimespan is the duration over which actual block production
	// is measured at each retarget.
	TargetTimespan time.Duration

	// TargetTimePerBlock is the desired average spacing between blocks.
	TargetTimePerBlock time.Duration

	// RetargetAdjustmentFactor bounds how far a single retarget can move
	// the target: the new target is clamped to
	// [old/factor, old*factor].
	RetargetAdjustmentFactor int64

	// RetargetInterval is the number of headers between difficulty
	// adjustments.
	RetargetInterval int32

	// ReduceMinDifficulty allows emitting a minimum-difficulty block
	// after a sufficiently long quiet period. Test networks only.
	ReduceMinDifficulty bool

	// MinDiffReductionTime is how long the network must go without a
	// block before ReduceMinDifficulty applies.
	MinDiffReductionTime time.Duration

	// Checkpoints are known-good (height, fingerprint) pairs, oldest
	// first.
	Checkpoints []Checkpoint
}

// TimespanFor returns the targeted retarget interval as a duration, i.e.
// RetargetInterval headers produced TargetTimePerBlock apart.
func (p *Params) TimespanFor() time.Duration {
	return time.Duration(p.RetargetInterval) * p.TargetTimePerBlock
}

// MainNetParams defines the production network.
var MainNetParams = Params{
	Name:        "btcspv.production",
	Net:         wire.MainNet,
	DefaultPort: "8333",
	DNSSeeds: []DNSSeed{
		{Host: "seed.bitcoin.sipa.be", HasFiltering: true},
		{Host: "dnsseed.bluematt.me", HasFiltering: true},
		{Host: "dnsseed.bitcoin.dashjr.org", HasFiltering: false},
		{Host: "seed.bitcoinstats.com", HasFiltering: true},
		{Host: "seed.bitcoin.jonasschnelli.ch", HasFiltering: true},
	},

	GenesisBlock:     &genesisBlock,
	GenesisHash:      &genesisHash,
	PowLimit:         mainPowLimit,
	PowLimitBits:     0x1d00ffff,
	PoWNoRetargeting: false,

	MaxMoney:         21_000_000 * 1e8,
	CoinbaseMaturity: 100,

	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,
	RetargetInterval:         2016,
	ReduceMinDifficulty:      false,
	MinDiffReductionTime:     0,

	Checkpoints: []Checkpoint{
		{Height: 0, Hash: &genesisHash},
	},
}

// TestNetParams defines the public test network.
var TestNetParams = Params{
	Name:        "btcspv.test",
	Net:         wire.TestNet,
	DefaultPort: "18333",
	DNSSeeds: []DNSSeed{
		{Host: "testnet-seed.bitcoin.jonasschnelli.ch", HasFiltering: true},
		{Host: "seed.tbtc.petertodd.org", HasFiltering: true},
	},

	GenesisBlock:     &testNet3GenesisBlock,
	GenesisHash:      &testNet3GenesisHash,
	PowLimit:         mainPowLimit,
	PowLimitBits:     0x1d00ffff,
	PoWNoRetargeting: false,

	MaxMoney:         21_000_000 * 1e8,
	CoinbaseMaturity: 100,

	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,
	RetargetInterval:         2016,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     time.Minute * 20,

	Checkpoints: []Checkpoint{
		{Height: 0, Hash: &testNet3GenesisHash},
	},
}

// SigNetParams defines the signet network: a federated test network with
// otherwise mainnet-equivalent consensus parameters.
var SigNetParams = Params{
	Name:        "btcspv.signet",
	Net:         wire.SigNet,
	DefaultPort: "38333",
	DNSSeeds: []DNSSeed{
		{Host: "seed.signet.bitcoin.sprovoost.nl", HasFiltering: true},
	},

	GenesisBlock:     &sigNetGenesisBlock,
	GenesisHash:      &sigNetGenesisHash,
	PowLimit:         new(big.Int).Lsh(big.NewInt(0x0377ae), 216),
	PowLimitBits:     0x1e0377ae,
	PoWNoRetargeting: false,

	MaxMoney:         21_000_000 * 1e8,
	CoinbaseMaturity: 100,

	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,
	RetargetInterval:         2016,
	ReduceMinDifficulty:      false,
	MinDiffReductionTime:     0,

	Checkpoints: []Checkpoint{
		{Height: 0, Hash: &sigNetGenesisHash},
	},
}

// RegressionNetParams defines regtest: a private network with proof-of-work
// effectively disabled and no retargeting, for local integration testing.
var RegressionNetParams = Params{
	Name:             "btcspv.regtest",
	Net:              wire.RegTest,
	DefaultPort:      "18444",
	DNSSeeds:         nil,
	GenesisBlock:     &regTestGenesisBlock,
	GenesisHash:      &regTestGenesisHash,
	PowLimit:         regressionPowLimit,
	PowLimitBits:     0x207fffff,
	PoWNoRetargeting: true,

	MaxMoney:         21_000_000 * 1e8,
	CoinbaseMaturity: 100,

	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,
	RetargetInterval:         2016,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     time.Minute * 20,

	Checkpoints: nil,
}

// ParamsForNet returns the registered Params for a magic value, or nil if
// the magic does not match one of the four built-in networks.
func ParamsForNet(net wire.BitcoinNet) *Params {
	switch net {
	case wire.MainNet:
		return &MainNetParams
	case wire.TestNet:
		return &TestNetParams
	case wire.SigNet:
		return &SigNetParams
	case wire.RegTest:
		return &RegressionNetParams
	default:
		return nil
	}
}
