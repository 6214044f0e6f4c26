// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config defines the recognized options of spec.md 6, exposed as
// a struct an embedder can either construct directly or parse from
// flags/INI via go-flags, matching the teacher's btcjson/rpc option-
// struct convention.
package config

import (
	"time"

	flags "github.com/jessevdk/go-flags"
)

// Config bundles every option spec.md 6 names.
type Config struct {
	DataDirectory string `long:"datadir" description:"Base path for the header store and wallet snapshot"`
	FilePrefix    string `long:"fileprefix" description:"Leaf filename prefix shared by the header store and wallet snapshot"`
	Network       string `long:"network" description:"Network identity: production, test, signet, or regtest" default:"production"`

	MaxConnections int `long:"maxconnections" description:"Target number of active peers" default:"4"`

	UseAutoSave   bool          `long:"autosave" description:"Enable periodic wallet rewrite"`
	AutoSaveDelay time.Duration `long:"autosavedelay" description:"Period between wallet auto-saves (minimum 100ms)" default:"1s"`

	BloomFalsePositiveRate float64 `long:"bloomfprate" description:"Target bloom filter false-positive rate" default:"0.00001"`
	FeePerKb               int64   `long:"feeperkb" description:"Fee rate in units per kilobyte" default:"5000"`

	PeerDiscoverySources []string `long:"discovery" description:"Ordered list of discovery strategies: dns, addr"`
	StaticPeers          []string `long:"peer" description:"Fixed peer addresses to connect to instead of discovery"`

	// Proxy and AddrReservoirPath are enrichments beyond spec.md's
	// explicit option list (SPEC_FULL.md 4.5a): an optional SOCKS5
	// proxy and a persistent address-reservoir path.
	Proxy             string `long:"proxy" description:"Optional SOCKS5 proxy address for outbound peer dials"`
	AddrReservoirPath string `long:"addrreservoir" description:"Path to the persistent peer-address reservoir database"`
}

// Default returns a Config populated with spec.md 6's documented
// defaults.
func Default() *Config {
	return &Config{
		Network:                "production",
		MaxConnections:         4,
		AutoSaveDelay:          time.Second,
		BloomFalsePositiveRate: 1e-5,
		FeePerKb:               5000,
	}
}

// Parse populates a Config from the given command-line style arguments.
func Parse(args []string) (*Config, error) {
	cfg := Default()
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if cfg.AutoSaveDelay < 100*time.Millisecond {
		cfg.AutoSaveDelay = 100 * time.Millisecond
	}
	return cfg, nil
}
