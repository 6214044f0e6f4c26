// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"time"

	"github.com/btcsuite/btclog"
)

// AutoSaver periodically rewrites a wallet's snapshot to path while it is
// dirty, per spec.md 4.6 ("auto-save... period is configurable, default
// one second").
type AutoSaver struct {
	wallet *Wallet
	path   string
	period time.Duration
	log    btclog.Logger
}

// NewAutoSaver returns a saver that is not yet running; call Run to
// start its loop.
func NewAutoSaver(w *Wallet, path string, period time.Duration, log btclog.Logger) *AutoSaver {
	if period < 100*time.Millisecond {
		period = 100 * time.Millisecond
	}
	return &AutoSaver{wallet: w, path: path, period: period, log: log}
}

// Run blocks, saving the wallet every period while it has unsaved
// changes, until ctx is cancelled. A final save is attempted on
// cancellation if the wallet is still dirty.
func (a *AutoSaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if a.wallet.Dirty() {
				if err := a.wallet.Save(a.path); err != nil && a.log != nil {
					a.log.Errorf("final wallet auto-save failed: %v", err)
				}
			}
			return
		case <-ticker.C:
			if !a.wallet.Dirty() {
				continue
			}
			if err := a.wallet.Save(a.path); err != nil && a.log != nil {
				a.log.Errorf("wallet auto-save failed: %v", err)
			}
		}
	}
}
