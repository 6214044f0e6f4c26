// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package log provides the btclog.Logger registry embedders use to wire
// logging into every other package in this module, matching the
// teacher's per-package UseLogger/DisableLog convention (see
// mining/randomx/miner.go) generalized across the whole tree instead of
// one file at a time.
package log

import (
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate"
)

// Subsystem names, one per package that logs.
const (
	SubsystemWire       = "WIRE"
	SubsystemChain      = "CHAN"
	SubsystemPeer       = "PEER"
	SubsystemPeerGroup  = "PGRP"
	SubsystemWallet     = "WLLT"
	SubsystemBloom      = "BLOM"
)

// backendLog is the logging backend shared by every subsystem logger.
var backendLog = btclog.NewBackend(os.Stdout)

// subsystemLoggers holds one Logger per registered subsystem, so
// SetLogLevel(s) can look it up without every package needing to expose
// its own UseLogger wiring point individually.
var subsystemLoggers = make(map[string]btclog.Logger)

// NewSubsystemLogger registers and returns the logger for tag, creating
// it against the shared backend on first use.
func NewSubsystemLogger(tag string) btclog.Logger {
	if l, ok := subsystemLoggers[tag]; ok {
		return l
	}
	l := backendLog.Logger(tag)
	subsystemLoggers[tag] = l
	return l
}

// SetLevel sets the logging level for a single registered subsystem.
func SetLevel(tag string, level btclog.Level) {
	if l, ok := subsystemLoggers[tag]; ok {
		l.SetLevel(level)
	}
}

// SetLevelAll sets the logging level for every registered subsystem.
func SetLevelAll(level btclog.Level) {
	for _, l := range subsystemLoggers {
		l.SetLevel(level)
	}
}

// InitLogRotator redirects the shared backend to a rotating log file in
// addition to stdout, using the same jrick/logrotate pipe-based rotator
// btcd-lineage daemons wire up for file logging.
func InitLogRotator(logFile string) error {
	r, err := logrotate.NewRotator(logFile)
	if err != nil {
		return err
	}
	backendLog = btclog.NewBackend(os.Stdout, r)
	for tag := range subsystemLoggers {
		subsystemLoggers[tag] = backendLog.Logger(tag)
	}
	return nil
}
