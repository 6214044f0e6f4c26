// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mnemonic wraps BIP39 mnemonic-to-seed derivation, the one
// corner of key derivation spec.md 1 keeps in scope as an external
// collaborator's contract: "BIP32/BIP39 key derivation beyond the
// wallet interface... is out of scope." Everything past producing a
// seed byte slice (extended-key paths, word-list bundling) lives outside
// this package.
package mnemonic

import "github.com/tyler-smith/go-bip39"

// Seed derives the 64-byte BIP39 seed from a mnemonic phrase and an
// optional passphrase (spec.md 8 scenario 4).
func Seed(mnemonicPhrase, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonicPhrase) {
		return nil, bip39.ErrInvalidMnemonic
	}
	return bip39.NewSeed(mnemonicPhrase, passphrase), nil
}

// NewMnemonic generates a fresh mnemonic phrase from entropyBits of
// randomness (must be a multiple of 32, between 128 and 256).
func NewMnemonic(entropyBits int) (string, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}
