// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/scrypt"

	"github.com/btcspv/node/txscript"
)

// ErrKeyEncrypted is returned when a signing operation needs a private
// scalar that is only available in encrypted form (spec.md 7,
// "KeyEncrypted").
var ErrKeyEncrypted = errors.New("private key is encrypted; supply a password")

// ScryptParams configures the key-derivation function that stretches a
// wallet password into an AES-256 key (spec.md 4.6, "Encryption").
type ScryptParams struct {
	N, R, P int
	Salt    []byte
}

// DefaultScryptParams mirrors the parameters production wallets in the
// pack (bchwallet, btcwallet-lineage repos) use for interactive unlock.
var DefaultScryptParams = ScryptParams{N: 1 << 18, R: 8, P: 1}

// Key is a single owned key-pair. The private scalar is either held in
// the clear (PrivKey) or, once the wallet is encrypted, only as
// EncryptedPrivKey; Decrypt must be called with the wallet's password to
// recover it transiently for signing.
type Key struct {
	PubKey  *btcec.PublicKey
	PrivKey *btcec.PrivateKey

	EncryptedPrivKey []byte // authenticated ciphertext, nil unless encrypted
	Created          time.Time
}

// NewKey generates a fresh secp256k1 key pair.
func NewKey() (*Key, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &Key{PrivKey: priv, PubKey: priv.PubKey(), Created: time.Now()}, nil
}

// Hash160 returns ripemd160(sha256(pubkey)), the payload of a P2PKH/P2WPKH
// script (spec.md 4.6, hash160 grounded on btcutil's convention).
func (k *Key) Hash160() []byte {
	return hash160(k.PubKey.SerializeCompressed())
}

// hash160 is the standard Bitcoin digest used to key a P2PKH/P2WPKH
// script and, indirectly, a P2PK output's owning key.
func hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// PayToPubKeyHashScript returns the standard P2PKH output script this key
// controls.
func (k *Key) PayToPubKeyHashScript() ([]byte, error) {
	return txscript.PayToPubKeyHashScript(k.Hash160())
}

// IsEncrypted reports whether the private scalar is only available in
// encrypted form.
func (k *Key) IsEncrypted() bool {
	return k.PrivKey == nil && k.EncryptedPrivKey != nil
}

// Encrypt replaces PrivKey's plaintext scalar with an authenticated
// ciphertext derived from password, per spec.md 4.6.
func (k *Key) Encrypt(password string, params ScryptParams) error {
	if k.PrivKey == nil {
		return errors.New("key has no plaintext private scalar to encrypt")
	}
	aead, err := newAEAD(password, params)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	ciphertext := aead.Seal(nonce, nonce, k.PrivKey.Serialize(), nil)
	k.EncryptedPrivKey = ciphertext
	k.PrivKey = nil
	return nil
}

// Decrypt recovers the plaintext private scalar transiently for a single
// signing call; the caller must not retain the returned key beyond the
// call (spec.md 4.6, "plaintext scalars must not outlive the signing
// call").
func (k *Key) Decrypt(password string, params ScryptParams) (*btcec.PrivateKey, error) {
	if !k.IsEncrypted() {
		if k.PrivKey != nil {
			return k.PrivKey, nil
		}
		return nil, ErrKeyEncrypted
	}
	if password == "" {
		return nil, ErrKeyEncrypted
	}
	aead, err := newAEAD(password, params)
	if err != nil {
		return nil, err
	}
	if len(k.EncryptedPrivKey) < aead.NonceSize() {
		return nil, errors.New("corrupt encrypted private key")
	}
	nonce := k.EncryptedPrivKey[:aead.NonceSize()]
	ciphertext := k.EncryptedPrivKey[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("incorrect wallet password")
	}
	priv, _ := btcec.PrivKeyFromBytes(plain)
	return priv, nil
}

func newAEAD(password string, params ScryptParams) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(password), params.Salt, params.N, params.R, params.P, 32)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// KeyBag holds every owned key, indexed by hash160 (for P2PKH/P2WPKH
// ownership lookups) and by raw serialized public key (for bare P2PK)
// for O(1) lookups during pool-transition evaluation.
type KeyBag struct {
	keys     map[string]*Key
	byPubKey map[string]*Key
}

// NewKeyBag returns an empty bag.
func NewKeyBag() *KeyBag {
	return &KeyBag{keys: make(map[string]*Key), byPubKey: make(map[string]*Key)}
}

// Add registers k, indexed by its hash160 and by both its compressed and
// uncompressed public key serializations (spec.md 3/4.6, pay-to-pubkey
// is a first-class signable output alongside P2PKH/P2WPKH).
func (kb *KeyBag) Add(k *Key) {
	kb.keys[string(k.Hash160())] = k
	kb.byPubKey[string(k.PubKey.SerializeCompressed())] = k
	kb.byPubKey[string(k.PubKey.SerializeUncompressed())] = k
}

// Lookup returns the key controlling hash160, if any.
func (kb *KeyBag) Lookup(hash160 []byte) (*Key, bool) {
	k, ok := kb.keys[string(hash160)]
	return k, ok
}

// LookupByPubKey returns the key whose serialized public key (compressed
// or uncompressed) equals pubKey, if any — the ownership test for a bare
// pay-to-pubkey output.
func (kb *KeyBag) LookupByPubKey(pubKey []byte) (*Key, bool) {
	k, ok := kb.byPubKey[string(pubKey)]
	return k, ok
}

// Keys returns every key in the bag.
func (kb *KeyBag) Keys() []*Key {
	out := make([]*Key, 0, len(kb.keys))
	for _, k := range kb.keys {
		out = append(out, k)
	}
	return out
}
