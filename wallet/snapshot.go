// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/golang/snappy"

	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/wire"
)

// maxKeyPayload bounds a single encoded private-key record: an
// unencrypted scalar is 32 bytes, an encrypted one carries the AES-GCM
// nonce and tag overhead on top; 512 bytes is generous headroom.
const maxKeyPayload = 512

// Snapshot record tags, per spec.md 6's on-disk schema. Tags at or above
// tagMandatoryThreshold are mandatory: a reader that does not recognize
// one must fail rather than silently drop data (spec.md 7,
// "unreadable-on-unknown-mandatory").
type snapshotTag uint8

const (
	tagNetworkID snapshotTag = iota
	tagKey
	tagTransaction
	tagWatchedScript

	tagMandatoryThreshold snapshotTag = 0x80
	tagExtension          snapshotTag = 0x80
)

// ErrUnknownMandatoryRecord is returned by Load when the snapshot
// contains a mandatory record tag this version does not understand.
var ErrUnknownMandatoryRecord = errors.New("wallet snapshot contains an unrecognized mandatory record")

// Save atomically rewrites path with the wallet's current state: a
// snappy-block-compressed TLV stream, written to a temp file in the same
// directory and renamed over path so a crash mid-write cannot corrupt the
// existing snapshot (spec.md 6).
func (w *Wallet) Save(path string) error {
	w.mu.Lock()
	var buf bytes.Buffer
	if err := w.encodeLocked(&buf); err != nil {
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	compressed := snappy.Encode(nil, buf.Bytes())

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".wallet-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func (w *Wallet) encodeLocked(buf *bytes.Buffer) error {
	for _, k := range w.keys.Keys() {
		if err := writeRecord(buf, tagKey, encodeKey(k)); err != nil {
			return err
		}
	}
	for script := range w.watchedScripts {
		if err := writeRecord(buf, tagWatchedScript, []byte(script)); err != nil {
			return err
		}
	}
	for _, entry := range w.txs {
		payload, err := encodeTxEntry(entry)
		if err != nil {
			return err
		}
		if err := writeRecord(buf, tagTransaction, payload); err != nil {
			return err
		}
	}
	return nil
}

// Load replaces w's in-memory state with the snapshot at path.
func (w *Wallet) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	plain, err := snappy.Decode(nil, raw)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.keys = NewKeyBag()
	w.watchedScripts = make(map[string]bool)
	w.txs = make(map[chainhash.Hash]*TxEntry)

	r := bytes.NewReader(plain)
	for {
		tag, payload, err := readRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch tag {
		case tagKey:
			k, err := decodeKey(payload)
			if err != nil {
				return err
			}
			w.keys.Add(k)
		case tagWatchedScript:
			w.watchedScripts[string(payload)] = true
		case tagTransaction:
			entry, err := decodeTxEntry(payload)
			if err != nil {
				return err
			}
			w.txs[entry.Hash] = entry
		default:
			if tag >= tagMandatoryThreshold {
				return fmt.Errorf("%w: tag 0x%02x", ErrUnknownMandatoryRecord, tag)
			}
			// unknown optional extension: skip
		}
	}
	return nil
}

func writeRecord(w io.Writer, tag snapshotTag, payload []byte) error {
	var header [5]byte
	header[0] = byte(tag)
	binary.LittleEndian.PutUint32(header[1:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readRecord(r io.Reader) (snapshotTag, []byte, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, errors.New("wallet snapshot: truncated record header")
		}
		return 0, nil, err
	}
	length := binary.LittleEndian.Uint32(header[1:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("wallet snapshot: truncated record payload: %w", err)
	}
	return snapshotTag(header[0]), payload, nil
}

// encodeKey writes a key record as encryption flag + public point +
// private scalar (plaintext or encrypted) + creation-timestamp, per
// spec.md 6's on-disk schema.
// The public point is always recorded so an encrypted key can still be
// indexed (Hash160, P2PK ownership) without its private scalar.
func encodeKey(k *Key) []byte {
	var buf bytes.Buffer
	if k.IsEncrypted() {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	_ = wire.WriteVarBytes(&buf, k.PubKey.SerializeCompressed())
	if k.IsEncrypted() {
		_ = wire.WriteVarBytes(&buf, k.EncryptedPrivKey)
	} else {
		_ = wire.WriteVarBytes(&buf, k.PrivKey.Serialize())
	}
	var createdBuf [8]byte
	binary.LittleEndian.PutUint64(createdBuf[:], uint64(k.Created.Unix()))
	buf.Write(createdBuf[:])
	return buf.Bytes()
}

func decodeKey(payload []byte) (*Key, error) {
	r := bytes.NewReader(payload)
	var encFlag [1]byte
	if _, err := io.ReadFull(r, encFlag[:]); err != nil {
		return nil, err
	}
	pubBytes, err := wire.ReadVarBytes(r, maxKeyPayload, "wallet key pubkey")
	if err != nil {
		return nil, err
	}
	pub, err := btcec.ParsePubKey(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("wallet snapshot: invalid key public point: %w", err)
	}
	data, err := wire.ReadVarBytes(r, maxKeyPayload, "wallet key scalar")
	if err != nil {
		return nil, err
	}
	var createdBuf [8]byte
	if _, err := io.ReadFull(r, createdBuf[:]); err != nil {
		return nil, fmt.Errorf("wallet snapshot: truncated key creation timestamp: %w", err)
	}
	created := time.Unix(int64(binary.LittleEndian.Uint64(createdBuf[:])), 0)

	if encFlag[0] == 1 {
		return &Key{PubKey: pub, EncryptedPrivKey: data, Created: created}, nil
	}
	priv, derivedPub := btcec.PrivKeyFromBytes(data)
	return &Key{PrivKey: priv, PubKey: derivedPub, Created: created}, nil
}

func encodeTxEntry(e *TxEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(e.Pool))
	buf.WriteByte(byte(e.Confidence.State))
	var heightBuf [4]byte
	binary.LittleEndian.PutUint32(heightBuf[:], uint32(e.Confidence.Height))
	buf.Write(heightBuf[:])
	if err := e.Tx.BtcEncode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTxEntry(payload []byte) (*TxEntry, error) {
	r := bytes.NewReader(payload)
	var head [6]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	tx := &wire.MsgTx{}
	if err := tx.BtcDecode(r, 0); err != nil {
		return nil, err
	}
	return &TxEntry{
		Tx:         tx,
		Hash:       tx.TxHash(),
		Pool:       Pool(head[0]),
		Confidence: Confidence{State: ConfidenceState(head[1]), Height: int32(binary.LittleEndian.Uint32(head[2:6]))},
	}, nil
}
