// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/btcspv/node/chainhash"
)

func TestMessageRoundTrip(t *testing.T) {
	msgs := []Message{
		&MsgVerAck{},
		&MsgPing{Nonce: 0xdeadbeef},
		&MsgPong{Nonce: 0xdeadbeef},
		&MsgMemPool{},
		&MsgFilterClear{},
		&MsgSendHeaders{},
		&MsgFeeFilter{MinFee: 5000},
		NewMsgInv(),
		NewMsgGetData(),
		&MsgNotFound{},
	}

	for _, m := range msgs {
		var buf bytes.Buffer
		require.NoError(t, WriteMessage(&buf, m, ProtocolVersion, MainNet))

		decoded, _, err := ReadMessage(bytes.NewReader(buf.Bytes()), ProtocolVersion, MainNet)
		require.NoError(t, err)
		require.Equal(t, m.Command(), decoded.Command())
	}
}

func TestChecksumMismatchDropsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &MsgPing{Nonce: 7}, ProtocolVersion, MainNet))
	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xff // flip a payload byte without touching framing

	_, _, err := ReadMessage(bytes.NewReader(corrupted), ProtocolVersion, MainNet)
	require.Error(t, err)
	var merr *MessageError
	require.ErrorAs(t, err, &merr)
	require.Equal(t, ErrChecksumMismatch, merr.Code)
}

func TestUnknownCommandIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint32(&buf, uint32(MainNet)))
	cmd, err := commandBytes("bogus")
	require.NoError(t, err)
	buf.Write(cmd[:])
	require.NoError(t, WriteUint32(&buf, 0))
	sum := checksum(nil)
	buf.Write(sum[:])

	_, _, err = ReadMessage(bytes.NewReader(buf.Bytes()), ProtocolVersion, MainNet)
	require.Error(t, err)
	var merr *MessageError
	require.ErrorAs(t, err, &merr)
	require.Equal(t, ErrUnknownCommand, merr.Code)
}

func TestBadMagicFailsStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &MsgVerAck{}, ProtocolVersion, TestNet))

	_, _, err := ReadMessage(bytes.NewReader(buf.Bytes()), ProtocolVersion, MainNet)
	require.Error(t, err)
	var merr *MessageError
	require.ErrorAs(t, err, &merr)
	require.Equal(t, ErrBadMagic, merr.Code)
}

func TestVarIntRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		val := rapid.Uint64().Draw(t, "val")
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, val))
		require.Equal(t, VarIntSerializeSize(val), buf.Len())

		got, err := ReadVarInt(bytes.NewReader(buf.Bytes()), true)
		require.NoError(t, err)
		require.Equal(t, val, got)
	})
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := &BlockHeader{
			Version:   rapid.Int32().Draw(t, "version"),
			Timestamp: time.Unix(rapid.Int64Range(0, 4000000000).Draw(t, "ts"), 0),
			Bits:      rapid.Uint32().Draw(t, "bits"),
			Nonce:     rapid.Uint32().Draw(t, "nonce"),
		}
		copy(h.PrevBlock[:], rapid.SliceOfN(rapid.Byte(), chainhash.HashSize, chainhash.HashSize).Draw(t, "prev"))
		copy(h.MerkleRoot[:], rapid.SliceOfN(rapid.Byte(), chainhash.HashSize, chainhash.HashSize).Draw(t, "root"))

		var buf bytes.Buffer
		require.NoError(t, h.Serialize(&buf))
		require.Equal(t, BlockHeaderLen, buf.Len())

		var got BlockHeader
		require.NoError(t, got.Deserialize(bytes.NewReader(buf.Bytes())))
		require.Equal(t, h.Version, got.Version)
		require.Equal(t, h.PrevBlock, got.PrevBlock)
		require.Equal(t, h.MerkleRoot, got.MerkleRoot)
		require.Equal(t, h.Timestamp.Unix(), got.Timestamp.Unix())
		require.Equal(t, h.Bits, got.Bits)
		require.Equal(t, h.Nonce, got.Nonce)
	})
}

func TestMsgTxRoundTrip(t *testing.T) {
	tx := &MsgTx{
		Version: 1,
		TxIn: []*TxIn{{
			PreviousOutPoint: OutPoint{Index: 0},
			SignatureScript:  []byte{0x01, 0x02},
			Sequence:         MaxTxInSequenceNum,
		}},
		TxOut: []*TxOut{{
			Value:    5000000000,
			PkScript: []byte{0x76, 0xa9},
		}},
		LockTime: 0,
	}

	var buf bytes.Buffer
	require.NoError(t, tx.BtcEncode(&buf, ProtocolVersion))

	var got MsgTx
	require.NoError(t, got.BtcDecode(bytes.NewReader(buf.Bytes()), ProtocolVersion))
	require.Equal(t, tx.TxHash(), got.TxHash())
	require.False(t, got.HasWitness())
}

func TestMsgTxWitnessRoundTrip(t *testing.T) {
	tx := &MsgTx{
		Version: 2,
		TxIn: []*TxIn{{
			PreviousOutPoint: OutPoint{Index: 1},
			Sequence:         MaxTxInSequenceNum,
			Witness:          [][]byte{{0xaa, 0xbb}, {0xcc}},
		}},
		TxOut: []*TxOut{{Value: 1000, PkScript: []byte{0x00, 0x14}}},
	}

	var buf bytes.Buffer
	require.NoError(t, tx.BtcEncode(&buf, ProtocolVersion))

	var got MsgTx
	require.NoError(t, got.BtcDecode(bytes.NewReader(buf.Bytes()), ProtocolVersion))
	require.True(t, got.HasWitness())
	require.Equal(t, tx.TxHash(), got.TxHash())
	require.NotEqual(t, tx.TxHash(), tx.WitnessHash())
}
