// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"

	"github.com/btcspv/node/chainhash"
)

// CommandSize is the fixed width, in bytes, of a message's command field.
const CommandSize = 12

// MessageHeaderSize is magic(4) + command(12) + length(4) + checksum(4).
const MessageHeaderSize = 4 + CommandSize + 4 + 4

// Message command strings. The catalog spec.md 4.1 requires round-trip for.
const (
	CmdVersion     = "version"
	CmdVerAck      = "verack"
	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdAddr        = "addr"
	CmdAddrV2      = "addrv2"
	CmdInv         = "inv"
	CmdGetData     = "getdata"
	CmdNotFound    = "notfound"
	CmdGetHeaders  = "getheaders"
	CmdHeaders     = "headers"
	CmdGetBlocks   = "getblocks"
	CmdBlock       = "block"
	CmdTx          = "tx"
	CmdMemPool     = "mempool"
	CmdFilterLoad  = "filterload"
	CmdFilterAdd   = "filteradd"
	CmdFilterClear = "filterclear"
	CmdMerkleBlock = "merkleblock"
	CmdReject      = "reject"
	CmdSendHeaders = "sendheaders"
	CmdFeeFilter   = "feefilter"
)

// Message is implemented by every P2P message type in the catalog.
type Message interface {
	// Command returns the wire command string for the message.
	Command() string

	// BtcDecode reads the payload-only encoding of the message from r.
	BtcDecode(r io.Reader, pver uint32) error

	// BtcEncode writes the payload-only encoding of the message to w.
	BtcEncode(w io.Writer, pver uint32) error
}

// makeEmptyMessage returns a zero-value Message for the given command, or
// an error if the command is not in the catalog. Unknown commands are the
// upper layer's concern (spec.md 4.1: "unknown commands parse to an opaque
// payload and are dropped by upper layers"), so this factory only knows
// about the twenty-two catalog messages.
func makeEmptyMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdPing:
		return &MsgPing{}, nil
	case CmdPong:
		return &MsgPong{}, nil
	case CmdAddr:
		return &MsgAddr{}, nil
	case CmdAddrV2:
		return &MsgAddrV2{}, nil
	case CmdInv:
		return &MsgInv{}, nil
	case CmdGetData:
		return &MsgGetData{}, nil
	case CmdNotFound:
		return &MsgNotFound{}, nil
	case CmdGetHeaders:
		return &MsgGetHeaders{}, nil
	case CmdHeaders:
		return &MsgHeaders{}, nil
	case CmdGetBlocks:
		return &MsgGetBlocks{}, nil
	case CmdBlock:
		return &MsgBlock{}, nil
	case CmdTx:
		return &MsgTx{}, nil
	case CmdMemPool:
		return &MsgMemPool{}, nil
	case CmdFilterLoad:
		return &MsgFilterLoad{}, nil
	case CmdFilterAdd:
		return &MsgFilterAdd{}, nil
	case CmdFilterClear:
		return &MsgFilterClear{}, nil
	case CmdMerkleBlock:
		return &MsgMerkleBlock{}, nil
	case CmdReject:
		return &MsgReject{}, nil
	case CmdSendHeaders:
		return &MsgSendHeaders{}, nil
	case CmdFeeFilter:
		return &MsgFeeFilter{}, nil
	default:
		return nil, messageErrorf(ErrUnknownCommand, "unhandled command %q", command)
	}
}

func commandBytes(command string) ([CommandSize]byte, error) {
	var b [CommandSize]byte
	if len(command) > CommandSize {
		return b, messageErrorf(ErrTruncated, "command %q exceeds %d bytes", command, CommandSize)
	}
	copy(b[:], command)
	return b, nil
}

// checksum returns the first four bytes of the double-SHA256 of payload.
func checksum(payload []byte) [4]byte {
	h := chainhash.HashB(payload)
	var c [4]byte
	copy(c[:], h[:4])
	return c
}

// WriteMessage serializes msg with the magic/command/length/checksum
// framing described in spec.md 4.1 and writes it to w.
func WriteMessage(w io.Writer, msg Message, pver uint32, net BitcoinNet) error {
	var payload bytes.Buffer
	if err := msg.BtcEncode(&payload, pver); err != nil {
		return err
	}
	payloadBytes := payload.Bytes()

	if len(payloadBytes) > MaxMessagePayload {
		return messageErrorf(ErrMessageTooLarge,
			"message payload of %d bytes exceeds max of %d", len(payloadBytes), MaxMessagePayload)
	}

	cmdBytes, err := commandBytes(msg.Command())
	if err != nil {
		return err
	}

	if err := WriteUint32(w, uint32(net)); err != nil {
		return err
	}
	if _, err := w.Write(cmdBytes[:]); err != nil {
		return err
	}
	if err := WriteUint32(w, uint32(len(payloadBytes))); err != nil {
		return err
	}
	sum := checksum(payloadBytes)
	if _, err := w.Write(sum[:]); err != nil {
		return err
	}
	_, err = w.Write(payloadBytes)
	return err
}

// messageHeader is the decoded framing prefix of a message.
type messageHeader struct {
	magic    BitcoinNet
	command  string
	length   uint32
	checksum [4]byte
}

func readMessageHeader(r io.Reader) (*messageHeader, error) {
	var hdr messageHeader

	magic, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	hdr.magic = BitcoinNet(magic)

	var cmdBytes [CommandSize]byte
	if err := readElement(r, cmdBytes[:]); err != nil {
		return nil, err
	}
	// Strip the null padding.
	end := bytes.IndexByte(cmdBytes[:], 0)
	if end == -1 {
		end = CommandSize
	}
	hdr.command = string(cmdBytes[:end])

	length, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	hdr.length = length

	if err := readElement(r, hdr.checksum[:]); err != nil {
		return nil, err
	}
	return &hdr, nil
}

// ReadMessage reads and decodes a single message from r, enforcing the
// framing and checksum rules of spec.md 4.1. Unknown commands and checksum
// mismatches are reported via the returned error but the caller should
// treat them as non-fatal (drop and continue reading the next message);
// only a Truncated error reading the fixed framing itself should be
// treated as fatal to the stream, per spec.md 7.
func ReadMessage(r io.Reader, pver uint32, net BitcoinNet) (Message, []byte, error) {
	hdr, err := readMessageHeader(r)
	if err != nil {
		return nil, nil, err
	}

	if hdr.magic != net {
		return nil, nil, messageErrorf(ErrBadMagic,
			"message magic 0x%08x does not match network %s", uint32(hdr.magic), net)
	}

	if hdr.length > MaxMessagePayload {
		return nil, nil, messageErrorf(ErrMessageTooLarge,
			"declared payload length %d exceeds max of %d", hdr.length, MaxMessagePayload)
	}

	payload := make([]byte, hdr.length)
	if err := readElement(r, payload); err != nil {
		return nil, nil, err
	}

	gotChecksum := checksum(payload)
	if gotChecksum != hdr.checksum {
		return nil, payload, messageErrorf(ErrChecksumMismatch,
			"checksum mismatch on %q: declared %x, computed %x", hdr.command, hdr.checksum, gotChecksum)
	}

	msg, err := makeEmptyMessage(hdr.command)
	if err != nil {
		// Unknown command: not fatal, caller drops it.
		return nil, payload, err
	}

	if err := msg.BtcDecode(bytes.NewReader(payload), pver); err != nil {
		return nil, payload, err
	}
	return msg, payload, nil
}
