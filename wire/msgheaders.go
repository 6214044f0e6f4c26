// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MaxHeadersPerMsg is the maximum number of headers a single headers
// message carries; a full response of this size signals the requester to
// send another getheaders (spec.md 4.4).
const MaxHeadersPerMsg = 2000

// MsgHeaders answers a getheaders request with a batch of block headers.
// Each header is followed by a transaction-count varint which is always
// zero on the wire (headers never carry transactions) but is still
// present for historical reasons and must round-trip.
type MsgHeaders struct {
	Headers []*BlockHeader
}

func (msg *MsgHeaders) Command() string { return CmdHeaders }

func (msg *MsgHeaders) BtcDecode(r io.Reader, pver uint32) error {
	count, err := ReadVarInt(r, false)
	if err != nil {
		return err
	}
	if count > MaxHeadersPerMsg {
		return messageErrorf(ErrMessageTooLarge, "headers count %d exceeds max %d", count, MaxHeadersPerMsg)
	}

	headers := make([]*BlockHeader, count)
	for i := range headers {
		h := &BlockHeader{}
		if err := h.Deserialize(r); err != nil {
			return err
		}
		txCount, err := ReadVarInt(r, false)
		if err != nil {
			return err
		}
		if txCount != 0 {
			return messageErrorf(ErrTruncated, "headers message entry declared %d transactions", txCount)
		}
		headers[i] = h
	}
	msg.Headers = headers
	return nil
}

func (msg *MsgHeaders) BtcEncode(w io.Writer, pver uint32) error {
	if len(msg.Headers) > MaxHeadersPerMsg {
		return messageErrorf(ErrMessageTooLarge, "headers count %d exceeds max %d", len(msg.Headers), MaxHeadersPerMsg)
	}
	if err := WriteVarInt(w, uint64(len(msg.Headers))); err != nil {
		return err
	}
	for _, h := range msg.Headers {
		if err := h.Serialize(w); err != nil {
			return err
		}
		if err := WriteVarInt(w, 0); err != nil {
			return err
		}
	}
	return nil
}

// AddBlockHeader appends h to the batch.
func (msg *MsgHeaders) AddBlockHeader(h *BlockHeader) error {
	if len(msg.Headers)+1 > MaxHeadersPerMsg {
		return messageErrorf(ErrMessageTooLarge, "headers message already at max %d", MaxHeadersPerMsg)
	}
	msg.Headers = append(msg.Headers, h)
	return nil
}

// NewMsgHeaders returns a new, empty MsgHeaders.
func NewMsgHeaders() *MsgHeaders { return &MsgHeaders{} }
