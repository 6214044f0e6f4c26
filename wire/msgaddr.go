// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// maxAddrPerMsg bounds an addr message's address count.
const maxAddrPerMsg = 1000

// MsgAddr carries a list of known peer addresses, used both to answer a
// getaddr-style request and to gossip freshly-seen addresses.
type MsgAddr struct {
	AddrList []*NetAddress
}

func (msg *MsgAddr) Command() string { return CmdAddr }

func (msg *MsgAddr) BtcDecode(r io.Reader, pver uint32) error {
	count, err := ReadVarInt(r, false)
	if err != nil {
		return err
	}
	if count > maxAddrPerMsg {
		return messageErrorf(ErrMessageTooLarge, "addr count %d exceeds max %d", count, maxAddrPerMsg)
	}

	addrs := make([]*NetAddress, count)
	for i := range addrs {
		na := &NetAddress{}
		if err := readNetAddress(r, na, true); err != nil {
			return err
		}
		addrs[i] = na
	}
	msg.AddrList = addrs
	return nil
}

func (msg *MsgAddr) BtcEncode(w io.Writer, pver uint32) error {
	if len(msg.AddrList) > maxAddrPerMsg {
		return messageErrorf(ErrMessageTooLarge, "addr count %d exceeds max %d", len(msg.AddrList), maxAddrPerMsg)
	}
	if err := WriteVarInt(w, uint64(len(msg.AddrList))); err != nil {
		return err
	}
	for _, na := range msg.AddrList {
		if err := writeNetAddress(w, na, true); err != nil {
			return err
		}
	}
	return nil
}

// AddAddress appends na to the address list.
func (msg *MsgAddr) AddAddress(na *NetAddress) error {
	if len(msg.AddrList)+1 > maxAddrPerMsg {
		return messageErrorf(ErrMessageTooLarge, "addr message already at max %d", maxAddrPerMsg)
	}
	msg.AddrList = append(msg.AddrList, na)
	return nil
}

// NewMsgAddr returns a new, empty MsgAddr.
func NewMsgAddr() *MsgAddr { return &MsgAddr{} }
