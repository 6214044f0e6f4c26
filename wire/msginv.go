// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgInv announces objects the sender has available.
type MsgInv struct {
	InvList []*InvVect
}

func (msg *MsgInv) Command() string { return CmdInv }

func (msg *MsgInv) BtcDecode(r io.Reader, pver uint32) error {
	list, err := readInvList(r)
	if err != nil {
		return err
	}
	msg.InvList = list
	return nil
}

func (msg *MsgInv) BtcEncode(w io.Writer, pver uint32) error {
	return writeInvList(w, msg.InvList)
}

// AddInvVect appends iv to the inventory list.
func (msg *MsgInv) AddInvVect(iv *InvVect) {
	msg.InvList = append(msg.InvList, iv)
}

// NewMsgInv returns a new, empty MsgInv.
func NewMsgInv() *MsgInv { return &MsgInv{} }
