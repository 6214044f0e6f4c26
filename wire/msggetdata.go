// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgGetData requests the objects named by its inventory list.
type MsgGetData struct {
	InvList []*InvVect
}

func (msg *MsgGetData) Command() string { return CmdGetData }

func (msg *MsgGetData) BtcDecode(r io.Reader, pver uint32) error {
	list, err := readInvList(r)
	if err != nil {
		return err
	}
	msg.InvList = list
	return nil
}

func (msg *MsgGetData) BtcEncode(w io.Writer, pver uint32) error {
	return writeInvList(w, msg.InvList)
}

// AddInvVect appends iv to the request list.
func (msg *MsgGetData) AddInvVect(iv *InvVect) {
	msg.InvList = append(msg.InvList, iv)
}

// NewMsgGetData returns a new, empty MsgGetData.
func NewMsgGetData() *MsgGetData { return &MsgGetData{} }
