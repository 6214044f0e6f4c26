// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgNotFound is sent in reply to a getdata request for an object the
// sender does not have.
type MsgNotFound struct {
	InvList []*InvVect
}

func (msg *MsgNotFound) Command() string { return CmdNotFound }

func (msg *MsgNotFound) BtcDecode(r io.Reader, pver uint32) error {
	list, err := readInvList(r)
	if err != nil {
		return err
	}
	msg.InvList = list
	return nil
}

func (msg *MsgNotFound) BtcEncode(w io.Writer, pver uint32) error {
	return writeInvList(w, msg.InvList)
}
