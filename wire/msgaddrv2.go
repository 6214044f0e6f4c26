// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
	"time"
)

// AddrV2NetID identifies the address family of an addrv2 entry (BIP0155).
type AddrV2NetID uint8

const (
	AddrV2NetIPv4 AddrV2NetID = 1
	AddrV2NetIPv6 AddrV2NetID = 2
	AddrV2NetTorV3 AddrV2NetID = 4
	AddrV2NetI2P  AddrV2NetID = 5
	AddrV2NetCJDNS AddrV2NetID = 6
)

// addrV2AddressLen gives the fixed address length for each recognized net
// id; an unrecognized net id's address is still read (as an opaque blob)
// using its declared length so the stream stays in sync.
var addrV2AddressLen = map[AddrV2NetID]int{
	AddrV2NetIPv4:  4,
	AddrV2NetIPv6:  16,
	AddrV2NetTorV3: 32,
	AddrV2NetI2P:   32,
	AddrV2NetCJDNS: 16,
}

// AddrV2Entry is one entry of an addrv2 message: a timestamp, service
// flags, an address-family tagged address, and a port.
type AddrV2Entry struct {
	Timestamp time.Time
	Services  ServiceFlag
	NetID     AddrV2NetID
	Addr      []byte
	Port      uint16
}

// MsgAddrV2 is the BIP0155 successor to addr, adding support for address
// families beyond IPv4/IPv6 (Tor v3, I2P, CJDNS).
type MsgAddrV2 struct {
	AddrList []*AddrV2Entry
}

func (msg *MsgAddrV2) Command() string { return CmdAddrV2 }

func (msg *MsgAddrV2) BtcDecode(r io.Reader, pver uint32) error {
	count, err := ReadVarInt(r, false)
	if err != nil {
		return err
	}
	if count > maxAddrPerMsg {
		return messageErrorf(ErrMessageTooLarge, "addrv2 count %d exceeds max %d", count, maxAddrPerMsg)
	}

	entries := make([]*AddrV2Entry, count)
	for i := range entries {
		e := &AddrV2Entry{}

		secs, err := ReadUint32(r)
		if err != nil {
			return err
		}
		e.Timestamp = time.Unix(int64(secs), 0)

		services, err := ReadVarInt(r, false)
		if err != nil {
			return err
		}
		e.Services = ServiceFlag(services)

		netID, err := ReadUint8(r)
		if err != nil {
			return err
		}
		e.NetID = AddrV2NetID(netID)

		addr, err := ReadVarBytes(r, 512, "addrv2 address")
		if err != nil {
			return err
		}
		e.Addr = addr

		port, err := ReadUint16(r)
		if err != nil {
			return err
		}
		e.Port = port

		entries[i] = e
	}
	msg.AddrList = entries
	return nil
}

func (msg *MsgAddrV2) BtcEncode(w io.Writer, pver uint32) error {
	if err := WriteVarInt(w, uint64(len(msg.AddrList))); err != nil {
		return err
	}
	for _, e := range msg.AddrList {
		if err := WriteUint32(w, uint32(e.Timestamp.Unix())); err != nil {
			return err
		}
		if err := WriteVarInt(w, uint64(e.Services)); err != nil {
			return err
		}
		if err := WriteUint8(w, uint8(e.NetID)); err != nil {
			return err
		}
		if err := WriteVarBytes(w, e.Addr); err != nil {
			return err
		}
		if err := WriteUint16(w, e.Port); err != nil {
			return err
		}
	}
	return nil
}
