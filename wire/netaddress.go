// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
	"net"
	"time"
)

// NetAddress carries a peer's address and the services it advertises, as
// used in version, addr, and addrv2 messages.
type NetAddress struct {
	// Timestamp is when the address was last seen; zero inside a version
	// message, which omits the timestamp entirely. addr messages always
	// carry it, whatever the protocol version.
	Timestamp time.Time

	// Services lists the advertised service flags.
	Services ServiceFlag

	// IP is the 16-byte (v4-mapped or native v6) address.
	IP net.IP

	// Port is the peer's listening port, host byte order.
	Port uint16
}

func readNetAddress(r io.Reader, na *NetAddress, hasTimestamp bool) error {
	if hasTimestamp {
		secs, err := ReadUint32(r)
		if err != nil {
			return err
		}
		na.Timestamp = time.Unix(int64(secs), 0)
	}

	services, err := ReadUint64(r)
	if err != nil {
		return err
	}
	na.Services = ServiceFlag(services)

	var ip [16]byte
	if err := readElement(r, ip[:]); err != nil {
		return err
	}
	na.IP = net.IP(ip[:]).To16()

	// The port is transmitted in network byte order (big-endian) even
	// though every other multi-byte field on the wire is little-endian;
	// this is the one exception spec.md 4.1 flags.
	var portBytes [2]byte
	if err := readElement(r, portBytes[:]); err != nil {
		return err
	}
	na.Port = uint16(portBytes[0])<<8 | uint16(portBytes[1])
	return nil
}

func writeNetAddress(w io.Writer, na *NetAddress, hasTimestamp bool) error {
	if hasTimestamp {
		if err := WriteUint32(w, uint32(na.Timestamp.Unix())); err != nil {
			return err
		}
	}

	if err := WriteUint64(w, uint64(na.Services)); err != nil {
		return err
	}

	var ip [16]byte
	if v4 := na.IP.To4(); v4 != nil {
		copy(ip[:], net.IPv4(0, 0, 0, 0).To16()[:12])
		copy(ip[12:], v4)
	} else if v6 := na.IP.To16(); v6 != nil {
		copy(ip[:], v6)
	}
	if _, err := w.Write(ip[:]); err != nil {
		return err
	}

	portBytes := [2]byte{byte(na.Port >> 8), byte(na.Port)}
	_, err := w.Write(portBytes[:])
	return err
}
