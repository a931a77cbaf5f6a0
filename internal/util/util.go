// Package util collects the small, dependency-free helpers shared by the
// swarm registry and the tracker message codecs: hex peer-id rendering and
// IPv4 packing for the compact/UDP peer wire formats.
package util

import (
	"encoding/hex"
	"fmt"
	"net"
)

// HexPeerID renders a raw 20-byte peer id as canonical lowercase hex. It is
// a pure function of id -- the same bytes always produce the same string,
// which is what lets it serve as a swarm's map key.
func HexPeerID(id [20]byte) string {
	return hex.EncodeToString(id[:])
}

// PackIPv4Port packs an IPv4 address and port into the 6-byte compact/UDP
// tuple (4 bytes big-endian address, 2 bytes big-endian port).
func PackIPv4Port(ip net.IP, port uint16) ([6]byte, error) {
	v4 := ip.To4()
	if v4 == nil {
		return [6]byte{}, fmt.Errorf("util: %s is not an IPv4 address", ip)
	}
	var out [6]byte
	copy(out[:4], v4)
	out[4] = byte(port >> 8)
	out[5] = byte(port)
	return out, nil
}

// UnpackIPv4Port reverses PackIPv4Port.
func UnpackIPv4Port(tuple [6]byte) (net.IP, uint16) {
	ip := net.IPv4(tuple[0], tuple[1], tuple[2], tuple[3])
	port := uint16(tuple[4])<<8 | uint16(tuple[5])
	return ip, port
}
