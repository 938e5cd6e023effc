// Package netx holds small helpers for UDP endpoints.
package netx

import (
	"fmt"
	"net"
	"net/netip"
)

// ResolveUDP resolves a "host:port" string (host names allowed) into an
// AddrPort suitable for WriteToUDPAddrPort.
func ResolveUDP(addr string) (netip.AddrPort, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("resolve %s: %w", addr, err)
	}
	return Canonical(ua.AddrPort()), nil
}

// Canonical unmaps IPv4-mapped IPv6 addresses, so a client seen through a
// dual-stack socket is recorded as 127.0.0.1:port rather than [::ffff:127.0.0.1]:port.
// Use it for display and persistence, not for replying on the same socket.
func Canonical(ap netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// FormatEndpoint renders ap in canonical form, or "-" for the zero value.
func FormatEndpoint(ap netip.AddrPort) string {
	if !ap.IsValid() {
		return "-"
	}
	return Canonical(ap).String()
}
