// Package udp runs the datagram listener: one socket, one blocking read loop
// and one goroutine per received datagram.
package udp

import (
	"context"
	"net"
	"net/netip"
)

// Packet is one received datagram. Payload is owned by the handler.
type Packet struct {
	From    netip.AddrPort
	Payload []byte
}

// Sender writes a single datagram.
type Sender interface {
	Send(ctx context.Context, to netip.AddrPort, payload []byte) error
}

// Handler processes one datagram. Replies go through w.
type Handler interface {
	ServeDatagram(ctx context.Context, w Sender, p Packet)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, w Sender, p Packet)

func (f HandlerFunc) ServeDatagram(ctx context.Context, w Sender, p Packet) { f(ctx, w, p) }

type connSender struct {
	conn *net.UDPConn
}

func (s connSender) Send(ctx context.Context, to netip.AddrPort, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.conn.WriteToUDPAddrPort(payload, to)
	return err
}
