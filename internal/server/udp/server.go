package udp

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/netip"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/netx"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"golang.org/x/sync/semaphore"
)

const DefaultBufferSize = 8192

type Server struct {
	address        string
	handler        Handler
	logger         logging.Logger
	bufferSize     int
	maxInFlight    int64
	handlerTimeout time.Duration
	received       metrics.Counter

	ready chan struct{}
	addr  netip.AddrPort
}

type Option func(*Server)

// WithBufferSize sets the receive buffer. Longer datagrams are truncated.
func WithBufferSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithMaxInFlight bounds concurrently running handlers. When the bound is
// reached the read loop waits for a free slot; nothing is dropped by the
// server itself. Zero means unbounded.
func WithMaxInFlight(n int64) Option {
	return func(s *Server) { s.maxInFlight = n }
}

// WithHandlerTimeout caps the context of every handler. Zero disables it.
func WithHandlerTimeout(d time.Duration) Option {
	return func(s *Server) { s.handlerTimeout = d }
}

// WithReceivedCounter counts every datagram read from the socket.
func WithReceivedCounter(c metrics.Counter) Option {
	return func(s *Server) { s.received = c }
}

func NewServer(address string, h Handler, l logging.Logger, opts ...Option) *Server {
	s := &Server{
		address:    address,
		handler:    h,
		logger:     l.With("module", "udp_server"),
		bufferSize: DefaultBufferSize,
		received:   discard.NewCounter(),
		ready:      make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ready is closed once the socket is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// LocalAddr returns the bound address. Valid after Ready is closed.
func (s *Server) LocalAddr() netip.AddrPort { return s.addr }

// Run binds the socket and serves until ctx is cancelled. Bind errors are
// returned; on cancellation Run stops reading, waits for in-flight handlers
// and returns nil.
func (s *Server) Run(ctx context.Context) error {
	laddr, err := net.ResolveUDPAddr("udp", s.address)
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.addr = netx.Canonical(conn.LocalAddr().(*net.UDPAddr).AddrPort())
	close(s.ready)

	stop := context.AfterFunc(ctx, func() {
		s.logger.Info(ctx, "Stopping UDP server...")
		// unblocks ReadFromUDPAddrPort; the socket stays open for replies
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	s.logger.Info(ctx, "Starting UDP server", "address", s.addr.String())

	var sem *semaphore.Weighted
	if s.maxInFlight > 0 {
		sem = semaphore.NewWeighted(s.maxInFlight)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	sender := connSender{conn: conn}
	buf := make([]byte, s.bufferSize)

	for {
		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn(ctx, "receive failed", "error", err)
			continue
		}
		s.received.Add(1)

		p := Packet{From: from, Payload: bytes.Clone(buf[:n])}

		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				s.logger.Warn(ctx, "datagram not served, shutting down", "from", netx.FormatEndpoint(from))
				return nil
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				defer sem.Release(1)
			}
			s.serve(ctx, sender, p)
		}()
	}
}

func (s *Server) serve(ctx context.Context, w Sender, p Packet) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "handler panic",
				"from", netx.FormatEndpoint(p.From),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	// in-flight handlers finish even after shutdown starts
	hctx := context.WithoutCancel(ctx)
	if s.handlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(hctx, s.handlerTimeout)
		defer cancel()
	}

	s.handler.ServeDatagram(hctx, w, p)
}
