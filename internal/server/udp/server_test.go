package udp

import (
	"context"
	"net"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func echo() Handler {
	return HandlerFunc(func(ctx context.Context, w Sender, p Packet) {
		_ = w.Send(ctx, p.From, append([]byte("echo "), p.Payload...))
	})
}

// startServer runs s until the test ends and returns a channel with Run's
// result.
func startServer(t *testing.T, s *Server) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-s.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("server exited before binding: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("server did not bind")
	}
	t.Cleanup(cancel)
	return cancel, done
}

func dial(t *testing.T, s *Server) *net.UDPConn {
	t.Helper()
	conn, err := net.DialUDP("udp", nil, net.UDPAddrFromAddrPort(s.LocalAddr()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readLine(t *testing.T, conn *net.UDPConn) string {
	t.Helper()
	buf := make([]byte, 2048)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestRun_RepliesToObservedSource(t *testing.T) {
	s := NewServer("127.0.0.1:0", echo(), nopLogger{})
	startServer(t, s)

	conn := dial(t, s)
	_, err := conn.Write([]byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, "echo hello", readLine(t, conn))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", echo(), nopLogger{})
	cancel, done := startServer(t, s)

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewServer("127.0.0.1:99999", echo(), nopLogger{})
	require.Error(t, s.Run(context.Background()))
}

func TestRun_ReturnsErrorWhenPortTaken(t *testing.T) {
	first := NewServer("127.0.0.1:0", echo(), nopLogger{})
	startServer(t, first)

	second := NewServer(first.LocalAddr().String(), echo(), nopLogger{})
	require.Error(t, second.Run(context.Background()))
}

func TestRun_SurvivesHandlerPanic(t *testing.T) {
	h := HandlerFunc(func(ctx context.Context, w Sender, p Packet) {
		if string(p.Payload) == "boom" {
			panic("boom")
		}
		_ = w.Send(ctx, p.From, []byte("ok"))
	})
	s := NewServer("127.0.0.1:0", h, nopLogger{})
	startServer(t, s)

	conn := dial(t, s)
	_, err := conn.Write([]byte("boom"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("fine"))
	require.NoError(t, err)

	assert.Equal(t, "ok", readLine(t, conn))
}

func TestRun_SlowHandlerDoesNotBlockIntake(t *testing.T) {
	release := make(chan struct{})
	h := HandlerFunc(func(ctx context.Context, w Sender, p Packet) {
		if string(p.Payload) == "slow" {
			<-release
		}
		_ = w.Send(ctx, p.From, p.Payload)
	})
	s := NewServer("127.0.0.1:0", h, nopLogger{})
	startServer(t, s)
	defer close(release)

	conn := dial(t, s)
	_, err := conn.Write([]byte("slow"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("fast"))
	require.NoError(t, err)

	assert.Equal(t, "fast", readLine(t, conn))
}

func TestRun_BoundedInFlightServesEveryDatagram(t *testing.T) {
	var running, peak atomic.Int32
	h := HandlerFunc(func(ctx context.Context, w Sender, p Packet) {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		_ = w.Send(ctx, p.From, p.Payload)
	})
	s := NewServer("127.0.0.1:0", h, nopLogger{}, WithMaxInFlight(2))
	startServer(t, s)

	conn := dial(t, s)
	const n = 8
	for range n {
		_, err := conn.Write([]byte("x"))
		require.NoError(t, err)
	}
	for range n {
		assert.Equal(t, "x", readLine(t, conn))
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_HandlerTimeout(t *testing.T) {
	h := HandlerFunc(func(ctx context.Context, w Sender, p Packet) {
		<-ctx.Done()
		_ = w.Send(context.Background(), p.From, []byte(ctx.Err().Error()))
	})
	s := NewServer("127.0.0.1:0", h, nopLogger{}, WithHandlerTimeout(50*time.Millisecond))
	startServer(t, s)

	conn := dial(t, s)
	_, err := conn.Write([]byte("wait"))
	require.NoError(t, err)

	assert.Equal(t, context.DeadlineExceeded.Error(), readLine(t, conn))
}

func TestRun_InFlightHandlerFinishesAfterCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	h := HandlerFunc(func(ctx context.Context, w Sender, p Packet) {
		close(started)
		<-release
		_ = w.Send(ctx, p.From, []byte("late reply"))
	})
	s := NewServer("127.0.0.1:0", h, nopLogger{})
	cancel, done := startServer(t, s)

	conn := dial(t, s)
	_, err := conn.Write([]byte("go"))
	require.NoError(t, err)
	<-started

	cancel()
	select {
	case <-done:
		t.Fatal("Run returned before in-flight handler finished")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	assert.Equal(t, "late reply", readLine(t, conn))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRun_TruncatesToBufferSize(t *testing.T) {
	s := NewServer("127.0.0.1:0", echo(), nopLogger{}, WithBufferSize(4))
	startServer(t, s)

	conn := dial(t, s)
	_, err := conn.Write([]byte("abcdefgh"))
	require.NoError(t, err)

	assert.Equal(t, "echo abcd", readLine(t, conn))
}

func TestConnSender_HonoursCancelledContext(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = connSender{conn: conn}.Send(ctx, netip.MustParseAddrPort("127.0.0.1:9"), []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
