package client

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strings"
	"sync"

	"github.com/dmitrijs2005/postbox/internal/mailproto"
	"github.com/dmitrijs2005/postbox/internal/netx"
)

const (
	readBufferSize      = 64 * 1024
	notificationBacklog = 64
)

type UDPClient struct {
	conn *net.UDPConn

	replies       chan string
	notifications chan mailproto.Notification
	done          chan struct{}
	closeOnce     sync.Once

	// serialises Do so each reply has a single waiter
	mu sync.Mutex
}

// Dial connects to a postbox server at addr ("host:port").
func Dial(ctx context.Context, addr string) (*UDPClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, err
	}
	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		_ = conn.Close()
		return nil, ErrNotUDPConn
	}

	c := &UDPClient{
		conn:          udpConn,
		replies:       make(chan string, 1),
		notifications: make(chan mailproto.Notification, notificationBacklog),
		done:          make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// LocalAddr is the endpoint the server observes for this client.
func (c *UDPClient) LocalAddr() netip.AddrPort {
	return netx.Canonical(c.conn.LocalAddr().(*net.UDPAddr).AddrPort())
}

// Notifications delivers NEW_MAIL pushes. When the backlog is full new pushes
// are dropped. The channel is closed by Close.
func (c *UDPClient) Notifications() <-chan mailproto.Notification {
	return c.notifications
}

func (c *UDPClient) readLoop() {
	defer close(c.notifications)

	buf := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// ICMP errors surface on connected UDP sockets; keep reading
			select {
			case <-c.done:
				return
			default:
				continue
			}
		}

		payload := buf[:n]
		if mailproto.IsNotification(payload) {
			if note, err := mailproto.ParseNotification(payload); err == nil {
				select {
				case c.notifications <- note:
				default:
				}
			}
			continue
		}

		select {
		case c.replies <- string(payload):
		default:
			// nobody waiting and a stale reply already queued
		}
	}
}

// Do sends one command line and waits for the next non-push datagram.
func (c *UDPClient) Do(ctx context.Context, line string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.drainStale()
	if err := c.write(line); err != nil {
		return "", err
	}

	select {
	case r := <-c.replies:
		return r, nil
	case <-c.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Fire sends a command that has no reply, such as LOGOUT.
func (c *UDPClient) Fire(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(line)
}

func (c *UDPClient) write(line string) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	_, err := c.conn.Write([]byte(line))
	return err
}

func (c *UDPClient) drainStale() {
	for {
		select {
		case <-c.replies:
		default:
			return
		}
	}
}

// Close stops the read loop and releases the socket.
func (c *UDPClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *UDPClient) expectOK(ctx context.Context, line string) (string, error) {
	resp, err := c.Do(ctx, line)
	if err != nil {
		return "", err
	}
	if !mailproto.IsOK(resp) {
		return "", &ServerError{Message: resp}
	}
	return resp, nil
}

func (c *UDPClient) Register(ctx context.Context, username, password string) error {
	_, err := c.expectOK(ctx, mailproto.Command{Verb: mailproto.VerbRegister, Username: username, Password: password}.String())
	return err
}

func (c *UDPClient) Login(ctx context.Context, username, password string) error {
	_, err := c.expectOK(ctx, mailproto.Command{Verb: mailproto.VerbLogin, Username: username, Password: password}.String())
	return err
}

func (c *UDPClient) Logout(username string) error {
	return c.Fire(mailproto.Command{Verb: mailproto.VerbLogout, Username: username}.String())
}

// Send submits mail from one user to another. An empty title is stored as
// the server's default title.
func (c *UDPClient) Send(ctx context.Context, recipient, from, title, content string) error {
	cmd := mailproto.Command{Verb: mailproto.VerbSend, Recipient: recipient, From: from, Title: title, Content: content}
	_, err := c.expectOK(ctx, cmd.String())
	return err
}

// List returns the raw digest of username's mailbox without the "OK " prefix.
func (c *UDPClient) List(ctx context.Context, username string) (string, error) {
	resp, err := c.expectOK(ctx, mailproto.Command{Verb: mailproto.VerbList, Username: username}.String())
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(resp, mailproto.PrefixOK+" "), nil
}
