package dispatcher

import (
	"context"
	"errors"
	"net/netip"
	"sync"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/server/models"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeCredentials struct {
	mu        sync.Mutex
	users     map[string]string
	createErr error
}

func newFakeCredentials(users map[string]string) *fakeCredentials {
	if users == nil {
		users = map[string]string{}
	}
	return &fakeCredentials{users: users}
}

func (f *fakeCredentials) Exists(_ context.Context, u string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[u]
	return ok
}

func (f *fakeCredentials) Create(_ context.Context, u, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[u]; ok {
		return common.ErrorAlreadyExists
	}
	f.users[u] = p
	return nil
}

func (f *fakeCredentials) Verify(_ context.Context, u, p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	want, ok := f.users[u]
	return ok && want == p
}

type fakeMailboxes struct {
	mu        sync.Mutex
	mails     []models.Mail
	appendErr error
}

func (f *fakeMailboxes) Append(_ context.Context, m *models.Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mails = append(f.mails, *m)
	return nil
}

func (f *fakeMailboxes) List(_ context.Context, u string) []models.MailSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MailSummary
	for i := len(f.mails) - 1; i >= 0; i-- {
		m := f.mails[i]
		if m.Recipient == u {
			out = append(out, models.MailSummary{ID: m.ID, Sender: m.Sender, Title: m.Title, CreatedAt: m.CreatedAt})
		}
	}
	return out
}

func (f *fakeMailboxes) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mails)
}

type sent struct {
	to      netip.AddrPort
	payload string
}

// recordingSender captures outgoing datagrams; sends to failTo fail.
type recordingSender struct {
	mu     sync.Mutex
	out    []sent
	failTo netip.AddrPort
}

func (r *recordingSender) Send(_ context.Context, to netip.AddrPort, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if to == r.failTo {
		return errors.New("host unreachable")
	}
	r.out = append(r.out, sent{to: to, payload: string(payload)})
	return nil
}

func (r *recordingSender) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.out...)
}
