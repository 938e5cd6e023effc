// Package dispatcher turns parsed datagrams into store operations and
// replies. It implements udp.Handler.
package dispatcher

import (
	"context"
	"errors"
	"net/netip"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/mailproto"
	"github.com/dmitrijs2005/postbox/internal/netx"
	"github.com/dmitrijs2005/postbox/internal/server/metrics"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/udp"
)

// CredentialStore checks and creates accounts.
type CredentialStore interface {
	Exists(ctx context.Context, username string) bool
	Create(ctx context.Context, username, password string) error
	Verify(ctx context.Context, username, password string) bool
}

// MailboxStore keeps delivered mail per recipient.
type MailboxStore interface {
	Append(ctx context.Context, mail *models.Mail) error
	List(ctx context.Context, username string) []models.MailSummary
}

// PresenceTable maps online usernames to their last login endpoint.
type PresenceTable interface {
	Login(username string, endpoint netip.AddrPort)
	Logout(username string) bool
	Lookup(username string) (netip.AddrPort, bool)
	Len() int
}

// Dispatcher is the udp.Handler that executes protocol commands.
type Dispatcher struct {
	credentials CredentialStore
	mailboxes   MailboxStore
	presence    PresenceTable
	metrics     *metrics.Metrics
	logger      logging.Logger
}

// New builds a Dispatcher. A nil mt disables metrics.
func New(c CredentialStore, m MailboxStore, p PresenceTable, mt *metrics.Metrics, l logging.Logger) *Dispatcher {
	if mt == nil {
		mt = metrics.NewDiscard()
	}
	return &Dispatcher{
		credentials: c,
		mailboxes:   m,
		presence:    p,
		metrics:     mt,
		logger:      l.With("module", "dispatcher"),
	}
}

// ServeDatagram handles one command and answers the observed source of p.
// Every verb except LOGOUT gets exactly one reply.
func (d *Dispatcher) ServeDatagram(ctx context.Context, w udp.Sender, p udp.Packet) {
	from := netx.FormatEndpoint(p.From)

	cmd, err := mailproto.Parse(p.Payload)
	switch {
	case errors.Is(err, mailproto.ErrUnknownCommand):
		d.logger.Debug(ctx, "unknown command", "from", from)
		d.reply(ctx, w, p.From, "UNKNOWN", mailproto.RespUnknownCommand)
		return
	case errors.Is(err, mailproto.ErrUsage):
		d.logger.Debug(ctx, "missing arguments", "from", from, "verb", cmd.Verb)
		d.reply(ctx, w, p.From, string(cmd.Verb), mailproto.UsageFor(cmd.Verb))
		return
	}

	d.logger.Debug(ctx, "command", "from", from, "verb", cmd.Verb, "subject", subject(cmd))

	switch cmd.Verb {
	case mailproto.VerbRegister:
		d.reply(ctx, w, p.From, string(cmd.Verb), d.register(ctx, cmd))
	case mailproto.VerbLogin:
		d.reply(ctx, w, p.From, string(cmd.Verb), d.login(ctx, cmd, p.From))
	case mailproto.VerbLogout:
		d.logout(ctx, cmd)
	case mailproto.VerbSend:
		d.reply(ctx, w, p.From, string(cmd.Verb), d.send(ctx, w, cmd, p.From))
	case mailproto.VerbList:
		d.reply(ctx, w, p.From, string(cmd.Verb), d.list(ctx, cmd))
	}
}

func (d *Dispatcher) register(ctx context.Context, cmd mailproto.Command) string {
	err := d.credentials.Create(ctx, cmd.Username, cmd.Password)
	switch {
	case err == nil:
		return mailproto.RespRegistered
	case errors.Is(err, common.ErrorAlreadyExists):
		return mailproto.RespUserExists
	case errors.Is(err, common.ErrorValidation):
		return mailproto.RespRegisterUsage
	default:
		return mailproto.RespCreateFailed
	}
}

func (d *Dispatcher) login(ctx context.Context, cmd mailproto.Command, from netip.AddrPort) string {
	if !d.credentials.Verify(ctx, cmd.Username, cmd.Password) {
		d.logger.Info(ctx, "login rejected", "user", cmd.Username, "from", netx.FormatEndpoint(from))
		return mailproto.RespInvalidCreds
	}

	d.presence.Login(cmd.Username, from)
	d.metrics.OnlineUsers.Set(float64(d.presence.Len()))
	d.logger.Info(ctx, "user logged in", "user", cmd.Username, "from", netx.FormatEndpoint(from))
	return mailproto.RespLoggedIn
}

func (d *Dispatcher) logout(ctx context.Context, cmd mailproto.Command) {
	if d.presence.Logout(cmd.Username) {
		d.metrics.OnlineUsers.Set(float64(d.presence.Len()))
		d.logger.Info(ctx, "user logged out", "user", cmd.Username)
	}
	d.metrics.Commands.With(metrics.LabelVerb, string(mailproto.VerbLogout), metrics.LabelResult, metrics.ResultOK).Add(1)
}

func (d *Dispatcher) send(ctx context.Context, w udp.Sender, cmd mailproto.Command, from netip.AddrPort) string {
	if _, online := d.presence.Lookup(cmd.From); !online {
		return mailproto.RespNotLoggedIn
	}
	if !d.credentials.Exists(ctx, cmd.Recipient) {
		return mailproto.UnknownRecipient(cmd.Recipient)
	}

	mail := &models.Mail{
		Recipient:      cmd.Recipient,
		Sender:         cmd.From,
		SenderEndpoint: netx.FormatEndpoint(from),
		Title:          cmd.Title,
		Body:           cmd.Content,
	}
	if err := d.mailboxes.Append(ctx, mail); err != nil {
		return mailproto.RespSaveFailed
	}

	d.notify(ctx, w, mail)
	return mailproto.Sent(cmd.Recipient)
}

// notify pushes NEW_MAIL to the recipient if online. It is attempted once;
// failures are only logged.
func (d *Dispatcher) notify(ctx context.Context, w udp.Sender, mail *models.Mail) {
	to, online := d.presence.Lookup(mail.Recipient)
	if !online {
		return
	}

	n := mailproto.Notification{From: mail.Sender, Title: mail.Title, Content: mail.Body}
	if err := w.Send(context.WithoutCancel(ctx), to, []byte(n.String())); err != nil {
		d.metrics.Notifications.With(metrics.LabelResult, metrics.ResultFailed).Add(1)
		d.logger.Warn(ctx, "notification not sent", "recipient", mail.Recipient, "to", netx.FormatEndpoint(to), "error", err)
		return
	}
	d.metrics.Notifications.With(metrics.LabelResult, metrics.ResultOK).Add(1)
}

func (d *Dispatcher) list(ctx context.Context, cmd mailproto.Command) string {
	summaries := d.mailboxes.List(ctx, cmd.Username)

	entries := make([]mailproto.DigestEntry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, mailproto.DigestEntry{
			Time:  s.CreatedAt,
			From:  s.Sender,
			Title: s.Title,
		})
	}
	return mailproto.Digest(entries)
}

// reply sends resp even if the handler deadline has passed.
func (d *Dispatcher) reply(ctx context.Context, w udp.Sender, to netip.AddrPort, verb, resp string) {
	result := metrics.ResultOK
	if !mailproto.IsOK(resp) {
		result = metrics.ResultError
	}
	d.metrics.Commands.With(metrics.LabelVerb, verb, metrics.LabelResult, result).Add(1)

	if err := w.Send(context.WithoutCancel(ctx), to, []byte(resp)); err != nil {
		d.logger.Warn(ctx, "reply not sent", "to", netx.FormatEndpoint(to), "verb", verb, "error", err)
	}
}

// subject is the loggable first argument of cmd. Passwords and bodies are
// never logged.
func subject(cmd mailproto.Command) string {
	if cmd.Verb == mailproto.VerbSend {
		return cmd.Recipient
	}
	return cmd.Username
}
