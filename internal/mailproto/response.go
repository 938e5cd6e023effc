package mailproto

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Response prefixes.
const (
	PrefixOK     = "OK"
	PrefixError  = "ERROR"
	PrefixNotify = "NEW_MAIL"
)

// Fixed response lines.
const (
	RespUnknownCommand    = "ERROR Unknown command"
	RespRegisterUsage     = "ERROR REGISTER requires username and password"
	RespUserExists        = "ERROR User already exists"
	RespCreateFailed      = "ERROR Server failed to create user"
	RespRegistered        = "OK Registered successfully"
	RespLoginUsage        = "ERROR LOGIN requires username and password"
	RespInvalidCreds      = "ERROR Invalid credentials"
	RespLoggedIn          = "OK Logged in successfully"
	RespSendUsage         = "ERROR SEND command format is: <recipient> <fromUser> <title|content>"
	RespNotLoggedIn       = "ERROR You must be logged in to send mail."
	RespSaveFailed        = "ERROR Server failed to save mail"
	RespListUsage         = "ERROR LIST requires a username"
	RespNoMails           = "OK No mails found."
	RespInternal          = "ERROR Internal server error"
	listHeader            = "OK Your mails:\n\n"
	digestTimeLayout      = "2006-01-02 15:04:05"
	notificationSeparator = "|"
)

// UsageFor returns the usage error line for v.
func UsageFor(v Verb) string {
	switch v {
	case VerbRegister:
		return RespRegisterUsage
	case VerbLogin:
		return RespLoginUsage
	case VerbSend:
		return RespSendUsage
	case VerbList:
		return RespListUsage
	default:
		return RespUnknownCommand
	}
}

// UnknownRecipient reports a SEND to a username with no account.
func UnknownRecipient(recipient string) string {
	return fmt.Sprintf("ERROR Recipient '%s' does not exist.", recipient)
}

// Sent acknowledges a stored mail.
func Sent(recipient string) string {
	return "OK Mail sent successfully to " + recipient
}

// MaxReplySize is the largest UDP payload over IPv4. Digest never exceeds it.
const MaxReplySize = 65507

// DigestEntry is one header line of a LIST response.
type DigestEntry struct {
	Time  time.Time
	From  string
	Title string
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func (e DigestEntry) line() string {
	return fmt.Sprintf("Time: %s | From: %s | Title: %s\n---\n",
		e.Time.Format(digestTimeLayout), lineBreaks.Replace(e.From), lineBreaks.Replace(e.Title))
}

func omittedLine(n int) string {
	return fmt.Sprintf("(%d older mails not shown)\n", n)
}

// Digest renders a LIST response of mail headers, entries in the given order.
// Entries that would push the reply past MaxReplySize are dropped from the
// tail and counted in a closing line.
func Digest(entries []DigestEntry) string {
	if len(entries) == 0 {
		return RespNoMails
	}

	// room for the closing line at its widest
	budget := MaxReplySize - len(omittedLine(len(entries)))

	var b strings.Builder
	b.WriteString(listHeader)
	for i, e := range entries {
		l := e.line()
		if b.Len()+len(l) > budget {
			b.WriteString(omittedLine(len(entries) - i))
			break
		}
		b.WriteString(l)
	}
	return b.String()
}

// Notification is the unsolicited push sent to an online recipient.
type Notification struct {
	From    string
	Title   string
	Content string
}

// ErrNotNotification is returned by ParseNotification for non-push payloads.
var ErrNotNotification = errors.New("not a NEW_MAIL notification")

// String renders n as NEW_MAIL|from|title|content.
func (n Notification) String() string {
	return strings.Join([]string{PrefixNotify, n.From, n.Title, n.Content}, notificationSeparator)
}

// IsNotification reports whether payload is a NEW_MAIL push.
func IsNotification(payload []byte) bool {
	return strings.HasPrefix(string(payload), PrefixNotify+notificationSeparator)
}

// ParseNotification decodes a NEW_MAIL push. The content field may itself
// contain '|'.
func ParseNotification(payload []byte) (Notification, error) {
	if !IsNotification(payload) {
		return Notification{}, ErrNotNotification
	}
	parts := strings.SplitN(string(payload), notificationSeparator, 4)
	if len(parts) != 4 {
		return Notification{}, ErrNotNotification
	}
	return Notification{From: parts[1], Title: parts[2], Content: parts[3]}, nil
}

// IsOK reports whether a response line is a success.
func IsOK(resp string) bool {
	return resp == PrefixOK || strings.HasPrefix(resp, PrefixOK+" ")
}
