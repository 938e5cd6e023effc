package mailproto

import (
	"errors"
	"strings"
)

// Verb identifies a protocol command.
type Verb string

const (
	VerbRegister Verb = "REGISTER"
	VerbLogin    Verb = "LOGIN"
	VerbLogout   Verb = "LOGOUT"
	VerbSend     Verb = "SEND"
	VerbList     Verb = "LIST"
)

// DefaultTitle is stored when a SEND body carries no '|' separator.
const DefaultTitle = "(no title)"

var (
	// ErrUnknownCommand is returned for empty input or an unrecognised verb.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage is returned when a known verb lacks required arguments.
	ErrUsage = errors.New("missing arguments")
)

// Command is a parsed datagram. Only the fields relevant to Verb are set.
type Command struct {
	Verb Verb

	Username string
	Password string

	Recipient string
	From      string
	Title     string
	Content   string
}

// Parse decodes one datagram payload. On ErrUsage the returned Command still
// carries the Verb so the caller can pick the verb-specific usage message.
func Parse(payload []byte) (Command, error) {
	line := strings.TrimSpace(string(payload))
	head, rest, _ := strings.Cut(line, " ")

	cmd := Command{Verb: Verb(strings.ToUpper(head))}

	switch cmd.Verb {
	case VerbRegister, VerbLogin:
		user, pass, ok := strings.Cut(rest, " ")
		if !ok {
			return cmd, ErrUsage
		}
		cmd.Username = strings.TrimSpace(user)
		cmd.Password = strings.TrimSpace(pass)
		if cmd.Username == "" || cmd.Password == "" {
			return cmd, ErrUsage
		}
		return cmd, nil

	case VerbLogout, VerbList:
		cmd.Username = strings.TrimSpace(rest)
		if cmd.Username == "" && cmd.Verb == VerbList {
			return cmd, ErrUsage
		}
		return cmd, nil

	case VerbSend:
		parts := strings.SplitN(rest, " ", 3)
		if len(parts) < 3 {
			return cmd, ErrUsage
		}
		cmd.Recipient = strings.TrimSpace(parts[0])
		cmd.From = strings.TrimSpace(parts[1])
		if cmd.Recipient == "" || cmd.From == "" {
			return cmd, ErrUsage
		}
		cmd.Title, cmd.Content = splitBody(parts[2])
		return cmd, nil

	default:
		return Command{}, ErrUnknownCommand
	}
}

func splitBody(rest string) (title, content string) {
	t, c, ok := strings.Cut(rest, "|")
	if !ok {
		return DefaultTitle, rest
	}
	return strings.TrimSpace(t), strings.TrimSpace(c)
}

// String renders the command back into wire form. Passwords are included,
// so never log the result.
// body encodes title and content. An empty title is left for the server to
// default unless the content itself holds a '|'.
func (c Command) body() string {
	switch {
	case c.Title != "":
		return c.Title + "|" + c.Content
	case strings.Contains(c.Content, "|"):
		return DefaultTitle + "|" + c.Content
	default:
		return c.Content
	}
}

func (c Command) String() string {
	switch c.Verb {
	case VerbRegister, VerbLogin:
		return string(c.Verb) + " " + c.Username + " " + c.Password
	case VerbLogout, VerbList:
		return string(c.Verb) + " " + c.Username
	case VerbSend:
		return string(c.Verb) + " " + c.Recipient + " " + c.From + " " + c.body()
	default:
		return string(c.Verb)
	}
}
