package command

import (
	"io"
	"strings"

	"github.com/golang/glog"
)

// UnrecognizedToken is the reply token for unknown commands.
const UnrecognizedToken = "?"

// Observer is notified about every dispatched command.
type Observer interface {
	Dispatched(token string, recognized bool)
}

// Handler maps command tokens to callbacks and holds the state of the
// command being processed: the argument cursor and whether the last
// argument read succeeded. Replies are prefixed by the header.
type Handler struct {
	Writer   io.Writer
	Observer Observer

	commands       map[string]func()
	defaultHandler func(token string)
	header         string
	args           Args
	argOk          bool
}

// NewHandler creates a Handler writing replies to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{Writer: w, commands: make(map[string]func())}
}

// AddCommand registers fn for token, replacing any previous registration.
// It panics if the token can't be carried on the wire.
func (h *Handler) AddCommand(token string, fn func()) {
	if !ValidToken(token) {
		panic("command: invalid token " + token)
	}
	if fn == nil {
		panic("command: nil handler for " + token)
	}
	if h.commands == nil {
		h.commands = make(map[string]func())
	}
	h.commands[token] = fn
}

// SetDefaultHandler sets the callback receiving unknown tokens.
func (h *Handler) SetDefaultHandler(fn func(token string)) {
	h.defaultHandler = fn
}

// SetCmdHeader sets the header prefixed to subsequent replies.
// An empty header disables the prefix.
func (h *Handler) SetCmdHeader(header string) error {
	if len(header) > MaxHeaderLen {
		return ErrHeaderTooLong
	}
	if header != "" && !ValidToken(header) {
		return ErrInvalidHeader
	}
	h.header = header
	return nil
}

// CmdHeader returns the current header.
func (h *Handler) CmdHeader() string {
	return h.header
}

// ProcessString dispatches one command line. Empty lines are ignored.
func (h *Handler) ProcessString(line string) {
	h.args = ParseArgs(strings.TrimSpace(line))
	h.argOk = false
	token := h.args.Token()
	if token == "" {
		return
	}
	fn, ok := h.commands[token]
	if o := h.Observer; o != nil {
		o.Dispatched(token, ok)
	}
	if ok {
		fn()
		return
	}
	glog.V(2).Infof("unrecognized command %q", token)
	if h.defaultHandler != nil {
		h.defaultHandler(token)
	}
}

// ArgOk reports whether the last argument read succeeded.
func (h *Handler) ArgOk() bool {
	return h.argOk
}

// ReadLongArg reads the next argument of the current command as an integer.
func (h *Handler) ReadLongArg() (v int64, ok bool) {
	v, ok = h.args.ReadLong()
	h.argOk = ok
	return
}

// ReadFloatArg reads the next argument of the current command as a float.
func (h *Handler) ReadFloatArg() (v float64, ok bool) {
	v, ok = h.args.ReadFloat()
	h.argOk = ok
	return
}

// ReadBoolArg reads the next argument of the current command as a bool.
func (h *Handler) ReadBoolArg() (v bool, ok bool) {
	v, ok = h.args.ReadBool()
	h.argOk = ok
	return
}

// ReadStringArg reads the next argument of the current command.
func (h *Handler) ReadStringArg() (v string, ok bool) {
	v, ok = h.args.ReadString()
	h.argOk = ok
	return
}

// InitCmd starts a reply, prefixed by the header if set.
func (h *Handler) InitCmd() *Message {
	m := NewMessage(h.Writer)
	if h.header != "" {
		m.AddString(h.header).AddDelim()
	}
	return m
}

// SendCmd sends a reply consisting of token and arguments.
// Arguments are formatted by type: string, int64/int, float64, bool.
func (h *Handler) SendCmd(token string, args ...interface{}) error {
	m := h.InitCmd().AddString(token)
	for _, arg := range args {
		m.AddDelim()
		switch v := arg.(type) {
		case string:
			m.AddString(v)
		case int64:
			m.AddLong(v)
		case int:
			m.AddLong(int64(v))
		case float64:
			m.AddFloat(v)
		case bool:
			m.AddBool(v)
		default:
			panic("command: unsupported argument type")
		}
	}
	return m.AddTerm().Send()
}

// Unrecognized replies ?,<token>.
func (h *Handler) Unrecognized(token string) error {
	return h.SendCmd(UnrecognizedToken, token)
}
