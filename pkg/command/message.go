package command

import (
	"io"
	"strconv"
)

// Message builds one outgoing command. It is appended to
// and sent once as a whole, never partially.
type Message struct {
	w        io.Writer
	buf      []byte
	overflow bool
	sent     bool
}

// NewMessage creates an empty message sent to w.
func NewMessage(w io.Writer) *Message {
	return &Message{w: w, buf: make([]byte, 0, MaxMessageLen)}
}

func (m *Message) append(s string) *Message {
	if m.sent || m.overflow {
		return m
	}
	if len(m.buf)+len(s) > MaxMessageLen {
		m.overflow = true
		return m
	}
	m.buf = append(m.buf, s...)
	return m
}

// AddString appends a string.
func (m *Message) AddString(s string) *Message {
	return m.append(s)
}

// AddLong appends a decimal integer.
func (m *Message) AddLong(v int64) *Message {
	return m.append(strconv.FormatInt(v, 10))
}

// AddFloat appends the shortest decimal representing v exactly.
func (m *Message) AddFloat(v float64) *Message {
	return m.append(strconv.FormatFloat(v, 'f', -1, 64))
}

// AddBool appends 1 for true and 0 for false.
func (m *Message) AddBool(v bool) *Message {
	if v {
		return m.append("1")
	}
	return m.append("0")
}

// AddDelim appends the delimiter.
func (m *Message) AddDelim() *Message {
	return m.append(string(Delim))
}

// AddTerm appends the terminator.
func (m *Message) AddTerm() *Message {
	return m.append(string(Term))
}

// Bytes returns the content built so far.
func (m *Message) Bytes() []byte {
	return m.buf
}

// String implements Stringer.
func (m *Message) String() string {
	return string(m.buf)
}

// Send writes the message in a single Write. It can only be called once.
func (m *Message) Send() error {
	if m.sent {
		return ErrMessageSent
	}
	m.sent = true
	if m.overflow {
		return ErrMessageTooLong
	}
	if m.w == nil {
		return ErrNoWriter
	}
	_, err := m.w.Write(m.buf)
	return err
}
