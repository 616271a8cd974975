package sh

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cmdstepper/pkg/command"
	"github.com/robotalks/cmdstepper/pkg/transport"
)

// DefaultTimeout is how long a request waits for its reply.
const DefaultTimeout = time.Second

var (
	// ErrTimeout indicates no reply arrived in time.
	ErrTimeout = errors.New("reply timeout")
	// ErrClosed indicates the connection was closed.
	ErrClosed = errors.New("connection closed")
)

// UnrecognizedError is the controller's reply to an unknown command.
type UnrecognizedError struct {
	Token string
}

func (e *UnrecognizedError) Error() string {
	return fmt.Sprintf("command %q not recognized", e.Token)
}

// Session talks the command protocol to a controller.
// Header selects the device when the controller hosts several.
type Session struct {
	Conn    io.ReadWriteCloser
	Header  string
	Timeout time.Duration

	replies chan string
	done    chan struct{}
}

// NewSession starts reading replies from conn.
func NewSession(conn io.ReadWriteCloser) *Session {
	s := &Session{
		Conn:    conn,
		Timeout: DefaultTimeout,
		replies: make(chan string, 64),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// Close closes the connection.
func (s *Session) Close() error {
	return s.Conn.Close()
}

// Send sends a command without waiting for a reply.
func (s *Session) Send(token string, args ...string) error {
	m := command.NewMessage(s.Conn)
	if s.Header != "" {
		m.AddString(s.Header).AddDelim()
	}
	m.AddString(token)
	for _, arg := range args {
		m.AddDelim().AddString(arg)
	}
	return m.AddTerm().Send()
}

// SendRaw sends a line as-is, appending the terminator if missing.
func (s *Session) SendRaw(line string) error {
	if !strings.HasSuffix(line, string(command.Term)) {
		line += string(command.Term)
	}
	_, err := s.Conn.Write([]byte(line))
	return err
}

// Request sends a command and returns the arguments of the reply
// carrying the same token.
func (s *Session) Request(token string, args ...string) ([]string, error) {
	s.Drain()
	if err := s.Send(token, args...); err != nil {
		return nil, err
	}
	timeout := time.NewTimer(s.Timeout)
	defer timeout.Stop()
	for {
		select {
		case line := <-s.replies:
			fields := strings.Split(line, string(command.Delim))
			if len(fields) > 1 && fields[0] != token && fields[0] != command.UnrecognizedToken &&
				(s.Header == "" || fields[0] == s.Header) {
				fields = fields[1:]
			}
			switch fields[0] {
			case token:
				return fields[1:], nil
			case command.UnrecognizedToken:
				if len(fields) > 1 {
					return nil, &UnrecognizedError{Token: fields[1]}
				}
			}
			glog.V(2).Infof("unexpected reply %q", line)
		case <-timeout.C:
			return nil, ErrTimeout
		case <-s.done:
			return nil, ErrClosed
		}
	}
}

// Drain returns the replies received so far.
func (s *Session) Drain() []string {
	var lines []string
	for {
		select {
		case line := <-s.replies:
			lines = append(lines, line)
		default:
			return lines
		}
	}
}

// Collect waits for replies until none arrives within d.
func (s *Session) Collect(d time.Duration) []string {
	lines := s.Drain()
	for {
		select {
		case line := <-s.replies:
			lines = append(lines, line)
		case <-time.After(d):
			return lines
		case <-s.done:
			return lines
		}
	}
}

func (s *Session) readLoop() {
	defer close(s.done)
	framer := transport.NewFramer()
	framer.MaxLen = command.MaxMessageLen
	buf := make([]byte, transport.DefaultReadBufferSize)
	for {
		n, err := s.Conn.Read(buf)
		framer.Feed(buf[:n], func(line string) {
			select {
			case s.replies <- line:
			default:
				glog.Warningf("reply dropped: %q", line)
			}
		})
		if err != nil {
			if err != io.EOF {
				glog.V(2).Infof("read: %v", err)
			}
			return
		}
	}
}
