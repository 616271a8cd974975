// Package transport moves command lines between a byte stream and the
// control loop.
package transport

import "github.com/robotalks/cmdstepper/pkg/command"

// LineMsg is a complete command line received from a transport,
// without the terminator.
type LineMsg struct {
	Line string
}

// Framer splits a byte stream into lines ended by command.Term.
// CR and LF are ignored. A line longer than MaxLen is discarded
// entirely, up to and including its terminator.
type Framer struct {
	MaxLen int

	buf       []byte
	overflow  bool
	discarded int
}

// NewFramer creates a Framer bounded to command.MaxLineLen bytes per line,
// terminator included.
func NewFramer() *Framer {
	return &Framer{MaxLen: command.MaxLineLen}
}

// Feed consumes data and calls emit for every complete non-empty line.
func (f *Framer) Feed(data []byte, emit func(line string)) {
	limit := f.MaxLen - 1
	if limit <= 0 {
		limit = command.MaxLineLen - 1
	}
	for _, b := range data {
		switch b {
		case '\r', '\n':
		case command.Term:
			if f.overflow {
				f.overflow = false
				f.discarded++
			} else if len(f.buf) > 0 {
				emit(string(f.buf))
			}
			f.buf = f.buf[:0]
		default:
			if f.overflow {
				continue
			}
			if len(f.buf) >= limit {
				f.overflow = true
				f.buf = f.buf[:0]
				continue
			}
			f.buf = append(f.buf, b)
		}
	}
}

// Pending returns the number of buffered bytes of an incomplete line.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Discarded returns the number of overflowed lines dropped so far.
func (f *Framer) Discarded() int {
	return f.discarded
}
