package command

import (
	"math"
	"strconv"
	"strings"
)

// Protocol characters and limits.
const (
	Delim byte = ','
	Term  byte = ';'

	MaxTokenLen   = 16
	MaxHeaderLen  = 16
	MaxLineLen    = 64
	MaxMessageLen = 128
)

// Args is a cursor over the tokens of one command line.
// The first token is the command token, the rest are arguments
// consumed in order by the Read functions.
type Args struct {
	fields []string
	pos    int
}

// ParseArgs splits a line into tokens. A single trailing
// terminator is accepted and removed.
func ParseArgs(line string) Args {
	line = strings.TrimSuffix(line, string(Term))
	if line == "" {
		return Args{}
	}
	return Args{fields: strings.Split(line, string(Delim)), pos: 1}
}

// Token returns the command token, empty if the line is empty.
func (a *Args) Token() string {
	if len(a.fields) == 0 {
		return ""
	}
	return a.fields[0]
}

// Remaining returns the number of unread arguments.
func (a *Args) Remaining() int {
	if a.pos >= len(a.fields) {
		return 0
	}
	return len(a.fields) - a.pos
}

// Rest returns all unread arguments joined by the delimiter
// without consuming them.
func (a *Args) Rest() string {
	if a.Remaining() == 0 {
		return ""
	}
	return strings.Join(a.fields[a.pos:], string(Delim))
}

// Next consumes the next argument.
func (a *Args) Next() (string, bool) {
	if a.pos >= len(a.fields) {
		return "", false
	}
	s := a.fields[a.pos]
	a.pos++
	return s, true
}

// ReadString consumes the next argument as-is.
func (a *Args) ReadString() (string, bool) {
	return a.Next()
}

// ReadLong consumes the next argument as a signed decimal integer.
func (a *Args) ReadLong() (int64, bool) {
	s, ok := a.Next()
	if !ok || s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ReadFloat consumes the next argument as a finite decimal number.
func (a *Args) ReadFloat() (float64, bool) {
	s, ok := a.Next()
	if !ok || s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ReadBool consumes the next argument which must be 0 or 1.
func (a *Args) ReadBool() (bool, bool) {
	s, ok := a.Next()
	if !ok {
		return false, false
	}
	switch s {
	case "1":
		return true, true
	case "0":
		return false, true
	}
	return false, false
}

// ValidToken checks a token (or header) can be carried on the wire.
func ValidToken(s string) bool {
	if s == "" || len(s) > MaxTokenLen {
		return false
	}
	return !strings.ContainsAny(s, string([]byte{Delim, Term, '\r', '\n'}))
}
