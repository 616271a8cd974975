package transport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func feedAll(f *Framer, chunks ...string) []string {
	var lines []string
	for _, chunk := range chunks {
		f.Feed([]byte(chunk), func(line string) {
			lines = append(lines, line)
		})
	}
	return lines
}

func TestFramer(t *testing.T) {
	cases := []struct {
		name   string
		chunks []string
		lines  []string
	}{
		{"single", []string{"M,100;"}, []string{"M,100"}},
		{"multiple", []string{"Q;P;"}, []string{"Q", "P"}},
		{"split", []string{"M,1", "00", ";Q", ";"}, []string{"M,100", "Q"}},
		{"crlf ignored", []string{"Q;\r\nM1,P;\n"}, []string{"Q", "M1,P"}},
		{"empty lines", []string{";;Q;;"}, []string{"Q"}},
		{"no terminator", []string{"Q"}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.lines, feedAll(NewFramer(), c.chunks...))
		})
	}
}

func TestFramerOverflow(t *testing.T) {
	f := NewFramer()
	long := strings.Repeat("A", 63)
	lines := feedAll(f, long+";", long+"A", "B,C;Q;")
	require.Equal(t, []string{long, "Q"}, lines)
	require.Equal(t, 1, f.Discarded())
	require.Equal(t, 0, f.Pending())

	feedAll(f, "M,5")
	require.Equal(t, 3, f.Pending())
}
