package transport

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/cmdstepper/pkg/framework"
)

type countingObserver struct {
	lock      sync.Mutex
	received  int
	discarded int
	sent      []int
}

func (o *countingObserver) LineReceived() {
	o.lock.Lock()
	o.received++
	o.lock.Unlock()
}

func (o *countingObserver) LineDiscarded() {
	o.lock.Lock()
	o.discarded++
	o.lock.Unlock()
}

func (o *countingObserver) MessageSent(size int, err error) {
	o.lock.Lock()
	o.sent = append(o.sent, size)
	o.lock.Unlock()
}

func TestLinkPostsLines(t *testing.T) {
	local, remote := net.Pipe()
	obs := &countingObserver{}
	link := NewLink("test", local).WithObserver(obs)

	loop := fx.NewLoop()
	loop.Interval = time.Hour
	lines := make(chan string, 8)
	loop.Add(link)
	loop.AddController(fx.PrLvInput, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(func(msg fx.Message) bool {
			if m, ok := msg.(LineMsg); ok {
				lines <- m.Line
				return true
			}
			return false
		})
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	_, err := remote.Write([]byte("M,100;Q" + strings.Repeat("X", 70) + ";"))
	require.NoError(t, err)
	_, err = remote.Write([]byte("\r\nP;"))
	require.NoError(t, err)

	for _, expect := range []string{"M,100", "P"} {
		select {
		case line := <-lines:
			require.Equal(t, expect, line)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %q", expect)
		}
	}

	written := make(chan error, 1)
	go func() {
		_, err := link.Write([]byte("P,0;"))
		written <- err
	}()
	buf := make([]byte, 16)
	n, err := io.ReadAtLeast(remote, buf, 4)
	require.NoError(t, err)
	require.Equal(t, "P,0;", string(buf[:n]))
	require.NoError(t, <-written)

	cancel()
	require.Equal(t, context.Canceled, <-done)

	obs.lock.Lock()
	defer obs.lock.Unlock()
	require.Equal(t, 2, obs.received)
	require.Equal(t, 1, obs.discarded)
	require.Equal(t, []int{4}, obs.sent)
}
