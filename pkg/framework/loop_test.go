package framework

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopIterationOrder(t *testing.T) {
	l := NewLoop()
	var order []string
	record := func(name string) Controller {
		return ControlFunc(func(cc ControlContext) error {
			order = append(order, name)
			return nil
		})
	}
	l.AddController(PrLvActuate, record("actuate"))
	l.AddController(PrLvInput, record("input"))
	l.AddController(PrLvReport, record("report"))
	l.AddController(PrLvInput, record("input2"))
	l.RunIteration(context.Background())
	require.Equal(t, []string{"input", "input2", "actuate", "report"}, order)
}

func TestLoopMessages(t *testing.T) {
	l := NewLoop()
	clock := time.Unix(100, 0)
	l.Clock = func() time.Time { return clock }
	var taken, seen []Message
	var times []time.Time
	l.AddController(PrLvInput, ControlFunc(func(cc ControlContext) error {
		times = append(times, cc.Time())
		cc.Messages().ProcessMessages(func(msg Message) bool {
			if s, ok := msg.(string); ok {
				taken = append(taken, s)
				return true
			}
			return false
		})
		return nil
	}))
	l.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(func(msg Message) bool {
			seen = append(seen, msg)
			return false
		})
		return nil
	}))

	l.PostMessage("a")
	l.PostMessage(1)
	l.PostMessage("b")
	l.RunIteration(context.Background())
	require.Equal(t, []Message{"a", "b"}, taken)
	require.Equal(t, []Message{1}, seen)

	l.RunIteration(context.Background())
	require.Len(t, taken, 2)
	require.Len(t, seen, 1)
	require.Equal(t, []time.Time{clock, clock}, times)
}

type postingRunner struct {
	msgs []Message
}

func (r *postingRunner) Run(ctx context.Context) error {
	ctl := LoopCtlFrom(ctx)
	for _, msg := range r.msgs {
		ctl.PostMessage(msg)
	}
	ctl.TriggerNext()
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopRunDeliversMessages(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	got := make(chan Message, 4)
	l.AddRunnable(&postingRunner{msgs: []Message{"x", "y"}})
	l.AddController(PrLvInput, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(func(msg Message) bool {
			got <- msg
			return true
		})
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	for _, expect := range []Message{"x", "y"} {
		select {
		case msg := <-got:
			require.Equal(t, expect, msg)
		case <-time.After(time.Second):
			t.Fatal("timeout")
		}
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

type returningRunner struct {
	err error
}

func (r *returningRunner) Run(context.Context) error {
	return r.err
}

type blockingRunner struct {
	stopped chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context) error {
	<-ctx.Done()
	close(r.stopped)
	return ctx.Err()
}

func TestLoopStopsWhenRunnerReturns(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		expect error
	}{
		{"read error", io.ErrUnexpectedEOF, io.ErrUnexpectedEOF},
		{"clean exit", nil, ErrRunnerStopped},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			other := &blockingRunner{stopped: make(chan struct{})}
			l := NewLoop()
			l.Interval = time.Hour
			l.AddRunnable(other, NamedRun("link", &returningRunner{err: tc.err}))

			errCh := make(chan error, 1)
			go func() { errCh <- l.Run(context.Background()) }()
			select {
			case err := <-errCh:
				require.ErrorIs(t, err, tc.expect)
				require.Contains(t, err.Error(), "link")
			case <-time.After(time.Second):
				t.Fatal("loop still running")
			}
			select {
			case <-other.stopped:
			default:
				t.Fatal("other runner not stopped")
			}
		})
	}
}
