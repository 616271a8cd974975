package framework

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default tick interval of a Loop.
const DefaultInterval = time.Millisecond

// ErrRunnerStopped is reported when a runner of the loop returns without
// error before the loop is stopped.
var ErrRunnerStopped = errors.New("runner stopped")

// Loop runs all controllers once per tick from a single goroutine.
// Other goroutines talk to the controllers only by posting messages,
// so controller state needs no locking.
type Loop struct {
	Interval time.Duration
	Clock    func() time.Time

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	messages  []Message
	lock      sync.Mutex
	wakeUpCh  chan struct{}
	iteration uint64
}

var loopCtxKey = &Loop{}

// LoopCtlFrom gets LoopControl from the context passed to runners.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	return l
}

// AddRunnable adds background runners started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages = append(l.messages, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Run implements Runnable. The loop stops when ctx is done or when one of
// its runners returns, e.g. the read loop of a transport closed by the peer.
// The runners are stopped before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	runCtx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(context.WithValue(runCtx, loopCtxKey, LoopControl(l)))
	stoppedCh := make(chan error, len(l.runners))
	for _, r := range l.runners {
		runner.Go(&watchedRunnable{Runnable: r, name: nameOf(r), stoppedCh: stoppedCh})
	}
	defer func() {
		cancel()
		runner.Wait()
	}()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-stoppedCh:
			glog.Errorf("loop stopped: %v", err)
			return err
		case <-ticker.C:
			l.RunIteration(ctx)
		case <-l.wakeUpCh:
			l.RunIteration(ctx)
		}
	}
}

// RunIteration runs all controllers once with the messages posted so far.
// It is called by Run and can be called directly when driving the loop
// step by step.
func (l *Loop) RunIteration(ctx context.Context) {
	now := time.Now
	if l.Clock != nil {
		now = l.Clock
	}
	l.iteration++
	iter := &iteration{ctx: ctx, time: now(), seq: l.iteration}
	l.lock.Lock()
	iter.messages, l.messages = l.messages, nil
	l.lock.Unlock()
	for level := range l.controllers {
		for _, ctl := range l.controllers[level] {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
	if len(iter.messages) > 0 {
		glog.V(3).Infof("%d messages not consumed", len(iter.messages))
	}
}

// watchedRunnable reports a runner returning while the loop is running.
type watchedRunnable struct {
	Runnable
	name      string
	stoppedCh chan<- error
}

func (r *watchedRunnable) Name() string {
	return r.name
}

func (r *watchedRunnable) Run(ctx context.Context) error {
	err := r.Runnable.Run(ctx)
	if ctx.Err() == nil {
		if err == nil {
			err = ErrRunnerStopped
		}
		r.stoppedCh <- fmt.Errorf("%s: %w", r.name, err)
	}
	return err
}

type iteration struct {
	ctx      context.Context
	time     time.Time
	seq      uint64
	messages []Message
}

func (t *iteration) Context() context.Context { return t.ctx }
func (t *iteration) Time() time.Time          { return t.time }
func (t *iteration) Iteration() uint64        { return t.seq }
func (t *iteration) Messages() MessageStore   { return t }
func (t *iteration) Len() int                 { return len(t.messages) }

func (t *iteration) ProcessMessages(fn func(Message) bool) {
	remains := t.messages[:0]
	for _, msg := range t.messages {
		if !fn(msg) {
			remains = append(remains, msg)
		}
	}
	t.messages = remains
}
