package transport

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/cmdstepper/pkg/framework"
)

// DefaultReadBufferSize is the size of each read from the connection.
const DefaultReadBufferSize = 256

// Link connects a byte stream to the loop. Received lines are posted to
// the loop as LineMsg, and writes are serialized so every outgoing
// message is a single write on the connection.
type Link struct {
	Name string
	Conn io.ReadWriteCloser

	framer    *Framer
	writeLock sync.Mutex
	observer  LinkObserver
}

// LinkObserver is notified about traffic on a Link.
type LinkObserver interface {
	LineReceived()
	LineDiscarded()
	MessageSent(size int, err error)
}

// NewLink creates a Link over conn.
func NewLink(name string, conn io.ReadWriteCloser) *Link {
	return &Link{Name: name, Conn: conn, framer: NewFramer()}
}

// WithObserver sets the traffic observer.
func (l *Link) WithObserver(o LinkObserver) *Link {
	l.observer = o
	return l
}

// Write implements io.Writer.
func (l *Link) Write(p []byte) (int, error) {
	l.writeLock.Lock()
	n, err := l.Conn.Write(p)
	l.writeLock.Unlock()
	if err != nil {
		glog.Warningf("%s: write error: %v", l.Name, err)
	} else {
		glog.V(2).Infof("%s: SND %q", l.Name, p)
	}
	if o := l.observer; o != nil {
		o.MessageSent(n, err)
	}
	return n, err
}

// Close implements io.Closer.
func (l *Link) Close() error {
	return l.Conn.Close()
}

// Run implements Runnable.
func (l *Link) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	return fx.RunWithContextCloser(ctx, l.Conn, func() error {
		return l.readLoop(loopCtl)
	})
}

// AddToLoop implements LoopAdder.
func (l *Link) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun(l.Name, l))
}

func (l *Link) readLoop(loopCtl fx.LoopControl) error {
	buf := make([]byte, DefaultReadBufferSize)
	for {
		n, err := l.Conn.Read(buf)
		if n > 0 {
			l.feed(buf[:n], loopCtl)
		}
		if err != nil {
			if err == io.EOF {
				glog.Infof("%s: closed by peer", l.Name)
			}
			return err
		}
	}
}

func (l *Link) feed(data []byte, loopCtl fx.LoopControl) {
	discarded := l.framer.Discarded()
	var posted bool
	l.framer.Feed(data, func(line string) {
		glog.V(2).Infof("%s: RCV %q", l.Name, line)
		loopCtl.PostMessage(LineMsg{Line: line})
		posted = true
		if o := l.observer; o != nil {
			o.LineReceived()
		}
	})
	for ; discarded < l.framer.Discarded(); discarded++ {
		glog.Warningf("%s: line too long, discarded", l.Name)
		if o := l.observer; o != nil {
			o.LineDiscarded()
		}
	}
	if posted {
		loopCtl.TriggerNext()
	}
}
