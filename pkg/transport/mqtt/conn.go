package mqtt

import (
	"io"
	"sync"

	"github.com/golang/glog"
)

// Default topics relative to the queue prefix.
const (
	CmdTopic = "cmd"
	MsgTopic = "msg"
)

// Conn is a byte stream over two topics: payloads received on SubTopic
// are read in order, each Write is published to PubTopic.
type Conn struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	lock    sync.Mutex
	cond    *sync.Cond
	pending []byte
	closed  bool
}

// NewConn creates a Conn reading CmdTopic and writing MsgTopic.
// The subscription is made immediately.
func NewConn(q *Queue) *Conn {
	c := &Conn{Queue: q, SubTopic: CmdTopic, PubTopic: MsgTopic}
	c.cond = sync.NewCond(&c.lock)
	if q != nil {
		if token := q.Sub(c.SubTopic, c.handleMsg); token.Wait() && token.Error() != nil {
			glog.Warningf("subscribe %s: %v", c.SubTopic, token.Error())
		}
	}
	return c
}

// Read implements io.Reader.
func (c *Conn) Read(p []byte) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for len(c.pending) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write implements io.Writer. It doesn't wait for the broker, publish
// errors are only logged.
func (c *Conn) Write(p []byte) (int, error) {
	token := c.Queue.Pub(c.PubTopic, append([]byte(nil), p...))
	go func() {
		if token.Wait(); token.Error() != nil {
			glog.Warningf("publish %s: %v", c.PubTopic, token.Error())
		}
	}()
	return len(p), nil
}

// Close implements io.Closer. The queue is disconnected.
func (c *Conn) Close() error {
	c.lock.Lock()
	wasClosed := c.closed
	c.closed = true
	c.cond.Broadcast()
	c.lock.Unlock()
	if wasClosed || c.Queue == nil {
		return nil
	}
	return c.Queue.Close()
}

func (c *Conn) handleMsg(_ string, payload []byte) {
	c.lock.Lock()
	if !c.closed {
		c.pending = append(c.pending, payload...)
		c.cond.Broadcast()
	}
	c.lock.Unlock()
}
