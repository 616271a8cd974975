// Package framework provides the cooperative control loop running the
// command dispatch and actuator updates, and helpers to run background
// goroutines feeding it.
package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything posted to the loop from other goroutines,
// e.g. a command line received from a transport.
type Message interface{}

// Controller is called once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext is the context of one loop iteration.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Iteration is the sequence number of the iteration, starting from 1.
	Iteration() uint64
	// Messages retrieves the messages posted before this iteration started.
	Messages() MessageStore
}

// MessageStore holds the messages of one iteration.
type MessageStore interface {
	// ProcessMessages calls fn on every message in order.
	// Messages for which fn returns true are removed.
	ProcessMessages(fn func(Message) bool)
	// Len returns the number of remaining messages.
	Len() int
}

// LoopControl exposes the loop to other goroutines.
type LoopControl interface {
	// PostMessage enqueues a message for the next iteration.
	PostMessage(Message)
	// TriggerNext schedules the next iteration immediately.
	TriggerNext()
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// Priority levels, lower runs first within an iteration.
const (
	PrLvInput   int = 0
	PrLvControl int = 4
	PrLvActuate int = 8
	PrLvReport  int = 12
	PrLvIdle    int = PriorityLevels - 1

	PriorityLevels int = 16
)
