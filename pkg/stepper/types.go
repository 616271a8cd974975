// Package stepper drives a stepper motor towards target positions using
// acceleration profiles, one step at a time.
package stepper

// Direction of a step.
type Direction int8

// Directions
const (
	Backward Direction = -1
	Forward  Direction = 1
)

// StepDriver emits step pulses to the motor driver.
type StepDriver interface {
	Step(Direction)
}

// StepFunc is func form of StepDriver.
type StepFunc func(Direction)

// Step implements StepDriver.
func (f StepFunc) Step(dir Direction) {
	f(dir)
}

// Pin is a binary output, e.g. the enable input of a motor driver.
type Pin interface {
	Set(high bool)
}

// PinFunc is func form of Pin.
type PinFunc func(bool)

// Set implements Pin.
func (f PinFunc) Set(high bool) {
	f(high)
}

// NopPin ignores all writes.
type NopPin struct{}

// Set implements Pin.
func (NopPin) Set(bool) {}

// State is a snapshot of an actuator.
type State struct {
	Position            int64
	Target              int64
	Speed               float64
	MaxSpeed            float64
	Acceleration        float64
	AccelerationEnabled bool
	Moving              bool
	Enabled             bool
}
