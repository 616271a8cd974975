package stepper

import (
	"math"
	"time"

	"github.com/golang/glog"
)

// Defaults for a new Actuator.
const (
	DefaultMaxSpeed     float64 = 1000
	DefaultAcceleration float64 = 1000
)

// Actuator is a linear actuator moved by a stepper motor.
// Commands only change the target or the limits; motion happens in Update
// which must be called frequently from the control loop.
//
// With acceleration enabled moves follow the Engine's acceleration ramp.
// With acceleration disabled moves run at the constant speed set by
// SetSpeed (or the max speed when none was set).
// The enable pin is asserted while moving and released when idle.
type Actuator struct {
	Engine       *Engine
	EnablePin    Pin
	InvertEnable bool

	accelEnabled  bool
	constantSpeed float64
	enabled       bool
}

// NewActuator creates an Actuator with default limits and acceleration enabled.
func NewActuator(drv StepDriver, enablePin Pin) *Actuator {
	if enablePin == nil {
		enablePin = NopPin{}
	}
	a := &Actuator{
		Engine:       NewEngine(drv),
		EnablePin:    enablePin,
		accelEnabled: true,
	}
	a.Engine.SetMaxSpeed(DefaultMaxSpeed)
	a.Engine.SetAcceleration(DefaultAcceleration)
	return a
}

// Init releases the driver. It is called once before the first Update.
func (a *Actuator) Init() {
	a.enabled = false
	a.writeEnable(false)
}

// SetCurrentPosition re-anchors the position, the actuator stops in place.
func (a *Actuator) SetCurrentPosition(pos int64) {
	a.Engine.SetCurrentPosition(pos)
}

// SetSpeed sets the speed directly, bypassing the acceleration ramp.
// The magnitude is remembered for moves with acceleration disabled.
// With acceleration enabled an idle actuator only remembers it, otherwise
// the ramp continues from the new speed.
func (a *Actuator) SetSpeed(speed float64) {
	a.constantSpeed = math.Abs(speed)
	if !a.accelEnabled {
		a.Engine.SetSpeed(speed)
		return
	}
	if !a.IsMoving() {
		return
	}
	a.Engine.SetSpeed(speed)
	a.Engine.resumeRamp()
}

// SetConstantSpeed sets the speed of moves with acceleration disabled
// without changing the current speed. Zero selects the max speed.
func (a *Actuator) SetConstantSpeed(speed float64) {
	a.constantSpeed = math.Abs(speed)
	if !a.accelEnabled {
		a.applyConstantSpeed()
	}
}

// SetMaxSpeed sets the speed limit.
func (a *Actuator) SetMaxSpeed(speed float64) {
	a.Engine.SetMaxSpeed(speed)
	if !a.accelEnabled {
		a.applyConstantSpeed()
	}
}

// SetAcceleration sets the acceleration limit.
func (a *Actuator) SetAcceleration(accel float64) {
	a.Engine.SetAcceleration(accel)
	if !a.accelEnabled {
		a.applyConstantSpeed()
	}
}

// EnableAcceleration makes Update follow the acceleration ramp, starting
// from the current speed.
func (a *Actuator) EnableAcceleration() {
	if a.accelEnabled {
		return
	}
	a.accelEnabled = true
	a.Engine.resumeRamp()
}

// DisableAcceleration makes Update run at constant speed.
func (a *Actuator) DisableAcceleration() {
	if !a.accelEnabled {
		return
	}
	a.accelEnabled = false
	a.applyConstantSpeed()
}

// AccelerationEnabled reports the motion mode.
func (a *Actuator) AccelerationEnabled() bool {
	return a.accelEnabled
}

// MoveTo sets an absolute target.
func (a *Actuator) MoveTo(pos int64) {
	a.Engine.MoveTo(pos)
	if !a.accelEnabled {
		a.applyConstantSpeed()
	}
}

// Move sets a target relative to the current position.
func (a *Actuator) Move(delta int64) {
	a.MoveTo(a.Engine.CurrentPosition() + delta)
}

// Stop cancels the current move. Without acceleration the actuator
// stops in place, otherwise it decelerates to the nearest stop point.
func (a *Actuator) Stop() {
	if a.accelEnabled {
		a.Engine.Stop()
		return
	}
	a.Engine.SetCurrentPosition(a.Engine.CurrentPosition())
}

// Update advances the motor by at most one step. It never blocks.
func (a *Actuator) Update(now time.Time) {
	if a.accelEnabled {
		a.Engine.Run(now)
	} else if a.Engine.DistanceToGo() != 0 {
		a.Engine.RunSpeedToPosition(now)
	} else if a.Engine.Speed() != 0 {
		a.Engine.SetSpeed(0)
	}
	if moving := a.IsMoving(); moving != a.enabled {
		a.enabled = moving
		a.writeEnable(moving)
	}
}

// Speed returns the current speed.
func (a *Actuator) Speed() float64 { return a.Engine.Speed() }

// MaxSpeed returns the speed limit.
func (a *Actuator) MaxSpeed() float64 { return a.Engine.MaxSpeed() }

// Acceleration returns the acceleration limit.
func (a *Actuator) Acceleration() float64 { return a.Engine.Acceleration() }

// IsMoving reports whether there is distance to go or the speed is not zero.
func (a *Actuator) IsMoving() bool { return a.Engine.IsRunning() }

// DistanceToGo returns target - current.
func (a *Actuator) DistanceToGo() int64 { return a.Engine.DistanceToGo() }

// TargetPosition returns the target position.
func (a *Actuator) TargetPosition() int64 { return a.Engine.TargetPosition() }

// CurrentPosition returns the current position.
func (a *Actuator) CurrentPosition() int64 { return a.Engine.CurrentPosition() }

// Enabled reports whether the driver is currently enabled.
func (a *Actuator) Enabled() bool { return a.enabled }

// Snapshot captures the actuator state.
func (a *Actuator) Snapshot() State {
	return State{
		Position:            a.CurrentPosition(),
		Target:              a.TargetPosition(),
		Speed:               a.Speed(),
		MaxSpeed:            a.MaxSpeed(),
		Acceleration:        a.Acceleration(),
		AccelerationEnabled: a.accelEnabled,
		Moving:              a.IsMoving(),
		Enabled:             a.enabled,
	}
}

func (a *Actuator) applyConstantSpeed() {
	speed := a.constantSpeed
	if speed == 0 {
		speed = a.Engine.MaxSpeed()
	}
	switch dist := a.Engine.DistanceToGo(); {
	case dist > 0:
		a.Engine.SetSpeed(speed)
	case dist < 0:
		a.Engine.SetSpeed(-speed)
	default:
		a.Engine.SetSpeed(0)
	}
}

func (a *Actuator) writeEnable(on bool) {
	glog.V(3).Infof("actuator driver enable=%v", on)
	a.EnablePin.Set(on != a.InvertEnable)
}
