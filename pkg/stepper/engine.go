package stepper

import (
	"math"
	"time"
)

// Engine computes step timing from the target position, the current speed
// and the speed/acceleration limits. It never sleeps: each Run call emits at
// most one step when the step interval elapsed.
//
// Step intervals follow David Austin's approximation of a linear speed ramp:
// c0 = 0.676 * sqrt(2/a), cn = cn-1 - 2*cn-1/(4n+1), bounded by 1/maxSpeed.
type Engine struct {
	Driver StepDriver

	currentPos   int64
	targetPos    int64
	speed        float64 // steps/s, negative backwards
	maxSpeed     float64
	acceleration float64

	stepInterval time.Duration
	lastStepTime time.Time
	direction    Direction

	// step counter of the current ramp, negative while decelerating.
	n int64
	// intervals in microseconds.
	c0, cn, cmin float64
}

// NewEngine creates an Engine with max speed and acceleration of 1.
func NewEngine(drv StepDriver) *Engine {
	e := &Engine{Driver: drv, direction: Forward}
	e.SetMaxSpeed(1)
	e.SetAcceleration(1)
	return e
}

// CurrentPosition returns the current position in steps.
func (e *Engine) CurrentPosition() int64 { return e.currentPos }

// TargetPosition returns the target position in steps.
func (e *Engine) TargetPosition() int64 { return e.targetPos }

// DistanceToGo returns target - current.
func (e *Engine) DistanceToGo() int64 { return e.targetPos - e.currentPos }

// Speed returns the current speed in steps per second.
func (e *Engine) Speed() float64 { return e.speed }

// MaxSpeed returns the speed limit.
func (e *Engine) MaxSpeed() float64 { return e.maxSpeed }

// Acceleration returns the acceleration in steps per second squared.
func (e *Engine) Acceleration() float64 { return e.acceleration }

// IsRunning reports whether the motor is moving or has somewhere to go.
func (e *Engine) IsRunning() bool {
	return e.speed != 0 || e.targetPos != e.currentPos
}

// SetCurrentPosition re-anchors the position and stops the motor.
func (e *Engine) SetCurrentPosition(pos int64) {
	e.currentPos, e.targetPos = pos, pos
	e.n, e.stepInterval, e.speed = 0, 0, 0
}

// MoveTo sets an absolute target and recomputes the ramp.
func (e *Engine) MoveTo(pos int64) {
	if e.targetPos != pos {
		e.targetPos = pos
		e.computeNewSpeed()
	}
}

// Move sets a target relative to the current position.
func (e *Engine) Move(delta int64) {
	e.MoveTo(e.currentPos + delta)
}

// SetMaxSpeed sets the speed limit. Negative values are taken as absolute.
func (e *Engine) SetMaxSpeed(speed float64) {
	speed = math.Abs(speed)
	if e.maxSpeed == speed {
		return
	}
	e.maxSpeed = speed
	if speed > 0 {
		e.cmin = 1e6 / speed
	} else {
		e.cmin = math.Inf(1)
	}
	if e.n > 0 {
		e.n = e.stepsToStop()
		e.computeNewSpeed()
	}
}

// SetAcceleration sets the acceleration. Zero is ignored, negative values
// are taken as absolute.
func (e *Engine) SetAcceleration(accel float64) {
	accel = math.Abs(accel)
	if accel == 0 || e.acceleration == accel {
		return
	}
	if e.acceleration != 0 {
		e.n = int64(float64(e.n) * (e.acceleration / accel))
	}
	e.c0 = 0.676 * math.Sqrt(2.0/accel) * 1e6
	e.acceleration = accel
	e.computeNewSpeed()
}

// SetSpeed sets a constant speed, bounded by the max speed.
// It is used with RunSpeed and RunSpeedToPosition.
func (e *Engine) SetSpeed(speed float64) {
	speed = math.Max(-e.maxSpeed, math.Min(e.maxSpeed, speed))
	if speed == e.speed {
		return
	}
	if speed == 0 {
		e.stepInterval = 0
	} else {
		e.stepInterval = microseconds(1e6 / math.Abs(speed))
		if speed > 0 {
			e.direction = Forward
		} else {
			e.direction = Backward
		}
	}
	e.speed = speed
}

// Stop decelerates to a stop as quickly as the acceleration allows by moving
// the target to the nearest reachable position. When the ramp hasn't
// progressed beyond its start speed the motor stops in place.
func (e *Engine) Stop() {
	if e.speed == 0 || e.n == 0 || e.n == 1 {
		e.SetCurrentPosition(e.currentPos)
		return
	}
	steps := e.stepsToStop() + 1
	if e.speed > 0 {
		e.Move(steps)
	} else {
		e.Move(-steps)
	}
}

// Run steps at most once along the acceleration ramp and reports whether
// the motor is still running.
func (e *Engine) Run(now time.Time) bool {
	if e.RunSpeed(now) {
		e.computeNewSpeed()
	}
	return e.IsRunning()
}

// RunSpeed steps at most once at the current speed and reports whether a
// step was taken.
func (e *Engine) RunSpeed(now time.Time) bool {
	if e.stepInterval == 0 {
		return false
	}
	if !e.lastStepTime.IsZero() && now.Sub(e.lastStepTime) < e.stepInterval {
		return false
	}
	e.currentPos += int64(e.direction)
	if drv := e.Driver; drv != nil {
		drv.Step(e.direction)
	}
	e.lastStepTime = now
	return true
}

// RunSpeedToPosition steps at most once at the current speed towards the
// target and reports whether a step was taken.
func (e *Engine) RunSpeedToPosition(now time.Time) bool {
	if e.targetPos == e.currentPos {
		return false
	}
	if e.targetPos > e.currentPos {
		e.direction = Forward
	} else {
		e.direction = Backward
	}
	return e.RunSpeed(now)
}

// resumeRamp continues the acceleration ramp from the current speed, which
// may have been set outside of the ramp, instead of restarting it.
// The step count is picked so the next speed change stays within the
// acceleration.
func (e *Engine) resumeRamp() {
	if e.speed == 0 {
		e.n = 0
		e.computeNewSpeed()
		return
	}
	e.n = int64(math.Ceil(e.speed*e.speed/(2.0*e.acceleration) + 0.5))
	e.cn = 1e6 / math.Abs(e.speed)
}

func (e *Engine) stepsToStop() int64 {
	return int64(e.speed * e.speed / (2.0 * e.acceleration))
}

func (e *Engine) computeNewSpeed() {
	distanceTo := e.DistanceToGo()
	stepsToStop := e.stepsToStop()
	if (distanceTo == 0 && stepsToStop <= 1) || e.maxSpeed == 0 {
		e.stepInterval, e.speed, e.n = 0, 0, 0
		return
	}

	// the speed of step n belongs to the interval after it, so braking
	// starts one step before the stop distance equals the distance to go.
	switch {
	case distanceTo > 0:
		if e.n > 0 {
			// accelerating, start decelerating if stop point reached or going the wrong way.
			if stepsToStop+1 >= distanceTo || e.direction == Backward {
				e.n = -stepsToStop
			}
		} else if e.n < 0 {
			// decelerating, accelerate again if there is room in the right direction.
			if stepsToStop+1 < distanceTo && e.direction == Forward {
				e.n = -e.n
			}
		}
	case distanceTo < 0:
		if e.n > 0 {
			if stepsToStop+1 >= -distanceTo || e.direction == Forward {
				e.n = -stepsToStop
			}
		} else if e.n < 0 {
			if stepsToStop+1 < -distanceTo && e.direction == Backward {
				e.n = -e.n
			}
		}
	}

	if e.n == 0 {
		e.cn = math.Max(e.c0, e.cmin)
		if distanceTo > 0 {
			e.direction = Forward
		} else {
			e.direction = Backward
		}
	} else {
		e.cn = e.cn - (2.0*e.cn)/(4.0*float64(e.n)+1)
		e.cn = math.Max(e.cn, e.cmin)
	}
	e.n++
	e.stepInterval = microseconds(e.cn)
	e.speed = 1e6 / e.cn
	if e.direction == Backward {
		e.speed = -e.speed
	}
}

func microseconds(us float64) time.Duration {
	return time.Duration(us * float64(time.Microsecond))
}
