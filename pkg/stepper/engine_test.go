package stepper

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Unix(1000, 0)

type stepCounter struct {
	forward, backward int
}

func (c *stepCounter) Step(dir Direction) {
	if dir == Forward {
		c.forward++
	} else {
		c.backward++
	}
}

func newTestEngine(maxSpeed, accel float64) (*Engine, *stepCounter) {
	var c stepCounter
	e := NewEngine(&c)
	e.SetMaxSpeed(maxSpeed)
	e.SetAcceleration(accel)
	return e, &c
}

// runEngine calls Run every tick until the engine stops or the limit is hit,
// and returns the highest absolute speed observed.
func runEngine(t *testing.T, e *Engine, tick time.Duration, limit int) float64 {
	now := baseTime
	var peak float64
	for i := 0; i < limit; i++ {
		running := e.Run(now)
		peak = math.Max(peak, math.Abs(e.Speed()))
		if !running {
			return peak
		}
		now = now.Add(tick)
	}
	t.Fatalf("engine still running after %d ticks", limit)
	return peak
}

func TestEngineReachesTarget(t *testing.T) {
	testCases := []struct {
		name     string
		maxSpeed float64
		accel    float64
		target   int64
	}{
		{"forward", 200, 100, 100},
		{"backward", 200, 100, -100},
		{"short move", 500, 50, 3},
		{"speed limited", 50, 10000, 40},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, c := newTestEngine(tc.maxSpeed, tc.accel)
			e.MoveTo(tc.target)
			require.Equal(t, tc.target, e.DistanceToGo())
			peak := runEngine(t, e, time.Millisecond, 100000)
			require.Equal(t, tc.target, e.CurrentPosition())
			require.EqualValues(t, 0, e.DistanceToGo())
			require.Zero(t, e.Speed())
			require.False(t, e.IsRunning())
			require.LessOrEqual(t, peak, tc.maxSpeed*(1+1e-9))
			if tc.target > 0 {
				require.EqualValues(t, tc.target, c.forward)
				require.Zero(t, c.backward)
			} else {
				require.EqualValues(t, -tc.target, c.backward)
				require.Zero(t, c.forward)
			}
		})
	}
}

func TestEngineRunSpeed(t *testing.T) {
	e, c := newTestEngine(100, 100)
	e.SetSpeed(50)
	now := baseTime
	for i := 0; i < 1000; i++ {
		e.RunSpeed(now)
		now = now.Add(time.Millisecond)
	}
	require.Equal(t, 50, c.forward)
	require.EqualValues(t, 50, e.CurrentPosition())
}

func TestEngineSetSpeedClamped(t *testing.T) {
	e, _ := newTestEngine(10, 100)
	e.SetSpeed(50)
	require.Equal(t, 10.0, e.Speed())
	e.SetSpeed(-50)
	require.Equal(t, -10.0, e.Speed())
	e.SetSpeed(0)
	require.Zero(t, e.Speed())
	require.False(t, e.RunSpeed(baseTime))
}

func TestEngineSetCurrentPosition(t *testing.T) {
	e, _ := newTestEngine(100, 100)
	e.MoveTo(100)
	require.NotZero(t, e.Speed())
	e.SetCurrentPosition(5)
	require.EqualValues(t, 5, e.CurrentPosition())
	require.EqualValues(t, 5, e.TargetPosition())
	require.EqualValues(t, 0, e.DistanceToGo())
	require.Zero(t, e.Speed())
	require.False(t, e.IsRunning())
}

func TestEngineStopDecelerates(t *testing.T) {
	e, c := newTestEngine(1000, 500)
	e.MoveTo(100000)
	now := baseTime
	for e.Speed() < 400 {
		e.Run(now)
		now = now.Add(100 * time.Microsecond)
	}
	e.Stop()
	pos := e.CurrentPosition()
	require.Greater(t, e.TargetPosition(), pos)
	require.Less(t, e.TargetPosition(), int64(100000))
	for i := 0; i < 1000000 && e.Run(now); i++ {
		require.GreaterOrEqual(t, e.CurrentPosition(), pos)
		pos = e.CurrentPosition()
		now = now.Add(100 * time.Microsecond)
	}
	require.False(t, e.IsRunning())
	require.Equal(t, e.TargetPosition(), e.CurrentPosition())
	require.Zero(t, c.backward)
}

func TestEngineStopAtStartSpeed(t *testing.T) {
	e, _ := newTestEngine(1000, 500)
	e.MoveTo(100)
	e.Stop()
	require.EqualValues(t, 0, e.TargetPosition())
	require.EqualValues(t, 0, e.DistanceToGo())
	require.False(t, e.IsRunning())
}

func TestEngineRetarget(t *testing.T) {
	e, _ := newTestEngine(800, 400)
	e.MoveTo(1000)
	now := baseTime
	for i := 0; i < 300; i++ {
		e.Run(now)
		now = now.Add(time.Millisecond)
	}
	require.Greater(t, e.CurrentPosition(), int64(0))
	e.MoveTo(-20)
	for i := 0; i < 100000 && e.Run(now); i++ {
		require.LessOrEqual(t, math.Abs(e.Speed()), 800*(1+1e-9))
		now = now.Add(time.Millisecond)
	}
	require.EqualValues(t, -20, e.CurrentPosition())
	require.Zero(t, e.Speed())
}

func TestEngineRunSpeedToPosition(t *testing.T) {
	e, c := newTestEngine(100, 100)
	e.MoveTo(-5)
	e.SetSpeed(-100)
	now := baseTime
	for i := 0; i < 1000; i++ {
		e.RunSpeedToPosition(now)
		now = now.Add(time.Millisecond)
	}
	require.EqualValues(t, -5, e.CurrentPosition())
	require.Equal(t, 5, c.backward)
}

func TestEngineZeroMaxSpeed(t *testing.T) {
	e, c := newTestEngine(0, 100)
	e.MoveTo(10)
	require.Zero(t, e.Speed())
	e.Run(baseTime)
	require.Zero(t, c.forward)
}

func TestEngineNegativeLimits(t *testing.T) {
	e, _ := newTestEngine(-300, -20)
	require.Equal(t, 300.0, e.MaxSpeed())
	require.Equal(t, 20.0, e.Acceleration())
	e.SetAcceleration(0)
	require.Equal(t, 20.0, e.Acceleration())
}

// requireAccelerationBound fails when a speed change within one step needs
// more than the acceleration limit: |v2²-v1²|/2 <= a.
func requireAccelerationBound(t *testing.T, accel, from, to float64) {
	t.Helper()
	change := math.Abs(to*to-from*from) / 2
	require.LessOrEqualf(t, change, accel*(1+1e-3), "speed %v -> %v exceeds acceleration %v", from, to, accel)
}

func TestEngineAccelerationBound(t *testing.T) {
	const accel = 400
	testCases := []struct {
		name   string
		target int64
		at     int
		then   func(*Engine)
	}{
		{"accelerate and arrive", 2000, 0, nil},
		{"short move", 5, 0, nil},
		{"short move backward", -5, 0, nil},
		{"retarget closer", 2000, 8000, func(e *Engine) { e.MoveTo(300) }},
		{"reverse", 2000, 8000, func(e *Engine) { e.MoveTo(-500) }},
		{"stop at speed", 2000, 8000, func(e *Engine) { e.Stop() }},
		{"stop while accelerating", 2000, 300, func(e *Engine) { e.Stop() }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine(800, accel)
			e.MoveTo(tc.target)
			requireAccelerationBound(t, accel, 0, e.Speed())
			prev := e.Speed()
			now := baseTime
			for i := 0; ; i++ {
				require.Less(t, i, 1000000, "engine still running")
				if i == tc.at && tc.then != nil {
					tc.then(e)
					requireAccelerationBound(t, accel, prev, e.Speed())
					prev = e.Speed()
				}
				running := e.Run(now)
				requireAccelerationBound(t, accel, prev, e.Speed())
				prev = e.Speed()
				if !running && i >= tc.at {
					break
				}
				now = now.Add(100 * time.Microsecond)
			}
			require.Equal(t, e.TargetPosition(), e.CurrentPosition())
			require.Zero(t, e.Speed())
		})
	}
}
