package accelstepper

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/cmdstepper/pkg/stepper"
)

type deviceTestEnv struct {
	t   *testing.T
	out bytes.Buffer
	dev *Device
}

func newDeviceTestEnv(t *testing.T, header string) *deviceTestEnv {
	env := &deviceTestEnv{t: t}
	env.dev = New(&env.out, stepper.NewActuator(nil, nil))
	require.NoError(t, env.dev.SetHeader(header))
	env.dev.Init()
	return env
}

func (e *deviceTestEnv) send(lines ...string) string {
	e.out.Reset()
	for _, line := range lines {
		e.dev.HandleCommand(line)
	}
	return e.out.String()
}

func TestDeviceQueries(t *testing.T) {
	env := newDeviceTestEnv(t, "")
	env.send("SP,10", "S,500", "SA,250", "MT,40")
	testCases := []struct {
		query  string
		expect string
	}{
		{"BONJOUR", "BONJOUR,ACCELSTEPPER;"},
		{"R", "R,1;"},
		{"Q", "Q,30;"},
		{"T", "T,40;"},
		{"P", "P,10;"},
		{"RMS", "RMS,500;"},
		{"RA", "RA,250;"},
	}
	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			require.Equal(t, tc.expect, env.send(tc.query))
		})
	}
}

func TestDeviceRelativeMoveThenDistance(t *testing.T) {
	env := newDeviceTestEnv(t, "")
	require.Empty(t, env.send("M,100"))
	require.Equal(t, "Q,100;", env.send("Q"))
}

func TestDeviceInvalidArgumentIsSilent(t *testing.T) {
	env := newDeviceTestEnv(t, "")
	env.send("S,300")
	require.Empty(t, env.send("S,abc"))
	require.Empty(t, env.send("S"))
	require.Equal(t, 300.0, env.dev.Actuator.MaxSpeed())
	require.Equal(t, "RMS,300;", env.send("RMS"))

	before := env.dev.Snapshot()
	require.Empty(t, env.send("MT", "M,x", "SP,1.5", "SA,", "SS,fast"))
	require.Equal(t, before, env.dev.Snapshot())
}

func TestDeviceUnrecognized(t *testing.T) {
	env := newDeviceTestEnv(t, "")
	require.Equal(t, "?,Z;", env.send("Z"))
	require.Equal(t, "?,MOVE;", env.send("MOVE,10"))
}

func TestDeviceHeaderPrefix(t *testing.T) {
	env := newDeviceTestEnv(t, "M1")
	require.Equal(t, "M1,P,0;", env.send("P"))
	require.Equal(t, "M1,?,Z;", env.send("Z"))
}

func TestDeviceQueriesAreRepeatable(t *testing.T) {
	env := newDeviceTestEnv(t, "")
	env.send("MT,25")
	before := env.dev.Snapshot()
	out := env.send("P", "P", "P")
	require.Equal(t, strings.Repeat("P,0;", 3), out)
	require.Equal(t, before, env.dev.Snapshot())
}

func TestDeviceMoveToTwice(t *testing.T) {
	env := newDeviceTestEnv(t, "")
	env.send("MT,60")
	env.send("MT,60")
	require.Equal(t, "T,60;", env.send("T"))
}

func TestDeviceSetPositionAnchors(t *testing.T) {
	env := newDeviceTestEnv(t, "")
	env.send("MT,60", "SP,-7")
	require.Equal(t, "Q,0;P,-7;T,-7;R,0;", env.send("Q", "P", "T", "R"))
}

func TestDeviceMotion(t *testing.T) {
	env := newDeviceTestEnv(t, "")
	env.send("DA", "SS,1000", "M,3")
	now := time.Unix(1000, 0)
	for i := 0; i < 10; i++ {
		env.dev.Update(now)
		now = now.Add(time.Millisecond)
	}
	require.Equal(t, "P,3;Q,0;R,0;", env.send("P", "Q", "R"))

	env.send("EA", "X")
	require.True(t, env.dev.Actuator.AccelerationEnabled())
	require.Equal(t, "T,3;", env.send("T"))
}

func TestDeviceAnswersEveryToken(t *testing.T) {
	env := newDeviceTestEnv(t, "")
	for _, token := range Tokens {
		require.NotContains(t, env.send(token), "?", token)
	}
	require.False(t, IsToken("M1"))
	require.True(t, IsToken(CmdSetMaxSpeed))
}
