// Package stepper adds actuator commands to the console.
package stepper

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/cmdstepper/pkg/cli/sh"
	"github.com/robotalks/cmdstepper/pkg/device/accelstepper"
)

func queryCmd(name, token, help string, aliases ...string) *ishell.Cmd {
	return &ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    help,
		Func: sh.MustBeConnected(func(c *ishell.Context, sess *sh.Session) {
			reply, err := sess.Request(token)
			if err != nil {
				c.Err(err)
				return
			}
			if len(reply) == 0 {
				c.Println("OK")
				return
			}
			c.Println(reply[0])
		}),
	}
}

type argKind int

const (
	noArg argKind = iota
	longArg
	floatArg
)

func setCmd(name, token string, kind argKind, help string, aliases ...string) *ishell.Cmd {
	return &ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    help,
		Func: sh.MustBeConnected(func(c *ishell.Context, sess *sh.Session) {
			var args []string
			if kind != noArg {
				if len(c.Args) < 1 {
					c.Err(fmt.Errorf("%s required", help))
					return
				}
				if err := checkArg(kind, c.Args[0]); err != nil {
					c.Err(fmt.Errorf("invalid %s: %v", help, err))
					return
				}
				args = append(args, c.Args[0])
			}
			if err := sess.Send(token, args...); err != nil {
				c.Err(err)
			}
		}),
	}
}

func checkArg(kind argKind, arg string) error {
	var err error
	switch kind {
	case longArg:
		_, err = strconv.ParseInt(arg, 10, 64)
	case floatArg:
		_, err = strconv.ParseFloat(arg, 64)
	}
	return err
}

// WaitIdle polls the moving state until the actuator is idle.
func WaitIdle(sess *sh.Session, poll, limit time.Duration) error {
	deadline := time.Now().Add(limit)
	for {
		reply, err := sess.Request(accelstepper.CmdMoving)
		if err != nil {
			return err
		}
		if len(reply) > 0 && reply[0] == "0" {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("still moving after %s", limit)
		}
		time.Sleep(poll)
	}
}

var (
	// BonjourCmd identifies the device.
	BonjourCmd = queryCmd("bonjour", accelstepper.CmdBonjour, "", "id")
	// PositionCmd queries the current position.
	PositionCmd = queryCmd("pos", accelstepper.CmdCurrentPosition, "", "p")
	// TargetCmd queries the target position.
	TargetCmd = queryCmd("target", accelstepper.CmdTargetPosition, "")
	// DistanceCmd queries the distance to go.
	DistanceCmd = queryCmd("dist", accelstepper.CmdDistanceToGo, "", "q")
	// MovingCmd queries whether the actuator moves.
	MovingCmd = queryCmd("moving", accelstepper.CmdMoving, "", "r")
	// SpeedCmd queries the current speed.
	SpeedCmd = queryCmd("speed", accelstepper.CmdSpeed, "")
	// MaxSpeedCmd queries the max speed.
	MaxSpeedCmd = queryCmd("maxspeed", accelstepper.CmdMaxSpeed, "")
	// AccelCmd queries the acceleration.
	AccelCmd = queryCmd("accel", accelstepper.CmdAcceleration, "")

	// MoveCmd moves relative to the current position.
	MoveCmd = setCmd("move", accelstepper.CmdMove, longArg, "STEPS", "m")
	// MoveToCmd moves to an absolute position.
	MoveToCmd = setCmd("moveto", accelstepper.CmdMoveTo, longArg, "POSITION", "mt")
	// SetPosCmd re-anchors the current position.
	SetPosCmd = setCmd("setpos", accelstepper.CmdSetPosition, longArg, "POSITION", "sp")
	// SetSpeedCmd sets the speed.
	SetSpeedCmd = setCmd("setspeed", accelstepper.CmdSetSpeed, floatArg, "SPEED(steps/s)", "ss")
	// SetMaxSpeedCmd sets the max speed.
	SetMaxSpeedCmd = setCmd("setmaxspeed", accelstepper.CmdSetMaxSpeed, floatArg, "SPEED(steps/s)", "s")
	// SetAccelCmd sets the acceleration.
	SetAccelCmd = setCmd("setaccel", accelstepper.CmdSetAcceleration, floatArg, "ACCEL(steps/s^2)", "sa")
	// EnableAccelCmd enables the acceleration ramp.
	EnableAccelCmd = setCmd("accel.on", accelstepper.CmdEnableAcceleration, noArg, "", "ea")
	// DisableAccelCmd disables the acceleration ramp.
	DisableAccelCmd = setCmd("accel.off", accelstepper.CmdDisableAcceleration, noArg, "", "da")
	// StopCmd stops the actuator.
	StopCmd = setCmd("stop", accelstepper.CmdStop, noArg, "", "x")

	// WaitCmd waits until the actuator is idle.
	WaitCmd = &ishell.Cmd{
		Name: "wait",
		Help: "[TIMEOUT]",
		Func: sh.MustBeConnected(func(c *ishell.Context, sess *sh.Session) {
			limit := 30 * time.Second
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid TIMEOUT: %v", err))
					return
				}
				limit = d
			}
			if err := WaitIdle(sess, 20*time.Millisecond, limit); err != nil {
				c.Err(err)
				return
			}
			c.Println("idle")
		}),
	}
)

func init() {
	sh.AddCmds(
		BonjourCmd,
		PositionCmd,
		TargetCmd,
		DistanceCmd,
		MovingCmd,
		SpeedCmd,
		MaxSpeedCmd,
		AccelCmd,
		MoveCmd,
		MoveToCmd,
		SetPosCmd,
		SetSpeedCmd,
		SetMaxSpeedCmd,
		SetAccelCmd,
		EnableAccelCmd,
		DisableAccelCmd,
		StopCmd,
		WaitCmd,
	)
}
