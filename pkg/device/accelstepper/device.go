// Package accelstepper exposes a stepper.Actuator through the text command protocol.
package accelstepper

import (
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cmdstepper/pkg/command"
	"github.com/robotalks/cmdstepper/pkg/stepper"
)

// Device handles commands for one actuator.
//
// Setters read their argument and apply it only when it parsed, otherwise
// the command is dropped without reply. Queries reply immediately with the
// query token and the value.
type Device struct {
	Actuator *stepper.Actuator

	cmds *command.Handler
}

// New creates a Device writing replies to w.
func New(w io.Writer, act *stepper.Actuator) *Device {
	return &Device{Actuator: act, cmds: command.NewHandler(w)}
}

// Commands returns the command handler of the device.
func (d *Device) Commands() *command.Handler {
	return d.cmds
}

// Init implements manager.Device.
func (d *Device) Init() {
	glog.Infof("init accelstepper %q", d.cmds.CmdHeader())
	d.Actuator.Init()

	d.cmds.AddCommand(CmdBonjour, d.bonjour)

	d.cmds.AddCommand(CmdSetPosition, d.setCurrentPosition)
	d.cmds.AddCommand(CmdSetSpeed, d.setSpeed)
	d.cmds.AddCommand(CmdSetMaxSpeed, d.setMaxSpeed)
	d.cmds.AddCommand(CmdSetAcceleration, d.setAcceleration)
	d.cmds.AddCommand(CmdEnableAcceleration, d.Actuator.EnableAcceleration)
	d.cmds.AddCommand(CmdDisableAcceleration, d.Actuator.DisableAcceleration)

	d.cmds.AddCommand(CmdMoveTo, d.moveTo)
	d.cmds.AddCommand(CmdMove, d.move)
	d.cmds.AddCommand(CmdStop, d.Actuator.Stop)

	d.cmds.AddCommand(CmdMoving, d.isMoving)
	d.cmds.AddCommand(CmdDistanceToGo, d.distanceToGo)
	d.cmds.AddCommand(CmdTargetPosition, d.targetPosition)
	d.cmds.AddCommand(CmdCurrentPosition, d.currentPosition)
	d.cmds.AddCommand(CmdSpeed, d.speed)
	d.cmds.AddCommand(CmdMaxSpeed, d.maxSpeed)
	d.cmds.AddCommand(CmdAcceleration, d.acceleration)

	d.cmds.SetDefaultHandler(d.unrecognized)
}

// SetHeader implements manager.Device.
func (d *Device) SetHeader(header string) error {
	return d.cmds.SetCmdHeader(header)
}

// HandleCommand implements manager.Device.
func (d *Device) HandleCommand(line string) {
	glog.V(2).Infof("accelstepper %q received %q", d.cmds.CmdHeader(), line)
	d.cmds.ProcessString(line)
}

// Update implements manager.Device.
func (d *Device) Update(now time.Time) {
	d.Actuator.Update(now)
}

// Snapshot returns the actuator state.
func (d *Device) Snapshot() stepper.State {
	return d.Actuator.Snapshot()
}

func (d *Device) reply(token string, value interface{}) {
	if err := d.cmds.SendCmd(token, value); err != nil {
		glog.Warningf("accelstepper %q reply %s: %v", d.cmds.CmdHeader(), token, err)
	}
}

func (d *Device) bonjour() {
	d.reply(CmdBonjour, BonjourID)
}

func (d *Device) unrecognized(token string) {
	if err := d.cmds.Unrecognized(token); err != nil {
		glog.Warningf("accelstepper %q reply ?: %v", d.cmds.CmdHeader(), err)
	}
}

func (d *Device) setCurrentPosition() {
	if steps, ok := d.cmds.ReadLongArg(); ok {
		d.Actuator.SetCurrentPosition(steps)
	}
}

func (d *Device) setSpeed() {
	if stepsPerSec, ok := d.cmds.ReadFloatArg(); ok {
		d.Actuator.SetSpeed(stepsPerSec)
	}
}

func (d *Device) setMaxSpeed() {
	if stepsPerSec, ok := d.cmds.ReadFloatArg(); ok {
		d.Actuator.SetMaxSpeed(stepsPerSec)
	}
}

func (d *Device) setAcceleration() {
	if stepsPerSecPerSec, ok := d.cmds.ReadFloatArg(); ok {
		d.Actuator.SetAcceleration(stepsPerSecPerSec)
	}
}

func (d *Device) moveTo() {
	if steps, ok := d.cmds.ReadLongArg(); ok {
		d.Actuator.MoveTo(steps)
	}
}

func (d *Device) move() {
	if steps, ok := d.cmds.ReadLongArg(); ok {
		d.Actuator.Move(steps)
	}
}

func (d *Device) isMoving() {
	d.reply(CmdMoving, d.Actuator.IsMoving())
}

func (d *Device) distanceToGo() {
	d.reply(CmdDistanceToGo, d.Actuator.DistanceToGo())
}

func (d *Device) targetPosition() {
	d.reply(CmdTargetPosition, d.Actuator.TargetPosition())
}

func (d *Device) currentPosition() {
	d.reply(CmdCurrentPosition, d.Actuator.CurrentPosition())
}

func (d *Device) speed() {
	d.reply(CmdSpeed, d.Actuator.Speed())
}

func (d *Device) maxSpeed() {
	d.reply(CmdMaxSpeed, d.Actuator.MaxSpeed())
}

func (d *Device) acceleration() {
	d.reply(CmdAcceleration, d.Actuator.Acceleration())
}
