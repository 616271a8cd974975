package config

import (
	"time"

	"github.com/robotalks/cmdstepper/pkg/stepper"
)

// Defaults applied by Normalize.
const (
	DefaultHeader       = "M1"
	DefaultLoopInterval = time.Millisecond
)

// Normalize fills defaults. It must be called after Validate.
func Normalize(cfg *Config) {
	if cfg.LoopInterval == 0 {
		cfg.LoopInterval = DefaultLoopInterval
	}
	if len(cfg.Devices) == 0 {
		cfg.Devices = []Device{{Header: DefaultHeader}}
	}
	for n := range cfg.Devices {
		dev := &cfg.Devices[n]
		if dev.MaxSpeed == nil {
			v := float64(stepper.DefaultMaxSpeed)
			dev.MaxSpeed = &v
		}
		if dev.Acceleration == nil {
			v := float64(stepper.DefaultAcceleration)
			dev.Acceleration = &v
		}
		if dev.AccelerationEnabled == nil {
			v := true
			dev.AccelerationEnabled = &v
		}
	}
}

// Apply configures an actuator with the device settings.
// The device must be normalized.
func (d *Device) Apply(act *stepper.Actuator) {
	act.InvertEnable = d.InvertEnable
	act.SetMaxSpeed(*d.MaxSpeed)
	act.SetAcceleration(*d.Acceleration)
	act.SetConstantSpeed(d.Speed)
	if *d.AccelerationEnabled {
		act.EnableAcceleration()
	} else {
		act.DisableAcceleration()
	}
}
