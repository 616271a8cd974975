package config

import (
	"fmt"

	"github.com/robotalks/cmdstepper/pkg/command"
	"github.com/robotalks/cmdstepper/pkg/device/accelstepper"
)

// Validate checks the configuration without modifying it.
func Validate(cfg *Config) error {
	if cfg.LoopInterval < 0 {
		return fmt.Errorf("loop_interval must not be negative")
	}
	headers := make(map[string]int)
	for n, dev := range cfg.Devices {
		if dev.Header == "" {
			return fmt.Errorf("devices[%d]: header is required", n)
		}
		if len(dev.Header) > command.MaxHeaderLen || !command.ValidToken(dev.Header) {
			return fmt.Errorf("devices[%d]: invalid header %q", n, dev.Header)
		}
		if accelstepper.IsToken(dev.Header) {
			return fmt.Errorf("devices[%d]: header %q is a command token", n, dev.Header)
		}
		if prev, exists := headers[dev.Header]; exists {
			return fmt.Errorf("devices[%d]: header %q already used by devices[%d]", n, dev.Header, prev)
		}
		headers[dev.Header] = n
		if dev.MaxSpeed != nil && *dev.MaxSpeed <= 0 {
			return fmt.Errorf("device %s: max_speed must be positive", dev.Header)
		}
		if dev.Acceleration != nil && *dev.Acceleration <= 0 {
			return fmt.Errorf("device %s: acceleration must be positive", dev.Header)
		}
		if dev.Speed < 0 {
			return fmt.Errorf("device %s: speed must not be negative", dev.Header)
		}
	}
	return nil
}
