// Package config loads the controller configuration from YAML.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the controller configuration.
type Config struct {
	Transport    string        `yaml:"transport"`
	Telemetry    string        `yaml:"telemetry"`
	MetricsAddr  string        `yaml:"metrics_addr"`
	LoopInterval time.Duration `yaml:"loop_interval"`
	Devices      []Device      `yaml:"devices"`
}

// Device configures one actuator. Unset fields take the actuator defaults.
type Device struct {
	Header              string   `yaml:"header"`
	MaxSpeed            *float64 `yaml:"max_speed"`
	Acceleration        *float64 `yaml:"acceleration"`
	AccelerationEnabled *bool    `yaml:"acceleration_enabled"`
	Speed               float64  `yaml:"speed"`
	InvertEnable        bool     `yaml:"invert_enable"`
}

// Load reads, validates and normalizes a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, validates and normalizes a config. Unknown keys are errors.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)
	return &cfg, nil
}
