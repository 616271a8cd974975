// Package env sets up the process environment of the controller:
// command line flags, environment variables, the config file and
// the transports they name.
package env

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/robotalks/cmdstepper/pkg/config"
	"github.com/robotalks/cmdstepper/pkg/telemetry"
	"github.com/robotalks/cmdstepper/pkg/transport"
	"github.com/robotalks/cmdstepper/pkg/transport/mqtt"
)

// DefaultTransport is used when neither flags nor the config file name one.
const DefaultTransport = "serial:///dev/ttyACM0"

// Environment variables overriding the defaults.
const (
	EnvTransport = "STEPPER_TRANSPORT"
	EnvConfig    = "STEPPER_CONFIG"
	EnvTelemetry = "STEPPER_TELEMETRY"
)

// Config holds the options given by flags and environment variables.
// Non-empty values take precedence over the config file.
type Config struct {
	// Transport is the URL of the command link,
	// e.g. serial:///dev/ttyACM0?baud=115200 or mqtt://host:1883/prefix/
	Transport string
	// ConfigFile is the path of the YAML config.
	ConfigFile string
	// Telemetry is the MQTT broker URL status is published to.
	Telemetry string
	// MetricsAddr is the listen address of the Prometheus endpoint.
	MetricsAddr string
	// ClientID is the MQTT client id, defaults to cmdstepper:<machine-id>.
	ClientID string
}

var defaultConfig Config

func init() {
	defaultConfig.Transport = os.Getenv(EnvTransport)
	defaultConfig.ConfigFile = os.Getenv(EnvConfig)
	defaultConfig.Telemetry = os.Getenv(EnvTelemetry)
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Transport, "transport", defaultConfig.Transport, "Command transport URL")
	flag.StringVar(&defaultConfig.ConfigFile, "config", defaultConfig.ConfigFile, "YAML config file")
	flag.StringVar(&defaultConfig.Telemetry, "telemetry", defaultConfig.Telemetry, "MQTT broker URL for status telemetry")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics-addr", defaultConfig.MetricsAddr, "Prometheus listen address, e.g. :9100")
	flag.StringVar(&defaultConfig.ClientID, "client-id", defaultConfig.ClientID, "MQTT client id")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a copy of the default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadSettings loads the config file, if any, and applies the overrides.
func (c *Config) LoadSettings() (*config.Config, error) {
	var (
		settings *config.Config
		err      error
	)
	if c.ConfigFile != "" {
		settings, err = config.Load(c.ConfigFile)
	} else {
		settings, err = config.Parse(emptyReader{})
	}
	if err != nil {
		return nil, err
	}
	if c.Transport != "" {
		settings.Transport = c.Transport
	}
	if settings.Transport == "" {
		settings.Transport = DefaultTransport
	}
	if c.Telemetry != "" {
		settings.Telemetry = c.Telemetry
	}
	if c.MetricsAddr != "" {
		settings.MetricsAddr = c.MetricsAddr
	}
	return settings, nil
}

// MQTTClientID returns the configured client id or the default one.
func (c *Config) MQTTClientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return DefaultClientID()
}

// OpenTransport opens the command link named by rawURL. mqtt:// URLs
// are served by the MQTT line transport, others by transport.Open.
func (c *Config) OpenTransport(ctx context.Context, rawURL string) (io.ReadWriteCloser, error) {
	if !isMQTT(rawURL) {
		return transport.Open(ctx, rawURL)
	}
	q, err := c.ConnectMQTT(rawURL)
	if err != nil {
		return nil, err
	}
	return mqtt.NewConn(q), nil
}

// OpenTelemetry connects the telemetry broker.
func (c *Config) OpenTelemetry(rawURL string) (telemetry.Publisher, io.Closer, error) {
	if !isMQTT(rawURL) {
		return nil, nil, fmt.Errorf("telemetry %q: %w", rawURL, transport.ErrUnsupportedScheme)
	}
	q, err := c.ConnectMQTT(rawURL)
	if err != nil {
		return nil, nil, err
	}
	return &mqtt.StatusPublisher{Queue: q}, q, nil
}

// ConnectMQTT connects the broker named by rawURL.
func (c *Config) ConnectMQTT(rawURL string) (*mqtt.Queue, error) {
	opts, prefix, err := mqtt.ClientOptionsFromURL(rawURL, c.MQTTClientID())
	if err != nil {
		return nil, err
	}
	q := mqtt.NewQueue(opts, prefix)
	if err := q.Connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", rawURL, err)
	}
	return q, nil
}

func isMQTT(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "mqtt" || u.Scheme == "mqtts"
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }
