package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/goburrow/serial"
	"golang.org/x/net/websocket"
)

// Default serial line settings.
const (
	DefaultBaudRate    = 115200
	DefaultDataBits    = 8
	DefaultStopBits    = 1
	DefaultParity      = "N"
	DefaultReadTimeout = 100 * time.Millisecond
)

// ErrUnsupportedScheme is returned for transport URLs with an unknown scheme.
var ErrUnsupportedScheme = errors.New("unsupported transport scheme")

// Open connects the transport described by rawURL:
//
//	serial:///dev/ttyACM0?baud=115200&databits=8&stopbits=1&parity=N
//	tcp://host:port
//	ws://host:port/path
//	stdio:
func Open(ctx context.Context, rawURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "serial":
		conf, err := SerialConfigFromURL(u)
		if err != nil {
			return nil, err
		}
		return OpenSerial(conf)
	case "tcp":
		var dialer net.Dialer
		return dialer.DialContext(ctx, "tcp", u.Host)
	case "ws", "wss":
		conf, err := websocket.NewConfig(u.String(), "http://"+u.Host+"/")
		if err != nil {
			return nil, err
		}
		ws, err := conf.DialContext(ctx)
		if err != nil {
			return nil, err
		}
		return ws, nil
	case "stdio":
		return Stdio(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

// SerialConfigFromURL builds the serial port settings from a serial:// URL.
func SerialConfigFromURL(u *url.URL) (*serial.Config, error) {
	conf := &serial.Config{
		Address:  u.Path,
		BaudRate: DefaultBaudRate,
		DataBits: DefaultDataBits,
		StopBits: DefaultStopBits,
		Parity:   DefaultParity,
		Timeout:  DefaultReadTimeout,
	}
	if conf.Address == "" {
		conf.Address = u.Opaque
	}
	if conf.Address == "" {
		return nil, fmt.Errorf("serial: missing device path")
	}
	q := u.Query()
	for key, dest := range map[string]*int{
		"baud":     &conf.BaudRate,
		"databits": &conf.DataBits,
		"stopbits": &conf.StopBits,
	} {
		if val := q.Get(key); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("serial: invalid %s %q", key, val)
			}
			*dest = n
		}
	}
	switch parity := q.Get("parity"); parity {
	case "":
	case "N", "E", "O":
		conf.Parity = parity
	default:
		return nil, fmt.Errorf("serial: invalid parity %q", parity)
	}
	if val := q.Get("timeout"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("serial: invalid timeout %q: %w", val, err)
		}
		conf.Timeout = d
	}
	return conf, nil
}

// OpenSerial opens a serial port. Read timeouts of the port are retried,
// so Read only returns on data, error or Close.
func OpenSerial(conf *serial.Config) (io.ReadWriteCloser, error) {
	port, err := serial.Open(conf)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Address, err)
	}
	return &serialPort{Port: port, done: make(chan struct{})}, nil
}

type serialPort struct {
	serial.Port
	done      chan struct{}
	closeOnce sync.Once
}

func (p *serialPort) Read(b []byte) (int, error) {
	for {
		n, err := p.Port.Read(b)
		if err != serial.ErrTimeout {
			return n, err
		}
		if n > 0 {
			return n, nil
		}
		select {
		case <-p.done:
			return 0, io.EOF
		default:
		}
	}
}

func (p *serialPort) Close() (err error) {
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.Port.Close()
	})
	return
}

type stdio struct {
	io.Reader
	io.Writer
}

// Stdio returns the process standard input and output as a transport.
func Stdio() io.ReadWriteCloser {
	return &stdio{Reader: os.Stdin, Writer: os.Stdout}
}

func (s *stdio) Close() error {
	return nil
}
