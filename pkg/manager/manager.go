// Package manager shares one transport between several command devices,
// routing incoming lines by header and ticking every device from the loop.
package manager

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cmdstepper/pkg/command"
	fx "github.com/robotalks/cmdstepper/pkg/framework"
	"github.com/robotalks/cmdstepper/pkg/transport"
)

// Identification of the manager itself.
const (
	CmdBonjour = "BONJOUR"
	BonjourID  = "COMMANDMANAGER"
)

var (
	// ErrDuplicateHeader indicates a header is already used by another device.
	ErrDuplicateHeader = errors.New("duplicate header")
	// ErrInitialized indicates devices are added or initialized after Init.
	ErrInitialized = errors.New("already initialized")
)

// Device is a command-driven device sharing the transport.
type Device interface {
	Init()
	SetHeader(header string) error
	HandleCommand(line string)
	Update(now time.Time)
}

// Recorder receives routing and tick statistics.
type Recorder interface {
	LineRouted(header string)
	LineUnroutable()
	Ticked(d time.Duration)
}

// Entry is a registered device.
type Entry struct {
	Header string
	Device Device
}

// Manager routes lines to devices by header.
type Manager struct {
	Recorder Recorder

	entries     []Entry
	cmds        *command.Handler
	initialized bool
}

// New creates a Manager replying to its own commands on w.
func New(w io.Writer) *Manager {
	m := &Manager{cmds: command.NewHandler(w)}
	m.cmds.AddCommand(CmdBonjour, func() {
		m.reply(m.cmds.SendCmd(CmdBonjour, BonjourID))
	})
	m.cmds.SetDefaultHandler(func(token string) {
		m.reply(m.cmds.Unrecognized(token))
	})
	return m
}

// Commands returns the manager's own command handler.
func (m *Manager) Commands() *command.Handler {
	return m.cmds
}

// AddDevice registers dev under header. Registration order is the order
// devices are initialized and updated.
func (m *Manager) AddDevice(header string, dev Device) error {
	if m.initialized {
		return ErrInitialized
	}
	if header == "" || len(header) > command.MaxHeaderLen || !command.ValidToken(header) {
		return fmt.Errorf("device header %q: %w", header, command.ErrInvalidHeader)
	}
	for _, entry := range m.entries {
		if entry.Header == header {
			return fmt.Errorf("device header %q: %w", header, ErrDuplicateHeader)
		}
	}
	m.entries = append(m.entries, Entry{Header: header, Device: dev})
	return nil
}

// Entries returns the registered devices in order.
func (m *Manager) Entries() []Entry {
	return m.entries
}

// Init sets the header and initializes every device, once.
func (m *Manager) Init() error {
	if m.initialized {
		return ErrInitialized
	}
	for _, entry := range m.entries {
		if err := entry.Device.SetHeader(entry.Header); err != nil {
			return fmt.Errorf("device %s: %w", entry.Header, err)
		}
		entry.Device.Init()
		glog.Infof("device %s initialized", entry.Header)
	}
	m.initialized = true
	return nil
}

// DispatchIncoming routes one line. A line whose first token equals a
// device header goes to that device without the header. Otherwise a single
// registered device receives the whole line, and with several devices the
// manager answers it itself.
func (m *Manager) DispatchIncoming(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	args := command.ParseArgs(line)
	first := args.Token()
	for _, entry := range m.entries {
		if entry.Header == first {
			glog.V(2).Infof("route %q to %s", line, entry.Header)
			m.routed(entry.Header)
			entry.Device.HandleCommand(args.Rest())
			return
		}
	}
	if len(m.entries) == 1 {
		entry := m.entries[0]
		m.routed(entry.Header)
		entry.Device.HandleCommand(line)
		return
	}
	if r := m.Recorder; r != nil {
		r.LineUnroutable()
	}
	m.cmds.ProcessString(line)
}

// Tick updates every device once, in registration order.
func (m *Manager) Tick(now time.Time) {
	start := time.Now()
	for _, entry := range m.entries {
		entry.Device.Update(now)
	}
	if r := m.Recorder; r != nil {
		r.Ticked(time.Since(start))
	}
}

// Control implements Controller by dispatching received lines.
func (m *Manager) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(func(msg fx.Message) bool {
		lineMsg, ok := msg.(transport.LineMsg)
		if ok {
			m.DispatchIncoming(lineMsg.Line)
		}
		return ok
	})
	return nil
}

// AddToLoop implements LoopAdder.
func (m *Manager) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, m)
	loop.AddController(fx.PrLvActuate, fx.ControlFunc(func(cc fx.ControlContext) error {
		m.Tick(cc.Time())
		return nil
	}))
}

func (m *Manager) routed(header string) {
	if r := m.Recorder; r != nil {
		r.LineRouted(header)
	}
}

func (m *Manager) reply(err error) {
	if err != nil {
		glog.Warningf("manager reply error: %v", err)
	}
}
