// Package sh provides an interactive console talking the command
// protocol to a stepper controller.
package sh

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/cmdstepper/pkg/command"
	"github.com/robotalks/cmdstepper/pkg/env"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	AutoConnect bool

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
	URL     string
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly bool
	timeout  = DefaultTimeout

	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&DeviceCmd,
		&SendCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.DurationVar(&timeout, "timeout", timeout, "Reply timeout.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context, s *Session)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		sess := ShellFrom(c).Session
		if sess == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c, sess)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the transport and replaces the current session.
func (s *Shell) Connect(url string) error {
	conn, err := s.Config.OpenTransport(context.Background(), url)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Session = NewSession(conn)
	s.Session.Timeout = timeout
	s.URL = url
	s.updatePrompt()
	return nil
}

// Disconnect closes the current session.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.URL = ""
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// SelectDevice sets the header prefixed to commands.
func (s *Shell) SelectDevice(header string) error {
	if header != "" && !command.ValidToken(header) {
		return command.ErrInvalidHeader
	}
	if s.Session == nil {
		return fmt.Errorf("not connected")
	}
	s.Session.Header = header
	s.updatePrompt()
	return nil
}

func (s *Shell) updatePrompt() {
	prompt := s.URL
	if s.Session != nil && s.Session.Header != "" {
		prompt += " " + s.Session.Header
	}
	s.Shell.SetPrompt(prompt + " > ")
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Transport != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Transport)
		}
		if err := s.Connect(s.Config.Transport); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Transport, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("URL required"))
				return
			}
			if err := ShellFrom(c).Connect(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current controller.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// DeviceCmd selects the device header.
	DeviceCmd = ishell.Cmd{
		Name:    "device",
		Aliases: []string{"dev"},
		Help:    "[HEADER]",
		Func: func(c *ishell.Context) {
			var header string
			if len(c.Args) > 0 {
				header = c.Args[0]
			}
			if err := ShellFrom(c).SelectDevice(header); err != nil {
				c.Err(err)
			}
		},
	}

	// SendCmd sends a raw line and prints the replies.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"raw"},
		Help:    "LINE",
		Func: MustBeConnected(func(c *ishell.Context, sess *Session) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("LINE required"))
				return
			}
			sess.Drain()
			if err := sess.SendRaw(strings.Join(c.Args, " ")); err != nil {
				c.Err(err)
				return
			}
			for _, line := range sess.Collect(100 * time.Millisecond) {
				c.Println(line)
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
