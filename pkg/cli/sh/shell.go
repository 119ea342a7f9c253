// Package sh provides an interactive shell operating the ports of a board.
package sh

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/olekukonko/tablewriter"

	"github.com/robotalks/coproc.go/pkg/board"
	"github.com/robotalks/coproc.go/pkg/port"
	"github.com/robotalks/coproc.go/pkg/wire"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	// Timeout limits waiting for a reply. The command stays pending on
	// the port when waiting times out.
	Timeout time.Duration

	Shell  *ishell.Shell
	Config *board.Config
	Board  *board.Board
	Port   *port.Port

	cancel      func()
	removeEvent func()
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	timeout    = time.Second

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&UseCmd,
		&PortsCmd,
		&OpcodesCmd,
		&EventsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Timeout waiting for a reply.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *board.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell:  ishell.New(),
		Config: conf,
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

// MustBeConnected wraps command func requires a selected port.
func MustBeConnected(fn func(c *ishell.Context, p *port.Port)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if s.Port == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c, s.Port)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the board and selects its first port.
func (s *Shell) Connect() error {
	ctx, cancel := context.WithCancel(context.Background())
	b, err := s.Config.Open(ctx)
	if err != nil {
		cancel()
		return err
	}
	s.Disconnect()
	s.Board, s.cancel = b, cancel
	go b.Run(ctx)
	s.Use(b.Ports()[0])
	return nil
}

// Disconnect closes the board.
func (s *Shell) Disconnect() {
	if s.Board == nil {
		return
	}
	s.showEvents(false)
	s.cancel()
	s.Board.Close()
	s.Board, s.Port, s.cancel = nil, nil, nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// Use selects the port commands operate on.
func (s *Shell) Use(p *port.Port) {
	s.Port = p
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", p.Name))
}

func (s *Shell) showEvents(en bool) {
	if s.removeEvent != nil {
		s.removeEvent()
		s.removeEvent = nil
	}
	if en && s.Board != nil {
		s.removeEvent = s.Board.AddEventHandler(port.HandleEventFunc(func(e port.Event) {
			s.Shell.Printf("\nEVENT %s\n", e)
		}))
	}
}

// Result is the printable form of a port.Result.
type Result struct {
	Status string `json:"status,omitempty"`
	Data   string `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FormatResult converts a port.Result for printing.
func FormatResult(r port.Result) Result {
	if r.Err != nil {
		return Result{Error: r.Err.Error()}
	}
	if r.Status == wire.ReplyData {
		return Result{Status: wire.ReplyName(r.Status), Data: hex.EncodeToString(r.Data)}
	}
	return Result{Status: wire.ReplyName(r.Status)}
}

// DoCommand issues a command with a completion and waits for the result.
func DoCommand(c *ishell.Context, issue func(done port.Completion) error) error {
	s := ShellFrom(c)
	done, ch := port.Await()
	if err := issue(done); err != nil {
		c.Err(err)
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	r := port.Wait(ctx, ch)
	out := FormatResult(r)
	if s.OutputJSON {
		encoded, err := json.Marshal(out)
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(encoded))
		return r.Err
	}
	switch {
	case r.Err != nil:
		c.Err(r.Err)
	case r.Acked():
		c.Println("OK")
	case out.Data != "":
		c.Printf("%s %s\n", out.Status, out.Data)
	default:
		c.Println(out.Status)
	}
	return r.Err
}

// ParseBytes parses arguments as bytes, in decimal, 0x hex, 0 octal or 0b
// binary.
func ParseBytes(args []string) ([]byte, error) {
	data := make([]byte, len(args))
	for n, arg := range args {
		val, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte %q", arg)
		}
		data[n] = byte(val)
	}
	return data, nil
}

// ParseInt parses the argument at index as int.
func ParseInt(c *ishell.Context, index int, name string) (int, bool) {
	if len(c.Args) <= index {
		c.Err(fmt.Errorf("%s required", name))
		return 0, false
	}
	val, err := strconv.ParseInt(c.Args[index], 0, 32)
	if err != nil {
		c.Err(fmt.Errorf("invalid %s: %v", name, err))
		return 0, false
	}
	return int(val), true
}

// RenderTable renders rows as a table.
func RenderTable(header []string, rows [][]string) string {
	var w bytes.Buffer
	table := tablewriter.NewWriter(&w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()
	return w.String()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if err := s.Connect(); err != nil {
			log.Fatalf("connect failed: %v", err)
		}
		defer s.Disconnect()
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
	// ConnectCmd connects the board.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT-A-DIAL [PORT-B-DIAL]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Config.PortA = c.Args[0]
			}
			if len(c.Args) > 1 {
				s.Config.PortB = c.Args[1]
			}
			if err := s.Connect(); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the board.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// UseCmd selects a port.
	UseCmd = ishell.Cmd{
		Name:    "use",
		Aliases: []string{"u"},
		Help:    "PORT",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.Board == nil {
				c.Err(fmt.Errorf("not connected"))
				return
			}
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			p, err := s.Board.Port(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s.Use(p)
		},
	}

	// PortsCmd lists ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.Board == nil {
				c.Println("Not connected")
				return
			}
			var rows [][]string
			for _, p := range s.Board.Ports() {
				state := "ok"
				if err := p.Err(); err != nil {
					state = err.Error()
				}
				rows = append(rows, []string{p.Name, p.Mode().String(), strconv.Itoa(p.Pending()), state})
			}
			c.Print(RenderTable([]string{"PORT", "MODE", "PENDING", "STATE"}, rows))
		},
	}

	// OpcodesCmd prints the protocol tables.
	OpcodesCmd = ishell.Cmd{
		Name: "opcodes",
		Help: "",
		Func: func(c *ishell.Context) {
			var rows [][]string
			for _, op := range wire.Opcodes() {
				rows = append(rows, []string{fmt.Sprintf("0x%02x", byte(op)), op.String()})
			}
			c.Print(RenderTable([]string{"OPCODE", "COMMAND"}, rows))
			rows = nil
			for _, b := range wire.Replies() {
				rows = append(rows, []string{fmt.Sprintf("0x%02x", b), wire.ReplyName(b)})
			}
			c.Print(RenderTable([]string{"BYTE", "REPLY"}, rows))
		},
	}

	// EventsCmd turns printing of async events on or off.
	EventsCmd = ishell.Cmd{
		Name: "events",
		Help: "on|off",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			en := len(c.Args) == 0 || c.Args[0] == "on"
			s.showEvents(en)
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(board.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
