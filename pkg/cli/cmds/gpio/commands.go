package gpio

import (
	"github.com/abiosoft/ishell"

	"github.com/robotalks/coproc.go/pkg/cli/sh"
	"github.com/robotalks/coproc.go/pkg/port"
)

func pinCmd(name, alias string, op func(*port.Pin, port.Completion) error) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: []string{alias},
		Help:    "PIN",
		Func: sh.MustBeConnected(func(c *ishell.Context, p *port.Port) {
			n, ok := sh.ParseInt(c, 0, "PIN")
			if !ok {
				return
			}
			pin, err := p.Pin(n)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func(done port.Completion) error {
				return op(pin, done)
			})
		}),
	}
}

var (
	// HighCmd drives a pin high.
	HighCmd = pinCmd("pin.high", "high", (*port.Pin).High)
	// LowCmd drives a pin low.
	LowCmd = pinCmd("pin.low", "low", (*port.Pin).Low)
	// ToggleCmd toggles a pin.
	ToggleCmd = pinCmd("pin.toggle", "toggle", (*port.Pin).Toggle)
	// ReadCmd samples a pin.
	ReadCmd = pinCmd("pin.read", "read", (*port.Pin).Read)
)

func init() {
	sh.AddCmds(
		&HighCmd,
		&LowCmd,
		&ToggleCmd,
		&ReadCmd,
	)
}
