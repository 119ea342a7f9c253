package i2c

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/coproc.go/pkg/cli/sh"
	"github.com/robotalks/coproc.go/pkg/port"
)

func device(c *ishell.Context, p *port.Port) (*port.I2C, bool) {
	addr, ok := sh.ParseInt(c, 0, "ADDR")
	if !ok {
		return nil, false
	}
	if addr < 0 || addr > port.MaxI2CAddr {
		c.Err(fmt.Errorf("invalid ADDR: %d", addr))
		return nil, false
	}
	dev, err := p.I2C(byte(addr))
	if err != nil {
		c.Err(err)
		return nil, false
	}
	return dev, true
}

var (
	// SendCmd writes bytes to a device.
	SendCmd = ishell.Cmd{
		Name:    "i2c.send",
		Aliases: []string{"i2cs"},
		Help:    "ADDR BYTE...",
		Func: sh.MustBeConnected(func(c *ishell.Context, p *port.Port) {
			dev, ok := device(c, p)
			if !ok {
				return
			}
			data, err := sh.ParseBytes(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func(done port.Completion) error {
				return dev.Send(data, done)
			})
		}),
	}

	// ReadCmd reads bytes from a device.
	ReadCmd = ishell.Cmd{
		Name:    "i2c.read",
		Aliases: []string{"i2cr"},
		Help:    "ADDR COUNT",
		Func: sh.MustBeConnected(func(c *ishell.Context, p *port.Port) {
			dev, ok := device(c, p)
			if !ok {
				return
			}
			n, ok := sh.ParseInt(c, 1, "COUNT")
			if !ok {
				return
			}
			sh.DoCommand(c, func(done port.Completion) error {
				return dev.Read(n, done)
			})
		}),
	}

	// TransferCmd writes then reads a device.
	TransferCmd = ishell.Cmd{
		Name:    "i2c.transfer",
		Aliases: []string{"i2ct"},
		Help:    "ADDR COUNT [BYTE...]",
		Func: sh.MustBeConnected(func(c *ishell.Context, p *port.Port) {
			dev, ok := device(c, p)
			if !ok {
				return
			}
			n, ok := sh.ParseInt(c, 1, "COUNT")
			if !ok {
				return
			}
			data, err := sh.ParseBytes(c.Args[2:])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func(done port.Completion) error {
				return dev.Transfer(data, n, done)
			})
		}),
	}

	// DisableCmd disables the active peripheral.
	DisableCmd = ishell.Cmd{
		Name: "disable",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context, p *port.Port) {
			sh.DoCommand(c, p.Disable)
		}),
	}
)

func init() {
	sh.AddCmds(
		&SendCmd,
		&ReadCmd,
		&TransferCmd,
		&DisableCmd,
	)
}
