package raw

import (
	"github.com/abiosoft/ishell"

	"github.com/robotalks/coproc.go/pkg/cli/sh"
	"github.com/robotalks/coproc.go/pkg/port"
)

func bytesCmd(name, help string, op func(p *port.Port, data []byte, done port.Completion) error) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: help,
		Func: sh.MustBeConnected(func(c *ishell.Context, p *port.Port) {
			data, err := sh.ParseBytes(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func(done port.Completion) error {
				return op(p, data, done)
			})
		}),
	}
}

var (
	// TransmitCmd transmits bytes on the active peripheral.
	TransmitCmd = bytesCmd("tx", "BYTE...", (*port.Port).Transmit)
	// TransmitReceiveCmd transmits bytes and receives the same count.
	TransmitReceiveCmd = bytesCmd("txrx", "BYTE...", (*port.Port).TransmitReceive)

	// ReceiveCmd receives bytes on the active peripheral.
	ReceiveCmd = ishell.Cmd{
		Name: "rx",
		Help: "COUNT",
		Func: sh.MustBeConnected(func(c *ishell.Context, p *port.Port) {
			n, ok := sh.ParseInt(c, 0, "COUNT")
			if !ok {
				return
			}
			sh.DoCommand(c, func(done port.Completion) error {
				return p.Receive(n, done)
			})
		}),
	}

	// SyncCmd round trips an echo probe.
	SyncCmd = ishell.Cmd{
		Name: "sync",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context, p *port.Port) {
			sh.DoCommand(c, p.Sync)
		}),
	}

	// FlushCmd sends FLUSH.
	FlushCmd = ishell.Cmd{
		Name: "flush",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context, p *port.Port) {
			sh.DoCommand(c, p.Flush)
		}),
	}
)

func init() {
	sh.AddCmds(
		&TransmitCmd,
		&TransmitReceiveCmd,
		&ReceiveCmd,
		&SyncCmd,
		&FlushCmd,
	)
}
