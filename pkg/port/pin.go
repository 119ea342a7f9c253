package port

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/robotalks/coproc.go/pkg/wire"
)

// Pin is a digital pin of a port.
type Pin struct {
	N int

	port *Port
}

// Pin gets pin n.
func (p *Port) Pin(n int) (*Pin, error) {
	if n < 0 || n >= len(p.pins) {
		return nil, errors.Wrapf(ErrNoPin, "%s: pin %d", p, n)
	}
	return p.pins[n], nil
}

// Pins gets all pins.
func (p *Port) Pins() []*Pin {
	return p.pins[:]
}

// String implements fmt.Stringer.
func (g *Pin) String() string {
	return fmt.Sprintf("%s pin %d", g.port, g.N)
}

func (g *Pin) cmd(op wire.Opcode) wire.Command {
	return wire.NewCommand(op, byte(g.N))
}

// High drives the pin high.
func (g *Pin) High(done Completion) error {
	return g.port.SimpleCommand(g.cmd(wire.OpGPIOHigh), done)
}

// Low drives the pin low.
func (g *Pin) Low(done Completion) error {
	return g.port.SimpleCommand(g.cmd(wire.OpGPIOLow), done)
}

// Toggle toggles the pin.
func (g *Pin) Toggle(done Completion) error {
	return g.port.SimpleCommand(g.cmd(wire.OpGPIOToggle), done)
}

// Output drives the pin to value.
func (g *Pin) Output(value bool, done Completion) error {
	if value {
		return g.High(done)
	}
	return g.Low(done)
}

// Read samples the pin, done gets HIGH or LOW as status.
func (g *Pin) Read(done Completion) error {
	return g.port.StatusCommand(g.cmd(wire.OpGPIOIn), done)
}

// OnChange registers h for change events of this pin.
func (g *Pin) OnChange(h EventHandler) (remove func()) {
	return g.port.AddEventHandler(HandleEventFunc(func(e Event) {
		if pin, ok := e.PinChange(); ok && pin == g.N {
			h.HandleEvent(e)
		}
	}))
}
