package port

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/robotalks/coproc.go/pkg/wire"
)

// Mode is the peripheral active on a port.
type Mode int

// Peripheral modes. A port has at most one active peripheral.
const (
	ModeNone Mode = iota
	ModeI2C
	ModeSPI
	ModeUART
)

var modeNames = []string{"none", "i2c", "spi", "uart"}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses the name of a mode.
func ParseMode(s string) (Mode, error) {
	for n, name := range modeNames {
		if name == s {
			return Mode(n), nil
		}
	}
	return ModeNone, errors.Errorf("unknown peripheral %q", s)
}

var (
	enableOps = map[Mode]wire.Opcode{
		ModeI2C:  wire.OpEnableI2C,
		ModeSPI:  wire.OpEnableSPI,
		ModeUART: wire.OpEnableUART,
	}
	disableOps = map[Mode]wire.Opcode{
		ModeI2C:  wire.OpDisableI2C,
		ModeSPI:  wire.OpDisableSPI,
		ModeUART: wire.OpDisableUART,
	}
)

// Peripheral is a session of the peripheral active on a port.
type Peripheral interface {
	Mode() Mode
	Port() *Port
}

// Mode gets the active peripheral mode.
func (p *Port) Mode() Mode {
	p.modeLock.Lock()
	defer p.modeLock.Unlock()
	return p.mode
}

// Open opens a peripheral session. addr is the device address for I2C and
// ignored otherwise. SPI and UART are not supported yet.
func (p *Port) Open(mode Mode, addr byte) (Peripheral, error) {
	switch mode {
	case ModeI2C:
		return p.I2C(addr)
	case ModeSPI:
		return p.SPI()
	case ModeUART:
		return p.UART()
	}
	return nil, errors.Errorf("%s: can't open peripheral %s", p, mode)
}

// SPI opens an SPI session.
func (p *Port) SPI() (Peripheral, error) {
	return nil, errors.Wrapf(ErrUnimplemented, "%s: %s", p, ModeSPI)
}

// UART opens a UART session.
func (p *Port) UART() (Peripheral, error) {
	return nil, errors.Wrapf(ErrUnimplemented, "%s: %s", p, ModeUART)
}

func (p *Port) enable(mode Mode) error {
	p.modeLock.Lock()
	defer p.modeLock.Unlock()
	if p.mode == mode {
		return nil
	}
	if p.mode != ModeNone {
		return errors.Wrapf(ErrModeConflict, "%s: %s active, can't enable %s", p, p.mode, mode)
	}
	if err := p.SimpleCommand(wire.NewCommand(enableOps[mode], 0), nil); err != nil {
		return err
	}
	p.mode = mode
	return nil
}

// Disable disables the active peripheral.
func (p *Port) Disable(done Completion) error {
	p.modeLock.Lock()
	defer p.modeLock.Unlock()
	if p.mode == ModeNone {
		if done != nil {
			return p.Sync(done)
		}
		return nil
	}
	if err := p.SimpleCommand(wire.NewCommand(disableOps[p.mode]), done); err != nil {
		return err
	}
	p.mode = ModeNone
	return nil
}
