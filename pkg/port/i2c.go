package port

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/robotalks/coproc.go/pkg/wire"
)

// MaxI2CAddr is the largest 7-bit device address.
const MaxI2CAddr = 0x7f

// I2C is a session with one device on the port's I2C bus.
type I2C struct {
	Addr byte

	port *Port
}

// I2C enables I2C on the port if needed and creates a session with the
// device at the 7-bit address addr.
func (p *Port) I2C(addr byte) (*I2C, error) {
	if addr > MaxI2CAddr {
		return nil, errors.Wrapf(ErrInvalidAddress, "%s: 0x%02x", p, addr)
	}
	if err := p.enable(ModeI2C); err != nil {
		return nil, err
	}
	return &I2C{Addr: addr, port: p}, nil
}

// Mode implements Peripheral.
func (d *I2C) Mode() Mode {
	return ModeI2C
}

// Port implements Peripheral.
func (d *I2C) Port() *Port {
	return d.port
}

// String implements fmt.Stringer.
func (d *I2C) String() string {
	return fmt.Sprintf("%s i2c 0x%02x", d.port, d.Addr)
}

func (d *I2C) start(tx *Tx, read bool) {
	addr := d.Addr << 1
	if read {
		addr |= 1
	}
	tx.SimpleCommand(wire.NewCommand(wire.OpStart, addr), nil)
}

func (d *I2C) stop(tx *Tx, done Completion) {
	tx.SimpleCommand(wire.NewCommand(wire.OpStop), done)
}

// Send writes data to the device. done is completed after STOP.
func (d *I2C) Send(data []byte, done Completion) error {
	return d.port.Transact(func(tx *Tx) error {
		d.start(tx, false)
		if err := tx.Transmit(data, nil); err != nil {
			return err
		}
		d.stop(tx, done)
		return nil
	})
}

// Read reads n bytes from the device.
func (d *I2C) Read(n int, done Completion) error {
	return d.port.Transact(func(tx *Tx) error {
		d.start(tx, true)
		if err := tx.Receive(n, done); err != nil {
			return err
		}
		d.stop(tx, nil)
		return nil
	})
}

// Transfer writes txbuf, if not empty, then reads rxlen bytes with a
// repeated START in between.
func (d *I2C) Transfer(txbuf []byte, rxlen int, done Completion) error {
	return d.port.Transact(func(tx *Tx) error {
		if len(txbuf) > 0 {
			d.start(tx, false)
			if err := tx.Transmit(txbuf, nil); err != nil {
				return err
			}
		}
		d.start(tx, true)
		if err := tx.Receive(rxlen, done); err != nil {
			return err
		}
		d.stop(tx, nil)
		return nil
	})
}
