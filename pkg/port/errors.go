package port

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/robotalks/coproc.go/pkg/wire"
)

var (
	// ErrInvalidLength indicates a transfer length is 0 or larger than 255.
	ErrInvalidLength = wire.ErrInvalidLength
	// ErrUnexpectedDataReply indicates a DATA reply arrived when no pending
	// command expects payload. The stream is out of sync and can't be recovered.
	ErrUnexpectedDataReply = errors.New("unexpected data reply")
	// ErrUnexpectedReply indicates a status reply arrived with nothing pending.
	ErrUnexpectedReply = errors.New("unexpected reply")
	// ErrTransportClosed indicates the connection to the coprocessor is gone.
	ErrTransportClosed = errors.New("transport closed")
	// ErrUnimplemented is returned when opening SPI or UART.
	ErrUnimplemented = errors.New("unimplemented")
	// ErrModeConflict indicates another peripheral is active on the port.
	ErrModeConflict = errors.New("peripheral mode conflict")
	// ErrInvalidAddress indicates an I2C address out of the 7-bit range.
	ErrInvalidAddress = errors.New("invalid i2c address")
	// ErrNoPin indicates an invalid pin number.
	ErrNoPin = errors.New("no such pin")
)

// StatusError is the result error when a status byte arrives for a command
// expecting data, e.g. a NACK in place of an RX payload.
type StatusError struct {
	Status byte
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("status reply %s instead of data", wire.ReplyName(e.Status))
}

func transportClosed(name string, cause error) error {
	if cause == nil {
		return errors.Wrapf(ErrTransportClosed, "port %s", name)
	}
	return errors.Wrapf(ErrTransportClosed, "port %s: %v", name, cause)
}
