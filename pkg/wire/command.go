package wire

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// MaxTransfer is the largest payload a single TX, RX or TXRX frame carries.
const MaxTransfer = 255

// syncToken is echoed back by the coprocessor as the payload of a sync probe.
const syncToken byte = 0x88

// ErrInvalidLength indicates a transfer length outside 1..MaxTransfer.
var ErrInvalidLength = errors.New("invalid length")

// Command is an encoded-on-demand command frame.
type Command struct {
	Op   Opcode
	Args []byte
}

// NewCommand creates a Command.
func NewCommand(op Opcode, args ...byte) Command {
	return Command{Op: op, Args: args}
}

// Len is the encoded size.
func (c Command) Len() int {
	return len(c.Args) + 1
}

// AppendTo appends the encoded command to b.
func (c Command) AppendTo(b []byte) []byte {
	b = append(b, byte(c.Op))
	return append(b, c.Args...)
}

// Bytes returns encoded bytes for sending.
func (c Command) Bytes() []byte {
	return c.AppendTo(make([]byte, 0, c.Len()))
}

// WriteTo writes encoded bytes.
func (c Command) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Op.String()
	}
	return fmt.Sprintf("%s % x", c.Op, c.Args)
}

// SyncCommand is the echo probe used to signal completion of commands
// which have no reply of their own.
func SyncCommand() Command {
	return NewCommand(OpEcho, 1, syncToken)
}

// SyncReplySize is the payload size of the reply to SyncCommand.
const SyncReplySize = 1

// ValidLength checks n is a length a single frame can carry.
func ValidLength(n int) error {
	if n <= 0 || n > MaxTransfer {
		return errors.Wrapf(ErrInvalidLength, "length %d not in 1..%d", n, MaxTransfer)
	}
	return nil
}

// Transfer encodes op followed by the length and the payload.
func Transfer(op Opcode, payload []byte) (Command, error) {
	if err := ValidLength(len(payload)); err != nil {
		return Command{}, err
	}
	args := make([]byte, 0, len(payload)+1)
	args = append(args, byte(len(payload)))
	return Command{Op: op, Args: append(args, payload...)}, nil
}

// Receive encodes an RX command for n bytes.
func Receive(n int) (Command, error) {
	if err := ValidLength(n); err != nil {
		return Command{}, err
	}
	return NewCommand(OpRX, byte(n)), nil
}
