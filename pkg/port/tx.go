package port

import (
	"github.com/robotalks/coproc.go/pkg/wire"
)

// Tx is an open transaction on a Port. Commands written to a Tx are
// buffered and reach the transport as one write when the transaction is
// released. A Tx is only valid inside the func passed to Port.Transact.
type Tx struct {
	buf      []byte
	pending  []*PendingReply
	released bool
}

func (tx *Tx) mustBeOpen() {
	if tx.released {
		panic("port: transaction used after release")
	}
}

func (tx *Tx) write(cmd wire.Command) {
	tx.mustBeOpen()
	tx.buf = cmd.AppendTo(tx.buf)
}

func (tx *Tx) expect(size int, done Completion) {
	tx.pending = append(tx.pending, &PendingReply{Size: size, Done: done})
}

// Len is the number of bytes buffered so far.
func (tx *Tx) Len() int {
	return len(tx.buf)
}

// Sync writes an echo probe if done is not nil. done is completed when the
// coprocessor has processed everything written before the probe.
func (tx *Tx) Sync(done Completion) {
	if done == nil {
		return
	}
	tx.write(wire.SyncCommand())
	tx.expect(wire.SyncReplySize, done)
}

// SimpleCommand writes cmd, with an echo probe to complete done if given.
func (tx *Tx) SimpleCommand(cmd wire.Command, done Completion) {
	tx.write(cmd)
	tx.Sync(done)
}

// StatusCommand writes cmd which is answered by a single status byte.
func (tx *Tx) StatusCommand(cmd wire.Command, done Completion) {
	tx.write(cmd)
	tx.expect(0, done)
}

// Transmit writes TX with buf as payload.
func (tx *Tx) Transmit(buf []byte, done Completion) error {
	cmd, err := wire.Transfer(wire.OpTX, buf)
	if err != nil {
		return err
	}
	tx.write(cmd)
	tx.Sync(done)
	return nil
}

// Receive writes RX for n bytes, done receives the data.
func (tx *Tx) Receive(n int, done Completion) error {
	cmd, err := wire.Receive(n)
	if err != nil {
		return err
	}
	tx.write(cmd)
	tx.expect(n, done)
	return nil
}

// TransmitReceive writes TXRX with buf as payload, done receives as many
// bytes as sent.
func (tx *Tx) TransmitReceive(buf []byte, done Completion) error {
	cmd, err := wire.Transfer(wire.OpTXRX, buf)
	if err != nil {
		return err
	}
	tx.write(cmd)
	tx.expect(len(buf), done)
	return nil
}
