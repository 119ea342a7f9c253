package port

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/coproc.go/pkg/framework"
	"github.com/robotalks/coproc.go/pkg/wire"
)

// DefaultReadBufferSize is the default size of a single transport read.
const DefaultReadBufferSize = 512

// Port is the session over one port connection of the coprocessor.
type Port struct {
	Name           string
	ReadBufferSize int

	rw    io.ReadWriteCloser
	queue ReplyQueue
	demux *Demux

	// cork serializes transactions.
	cork sync.Mutex

	modeLock sync.Mutex
	mode     Mode

	lock     sync.Mutex
	err      error
	handlers []*eventHandlerEntry

	closeOnce sync.Once
	closeErr  error

	pins [wire.NumPins]*Pin
}

// New creates a Port over an established connection.
func New(name string, rw io.ReadWriteCloser) *Port {
	p := &Port{
		Name:           name,
		ReadBufferSize: DefaultReadBufferSize,
		rw:             rw,
	}
	p.demux = NewDemux(&p.queue, p.dispatchEvent)
	for n := range p.pins {
		p.pins[n] = &Pin{N: n, port: p}
	}
	return p
}

// String implements fmt.Stringer.
func (p *Port) String() string {
	return "port " + p.Name
}

// Err returns the error which made the port unusable, if any.
func (p *Port) Err() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.err
}

// Pending is the number of commands waiting for replies.
func (p *Port) Pending() int {
	return p.queue.Len()
}

// Transact runs fn with a transaction. Nothing is written if fn returns an
// error, otherwise all commands fn wrote are flushed as one write. When
// Transact returns an error, none of the completions given to fn is invoked.
// Other transactions on the port wait until this one is released, and fn must
// not start another transaction on the same port.
func (p *Port) Transact(fn func(*Tx) error) error {
	if err := p.Err(); err != nil {
		return err
	}
	p.cork.Lock()
	defer p.cork.Unlock()
	tx := &Tx{}
	err := fn(tx)
	tx.released = true
	if err != nil {
		return err
	}
	return p.flush(tx)
}

func (p *Port) flush(tx *Tx) error {
	if len(tx.buf) == 0 {
		return nil
	}
	p.lock.Lock()
	if p.err != nil {
		err := p.err
		p.lock.Unlock()
		return err
	}
	// replies can't arrive before the write, so queue first.
	for _, pending := range tx.pending {
		p.queue.push(pending)
	}
	p.lock.Unlock()

	if glog.V(2) {
		glog.Infof("%s: write % x", p, tx.buf)
	}
	n, err := p.rw.Write(tx.buf)
	if err == nil && n < len(tx.buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		err = transportClosed(p.Name, err)
		// take back the entries of this transaction, so either the error is
		// returned or the completions get it, never both.
		removed := p.queue.Remove(tx.pending)
		p.fail(err)
		if len(removed) == len(tx.pending) {
			return err
		}
		// some replies arrived already from a partial write.
		for _, pending := range removed {
			pending.complete(Result{Err: err})
		}
	}
	return nil
}

// SimpleCommand writes cmd. If done is given, an echo probe follows and
// done is completed when it returns.
func (p *Port) SimpleCommand(cmd wire.Command, done Completion) error {
	return p.Transact(func(tx *Tx) error {
		tx.SimpleCommand(cmd, done)
		return nil
	})
}

// StatusCommand writes cmd which is answered by a status byte.
func (p *Port) StatusCommand(cmd wire.Command, done Completion) error {
	return p.Transact(func(tx *Tx) error {
		tx.StatusCommand(cmd, done)
		return nil
	})
}

// Transmit sends 1 to 255 bytes on the active peripheral.
func (p *Port) Transmit(buf []byte, done Completion) error {
	return p.Transact(func(tx *Tx) error {
		return tx.Transmit(buf, done)
	})
}

// Receive reads 1 to 255 bytes from the active peripheral.
func (p *Port) Receive(n int, done Completion) error {
	return p.Transact(func(tx *Tx) error {
		return tx.Receive(n, done)
	})
}

// TransmitReceive sends buf and receives the same number of bytes.
func (p *Port) TransmitReceive(buf []byte, done Completion) error {
	return p.Transact(func(tx *Tx) error {
		return tx.TransmitReceive(buf, done)
	})
}

// Sync completes done once every command written before has been processed.
func (p *Port) Sync(done Completion) error {
	return p.Transact(func(tx *Tx) error {
		tx.Sync(done)
		return nil
	})
}

// Flush asks the coprocessor to flush its reply buffer.
func (p *Port) Flush(done Completion) error {
	return p.SimpleCommand(wire.NewCommand(wire.OpFlush), done)
}

// Feed decodes bytes received from the coprocessor. Run calls it for every
// read, it's only called directly when the caller owns the reading.
func (p *Port) Feed(b []byte) error {
	if err := p.demux.Feed(b); err != nil {
		p.fail(err)
		return err
	}
	return nil
}

// Run reads from the connection until it fails or ctx is done. The port is
// unusable afterwards.
func (p *Port) Run(ctx context.Context) error {
	size := p.ReadBufferSize
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	buf := make([]byte, size)
	glog.V(1).Infof("%s: reader started", p)
	err := fx.RunWithContextCloser(ctx, closerFunc(p.closeTransport), func() error {
		for {
			n, err := p.rw.Read(buf)
			if n > 0 {
				if glog.V(4) {
					glog.Infof("%s: read % x", p, buf[:n])
				}
				if ferr := p.Feed(buf[:n]); ferr != nil {
					return ferr
				}
			}
			if err != nil {
				return transportClosed(p.Name, err)
			}
		}
	})
	if err == context.Canceled {
		p.fail(transportClosed(p.Name, ctx.Err()))
		return ctx.Err()
	}
	p.fail(err)
	glog.V(1).Infof("%s: reader stopped: %v", p, err)
	return err
}

// Close closes the connection. Commands still pending fail with
// ErrTransportClosed.
func (p *Port) Close() error {
	p.fail(transportClosed(p.Name, nil))
	return p.closeTransport()
}

// fail makes the port unusable with err, the first error wins.
func (p *Port) fail(err error) {
	p.lock.Lock()
	if p.err != nil {
		p.lock.Unlock()
		return
	}
	p.err = err
	p.lock.Unlock()

	if errors.Cause(err) != ErrTransportClosed {
		glog.Errorf("%s: %v", p, err)
	}
	if n := p.queue.Drain(err); n > 0 {
		glog.Warningf("%s: %d pending replies failed: %v", p, n, err)
	}
	p.closeTransport()
}

func (p *Port) closeTransport() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.rw.Close()
	})
	return p.closeErr
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}
