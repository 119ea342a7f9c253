package port

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/coproc.go/pkg/wire"
)

// chanConn records every Write as one chunk and serves Reads from readCh.
type chanConn struct {
	// writeErr fails every Write when set.
	writeErr  error
	readCh    chan []byte
	writeCh   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newChanConn() *chanConn {
	return &chanConn{
		readCh:  make(chan []byte, 16),
		writeCh: make(chan []byte, 256),
		closed:  make(chan struct{}),
	}
}

func (c *chanConn) Read(p []byte) (int, error) {
	select {
	case b, ok := <-c.readCh:
		if !ok {
			return 0, io.EOF
		}
		return copy(p, b), nil
	case <-c.closed:
		return 0, io.ErrClosedPipe
	}
}

func (c *chanConn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	chunk := make([]byte, len(p))
	copy(chunk, p)
	select {
	case c.writeCh <- chunk:
		return len(p), nil
	case <-c.closed:
		return 0, io.ErrClosedPipe
	}
}

func (c *chanConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

type portTestEnv struct {
	t      *testing.T
	conn   *chanConn
	port   *Port
	cancel context.CancelFunc
	runErr chan error
}

func newPortTestEnv(t *testing.T) *portTestEnv {
	env := &portTestEnv{
		t:      t,
		conn:   newChanConn(),
		runErr: make(chan error, 1),
	}
	env.port = New("A", env.conn)
	var ctx context.Context
	ctx, env.cancel = context.WithCancel(context.Background())
	go func() { env.runErr <- env.port.Run(ctx) }()
	return env
}

func (e *portTestEnv) stop() {
	e.cancel()
	<-e.runErr
}

func (e *portTestEnv) expectWrite(bs ...byte) {
	e.t.Helper()
	select {
	case w := <-e.conn.writeCh:
		require.Equal(e.t, bs, w)
	case <-time.After(500 * time.Millisecond):
		e.t.Fatalf("expect write % x timeout", bs)
	}
}

func (e *portTestEnv) expectNoWrite() {
	e.t.Helper()
	select {
	case w := <-e.conn.writeCh:
		e.t.Fatalf("unexpected write % x", w)
	default:
	}
}

func (e *portTestEnv) inject(bs ...byte) {
	e.conn.readCh <- bs
}

func (e *portTestEnv) result(ch <-chan Result) Result {
	e.t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(500 * time.Millisecond):
		e.t.Fatal("result timeout")
	}
	return Result{}
}

func (e *portTestEnv) noResult(ch <-chan Result) {
	e.t.Helper()
	select {
	case r := <-ch:
		e.t.Fatalf("unexpected result %+v", r)
	case <-time.After(20 * time.Millisecond):
	}
}

func syncBytes() []byte {
	return wire.SyncCommand().Bytes()
}

func TestSimpleCommandsCompleteInOrder(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	orderCh := make(chan int, 3)
	for n := 0; n < 3; n++ {
		pin, err := env.port.Pin(n)
		require.NoError(t, err)
		idx := n
		require.NoError(t, pin.High(func(r Result) {
			if r.Err == nil {
				orderCh <- idx
			}
		}))
		env.expectWrite(append([]byte{byte(wire.OpGPIOHigh), byte(n)}, syncBytes()...)...)
	}
	require.Equal(t, 3, env.port.Pending())

	env.inject(wire.ReplyData, 0x88, wire.ReplyData)
	require.Equal(t, 0, <-orderCh)
	env.inject(0x88, wire.ReplyData, 0x88)
	require.Equal(t, 1, <-orderCh)
	require.Equal(t, 2, <-orderCh)
}

func TestSimpleCommandWithoutCompletion(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	pin, err := env.port.Pin(7)
	require.NoError(t, err)
	require.NoError(t, pin.Toggle(nil))
	env.expectWrite(byte(wire.OpGPIOToggle), 7)
	require.NoError(t, pin.Output(false, nil))
	env.expectWrite(byte(wire.OpGPIOLow), 7)
	require.NoError(t, pin.Output(true, nil))
	env.expectWrite(byte(wire.OpGPIOHigh), 7)
	require.Equal(t, 0, env.port.Pending())

	_, err = env.port.Pin(8)
	require.Equal(t, ErrNoPin, errors.Cause(err))
	require.Len(t, env.port.Pins(), 8)
}

func TestReceiveFragmented(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	done, ch := Await()
	require.NoError(t, env.port.Receive(4, done))
	env.expectWrite(byte(wire.OpRX), 4)

	env.inject(wire.ReplyData, 1, 2)
	env.noResult(ch)
	env.inject(3)
	env.noResult(ch)
	env.inject(4)
	r := env.result(ch)
	require.NoError(t, r.Err)
	require.Equal(t, []byte{1, 2, 3, 4}, r.Data)
}

func TestTransmitReceive(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	done, ch := Await()
	require.NoError(t, env.port.TransmitReceive([]byte{0xde, 0xad}, done))
	env.expectWrite(byte(wire.OpTXRX), 2, 0xde, 0xad)
	env.inject(wire.ReplyData, 0xbe, 0xef)
	require.Equal(t, []byte{0xbe, 0xef}, env.result(ch).Data)
}

func TestAsyncEventBetweenReplies(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	events, closeEvents := env.port.EventChan(4)
	defer closeEvents()

	pin0, _ := env.port.Pin(0)
	pin1, _ := env.port.Pin(1)
	done0, ch0 := Await()
	done1, ch1 := Await()
	require.NoError(t, pin0.Read(done0))
	env.expectWrite(byte(wire.OpGPIOIn), 0)
	require.NoError(t, pin1.Read(done1))
	env.expectWrite(byte(wire.OpGPIOIn), 1)

	env.inject(wire.ReplyHigh, wire.AsyncPinChangeN, wire.ReplyLow)
	r0, r1 := env.result(ch0), env.result(ch1)
	require.True(t, r0.High())
	require.False(t, r1.High())
	require.Equal(t, wire.ReplyLow, r1.Status)

	select {
	case e := <-events:
		require.Equal(t, "A", e.Port)
		pin, ok := e.PinChange()
		require.True(t, ok)
		require.Equal(t, 0, pin)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("event timeout")
	}
	select {
	case e := <-events:
		t.Fatalf("unexpected event %s", e)
	default:
	}
}

func TestPinOnChange(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	pin3, _ := env.port.Pin(3)
	changes := make(chan Event, 4)
	remove := pin3.OnChange(HandleEventFunc(func(e Event) { changes <- e }))
	env.inject(wire.AsyncPinChangeN|1, wire.AsyncPinChangeN|3)
	select {
	case e := <-changes:
		require.Equal(t, wire.Event(wire.AsyncPinChangeN|3), e.Code)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("pin change timeout")
	}
	remove()
	env.inject(wire.AsyncPinChangeN | 3)
	done, ch := Await()
	require.NoError(t, env.port.Sync(done))
	env.expectWrite(syncBytes()...)
	env.inject(wire.ReplyData, 0x88)
	env.result(ch)
	require.Empty(t, changes)
}

func TestTransmitLength(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	for _, size := range []int{0, 256} {
		err := env.port.Transmit(make([]byte, size), nil)
		require.Equalf(t, ErrInvalidLength, errors.Cause(err), "size %d", size)
		env.expectNoWrite()
	}
	require.Equal(t, ErrInvalidLength, errors.Cause(env.port.Receive(0, nil)))
	require.Equal(t, ErrInvalidLength, errors.Cause(env.port.Receive(256, nil)))
	require.Equal(t, ErrInvalidLength, errors.Cause(env.port.TransmitReceive(nil, nil)))
	env.expectNoWrite()
	require.Equal(t, 0, env.port.Pending())

	require.NoError(t, env.port.Transmit([]byte{9}, nil))
	env.expectWrite(byte(wire.OpTX), 1, 9)
	big := make([]byte, 255)
	require.NoError(t, env.port.Transmit(big, nil))
	env.expectWrite(append([]byte{byte(wire.OpTX), 255}, big...)...)
}

func TestTransactionAbortWritesNothing(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	err := env.port.Transact(func(tx *Tx) error {
		tx.SimpleCommand(wire.NewCommand(wire.OpGPIOHigh, 1), func(Result) {})
		return tx.Transmit(nil, nil)
	})
	require.Equal(t, ErrInvalidLength, errors.Cause(err))
	env.expectNoWrite()
	require.Equal(t, 0, env.port.Pending())
}

func TestTransactionUsedAfterRelease(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	var leaked *Tx
	require.NoError(t, env.port.Transact(func(tx *Tx) error {
		leaked = tx
		return nil
	}))
	require.Panics(t, func() {
		leaked.SimpleCommand(wire.NewCommand(wire.OpNop), nil)
	})
}

func TestUnexpectedDataReplyIsFatal(t *testing.T) {
	env := newPortTestEnv(t)

	env.inject(wire.ReplyData, 1)
	select {
	case err := <-env.runErr:
		require.Equal(t, ErrUnexpectedDataReply, errors.Cause(err))
	case <-time.After(500 * time.Millisecond):
		t.Fatal("run didn't stop")
	}
	require.Equal(t, ErrUnexpectedDataReply, errors.Cause(env.port.Err()))
	require.Equal(t, ErrUnexpectedDataReply, errors.Cause(env.port.Feed([]byte{wire.ReplyACK})))

	pin, _ := env.port.Pin(0)
	require.Equal(t, ErrUnexpectedDataReply, errors.Cause(pin.High(nil)))
	env.expectNoWrite()
}

func TestTransportClosedFailsPending(t *testing.T) {
	env := newPortTestEnv(t)

	done1, ch1 := Await()
	done2, ch2 := Await()
	require.NoError(t, env.port.Receive(2, done1))
	require.NoError(t, env.port.Sync(done2))
	env.expectWrite(byte(wire.OpRX), 2)
	env.expectWrite(syncBytes()...)

	close(env.conn.readCh)
	require.Equal(t, ErrTransportClosed, errors.Cause(env.result(ch1).Err))
	require.Equal(t, ErrTransportClosed, errors.Cause(env.result(ch2).Err))
	require.Equal(t, ErrTransportClosed, errors.Cause(<-env.runErr))
	require.Equal(t, ErrTransportClosed, errors.Cause(env.port.Flush(nil)))
}

func TestWriteFailureCompletesOnce(t *testing.T) {
	env := newPortTestEnv(t)

	done1, ch1 := Await()
	require.NoError(t, env.port.Sync(done1))
	env.expectWrite(syncBytes()...)

	env.conn.writeErr = io.ErrClosedPipe
	var calls int32
	pin, _ := env.port.Pin(2)
	err := pin.High(func(Result) { atomic.AddInt32(&calls, 1) })
	require.Equal(t, ErrTransportClosed, errors.Cause(err))
	require.Equal(t, 0, env.port.Pending())

	// commands from earlier transactions still get the error.
	require.Equal(t, ErrTransportClosed, errors.Cause(env.result(ch1).Err))
	<-env.runErr
	require.Zero(t, atomic.LoadInt32(&calls))
	require.Equal(t, ErrTransportClosed, errors.Cause(env.port.Err()))
}

func TestCloseFailsPending(t *testing.T) {
	env := newPortTestEnv(t)

	done, ch := Await()
	require.NoError(t, env.port.Sync(done))
	env.expectWrite(syncBytes()...)
	require.NoError(t, env.port.Close())
	require.Equal(t, ErrTransportClosed, errors.Cause(env.result(ch).Err))
	<-env.runErr
}

func TestWaitGivesUpWithoutDequeue(t *testing.T) {
	env := newPortTestEnv(t)
	defer env.stop()

	done, ch := Await()
	require.NoError(t, env.port.Sync(done))
	env.expectWrite(syncBytes()...)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, Wait(ctx, ch).Err)
	require.Equal(t, 1, env.port.Pending())

	env.inject(wire.ReplyData, 0x88)
	r := Wait(context.Background(), ch)
	require.NoError(t, r.Err)
	require.Equal(t, []byte{0x88}, r.Data)
}
