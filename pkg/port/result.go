package port

import (
	"context"

	"github.com/robotalks/coproc.go/pkg/wire"
)

// Result is the reply to a command.
type Result struct {
	Err error
	// Status is the status byte of a status reply, or wire.ReplyData.
	Status byte
	// Data is the payload of a data reply.
	Data []byte
}

// Completion is invoked exactly once with the reply of a command, unless
// issuing the command returned an error. It runs on the port's reader
// goroutine and must not block.
type Completion func(Result)

// High reports whether the status is the HIGH reply of a pin read.
func (r Result) High() bool {
	return r.Err == nil && r.Status == wire.ReplyHigh
}

// Acked reports whether the status is ACK.
func (r Result) Acked() bool {
	return r.Err == nil && r.Status == wire.ReplyACK
}

// Await creates a Completion which delivers the Result to the returned chan.
func Await() (Completion, <-chan Result) {
	ch := make(chan Result, 1)
	return func(r Result) { ch <- r }, ch
}

// Wait waits for a Result or for ctx to be done. Giving up waiting doesn't
// remove the pending reply, the command stays in the queue.
func Wait(ctx context.Context, ch <-chan Result) Result {
	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}
