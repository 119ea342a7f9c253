package port

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/coproc.go/pkg/wire"
)

// DemuxState is the decoding state of a Demux.
type DemuxState int

const (
	// StateAwaitingLeadByte waits for the first byte of a reply or an event.
	StateAwaitingLeadByte DemuxState = iota
	// StateAwaitingPayload has seen a DATA marker and waits for its payload.
	StateAwaitingPayload
	// StateFailed is out of sync and refuses further input.
	StateFailed
)

// String implements fmt.Stringer.
func (s DemuxState) String() string {
	switch s {
	case StateAwaitingLeadByte:
		return "awaiting-lead-byte"
	case StateAwaitingPayload:
		return "awaiting-payload"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Demux splits the inbound byte stream into replies, which complete the
// pending entries of Queue in order, and events, which go to OnEvent.
//
// Demux is not safe for concurrent Feed. It keeps the undecoded tail of the
// input between Feed calls, so bytes may arrive in arbitrary fragments.
type Demux struct {
	Queue   *ReplyQueue
	OnEvent func(wire.Event)

	buf      []byte
	awaiting int
	err      error
}

// NewDemux creates a Demux dispatching replies to q.
func NewDemux(q *ReplyQueue, onEvent func(wire.Event)) *Demux {
	return &Demux{Queue: q, OnEvent: onEvent}
}

// State gets the current decoding state.
func (d *Demux) State() DemuxState {
	switch {
	case d.err != nil:
		return StateFailed
	case d.awaiting > 0:
		return StateAwaitingPayload
	default:
		return StateAwaitingLeadByte
	}
}

// Awaiting returns the payload size of the DATA reply being waited for.
func (d *Demux) Awaiting() int {
	return d.awaiting
}

// Buffered is the number of received bytes not decoded yet.
func (d *Demux) Buffered() int {
	return len(d.buf)
}

// Err returns the error which stopped decoding.
func (d *Demux) Err() error {
	return d.err
}

// Feed consumes received bytes and dispatches every reply and event which
// is complete. An incomplete DATA reply stays buffered, marker included,
// until the rest of its payload is fed. Once Feed fails, the stream is out
// of sync and all following calls return the same error.
func (d *Demux) Feed(p []byte) error {
	if d.err != nil {
		return d.err
	}
	d.buf = append(d.buf, p...)
	n, err := d.drain()
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
	if err != nil {
		d.err, d.buf, d.awaiting = err, nil, 0
		glog.Warningf("demux stopped: %v", err)
	}
	return err
}

func (d *Demux) drain() (consumed int, err error) {
	for consumed < len(d.buf) {
		n, err := d.step(d.buf[consumed:])
		if err != nil || n == 0 {
			return consumed, err
		}
		consumed += n
	}
	return consumed, nil
}

// step decodes one frame from the start of in and returns its size, or 0 if
// more input is needed.
func (d *Demux) step(in []byte) (int, error) {
	lead := in[0]
	d.awaiting = 0
	switch wire.Classify(lead) {
	case wire.ClassAsync:
		glog.V(3).Infof("event %s", wire.Event(lead))
		if d.OnEvent != nil {
			d.OnEvent(wire.Event(lead))
		}
		return 1, nil
	case wire.ClassData:
		size, ok := d.Queue.Head()
		if !ok {
			return 0, errors.Wrap(ErrUnexpectedDataReply, "no command pending")
		}
		if size == 0 {
			return 0, errors.Wrap(ErrUnexpectedDataReply, "pending command expects a status reply")
		}
		if len(in) < size+1 {
			d.awaiting = size
			return 0, nil
		}
		data := make([]byte, size)
		copy(data, in[1:size+1])
		glog.V(3).Infof("reply DATA % x", data)
		if err := d.Queue.MatchAndPop(Result{Status: lead, Data: data}); err != nil {
			return 0, err
		}
		return size + 1, nil
	default:
		size, ok := d.Queue.Head()
		if !ok {
			return 0, errors.Wrapf(ErrUnexpectedReply, "%s with no command pending", wire.ReplyName(lead))
		}
		r := Result{Status: lead}
		if size > 0 {
			r.Err = &StatusError{Status: lead}
		}
		glog.V(3).Infof("reply %s", wire.ReplyName(lead))
		if err := d.Queue.MatchAndPop(r); err != nil {
			return 0, err
		}
		return 1, nil
	}
}
