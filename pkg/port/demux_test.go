package port

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/coproc.go/pkg/wire"
)

type demuxTestEnv struct {
	t       *testing.T
	queue   ReplyQueue
	demux   *Demux
	events  []wire.Event
	results []Result
}

func newDemuxTestEnv(t *testing.T) *demuxTestEnv {
	env := &demuxTestEnv{t: t}
	env.demux = NewDemux(&env.queue, func(e wire.Event) {
		env.events = append(env.events, e)
	})
	return env
}

func (e *demuxTestEnv) expect(size int) {
	e.queue.Push(size, func(r Result) {
		e.results = append(e.results, r)
	})
}

func (e *demuxTestEnv) feed(bs ...byte) {
	require.NoError(e.t, e.demux.Feed(bs))
}

func TestDemuxStatusReplies(t *testing.T) {
	env := newDemuxTestEnv(t)
	env.expect(0)
	env.expect(0)
	env.expect(0)
	env.feed(wire.ReplyACK, wire.ReplyHigh, wire.ReplyNACK)
	require.Len(t, env.results, 3)
	require.Equal(t, wire.ReplyACK, env.results[0].Status)
	require.True(t, env.results[0].Acked())
	require.Equal(t, wire.ReplyHigh, env.results[1].Status)
	require.True(t, env.results[1].High())
	require.False(t, env.results[1].Acked())
	require.Equal(t, wire.ReplyNACK, env.results[2].Status)
	require.False(t, env.results[2].Acked())
	for _, r := range env.results {
		require.NoError(t, r.Err)
		require.Empty(t, r.Data)
	}
	require.Equal(t, StateAwaitingLeadByte, env.demux.State())
}

func TestDemuxFragmentedData(t *testing.T) {
	payload := []byte{0xa0, 0xc0, 0x84, 0x00, 0xff}
	stream := append([]byte{wire.ReplyData}, payload...)
	env := newDemuxTestEnv(t)
	env.expect(len(payload))
	for n, b := range stream[:len(stream)-1] {
		env.feed(b)
		require.Emptyf(t, env.results, "completed after %d bytes", n+1)
		require.Equal(t, StateAwaitingPayload, env.demux.State())
		require.Equal(t, len(payload), env.demux.Awaiting())
		require.Equal(t, n+1, env.demux.Buffered())
	}
	env.feed(stream[len(stream)-1])
	require.Len(t, env.results, 1)
	require.Equal(t, payload, env.results[0].Data)
	require.Equal(t, wire.ReplyData, env.results[0].Status)
	require.Empty(t, env.events)
	require.Equal(t, 0, env.queue.Len())
	require.Equal(t, 0, env.demux.Buffered())
	require.Equal(t, StateAwaitingLeadByte, env.demux.State())
}

func TestDemuxDataSplitAcrossReplies(t *testing.T) {
	env := newDemuxTestEnv(t)
	env.expect(2)
	env.expect(0)
	env.expect(3)
	env.feed(wire.ReplyData, 1)
	env.feed(2, wire.ReplyACK, wire.ReplyData, 3, 4)
	require.Len(t, env.results, 2)
	env.feed(5)
	require.Len(t, env.results, 3)
	require.Equal(t, []byte{1, 2}, env.results[0].Data)
	require.Equal(t, wire.ReplyACK, env.results[1].Status)
	require.Equal(t, []byte{3, 4, 5}, env.results[2].Data)
	require.Equal(t, 0, env.demux.Buffered())
}

func TestDemuxAsyncEvents(t *testing.T) {
	env := newDemuxTestEnv(t)
	env.feed(0xc3)
	require.Equal(t, []wire.Event{0xc3}, env.events)

	env.expect(0)
	env.expect(0)
	env.feed(wire.ReplyHigh, wire.AsyncPinChangeN, wire.ReplyLow)
	require.Len(t, env.results, 2)
	require.Equal(t, wire.ReplyHigh, env.results[0].Status)
	require.Equal(t, wire.ReplyLow, env.results[1].Status)
	require.Equal(t, []wire.Event{0xc3, 0xc0}, env.events)
}

func TestDemuxStatusInsteadOfData(t *testing.T) {
	env := newDemuxTestEnv(t)
	env.expect(4)
	env.feed(wire.ReplyNACK)
	require.Len(t, env.results, 1)
	serr, ok := env.results[0].Err.(*StatusError)
	require.True(t, ok)
	require.Equal(t, wire.ReplyNACK, serr.Status)
	require.Equal(t, "status reply NACK instead of data", serr.Error())
}

func TestDemuxUnexpectedData(t *testing.T) {
	env := newDemuxTestEnv(t)
	err := env.demux.Feed([]byte{wire.ReplyData, 1})
	require.Error(t, err)
	require.Equal(t, ErrUnexpectedDataReply, errors.Cause(err))
	require.Equal(t, StateFailed, env.demux.State())

	env.expect(1)
	require.Equal(t, err, env.demux.Feed([]byte{wire.ReplyData, 1}))
	require.Empty(t, env.results)
	require.Equal(t, 0, env.demux.Buffered())
}

func TestDemuxDataForStatusCommand(t *testing.T) {
	env := newDemuxTestEnv(t)
	env.expect(0)
	err := env.demux.Feed([]byte{wire.ReplyData})
	require.Equal(t, ErrUnexpectedDataReply, errors.Cause(err))
	require.Equal(t, err, env.demux.Err())
	require.Empty(t, env.results)
}

func TestDemuxUnexpectedStatus(t *testing.T) {
	env := newDemuxTestEnv(t)
	err := env.demux.Feed([]byte{wire.ReplyACK})
	require.Equal(t, ErrUnexpectedReply, errors.Cause(err))
}
