// Package mqtt bridges a board to MQTT: asynchronous events are published
// and pin commands are subscribed.
//
// Topics, relative to the topic prefix of the broker URL:
//
//	<board>/<port>/event          - published events, see EventMessage
//	<board>/<port>/pin/<n>        - commands: high, low, toggle, read
//	<board>/<port>/pin/<n>/state  - published results, see PinStateMessage
package mqtt

import (
	"context"
	"strconv"
	"strings"

	"github.com/golang/glog"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/coproc.go/pkg/board"
	"github.com/robotalks/coproc.go/pkg/port"
)

// Pin command actions.
const (
	ActionHigh   = "high"
	ActionLow    = "low"
	ActionToggle = "toggle"
	ActionRead   = "read"
)

// EventTopic is the topic events of a port are published to.
func EventTopic(boardID, portName string) string {
	return boardID + "/" + portName + "/event"
}

// PinTopic is the topic commands of a pin are subscribed from.
func PinTopic(boardID, portName string, pin int) string {
	return boardID + "/" + portName + "/pin/" + strconv.Itoa(pin)
}

// PinStateTopic is the topic results of pin commands are published to.
func PinStateTopic(boardID, portName string, pin int) string {
	return PinTopic(boardID, portName, pin) + "/state"
}

// Bridge connects a Board with a Queue.
type Bridge struct {
	Board *board.Board
	Queue *Queue

	publish func(topic string, payload []byte)
}

// NewBridge creates a Bridge.
func NewBridge(b *board.Board, q *Queue) *Bridge {
	br := &Bridge{Board: b, Queue: q}
	br.publish = func(topic string, payload []byte) {
		if token := q.Pub(topic, payload); token.Error() != nil {
			glog.Warningf("publish %q: %v", topic, token.Error())
		}
	}
	return br
}

// Name implements framework.Named.
func (br *Bridge) Name() string {
	return "mqtt-bridge"
}

// Run connects the Queue and bridges until ctx is done.
func (br *Bridge) Run(ctx context.Context) error {
	sub := br.Queue.Sub(br.Board.ID+"/+/pin/+", br.HandleCommand)
	defer sub.Close()
	remove := br.Board.AddEventHandler(br)
	defer remove()
	if err := br.Queue.Connect(ctx); err != nil {
		return err
	}
	defer br.Queue.Close()
	<-ctx.Done()
	return ctx.Err()
}

// HandleEvent implements port.EventHandler.
func (br *Bridge) HandleEvent(e port.Event) {
	br.send(EventTopic(br.Board.ID, e.Port), EventMessage(e))
}

// HandleCommand handles a message from a pin topic.
func (br *Bridge) HandleCommand(topic string, payload []byte) {
	tokens := strings.Split(topic, "/")
	if len(tokens) != 4 || tokens[0] != br.Board.ID || tokens[2] != "pin" {
		return
	}
	n, err := strconv.Atoi(tokens[3])
	if err != nil {
		glog.Warningf("%s: invalid pin", topic)
		return
	}
	action := strings.ToLower(strings.TrimSpace(string(payload)))
	stateTopic := PinStateTopic(br.Board.ID, tokens[1], n)
	done := func(r port.Result) {
		br.send(stateTopic, PinStateMessage(tokens[1], n, action, r))
	}
	if err := br.pinCommand(tokens[1], n, action, done); err != nil {
		glog.Warningf("%s: %s: %v", topic, action, err)
		done(port.Result{Err: err})
	}
}

func (br *Bridge) pinCommand(portName string, n int, action string, done port.Completion) error {
	p, err := br.Board.Port(portName)
	if err != nil {
		return err
	}
	pin, err := p.Pin(n)
	if err != nil {
		return err
	}
	switch action {
	case ActionHigh:
		return pin.High(done)
	case ActionLow:
		return pin.Low(done)
	case ActionToggle:
		return pin.Toggle(done)
	case ActionRead:
		return pin.Read(done)
	}
	return errUnknownAction(action)
}

func (br *Bridge) send(topic string, msg *structpb.Struct) {
	payload, err := Encode(msg)
	if err != nil {
		glog.Errorf("encode %q: %v", topic, err)
		return
	}
	br.publish(topic, payload)
}

type errUnknownAction string

func (e errUnknownAction) Error() string {
	return "unknown action " + strconv.Quote(string(e))
}
