package mqtt

import (
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/coproc.go/pkg/port"
)

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(n float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: n}}
}

// EventMessage converts an event to the message published on the event topic.
func EventMessage(e port.Event) *structpb.Struct {
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"port":  stringValue(e.Port),
		"event": stringValue(e.Code.String()),
		"code":  numberValue(float64(e.Code)),
		"time":  stringValue(e.Time.UTC().Format(time.RFC3339Nano)),
	}}
	if pin, ok := e.PinChange(); ok {
		msg.Fields["pin"] = numberValue(float64(pin))
	}
	return msg
}

// PinStateMessage converts the result of a pin command to the message
// published on the pin state topic.
func PinStateMessage(portName string, pin int, action string, r port.Result) *structpb.Struct {
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"port":   stringValue(portName),
		"pin":    numberValue(float64(pin)),
		"action": stringValue(action),
	}}
	if r.Err != nil {
		msg.Fields["error"] = stringValue(r.Err.Error())
		return msg
	}
	if action == ActionRead {
		msg.Fields["high"] = &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: r.High()}}
	}
	return msg
}

// Encode serializes a message.
func Encode(msg *structpb.Struct) ([]byte, error) {
	return proto.Marshal(msg)
}

// Decode deserializes a message.
func Decode(payload []byte) (*structpb.Struct, error) {
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(payload, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// FormatJSON renders a message as JSON.
func FormatJSON(msg *structpb.Struct) string {
	str, err := (&jsonpb.Marshaler{}).MarshalToString(msg)
	if err != nil {
		return err.Error()
	}
	return str
}
