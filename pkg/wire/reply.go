package wire

import "fmt"

// Class is the class of a reply lead byte.
type Class int

// Reply classes.
const (
	// ClassStatus is a one byte reply consumed as the reply value.
	ClassStatus Class = iota
	// ClassData is the DATA marker, followed by payload.
	ClassData
	// ClassAsync is an unsolicited event.
	ClassAsync
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case ClassStatus:
		return "status"
	case ClassData:
		return "data"
	case ClassAsync:
		return "async"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Classify classifies a reply lead byte.
func Classify(b byte) Class {
	switch {
	case b >= MinAsync:
		return ClassAsync
	case b == ReplyData:
		return ClassData
	default:
		return ClassStatus
	}
}

// Event is an asynchronous event lead byte.
type Event byte

// NumPins is the number of pins whose changes are reported by events.
const NumPins = 8

// PinChange decodes a pin change event.
func (e Event) PinChange() (pin int, ok bool) {
	if byte(e)&^(NumPins-1) == AsyncPinChangeN {
		return int(byte(e) & (NumPins - 1)), true
	}
	return 0, false
}

// String implements fmt.Stringer.
func (e Event) String() string {
	if pin, ok := e.PinChange(); ok {
		return fmt.Sprintf("PIN_CHANGE(%d)", pin)
	}
	return fmt.Sprintf("ASYNC(0x%02x)", byte(e))
}
