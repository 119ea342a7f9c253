package wire

import "fmt"

// Opcode is a command opcode.
type Opcode byte

// Command opcodes.
const (
	OpNop         Opcode = 0
	OpFlush       Opcode = 1
	OpEcho        Opcode = 2
	OpGPIOIn      Opcode = 3
	OpGPIOHigh    Opcode = 4
	OpGPIOLow     Opcode = 5
	OpGPIOCfg     Opcode = 6
	OpGPIOWait    Opcode = 7
	OpGPIOInt     Opcode = 8
	OpEnableSPI   Opcode = 10
	OpDisableSPI  Opcode = 11
	OpEnableI2C   Opcode = 12
	OpDisableI2C  Opcode = 13
	OpEnableUART  Opcode = 14
	OpDisableUART Opcode = 15
	OpTX          Opcode = 16
	OpRX          Opcode = 17
	OpTXRX        Opcode = 18
	OpStart       Opcode = 19
	OpStop        Opcode = 20
	OpGPIOToggle  Opcode = 21
)

// Reply lead bytes.
const (
	ReplyACK  byte = 0x80
	ReplyNACK byte = 0x81
	ReplyHigh byte = 0x82
	ReplyLow  byte = 0x83
	ReplyData byte = 0x84

	// MinAsync is the lowest lead byte of an asynchronous event.
	MinAsync byte = 0xA0
	// AsyncPinChangeN is the pin change event of pin 0, pin N is AsyncPinChangeN|N.
	AsyncPinChangeN byte = 0xC0
)

var opcodeNames = map[Opcode]string{
	OpNop:         "NOP",
	OpFlush:       "FLUSH",
	OpEcho:        "ECHO",
	OpGPIOIn:      "GPIO_IN",
	OpGPIOHigh:    "GPIO_HIGH",
	OpGPIOLow:     "GPIO_LOW",
	OpGPIOCfg:     "GPIO_CFG",
	OpGPIOWait:    "GPIO_WAIT",
	OpGPIOInt:     "GPIO_INT",
	OpEnableSPI:   "ENABLE_SPI",
	OpDisableSPI:  "DISABLE_SPI",
	OpEnableI2C:   "ENABLE_I2C",
	OpDisableI2C:  "DISABLE_I2C",
	OpEnableUART:  "ENABLE_UART",
	OpDisableUART: "DISABLE_UART",
	OpTX:          "TX",
	OpRX:          "RX",
	OpTXRX:        "TXRX",
	OpStart:       "START",
	OpStop:        "STOP",
	OpGPIOToggle:  "GPIO_TOGGLE",
}

var replyNames = map[byte]string{
	ReplyACK:  "ACK",
	ReplyNACK: "NACK",
	ReplyHigh: "HIGH",
	ReplyLow:  "LOW",
	ReplyData: "DATA",
}

// String implements fmt.Stringer.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OP(%d)", byte(o))
}

// Opcodes lists all known opcodes in numeric order.
func Opcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeNames))
	for op := OpNop; op <= OpGPIOToggle; op++ {
		if _, ok := opcodeNames[op]; ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// Replies lists the known synchronous reply bytes in numeric order.
func Replies() []byte {
	return []byte{ReplyACK, ReplyNACK, ReplyHigh, ReplyLow, ReplyData}
}

// ReplyName returns a readable name of a reply lead byte.
func ReplyName(b byte) string {
	if name, ok := replyNames[b]; ok {
		return name
	}
	if b >= MinAsync {
		return Event(b).String()
	}
	return fmt.Sprintf("0x%02x", b)
}
