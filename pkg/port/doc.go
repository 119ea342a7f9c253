// Package port implements the host side of a coprocessor port: one
// byte-stream connection carrying commands out and replies back, with
// unsolicited events mixed into the reply stream.
package port

// Replies carry no sequence number, so a reply belongs to the oldest command
// still waiting for one. Every command expecting a reply appends a pending
// entry to the port's ReplyQueue when it is written, and the Demux pops the
// head for every reply it fully decodes. Event bytes (>= 0xA0) are handed to
// the event handlers and never touch the queue.
//
// Writes go through a transaction (Port.Transact). Everything written inside
// one transaction reaches the transport as a single Write, and no other
// caller can write to the port until it is released, so multi-command
// sequences like an I2C read (START, RX, STOP) are never interleaved with
// commands issued from other goroutines.
//
// Producer: coprocessor firmware
// Consumer: this package
