// Package wire encodes commands and classifies replies of the coprocessor
// port protocol.
package wire

// Commands are a single opcode byte followed by zero or more argument bytes.
// Replies are a single lead byte: a status (ACK, NACK, HIGH, LOW), the DATA
// marker followed by as many payload bytes as the matching command asked for,
// or an asynchronous event (any byte >= MinAsync) that carries no payload and
// is not matched against any command.
//
// The package does no I/O.
