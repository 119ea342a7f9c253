// Package transport establishes the byte-stream connection to a coprocessor
// port from a dial string.
//
// Supported dial strings:
//
//	unix:///var/run/tessel/port_a   - Unix domain socket (also a bare absolute path)
//	tcp://host:port                 - TCP, also tcp4:// and tcp6://
//	ws://host:port/path             - WebSocket, binary frames, also wss://
//	serial://device:baud            - Serial port in 8N1 mode, also rs232://
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/net/websocket"
)

// Schemes.
const (
	SchemeUnix   = "unix"
	SchemeTCP    = "tcp"
	SchemeWS     = "ws"
	SchemeSerial = "serial"
)

var (
	unixRe   = regexp.MustCompile(`^unix://(/.+)$`)
	netRe    = regexp.MustCompile(`^(tcp|tcp4|tcp6)://(.*:[a-zA-Z0-9]+)$`)
	wsRe     = regexp.MustCompile(`^wss?://.+$`)
	serialRe = regexp.MustCompile(`^(?:rs232|serial)://([^:]+):([0-9]+)$`)
)

// ErrBadDial indicates a dial string in no known form.
var ErrBadDial = errors.New("bad dial string")

// Target is a parsed dial string.
type Target struct {
	Scheme string
	// Network is the network passed to net.Dial for unix and tcp.
	Network string
	// Address is a socket path, host:port, URL or serial device.
	Address string
	// Baud is the serial baud rate.
	Baud int
}

// Parse parses a dial string.
func Parse(dial string) (Target, error) {
	if strings.HasPrefix(dial, "/") {
		return Target{Scheme: SchemeUnix, Network: "unix", Address: dial}, nil
	}
	if m := unixRe.FindStringSubmatch(dial); m != nil {
		return Target{Scheme: SchemeUnix, Network: "unix", Address: m[1]}, nil
	}
	if m := netRe.FindStringSubmatch(dial); m != nil {
		return Target{Scheme: SchemeTCP, Network: m[1], Address: m[2]}, nil
	}
	if wsRe.MatchString(dial) {
		return Target{Scheme: SchemeWS, Address: dial}, nil
	}
	if m := serialRe.FindStringSubmatch(dial); m != nil {
		baud, err := strconv.Atoi(m[2])
		if err != nil || baud <= 0 {
			return Target{}, errors.Wrapf(ErrBadDial, "invalid baud rate in %q", dial)
		}
		return Target{Scheme: SchemeSerial, Address: m[1], Baud: baud}, nil
	}
	return Target{}, errors.Wrapf(ErrBadDial, "%q", dial)
}

// String implements fmt.Stringer.
func (t Target) String() string {
	switch t.Scheme {
	case SchemeUnix:
		return "unix://" + t.Address
	case SchemeTCP:
		return t.Network + "://" + t.Address
	case SchemeSerial:
		return fmt.Sprintf("serial://%s:%d", t.Address, t.Baud)
	}
	return t.Address
}

// Dial parses dial and connects. timeout limits connecting, 0 means none.
func Dial(ctx context.Context, timeout time.Duration, dial string) (io.ReadWriteCloser, error) {
	t, err := Parse(dial)
	if err != nil {
		return nil, err
	}
	return t.Dial(ctx, timeout)
}

// Dial connects to the target.
func (t Target) Dial(ctx context.Context, timeout time.Duration) (io.ReadWriteCloser, error) {
	glog.V(1).Infof("dial %s", t)
	switch t.Scheme {
	case SchemeUnix, SchemeTCP:
		dialer := net.Dialer{Timeout: timeout}
		conn, err := dialer.DialContext(ctx, t.Network, t.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "dial %s", t)
		}
		return conn, nil
	case SchemeWS:
		return dialWebSocket(ctx, timeout, t.Address)
	case SchemeSerial:
		return openSerial(ctx, t)
	}
	return nil, errors.Wrapf(ErrBadDial, "unknown scheme %q", t.Scheme)
}

func dialWebSocket(ctx context.Context, timeout time.Duration, url string) (io.ReadWriteCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	config, err := websocket.NewConfig(url, "http://localhost/")
	if err != nil {
		return nil, errors.Wrapf(err, "websocket config %s", url)
	}
	config.Dialer = &net.Dialer{Timeout: timeout}
	conn, err := websocket.DialConfig(config)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

func openSerial(ctx context.Context, t Target) (io.ReadWriteCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	port, err := serial.Open(t.Address, &serial.Mode{
		BaudRate: t.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open serial device %q", t.Address)
	}
	return port, nil
}
