// Package board groups the ports of a coprocessor and manages their
// connections and reader loops.
package board

import (
	"context"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/coproc.go/pkg/framework"
	"github.com/robotalks/coproc.go/pkg/port"
	"github.com/robotalks/coproc.go/pkg/transport"
)

var (
	// ErrNoPort indicates the named port doesn't exist.
	ErrNoPort = errors.New("no such port")
	// ErrNoPorts indicates nothing is configured to open.
	ErrNoPorts = errors.New("no ports configured")
)

// Board is a coprocessor with named ports.
type Board struct {
	ID string

	ports []*port.Port
}

// New creates a Board from connected ports.
func New(id string, ports ...*port.Port) *Board {
	return &Board{ID: id, ports: ports}
}

// Open connects all configured ports. Ports already connected are closed if
// any of them fails.
func (c *Config) Open(ctx context.Context) (*Board, error) {
	dials := c.Ports()
	if len(dials) == 0 {
		return nil, ErrNoPorts
	}
	b := New(c.BoardID())
	for _, d := range dials {
		rw, err := transport.Dial(ctx, c.DialTimeout, d.Dial)
		if err != nil {
			b.Close()
			return nil, errors.Wrapf(err, "port %s", d.Name)
		}
		glog.Infof("port %s connected: %s", d.Name, d.Dial)
		b.ports = append(b.ports, port.New(d.Name, rw))
	}
	return b, nil
}

// Port finds a port by name, case insensitive.
func (b *Board) Port(name string) (*port.Port, error) {
	for _, p := range b.ports {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, errors.Wrapf(ErrNoPort, "%q", name)
}

// Ports returns all ports.
func (b *Board) Ports() []*port.Port {
	return b.ports
}

// AddEventHandler registers h on all ports.
func (b *Board) AddEventHandler(h port.EventHandler) (remove func()) {
	removes := make([]func(), 0, len(b.ports))
	for _, p := range b.ports {
		removes = append(removes, p.AddEventHandler(h))
	}
	return func() {
		for _, fn := range removes {
			fn()
		}
	}
}

// Run runs the readers of all ports until ctx is done. A failing port
// doesn't stop the others.
func (b *Board) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx)
	for _, p := range b.ports {
		runner.Go(fx.NamedRun(p.String(), p))
	}
	return runner.Wait()
}

// Close closes all ports.
func (b *Board) Close() error {
	var errs fx.AggregatedError
	for _, p := range b.ports {
		errs.Add(p.Close())
	}
	return errs.Aggregate()
}
