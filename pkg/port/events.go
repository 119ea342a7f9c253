package port

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/coproc.go/pkg/wire"
)

// Event is an asynchronous event received on a port.
type Event struct {
	Port string
	Code wire.Event
	Time time.Time
}

// PinChange decodes a pin change event.
func (e Event) PinChange() (pin int, ok bool) {
	return e.Code.PinChange()
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return e.Port + ": " + e.Code.String()
}

// EventHandler is called for every event received on a port, on the port's
// reader goroutine.
type EventHandler interface {
	HandleEvent(Event)
}

// HandleEventFunc is func type of EventHandler.
type HandleEventFunc func(Event)

// HandleEvent implements EventHandler.
func (f HandleEventFunc) HandleEvent(e Event) {
	f(e)
}

type eventHandlerEntry struct {
	handler EventHandler
}

// AddEventHandler registers h. The returned func unregisters it.
func (p *Port) AddEventHandler(h EventHandler) (remove func()) {
	entry := &eventHandlerEntry{handler: h}
	p.lock.Lock()
	p.handlers = append(p.handlers, entry)
	p.lock.Unlock()
	return func() {
		p.lock.Lock()
		defer p.lock.Unlock()
		for n, e := range p.handlers {
			if e == entry {
				p.handlers = append(p.handlers[:n:n], p.handlers[n+1:]...)
				break
			}
		}
	}
}

// EventChan registers a handler forwarding events to a chan with the given
// buffer size. Events are dropped when the chan is full. The returned func
// unregisters the handler and closes the chan.
func (p *Port) EventChan(size int) (<-chan Event, func()) {
	var (
		lock   sync.Mutex
		closed bool
	)
	ch := make(chan Event, size)
	remove := p.AddEventHandler(HandleEventFunc(func(e Event) {
		lock.Lock()
		defer lock.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
			glog.Warningf("%s: event %s dropped", p, e.Code)
		}
	}))
	return ch, func() {
		remove()
		lock.Lock()
		defer lock.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
}

func (p *Port) dispatchEvent(code wire.Event) {
	e := Event{Port: p.Name, Code: code, Time: time.Now()}
	p.lock.Lock()
	handlers := make([]EventHandler, len(p.handlers))
	for n, entry := range p.handlers {
		handlers[n] = entry.handler
	}
	p.lock.Unlock()
	for _, h := range handlers {
		h.HandleEvent(e)
	}
}
