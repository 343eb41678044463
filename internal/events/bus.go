package events

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Handler consumes events delivered by a Bus.
type Handler func(e Event)

// Bus fans events out to subscribers. Emitting never fails: a subscriber
// that panics is recovered, logged and counted, and delivery continues with
// the next subscriber.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
	order    []int
	logger   *log.Logger
	failures int
}

// NewBus creates a bus. A nil logger discards failure reports.
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bus{
		handlers: make(map[int]Handler),
		logger:   logger,
	}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit delivers e to every subscriber in subscription order.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range hs {
		b.deliver(h, e)
	}
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.mu.Lock()
			b.failures++
			b.mu.Unlock()
			b.logger.Warn("event subscriber failed", "event", e.Kind(), "error", fmt.Sprint(r))
		}
	}()
	h(e)
}

// Failures returns how many deliveries panicked.
func (b *Bus) Failures() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failures
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Tee returns a Sink that emits to every non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return SinkFunc(func(e Event) {
		for _, s := range out {
			s.Emit(e)
		}
	})
}
