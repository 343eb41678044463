package events

import (
	"sync"
	"time"
)

// Notification is a cross-system message queued by a session and delivered
// only after the session reaches a terminal state.
type Notification interface {
	notification()
}

// SessionFinished announces the end of one simulation session.
type SessionFinished struct {
	SessionID      string
	LevelID        string
	PersonaID      string
	Outcome        string
	Reason         string
	LevelCompleted bool
	Score          int
	Duration       time.Duration // Wall-clock
	SimTime        float64       // Simulated seconds
}

func (SessionFinished) notification() {}

// Outbox is an ordered queue of outbound notifications.
type Outbox struct {
	mu    sync.Mutex
	queue []Notification
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Push appends n to the queue.
func (o *Outbox) Push(n Notification) {
	o.mu.Lock()
	o.queue = append(o.queue, n)
	o.mu.Unlock()
}

// Drain removes and returns every queued notification in push order.
func (o *Outbox) Drain() []Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.queue
	o.queue = nil
	return out
}

// Len returns the number of queued notifications.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}
