// Package session tracks live websocket connections per game and fans
// combat events out to them.
package session

import (
	"fmt"
	"sync"
)

// Outbox buffers outbound events for one connection, bridging the game
// engine to the websocket writer goroutine.
type Outbox struct {
	sessionID string
	events    chan []byte
	mu        sync.Mutex
	closed    bool
}

// NewOutbox creates an Outbox for the given session.
//
// Postcondition: Returns an Outbox with an open events channel.
func NewOutbox(sessionID string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		sessionID: sessionID,
		events:    make(chan []byte, bufferSize),
	}
}

// SessionID returns the owning session's identifier.
func (o *Outbox) SessionID() string {
	return o.sessionID
}

// Push enqueues data for the writer goroutine. A slow consumer is never
// waited on: when the buffer is full the event is dropped with an error.
//
// Postcondition: Data is enqueued, or an error if the outbox is closed
// or full.
func (o *Outbox) Push(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("session %s is closed", o.sessionID)
	}
	select {
	case o.events <- data:
		return nil
	default:
		return fmt.Errorf("session %s event buffer full", o.sessionID)
	}
}

// Events returns the read-only events channel. The websocket writer
// goroutine drains it until it is closed.
func (o *Outbox) Events() <-chan []byte {
	return o.events
}

// Close marks the outbox as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Push calls
// return an error.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
