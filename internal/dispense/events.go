package dispense

import (
	"sync"
	"time"
)

const (
	EventSent         = "sent"
	EventAcked        = "acked"
	EventError        = "error"
	EventTimeout      = "timeout"
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
)

// Event is one entry in the session's activity feed.
type Event struct {
	Type        string    `json:"type"`
	MachineCode string    `json:"machineCode,omitempty"`
	SlotNumber  int       `json:"slotNumber,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	At          time.Time `json:"at"`
}

// eventLog keeps the most recent events, dropping the oldest once full.
type eventLog struct {
	mu      sync.Mutex
	entries []Event
	limit   int
}

func newEventLog(limit int) *eventLog {
	if limit <= 0 {
		limit = 64
	}
	return &eventLog{limit: limit}
}

func (l *eventLog) Append(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	l.entries = append(l.entries, event)
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
}

// Snapshot returns the retained events, newest last.
func (l *eventLog) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.entries))
	copy(out, l.entries)
	return out
}
