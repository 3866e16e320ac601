package campaign

import (
	"sync"
	"time"
)

// InteractionStatus is the outcome of one agent invocation attempt.
type InteractionStatus string

const (
	InteractionRunning InteractionStatus = "running"
	InteractionSuccess InteractionStatus = "success"
	InteractionError   InteractionStatus = "error"
)

// Interaction is one append-only progress log entry.
type Interaction struct {
	Timestamp time.Time         `json:"timestamp"`
	Agent     string            `json:"agent_name"`
	Action    string            `json:"action"`
	Message   string            `json:"message"`
	Status    InteractionStatus `json:"status"`
}

const maxInteractionHistory = 500

// InteractionLog is the per-run append-only interaction record. One writer
// (the scheduler), many readers; live subscribers receive entries as they
// are appended.
type InteractionLog struct {
	mu          sync.Mutex
	entries     []Interaction
	subscribers map[int]chan Interaction
	nextSubID   int
	closed      bool
}

func NewInteractionLog() *InteractionLog {
	return &InteractionLog{
		entries:     make([]Interaction, 0, 64),
		subscribers: map[int]chan Interaction{},
	}
}

// Append records an interaction and fans it out to live subscribers.
// Slow subscribers are dropped rather than blocking the scheduler.
func (l *InteractionLog) Append(in Interaction) {
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) >= maxInteractionHistory {
		l.entries = append(l.entries[1:], in)
	} else {
		l.entries = append(l.entries, in)
	}
	for id, ch := range l.subscribers {
		select {
		case ch <- in:
		default:
			close(ch)
			delete(l.subscribers, id)
		}
	}
}

// All returns a copy of every retained entry in append order.
func (l *InteractionLog) All() []Interaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Interaction, len(l.entries))
	copy(out, l.entries)
	return out
}

// Recent returns the most recent n entries.
func (l *InteractionLog) Recent(n int) []Interaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Interaction, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Subscribe returns the history so far plus a live channel. The cancel
// function detaches the subscriber; the channel is closed when the run ends.
func (l *InteractionLog) Subscribe() ([]Interaction, <-chan Interaction, func()) {
	l.mu.Lock()
	history := make([]Interaction, len(l.entries))
	copy(history, l.entries)
	ch := make(chan Interaction, 32)
	if l.closed {
		close(ch)
		l.mu.Unlock()
		return history, ch, func() {}
	}
	subID := l.nextSubID
	l.nextSubID++
	l.subscribers[subID] = ch
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		if existing, ok := l.subscribers[subID]; ok {
			delete(l.subscribers, subID)
			close(existing)
		}
		l.mu.Unlock()
	}
	return history, ch, cancel
}

// Close detaches and closes all live subscribers. Entries remain readable.
func (l *InteractionLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for id, ch := range l.subscribers {
		close(ch)
		delete(l.subscribers, id)
	}
}
