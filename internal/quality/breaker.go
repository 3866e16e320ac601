package quality

import "sync"

// Breaker counts consecutive step failures for one run and opens after
// maxFailures, forcing the graceful-degradation path. A single success
// resets the count and closes the circuit.
type Breaker struct {
	mu          sync.Mutex
	failures    int
	maxFailures int
	open        bool
}

// NewBreaker creates a breaker that opens after maxFailures consecutive
// failures (default 5).
func NewBreaker(maxFailures int) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	return &Breaker{maxFailures: maxFailures}
}

// RecordFailure registers a step failure and reports whether the circuit
// is now open.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.maxFailures {
		b.open = true
	}
	return b.open
}

// RecordSuccess resets the consecutive-failure count and closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}

// Open reports whether the circuit is currently open.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Failures returns the current consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
