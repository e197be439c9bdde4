// Package concurrency holds small lock-free primitives shared across the
// engine's components.
package concurrency

import (
	"sync/atomic"
)

// AtomicCounter provides lock-free counter operations.
type AtomicCounter struct {
	value int64
}

// NewAtomicCounter creates a new atomic counter.
func NewAtomicCounter(initial int64) *AtomicCounter {
	return &AtomicCounter{value: initial}
}

// Increment atomically increments and returns the new value.
func (ac *AtomicCounter) Increment() int64 {
	return atomic.AddInt64(&ac.value, 1)
}

// Load atomically loads the current value.
func (ac *AtomicCounter) Load() int64 {
	return atomic.LoadInt64(&ac.value)
}

// SequenceGenerator produces the monotonic audit identifier the audit
// record emitter (C9) attaches to every record — a process-local, strictly
// increasing counter, cheaper and simpler than a UUID when all that's
// needed is "never repeats, always increases" within one process.
type SequenceGenerator struct {
	counter AtomicCounter
}

// NewSequenceGenerator creates a new sequence generator starting at start.
func NewSequenceGenerator(start int64) *SequenceGenerator {
	return &SequenceGenerator{counter: *NewAtomicCounter(start)}
}

// Next returns the next sequence number.
func (sg *SequenceGenerator) Next() int64 {
	return sg.counter.Increment()
}

// Current returns the current sequence number without incrementing.
func (sg *SequenceGenerator) Current() int64 {
	return sg.counter.Load()
}
