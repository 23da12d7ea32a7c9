// Package interrupt provides the one-shot, re-armable latch that moves
// the terminal between display mode and compose mode.
//
// The latch has three actors: the signal-handling goroutine sets it
// when the operator presses the interrupt key, the receive loop sets
// it when the channel closes, and the send loop waits on it and clears
// it after each prompt cycle.
package interrupt

import "sync"

// Latch is a broadcast flag with wait semantics. Once set, every
// current and future waiter is released until Clear re-arms it.
type Latch struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{} // closed while the latch is set
}

// New returns an inactive latch.
func New() *Latch {
	return &Latch{ch: make(chan struct{})}
}

// Set marks the latch active and releases all waiters. Idempotent;
// extra calls while already set are absorbed.
func (l *Latch) Set() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.set {
		l.set = true
		close(l.ch)
	}
}

// Wait blocks the caller until the latch is active. Returns
// immediately when it is already set.
func (l *Latch) Wait() {
	l.mu.Lock()
	ch := l.ch
	l.mu.Unlock()
	<-ch
}

// Clear re-arms the latch so the next Wait blocks again. Idempotent.
func (l *Latch) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.set {
		l.set = false
		l.ch = make(chan struct{})
	}
}

// IsSet reports whether the latch is currently active.
func (l *Latch) IsSet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set
}
