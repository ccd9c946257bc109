// Package monitoring holds the diagnostic logging hooks used by the
// control-loop code.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf receives integrator and replay diagnostics. It defaults to
// log.Printf; SetLogger redirects or mutes it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. A nil f installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Throttle limits how often a recurring control-loop event is logged: the
// first event is always allowed, then every Nth after it.
type Throttle struct {
	every uint64
	count atomic.Uint64
}

// NewThrottle returns a Throttle that allows one event in every. A value of
// zero or one allows every event.
func NewThrottle(every uint64) *Throttle {
	return &Throttle{every: every}
}

// Allow records an event and reports whether it should be logged.
func (t *Throttle) Allow() bool {
	n := t.count.Add(1)
	if t.every <= 1 {
		return true
	}
	return n%t.every == 1
}

// Count returns the number of events recorded so far.
func (t *Throttle) Count() uint64 {
	return t.count.Load()
}
