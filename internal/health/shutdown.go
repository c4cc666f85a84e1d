package health

import "sync/atomic"

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness gate. Shutdown turns it off so load
// balancers drain traffic before the listener closes.
func SetReady(v bool) { ready.Store(v) }

// IsReady reports the current gate state.
func IsReady() bool { return ready.Load() }
