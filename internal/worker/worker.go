// Package worker runs one operation at a time off the caller's goroutine,
// delivering the outcome on a channel. A second submission while one is in
// flight is rejected, not queued.
package worker

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrBusy is returned by Submit while another operation is in flight.
var ErrBusy = errors.New("operation already in progress")

// Outcome carries a finished operation's value back to the submitter.
type Outcome struct {
	Name  string
	Value any
	Err   error
}

// Runner executes at most one operation at a time on a background
// goroutine. The zero value is ready to use.
type Runner struct {
	busy atomic.Bool
}

// New returns an idle Runner.
func New() *Runner {
	return &Runner{}
}

// Busy reports whether an operation is currently running.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Submit starts fn on its own goroutine and returns a channel that delivers
// exactly one Outcome. Returns ErrBusy if an operation is already running.
// A panic in fn is recovered into the Outcome error.
func (r *Runner) Submit(name string, fn func() (any, error)) (<-chan Outcome, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	ch := make(chan Outcome, 1)
	go func() {
		defer r.busy.Store(false)
		defer func() {
			if p := recover(); p != nil {
				ch <- Outcome{Name: name, Err: fmt.Errorf("operation %s panicked: %v", name, p)}
			}
		}()
		value, err := fn()
		ch <- Outcome{Name: name, Value: value, Err: err}
	}()
	return ch, nil
}
