// Package dashboard holds the view loaders behind the statistics and user
// management pages. Loads run concurrently and every state write is dropped
// once the view has been unmounted.
package dashboard

import (
	"errors"
	"sync/atomic"

	"github.com/foxzi/statboard/internal/access"
)

// ErrUnmounted is returned by a load whose results were discarded because the
// view ended while it was in flight
var ErrUnmounted = errors.New("view unmounted")

// Liveness marks whether a view may still apply state
type Liveness struct {
	ended atomic.Bool
}

// Alive reports whether End has not been called
func (l *Liveness) Alive() bool {
	return !l.ended.Load()
}

// End marks the view as gone. It is safe to call more than once.
func (l *Liveness) End() {
	l.ended.Store(true)
}

// Guard ends l as soon as gate stops allowing req for src. The returned func
// stops watching without ending l.
func Guard(l *Liveness, gate access.Gate, src access.Source, req access.Requirement) func() {
	return gate.Watch(src, req, func(d access.Decision) {
		if d.Outcome != access.Allow {
			l.End()
		}
	})
}

// Error is a load or action failure with the text the page shows
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
