// Package ftui provides the error taxonomy for the render core.
//
// Recoverable kinds are absorbed by the component that detects them and
// surfaced as telemetry counters; only ErrArenaExhausted (and an explicit
// Quit command) unwinds the program.
package ftui

import (
	"errors"
	"sync/atomic"
)

// Error kinds. Each surfaces with a distinct kind tag via errors.Is.
var (
	// ErrGeometryDegenerate marks a resize to a zero-area buffer.
	// Render becomes a no-op; the loop continues.
	ErrGeometryDegenerate = errors.New("geometry degenerate")

	// ErrEncoderBackpressure marks a short or blocked sink write.
	// Retried with bounded spins, then degrades.
	ErrEncoderBackpressure = errors.New("encoder backpressure")

	// ErrInputParseMalformed marks an incomplete escape sequence or bad
	// UTF-8. Bytes are dropped up to the next resync point.
	ErrInputParseMalformed = errors.New("input parse malformed")

	// ErrBudgetExceeded marks a frame over budget. Soft: feeds the
	// controller, never fatal.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrArenaExhausted marks arena growth failure. Fatal: the program
	// tears down.
	ErrArenaExhausted = errors.New("arena exhausted")

	// ErrPosteriorClampHit marks α or β hitting the clamp bound.
	// Logged once, execution continues.
	ErrPosteriorClampHit = errors.New("posterior clamp hit")

	// ErrCoalescerOverflow marks pending resizes past the queue cap.
	// The oldest entry is dropped, the newest size kept.
	ErrCoalescerOverflow = errors.New("coalescer overflow")
)

// ErrorCounters aggregates occurrences of recoverable error kinds.
// Written by the render worker, read by overlays.
type ErrorCounters struct {
	GeometryDegenerate  atomic.Uint64
	EncoderBackpressure atomic.Uint64
	InputParseMalformed atomic.Uint64
	BudgetExceeded      atomic.Uint64
	PosteriorClampHit   atomic.Uint64
	CoalescerOverflow   atomic.Uint64
}

// Counters is the process-wide counter set.
var Counters ErrorCounters
