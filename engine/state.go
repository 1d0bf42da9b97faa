package engine

import "fmt"

// State is the coordinator's lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateLoading
	StateFallbackTextOnly
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateLoading:
		return "loading"
	case StateFallbackTextOnly:
		return "fallback-text-only"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// busy reports whether the state shows a loading indicator.
func (s State) busy() bool {
	return s == StateInitializing || s == StateLoading
}

// ErrorState is the coordinator's failure bookkeeping.
type ErrorState struct {
	// LastError is the most recent construction or load failure.
	LastError error
	// ErrorCount counts failed render session constructions.
	ErrorCount int
	// RetryCount counts render session construction attempts in the current initialization.
	RetryCount int
	// InFallback is true in text-only mode.
	InFallback bool
}
