package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-prologue/engine/cache"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
)

// Kind classifies a construction failure for retry decisions.
type Kind int

const (
	// KindTransient failures may succeed on retry.
	KindTransient Kind = iota
	// KindNotFound means the requested model or asset does not exist.
	KindNotFound
	// KindDisposed means a resource the construction needed was already released.
	KindDisposed
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindNotFound:
		return "not found"
	case KindDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified construction failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError wraps err with a kind and the operation that failed.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("model: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("model: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain. Released renderers and
// disposed caches count as KindDisposed; everything else unclassified is KindTransient.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	if errors.Is(err, renderer.ErrReleased) || errors.Is(err, cache.ErrDisposed) {
		return KindDisposed
	}
	return KindTransient
}

// IsRetryable reports whether retrying the construction that produced err could help.
// Cancelled or expired contexts are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return KindOf(err) == KindTransient
}
