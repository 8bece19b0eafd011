// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBuilder is raised when an element is constructed without a builder.
	ErrNoBuilder = errors.New("no active builder")
	// ErrClosed is raised when a finalized builder is used again.
	ErrClosed = errors.New("builder is closed")
	// ErrSingleUse is raised when an allocator-style node is used after it
	// has been settled.
	ErrSingleUse = errors.New("single-use allocator already settled")
	// ErrRate is raised for unsupported rates or rate combinations.
	ErrRate = errors.New("unsupported rate")
	// ErrCycle is raised when an element depends on its own expansion or a
	// node references a node that does not precede it.
	ErrCycle = errors.New("cyclic graph")
	// ErrArgument is raised for invalid element arguments.
	ErrArgument = errors.New("invalid argument")
	// ErrDuplicateControl is raised when two control banks share a name.
	ErrDuplicateControl = errors.New("duplicate control name")
)

// ConstructionError reports a failure while building a graph.
type ConstructionError struct {
	Msg string
	Err error
}

func (e *ConstructionError) Error() string {
	switch {
	case e.Msg == "":
		return "graph construction: " + e.Err.Error()
	case e.Err == nil:
		return "graph construction: " + e.Msg
	default:
		return fmt.Sprintf("graph construction: %s: %v", e.Msg, e.Err)
	}
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// Fail aborts the current build. It panics with a *ConstructionError that is
// recovered by Build or Finalize.
func Fail(cause error, format string, args ...any) {
	panic(&ConstructionError{Msg: fmt.Sprintf(format, args...), Err: cause})
}

// Try runs fn and returns the ConstructionError it raises, if any.
func Try(fn func()) (err error) {
	defer recoverInto(&err)
	fn()
	return nil
}

// recoverInto turns a ConstructionError panic into *errp. Other panics are
// re-raised.
func recoverInto(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ce, ok := r.(*ConstructionError); ok {
		*errp = ce
		return
	}
	panic(r)
}
