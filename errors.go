/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck

import (
	"fmt"

	"github.com/pkg/errors"
)

// PreconditionError signals that the randomly chosen arguments do not
// satisfy an action's applicability condition.  It is not a bug: the
// engine silently abandons the attempt without counting or logging it.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	if e.Message == "" {
		return "precondition failed"
	}
	return "precondition failed: " + e.Message
}

// PostconditionError signals that an action's post-invocation contract
// was violated by a legally admitted input.  It is always a bug.
type PostconditionError struct {
	Message string
}

func (e *PostconditionError) Error() string {
	if e.Message == "" {
		return "postcondition failed"
	}
	return "postcondition failed: " + e.Message
}

// InvariantError signals that a pooled object's state contract was
// violated.  It is always a bug.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	if e.Message == "" {
		return "invariant failed"
	}
	return "invariant failed: " + e.Message
}

// Precondition returns nil if ok is true, and a *PreconditionError with
// the formatted message otherwise.  Action bodies return the result
// directly when the condition does not hold.
func Precondition(ok bool, format string, args ...interface{}) error {
	if ok {
		return nil
	}
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

// Postcondition returns nil if ok is true, and a *PostconditionError with
// the formatted message otherwise.
func Postcondition(ok bool, format string, args ...interface{}) error {
	if ok {
		return nil
	}
	return &PostconditionError{Message: fmt.Sprintf(format, args...)}
}

// Invariant returns nil if ok is true, and an *InvariantError with the
// formatted message otherwise.
func Invariant(ok bool, format string, args ...interface{}) error {
	if ok {
		return nil
	}
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// IsPrecondition reports whether err (or its cause) is a precondition
// signal.
func IsPrecondition(err error) bool {
	_, ok := errors.Cause(err).(*PreconditionError)
	return ok
}

// IsPostcondition reports whether err (or its cause) is a postcondition
// signal.
func IsPostcondition(err error) bool {
	_, ok := errors.Cause(err).(*PostconditionError)
	return ok
}

// IsInvariant reports whether err (or its cause) is an invariant signal.
func IsInvariant(err error) bool {
	_, ok := errors.Cause(err).(*InvariantError)
	return ok
}

// TestFailedError is the single diagnosable failure value produced when a
// run discovers a bug.  It identifies the action and the literal
// arguments used, carries the causing condition, and embeds a history
// dump obtained from the active LogStrategy at the moment of failure.
// It propagates out of Engine.Run immediately; the engine's state after a
// failure is considered unreliable and must not be reused.
type TestFailedError struct {
	// Message identifies the failing action and its arguments.
	Message string

	// Invocation is the attempted invocation which uncovered the bug.
	// Its ReturnedValue is nil, as the invocation did not complete.
	Invocation *Invocation

	// Cause is the underlying signal: a *PostconditionError, an
	// *InvariantError, or an arbitrary error (including a recovered
	// panic) raised by the action body.
	Cause error

	// Dump is the rendering of the invocation history at failure time.
	Dump string
}

func (e *TestFailedError) Error() string {
	return fmt.Sprintf("%s, log=%s, cause=%v", e.Message, e.Dump, e.Cause)
}

// Unwrap returns the causing condition.
func (e *TestFailedError) Unwrap() error {
	return e.Cause
}
