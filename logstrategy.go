/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck

import (
	"bytes"
	"container/list"
	"fmt"
)

// defaultLogBufferLength bounds the history buffer of the strategy the
// engine falls back to when none is configured.
const defaultLogBufferLength = 100

// LogStrategy receives the record of each counted step and renders the
// accumulated history as text for failure diagnostics.  Retention is the
// strategy's own business; the engine only appends and, on failure,
// dumps.
type LogStrategy interface {
	// AppendLog is called once per completed, counted step.  The entry
	// is immutable and owned by the strategy after the call.
	AppendLog(entry *Invocation)

	// Dump returns a textual representation of the retained entries.
	// It is embedded in the message of a TestFailedError.
	Dump() string
}

// SimpleLogStrategy keeps one global bounded buffer of the most recent
// invocations.  When the buffer is full, each new entry evicts the
// earliest one.
type SimpleLogStrategy struct {
	entries      *list.List
	bufferLength int
}

// NewSimpleLogStrategy creates a SimpleLogStrategy retaining at most
// bufferLength entries.  A negative bufferLength panics: it is a wiring
// mistake, not a runtime condition.
func NewSimpleLogStrategy(bufferLength int) *SimpleLogStrategy {
	if bufferLength < 0 {
		panic(fmt.Sprintf("buffer length cannot be negative, got %d", bufferLength))
	}
	return &SimpleLogStrategy{
		entries:      list.New(),
		bufferLength: bufferLength,
	}
}

func (s *SimpleLogStrategy) AppendLog(entry *Invocation) {
	s.entries.PushBack(entry)
	if s.entries.Len() > s.bufferLength {
		s.entries.Remove(s.entries.Front())
	}
}

func (s *SimpleLogStrategy) Dump() string {
	var buffer bytes.Buffer
	buffer.WriteString("[")
	for el := s.entries.Front(); el != nil; el = el.Next() {
		if el != s.entries.Front() {
			buffer.WriteString(", ")
		}
		buffer.WriteString(el.Value.(*Invocation).String())
	}
	buffer.WriteString("]")
	return buffer.String()
}

// Len returns the number of retained entries.
func (s *SimpleLogStrategy) Len() int {
	return s.entries.Len()
}
