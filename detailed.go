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

// DetailedLogStrategy keeps a bounded history buffer for every object
// that appears as an argument or as a produced value, fanning each
// invocation record out to every (pool, object) pair it touched.
//
// Buffers are keyed by value equality within a pool: two equal values in
// the same pool share one history buffer, while equal values in distinct
// pools never do.  Objects must therefore be usable as map keys; an
// unhashable argument or produced value will panic.
type DetailedLogStrategy struct {
	bufferPerObject int
	logs            map[string]map[interface{}]*list.List
	poolOrder       []string
}

// NewDetailedLogStrategy creates a DetailedLogStrategy retaining at most
// bufferPerObject entries per (pool, object) pair.  A negative bound
// panics, as with NewSimpleLogStrategy.
func NewDetailedLogStrategy(bufferPerObject int) *DetailedLogStrategy {
	if bufferPerObject < 0 {
		panic(fmt.Sprintf("buffer length cannot be negative, got %d", bufferPerObject))
	}
	return &DetailedLogStrategy{
		bufferPerObject: bufferPerObject,
		logs:            map[string]map[interface{}]*list.List{},
	}
}

func (s *DetailedLogStrategy) AppendLog(entry *Invocation) {
	for _, arg := range entry.Args {
		s.update(s.objectLog(arg.PoolName, arg.Object), entry)
	}
	if entry.ReturnedValue == nil {
		return
	}
	for _, poolName := range entry.TargetPools {
		s.update(s.objectLog(poolName, entry.ReturnedValue), entry)
	}
}

func (s *DetailedLogStrategy) update(entries *list.List, entry *Invocation) {
	entries.PushBack(entry)
	if entries.Len() > s.bufferPerObject {
		entries.Remove(entries.Front())
	}
}

func (s *DetailedLogStrategy) objectLog(poolName string, obj interface{}) *list.List {
	pool, ok := s.logs[poolName]
	if !ok {
		pool = map[interface{}]*list.List{}
		s.logs[poolName] = pool
		s.poolOrder = append(s.poolOrder, poolName)
	}
	entries, ok := pool[obj]
	if !ok {
		entries = list.New()
		pool[obj] = entries
	}
	return entries
}

// History returns the retained entries for the given (pool, object)
// pair, earliest first, or nil if the pair was never touched.
func (s *DetailedLogStrategy) History(poolName string, obj interface{}) []*Invocation {
	pool, ok := s.logs[poolName]
	if !ok {
		return nil
	}
	entries, ok := pool[obj]
	if !ok {
		return nil
	}
	history := make([]*Invocation, 0, entries.Len())
	for el := entries.Front(); el != nil; el = el.Next() {
		history = append(history, el.Value.(*Invocation))
	}
	return history
}

func (s *DetailedLogStrategy) Dump() string {
	var buffer bytes.Buffer
	buffer.WriteString("[")
	for i, poolName := range s.poolOrder {
		if i > 0 {
			buffer.WriteString(", ")
		}
		buffer.WriteString(fmt.Sprintf("Pool:%q=", poolName))
		s.dumpPool(&buffer, s.logs[poolName])
	}
	buffer.WriteString("]")
	return buffer.String()
}

func (s *DetailedLogStrategy) dumpPool(buffer *bytes.Buffer, pool map[interface{}]*list.List) {
	buffer.WriteString("{")
	first := true
	for obj, entries := range pool {
		if !first {
			buffer.WriteString(", ")
		}
		first = false
		buffer.WriteString(fmt.Sprintf("%v=[", obj))
		for el := entries.Front(); el != nil; el = el.Next() {
			if el != entries.Front() {
				buffer.WriteString(", ")
			}
			buffer.WriteString(el.Value.(*Invocation).String())
		}
		buffer.WriteString("]")
	}
	buffer.WriteString("}")
}
