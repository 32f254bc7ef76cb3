/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package recorder persists the invocation history of a randomized run
// to a stream, so that a failing run can be reviewed offline (see
// cmd/randcat) or archived next to a bug report.  The stream holds one
// msgpack-encoded Header followed by one RecordedInvocation per counted
// step.  Compression is the caller's concern; wrapping the destination
// in a gzip.Writer is the usual arrangement.
package recorder

import (
	"io"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hyperledger-labs/randcheck"
)

// Header is the first record of every recording.
type Header struct {
	// RunID uniquely identifies the run.  Generated when left empty.
	RunID string

	// Name labels the scenario, typically RunConfig.Name.
	Name string

	// Seed and Steps reproduce the run given the same registration
	// list.
	Seed  int64
	Steps int
}

// RecordedArg is the serializable form of one resolved argument.  Values
// are rendered to strings at capture time: recordings exist for human
// diagnosis, not for replaying live objects.
type RecordedArg struct {
	Pool  string
	Value string
}

// RecordedInvocation is the serializable form of one counted step.
type RecordedInvocation struct {
	// Seq is the 1-based counted step number at capture time.
	Seq         uint64
	Action      string
	Args        []RecordedArg
	Returned    string
	TargetPools []string
}

// Interceptor is a LogStrategy which forwards every entry to an inner
// strategy and additionally writes it to the destination stream.  The
// first write error is retained and all further writes are dropped, so a
// broken sink degrades the recording without disturbing the run itself.
type Interceptor struct {
	next    randcheck.LogStrategy
	encoder *msgpack.Encoder
	seq     uint64
	err     error
}

// NewInterceptor writes the header to dest and returns an Interceptor
// wrapping next.  A zero header RunID is replaced with a fresh ULID.
func NewInterceptor(dest io.Writer, next randcheck.LogStrategy, header Header) (*Interceptor, error) {
	if header.RunID == "" {
		header.RunID = ulid.Make().String()
	}

	encoder := msgpack.NewEncoder(dest)
	if err := encoder.Encode(&header); err != nil {
		return nil, errors.WithMessage(err, "could not write recording header")
	}

	return &Interceptor{
		next:    next,
		encoder: encoder,
	}, nil
}

func (i *Interceptor) AppendLog(entry *randcheck.Invocation) {
	i.next.AppendLog(entry)

	if i.err != nil {
		return
	}

	i.seq++
	record := &RecordedInvocation{
		Seq:         i.seq,
		Action:      entry.ActionName,
		Returned:    render(entry.ReturnedValue),
		TargetPools: entry.TargetPools,
	}
	for _, arg := range entry.Args {
		record.Args = append(record.Args, RecordedArg{
			Pool:  arg.PoolName,
			Value: arg.String(),
		})
	}

	i.err = i.encoder.Encode(record)
}

func (i *Interceptor) Dump() string {
	return i.next.Dump()
}

// Err returns the first error encountered while writing the recording,
// or nil.  Callers should check it once the run is over; a partial
// recording is otherwise indistinguishable from a short run.
func (i *Interceptor) Err() error {
	return i.err
}

func render(value interface{}) string {
	if value == nil {
		return ""
	}
	return randcheck.PooledObject{Object: value}.String()
}

// ReadRecording parses a recording stream written by an Interceptor and
// returns its header and entries.
func ReadRecording(source io.Reader) (*Header, []*RecordedInvocation, error) {
	decoder := msgpack.NewDecoder(source)

	header := &Header{}
	if err := decoder.Decode(header); err != nil {
		return nil, nil, errors.WithMessage(err, "could not decode recording header")
	}

	var entries []*RecordedInvocation
	for {
		entry := &RecordedInvocation{}
		err := decoder.Decode(entry)
		if err == io.EOF {
			return header, entries, nil
		}
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "could not decode recording entry %d", len(entries)+1)
		}
		entries = append(entries, entry)
	}
}
