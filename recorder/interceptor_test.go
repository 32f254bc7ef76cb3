/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package recorder_test

import (
	"bytes"
	"compress/gzip"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/hyperledger-labs/randcheck"
	"github.com/hyperledger-labs/randcheck/recorder"
)

var _ = Describe("Interceptor", func() {
	var (
		output      *bytes.Buffer
		interceptor *recorder.Interceptor
	)

	BeforeEach(func() {
		output = &bytes.Buffer{}

		var err error
		interceptor, err = recorder.NewInterceptor(output, randcheck.NewSimpleLogStrategy(10), recorder.Header{
			Name:  "stack-stress",
			Seed:  42,
			Steps: 100,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("assigns a run ID when the header has none", func() {
		header, _, err := recorder.ReadRecording(output)
		Expect(err).NotTo(HaveOccurred())
		Expect(header.RunID).NotTo(BeEmpty())
		Expect(header.Name).To(Equal("stack-stress"))
		Expect(header.Seed).To(Equal(int64(42)))
		Expect(header.Steps).To(Equal(100))
	})

	It("round-trips entries through the stream", func() {
		interceptor.AppendLog(&randcheck.Invocation{
			ActionName: "push",
			Args: []randcheck.PooledObject{
				{Object: "s1", PoolName: "stacks"},
				{Object: 7, PoolName: "ints"},
			},
		})
		interceptor.AppendLog(&randcheck.Invocation{
			ActionName:    "newInt",
			ReturnedValue: 9,
			TargetPools:   []string{"ints"},
		})
		Expect(interceptor.Err()).NotTo(HaveOccurred())

		_, entries, err := recorder.ReadRecording(output)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))

		Expect(entries[0].Seq).To(Equal(uint64(1)))
		Expect(entries[0].Action).To(Equal("push"))
		Expect(entries[0].Args).To(Equal([]recorder.RecordedArg{
			{Pool: "stacks", Value: "s1"},
			{Pool: "ints", Value: "7"},
		}))
		Expect(entries[0].Returned).To(Equal(""))

		Expect(entries[1].Seq).To(Equal(uint64(2)))
		Expect(entries[1].Returned).To(Equal("9"))
		Expect(entries[1].TargetPools).To(Equal([]string{"ints"}))
	})

	It("still feeds the inner strategy", func() {
		inner := randcheck.NewSimpleLogStrategy(10)
		buffered, err := recorder.NewInterceptor(&bytes.Buffer{}, inner, recorder.Header{})
		Expect(err).NotTo(HaveOccurred())

		buffered.AppendLog(&randcheck.Invocation{ActionName: "create", ReturnedValue: 1, TargetPools: []string{"ints"}})
		Expect(inner.Len()).To(Equal(1))
		Expect(buffered.Dump()).To(Equal(inner.Dump()))
	})

	It("records a live engine run through gzip, as randcat reads it", func() {
		compressed := &bytes.Buffer{}
		gzWriter := gzip.NewWriter(compressed)

		next := 0
		creator := &randcheck.Action{
			Name:    "create",
			Weights: []float64{1},
			Creates: []string{"ints"},
			Handler: func(e *randcheck.Engine, args []interface{}) (interface{}, error) {
				next++
				return next, nil
			},
		}

		strategy, err := recorder.NewInterceptor(gzWriter, randcheck.NewSimpleLogStrategy(10), recorder.Header{Name: "smoke", Steps: 5})
		Expect(err).NotTo(HaveOccurred())

		engine, err := randcheck.NewEngine(randcheck.Config{
			Steps:       5,
			LogStrategy: strategy,
		}, []*randcheck.Action{creator}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.Run()).To(Succeed())
		Expect(strategy.Err()).NotTo(HaveOccurred())
		Expect(gzWriter.Close()).To(Succeed())

		gzReader, err := gzip.NewReader(compressed)
		Expect(err).NotTo(HaveOccurred())
		defer gzReader.Close()

		header, entries, err := recorder.ReadRecording(gzReader)
		Expect(err).NotTo(HaveOccurred())
		Expect(header.Name).To(Equal("smoke"))
		Expect(entries).To(HaveLen(5))
		for i, entry := range entries {
			Expect(entry.Seq).To(Equal(uint64(i + 1)))
			Expect(entry.Action).To(Equal("create"))
		}
	})

	It("reports a truncated stream as an error", func() {
		interceptor.AppendLog(&randcheck.Invocation{ActionName: "create"})
		truncated := output.Bytes()[:output.Len()-1]

		_, _, err := recorder.ReadRecording(bytes.NewReader(truncated))
		Expect(err).To(HaveOccurred())
	})
})
