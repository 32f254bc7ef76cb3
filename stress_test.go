/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck_test

import (
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/hyperledger-labs/randcheck"
)

// boundedStack is the object under test for the stress specs: a stack
// with a fixed capacity.  The lossy variant deliberately violates its
// contract after a while, to prove the engine finds and reports it.
type boundedStack struct {
	capacity int
	values   []int

	// lossyAfter, when positive, makes push silently drop the value
	// once that many pushes have happened.
	lossyAfter int
	pushes     int
}

func newBoundedStack(capacity int) *boundedStack {
	return &boundedStack{capacity: capacity}
}

func (s *boundedStack) push(value int) {
	s.pushes++
	if s.lossyAfter > 0 && s.pushes > s.lossyAfter {
		return
	}
	s.values = append(s.values, value)
}

func (s *boundedStack) pop() int {
	value := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return value
}

func (s *boundedStack) peek() int   { return s.values[len(s.values)-1] }
func (s *boundedStack) size() int   { return len(s.values) }
func (s *boundedStack) empty() bool { return len(s.values) == 0 }
func (s *boundedStack) full() bool  { return len(s.values) == s.capacity }

func (s *boundedStack) String() string {
	return fmt.Sprintf("stack(size=%d, capacity=%d)", len(s.values), s.capacity)
}

// stackActions registers the stack scenario: phase 0 populates the
// pools, phase 1 exercises push and pop.
func stackActions(lossyAfter int) ([]*randcheck.Action, []*randcheck.Invariant) {
	actions := []*randcheck.Action{
		{
			Name:    "newStack",
			Weights: []float64{70, 0},
			Creates: []string{"stacks"},
			Handler: func(e *randcheck.Engine, args []interface{}) (interface{}, error) {
				stack := newBoundedStack(1 + e.Rand().Intn(10))
				stack.lossyAfter = lossyAfter
				return stack, nil
			},
		},
		{
			Name:    "newInt",
			Weights: []float64{30, 0},
			Creates: []string{"ints"},
			Handler: func(e *randcheck.Engine, args []interface{}) (interface{}, error) {
				return e.Rand().Intn(1000), nil
			},
		},
		{
			Name:    "push",
			Weights: []float64{0, 3},
			Params:  []string{"stacks", "ints"},
			Handler: func(e *randcheck.Engine, args []interface{}) (interface{}, error) {
				stack := args[0].(*boundedStack)
				value := args[1].(int)
				if err := randcheck.Precondition(!stack.full(), "stack is full"); err != nil {
					return nil, err
				}

				previousSize := stack.size()
				stack.push(value)

				if err := randcheck.Postcondition(!stack.empty(), "stack is empty after push"); err != nil {
					return nil, err
				}
				if err := randcheck.Postcondition(stack.size() == previousSize+1, "size %d did not grow by one from %d", stack.size(), previousSize); err != nil {
					return nil, err
				}
				return nil, randcheck.Postcondition(stack.peek() == value, "top of stack is %d, pushed %d", stack.peek(), value)
			},
		},
		{
			Name:    "pop",
			Weights: []float64{0, 2},
			Params:  []string{"stacks"},
			Handler: func(e *randcheck.Engine, args []interface{}) (interface{}, error) {
				stack := args[0].(*boundedStack)
				if err := randcheck.Precondition(!stack.empty(), "stack is empty"); err != nil {
					return nil, err
				}

				previousSize := stack.size()
				stack.pop()
				return nil, randcheck.Postcondition(stack.size() == previousSize-1, "size %d did not shrink by one from %d", stack.size(), previousSize)
			},
		},
	}

	invariants := []*randcheck.Invariant{
		{
			Name: "stackWellFormed",
			Pool: "stacks",
			Check: func(obj interface{}) error {
				stack := obj.(*boundedStack)
				if err := randcheck.Invariant(stack.empty() != (stack.size() > 0), "emptiness disagrees with size %d", stack.size()); err != nil {
					return err
				}
				return randcheck.Invariant(stack.size() <= stack.capacity, "size %d exceeds capacity %d", stack.size(), stack.capacity)
			},
		},
	}

	return actions, invariants
}

var _ = Describe("stack stress", func() {
	var (
		schedule func(e *randcheck.Engine, executedSteps int)
	)

	BeforeEach(func() {
		schedule = func(e *randcheck.Engine, executedSteps int) {
			if executedSteps == 200 {
				Expect(e.SetPhase(1)).To(Succeed())
			}
		}
	})

	It("survives a thousand steps against a correct stack", func() {
		actions, invariants := stackActions(0)
		engine, err := randcheck.NewEngine(randcheck.Config{
			Steps:       1000,
			Seed:        1,
			LogStrategy: randcheck.NewDetailedLogStrategy(8),
			OnStep:      schedule,
		}, actions, invariants)
		Expect(err).NotTo(HaveOccurred())

		Expect(engine.Run()).To(Succeed())
		Expect(engine.ExecutedSteps()).To(Equal(1000))
		Expect(engine.Pool("stacks").Len()).NotTo(BeZero())
		Expect(engine.Pool("ints").Len()).NotTo(BeZero())
	})

	It("finds the bug in a lossy stack and reports its history", func() {
		actions, invariants := stackActions(3)
		engine, err := randcheck.NewEngine(randcheck.Config{
			Steps:       1000,
			Seed:        1,
			LogStrategy: randcheck.NewSimpleLogStrategy(5),
			OnStep:      schedule,
		}, actions, invariants)
		Expect(err).NotTo(HaveOccurred())

		err = engine.Run()
		Expect(err).To(HaveOccurred())

		failure, ok := err.(*randcheck.TestFailedError)
		Expect(ok).To(BeTrue())
		Expect(failure.Invocation.ActionName).To(Equal("push"))
		Expect(randcheck.IsPostcondition(failure.Cause)).To(BeTrue())
		Expect(failure.Dump).NotTo(BeEmpty())
		Expect(engine.ExecutedSteps()).To(BeNumerically("<", 1000))
	})

	It("reproduces the same failure step for the same seed", func() {
		run := func() int {
			actions, invariants := stackActions(3)
			engine, err := randcheck.NewEngine(randcheck.Config{
				Steps:  1000,
				Seed:   7,
				OnStep: schedule,
			}, actions, invariants)
			Expect(err).NotTo(HaveOccurred())
			Expect(engine.Run()).To(HaveOccurred())
			return engine.ExecutedSteps()
		}

		Expect(run()).To(Equal(run()))
	})
})
