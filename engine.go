/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Engine drives a randomized test: it owns the pools, the shared PRNG,
// the phase value, and the step counter, and runs the step loop until
// the configured budget is exhausted or a bug is found.  All state is
// exclusively owned by the engine; no concurrent access is supported.
type Engine struct {
	logger   Logger
	strategy LogStrategy
	rng      *rand.Rand

	registry *registry
	selector *selector

	steps         int
	executedSteps int
	currentPhase  int

	onStep          func(e *Engine, executedSteps int)
	filterNewObject func(poolName string, obj interface{}) (interface{}, error)
	examineFailure  func(err *TestFailedError)
}

// NewEngine validates the registration list, builds the pool set, and
// returns an engine ready to Run.  Any registration or configuration
// violation is returned as a descriptive error; nothing is retried.
func NewEngine(config Config, actions []*Action, invariants []*Invariant) (*Engine, error) {
	if config.Steps <= 0 {
		return nil, errors.Errorf("steps must be > 0, got %d", config.Steps)
	}

	r, err := newRegistry(actions, invariants)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid registration")
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	strategy := config.LogStrategy
	if strategy == nil {
		strategy = NewSimpleLogStrategy(defaultLogBufferLength)
	}

	return &Engine{
		logger:          logger,
		strategy:        strategy,
		rng:             rand.New(rand.NewSource(config.Seed)),
		registry:        r,
		selector:        &selector{actions: r.actions},
		steps:           config.Steps,
		onStep:          config.OnStep,
		filterNewObject: config.FilterNewObject,
		examineFailure:  config.ExamineFailure,
	}, nil
}

// Run executes random steps until the step budget is reached.  It
// returns nil on normal completion, a *TestFailedError the instant a bug
// is classified, or a configuration error (such as an all-zero
// probability phase) raised during selection.
//
// Abandoned attempts -- an empty argument pool, or a precondition signal
// from the action body or the filter hook -- are not counted, produce no
// log entry, and simply cause another selection.  A test whose required
// pools never fill can therefore loop indefinitely; that is an accepted
// property of an ill-configured test, not a guarded condition.
func (r *Engine) Run() error {
	for r.executedSteps < r.steps {
		counted, err := r.step()
		if err != nil {
			if failure, ok := err.(*TestFailedError); ok {
				r.logger.Error("randomized test failed", zap.String("action", failure.Invocation.ActionName), zap.Error(failure.Cause))
				if r.examineFailure != nil {
					r.examineFailure(failure)
				}
			}
			return err
		}
		if counted {
			r.executedSteps++
			if r.onStep != nil {
				r.onStep(r, r.executedSteps)
			}
		}
	}
	return nil
}

// step performs one attempt: select, resolve arguments, invoke,
// classify, check invariants, record.  It reports whether the attempt
// counted as an executed step.
func (r *Engine) step() (bool, error) {
	action, err := r.selector.choose(r.currentPhase, r.rng)
	if err != nil {
		return false, err
	}

	var args []PooledObject
	if len(action.Params) > 0 {
		args = make([]PooledObject, len(action.Params))
		for i, poolName := range action.Params {
			pool := r.registry.pools[poolName]
			if pool.Len() == 0 {
				r.logger.Debug("abandoning step, argument pool is empty", zap.String("action", action.Name), zap.String("pool", poolName))
				return false, nil
			}
			args[i] = PooledObject{
				Object:   pool.Get(r.rng.Intn(pool.Len())),
				PoolName: poolName,
			}
		}
	}

	value, err := r.invoke(action, args)
	if err != nil {
		if IsPrecondition(err) {
			r.logger.Debug("abandoning step, precondition failed", zap.String("action", action.Name), zap.Error(err))
			return false, nil
		}
		if failure, ok := err.(*TestFailedError); ok {
			// The action body called CheckInvariants itself; the
			// failure is already fully formed.
			return false, failure
		}

		attempted := &Invocation{ActionName: action.Name, Args: args}
		switch {
		case IsPostcondition(err):
			return false, r.testFailed(fmt.Sprintf("failed postcondition while invoking action %q with args: %s", action.Name, formatArgs(args)), attempted, err)
		case IsInvariant(err):
			return false, r.testFailed(fmt.Sprintf("failed invariant while invoking action %q with args: %s", action.Name, formatArgs(args)), attempted, err)
		default:
			return false, r.testFailed(fmt.Sprintf("error while invoking action %q with args: %s, for which no precondition failed", action.Name, formatArgs(args)), attempted, err)
		}
	}

	if len(action.Creates) > 0 {
		// Resolve the filter for every target pool before mutating any
		// of them, so a rejection never leaves a partial append.
		filtered := make([]interface{}, len(action.Creates))
		for i, poolName := range action.Creates {
			filtered[i] = value
			if r.filterNewObject == nil {
				continue
			}
			substituted, err := r.filterNewObject(poolName, value)
			if err != nil {
				if IsPrecondition(err) {
					r.logger.Debug("abandoning step, filter rejected produced value", zap.String("action", action.Name), zap.String("pool", poolName))
					return false, nil
				}
				return false, err
			}
			filtered[i] = substituted
		}
		for i, poolName := range action.Creates {
			r.registry.pools[poolName].Add(filtered[i])
		}
	}

	for _, arg := range args {
		if arg.Object == nil {
			continue
		}
		if err := r.CheckInvariants(arg.Object, arg.PoolName); err != nil {
			return false, err
		}
	}
	if value != nil {
		for _, poolName := range action.Creates {
			if err := r.CheckInvariants(value, poolName); err != nil {
				return false, err
			}
		}
	}

	r.strategy.AppendLog(&Invocation{
		ActionName:    action.Name,
		Args:          args,
		ReturnedValue: value,
		TargetPools:   action.Creates,
	})

	return true, nil
}

// invoke calls the action body inside a fault boundary.  A panic in the
// handler is captured and classified as an unexpected failure rather
// than tearing down the run without diagnostics.
func (r *Engine) invoke(action *Action, args []PooledObject) (value interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if perr, ok := rec.(error); ok {
				err = errors.WithMessagef(perr, "action %q panicked", action.Name)
				return
			}
			err = errors.Errorf("action %q panicked: %v", action.Name, rec)
		}
	}()

	raw := make([]interface{}, len(args))
	for i, arg := range args {
		raw[i] = arg.Object
	}
	return action.Handler(r, raw)
}

// CheckInvariants runs every invariant registered against the named pool
// with the given object.  The engine calls it automatically after each
// counted step for every non-nil argument and for a produced value, once
// per pool the value was appended to; action bodies are free to call it
// for objects obtained by other means.
//
// An unknown pool name is a configuration error.  A failing check is
// wrapped as a *TestFailedError exactly as automatic checking would.
func (r *Engine) CheckInvariants(obj interface{}, poolName string) error {
	checks, ok := r.registry.invariants[poolName]
	if !ok {
		return errors.Errorf("invalid pool name %q, legal values=%v", poolName, r.registry.poolNames)
	}

	for _, invariant := range checks {
		err := r.runCheck(invariant, obj)
		if err == nil {
			continue
		}
		attempted := &Invocation{
			ActionName: invariant.Name,
			Args:       []PooledObject{{Object: obj, PoolName: poolName}},
		}
		if IsInvariant(err) {
			return r.testFailed(fmt.Sprintf("failed invariant while invoking check %q with argument: %v", invariant.Name, obj), attempted, err)
		}
		return r.testFailed(fmt.Sprintf("invariant check %q caused an error", invariant.Name), attempted, err)
	}
	return nil
}

// runCheck calls one invariant check inside the same fault boundary as
// action bodies.
func (r *Engine) runCheck(invariant *Invariant, obj interface{}) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if perr, ok := rec.(error); ok {
				err = errors.WithMessagef(perr, "invariant check %q panicked", invariant.Name)
				return
			}
			err = errors.Errorf("invariant check %q panicked: %v", invariant.Name, rec)
		}
	}()
	return invariant.Check(obj)
}

func (r *Engine) testFailed(message string, attempted *Invocation, cause error) *TestFailedError {
	return &TestFailedError{
		Message:    message,
		Invocation: attempted,
		Cause:      cause,
		Dump:       r.strategy.Dump(),
	}
}

// SetPhase changes the current phase, effective starting with the next
// selection.  The phase must lie within the range implied by the longest
// declared weight array.  Phase changes are expected to happen inside
// the OnStep hook, or not at all.
func (r *Engine) SetPhase(phase int) error {
	if phase < 0 {
		return errors.Errorf("phase cannot be negative, got %d", phase)
	}
	if phase >= r.registry.numPhases {
		return errors.Errorf("non-existent phase index %d, total phases=%d", phase, r.registry.numPhases)
	}
	r.currentPhase = phase
	return nil
}

// Phase returns the current phase.
func (r *Engine) Phase() int {
	return r.currentPhase
}

// NumPhases returns the number of phases, computed at construction as
// the length of the longest declared per-action weight array.
func (r *Engine) NumPhases() int {
	return r.registry.numPhases
}

// ExecutedSteps returns the number of counted steps so far.
func (r *Engine) ExecutedSteps() int {
	return r.executedSteps
}

// Pool returns the named object pool, or nil if no such pool is defined.
// All pools are defined at construction time and may be empty but never
// nil.  The returned pool may be mutated freely between steps, for
// instance to pre-seed objects before Run.
func (r *Engine) Pool(name string) *Pool {
	return r.registry.pools[name]
}

// PoolNames returns the names of all defined pools in sorted order.
func (r *Engine) PoolNames() []string {
	names := make([]string, len(r.registry.poolNames))
	copy(names, r.registry.poolNames)
	return names
}

// Rand returns the engine's shared pseudo-random generator.  Action
// bodies should draw all their randomness from it so that a fixed seed
// reproduces the run exactly.
func (r *Engine) Rand() *rand.Rand {
	return r.rng
}

// Logger returns the engine's logger.
func (r *Engine) Logger() Logger {
	return r.logger
}

// LogStrategy returns the strategy receiving this engine's invocation
// records.
func (r *Engine) LogStrategy() LogStrategy {
	return r.strategy
}

func formatArgs(args []PooledObject) string {
	var values []interface{}
	for _, arg := range args {
		values = append(values, arg.Object)
	}
	return fmt.Sprintf("%v", values)
}
