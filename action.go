/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck

import (
	"sort"

	"github.com/pkg/errors"
)

// Handler is the body of an action.  The engine invokes it with one
// argument per declared parameter pool, drawn at a uniform-random index
// from that pool's current contents.  The returned value is appended to
// every pool the action declares in Creates.
//
// A handler classifies its own outcome through the returned error: nil
// for a normal return, a precondition signal (see Precondition) to
// reject the chosen arguments, a postcondition signal to report a
// contract violation, or any other error to report an unexpected
// failure.  Handlers may use e.Rand() to generate values; using any
// other randomness source breaks run reproducibility.
type Handler func(e *Engine, args []interface{}) (interface{}, error)

// Action describes one registered unit of test behavior.
type Action struct {
	// Name identifies the action in logs and failure reports.  Names
	// must be unique across the registration list.
	Name string

	// Weights holds the action's relative selection weight per phase,
	// indexed by phase number.  A phase beyond the end of the array
	// implicitly has weight 0, so trailing zeroes may be omitted.
	Weights []float64

	// Params names, in positional order, the pool from which each of
	// the handler's arguments is drawn.  Empty for zero-argument
	// actions.
	Params []string

	// Creates names the pools the handler's return value is appended
	// to.  Empty for actions which produce nothing.
	Creates []string

	// Handler is the action body.
	Handler Handler
}

// Invariant binds a checking function to an object pool.  After every
// counted step, each invariant registered against a touched pool is
// invoked once per relevant object: once for every non-nil argument
// drawn from that pool, and once for a produced value appended to it.
//
// An invariant cannot itself produce objects; it observes a single one.
type Invariant struct {
	// Name identifies the check in failure reports.
	Name string

	// Pool is the object pool the check is registered against.  It
	// must be a pool some action creates into.
	Pool string

	// Check examines one object and returns nil if its state contract
	// holds, or an invariant signal (see Invariant) if it does not.
	// Any other error is treated as an unexpected failure of the check
	// itself, which is equally fatal.
	Check func(obj interface{}) error
}

// registry is the validated, static description of a test: its actions
// in registration order, its pools, and the invariants indexed by pool.
type registry struct {
	actions    []*Action
	pools      map[string]*Pool
	poolNames  []string
	invariants map[string][]*Invariant
	numPhases  int
}

// newRegistry builds the pool set from the producing actions and
// validates the full registration list.  Any violation is a fatal
// configuration error, surfaced here before any random step runs.
func newRegistry(actions []*Action, invariants []*Invariant) (*registry, error) {
	if len(actions) == 0 {
		return nil, errors.Errorf("no actions registered")
	}

	r := &registry{
		actions:    actions,
		pools:      map[string]*Pool{},
		invariants: map[string][]*Invariant{},
	}

	seen := map[string]struct{}{}
	producers := 0
	for _, action := range actions {
		if action.Name == "" {
			return nil, errors.Errorf("action with empty name registered")
		}
		if _, ok := seen[action.Name]; ok {
			return nil, errors.Errorf("duplicate action name %q", action.Name)
		}
		seen[action.Name] = struct{}{}

		if action.Handler == nil {
			return nil, errors.Errorf("action %q has no handler", action.Name)
		}

		for _, weight := range action.Weights {
			if weight < 0 {
				return nil, errors.Errorf("action %q has illegal probability %v", action.Name, weight)
			}
		}
		if len(action.Weights) > r.numPhases {
			r.numPhases = len(action.Weights)
		}

		if len(action.Creates) > 0 {
			producers++
		}
		for _, poolName := range action.Creates {
			if poolName == "" {
				return nil, errors.Errorf("action %q creates into a pool with an empty name", action.Name)
			}
			if _, ok := r.pools[poolName]; !ok {
				r.pools[poolName] = newPool(poolName)
				r.invariants[poolName] = nil
				r.poolNames = append(r.poolNames, poolName)
			}
		}
	}

	if producers == 0 {
		return nil, errors.Errorf("no producing action registered, all pools would stay empty")
	}

	// Parameter pools can only be validated once every producer has
	// declared its targets.
	for _, action := range actions {
		for _, poolName := range action.Params {
			if _, ok := r.pools[poolName]; !ok {
				return nil, errors.Errorf("undefined pool name %q declared as parameter of action %q", poolName, action.Name)
			}
		}
	}

	for _, invariant := range invariants {
		if invariant.Name == "" {
			return nil, errors.Errorf("invariant with empty name registered against pool %q", invariant.Pool)
		}
		if invariant.Check == nil {
			return nil, errors.Errorf("invariant %q has no check function", invariant.Name)
		}
		if _, ok := r.pools[invariant.Pool]; !ok {
			return nil, errors.Errorf("invariant %q references pool %q which no action creates", invariant.Name, invariant.Pool)
		}
		r.invariants[invariant.Pool] = append(r.invariants[invariant.Pool], invariant)
	}

	if r.numPhases == 0 {
		r.numPhases = 1
	}

	sort.Strings(r.poolNames)

	return r, nil
}
