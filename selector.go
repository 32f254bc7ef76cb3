/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck

import (
	"math/rand"

	"github.com/pkg/errors"
)

// selector picks one action per step using cumulative-weight sampling
// over the fixed registration order.  Selection depends only on the
// engine's single shared PRNG and that order, never on pool contents, so
// a fixed seed reproduces an identical action sequence.
type selector struct {
	actions []*Action
}

// phaseWeight returns the action's weight for the given phase, treating
// a phase beyond the declared array as weight 0.
func phaseWeight(action *Action, phase int) float64 {
	if phase >= len(action.Weights) {
		return 0
	}
	return action.Weights[phase]
}

// choose draws one action for the given phase.  A phase whose weights
// sum to zero is a fatal configuration error, as the step loop could
// otherwise never make progress.
func (s *selector) choose(phase int, rng *rand.Rand) (*Action, error) {
	total := 0.0
	for _, action := range s.actions {
		total += phaseWeight(action, phase)
	}
	if total == 0 {
		return nil, errors.Errorf("all probabilities are zero, currentPhase=%d", phase)
	}

	draw := rng.Float64() * total
	cumulative := 0.0
	var chosen *Action
	for _, action := range s.actions {
		weight := phaseWeight(action, phase)
		if weight == 0 {
			continue
		}
		chosen = action
		cumulative += weight
		if cumulative > draw {
			return chosen, nil
		}
	}

	// Floating point accumulation can leave the draw just at the total;
	// the last positively weighted action takes the remainder.
	return chosen, nil
}
