/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck

import (
	"bytes"
	"fmt"
)

// Status is a point-in-time snapshot of the engine's observable state,
// suitable for logging or test diagnostics.
type Status struct {
	Phase         int           `json:"phase"`
	NumPhases     int           `json:"num_phases"`
	ExecutedSteps int           `json:"executed_steps"`
	StepBudget    int           `json:"step_budget"`
	Pools         []*PoolStatus `json:"pools"`
}

// PoolStatus describes one pool: its current size and the number of
// invariants registered against it.
type PoolStatus struct {
	Name       string `json:"name"`
	Size       int    `json:"size"`
	Invariants int    `json:"invariants"`
}

// Status captures a snapshot of the engine between steps.
func (r *Engine) Status() *Status {
	status := &Status{
		Phase:         r.currentPhase,
		NumPhases:     r.registry.numPhases,
		ExecutedSteps: r.executedSteps,
		StepBudget:    r.steps,
	}
	for _, name := range r.registry.poolNames {
		status.Pools = append(status.Pools, &PoolStatus{
			Name:       name,
			Size:       r.registry.pools[name].Len(),
			Invariants: len(r.registry.invariants[name]),
		})
	}
	return status
}

// Pretty returns a human-readable rendering of the status.
func (s *Status) Pretty() string {
	var buffer bytes.Buffer
	buffer.WriteString("===========================================\n")
	buffer.WriteString(fmt.Sprintf("Phase=%d/%d, ExecutedSteps=%d/%d\n", s.Phase, s.NumPhases, s.ExecutedSteps, s.StepBudget))
	buffer.WriteString("===========================================\n")
	for _, pool := range s.Pools {
		buffer.WriteString(fmt.Sprintf("Pool %q: size=%d invariants=%d\n", pool.Name, pool.Size, pool.Invariants))
	}
	return buffer.String()
}
