/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config carries the construction parameters of an Engine.
type Config struct {
	// Steps is the step budget: the number of counted random steps to
	// execute.  Must be > 0.
	Steps int

	// Seed initializes the engine's shared pseudo-random generator.
	// The default seed of 0 is perfectly usable; what matters is that
	// an unchanged seed reproduces an identical run.
	Seed int64

	// Logger provides the logging functions.  Defaults to a nop
	// logger.
	Logger Logger

	// LogStrategy receives the record of every counted step.  Defaults
	// to a SimpleLogStrategy with a bounded buffer.
	LogStrategy LogStrategy

	// OnStep, if set, is called after every counted step with the new
	// step count.  It is the only place the phase may legitimately
	// change.
	OnStep func(e *Engine, executedSteps int)

	// FilterNewObject, if set, is called for each pool a produced
	// value is about to be appended to; whatever it returns is
	// appended instead.  Returning a precondition signal rejects the
	// value and abandons the step without mutating any pool.
	FilterNewObject func(poolName string, obj interface{}) (interface{}, error)

	// ExamineFailure, if set, is called with the failure just before
	// it propagates out of Run.  Intended for breakpoints and ad-hoc
	// diagnostics.
	ExamineFailure func(err *TestFailedError)
}

// PhaseChange is one entry of a declarative phase schedule: after the
// given counted step, switch to the given phase.
type PhaseChange struct {
	AtStep int `yaml:"atStep"`
	Phase  int `yaml:"phase"`
}

// RunConfig is the YAML-loadable description of a randomized run.  It
// covers the parameters which are data rather than code: the budget, the
// seed, the retention policy, and an optional phase schedule.  Hooks and
// the registration list remain programmatic.
type RunConfig struct {
	// Name labels the run in recordings and diagnostics.
	Name string `yaml:"name"`

	Steps int   `yaml:"steps"`
	Seed  int64 `yaml:"seed"`

	// Strategy selects the log strategy: "simple" (default) or
	// "detailed".
	Strategy string `yaml:"strategy"`

	// BufferLength bounds the strategy's buffer: total entries for
	// "simple", entries per object for "detailed".  0 selects the
	// default.
	BufferLength int `yaml:"bufferLength"`

	// PhaseSchedule lists phase switches in ascending step order.
	PhaseSchedule []PhaseChange `yaml:"phaseSchedule"`
}

// LoadRunConfig reads and validates a YAML RunConfig.
func LoadRunConfig(source io.Reader) (*RunConfig, error) {
	config := &RunConfig{}
	if err := yaml.NewDecoder(source).Decode(config); err != nil {
		return nil, errors.WithMessage(err, "could not decode run config")
	}

	if config.Steps <= 0 {
		return nil, errors.Errorf("steps must be > 0, got %d", config.Steps)
	}
	if config.BufferLength < 0 {
		return nil, errors.Errorf("bufferLength cannot be negative, got %d", config.BufferLength)
	}
	switch config.Strategy {
	case "", "simple", "detailed":
	default:
		return nil, errors.Errorf("unknown log strategy %q, legal values are \"simple\" and \"detailed\"", config.Strategy)
	}

	lastStep := 0
	for _, change := range config.PhaseSchedule {
		if change.AtStep <= lastStep {
			return nil, errors.Errorf("phase schedule must list strictly ascending steps, got %d after %d", change.AtStep, lastStep)
		}
		if change.Phase < 0 {
			return nil, errors.Errorf("phase cannot be negative, got %d", change.Phase)
		}
		lastStep = change.AtStep
	}

	return config, nil
}

// EngineConfig translates the RunConfig into an engine Config, compiling
// the phase schedule into an OnStep hook.  A schedule entry referencing
// a phase beyond the registered weight arrays surfaces as an error log
// at the switch point; it cannot be validated earlier because the number
// of phases is a property of the registration list.
func (rc *RunConfig) EngineConfig() Config {
	bufferLength := rc.BufferLength
	if bufferLength == 0 {
		bufferLength = defaultLogBufferLength
	}

	var strategy LogStrategy
	if rc.Strategy == "detailed" {
		strategy = NewDetailedLogStrategy(bufferLength)
	} else {
		strategy = NewSimpleLogStrategy(bufferLength)
	}

	config := Config{
		Steps:       rc.Steps,
		Seed:        rc.Seed,
		LogStrategy: strategy,
	}

	if len(rc.PhaseSchedule) > 0 {
		schedule := make([]PhaseChange, len(rc.PhaseSchedule))
		copy(schedule, rc.PhaseSchedule)
		next := 0
		config.OnStep = func(e *Engine, executedSteps int) {
			if next >= len(schedule) || schedule[next].AtStep != executedSteps {
				return
			}
			if err := e.SetPhase(schedule[next].Phase); err != nil {
				e.Logger().Error("phase schedule entry is invalid", zap.Error(err))
			}
			next++
		}
	}

	return config
}
