/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package randcheck is a model-based randomized-testing engine.
// Deterministic, hand-written tests usually cover a limited number of
// cases and can miss subtle bugs.  A randomized test instead registers a
// set of weighted actions which create, consume, and validate shared test
// objects; the engine repeatedly selects an action at random, injects
// randomly chosen collaborators from named object pools, executes it, and
// checks the declared correctness conditions, until a fixed step budget is
// exhausted or a contract violation is found.
//
// Collaborating objects are grouped into named pools denoting objects with
// similar semantics.  An action declares, per positional parameter, the
// pool from which its argument is drawn -- a form of dependency injection
// where the action describes its dependencies and the engine supplies
// them.  Actions may also declare one or more pools into which their
// return value is deposited, which is how pools are populated in the
// first place.
//
// An action body typically has three parts: preconditions, the exercise
// of the object under test, and postconditions.  A failed precondition is
// not a bug -- the randomly chosen arguments simply were not applicable,
// and the attempt is silently abandoned without being counted.  A failed
// postcondition, a failed invariant, or any other error under passing
// preconditions is a bug: the run stops immediately and the failure is
// reported together with the invocation history kept by the configured
// LogStrategy.
//
// The engine is single-threaded and deterministic: a fixed seed
// reproduces the exact sequence of selections and argument draws, which
// is essential when debugging a reported failure.
package randcheck
