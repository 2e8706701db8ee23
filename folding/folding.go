// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package folding defines the contract between the accumulator session and a
// folding-based IVC engine.
//
// The engine is a black box: the session drives it through Scheme and State
// and never inspects the running or incoming instance internals. Swapping the
// engine for a different folding scheme must not require touching the session.
package folding

import (
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"
)

// StepCircuit describes a one-step transition relation provable by a folding
// engine: nextState = f(state, externalInput).
type StepCircuit interface {
	// Name identifies the relation; it is bound into the engine parameters.
	Name() string

	// StateLen is the arity of the state vector.
	StateLen() int

	// Step computes the next state vector from the current one and the
	// external input. Pure; the native twin of the constraint form.
	Step(z []fr.Element, input fr.Element) ([]fr.Element, error)

	// Constraints returns a fresh compilable constraint form of the relation.
	Constraints() frontend.Circuit

	// Assignment returns the full witness assignment for one step.
	Assignment(z []fr.Element, input fr.Element, next []fr.Element) (frontend.Circuit, error)
}

// Scheme is a folding-based IVC engine.
type Scheme interface {
	// Preprocess runs the one-time, expensive parameter setup for a circuit
	// shape. The returned parameter pair is immutable and reusable across all
	// steps of the circuit and by the final verification.
	Preprocess(rng io.Reader, c StepCircuit) (ProverParams, VerifierParams, error)

	// Init creates the initial running instance from the state vector z0.
	Init(pp ProverParams, c StepCircuit, z0 []fr.Element) (State, error)

	// Verify checks an IVC proof against verifier parameters in time
	// independent of the number of folded steps.
	Verify(vp VerifierParams, proof Proof) error

	// NewProof returns an empty proof ready for deserialization.
	NewProof() Proof
}

// State is the engine's running instance, owned by a single session.
type State interface {
	// ProveStep folds one new instance carrying the external input into the
	// running instance, mutating the state in place. Randomness for blinding
	// is drawn from rng and must be fresh for every call. On failure the
	// state is left exactly as it was.
	ProveStep(rng io.Reader, input fr.Element) error

	// IVCProof derives a serializable snapshot of the accumulated proof
	// without mutating the state.
	IVCProof(rng io.Reader) (Proof, error)

	// NumSteps returns the number of successfully folded steps.
	NumSteps() uint64

	// Values returns a copy of the current state vector z_i.
	Values() []fr.Element
}

// ProverParams are the engine's proving parameters, opaque to the session.
type ProverParams interface {
	// Digest fingerprints the parameters; proofs record it so a mismatched
	// verifier can be detected.
	Digest() [32]byte
}

// VerifierParams are the engine's verification parameters. They may be handed
// to a third party for independent verification.
type VerifierParams interface {
	Digest() [32]byte
}

// Proof is a serializable IVC proof artifact: step counter, initial and
// current state, and the instance commitments. Its byte length is independent
// of the number of folded steps. Immutable once produced.
type Proof interface {
	io.WriterTo
	io.ReaderFrom

	// NumSteps returns the step counter the proof attests to.
	NumSteps() uint64
}
