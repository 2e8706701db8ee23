// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package pedersen

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/consensys/fedfold/folding"
)

// State is the engine's running instance: the folded commitment accumulator,
// the accumulated blinding, the state vector and the chained step digest.
// Single-owner; the session guards access.
type State struct {
	params  *ProverParams
	circuit folding.StepCircuit

	z0 []fr.Element
	z  []fr.Element

	steps    uint64
	running  bn254.G1Jac    // U_i, zero value is the point at infinity
	incoming bn254.G1Affine // u_i, the latest folded commitment
	blinding fr.Element     // accumulated Pedersen blinding
	history  [32]byte       // chained digest binding the fold order
}

// ProveStep folds one new instance carrying input into the running instance.
// The step witness is checked against the compiled relation before anything
// mutates, so a rejected step leaves the state exactly as it was. Blinding
// randomness is drawn fresh from rng; reusing it across steps would break
// hiding.
func (s *State) ProveStep(rng io.Reader, input fr.Element) error {
	next, err := s.circuit.Step(s.z, input)
	if err != nil {
		return err
	}

	assignment, err := s.circuit.Assignment(s.z, input, next)
	if err != nil {
		return err
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("%w: build witness: %v", folding.ErrInvalidWitness, err)
	}
	if err := s.params.ccs.IsSolved(witness); err != nil {
		return fmt.Errorf("%w: %v", folding.ErrInvalidWitness, err)
	}

	r, err := randomFr(rng)
	if err != nil {
		return fmt.Errorf("sample blinding: %w", err)
	}

	u := commit(s.params.basis, input, r)

	// the step is accepted, apply the fold
	var uJac bn254.G1Jac
	uJac.FromAffine(&u)
	s.running.AddAssign(&uJac)
	s.incoming = u
	s.blinding.Add(&s.blinding, &r)
	s.z = next
	s.steps++
	s.history = chainHistory(s.history, u)
	return nil
}

// IVCProof derives the proof artifact from the current instance. The state is
// not mutated; only the Schnorr nonce consumes randomness.
func (s *State) IVCProof(rng io.Reader) (folding.Proof, error) {
	k, err := randomFr(rng)
	if err != nil {
		return nil, fmt.Errorf("sample nonce: %w", err)
	}

	// A = k·H
	var kBigInt big.Int
	k.BigInt(&kBigInt)
	var nonce bn254.G1Affine
	nonce.ScalarMultiplication(&s.params.basis.h, &kBigInt)

	var running bn254.G1Affine
	running.FromJacobian(&s.running)

	p := &Proof{ParamsDigest: s.params.digest, History: s.history}
	binary.BigEndian.PutUint64(p.Steps[:], s.steps)
	p.Z0 = s.z0[0].Bytes()
	p.Zi = s.z[0].Bytes()
	p.Running = running.Bytes()
	p.Incoming = s.incoming.Bytes()
	p.Nonce = nonce.Bytes()

	e, err := challenge(p)
	if err != nil {
		return nil, fmt.Errorf("derive challenge: %w", err)
	}

	// resp = k + e·blinding
	var resp fr.Element
	resp.Mul(&e, &s.blinding).Add(&resp, &k)
	p.Response = resp.Bytes()

	return p, nil
}

// NumSteps returns the number of successfully folded steps.
func (s *State) NumSteps() uint64 { return s.steps }

// Values returns a copy of the current state vector z_i.
func (s *State) Values() []fr.Element { return cloneVector(s.z) }
