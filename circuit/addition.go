// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package circuit defines the step relations the folding engine proves.
package circuit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/consensys/fedfold/folding"
)

// Addition is the gradient-accumulation step relation
//
//	z_{i+1} = z_i + externalInput
//
// The state vector has a single component, the accumulated model weight. The
// constraint form is a single addition gate with no conditionals, so any
// folding engine can compile it.
type Addition struct{}

// Name identifies the relation in engine parameters.
func (Addition) Name() string { return "fedfold.addition.v1" }

// StateLen returns the arity of the state vector.
func (Addition) StateLen() int { return 1 }

// Step computes the next state vector natively.
func (c Addition) Step(z []fr.Element, input fr.Element) ([]fr.Element, error) {
	if len(z) != c.StateLen() {
		return nil, fmt.Errorf("%w: got %d, want %d", folding.ErrStateArity, len(z), c.StateLen())
	}
	var next fr.Element
	next.Add(&z[0], &input)
	return []fr.Element{next}, nil
}

// Constraints returns a fresh compilable form of the relation.
func (Addition) Constraints() frontend.Circuit {
	return &additionCircuit{}
}

// Assignment returns the full witness for one step.
func (c Addition) Assignment(z []fr.Element, input fr.Element, next []fr.Element) (frontend.Circuit, error) {
	if len(z) != c.StateLen() || len(next) != c.StateLen() {
		return nil, fmt.Errorf("%w: got %d and %d, want %d", folding.ErrStateArity, len(z), len(next), c.StateLen())
	}
	return &additionCircuit{
		State: z[0].BigInt(new(big.Int)),
		Input: input.BigInt(new(big.Int)),
		Next:  next[0].BigInt(new(big.Int)),
	}, nil
}

// additionCircuit is the constraint form of Addition. The running state and
// its successor are public; the gradient contribution stays secret.
type additionCircuit struct {
	State frontend.Variable `gnark:",public"`
	Next  frontend.Variable `gnark:",public"`
	Input frontend.Variable
}

func (c *additionCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Add(c.State, c.Input), c.Next)
	return nil
}
