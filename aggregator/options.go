// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package aggregator

import (
	"io"

	"github.com/consensys/fedfold/folding"
)

// Option configures a Session at construction time.
type Option func(*Session)

// WithScheme swaps the folding engine. The default is the Pedersen
// accumulation engine.
func WithScheme(scheme folding.Scheme) Option {
	return func(s *Session) {
		s.scheme = scheme
	}
}

// WithCircuit swaps the step relation. The default is the addition relation.
func WithCircuit(c folding.StepCircuit) Option {
	return func(s *Session) {
		s.circuit = c
	}
}

// WithRandomness injects the randomness source used for parameter setup and
// per-step blinding. The default is crypto/rand; tests may inject a seeded
// source, production callers must keep a cryptographically secure one.
func WithRandomness(rng io.Reader) Option {
	return func(s *Session) {
		s.rng = rng
	}
}
