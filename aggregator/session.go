// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package aggregator implements the accumulator session: the state machine a
// federated-learning orchestrator drives to fold gradient contributions into
// a running proof, one contribution at a time.
//
// A session owns its parameters, circuit and engine state exclusively. It is
// guarded by a mutex so a misbehaving caller cannot corrupt the fold order,
// but it is not designed for concurrent proving: folds are strictly
// sequential, each depending on the state left by the previous one.
// Concurrent aggregation rounds must each use their own session; sessions
// share no mutable state.
package aggregator

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"

	"github.com/consensys/fedfold/circuit"
	"github.com/consensys/fedfold/fixedpoint"
	"github.com/consensys/fedfold/folding"
	"github.com/consensys/fedfold/folding/pedersen"
	"github.com/consensys/fedfold/logger"
)

// Session folds gradient contributions into an accumulated proof.
//
// Lifecycle: a session starts uninitialized; Initialize runs the one-time
// parameter setup and encodes the initial model weight; every successful
// ProveGradientStep folds one contribution; FinalizeProof and Verify are
// derived views that leave the session ready to keep folding.
type Session struct {
	mu sync.Mutex

	scheme  folding.Scheme
	circuit folding.StepCircuit
	rng     io.Reader
	log     zerolog.Logger

	pp     folding.ProverParams
	vp     folding.VerifierParams
	engine folding.State

	// plaintext shadow of the encoded state, for observability only; it is
	// never fed back into proving
	mirror      []float64
	initialized bool
}

// New constructs an uninitialized session. By default it uses the Pedersen
// accumulation engine, the addition step relation and crypto/rand; options
// override each.
func New(opts ...Option) *Session {
	s := &Session{
		scheme:  pedersen.Scheme{},
		circuit: circuit.Addition{},
		rng:     rand.Reader,
		log:     logger.Logger().With().Str("component", "aggregator").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize runs the one-time parameter setup against the step circuit and
// encodes initial as the starting state z_0. Valid only once: re-initializing
// an initialized session would silently discard its folded history, so it is
// rejected with ErrAlreadyInitialized; dispose of the session and build a new
// one instead.
func (s *Session) Initialize(initial float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return ErrAlreadyInitialized
	}

	z0, err := fixedpoint.Encode(initial)
	if err != nil {
		return fmt.Errorf("encode initial value: %w", err)
	}

	pp, vp, err := s.scheme.Preprocess(s.rng, s.circuit)
	if err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}

	engine, err := s.scheme.Init(pp, s.circuit, []fr.Element{z0})
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	s.pp = pp
	s.vp = vp
	s.engine = engine
	s.mirror = []float64{initial}
	s.initialized = true

	s.log.Info().Float64("initial", initial).Msg("session initialized")
	return nil
}

// ProveGradientStep encodes gradient and folds one step into the running
// proof. On success the step counter advances by one and the plaintext mirror
// moves by the same increment; on failure the session is left exactly as it
// was.
func (s *Session) ProveGradientStep(gradient float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proveStep(gradient)
}

func (s *Session) proveStep(gradient float64) error {
	if !s.initialized {
		return ErrNotInitialized
	}

	input, err := fixedpoint.Encode(gradient)
	if err != nil {
		return fmt.Errorf("encode gradient: %w", err)
	}

	if err := s.engine.ProveStep(s.rng, input); err != nil {
		return fmt.Errorf("fold step %d: %w", s.engine.NumSteps()+1, err)
	}

	s.mirror[0] += gradient
	s.log.Debug().
		Uint64("step", s.engine.NumSteps()).
		Float64("state", s.mirror[0]).
		Msg("step proven")
	return nil
}

// ProveGradientBatch folds each gradient in order. The batch is not atomic: a
// failure at element k leaves the k preceding folds committed and returns an
// error naming position k; inspect NumSteps to determine progress.
func (s *Session) ProveGradientBatch(gradients []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, g := range gradients {
		if err := s.proveStep(g); err != nil {
			return fmt.Errorf("gradient %d: %w", i, err)
		}
	}
	return nil
}

// FinalizeProof derives the proof artifact attesting to every fold so far.
// The session state is not mutated; folding may continue afterwards.
func (s *Session) FinalizeProof() (folding.Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.engine.IVCProof(s.rng)
}

// GenerateFinalProof is FinalizeProof in serialized form.
func (s *Session) GenerateFinalProof() ([]byte, error) {
	proof, err := s.FinalizeProof()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Verify checks a proof artifact against the session's verifier parameters.
func (s *Session) Verify(proof folding.Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	return s.scheme.Verify(s.vp, proof)
}

// VerifyProof deserializes and checks a proof produced by GenerateFinalProof.
// The boolean is the verdict; when it is false, the error carries the reason
// (folding.ErrVerifyFailed, folding.ErrParamMismatch or a serialization
// failure) and is never conflated with success.
func (s *Session) VerifyProof(proofBytes []byte) (bool, error) {
	proof := s.scheme.NewProof()
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return false, err
	}

	if err := s.Verify(proof); err != nil {
		if errors.Is(err, folding.ErrVerifyFailed) || errors.Is(err, folding.ErrParamMismatch) {
			s.log.Warn().Err(err).Msg("proof rejected")
		}
		return false, err
	}
	return true, nil
}

// State returns the plaintext mirror of the accumulated state. Observability
// only; the cryptographic state lives in the engine.
func (s *Session) State() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]float64, len(s.mirror))
	copy(out, s.mirror)
	return out
}

// NumSteps returns the number of successfully folded steps.
func (s *Session) NumSteps() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return 0
	}
	return s.engine.NumSteps()
}

// VerifierParams exposes the session's verifier parameters so a third party
// can check proofs independently. The parameters are immutable.
func (s *Session) VerifierParams() (folding.VerifierParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.vp, nil
}
