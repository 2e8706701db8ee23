// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package folding

import "errors"

var (
	// ErrSetup parameter preprocessing or circuit compilation failed
	ErrSetup = errors.New("engine setup failed")

	// ErrInvalidWitness the engine rejected a step witness
	ErrInvalidWitness = errors.New("step witness rejected")

	// ErrVerifyFailed the accumulated instance does not satisfy the relation
	ErrVerifyFailed = errors.New("proof verification failed")

	// ErrParamMismatch the proof was produced under different parameters
	ErrParamMismatch = errors.New("proof parameters do not match verifier parameters")

	// ErrSerialization the proof bytes are corrupted or truncated
	ErrSerialization = errors.New("proof serialization failed")

	// ErrStateArity the state vector length does not match the circuit arity
	ErrStateArity = errors.New("state vector length does not match circuit arity")
)
