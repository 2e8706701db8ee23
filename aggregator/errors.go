// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package aggregator

import "errors"

var (
	// ErrNotInitialized an operation requiring an initialized session was
	// invoked too early; call Initialize first
	ErrNotInitialized = errors.New("session not initialized")

	// ErrAlreadyInitialized re-initializing would silently discard the
	// session's folded history
	ErrAlreadyInitialized = errors.New("session already initialized")
)
