// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package fedfold provides proof-carrying aggregation of federated-learning
// gradient contributions.
//
// An aggregator folds one proof per gradient contribution into a running
// accumulated proof; the finalized proof attests to the whole fold history and
// verifies in time independent of the number of contributions.
//
// The caller-facing entry point is the aggregator package. The cryptographic
// engine is consumed through the folding.Scheme contract; the default engine
// lives in folding/pedersen. Real-valued gradients are mapped to field
// elements by the fixedpoint package.
package fedfold

import (
	"github.com/blang/semver/v4"
)

// Version of the fedfold library
var Version = semver.MustParse("0.1.0")
