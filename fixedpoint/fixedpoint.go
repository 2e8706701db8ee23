// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package fixedpoint maps real-valued gradients and model weights to BN254
// scalar field elements and back.
//
// The encoding is fixed-point: values are scaled by Scale and truncated toward
// zero, so Decode(Encode(x)) is within 1/Scale of x. Negative values are
// encoded as the additive inverse of the encoded magnitude, which keeps the
// encoding compatible with in-circuit addition. The encoding is lossy and
// non-canonical; it is meant for observability and witness preparation, never
// as a substitute for the field arithmetic itself.
package fixedpoint

import (
	"errors"
	"math"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Scale is the fixed-point scaling factor: one encoded unit is 1/Scale.
const Scale = 1_000_000

var (
	// ErrNonFinite the value to encode is NaN or infinite
	ErrNonFinite = errors.New("cannot encode non-finite value")

	// ErrDecodeOverflow the decoded magnitude exceeds the representable range
	ErrDecodeOverflow = errors.New("decoded magnitude overflows the fixed-point range")
)

// halfModulus splits the field into non-negative [0, r/2] and negative (r/2, r).
var halfModulus = new(big.Int).Rsh(fr.Modulus(), 1)

// Encode maps x to a field element by scaling with Scale and truncating toward
// zero. Negative values map to the field's additive inverse of the encoded
// magnitude. NaN and infinities are rejected with ErrNonFinite.
func Encode(x float64) (fr.Element, error) {
	var e fr.Element
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return e, ErrNonFinite
	}

	f := new(big.Float).SetFloat64(x)
	f.Mul(f, big.NewFloat(Scale))
	scaled, _ := f.Int(nil) // truncates toward zero

	neg := scaled.Sign() < 0
	scaled.Abs(scaled)
	e.SetBigInt(scaled)
	if neg {
		e.Neg(&e)
	}
	return e, nil
}

// Decode recovers the real value from the canonical big-integer representation
// of e. Elements above r/2 decode as negative (the additive-inverse encoding
// of Encode). Magnitudes beyond 2⁶³-1 scaled units return ErrDecodeOverflow;
// the cryptographic state is unaffected, only its plaintext view is lost.
func Decode(e fr.Element) (float64, error) {
	var v big.Int
	e.BigInt(&v)

	neg := false
	if v.Cmp(halfModulus) > 0 {
		v.Sub(fr.Modulus(), &v)
		neg = true
	}
	if !v.IsInt64() {
		return 0, ErrDecodeOverflow
	}

	x := float64(v.Int64()) / Scale
	if neg {
		x = -x
	}
	return x, nil
}
