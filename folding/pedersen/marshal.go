// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package pedersen

import (
	"fmt"
	"io"

	"github.com/consensys/fedfold/encoding"
	"github.com/consensys/fedfold/folding"
)

// vpScheme tags serialized verifier parameters.
const vpScheme = "fedfold.pedersen.vparams.v1"

type serializedVerifierParams struct {
	G      []byte `cbor:"g"`
	H      []byte `cbor:"h"`
	Digest []byte `cbor:"digest"`
}

// WriteTo serializes the verifier parameters so they can be handed to an
// independent verifier.
func (vp *VerifierParams) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	s := serializedVerifierParams{
		G:      vp.basis.g.Marshal(),
		H:      vp.basis.h.Marshal(),
		Digest: vp.digest[:],
	}
	if err := encoding.Serialize(cw, s, vpScheme); err != nil {
		return cw.n, fmt.Errorf("%w: %v", folding.ErrSerialization, err)
	}
	return cw.n, nil
}

// ReadFrom deserializes verifier parameters written by WriteTo, checking the
// scheme tag and that both basis points are on the curve and in the subgroup.
func (vp *VerifierParams) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	var s serializedVerifierParams
	if err := encoding.Deserialize(cr, &s, vpScheme); err != nil {
		return cr.n, fmt.Errorf("%w: %v", folding.ErrSerialization, err)
	}
	if len(s.Digest) != len(vp.digest) {
		return cr.n, fmt.Errorf("%w: digest length %d", folding.ErrSerialization, len(s.Digest))
	}
	if err := vp.basis.g.Unmarshal(s.G); err != nil {
		return cr.n, fmt.Errorf("%w: basis G: %v", folding.ErrSerialization, err)
	}
	if err := vp.basis.h.Unmarshal(s.H); err != nil {
		return cr.n, fmt.Errorf("%w: basis H: %v", folding.ErrSerialization, err)
	}
	copy(vp.digest[:], s.Digest)
	return cr.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
