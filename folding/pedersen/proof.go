// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package pedersen

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/consensys/fedfold/folding"
)

// Proof is the serializable IVC proof artifact: the step counter, initial and
// current state, the running and incoming instance commitments, the chained
// step digest and a Schnorr opening argument. Every field is fixed-size, so
// the encoded length never depends on the number of folded steps.
type Proof struct {
	ParamsDigest [32]byte // fingerprint of the parameter pair the proof was produced under
	Steps        [8]byte  // big-endian step counter i
	Z0           [32]byte // initial state z_0, canonical big-endian
	Zi           [32]byte // current state z_i, canonical big-endian
	Running      [32]byte // compressed running commitment U_i
	Incoming     [32]byte // compressed incoming commitment u_i
	History      [32]byte // chained step digest
	Nonce        [32]byte // compressed Schnorr nonce commitment A
	Response     [32]byte // Schnorr response, canonical big-endian
}

// sizeOfProof is the serialized artifact length in bytes.
const sizeOfProof = 8*32 + 8

// NumSteps returns the step counter the proof attests to.
func (p *Proof) NumSteps() uint64 {
	return binary.BigEndian.Uint64(p.Steps[:])
}

// WriteTo serializes the proof in its canonical fixed layout.
func (p *Proof) WriteTo(w io.Writer) (int64, error) {
	var buf [sizeOfProof]byte
	p.marshal(buf[:])
	n, err := w.Write(buf[:])
	if err != nil {
		return int64(n), fmt.Errorf("%w: %v", folding.ErrSerialization, err)
	}
	return int64(n), nil
}

// ReadFrom deserializes a proof written by WriteTo. Corrupted point or scalar
// encodings are only detected at verification time; truncated input fails
// here.
func (p *Proof) ReadFrom(r io.Reader) (int64, error) {
	var buf [sizeOfProof]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		return int64(n), fmt.Errorf("%w: %v", folding.ErrSerialization, err)
	}
	p.unmarshal(buf[:])
	return int64(n), nil
}

func (p *Proof) marshal(buf []byte) {
	off := 0
	for _, field := range [][]byte{
		p.ParamsDigest[:], p.Steps[:], p.Z0[:], p.Zi[:],
		p.Running[:], p.Incoming[:], p.History[:], p.Nonce[:], p.Response[:],
	} {
		off += copy(buf[off:], field)
	}
}

func (p *Proof) unmarshal(buf []byte) {
	off := 0
	for _, field := range [][]byte{
		p.ParamsDigest[:], p.Steps[:], p.Z0[:], p.Zi[:],
		p.Running[:], p.Incoming[:], p.History[:], p.Nonce[:], p.Response[:],
	} {
		off += copy(field, buf[off:off+len(field)])
	}
}
