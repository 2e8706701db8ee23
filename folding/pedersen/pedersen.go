// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package pedersen implements the folding.Scheme contract with a Pedersen
// commitment accumulator over BN254.
//
// Every step commits to its external input under fresh blinding and folds the
// commitment homomorphically into the running instance; a chained digest binds
// the fold order. The IVC proof carries a Schnorr argument that the running
// commitment opens to z_i - z_0, so verification recomputes one Fiat-Shamir
// challenge and checks one group equation regardless of how many steps were
// folded. The step relation itself is compiled with gnark at preprocessing
// time and every step witness is checked against the compiled system before
// the fold is applied.
package pedersen

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"golang.org/x/crypto/blake2b"

	"github.com/consensys/fedfold/folding"
	"github.com/consensys/fedfold/logger"
)

const (
	// domain separation tags
	dstBasis     = "fedfold.pedersen.basis.v1"
	dstChallenge = "fedfold.pedersen.challenge.v1"
	dstHistory   = "fedfold.pedersen.history.v1"
)

// Scheme is the Pedersen accumulation engine. The zero value is ready to use.
type Scheme struct{}

// basis is the Pedersen commitment basis: commits are v·G + r·H.
type basis struct {
	g, h bn254.G1Affine
}

// ProverParams hold the compiled step relation and the commitment basis.
type ProverParams struct {
	ccs      constraint.ConstraintSystem
	basis    basis
	digest   [32]byte
	stateLen int
}

// Digest fingerprints the parameters.
func (pp *ProverParams) Digest() [32]byte { return pp.digest }

// VerifierParams hold the commitment basis needed to check an IVC proof. They
// are safe to hand to a third party.
type VerifierParams struct {
	basis  basis
	digest [32]byte
}

// Digest fingerprints the parameters.
func (vp *VerifierParams) Digest() [32]byte { return vp.digest }

// Preprocess compiles the step relation and derives a fresh commitment basis.
// The basis seed is drawn from rng, so two preprocessing runs yield distinct,
// mutually incompatible parameter pairs.
func (Scheme) Preprocess(rng io.Reader, c folding.StepCircuit) (folding.ProverParams, folding.VerifierParams, error) {
	log := logger.Logger().With().Str("circuit", c.Name()).Logger()

	// the proof artifact carries one field element per state component; this
	// engine handles the single-component case
	if c.StateLen() != 1 {
		return nil, nil, fmt.Errorf("%w: %s has state length %d, engine supports 1", folding.ErrSetup, c.Name(), c.StateLen())
	}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, c.Constraints())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: compile %s: %v", folding.ErrSetup, c.Name(), err)
	}

	var seed [32]byte
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: sample basis seed: %v", folding.ErrSetup, err)
	}

	b, err := deriveBasis(seed)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: derive basis: %v", folding.ErrSetup, err)
	}

	digest := paramsDigest(c, b)
	log.Debug().Int("nbConstraints", ccs.GetNbConstraints()).Msg("preprocessed step relation")

	pp := &ProverParams{ccs: ccs, basis: b, digest: digest, stateLen: c.StateLen()}
	vp := &VerifierParams{basis: b, digest: digest}
	return pp, vp, nil
}

// Init creates the initial running instance from z0.
func (Scheme) Init(pp folding.ProverParams, c folding.StepCircuit, z0 []fr.Element) (folding.State, error) {
	params, ok := pp.(*ProverParams)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected prover params type %T", folding.ErrSetup, pp)
	}
	if len(z0) != c.StateLen() || c.StateLen() != params.stateLen {
		return nil, fmt.Errorf("%w: got %d, want %d", folding.ErrStateArity, len(z0), params.stateLen)
	}

	st := &State{
		params:  params,
		circuit: c,
		z0:      cloneVector(z0),
		z:       cloneVector(z0),
	}
	st.history = initialHistory(params.digest, z0)
	return st, nil
}

// Verify checks an IVC proof against vp. The cost does not depend on the
// number of folded steps: one challenge derivation and three scalar
// multiplications.
func (Scheme) Verify(vp folding.VerifierParams, proof folding.Proof) error {
	params, ok := vp.(*VerifierParams)
	if !ok {
		return fmt.Errorf("%w: unexpected verifier params type %T", folding.ErrParamMismatch, vp)
	}
	p, ok := proof.(*Proof)
	if !ok {
		return fmt.Errorf("%w: unexpected proof type %T", folding.ErrSerialization, proof)
	}

	if p.ParamsDigest != params.digest {
		return folding.ErrParamMismatch
	}

	var z0, zi, resp fr.Element
	if err := z0.SetBytesCanonical(p.Z0[:]); err != nil {
		return fmt.Errorf("%w: initial state: %v", folding.ErrSerialization, err)
	}
	if err := zi.SetBytesCanonical(p.Zi[:]); err != nil {
		return fmt.Errorf("%w: current state: %v", folding.ErrSerialization, err)
	}
	if err := resp.SetBytesCanonical(p.Response[:]); err != nil {
		return fmt.Errorf("%w: response: %v", folding.ErrSerialization, err)
	}

	var running, nonce bn254.G1Affine
	if _, err := running.SetBytes(p.Running[:]); err != nil {
		return fmt.Errorf("%w: running commitment: %v", folding.ErrSerialization, err)
	}
	if _, err := nonce.SetBytes(p.Nonce[:]); err != nil {
		return fmt.Errorf("%w: nonce commitment: %v", folding.ErrSerialization, err)
	}

	e, err := challenge(p)
	if err != nil {
		return fmt.Errorf("%w: derive challenge: %v", folding.ErrVerifyFailed, err)
	}

	// C = U - (z_i - z_0)·G must open to the accumulated blinding over H
	var delta fr.Element
	delta.Sub(&zi, &z0)
	var deltaBig big.Int
	delta.BigInt(&deltaBig)

	var t bn254.G1Affine
	t.ScalarMultiplication(&params.basis.g, &deltaBig)

	var cJac, tJac bn254.G1Jac
	cJac.FromAffine(&running)
	tJac.FromAffine(&t)
	cJac.SubAssign(&tJac)
	var c bn254.G1Affine
	c.FromJacobian(&cJac)

	// Schnorr check: resp·H == A + e·C
	var respBig, eBig big.Int
	resp.BigInt(&respBig)
	e.BigInt(&eBig)

	var lhs bn254.G1Affine
	lhs.ScalarMultiplication(&params.basis.h, &respBig)

	var eC bn254.G1Affine
	eC.ScalarMultiplication(&c, &eBig)
	var rhsJac, eCJac bn254.G1Jac
	rhsJac.FromAffine(&nonce)
	eCJac.FromAffine(&eC)
	rhsJac.AddAssign(&eCJac)
	var rhs bn254.G1Affine
	rhs.FromJacobian(&rhsJac)

	if !lhs.Equal(&rhs) {
		return folding.ErrVerifyFailed
	}
	return nil
}

// NewProof returns an empty proof ready for deserialization.
func (Scheme) NewProof() folding.Proof { return &Proof{} }

// deriveBasis hashes the seed to two independent G1 points. Nobody knows a
// discrete-log relation between them.
func deriveBasis(seed [32]byte) (basis, error) {
	var b basis
	var err error
	if b.g, err = bn254.HashToG1(append(seed[:], 0x00), []byte(dstBasis)); err != nil {
		return b, err
	}
	if b.h, err = bn254.HashToG1(append(seed[:], 0x01), []byte(dstBasis)); err != nil {
		return b, err
	}
	return b, nil
}

// paramsDigest fingerprints the circuit identity and the commitment basis.
func paramsDigest(c folding.StepCircuit, b basis) [32]byte {
	var buf []byte
	buf = append(buf, []byte(c.Name())...)
	buf = append(buf, byte(c.StateLen()))
	buf = append(buf, b.g.Marshal()...)
	buf = append(buf, b.h.Marshal()...)
	return blake2b.Sum256(buf)
}

// initialHistory seeds the chained step digest with the parameters and z0.
func initialHistory(digest [32]byte, z0 []fr.Element) [32]byte {
	h := sha256.New()
	h.Write([]byte(dstHistory))
	h.Write(digest[:])
	for i := range z0 {
		zb := z0[i].Bytes()
		h.Write(zb[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// chainHistory folds one incoming commitment into the step digest.
func chainHistory(prev [32]byte, incoming bn254.G1Affine) [32]byte {
	h := sha256.New()
	h.Write(prev[:])
	ub := incoming.Bytes()
	h.Write(ub[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// challenge derives the Fiat-Shamir challenge binding every proof field but
// the response. Prover and verifier must agree on it bit for bit.
func challenge(p *Proof) (fr.Element, error) {
	var e fr.Element

	fs := fiatshamir.NewTranscript(sha256.New(), dstChallenge)
	for _, b := range [][]byte{
		p.ParamsDigest[:],
		p.Steps[:],
		p.Z0[:],
		p.Zi[:],
		p.Running[:],
		p.Incoming[:],
		p.History[:],
		p.Nonce[:],
	} {
		if err := fs.Bind(dstChallenge, b); err != nil {
			return e, err
		}
	}

	bs, err := fs.ComputeChallenge(dstChallenge)
	if err != nil {
		return e, err
	}
	e.SetBytes(bs)
	return e, nil
}

// commit computes v·G + r·H.
func commit(b basis, v, r fr.Element) bn254.G1Affine {
	var vBig, rBig big.Int
	v.BigInt(&vBig)
	r.BigInt(&rBig)

	var vG, rH bn254.G1Affine
	vG.ScalarMultiplication(&b.g, &vBig)
	rH.ScalarMultiplication(&b.h, &rBig)

	var acc, rHJac bn254.G1Jac
	acc.FromAffine(&vG)
	rHJac.FromAffine(&rH)
	acc.AddAssign(&rHJac)

	var res bn254.G1Affine
	res.FromJacobian(&acc)
	return res
}

// randomFr samples a uniform field element from rng.
func randomFr(rng io.Reader) (fr.Element, error) {
	var e fr.Element
	// oversample by 128 bits before reduction to keep the output uniform
	buf := make([]byte, fr.Bytes+16)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return e, err
	}
	e.SetBigInt(new(big.Int).SetBytes(buf))
	return e, nil
}

func cloneVector(z []fr.Element) []fr.Element {
	out := make([]fr.Element, len(z))
	copy(out, z)
	return out
}
