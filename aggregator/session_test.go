// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package aggregator

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/consensys/fedfold/fixedpoint"
	"github.com/consensys/fedfold/folding"
)

// referenceGradients sum to 3010.
var referenceGradients = []float64{100, 250, 175, 300, 125, 200, 150, 275, 225, 180, 190, 260, 210, 140, 230}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return New(WithRandomness(rand.New(rand.NewSource(42))))
}

func TestSessionLifecycle(t *testing.T) {
	assert := require.New(t)

	s := newTestSession(t)
	assert.NoError(s.Initialize(1000))

	for _, g := range referenceGradients {
		assert.NoError(s.ProveGradientStep(g))
	}

	assert.Equal(uint64(15), s.NumSteps())

	state := s.State()
	assert.Len(state, 1)
	assert.InDelta(4010, state[0], float64(len(referenceGradients))/fixedpoint.Scale)

	proofBytes, err := s.GenerateFinalProof()
	assert.NoError(err)

	ok, err := s.VerifyProof(proofBytes)
	assert.NoError(err)
	assert.True(ok)

	// the session keeps folding after a proof was produced and verified
	assert.NoError(s.ProveGradientStep(-10))
	assert.Equal(uint64(16), s.NumSteps())
}

func TestNotInitialized(t *testing.T) {
	assert := require.New(t)

	s := newTestSession(t)

	assert.ErrorIs(s.ProveGradientStep(1), ErrNotInitialized)
	assert.ErrorIs(s.ProveGradientBatch([]float64{1}), ErrNotInitialized)

	_, err := s.FinalizeProof()
	assert.ErrorIs(err, ErrNotInitialized)

	_, err = s.VerifierParams()
	assert.ErrorIs(err, ErrNotInitialized)

	assert.Equal(uint64(0), s.NumSteps())
	assert.Empty(s.State())
}

func TestReinitializeRejected(t *testing.T) {
	assert := require.New(t)

	s := newTestSession(t)
	assert.NoError(s.Initialize(100))
	assert.NoError(s.ProveGradientStep(5))

	err := s.Initialize(0)
	assert.ErrorIs(err, ErrAlreadyInitialized)

	// the folded history survived the rejected re-initialization
	assert.Equal(uint64(1), s.NumSteps())
	assert.InDelta(105, s.State()[0], 1e-6)
}

func TestBatchNonAtomic(t *testing.T) {
	assert := require.New(t)

	s := newTestSession(t)
	assert.NoError(s.Initialize(0))

	batch := []float64{1, 2, 3, math.NaN(), 5}
	err := s.ProveGradientBatch(batch)
	assert.Error(err)
	assert.ErrorIs(err, fixedpoint.ErrNonFinite)
	assert.Contains(err.Error(), "gradient 3")

	// the three preceding folds stay committed
	assert.Equal(uint64(3), s.NumSteps())
	assert.InDelta(6, s.State()[0], 1e-6)

	// a failed fold does not increment the step counter; the session keeps
	// accepting valid steps
	assert.NoError(s.ProveGradientStep(4))
	assert.Equal(uint64(4), s.NumSteps())

	proofBytes, err := s.GenerateFinalProof()
	assert.NoError(err)
	ok, err := s.VerifyProof(proofBytes)
	assert.NoError(err)
	assert.True(ok)
}

func TestTamperedProofRejected(t *testing.T) {
	assert := require.New(t)

	s := newTestSession(t)
	assert.NoError(s.Initialize(1000))
	assert.NoError(s.ProveGradientBatch(referenceGradients))

	proofBytes, err := s.GenerateFinalProof()
	assert.NoError(err)

	for _, i := range []int{40, 80, 120, len(proofBytes) - 1} {
		tampered := make([]byte, len(proofBytes))
		copy(tampered, proofBytes)
		tampered[i] ^= 0x01

		ok, err := s.VerifyProof(tampered)
		assert.False(ok, "tampered byte %d accepted", i)
		assert.Error(err)
	}

	// the untouched artifact still verifies
	ok, err := s.VerifyProof(proofBytes)
	assert.NoError(err)
	assert.True(ok)
}

func TestProofSizeIndependentOfSteps(t *testing.T) {
	assert := require.New(t)

	var size int
	for _, n := range []int{1, 15, 100} {
		s := newTestSession(t)
		assert.NoError(s.Initialize(0))
		for i := 0; i < n; i++ {
			assert.NoError(s.ProveGradientStep(float64(i)))
		}
		proofBytes, err := s.GenerateFinalProof()
		assert.NoError(err)

		if size == 0 {
			size = len(proofBytes)
		}
		assert.Equal(size, len(proofBytes), "proof size changed at %d steps", n)
	}
}

func TestFinalizeIsPure(t *testing.T) {
	assert := require.New(t)

	s := newTestSession(t)
	assert.NoError(s.Initialize(10))
	assert.NoError(s.ProveGradientStep(1))

	first, err := s.FinalizeProof()
	assert.NoError(err)

	// finalizing twice must not advance the session
	second, err := s.FinalizeProof()
	assert.NoError(err)
	assert.Equal(first.NumSteps(), second.NumSteps())
	assert.Equal(uint64(1), s.NumSteps())
}

func TestThirdPartyVerification(t *testing.T) {
	assert := require.New(t)

	s := newTestSession(t)
	assert.NoError(s.Initialize(1000))
	assert.NoError(s.ProveGradientBatch(referenceGradients[:5]))

	proof, err := s.FinalizeProof()
	assert.NoError(err)

	// a verifier holding only the cloned-out parameters checks the artifact
	// without touching the session
	vp, err := s.VerifierParams()
	assert.NoError(err)

	verifier := New(WithRandomness(rand.New(rand.NewSource(7))))
	assert.NoError(verifier.scheme.Verify(vp, proof))
}

func TestIndependentSessions(t *testing.T) {
	assert := require.New(t)

	// one session per aggregation round; rounds share no mutable state and
	// may run concurrently
	var g errgroup.Group
	for round := 0; round < 4; round++ {
		g.Go(func() error {
			s := New(WithRandomness(rand.New(rand.NewSource(int64(100 + round)))))
			if err := s.Initialize(float64(round)); err != nil {
				return err
			}
			for i := 0; i < 5; i++ {
				if err := s.ProveGradientStep(float64(i * (round + 1))); err != nil {
					return err
				}
			}
			proofBytes, err := s.GenerateFinalProof()
			if err != nil {
				return err
			}
			ok, err := s.VerifyProof(proofBytes)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("round %d: proof rejected", round)
			}
			return nil
		})
	}
	assert.NoError(g.Wait())
}

func TestVerifyProofGarbage(t *testing.T) {
	assert := require.New(t)

	s := newTestSession(t)
	assert.NoError(s.Initialize(0))

	ok, err := s.VerifyProof([]byte("not a proof"))
	assert.False(ok)
	assert.ErrorIs(err, folding.ErrSerialization)
}
