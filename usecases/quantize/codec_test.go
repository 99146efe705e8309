//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package quantize_test

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldprint/foldprint/entities/fingerprint"
	"github.com/foldprint/foldprint/usecases/quantize"
)

func singleVectorBlock(v []float64) *fingerprint.FoldedBlock {
	return &fingerprint.FoldedBlock{Vectors: [][]float64{v}, RecordCount: 1}
}

// twoCentroidCodebook quantizes 1D subspaces against {0, 1}.
func twoCentroidCodebook(errorBound float64) *fingerprint.Codebook {
	return &fingerprint.Codebook{
		NumSubspaces: 2,
		SubvectorDim: 1,
		NumCentroids: 2,
		Centroids: [][][]float64{
			{{0}, {1}},
			{{0}, {1}},
		},
		ErrorBound: errorBound,
	}
}

func TestCodecRejectsInconsistentCodebook(t *testing.T) {
	cb := twoCentroidCodebook(0)
	cb.NumSubspaces = 3 // centroid groups don't match anymore
	_, err := quantize.NewCodec(cb, logrus.New())
	assert.NotNil(t, err)

	cb = twoCentroidCodebook(0)
	cb.Centroids[0][1] = []float64{1, 2} // wrong centroid width
	_, err = quantize.NewCodec(cb, logrus.New())
	assert.NotNil(t, err)
}

func TestCodecRequiresExplicitPolicy(t *testing.T) {
	codec, err := quantize.NewCodec(twoCentroidCodebook(0), logrus.New())
	require.Nil(t, err)

	_, err = codec.Encode(singleVectorBlock([]float64{0, 1}), 0)
	assert.NotNil(t, err)
}

func TestCodecPicksNearestCentroids(t *testing.T) {
	codec, err := quantize.NewCodec(twoCentroidCodebook(0), logrus.New())
	require.Nil(t, err)

	code, err := codec.Encode(singleVectorBlock([]float64{0.2, 0.9}), quantize.PolicyLenient)
	require.Nil(t, err)

	require.Len(t, code.Indices, 1)
	assert.Equal(t, []int{0, 1}, code.Indices[0])
	assert.Equal(t, []float64{0, 1}, codec.DecodeVector(code.Indices[0]))
}

func TestCodecZeroPadsShortVectors(t *testing.T) {
	codec, err := quantize.NewCodec(twoCentroidCodebook(0), logrus.New())
	require.Nil(t, err)

	code, err := codec.Encode(singleVectorBlock([]float64{0.9}), quantize.PolicyLenient)
	require.Nil(t, err)
	// the missing second component quantizes as 0
	assert.Equal(t, []int{1, 0}, code.Indices[0])
}

func TestCodecStrictModeEnforcesBound(t *testing.T) {
	codec, err := quantize.NewCodec(twoCentroidCodebook(0.1), logrus.New())
	require.Nil(t, err)

	// residual sqrt(0.5^2+0.5^2) ≈ 0.707 > 0.1
	_, err = codec.Encode(singleVectorBlock([]float64{0.5, 0.5}), quantize.PolicyStrict)
	assert.ErrorIs(t, err, quantize.ErrBoundExceeded)

	// within bound encodes fine
	code, err := codec.Encode(singleVectorBlock([]float64{0.99, 0.01}), quantize.PolicyStrict)
	require.Nil(t, err)
	assert.Equal(t, 0, code.BoundViolations)
}

func TestCodecLenientModeCountsViolations(t *testing.T) {
	codec, err := quantize.NewCodec(twoCentroidCodebook(0.1), logrus.New())
	require.Nil(t, err)

	fb := &fingerprint.FoldedBlock{Vectors: [][]float64{
		{0.5, 0.5},   // violates
		{0.99, 0.01}, // fine
		{0.4, 0.6},   // violates
	}}

	code, err := codec.Encode(fb, quantize.PolicyLenient)
	require.Nil(t, err)
	assert.Equal(t, 2, code.BoundViolations)
	assert.Len(t, code.Errors, 3)
}

// Round-trip bound property: in strict mode either encoding fails or the
// reconstruction stays within the codebook's error bound.
func TestCodecRoundTripBound(t *testing.T) {
	cb := quantize.Deterministic(4, 4, 32, "round-trip", 1.0)
	cb.ErrorBound = 1.5

	codec, err := quantize.NewCodec(cb, logrus.New())
	require.Nil(t, err)

	vectors := [][]float64{
		{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8, 0.9, -1.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
		make([]float64, 16),
	}

	for _, v := range vectors {
		code, err := codec.Encode(singleVectorBlock(v), quantize.PolicyStrict)
		if err != nil {
			assert.ErrorIs(t, err, quantize.ErrBoundExceeded)
			continue
		}

		decoded := codec.DecodeVector(code.Indices[0])
		var sum float64
		for i := range decoded {
			diff := v[i] - decoded[i]
			sum += diff * diff
		}
		assert.LessOrEqual(t, math.Sqrt(sum), cb.ErrorBound)
	}
}

func TestCodecDecodeConcatenatesSubspaces(t *testing.T) {
	cb := quantize.Deterministic(4, 4, 8, "decode", 1.0)
	codec, err := quantize.NewCodec(cb, logrus.New())
	require.Nil(t, err)

	indices := []int{3, 1, 7, 0}
	decoded := codec.DecodeVector(indices)
	require.Len(t, decoded, 16)
	for s, c := range indices {
		assert.Equal(t, cb.Centroids[s][c], decoded[s*4:(s+1)*4])
	}
}
