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
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldprint/foldprint/usecases/quantize"
)

func trainerConfig() quantize.TrainerConfig {
	return quantize.TrainerConfig{
		NumSubspaces: 4,
		SubvectorDim: 4,
		NumCentroids: 8,
		Iterations:   10,
		Seed:         "test-seed",
		Scale:        1.0,
	}
}

func randomCorpus(n, dim int) [][]float64 {
	rng := rand.New(rand.NewSource(42))
	corpus := make([][]float64, n)
	for i := range corpus {
		v := make([]float64, dim)
		for d := range v {
			v[d] = rng.Float64()*2 - 1
		}
		corpus[i] = v
	}
	return corpus
}

func TestTrainerRejectsInvalidConfig(t *testing.T) {
	cfg := trainerConfig()
	cfg.NumSubspaces = 0
	_, err := quantize.NewTrainer(cfg, logrus.New())
	assert.NotNil(t, err)

	cfg = trainerConfig()
	cfg.Iterations = -1
	_, err = quantize.NewTrainer(cfg, logrus.New())
	assert.NotNil(t, err)
}

func TestTrainerFallsBackOnSmallCorpus(t *testing.T) {
	trainer, err := quantize.NewTrainer(trainerConfig(), logrus.New())
	require.Nil(t, err)

	cb, err := trainer.Train(randomCorpus(3, 16))
	require.Nil(t, err)

	want := quantize.Deterministic(4, 4, 8, "test-seed", 1.0)
	assert.Equal(t, want.Centroids, cb.Centroids)
	assert.Nil(t, cb.Normalization)
}

func TestTrainerProducesUsableCodebook(t *testing.T) {
	trainer, err := quantize.NewTrainer(trainerConfig(), logrus.New())
	require.Nil(t, err)

	corpus := randomCorpus(500, 16)
	cb, err := trainer.Train(corpus)
	require.Nil(t, err)

	assert.Equal(t, 16, cb.Dim())
	require.Len(t, cb.Centroids, 4)
	for _, group := range cb.Centroids {
		assert.Len(t, group, 8)
	}

	require.NotNil(t, cb.Normalization)
	assert.Len(t, cb.Normalization.Mean, 16)
	for _, std := range cb.Normalization.Std {
		assert.GreaterOrEqual(t, std, 1.0)
	}

	assert.Greater(t, cb.ErrorBound, 0.0)

	// the trained bound must hold for the vectors it was measured on
	codec, err := quantize.NewCodec(cb, logrus.New())
	require.Nil(t, err)
	violations := 0
	for _, v := range corpus {
		fb := singleVectorBlock(v)
		code, err := codec.Encode(fb, quantize.PolicyLenient)
		require.Nil(t, err)
		violations += code.BoundViolations
	}
	// 95th-percentile bound: at most ~5% of the corpus may exceed it
	assert.LessOrEqual(t, violations, 500/10)
}

func TestTrainerSkipsShortVectors(t *testing.T) {
	trainer, err := quantize.NewTrainer(trainerConfig(), logrus.New())
	require.Nil(t, err)

	corpus := randomCorpus(200, 16)
	corpus = append(corpus, []float64{1, 2, 3}) // too short, must be dropped

	cb, err := trainer.Train(corpus)
	require.Nil(t, err)
	assert.Len(t, cb.Normalization.Mean, 16)
}
