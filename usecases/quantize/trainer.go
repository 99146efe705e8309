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

package quantize

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	enterrors "github.com/foldprint/foldprint/entities/errors"
	"github.com/foldprint/foldprint/entities/fingerprint"
)

// maxErrorSampleSize bounds how many corpus vectors contribute to the
// trained error bound.
const maxErrorSampleSize = 100_000

type TrainerConfig struct {
	NumSubspaces int
	SubvectorDim int
	NumCentroids int
	Iterations   int
	// Seed and Scale configure the deterministic fallback used when the
	// corpus is too small to train on.
	Seed  string
	Scale float64
}

func (c TrainerConfig) validate() error {
	if c.NumSubspaces <= 0 || c.SubvectorDim <= 0 || c.NumCentroids <= 0 {
		return errors.Errorf("trainer: invalid codebook shape %d/%d/%d",
			c.NumSubspaces, c.SubvectorDim, c.NumCentroids)
	}
	if c.Iterations <= 0 {
		return errors.Errorf("trainer: iterations must be positive, got %d", c.Iterations)
	}
	return nil
}

// Trainer produces a PQ codebook from a corpus of folded vectors. The
// training itself is a pure batch computation; subspaces are independent
// and trained concurrently.
type Trainer struct {
	cfg    TrainerConfig
	logger logrus.FieldLogger
}

func NewTrainer(cfg TrainerConfig, logger logrus.FieldLogger) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Trainer{cfg: cfg, logger: logger}, nil
}

// Train runs per-subspace k-means over the corpus, attaches per-dimension
// normalization statistics and measures the 95th-percentile reconstruction
// residual as the codebook's error bound. A corpus with fewer usable
// vectors than centroids falls back to the deterministic generator.
func (t *Trainer) Train(corpus [][]float64) (*fingerprint.Codebook, error) {
	dim := t.cfg.NumSubspaces * t.cfg.SubvectorDim

	usable := make([][]float64, 0, len(corpus))
	for _, v := range corpus {
		if len(v) >= dim {
			usable = append(usable, v)
		}
	}

	if len(usable) < t.cfg.NumCentroids {
		t.logger.WithFields(logrus.Fields{
			"usable":    len(usable),
			"centroids": t.cfg.NumCentroids,
		}).Warn("corpus too small to train, using deterministic codebook")
		cb := Deterministic(t.cfg.NumSubspaces, t.cfg.SubvectorDim,
			t.cfg.NumCentroids, t.cfg.Seed, t.cfg.Scale)
		return cb, nil
	}

	centroids := make([][][]float64, t.cfg.NumSubspaces)
	eg := enterrors.NewErrorGroupWrapper(t.logger)
	for s := 0; s < t.cfg.NumSubspaces; s++ {
		s := s
		eg.Go(func() error {
			subvectors := make([][]float64, len(usable))
			for i, v := range usable {
				subvectors[i] = v[s*t.cfg.SubvectorDim : (s+1)*t.cfg.SubvectorDim]
			}

			km := NewKMeans(t.cfg.NumCentroids, t.cfg.Iterations, t.cfg.SubvectorDim)
			km.Fit(subvectors)
			centroids[s] = km.Centers()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "train subspaces")
	}

	cb := &fingerprint.Codebook{
		NumSubspaces:  t.cfg.NumSubspaces,
		SubvectorDim:  t.cfg.SubvectorDim,
		NumCentroids:  t.cfg.NumCentroids,
		Centroids:     centroids,
		Normalization: normalization(usable, dim),
	}
	cb.ErrorBound = t.measureErrorBound(cb, usable)

	t.logger.WithFields(logrus.Fields{
		"vectors":    len(usable),
		"subspaces":  t.cfg.NumSubspaces,
		"centroids":  t.cfg.NumCentroids,
		"errorBound": cb.ErrorBound,
	}).Info("codebook trained")

	return cb, nil
}

// normalization computes per-dimension mean and standard deviation over
// the corpus. The deviation is floored at 1 so downstream scaling never
// degenerates.
func normalization(vectors [][]float64, dim int) *fingerprint.Normalization {
	mean := make([]float64, dim)
	for _, v := range vectors {
		for i := 0; i < dim; i++ {
			mean[i] += v[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}

	std := make([]float64, dim)
	for _, v := range vectors {
		for i := 0; i < dim; i++ {
			diff := v[i] - mean[i]
			std[i] += diff * diff
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i] / float64(len(vectors)))
		if std[i] < 1 {
			std[i] = 1
		}
	}

	return &fingerprint.Normalization{Mean: mean, Std: std}
}

// measureErrorBound encodes a bounded sample of the corpus and returns the
// 95th percentile of the reconstruction residuals.
func (t *Trainer) measureErrorBound(cb *fingerprint.Codebook, vectors [][]float64) float64 {
	sample := vectors
	if len(sample) > maxErrorSampleSize {
		sample = sample[:maxErrorSampleSize]
	}

	residuals := make([]float64, 0, len(sample))
	for _, v := range sample {
		indices := encodeVector(v, cb)
		residuals = append(residuals, reconstructionError(v, decodeIndices(indices, cb)))
	}

	sort.Float64s(residuals)
	return stat.Quantile(0.95, stat.Empirical, residuals, nil)
}
