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

// Package quantize implements codebook training and the product
// quantization codec: a folded vector becomes one centroid index per
// subspace, and decoding concatenates the selected centroids back into an
// approximate vector.
package quantize

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/foldprint/foldprint/entities/fingerprint"
)

// ViolationPolicy decides what happens when a reconstruction residual
// exceeds the codebook's error bound. The zero value is invalid on
// purpose: callers must choose explicitly per invocation.
type ViolationPolicy int

const (
	policyUnset ViolationPolicy = iota
	// PolicyStrict fails encoding on the first violation.
	PolicyStrict
	// PolicyLenient logs and counts violations but keeps the code.
	PolicyLenient
)

// ErrBoundExceeded is returned under PolicyStrict when any vector
// reconstructs outside the codebook's error bound.
var ErrBoundExceeded = errors.New("quantize: reconstruction error exceeds codebook bound")

// Codec encodes folded blocks against one fixed codebook.
type Codec struct {
	cb     *fingerprint.Codebook
	logger logrus.FieldLogger
}

func NewCodec(cb *fingerprint.Codebook, logger logrus.FieldLogger) (*Codec, error) {
	if err := validateCodebook(cb); err != nil {
		return nil, err
	}
	return &Codec{cb: cb, logger: logger}, nil
}

func validateCodebook(cb *fingerprint.Codebook) error {
	if cb == nil {
		return errors.New("quantize: nil codebook")
	}
	if cb.NumSubspaces <= 0 || cb.SubvectorDim <= 0 || cb.NumCentroids <= 0 {
		return errors.Errorf("quantize: invalid codebook shape %d/%d/%d",
			cb.NumSubspaces, cb.SubvectorDim, cb.NumCentroids)
	}
	if len(cb.Centroids) != cb.NumSubspaces {
		return errors.Errorf("quantize: %d centroid groups, want %d",
			len(cb.Centroids), cb.NumSubspaces)
	}
	for s, group := range cb.Centroids {
		if len(group) != cb.NumCentroids {
			return errors.Errorf("quantize: subspace %d has %d centroids, want %d",
				s, len(group), cb.NumCentroids)
		}
		for c, centroid := range group {
			if len(centroid) != cb.SubvectorDim {
				return errors.Errorf("quantize: centroid %d/%d has %d dims, want %d",
					s, c, len(centroid), cb.SubvectorDim)
			}
		}
	}
	return nil
}

// Codebook exposes the codec's codebook, e.g. for commitment hashing.
func (c *Codec) Codebook() *fingerprint.Codebook {
	return c.cb
}

// Encode quantizes every folded vector and enforces the codebook's error
// bound under the given policy. Residuals are always reported in the
// returned PQCode.
func (c *Codec) Encode(fb *fingerprint.FoldedBlock, policy ViolationPolicy) (*fingerprint.PQCode, error) {
	if policy == policyUnset {
		return nil, errors.New("quantize: violation policy must be chosen explicitly")
	}

	code := &fingerprint.PQCode{
		Indices: make([][]int, len(fb.Vectors)),
		Errors:  make([]float64, len(fb.Vectors)),
	}

	for i, v := range fb.Vectors {
		code.Indices[i] = encodeVector(v, c.cb)

		residual := reconstructionError(v, decodeIndices(code.Indices[i], c.cb))
		code.Errors[i] = residual

		if c.cb.ErrorBound > 0 && residual > c.cb.ErrorBound {
			if policy == PolicyStrict {
				return nil, errors.Wrapf(ErrBoundExceeded,
					"vector %d: residual %f > bound %f", i, residual, c.cb.ErrorBound)
			}
			code.BoundViolations++
			c.logger.WithFields(logrus.Fields{
				"vector":   i,
				"residual": residual,
				"bound":    c.cb.ErrorBound,
			}).Warn("reconstruction error exceeds bound")
		}
	}

	return code, nil
}

// Decode reconstructs the approximate folded vectors for a whole code.
func (c *Codec) Decode(code *fingerprint.PQCode) [][]float64 {
	out := make([][]float64, len(code.Indices))
	for i, indices := range code.Indices {
		out[i] = decodeIndices(indices, c.cb)
	}
	return out
}

// DecodeVector reconstructs one vector from its subspace indices.
func (c *Codec) DecodeVector(indices []int) []float64 {
	return decodeIndices(indices, c.cb)
}

// encodeVector picks the nearest centroid per subspace slice. A short
// final slice is zero-padded before the distance comparison.
func encodeVector(v []float64, cb *fingerprint.Codebook) []int {
	indices := make([]int, cb.NumSubspaces)
	slice := make([]float64, cb.SubvectorDim)

	for s := 0; s < cb.NumSubspaces; s++ {
		for d := 0; d < cb.SubvectorDim; d++ {
			idx := s*cb.SubvectorDim + d
			if idx < len(v) {
				slice[d] = v[idx]
			} else {
				slice[d] = 0
			}
		}

		best, bestDist := 0, math.MaxFloat64
		for c, centroid := range cb.Centroids[s] {
			var dist float64
			for d := range slice {
				diff := slice[d] - centroid[d]
				dist += diff * diff
			}
			if dist < bestDist {
				bestDist = dist
				best = c
			}
		}
		indices[s] = best
	}

	return indices
}

func decodeIndices(indices []int, cb *fingerprint.Codebook) []float64 {
	v := make([]float64, 0, len(indices)*cb.SubvectorDim)
	for s, c := range indices {
		v = append(v, cb.Centroids[s][c]...)
	}
	return v
}

// reconstructionError is the Euclidean distance between the reconstruction
// and the zero-padded original.
func reconstructionError(original, reconstructed []float64) float64 {
	var sum float64
	for i := range reconstructed {
		x := 0.0
		if i < len(original) {
			x = original[i]
		}
		diff := x - reconstructed[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
