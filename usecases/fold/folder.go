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

// Package fold reduces a block's VectorSet into a handful of fixed-size
// vectors: component-wise mean, Bessel-corrected standard deviation and K
// basis-projected components.
package fold

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/foldprint/foldprint/entities/fingerprint"
	"github.com/foldprint/foldprint/usecases/vectorize"
)

// ErrEmptyVectorSet rejects folding a block with zero records: mean and
// variance are undefined, so this is a configuration error rather than a
// zero vector.
var ErrEmptyVectorSet = errors.New("fold: empty vector set")

type Config struct {
	// Dim is the fold dimension; every output vector has this width.
	Dim int
	// Components is K, the number of basis-projected vectors.
	Components int
	// Epsilon guards the L2 normalization denominator.
	Epsilon float64
	// Matrix overrides the deterministic DCT basis when set.
	Matrix *ComponentMatrix
}

// BlockMeta carries the header fields that survive into the FoldedBlock.
type BlockMeta struct {
	Height    uint64
	Timestamp int64
}

// Fold aggregates all vectors of one block. The output holds
// 2+Components vectors of Config.Dim width: mean, stddev, then the
// L2-normalized projections.
func Fold(set *vectorize.VectorSet, meta BlockMeta, cfg Config) (*fingerprint.FoldedBlock, error) {
	n := set.Len()
	if n == 0 {
		return nil, ErrEmptyVectorSet
	}
	if cfg.Dim <= 0 {
		return nil, errors.Errorf("fold: invalid dimension %d", cfg.Dim)
	}

	basis := cfg.Matrix
	if basis == nil {
		var err error
		if basis, err = NewDCTMatrix(cfg.Components, cfg.Dim); err != nil {
			return nil, err
		}
	}
	if basis.Components() != cfg.Components || basis.Dim() != cfg.Dim {
		return nil, errors.Errorf("fold: component matrix is %dx%d, want %dx%d",
			basis.Components(), basis.Dim(), cfg.Components, cfg.Dim)
	}

	canonical := canonicalize(set, cfg.Dim)

	mean := columnMean(canonical, cfg.Dim)
	stddev := columnStddev(canonical, mean, cfg.Dim)

	vectors := make([][]float64, 0, 2+cfg.Components)
	vectors = append(vectors, mean, stddev)
	vectors = append(vectors, project(canonical, basis, cfg.Epsilon)...)

	return &fingerprint.FoldedBlock{
		Vectors:     vectors,
		Height:      meta.Height,
		RecordCount: n,
		Timestamp:   meta.Timestamp,
	}, nil
}

// canonicalize concatenates the three categories and resizes every vector
// to the fold dimension, truncating long vectors and zero-padding short
// ones.
func canonicalize(set *vectorize.VectorSet, dim int) [][]float64 {
	out := make([][]float64, 0, set.Len())
	for _, group := range [][][]float64{set.Tx, set.State, set.Witness} {
		for _, v := range group {
			c := make([]float64, dim)
			copy(c, v)
			out = append(out, c)
		}
	}
	return out
}

func columnMean(vectors [][]float64, dim int) []float64 {
	mean := make([]float64, dim)
	for _, v := range vectors {
		floats.Add(mean, v)
	}
	floats.Scale(1/float64(len(vectors)), mean)
	return mean
}

// columnStddev computes the Bessel-corrected standard deviation, with the
// n-1 denominator floored at 1 for single-vector blocks.
func columnStddev(vectors [][]float64, mean []float64, dim int) []float64 {
	denom := float64(len(vectors) - 1)
	if denom < 1 {
		denom = 1
	}

	stddev := make([]float64, dim)
	for _, v := range vectors {
		for i := range stddev {
			diff := v[i] - mean[i]
			stddev[i] += diff * diff
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / denom)
	}
	return stddev
}

// project computes, for each basis row, the dot-product-weighted sum of
// all canonical vectors scaled by 1/n, then L2-normalizes it with an
// epsilon-guarded denominator.
func project(vectors [][]float64, basis *ComponentMatrix, epsilon float64) [][]float64 {
	n, dim := len(vectors), basis.Dim()

	data := make([]float64, 0, n*dim)
	for _, v := range vectors {
		data = append(data, v...)
	}
	values := mat.NewDense(n, dim, data)

	// weights(n×K) = values(n×D) · basisᵀ(D×K)
	var weights mat.Dense
	weights.Mul(values, basis.dense.T())

	// componentsᵀ(D×K) = valuesᵀ(D×n) · weights(n×K)
	var projected mat.Dense
	projected.Mul(values.T(), &weights)

	out := make([][]float64, basis.Components())
	for k := range out {
		component := mat.Col(nil, k, &projected)
		floats.Scale(1/float64(n), component)

		norm := floats.Norm(component, 2)
		floats.Scale(1/(norm+epsilon), component)
		out[k] = component
	}
	return out
}
