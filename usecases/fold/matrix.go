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

package fold

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ComponentMatrix is a K×D projection basis: K projected components over
// the fold dimension D.
type ComponentMatrix struct {
	dense      *mat.Dense
	components int
	dim        int
}

// NewComponentMatrix wraps caller-supplied rows, enforcing the K×D shape.
func NewComponentMatrix(rows [][]float64) (*ComponentMatrix, error) {
	if len(rows) == 0 {
		return nil, errors.New("component matrix: no rows")
	}

	dim := len(rows[0])
	if dim == 0 {
		return nil, errors.New("component matrix: empty rows")
	}

	data := make([]float64, 0, len(rows)*dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, errors.Errorf("component matrix: row %d has %d columns, want %d",
				i, len(row), dim)
		}
		data = append(data, row...)
	}

	return &ComponentMatrix{
		dense:      mat.NewDense(len(rows), dim, data),
		components: len(rows),
		dim:        dim,
	}, nil
}

// NewDCTMatrix generates the deterministic fallback basis: the first k
// rows of an orthonormal DCT-II, alpha*cos(pi*(2n+1)*k / 2D) with
// alpha = sqrt(1/D) for k=0 and sqrt(2/D) otherwise.
func NewDCTMatrix(components, dim int) (*ComponentMatrix, error) {
	if components <= 0 || dim <= 0 {
		return nil, errors.Errorf("dct matrix: invalid shape %dx%d", components, dim)
	}

	data := make([]float64, components*dim)
	for k := 0; k < components; k++ {
		alpha := math.Sqrt(2 / float64(dim))
		if k == 0 {
			alpha = math.Sqrt(1 / float64(dim))
		}
		for n := 0; n < dim; n++ {
			data[k*dim+n] = alpha * math.Cos(math.Pi*float64(2*n+1)*float64(k)/(2*float64(dim)))
		}
	}

	return &ComponentMatrix{
		dense:      mat.NewDense(components, dim, data),
		components: components,
		dim:        dim,
	}, nil
}

func (m *ComponentMatrix) Components() int { return m.components }
func (m *ComponentMatrix) Dim() int        { return m.dim }

// Rows returns a copy of the basis rows, e.g. for artifact export.
func (m *ComponentMatrix) Rows() [][]float64 {
	rows := make([][]float64, m.components)
	for k := range rows {
		rows[k] = mat.Row(nil, k, m.dense)
	}
	return rows
}
