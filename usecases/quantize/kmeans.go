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
	"github.com/foldprint/foldprint/usecases/distancer"
)

// KMeans clusters one subspace of the training corpus. Centroids are
// initialized by striding through the data and refined for a fixed number
// of iterations; centroids that attract no points keep their previous
// position.
type KMeans struct {
	K          int
	Iterations int
	distance   distancer.Provider
	dimensions int
	centers    [][]float64
}

func NewKMeans(k, iterations, dimensions int) *KMeans {
	return &KMeans{
		K:          k,
		Iterations: iterations,
		distance:   distancer.NewL2SquaredProvider(),
		dimensions: dimensions,
	}
}

func (m *KMeans) Centers() [][]float64 {
	return m.centers
}

func (m *KMeans) Centroid(index int) []float64 {
	return m.centers[index]
}

// Fit trains the centroids on data. Empty data yields K all-zero
// centroids rather than an error so a degenerate subspace still encodes.
func (m *KMeans) Fit(data [][]float64) {
	m.centers = make([][]float64, m.K)
	for c := range m.centers {
		m.centers[c] = make([]float64, m.dimensions)
	}
	if len(data) == 0 {
		return
	}

	stride := len(data) / m.K
	if stride < 1 {
		stride = 1
	}
	for c := range m.centers {
		copy(m.centers[c], data[(c*stride)%len(data)])
	}

	sums := make([][]float64, m.K)
	counts := make([]int, m.K)
	for iter := 0; iter < m.Iterations; iter++ {
		for c := range sums {
			sums[c] = make([]float64, m.dimensions)
			counts[c] = 0
		}

		for _, point := range data {
			c := m.Nearest(point)
			for i, x := range point {
				sums[c][i] += x
			}
			counts[c]++
		}

		for c := range m.centers {
			if counts[c] == 0 {
				continue
			}
			for i := range m.centers[c] {
				m.centers[c][i] = sums[c][i] / float64(counts[c])
			}
		}
	}
}

// Nearest returns the index of the closest centroid by squared Euclidean
// distance.
func (m *KMeans) Nearest(point []float64) int {
	best := 0
	bestDist, _ := m.distance.SingleDist(point, m.centers[0])
	for c := 1; c < len(m.centers); c++ {
		dist, _ := m.distance.SingleDist(point, m.centers[c])
		if dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best
}
