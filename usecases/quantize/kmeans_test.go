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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldprint/foldprint/usecases/quantize"
)

func TestKMeansZeroInputDegeneracy(t *testing.T) {
	km := quantize.NewKMeans(8, 5, 4)
	km.Fit(nil)

	centers := km.Centers()
	require.Len(t, centers, 8)
	for _, c := range centers {
		require.Len(t, c, 4)
		for _, x := range c {
			assert.Equal(t, 0.0, x)
		}
	}
}

func TestKMeansSeparatesObviousClusters(t *testing.T) {
	data := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	}

	km := quantize.NewKMeans(2, 10, 2)
	km.Fit(data)

	low := km.Nearest([]float64{0.05, 0.05})
	high := km.Nearest([]float64{10.05, 10.05})
	assert.NotEqual(t, low, high)

	for _, p := range data[:3] {
		assert.Equal(t, low, km.Nearest(p))
	}
	for _, p := range data[3:] {
		assert.Equal(t, high, km.Nearest(p))
	}
}

func TestKMeansFewerPointsThanCentroids(t *testing.T) {
	data := [][]float64{{1, 1}, {2, 2}}

	km := quantize.NewKMeans(4, 5, 2)
	km.Fit(data)

	centers := km.Centers()
	require.Len(t, centers, 4)
	// every point still resolves to its own value
	assert.Equal(t, data[0], centers[km.Nearest(data[0])])
	assert.Equal(t, data[1], centers[km.Nearest(data[1])])
}
