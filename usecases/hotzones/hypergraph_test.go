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

package hotzones_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldprint/foldprint/entities/fingerprint"
	"github.com/foldprint/foldprint/usecases/hotzones"
)

func zone(center []float64, density, radius float64) fingerprint.Hotzone {
	return fingerprint.Hotzone{Center: center, Density: density, Radius: radius}
}

func TestHypergraphGroupsOverlappingZones(t *testing.T) {
	zones := []fingerprint.Hotzone{
		zone([]float64{0, 0}, 0.9, 1),
		zone([]float64{1, 0}, 0.8, 1),   // within reach of the seed
		zone([]float64{10, 10}, 0.7, 1), // out of reach
	}

	graph := hotzones.BuildHypergraph(zones, hotzones.HypergraphOptions{
		DensityThreshold: 0.5,
		MaxEdgeSize:      4,
	})

	require.Len(t, graph.Edges, 1)
	assert.Equal(t, []int{0, 1}, graph.Edges[0].Nodes)
	assert.InDelta(t, 1.7, graph.Edges[0].Weight, 1e-9)
	assert.Equal(t, zones, graph.Hotzones)
}

func TestHypergraphSingletonsProduceNoEdge(t *testing.T) {
	zones := []fingerprint.Hotzone{
		zone([]float64{0, 0}, 0.9, 0.1),
		zone([]float64{10, 10}, 0.8, 0.1),
	}

	graph := hotzones.BuildHypergraph(zones, hotzones.HypergraphOptions{
		DensityThreshold: 0,
		MaxEdgeSize:      4,
	})
	assert.Empty(t, graph.Edges)
}

func TestHypergraphDensityGateBlocksWeakZones(t *testing.T) {
	zones := []fingerprint.Hotzone{
		zone([]float64{0, 0}, 1.0, 1),
		zone([]float64{0.5, 0}, 0.1, 1), // would drag the mean below 0.6
	}

	graph := hotzones.BuildHypergraph(zones, hotzones.HypergraphOptions{
		DensityThreshold: 0.6,
		MaxEdgeSize:      4,
	})
	assert.Empty(t, graph.Edges)
}

func TestHypergraphCapsEdgeSize(t *testing.T) {
	// four mutually overlapping zones, edges capped at two
	zones := []fingerprint.Hotzone{
		zone([]float64{0, 0}, 0.9, 2),
		zone([]float64{0.1, 0}, 0.8, 2),
		zone([]float64{0.2, 0}, 0.7, 2),
		zone([]float64{0.3, 0}, 0.6, 2),
	}

	graph := hotzones.BuildHypergraph(zones, hotzones.HypergraphOptions{
		DensityThreshold: 0,
		MaxEdgeSize:      2,
	})

	require.Len(t, graph.Edges, 2)
	for _, e := range graph.Edges {
		assert.Len(t, e.Nodes, 2)
	}
	assert.Equal(t, []int{0, 1}, graph.Edges[0].Nodes)
	assert.Equal(t, []int{2, 3}, graph.Edges[1].Nodes)
}

func TestHypergraphDegenerateInputs(t *testing.T) {
	graph := hotzones.BuildHypergraph(nil, hotzones.HypergraphOptions{MaxEdgeSize: 4})
	assert.Empty(t, graph.Edges)

	single := []fingerprint.Hotzone{zone([]float64{0, 0}, 1, 1)}
	graph = hotzones.BuildHypergraph(single, hotzones.HypergraphOptions{MaxEdgeSize: 4})
	assert.Empty(t, graph.Edges)

	pair := []fingerprint.Hotzone{
		zone([]float64{0, 0}, 1, 1),
		zone([]float64{0.1, 0}, 1, 1),
	}
	graph = hotzones.BuildHypergraph(pair, hotzones.HypergraphOptions{MaxEdgeSize: 1})
	assert.Empty(t, graph.Edges)
}
