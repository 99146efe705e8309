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

package hotzones

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/foldprint/foldprint/entities/fingerprint"
)

type HypergraphOptions struct {
	// DensityThreshold is the minimum mean density a group must keep
	// while growing.
	DensityThreshold float64
	// MaxEdgeSize caps the number of hotzones per hyperedge.
	MaxEdgeSize int
}

// BuildHypergraph greedily groups hotzones into hyperedges. Each group is
// seeded with the densest unassigned zone and grows with zones whose
// centers overlap the seed's radius, as long as the group's mean density
// stays at or above the threshold. The edge weight is the group's summed
// density mass. Singleton groups produce no edge.
func BuildHypergraph(zones []fingerprint.Hotzone, opts HypergraphOptions) *fingerprint.Hypergraph {
	graph := &fingerprint.Hypergraph{Hotzones: zones}
	if opts.MaxEdgeSize < 2 || len(zones) < 2 {
		return graph
	}

	order := make([]int, len(zones))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return zones[order[a]].Density > zones[order[b]].Density
	})

	assigned := make([]bool, len(zones))
	for _, seed := range order {
		if assigned[seed] {
			continue
		}
		assigned[seed] = true

		nodes := []int{seed}
		mass := zones[seed].Density

		for _, candidate := range order {
			if assigned[candidate] || len(nodes) == opts.MaxEdgeSize {
				continue
			}

			reach := zones[seed].Radius + zones[candidate].Radius
			if floats.Distance(zones[seed].Center, zones[candidate].Center, 2) > reach {
				continue
			}
			if (mass+zones[candidate].Density)/float64(len(nodes)+1) < opts.DensityThreshold {
				continue
			}

			assigned[candidate] = true
			nodes = append(nodes, candidate)
			mass += zones[candidate].Density
		}

		if len(nodes) < 2 {
			continue
		}
		sort.Ints(nodes)
		graph.Edges = append(graph.Edges, fingerprint.Hyperedge{
			Nodes:  nodes,
			Weight: mass,
		})
	}

	return graph
}
