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

// Package atlas maintains the cross-time graph of recurring hotzone
// clusters. Clustering is online and single-pass: a sample joins the most
// similar existing cluster or founds a new one, and is never reassigned.
// Cluster identity is stable once created and clusters are never deleted.
package atlas

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/foldprint/foldprint/entities/fingerprint"
	"github.com/foldprint/foldprint/usecases/distancer"
)

type BuilderOptions struct {
	// SliceSeconds is the width of the occurrence time buckets.
	SliceSeconds int64
	// SimilarityThreshold gates admission by cosine similarity.
	SimilarityThreshold float64
	// DensityRatio gates admission by min/max density agreement between
	// the sample and the cluster's running average.
	DensityRatio float64
}

// DefaultOptions returns the admission gates the rest of the system is
// calibrated against.
func DefaultOptions() BuilderOptions {
	return BuilderOptions{
		SliceSeconds:        3600,
		SimilarityThreshold: 0.92,
		DensityRatio:        0.5,
	}
}

// Builder accumulates hotzone samples into persistent clusters. It is
// strictly sequential: admission mutates cluster state that the next
// lookup reads, so samples must be fed one at a time in stream order.
type Builder struct {
	opts     BuilderOptions
	clusters []*fingerprint.AtlasCluster
	// blockMembers tracks, per source block, the set of cluster IDs its
	// samples joined; co-occurrence edges are derived from it.
	blockMembers map[string]map[string]struct{}
	logger       logrus.FieldLogger
}

func NewBuilder(opts BuilderOptions, logger logrus.FieldLogger) *Builder {
	return &Builder{
		opts:         opts,
		blockMembers: make(map[string]map[string]struct{}),
		logger:       logger,
	}
}

// Add admits one sample and returns the ID of the cluster it joined.
func (b *Builder) Add(sample fingerprint.HotzoneSample) string {
	cluster := b.match(sample)
	if cluster == nil {
		cluster = b.newCluster(sample)
	} else {
		b.admit(cluster, sample)
	}

	blockKey := fmt.Sprintf("%s/%d", sample.Chain, sample.Height)
	members, ok := b.blockMembers[blockKey]
	if !ok {
		members = make(map[string]struct{})
		b.blockMembers[blockKey] = members
	}
	members[cluster.ID] = struct{}{}

	return cluster.ID
}

// match returns the most similar cluster passing both admission gates, or
// nil if the sample must found a new cluster.
func (b *Builder) match(sample fingerprint.HotzoneSample) *fingerprint.AtlasCluster {
	var best *fingerprint.AtlasCluster
	bestSim := -1.0

	for _, cluster := range b.clusters {
		sim, err := distancer.CosineSimilarity(
			padded(sample.Centroid, len(cluster.Centroid)), cluster.Centroid)
		if err != nil {
			continue
		}
		if sim > bestSim {
			bestSim = sim
			best = cluster
		}
	}

	if best == nil || bestSim < b.opts.SimilarityThreshold {
		return nil
	}
	if densityRatio(best.AvgDensity(), sample.Density) < b.opts.DensityRatio {
		return nil
	}
	return best
}

// padded zero-extends or truncates v to n elements. Samples shorter than
// the cluster centroid compare as if their missing components were zero.
func padded(v []float64, n int) []float64 {
	if len(v) == n {
		return v
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}

func densityRatio(a, b float64) float64 {
	max := a
	if b > max {
		max = b
	}
	if max == 0 {
		return 1
	}
	min := a
	if b < min {
		min = b
	}
	return min / max
}

func (b *Builder) newCluster(sample fingerprint.HotzoneSample) *fingerprint.AtlasCluster {
	centroid := make([]float64, len(sample.Centroid))
	copy(centroid, sample.Centroid)

	cluster := &fingerprint.AtlasCluster{
		ID:         uuid.New().String(),
		Centroid:   centroid,
		Count:      1,
		DensitySum: sample.Density,
		Chains:     map[string]int{sample.Chain: 1},
		TagCounts:  make(map[string]int),
		FirstSeen:  sample.Timestamp,
		LastSeen:   sample.Timestamp,
		Buckets:    make(map[int64]int),
	}
	for _, tag := range sample.Tags {
		cluster.TagCounts[tag]++
	}
	cluster.Buckets[b.bucket(sample.Timestamp)]++

	b.clusters = append(b.clusters, cluster)
	return cluster
}

// admit folds the sample into the cluster with an incremental mean update
// on the centroid.
func (b *Builder) admit(cluster *fingerprint.AtlasCluster, sample fingerprint.HotzoneSample) {
	cluster.Count++
	for i := range cluster.Centroid {
		x := 0.0
		if i < len(sample.Centroid) {
			x = sample.Centroid[i]
		}
		cluster.Centroid[i] += (x - cluster.Centroid[i]) / float64(cluster.Count)
	}

	cluster.DensitySum += sample.Density
	cluster.Chains[sample.Chain]++
	for _, tag := range sample.Tags {
		cluster.TagCounts[tag]++
	}
	if sample.Timestamp < cluster.FirstSeen {
		cluster.FirstSeen = sample.Timestamp
	}
	if sample.Timestamp > cluster.LastSeen {
		cluster.LastSeen = sample.Timestamp
	}
	cluster.Buckets[b.bucket(sample.Timestamp)]++
}

func (b *Builder) bucket(timestamp int64) int64 {
	if b.opts.SliceSeconds <= 0 {
		return timestamp
	}
	return (timestamp / b.opts.SliceSeconds) * b.opts.SliceSeconds
}

// Clusters returns the live cluster set in creation order.
func (b *Builder) Clusters() []*fingerprint.AtlasCluster {
	return b.clusters
}

// Graph materializes the atlas: all clusters as nodes plus co-occurrence
// edges weighted by the number of blocks two clusters share.
func (b *Builder) Graph() *fingerprint.AtlasGraph {
	graph := &fingerprint.AtlasGraph{
		Nodes: make([]fingerprint.AtlasCluster, 0, len(b.clusters)),
	}
	for _, cluster := range b.clusters {
		graph.Nodes = append(graph.Nodes, *cluster)
	}

	weights := make(map[[2]string]int)
	for _, members := range b.blockMembers {
		ids := make([]string, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				weights[[2]string{ids[i], ids[j]}]++
			}
		}
	}

	for pair, weight := range weights {
		graph.Edges = append(graph.Edges, fingerprint.AtlasEdge{
			Source: pair[0],
			Target: pair[1],
			Weight: weight,
		})
	}
	sort.Slice(graph.Edges, func(i, j int) bool {
		if graph.Edges[i].Source != graph.Edges[j].Source {
			return graph.Edges[i].Source < graph.Edges[j].Source
		}
		return graph.Edges[i].Target < graph.Edges[j].Target
	})

	b.logger.WithFields(logrus.Fields{
		"clusters": len(graph.Nodes),
		"edges":    len(graph.Edges),
	}).Debug("atlas graph materialized")

	return graph
}
