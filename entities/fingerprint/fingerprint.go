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

// Package fingerprint defines the data model shared by the folding,
// quantization, commitment and clustering stages.
package fingerprint

// FoldedBlock is the fixed-size reduction of one block. Vectors[0] is the
// component-wise mean over all canonical vectors, Vectors[1] the
// Bessel-corrected standard deviation and Vectors[2:] the basis-projected,
// L2-normalized components. Every vector has the configured fold dimension.
type FoldedBlock struct {
	Vectors     [][]float64 `json:"vectors"`
	Height      uint64      `json:"height"`
	RecordCount int         `json:"recordCount"`
	Timestamp   int64       `json:"timestamp"`
}

// Normalization carries per-dimension corpus statistics. They are codebook
// metadata for downstream scoring, not applied inside the codec.
type Normalization struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Codebook holds NumSubspaces independent centroid sets for product
// quantization. Centroids is indexed [subspace][centroid][dim]; every
// centroid has SubvectorDim dimensions, so the fold dimension it serves is
// NumSubspaces*SubvectorDim.
type Codebook struct {
	NumSubspaces  int            `json:"numSubspaces"`
	SubvectorDim  int            `json:"subvectorDim"`
	NumCentroids  int            `json:"numCentroids"`
	Centroids     [][][]float64  `json:"centroids"`
	Normalization *Normalization `json:"normalization,omitempty"`
	ErrorBound    float64        `json:"errorBound,omitempty"`
}

// Dim is the fold dimension this codebook quantizes.
func (c *Codebook) Dim() int {
	return c.NumSubspaces * c.SubvectorDim
}

// PQCode is the quantized form of a FoldedBlock: one centroid index per
// subspace per folded vector. Errors holds the per-vector reconstruction
// residuals; BoundViolations counts residuals above the codebook's bound
// that were let through under the lenient policy.
type PQCode struct {
	Indices         [][]int   `json:"indices"`
	Errors          []float64 `json:"errors,omitempty"`
	BoundViolations int       `json:"boundViolations,omitempty"`
}

// Commitments binds the folded vectors, the PQ indices and the codebook.
// Digests are lowercase hex; each is computed independently.
type Commitments struct {
	Folded       string `json:"foldedCommitment"`
	PQ           string `json:"pqCommitment"`
	CodebookRoot string `json:"codebookRoot"`
}

// Hotzone is a locally dense cluster of decoded vectors within one block.
// Recomputed per block, never persisted beyond the block's artifact.
type Hotzone struct {
	ID      string    `json:"id"`
	Center  []float64 `json:"center"`
	Density float64   `json:"density"`
	Radius  float64   `json:"radius"`
	Tags    []string  `json:"tags"`
}

// Hyperedge links hotzones of one block by index.
type Hyperedge struct {
	Nodes  []int   `json:"nodes"`
	Weight float64 `json:"weight"`
}

type Hypergraph struct {
	Hotzones []Hotzone   `json:"hotzones"`
	Edges    []Hyperedge `json:"edges"`
}

// HotzoneSample is one hotzone observation fed into the atlas.
type HotzoneSample struct {
	Chain     string    `json:"chain"`
	Height    uint64    `json:"height"`
	Timestamp int64     `json:"timestamp"`
	Centroid  []float64 `json:"centroid"`
	Density   float64   `json:"density"`
	Tags      []string  `json:"tags"`
}

// AtlasCluster is a persistent behavioral cluster. It only ever grows:
// samples are admitted, never reassigned, and clusters are never deleted.
type AtlasCluster struct {
	ID         string         `json:"id"`
	Centroid   []float64      `json:"centroid"`
	Count      int            `json:"count"`
	DensitySum float64        `json:"densitySum"`
	Chains     map[string]int `json:"chains"`
	TagCounts  map[string]int `json:"tagCounts"`
	FirstSeen  int64          `json:"firstSeen"`
	LastSeen   int64          `json:"lastSeen"`
	Buckets    map[int64]int  `json:"buckets"`
}

// AvgDensity is the running mean density of admitted samples.
func (c *AtlasCluster) AvgDensity() float64 {
	if c.Count == 0 {
		return 0
	}
	return c.DensitySum / float64(c.Count)
}

// AtlasEdge weights how many blocks two clusters co-occurred in.
type AtlasEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

type AtlasGraph struct {
	Nodes []AtlasCluster `json:"nodes"`
	Edges []AtlasEdge    `json:"edges"`
}
