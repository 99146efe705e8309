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
	"math/rand"

	"github.com/foldprint/foldprint/entities/fingerprint"
)

// Deterministic generates an untrained codebook from a string seed. The
// same seed produces bit-identical centroids, which makes fingerprints
// reproducible before any training corpus exists. Values are sampled
// uniformly from [-scale, scale].
func Deterministic(numSubspaces, subvectorDim, numCentroids int, seed string, scale float64) *fingerprint.Codebook {
	rng := rand.New(rand.NewSource(int64(fingerprint.StableHash(seed))))

	centroids := make([][][]float64, numSubspaces)
	for s := range centroids {
		centroids[s] = make([][]float64, numCentroids)
		for c := range centroids[s] {
			centroid := make([]float64, subvectorDim)
			for d := range centroid {
				centroid[d] = scale * (2*rng.Float64() - 1)
			}
			centroids[s][c] = centroid
		}
	}

	return &fingerprint.Codebook{
		NumSubspaces: numSubspaces,
		SubvectorDim: subvectorDim,
		NumCentroids: numCentroids,
		Centroids:    centroids,
	}
}
