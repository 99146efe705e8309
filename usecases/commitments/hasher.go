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

// Package commitments derives the tamper-evident digests over folded
// vectors, PQ indices and codebooks. Digests are sha256 over the JSON
// serialization, so any change to a value or to element order changes the
// digest. This is the sole correctness property the prover relies on.
package commitments

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/foldprint/foldprint/entities/fingerprint"
)

// Folded hashes the folded vectors of one block.
func Folded(vectors [][]float64) (string, error) {
	return digest(vectors)
}

// PQ hashes the per-vector subspace indices.
func PQ(indices [][]int) (string, error) {
	return digest(indices)
}

// codebookRootPayload fixes the field order of the codebook root
// preimage: centroids, normalization, error bound.
type codebookRootPayload struct {
	Centroids     [][][]float64              `json:"centroids"`
	Normalization *fingerprint.Normalization `json:"normalization"`
	ErrorBound    float64                    `json:"errorBound"`
}

// CodebookRoot hashes the codebook's centroids together with its
// normalization statistics and error bound. The root content-addresses
// the codebook across artifact round-trips.
func CodebookRoot(cb *fingerprint.Codebook) (string, error) {
	return digest(codebookRootPayload{
		Centroids:     cb.Centroids,
		Normalization: cb.Normalization,
		ErrorBound:    cb.ErrorBound,
	})
}

// Compute derives all three commitments for one block.
func Compute(fb *fingerprint.FoldedBlock, code *fingerprint.PQCode, cb *fingerprint.Codebook) (*fingerprint.Commitments, error) {
	folded, err := Folded(fb.Vectors)
	if err != nil {
		return nil, errors.Wrap(err, "folded commitment")
	}

	pq, err := PQ(code.Indices)
	if err != nil {
		return nil, errors.Wrap(err, "pq commitment")
	}

	root, err := CodebookRoot(cb)
	if err != nil {
		return nil, errors.Wrap(err, "codebook root")
	}

	return &fingerprint.Commitments{
		Folded:       folded,
		PQ:           pq,
		CodebookRoot: root,
	}, nil
}

func digest(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshal commitment preimage")
	}
	return fmt.Sprintf("%x", sha256.Sum256(b)), nil
}
