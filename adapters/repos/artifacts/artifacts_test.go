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

package artifacts_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldprint/foldprint/adapters/repos/artifacts"
	"github.com/foldprint/foldprint/entities/fingerprint"
	"github.com/foldprint/foldprint/usecases/quantize"
)

func TestCodebookArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebook.json")
	cb := quantize.Deterministic(2, 2, 4, "artifact-test", 1.0)
	cb.ErrorBound = 0.42

	saved, err := artifacts.SaveCodebook(path, cb, artifacts.CodebookParameters{
		NumSubspaces: 2,
		SubvectorDim: 2,
		NumCentroids: 4,
		Seed:         "artifact-test",
		Scale:        1.0,
	})
	require.Nil(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.NotEmpty(t, saved.CodebookRoot)

	loaded, err := artifacts.LoadCodebook(path)
	require.Nil(t, err)

	assert.Equal(t, saved.CodebookRoot, loaded.CodebookRoot)
	assert.Equal(t, cb.Centroids, loaded.Codebook.Centroids)
	assert.Equal(t, cb.ErrorBound, loaded.Codebook.ErrorBound)
	assert.Equal(t, "artifact-test", loaded.Parameters.Seed)
}

func TestLoadCodebookDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebook.json")
	cb := quantize.Deterministic(2, 2, 4, "tamper-test", 1.0)

	_, err := artifacts.SaveCodebook(path, cb, artifacts.CodebookParameters{})
	require.Nil(t, err)

	data, err := os.ReadFile(path)
	require.Nil(t, err)

	var artifact artifacts.CodebookArtifact
	require.Nil(t, json.Unmarshal(data, &artifact))
	artifact.Codebook.Centroids[0][0][0] += 0.001
	tampered, err := json.Marshal(artifact)
	require.Nil(t, err)
	require.Nil(t, os.WriteFile(path, tampered, 0o644))

	_, err = artifacts.LoadCodebook(path)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "root mismatch")
}

func TestLoadCodebookMissingFile(t *testing.T) {
	_, err := artifacts.LoadCodebook(filepath.Join(t.TempDir(), "nope.json"))
	assert.NotNil(t, err)
}

func TestSummaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")

	summary := &artifacts.BlockSummary{
		CodebookRoot: "abc",
		Commitments: &fingerprint.Commitments{
			Folded: "f", PQ: "p", CodebookRoot: "abc",
		},
		FoldedBlock: &fingerprint.FoldedBlock{
			Vectors:     [][]float64{{0.1, 0.2}},
			Height:      42,
			RecordCount: 1,
		},
		PQCode:       &fingerprint.PQCode{Indices: [][]int{{1, 2}}},
		SemanticTags: []string{"high value", "mixed"},
		ProofHex:     "deadbeef",
	}
	require.Nil(t, artifacts.SaveSummary(path, summary))

	loaded, err := artifacts.LoadSummary(path)
	require.Nil(t, err)
	assert.Equal(t, summary.Commitments, loaded.Commitments)
	assert.Equal(t, summary.FoldedBlock.Vectors, loaded.FoldedBlock.Vectors)
	assert.Equal(t, summary.SemanticTags, loaded.SemanticTags)
	assert.Equal(t, "deadbeef", loaded.ProofHex)
}

func TestLoadComponentMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.json")
	require.Nil(t, os.WriteFile(path, []byte(`[[1, 0, 0], [0, 1, 0]]`), 0o644))

	m, err := artifacts.LoadComponentMatrix(path)
	require.Nil(t, err)
	assert.Equal(t, 2, m.Components())
	assert.Equal(t, 3, m.Dim())

	// ragged rows are rejected by the matrix constructor
	require.Nil(t, os.WriteFile(path, []byte(`[[1, 0], [0, 1, 0]]`), 0o644))
	_, err = artifacts.LoadComponentMatrix(path)
	assert.NotNil(t, err)
}
