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

// Package artifacts persists the engine's JSON artifacts: the versioned
// codebook, per-block summaries and the atlas graph. The codebook
// artifact round-trips exactly; loading recomputes the root and rejects a
// mismatch as tampering.
package artifacts

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/foldprint/foldprint/entities/fingerprint"
	"github.com/foldprint/foldprint/usecases/commitments"
	"github.com/foldprint/foldprint/usecases/fold"
)

const codebookVersion = 1

// CodebookParameters records how the codebook was produced.
type CodebookParameters struct {
	NumSubspaces int     `json:"numSubspaces"`
	SubvectorDim int     `json:"subvectorDim"`
	NumCentroids int     `json:"numCentroids"`
	Seed         string  `json:"seed"`
	Scale        float64 `json:"scale"`
}

type CodebookArtifact struct {
	Version      int                  `json:"version"`
	CodebookRoot string               `json:"codebookRoot"`
	Parameters   CodebookParameters   `json:"parameters"`
	Codebook     fingerprint.Codebook `json:"codebook"`
}

// SaveCodebook writes the artifact with a freshly computed root.
func SaveCodebook(path string, cb *fingerprint.Codebook, params CodebookParameters) (*CodebookArtifact, error) {
	root, err := commitments.CodebookRoot(cb)
	if err != nil {
		return nil, err
	}

	artifact := &CodebookArtifact{
		Version:      codebookVersion,
		CodebookRoot: root,
		Parameters:   params,
		Codebook:     *cb,
	}
	if err := writeJSON(path, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

// LoadCodebook reads and verifies a codebook artifact. A root mismatch
// means the artifact was modified after it was written.
func LoadCodebook(path string) (*CodebookArtifact, error) {
	var artifact CodebookArtifact
	if err := readJSON(path, &artifact); err != nil {
		return nil, err
	}

	root, err := commitments.CodebookRoot(&artifact.Codebook)
	if err != nil {
		return nil, err
	}
	if root != artifact.CodebookRoot {
		return nil, errors.Errorf("codebook artifact root mismatch: stored %s, computed %s",
			artifact.CodebookRoot, root)
	}

	return &artifact, nil
}

// BlockSummary is the per-block output consumed by the dashboard and
// query API.
type BlockSummary struct {
	CodebookRoot string                   `json:"codebookRoot"`
	Commitments  *fingerprint.Commitments `json:"commitments"`
	FoldedBlock  *fingerprint.FoldedBlock `json:"foldedBlock"`
	PQCode       *fingerprint.PQCode      `json:"pqCode"`
	Hotzones     []fingerprint.Hotzone    `json:"hotzones"`
	Hypergraph   *fingerprint.Hypergraph  `json:"hypergraph"`
	SemanticTags []string                 `json:"semanticTags"`
	PublicInputs interface{}              `json:"publicInputs,omitempty"`
	ProofHex     string                   `json:"proofHex,omitempty"`
}

func SaveSummary(path string, summary *BlockSummary) error {
	return writeJSON(path, summary)
}

func LoadSummary(path string) (*BlockSummary, error) {
	var summary BlockSummary
	if err := readJSON(path, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SaveAtlas writes the full atlas graph. The graph is rebuilt from the
// sample history on every run, so this always replaces the previous file.
func SaveAtlas(path string, graph *fingerprint.AtlasGraph) error {
	return writeJSON(path, graph)
}

// LoadComponentMatrix reads caller-supplied basis rows ([][]float64 JSON)
// for the folder.
func LoadComponentMatrix(path string) (*fold.ComponentMatrix, error) {
	var rows [][]float64
	if err := readJSON(path, &rows); err != nil {
		return nil, err
	}
	return fold.NewComponentMatrix(rows)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}
