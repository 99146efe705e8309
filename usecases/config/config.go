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

// Package config loads and validates the engine configuration. Invalid
// configuration is always fatal and reported in full, never retried.
package config

import (
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/foldprint/foldprint/usecases/vectorize"
)

type Fold struct {
	Dim        int     `yaml:"dim" json:"dim"`
	Components int     `yaml:"components" json:"components"`
	Epsilon    float64 `yaml:"epsilon" json:"epsilon"`
	// MatrixPath optionally points to a JSON file holding the K×D basis
	// rows; when empty the deterministic DCT basis is generated.
	MatrixPath string `yaml:"matrixPath" json:"matrixPath"`
}

type Quantizer struct {
	NumSubspaces int     `yaml:"numSubspaces" json:"numSubspaces"`
	SubvectorDim int     `yaml:"subvectorDim" json:"subvectorDim"`
	NumCentroids int     `yaml:"numCentroids" json:"numCentroids"`
	Iterations   int     `yaml:"iterations" json:"iterations"`
	Seed         string  `yaml:"seed" json:"seed"`
	Scale        float64 `yaml:"scale" json:"scale"`
	// Strict selects the fatal error-bound policy; it must be set
	// deliberately, the pipeline refuses an unset policy.
	Strict bool `yaml:"strict" json:"strict"`
}

type Hotzones struct {
	Bandwidth        float64 `yaml:"bandwidth" json:"bandwidth"`
	Threshold        float64 `yaml:"threshold" json:"threshold"`
	MaxZones         int     `yaml:"maxZones" json:"maxZones"`
	DensityThreshold float64 `yaml:"densityThreshold" json:"densityThreshold"`
	MaxEdgeSize      int     `yaml:"maxEdgeSize" json:"maxEdgeSize"`
}

type Atlas struct {
	SliceSeconds        int64   `yaml:"sliceSeconds" json:"sliceSeconds"`
	SimilarityThreshold float64 `yaml:"similarityThreshold" json:"similarityThreshold"`
	DensityRatio        float64 `yaml:"densityRatio" json:"densityRatio"`
}

type Prover struct {
	Binary          string `yaml:"binary" json:"binary"`
	ProvingKey      string `yaml:"provingKey" json:"provingKey"`
	VerificationKey string `yaml:"verificationKey" json:"verificationKey"`
	CircuitK        int    `yaml:"circuitK" json:"circuitK"`
	TimeoutSeconds  int    `yaml:"timeoutSeconds" json:"timeoutSeconds"`
}

type Config struct {
	Vectorizer vectorize.Config `yaml:"vectorizer" json:"vectorizer"`
	Fold       Fold             `yaml:"fold" json:"fold"`
	Quantizer  Quantizer        `yaml:"quantizer" json:"quantizer"`
	Hotzones   Hotzones         `yaml:"hotzones" json:"hotzones"`
	Atlas      Atlas            `yaml:"atlas" json:"atlas"`
	Prover     Prover           `yaml:"prover" json:"prover"`
}

// Default is the configuration the scenario tests and artifacts are
// calibrated against.
func Default() Config {
	return Config{
		Vectorizer: vectorize.DefaultConfig(),
		Fold: Fold{
			Dim:        16,
			Components: 4,
			Epsilon:    1e-10,
		},
		Quantizer: Quantizer{
			NumSubspaces: 4,
			SubvectorDim: 4,
			NumCentroids: 32,
			Iterations:   10,
			Seed:         "foldprint-v1",
			Scale:        1.0,
			Strict:       false,
		},
		Hotzones: Hotzones{
			Bandwidth:        0.35,
			Threshold:        1e-6,
			MaxZones:         8,
			DensityThreshold: 1e-6,
			MaxEdgeSize:      4,
		},
		Atlas: Atlas{
			SliceSeconds:        3600,
			SimilarityThreshold: 0.92,
			DensityRatio:        0.5,
		},
		Prover: Prover{
			CircuitK:       12,
			TimeoutSeconds: 300,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate aggregates every configuration defect instead of stopping at
// the first.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.Fold.Dim <= 0 {
		result = multierror.Append(result, errors.Errorf("fold.dim must be positive, got %d", c.Fold.Dim))
	}
	if c.Fold.Components <= 0 {
		result = multierror.Append(result, errors.Errorf("fold.components must be positive, got %d", c.Fold.Components))
	}
	if c.Fold.Epsilon <= 0 {
		result = multierror.Append(result, errors.Errorf("fold.epsilon must be positive, got %g", c.Fold.Epsilon))
	}
	if c.Quantizer.NumSubspaces <= 0 || c.Quantizer.SubvectorDim <= 0 {
		result = multierror.Append(result, errors.Errorf("quantizer shape %d/%d must be positive",
			c.Quantizer.NumSubspaces, c.Quantizer.SubvectorDim))
	} else if c.Fold.Dim != c.Quantizer.NumSubspaces*c.Quantizer.SubvectorDim {
		result = multierror.Append(result, errors.Errorf(
			"fold.dim %d must equal numSubspaces*subvectorDim = %d",
			c.Fold.Dim, c.Quantizer.NumSubspaces*c.Quantizer.SubvectorDim))
	}
	if c.Quantizer.NumCentroids <= 0 {
		result = multierror.Append(result, errors.Errorf("quantizer.numCentroids must be positive, got %d", c.Quantizer.NumCentroids))
	}
	if c.Quantizer.Iterations <= 0 {
		result = multierror.Append(result, errors.Errorf("quantizer.iterations must be positive, got %d", c.Quantizer.Iterations))
	}
	if c.Hotzones.Bandwidth <= 0 {
		result = multierror.Append(result, errors.Errorf("hotzones.bandwidth must be positive, got %g", c.Hotzones.Bandwidth))
	}
	if c.Hotzones.MaxZones <= 0 {
		result = multierror.Append(result, errors.Errorf("hotzones.maxZones must be positive, got %d", c.Hotzones.MaxZones))
	}
	if c.Hotzones.MaxEdgeSize < 2 {
		result = multierror.Append(result, errors.Errorf("hotzones.maxEdgeSize must be at least 2, got %d", c.Hotzones.MaxEdgeSize))
	}
	if c.Atlas.SliceSeconds <= 0 {
		result = multierror.Append(result, errors.Errorf("atlas.sliceSeconds must be positive, got %d", c.Atlas.SliceSeconds))
	}
	if c.Atlas.SimilarityThreshold <= 0 || c.Atlas.SimilarityThreshold > 1 {
		result = multierror.Append(result, errors.Errorf("atlas.similarityThreshold must be in (0,1], got %g", c.Atlas.SimilarityThreshold))
	}
	if c.Atlas.DensityRatio <= 0 || c.Atlas.DensityRatio > 1 {
		result = multierror.Append(result, errors.Errorf("atlas.densityRatio must be in (0,1], got %g", c.Atlas.DensityRatio))
	}

	return result.ErrorOrNil()
}
