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

// Package hotzones finds locally dense clusters among the decoded
// fingerprint vectors of a single block and links them into a weighted
// hypergraph. Hotzones are ephemeral: recomputed per block, never stored.
package hotzones

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/foldprint/foldprint/entities/fingerprint"
	"github.com/foldprint/foldprint/usecases/quantize"
)

type DetectorOptions struct {
	// Bandwidth is the Gaussian KDE kernel width.
	Bandwidth float64
	// Threshold is the minimum density for a vector to become a hotzone.
	Threshold float64
	// MaxZones caps the output, keeping the densest zones.
	MaxZones int
	// ContextTags are externally derived signal tags; up to three that
	// match the known vocabulary are appended to every zone.
	ContextTags []string
}

func (o DetectorOptions) validate() error {
	if o.Bandwidth <= 0 {
		return errors.Errorf("hotzones: bandwidth must be positive, got %f", o.Bandwidth)
	}
	if o.MaxZones <= 0 {
		return errors.Errorf("hotzones: maxZones must be positive, got %d", o.MaxZones)
	}
	return nil
}

// Detector runs kernel density estimation over the PQ-decoded vectors of
// one block.
type Detector struct {
	codec  *quantize.Codec
	logger logrus.FieldLogger
}

func NewDetector(codec *quantize.Codec, logger logrus.FieldLogger) *Detector {
	return &Detector{codec: codec, logger: logger}
}

// Detect decodes the block's PQ code and returns the densest vectors as
// hotzones, sorted by descending density and capped at MaxZones. Every
// returned zone has density >= Threshold.
func (d *Detector) Detect(code *fingerprint.PQCode, opts DetectorOptions) ([]fingerprint.Hotzone, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	decoded := d.codec.Decode(code)
	if len(decoded) == 0 {
		return nil, nil
	}

	densities := kernelDensities(decoded, opts.Bandwidth)

	order := make([]int, 0, len(decoded))
	for i, density := range densities {
		if density >= opts.Threshold {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return densities[order[a]] > densities[order[b]]
	})
	if len(order) > opts.MaxZones {
		order = order[:opts.MaxZones]
	}

	zones := make([]fingerprint.Hotzone, 0, len(order))
	for _, i := range order {
		zones = append(zones, fingerprint.Hotzone{
			ID:      uuid.New().String(),
			Center:  decoded[i],
			Density: densities[i],
			Radius:  2 * opts.Bandwidth,
			Tags:    assignTags(decoded[i], opts.ContextTags),
		})
	}

	d.logger.WithFields(logrus.Fields{
		"vectors": len(decoded),
		"zones":   len(zones),
	}).Debug("hotzone detection complete")

	return zones, nil
}

// kernelDensities evaluates the Gaussian KDE of every vector against all
// vectors of the same block:
//
//	density(v) = 1/(n*(sqrt(2*pi)*b)^d) * sum_u exp(-0.5*(|v-u|/b)^2)
func kernelDensities(vectors [][]float64, bandwidth float64) []float64 {
	n := len(vectors)
	d := len(vectors[0])
	norm := 1 / (float64(n) * math.Pow(math.Sqrt(2*math.Pi)*bandwidth, float64(d)))

	densities := make([]float64, n)
	for i, v := range vectors {
		var sum float64
		for _, u := range vectors {
			dist := floats.Distance(v, u, 2)
			z := dist / bandwidth
			sum += math.Exp(-0.5 * z * z)
		}
		densities[i] = norm * sum
	}
	return densities
}
