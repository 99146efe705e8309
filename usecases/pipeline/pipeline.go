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

// Package pipeline runs the per-block fingerprint computation:
// vectorize → fold → quantize → commit → hotzones → hypergraph. Each run
// is a pure function over the block and the configured codebook, so
// independent blocks can be processed in parallel by the caller.
package pipeline

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/foldprint/foldprint/entities/blocks"
	"github.com/foldprint/foldprint/entities/fingerprint"
	"github.com/foldprint/foldprint/usecases/commitments"
	"github.com/foldprint/foldprint/usecases/fold"
	"github.com/foldprint/foldprint/usecases/hotzones"
	"github.com/foldprint/foldprint/usecases/monitoring"
	"github.com/foldprint/foldprint/usecases/quantize"
	"github.com/foldprint/foldprint/usecases/vectorize"
)

type Options struct {
	Vectorizer vectorize.Config
	Fold       fold.Config
	Policy     quantize.ViolationPolicy
	Detector   hotzones.DetectorOptions
	Hypergraph hotzones.HypergraphOptions
}

type Pipeline struct {
	opts     Options
	codec    *quantize.Codec
	detector *hotzones.Detector
	metrics  *monitoring.Metrics
	logger   logrus.FieldLogger
}

func New(opts Options, codec *quantize.Codec, metrics *monitoring.Metrics, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		opts:     opts,
		codec:    codec,
		detector: hotzones.NewDetector(codec, logger),
		metrics:  metrics,
		logger:   logger,
	}
}

// Result is the full per-block output plus the hotzone samples destined
// for the atlas.
type Result struct {
	CodebookRoot string
	Commitments  *fingerprint.Commitments
	FoldedBlock  *fingerprint.FoldedBlock
	PQCode       *fingerprint.PQCode
	Hotzones     []fingerprint.Hotzone
	Hypergraph   *fingerprint.Hypergraph
	SemanticTags []string
	Samples      []fingerprint.HotzoneSample
}

// Process computes one block's fingerprint artifact.
func (p *Pipeline) Process(block *blocks.IngestedBlock) (*Result, error) {
	start := time.Now()

	set := vectorize.Vectorize(block, p.opts.Vectorizer)

	folded, err := fold.Fold(set, fold.BlockMeta{
		Height:    block.Header.Height,
		Timestamp: block.Header.Timestamp,
	}, p.opts.Fold)
	if err != nil {
		return nil, err
	}

	code, err := p.codec.Encode(folded, p.opts.Policy)
	if err != nil {
		return nil, err
	}
	p.metrics.AddEncoded(len(code.Indices), code.BoundViolations)

	comms, err := commitments.Compute(folded, code, p.codec.Codebook())
	if err != nil {
		return nil, err
	}

	zones, err := p.detector.Detect(code, p.opts.Detector)
	if err != nil {
		return nil, err
	}
	p.metrics.AddHotzones(len(zones))

	graph := hotzones.BuildHypergraph(zones, p.opts.Hypergraph)

	result := &Result{
		CodebookRoot: comms.CodebookRoot,
		Commitments:  comms,
		FoldedBlock:  folded,
		PQCode:       code,
		Hotzones:     zones,
		Hypergraph:   graph,
		SemanticTags: semanticTags(zones),
		Samples:      samples(block, zones),
	}

	p.metrics.BlockProcessed(start)
	p.logger.WithFields(logrus.Fields{
		"chain":    block.Chain,
		"height":   block.Header.Height,
		"records":  block.RecordCount(),
		"hotzones": len(zones),
		"took":     time.Since(start),
	}).Info("block processed")

	return result, nil
}

// semanticTags is the deduplicated, sorted union of all hotzone tags.
func semanticTags(zones []fingerprint.Hotzone) []string {
	seen := make(map[string]struct{})
	for _, zone := range zones {
		for _, tag := range zone.Tags {
			seen[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func samples(block *blocks.IngestedBlock, zones []fingerprint.Hotzone) []fingerprint.HotzoneSample {
	out := make([]fingerprint.HotzoneSample, 0, len(zones))
	for _, zone := range zones {
		out = append(out, fingerprint.HotzoneSample{
			Chain:     block.Chain,
			Height:    block.Header.Height,
			Timestamp: block.Header.Timestamp,
			Centroid:  zone.Center,
			Density:   zone.Density,
			Tags:      zone.Tags,
		})
	}
	return out
}
