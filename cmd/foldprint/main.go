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

package main

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/foldprint/foldprint/adapters/clients/prover"
	"github.com/foldprint/foldprint/adapters/repos/artifacts"
	"github.com/foldprint/foldprint/adapters/repos/corpus"
	"github.com/foldprint/foldprint/adapters/repos/samples"
	"github.com/foldprint/foldprint/entities/blocks"
	"github.com/foldprint/foldprint/usecases/atlas"
	"github.com/foldprint/foldprint/usecases/config"
	"github.com/foldprint/foldprint/usecases/fold"
	"github.com/foldprint/foldprint/usecases/hotzones"
	"github.com/foldprint/foldprint/usecases/monitoring"
	"github.com/foldprint/foldprint/usecases/pipeline"
	"github.com/foldprint/foldprint/usecases/quantize"
)

type globalOptions struct {
	Config   string `long:"config" description:"YAML config file; defaults apply when omitted"`
	LogLevel string `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warning" choice:"error"`
}

var (
	opts globalOptions
	log  = logrus.New()
)

func main() {
	parser := flags.NewParser(&opts, flags.Default)

	_, _ = parser.AddCommand("train",
		"train a codebook",
		"Train a PQ codebook from a newline-delimited corpus of folded vectors.",
		&trainCommand{})
	_, _ = parser.AddCommand("process",
		"process one block",
		"Compute the fingerprint summary artifact for one ingested block.",
		&processCommand{})
	_, _ = parser.AddCommand("atlas",
		"rebuild the atlas",
		"Rebuild the atlas graph from the persisted hotzone sample history.",
		&atlasCommand{})

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}

func setup() (config.Config, error) {
	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})

	if opts.Config == "" {
		return config.Default(), nil
	}
	return config.Load(opts.Config)
}

type trainCommand struct {
	Corpus string `long:"corpus" required:"true" description:"newline-delimited training corpus"`
	Out    string `long:"out" required:"true" description:"codebook artifact destination"`
}

func (c *trainCommand) Execute(_ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	reader := corpus.NewReader(c.Corpus, log)
	vectors, err := reader.Load(cfg.Fold.Dim)
	if err != nil {
		return err
	}

	trainer, err := quantize.NewTrainer(quantize.TrainerConfig{
		NumSubspaces: cfg.Quantizer.NumSubspaces,
		SubvectorDim: cfg.Quantizer.SubvectorDim,
		NumCentroids: cfg.Quantizer.NumCentroids,
		Iterations:   cfg.Quantizer.Iterations,
		Seed:         cfg.Quantizer.Seed,
		Scale:        cfg.Quantizer.Scale,
	}, log)
	if err != nil {
		return err
	}

	cb, err := trainer.Train(vectors)
	if err != nil {
		return err
	}

	artifact, err := artifacts.SaveCodebook(c.Out, cb, artifacts.CodebookParameters{
		NumSubspaces: cfg.Quantizer.NumSubspaces,
		SubvectorDim: cfg.Quantizer.SubvectorDim,
		NumCentroids: cfg.Quantizer.NumCentroids,
		Seed:         cfg.Quantizer.Seed,
		Scale:        cfg.Quantizer.Scale,
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"codebookRoot": artifact.CodebookRoot,
		"out":          c.Out,
	}).Info("codebook artifact written")
	return nil
}

type processCommand struct {
	Block       string   `long:"block" required:"true" description:"ingested block JSON"`
	Codebook    string   `long:"codebook" required:"true" description:"codebook artifact"`
	Out         string   `long:"out" required:"true" description:"block summary destination"`
	Samples     string   `long:"samples" description:"bbolt sample store to append hotzone samples to"`
	Chain       string   `long:"chain" description:"overrides the block's chain identifier"`
	ContextTags []string `long:"context-tag" description:"external signal tags for hotzone labeling"`
	Prove       bool     `long:"prove" description:"invoke the external prover and embed the proof"`
}

func (c *processCommand) Execute(_ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(c.Block)
	if err != nil {
		return err
	}
	block, err := blocks.Decode(raw)
	if err != nil {
		return err
	}
	if c.Chain != "" {
		block.Chain = c.Chain
	}

	artifact, err := artifacts.LoadCodebook(c.Codebook)
	if err != nil {
		return err
	}
	codec, err := quantize.NewCodec(&artifact.Codebook, log)
	if err != nil {
		return err
	}

	foldCfg := fold.Config{
		Dim:        cfg.Fold.Dim,
		Components: cfg.Fold.Components,
		Epsilon:    cfg.Fold.Epsilon,
	}
	if cfg.Fold.MatrixPath != "" {
		if foldCfg.Matrix, err = artifacts.LoadComponentMatrix(cfg.Fold.MatrixPath); err != nil {
			return err
		}
	}

	policy := quantize.PolicyLenient
	if cfg.Quantizer.Strict {
		policy = quantize.PolicyStrict
	}

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	run := pipeline.New(pipeline.Options{
		Vectorizer: cfg.Vectorizer,
		Fold:       foldCfg,
		Policy:     policy,
		Detector: hotzones.DetectorOptions{
			Bandwidth:   cfg.Hotzones.Bandwidth,
			Threshold:   cfg.Hotzones.Threshold,
			MaxZones:    cfg.Hotzones.MaxZones,
			ContextTags: c.ContextTags,
		},
		Hypergraph: hotzones.HypergraphOptions{
			DensityThreshold: cfg.Hotzones.DensityThreshold,
			MaxEdgeSize:      cfg.Hotzones.MaxEdgeSize,
		},
	}, codec, metrics, log)

	result, err := run.Process(block)
	if err != nil {
		return err
	}

	summary := &artifacts.BlockSummary{
		CodebookRoot: result.CodebookRoot,
		Commitments:  result.Commitments,
		FoldedBlock:  result.FoldedBlock,
		PQCode:       result.PQCode,
		Hotzones:     result.Hotzones,
		Hypergraph:   result.Hypergraph,
		SemanticTags: result.SemanticTags,
	}

	if c.Prove {
		inputs := &prover.PublicInputs{
			PrevStateRoot:    block.Header.PrevStateRoot,
			NewStateRoot:     block.Header.NewStateRoot,
			BlockHeight:      block.Header.Height,
			TxMerkleRoot:     block.Header.TxMerkleRoot,
			FoldedCommitment: result.Commitments.Folded,
			PQCommitment:     result.Commitments.PQ,
			CodebookRoot:     result.Commitments.CodebookRoot,
		}
		client, err := prover.NewClient(prover.Config{
			Binary:          cfg.Prover.Binary,
			ProvingKey:      cfg.Prover.ProvingKey,
			VerificationKey: cfg.Prover.VerificationKey,
			CircuitK:        cfg.Prover.CircuitK,
			Timeout:         time.Duration(cfg.Prover.TimeoutSeconds) * time.Second,
		}, log)
		if err != nil {
			return err
		}

		start := time.Now()
		proofHex, err := client.Prove(context.Background(), &prover.Witness{
			FoldedVectors: result.FoldedBlock.Vectors,
			PQVectors:     codec.Decode(result.PQCode),
		}, inputs)
		metrics.ProverFinished(start)
		if err != nil {
			return err
		}
		summary.PublicInputs = inputs
		summary.ProofHex = proofHex
	}

	if err := artifacts.SaveSummary(c.Out, summary); err != nil {
		return err
	}

	if c.Samples != "" {
		store, err := samples.Open(c.Samples)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Append(result.Samples); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"height": block.Header.Height,
		"out":    c.Out,
	}).Info("block summary written")
	return nil
}

type atlasCommand struct {
	Samples string `long:"samples" required:"true" description:"bbolt sample store"`
	Out     string `long:"out" required:"true" description:"atlas graph destination"`
}

func (c *atlasCommand) Execute(_ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	store, err := samples.Open(c.Samples)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	history, err := store.All()
	if err != nil {
		return err
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp < history[j].Timestamp
	})

	builder := atlas.NewBuilder(atlas.BuilderOptions{
		SliceSeconds:        cfg.Atlas.SliceSeconds,
		SimilarityThreshold: cfg.Atlas.SimilarityThreshold,
		DensityRatio:        cfg.Atlas.DensityRatio,
	}, log)
	for _, sample := range history {
		builder.Add(sample)
	}

	graph := builder.Graph()
	metrics.SetAtlasClusters(len(graph.Nodes))
	if err := artifacts.SaveAtlas(c.Out, graph); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"samples":  len(history),
		"clusters": len(graph.Nodes),
		"out":      c.Out,
	}).Info("atlas graph written")
	return nil
}
