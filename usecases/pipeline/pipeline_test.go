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

package pipeline_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldprint/foldprint/entities/blocks"
	"github.com/foldprint/foldprint/usecases/fold"
	"github.com/foldprint/foldprint/usecases/hotzones"
	"github.com/foldprint/foldprint/usecases/pipeline"
	"github.com/foldprint/foldprint/usecases/quantize"
	"github.com/foldprint/foldprint/usecases/vectorize"
)

func testBlock() *blocks.IngestedBlock {
	amounts := []float64{1000, 2000, 3000, 4000}
	txs := make([]blocks.TxRecord, 0, len(amounts))
	for i, amount := range amounts {
		txs = append(txs, blocks.TxRecord{
			Amount: amount,
			Fee:    21,
			Gas:    21000,
			Nonce:  float64(i),
			Status: blocks.StatusSuccess,
			Asset:  "ETH",
		})
	}

	return &blocks.IngestedBlock{
		Chain: "eth",
		Header: blocks.Header{
			Height:        1200042,
			PrevStateRoot: "0xaa",
			NewStateRoot:  "0xbb",
			TxMerkleRoot:  "0xcc",
			Timestamp:     1719000000,
		},
		Transactions: txs,
	}
}

func testPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()

	cb := quantize.Deterministic(4, 4, 32, "test-seed", 1.0)
	codec, err := quantize.NewCodec(cb, logrus.New())
	require.Nil(t, err)

	opts := pipeline.Options{
		Vectorizer: vectorize.DefaultConfig(),
		Fold:       fold.Config{Dim: 16, Components: 4, Epsilon: 1e-10},
		Policy:     quantize.PolicyLenient,
		Detector: hotzones.DetectorOptions{
			Bandwidth: 0.35,
			Threshold: 0,
			MaxZones:  8,
		},
		Hypergraph: hotzones.HypergraphOptions{
			DensityThreshold: 0,
			MaxEdgeSize:      4,
		},
	}

	return pipeline.New(opts, codec, nil, logrus.New())
}

func TestPipelineProcessShape(t *testing.T) {
	p := testPipeline(t)

	result, err := p.Process(testBlock())
	require.Nil(t, err)

	// mean + stddev + 4 projected components
	require.Len(t, result.FoldedBlock.Vectors, 6)
	for _, v := range result.FoldedBlock.Vectors {
		assert.Len(t, v, 16)
	}
	assert.Equal(t, 4, result.FoldedBlock.RecordCount)
	assert.Equal(t, uint64(1200042), result.FoldedBlock.Height)

	require.Len(t, result.PQCode.Indices, 6)
	for _, row := range result.PQCode.Indices {
		require.Len(t, row, 4)
		for _, idx := range row {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, 32)
		}
	}

	require.NotNil(t, result.Commitments)
	assert.Len(t, result.Commitments.Folded, 64)
	assert.Len(t, result.Commitments.PQ, 64)
	assert.Len(t, result.Commitments.CodebookRoot, 64)
	assert.Equal(t, result.Commitments.CodebookRoot, result.CodebookRoot)

	assert.LessOrEqual(t, len(result.Hotzones), 8)
	require.NotNil(t, result.Hypergraph)
	assert.Len(t, result.Samples, len(result.Hotzones))
	for i, s := range result.Samples {
		assert.Equal(t, "eth", s.Chain)
		assert.Equal(t, int64(1719000000), s.Timestamp)
		assert.Equal(t, result.Hotzones[i].Center, s.Centroid)
	}
}

func TestPipelineIsDeterministic(t *testing.T) {
	p := testPipeline(t)

	first, err := p.Process(testBlock())
	require.Nil(t, err)
	second, err := p.Process(testBlock())
	require.Nil(t, err)

	assert.Equal(t, first.Commitments.Folded, second.Commitments.Folded)
	assert.Equal(t, first.Commitments.PQ, second.Commitments.PQ)
	assert.Equal(t, first.Commitments.CodebookRoot, second.Commitments.CodebookRoot)
	assert.Equal(t, first.PQCode.Indices, second.PQCode.Indices)
	assert.Equal(t, first.SemanticTags, second.SemanticTags)
}

func TestPipelineIsInputSensitive(t *testing.T) {
	p := testPipeline(t)

	base, err := p.Process(testBlock())
	require.Nil(t, err)

	changed := testBlock()
	changed.Transactions = append(changed.Transactions, blocks.TxRecord{
		Amount: 5000,
		Status: blocks.StatusFailed,
	})

	other, err := p.Process(changed)
	require.Nil(t, err)

	assert.NotEqual(t, base.Commitments.Folded, other.Commitments.Folded)
	// the codebook is unchanged, so its root is too
	assert.Equal(t, base.Commitments.CodebookRoot, other.Commitments.CodebookRoot)
}

func TestPipelineRejectsEmptyBlock(t *testing.T) {
	p := testPipeline(t)

	empty := &blocks.IngestedBlock{Chain: "eth"}
	_, err := p.Process(empty)
	assert.ErrorIs(t, err, fold.ErrEmptyVectorSet)
}

func TestPipelineSemanticTagsAreSortedUnique(t *testing.T) {
	p := testPipeline(t)

	result, err := p.Process(testBlock())
	require.Nil(t, err)

	seen := make(map[string]struct{})
	for i, tag := range result.SemanticTags {
		if i > 0 {
			assert.Less(t, result.SemanticTags[i-1], tag)
		}
		_, dup := seen[tag]
		assert.False(t, dup)
		seen[tag] = struct{}{}
	}
}
