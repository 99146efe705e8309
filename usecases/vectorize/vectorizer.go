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

// Package vectorize turns the heterogeneous records of one ingested block
// into fixed-width numeric vectors. It never fails: malformed or missing
// input degrades to zero/neutral components so ingestion always produces
// output.
package vectorize

import (
	"github.com/foldprint/foldprint/entities/blocks"
	"github.com/foldprint/foldprint/entities/fingerprint"
)

// Config scales the raw record fields into [-1, 1] and sizes the three
// vector categories independently.
type Config struct {
	TxDim      int `json:"txDim" yaml:"txDim"`
	TraceDim   int `json:"traceDim" yaml:"traceDim"`
	WitnessDim int `json:"witnessDim" yaml:"witnessDim"`

	MaxAmount      float64 `json:"maxAmount" yaml:"maxAmount"`
	MaxFee         float64 `json:"maxFee" yaml:"maxFee"`
	MaxGas         float64 `json:"maxGas" yaml:"maxGas"`
	MaxNonce       float64 `json:"maxNonce" yaml:"maxNonce"`
	MaxChainID     float64 `json:"maxChainId" yaml:"maxChainId"`
	MaxPriorityFee float64 `json:"maxPriorityFee" yaml:"maxPriorityFee"`
	MaxHeight      float64 `json:"maxHeight" yaml:"maxHeight"`
	MaxConstraints float64 `json:"maxConstraints" yaml:"maxConstraints"`

	// TimestampModulus defines the cycle length for the cyclic timestamp
	// component, e.g. 86400 for a daily cycle.
	TimestampModulus int64 `json:"timestampModulus" yaml:"timestampModulus"`

	// HashBuckets is the modulus for categorical bucket assignment.
	HashBuckets uint32 `json:"hashBuckets" yaml:"hashBuckets"`
}

// DefaultConfig mirrors the scales used for mainnet-style chain data.
func DefaultConfig() Config {
	return Config{
		TxDim:            16,
		TraceDim:         12,
		WitnessDim:       8,
		MaxAmount:        1e19,
		MaxFee:           1e17,
		MaxGas:           3e7,
		MaxNonce:         1e6,
		MaxChainID:       1e5,
		MaxPriorityFee:   1e11,
		MaxHeight:        5e7,
		MaxConstraints:   1e6,
		TimestampModulus: 86400,
		HashBuckets:      64,
	}
}

// VectorSet holds the per-record vectors of one block, one vector per
// input record. It is consumed by folding and then discarded.
type VectorSet struct {
	Tx      [][]float64
	State   [][]float64
	Witness [][]float64
}

// Len is the total number of vectors across all three categories.
func (s *VectorSet) Len() int {
	return len(s.Tx) + len(s.State) + len(s.Witness)
}

// Vectorize maps every record of the block onto a fixed-width vector.
// There is no error path here.
func Vectorize(block *blocks.IngestedBlock, cfg Config) *VectorSet {
	set := &VectorSet{}

	for i, tx := range block.Transactions {
		set.Tx = append(set.Tx, txVector(tx, i, len(block.Transactions), block.Header, cfg))
	}
	for i, trace := range block.Traces {
		set.State = append(set.State, traceVector(trace, i, len(block.Traces), block.Header, cfg))
	}
	for i, bundle := range block.Witness.Bundles {
		set.Witness = append(set.Witness, witnessVector(bundle, i, len(block.Witness.Bundles), block.Header, cfg))
	}

	return set
}

func txVector(tx blocks.TxRecord, idx, total int, header blocks.Header, cfg Config) []float64 {
	v := make([]float64, cfg.TxDim)
	fill(v,
		clamp(tx.Amount, cfg.MaxAmount),
		clamp(tx.Fee, cfg.MaxFee),
		clamp(tx.Gas, cfg.MaxGas),
		clamp(tx.Nonce, cfg.MaxNonce),
		clamp(tx.ChainID, cfg.MaxChainID),
		clamp(tx.PriorityFee, cfg.MaxPriorityFee),
		position(idx, total),
		clamp(float64(header.Height), cfg.MaxHeight),
		cyclic(header.Timestamp, cfg.TimestampModulus),
		statusFlag(tx.Status),
		bucket(tx.ContractType, cfg.HashBuckets),
		bucket(tx.Asset, cfg.HashBuckets),
		bucket(tx.Selector, cfg.HashBuckets),
		bucket(tx.From, cfg.HashBuckets),
		bucket(tx.To, cfg.HashBuckets),
	)
	return v
}

func traceVector(trace blocks.TraceRecord, idx, total int, header blocks.Header, cfg Config) []float64 {
	v := make([]float64, cfg.TraceDim)
	fill(v,
		clamp(trace.GasCost, cfg.MaxGas),
		clamp(trace.Depth, 64),
		clamp(trace.OpCount, 1e5),
		clamp(trace.Value, cfg.MaxAmount),
		position(idx, total),
		clamp(float64(header.Height), cfg.MaxHeight),
		cyclic(header.Timestamp, cfg.TimestampModulus),
		bucket(trace.Op, cfg.HashBuckets),
		bucket(trace.Module, cfg.HashBuckets),
	)
	return v
}

func witnessVector(bundle blocks.WitnessBundle, idx, total int, header blocks.Header, cfg Config) []float64 {
	v := make([]float64, cfg.WitnessDim)
	fill(v,
		clamp(bundle.NumConstraints, cfg.MaxConstraints),
		clamp(bundle.NumAdvice, cfg.MaxConstraints),
		clamp(bundle.NumFixed, cfg.MaxConstraints),
		clamp(bundle.NumInstance, cfg.MaxConstraints),
		clamp(bundle.Degree, 32),
		position(idx, total),
		clamp(float64(header.Height), cfg.MaxHeight),
		bucket(bundle.CircuitTag, cfg.HashBuckets),
	)
	return v
}

// fill copies components into v, truncating or leaving trailing zeros
// depending on the configured dimension.
func fill(v []float64, components ...float64) {
	for i, c := range components {
		if i >= len(v) {
			return
		}
		v[i] = c
	}
}

// clamp divides by max and clips the result to [-1, 1]. A non-positive
// max neutralizes the component instead of producing Inf/NaN.
func clamp(value, max float64) float64 {
	if max <= 0 {
		return 0
	}
	scaled := value / max
	if scaled > 1 {
		return 1
	}
	if scaled < -1 {
		return -1
	}
	return scaled
}

func position(idx, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(idx) / float64(total)
}

func cyclic(timestamp, modulus int64) float64 {
	if modulus <= 0 {
		return 0
	}
	phase := timestamp % modulus
	if phase < 0 {
		phase += modulus
	}
	return float64(phase) / float64(modulus)
}

func statusFlag(s blocks.Status) float64 {
	switch s {
	case blocks.StatusSuccess:
		return 1
	case blocks.StatusFailed:
		return 0
	default:
		return 0.5
	}
}

// bucket reduces a categorical string to a stable hash bucket rescaled to
// [0, 1). The empty (unknown) value always lands in bucket 0.
func bucket(s string, buckets uint32) float64 {
	if buckets == 0 {
		return 0
	}
	if s == "" {
		return 0
	}
	return float64(fingerprint.StableHash(s)%buckets) / float64(buckets)
}
