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

// Package blocks holds the ingestion-side data model. An IngestedBlock is
// source-agnostic: chain blocks, trade batches and alert batches all map
// onto the same shape. Records are schema-flexible on the wire; they are
// resolved into typed structs exactly once, at the decode boundary, using
// a fixed ordered list of fallback keys per logical field.
package blocks

// Header carries the block-level metadata that survives into fingerprints
// and prover public inputs.
type Header struct {
	Height        uint64 `json:"height"`
	PrevStateRoot string `json:"prevStateRoot"`
	NewStateRoot  string `json:"newStateRoot"`
	TxMerkleRoot  string `json:"txMerkleRoot"`
	Timestamp     int64  `json:"timestamp"`
}

// Status is a tri-state transaction outcome. Records that never carried a
// status field stay StatusUnknown, which vectorizes to the neutral 0.5.
type Status int

const (
	StatusFailed Status = iota
	StatusUnknown
	StatusSuccess
)

// TxRecord is one transaction after fallback-key resolution. Missing
// fields are zero values; there is no error path out of decoding a record.
type TxRecord struct {
	Amount       float64
	Fee          float64
	Gas          float64
	Nonce        float64
	ChainID      float64
	PriorityFee  float64
	Status       Status
	ContractType string
	Asset        string
	Selector     string
	From         string
	To           string
}

// TraceRecord is one execution-trace entry.
type TraceRecord struct {
	GasCost float64
	Depth   float64
	OpCount float64
	Value   float64
	Op      string
	Module  string
}

// WitnessBundle carries proving-circuit sizing metadata.
type WitnessBundle struct {
	NumConstraints float64
	NumAdvice      float64
	NumFixed       float64
	NumInstance    float64
	Degree         float64
	CircuitTag     string
}

// WitnessShape distinguishes the two payload layouts seen on the wire:
// an explicit bundle list, or a single bundle object. The variant is
// resolved once during decode and never re-checked downstream.
type WitnessShape int

const (
	WitnessList WitnessShape = iota
	WitnessSingle
)

type WitnessPayload struct {
	Shape   WitnessShape
	Bundles []WitnessBundle
}

// IngestedBlock is immutable once constructed. Chain identifies the
// source stream; adapters that have no notion of a chain leave it empty
// and the caller supplies one.
type IngestedBlock struct {
	Chain        string
	Header       Header
	Transactions []TxRecord
	Traces       []TraceRecord
	Witness      WitnessPayload
}

// RecordCount is the number of records that will contribute vectors.
func (b *IngestedBlock) RecordCount() int {
	return len(b.Transactions) + len(b.Traces) + len(b.Witness.Bundles)
}
