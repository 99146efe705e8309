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

package blocks

import (
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
)

// Ordered fallback keys per logical field. Adapters for different sources
// disagree on naming; the first key that resolves wins. Order matters and
// must stay stable so fingerprints stay comparable across adapter versions.
var (
	amountKeys      = []string{"amount", "value"}
	feeKeys         = []string{"fee", "txFee"}
	gasKeys         = []string{"gasUsed", "gas"}
	nonceKeys       = []string{"nonce"}
	chainIDKeys     = []string{"chainId", "chainID"}
	priorityFeeKeys = []string{"priorityFee", "maxPriorityFeePerGas"}
	statusKeys      = []string{"status", "success"}
	contractKeys    = []string{"contractType", "type"}
	assetKeys       = []string{"asset", "token", "symbol"}
	selectorKeys    = []string{"functionSelector", "selector", "methodId"}
	fromKeys        = []string{"from", "sender"}
	toKeys          = []string{"to", "recipient"}

	gasCostKeys = []string{"gasCost", "gas"}
	depthKeys   = []string{"depth"}
	opCountKeys = []string{"opCount", "steps"}
	valueKeys   = []string{"value"}
	opKeys      = []string{"op", "opcode"}
	moduleKeys  = []string{"module", "contract"}

	constraintsKeys = []string{"numConstraints", "constraints"}
	adviceKeys      = []string{"numAdvice", "advice"}
	fixedKeys       = []string{"numFixed", "fixed"}
	instanceKeys    = []string{"numInstance", "instance"}
	degreeKeys      = []string{"degree", "k"}
	circuitKeys     = []string{"circuitTag", "circuit"}
)

// Decode parses an IngestedBlock from its JSON wire form. Only a document
// that is not JSON at all is an error; individual records never fail, any
// missing or malformed field degrades to its zero value.
func Decode(data []byte) (*IngestedBlock, error) {
	if _, dataType, _, err := jsonparser.Get(data); err != nil || dataType != jsonparser.Object {
		return nil, errors.New("ingested block: top-level JSON object required")
	}

	block := &IngestedBlock{}
	block.Chain, _ = jsonparser.GetString(data, "chain")

	if header, _, _, err := jsonparser.Get(data, "header"); err == nil {
		block.Header = decodeHeader(header)
	}

	_, _ = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType == jsonparser.Object {
			block.Transactions = append(block.Transactions, decodeTx(value))
		}
	}, "transactions")

	_, _ = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType == jsonparser.Object {
			block.Traces = append(block.Traces, decodeTrace(value))
		}
	}, "executionTraces")

	if witness, _, _, err := jsonparser.Get(data, "witnessData"); err == nil {
		block.Witness = decodeWitness(witness)
	}

	return block, nil
}

func decodeHeader(data []byte) Header {
	height, _ := jsonparser.GetInt(data, "height")
	if height < 0 {
		height = 0
	}
	prev, _ := jsonparser.GetString(data, "prevStateRoot")
	next, _ := jsonparser.GetString(data, "newStateRoot")
	txRoot, _ := jsonparser.GetString(data, "txMerkleRoot")
	ts, _ := jsonparser.GetInt(data, "timestamp")

	return Header{
		Height:        uint64(height),
		PrevStateRoot: prev,
		NewStateRoot:  next,
		TxMerkleRoot:  txRoot,
		Timestamp:     ts,
	}
}

func decodeTx(data []byte) TxRecord {
	return TxRecord{
		Amount:       number(data, amountKeys),
		Fee:          number(data, feeKeys),
		Gas:          number(data, gasKeys),
		Nonce:        number(data, nonceKeys),
		ChainID:      number(data, chainIDKeys),
		PriorityFee:  number(data, priorityFeeKeys),
		Status:       status(data, statusKeys),
		ContractType: text(data, contractKeys),
		Asset:        text(data, assetKeys),
		Selector:     text(data, selectorKeys),
		From:         text(data, fromKeys),
		To:           text(data, toKeys),
	}
}

func decodeTrace(data []byte) TraceRecord {
	return TraceRecord{
		GasCost: number(data, gasCostKeys),
		Depth:   number(data, depthKeys),
		OpCount: number(data, opCountKeys),
		Value:   number(data, valueKeys),
		Op:      text(data, opKeys),
		Module:  text(data, moduleKeys),
	}
}

func decodeBundle(data []byte) WitnessBundle {
	return WitnessBundle{
		NumConstraints: number(data, constraintsKeys),
		NumAdvice:      number(data, adviceKeys),
		NumFixed:       number(data, fixedKeys),
		NumInstance:    number(data, instanceKeys),
		Degree:         number(data, degreeKeys),
		CircuitTag:     text(data, circuitKeys),
	}
}

// decodeWitness resolves the bundle-list-or-single-object variant exactly
// once. A payload without a bundles array is treated as one bundle.
func decodeWitness(data []byte) WitnessPayload {
	if bundles, dataType, _, err := jsonparser.Get(data, "bundles"); err == nil && dataType == jsonparser.Array {
		payload := WitnessPayload{Shape: WitnessList}
		_, _ = jsonparser.ArrayEach(bundles, func(value []byte, valueType jsonparser.ValueType, _ int, _ error) {
			if valueType == jsonparser.Object {
				payload.Bundles = append(payload.Bundles, decodeBundle(value))
			}
		})
		return payload
	}

	return WitnessPayload{
		Shape:   WitnessSingle,
		Bundles: []WitnessBundle{decodeBundle(data)},
	}
}

// number resolves the first fallback key that yields a numeric value.
// Numeric strings ("1000", "0x10") count; anything else is 0.
func number(data []byte, keys []string) float64 {
	for _, key := range keys {
		if v, err := jsonparser.GetFloat(data, key); err == nil {
			return v
		}
		if s, err := jsonparser.GetString(data, key); err == nil {
			if v, ok := parseNumeric(s); ok {
				return v
			}
			return 0
		}
	}
	return 0
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if lower := strings.ToLower(s); strings.HasPrefix(lower, "0x") {
		if v, err := strconv.ParseUint(lower[2:], 16, 64); err == nil {
			return float64(v), true
		}
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	return 0, false
}

func text(data []byte, keys []string) string {
	for _, key := range keys {
		if s, err := jsonparser.GetString(data, key); err == nil {
			return s
		}
	}
	return ""
}

func status(data []byte, keys []string) Status {
	for _, key := range keys {
		if b, err := jsonparser.GetBoolean(data, key); err == nil {
			if b {
				return StatusSuccess
			}
			return StatusFailed
		}
		if v, err := jsonparser.GetFloat(data, key); err == nil {
			if v > 0 {
				return StatusSuccess
			}
			return StatusFailed
		}
		if s, err := jsonparser.GetString(data, key); err == nil {
			switch strings.ToLower(s) {
			case "success", "ok", "1", "0x1", "true":
				return StatusSuccess
			case "failed", "failure", "reverted", "0", "0x0", "false":
				return StatusFailed
			}
		}
	}
	return StatusUnknown
}
