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

// Package prover invokes the external zero-knowledge proving toolchain as
// a subprocess. The engine only prepares the witness payload and public
// inputs; the circuit itself lives in the external binary. Timeouts and
// non-zero exits surface as distinct errors and the temporary workspace
// is removed on every exit path. There are no retries here.
package prover

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrTimeout reports that the prover exceeded its deadline and was
// terminated.
var ErrTimeout = errors.New("prover: timed out")

// ExitError reports a prover run that finished with a non-zero exit code.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("prover: exited with code %d: %s", e.Code, e.Stderr)
}

// PublicInputs is the prover's public-input file. Field names follow the
// circuit's expected JSON layout.
type PublicInputs struct {
	PrevStateRoot    string `json:"prevStateRoot"`
	NewStateRoot     string `json:"newStateRoot"`
	BlockHeight      uint64 `json:"blockHeight"`
	TxMerkleRoot     string `json:"txMerkleRoot"`
	FoldedCommitment string `json:"foldedCommitment"`
	PQCommitment     string `json:"pqCommitment"`
	CodebookRoot     string `json:"codebookRoot"`
}

// Witness is the private payload: the folded vectors and their PQ
// reconstructions.
type Witness struct {
	FoldedVectors [][]float64 `json:"foldedVectors"`
	PQVectors     [][]float64 `json:"pqVectors"`
	HeaderRLP     string      `json:"headerRlp,omitempty"`
}

type Config struct {
	Binary          string
	ProvingKey      string
	VerificationKey string
	CircuitK        int
	Timeout         time.Duration
}

type Client struct {
	cfg    Config
	logger logrus.FieldLogger
}

func NewClient(cfg Config, logger logrus.FieldLogger) (*Client, error) {
	if cfg.Binary == "" {
		return nil, errors.New("prover: binary path required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.Errorf("prover: timeout must be positive, got %s", cfg.Timeout)
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

// Prove writes witness and public inputs into a temporary workspace, runs
// the prover and returns the proof hex-encoded.
func (c *Client) Prove(ctx context.Context, witness *Witness, inputs *PublicInputs) (string, error) {
	workspace, err := os.MkdirTemp("", "foldprint-prover-*")
	if err != nil {
		return "", errors.Wrap(err, "prover: create workspace")
	}
	defer os.RemoveAll(workspace)

	witnessPath := filepath.Join(workspace, "witness.json")
	inputsPath := filepath.Join(workspace, "public_inputs.json")
	proofPath := filepath.Join(workspace, "proof.bin")

	if err := writeJSON(witnessPath, witness); err != nil {
		return "", err
	}
	if err := writeJSON(inputsPath, inputs); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.cfg.Binary,
		"--witness", witnessPath,
		"--public-inputs", inputsPath,
		"--proving-key", c.cfg.ProvingKey,
		"--verification-key", c.cfg.VerificationKey,
		"--output", proofPath,
		"--circuit-k", strconv.Itoa(c.cfg.CircuitK),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	c.logger.WithFields(logrus.Fields{
		"height":   inputs.BlockHeight,
		"duration": time.Since(start),
	}).Debug("prover finished")

	if ctx.Err() == context.DeadlineExceeded {
		return "", errors.Wrapf(ErrTimeout, "after %s", c.cfg.Timeout)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return "", &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", errors.Wrap(runErr, "prover: run")
	}

	proof, err := os.ReadFile(proofPath)
	if err != nil {
		return "", errors.Wrap(err, "prover: read proof")
	}

	return hex.EncodeToString(proof), nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "prover: marshal %s", filepath.Base(path))
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "prover: write %s", filepath.Base(path))
}
