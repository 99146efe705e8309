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

// Package corpus reads the newline-delimited training corpus: one JSON
// record per processed block, {chain, height, vectors}. Malformed lines
// are data-quality degradations, not errors; they are counted, logged and
// skipped.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxLineSize bounds one corpus line; folded vectors are small, so this
// is generous.
const maxLineSize = 16 << 20

// Record is one corpus line.
type Record struct {
	Chain   string      `json:"chain"`
	Height  uint64      `json:"height"`
	Vectors [][]float64 `json:"vectors"`
}

type Reader struct {
	path   string
	logger logrus.FieldLogger
}

func NewReader(path string, logger logrus.FieldLogger) *Reader {
	return &Reader{path: path, logger: logger}
}

// Load memory-maps the corpus file and returns every vector of at least
// minDim dimensions, in file order.
func (r *Reader) Load(minDim int) ([][]float64, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrap(err, "open corpus")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat corpus")
	}
	if info.Size() == 0 {
		return nil, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Wrap(err, "mmap corpus")
	}
	defer m.Unmap()

	var (
		vectors  [][]float64
		skipped  int
		tooShort int
	)

	scanner := bufio.NewScanner(bytes.NewReader(m))
	scanner.Buffer(make([]byte, 64<<10), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			skipped++
			continue
		}
		for _, v := range record.Vectors {
			if len(v) < minDim {
				tooShort++
				continue
			}
			vectors = append(vectors, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan corpus")
	}

	if skipped > 0 || tooShort > 0 {
		r.logger.WithFields(logrus.Fields{
			"malformedLines":  skipped,
			"tooShortVectors": tooShort,
		}).Warn("corpus contained unusable entries")
	}

	return vectors, nil
}
