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

// Package monitoring exposes the pipeline's prometheus metrics. All
// methods are nil-safe so components can run unmetered in tests.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BlocksProcessed  prometheus.Counter
	VectorsEncoded   prometheus.Counter
	BoundViolations  prometheus.Counter
	HotzonesDetected prometheus.Counter
	AtlasClusters    prometheus.Gauge
	ProcessDuration  prometheus.Histogram
	ProverDuration   prometheus.Histogram
}

func NewMetrics(r prometheus.Registerer) *Metrics {
	return &Metrics{
		BlocksProcessed: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "foldprint_blocks_processed_total",
			Help: "Blocks run through the fingerprint pipeline",
		}),
		VectorsEncoded: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "foldprint_vectors_encoded_total",
			Help: "Folded vectors quantized by the PQ codec",
		}),
		BoundViolations: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "foldprint_bound_violations_total",
			Help: "Reconstruction residuals above the codebook error bound admitted under the lenient policy",
		}),
		HotzonesDetected: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "foldprint_hotzones_detected_total",
			Help: "Hotzones retained after density thresholding",
		}),
		AtlasClusters: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Name: "foldprint_atlas_clusters",
			Help: "Live clusters in the atlas",
		}),
		ProcessDuration: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
			Name:    "foldprint_block_process_duration_seconds",
			Help:    "Wall time of one block's pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		ProverDuration: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
			Name:    "foldprint_prover_duration_seconds",
			Help:    "Wall time of external prover invocations",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

func (m *Metrics) BlockProcessed(start time.Time) {
	if m == nil {
		return
	}
	m.BlocksProcessed.Inc()
	m.ProcessDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddEncoded(vectors, violations int) {
	if m == nil {
		return
	}
	m.VectorsEncoded.Add(float64(vectors))
	m.BoundViolations.Add(float64(violations))
}

func (m *Metrics) AddHotzones(count int) {
	if m == nil {
		return
	}
	m.HotzonesDetected.Add(float64(count))
}

func (m *Metrics) SetAtlasClusters(count int) {
	if m == nil {
		return
	}
	m.AtlasClusters.Set(float64(count))
}

func (m *Metrics) ProverFinished(start time.Time) {
	if m == nil {
		return
	}
	m.ProverDuration.Observe(time.Since(start).Seconds())
}
