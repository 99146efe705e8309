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

package samples_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldprint/foldprint/adapters/repos/samples"
	"github.com/foldprint/foldprint/entities/fingerprint"
)

func openStore(t *testing.T) *samples.Store {
	t.Helper()
	store, err := samples.Open(filepath.Join(t.TempDir(), "samples.db"))
	require.Nil(t, err)
	t.Cleanup(func() {
		require.Nil(t, store.Close())
	})
	return store
}

func sampleAt(chain string, height uint64, density float64) fingerprint.HotzoneSample {
	return fingerprint.HotzoneSample{
		Chain:     chain,
		Height:    height,
		Timestamp: int64(height) * 12,
		Centroid:  []float64{density, 0.5},
		Density:   density,
		Tags:      []string{"mixed"},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := openStore(t)

	batch := []fingerprint.HotzoneSample{
		sampleAt("eth", 100, 0.9),
		sampleAt("eth", 100, 0.7),
	}
	require.Nil(t, store.Append(batch))

	all, err := store.All()
	require.Nil(t, err)
	assert.Equal(t, batch, all)
}

func TestStoreScanOrder(t *testing.T) {
	store := openStore(t)

	// appended out of height order, scanned back in key order per chain
	require.Nil(t, store.Append([]fingerprint.HotzoneSample{sampleAt("eth", 200, 0.5)}))
	require.Nil(t, store.Append([]fingerprint.HotzoneSample{sampleAt("eth", 100, 0.9)}))
	require.Nil(t, store.Append([]fingerprint.HotzoneSample{sampleAt("arb", 300, 0.4)}))

	all, err := store.All()
	require.Nil(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "arb", all[0].Chain)
	assert.Equal(t, uint64(100), all[1].Height)
	assert.Equal(t, uint64(200), all[2].Height)
}

func TestStoreEmptyAppendAndScan(t *testing.T) {
	store := openStore(t)

	require.Nil(t, store.Append(nil))

	all, err := store.All()
	require.Nil(t, err)
	assert.Empty(t, all)
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.db")

	store, err := samples.Open(path)
	require.Nil(t, err)
	require.Nil(t, store.Append([]fingerprint.HotzoneSample{sampleAt("eth", 1, 0.3)}))
	require.Nil(t, store.Close())

	reopened, err := samples.Open(path)
	require.Nil(t, err)
	defer reopened.Close()

	all, err := reopened.All()
	require.Nil(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint64(1), all[0].Height)
}
