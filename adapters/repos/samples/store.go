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

// Package samples persists the hotzone sample history the atlas is
// rebuilt from. Keys order samples by chain, then height, then arrival
// sequence, so a full scan replays them in a stable order.
package samples

import (
	"encoding/binary"
	"encoding/json"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/foldprint/foldprint/entities/fingerprint"
)

var bucketSamples = []byte("samples")

type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open sample store")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSamples)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create sample bucket")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores the samples of one block in arrival order.
func (s *Store) Append(batch []fingerprint.HotzoneSample) error {
	if len(batch) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSamples)
		for i, sample := range batch {
			value, err := json.Marshal(sample)
			if err != nil {
				return errors.Wrap(err, "marshal sample")
			}
			if err := bucket.Put(key(sample, uint32(i)), value); err != nil {
				return errors.Wrap(err, "put sample")
			}
		}
		return nil
	})
}

// Scan replays all stored samples in key order.
func (s *Store) Scan(fn func(fingerprint.HotzoneSample) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSamples).ForEach(func(_, value []byte) error {
			var sample fingerprint.HotzoneSample
			if err := json.Unmarshal(value, &sample); err != nil {
				return errors.Wrap(err, "unmarshal sample")
			}
			return fn(sample)
		})
	})
}

// All loads the full sample history.
func (s *Store) All() ([]fingerprint.HotzoneSample, error) {
	var all []fingerprint.HotzoneSample
	err := s.Scan(func(sample fingerprint.HotzoneSample) error {
		all = append(all, sample)
		return nil
	})
	return all, err
}

// key is chain|0x00|bigendian(height)|bigendian(seq), keeping the scan
// ordered within each chain.
func key(sample fingerprint.HotzoneSample, seq uint32) []byte {
	k := make([]byte, 0, len(sample.Chain)+1+8+4)
	k = append(k, sample.Chain...)
	k = append(k, 0)
	k = binary.BigEndian.AppendUint64(k, sample.Height)
	k = binary.BigEndian.AppendUint32(k, seq)
	return k
}
