// Package store persists processed items in a local bbolt file so that
// automation never fires twice for the same company period, across restarts.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"edefter/internal/logger"
	"edefter/pkg/models"
)

var (
	// processedBucket maps "taxNo/period" to the item, for membership tests.
	processedBucket = []byte("processed")
	// logBucket keeps every item in write order under a sequence key.
	logBucket = []byte("processed_log")
)

// BoltStore implements the processed-item store on bbolt.
type BoltStore struct {
	db  *bbolt.DB
	log zerolog.Logger
}

// Open opens or creates the store at path.
func Open(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, WrapStoreError("Open", "", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(processedBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(logBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, WrapStoreError("Open", "", fmt.Errorf("creating buckets: %w", err))
	}

	return &BoltStore{db: db, log: logger.WithComponent("store")}, nil
}

// IsProcessed reports whether an item exists for taxNo and period.
func (s *BoltStore) IsProcessed(taxNo, period string) (bool, error) {
	key := models.ProcessedKey(taxNo, period)
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(processedBucket).Get([]byte(key)) != nil
		return nil
	})
	if err != nil {
		return false, WrapStoreError("IsProcessed", key, err)
	}
	return found, nil
}

// MarkProcessed stores item unless its key is already present, in which case
// it returns ErrAlreadyProcessed and leaves the store untouched. The check
// and the write share one transaction.
func (s *BoltStore) MarkProcessed(item models.ProcessedItem) error {
	const op = "MarkProcessed"

	key := item.Key()
	data, err := json.Marshal(item)
	if err != nil {
		return WrapStoreError(op, key, fmt.Errorf("marshaling item: %w", err))
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		processed := tx.Bucket(processedBucket)
		if processed.Get([]byte(key)) != nil {
			return ErrAlreadyProcessed
		}
		if err := processed.Put([]byte(key), data); err != nil {
			return err
		}

		log := tx.Bucket(logBucket)
		seq, err := log.NextSequence()
		if err != nil {
			return err
		}
		return log.Put(sequenceKey(seq), data)
	})
	if err != nil {
		return WrapStoreError(op, key, err)
	}

	s.log.Info().
		Str("tax_no", item.TaxNo).
		Str("period", item.Period).
		Interface("actions", item.Actions).
		Msg("Period marked processed")
	return nil
}

// ProcessedItems returns every stored item in write order.
func (s *BoltStore) ProcessedItems() ([]models.ProcessedItem, error) {
	items := make([]models.ProcessedItem, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(logBucket).ForEach(func(_, v []byte) error {
			var item models.ProcessedItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("unmarshaling item: %w", err)
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, WrapStoreError("ProcessedItems", "", err)
	}
	return items, nil
}

// Clear removes every item. It returns how many were removed.
func (s *BoltStore) Clear() (int, error) {
	var n int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		n = tx.Bucket(processedBucket).Stats().KeyN
		for _, name := range [][]byte{processedBucket, logBucket} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, WrapStoreError("Clear", "", err)
	}

	s.log.Warn().Int("removed", n).Msg("Processed items cleared")
	return n, nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func sequenceKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
