package boltstore

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

const snapshotBucket = "pending_snapshots"

// SnapshotStore mirrors pending scan buffers to a local bbolt file so a
// station survives a process restart with its uncommitted scans intact.
// One key per station, value is the JSON-encoded record slice.
type SnapshotStore struct {
	db *bbolt.DB
}

// Open opens (or creates) the snapshot database at path.
func Open(path string) (*SnapshotStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot bucket: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// SaveSnapshot overwrites the stored snapshot for a station.
func (s *SnapshotStore) SaveSnapshot(stationID string, records []domain.ScanRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		data, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("marshaling snapshot: %w", err)
		}
		return bucket.Put([]byte(stationID), data)
	})
}

// LoadSnapshot returns the stored snapshot for a station. A station
// without a snapshot yields an empty slice, not an error.
func (s *SnapshotStore) LoadSnapshot(stationID string) ([]domain.ScanRecord, error) {
	var records []domain.ScanRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		data := bucket.Get([]byte(stationID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &records)
	})
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if records == nil {
		records = []domain.ScanRecord{}
	}
	return records, nil
}

// ClearSnapshot removes the stored snapshot for a station.
func (s *SnapshotStore) ClearSnapshot(stationID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		return bucket.Delete([]byte(stationID))
	})
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
