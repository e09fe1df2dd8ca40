package domain

import (
	"sync"
	"time"
)

// SnapshotStore mirrors a pending buffer to ephemeral local storage so a
// crashed or reloaded station can recover an in-progress buffer. It is
// never a source of truth; the document store is authoritative once a
// buffer is committed.
type SnapshotStore interface {
	SaveSnapshot(stationID string, records []ScanRecord) error
	LoadSnapshot(stationID string) ([]ScanRecord, error)
	ClearSnapshot(stationID string) error
}

// PendingScanBuffer accumulates material picks for one scan session.
// Append-only during scanning; the only reducing operation is Clear,
// issued after a successful commit or an explicit reset. Every mutation
// is synchronously mirrored to the snapshot store.
type PendingScanBuffer struct {
	mu        sync.RWMutex
	stationID string
	records   []ScanRecord
	store     SnapshotStore
}

// NewPendingScanBuffer creates an empty buffer for a station.
func NewPendingScanBuffer(stationID string, store SnapshotStore) *PendingScanBuffer {
	return &PendingScanBuffer{
		stationID: stationID,
		records:   make([]ScanRecord, 0),
		store:     store,
	}
}

// Append adds a record and mirrors the full buffer. CapturedAt is bumped
// when needed so timestamps are strictly increasing within a buffer.
func (b *PendingScanBuffer) Append(record ScanRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.records); n > 0 {
		last := b.records[n-1].CapturedAt
		if !record.CapturedAt.After(last) {
			record.CapturedAt = last.Add(time.Nanosecond)
		}
	}

	b.records = append(b.records, record)
	return b.mirrorLocked()
}

// Snapshot returns a copy of the buffered records. The UI layer reads
// these concurrently with scanning; copy-out avoids torn reads.
func (b *PendingScanBuffer) Snapshot() []ScanRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]ScanRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Len returns the number of buffered records.
func (b *PendingScanBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Clear empties the buffer and its mirrored snapshot.
func (b *PendingScanBuffer) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = b.records[:0]
	return b.store.ClearSnapshot(b.stationID)
}

// Restore replaces the buffer contents with the last persisted snapshot.
// Used once at session start to recover from a reload; session metadata
// is re-entered by the operator.
func (b *PendingScanBuffer) Restore() ([]ScanRecord, error) {
	records, err := b.store.LoadSnapshot(b.stationID)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records[:0], records...)

	out := make([]ScanRecord, len(b.records))
	copy(out, b.records)
	return out, nil
}

func (b *PendingScanBuffer) mirrorLocked() error {
	snapshot := make([]ScanRecord, len(b.records))
	copy(snapshot, b.records)
	return b.store.SaveSnapshot(b.stationID, snapshot)
}
