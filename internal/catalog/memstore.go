package catalog

import (
	"sync"

	"github.com/birdtag/birdtag-go/internal/errors"
)

type recordKey struct {
	objectID string
	ownerID  string
}

// MemoryStore is an in-memory Store used for tests and ephemeral runs. It
// provides the same last-write-wins replace semantics as the durable stores.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]MediaRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]MediaRecord)}
}

// Open is a no-op for the memory store.
func (m *MemoryStore) Open() error { return nil }

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }

// Get retrieves the record for (objectID, ownerID).
func (m *MemoryStore) Get(objectID, ownerID string) (MediaRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[recordKey{objectID, ownerID}]
	if !ok {
		return MediaRecord{}, errors.Newf("record not found: %s", objectID).
			Category(errors.CategoryNotFound).
			Context("object_id", objectID).
			Component("catalog").
			Build()
	}
	record.Tags = record.Tags.Clone()
	return record, nil
}

// Save inserts or fully replaces the record keyed by (ObjectID, OwnerID).
func (m *MemoryStore) Save(record *MediaRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *record
	stored.Tags = record.Tags.Clone()
	m.records[recordKey{record.ObjectID, record.OwnerID}] = stored
	return nil
}

// Delete removes the record for (objectID, ownerID) if present.
func (m *MemoryStore) Delete(objectID, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, recordKey{objectID, ownerID})
	return nil
}

// ScanAll returns a snapshot of every record.
func (m *MemoryStore) ScanAll() ([]MediaRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]MediaRecord, 0, len(m.records))
	for _, record := range m.records {
		record.Tags = record.Tags.Clone()
		records = append(records, record)
	}
	return records, nil
}
