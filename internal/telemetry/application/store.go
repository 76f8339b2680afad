package application

import (
	"sync"
	"time"

	telemetry "genset-cloud/internal/telemetry/domain"
)

// SnapshotStore owns the live snapshot per device. The ingest loop is the
// only writer; readers always get a complete copy, never a half-applied
// struct.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]*telemetry.Snapshot
}

// NewSnapshotStore seeds a store with default snapshots for the given devices.
func NewSnapshotStore(deviceIDs ...string) *SnapshotStore {
	store := &SnapshotStore{snaps: make(map[string]*telemetry.Snapshot, len(deviceIDs))}
	for _, id := range deviceIDs {
		snap := telemetry.NewSnapshot(id)
		store.snaps[id] = &snap
	}
	return store
}

// Get returns a copy of the live snapshot. Unknown devices get a default
// snapshot so callers never deal with nil.
func (s *SnapshotStore) Get(deviceID string) telemetry.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.snaps[deviceID]; ok {
		return *snap
	}
	return telemetry.NewSnapshot(deviceID)
}

// Apply mutates one field and returns the resulting snapshot copy.
func (s *SnapshotStore) Apply(deviceID string, update telemetry.FieldUpdate) telemetry.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.ensureLocked(deviceID)
	snap.Apply(update)
	return *snap
}

// Stamp sets the snapshot timestamp and returns the resulting copy. Called on
// the trigger update so the persisted record carries the trigger time.
func (s *SnapshotStore) Stamp(deviceID string, at time.Time) telemetry.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.ensureLocked(deviceID)
	snap.Timestamp = at
	return *snap
}

func (s *SnapshotStore) ensureLocked(deviceID string) *telemetry.Snapshot {
	snap, ok := s.snaps[deviceID]
	if !ok {
		created := telemetry.NewSnapshot(deviceID)
		snap = &created
		s.snaps[deviceID] = snap
	}
	return snap
}
