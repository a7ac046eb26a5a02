package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/metrics"
)

// SnapshotStore is a Store backed by an atomically swapped pointer.
//
// Reads are a single atomic load. Installs are serialized by mu so that
// generations are published in strictly increasing order.
type SnapshotStore struct {
	current atomic.Pointer[model.Snapshot]

	mu         sync.Mutex
	generation uint64

	now   func() time.Time
	newID func() string
}

// NewSnapshotStore creates a store holding the empty, not-loaded snapshot.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(model.Empty())
	return s
}

// Current implements Store.
func (s *SnapshotStore) Current() *model.Snapshot {
	return s.current.Load()
}

// Install implements Store. The records are deep-copied so later changes by
// the caller cannot leak into the published snapshot.
func (s *SnapshotStore) Install(_ context.Context, records []model.EmployeeRecord) *model.Snapshot {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := model.CloneRecords(records)

	s.generation++
	snap := &model.Snapshot{
		ID:         s.newID(),
		Generation: s.generation,
		LoadedAt:   s.now(),
		Loaded:     true,
		Records:    owned,
	}
	s.current.Store(snap)

	metrics.RecordSnapshotInstalled(snap.Generation, snap.LoadedAt, float64(time.Since(start).Microseconds())/1000)
	return snap
}
