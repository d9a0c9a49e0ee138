// Package memory provides an in-memory implementation of the snapshot store.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	enginemem "github.com/rostermind/rostermind/pkg/memory"
	"github.com/rostermind/rostermind/pkg/persist"
)

// MemoryStore implements the Store interface using an in-memory map.
// Snapshots are kept as encoded bytes so stored state cannot alias live
// engine state, matching the behavior of the durable backends.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewMemoryStore creates a new in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string][]byte),
	}
}

// SaveSnapshot stores a snapshot for the team, replacing any previous one.
func (m *MemoryStore) SaveSnapshot(ctx context.Context, team string, snap *enginemem.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return &persist.SerializationError{Operation: "marshal", Cause: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[team] = data
	return nil
}

// LoadSnapshot retrieves the snapshot for the team.
func (m *MemoryStore) LoadSnapshot(ctx context.Context, team string) (*enginemem.Snapshot, error) {
	m.mu.RLock()
	data, exists := m.snapshots[team]
	m.mu.RUnlock()

	if !exists {
		return nil, &persist.NotFoundError{Team: team}
	}

	var snap enginemem.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &persist.SerializationError{Operation: "unmarshal", Cause: err}
	}
	return &snap, nil
}

// ListTeams returns the sorted list of teams with stored snapshots.
func (m *MemoryStore) ListTeams(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	teams := make([]string, 0, len(m.snapshots))
	for team := range m.snapshots {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	return teams, nil
}

// DeleteSnapshot removes the snapshot for the team.
func (m *MemoryStore) DeleteSnapshot(ctx context.Context, team string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.snapshots[team]; !exists {
		return &persist.NotFoundError{Team: team}
	}
	delete(m.snapshots, team)
	return nil
}

// Close closes the store (no-op for the in-memory store).
func (m *MemoryStore) Close() error {
	return nil
}
