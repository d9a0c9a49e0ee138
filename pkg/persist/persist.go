// Package persist provides durable snapshot storage for memory engines.
package persist

import (
	"context"
	"fmt"

	"github.com/rostermind/rostermind/pkg/memory"
)

// Store defines the interface for snapshot persistence. A store holds at
// most one snapshot per team; saving overwrites the previous one.
type Store interface {
	SaveSnapshot(ctx context.Context, team string, snap *memory.Snapshot) error
	LoadSnapshot(ctx context.Context, team string) (*memory.Snapshot, error)
	ListTeams(ctx context.Context) ([]string, error)
	DeleteSnapshot(ctx context.Context, team string) error

	// Lifecycle
	Close() error
}

// NotFoundError indicates that no snapshot exists for the team.
type NotFoundError struct {
	Team string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot not found for team: %s", e.Team)
}

// UnavailableError indicates that the storage backend is unavailable.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("snapshot store unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// SerializationError indicates a failure encoding or decoding a snapshot.
type SerializationError struct {
	Operation string
	Cause     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error during %s: %v", e.Operation, e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }
