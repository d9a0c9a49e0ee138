// Package badger provides a Badger-based implementation of the snapshot store.
package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/rostermind/rostermind/pkg/memory"
	"github.com/rostermind/rostermind/pkg/persist"
)

const snapshotKeyPrefix = "snapshot:"

// Config holds configuration for BadgerStore.
type Config struct {
	Path             string
	SyncWrites       bool
	ValueLogFileSize int64
}

// BadgerStore implements the Store interface using Badger.
type BadgerStore struct {
	db     *badger.DB
	config *Config
}

// NewBadgerStore opens the Badger database at the configured path.
func NewBadgerStore(config *Config) (*BadgerStore, error) {
	opts := badger.DefaultOptions(config.Path)
	opts.SyncWrites = config.SyncWrites
	if config.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = config.ValueLogFileSize
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &persist.UnavailableError{Cause: err}
	}

	return &BadgerStore{
		db:     db,
		config: config,
	}, nil
}

func snapshotKey(team string) []byte {
	return []byte(fmt.Sprintf("%s%s", snapshotKeyPrefix, team))
}

func serialize(snap *memory.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, &persist.SerializationError{
			Operation: "marshal",
			Cause:     err,
		}
	}
	return data, nil
}

func deserialize(data []byte, snap *memory.Snapshot) error {
	if err := json.Unmarshal(data, snap); err != nil {
		return &persist.SerializationError{
			Operation: "unmarshal",
			Cause:     err,
		}
	}
	return nil
}

// SaveSnapshot stores a snapshot for the team, replacing any previous one.
func (b *BadgerStore) SaveSnapshot(ctx context.Context, team string, snap *memory.Snapshot) error {
	data, err := serialize(snap)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(team), data)
	})
}

// LoadSnapshot retrieves the snapshot for the team.
func (b *BadgerStore) LoadSnapshot(ctx context.Context, team string) (*memory.Snapshot, error) {
	var snap memory.Snapshot

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(team))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return &persist.NotFoundError{Team: team}
			}
			return err
		}

		return item.Value(func(val []byte) error {
			return deserialize(val, &snap)
		})
	})

	if err != nil {
		return nil, err
	}

	return &snap, nil
}

// ListTeams returns the sorted list of teams with stored snapshots.
func (b *BadgerStore) ListTeams(ctx context.Context) ([]string, error) {
	var teams []string

	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(snapshotKeyPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			teams = append(teams, strings.TrimPrefix(key, snapshotKeyPrefix))
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(teams)
	return teams, nil
}

// DeleteSnapshot removes the snapshot for the team.
func (b *BadgerStore) DeleteSnapshot(ctx context.Context, team string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		key := snapshotKey(team)
		if _, err := txn.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return &persist.NotFoundError{Team: team}
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Close closes the Badger database.
func (b *BadgerStore) Close() error {
	// Run garbage collection before closing
	if err := b.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
		// Log error but don't fail close
	}

	return b.db.Close()
}
