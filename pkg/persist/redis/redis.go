// Package redis provides a Redis-based implementation of the snapshot store.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rostermind/rostermind/pkg/memory"
	"github.com/rostermind/rostermind/pkg/persist"
)

// Config holds configuration for RedisStore.
type Config struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore implements the Store interface using Redis. Snapshots are
// stored as JSON strings under "<prefix>:snapshot:<team>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, config *Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, &persist.UnavailableError{Cause: err}
	}

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "rostermind"
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (r *RedisStore) snapshotKey(team string) string {
	return fmt.Sprintf("%s:snapshot:%s", r.prefix, team)
}

// SaveSnapshot stores a snapshot for the team, replacing any previous one.
func (r *RedisStore) SaveSnapshot(ctx context.Context, team string, snap *memory.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return &persist.SerializationError{Operation: "marshal", Cause: err}
	}

	if err := r.client.Set(ctx, r.snapshotKey(team), data, 0).Err(); err != nil {
		return &persist.UnavailableError{Cause: err}
	}
	return nil
}

// LoadSnapshot retrieves the snapshot for the team.
func (r *RedisStore) LoadSnapshot(ctx context.Context, team string) (*memory.Snapshot, error) {
	data, err := r.client.Get(ctx, r.snapshotKey(team)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, &persist.NotFoundError{Team: team}
		}
		return nil, &persist.UnavailableError{Cause: err}
	}

	var snap memory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &persist.SerializationError{Operation: "unmarshal", Cause: err}
	}
	return &snap, nil
}

// ListTeams returns the sorted list of teams with stored snapshots.
func (r *RedisStore) ListTeams(ctx context.Context) ([]string, error) {
	keyPrefix := fmt.Sprintf("%s:snapshot:", r.prefix)
	pattern := keyPrefix + "*"

	var teams []string
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		teams = append(teams, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, &persist.UnavailableError{Cause: err}
	}

	sort.Strings(teams)
	return teams, nil
}

// DeleteSnapshot removes the snapshot for the team.
func (r *RedisStore) DeleteSnapshot(ctx context.Context, team string) error {
	deleted, err := r.client.Del(ctx, r.snapshotKey(team)).Result()
	if err != nil {
		return &persist.UnavailableError{Cause: err}
	}
	if deleted == 0 {
		return &persist.NotFoundError{Team: team}
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
