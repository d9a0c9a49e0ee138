package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rostermind/rostermind/pkg/logger"
	"github.com/rostermind/rostermind/pkg/memory"
)

// Keeper periodically flushes every live engine's snapshot to the store
// and restores engines from stored snapshots at startup. A crash loses at
// most one flush interval of writes.
type Keeper struct {
	store    Store
	registry *memory.Registry
	interval time.Duration
	log      logger.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewKeeper creates a keeper for the given store and registry. An interval
// of zero or less disables periodic flushing; FlushAll can still be called
// directly.
func NewKeeper(store Store, registry *memory.Registry, interval time.Duration, log logger.Logger) *Keeper {
	if log == nil {
		log = logger.Global()
	}
	return &Keeper{
		store:    store,
		registry: registry,
		interval: interval,
		log:      log,
	}
}

// Restore loads every stored snapshot and imports it into the matching
// engine. Teams whose snapshots fail to load or import are logged and
// skipped so one bad snapshot does not block startup.
func (k *Keeper) Restore(ctx context.Context) error {
	teams, err := k.store.ListTeams(ctx)
	if err != nil {
		return fmt.Errorf("persist: list teams: %w", err)
	}

	restored := 0
	for _, team := range teams {
		snap, err := k.store.LoadSnapshot(ctx, team)
		if err != nil {
			k.log.Warn("snapshot load failed, skipping team", "team", team, "error", err)
			continue
		}

		eng, err := k.registry.Get(team)
		if err != nil {
			k.log.Warn("engine creation failed, skipping team", "team", team, "error", err)
			continue
		}

		if err := eng.Import(snap); err != nil {
			k.log.Warn("snapshot import failed, skipping team", "team", team, "error", err)
			continue
		}
		restored++
	}

	k.log.Info("memory state restored", "teams", restored, "stored", len(teams))
	return nil
}

// FlushAll exports every live engine and saves its snapshot. All engines
// are attempted even when some fail; the first error is returned.
func (k *Keeper) FlushAll(ctx context.Context) error {
	var firstErr error
	flushed := 0

	k.registry.Range(func(team string, eng *memory.Engine) {
		snap := eng.Export()
		if err := k.store.SaveSnapshot(ctx, team, snap); err != nil {
			k.log.Error("snapshot save failed", "team", team, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("persist: save snapshot for %s: %w", team, err)
			}
			return
		}
		flushed++
	})

	if flushed > 0 {
		k.log.Debug("memory snapshots flushed", "teams", flushed)
	}
	return firstErr
}

// Start launches the periodic flush loop. It returns an error if the
// keeper is already running or flushing is disabled.
func (k *Keeper) Start(ctx context.Context) error {
	if k.interval <= 0 {
		return errors.New("persist: keeper flush interval is not set")
	}

	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return errors.New("persist: keeper is already running")
	}
	k.running = true
	k.stopCh = make(chan struct{})
	k.doneCh = make(chan struct{})
	k.mu.Unlock()

	go k.run(ctx)
	return nil
}

func (k *Keeper) run(ctx context.Context) {
	defer close(k.doneCh)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-k.stopCh:
			return
		case <-ticker.C:
			if err := k.FlushAll(ctx); err != nil {
				k.log.Error("periodic flush failed", "error", err)
			}
		}
	}
}

// Stop stops the flush loop and performs a final flush so no writes since
// the last tick are lost.
func (k *Keeper) Stop(ctx context.Context) error {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return nil
	}
	k.running = false
	close(k.stopCh)
	k.mu.Unlock()

	<-k.doneCh
	return k.FlushAll(ctx)
}
