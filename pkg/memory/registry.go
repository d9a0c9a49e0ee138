package memory

import (
	"sort"
	"sync"

	"github.com/rostermind/rostermind/config"
)

// Registry hands out one Engine per team. Engines are created lazily on
// first access and live for the registry's lifetime. Cross-team isolation
// is structural: no state is shared between engines, so a busy team never
// contends with another.
type Registry struct {
	mu       sync.Mutex
	cfg      config.MemoryConfig
	logger   engineLogger
	recorder Recorder
	engines  map[string]*Engine
}

// NewRegistry creates an empty registry. New engines inherit cfg, logger,
// and recorder.
func NewRegistry(cfg config.MemoryConfig, logger engineLogger, recorder Recorder) *Registry {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		engines:  make(map[string]*Engine),
	}
}

// Get returns the engine for the given team, creating it if needed.
func (r *Registry) Get(team string) (*Engine, error) {
	if team == "" {
		return nil, ErrInvalidTeamID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if eng, ok := r.engines[team]; ok {
		return eng, nil
	}
	eng := NewEngine(team, r.cfg, r.logger, r.recorder)
	r.engines[team] = eng
	r.logger.Info("memory engine created", "team", team)
	return eng, nil
}

// Lookup returns the engine for the team without creating one.
func (r *Registry) Lookup(team string) (*Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	eng, ok := r.engines[team]
	return eng, ok
}

// Teams returns the sorted list of teams with live engines.
func (r *Registry) Teams() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	teams := make([]string, 0, len(r.engines))
	for team := range r.engines {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	return teams
}

// Range calls fn for every live engine. fn must not call back into the
// registry.
func (r *Registry) Range(fn func(team string, eng *Engine)) {
	r.mu.Lock()
	engines := make(map[string]*Engine, len(r.engines))
	for team, eng := range r.engines {
		engines[team] = eng
	}
	r.mu.Unlock()

	for team, eng := range engines {
		fn(team, eng)
	}
}
