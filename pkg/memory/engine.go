package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/rostermind/rostermind/config"
)

// Engine is the contextual memory engine for a single team. All mutable
// state sits behind one coarse mutex: every operation runs to completion
// without suspension and performs no I/O, so a single critical section is
// both safe and cheap. The intended deployment model is one Engine per
// team; see Registry.
//
// Retrieve mutates access statistics on returned items because they feed
// recency-based eviction, so repeated identical queries are not
// read-idempotent.
type Engine struct {
	mu sync.Mutex

	team     string
	cfg      config.MemoryConfig
	tiers    map[Tier]*tierStore
	prefs    map[string][]*Preference
	patterns map[string]*Pattern
	// patternOrder preserves insertion order for deterministic export.
	patternOrder []string

	logger   engineLogger
	recorder Recorder
	now      func() time.Time
}

// NewEngine creates an engine for the given team with the given
// configuration. A nil logger or recorder falls back to a no-op.
func NewEngine(team string, cfg config.MemoryConfig, logger engineLogger, recorder Recorder) *Engine {
	if logger == nil {
		logger = nopLogger{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	tiers := make(map[Tier]*tierStore, len(AllTiers))
	for _, tier := range AllTiers {
		tiers[tier] = newTierStore(tier)
	}

	return &Engine{
		team:     team,
		cfg:      cfg,
		tiers:    tiers,
		prefs:    make(map[string][]*Preference),
		patterns: make(map[string]*Pattern),
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Team returns the team this engine belongs to.
func (e *Engine) Team() string {
	return e.team
}

// Store upserts an item into the given tier and returns its deterministic
// ID. Storing identical (tier, content) again overwrites in place rather
// than duplicating. The episodic tier enforces its capacity at insertion
// time by evicting the lowest-ranked item first; the other tiers enforce
// capacity lazily on Cleanup.
func (e *Engine) Store(content map[string]any, tier Tier, opts StoreOptions) (string, error) {
	if !tier.Valid() {
		return "", ErrInvalidTier
	}
	if err := validateContent(content); err != nil {
		return "", err
	}
	id, err := itemID(tier, content)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	ts := e.tiers[tier]

	if _, exists := ts.items[id]; !exists && tier == TierEpisodic {
		if over := ts.len() - capacityFor(&e.cfg, tier) + 1; over > 0 {
			evicted := ts.dropLowest(over)
			e.recorder.RecordEviction(e.team, tier, evicted)
			e.logger.Debug("episodic tier at capacity, evicted before insert",
				"team", e.team, "evicted", evicted)
		}
	}

	ts.items[id] = &Item{
		ID:             id,
		Tier:           tier,
		Content:        content,
		CreatedAt:      now,
		UserID:         opts.UserID,
		ChatID:         opts.ChatID,
		Importance:     clamp01(opts.Importance),
		LastAccessedAt: now,
		Tags:           opts.Tags,
		Metadata:       opts.Metadata,
	}

	e.recorder.RecordStore(e.team, tier)
	e.recorder.SetTierSize(e.team, tier, ts.len())
	return id, nil
}

// Retrieve scans the requested tiers and returns the items matching the
// query, ordered by (importance desc, accessCount desc) and truncated to
// the limit. Every returned item has its access count incremented and its
// last-access time refreshed.
func (e *Engine) Retrieve(query Query, opts RetrieveOptions) []*Item {
	tiers := opts.Tiers
	if len(tiers) == 0 {
		tiers = AllTiers
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	degenerate := query.degenerate()
	var matched []*Item
	for _, tier := range tiers {
		ts, ok := e.tiers[tier]
		if !ok {
			continue
		}
		for _, item := range ts.items {
			if item.Importance < opts.MinImportance {
				continue
			}
			if opts.UserID != "" && item.UserID != opts.UserID {
				continue
			}
			if opts.ChatID != "" && item.ChatID != opts.ChatID {
				continue
			}
			// Degenerate queries match weakly instead of being filtered by
			// the relevance floor, so owner-only lookups surface results.
			if !degenerate && Score(item, query) <= relevanceFloor {
				continue
			}
			matched = append(matched, item)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if a.AccessCount != b.AccessCount {
			return a.AccessCount > b.AccessCount
		}
		return a.ID < b.ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	now := e.now()
	results := make([]*Item, 0, len(matched))
	for _, item := range matched {
		item.AccessCount++
		item.LastAccessedAt = now
		results = append(results, cloneItem(item))
	}

	e.recorder.RecordRetrieve(e.team, len(results))
	return results
}

// ConversationContext returns the recent owner-scoped items the
// orchestrator needs before composing a response. It looks at the
// short-term and episodic tiers only.
func (e *Engine) ConversationContext(userID, chatID string, limit int) []*Item {
	return e.Retrieve(
		Query{Fields: map[string]any{"user_id": userID}},
		RetrieveOptions{
			Tiers:  []Tier{TierShortTerm, TierEpisodic},
			UserID: userID,
			ChatID: chatID,
			Limit:  limit,
		},
	)
}

// Cleanup runs every tier's eviction rules plus preference and pattern
// pruning. It is advisory when everything is already within bounds.
func (e *Engine) Cleanup() CleanupReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	report := CleanupReport{Evicted: make(map[Tier]int, len(AllTiers))}
	for _, tier := range AllTiers {
		report.Evicted[tier] = e.evictTierLocked(tier, now)
	}
	report.PreferencesDropped = e.prunePreferencesLocked(now)
	report.PatternsDropped = e.prunePatternsLocked()

	e.logger.Debug("memory cleanup finished",
		"team", e.team,
		"short_term_evicted", report.Evicted[TierShortTerm],
		"long_term_evicted", report.Evicted[TierLongTerm],
		"episodic_evicted", report.Evicted[TierEpisodic],
		"semantic_evicted", report.Evicted[TierSemantic],
		"preferences_dropped", report.PreferencesDropped,
		"patterns_dropped", report.PatternsDropped,
	)
	return report
}

// Stats returns per-tier counts and learner totals.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Stats{TierCounts: make(map[Tier]int, len(AllTiers))}
	for _, tier := range AllTiers {
		n := e.tiers[tier].len()
		stats.TierCounts[tier] = n
		stats.TotalItems += n
	}
	for _, prefs := range e.prefs {
		stats.PreferenceCount += len(prefs)
	}
	stats.PatternCount = len(e.patterns)
	return stats
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
