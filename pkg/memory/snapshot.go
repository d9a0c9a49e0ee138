package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rostermind/rostermind/config"
)

// Snapshot is the complete exportable state of one engine. Tier keys are
// encoded as string names for forward compatibility with new tiers.
type Snapshot struct {
	SnapshotID  string                   `json:"snapshot_id"`
	TakenAt     time.Time                `json:"taken_at"`
	Tiers       map[string][]*Item       `json:"tiers"`
	Preferences map[string][]*Preference `json:"preferences"`
	Patterns    []*Pattern               `json:"patterns"`
	Config      map[string]any           `json:"config"`
}

// Export produces a snapshot of the full engine state: all four tiers, all
// preferences, all patterns, and the active configuration.
func (e *Engine) Export() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &Snapshot{
		SnapshotID:  uuid.New().String(),
		TakenAt:     e.now(),
		Tiers:       make(map[string][]*Item, len(AllTiers)),
		Preferences: make(map[string][]*Preference, len(e.prefs)),
		Patterns:    make([]*Pattern, 0, len(e.patterns)),
		Config:      configToMap(&e.cfg),
	}

	for _, tier := range AllTiers {
		ts := e.tiers[tier]
		items := make([]*Item, 0, ts.len())
		for _, item := range ts.items {
			items = append(items, cloneItem(item))
		}
		snap.Tiers[string(tier)] = items
	}
	for userID, prefs := range e.prefs {
		cloned := make([]*Preference, 0, len(prefs))
		for _, pref := range prefs {
			cloned = append(cloned, clonePreference(pref))
		}
		snap.Preferences[userID] = cloned
	}
	for _, id := range e.patternOrder {
		if pat := e.patterns[id]; pat != nil {
			snap.Patterns = append(snap.Patterns, clonePattern(pat))
		}
	}
	return snap
}

// Import replaces tier, preference, and pattern state with the snapshot's
// contents and merges (not replaces) configuration keys. It fails fast on
// a nil snapshot or an unknown tier name, before touching any state, so a
// malformed snapshot cannot cause partial data loss. Missing sections
// default to empty collections.
func (e *Engine) Import(snap *Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	for name := range snap.Tiers {
		if _, err := ParseTier(name); err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownTier, name)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, tier := range AllTiers {
		ts := newTierStore(tier)
		for _, item := range snap.Tiers[string(tier)] {
			if item == nil || item.ID == "" {
				continue
			}
			restored := cloneItem(item)
			restored.Tier = tier
			ts.items[restored.ID] = restored
		}
		e.tiers[tier] = ts
		e.recorder.SetTierSize(e.team, tier, ts.len())
	}

	e.prefs = make(map[string][]*Preference, len(snap.Preferences))
	for userID, prefs := range snap.Preferences {
		restored := make([]*Preference, 0, len(prefs))
		for _, pref := range prefs {
			if pref != nil {
				restored = append(restored, clonePreference(pref))
			}
		}
		if len(restored) > 0 {
			e.prefs[userID] = restored
		}
	}

	e.patterns = make(map[string]*Pattern, len(snap.Patterns))
	e.patternOrder = e.patternOrder[:0]
	for _, pat := range snap.Patterns {
		if pat == nil || pat.ID == "" {
			continue
		}
		e.patterns[pat.ID] = clonePattern(pat)
		e.patternOrder = append(e.patternOrder, pat.ID)
	}

	e.applyConfigLocked(snap.Config)

	e.logger.Info("memory snapshot imported",
		"team", e.team,
		"snapshot_id", snap.SnapshotID,
		"patterns", len(e.patterns),
	)
	return nil
}

// Configuration keys recognized in snapshots and the external config
// mapping.
const (
	cfgMaxShortTermItems       = "max_short_term_items"
	cfgMaxLongTermItems        = "max_long_term_items"
	cfgMaxEpisodicItems        = "max_episodic_items"
	cfgMaxSemanticItems        = "max_semantic_items"
	cfgShortTermRetentionHours = "short_term_retention_hours"
	cfgLongTermRetentionDays   = "long_term_retention_days"
	cfgMinPatternConfidence    = "min_pattern_confidence"
	cfgPatternLearningEnabled  = "pattern_learning_enabled"
)

func configToMap(cfg *config.MemoryConfig) map[string]any {
	return map[string]any{
		cfgMaxShortTermItems:       cfg.MaxShortTermItems,
		cfgMaxLongTermItems:        cfg.MaxLongTermItems,
		cfgMaxEpisodicItems:        cfg.MaxEpisodicItems,
		cfgMaxSemanticItems:        cfg.MaxSemanticItems,
		cfgShortTermRetentionHours: cfg.ShortTermRetentionHours,
		cfgLongTermRetentionDays:   cfg.LongTermRetentionDays,
		cfgMinPatternConfidence:    cfg.MinPatternConfidence,
		cfgPatternLearningEnabled:  cfg.PatternLearningEnabled,
	}
}

// applyConfigLocked merges recognized config keys into the engine config.
// Numbers arrive as float64 after a JSON round trip, so values are coerced.
func (e *Engine) applyConfigLocked(m map[string]any) {
	for key, value := range m {
		switch key {
		case cfgMaxShortTermItems:
			if n, ok := asInt(value); ok {
				e.cfg.MaxShortTermItems = n
			}
		case cfgMaxLongTermItems:
			if n, ok := asInt(value); ok {
				e.cfg.MaxLongTermItems = n
			}
		case cfgMaxEpisodicItems:
			if n, ok := asInt(value); ok {
				e.cfg.MaxEpisodicItems = n
			}
		case cfgMaxSemanticItems:
			if n, ok := asInt(value); ok {
				e.cfg.MaxSemanticItems = n
			}
		case cfgShortTermRetentionHours:
			if n, ok := asInt(value); ok {
				e.cfg.ShortTermRetentionHours = n
			}
		case cfgLongTermRetentionDays:
			if n, ok := asInt(value); ok {
				e.cfg.LongTermRetentionDays = n
			}
		case cfgMinPatternConfidence:
			if f, ok := asFloat(value); ok {
				e.cfg.MinPatternConfidence = f
			}
		case cfgPatternLearningEnabled:
			if b, ok := value.(bool); ok {
				e.cfg.PatternLearningEnabled = b
			}
		}
	}
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}
