package memory

import (
	"time"
)

// Preferences not touched for this long are dropped on cleanup, unless
// they have been used more than preferenceUsageExemption times.
const (
	preferenceMaxAge         = 30 * 24 * time.Hour
	preferenceUsageExemption = 5
)

// Patterns are pruned only when both confidence and evidence are low.
// Well-tested negative patterns and new unproven patterns are retained.
const (
	patternPruneRate  = 0.3
	patternPruneUsage = 3
)

// evictTierLocked applies the tier's retention rules and then trims to
// capacity. It returns the number of removed items. Caller holds e.mu.
func (e *Engine) evictTierLocked(tier Tier, now time.Time) int {
	ts := e.tiers[tier]
	removed := 0

	switch tier {
	case TierShortTerm:
		retention := time.Duration(e.cfg.ShortTermRetentionHours) * time.Hour
		for id, item := range ts.items {
			age := now.Sub(item.CreatedAt)
			switch {
			case age > retention && item.Importance < 0.5:
				delete(ts.items, id)
				removed++
			case item.AccessCount == 0 && age > retention+time.Hour:
				// Never-read items get one extra hour of grace.
				delete(ts.items, id)
				removed++
			}
		}

	case TierLongTerm, TierEpisodic:
		retention := time.Duration(e.cfg.LongTermRetentionDays) * 24 * time.Hour
		for id, item := range ts.items {
			if now.Sub(item.CreatedAt) > retention && item.Importance < 0.3 {
				delete(ts.items, id)
				removed++
			}
		}

	case TierSemantic:
		// Usage-proof pruning: no age check, items must earn their keep.
		for id, item := range ts.items {
			if item.AccessCount < 2 && item.Importance < 0.4 {
				delete(ts.items, id)
				removed++
			}
		}
	}

	if over := ts.len() - capacityFor(&e.cfg, tier); over > 0 {
		removed += ts.dropLowest(over)
	}

	if removed > 0 {
		e.recorder.RecordEviction(e.team, tier, removed)
	}
	e.recorder.SetTierSize(e.team, tier, ts.len())
	return removed
}

// prunePreferencesLocked drops stale, rarely-used preferences and returns
// the number removed. Users whose list becomes empty are removed entirely.
func (e *Engine) prunePreferencesLocked(now time.Time) int {
	removed := 0
	for userID, prefs := range e.prefs {
		kept := prefs[:0]
		for _, pref := range prefs {
			stale := now.Sub(pref.LastUpdatedAt) > preferenceMaxAge
			if stale && pref.UsageCount <= preferenceUsageExemption {
				removed++
				continue
			}
			kept = append(kept, pref)
		}
		if len(kept) == 0 {
			delete(e.prefs, userID)
			continue
		}
		e.prefs[userID] = kept
	}
	return removed
}

// prunePatternsLocked drops patterns that are both low-confidence and
// low-evidence, returning the number removed.
func (e *Engine) prunePatternsLocked() int {
	removed := 0
	kept := e.patternOrder[:0]
	for _, id := range e.patternOrder {
		pat := e.patterns[id]
		if pat == nil {
			continue
		}
		if pat.SuccessRate < patternPruneRate && pat.UsageCount < patternPruneUsage {
			delete(e.patterns, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	e.patternOrder = kept
	return removed
}
