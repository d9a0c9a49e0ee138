package memory

import (
	"sort"

	"github.com/rostermind/rostermind/config"
)

// tierStore is one capacity-bounded partition, keyed by content hash.
type tierStore struct {
	tier  Tier
	items map[string]*Item
}

func newTierStore(tier Tier) *tierStore {
	return &tierStore{
		tier:  tier,
		items: make(map[string]*Item),
	}
}

func (ts *tierStore) len() int {
	return len(ts.items)
}

// all returns the live items in an arbitrary order.
func (ts *tierStore) all() []*Item {
	out := make([]*Item, 0, len(ts.items))
	for _, item := range ts.items {
		out = append(out, item)
	}
	return out
}

// dropLowest removes the n items that rank lowest by (importance,
// accessCount) and returns how many were actually removed. Ties break on
// ID so eviction is deterministic.
func (ts *tierStore) dropLowest(n int) int {
	if n <= 0 {
		return 0
	}
	candidates := ts.all()
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Importance != b.Importance {
			return a.Importance < b.Importance
		}
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
		return a.ID < b.ID
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	for _, item := range candidates[:n] {
		delete(ts.items, item.ID)
	}
	return n
}

// capacityFor returns the configured capacity of a tier.
func capacityFor(cfg *config.MemoryConfig, tier Tier) int {
	switch tier {
	case TierShortTerm:
		return cfg.MaxShortTermItems
	case TierLongTerm:
		return cfg.MaxLongTermItems
	case TierEpisodic:
		return cfg.MaxEpisodicItems
	case TierSemantic:
		return cfg.MaxSemanticItems
	default:
		return 0
	}
}
