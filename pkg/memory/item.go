package memory

import (
	"fmt"
	"time"
)

// Item is a single record held in one of the memory tiers.
type Item struct {
	// ID is the deterministic content hash of (tier, content). Storing
	// identical content into the same tier always yields the same ID.
	ID string `json:"id"`

	// Tier is the partition this item lives in.
	Tier Tier `json:"tier"`

	// Content is the payload. Values are restricted to strings, numbers,
	// booleans, and lists of strings so hashing and serialization stay
	// well-defined.
	Content map[string]any `json:"content"`

	// CreatedAt is the insertion timestamp.
	CreatedAt time.Time `json:"created_at"`

	// UserID is the owning user, if any.
	UserID string `json:"user_id,omitempty"`

	// ChatID is the owning chat, if any.
	ChatID string `json:"chat_id,omitempty"`

	// Importance weights retention and retrieval ordering (0.0 to 1.0).
	Importance float64 `json:"importance"`

	// AccessCount is incremented every time the item is returned by a
	// retrieval. It feeds recency-based eviction.
	AccessCount int `json:"access_count"`

	// LastAccessedAt is refreshed on every retrieval hit.
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// Tags are free-form labels matched against query tags.
	Tags []string `json:"tags,omitempty"`

	// Metadata holds auxiliary values that do not participate in identity.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Preference is a learned per-user setting. Exactly one live entry exists
// per (user, type); later observations merge into it.
type Preference struct {
	UserID        string    `json:"user_id"`
	Type          string    `json:"type"`
	Value         any       `json:"value"`
	Confidence    float64   `json:"confidence"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	UsageCount    int       `json:"usage_count"`
}

// Pattern is a learned trigger-to-response association with a running
// success rate. One entry exists per unique (type, trigger conditions).
type Pattern struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	TriggerConditions []string  `json:"trigger_conditions"`
	ResponsePattern   string    `json:"response_pattern"`
	SuccessRate       float64   `json:"success_rate"`
	UsageCount        int       `json:"usage_count"`
	LastUsedAt        time.Time `json:"last_used_at"`
	CreatedAt         time.Time `json:"created_at"`
}

// Query describes what a retrieval is looking for. Fields are matched
// against item content; Tags are matched against item tags.
type Query struct {
	Fields map[string]any `json:"fields,omitempty"`
	Tags   []string       `json:"tags,omitempty"`
}

// degenerate reports whether the query carries no selective fields: either
// empty, or only a user_id. Such queries match everything weakly so that
// owner-scoped lookups still surface results.
func (q Query) degenerate() bool {
	if len(q.Tags) > 0 {
		return false
	}
	if len(q.Fields) == 0 {
		return true
	}
	if len(q.Fields) == 1 {
		_, ok := q.Fields["user_id"]
		return ok
	}
	return false
}

// StoreOptions carries the optional attributes of a Store call.
type StoreOptions struct {
	UserID     string
	ChatID     string
	Importance float64
	Tags       []string
	Metadata   map[string]any
}

// RetrieveOptions narrows and bounds a Retrieve call.
type RetrieveOptions struct {
	// Tiers to scan. Empty means all four tiers.
	Tiers []Tier

	// UserID and ChatID restrict results to a single owner when set.
	UserID string
	ChatID string

	// Limit caps the number of results. Zero or negative means 10.
	Limit int

	// MinImportance filters out items below this importance.
	MinImportance float64
}

// Stats is a cheap aggregate over the engine state.
type Stats struct {
	TierCounts      map[Tier]int `json:"tier_counts"`
	TotalItems      int          `json:"total_items"`
	PreferenceCount int          `json:"preference_count"`
	PatternCount    int          `json:"pattern_count"`
}

// CleanupReport summarizes what a Cleanup pass removed.
type CleanupReport struct {
	Evicted            map[Tier]int `json:"evicted"`
	PreferencesDropped int          `json:"preferences_dropped"`
	PatternsDropped    int          `json:"patterns_dropped"`
}

// validateContent checks that every content value is one of the supported
// scalar kinds: string, bool, number, or list of strings.
func validateContent(content map[string]any) error {
	for key, value := range content {
		if !scalarKind(value) {
			return fmt.Errorf("%w: field %q", ErrInvalidContent, key)
		}
	}
	return nil
}

func scalarKind(v any) bool {
	switch vv := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	case []string:
		return true
	case []any:
		for _, elem := range vv {
			if _, ok := elem.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}

func cloneItem(item *Item) *Item {
	if item == nil {
		return nil
	}
	clone := *item
	if item.Content != nil {
		clone.Content = make(map[string]any, len(item.Content))
		for key, value := range item.Content {
			clone.Content[key] = value
		}
	}
	if item.Metadata != nil {
		clone.Metadata = make(map[string]any, len(item.Metadata))
		for key, value := range item.Metadata {
			clone.Metadata[key] = value
		}
	}
	if item.Tags != nil {
		clone.Tags = append([]string(nil), item.Tags...)
	}
	return &clone
}

func clonePreference(pref *Preference) *Preference {
	if pref == nil {
		return nil
	}
	clone := *pref
	return &clone
}

func clonePattern(pat *Pattern) *Pattern {
	if pat == nil {
		return nil
	}
	clone := *pat
	if pat.TriggerConditions != nil {
		clone.TriggerConditions = append([]string(nil), pat.TriggerConditions...)
	}
	return &clone
}
