package memory

import (
	"fmt"
	"strings"
)

// Scoring weights. A non-degenerate query must score strictly above
// relevanceFloor for the item to be included in retrieval results.
const (
	weightExactField  = 0.5
	weightFieldSubstr = 0.3
	weightSharedTag   = 0.2
	weightCrossField  = 0.2
	degenerateScore   = 0.1
	relevanceFloor    = 0.3
)

// Score computes the heuristic relevance of an item to a query, in [0, 1].
//
// Per query field: +0.5 for an exact content match, or +0.3 for a
// case-insensitive substring match on the same field. Each shared tag adds
// +0.2. Each query string value found as a substring of any content value
// adds +0.2, once per query value. A degenerate query (empty, or only a
// user_id field) scores a flat 0.1 so owner-only lookups still match.
func Score(item *Item, query Query) float64 {
	if query.degenerate() {
		return degenerateScore
	}

	score := 0.0
	for key, queryValue := range query.Fields {
		contentValue, present := item.Content[key]
		if present && valuesEqual(contentValue, queryValue) {
			score += weightExactField
			continue
		}
		queryStr, ok := queryValue.(string)
		if !ok {
			continue
		}
		if present {
			if contentStr, ok := contentValue.(string); ok &&
				strings.Contains(strings.ToLower(contentStr), strings.ToLower(queryStr)) {
				score += weightFieldSubstr
			}
		}
	}

	if len(query.Tags) > 0 && len(item.Tags) > 0 {
		itemTags := make(map[string]struct{}, len(item.Tags))
		for _, tag := range item.Tags {
			itemTags[tag] = struct{}{}
		}
		for _, tag := range query.Tags {
			if _, ok := itemTags[tag]; ok {
				score += weightSharedTag
			}
		}
	}

	// Cross-field fuzzy pass: a query string anywhere in the content counts
	// once per query value.
	for _, queryValue := range query.Fields {
		queryStr, ok := queryValue.(string)
		if !ok || queryStr == "" {
			continue
		}
		needle := strings.ToLower(queryStr)
		for _, contentValue := range item.Content {
			if strings.Contains(strings.ToLower(stringify(contentValue)), needle) {
				score += weightCrossField
				break
			}
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// valuesEqual compares scalar content values. Numbers compare by value so
// an int 3 equals a float64 3 that survived a JSON round trip.
func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return stringify(a) == stringify(b) && fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
