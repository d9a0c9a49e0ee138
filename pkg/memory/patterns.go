package memory

import (
	"encoding/json"
	"sort"
	"strings"
)

// LearnPattern records one observation of a trigger-to-response pattern.
// The success rate is an exact running mean with equal weight per
// observation, not an exponential decay. When learning is disabled in the
// configuration this is a no-op and returns an empty ID.
func (e *Engine) LearnPattern(patternType string, triggers []string, response string, success bool) (string, error) {
	id, err := patternID(patternType, triggers)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cfg.PatternLearningEnabled {
		return "", nil
	}

	now := e.now()
	observed := 0.0
	if success {
		observed = 1.0
	}

	if pat, ok := e.patterns[id]; ok {
		pat.UsageCount++
		n := float64(pat.UsageCount)
		pat.SuccessRate = (pat.SuccessRate*(n-1) + observed) / n
		pat.ResponsePattern = response
		pat.LastUsedAt = now
		return id, nil
	}

	e.patterns[id] = &Pattern{
		ID:                id,
		Type:              patternType,
		TriggerConditions: append([]string(nil), triggers...),
		ResponsePattern:   response,
		SuccessRate:       observed,
		UsageCount:        1,
		LastUsedAt:        now,
		CreatedAt:         now,
	}
	e.patternOrder = append(e.patternOrder, id)
	return id, nil
}

// RelevantPatterns returns the patterns whose success rate clears the
// configured confidence cutoff and whose trigger conditions are all
// present, case-insensitively, in the stringified context. Results are
// sorted by (successRate desc, usageCount desc).
func (e *Engine) RelevantPatterns(context map[string]any) []*Pattern {
	haystack := stringifyContext(context)

	e.mu.Lock()
	defer e.mu.Unlock()

	var matched []*Pattern
	for _, id := range e.patternOrder {
		pat := e.patterns[id]
		if pat == nil || pat.SuccessRate < e.cfg.MinPatternConfidence {
			continue
		}
		if !triggersMatch(pat.TriggerConditions, haystack) {
			continue
		}
		matched = append(matched, clonePattern(pat))
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.SuccessRate != b.SuccessRate {
			return a.SuccessRate > b.SuccessRate
		}
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		return a.ID < b.ID
	})
	return matched
}

// triggersMatch requires every trigger condition to appear in the
// haystack (logical AND).
func triggersMatch(triggers []string, haystack string) bool {
	for _, trigger := range triggers {
		if !strings.Contains(haystack, strings.ToLower(trigger)) {
			return false
		}
	}
	return true
}

// stringifyContext flattens a context map into a lowercase string for
// substring matching. JSON encoding sorts map keys, so the result is
// deterministic.
func stringifyContext(context map[string]any) string {
	raw, err := json.Marshal(context)
	if err != nil {
		return ""
	}
	return strings.ToLower(string(raw))
}
