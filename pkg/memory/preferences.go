package memory

// LearnPreference records an observed user preference. An existing
// (user, type) entry absorbs the observation: the value is overwritten,
// the confidence accumulates (capped at 1.0), and the usage count grows.
// A first observation inserts a fresh entry. When learning is disabled in
// the configuration this is a no-op.
func (e *Engine) LearnPreference(userID, prefType string, value any, confidence float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cfg.PatternLearningEnabled {
		return
	}

	now := e.now()
	confidence = clamp01(confidence)

	for _, pref := range e.prefs[userID] {
		if pref.Type != prefType {
			continue
		}
		pref.Value = value
		pref.Confidence = clamp01(pref.Confidence + confidence)
		pref.UsageCount++
		pref.LastUpdatedAt = now
		return
	}

	e.prefs[userID] = append(e.prefs[userID], &Preference{
		UserID:        userID,
		Type:          prefType,
		Value:         value,
		Confidence:    confidence,
		LastUpdatedAt: now,
		UsageCount:    1,
	})
}

// Preferences returns the user's learned preferences in insertion order.
func (e *Engine) Preferences(userID string) []*Preference {
	e.mu.Lock()
	defer e.mu.Unlock()

	prefs := e.prefs[userID]
	out := make([]*Preference, 0, len(prefs))
	for _, pref := range prefs {
		out = append(out, clonePreference(pref))
	}
	return out
}
