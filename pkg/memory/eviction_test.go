package memory

import (
	"fmt"
	"testing"
	"time"
)

func TestCleanup_ShortTermRetention(t *testing.T) {
	eng := newTestEngine(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	setClock(eng, start)

	eng.Store(map[string]any{"note": "old unimportant"}, TierShortTerm, StoreOptions{Importance: 0.2})
	eng.Store(map[string]any{"note": "old important"}, TierShortTerm, StoreOptions{Importance: 0.8})

	// Read the important item once so the never-read grace rule does not
	// apply to it.
	eng.Retrieve(Query{Fields: map[string]any{"note": "old important"}}, RetrieveOptions{})

	// Past the 24h retention window.
	setClock(eng, start.Add(26*time.Hour))
	report := eng.Cleanup()

	if report.Evicted[TierShortTerm] != 1 {
		t.Errorf("expected 1 short-term eviction, got %d", report.Evicted[TierShortTerm])
	}
	if got := eng.Stats().TierCounts[TierShortTerm]; got != 1 {
		t.Errorf("expected important item to survive, got %d items", got)
	}
}

func TestCleanup_ShortTermNeverReadGrace(t *testing.T) {
	eng := newTestEngine(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	setClock(eng, start)

	// High importance normally survives the retention window, but a
	// never-read item only gets one extra hour.
	eng.Store(map[string]any{"note": "important but never read"}, TierShortTerm, StoreOptions{Importance: 0.9})

	setClock(eng, start.Add(24*time.Hour+30*time.Minute))
	if report := eng.Cleanup(); report.Evicted[TierShortTerm] != 0 {
		t.Errorf("expected item to survive within grace, evicted %d", report.Evicted[TierShortTerm])
	}

	setClock(eng, start.Add(26*time.Hour))
	if report := eng.Cleanup(); report.Evicted[TierShortTerm] != 1 {
		t.Errorf("expected never-read item evicted past grace, evicted %d", report.Evicted[TierShortTerm])
	}
}

func TestCleanup_LongTermRetention(t *testing.T) {
	eng := newTestEngine(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	setClock(eng, start)

	eng.Store(map[string]any{"fact": "weak"}, TierLongTerm, StoreOptions{Importance: 0.2})
	eng.Store(map[string]any{"fact": "strong"}, TierLongTerm, StoreOptions{Importance: 0.5})
	eng.Store(map[string]any{"event": "weak"}, TierEpisodic, StoreOptions{Importance: 0.2})

	setClock(eng, start.Add(31*24*time.Hour))
	report := eng.Cleanup()

	if report.Evicted[TierLongTerm] != 1 {
		t.Errorf("expected 1 long-term eviction, got %d", report.Evicted[TierLongTerm])
	}
	if report.Evicted[TierEpisodic] != 1 {
		t.Errorf("expected 1 episodic eviction, got %d", report.Evicted[TierEpisodic])
	}
}

func TestCleanup_SemanticUsageProof(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"fact": "unproven"}, TierSemantic, StoreOptions{Importance: 0.2})
	eng.Store(map[string]any{"fact": "weighty"}, TierSemantic, StoreOptions{Importance: 0.7})
	eng.Store(map[string]any{"fact": "well read"}, TierSemantic, StoreOptions{Importance: 0.2})

	// Two reads exempt an item from usage-proof pruning regardless of age.
	for i := 0; i < 2; i++ {
		eng.Retrieve(Query{Fields: map[string]any{"fact": "well read"}}, RetrieveOptions{})
	}

	report := eng.Cleanup()
	if report.Evicted[TierSemantic] != 1 {
		t.Errorf("expected 1 semantic eviction, got %d", report.Evicted[TierSemantic])
	}
	if got := eng.Stats().TierCounts[TierSemantic]; got != 2 {
		t.Errorf("expected 2 survivors, got %d", got)
	}
}

func TestCleanup_TrimsToCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.MaxShortTermItems = 5
	eng := NewEngine("team-a", cfg, nil, nil)
	setClock(eng, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	// Capacity on the non-episodic tiers is enforced lazily, so the store
	// path admits more than the limit.
	for i := 0; i < 8; i++ {
		imp := float64(i) / 10
		if _, err := eng.Store(map[string]any{"n": fmt.Sprintf("item-%d", i)}, TierShortTerm, StoreOptions{Importance: imp}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}
	if got := eng.Stats().TierCounts[TierShortTerm]; got != 8 {
		t.Fatalf("expected lazy capacity, got %d items", got)
	}

	report := eng.Cleanup()
	if report.Evicted[TierShortTerm] != 3 {
		t.Errorf("expected 3 evictions to reach capacity, got %d", report.Evicted[TierShortTerm])
	}
	if got := eng.Stats().TierCounts[TierShortTerm]; got != 5 {
		t.Errorf("expected tier trimmed to 5, got %d", got)
	}

	// The lowest-importance items go first.
	items := eng.Retrieve(Query{Fields: map[string]any{"n": "item"}}, RetrieveOptions{Limit: 10})
	for _, item := range items {
		if item.Importance < 0.3 {
			t.Errorf("expected low-importance item evicted, found %v", item.Content["n"])
		}
	}
}

func TestCleanup_ShortTermOverflowByOne(t *testing.T) {
	eng := newTestEngine(t)
	setClock(eng, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	for i := 0; i < 101; i++ {
		if _, err := eng.Store(map[string]any{"n": fmt.Sprintf("item-%d", i)}, TierShortTerm, StoreOptions{Importance: 0.5}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	report := eng.Cleanup()
	if report.Evicted[TierShortTerm] != 1 {
		t.Errorf("expected exactly 1 eviction, got %d", report.Evicted[TierShortTerm])
	}
	if got := eng.Stats().TierCounts[TierShortTerm]; got != 100 {
		t.Errorf("expected tier at capacity 100, got %d", got)
	}
}

func TestCleanup_PrunesPreferences(t *testing.T) {
	eng := newTestEngine(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	setClock(eng, start)

	eng.LearnPreference("alice", "notification", "quiet", 0.5)

	// Heavily used preferences survive staleness.
	for i := 0; i < 6; i++ {
		eng.LearnPreference("bob", "meeting_time", "morning", 0.1)
	}

	setClock(eng, start.Add(31*24*time.Hour))
	report := eng.Cleanup()

	if report.PreferencesDropped != 1 {
		t.Errorf("expected 1 preference dropped, got %d", report.PreferencesDropped)
	}
	if got := eng.Preferences("alice"); len(got) != 0 {
		t.Errorf("expected alice's stale preference dropped, got %d", len(got))
	}
	if got := eng.Preferences("bob"); len(got) != 1 {
		t.Errorf("expected bob's well-used preference kept, got %d", len(got))
	}
}

func TestCleanup_PrunesPatterns(t *testing.T) {
	eng := newTestEngine(t)

	// Low confidence and low evidence: pruned.
	eng.LearnPattern("scheduling", []string{"standup"}, "propose 9am", false)

	// Low confidence but well tested: kept as a proven negative.
	for i := 0; i < 4; i++ {
		eng.LearnPattern("escalation", []string{"incident"}, "page on-call", false)
	}

	// New and successful: kept.
	eng.LearnPattern("reporting", []string{"weekly"}, "send summary", true)

	report := eng.Cleanup()
	if report.PatternsDropped != 1 {
		t.Errorf("expected 1 pattern dropped, got %d", report.PatternsDropped)
	}
	if got := eng.Stats().PatternCount; got != 2 {
		t.Errorf("expected 2 surviving patterns, got %d", got)
	}
}

func TestCleanup_AdvisoryWhenWithinBounds(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"fresh": "item"}, TierShortTerm, StoreOptions{Importance: 0.5})

	report := eng.Cleanup()
	for tier, n := range report.Evicted {
		if n != 0 {
			t.Errorf("expected no evictions for tier %s, got %d", tier, n)
		}
	}
	if report.PreferencesDropped != 0 || report.PatternsDropped != 0 {
		t.Errorf("expected nothing pruned, got %+v", report)
	}
}
