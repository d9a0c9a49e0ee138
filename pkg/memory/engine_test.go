package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/rostermind/rostermind/config"
)

func testConfig() config.MemoryConfig {
	return config.MemoryConfig{
		MaxShortTermItems:       100,
		MaxLongTermItems:        1000,
		MaxEpisodicItems:        500,
		MaxSemanticItems:        2000,
		ShortTermRetentionHours: 24,
		LongTermRetentionDays:   30,
		MinPatternConfidence:    0.6,
		PatternLearningEnabled:  true,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine("team-a", testConfig(), nil, nil)
}

func TestStore_DeterministicID(t *testing.T) {
	eng := newTestEngine(t)

	id1, err := eng.Store(map[string]any{"a": "1", "b": "2"}, TierShortTerm, StoreOptions{})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	id2, err := eng.Store(map[string]any{"b": "2", "a": "1"}, TierShortTerm, StoreOptions{})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("identical content produced different IDs: %s vs %s", id1, id2)
	}
	if got := eng.Stats().TotalItems; got != 1 {
		t.Errorf("expected upsert, got %d items", got)
	}
}

func TestStore_SameContentDifferentTier(t *testing.T) {
	eng := newTestEngine(t)

	content := map[string]any{"fact": "standup at nine"}
	id1, _ := eng.Store(content, TierShortTerm, StoreOptions{})
	id2, _ := eng.Store(content, TierSemantic, StoreOptions{})
	if id1 == id2 {
		t.Error("expected tier to participate in item identity")
	}
	if got := eng.Stats().TotalItems; got != 2 {
		t.Errorf("expected 2 items, got %d", got)
	}
}

func TestStore_InvalidTier(t *testing.T) {
	eng := newTestEngine(t)

	if _, err := eng.Store(map[string]any{"a": "1"}, Tier("working_set"), StoreOptions{}); err != ErrInvalidTier {
		t.Errorf("expected ErrInvalidTier, got %v", err)
	}
}

func TestStore_InvalidContent(t *testing.T) {
	eng := newTestEngine(t)

	bad := map[string]any{"nested": map[string]any{"x": 1}}
	if _, err := eng.Store(bad, TierShortTerm, StoreOptions{}); err == nil {
		t.Error("expected error for nested content value")
	}

	// Lists of strings are allowed, mixed lists are not.
	if _, err := eng.Store(map[string]any{"tags": []string{"a", "b"}}, TierShortTerm, StoreOptions{}); err != nil {
		t.Errorf("expected string list to be accepted: %v", err)
	}
	if _, err := eng.Store(map[string]any{"mixed": []any{"a", 1}}, TierShortTerm, StoreOptions{}); err == nil {
		t.Error("expected mixed list to be rejected")
	}
}

func TestStore_ImportanceClamped(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"k": "v"}, TierShortTerm, StoreOptions{Importance: 2.5})
	items := eng.Retrieve(Query{}, RetrieveOptions{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Importance != 1.0 {
		t.Errorf("expected importance clamped to 1.0, got %v", items[0].Importance)
	}
}

func TestStore_EpisodicEvictsBeforeInsert(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEpisodicItems = 3
	eng := NewEngine("team-a", cfg, nil, nil)

	for i := 0; i < 3; i++ {
		imp := 0.2 + float64(i)*0.2
		if _, err := eng.Store(map[string]any{"event": fmt.Sprintf("e%d", i)}, TierEpisodic, StoreOptions{Importance: imp}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	// Inserting a fourth item evicts the lowest-ranked one first, so the
	// tier never exceeds capacity.
	if _, err := eng.Store(map[string]any{"event": "e3"}, TierEpisodic, StoreOptions{Importance: 0.9}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got := eng.Stats().TierCounts[TierEpisodic]; got != 3 {
		t.Errorf("expected episodic tier at capacity 3, got %d", got)
	}

	items := eng.Retrieve(Query{}, RetrieveOptions{Tiers: []Tier{TierEpisodic}})
	for _, item := range items {
		if item.Content["event"] == "e0" {
			t.Error("expected lowest-importance item e0 to be evicted")
		}
	}
}

func TestStore_EpisodicUpsertDoesNotEvict(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEpisodicItems = 2
	eng := NewEngine("team-a", cfg, nil, nil)

	eng.Store(map[string]any{"event": "a"}, TierEpisodic, StoreOptions{})
	eng.Store(map[string]any{"event": "b"}, TierEpisodic, StoreOptions{})
	// Re-storing existing content at capacity overwrites in place.
	eng.Store(map[string]any{"event": "b"}, TierEpisodic, StoreOptions{Importance: 0.9})

	if got := eng.Stats().TierCounts[TierEpisodic]; got != 2 {
		t.Errorf("expected 2 items after upsert, got %d", got)
	}
}

func TestRetrieve_OrderingAndLimit(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"topic": "deploy", "n": "1"}, TierShortTerm, StoreOptions{Importance: 0.3})
	eng.Store(map[string]any{"topic": "deploy", "n": "2"}, TierShortTerm, StoreOptions{Importance: 0.9})
	eng.Store(map[string]any{"topic": "deploy", "n": "3"}, TierShortTerm, StoreOptions{Importance: 0.6})

	items := eng.Retrieve(Query{Fields: map[string]any{"topic": "deploy"}}, RetrieveOptions{})
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Importance != 0.9 || items[1].Importance != 0.6 || items[2].Importance != 0.3 {
		t.Errorf("expected importance-descending order, got %v, %v, %v",
			items[0].Importance, items[1].Importance, items[2].Importance)
	}

	limited := eng.Retrieve(Query{Fields: map[string]any{"topic": "deploy"}}, RetrieveOptions{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("expected limit 2, got %d", len(limited))
	}
}

func TestRetrieve_AccessCountTieBreak(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"topic": "deploy", "n": "cold"}, TierShortTerm, StoreOptions{Importance: 0.5})
	eng.Store(map[string]any{"topic": "deploy", "n": "hot"}, TierShortTerm, StoreOptions{Importance: 0.5})

	// Touch the hot item a few times.
	query := Query{Fields: map[string]any{"n": "hot"}}
	for i := 0; i < 3; i++ {
		if got := eng.Retrieve(query, RetrieveOptions{}); len(got) != 1 {
			t.Fatalf("expected 1 match, got %d", len(got))
		}
	}

	items := eng.Retrieve(Query{Fields: map[string]any{"topic": "deploy"}}, RetrieveOptions{})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Content["n"] != "hot" {
		t.Errorf("expected higher access count first, got %v", items[0].Content["n"])
	}
}

func TestRetrieve_MutatesAccessStats(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"topic": "deploy"}, TierShortTerm, StoreOptions{})

	first := eng.Retrieve(Query{Fields: map[string]any{"topic": "deploy"}}, RetrieveOptions{})
	if len(first) != 1 || first[0].AccessCount != 1 {
		t.Fatalf("expected access count 1 on first read, got %+v", first)
	}
	second := eng.Retrieve(Query{Fields: map[string]any{"topic": "deploy"}}, RetrieveOptions{})
	if second[0].AccessCount != 2 {
		t.Errorf("expected access count 2 on second read, got %d", second[0].AccessCount)
	}
}

func TestRetrieve_OwnerFilters(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"note": "alice note"}, TierShortTerm, StoreOptions{UserID: "alice", ChatID: "c1"})
	eng.Store(map[string]any{"note": "bob note"}, TierShortTerm, StoreOptions{UserID: "bob", ChatID: "c2"})

	items := eng.Retrieve(Query{Fields: map[string]any{"note": "note"}}, RetrieveOptions{UserID: "alice"})
	if len(items) != 1 || items[0].UserID != "alice" {
		t.Errorf("expected only alice's item, got %+v", items)
	}

	items = eng.Retrieve(Query{Fields: map[string]any{"note": "note"}}, RetrieveOptions{ChatID: "c2"})
	if len(items) != 1 || items[0].ChatID != "c2" {
		t.Errorf("expected only chat c2 item, got %+v", items)
	}
}

func TestRetrieve_MinImportance(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"topic": "deploy", "n": "low"}, TierShortTerm, StoreOptions{Importance: 0.2})
	eng.Store(map[string]any{"topic": "deploy", "n": "high"}, TierShortTerm, StoreOptions{Importance: 0.8})

	items := eng.Retrieve(Query{Fields: map[string]any{"topic": "deploy"}}, RetrieveOptions{MinImportance: 0.5})
	if len(items) != 1 || items[0].Content["n"] != "high" {
		t.Errorf("expected only the high-importance item, got %+v", items)
	}
}

func TestRetrieve_DegenerateQueryMatchesWeakly(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"note": "anything"}, TierShortTerm, StoreOptions{UserID: "alice"})

	// An empty query would score every item 0.1, below the relevance
	// floor, but degenerate queries bypass the floor.
	items := eng.Retrieve(Query{}, RetrieveOptions{})
	if len(items) != 1 {
		t.Errorf("expected empty query to match, got %d items", len(items))
	}

	items = eng.Retrieve(Query{Fields: map[string]any{"user_id": "alice"}}, RetrieveOptions{UserID: "alice"})
	if len(items) != 1 {
		t.Errorf("expected user_id-only query to match, got %d items", len(items))
	}
}

func TestRetrieve_IrrelevantFiltered(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"topic": "vacation planning"}, TierShortTerm, StoreOptions{})

	items := eng.Retrieve(Query{Fields: map[string]any{"topic": "database migration"}}, RetrieveOptions{})
	if len(items) != 0 {
		t.Errorf("expected no matches for unrelated query, got %d", len(items))
	}
}

func TestRetrieve_ReturnsClones(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"topic": "deploy"}, TierShortTerm, StoreOptions{})

	items := eng.Retrieve(Query{Fields: map[string]any{"topic": "deploy"}}, RetrieveOptions{})
	items[0].Content["topic"] = "mutated"

	again := eng.Retrieve(Query{Fields: map[string]any{"topic": "deploy"}}, RetrieveOptions{})
	if len(again) != 1 {
		t.Fatalf("expected stored item untouched, got %d results", len(again))
	}
	if again[0].Content["topic"] != "deploy" {
		t.Error("mutating a retrieval result leaked into engine state")
	}
}

func TestConversationContext(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"msg": "hello"}, TierShortTerm, StoreOptions{UserID: "alice", ChatID: "c1"})
	eng.Store(map[string]any{"msg": "standup recap"}, TierEpisodic, StoreOptions{UserID: "alice", ChatID: "c1"})
	eng.Store(map[string]any{"msg": "long term fact"}, TierLongTerm, StoreOptions{UserID: "alice", ChatID: "c1"})
	eng.Store(map[string]any{"msg": "other user"}, TierShortTerm, StoreOptions{UserID: "bob", ChatID: "c1"})

	items := eng.ConversationContext("alice", "c1", 10)
	if len(items) != 2 {
		t.Fatalf("expected 2 items from short-term and episodic tiers, got %d", len(items))
	}
	for _, item := range items {
		if item.UserID != "alice" {
			t.Errorf("expected only alice's items, got user %q", item.UserID)
		}
		if item.Tier == TierLongTerm || item.Tier == TierSemantic {
			t.Errorf("unexpected tier %s in conversation context", item.Tier)
		}
	}
}

func TestStats(t *testing.T) {
	eng := newTestEngine(t)

	eng.Store(map[string]any{"a": "1"}, TierShortTerm, StoreOptions{})
	eng.Store(map[string]any{"b": "2"}, TierShortTerm, StoreOptions{})
	eng.Store(map[string]any{"c": "3"}, TierSemantic, StoreOptions{})
	eng.LearnPreference("alice", "notification", "quiet", 0.5)
	eng.LearnPattern("scheduling", []string{"standup"}, "propose 9am", true)

	stats := eng.Stats()
	if stats.TotalItems != 3 {
		t.Errorf("expected 3 items, got %d", stats.TotalItems)
	}
	if stats.TierCounts[TierShortTerm] != 2 || stats.TierCounts[TierSemantic] != 1 {
		t.Errorf("unexpected tier counts: %v", stats.TierCounts)
	}
	if stats.PreferenceCount != 1 {
		t.Errorf("expected 1 preference, got %d", stats.PreferenceCount)
	}
	if stats.PatternCount != 1 {
		t.Errorf("expected 1 pattern, got %d", stats.PatternCount)
	}
}

func TestEngine_Recorder(t *testing.T) {
	rec := &captureRecorder{}
	eng := NewEngine("team-a", testConfig(), nil, rec)

	eng.Store(map[string]any{"a": "1"}, TierShortTerm, StoreOptions{})
	eng.Retrieve(Query{}, RetrieveOptions{})

	if rec.stores != 1 {
		t.Errorf("expected 1 recorded store, got %d", rec.stores)
	}
	if rec.retrievals != 1 {
		t.Errorf("expected 1 recorded retrieval, got %d", rec.retrievals)
	}
	if rec.tierSizes[TierShortTerm] != 1 {
		t.Errorf("expected tier size 1, got %d", rec.tierSizes[TierShortTerm])
	}
}

type captureRecorder struct {
	stores     int
	retrievals int
	evictions  int
	tierSizes  map[Tier]int
}

func (r *captureRecorder) RecordStore(team string, tier Tier) { r.stores++ }
func (r *captureRecorder) RecordRetrieve(team string, n int)  { r.retrievals++ }
func (r *captureRecorder) RecordEviction(team string, tier Tier, n int) {
	r.evictions += n
}
func (r *captureRecorder) SetTierSize(team string, tier Tier, size int) {
	if r.tierSizes == nil {
		r.tierSizes = make(map[Tier]int)
	}
	r.tierSizes[tier] = size
}

// setClock pins the engine clock for retention tests.
func setClock(eng *Engine, at time.Time) {
	eng.mu.Lock()
	eng.now = func() time.Time { return at }
	eng.mu.Unlock()
}
