package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rostermind/rostermind/pkg/memory"
)

// StoreTestSuite defines a test suite that can be run against any Store
// implementation.
type StoreTestSuite struct {
	NewStore func(t *testing.T) Store
}

// RunAllTests runs all store tests against the provided implementation.
func (s *StoreTestSuite) RunAllTests(t *testing.T) {
	t.Run("SaveAndLoad", s.TestSaveAndLoad)
	t.Run("SaveOverwrites", s.TestSaveOverwrites)
	t.Run("LoadNotFound", s.TestLoadNotFound)
	t.Run("ListTeams", s.TestListTeams)
	t.Run("DeleteSnapshot", s.TestDeleteSnapshot)
	t.Run("DeleteNotFound", s.TestDeleteNotFound)
	t.Run("ConcurrentAccess", s.TestConcurrentAccess)
}

// testSnapshot builds a snapshot with one item, one preference, and one
// pattern so round trips exercise every section.
func testSnapshot(id string) *memory.Snapshot {
	return &memory.Snapshot{
		SnapshotID: id,
		TakenAt:    time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Tiers: map[string][]*memory.Item{
			"short_term": {
				{
					ID:         "item-1",
					Tier:       memory.TierShortTerm,
					Content:    map[string]any{"message": "standup at nine"},
					CreatedAt:  time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
					UserID:     "user-1",
					Importance: 0.7,
					Tags:       []string{"schedule"},
				},
			},
			"long_term": {},
			"episodic":  {},
			"semantic":  {},
		},
		Preferences: map[string][]*memory.Preference{
			"user-1": {
				{
					UserID:        "user-1",
					Type:          "notification_time",
					Value:         "morning",
					Confidence:    0.8,
					UsageCount:    3,
					LastUpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		Patterns: []*memory.Pattern{
			{
				ID:                "pat-1",
				Type:              "scheduling",
				TriggerConditions: []string{"shift", "swap"},
				ResponsePattern:   "offer shift swap flow",
				SuccessRate:       0.9,
				UsageCount:        5,
				LastUsedAt:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
				CreatedAt:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		Config: map[string]any{
			"max_short_term_items": 100,
		},
	}
}

// TestSaveAndLoad tests the basic snapshot round trip.
func (s *StoreTestSuite) TestSaveAndLoad(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()
	snap := testSnapshot("snap-1")

	if err := store.SaveSnapshot(ctx, "team-a", snap); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	loaded, err := store.LoadSnapshot(ctx, "team-a")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.SnapshotID != snap.SnapshotID {
		t.Errorf("expected SnapshotID %s, got %s", snap.SnapshotID, loaded.SnapshotID)
	}
	if len(loaded.Tiers["short_term"]) != 1 {
		t.Fatalf("expected 1 short_term item, got %d", len(loaded.Tiers["short_term"]))
	}
	item := loaded.Tiers["short_term"][0]
	if item.ID != "item-1" {
		t.Errorf("expected item ID item-1, got %s", item.ID)
	}
	if item.Content["message"] != "standup at nine" {
		t.Errorf("unexpected item content: %v", item.Content)
	}
	if len(loaded.Preferences["user-1"]) != 1 {
		t.Errorf("expected 1 preference for user-1, got %d", len(loaded.Preferences["user-1"]))
	}
	if len(loaded.Patterns) != 1 || loaded.Patterns[0].SuccessRate != 0.9 {
		t.Errorf("unexpected patterns: %+v", loaded.Patterns)
	}
}

// TestSaveOverwrites verifies that saving replaces the previous snapshot.
func (s *StoreTestSuite) TestSaveOverwrites(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SaveSnapshot(ctx, "team-a", testSnapshot("snap-1")); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := store.SaveSnapshot(ctx, "team-a", testSnapshot("snap-2")); err != nil {
		t.Fatalf("SaveSnapshot (overwrite) failed: %v", err)
	}

	loaded, err := store.LoadSnapshot(ctx, "team-a")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.SnapshotID != "snap-2" {
		t.Errorf("expected snap-2, got %s", loaded.SnapshotID)
	}

	teams, err := store.ListTeams(ctx)
	if err != nil {
		t.Fatalf("ListTeams failed: %v", err)
	}
	if len(teams) != 1 {
		t.Errorf("expected 1 team after overwrite, got %v", teams)
	}
}

// TestLoadNotFound verifies the typed error for a missing team.
func (s *StoreTestSuite) TestLoadNotFound(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	_, err := store.LoadSnapshot(context.Background(), "ghost-team")
	if err == nil {
		t.Fatal("expected error for missing snapshot")
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError, got %T: %v", err, err)
	}
}

// TestListTeams verifies listing is complete and sorted.
func (s *StoreTestSuite) TestListTeams(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()

	teams, err := store.ListTeams(ctx)
	if err != nil {
		t.Fatalf("ListTeams failed: %v", err)
	}
	if len(teams) != 0 {
		t.Errorf("expected no teams, got %v", teams)
	}

	for _, team := range []string{"zebra", "alpha", "mid"} {
		if err := store.SaveSnapshot(ctx, team, testSnapshot("snap-"+team)); err != nil {
			t.Fatalf("SaveSnapshot(%s) failed: %v", team, err)
		}
	}

	teams, err = store.ListTeams(ctx)
	if err != nil {
		t.Fatalf("ListTeams failed: %v", err)
	}
	expected := []string{"alpha", "mid", "zebra"}
	if len(teams) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, teams)
	}
	for i := range expected {
		if teams[i] != expected[i] {
			t.Errorf("expected teams %v, got %v", expected, teams)
			break
		}
	}
}

// TestDeleteSnapshot verifies deletion removes the snapshot.
func (s *StoreTestSuite) TestDeleteSnapshot(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SaveSnapshot(ctx, "team-a", testSnapshot("snap-1")); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := store.DeleteSnapshot(ctx, "team-a"); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}
	if _, err := store.LoadSnapshot(ctx, "team-a"); err == nil {
		t.Error("expected error when loading deleted snapshot")
	}
}

// TestDeleteNotFound verifies the typed error when deleting a missing team.
func (s *StoreTestSuite) TestDeleteNotFound(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	err := store.DeleteSnapshot(context.Background(), "ghost-team")
	if err == nil {
		t.Fatal("expected error for missing snapshot")
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError, got %T: %v", err, err)
	}
}

// TestConcurrentAccess verifies the store tolerates concurrent writers and
// readers for distinct teams.
func (s *StoreTestSuite) TestConcurrentAccess(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			team := fmt.Sprintf("team-%d", n)
			if err := store.SaveSnapshot(ctx, team, testSnapshot("snap")); err != nil {
				t.Errorf("SaveSnapshot(%s) failed: %v", team, err)
				return
			}
			if _, err := store.LoadSnapshot(ctx, team); err != nil {
				t.Errorf("LoadSnapshot(%s) failed: %v", team, err)
			}
		}(i)
	}
	wg.Wait()

	teams, err := store.ListTeams(ctx)
	if err != nil {
		t.Fatalf("ListTeams failed: %v", err)
	}
	if len(teams) != 10 {
		t.Errorf("expected 10 teams, got %d", len(teams))
	}
}
