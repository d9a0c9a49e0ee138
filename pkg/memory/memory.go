// Package memory implements the contextual memory engine for Rostermind.
// It keeps interaction history in four capacity-bounded tiers, learns
// per-user preferences, and learns request/response patterns with an
// empirically tracked success rate.
package memory

import (
	"errors"
)

// Sentinel errors for the memory engine.
var (
	ErrInvalidTier    = errors.New("memory: invalid tier")
	ErrInvalidContent = errors.New("memory: content value kind not supported")
	ErrNilSnapshot    = errors.New("memory: nil snapshot")
	ErrUnknownTier    = errors.New("memory: snapshot references unknown tier")
	ErrInvalidTeamID  = errors.New("memory: invalid team ID")
)

// Tier identifies one of the four memory partitions. Each tier has its own
// capacity and eviction policy. Tiers are persisted by name, never by
// ordinal, so new tiers can be added without breaking old snapshots.
type Tier string

const (
	TierShortTerm Tier = "short_term"
	TierLongTerm  Tier = "long_term"
	TierEpisodic  Tier = "episodic"
	TierSemantic  Tier = "semantic"
)

// AllTiers lists the tiers in their canonical scan order.
var AllTiers = []Tier{TierShortTerm, TierLongTerm, TierEpisodic, TierSemantic}

// Valid reports whether t names a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierShortTerm, TierLongTerm, TierEpisodic, TierSemantic:
		return true
	}
	return false
}

// ParseTier converts a string into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", ErrUnknownTier
	}
	return t, nil
}

// engineLogger is the minimal logger interface used by the engine.
type engineLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopLogger is a no-op logger.
type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

// Recorder receives engine-level events for metrics export. All methods
// must be cheap and non-blocking; the engine calls them while holding its
// lock.
type Recorder interface {
	RecordStore(team string, tier Tier)
	RecordRetrieve(team string, results int)
	RecordEviction(team string, tier Tier, count int)
	SetTierSize(team string, tier Tier, size int)
}

// nopRecorder discards all events.
type nopRecorder struct{}

func (nopRecorder) RecordStore(string, Tier)        {}
func (nopRecorder) RecordRetrieve(string, int)      {}
func (nopRecorder) RecordEviction(string, Tier, int) {}
func (nopRecorder) SetTierSize(string, Tier, int)   {}
