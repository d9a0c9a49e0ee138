package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// itemID computes the deterministic identity of an item as SHA-256 over the
// RFC 8785 canonical JSON encoding of (tier, content). Canonicalization
// sorts object keys, so identical content produces the same ID regardless
// of map insertion order.
func itemID(tier Tier, content map[string]any) (string, error) {
	return canonicalHash(map[string]any{
		"tier":    string(tier),
		"content": content,
	})
}

// patternID computes the deterministic identity of a pattern from its type
// and trigger conditions.
func patternID(patternType string, triggers []string) (string, error) {
	if triggers == nil {
		triggers = []string{}
	}
	return canonicalHash(map[string]any{
		"type":     patternType,
		"triggers": triggers,
	})
}

func canonicalHash(payload map[string]any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("memory: encode hash payload: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("memory: canonicalize hash payload: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
