package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

// Backend persists the cache contents between runs.
//
// Load returns the persisted entries in insertion order. Missing state is not
// an error: a backend that has never been written returns (nil, nil).
// Save replaces the persisted state with entries.
//
// Errors from either method are never surfaced to cache callers; the cache
// logs them and carries on with whatever it has in memory.
type Backend interface {
	Name() string
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// Entry is one persisted key/value pair, encoded as [key, [subsidy, totalfee]].
type Entry struct {
	Key   string
	Stats domain.BlockStats
}

// HeightKey returns the canonical cache key for a block height.
func HeightKey(height uint64) string {
	return strconv.FormatUint(height, 10)
}

// ParseHeightKey parses a canonical cache key back to a height.
func ParseHeightKey(key string) (uint64, error) {
	h, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cache key %q: %w", key, err)
	}
	if HeightKey(h) != key {
		return 0, fmt.Errorf("invalid cache key %q: not canonical", key)
	}
	return h, nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Key, e.Stats})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode cache entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode cache entry: expected 2 values, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Key); err != nil {
		return fmt.Errorf("decode cache key: %w", err)
	}
	if _, err := ParseHeightKey(e.Key); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Stats)
}

// EncodeEntries serializes entries as a JSON array of pairs.
func EncodeEntries(entries []Entry, indent bool) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	if indent {
		return json.MarshalIndent(entries, "", "  ")
	}
	return json.Marshal(entries)
}

// DecodeEntries parses the JSON array written by EncodeEntries.
func DecodeEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cache entries: %w", err)
	}
	return entries, nil
}
