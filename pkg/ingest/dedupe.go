package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// KeyFunc extracts the dedup key from a record. An empty string means the
// record carries no key and is never considered a duplicate.
type KeyFunc[T any] func(T) string

// ExistingKeyLookup answers which of the given keys already exist for a
// client in persisted storage. Callers pass at most one chunk of keys per
// call; chunking happens in Dedupe.
type ExistingKeyLookup interface {
	ExistingKeys(ctx context.Context, clientID uuid.UUID, keys []string) (map[string]struct{}, error)
}

// DedupeBatch removes intra-batch duplicates, preserving order. The first
// occurrence of each key wins; keyless records always pass through.
func DedupeBatch[T any](records []T, key KeyFunc[T]) []T {
	seen := make(map[string]struct{}, len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		k := key(r)
		if k == "" {
			out = append(out, r)
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Dedupe filters records down to those unique both within the batch and
// against keys already persisted for the client. The existence check is
// issued in chunks of at most chunkSize keys, sequentially, to respect query
// parameter limits.
func Dedupe[T any](ctx context.Context, records []T, key KeyFunc[T], lookup ExistingKeyLookup, clientID uuid.UUID, chunkSize int) ([]T, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("dedupe chunk size must be positive, got %d", chunkSize)
	}

	unique := DedupeBatch(records, key)

	var keys []string
	for _, r := range unique {
		if k := key(r); k != "" {
			keys = append(keys, k)
		}
	}

	existing := make(map[string]struct{})
	for start := 0; start < len(keys); start += chunkSize {
		end := start + chunkSize
		if end > len(keys) {
			end = len(keys)
		}
		found, err := lookup.ExistingKeys(ctx, clientID, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to check existing keys: %w", err)
		}
		for k := range found {
			existing[k] = struct{}{}
		}
	}

	if len(existing) == 0 {
		return unique, nil
	}

	out := make([]T, 0, len(unique))
	for _, r := range unique {
		k := key(r)
		if k != "" {
			if _, dup := existing[k]; dup {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}
