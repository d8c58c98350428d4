// Package store provides a path-addressed document store in the style of a
// realtime database: JSON-like values keyed by slash-separated paths, with
// one-level child queries. Writes are atomic per path only; nothing here is
// transactional across paths.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured is returned by write operations when no backing
	// store is available.
	ErrNotConfigured = errors.New("store: not configured")

	// ErrInvalidPath is returned for empty or malformed paths.
	ErrInvalidPath = errors.New("store: invalid path")
)

// Store is the narrow contract the rest of the system depends on.
// Get on a missing path returns (nil, nil); read paths degrade to empty.
type Store interface {
	// Get returns the value at path: a map for interior nodes, or a
	// scalar/list for leaves. Missing paths yield nil.
	Get(ctx context.Context, path string) (any, error)

	// Set replaces the entire subtree at path with value.
	Set(ctx context.Context, path string, value any) error

	// Update merges the partial map into the map value at path,
	// creating it if absent.
	Update(ctx context.Context, path string, partial map[string]any) error

	// Delete removes the subtree at path. Deleting a missing path is a no-op.
	Delete(ctx context.Context, path string) error

	// OrderByChildEqualTo returns the children of path whose child field
	// equals value, keyed by child name. Only map children are considered.
	OrderByChildEqualTo(ctx context.Context, path, field string, value any) (map[string]map[string]any, error)
}

func splitPath(path string) ([]string, error) {
	cleaned := strings.Trim(strings.TrimSpace(path), "/")
	if cleaned == "" {
		return nil, ErrInvalidPath
	}
	parts := strings.Split(cleaned, "/")
	for _, p := range parts {
		if p == "" {
			return nil, ErrInvalidPath
		}
	}
	return parts, nil
}

// Join builds a path from segments, skipping empty ones.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(strings.TrimSpace(s), "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// normalize round-trips a value through JSON so stored data has a uniform
// shape (map[string]any, []any, string, float64, bool) regardless of the
// caller's concrete types.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("store: value not serializable: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("store: value not serializable: %w", err)
	}
	return out, nil
}

// valuesEqual compares JSON-shaped values loosely, so int(5) written by a
// caller matches the float64(5) that comes back from decoding.
func valuesEqual(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// filterChildren applies the OrderByChildEqualTo semantics to an assembled
// interior node.
func filterChildren(node any, field string, value any) map[string]map[string]any {
	result := make(map[string]map[string]any)
	m, ok := node.(map[string]any)
	if !ok {
		return result
	}
	for name, child := range m {
		childMap, ok := child.(map[string]any)
		if !ok {
			continue
		}
		if got, present := childMap[field]; present && valuesEqual(got, value) {
			result[name] = childMap
		}
	}
	return result
}
