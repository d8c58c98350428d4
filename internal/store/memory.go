package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process implementation of Store backed by a nested
// map tree. Used in tests and when no Redis address is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	root map[string]any
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: make(map[string]any)}
}

// Get returns a copy of the value at path, or nil if absent.
func (s *MemoryStore) Get(_ context.Context, path string) (any, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	node, ok := s.lookup(parts)
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate the tree behind the lock.
	return normalize(node)
}

// Set replaces the subtree at path.
func (s *MemoryStore) Set(_ context.Context, path string, value any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	normalized, err := normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent := s.ensureParents(parts)
	if parent == nil {
		return ErrInvalidPath
	}
	leaf := parts[len(parts)-1]
	if normalized == nil {
		delete(parent, leaf)
		return nil
	}
	parent[leaf] = normalized
	return nil
}

// Update merges partial into the map at path, creating it if needed.
func (s *MemoryStore) Update(_ context.Context, path string, partial map[string]any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	normalized, err := normalize(partial)
	if err != nil {
		return err
	}
	merge, _ := normalized.(map[string]any)

	s.mu.Lock()
	defer s.mu.Unlock()

	parent := s.ensureParents(parts)
	if parent == nil {
		return ErrInvalidPath
	}
	leaf := parts[len(parts)-1]
	existing, ok := parent[leaf].(map[string]any)
	if !ok {
		existing = make(map[string]any)
		parent[leaf] = existing
	}
	for k, v := range merge {
		existing[k] = v
	}
	return nil
}

// Delete removes the subtree at path.
func (s *MemoryStore) Delete(_ context.Context, path string) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.root
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			return nil
		}
		node = child
	}
	delete(node, parts[len(parts)-1])
	return nil
}

// OrderByChildEqualTo filters the children at path by field equality.
func (s *MemoryStore) OrderByChildEqualTo(ctx context.Context, path, field string, value any) (map[string]map[string]any, error) {
	node, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return filterChildren(node, field, value), nil
}

// lookup walks the tree; caller must hold at least the read lock.
func (s *MemoryStore) lookup(parts []string) (any, bool) {
	var node any = s.root
	for _, p := range parts {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// ensureParents creates interior maps down to the parent of the leaf and
// returns it; caller must hold the write lock.
func (s *MemoryStore) ensureParents(parts []string) map[string]any {
	node := s.root
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[p] = child
		}
		node = child
	}
	return node
}
