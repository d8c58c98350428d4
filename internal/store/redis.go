package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix  = "doc:"
	kidsKeyPrefix = "kids:"
)

// RedisStore persists the document tree in Redis. Each Set writes the whole
// subtree JSON at doc:{path} and registers the path with its ancestors'
// child sets so interior nodes can be assembled on read.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("store: redis client cannot be nil")
	}
	return &RedisStore{client: client}
}

// NewRedisClient builds a go-redis client from address/password/TLS settings.
func NewRedisClient(addr, password string, useTLS bool) *redis.Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
	}
	if useTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

func docKey(path string) string  { return docKeyPrefix + path }
func kidsKey(path string) string { return kidsKeyPrefix + path }

// Get returns the document at path, assembling interior nodes from child sets.
func (s *RedisStore) Get(ctx context.Context, path string) (any, error) {
	if _, err := splitPath(path); err != nil {
		return nil, err
	}
	return s.get(ctx, strings.Trim(path, "/"))
}

func (s *RedisStore) get(ctx context.Context, path string) (any, error) {
	data, err := s.client.Get(ctx, docKey(path)).Bytes()
	if err == nil {
		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("store: corrupt document at %s: %w", path, err)
		}
		return value, nil
	}
	if err != redis.Nil {
		return nil, fmt.Errorf("store: failed to read %s: %w", path, err)
	}

	children, err := s.client.SMembers(ctx, kidsKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: failed to list children of %s: %w", path, err)
	}
	if len(children) == 0 {
		return nil, nil
	}
	node := make(map[string]any, len(children))
	for _, name := range children {
		child, err := s.get(ctx, path+"/"+name)
		if err != nil {
			return nil, err
		}
		if child != nil {
			node[name] = child
		}
	}
	if len(node) == 0 {
		return nil, nil
	}
	return node, nil
}

// Set replaces the subtree at path.
func (s *RedisStore) Set(ctx context.Context, path string, value any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	cleaned := strings.Join(parts, "/")

	if err := s.deleteSubtree(ctx, cleaned); err != nil {
		return err
	}
	if value == nil {
		return s.unregister(ctx, parts)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: value not serializable: %w", err)
	}
	if err := s.client.Set(ctx, docKey(cleaned), data, 0).Err(); err != nil {
		return fmt.Errorf("store: failed to write %s: %w", cleaned, err)
	}
	return s.register(ctx, parts)
}

// Update merges partial into the document at path.
func (s *RedisStore) Update(ctx context.Context, path string, partial map[string]any) error {
	existing, err := s.Get(ctx, path)
	if err != nil {
		return err
	}
	merged, ok := existing.(map[string]any)
	if !ok {
		merged = make(map[string]any)
	}
	normalized, err := normalize(partial)
	if err != nil {
		return err
	}
	if patch, ok := normalized.(map[string]any); ok {
		for k, v := range patch {
			merged[k] = v
		}
	}
	return s.Set(ctx, path, merged)
}

// Delete removes the subtree at path.
func (s *RedisStore) Delete(ctx context.Context, path string) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	cleaned := strings.Join(parts, "/")
	if err := s.deleteSubtree(ctx, cleaned); err != nil {
		return err
	}
	return s.unregister(ctx, parts)
}

// OrderByChildEqualTo filters the children at path by field equality.
func (s *RedisStore) OrderByChildEqualTo(ctx context.Context, path, field string, value any) (map[string]map[string]any, error) {
	node, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return filterChildren(node, field, value), nil
}

// register records the leaf with every ancestor's child set.
func (s *RedisStore) register(ctx context.Context, parts []string) error {
	for i := 1; i < len(parts); i++ {
		parent := strings.Join(parts[:i], "/")
		if err := s.client.SAdd(ctx, kidsKey(parent), parts[i]).Err(); err != nil {
			return fmt.Errorf("store: failed to index %s: %w", parent, err)
		}
	}
	return nil
}

func (s *RedisStore) unregister(ctx context.Context, parts []string) error {
	if len(parts) < 2 {
		return nil
	}
	parent := strings.Join(parts[:len(parts)-1], "/")
	leaf := parts[len(parts)-1]
	if err := s.client.SRem(ctx, kidsKey(parent), leaf).Err(); err != nil {
		return fmt.Errorf("store: failed to unindex %s: %w", parent, err)
	}
	return nil
}

// deleteSubtree removes the document at path and everything indexed below it.
func (s *RedisStore) deleteSubtree(ctx context.Context, path string) error {
	children, err := s.client.SMembers(ctx, kidsKey(path)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("store: failed to list children of %s: %w", path, err)
	}
	for _, name := range children {
		if err := s.deleteSubtree(ctx, path+"/"+name); err != nil {
			return err
		}
	}
	if err := s.client.Del(ctx, docKey(path), kidsKey(path)).Err(); err != nil {
		return fmt.Errorf("store: failed to delete %s: %w", path, err)
	}
	return nil
}
