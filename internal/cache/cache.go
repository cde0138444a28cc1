// Package cache stores generated stylesheets so the public CSS and render
// endpoints do not regenerate them on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/plinth-cms/plinth/internal/stylesheet"
	"github.com/redis/go-redis/v9"
)

// Cache is a keyed stylesheet store. Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*stylesheet.Stylesheet, error)
	Set(ctx context.Context, key string, s *stylesheet.Stylesheet) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	sheet   *stylesheet.Stylesheet
	expires time.Time
}

// Memory is an in-process Cache with per-entry expiry.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-process cache. A zero ttl keeps entries until deleted.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached stylesheet for key.
func (m *Memory) Get(_ context.Context, key string) (*stylesheet.Stylesheet, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}
	return e.sheet, nil
}

// Set stores s under key.
func (m *Memory) Set(_ context.Context, key string, s *stylesheet.Stylesheet) error {
	e := memoryEntry{sheet: s}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Redis is a Cache backed by a Redis server, shared across server replicas.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache. Keys are namespaced under prefix.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached stylesheet for key.
func (r *Redis) Get(ctx context.Context, key string) (*stylesheet.Stylesheet, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var s stylesheet.Stylesheet
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode cached stylesheet: %w", err)
	}
	return &s, nil
}

// Set stores s under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, s *stylesheet.Stylesheet) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode stylesheet: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
