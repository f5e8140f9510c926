// Package localstore is the best-effort key-value scratchpad backing
// offline progress, unsaved-change flags, and UI preferences. Absence
// of a key is always a valid, defaultable state; there is no schema
// versioning and the last writer wins.
package localstore

import (
	"context"
	"encoding/json"
	"sync"
)

type Store interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes a stored JSON value into out. A missing key leaves
// out untouched and reports false.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		return false, err
	}
	return true, nil
}

func PutJSON(ctx context.Context, s Store, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, string(buf))
}

// Memory is a map-backed Store for tests and hosts without a cache DB.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemory() *Memory { return &Memory{m: map[string]string{}} }

func (s *Memory) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Memory) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
