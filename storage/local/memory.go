package localstore

import (
	"context"
	"sync"

	"github.com/trezcool/studiousvault/core"
)

// Memory is a volatile local storage, for tests and throwaway runs.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ core.LocalStorage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (s *Memory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, core.ErrNoValue
	}
	return append([]byte(nil), v...), nil
}

func (s *Memory) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *Memory) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *Memory) Close() error { return nil }
