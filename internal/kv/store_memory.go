package kv

import (
	"context"
	"sync"
)

// MemStore keeps values in process memory. A positive Quota caps the total
// size in bytes of all keys and values, which lets tests reproduce a full
// store.
type MemStore struct {
	mu     sync.RWMutex
	m      map[string]string
	closed bool

	Quota int
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]string)}
}

func (s *MemStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.Quota > 0 && s.sizeWith(key, value) > s.Quota {
		return ErrQuotaExceeded
	}
	s.m[key] = value
	return nil
}

func (s *MemStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// sizeWith reports the store size if key were set to value.
func (s *MemStore) sizeWith(key, value string) int {
	n := 0
	for k, v := range s.m {
		if k == key {
			continue
		}
		n += len(k) + len(v)
	}
	return n + len(key) + len(value)
}
