// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"sync"

	"Inventario/internal/kv"
)

// FaultyStore wraps a MemStore and fails Get or Set for selected keys.
type FaultyStore struct {
	*kv.MemStore

	mu      sync.Mutex
	failGet map[string]error
	failSet map[string]error
	sets    map[string]int
}

func NewFaultyStore() *FaultyStore {
	return &FaultyStore{
		MemStore: kv.NewMemStore(),
		failGet:  make(map[string]error),
		failSet:  make(map[string]error),
		sets:     make(map[string]int),
	}
}

// FailSet makes every Set on key return err. A nil err clears the fault.
func (s *FaultyStore) FailSet(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failSet, key)
		return
	}
	s.failSet[key] = err
}

// FailGet makes every Get on key return err. A nil err clears the fault.
func (s *FaultyStore) FailGet(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failGet, key)
		return
	}
	s.failGet[key] = err
}

// Sets reports how many successful Set calls key has received.
func (s *FaultyStore) Sets(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[key]
}

func (s *FaultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	err := s.failGet[key]
	s.mu.Unlock()
	if err != nil {
		return "", false, err
	}
	return s.MemStore.Get(ctx, key)
}

func (s *FaultyStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	err := s.failSet[key]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := s.MemStore.Set(ctx, key, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.sets[key]++
	s.mu.Unlock()
	return nil
}
