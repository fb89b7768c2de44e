package mapstore

import (
	"context"
	"sort"
	"sync"
)

// Memstore is an in-memory Store for tests and throwaway runs.
type Memstore struct {
	mu    sync.RWMutex
	table map[string]string
}

// NewMemstore creates an empty in-memory store.
func NewMemstore() *Memstore {
	return &Memstore{table: make(map[string]string)}
}

func (s *Memstore) Close() error { return nil }

func (s *Memstore) Lookup(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.table[key]
	return name, ok, nil
}

func (s *Memstore) Insert(ctx context.Context, key, name string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.table[key]
	s.table[key] = name
	switch {
	case !existed:
		return OutcomeCreated, nil
	case prev != name:
		return OutcomeUpdated, nil
	default:
		return OutcomeUnchanged, nil
	}
}

func (s *Memstore) All(ctx context.Context) ([]Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Mapping, 0, len(s.table))
	for k, v := range s.table {
		out = append(out, Mapping{Key: k, Name: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Memstore) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table), nil
}

func (s *Memstore) Flush(ctx context.Context) error { return nil }
