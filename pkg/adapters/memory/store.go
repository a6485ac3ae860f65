// Package memory is an in-process core.Store for tests, demos and the
// single-process server when nothing needs to outlive it.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/sticky/pkg/core"
)

// Store keeps records in a map. Data is copied on the way in and out.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
	puts    int
	failure error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: map[string][]byte{}}
}

// Get returns the record under id.
func (s *Store) Get(_ context.Context, id string) (core.Record, bool, error) {
	if err := core.ValidateID(id); err != nil {
		return core.Record{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return core.Record{}, false, s.failure
	}
	data, ok := s.records[id]
	if !ok {
		return core.Record{}, false, nil
	}
	return core.Record{ID: id, Data: slices.Clone(data)}, true, nil
}

// Put stores a copy of rec.
func (s *Store) Put(_ context.Context, rec core.Record) error {
	if err := core.ValidateID(rec.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	s.records[rec.ID] = slices.Clone(rec.Data)
	s.puts++
	return nil
}

// Clear drops every record.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	clear(s.records)
	return nil
}

// Keys lists ids in lexical order.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Puts returns how many writes succeeded.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// FailWith makes every operation return err until called with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Records int  `json:"records"`
	Puts    int  `json:"puts"`
	Failing bool `json:"failing"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{Records: len(s.records), Puts: s.puts, Failing: s.failure != nil}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ core.Lister                  = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
