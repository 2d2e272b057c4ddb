// Package memory provides an in-process table store.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/marmos91/ordo/pkg/table"
)

type memTable struct {
	groups map[string][]string
	cells  map[table.Key][]byte
}

// Store is a table.Store held in memory.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

var _ table.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*memTable)}
}

var (
	sharedMu sync.Mutex
	shared   = make(map[string]*Store)
)

// Shared returns the process-wide store registered under name.
func Shared(name string) *Store {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	s, ok := shared[name]
	if !ok {
		s = New()
		shared[name] = s
	}
	return s
}

// CreateTable implements table.Store.
func (s *Store) CreateTable(ctx context.Context, name string, cfg table.TableConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := table.ValidateName(name); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; ok {
		return table.ErrTableExists
	}
	s.tables[name] = &memTable{
		groups: table.NormalizeGroups(cfg.LocalityGroups),
		cells:  make(map[table.Key][]byte),
	}
	return nil
}

// DeleteTable implements table.Store.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; !ok {
		return table.ErrTableNotFound
	}
	delete(s.tables, name)
	return nil
}

// TableExists implements table.Store.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[name]
	return ok, nil
}

// ListTables implements table.Store.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}

// LocalityGroups implements table.Store.
func (s *Store) LocalityGroups(ctx context.Context, name string) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, table.ErrTableNotFound
	}
	return table.NormalizeGroups(t.groups), nil
}

// SetLocalityGroups implements table.Store.
func (s *Store) SetLocalityGroups(ctx context.Context, name string, groups map[string][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := (table.TableConfig{LocalityGroups: groups}).Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return table.ErrTableNotFound
	}
	t.groups = table.NormalizeGroups(groups)
	return nil
}

// Write implements table.Store.
func (s *Store) Write(ctx context.Context, name string, entries []table.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := e.Key.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return table.ErrTableNotFound
	}
	for _, e := range entries {
		t.cells[e.Key] = slices.Clone(e.Value)
	}
	return nil
}

// Scan implements table.Store. It iterates over a snapshot taken under the
// read lock, so fn may call back into the store.
func (s *Store) Scan(ctx context.Context, name string, fn func(table.Entry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	t, ok := s.tables[name]
	if !ok {
		s.mu.RUnlock()
		return table.ErrTableNotFound
	}
	entries := make([]table.Entry, 0, len(t.cells))
	for k, v := range t.cells {
		entries = append(entries, table.Entry{Key: k, Value: slices.Clone(v)})
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b table.Entry) int { return a.Key.Compare(b.Key) })
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Close implements table.Store.
func (s *Store) Close() error {
	return nil
}
