// Package leveldb implements table.Store on goleveldb. It uses the same key
// layout as the badger backend. LevelDB has no multi-key transactions, so
// table-level mutations are serialized by a store mutex; cell writes are
// applied in a single batch.
package leveldb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	levelerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/table"
)

const (
	prefixTable = "t/"
	prefixData  = "d/"
	sep         = "\x00"
)

type descriptor struct {
	ID             string              `json:"id"`
	LocalityGroups map[string][]string `json:"locality_groups"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Store is a table.Store backed by LevelDB.
type Store struct {
	mu sync.RWMutex
	db *leveldb.DB
}

var _ table.Store = (*Store)(nil)

// Open opens the database at path, recovering it if the manifest is
// corrupted. An empty path opens an in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		db, err := leveldb.Open(storage.NewMemStorage(), nil)
		if err != nil {
			return nil, err
		}
		return &Store{db: db}, nil
	}

	options := &opt.Options{}
	db, err := leveldb.OpenFile(path, options)
	if levelerrors.IsCorrupted(err) {
		logger.Warn("leveldb table store corrupted, attempting recovery", logger.KeyPath, path, logger.Err(err))
		db, err = leveldb.RecoverFile(path, options)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb table store: %w", err)
	}
	return &Store{db: db}, nil
}

func tableKey(name string) []byte {
	return []byte(prefixTable + name)
}

func dataPrefix(id string) []byte {
	return []byte(prefixData + id + "/")
}

func cellKey(id string, k table.Key) []byte {
	return []byte(prefixData + id + "/" + k.Row + sep + k.Family + sep + k.Qualifier)
}

func (s *Store) descriptor(name string) (*descriptor, error) {
	data, err := s.db.Get(tableKey(name), nil)
	if err == leveldb.ErrNotFound {
		return nil, table.ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}

	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor of %s: %w", name, err)
	}
	return &d, nil
}

func (s *Store) putDescriptor(name string, d *descriptor) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.db.Put(tableKey(name), data, &opt.WriteOptions{Sync: true})
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

	ok, err := s.db.Has(tableKey(name), nil)
	if err != nil {
		return err
	}
	if ok {
		return table.ErrTableExists
	}

	return s.putDescriptor(name, &descriptor{
		ID:             uuid.NewString(),
		LocalityGroups: table.NormalizeGroups(cfg.LocalityGroups),
		CreatedAt:      time.Now().UTC(),
	})
}

// DeleteTable implements table.Store. The descriptor and all cells are
// removed in one batch.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.descriptor(name)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Delete(tableKey(name))

	it := s.db.NewIterator(util.BytesPrefix(dataPrefix(d.ID)), nil)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}

	return s.db.Write(batch, &opt.WriteOptions{Sync: true})
}

// TableExists implements table.Store.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.db.Has(tableKey(name), nil)
}

// ListTables implements table.Store.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	it := s.db.NewIterator(util.BytesPrefix([]byte(prefixTable)), nil)
	defer it.Release()

	for it.Next() {
		names = append(names, strings.TrimPrefix(string(it.Key()), prefixTable))
	}
	return names, it.Error()
}

// LocalityGroups implements table.Store.
func (s *Store) LocalityGroups(ctx context.Context, name string) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, err := s.descriptor(name)
	if err != nil {
		return nil, err
	}
	return table.NormalizeGroups(d.LocalityGroups), nil
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

	d, err := s.descriptor(name)
	if err != nil {
		return err
	}
	d.LocalityGroups = table.NormalizeGroups(groups)
	return s.putDescriptor(name, d)
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

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := s.descriptor(name)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	for _, e := range entries {
		batch.Put(cellKey(d.ID, e.Key), e.Value)
	}
	return s.db.Write(batch, nil)
}

// Scan implements table.Store. Iteration runs on a snapshot.
func (s *Store) Scan(ctx context.Context, name string, fn func(table.Entry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snap, err := s.db.GetSnapshot()
	if err != nil {
		return err
	}
	defer snap.Release()

	raw, err := snap.Get(tableKey(name), nil)
	if err == leveldb.ErrNotFound {
		return table.ErrTableNotFound
	}
	if err != nil {
		return err
	}
	var d descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("failed to decode descriptor of %s: %w", name, err)
	}

	prefix := dataPrefix(d.ID)
	it := snap.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		parts := strings.SplitN(string(it.Key()[len(prefix):]), sep, 3)
		if len(parts) != 3 {
			return fmt.Errorf("corrupt cell key %q", it.Key())
		}
		entry := table.Entry{
			Key:   table.Key{Row: parts[0], Family: parts[1], Qualifier: parts[2]},
			Value: append([]byte(nil), it.Value()...),
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return it.Error()
}

// Close implements table.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
