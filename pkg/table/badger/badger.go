// Package badger implements table.Store on BadgerDB.
//
// Key layout:
//
//	t/<name>                               table descriptor (JSON)
//	d/<table id>/<row>\x00<family>\x00<qualifier>  cell value
//
// Table data is keyed by a per-table UUID rather than the name, so a table
// that is dropped and recreated never observes leftover cells.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/table"
)

const (
	prefixTable = "t/"
	prefixData  = "d/"
	sep         = "\x00"

	createRetries = 3
)

type descriptor struct {
	ID             string              `json:"id"`
	LocalityGroups map[string][]string `json:"locality_groups"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Store is a table.Store backed by BadgerDB.
type Store struct {
	db *badgerdb.DB
}

var _ table.Store = (*Store)(nil)

// Open opens (or creates) a store at dir. An empty dir opens an in-memory
// database.
func Open(dir string) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger table store: %w", err)
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

func decodeCellKey(prefix, raw []byte) (table.Key, error) {
	parts := strings.SplitN(string(raw[len(prefix):]), sep, 3)
	if len(parts) != 3 {
		return table.Key{}, fmt.Errorf("corrupt cell key %q", raw)
	}
	return table.Key{Row: parts[0], Family: parts[1], Qualifier: parts[2]}, nil
}

func getDescriptor(txn *badgerdb.Txn, name string) (*descriptor, error) {
	item, err := txn.Get(tableKey(name))
	if err == badgerdb.ErrKeyNotFound {
		return nil, table.ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}

	var d descriptor
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &d)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor of %s: %w", name, err)
	}
	return &d, nil
}

func putDescriptor(txn *badgerdb.Txn, name string, d *descriptor) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return txn.Set(tableKey(name), data)
}

// CreateTable implements table.Store. Badger transactions are serializable,
// so two concurrent creators conflict and the loser observes the table.
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

	d := &descriptor{
		ID:             uuid.NewString(),
		LocalityGroups: table.NormalizeGroups(cfg.LocalityGroups),
		CreatedAt:      time.Now().UTC(),
	}

	for attempt := 0; ; attempt++ {
		err := s.db.Update(func(txn *badgerdb.Txn) error {
			if _, err := txn.Get(tableKey(name)); err == nil {
				return table.ErrTableExists
			} else if err != badgerdb.ErrKeyNotFound {
				return err
			}
			return putDescriptor(txn, name, d)
		})
		if errors.Is(err, badgerdb.ErrConflict) && attempt < createRetries {
			continue
		}
		return err
	}
}

// DeleteTable implements table.Store.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var id string
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		d, err := getDescriptor(txn, name)
		if err != nil {
			return err
		}
		id = d.ID
		return txn.Delete(tableKey(name))
	})
	if err != nil {
		return err
	}

	if err := s.db.DropPrefix(dataPrefix(id)); err != nil {
		logger.Warn("failed to drop table data", logger.Table(name), logger.Backend("badger"), logger.Err(err))
	}
	return nil
}

// TableExists implements table.Store.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(tableKey(name))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// ListTables implements table.Store.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixTable)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), prefixTable))
		}
		return nil
	})
	return names, err
}

// LocalityGroups implements table.Store.
func (s *Store) LocalityGroups(ctx context.Context, name string) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var groups map[string][]string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		d, err := getDescriptor(txn, name)
		if err != nil {
			return err
		}
		groups = table.NormalizeGroups(d.LocalityGroups)
		return nil
	})
	return groups, err
}

// SetLocalityGroups implements table.Store.
func (s *Store) SetLocalityGroups(ctx context.Context, name string, groups map[string][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := (table.TableConfig{LocalityGroups: groups}).Validate(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		d, err := getDescriptor(txn, name)
		if err != nil {
			return err
		}
		d.LocalityGroups = table.NormalizeGroups(groups)
		return putDescriptor(txn, name, d)
	})
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

	return s.db.Update(func(txn *badgerdb.Txn) error {
		d, err := getDescriptor(txn, name)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := txn.Set(cellKey(d.ID, e.Key), e.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Scan implements table.Store.
func (s *Store) Scan(ctx context.Context, name string, fn func(table.Entry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(txn *badgerdb.Txn) error {
		d, err := getDescriptor(txn, name)
		if err != nil {
			return err
		}

		prefix := dataPrefix(d.ID)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key, err := decodeCellKey(prefix, item.Key())
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(table.Entry{Key: key, Value: value}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close implements table.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's internal logging to the ordo logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Errorf("badger: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warnf("badger: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debugf("badger: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debugf("badger: "+strings.TrimSpace(format), args...)
}
