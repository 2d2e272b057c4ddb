// Package table defines the sorted key/value table store that holds
// application data. Tables are named, carry a set of locality groups
// (column families stored together) and are scanned in key order.
//
// Backends live in sub-packages (badger, leveldb, sql, memory) and share the
// conformance suite in tabletest.
package table

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

var (
	// ErrTableExists is returned by CreateTable when the name is taken.
	ErrTableExists = errors.New("table: table already exists")

	// ErrTableNotFound is returned when the named table does not exist.
	ErrTableNotFound = errors.New("table: table not found")
)

// Key addresses a cell. Keys order by Row, then Family, then Qualifier.
type Key struct {
	Row       string
	Family    string
	Qualifier string
}

// Compare orders keys.
func (k Key) Compare(o Key) int {
	if c := strings.Compare(k.Row, o.Row); c != 0 {
		return c
	}
	if c := strings.Compare(k.Family, o.Family); c != 0 {
		return c
	}
	return strings.Compare(k.Qualifier, o.Qualifier)
}

// Validate rejects keys that cannot be encoded by ordered backends.
func (k Key) Validate() error {
	if k.Row == "" {
		return errors.New("table: empty row")
	}
	if strings.ContainsRune(k.Row+k.Family+k.Qualifier, 0) {
		return errors.New("table: key contains NUL byte")
	}
	return nil
}

// Entry is a cell and its value.
type Entry struct {
	Key   Key
	Value []byte
}

// TableConfig is applied atomically at table creation.
type TableConfig struct {
	// LocalityGroups maps a group name to the column families it holds.
	LocalityGroups map[string][]string
}

// Validate checks group and family names. A family belongs to at most one
// group.
func (c TableConfig) Validate() error {
	seen := make(map[string]string)
	for group, families := range c.LocalityGroups {
		if group == "" {
			return errors.New("table: empty locality group name")
		}
		if len(families) == 0 {
			return fmt.Errorf("table: locality group %q has no families", group)
		}
		for _, f := range families {
			if f == "" {
				return fmt.Errorf("table: locality group %q has an empty family", group)
			}
			if other, ok := seen[f]; ok && other != group {
				return fmt.Errorf("table: family %q is in groups %q and %q", f, other, group)
			}
			seen[f] = group
		}
	}
	return nil
}

// NormalizeGroups returns a deep copy of groups with sorted, de-duplicated
// family lists. A nil map yields an empty one.
func NormalizeGroups(groups map[string][]string) map[string][]string {
	out := make(map[string][]string, len(groups))
	for g, fams := range groups {
		cp := slices.Clone(fams)
		slices.Sort(cp)
		out[g] = slices.Compact(cp)
	}
	return out
}

// GroupNames returns the sorted group names.
func GroupNames(groups map[string][]string) []string {
	return slices.Sorted(maps.Keys(groups))
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// ValidateName checks a table name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("table: invalid table name %q", name)
	}
	return nil
}

// Store is a table store.
type Store interface {
	// CreateTable creates name with cfg in a single atomic step. It fails
	// with ErrTableExists if the name is taken.
	CreateTable(ctx context.Context, name string, cfg TableConfig) error

	// DeleteTable drops the table and its data. It fails with
	// ErrTableNotFound if absent.
	DeleteTable(ctx context.Context, name string) error

	// TableExists reports whether name exists.
	TableExists(ctx context.Context, name string) (bool, error)

	// ListTables returns the sorted table names.
	ListTables(ctx context.Context) ([]string, error)

	// LocalityGroups returns the normalized locality groups of name.
	LocalityGroups(ctx context.Context, name string) (map[string][]string, error)

	// SetLocalityGroups replaces the locality groups of name.
	SetLocalityGroups(ctx context.Context, name string, groups map[string][]string) error

	// Write stores entries, overwriting existing cells.
	Write(ctx context.Context, name string, entries []Entry) error

	// Scan calls fn for every cell in key order until fn returns an error.
	Scan(ctx context.Context, name string, fn func(Entry) error) error

	// Close releases the store.
	Close() error
}
