// Package sql implements table.Store on a relational database through GORM.
// SQLite (pure Go, via glebarez/sqlite) suits single-node deployments;
// PostgreSQL suits shared ones.
package sql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/ordo/pkg/table"
)

// DatabaseType defines the supported database backends.
type DatabaseType string

const (
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypePostgres DatabaseType = "postgres"
)

// scanBatch bounds the rows fetched per Scan round trip.
const scanBatch = 500

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string // disable, require, verify-ca, verify-full
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// Config contains database configuration.
type Config struct {
	Type       DatabaseType
	SQLitePath string
	Postgres   PostgresConfig
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}
	if c.Type == DatabaseTypePostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 10
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 2
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

type tableModel struct {
	Name      string `gorm:"primaryKey;size:128"`
	ID        string `gorm:"size:36;not null;uniqueIndex"`
	CreatedAt time.Time
}

func (tableModel) TableName() string { return "ordo_tables" }

type groupModel struct {
	Table  string `gorm:"column:table_name;primaryKey;size:128"`
	Group  string `gorm:"column:group_name;primaryKey;size:255"`
	Family string `gorm:"column:family;primaryKey;size:255"`
}

func (groupModel) TableName() string { return "ordo_locality_groups" }

type cellModel struct {
	TableID   string `gorm:"column:table_id;primaryKey;size:36"`
	Row       string `gorm:"column:row_key;primaryKey;size:255"`
	Family    string `gorm:"column:family;primaryKey;size:255"`
	Qualifier string `gorm:"column:qualifier;primaryKey;size:255"`
	Value     []byte `gorm:"column:value"`
}

func (cellModel) TableName() string { return "ordo_cells" }

// Store is a table.Store backed by GORM.
type Store struct {
	db *gorm.DB
}

var _ table.Store = (*Store)(nil)

// Open connects to the database and migrates the schema.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn := cfg.SQLitePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)
	case DatabaseTypePostgres:
		dialector = postgres.Open(cfg.Postgres.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	switch cfg.Type {
	case DatabaseTypeSQLite:
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY
		// between pooled connections.
		sqlDB.SetMaxOpenConns(1)
	case DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(&tableModel{}, &groupModel{}, &cellModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	return &Store{db: db}, nil
}

func groupRows(name string, groups map[string][]string) []groupModel {
	var rows []groupModel
	for g, fams := range table.NormalizeGroups(groups) {
		for _, f := range fams {
			rows = append(rows, groupModel{Table: name, Group: g, Family: f})
		}
	}
	return rows
}

func (s *Store) lookup(tx *gorm.DB, name string) (*tableModel, error) {
	var t tableModel
	err := tx.Where("name = ?", name).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, table.ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTable implements table.Store. The descriptor insert uses ON
// CONFLICT DO NOTHING; zero affected rows means another creator won.
func (s *Store) CreateTable(ctx context.Context, name string, cfg table.TableConfig) error {
	if err := table.ValidateName(name); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tableModel{
			Name:      name,
			ID:        uuid.NewString(),
			CreatedAt: time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return table.ErrTableExists
		}

		if rows := groupRows(name, cfg.LocalityGroups); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteTable implements table.Store.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.lookup(tx, name)
		if err != nil {
			return err
		}
		if err := tx.Where("table_id = ?", t.ID).Delete(&cellModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("table_name = ?", name).Delete(&groupModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("name = ?", name).Delete(&tableModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return table.ErrTableNotFound
		}
		return nil
	})
}

// TableExists implements table.Store.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&tableModel{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// ListTables implements table.Store.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&tableModel{}).Order("name").Pluck("name", &names).Error
	return names, err
}

// LocalityGroups implements table.Store.
func (s *Store) LocalityGroups(ctx context.Context, name string) (map[string][]string, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.lookup(db, name); err != nil {
		return nil, err
	}

	var rows []groupModel
	if err := db.Where("table_name = ?", name).Find(&rows).Error; err != nil {
		return nil, err
	}

	groups := make(map[string][]string)
	for _, r := range rows {
		groups[r.Group] = append(groups[r.Group], r.Family)
	}
	return table.NormalizeGroups(groups), nil
}

// SetLocalityGroups implements table.Store.
func (s *Store) SetLocalityGroups(ctx context.Context, name string, groups map[string][]string) error {
	if err := (table.TableConfig{LocalityGroups: groups}).Validate(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lookup(tx, name); err != nil {
			return err
		}
		if err := tx.Where("table_name = ?", name).Delete(&groupModel{}).Error; err != nil {
			return err
		}
		if rows := groupRows(name, groups); len(rows) > 0 {
			return tx.Create(&rows).Error
		}
		return nil
	})
}

// Write implements table.Store.
func (s *Store) Write(ctx context.Context, name string, entries []table.Entry) error {
	for _, e := range entries {
		if err := e.Key.Validate(); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.lookup(tx, name)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		rows := make([]cellModel, len(entries))
		for i, e := range entries {
			rows[i] = cellModel{
				TableID:   t.ID,
				Row:       e.Key.Row,
				Family:    e.Key.Family,
				Qualifier: e.Key.Qualifier,
				Value:     e.Value,
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "table_id"}, {Name: "row_key"}, {Name: "family"}, {Name: "qualifier"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&rows).Error
	})
}

// Scan implements table.Store. Rows are fetched in key order in batches,
// resuming after the last key seen, so fn runs without an open cursor.
func (s *Store) Scan(ctx context.Context, name string, fn func(table.Entry) error) error {
	db := s.db.WithContext(ctx)
	t, err := s.lookup(db, name)
	if err != nil {
		return err
	}

	var last *cellModel
	for {
		q := db.Where("table_id = ?", t.ID)
		if last != nil {
			q = q.Where("(row_key > ?) OR (row_key = ? AND family > ?) OR (row_key = ? AND family = ? AND qualifier > ?)",
				last.Row, last.Row, last.Family, last.Row, last.Family, last.Qualifier)
		}

		var batch []cellModel
		if err := q.Order("row_key, family, qualifier").Limit(scanBatch).Find(&batch).Error; err != nil {
			return err
		}

		for i := range batch {
			c := batch[i]
			if err := fn(table.Entry{
				Key:   table.Key{Row: c.Row, Family: c.Family, Qualifier: c.Qualifier},
				Value: c.Value,
			}); err != nil {
				return err
			}
		}

		if len(batch) < scanBatch {
			return nil
		}
		last = &batch[len(batch)-1]
	}
}

// Close implements table.Store.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
