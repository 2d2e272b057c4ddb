package sql

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ordo/pkg/table"
	"github.com/marmos91/ordo/pkg/table/tabletest"
)

func TestSQLiteConformance(t *testing.T) {
	tabletest.RunConformanceSuite(t, func(t *testing.T) table.Store {
		s, err := Open(&Config{
			Type:       DatabaseTypeSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "tables.db"),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestScanPaginates(t *testing.T) {
	s, err := Open(&Config{SQLitePath: filepath.Join(t.TempDir(), "tables.db")})
	require.NoError(t, err)
	defer s.Close()

	ctx := t.Context()
	require.NoError(t, s.CreateTable(ctx, "app", table.TableConfig{}))

	entries := make([]table.Entry, 0, scanBatch+10)
	for i := 0; i < scanBatch+10; i++ {
		entries = append(entries, table.Entry{
			Key:   table.Key{Row: "r", Family: "f", Qualifier: qualifier(i)},
			Value: []byte{byte(i)},
		})
	}
	require.NoError(t, s.Write(ctx, "app", entries))

	var prev *table.Key
	count := 0
	require.NoError(t, s.Scan(ctx, "app", func(e table.Entry) error {
		if prev != nil {
			assert.Negative(t, prev.Compare(e.Key))
		}
		k := e.Key
		prev = &k
		count++
		return nil
	}))
	assert.Equal(t, scanBatch+10, count)
}

func qualifier(i int) string {
	const digits = "0123456789"
	return string([]byte{digits[i/100%10], digits[i/10%10], digits[i%10]})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite ok", Config{Type: DatabaseTypeSQLite, SQLitePath: "/tmp/x.db"}, false},
		{"sqlite no path", Config{Type: DatabaseTypeSQLite}, true},
		{"postgres ok", Config{Type: DatabaseTypePostgres, Postgres: PostgresConfig{Host: "h", Database: "d", User: "u"}}, false},
		{"postgres no host", Config{Type: DatabaseTypePostgres, Postgres: PostgresConfig{Database: "d", User: "u"}}, true},
		{"unknown", Config{Type: "mysql"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostgresDefaultsAndDSN(t *testing.T) {
	cfg := Config{Type: DatabaseTypePostgres, Postgres: PostgresConfig{Host: "db", Database: "ordo", User: "ordo", Password: "pw"}}
	cfg.ApplyDefaults()

	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "host=db port=5432 user=ordo password=pw dbname=ordo sslmode=disable", cfg.Postgres.DSN())
}
