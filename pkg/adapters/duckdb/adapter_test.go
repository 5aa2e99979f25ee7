package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	duckdbdialect "github.com/leapstack-labs/leapdest/pkg/adapters/duckdb/dialect"
	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/dialect"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "empty path is in-memory",
			setupPath: func(_ *testing.T) string {
				return ""
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "destination.db")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			assert.True(t, adp.IsConnected())
			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_ConnectWithSettings(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	cfg := core.AdapterConfig{
		Path: ":memory:",
		Params: map[string]any{
			"settings": map[string]any{"threads": 2},
		},
	}
	require.NoError(t, adp.Connect(ctx, cfg))
	defer func() { _ = adp.Close() }()

	var threads int
	require.NoError(t, adp.Conn().QueryRowContext(ctx, "SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, 2, threads)
}

func TestAdapter_ConnectRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"unknown key", map[string]any{"nope": true}},
		{"setting name injection", map[string]any{"settings": map[string]any{"threads; DROP": "1"}}},
		{"extension name injection", map[string]any{"extensions": []any{"json; DROP"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adp := New(nil)
			err := adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:", Params: tt.params})
			require.Error(t, err)
			assert.False(t, adp.IsConnected())
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)

	assert.Nil(t, adp.Conn())
	assert.Error(t, adp.Exec(context.Background(), "SELECT 1"), "expected error when operating without connection")
}

func TestAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
	}{
		{"close without connect", false},
		{"close after connect", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			if tt.connect {
				require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
			}

			assert.NoError(t, adp.Close())
			assert.False(t, adp.IsConnected())
		})
	}
}

func TestAdapter_CheckpointPersistsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "destination.db")

	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: path}))
	require.NoError(t, adp.Exec(ctx, `CREATE TABLE t (id INTEGER)`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO t VALUES (1), (2)`))
	require.NoError(t, adp.Close())

	reopened := New(nil)
	require.NoError(t, reopened.Connect(ctx, core.AdapterConfig{Path: path}))
	defer func() { _ = reopened.Close() }()

	var count int
	require.NoError(t, reopened.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestAdapter_Dialect(t *testing.T) {
	adp := New(nil)
	assert.Equal(t, "duckdb", adp.DialectName())
	assert.Same(t, duckdbdialect.DuckDB, adp.Dialect())
}

// The catalog reports its own spelling of each type; those strings must map back.
func TestAdapter_CatalogTypesMapBack(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	m := dialect.NewTypeMapper(duckdbdialect.DuckDB, nil)
	want := map[string]core.DataType{}
	var defs []string
	for _, typ := range core.SupportedDataTypes() {
		if typ == core.Unspecified {
			continue
		}
		physical, err := m.ToPhysicalType(typ, nil)
		require.NoError(t, err)
		name := "c_" + strings.ToLower(typ.String())
		want[name] = typ
		defs = append(defs, duckdbdialect.DuckDB.QuoteIdentifier(name)+" "+physical)
	}
	require.NoError(t, adp.Exec(ctx, "CREATE TABLE all_types ("+strings.Join(defs, ", ")+")"))

	rows, err := adp.Conn().QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = 'all_types'`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	reported := map[string]string{}
	for rows.Next() {
		var name, dataType string
		require.NoError(t, rows.Scan(&name, &dataType))
		reported[name] = dataType
	}
	require.NoError(t, rows.Err())
	require.Len(t, reported, len(want))

	assert.Equal(t, "DECIMAL(38,10)", reported["c_decimal"])
	assert.Equal(t, "TIMESTAMP WITH TIME ZONE", reported["c_utc_datetime"])
	for name, dataType := range reported {
		got, ok := dialect.MatchPhysicalType(dataType)
		assert.True(t, ok, "%s: %q has no reverse rule", name, dataType)
		assert.Equal(t, want[name], got, "%s reported as %q", name, dataType)
	}
}
