package metastore_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdest/internal/testutil"
	"github.com/leapstack-labs/leapdest/pkg/adapters/duckdb"
	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/metastore"
)

func newDuckStore(t *testing.T) (*metastore.SQLStore, *sql.DB) {
	t.Helper()
	a := duckdb.New(testutil.NewTestLogger(t))
	require.NoError(t, a.Connect(context.Background(), core.AdapterConfig{Path: duckdb.MemoryPath}))
	s := metastore.NewAdapterStore(a, testutil.NewTestLogger(t))
	t.Cleanup(func() { _ = s.Close() })
	return s, a.Conn()
}

func queryInt(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), query).Scan(&n))
	return n
}

func TestDuckDB_DescribeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newDuckStore(t)

	var columns []core.Column
	for _, dt := range core.SupportedDataTypes() {
		if dt == core.Unspecified {
			continue
		}
		columns = append(columns, core.Column{Name: "c_" + dt.String(), Type: dt})
	}
	columns[0].PrimaryKey = true
	table := &core.Table{Name: "all_types", Columns: columns}

	require.NoError(t, s.CreateTable(ctx, "dest", table))

	got, err := s.DescribeTable(ctx, "dest", "all_types")
	require.NoError(t, err)
	require.Len(t, got.Columns, len(columns))
	for i, c := range got.Columns {
		assert.Equal(t, columns[i].Name, c.Name)
		assert.Equal(t, columns[i].Type, c.Type, "column %s", c.Name)
	}
	assert.Equal(t, []string{columns[0].Name}, got.PrimaryKeys())

	dec, _ := got.Column("c_DECIMAL")
	require.NotNil(t, dec.Params)
	assert.Equal(t, &core.DecimalParams{Precision: 38, Scale: 10}, dec.Params.Decimal)
}

func TestDuckDB_ColumnLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newDuckStore(t)

	require.NoError(t, s.CreateTable(ctx, "dest", &core.Table{Name: "t", Columns: []core.Column{
		{Name: "a1", Type: core.Int, PrimaryKey: true},
		{Name: "a2", Type: core.Double},
	}}))

	require.NoError(t, s.AddColumn(ctx, "dest", "t", core.Column{Name: "a3", Type: core.Boolean}))
	require.NoError(t, s.AlterColumnType(ctx, "dest", "t", core.Column{Name: "a2", Type: core.String}))
	require.NoError(t, s.RenameColumn(ctx, "dest", "t", "a3", "flag"))
	require.NoError(t, s.RenameColumn(ctx, "dest", "t", "flag", "a3"))

	got, err := s.DescribeTable(ctx, "dest", "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3"}, got.ColumnNames())
	a2, _ := got.Column("a2")
	assert.Equal(t, core.String, a2.Type)

	require.NoError(t, s.DropColumn(ctx, "dest", "t", "a3"))
	got, err = s.DescribeTable(ctx, "dest", "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, got.ColumnNames())
}

func TestDuckDB_ReplacePrimaryKeyRebuildsTable(t *testing.T) {
	ctx := context.Background()
	s, db := newDuckStore(t)

	require.NoError(t, s.CreateTable(ctx, "dest", &core.Table{Name: "t", Columns: []core.Column{
		{Name: "id", Type: core.Int, PrimaryKey: true},
		{Name: "region", Type: core.String},
		{Name: "amount", Type: core.Double},
	}}))
	_, err := db.ExecContext(ctx, `INSERT INTO "dest"."t" VALUES (1, 'eu', 1.5), (2, 'us', 2.5)`)
	require.NoError(t, err)

	require.NoError(t, s.ReplacePrimaryKey(ctx, "dest", "t", []string{"id", "region"}))

	got, err := s.DescribeTable(ctx, "dest", "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "region", "amount"}, got.ColumnNames())
	assert.ElementsMatch(t, []string{"id", "region"}, got.PrimaryKeys())
	assert.Equal(t, 2, queryInt(t, db, `SELECT COUNT(*) FROM "dest"."t"`))

	ok, err := s.TableExists(ctx, "dest", "t__leapdest_rebuild")
	require.NoError(t, err)
	assert.False(t, ok, "scratch table is dropped")
}

func TestDuckDB_UpdateColumnValueEveryRow(t *testing.T) {
	ctx := context.Background()
	s, db := newDuckStore(t)

	require.NoError(t, s.CreateTable(ctx, "dest", &core.Table{Name: "t", Columns: []core.Column{
		{Name: "id", Type: core.Int, PrimaryKey: true},
	}}))
	_, err := db.ExecContext(ctx, `INSERT INTO "dest"."t" SELECT range FROM range(100)`)
	require.NoError(t, err)
	require.NoError(t, s.AddColumn(ctx, "dest", "t", core.Column{Name: "flag", Type: core.Boolean}))

	require.NoError(t, s.UpdateColumnValue(ctx, "dest", "t", "flag", "true"))
	assert.Equal(t, 100, queryInt(t, db, `SELECT COUNT(*) FROM "dest"."t" WHERE "flag" = TRUE`))

	err = s.UpdateColumnValue(ctx, "dest", "t", "missing", "1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDuckDB_InTxRollsBackDDL(t *testing.T) {
	ctx := context.Background()
	s, _ := newDuckStore(t)

	require.NoError(t, s.CreateTable(ctx, "dest", &core.Table{Name: "src", Columns: []core.Column{
		{Name: "id", Type: core.Int},
	}}))
	require.NoError(t, s.CreateTable(ctx, "dest", &core.Table{Name: "taken", Columns: []core.Column{
		{Name: "id", Type: core.Int},
	}}))

	err := s.InTx(ctx, func(tx core.Store) error {
		if err := tx.AddColumn(ctx, "dest", "src", core.Column{Name: "extra", Type: core.Long}); err != nil {
			return err
		}
		return tx.CopyTable(ctx, "dest", "src", "taken")
	})
	require.Error(t, err)

	got, err := s.DescribeTable(ctx, "dest", "src")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, got.ColumnNames())
}
