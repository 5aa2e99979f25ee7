package plan

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/migrate"
)

func TestLoad(t *testing.T) {
	p, err := Load("testdata/full.yaml")
	require.NoError(t, err)

	assert.Equal(t, "dest", p.Schema)
	require.Len(t, p.Steps, 7)

	kinds := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		kinds[i] = s.Kind()
	}
	assert.Equal(t, []string{
		"create_table", "alter_table", "describe_table", "truncate_table", "migrate", "migrate", "migrate",
	}, kinds)

	create := p.Steps[0].CreateTable
	assert.Equal(t, "orders", create.Name)
	assert.Equal(t, []string{"id"}, create.PrimaryKeys())
	amount, _ := create.Column("amount")
	assert.Equal(t, core.Decimal, amount.Type)
	assert.Equal(t, &core.DecimalParams{Precision: 10, Scale: 2}, amount.Params.Decimal)
	region, _ := create.Column("region")
	assert.Equal(t, uint32(8), region.Params.StringByteLength)

	assert.True(t, p.Steps[1].AlterTable.DropColumns)

	soft := p.Steps[3].TruncateTable.Soft
	require.NotNil(t, soft)
	require.NotNil(t, soft.Before)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(*soft.Before))

	add, ok := p.Steps[4].Migrate.Operation().(*migrate.Add)
	require.True(t, ok)
	entity, ok := add.Entity.(*migrate.AddColumnWithDefaultValue)
	require.True(t, ok)
	assert.Equal(t, "status", entity.Column)
	assert.Equal(t, core.String, entity.Type)
	assert.Equal(t, "open", entity.DefaultValue)

	sync, ok := p.Steps[5].Migrate.Operation().(*migrate.TableSyncModeMigration)
	require.True(t, ok)
	assert.Equal(t, migrate.SoftDeleteToHistory, sync.Type)

	drop, ok := p.Steps[6].Migrate.Operation().(*migrate.Drop)
	require.True(t, ok)
	assert.IsType(t, &migrate.DropTable{}, drop.Entity)
}

func TestMigration_Operation(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	tests := []struct {
		name string
		m    Migration
		want migrate.Operation
	}{
		{"none", Migration{}, nil},
		{
			"drop column in history mode",
			Migration{DropColumnInHistoryMode: &DropColumnInHistoryMode{Column: "c", OperationTimestamp: ts}},
			&migrate.Drop{Entity: &migrate.DropColumnInHistoryMode{Column: "c", OperationTimestamp: ts}},
		},
		{
			"copy table",
			Migration{CopyTable: &FromTo{From: "a", To: "b"}},
			&migrate.Copy{Entity: &migrate.CopyTable{From: "a", To: "b"}},
		},
		{
			"copy column",
			Migration{CopyColumn: &FromTo{From: "a", To: "b"}},
			&migrate.Copy{Entity: &migrate.CopyColumn{From: "a", To: "b"}},
		},
		{
			"copy table to history mode",
			Migration{CopyTableToHistoryMode: &CopyTableToHistoryMode{From: "a", To: "b", SoftDeletedColumn: "gone"}},
			&migrate.Copy{Entity: &migrate.CopyTableToHistoryMode{From: "a", To: "b", SoftDeletedColumn: "gone"}},
		},
		{
			"rename table",
			Migration{RenameTable: &FromTo{From: "a", To: "b"}},
			&migrate.Rename{Entity: &migrate.RenameTable{From: "a", To: "b"}},
		},
		{
			"rename column",
			Migration{RenameColumn: &FromTo{From: "a", To: "b"}},
			&migrate.Rename{Entity: &migrate.RenameColumn{From: "a", To: "b"}},
		},
		{
			"add column in history mode",
			Migration{AddColumnInHistoryMode: &AddColumn{Column: "c", Type: core.Int, DefaultValue: "0", OperationTimestamp: ts}},
			&migrate.Add{Entity: &migrate.AddColumnInHistoryMode{Column: "c", Type: core.Int, DefaultValue: "0", OperationTimestamp: ts}},
		},
		{
			"update column value",
			Migration{UpdateColumnValue: &UpdateColumnValue{Column: "c", Value: "x"}},
			&migrate.UpdateColumnValue{Column: "c", Value: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Operation())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty document", "", "plan is empty"},
		{"no steps", "schema: dest\n", "plan has no steps"},
		{"unknown key", "steps:\n  - explode: {}\n", "field explode not found"},
		{"empty step", "steps:\n  - {}\n", "step 1 (empty): expected exactly one request, found 0"},
		{
			"two requests",
			"steps:\n  - describe_table: {table: a}\n    truncate_table: {table: a}\n",
			"expected exactly one request, found 2",
		},
		{
			"two migrations",
			"steps:\n  - migrate: {table: a, drop_table: {}, rename_table: {from: a, to: b}}\n",
			"expected exactly one migration, found 2",
		},
		{
			"no migration",
			"steps:\n  - migrate: {table: a}\n",
			"expected exactly one migration, found 0",
		},
		{
			"xml column",
			"steps:\n  - create_table: {name: t, columns: [{name: doc, type: XML}]}\n",
			"unsupported data type",
		},
		{
			"unknown type",
			"steps:\n  - create_table: {name: t, columns: [{name: doc, type: BLOB}]}\n",
			`unknown data type "BLOB"`,
		},
		{
			"unknown sync migration",
			"steps:\n  - migrate: {table: t, table_sync_mode_migration: {type: sideways}}\n",
			`unknown sync mode migration "sideways"`,
		},
		{
			"describe without table",
			"steps:\n  - describe_table: {}\n",
			"table is required",
		},
		{
			"soft truncate without column",
			"steps:\n  - truncate_table: {table: t, soft: {}}\n",
			"soft truncate requires deleted_column",
		},
		{
			"alter without table",
			"steps:\n  - alter_table: {drop_columns: true}\n",
			"table name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsEveryStep(t *testing.T) {
	p := &Plan{Steps: []Step{
		{DescribeTable: &TableRef{}},
		{DescribeTable: &TableRef{Table: "ok"}},
		{TruncateTable: &TruncateTable{}},
	}}

	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (describe_table)")
	assert.Contains(t, err.Error(), "step 3 (truncate_table)")
	assert.NotContains(t, err.Error(), "step 2")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read plan")
}
