package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return &Table{
		Name: "orders",
		Columns: []Column{
			{Name: "id", Type: Int, PrimaryKey: true},
			{Name: "amount", Type: Decimal, Params: &TypeParams{Decimal: &DecimalParams{Precision: 12, Scale: 2}}},
			{Name: "note", Type: String},
		},
	}
}

func TestTable_Lookup(t *testing.T) {
	table := sampleTable()

	col, ok := table.Column("amount")
	require.True(t, ok)
	assert.Equal(t, Decimal, col.Type)

	assert.True(t, table.HasColumn("note"))
	assert.False(t, table.HasColumn("Note"), "column names are case-sensitive")
	assert.Equal(t, []string{"id", "amount", "note"}, table.ColumnNames())
	assert.Equal(t, []string{"id"}, table.PrimaryKeys())
}

func TestTable_Clone(t *testing.T) {
	table := sampleTable()
	clone := table.Clone()

	clone.Columns[1].Params.Decimal.Scale = 7
	clone.Columns[0].Name = "changed"

	assert.Equal(t, uint32(2), table.Columns[1].Params.Decimal.Scale)
	assert.Equal(t, "id", table.Columns[0].Name)

	var nilTable *Table
	assert.Nil(t, nilTable.Clone())
}

func TestTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		table   *Table
		wantErr bool
	}{
		{name: "valid", table: sampleTable()},
		{name: "nil table", table: nil, wantErr: true},
		{name: "no name", table: &Table{Columns: []Column{{Name: "a"}}}, wantErr: true},
		{name: "empty column name", table: &Table{Name: "t", Columns: []Column{{Name: ""}}}, wantErr: true},
		{
			name:    "duplicate column",
			table:   &Table{Name: "t", Columns: []Column{{Name: "a"}, {Name: "a", Type: Int}}},
			wantErr: true,
		},
		{
			name:  "names differing by case are distinct",
			table: &Table{Name: "t", Columns: []Column{{Name: "a"}, {Name: "A"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTable_WithoutColumns(t *testing.T) {
	table := sampleTable()
	got := table.WithoutColumns("amount", "missing")

	assert.Equal(t, []string{"id", "note"}, got.ColumnNames())
	assert.Len(t, table.Columns, 3)
}

func TestInferSyncMode(t *testing.T) {
	live := sampleTable()

	softDeleted := sampleTable()
	softDeleted.Columns = append(softDeleted.Columns, Column{Name: ColumnDeleted, Type: Boolean})

	customSoftDeleted := sampleTable()
	customSoftDeleted.Columns = append(customSoftDeleted.Columns, Column{Name: "is_gone", Type: Boolean})

	history := sampleTable()
	history.Columns = append(history.Columns, HistoryColumns()...)

	partialHistory := sampleTable()
	partialHistory.Columns = append(partialHistory.Columns, Column{Name: ColumnStart, Type: UTCDateTime})

	tests := []struct {
		name   string
		table  *Table
		column string
		want   SyncMode
	}{
		{"live", live, "", Live},
		{"soft delete default column", softDeleted, "", SoftDelete},
		{"soft delete named column", customSoftDeleted, "is_gone", SoftDelete},
		{"named column absent", customSoftDeleted, "", Live},
		{"history", history, "", History},
		{"partial history is live", partialHistory, "", Live},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferSyncMode(tt.table, tt.column))
		})
	}
}

func TestHistoryColumns(t *testing.T) {
	cols := HistoryColumns()
	require.Len(t, cols, 3)
	for _, c := range cols {
		assert.True(t, IsHistoryColumn(c.Name))
	}
	assert.Equal(t, UTCDateTime, cols[0].Type)
	assert.Equal(t, Boolean, cols[2].Type)
	assert.False(t, IsHistoryColumn(ColumnSynced))
}
