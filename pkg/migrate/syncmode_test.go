package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/migrate"
)

func syncMigration(typ migrate.SyncModeMigrationType, softDeleted string) *migrate.Request {
	return &migrate.Request{Table: "t", Operation: &migrate.TableSyncModeMigration{Type: typ, SoftDeletedColumn: softDeleted}}
}

func TestSyncMode_SoftDeleteHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, o := setup(t, softDeleteTable())
	original := describe(t, store, "t")

	res := o.Migrate(ctx, syncMigration(migrate.SoftDeleteToHistory, core.ColumnDeleted))
	require.True(t, res.OK(), res.Err)

	history := describe(t, store, "t")
	assert.False(t, history.HasColumn(core.ColumnDeleted))
	assert.Equal(t, core.History, core.InferSyncMode(history, core.ColumnDeleted))

	res = o.Migrate(ctx, syncMigration(migrate.HistoryToSoftDelete, core.ColumnDeleted))
	require.True(t, res.OK(), res.Err)

	assert.Equal(t, original, describe(t, store, "t"))
}

func TestSyncMode_CustomSoftDeleteColumn(t *testing.T) {
	ctx := context.Background()
	store, o := setup(t, historyTable())

	res := o.Migrate(ctx, syncMigration(migrate.HistoryToSoftDelete, "is_gone"))
	require.True(t, res.OK(), res.Err)

	got := describe(t, store, "t")
	c, ok := got.Column("is_gone")
	require.True(t, ok)
	assert.Equal(t, core.Boolean, c.Type)
	assert.Equal(t, core.SoftDelete, core.InferSyncMode(got, "is_gone"))
}

func TestSyncMode_LiveTransitionsFail(t *testing.T) {
	tests := []struct {
		typ   migrate.SyncModeMigrationType
		table func() *core.Table
	}{
		{migrate.SoftDeleteToLive, softDeleteTable},
		{migrate.HistoryToLive, historyTable},
		{migrate.LiveToSoftDelete, liveTable},
		{migrate.LiveToHistory, liveTable},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			store, o := setup(t, tt.table())

			res := o.Migrate(context.Background(), syncMigration(tt.typ, core.ColumnDeleted))
			assert.Equal(t, core.Failure, res.Outcome)
			assert.ErrorIs(t, res.Err, core.ErrUnsupportedTransition)
			assert.Equal(t, tt.table(), describe(t, store, "t"))
		})
	}
}

func TestSyncMode_MissingTable(t *testing.T) {
	_, o := setup(t)
	res := o.Migrate(context.Background(), syncMigration(migrate.SoftDeleteToHistory, core.ColumnDeleted))
	assert.Equal(t, core.NotFound, res.Outcome)
}

func TestSyncModeMigrationType(t *testing.T) {
	tests := []struct {
		in   string
		want migrate.SyncModeMigrationType
	}{
		{"soft_delete_to_history", migrate.SoftDeleteToHistory},
		{"HISTORY_TO_SOFT_DELETE", migrate.HistoryToSoftDelete},
		{" live_to_history ", migrate.LiveToHistory},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := migrate.ParseSyncModeMigrationType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := migrate.ParseSyncModeMigrationType("live_to_live")
	assert.Error(t, err)

	from, ok := migrate.HistoryToLive.From()
	assert.True(t, ok)
	assert.Equal(t, core.History, from)
	assert.Equal(t, "SyncModeMigrationType(9)", migrate.SyncModeMigrationType(9).String())
}
