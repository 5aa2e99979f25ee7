package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

func TestCollector_Observe(t *testing.T) {
	c := New()

	c.Observe(core.Event{Operation: "alter_table", Outcome: core.Success, Duration: 20 * time.Millisecond})
	c.Observe(core.Event{Operation: "alter_table", Outcome: core.Success, Duration: 40 * time.Millisecond})
	c.Observe(core.Event{Operation: "rename_table", Outcome: core.NotFound})

	assert.InDelta(t, 2, testutil.ToFloat64(c.Operations.WithLabelValues("alter_table", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Operations.WithLabelValues("rename_table", "not_found")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(c.Operations))
	assert.Equal(t, 2, testutil.CollectAndCount(c.OperationDuration))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := New()
	c.Observe(core.Event{Operation: "table_sync_mode_migration", Outcome: core.Failure, Duration: time.Second})

	path := filepath.Join(t.TempDir(), "textfile", "leapdest.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `leapdest_operations_total{operation="table_sync_mode_migration",outcome="failure"} 1`)
	assert.Contains(t, out, `leapdest_operation_duration_seconds_count{operation="table_sync_mode_migration"} 1`)
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.Observe(core.Event{Operation: "copy_table", Outcome: core.Success})

	assert.Equal(t, 1, testutil.CollectAndCount(a.Operations))
	assert.Equal(t, 0, testutil.CollectAndCount(b.Operations))
	assert.NotSame(t, a.Registry(), b.Registry())
}
