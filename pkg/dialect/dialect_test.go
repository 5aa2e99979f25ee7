package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	duckdbdialect "github.com/leapstack-labs/leapdest/pkg/adapters/duckdb/dialect"
	pgdialect "github.com/leapstack-labs/leapdest/pkg/adapters/postgres/dialect"
	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/dialect"
)

func TestQuoteIdentifier(t *testing.T) {
	d := duckdbdialect.DuckDB

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "orders", `"orders"`},
		{"embedded quote", `we"ird`, `"we""ird"`},
		{"only quotes", `""`, `""""""`},
		{"empty passes through", "", `""`},
		{"keeps case and spaces", "Order Items", `"Order Items"`},
		{"statement injection stays inside", `x"; DROP TABLE t; --`, `"x""; DROP TABLE t; --"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.QuoteIdentifier(tt.input))
		})
	}
}

func TestEscapeIdentifier_CustomQuotes(t *testing.T) {
	d := dialect.NewDialect("brackets").Identifiers("[", "]", "]]").Build()

	assert.Equal(t, "a]]b", d.EscapeIdentifier("a]b"))
	assert.Equal(t, "[a]]b]", d.QuoteIdentifier("a]b"))
	assert.Equal(t, "", d.EscapeIdentifier(""))
}

func TestQualifiedName(t *testing.T) {
	d := pgdialect.Postgres

	assert.Equal(t, `"sales"."orders"`, d.QualifiedName("sales", "orders"))
	assert.Equal(t, `"orders"`, d.QualifiedName("", "orders"))
	assert.Equal(t, `"a", "b""c"`, d.QuoteIdentifiers([]string{"a", `b"c`}))
}

func TestFormatPlaceholder(t *testing.T) {
	assert.Equal(t, "?", duckdbdialect.DuckDB.FormatPlaceholder(1))
	assert.Equal(t, "?", duckdbdialect.DuckDB.FormatPlaceholder(3))
	assert.Equal(t, "$1", pgdialect.Postgres.FormatPlaceholder(1))
	assert.Equal(t, "$3", pgdialect.Postgres.FormatPlaceholder(3))
}

func TestRegistry(t *testing.T) {
	d, ok := dialect.Get("DuckDB")
	require.True(t, ok)
	assert.Same(t, duckdbdialect.DuckDB, d)

	_, ok = dialect.Get("oracle")
	assert.False(t, ok)

	assert.Subset(t, dialect.List(), []string{"duckdb", "postgres"})
}

func TestNewFromConfig(t *testing.T) {
	cfg := &core.DialectConfig{
		Name:          "custom",
		DefaultSchema: "dbo",
		Placeholder:   core.PlaceholderDollar,
		Identifiers:   core.IdentifierConfig{Quote: "`", QuoteEnd: "`", Escape: "``"},
	}
	d := dialect.New(cfg).TypeNames(map[core.DataType]string{core.Int: "INT"}).Build()

	assert.Equal(t, "custom", d.GetName())
	assert.Equal(t, "`a``b`", d.QuoteIdentifier("a`b"))
	assert.Equal(t, "INT", d.Types.Names[core.Int])
	assert.Equal(t, "dbo", d.Config().DefaultSchema)
}
