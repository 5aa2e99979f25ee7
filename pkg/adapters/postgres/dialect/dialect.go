// Package dialect provides the PostgreSQL SQL dialect definition.
// This package is lightweight and has no database driver dependencies.
package dialect

import (
	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect configuration.
var Postgres = dialect.NewDialect("postgres").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("public").
	PlaceholderStyle(core.PlaceholderDollar).
	DecimalType("DECIMAL").
	TextTypes("TEXT", "VARCHAR").
	TypeNames(map[core.DataType]string{
		core.Boolean:       "BOOLEAN",
		core.Short:         "SMALLINT",
		core.Int:           "INTEGER",
		core.Long:          "BIGINT",
		core.Float:         "REAL",
		core.Double:        "DOUBLE PRECISION",
		core.NaiveDate:     "DATE",
		core.NaiveTime:     "TIME",
		core.NaiveDateTime: "TIMESTAMP",
		core.UTCDateTime:   "TIMESTAMPTZ",
		core.Binary:        "BYTEA",
		core.JSON:          "JSONB",
	}).
	AlterPrimaryKey(true).
	TextLength(true).
	Build()
