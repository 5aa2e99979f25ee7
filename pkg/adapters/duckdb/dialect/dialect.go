// Package dialect provides the DuckDB SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// so the in-memory store and the CLI can use it without opening a database.
package dialect

import (
	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the DuckDB dialect configuration.
// DuckDB cannot drop a primary key or retype a key column in place, so those
// changes rebuild the table. VARCHAR lengths are accepted and discarded.
var DuckDB = dialect.NewDialect("duckdb").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("main").
	PlaceholderStyle(core.PlaceholderQuestion).
	DecimalType("DECIMAL").
	TextTypes("VARCHAR", "VARCHAR").
	TypeNames(map[core.DataType]string{
		core.Boolean:       "BOOLEAN",
		core.Short:         "SMALLINT",
		core.Int:           "INTEGER",
		core.Long:          "BIGINT",
		core.Float:         "REAL",
		core.Double:        "DOUBLE",
		core.NaiveDate:     "DATE",
		core.NaiveTime:     "TIME",
		core.NaiveDateTime: "TIMESTAMP",
		core.UTCDateTime:   "TIMESTAMPTZ",
		core.Binary:        "BLOB",
		core.JSON:          "JSON",
	}).
	AlterPrimaryKey(false).
	TextLength(false).
	Build()
