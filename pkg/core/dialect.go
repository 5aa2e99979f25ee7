package core

// DialectConfig holds the static configuration for a SQL dialect.
// This is pure data; the behavior lives in pkg/dialect.Dialect.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "duckdb", "postgres")
	Name string

	// Identifiers defines quoting rules
	Identifiers IdentifierConfig

	// DefaultSchema is the schema the database itself falls back to ("main", "public")
	DefaultSchema string

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle

	// Types maps abstract types to physical type names.
	Types TypeConfig

	// AlterPrimaryKey is true when the database can drop and add a primary key,
	// and change the type of key columns, in place.
	AlterPrimaryKey bool

	// TextLength is true when the catalog reports the declared length of bounded text.
	TextLength bool
}

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string // Quote character: ", `, [
	QuoteEnd string // End quote character (usually same as Quote, ] for [)
	Escape   string // Escape sequence: "", ``, ]]
}

// TypeConfig names the physical types of a dialect.
type TypeConfig struct {
	// Names holds the one-to-one mappings. DECIMAL and STRING are rendered
	// from Decimal and BoundedText/Text instead.
	Names map[DataType]string

	Decimal     string // e.g. "DECIMAL"
	Text        string // unbounded text, e.g. "VARCHAR" or "TEXT"
	BoundedText string // length-bounded text, e.g. "VARCHAR"
}
