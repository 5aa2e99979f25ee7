// Package dialect describes the SQL dialects a destination can speak:
// identifier quoting, parameter placeholders and physical type names.
//
// Concrete dialects live next to their adapters (pkg/adapters/*/dialect)
// and register themselves in init().
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

// Dialect is a registered SQL dialect.
type Dialect struct {
	core.DialectConfig
}

// Config returns the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	cfg := d.DialectConfig
	return &cfg
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// FormatPlaceholder returns the placeholder for the parameter at index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// EscapeIdentifier doubles every quote-end character in name so it can sit
// inside a quoted identifier. Empty names pass through unchanged.
func (d *Dialect) EscapeIdentifier(name string) string {
	return strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
}

// QuoteIdentifier escapes and quotes an identifier.
func (d *Dialect) QuoteIdentifier(name string) string {
	return d.Identifiers.Quote + d.EscapeIdentifier(name) + d.Identifiers.QuoteEnd
}

// QuoteIdentifiers quotes each name and joins them with ", ".
func (d *Dialect) QuoteIdentifiers(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// QualifiedName returns the quoted schema.table reference.
// An empty schema yields the bare quoted table name.
func (d *Dialect) QualifiedName(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

// Builder constructs a Dialect.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name and
// ANSI double-quote identifiers.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			DialectConfig: core.DialectConfig{
				Name: name,
				Identifiers: core.IdentifierConfig{
					Quote:    `"`,
					QuoteEnd: `"`,
					Escape:   `""`,
				},
				Types: core.TypeConfig{
					Names:       make(map[core.DataType]string),
					Decimal:     "DECIMAL",
					Text:        "VARCHAR",
					BoundedText: "VARCHAR",
				},
			},
		},
	}
}

// New creates a dialect builder from a DialectConfig.
func New(cfg *core.DialectConfig) *Builder {
	b := NewDialect(cfg.Name)
	b.dialect.DialectConfig = *cfg
	if b.dialect.Types.Names == nil {
		b.dialect.Types.Names = make(map[core.DataType]string)
	}
	return b
}

// Identifiers configures identifier quoting.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:    quote,
		QuoteEnd: quoteEnd,
		Escape:   escape,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// TypeNames registers one-to-one physical type names.
func (b *Builder) TypeNames(names map[core.DataType]string) *Builder {
	for t, n := range names {
		b.dialect.Types.Names[t] = n
	}
	return b
}

// TextTypes sets the unbounded and length-bounded text type names.
func (b *Builder) TextTypes(unbounded, bounded string) *Builder {
	b.dialect.Types.Text = unbounded
	b.dialect.Types.BoundedText = bounded
	return b
}

// DecimalType sets the decimal type name.
func (b *Builder) DecimalType(name string) *Builder {
	b.dialect.Types.Decimal = name
	return b
}

// AlterPrimaryKey marks the dialect as able to drop and add a primary key in place.
func (b *Builder) AlterPrimaryKey(ok bool) *Builder {
	b.dialect.AlterPrimaryKey = ok
	return b
}

// TextLength marks the dialect as keeping declared VARCHAR lengths in its catalog.
func (b *Builder) TextLength(ok bool) *Builder {
	b.dialect.TextLength = ok
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
