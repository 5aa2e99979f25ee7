package dialect

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

// Decimal parameters used when a DECIMAL column carries none.
const (
	DefaultDecimalPrecision = 38
	DefaultDecimalScale     = 10
)

// TypeMapper translates between abstract data types and a dialect's physical types.
type TypeMapper struct {
	dialect *Dialect
	logger  *slog.Logger
}

// NewTypeMapper creates a mapper for d. If logger is nil, a discard logger is used.
func NewTypeMapper(d *Dialect, logger *slog.Logger) *TypeMapper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TypeMapper{dialect: d, logger: logger}
}

// ToPhysicalType renders the physical type for t.
// DECIMAL without params falls back to DECIMAL(38, 10). XML is rejected.
func (m *TypeMapper) ToPhysicalType(t core.DataType, params *core.TypeParams) (string, error) {
	types := m.dialect.Types
	params = params.Normalize(t)

	switch t {
	case core.XML:
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedType, t)
	case core.Decimal:
		precision, scale := uint32(DefaultDecimalPrecision), uint32(DefaultDecimalScale)
		if params != nil && params.Decimal != nil {
			precision, scale = params.Decimal.Precision, params.Decimal.Scale
		}
		return fmt.Sprintf("%s(%d, %d)", types.Decimal, precision, scale), nil
	case core.String:
		if params != nil && params.StringByteLength > 0 {
			return fmt.Sprintf("%s(%d)", types.BoundedText, params.StringByteLength), nil
		}
		return types.Text, nil
	case core.Unspecified:
		return types.Text, nil
	}

	if name, ok := types.Names[t]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %s has no %s mapping", core.ErrUnsupportedType, t, m.dialect.Name)
}

// FromPhysicalType maps a physical type name back to an abstract type.
// Unrecognized names map to STRING with a warning; this never fails.
func (m *TypeMapper) FromPhysicalType(physical string) core.DataType {
	if t, ok := MatchPhysicalType(physical); ok {
		return t
	}
	m.logger.Warn("unrecognized physical type, treating as STRING",
		slog.String("dialect", m.dialect.Name),
		slog.String("physical_type", physical))
	return core.String
}

type typeRule struct {
	typ   core.DataType
	match func(upper string, words []string) bool
}

// reverseRules are checked in order; some keywords are substrings of others.
var reverseRules = []typeRule{
	{core.Boolean, func(s string, _ []string) bool { return strings.Contains(s, "BOOL") }},
	{core.Short, func(s string, _ []string) bool { return containsAny(s, "SMALLINT", "INT2") }},
	{core.Int, func(s string, w []string) bool { return containsAny(s, "INTEGER", "INT4") || hasWord(w, "INT") }},
	{core.Long, func(s string, _ []string) bool { return containsAny(s, "BIGINT", "INT8") }},
	{core.Decimal, func(s string, _ []string) bool { return containsAny(s, "DECIMAL", "NUMERIC") }},
	{core.Double, func(s string, _ []string) bool { return containsAny(s, "DOUBLE", "FLOAT8") }},
	{core.Float, func(s string, _ []string) bool { return containsAny(s, "FLOAT", "REAL") }},
	{core.NaiveDate, func(s string, _ []string) bool {
		return strings.Contains(s, "DATE") && !strings.Contains(s, "TIME")
	}},
	{core.UTCDateTime, func(s string, _ []string) bool {
		if strings.Contains(s, "TIMESTAMPTZ") {
			return true
		}
		return strings.Contains(s, "TIMESTAMP") && strings.Contains(s, "WITH TIME ZONE") && !strings.Contains(s, "WITHOUT")
	}},
	{core.NaiveDateTime, func(s string, _ []string) bool { return containsAny(s, "TIMESTAMP", "DATETIME") }},
	{core.NaiveTime, func(s string, _ []string) bool { return strings.Contains(s, "TIME") }},
	{core.Binary, func(s string, _ []string) bool { return containsAny(s, "BLOB", "BYTEA", "BINARY") }},
	{core.JSON, func(s string, _ []string) bool { return strings.Contains(s, "JSON") }},
	{core.String, func(s string, _ []string) bool { return containsAny(s, "CHAR", "TEXT", "STRING") }},
}

// MatchPhysicalType applies the reverse-mapping rules to physical.
// ok is false when no rule matched.
func MatchPhysicalType(physical string) (t core.DataType, ok bool) {
	upper := strings.ToUpper(strings.TrimSpace(physical))
	words := strings.FieldsFunc(upper, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, rule := range reverseRules {
		if rule.match(upper, words) {
			return rule.typ, true
		}
	}
	return core.String, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasWord(words []string, want string) bool {
	for _, w := range words {
		if w == want {
			return true
		}
	}
	return false
}
