package core

import (
	"fmt"
	"strings"
)

// DataType is the abstract column type understood by the engine.
// Physical type names are resolved per dialect by dialect.TypeMapper.
type DataType int

// DataType values. The numbering follows the destination SDK enumeration.
const (
	Unspecified DataType = iota
	Boolean
	Short
	Int
	Long
	Decimal
	Float
	Double
	NaiveDate
	NaiveDateTime
	UTCDateTime
	Binary
	XML
	String
	JSON
	NaiveTime
)

var dataTypeNames = map[DataType]string{
	Unspecified:   "UNSPECIFIED",
	Boolean:       "BOOLEAN",
	Short:         "SHORT",
	Int:           "INT",
	Long:          "LONG",
	Decimal:       "DECIMAL",
	Float:         "FLOAT",
	Double:        "DOUBLE",
	NaiveDate:     "NAIVE_DATE",
	NaiveDateTime: "NAIVE_DATETIME",
	UTCDateTime:   "UTC_DATETIME",
	Binary:        "BINARY",
	XML:           "XML",
	String:        "STRING",
	JSON:          "JSON",
	NaiveTime:     "NAIVE_TIME",
}

// String returns the upper-snake name of the type.
func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// ParseDataType parses a type name case-insensitively.
func ParseDataType(s string) (DataType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range dataTypeNames {
		if n == name {
			return t, nil
		}
	}
	return Unspecified, fmt.Errorf("unknown data type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t DataType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsSupported reports whether the type can be materialized in a destination.
func (t DataType) IsSupported() bool {
	_, known := dataTypeNames[t]
	return known && t != XML
}

// SupportedDataTypes returns every type that has a physical mapping, in enum order.
func SupportedDataTypes() []DataType {
	types := make([]DataType, 0, len(dataTypeNames))
	for t := Unspecified; t <= NaiveTime; t++ {
		if t.IsSupported() {
			types = append(types, t)
		}
	}
	return types
}

// DecimalParams holds precision and scale for DECIMAL columns.
type DecimalParams struct {
	Precision uint32 `json:"precision" yaml:"precision"`
	Scale     uint32 `json:"scale" yaml:"scale"`
}

// TypeParams carries optional type-dependent parameters.
// Decimal is meaningful only for DECIMAL and StringByteLength only for STRING.
type TypeParams struct {
	Decimal          *DecimalParams `json:"decimal,omitempty" yaml:"decimal,omitempty"`
	StringByteLength uint32         `json:"string_byte_length,omitempty" yaml:"string_byte_length,omitempty"`
}

// Normalize returns a copy of p holding only the parameters that apply to t.
// It returns nil when nothing applies.
func (p *TypeParams) Normalize(t DataType) *TypeParams {
	if p == nil {
		return nil
	}
	switch t {
	case Decimal:
		if p.Decimal == nil {
			return nil
		}
		d := *p.Decimal
		return &TypeParams{Decimal: &d}
	case String:
		if p.StringByteLength == 0 {
			return nil
		}
		return &TypeParams{StringByteLength: p.StringByteLength}
	default:
		return nil
	}
}

// Clone returns a deep copy of p.
func (p *TypeParams) Clone() *TypeParams {
	if p == nil {
		return nil
	}
	c := *p
	if p.Decimal != nil {
		d := *p.Decimal
		c.Decimal = &d
	}
	return &c
}
