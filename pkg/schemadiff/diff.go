// Package schemadiff compares a table's current shape with a requested one.
package schemadiff

import (
	"slices"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

// Retype is a column whose type or type parameters change.
type Retype struct {
	Name   string
	Column core.Column
}

// Result is the edit script that turns current into requested.
type Result struct {
	ToAdd             []core.Column
	ToDrop            []string
	ToRetype          []Retype
	PrimaryKeyChanged bool
	// PrimaryKey is the requested key, in requested column order.
	PrimaryKey []string
}

// Empty reports whether the tables already match.
func (r Result) Empty() bool {
	return len(r.ToAdd) == 0 && len(r.ToDrop) == 0 && len(r.ToRetype) == 0 && !r.PrimaryKeyChanged
}

type options struct {
	ignoreStringLength bool
}

// Option adjusts how columns are compared.
type Option func(*options)

// IgnoreStringLength treats STRING columns as equal regardless of byte length.
// Use it when the current table comes from a catalog that drops declared lengths.
func IgnoreStringLength() Option {
	return func(o *options) {
		o.ignoreStringLength = true
	}
}

// Diff matches columns by name. Column order is ignored.
func Diff(current, requested *core.Table, opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cur := make(map[string]core.Column, len(current.Columns))
	for _, c := range current.Columns {
		cur[c.Name] = c
	}
	req := make(map[string]struct{}, len(requested.Columns))

	var r Result
	for _, c := range requested.Columns {
		req[c.Name] = struct{}{}
		existing, ok := cur[c.Name]
		if !ok {
			r.ToAdd = append(r.ToAdd, c.Clone())
			continue
		}
		if typeChanged(existing, c, o) {
			r.ToRetype = append(r.ToRetype, Retype{Name: c.Name, Column: c.Clone()})
		}
	}
	for _, c := range current.Columns {
		if _, ok := req[c.Name]; !ok {
			r.ToDrop = append(r.ToDrop, c.Name)
		}
	}

	r.PrimaryKey = requested.PrimaryKeys()
	r.PrimaryKeyChanged = !sameSet(current.PrimaryKeys(), r.PrimaryKey)
	return r
}

// TypeChanged compares base types, then precision and scale for DECIMAL and
// byte length for STRING. Params that do not apply to the type are ignored.
func TypeChanged(a, b core.Column) bool {
	return typeChanged(a, b, options{})
}

func typeChanged(a, b core.Column, o options) bool {
	if a.Type != b.Type {
		return true
	}
	pa, pb := a.Params.Normalize(a.Type), b.Params.Normalize(b.Type)
	switch a.Type {
	case core.Decimal:
		switch {
		case pa == nil && pb == nil:
			return false
		case pa == nil || pb == nil:
			return true
		}
		return *pa.Decimal != *pb.Decimal
	case core.String:
		return !o.ignoreStringLength && byteLength(pa) != byteLength(pb)
	default:
		return false
	}
}

func byteLength(p *core.TypeParams) uint32 {
	if p == nil {
		return 0
	}
	return p.StringByteLength
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := slices.Clone(a), slices.Clone(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return slices.Equal(sa, sb)
}
