// Package index implements the index directive engine: given the set of
// existing indexes on a container and a requested index specification, it
// decides whether a create or drop is a no-op, a conflict, or a genuine
// mutation.
package index

import (
	"strings"

	"github.com/tesserdb/tesser/internal/codec"
	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/pkg/types"
)

// Resolved is an index specification with the column reference and type
// fully resolved. Two Resolved values describe the same index iff column
// and type match, irrespective of name.
type Resolved struct {
	// Column is the indexed column number
	Column int

	// Type is the concrete index type, never DEFAULT
	Type types.IndexType

	// Name is the index name; "" for an unnamed index
	Name string
}

// Same reports whether two resolved specs describe the same index,
// ignoring names.
func (r Resolved) Same(o Resolved) bool {
	return r.Column == o.Column && r.Type == o.Type
}

// DefaultType returns the default index type for a column type within a
// container of the given type. ok is false when the column type supports
// no index at all.
func DefaultType(container types.ContainerType, column types.ColumnType) (types.IndexType, bool) {
	switch {
	case column == types.String, column == types.Bool,
		column.IsNumeric(), column == types.Timestamp:
		return types.IndexTree, true
	case column == types.Geometry && container == types.ContainerCollection:
		return types.IndexSpatial, true
	default:
		return types.IndexDefault, false
	}
}

// typeSupported reports whether an explicitly requested index type is
// usable on the given column type within the given container type.
func typeSupported(container types.ContainerType, column types.ColumnType, idx types.IndexType) bool {
	switch idx {
	case types.IndexTree:
		return column == types.String || column == types.Bool ||
			column.IsNumeric() || column == types.Timestamp
	case types.IndexHash:
		return container == types.ContainerCollection &&
			(column == types.String || column == types.Bool ||
				column.IsNumeric() || column == types.Timestamp)
	case types.IndexSpatial:
		return container == types.ContainerCollection && column == types.Geometry
	default:
		return false
	}
}

// resolveColumn resolves the column reference of a spec against the bound
// schema. Name and number, when both given, must agree.
func resolveColumn(schema *codec.Schema, spec types.IndexInfo) (int, types.ColumnInfo, error) {
	byName := -1
	if spec.ColumnName != "" {
		i, _, ok := schema.ColumnByName(spec.ColumnName)
		if !ok {
			return 0, types.ColumnInfo{}, errors.Newf(errors.ErrCategorySchema, errors.CodeUnknownColumn,
				"no column named %q", spec.ColumnName)
		}
		byName = i
	}

	switch {
	case byName >= 0 && spec.ColumnNumber != types.ColumnUnset:
		if byName != spec.ColumnNumber {
			return 0, types.ColumnInfo{}, errors.Newf(errors.ErrCategorySchema, errors.CodeUnknownColumn,
				"column name %q resolves to column %d, not %d", spec.ColumnName, byName, spec.ColumnNumber)
		}
	case byName >= 0:
		// name only
	case spec.ColumnNumber != types.ColumnUnset:
		byName = spec.ColumnNumber
	default:
		return 0, types.ColumnInfo{}, errors.New(errors.ErrCategorySchema, errors.CodeUnknownColumn,
			"index specification references no column")
	}

	cols := schema.Columns()
	if byName < 0 || byName >= len(cols) {
		return 0, types.ColumnInfo{}, errors.Newf(errors.ErrCategorySchema, errors.CodeUnknownColumn,
			"column number %d out of range", byName)
	}
	return byName, cols[byName], nil
}

// Resolve resolves a create specification to a concrete column and type.
// The time-series row key is not indexable, and neither are column/type
// combinations outside the support table.
func Resolve(schema *codec.Schema, spec types.IndexInfo) (Resolved, error) {
	col, colInfo, err := resolveColumn(schema, spec)
	if err != nil {
		return Resolved{}, err
	}

	if schema.ContainerType() == types.ContainerTimeSeries && schema.HasRowKey() && col == 0 {
		return Resolved{}, errors.New(errors.ErrCategorySchema, errors.CodeUnsupportedIndex,
			"the time-series row key is not indexable")
	}

	typ := spec.Type
	if typ == types.IndexDefault {
		var ok bool
		typ, ok = DefaultType(schema.ContainerType(), colInfo.Type)
		if !ok {
			return Resolved{}, errors.Newf(errors.ErrCategorySchema, errors.CodeUnsupportedIndex,
				"column type %s supports no index", colInfo.Type)
		}
	} else if !typeSupported(schema.ContainerType(), colInfo.Type, typ) {
		return Resolved{}, errors.Newf(errors.ErrCategorySchema, errors.CodeUnsupportedIndex,
			"%s index is not supported on column type %s", typ, colInfo.Type)
	}

	return Resolved{Column: col, Type: typ, Name: spec.Name}, nil
}

// PlanCreate decides the outcome of a create request against the existing
// index set. create=false with a nil error is a no-op: the requested index
// already exists under the dedup rules.
func PlanCreate(schema *codec.Schema, existing []Resolved, spec types.IndexInfo) (Resolved, bool, error) {
	want, err := Resolve(schema, spec)
	if err != nil {
		return Resolved{}, false, err
	}

	if want.Name != "" {
		for _, have := range existing {
			if have.Name != "" && strings.EqualFold(have.Name, want.Name) {
				if have.Same(want) && have.Name == want.Name {
					return want, false, nil
				}
				return Resolved{}, false, errors.Newf(errors.ErrCategorySchema, errors.CodeIndexConflict,
					"index name %q collides with existing index %q on column %d (%s)",
					want.Name, have.Name, have.Column, have.Type)
			}
		}
		for _, have := range existing {
			if have.Same(want) {
				// identical index exists but under no or another name
				return Resolved{}, false, errors.Newf(errors.ErrCategorySchema, errors.CodeIndexConflict,
					"an equivalent index on column %d (%s) already exists without name %q",
					want.Column, want.Type, want.Name)
			}
		}
		return want, true, nil
	}

	for _, have := range existing {
		if have.Same(want) {
			if have.Name == "" {
				return want, false, nil
			}
			return Resolved{}, false, errors.Newf(errors.ErrCategorySchema, errors.CodeIndexConflict,
				"an equivalent index already exists under name %q", have.Name)
		}
	}
	return want, true, nil
}

// PlanDrop returns the positions of existing indexes matched by the spec.
// Every set field narrows the match; unset fields act as wildcards, so an
// all-unset spec matches every index. Matching zero indexes is not an
// error. A column reference, when given, must resolve; the DEFAULT index
// type acts as a wildcard here.
func PlanDrop(schema *codec.Schema, existing []Resolved, spec types.IndexInfo) ([]int, error) {
	col := types.ColumnUnset
	if spec.ColumnName != "" || spec.ColumnNumber != types.ColumnUnset {
		c, _, err := resolveColumn(schema, spec)
		if err != nil {
			return nil, err
		}
		col = c
	}

	var matched []int
	for i, have := range existing {
		if col != types.ColumnUnset && have.Column != col {
			continue
		}
		if spec.Type != types.IndexDefault && have.Type != spec.Type {
			continue
		}
		if spec.Name != "" && !strings.EqualFold(have.Name, spec.Name) {
			continue
		}
		matched = append(matched, i)
	}
	return matched, nil
}
