// Package codec implements the schema-bound row codec: it binds a container
// layout, converts rows to and from column values, and derives the row key.
// The mapping is schema-driven over the fixed column type set; there is no
// runtime reflection.
package codec

import (
	"strings"

	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/pkg/types"
)

// Schema is a row codec bound to a validated container layout.
type Schema struct {
	containerType types.ContainerType
	columns       []types.ColumnInfo
	rowKey        bool
}

// Bind validates the column layout of the given container information and
// returns a codec bound to it. This is the point where column count and row
// key invariants are enforced; ContainerInfo itself may describe a
// transiently invalid layout.
func Bind(info *types.ContainerInfo) (*Schema, error) {
	cols := info.Columns()
	if len(cols) < 1 || len(cols) > types.MaxColumns {
		return nil, errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidSchema,
			"column count %d out of range [1, %d]", len(cols), types.MaxColumns)
	}

	seen := make(map[string]struct{}, len(cols))
	for i, col := range cols {
		if col.Name == "" {
			return nil, errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidSchema,
				"column %d has no name", i)
		}
		if !col.Type.Valid() {
			return nil, errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidSchema,
				"column %q has invalid type", col.Name)
		}
		lower := strings.ToLower(col.Name)
		if _, dup := seen[lower]; dup {
			return nil, errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidSchema,
				"duplicate column name %q (names are case-insensitive)", col.Name)
		}
		seen[lower] = struct{}{}
	}

	if info.RowKeyAssigned() {
		key := cols[0]
		if !key.Type.KeySupported() {
			return nil, errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidSchema,
				"column type %s cannot serve as a row key", key.Type)
		}
		if info.Type() == types.ContainerTimeSeries && key.Type != types.Timestamp {
			return nil, errors.New(errors.ErrCategoryValidation, errors.CodeInvalidSchema,
				"time-series row key must be a TIMESTAMP column")
		}
	}

	return &Schema{
		containerType: info.Type(),
		columns:       cols,
		rowKey:        info.RowKeyAssigned(),
	}, nil
}

// ContainerType returns the bound container type.
func (s *Schema) ContainerType() types.ContainerType { return s.containerType }

// HasRowKey reports whether column 0 is the row key.
func (s *Schema) HasRowKey() bool { return s.rowKey }

// ColumnCount returns the number of bound columns.
func (s *Schema) ColumnCount() int { return len(s.columns) }

// Columns returns a copy of the bound column layout.
func (s *Schema) Columns() []types.ColumnInfo {
	cp := make([]types.ColumnInfo, len(s.columns))
	copy(cp, s.columns)
	return cp
}

// ColumnByName resolves a column by case-insensitive name.
func (s *Schema) ColumnByName(name string) (int, types.ColumnInfo, bool) {
	for i, col := range s.columns {
		if strings.EqualFold(col.Name, name) {
			return i, col, true
		}
	}
	return 0, types.ColumnInfo{}, false
}

// EncodeKey validates a standalone key value against the key column and
// returns it. Fails with KEY_NOT_SUPPORTED if the container has no key
// column, and with TYPE_MISMATCH if the value does not conform.
func (s *Schema) EncodeKey(key types.Value) (types.Value, error) {
	if !s.rowKey {
		return types.Value{}, errors.NewKeyNotSupportedError(
			"container has no row key column")
	}
	keyCol := s.columns[0]
	if key.IsNull() {
		return types.Value{}, errors.NewTypeMismatchError(
			"row key must not be NULL")
	}
	if key.Type() != keyCol.Type {
		return types.Value{}, errors.Newf(errors.ErrCategoryValidation, errors.CodeTypeMismatch,
			"key type %s does not match key column type %s", key.Type(), keyCol.Type)
	}
	return key, nil
}

// EncodeRow validates a row against the bound layout and returns the
// normalized column values plus the derived row key. An explicit key, when
// non-nil, overrides the key embedded in the row. NULL values destined for
// a non-nullable column are mapped to the column type's empty value; the
// row key column never accepts NULL.
//
// The second return value reports whether the container has a key column;
// hasKey=false means every put unconditionally creates a new row.
func (s *Schema) EncodeRow(row types.Row, explicitKey *types.Value) (key types.Value, cols types.Row, hasKey bool, err error) {
	if len(row) != len(s.columns) {
		return types.Value{}, nil, false, errors.Newf(
			errors.ErrCategoryValidation, errors.CodeTypeMismatch,
			"row has %d values, container has %d columns", len(row), len(s.columns))
	}

	cols = make(types.Row, len(row))
	for i, col := range s.columns {
		v := row[i]
		isKeyCol := s.rowKey && i == 0
		if v.IsNull() {
			if isKeyCol {
				return types.Value{}, nil, false, errors.NewTypeMismatchError(
					"row key column must not be NULL")
			}
			if v.Type() != col.Type {
				return types.Value{}, nil, false, errors.Newf(
					errors.ErrCategoryValidation, errors.CodeTypeMismatch,
					"column %q: NULL of type %s does not match column type %s",
					col.Name, v.Type(), col.Type)
			}
			if !col.Nullable {
				cols[i] = types.EmptyValue(col.Type)
			} else {
				cols[i] = v
			}
			continue
		}
		if v.Type() != col.Type {
			return types.Value{}, nil, false, errors.Newf(
				errors.ErrCategoryValidation, errors.CodeTypeMismatch,
				"column %q: value type %s does not match column type %s",
				col.Name, v.Type(), col.Type)
		}
		cols[i] = v.Clone()
	}

	if !s.rowKey {
		if explicitKey != nil {
			return types.Value{}, nil, false, errors.NewKeyNotSupportedError(
				"explicit key given but container has no row key column")
		}
		return types.Value{}, cols, false, nil
	}

	if explicitKey != nil {
		k, err := s.EncodeKey(*explicitKey)
		if err != nil {
			return types.Value{}, nil, false, err
		}
		cols[0] = k.Clone()
		return k, cols, true, nil
	}
	return cols[0], cols, true, nil
}

// DecodeRow converts stored column values back into a caller-visible row.
// The result is a deep copy; mutating it does not affect stored state.
func (s *Schema) DecodeRow(cols types.Row) types.Row {
	return cols.Clone()
}

// EmptyRow returns a row pre-filled with each column's empty value.
func (s *Schema) EmptyRow() types.Row {
	row := make(types.Row, len(s.columns))
	for i, col := range s.columns {
		row[i] = types.EmptyValue(col.Type)
	}
	return row
}
