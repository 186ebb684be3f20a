package types

// IndexType identifies the storage structure of an index.
type IndexType int

const (
	// IndexDefault is a sentinel resolved to a concrete type per the
	// column-type/container-type lookup table at create time.
	IndexDefault IndexType = iota

	// IndexTree is an ordered tree index supporting range scans.
	IndexTree

	// IndexHash is a hash index supporting point lookups.
	IndexHash

	// IndexSpatial is a spatial index over GEOMETRY columns.
	IndexSpatial
)

// String returns the canonical name of the index type.
func (t IndexType) String() string {
	switch t {
	case IndexDefault:
		return "DEFAULT"
	case IndexTree:
		return "TREE"
	case IndexHash:
		return "HASH"
	case IndexSpatial:
		return "SPATIAL"
	default:
		return "UNKNOWN"
	}
}

// ColumnUnset marks an IndexInfo with no column number constraint.
const ColumnUnset = -1

// IndexInfo identifies an index by column reference (name and/or number),
// index type, and optional name. Unset fields act as wildcards when the
// info narrows a drop operation.
type IndexInfo struct {
	// Name is the index name; "" means unnamed
	Name string

	// ColumnName references the indexed column by name; "" means unset
	ColumnName string

	// ColumnNumber references the indexed column by position;
	// ColumnUnset means unset. If both ColumnName and ColumnNumber are
	// given they must resolve to the same column.
	ColumnNumber int

	// Type is the index type; IndexDefault resolves per the lookup table
	Type IndexType
}

// NewIndexInfo returns an empty IndexInfo with all fields unset.
func NewIndexInfo() IndexInfo {
	return IndexInfo{ColumnNumber: ColumnUnset}
}

// IndexInfoByColumn returns an IndexInfo referencing a column by name with
// the given type.
func IndexInfoByColumn(columnName string, typ IndexType) IndexInfo {
	return IndexInfo{ColumnName: columnName, ColumnNumber: ColumnUnset, Type: typ}
}

// IndexInfoByNumber returns an IndexInfo referencing a column by position
// with the given type.
func IndexInfoByNumber(columnNumber int, typ IndexType) IndexInfo {
	return IndexInfo{ColumnNumber: columnNumber, Type: typ}
}

// WithName returns a copy of the info carrying the given index name.
func (i IndexInfo) WithName(name string) IndexInfo {
	i.Name = name
	return i
}
