// Package types provides the public value model for the Tesser client:
// column types, row values, and container descriptions.
package types

// ColumnType identifies the type of a column in a container schema.
type ColumnType int

const (
	// String is a variable-length character string column
	String ColumnType = iota

	// Bool is a boolean column
	Bool

	// Byte is an 8-bit signed integer column
	Byte

	// Short is a 16-bit signed integer column
	Short

	// Integer is a 32-bit signed integer column
	Integer

	// Long is a 64-bit signed integer column
	Long

	// Float is a 32-bit floating point column
	Float

	// Double is a 64-bit floating point column
	Double

	// Timestamp is a millisecond-precision point-in-time column
	Timestamp

	// Geometry is a WKT-encoded spatial column
	Geometry

	// Blob is a binary large object column
	Blob

	// StringArray is an array of String elements
	StringArray

	// BoolArray is an array of Bool elements
	BoolArray

	// ByteArray is an array of Byte elements
	ByteArray

	// ShortArray is an array of Short elements
	ShortArray

	// IntegerArray is an array of Integer elements
	IntegerArray

	// LongArray is an array of Long elements
	LongArray

	// FloatArray is an array of Float elements
	FloatArray

	// DoubleArray is an array of Double elements
	DoubleArray

	// TimestampArray is an array of Timestamp elements
	TimestampArray
)

var columnTypeNames = map[ColumnType]string{
	String:         "STRING",
	Bool:           "BOOL",
	Byte:           "BYTE",
	Short:          "SHORT",
	Integer:        "INTEGER",
	Long:           "LONG",
	Float:          "FLOAT",
	Double:         "DOUBLE",
	Timestamp:      "TIMESTAMP",
	Geometry:       "GEOMETRY",
	Blob:           "BLOB",
	StringArray:    "STRING_ARRAY",
	BoolArray:      "BOOL_ARRAY",
	ByteArray:      "BYTE_ARRAY",
	ShortArray:     "SHORT_ARRAY",
	IntegerArray:   "INTEGER_ARRAY",
	LongArray:      "LONG_ARRAY",
	FloatArray:     "FLOAT_ARRAY",
	DoubleArray:    "DOUBLE_ARRAY",
	TimestampArray: "TIMESTAMP_ARRAY",
}

// String returns the canonical upper-case name of the column type.
func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether the value is one of the defined column types.
func (t ColumnType) Valid() bool {
	_, ok := columnTypeNames[t]
	return ok
}

// IsArray reports whether the type is an array type.
func (t ColumnType) IsArray() bool {
	return t >= StringArray && t <= TimestampArray
}

// Element returns the element type of an array type. For scalar types
// it returns the type itself.
func (t ColumnType) Element() ColumnType {
	switch t {
	case StringArray:
		return String
	case BoolArray:
		return Bool
	case ByteArray:
		return Byte
	case ShortArray:
		return Short
	case IntegerArray:
		return Integer
	case LongArray:
		return Long
	case FloatArray:
		return Float
	case DoubleArray:
		return Double
	case TimestampArray:
		return Timestamp
	default:
		return t
	}
}

// IsNumeric reports whether the type is one of the integer or floating
// point scalar types.
func (t ColumnType) IsNumeric() bool {
	switch t {
	case Byte, Short, Integer, Long, Float, Double:
		return true
	default:
		return false
	}
}

// KeySupported reports whether a column of this type may serve as a row key.
func (t ColumnType) KeySupported() bool {
	switch t {
	case String, Byte, Short, Integer, Long, Timestamp:
		return true
	default:
		return false
	}
}

// ColumnInfo describes a single column in a container schema.
type ColumnInfo struct {
	// Name is the column name, unique case-insensitively within a container
	Name string

	// Type is the column type
	Type ColumnType

	// Nullable indicates whether the column can hold NULL. The row key
	// column is implicitly non-nullable regardless of this flag.
	Nullable bool
}

// NewColumnInfo returns a ColumnInfo for the given name and type.
// Columns are nullable by default; the row key column ignores the flag.
func NewColumnInfo(name string, typ ColumnType) ColumnInfo {
	return ColumnInfo{Name: name, Type: typ, Nullable: true}
}
