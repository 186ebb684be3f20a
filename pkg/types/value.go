package types

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is a tagged union over the fixed column type set. The zero Value
// is a NULL of type String; use the typed constructors for anything else.
type Value struct {
	typ  ColumnType
	null bool
	str  string
	b    bool
	i    int64
	f    float64
	ts   time.Time
	bin  []byte
	arr  []Value
}

// NewString returns a String value.
func NewString(v string) Value { return Value{typ: String, str: v} }

// NewBool returns a Bool value.
func NewBool(v bool) Value { return Value{typ: Bool, b: v} }

// NewByte returns a Byte value.
func NewByte(v int8) Value { return Value{typ: Byte, i: int64(v)} }

// NewShort returns a Short value.
func NewShort(v int16) Value { return Value{typ: Short, i: int64(v)} }

// NewInteger returns an Integer value.
func NewInteger(v int32) Value { return Value{typ: Integer, i: int64(v)} }

// NewLong returns a Long value.
func NewLong(v int64) Value { return Value{typ: Long, i: v} }

// NewFloat returns a Float value.
func NewFloat(v float32) Value { return Value{typ: Float, f: float64(v)} }

// NewDouble returns a Double value.
func NewDouble(v float64) Value { return Value{typ: Double, f: v} }

// NewTimestamp returns a Timestamp value truncated to millisecond precision.
func NewTimestamp(v time.Time) Value {
	return Value{typ: Timestamp, ts: v.UTC().Truncate(time.Millisecond)}
}

// NewGeometry returns a Geometry value holding a WKT string.
func NewGeometry(wkt string) Value { return Value{typ: Geometry, str: wkt} }

// NewBlob returns a Blob value. The byte slice is copied.
func NewBlob(v []byte) Value {
	cp := make([]byte, len(v))
	copy(cp, v)
	return Value{typ: Blob, bin: cp}
}

// NewArray returns an array value of the given array type. Every element
// must already carry the array's element type; elements are copied.
func NewArray(typ ColumnType, elems []Value) (Value, error) {
	if !typ.IsArray() {
		return Value{}, fmt.Errorf("types: %s is not an array type", typ)
	}
	cp := make([]Value, len(elems))
	for i, e := range elems {
		if e.typ != typ.Element() || e.null {
			return Value{}, fmt.Errorf("types: array element %d is not a non-null %s", i, typ.Element())
		}
		cp[i] = e.Clone()
	}
	return Value{typ: typ, arr: cp}, nil
}

// NewNull returns a NULL value of the given type.
func NewNull(typ ColumnType) Value { return Value{typ: typ, null: true} }

// EmptyValue returns the type-specific empty value: "" for String, false
// for Bool, 0 for numerics, the epoch for Timestamp, POINT(EMPTY) for
// Geometry, a zero-length Blob, and a zero-length array for array types.
func EmptyValue(typ ColumnType) Value {
	switch {
	case typ == String:
		return NewString("")
	case typ == Bool:
		return NewBool(false)
	case typ.IsNumeric():
		return Value{typ: typ}
	case typ == Timestamp:
		return Value{typ: Timestamp, ts: time.Unix(0, 0).UTC()}
	case typ == Geometry:
		return NewGeometry("POINT(EMPTY)")
	case typ == Blob:
		return Value{typ: Blob, bin: []byte{}}
	case typ.IsArray():
		return Value{typ: typ, arr: []Value{}}
	default:
		return Value{typ: typ, null: true}
	}
}

// Type returns the column type of the value.
func (v Value) Type() ColumnType { return v.typ }

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool { return v.null }

// AsString returns the string payload of a String or Geometry value.
func (v Value) AsString() string { return v.str }

// AsBool returns the payload of a Bool value.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the integer payload of a Byte, Short, Integer or Long value.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the floating point payload of a Float or Double value.
func (v Value) AsFloat() float64 { return v.f }

// AsTime returns the payload of a Timestamp value.
func (v Value) AsTime() time.Time { return v.ts }

// AsBytes returns the payload of a Blob value. The returned slice is a copy.
func (v Value) AsBytes() []byte {
	cp := make([]byte, len(v.bin))
	copy(cp, v.bin)
	return cp
}

// AsArray returns the elements of an array value. The returned slice is a copy.
func (v Value) AsArray() []Value {
	cp := make([]Value, len(v.arr))
	for i, e := range v.arr {
		cp[i] = e.Clone()
	}
	return cp
}

// Len returns the element count of an array value or the byte length of a
// Blob value; 0 for anything else.
func (v Value) Len() int {
	if v.typ == Blob {
		return len(v.bin)
	}
	return len(v.arr)
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	cp := v
	if v.bin != nil {
		cp.bin = make([]byte, len(v.bin))
		copy(cp.bin, v.bin)
	}
	if v.arr != nil {
		cp.arr = make([]Value, len(v.arr))
		for i, e := range v.arr {
			cp.arr[i] = e.Clone()
		}
	}
	return cp
}

// Equal reports deep equality of two values, including type and nullness.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ || v.null != o.null {
		return false
	}
	if v.null {
		return true
	}
	switch v.typ {
	case String, Geometry:
		return v.str == o.str
	case Bool:
		return v.b == o.b
	case Byte, Short, Integer, Long:
		return v.i == o.i
	case Float, Double:
		return v.f == o.f
	case Timestamp:
		return v.ts.Equal(o.ts)
	case Blob:
		return bytes.Equal(v.bin, o.bin)
	default:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
}

// KeyString returns a canonical string form of a key-capable value, usable
// as a map key and as the row lock identity. It is only defined for the
// key-supported scalar types.
func (v Value) KeyString() string {
	switch v.typ {
	case String:
		return "s:" + v.str
	case Byte, Short, Integer, Long:
		return "i:" + strconv.FormatInt(v.i, 10)
	case Timestamp:
		return "t:" + strconv.FormatInt(v.ts.UnixMilli(), 10)
	default:
		return "?:" + v.String()
	}
}

// String renders the value for diagnostics.
func (v Value) String() string {
	if v.null {
		return "NULL"
	}
	switch v.typ {
	case String, Geometry:
		return v.str
	case Bool:
		return strconv.FormatBool(v.b)
	case Byte, Short, Integer, Long:
		return strconv.FormatInt(v.i, 10)
	case Float, Double:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Timestamp:
		return v.ts.Format(time.RFC3339Nano)
	case Blob:
		return fmt.Sprintf("(blob %d bytes)", len(v.bin))
	default:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
}

// Row is an ordered list of column values matching a container's layout.
type Row []Value

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	cp := make(Row, len(r))
	for i, v := range r {
		cp[i] = v.Clone()
	}
	return cp
}
