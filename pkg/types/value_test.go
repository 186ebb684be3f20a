package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyValues(t *testing.T) {
	assert.Equal(t, "", EmptyValue(String).AsString())
	assert.False(t, EmptyValue(Bool).AsBool())
	assert.Equal(t, int64(0), EmptyValue(Long).AsInt())
	assert.Equal(t, float64(0), EmptyValue(Double).AsFloat())
	assert.Equal(t, time.Unix(0, 0).UTC(), EmptyValue(Timestamp).AsTime())
	assert.Equal(t, "POINT(EMPTY)", EmptyValue(Geometry).AsString())
	assert.Equal(t, 0, EmptyValue(Blob).Len())
	assert.Equal(t, 0, EmptyValue(LongArray).Len())

	for typ := range columnTypeNames {
		v := EmptyValue(typ)
		assert.False(t, v.IsNull(), "empty value of %s must not be NULL", typ)
		assert.Equal(t, typ, v.Type())
	}
}

func TestTimestampTruncatedToMillis(t *testing.T) {
	ts := time.Date(2024, 5, 17, 10, 30, 0, 123456789, time.UTC)
	v := NewTimestamp(ts)
	assert.Equal(t, int64(123), int64(v.AsTime().Nanosecond())/int64(time.Millisecond))
}

func TestBlobIsolation(t *testing.T) {
	src := []byte{1, 2, 3}
	v := NewBlob(src)
	src[0] = 99
	assert.Equal(t, []byte{1, 2, 3}, v.AsBytes())

	out := v.AsBytes()
	out[1] = 42
	assert.Equal(t, []byte{1, 2, 3}, v.AsBytes())
}

func TestArrayConstruction(t *testing.T) {
	arr, err := NewArray(IntegerArray, []Value{NewInteger(1), NewInteger(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, arr.Len())
	assert.Equal(t, IntegerArray, arr.Type())

	_, err = NewArray(Integer, nil)
	assert.Error(t, err)

	_, err = NewArray(IntegerArray, []Value{NewLong(1)})
	assert.Error(t, err, "element type must match")

	_, err = NewArray(IntegerArray, []Value{NewNull(Integer)})
	assert.Error(t, err, "array elements must not be NULL")
}

func TestValueEqual(t *testing.T) {
	assert.True(t, NewString("a").Equal(NewString("a")))
	assert.False(t, NewString("a").Equal(NewString("b")))
	assert.False(t, NewInteger(1).Equal(NewLong(1)), "different types never equal")
	assert.True(t, NewNull(String).Equal(NewNull(String)))
	assert.False(t, NewNull(String).Equal(NewString("")))

	now := time.Now()
	assert.True(t, NewTimestamp(now).Equal(NewTimestamp(now)))

	a, _ := NewArray(StringArray, []Value{NewString("x")})
	b, _ := NewArray(StringArray, []Value{NewString("x")})
	c, _ := NewArray(StringArray, []Value{NewString("y")})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestKeyStringDistinguishesValues(t *testing.T) {
	assert.NotEqual(t, NewLong(1).KeyString(), NewLong(2).KeyString())
	assert.Equal(t, NewLong(7).KeyString(), NewLong(7).KeyString())
	assert.NotEqual(t, NewString("1").KeyString(), NewLong(1).KeyString())
}

func TestRowClone(t *testing.T) {
	row := Row{NewString("k"), NewBlob([]byte{1})}
	cp := row.Clone()
	cp[0] = NewString("changed")
	assert.Equal(t, "k", row[0].AsString())
	assert.Nil(t, Row(nil).Clone())
}

func TestColumnTypeHelpers(t *testing.T) {
	assert.True(t, LongArray.IsArray())
	assert.False(t, Long.IsArray())
	assert.Equal(t, Long, LongArray.Element())
	assert.Equal(t, Blob, Blob.Element())
	assert.True(t, Timestamp.KeySupported())
	assert.False(t, Blob.KeySupported())
	assert.False(t, Double.KeySupported())
	assert.True(t, Byte.IsNumeric())
	assert.False(t, ColumnType(99).Valid())
	assert.Equal(t, "TIMESTAMP_ARRAY", TimestampArray.String())
}
