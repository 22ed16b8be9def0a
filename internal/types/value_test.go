package types_test

import (
	"testing"

	. "github.com/tealdb/tealdb/internal/types"
	"gotest.tools/assert"
)

func TestValueAccessors(t *testing.T) {
	t.Run("Int", func(t *testing.T) {
		v := NewInt(42)
		assert.Equal(t, v.Kind(), TypeInt32)
		n, err := v.AsInt()
		assert.NilError(t, err)
		assert.Equal(t, n, int32(42))

		_, err = v.AsBool()
		assert.ErrorContains(t, err, "not of type bool")
	})

	t.Run("Null", func(t *testing.T) {
		v := Null()
		assert.Assert(t, v.IsNull())
		assert.Equal(t, v.Kind(), TypeUnknown)
		_, err := v.AsInt()
		assert.ErrorContains(t, err, "not of type int32")
	})

	t.Run("BytesAreCopied", func(t *testing.T) {
		src := []byte{0xDE, 0xAD}
		v := NewBytes(src)
		src[0] = 0x00
		b, err := v.AsBytes()
		assert.NilError(t, err)
		assert.Equal(t, b[0], byte(0xDE))
	})

	t.Run("Length", func(t *testing.T) {
		n, err := NewString("foo").Length()
		assert.NilError(t, err)
		assert.Equal(t, n, 3)

		n, err = NewBytes([]byte{1, 2}).Length()
		assert.NilError(t, err)
		assert.Equal(t, n, 2)

		_, err = NewInt(1).Length()
		assert.ErrorContains(t, err, "requires string or bytes")
	})
}

func TestValueRendering(t *testing.T) {
	t.Run("Scalars", func(t *testing.T) {
		assert.Equal(t, NewInt(-7).String(), "-7")
		assert.Equal(t, NewBool(true).String(), "true")
		assert.Equal(t, NewString("hi").String(), `"hi"`)
		assert.Equal(t, NewBytes([]byte{0xAB, 0x01}).String(), "0xAB01")
		assert.Equal(t, Null().String(), "NULL")
	})

	t.Run("StringEscapes", func(t *testing.T) {
		assert.Equal(t, NewString(`say "hi"`).String(), `"say \"hi\""`)
		assert.Equal(t, NewString("a\nb").String(), `"a\nb"`)
	})

	t.Run("RenderedRoundTrip", func(t *testing.T) {
		str_type, _ := NewSizedDataType(TypeString, 32)
		bytes_type, _ := NewSizedDataType(TypeBytes, 8)
		cases := []struct {
			dt DataType
			v  Value
		}{
			{DataType{Kind: TypeInt32}, NewInt(-2147483648)},
			{DataType{Kind: TypeBool}, NewBool(false)},
			{str_type, NewString(`quotes " and \ slashes`)},
			{str_type, NewString("tabs\tand\nnewlines")},
			{bytes_type, NewBytes([]byte{0x00, 0xFF})},
		}
		for _, tc := range cases {
			back, err := ParseRendered(tc.dt, tc.v.String())
			assert.NilError(t, err)
			assert.Assert(t, Equal(back, tc.v), "round trip of %s", tc.v.String())
		}
	})
}

func TestValueCompare(t *testing.T) {
	t.Run("Ordering", func(t *testing.T) {
		cases := []struct {
			a, b Value
			want int
		}{
			{NewInt(1), NewInt(2), -1},
			{NewInt(2), NewInt(2), 0},
			{NewBool(false), NewBool(true), -1},
			{NewString("a"), NewString("b"), -1},
			{NewBytes([]byte{1}), NewBytes([]byte{0, 9}), 1},
		}
		for _, tc := range cases {
			got, err := Compare(tc.a, tc.b)
			assert.NilError(t, err)
			assert.Equal(t, got, tc.want)
		}
	})

	t.Run("CrossTypeFails", func(t *testing.T) {
		_, err := Compare(NewInt(1), NewString("1"))
		assert.ErrorContains(t, err, "same type")
	})

	t.Run("NullFails", func(t *testing.T) {
		_, err := Compare(Null(), NewInt(1))
		assert.ErrorContains(t, err, "NULL")
	})

	t.Run("EqualAcrossTypesIsFalse", func(t *testing.T) {
		assert.Assert(t, !Equal(NewInt(1), NewString("1")))
		assert.Assert(t, !Equal(Null(), Null()))
	})
}

func TestHexCodec(t *testing.T) {
	b, err := DecodeHex("0xDEADbeef")
	assert.NilError(t, err)
	assert.Equal(t, EncodeHex(b), "0xDEADBEEF")

	_, err = DecodeHex("0xF")
	assert.ErrorContains(t, err, "even number")

	_, err = DecodeHex("FF")
	assert.ErrorContains(t, err, "invalid bytes literal")
}

func TestParseDataType(t *testing.T) {
	dt, err := ParseDataType("string[8]")
	assert.NilError(t, err)
	assert.Equal(t, dt.Kind, TypeString)
	assert.Equal(t, dt.Size, 8)
	assert.Equal(t, dt.String(), "string[8]")

	_, err = ParseDataType("string[0]")
	assert.ErrorContains(t, err, "at least 1")

	_, err = ParseDataType("float")
	assert.ErrorContains(t, err, "unknown column type")

	dt, err = ParseDataType("int32")
	assert.NilError(t, err)
	assert.Assert(t, !dt.IsSized())
}
