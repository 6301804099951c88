package dtypes

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestDType_HighestLowestValues(t *testing.T) {
	require.True(t, math.IsInf(Float64.HighestValue().(float64), 1))
	require.True(t, math.IsInf(float64(Float32.LowestValue().(float32)), -1))
	require.Equal(t, int8(math.MinInt8), Int8.LowestValue().(int8))
	require.Equal(t, float16.Inf(1), Float16.HighestValue().(float16.Float16))

	// Complex numbers don't define Highest of Lowest, and instead return 0
	require.Equal(t, complex64(0), Complex64.HighestValue().(complex64))
	require.Equal(t, complex128(0), Complex128.LowestValue().(complex128))
}

func TestMapOfNames(t *testing.T) {
	require.Equal(t, Float16, MapOfNames["Float16"])
	require.Equal(t, Float16, MapOfNames["float16"])
	require.Equal(t, Float16, MapOfNames["F16"])
	require.Equal(t, Float16, MapOfNames["f16"])
	require.Equal(t, Bool, MapOfNames["pred"])
	require.Equal(t, Complex128, MapOfNames["c128"])
}

func TestFromGenericsType(t *testing.T) {
	require.Equal(t, Float32, FromGenericsType[float32]())
	require.Equal(t, Float16, FromGenericsType[float16.Float16]())
	require.Equal(t, Uint8, FromGenericsType[uint8]())
	require.Equal(t, Bool, FromGenericsType[bool]())
	require.Equal(t, Complex64, FromGenericsType[complex64]())
	if math.MaxInt == math.MaxInt64 {
		require.Equal(t, Int64, FromGenericsType[int]())
	}
	require.Equal(t, InvalidDType, FromAny("not a number"))
	require.Equal(t, InvalidDType, FromGoType(nil))
	require.Equal(t, reflect.TypeOf(int16(0)), Int16.GoType())
}

func TestCategories(t *testing.T) {
	for _, dtype := range []DType{Float16, Float32, Float64, Complex64, Complex128} {
		require.Truef(t, dtype.IsFloatOrComplex(), "%s", dtype)
		require.Falsef(t, dtype.IsIntegralOrBool(), "%s", dtype)
	}
	for _, dtype := range []DType{Bool, Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64} {
		require.Truef(t, dtype.IsIntegralOrBool(), "%s", dtype)
		require.Falsef(t, dtype.IsFloatOrComplex(), "%s", dtype)
	}
	require.Equal(t, Float32, Complex64.RealDType())
	require.Equal(t, InvalidDType, Int32.RealDType())
	require.True(t, Uint16.IsUnsigned())
	require.False(t, InvalidDType.IsSupported())
}

func TestStringAndPrimitiveName(t *testing.T) {
	require.Equal(t, "Float32", Float32.String())
	require.Equal(t, "f32", Float32.PrimitiveName())
	require.Equal(t, "pred", Bool.PrimitiveName())
	require.Equal(t, "c64", Complex64.PrimitiveName())
	require.Equal(t, "DType(99)", DType(99).String())
	require.Equal(t, 2, Float16.Size())
	require.Equal(t, 16, Complex128.Size())
}
