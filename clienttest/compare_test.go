package clienttest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gomlx/xlatest/client"
	"github.com/gomlx/xlatest/dtypes"
	"github.com/gomlx/xlatest/literaltest"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/janpfeifer/must"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	h := newTestHarness(t)
	builder := xlabuilder.New(t.Name())
	xData, x := CreateR1Parameter(h, t, []int32{1, 2, 3}, 0, "x", builder)
	_ = must.M1(xlabuilder.Mul(x, x))

	data, err := h.Execute(builder, []*client.GlobalData{xData})
	require.NoError(t, err)
	result := must.M1(h.Client().Transfer(data, nil))
	assert.Equal(t, "s32[3] {1, 4, 9}", result.String())
	require.NoError(t, data.Destroy())

	data = h.ExecuteOrDie(t, builder, []*client.GlobalData{xData})
	assert.True(t, data.IsValid())
	require.NoError(t, data.Destroy())
	assert.Equal(t, "s32[3] {1, 4, 9}", h.ExecuteAndTransferOrDie(t, builder, []*client.GlobalData{xData}).String())

	// Errors.
	_, err = h.Execute(nil, nil)
	require.ErrorContains(t, err, "nil builder")
	_, err = h.ExecuteAndTransfer(builder, nil, nil)
	require.ErrorContains(t, err, "takes 1 parameters")

	rec := &recorder{}
	assert.Nil(t, h.ExecuteOrDie(rec, builder, nil))
	assert.True(t, rec.failedNow)
	rec = &recorder{}
	assert.Nil(t, h.ExecuteAndTransferOrDie(rec, builder, []*client.GlobalData{nil}))
	assert.True(t, rec.failedNow)
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "argument #0 is nil or was destroyed")
}

func TestExecuteToString(t *testing.T) {
	h := newTestHarness(t)
	var parts []string
	add := func(name string, builder *xlabuilder.XlaBuilder, args ...*client.GlobalData) {
		parts = append(parts, fmt.Sprintf("%s: %s\n", name, h.ExecuteToString(builder, args)))
	}

	builder := xlabuilder.New("add_one")
	xData, x := CreateR2Parameter(h, t, CreatePatternedMatrix(2, 3, 0), 0, "x", builder)
	_ = must.M1(xlabuilder.Add(x, must.M1(xlabuilder.ScalarConstant(builder, float32(1)))))
	add("add_one", builder, xData)

	builder = xlabuilder.New("tuple")
	yData, y := CreateR1Parameter(h, t, []float32{1.5, -2.5, 3}, 0, "y", builder)
	_ = must.M1(xlabuilder.Tuple(
		must.M1(xlabuilder.ConvertDType(y, dtypes.S32)),
		must.M1(xlabuilder.GreaterThan(y, must.M1(xlabuilder.ScalarZero(builder, dtypes.F32))))))
	add("tuple", builder, yData)

	add("nil_builder", nil)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "execute_to_string", []byte(strings.Join(parts, "")))
}

func TestComputeAndCompare(t *testing.T) {
	h := newTestHarness(t)
	builder := xlabuilder.New(t.Name())
	xData, x := CreateR1Parameter(h, t, []int64{3, -1, 4}, 0, "x", builder)
	_ = must.M1(xlabuilder.Neg(x))
	args := []*client.GlobalData{xData}

	ComputeAndCompareR1Values(h, t, builder, []int64{-3, 1, -4}, args)

	rec := &recorder{}
	ComputeAndCompareR1Values(h, rec, builder, []int64{-3, 1, 4}, args)
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "1 of 3 elements differ")
	assert.False(t, rec.failedNow)

	// Near comparisons require floating point values.
	expected := must.M1(xlabuilder.NewArrayLiteral([]int64{-3, 1, -4}))
	err := h.ComputeAndCompareLiteralNearWithStatus(t, builder, expected, args, literaltest.ErrorSpec{Abs: 1}, nil)
	require.ErrorContains(t, err, "requires floating point or complex values")

	// Build errors are returned.
	badBuilder := xlabuilder.New("bad")
	_, _ = xlabuilder.Add(must.M1(xlabuilder.ScalarConstant(badBuilder, float32(1))), must.M1(xlabuilder.ScalarConstant(badBuilder, int32(1))))
	err = h.ComputeAndCompareLiteralWithStatus(t, badBuilder, expected, nil, nil)
	require.ErrorContains(t, err, "different dtypes")
	rec = &recorder{}
	h.ComputeAndCompareLiteral(rec, badBuilder, expected, nil, nil)
	require.Len(t, rec.errors, 1)
}

func TestComputeAndCompareFloatsExactly(t *testing.T) {
	h := newTestHarness(t)
	builder := xlabuilder.New(t.Name())
	xData, x := CreateR0Parameter(h, t, float32(1.25), 0, "x", builder)
	_ = must.M1(xlabuilder.Add(x, x))

	// Exact comparison of floats logs a warning, but proceeds.
	rec := &recorder{}
	ComputeAndCompareR0(h, rec, builder, float32(2.5), []*client.GlobalData{xData})
	assert.Empty(t, rec.errors)
	ComputeAndCompareR0(h, rec, builder, float32(2.5001), []*client.GlobalData{xData})
	assert.Len(t, rec.errors, 1)

	rec = &recorder{}
	ComputeAndCompareR0Near(h, rec, builder, float32(2.5001), []*client.GlobalData{xData}, literaltest.ErrorSpec{Abs: 1e-3})
	assert.Empty(t, rec.errors)
	ComputeAndCompareR0Near(h, rec, builder, float32(2.6), []*client.GlobalData{xData}, literaltest.ErrorSpec{Abs: 1e-3, Rel: 1e-3})
	assert.Len(t, rec.errors, 1)
}

func TestComputeAndCompareR1ValuesNear(t *testing.T) {
	h := newTestHarness(t)
	builder := xlabuilder.New(t.Name())
	xData, x := CreateR1Parameter(h, t, []float64{100, 200}, 0, "x", builder)
	_ = must.M1(xlabuilder.Neg(x))
	args := []*client.GlobalData{xData}

	rec := &recorder{}
	ComputeAndCompareR1ValuesNear(h, rec, builder, []float64{-101, -201}, args, literaltest.ErrorSpec{Rel: 0.01})
	assert.Empty(t, rec.errors)
	ComputeAndCompareR1ValuesNear(h, rec, builder, []float64{-101, -201}, args, literaltest.ErrorSpec{Rel: 0.001})
	assert.Len(t, rec.errors, 1)
}

func TestComputeAndCompareR1Bitmap(t *testing.T) {
	h := newTestHarness(t)
	builder := xlabuilder.New(t.Name())
	xData, x := CreateR1Parameter(h, t, []float32{-1, 0, 2, 5}, 0, "x", builder)
	_ = must.M1(xlabuilder.GreaterThan(x, must.M1(xlabuilder.ScalarZero(builder, dtypes.F32))))
	args := []*client.GlobalData{xData}

	h.ComputeAndCompareR1(t, builder, []bool{false, false, true, true}, args)
	rec := &recorder{}
	h.ComputeAndCompareR1(rec, builder, []bool{false, true, true, true}, args)
	assert.Len(t, rec.errors, 1)

	// Empty bitmap.
	emptyBuilder := xlabuilder.New("empty")
	emptyData, empty := CreateR1Parameter(h, t, []float32{}, 0, "x", emptyBuilder)
	_ = must.M1(xlabuilder.GreaterThan(empty, must.M1(xlabuilder.ScalarZero(emptyBuilder, dtypes.F32))))
	h.ComputeAndCompareR1(t, emptyBuilder, []bool{}, []*client.GlobalData{emptyData})
}

func TestComputeAndCompareR1U8(t *testing.T) {
	h := newTestHarness(t)
	builder := xlabuilder.New(t.Name())
	_ = must.M1(xlabuilder.Constant(builder, xlabuilder.NewLiteralR1U8("hello")))
	h.ComputeAndCompareR1U8(t, builder, "hello", nil)

	// A one byte difference fails the comparison, but not the test run.
	rec := &recorder{}
	h.ComputeAndCompareR1U8(rec, builder, "hellO", nil)
	assert.Len(t, rec.errors, 1)
	assert.False(t, rec.failedNow)

	emptyBuilder := xlabuilder.New("empty")
	_ = must.M1(xlabuilder.Constant(emptyBuilder, xlabuilder.NewLiteralR1U8("")))
	h.ComputeAndCompareR1U8(t, emptyBuilder, "", nil)

	// Non-u8 results are reported.
	floatBuilder := xlabuilder.New("float")
	_ = must.M1(xlabuilder.ScalarConstant(floatBuilder, float32(1)))
	rec = &recorder{}
	h.ComputeAndCompareR1U8(rec, floatBuilder, "x", nil)
	assert.Len(t, rec.errors, 1)
}

func TestComputeAndCompareTuple(t *testing.T) {
	h := newTestHarness(t)
	builder := xlabuilder.New(t.Name())
	xData, x := CreateR0Parameter(h, t, float64(2), 0, "x", builder)
	yData, y := CreateR1Parameter(h, t, []int32{1, 2}, 1, "y", builder)
	_ = must.M1(xlabuilder.Tuple(must.M1(xlabuilder.Mul(x, x)), must.M1(xlabuilder.Neg(y))))
	args := []*client.GlobalData{xData, yData}

	expected := xlabuilder.NewTupleLiteral(
		xlabuilder.NewScalarLiteral(float64(4)),
		must.M1(xlabuilder.NewArrayLiteral([]int32{-1, -2})))
	h.ComputeAndCompareTuple(t, builder, expected, args)

	wrong := xlabuilder.NewTupleLiteral(
		xlabuilder.NewScalarLiteral(float64(4)),
		must.M1(xlabuilder.NewArrayLiteral([]int32{-1, 2})))
	rec := &recorder{}
	h.ComputeAndCompareTuple(rec, builder, wrong, args)
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "tuple element {1}")

	// Near comparison of a tuple with integer elements fails.
	rec = &recorder{}
	h.ComputeAndCompareTupleNear(rec, builder, expected, args, literaltest.ErrorSpec{Abs: 1e-6})
	assert.Len(t, rec.errors, 1)

	builder = xlabuilder.New(t.Name() + "_floats")
	xData, x = CreateR0Parameter(h, t, float64(2), 0, "x", builder)
	_ = must.M1(xlabuilder.Tuple(must.M1(xlabuilder.Mul(x, x)), must.M1(xlabuilder.Neg(x))))
	expected = xlabuilder.NewTupleLiteral(xlabuilder.NewScalarLiteral(4.000001), xlabuilder.NewScalarLiteral(-2.0))
	h.ComputeAndCompareTupleNear(t, builder, expected, []*client.GlobalData{xData}, literaltest.ErrorSpec{Abs: 1e-3})
}
