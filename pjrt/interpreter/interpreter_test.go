package interpreter

import (
	"math"
	"reflect"
	"testing"

	"github.com/gomlx/xlatest/dtypes"
	"github.com/gomlx/xlatest/pjrt"
	. "github.com/gomlx/xlatest/xlabuilder"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func compile(t *testing.T, comp *XlaComputation, disabledPasses ...string) *Executable {
	exec, err := (&Engine{}).Compile(comp, pjrt.CompileOptions{DisabledPasses: disabledPasses})
	require.NoError(t, err)
	return exec.(*Executable)
}

func run(t *testing.T, comp *XlaComputation, inputs ...*Literal) *Literal {
	out, err := compile(t, comp).Run(inputs)
	require.NoError(t, err)
	return out
}

func toArray[T dtypes.Supported](t *testing.T, l *Literal) ([]T, []int) {
	flat, dims, err := LiteralToArray[T](l)
	require.NoError(t, err)
	return flat, dims
}

func TestPluginRegistered(t *testing.T) {
	plugin, err := pjrt.GetPlugin(PluginName)
	require.NoError(t, err)
	major, minor := plugin.Version()
	assert.Equal(t, 0, major)
	assert.Equal(t, 1, minor)
	assert.Contains(t, pjrt.AvailablePlugins(), PluginName)
}

func TestBinaryOps(t *testing.T) {
	builder := New(t.Name())
	x := must.M1(Parameter(builder, "x", 0, MakeShape(dtypes.F32, 2, 2)))
	y := must.M1(Parameter(builder, "y", 1, MakeShape(dtypes.F32)))
	sum := must.M1(Add(x, y))
	diff := must.M1(Sub(x, y))
	prod := must.M1(Mul(x, y))
	quot := must.M1(Div(x, y))
	greatest := must.M1(Max(x, y))
	lowest := must.M1(Min(x, y))
	greater := must.M1(GreaterThan(x, y))
	tuple := must.M1(Tuple(sum, diff, prod, quot, greatest, lowest, greater))
	comp := must.M1(builder.Build(tuple))

	out := run(t, comp,
		must.M1(NewArrayLiteral([]float32{1, 2, 3, 4}, 2, 2)),
		NewScalarLiteral(float32(2)))
	require.True(t, out.IsTuple())
	elements := out.Decompose()
	want := [][]float32{
		{3, 4, 5, 6},
		{-1, 0, 1, 2},
		{2, 4, 6, 8},
		{0.5, 1, 1.5, 2},
		{2, 2, 3, 4},
		{1, 2, 2, 2},
	}
	for ii, w := range want {
		got, dims := toArray[float32](t, elements[ii])
		assert.Equal(t, w, got, "element #%d", ii)
		assert.Equal(t, []int{2, 2}, dims)
	}
	gotBool, _ := toArray[bool](t, elements[6])
	assert.Equal(t, []bool{false, false, true, true}, gotBool)
}

func TestNaNPropagation(t *testing.T) {
	builder := New(t.Name())
	x := must.M1(Parameter(builder, "x", 0, MakeShape(dtypes.F64, 2)))
	y := must.M1(Parameter(builder, "y", 1, MakeShape(dtypes.F64, 2)))
	must.M1(Max(x, y))
	comp := must.M1(builder.Build(nil))
	out := run(t, comp,
		must.M1(NewArrayLiteral([]float64{math.NaN(), 1})),
		must.M1(NewArrayLiteral([]float64{0, 2})))
	got, _ := toArray[float64](t, out)
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, 2.0, got[1])
}

func TestIntegerOps(t *testing.T) {
	builder := New(t.Name())
	x := must.M1(Parameter(builder, "x", 0, MakeShape(dtypes.S32, 4)))
	y := must.M1(Parameter(builder, "y", 1, MakeShape(dtypes.S32, 4)))
	quot := must.M1(Div(x, y))
	and := must.M1(And(x, y))
	neg := must.M1(Neg(x))
	abs := must.M1(Abs(neg))
	not := must.M1(Not(x))
	comp := must.M1(builder.Build(must.M1(Tuple(quot, and, neg, abs, not))))

	out := run(t, comp,
		must.M1(NewArrayLiteral([]int32{7, -7, 12, 0})),
		must.M1(NewArrayLiteral([]int32{2, 2, 10, 3})))
	elements := out.Decompose()
	want := [][]int32{
		{3, -3, 1, 0},
		{2, 0, 8, 0},
		{-7, 7, -12, 0},
		{7, 7, 12, 0},
		{-8, 6, -13, -1},
	}
	for ii, w := range want {
		got, _ := toArray[int32](t, elements[ii])
		assert.Equal(t, w, got, "element #%d", ii)
	}

	// Division by zero fails at execution.
	_, err := compile(t, comp).Run([]*Literal{
		must.M1(NewArrayLiteral([]int32{1, 2, 3, 4})),
		must.M1(NewArrayLiteral([]int32{1, 0, 1, 1}))})
	require.ErrorContains(t, err, "division by zero")
}

func TestBoolOps(t *testing.T) {
	builder := New(t.Name())
	x := must.M1(Parameter(builder, "x", 0, MakeShape(dtypes.Bool, 4)))
	y := must.M1(Parameter(builder, "y", 1, MakeShape(dtypes.Bool, 4)))
	comp := must.M1(builder.Build(must.M1(Tuple(
		must.M1(And(x, y)), must.M1(Or(x, y)), must.M1(Not(x)), must.M1(NotEqual(x, y))))))
	out := run(t, comp,
		must.M1(NewArrayLiteral([]bool{true, true, false, false})),
		must.M1(NewArrayLiteral([]bool{true, false, true, false})))
	want := [][]bool{
		{true, false, false, false},
		{true, true, true, false},
		{false, false, true, true},
		{false, true, true, false},
	}
	for ii, element := range out.Decompose() {
		got, _ := toArray[bool](t, element)
		assert.Equal(t, want[ii], got, "element #%d", ii)
	}
}

func TestFloat16AndComplex(t *testing.T) {
	builder := New(t.Name())
	x := must.M1(Parameter(builder, "x", 0, MakeShape(dtypes.F16, 2)))
	c := must.M1(Parameter(builder, "c", 1, MakeShape(dtypes.C64, 2)))
	comp := must.M1(builder.Build(must.M1(Tuple(must.M1(Max(x, must.M1(Neg(x)))), must.M1(Mul(c, c))))))
	out := run(t, comp,
		must.M1(NewArrayLiteral([]float16.Float16{float16.Fromfloat32(-1.5), float16.Fromfloat32(2)})),
		must.M1(NewArrayLiteral([]complex64{1i, 1 + 1i})))
	elements := out.Decompose()
	gotF16, _ := toArray[float16.Float16](t, elements[0])
	assert.Equal(t, float32(1.5), gotF16[0].Float32())
	assert.Equal(t, float32(2), gotF16[1].Float32())
	gotC64, _ := toArray[complex64](t, elements[1])
	assert.Equal(t, []complex64{-1, 2i}, gotC64)
}

func TestSelectTransposeReshapeConvert(t *testing.T) {
	builder := New(t.Name())
	x := must.M1(Parameter(builder, "x", 0, MakeShape(dtypes.F32, 2, 3)))
	zero := must.M1(ScalarZero(builder, dtypes.F32))
	positive := must.M1(GreaterThan(x, zero))
	relu := must.M1(Select(positive, x, must.M1(Mul(x, zero))))
	transposed := must.M1(Transpose(x, 1, 0))
	reshaped := must.M1(Reshape(x, 3, 2))
	converted := must.M1(ConvertDType(x, dtypes.S32))
	asBool := must.M1(ConvertDType(x, dtypes.Bool))
	comp := must.M1(builder.Build(must.M1(Tuple(relu, transposed, reshaped, converted, asBool))))

	out := run(t, comp, must.M1(NewArrayLiteral([]float32{1.5, -2.7, 0, 4, -5, 6}, 2, 3)))
	elements := out.Decompose()

	got, dims := toArray[float32](t, elements[0])
	assert.Equal(t, []float32{1.5, 0, 0, 4, 0, 6}, got)
	assert.Equal(t, []int{2, 3}, dims)

	got, dims = toArray[float32](t, elements[1])
	assert.Equal(t, []float32{1.5, 4, -2.7, -5, 0, 6}, got)
	assert.Equal(t, []int{3, 2}, dims)

	got, dims = toArray[float32](t, elements[2])
	assert.Equal(t, []float32{1.5, -2.7, 0, 4, -5, 6}, got)
	assert.Equal(t, []int{3, 2}, dims)

	gotInt, _ := toArray[int32](t, elements[3])
	assert.Equal(t, []int32{1, -2, 0, 4, -5, 6}, gotInt)

	gotBool, _ := toArray[bool](t, elements[4])
	assert.Equal(t, []bool{true, true, false, true, true, true}, gotBool)
}

func TestConvertValue(t *testing.T) {
	assert.Equal(t, float32(1), convertValue(reflect.ValueOf(true), dtypes.F32).Interface())
	assert.Equal(t, complex64(complex(2, 0)), convertValue(reflect.ValueOf(int8(2)), dtypes.C64).Interface())
	assert.Equal(t, 3.0, convertValue(reflect.ValueOf(complex64(3+4i)), dtypes.F64).Interface())
	assert.Equal(t, true, convertValue(reflect.ValueOf(complex128(1i)), dtypes.Bool).Interface())
	assert.Equal(t, float16.Fromfloat32(0.5), convertValue(reflect.ValueOf(0.5), dtypes.F16).Interface())
	assert.Equal(t, uint8(7), convertValue(reflect.ValueOf(float16.Fromfloat32(7.9)), dtypes.U8).Interface())
}

func TestTupleAndGetTupleElement(t *testing.T) {
	builder := New(t.Name())
	x := must.M1(Parameter(builder, "x", 0, MakeShape(dtypes.S64, 2)))
	tuple := must.M1(Tuple(x, must.M1(Neg(x))))
	second := must.M1(GetTupleElement(tuple, 1))
	comp := must.M1(builder.Build(second))
	got, _ := toArray[int64](t, run(t, comp, must.M1(NewArrayLiteral([]int64{1, -2}))))
	assert.Equal(t, []int64{-1, 2}, got)
}

func TestInputLayoutIsIrrelevant(t *testing.T) {
	builder := New(t.Name())
	x := must.M1(Parameter(builder, "x", 0, MakeShape(dtypes.F32, 2, 3)))
	comp := must.M1(builder.Build(must.M1(Transpose(x, 1, 0))))

	rowMajor := must.M1(NewArrayLiteral([]float32{1, 2, 3, 4, 5, 6}, 2, 3))
	colMajor := must.M1(rowMajor.Relayout(MakeLayout(0, 1)))
	want, _ := toArray[float32](t, run(t, comp, rowMajor))
	got, _ := toArray[float32](t, run(t, comp, colMajor))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, want)
	assert.Equal(t, want, got)
}

// buildFoldable builds x*(2+3) with an unused Neg(x).
func buildFoldable(t *testing.T) *XlaComputation {
	builder := New(t.Name())
	x := must.M1(Parameter(builder, "x", 0, MakeShape(dtypes.F32)))
	two := must.M1(ScalarConstant(builder, float32(2)))
	three := must.M1(ScalarConstant(builder, float32(3)))
	sum := must.M1(Add(two, three))
	_ = must.M1(Neg(x))
	return must.M1(builder.Build(must.M1(Mul(x, sum))))
}

func TestPasses(t *testing.T) {
	assert.Equal(t, []string{ConstantFoldingPass, DeadCodeEliminationPass}, PassNames())
	comp := buildFoldable(t)
	input := NewScalarLiteral(float32(3))

	testCases := []struct {
		name     string
		disabled []string
		passes   []string
		numOps   int
	}{
		{"all", nil, []string{"constant_folding", "dce"}, 3},
		{"no_folding", []string{"constant_folding"}, []string{"dce"}, 5},
		{"no_dce", []string{"dce"}, []string{"constant_folding"}, 6},
		{"none", []string{"constant_folding", "dce"}, nil, 6},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			exec := compile(t, comp, tc.disabled...)
			assert.Equal(t, tc.passes, exec.PassesRun())
			assert.Equal(t, tc.numOps, exec.NumOps())
			out, err := exec.Run([]*Literal{input})
			require.NoError(t, err)
			got, _ := toArray[float32](t, out)
			assert.Equal(t, []float32{15}, got)
		})
	}
}

func TestFoldingSkipsFailingOps(t *testing.T) {
	builder := New(t.Name())
	one := must.M1(ScalarConstant(builder, int32(1)))
	zero := must.M1(ScalarConstant(builder, int32(0)))
	comp := must.M1(builder.Build(must.M1(Div(one, zero))))
	exec := compile(t, comp)
	assert.Equal(t, 3, exec.NumOps())
	_, err := exec.Run(nil)
	require.ErrorContains(t, err, "division by zero")
}

func TestRunWrongNumberOfInputs(t *testing.T) {
	_, err := compile(t, buildFoldable(t)).Run(nil)
	require.ErrorContains(t, err, "expects 1 inputs")
}
