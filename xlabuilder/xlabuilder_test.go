package xlabuilder_test

import (
	"testing"

	"github.com/gomlx/xlatest/dtypes"
	. "github.com/gomlx/xlatest/xlabuilder"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

type errTester[T any] struct {
	value T
	err   error
}

// capture is a shortcut to test that there is no error and return the value.
func capture[T any](value T, err error) errTester[T] {
	return errTester[T]{value, err}
}

func (e errTester[T]) Test(t *testing.T) T {
	require.NoError(t, e.err)
	return e.value
}

func TestXlaBuilder(t *testing.T) {
	// f(x) = x^2
	builder := New("x*x")
	x := capture(Parameter(builder, "x", 0, MakeShape(dtypes.F32))).Test(t) // Scalar float32.
	fX := capture(Mul(x, x)).Test(t)

	comp := capture(builder.Build(fX)).Test(t)
	require.Equal(t, "x*x", comp.Name())
	require.Equal(t, 1, comp.NumParameters())
	params, result := comp.ProgramShape()
	require.Len(t, params, 1)
	require.True(t, params[0].Equal(MakeShape(dtypes.F32)))
	require.True(t, result.Equal(MakeShape(dtypes.F32)))
	require.Same(t, fX, comp.Root())
	require.Len(t, comp.Ops(), 2)
}

func TestBuildUsesLastOpAsRoot(t *testing.T) {
	builder := New(t.Name())
	x := capture(Parameter(builder, "x", 0, MakeShape(dtypes.Int32, 3))).Test(t)
	_ = capture(Neg(x)).Test(t)
	last := capture(Abs(x)).Test(t)
	comp := capture(builder.Build(nil)).Test(t)
	require.Same(t, last, comp.Root())
}

func TestBuilderIsSealed(t *testing.T) {
	builder := New(t.Name())
	x := capture(Parameter(builder, "x", 0, MakeShape(dtypes.F32))).Test(t)
	comp := capture(builder.Build(x)).Test(t)

	_, err := Neg(x)
	require.ErrorContains(t, err, "already built")

	// Building again returns an equivalent computation.
	comp2 := capture(builder.Build(nil)).Test(t)
	require.NotSame(t, comp, comp2)
	require.Same(t, comp.Root(), comp2.Root())
	require.Equal(t, comp.TextHLO(), comp2.TextHLO())
}

func TestBuildReturnsFirstError(t *testing.T) {
	builder := New(t.Name())
	x := capture(Parameter(builder, "x", 0, MakeShape(dtypes.F32, 2))).Test(t)
	y := capture(Parameter(builder, "y", 1, MakeShape(dtypes.Int32, 2))).Test(t)

	// Errors are returned immediately and also kept by the builder.
	_, err := Add(x, y)
	require.ErrorContains(t, err, "different dtypes")
	_, err = Max(x, nil) // Second error: not the one reported.
	require.Error(t, err)
	require.Error(t, builder.Err())

	_, err = builder.Build(x)
	require.ErrorContains(t, err, "different dtypes")
}

func TestBuildParameterIndices(t *testing.T) {
	builder := New(t.Name())
	_ = capture(Parameter(builder, "x", 0, MakeShape(dtypes.F32))).Test(t)
	_ = capture(Parameter(builder, "y", 2, MakeShape(dtypes.F32))).Test(t)
	_, err := builder.Build(nil)
	require.ErrorContains(t, err, "contiguous")

	builder = New(t.Name())
	_ = capture(Parameter(builder, "x", 0, MakeShape(dtypes.F32))).Test(t)
	_, err = Parameter(builder, "y", 0, MakeShape(dtypes.F32))
	require.ErrorContains(t, err, "already used")

	_, err = New("empty").Build(nil)
	require.ErrorContains(t, err, "no ops")
}

func TestShapeInference(t *testing.T) {
	builder := New(t.Name())
	x := capture(Parameter(builder, "x", 0, MakeShape(dtypes.F32, 2, 3))).Test(t)
	zero := capture(ScalarZero(builder, dtypes.F32)).Test(t)

	gt := capture(GreaterThan(x, zero)).Test(t)
	require.Equal(t, "pred[2,3]", gt.Shape.HumanString())

	sel := capture(Select(gt, x, x)).Test(t)
	require.Equal(t, "f32[2,3]", sel.Shape.HumanString())

	transposed := capture(Transpose(x, 1, 0)).Test(t)
	require.Equal(t, "f32[3,2]", transposed.Shape.HumanString())

	reshaped := capture(Reshape(x, 6)).Test(t)
	require.Equal(t, "f32[6]", reshaped.Shape.HumanString())

	converted := capture(ConvertDType(x, dtypes.Int64)).Test(t)
	require.Equal(t, "s64[2,3]", converted.Shape.HumanString())

	tuple := capture(Tuple(x, zero)).Test(t)
	require.Equal(t, "(f32[2,3], f32[])", tuple.Shape.HumanString())
	element := capture(GetTupleElement(tuple, 1)).Test(t)
	require.Equal(t, "f32[]", element.Shape.HumanString())

	// Invalid ops.
	builder = New(t.Name())
	x = capture(Parameter(builder, "x", 0, MakeShape(dtypes.F32, 2, 3))).Test(t)
	y := capture(Parameter(builder, "y", 1, MakeShape(dtypes.F32, 3, 2))).Test(t)
	_, err := Add(x, y)
	require.ErrorContains(t, err, "incompatible dimensions")
	_, err = Select(x, x, x)
	require.ErrorContains(t, err, "predicate")
	_, err = Transpose(x, 0, 0)
	require.Error(t, err)
	_, err = Reshape(x, 5)
	require.Error(t, err)
	_, err = GetTupleElement(x, 0)
	require.ErrorContains(t, err, "requires a tuple")
	_, err = Not(x)
	require.Error(t, err)
}

func TestTextHLO(t *testing.T) {
	builder := New("relu")
	z := capture(Parameter(builder, "z_value", 0, MakeShape(dtypes.F32))).Test(t)
	zero := capture(ScalarConstant(builder, float32(0))).Test(t)
	_ = capture(Max(z, zero)).Test(t)
	comp := capture(builder.Build(nil)).Test(t)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "relu_text_hlo", []byte(comp.TextHLO()))
}
