package clienttest

import (
	"github.com/gomlx/xlatest/client"
	"github.com/gomlx/xlatest/dtypes"
	"github.com/gomlx/xlatest/literaltest"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ComputeAndCompareR0 compares a scalar result with expected, exactly.
func ComputeAndCompareR0[T dtypes.Supported](h *Harness, t TestingT, builder *xlabuilder.XlaBuilder, expected T,
	args []*client.GlobalData) {
	h.ComputeAndCompareLiteral(t, builder, xlabuilder.NewScalarLiteral(expected), args, nil)
}

// ComputeAndCompareR0Near compares a scalar result with expected, within spec.
func ComputeAndCompareR0Near[T dtypes.Supported](h *Harness, t TestingT, builder *xlabuilder.XlaBuilder, expected T,
	args []*client.GlobalData, spec literaltest.ErrorSpec) {
	h.ComputeAndCompareLiteralNear(t, builder, xlabuilder.NewScalarLiteral(expected), args, spec, nil)
}

// ComputeAndCompareR1Values compares a rank-1 result with expected, exactly.
func ComputeAndCompareR1Values[T dtypes.Supported](h *Harness, t TestingT, builder *xlabuilder.XlaBuilder,
	expected []T, args []*client.GlobalData) {
	expectedLiteral, err := xlabuilder.NewArrayLiteral(expected, len(expected))
	if !assert.NoError(t, err) {
		return
	}
	h.ComputeAndCompareLiteral(t, builder, expectedLiteral, args, nil)
}

// ComputeAndCompareR1ValuesNear compares a rank-1 result with expected, within spec.
func ComputeAndCompareR1ValuesNear[T dtypes.Supported](h *Harness, t TestingT, builder *xlabuilder.XlaBuilder,
	expected []T, args []*client.GlobalData, spec literaltest.ErrorSpec) {
	expectedLiteral, err := xlabuilder.NewArrayLiteral(expected, len(expected))
	if !assert.NoError(t, err) {
		return
	}
	h.ComputeAndCompareLiteralNear(t, builder, expectedLiteral, args, spec, nil)
}

// ComputeAndCompareR2 compares a rank-2 result with expected, exactly.
func ComputeAndCompareR2[T dtypes.Supported](h *Harness, t TestingT, builder *xlabuilder.XlaBuilder,
	expected *xlabuilder.Array2D[T], args []*client.GlobalData) {
	expectedLiteral, err := xlabuilder.NewLiteralFromArray2D(expected)
	if !assert.NoError(t, err) {
		return
	}
	h.ComputeAndCompareLiteral(t, builder, expectedLiteral, args, nil)
}

// ComputeAndCompareR2Near compares a rank-2 result with expected, within spec.
func ComputeAndCompareR2Near[T dtypes.Supported](h *Harness, t TestingT, builder *xlabuilder.XlaBuilder,
	expected *xlabuilder.Array2D[T], args []*client.GlobalData, spec literaltest.ErrorSpec) {
	expectedLiteral, err := xlabuilder.NewLiteralFromArray2D(expected)
	if !assert.NoError(t, err) {
		return
	}
	h.ComputeAndCompareLiteralNear(t, builder, expectedLiteral, args, spec, nil)
}

// CreateParameterAndTransferLiteral uploads the literal and declares a parameter of its shape in the builder.
// It fails the test immediately on errors.
func (h *Harness) CreateParameterAndTransferLiteral(t TestingT, paramIdx int, literal *xlabuilder.Literal,
	name string, builder *xlabuilder.XlaBuilder) (*client.GlobalData, *xlabuilder.Op) {
	data, err := h.client.TransferToServer(literal)
	require.NoError(t, err)
	param, err := xlabuilder.Parameter(builder, name, paramIdx, literal.Shape())
	require.NoError(t, err)
	return data, param
}

// CreateR0Parameter uploads a scalar value and declares the corresponding parameter in the builder.
func CreateR0Parameter[T dtypes.Supported](h *Harness, t TestingT, value T, paramIdx int, name string,
	builder *xlabuilder.XlaBuilder) (*client.GlobalData, *xlabuilder.Op) {
	return h.CreateParameterAndTransferLiteral(t, paramIdx, xlabuilder.NewScalarLiteral(value), name, builder)
}

// CreateR1Parameter uploads a rank-1 array and declares the corresponding parameter in the builder.
func CreateR1Parameter[T dtypes.Supported](h *Harness, t TestingT, values []T, paramIdx int, name string,
	builder *xlabuilder.XlaBuilder) (*client.GlobalData, *xlabuilder.Op) {
	literal, err := xlabuilder.NewArrayLiteral(values, len(values))
	require.NoError(t, err)
	return h.CreateParameterAndTransferLiteral(t, paramIdx, literal, name, builder)
}

// CreateR2Parameter uploads a rank-2 array and declares the corresponding parameter in the builder.
func CreateR2Parameter[T dtypes.Supported](h *Harness, t TestingT, values *xlabuilder.Array2D[T], paramIdx int,
	name string, builder *xlabuilder.XlaBuilder) (*client.GlobalData, *xlabuilder.Op) {
	literal, err := xlabuilder.NewLiteralFromArray2D(values)
	require.NoError(t, err)
	return h.CreateParameterAndTransferLiteral(t, paramIdx, literal, name, builder)
}
