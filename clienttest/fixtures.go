package clienttest

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/xlatest/dtypes"
	"github.com/gomlx/xlatest/xlabuilder"
)

// mustBuild builds the computation with the last op of the builder as its result, or panics.
// Errors of the individual ops are kept by the builder, so they can be ignored while adding ops.
func mustBuild(builder *xlabuilder.XlaBuilder) *xlabuilder.XlaComputation {
	computation, err := builder.Build(nil)
	if err != nil {
		exceptions.Panicf("failed to build fixture %q: %+v", builder.Name(), err)
	}
	return computation
}

// CreateScalarRelu returns the computation relu(z_value) = max(z_value, 0) for a scalar float32.
func CreateScalarRelu() *xlabuilder.XlaComputation {
	builder := xlabuilder.New("relu")
	zValue, _ := xlabuilder.Parameter(builder, "z_value", 0, xlabuilder.MakeShape(dtypes.F32))
	zero, _ := xlabuilder.ScalarZero(builder, dtypes.F32)
	_, _ = xlabuilder.Max(zValue, zero)
	return mustBuild(builder)
}

// CreateScalarMax returns the computation max(x, y) for scalar float32 values.
func CreateScalarMax() *xlabuilder.XlaComputation {
	builder := xlabuilder.New("max")
	x, _ := xlabuilder.Parameter(builder, "x", 0, xlabuilder.MakeShape(dtypes.F32))
	y, _ := xlabuilder.Parameter(builder, "y", 1, xlabuilder.MakeShape(dtypes.F32))
	_, _ = xlabuilder.Max(x, y)
	return mustBuild(builder)
}

// CreateScalarReluSensitivity returns the computation of the gradient of relu for scalar float32 values:
// backprop if activation > 0, 0 otherwise.
func CreateScalarReluSensitivity() *xlabuilder.XlaComputation {
	builder := xlabuilder.New("relu_sensitivity")
	activation, _ := xlabuilder.Parameter(builder, "activation", 0, xlabuilder.MakeShape(dtypes.F32))
	backprop, _ := xlabuilder.Parameter(builder, "backprop", 1, xlabuilder.MakeShape(dtypes.F32))
	zero, _ := xlabuilder.ScalarZero(builder, dtypes.F32)
	activationIsPositive, _ := xlabuilder.GreaterThan(activation, zero)
	_, _ = xlabuilder.Select(activationIsPositive, backprop, zero)
	return mustBuild(builder)
}

// CreatePatternedMatrix returns a rows x cols matrix where each cell is unique: (row, col) = col + row*1000 + offset.
func CreatePatternedMatrix(rows, cols int, offset float32) *xlabuilder.Array2D[float32] {
	array := xlabuilder.NewArray2D[float32](rows, cols)
	for row := range rows {
		for col := range cols {
			array.Set(row, col, float32(col)+float32(row)*1000+offset)
		}
	}
	return array
}

// CreatePatternedMatrixWithZeroPadding returns a rowsPadded x colsPadded matrix of zeros, with the top-left
// rows x cols cells set as in CreatePatternedMatrix (offset 0).
// It panics if the padded dimensions are smaller than the original ones.
func CreatePatternedMatrixWithZeroPadding(rows, cols, rowsPadded, colsPadded int) *xlabuilder.Array2D[float32] {
	if rowsPadded < rows || colsPadded < cols {
		exceptions.Panicf("CreatePatternedMatrixWithZeroPadding: padded dimensions (%d, %d) must be >= (%d, %d)",
			rowsPadded, colsPadded, rows, cols)
	}
	array := xlabuilder.NewArray2D[float32](rowsPadded, colsPadded)
	for row := range rows {
		for col := range cols {
			array.Set(row, col, float32(col)+float32(row)*1000)
		}
	}
	return array
}
