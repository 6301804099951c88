package xlabuilder

import (
	"slices"

	"github.com/gomlx/xlatest/dtypes"
	"github.com/pkg/errors"
)

// Manual implementation of the special ops.

// Parameter creates a "retrieves a parameter value" op in builder.
//
// The name is cosmetic, but should be unique among the parameters.
//
// The paramIndex must be carefully set to match the arguments fed to the computation during execution: parameter
// indices of a computation must be contiguous, starting from 0.
//
// The shape of the parameter must be given -- and match the value given during execution. Its layout is ignored:
// computations accept arguments in any layout.
func Parameter(builder *XlaBuilder, name string, paramIndex int, shape Shape) (*Op, error) {
	if builder == nil {
		return nil, errors.Errorf("Parameter(%q) given a nil XlaBuilder", name)
	}
	if other, found := builder.parameters[paramIndex]; found {
		return nil, builder.recordError(errors.Errorf("Parameter(%q, %d): index already used by parameter %q",
			name, paramIndex, other.Str))
	}
	paramOp := newOp(ParameterOp)

	// Convert to the compact Op parameters form.
	paramOp.Int = paramIndex
	paramOp.Str = name
	paramOp.ShapeArg = shape.WithLayout(Layout{})

	err := builder.addOp(paramOp)
	if err != nil {
		return nil, err
	}
	builder.parameters[paramIndex] = paramOp
	return paramOp, nil
}

// DecodeParameter extracts the arguments to the Parameter call that created the op.
func DecodeParameter(paramOp *Op) (name string, paramIndex int, shape Shape) {
	return paramOp.Str, paramOp.Int, paramOp.ShapeArg
}

// Constant creates an op that outputs the given literal value. The literal is copied.
func Constant(builder *XlaBuilder, value *Literal) (*Op, error) {
	if builder == nil {
		return nil, errors.New("Constant() given a nil XlaBuilder")
	}
	if value.IsNil() {
		return nil, builder.recordError(errors.New("Constant() given a nil literal"))
	}
	op := newOp(ConstantOp)
	op.LiteralArg = value.Clone()
	if err := builder.addOp(op); err != nil {
		return nil, err
	}
	return op, nil
}

// ScalarConstant is a shortcut to Constant with a scalar literal of the given value.
func ScalarConstant[T dtypes.Supported](builder *XlaBuilder, value T) (*Op, error) {
	return Constant(builder, NewScalarLiteral(value))
}

// ScalarZero returns a zero constant of the given dtype.
func ScalarZero(builder *XlaBuilder, dtype dtypes.DType) (*Op, error) {
	l, err := NewScalarLiteralFromFloat64(0, dtype)
	if err != nil {
		if builder != nil {
			return nil, builder.recordError(err)
		}
		return nil, err
	}
	return Constant(builder, l)
}

// Tuple organizes multiple nodes in one tuple-node.
//
// This is particularly useful to get multiple outputs to a computation.
func Tuple(inputs ...*Op) (*Op, error) {
	builder := builderOf(inputs...)
	if builder == nil {
		return nil, errors.New("Tuple() requires at least one non-nil input")
	}
	tupleOp := newOp(TupleOp, slices.Clone(inputs)...)
	if err := builder.addOp(tupleOp); err != nil {
		return nil, err
	}
	return tupleOp, nil
}

// GetTupleElement extracts one element from a tuple.
func GetTupleElement(tuple *Op, elementIdx int) (*Op, error) {
	return addOpOf(GetTupleElementOp, func(op *Op) { op.Int = elementIdx }, tuple)
}

// Select returns, element-wise, onTrue where pred is true, and onFalse otherwise.
// pred must be a Bool array with the same dimensions as onTrue and onFalse, or a Bool scalar.
func Select(pred, onTrue, onFalse *Op) (*Op, error) {
	return addOpOf(SelectOp, nil, pred, onTrue, onFalse)
}

// Transpose permutes the axes of x: output axis i corresponds to input axis permutation[i].
func Transpose(x *Op, permutation ...int) (*Op, error) {
	return addOpOf(TransposeOp, func(op *Op) { op.IntsArg = slices.Clone(permutation) }, x)
}

// Reshape changes the dimensions of x, keeping the elements in row-major order.
func Reshape(x *Op, dimensions ...int) (*Op, error) {
	return addOpOf(ReshapeOp, func(op *Op) { op.IntsArg = slices.Clone(dimensions) }, x)
}

// ConvertDType converts x to the given dtype, element-wise.
func ConvertDType(x *Op, dtype dtypes.DType) (*Op, error) {
	return addOpOf(ConvertDTypeOp, func(op *Op) { op.Int = int(dtype) }, x)
}

// addOpOf creates an op of the given type and inputs, sets its static arguments with setArgs (if not nil) and adds
// it to the builder of the inputs.
func addOpOf(opType OpType, setArgs func(op *Op), inputs ...*Op) (*Op, error) {
	builder := builderOf(inputs...)
	if builder == nil {
		return nil, errors.Errorf("%s() requires non-nil inputs created by an XlaBuilder", opType)
	}
	op := newOp(opType, inputs...)
	if setArgs != nil {
		setArgs(op)
	}
	if err := builder.addOp(op); err != nil {
		return nil, err
	}
	return op, nil
}
