package xlabuilder

import (
	"slices"

	"github.com/gomlx/xlatest/dtypes"
	"github.com/pkg/errors"
)

// inferShape returns the output shape of op, or an error if its inputs or arguments are invalid for the op.
func inferShape(op *Op) (Shape, error) {
	for ii, input := range op.OpInputs {
		if input.Shape.IsTuple() && op.Type != TupleOp && op.Type != GetTupleElementOp {
			return Shape{}, errors.Errorf("input #%d of %s is a tuple %s, only Tuple and GetTupleElement accept tuples",
				ii, op.Type, input.Shape.HumanString())
		}
	}
	switch {
	case op.Type == ParameterOp:
		shape := op.ShapeArg
		if !shape.IsTuple() && !shape.DType.IsSupported() {
			return Shape{}, errors.Errorf("parameter %q has unsupported shape %s", op.Str, shape)
		}
		return shape.Clone(), nil
	case op.Type == ConstantOp:
		return op.LiteralArg.Shape().WithLayout(Layout{}), nil
	case op.Type == TupleOp:
		shapes := make([]Shape, len(op.OpInputs))
		for ii, input := range op.OpInputs {
			shapes[ii] = input.Shape
		}
		return MakeTupleShape(shapes...), nil
	case op.Type == GetTupleElementOp:
		return inferGetTupleElement(op)
	case op.Type.IsUnaryElementWise():
		return inferUnary(op)
	case op.Type.IsBinaryElementWise():
		return inferBinary(op)
	case op.Type == SelectOp:
		return inferSelect(op)
	case op.Type == TransposeOp:
		return inferTranspose(op)
	case op.Type == ReshapeOp:
		return inferReshape(op)
	case op.Type == ConvertDTypeOp:
		dtype := dtypes.DType(op.Int)
		if !dtype.IsSupported() {
			return Shape{}, errors.Errorf("ConvertDType to unsupported dtype %s", dtype)
		}
		shape := op.OpInputs[0].Shape.Clone()
		shape.DType = dtype
		return shape, nil
	}
	return Shape{}, errors.Errorf("op type %s not supported", op.Type)
}

func inferGetTupleElement(op *Op) (Shape, error) {
	tuple := op.OpInputs[0].Shape
	if !tuple.IsTuple() {
		return Shape{}, errors.Errorf("GetTupleElement requires a tuple, got %s", tuple.HumanString())
	}
	if op.Int < 0 || op.Int >= tuple.TupleSize() {
		return Shape{}, errors.Errorf("GetTupleElement index %d out-of-range for tuple %s", op.Int, tuple.HumanString())
	}
	return tuple.TupleShapes[op.Int].Clone(), nil
}

func inferUnary(op *Op) (Shape, error) {
	x := op.OpInputs[0].Shape
	switch op.Type {
	case NegOp:
		if x.DType == dtypes.Bool {
			return Shape{}, errors.Errorf("Neg not defined for %s", x.HumanString())
		}
	case AbsOp:
		if x.DType == dtypes.Bool || x.DType.IsComplex() {
			return Shape{}, errors.Errorf("Abs not defined for %s", x.HumanString())
		}
	case NotOp:
		if !x.DType.IsIntegralOrBool() {
			return Shape{}, errors.Errorf("Not requires booleans or integers, got %s", x.HumanString())
		}
	}
	return x.Clone(), nil
}

// broadcastDimensions returns the output dimensions of an element-wise op: both operands must have the same
// dimensions, or one of them must be a scalar.
func broadcastDimensions(opType OpType, shapes ...Shape) ([]int, error) {
	var dims []int
	for _, shape := range shapes {
		if shape.IsScalar() {
			continue
		}
		if dims == nil {
			dims = shape.Dimensions
			continue
		}
		if !slices.Equal(dims, shape.Dimensions) {
			return nil, errors.Errorf("%s operands have incompatible dimensions %v and %v", opType, dims, shape.Dimensions)
		}
	}
	return slices.Clone(dims), nil
}

func inferBinary(op *Op) (Shape, error) {
	lhs, rhs := op.OpInputs[0].Shape, op.OpInputs[1].Shape
	if lhs.DType != rhs.DType {
		return Shape{}, errors.Errorf("%s operands have different dtypes: %s and %s", op.Type, lhs.HumanString(), rhs.HumanString())
	}
	dims, err := broadcastDimensions(op.Type, lhs, rhs)
	if err != nil {
		return Shape{}, err
	}
	dtype := lhs.DType
	switch op.Type {
	case AddOp, SubOp, MulOp, DivOp:
		if dtype == dtypes.Bool {
			return Shape{}, errors.Errorf("%s not defined for booleans", op.Type)
		}
	case MaxOp, MinOp, GreaterThanOp, GreaterOrEqualOp, LessThanOp, LessOrEqualOp:
		if dtype.IsComplex() {
			return Shape{}, errors.Errorf("%s not defined for complex numbers (%s)", op.Type, dtype)
		}
	case AndOp, OrOp:
		if !dtype.IsIntegralOrBool() {
			return Shape{}, errors.Errorf("%s requires booleans or integers, got %s", op.Type, dtype)
		}
	}
	if op.Type.IsComparison() {
		dtype = dtypes.Bool
	}
	return Shape{DType: dtype, Dimensions: dims}, nil
}

func inferSelect(op *Op) (Shape, error) {
	pred, onTrue, onFalse := op.OpInputs[0].Shape, op.OpInputs[1].Shape, op.OpInputs[2].Shape
	if pred.DType != dtypes.Bool {
		return Shape{}, errors.Errorf("Select predicate must be a boolean, got %s", pred.HumanString())
	}
	if !onTrue.Equal(onFalse) {
		return Shape{}, errors.Errorf("Select branches must have the same shape, got %s and %s",
			onTrue.HumanString(), onFalse.HumanString())
	}
	if !pred.IsScalar() && !slices.Equal(pred.Dimensions, onTrue.Dimensions) {
		return Shape{}, errors.Errorf("Select predicate %s doesn't match branches %s", pred.HumanString(), onTrue.HumanString())
	}
	return onTrue.Clone(), nil
}

func inferTranspose(op *Op) (Shape, error) {
	x := op.OpInputs[0].Shape
	if err := MakeLayout(op.IntsArg...).Validate(x.Rank()); err != nil || len(op.IntsArg) != x.Rank() {
		return Shape{}, errors.Errorf("Transpose permutation %v invalid for shape %s", op.IntsArg, x.HumanString())
	}
	shape := Shape{DType: x.DType, Dimensions: make([]int, x.Rank())}
	for ii, axis := range op.IntsArg {
		shape.Dimensions[ii] = x.Dimensions[axis]
	}
	return shape, nil
}

func inferReshape(op *Op) (Shape, error) {
	x := op.OpInputs[0].Shape
	shape, err := MakeShapeOrError(x.DType, op.IntsArg...)
	if err != nil {
		return Shape{}, err
	}
	if shape.Size() != x.Size() {
		return Shape{}, errors.Errorf("Reshape of %s to %v changes the number of elements", x.HumanString(), op.IntsArg)
	}
	return shape, nil
}
