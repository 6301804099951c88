package interpreter

import (
	"cmp"

	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

func init() {
	for opType := xlabuilder.AddOp; opType <= xlabuilder.LessOrEqualOp; opType++ {
		if opType.IsBinaryElementWise() {
			nodeExecutors[opType] = execBinary
		}
	}
}

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type float interface {
	~float32 | ~float64
}

type complexNumber interface {
	~complex64 | ~complex128
}

// zipWith applies fn element-wise. Operands of length 1 (scalars) are broadcast.
func zipWith[T, R any](lhs, rhs []T, size int, fn func(a, b T) R) []R {
	out := make([]R, size)
	for ii := range out {
		li, ri := ii, ii
		if len(lhs) == 1 {
			li = 0
		}
		if len(rhs) == 1 {
			ri = 0
		}
		out[ii] = fn(lhs[li], rhs[ri])
	}
	return out
}

func execBinary(n *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	size := n.shape.Size()
	var out any
	var err error
	switch lhs := inputs[0].Data().(type) {
	case []bool:
		out, err = binaryBool(n.opType, lhs, inputs[1].Data().([]bool), size)
	case []int8:
		out, err = binaryInteger(n.opType, lhs, inputs[1].Data().([]int8), size)
	case []int16:
		out, err = binaryInteger(n.opType, lhs, inputs[1].Data().([]int16), size)
	case []int32:
		out, err = binaryInteger(n.opType, lhs, inputs[1].Data().([]int32), size)
	case []int64:
		out, err = binaryInteger(n.opType, lhs, inputs[1].Data().([]int64), size)
	case []uint8:
		out, err = binaryInteger(n.opType, lhs, inputs[1].Data().([]uint8), size)
	case []uint16:
		out, err = binaryInteger(n.opType, lhs, inputs[1].Data().([]uint16), size)
	case []uint32:
		out, err = binaryInteger(n.opType, lhs, inputs[1].Data().([]uint32), size)
	case []uint64:
		out, err = binaryInteger(n.opType, lhs, inputs[1].Data().([]uint64), size)
	case []float32:
		out, err = binaryFloat(n.opType, lhs, inputs[1].Data().([]float32), size)
	case []float64:
		out, err = binaryFloat(n.opType, lhs, inputs[1].Data().([]float64), size)
	case []float16.Float16:
		out, err = binaryFloat(n.opType, float16ToFloat32(lhs), float16ToFloat32(inputs[1].Data().([]float16.Float16)), size)
		if f32, ok := out.([]float32); ok {
			out = float32ToFloat16(f32)
		}
	case []complex64:
		out, err = binaryComplex(n.opType, lhs, inputs[1].Data().([]complex64), size)
	case []complex128:
		out, err = binaryComplex(n.opType, lhs, inputs[1].Data().([]complex128), size)
	default:
		err = errors.Errorf("%s not implemented for %s", n.opType, inputs[0].Shape().HumanString())
	}
	if err != nil {
		return nil, err
	}
	return xlabuilder.NewLiteralFromFlat(n.shape, out)
}

func binaryBool(opType xlabuilder.OpType, lhs, rhs []bool, size int) (any, error) {
	switch opType {
	case xlabuilder.AndOp:
		return zipWith(lhs, rhs, size, func(a, b bool) bool { return a && b }), nil
	case xlabuilder.OrOp:
		return zipWith(lhs, rhs, size, func(a, b bool) bool { return a || b }), nil
	case xlabuilder.EqualOp, xlabuilder.NotEqualOp:
		return compareEquality(opType, lhs, rhs, size), nil
	}
	return nil, errors.Errorf("%s not defined for booleans", opType)
}

func binaryInteger[T integer](opType xlabuilder.OpType, lhs, rhs []T, size int) (any, error) {
	switch opType {
	case xlabuilder.AndOp:
		return zipWith(lhs, rhs, size, func(a, b T) T { return a & b }), nil
	case xlabuilder.OrOp:
		return zipWith(lhs, rhs, size, func(a, b T) T { return a | b }), nil
	case xlabuilder.DivOp:
		for _, b := range rhs {
			if b == 0 {
				return nil, errors.New("integer division by zero")
			}
		}
	}
	if opType.IsComparison() {
		return compareOrdered(opType, lhs, rhs, size), nil
	}
	return binaryArithmetic(opType, lhs, rhs, size)
}

func binaryFloat[T float](opType xlabuilder.OpType, lhs, rhs []T, size int) (any, error) {
	if opType.IsComparison() {
		return compareOrdered(opType, lhs, rhs, size), nil
	}
	return binaryArithmetic(opType, lhs, rhs, size)
}

func binaryComplex[T complexNumber](opType xlabuilder.OpType, lhs, rhs []T, size int) (any, error) {
	switch opType {
	case xlabuilder.AddOp:
		return zipWith(lhs, rhs, size, func(a, b T) T { return a + b }), nil
	case xlabuilder.SubOp:
		return zipWith(lhs, rhs, size, func(a, b T) T { return a - b }), nil
	case xlabuilder.MulOp:
		return zipWith(lhs, rhs, size, func(a, b T) T { return a * b }), nil
	case xlabuilder.DivOp:
		return zipWith(lhs, rhs, size, func(a, b T) T { return a / b }), nil
	case xlabuilder.EqualOp, xlabuilder.NotEqualOp:
		return compareEquality(opType, lhs, rhs, size), nil
	}
	return nil, errors.Errorf("%s not defined for complex numbers", opType)
}

// binaryArithmetic handles the arithmetic ops shared by integers and floats. Max and Min propagate NaNs.
func binaryArithmetic[T integer | float](opType xlabuilder.OpType, lhs, rhs []T, size int) (any, error) {
	var fn func(a, b T) T
	switch opType {
	case xlabuilder.AddOp:
		fn = func(a, b T) T { return a + b }
	case xlabuilder.SubOp:
		fn = func(a, b T) T { return a - b }
	case xlabuilder.MulOp:
		fn = func(a, b T) T { return a * b }
	case xlabuilder.DivOp:
		fn = func(a, b T) T { return a / b }
	case xlabuilder.MaxOp:
		fn = func(a, b T) T { return max(a, b) }
	case xlabuilder.MinOp:
		fn = func(a, b T) T { return min(a, b) }
	default:
		var t T
		return nil, errors.Errorf("%s not defined for %T", opType, t)
	}
	return zipWith(lhs, rhs, size, fn), nil
}

func compareOrdered[T cmp.Ordered](opType xlabuilder.OpType, lhs, rhs []T, size int) []bool {
	var fn func(a, b T) bool
	switch opType {
	case xlabuilder.GreaterThanOp:
		fn = func(a, b T) bool { return a > b }
	case xlabuilder.GreaterOrEqualOp:
		fn = func(a, b T) bool { return a >= b }
	case xlabuilder.LessThanOp:
		fn = func(a, b T) bool { return a < b }
	case xlabuilder.LessOrEqualOp:
		fn = func(a, b T) bool { return a <= b }
	default:
		return compareEquality(opType, lhs, rhs, size)
	}
	return zipWith(lhs, rhs, size, fn)
}

func compareEquality[T comparable](opType xlabuilder.OpType, lhs, rhs []T, size int) []bool {
	if opType == xlabuilder.NotEqualOp {
		return zipWith(lhs, rhs, size, func(a, b T) bool { return a != b })
	}
	return zipWith(lhs, rhs, size, func(a, b T) bool { return a == b })
}

func float16ToFloat32(xs []float16.Float16) []float32 {
	out := make([]float32, len(xs))
	for ii, x := range xs {
		out[ii] = x.Float32()
	}
	return out
}

func float32ToFloat16(xs []float32) []float16.Float16 {
	out := make([]float16.Float16, len(xs))
	for ii, x := range xs {
		out[ii] = float16.Fromfloat32(x)
	}
	return out
}
