package interpreter

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

func init() {
	nodeExecutors[xlabuilder.NegOp] = execUnary
	nodeExecutors[xlabuilder.AbsOp] = execUnary
	nodeExecutors[xlabuilder.NotOp] = execUnary
}

func mapValues[T, R any](xs []T, fn func(x T) R) []R {
	out := make([]R, len(xs))
	for ii, x := range xs {
		out[ii] = fn(x)
	}
	return out
}

func execUnary(n *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	var out any
	var err error
	switch x := inputs[0].Data().(type) {
	case []bool:
		if n.opType != xlabuilder.NotOp {
			err = errors.Errorf("%s not defined for booleans", n.opType)
			break
		}
		out = mapValues(x, func(v bool) bool { return !v })
	case []int8:
		out, err = unaryInteger(n.opType, x)
	case []int16:
		out, err = unaryInteger(n.opType, x)
	case []int32:
		out, err = unaryInteger(n.opType, x)
	case []int64:
		out, err = unaryInteger(n.opType, x)
	case []uint8:
		out, err = unaryInteger(n.opType, x)
	case []uint16:
		out, err = unaryInteger(n.opType, x)
	case []uint32:
		out, err = unaryInteger(n.opType, x)
	case []uint64:
		out, err = unaryInteger(n.opType, x)
	case []float32:
		out, err = unaryFloat(n.opType, x, math32.Abs)
	case []float64:
		out, err = unaryFloat(n.opType, x, math.Abs)
	case []float16.Float16:
		out, err = unaryFloat(n.opType, float16ToFloat32(x), math32.Abs)
		if f32, ok := out.([]float32); ok {
			out = float32ToFloat16(f32)
		}
	case []complex64:
		out, err = unaryComplex(n.opType, x)
	case []complex128:
		out, err = unaryComplex(n.opType, x)
	default:
		err = errors.Errorf("%s not implemented for %s", n.opType, inputs[0].Shape().HumanString())
	}
	if err != nil {
		return nil, err
	}
	return xlabuilder.NewLiteralFromFlat(n.shape, out)
}

func unaryInteger[T integer](opType xlabuilder.OpType, xs []T) (any, error) {
	switch opType {
	case xlabuilder.NegOp:
		return mapValues(xs, func(x T) T { return -x }), nil
	case xlabuilder.AbsOp:
		return mapValues(xs, func(x T) T {
			if x < 0 {
				return -x
			}
			return x
		}), nil
	case xlabuilder.NotOp:
		return mapValues(xs, func(x T) T { return ^x }), nil
	}
	return nil, errors.Errorf("%s is not a unary op", opType)
}

func unaryFloat[T float](opType xlabuilder.OpType, xs []T, abs func(T) T) (any, error) {
	switch opType {
	case xlabuilder.NegOp:
		return mapValues(xs, func(x T) T { return -x }), nil
	case xlabuilder.AbsOp:
		return mapValues(xs, abs), nil
	}
	return nil, errors.Errorf("%s not defined for %T", opType, xs)
}

func unaryComplex[T complexNumber](opType xlabuilder.OpType, xs []T) (any, error) {
	if opType == xlabuilder.NegOp {
		return mapValues(xs, func(x T) T { return -x }), nil
	}
	return nil, errors.Errorf("%s not defined for %T", opType, xs)
}
