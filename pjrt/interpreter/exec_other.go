package interpreter

import (
	"reflect"

	"github.com/gomlx/xlatest/dtypes"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

func init() {
	nodeExecutors[xlabuilder.TupleOp] = execTuple
	nodeExecutors[xlabuilder.GetTupleElementOp] = execGetTupleElement
	nodeExecutors[xlabuilder.SelectOp] = execSelect
	nodeExecutors[xlabuilder.TransposeOp] = execTranspose
	nodeExecutors[xlabuilder.ReshapeOp] = execReshape
	nodeExecutors[xlabuilder.ConvertDTypeOp] = execConvertDType
}

func execTuple(_ *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	return xlabuilder.NewTupleLiteral(inputs...), nil
}

func execGetTupleElement(n *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	return inputs[0].TupleElement(n.intArg)
}

func execSelect(n *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	pred, ok := inputs[0].Data().([]bool)
	if !ok {
		return nil, errors.Errorf("Select predicate must be boolean, got %s", inputs[0].Shape().HumanString())
	}
	onTrue, onFalse := reflect.ValueOf(inputs[1].Data()), reflect.ValueOf(inputs[2].Data())
	size := n.shape.Size()
	out := reflect.MakeSlice(onTrue.Type(), size, size)
	for ii := range size {
		p := pred[0]
		if len(pred) > 1 {
			p = pred[ii]
		}
		if p {
			out.Index(ii).Set(onTrue.Index(ii))
		} else {
			out.Index(ii).Set(onFalse.Index(ii))
		}
	}
	return xlabuilder.NewLiteralFromFlat(n.shape, out.Interface())
}

// execTranspose copies the input following the permuted strides: output axis i iterates over input axis
// permutation[i].
func execTranspose(n *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	operand := inputs[0]
	operandStrides := operand.Shape().Strides()
	permutedStrides := make([]int, len(n.intsArg))
	for axis, fromAxis := range n.intsArg {
		permutedStrides[axis] = operandStrides[fromAxis]
	}
	src := reflect.ValueOf(operand.Data())
	size := n.shape.Size()
	out := reflect.MakeSlice(src.Type(), size, size)
	outIdx := 0
	for indices := range n.shape.Iter() {
		srcIdx := 0
		for axis, idx := range indices {
			srcIdx += idx * permutedStrides[axis]
		}
		out.Index(outIdx).Set(src.Index(srcIdx))
		outIdx++
	}
	return xlabuilder.NewLiteralFromFlat(n.shape, out.Interface())
}

// execReshape only changes the shape: data is already in row-major order.
func execReshape(n *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	return xlabuilder.NewLiteralFromFlat(n.shape, inputs[0].Clone().Data())
}

func execConvertDType(n *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	src := reflect.ValueOf(inputs[0].Data())
	to := n.shape.DType
	out := reflect.MakeSlice(reflect.SliceOf(to.GoType()), src.Len(), src.Len())
	for ii := range src.Len() {
		out.Index(ii).Set(convertValue(src.Index(ii), to))
	}
	return xlabuilder.NewLiteralFromFlat(n.shape, out.Interface())
}

var float64Type = reflect.TypeOf(float64(0))

// convertValue converts one value to the Go type of dtype. Booleans convert to 0 or 1, and any non-zero value
// converts to true. Complex numbers converted to real types keep only the real part.
func convertValue(v reflect.Value, to dtypes.DType) reflect.Value {
	goType := to.GoType()
	switch x := v.Interface().(type) {
	case bool:
		if to == dtypes.Bool {
			return v
		}
		var f float64
		if x {
			f = 1
		}
		return convertValue(reflect.ValueOf(f), to)
	case float16.Float16:
		return convertValue(reflect.ValueOf(x.Float32()), to)
	case complex64:
		return convertValue(reflect.ValueOf(complex128(x)), to)
	case complex128:
		switch to {
		case dtypes.Complex64, dtypes.Complex128:
			return reflect.ValueOf(x).Convert(goType)
		case dtypes.Bool:
			return reflect.ValueOf(x != 0)
		}
		return convertValue(reflect.ValueOf(real(x)), to)
	}

	// v is a Go integer or float.
	switch to {
	case dtypes.Bool:
		return reflect.ValueOf(!v.IsZero())
	case dtypes.Float16:
		return reflect.ValueOf(float16.Fromfloat32(float32(v.Convert(float64Type).Float())))
	case dtypes.Complex64, dtypes.Complex128:
		return reflect.ValueOf(complex(v.Convert(float64Type).Float(), 0)).Convert(goType)
	}
	return v.Convert(goType)
}
