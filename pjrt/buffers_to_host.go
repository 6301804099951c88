package pjrt

import (
	"github.com/dustin/go-humanize"
	"github.com/gomlx/xlatest/dtypes"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ToLiteral transfers the contents of the buffer back to host, preserving its layout.
func (b *Buffer) ToLiteral() (*xlabuilder.Literal, error) {
	storage, err := b.storage()
	if err != nil {
		return nil, err
	}
	shape := storage.Shape()
	klog.V(1).Infof("pjrt: transferring %s (%s) to host", shape.HumanStringWithLayout(), humanize.Bytes(uint64(shape.Memory())))
	return storage.Clone(), nil
}

// ToLiteralWithLayout transfers the contents of the buffer back to host, stored in the given layout.
// It fails for tuples, unless the layout is empty, in which case the default layout is used for arrays.
func (b *Buffer) ToLiteralWithLayout(layout xlabuilder.Layout) (*xlabuilder.Literal, error) {
	literal, err := b.ToLiteral()
	if err != nil {
		return nil, err
	}
	if literal.IsTuple() {
		if !layout.IsEmpty() {
			return nil, errors.Errorf("cannot transfer tuple %s with layout %s", literal.Shape().HumanString(), layout)
		}
		return literal, nil
	}
	if layout.IsEmpty() {
		layout = xlabuilder.DefaultLayout(literal.Shape().Rank())
	}
	return literal.Relayout(layout)
}

// BufferToArray transfers the buffer to an array defined by a slice with its flat values (row-major), and returns
// also its underlying dimensions.
func BufferToArray[T dtypes.Supported](buffer *Buffer) (flat []T, dimensions []int, err error) {
	literal, err := buffer.ToLiteral()
	if err != nil {
		return nil, nil, err
	}
	return xlabuilder.LiteralToArray[T](literal)
}

// BufferToScalar is a generic function that transfer a Buffer back to host as a scalar of the given type.
func BufferToScalar[T dtypes.Supported](buffer *Buffer) (value T, err error) {
	flat, dims, err := BufferToArray[T](buffer)
	if err != nil {
		return value, err
	}
	if len(dims) != 0 {
		return value, errors.Errorf("BufferToScalar called on buffer with dimensions %v", dims)
	}
	return flat[0], nil
}
