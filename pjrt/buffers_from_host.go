package pjrt

import (
	"github.com/dustin/go-humanize"
	"github.com/gomlx/xlatest/dtypes"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// BufferFromHostConfig is used to configure the transfer from a buffer from host memory to on-device memory, it is
// created with Client.BufferFromHost.
//
// The data to transfer from host can be set up with one of the following methods:
//
// - FromLiteral: a copy of the literal, in its layout.
// - FromFlatDataWithDimensions: it takes as inputs a flat slice (row-major) and the dimensions.
//
// The layout of the on-device storage defaults to the one of the data, and can be changed with WithLayout.
//
// At the end call BufferFromHostConfig.Done to actually initiate the transfer.
type BufferFromHostConfig struct {
	client  *Client
	literal *xlabuilder.Literal
	layout  *xlabuilder.Layout

	// err stores the first error that happened during configuration.
	// If it is not nil, it is immediately returned by the Done call.
	err error
}

// FromLiteral configures the data to transfer. The literal is copied during Done.
func (b *BufferFromHostConfig) FromLiteral(literal *xlabuilder.Literal) *BufferFromHostConfig {
	if b.err != nil {
		return b
	}
	if literal.IsNil() {
		b.err = errors.New("BufferFromHost().FromLiteral() given a nil literal")
		return b
	}
	b.literal = literal
	return b
}

// FromFlatDataWithDimensions configures the data to come from a flat slice of the desired data type, and the underlying
// dimensions.
// The flat slice size must match the product of the dimension.
// If no dimensions are given, it is assumed to be a scalar, and flat should have length 1.
func (b *BufferFromHostConfig) FromFlatDataWithDimensions(flat any, dimensions []int) *BufferFromHostConfig {
	if b.err != nil {
		return b
	}
	literal, err := xlabuilder.NewArrayLiteralFromAny(flat, dimensions...)
	if err != nil {
		b.err = errors.WithMessagef(err, "BufferFromHost().FromFlatDataWithDimensions(%T, %v)", flat, dimensions)
		return b
	}
	// The literal owns flat, so we make sure Done copies it.
	b.literal = literal
	return b
}

// WithLayout configures the layout of the on-device storage. The data is relaid-out during the transfer.
func (b *BufferFromHostConfig) WithLayout(layout xlabuilder.Layout) *BufferFromHostConfig {
	if b.err != nil {
		return b
	}
	layout = layout.Clone()
	b.layout = &layout
	return b
}

// Done will transfer the data from host to the device and return the new Buffer.
func (b *BufferFromHostConfig) Done() (*Buffer, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.client.checkValid(); err != nil {
		return nil, err
	}
	if b.literal == nil {
		return nil, errors.New("BufferFromHost() requires data to transfer, use FromLiteral or FromFlatDataWithDimensions")
	}
	var storage *xlabuilder.Literal
	if b.layout != nil {
		var err error
		storage, err = b.literal.Relayout(*b.layout)
		if err != nil {
			return nil, errors.WithMessagef(err, "BufferFromHost()")
		}
	} else {
		storage = b.literal.Clone()
	}
	shape := storage.Shape()
	klog.V(1).Infof("pjrt: transferring %s (%s) to device", shape.HumanStringWithLayout(), humanize.Bytes(uint64(shape.Memory())))
	return newBuffer(b.client, storage), nil
}

// ScalarToBuffer transfers the scalar value to a Buffer on the client's device.
func ScalarToBuffer[T dtypes.Supported](client *Client, value T) (*Buffer, error) {
	return client.BufferFromHost().FromLiteral(xlabuilder.NewScalarLiteral(value)).Done()
}

// ArrayToBuffer transfers the flat (row-major) array with the given dimensions to a Buffer.
func ArrayToBuffer[T dtypes.Supported](client *Client, flat []T, dimensions ...int) (*Buffer, error) {
	literal, err := xlabuilder.NewArrayLiteral(flat, dimensions...)
	if err != nil {
		return nil, err
	}
	return client.BufferFromHost().FromLiteral(literal).Done()
}
