package pjrt

import (
	"runtime"
	"slices"
	"sync/atomic"

	"github.com/gomlx/xlatest/dtypes"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Buffer is a reference to an on-device array (or tuple) storage.
//
// It keeps the layout it was created with: transfers and executions don't change the layout of existing buffers.
type Buffer struct {
	wrapper *bufferWrapper
	client  *Client
}

// bufferWrapper holds the storage that requires clean up.
type bufferWrapper struct {
	storage *xlabuilder.Literal
}

func (wrapper *bufferWrapper) IsValid() bool {
	return wrapper != nil && wrapper.storage != nil
}

func (wrapper *bufferWrapper) Destroy() error {
	if !wrapper.IsValid() {
		// Already destroyed, no-op.
		return nil
	}
	wrapper.storage = nil
	buffersAlive.Add(-1)
	return nil
}

var buffersAlive atomic.Int64

// BuffersAlive returns the number of Buffers in memory and currently tracked by pjrt.
func BuffersAlive() int64 {
	return buffersAlive.Load()
}

// newBuffer creates Buffer owning storage, and registers it for freeing.
func newBuffer(client *Client, storage *xlabuilder.Literal) *Buffer {
	b := &Buffer{
		client:  client,
		wrapper: &bufferWrapper{storage: storage},
	}
	buffersAlive.Add(1)

	runtime.AddCleanup(b, func(wrapper *bufferWrapper) {
		err := wrapper.Destroy()
		if err != nil {
			klog.Errorf("pjrt.Buffer.Destroy failed: %v", err)
		}
	}, b.wrapper)
	return b
}

// Destroy the Buffer, release resources, and Buffer is no longer valid.
// This is automatically called if Buffer is garbage collected. Calling it more than once is a no-op.
func (b *Buffer) Destroy() error {
	if b == nil || !b.wrapper.IsValid() {
		return nil
	}
	err := b.wrapper.Destroy()
	b.client = nil
	return err
}

// IsValid returns whether the buffer is usable: not nil and not destroyed.
func (b *Buffer) IsValid() bool {
	return b != nil && b.client.IsValid() && b.wrapper.IsValid()
}

// storage returns the literal backing the buffer, or an error if it has been destroyed.
func (b *Buffer) storage() (*xlabuilder.Literal, error) {
	if !b.IsValid() {
		return nil, errors.New("Buffer is nil, or its client or storage is nil -- has it been destroyed already?")
	}
	return b.wrapper.storage, nil
}

// Client returns the client that created the buffer.
func (b *Buffer) Client() *Client {
	return b.client
}

// Shape of the buffer, including its layout.
func (b *Buffer) Shape() (xlabuilder.Shape, error) {
	storage, err := b.storage()
	if err != nil {
		return xlabuilder.Shape{}, err
	}
	return storage.Shape(), nil
}

// Dimensions of the Buffer.
func (b *Buffer) Dimensions() ([]int, error) {
	shape, err := b.Shape()
	if err != nil {
		return nil, err
	}
	return slices.Clone(shape.Dimensions), nil
}

// DType of the Buffer.
func (b *Buffer) DType() (dtypes.DType, error) {
	shape, err := b.Shape()
	if err != nil {
		return dtypes.InvalidDType, err
	}
	return shape.DType, nil
}
