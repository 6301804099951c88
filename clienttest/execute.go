package clienttest

import (
	"github.com/gomlx/xlatest/client"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func build(builder *xlabuilder.XlaBuilder) (*xlabuilder.XlaComputation, error) {
	if builder == nil {
		return nil, errors.New("nil builder")
	}
	return builder.Build(nil)
}

// Execute builds the computation (the builder's last op is the result) and executes it with the harness
// options. The caller owns the returned data.
func (h *Harness) Execute(builder *xlabuilder.XlaBuilder, args []*client.GlobalData) (*client.GlobalData, error) {
	computation, err := build(builder)
	if err != nil {
		return nil, err
	}
	return h.client.Execute(computation, args, h.options)
}

// ExecuteAndTransfer builds and executes the computation, and transfers the result back.
// If shapeWithOutputLayout is given, it overrides the output layout set in the harness options.
func (h *Harness) ExecuteAndTransfer(builder *xlabuilder.XlaBuilder, args []*client.GlobalData,
	shapeWithOutputLayout *xlabuilder.Shape) (*xlabuilder.Literal, error) {
	computation, err := build(builder)
	if err != nil {
		return nil, err
	}
	return h.ExecuteAndTransferComputation(computation, args, shapeWithOutputLayout)
}

// ExecuteAndTransferComputation is like ExecuteAndTransfer, for an already built computation.
func (h *Harness) ExecuteAndTransferComputation(computation *xlabuilder.XlaComputation, args []*client.GlobalData,
	shapeWithOutputLayout *xlabuilder.Shape) (*xlabuilder.Literal, error) {
	options := h.options
	if shapeWithOutputLayout != nil {
		options = options.WithShapeWithOutputLayout(shapeWithOutputLayout)
	}
	return h.client.ExecuteAndTransfer(computation, args, options)
}

// ExecuteOrDie is like Execute, but it fails the test immediately on error.
func (h *Harness) ExecuteOrDie(t TestingT, builder *xlabuilder.XlaBuilder, args []*client.GlobalData) *client.GlobalData {
	data, err := h.Execute(builder, args)
	require.NoError(t, err)
	return data
}

// ExecuteAndTransferOrDie is like ExecuteAndTransfer, but it fails the test immediately on error.
func (h *Harness) ExecuteAndTransferOrDie(t TestingT, builder *xlabuilder.XlaBuilder, args []*client.GlobalData) *xlabuilder.Literal {
	result, err := h.ExecuteAndTransfer(builder, args, nil)
	require.NoError(t, err)
	return result
}

// ExecuteToString executes the computation and returns the result rendered as a string, or the error message.
func (h *Harness) ExecuteToString(builder *xlabuilder.XlaBuilder, args []*client.GlobalData) string {
	result, err := h.ExecuteAndTransfer(builder, args, nil)
	if err != nil {
		return err.Error()
	}
	return result.String()
}
