// Package xlabuilder is used to build computations: one creates an XlaBuilder, issues operations (ops) on it,
// and finally calls XlaBuilder.Build to get an immutable XlaComputation, that can be compiled and executed by a
// plugin (see package pjrt).
//
// It also defines the host side values used to feed and inspect computations: Shape (with Layout), Literal
// and Array2D.
package xlabuilder

import (
	"github.com/pkg/errors"
)

// XlaBuilder is used to create a computation.
//
// Once created (New), one can issue "operations" ("ops" for short), like "Add", "Mul", etc, which are recorded.
// When the computation definition is finalized, call XlaBuilder.Build to get the XlaComputation.
//
// Some observations:
//
//   - The XlaBuilder is used by all ops creating functions (like "Add", "Mul", etc.). But since the input of most ops,
//     are other created ops, and they hold a link to the builder, there is no need to explicitly pass the XlaBuilder to
//     every op function.
//   - Errors are returned by each op, and the first one is also kept by the builder and returned by Build. So a
//     sequence of ops can be issued without checking each error, and checked only once at the end.
//   - After Build is called (successfully or not) the builder is sealed: no more ops can be added. Build itself
//     can be called again, and returns a new XlaComputation over the same ops.
type XlaBuilder struct {
	name       string
	ops        []*Op
	parameters map[int]*Op

	// err is the first error that happened while adding ops.
	err    error
	sealed bool
}

// New create a new XlaBuilder with the given name, that can be used to create a new computation.
// See details on how to use it on XlaBuilder.
func New(name string) *XlaBuilder {
	return &XlaBuilder{name: name, parameters: make(map[int]*Op)}
}

// Name of the computation being built.
func (b *XlaBuilder) Name() string {
	return b.name
}

// Err returns the first error that happened while adding ops, or nil.
func (b *XlaBuilder) Err() error {
	return b.err
}

// recordError keeps err if it is the first error of the builder, and returns it.
func (b *XlaBuilder) recordError(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

// addOp will add the operation described by op, after validating its inputs and inferring its output shape.
// If it succeeds it fills the fields Op.Id, Op.Shape and Op.builder.
func (b *XlaBuilder) addOp(op *Op) error {
	if b == nil {
		return errors.Errorf("trying to add op %s to a nil XlaBuilder", op.Type)
	}
	if b.sealed {
		return errors.Errorf("XlaBuilder %q was already built, cannot add op %s", b.name, op.Type)
	}
	if op.builder != nil {
		return b.recordError(errors.Errorf("XlaBuilder.Op %s being added seems to have been already added to some builder", op.Type))
	}
	for ii, input := range op.OpInputs {
		if input == nil {
			return b.recordError(errors.Errorf("input #%d of op %s is nil", ii, op.Type))
		}
		if input.builder != b {
			return b.recordError(errors.Errorf("input #%d of op %s comes from a different XlaBuilder", ii, op.Type))
		}
	}
	shape, err := inferShape(op)
	if err != nil {
		return b.recordError(errors.WithMessagef(err, "while trying to add op %s to XlaBuilder %q", op.Type, b.name))
	}
	op.builder = b
	op.Id = len(b.ops)
	op.Shape = shape
	b.ops = append(b.ops, op)
	return nil
}

// builderOf returns the builder of the first non-nil op.
func builderOf(ops ...*Op) *XlaBuilder {
	for _, op := range ops {
		if op != nil && op.builder != nil {
			return op.builder
		}
	}
	return nil
}

// Build finalizes the builder and returns the computation whose result is output.
// If output is nil, the last op added is used as the result.
//
// It returns the first error that happened while adding ops, if any. It also fails if the parameter indices are
// not contiguous (0, 1, ..., n-1).
//
// After Build no more ops can be added to the builder.
func (b *XlaBuilder) Build(output *Op) (*XlaComputation, error) {
	if b == nil {
		return nil, errors.New("XlaBuilder.Build() called on a nil builder")
	}
	b.sealed = true
	if b.err != nil {
		return nil, errors.WithMessagef(b.err, "failed to build computation %q", b.name)
	}
	if len(b.ops) == 0 {
		return nil, errors.Errorf("computation %q has no ops", b.name)
	}
	if output == nil {
		output = b.ops[len(b.ops)-1]
	}
	if output.builder != b {
		return nil, errors.Errorf("output op %s of computation %q comes from a different XlaBuilder", output.Type, b.name)
	}
	numParams := len(b.parameters)
	params := make([]*Op, numParams)
	for idx, param := range b.parameters {
		if idx < 0 || idx >= numParams {
			return nil, errors.Errorf("computation %q has %d parameters, but parameter %q uses index %d: indices must be contiguous from 0",
				b.name, numParams, param.Str, idx)
		}
		params[idx] = param
	}
	return newXlaComputation(b.name, b.ops, output, params), nil
}
