package xlabuilder

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// XlaComputation represents an immutable computation created with XlaBuilder.
//
// It can be compiled and executed by pjrt.Client, and printed with XlaComputation.TextHLO.
type XlaComputation struct {
	name       string
	ops        []*Op
	root       *Op
	parameters []*Op
}

func newXlaComputation(name string, ops []*Op, root *Op, parameters []*Op) *XlaComputation {
	return &XlaComputation{
		name:       name,
		ops:        slices.Clone(ops),
		root:       root,
		parameters: parameters,
	}
}

// IsNil returns whether the computation is nil.
func (comp *XlaComputation) IsNil() bool {
	return comp == nil
}

// Name returns the name of the computation, the one given to the XlaBuilder.
func (comp *XlaComputation) Name() string {
	return comp.name
}

// Ops returns the ops of the computation in the order they were added: inputs always come before the ops
// that use them. The ops must not be modified.
func (comp *XlaComputation) Ops() []*Op {
	return slices.Clone(comp.ops)
}

// Root returns the op whose value is the result of the computation.
func (comp *XlaComputation) Root() *Op {
	return comp.root
}

// NumParameters returns the number of parameters (arguments) of the computation.
func (comp *XlaComputation) NumParameters() int {
	return len(comp.parameters)
}

// Parameter returns the parameter op with the given index.
func (comp *XlaComputation) Parameter(paramIndex int) *Op {
	return comp.parameters[paramIndex]
}

// ProgramShape returns the shapes of the parameters (in index order) and of the result.
func (comp *XlaComputation) ProgramShape() (parameters []Shape, result Shape) {
	parameters = make([]Shape, len(comp.parameters))
	for ii, param := range comp.parameters {
		parameters[ii] = param.Shape.Clone()
	}
	return parameters, comp.root.Shape.Clone()
}

// TextHLO returns a human-readable rendering of the computation, in a format close to XLA's HLO text.
func (comp *XlaComputation) TextHLO() string {
	var sb strings.Builder
	_ = comp.Write(&sb)
	return sb.String()
}

// Write the text rendering of the computation (see TextHLO) to writer.
func (comp *XlaComputation) Write(writer io.Writer) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}

	params, result := comp.ProgramShape()
	paramStrs := make([]string, len(params))
	for ii, param := range params {
		paramStrs[ii] = param.HumanString()
	}
	w("HloModule %s, entry_computation_layout={(%s)->%s}\n\n", comp.name, strings.Join(paramStrs, ", "), result.HumanString())
	w("ENTRY %s {\n", comp.name)
	for _, op := range comp.ops {
		w("  ")
		if op == comp.root {
			w("ROOT ")
		}
		w("%s = %s %s(", opTextName(op), op.Shape.HumanString(), hloNames[op.Type])
		switch op.Type {
		case ParameterOp:
			w("%d", op.Int)
		case ConstantOp:
			w("%s", op.LiteralArg.valuesString())
		default:
			for ii, input := range op.OpInputs {
				if ii > 0 {
					w(", ")
				}
				w("%s", opTextName(input))
			}
		}
		w(")")
		switch {
		case op.Type.IsComparison():
			w(", direction=%s", compareDirections[op.Type])
		case op.Type == GetTupleElementOp:
			w(", index=%d", op.Int)
		case op.Type == TransposeOp:
			w(", dimensions=%s", MakeLayout(op.IntsArg...))
		}
		w("\n")
	}
	w("}\n")
	return err
}

// opTextName is the name of the op's value in the text rendering.
func opTextName(op *Op) string {
	if op.Type == ParameterOp && op.Str != "" {
		return op.Str
	}
	return fmt.Sprintf("%s.%d", hloNames[op.Type], op.Id)
}
