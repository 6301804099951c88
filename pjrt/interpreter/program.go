package interpreter

import (
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
)

// node is the interpreter's copy of an op, with inputs referring to positions in program.nodes.
type node struct {
	opType   xlabuilder.OpType
	inputs   []int
	shape    xlabuilder.Shape
	paramIdx int
	literal  *xlabuilder.Literal // Value of constants, always in row-major layout.
	intArg   int
	intsArg  []int
}

// program is a mutable copy of the computation, transformed by the passes.
// Nodes are kept in topological order: inputs always come first.
type program struct {
	name          string
	nodes         []*node
	root          int
	numParameters int
}

func newProgram(computation *xlabuilder.XlaComputation) (*program, error) {
	if computation.IsNil() {
		return nil, errors.New("interpreter: nil computation")
	}
	ops := computation.Ops()
	prog := &program{
		name:          computation.Name(),
		nodes:         make([]*node, len(ops)),
		root:          computation.Root().Id,
		numParameters: computation.NumParameters(),
	}
	for ii, op := range ops {
		if op.Id != ii {
			return nil, errors.Errorf("interpreter: op %s of %q out of order", op, prog.name)
		}
		n := &node{
			opType:   op.Type,
			inputs:   make([]int, len(op.OpInputs)),
			shape:    op.Shape.Clone(),
			paramIdx: -1,
			intArg:   op.Int,
			intsArg:  op.IntsArg,
		}
		for jj, input := range op.OpInputs {
			n.inputs[jj] = input.Id
		}
		switch op.Type {
		case xlabuilder.ParameterOp:
			n.paramIdx = op.Int
		case xlabuilder.ConstantOp:
			value, err := toRowMajor(op.LiteralArg)
			if err != nil {
				return nil, err
			}
			n.literal = value
		}
		prog.nodes[ii] = n
	}
	return prog, nil
}

// toRowMajor returns the literal (or tuple elements) in the default layout, relaying it out if needed.
func toRowMajor(l *xlabuilder.Literal) (*xlabuilder.Literal, error) {
	if l.IsTuple() {
		elements := l.Decompose()
		for ii, element := range elements {
			var err error
			elements[ii], err = toRowMajor(element)
			if err != nil {
				return nil, err
			}
		}
		return xlabuilder.NewTupleLiteral(elements...), nil
	}
	shape := l.Shape()
	if shape.Layout.Equal(xlabuilder.Layout{}, shape.Rank()) {
		return l, nil
	}
	return l.Relayout(xlabuilder.DefaultLayout(shape.Rank()))
}
