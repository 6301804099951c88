package interpreter

import (
	"slices"

	"github.com/gomlx/xlatest/pjrt"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
)

var _ pjrt.Executable = (*Executable)(nil)

// Executable holds a compiled program, evaluated sequentially op by op.
type Executable struct {
	program   *program
	passesRun []string
}

// PassesRun returns the names of the passes run during compilation.
func (e *Executable) PassesRun() []string {
	return slices.Clone(e.passesRun)
}

// NumOps returns the number of ops left in the program after the compilation passes.
func (e *Executable) NumOps() int {
	return len(e.program.nodes)
}

// executor evaluates one node given the values of its inputs (in row-major layout).
type executor func(n *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error)

// nodeExecutors maps op types to their implementation. Filled in the init() of the files implementing them.
var nodeExecutors = make(map[xlabuilder.OpType]executor)

func executeNode(n *node, inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	exec, found := nodeExecutors[n.opType]
	if !found {
		return nil, errors.Errorf("interpreter: op %s not implemented", n.opType)
	}
	return exec(n, inputs)
}

// Run implements pjrt.Executable.
func (e *Executable) Run(inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error) {
	prog := e.program
	if len(inputs) != prog.numParameters {
		return nil, errors.Errorf("interpreter: %q expects %d inputs, got %d", prog.name, prog.numParameters, len(inputs))
	}
	results := make([]*xlabuilder.Literal, len(prog.nodes))
	var opInputs []*xlabuilder.Literal
	for ii, n := range prog.nodes {
		var err error
		switch n.opType {
		case xlabuilder.ParameterOp:
			results[ii], err = toRowMajor(inputs[n.paramIdx])
		case xlabuilder.ConstantOp:
			results[ii] = n.literal
		default:
			opInputs = opInputs[:0]
			for _, inputIdx := range n.inputs {
				opInputs = append(opInputs, results[inputIdx])
			}
			results[ii], err = executeNode(n, opInputs)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "interpreter: executing %s (#%d) of %q", n.opType, ii, prog.name)
		}
	}
	return results[prog.root], nil
}
