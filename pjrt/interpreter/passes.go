package interpreter

import (
	"github.com/gomlx/xlatest/xlabuilder"
	"k8s.io/klog/v2"
)

// Names of the compilation passes.
const (
	// ConstantFoldingPass evaluates at compile time the ops whose inputs are all constants.
	ConstantFoldingPass = "constant_folding"

	// DeadCodeEliminationPass removes ops that don't contribute to the result.
	DeadCodeEliminationPass = "dce"
)

type pass struct {
	name string
	run  func(prog *program) error
}

// passes run in order during compilation.
var passes = []pass{
	{ConstantFoldingPass, foldConstants},
	{DeadCodeEliminationPass, eliminateDeadCode},
}

// PassNames returns the names of the compilation passes, in the order they are run.
func PassNames() []string {
	names := make([]string, len(passes))
	for ii, p := range passes {
		names[ii] = p.name
	}
	return names
}

// foldConstants replaces ops whose inputs are all constants by a constant with their value.
// Ops that fail to evaluate are left as is, so the error surfaces during execution.
func foldConstants(prog *program) error {
	numFolded := 0
	for _, n := range prog.nodes {
		if n.opType == xlabuilder.ParameterOp || n.opType == xlabuilder.ConstantOp {
			continue
		}
		inputs := make([]*xlabuilder.Literal, len(n.inputs))
		allConstants := true
		for ii, inputIdx := range n.inputs {
			input := prog.nodes[inputIdx]
			if input.opType != xlabuilder.ConstantOp {
				allConstants = false
				break
			}
			inputs[ii] = input.literal
		}
		if !allConstants {
			continue
		}
		value, err := executeNode(n, inputs)
		if err != nil {
			klog.V(1).Infof("interpreter: not folding %s in %q: %v", n.opType, prog.name, err)
			continue
		}
		n.opType = xlabuilder.ConstantOp
		n.inputs = nil
		n.literal = value
		numFolded++
	}
	if numFolded > 0 {
		klog.V(1).Infof("interpreter: folded %d ops of %q into constants", numFolded, prog.name)
	}
	return nil
}

// eliminateDeadCode removes the nodes not reachable from the root. Parameters are always kept.
func eliminateDeadCode(prog *program) error {
	used := make([]bool, len(prog.nodes))
	used[prog.root] = true
	for ii := len(prog.nodes) - 1; ii >= 0; ii-- {
		n := prog.nodes[ii]
		if n.opType == xlabuilder.ParameterOp {
			used[ii] = true
		}
		if !used[ii] {
			continue
		}
		for _, inputIdx := range n.inputs {
			used[inputIdx] = true
		}
	}
	newIdx := make([]int, len(prog.nodes))
	kept := make([]*node, 0, len(prog.nodes))
	for ii, n := range prog.nodes {
		if !used[ii] {
			newIdx[ii] = -1
			continue
		}
		newIdx[ii] = len(kept)
		for jj, inputIdx := range n.inputs {
			n.inputs[jj] = newIdx[inputIdx]
		}
		kept = append(kept, n)
	}
	prog.root = newIdx[prog.root]
	prog.nodes = kept
	return nil
}
