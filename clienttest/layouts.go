package clienttest

import (
	"iter"
	"slices"
	"strings"

	"github.com/gomlx/xlatest/client"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// MinorToMajorPermutations iterates over all the minor-to-major orderings of the axes of an array of the
// given rank, in lexicographic order, starting from {0, 1, ..., rank-1}.
// It yields rank! permutations (one, empty, for scalars). Each yielded slice is a new one.
func MinorToMajorPermutations(rank int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		perm := make([]int, rank)
		for ii := range perm {
			perm[ii] = ii
		}
		for {
			if !yield(slices.Clone(perm)) {
				return
			}
			if !nextPermutation(perm) {
				return
			}
		}
	}
}

// nextPermutation rearranges perm into the next lexicographically greater permutation.
// It returns false if perm is already the last one.
func nextPermutation(perm []int) bool {
	pivot := len(perm) - 2
	for pivot >= 0 && perm[pivot] >= perm[pivot+1] {
		pivot--
	}
	if pivot < 0 {
		return false
	}
	successor := len(perm) - 1
	for perm[successor] <= perm[pivot] {
		successor--
	}
	perm[pivot], perm[successor] = perm[successor], perm[pivot]
	slices.Reverse(perm[pivot+1:])
	return true
}

// layoutPrefix is an immutable linked list of arguments with chosen layouts, with the last argument first.
// Extending it doesn't change the prefix shared by other combinations.
type layoutPrefix struct {
	parent *layoutPrefix
	arg    *client.GlobalData
	layout string // Shape with layout of the argument, e.g.: "f32[2,3]{0,1}".
	length int
}

func (p *layoutPrefix) with(arg *client.GlobalData, layout string) *layoutPrefix {
	length := 1
	if p != nil {
		length = p.length + 1
	}
	return &layoutPrefix{parent: p, arg: arg, layout: layout, length: length}
}

func (p *layoutPrefix) len() int {
	if p == nil {
		return 0
	}
	return p.length
}

// args returns the arguments in order.
func (p *layoutPrefix) args() []*client.GlobalData {
	args := make([]*client.GlobalData, p.len())
	for node := p; node != nil; node = node.parent {
		args[node.length-1] = node.arg
	}
	return args
}

// message describes the layouts of the arguments, as reported on failures.
func (p *layoutPrefix) message() string {
	layouts := make([]string, p.len())
	for node := p; node != nil; node = node.parent {
		layouts[node.length-1] = node.layout
	}
	var sb strings.Builder
	sb.WriteString("Test with input layouts: ")
	for _, layout := range layouts {
		sb.WriteString(layout)
		sb.WriteByte(' ')
	}
	return sb.String()
}

// inputLayoutCombinations iterates lazily, depth-first, over every combination of layouts of the arguments:
// the Cartesian product of the minor-to-major permutations of each argument.
//
// Each argument is transferred back from the server, relaid out, and uploaded again for each of its layouts.
// Tuple arguments have no rank, and are used as is, in their single layout.
// The uploaded data is only valid during the iteration step where it is yielded: it's destroyed afterwards.
// On error it yields (nil, err) and stops.
func (h *Harness) inputLayoutCombinations(args []*client.GlobalData) iter.Seq2[*layoutPrefix, error] {
	return func(yield func(*layoutPrefix, error) bool) {
		h.chooseInputLayouts(args, nil, yield)
	}
}

// chooseInputLayouts assigns a layout to args[prefix.len()], and recursively to the following arguments.
// It returns false if the iteration should stop.
func (h *Harness) chooseInputLayouts(args []*client.GlobalData, prefix *layoutPrefix,
	yield func(*layoutPrefix, error) bool) bool {
	argIdx := prefix.len()
	if argIdx == len(args) {
		return yield(prefix, nil)
	}
	literal, err := h.client.Transfer(args[argIdx], nil)
	if err != nil {
		yield(nil, errors.WithMessagef(err, "failed to transfer argument #%d to try its layouts", argIdx))
		return false
	}
	shape := literal.Shape()
	if shape.IsTuple() {
		return h.chooseInputLayouts(args, prefix.with(args[argIdx], shape.HumanStringWithLayout()), yield)
	}
	for minorToMajor := range MinorToMajorPermutations(shape.Rank()) {
		relaid, err := literal.Relayout(xlabuilder.MakeLayout(minorToMajor...))
		if err != nil {
			yield(nil, errors.WithMessagef(err, "argument #%d", argIdx))
			return false
		}
		data, err := h.client.TransferToServer(relaid)
		if err != nil {
			yield(nil, errors.WithMessagef(err, "failed to upload argument #%d with layout %s", argIdx, relaid.Shape().HumanStringWithLayout()))
			return false
		}
		more := h.chooseInputLayouts(args, prefix.with(data, relaid.Shape().HumanStringWithLayout()), yield)
		if err := data.Destroy(); err != nil {
			klog.Errorf("failed to destroy argument #%d uploaded with layout %v: %v", argIdx, minorToMajor, err)
		}
		if !more {
			return false
		}
	}
	return true
}
