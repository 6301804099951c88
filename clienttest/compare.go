package clienttest

import (
	"github.com/gomlx/xlatest/client"
	"github.com/gomlx/xlatest/dtypes"
	"github.com/gomlx/xlatest/literaltest"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"k8s.io/klog/v2"
)

// VerifyFn checks the actual result of one execution. The message describes the layouts used in the
// execution (empty if none were forced), and should be included in any reported failure.
type VerifyFn func(actual *xlabuilder.Literal, message string)

// messageArgs converts a sweep message to testify's msgAndArgs.
func messageArgs(message string) []any {
	if message == "" {
		return nil
	}
	return []any{message}
}

// ComputeAndCompareLiteral builds and executes the computation and reports a test error if the result is not
// exactly equal to expected. If shapeWithLayout is given, it's used as the output layout.
func (h *Harness) ComputeAndCompareLiteral(t TestingT, builder *xlabuilder.XlaBuilder, expected *xlabuilder.Literal,
	args []*client.GlobalData, shapeWithLayout *xlabuilder.Shape) {
	assert.NoError(t, h.ComputeAndCompareLiteralWithStatus(t, builder, expected, args, shapeWithLayout))
}

// ComputeAndCompareLiteralWithStatus is like ComputeAndCompareLiteral, but build and execution errors are
// returned instead of reported. Mismatches are reported to t.
//
// Comparing floating point values exactly is allowed, but logs a warning.
func (h *Harness) ComputeAndCompareLiteralWithStatus(t TestingT, builder *xlabuilder.XlaBuilder,
	expected *xlabuilder.Literal, args []*client.GlobalData, shapeWithLayout *xlabuilder.Shape) error {
	computation, err := build(builder)
	if err != nil {
		return err
	}
	return h.computeAndCompareEqual(t, computation, expected, args, shapeWithLayout)
}

func (h *Harness) computeAndCompareEqual(t TestingT, computation *xlabuilder.XlaComputation,
	expected *xlabuilder.Literal, args []*client.GlobalData, shapeWithLayout *xlabuilder.Shape) error {
	if expected.IsNil() {
		return errors.New("nil expected literal")
	}
	if hasLeaf(expected, dtypes.DType.IsFloatOrComplex) {
		klog.Warningf("performing exact comparison of floating point numbers (%s)", expected.Shape().HumanString())
	} else if !allLeaves(expected, dtypes.DType.IsIntegralOrBool) {
		return errors.Errorf("exact comparison requires integral or boolean values, got %s", expected.Shape().HumanString())
	}
	verify := func(actual *xlabuilder.Literal, message string) {
		literaltest.ExpectEqual(t, expected, actual, messageArgs(message)...)
	}
	return h.computeAndCompare(computation, expected, args, verify, shapeWithLayout)
}

// ComputeAndCompareLiteralNear builds and executes the computation and reports a test error if the result is not
// within spec of expected, which must hold floating point or complex values.
func (h *Harness) ComputeAndCompareLiteralNear(t TestingT, builder *xlabuilder.XlaBuilder, expected *xlabuilder.Literal,
	args []*client.GlobalData, spec literaltest.ErrorSpec, shapeWithLayout *xlabuilder.Shape) {
	assert.NoError(t, h.ComputeAndCompareLiteralNearWithStatus(t, builder, expected, args, spec, shapeWithLayout))
}

// ComputeAndCompareLiteralNearWithStatus is like ComputeAndCompareLiteralNear, but build and execution errors
// are returned instead of reported.
func (h *Harness) ComputeAndCompareLiteralNearWithStatus(t TestingT, builder *xlabuilder.XlaBuilder,
	expected *xlabuilder.Literal, args []*client.GlobalData, spec literaltest.ErrorSpec,
	shapeWithLayout *xlabuilder.Shape) error {
	computation, err := build(builder)
	if err != nil {
		return err
	}
	return h.computeAndCompareNear(t, computation, expected, args, spec, shapeWithLayout)
}

func (h *Harness) computeAndCompareNear(t TestingT, computation *xlabuilder.XlaComputation,
	expected *xlabuilder.Literal, args []*client.GlobalData, spec literaltest.ErrorSpec,
	shapeWithLayout *xlabuilder.Shape) error {
	if expected.IsNil() {
		return errors.New("nil expected literal")
	}
	if !allLeaves(expected, dtypes.DType.IsFloatOrComplex) {
		return errors.Errorf("comparison with %s requires floating point or complex values, got %s",
			spec, expected.Shape().HumanString())
	}
	verify := func(actual *xlabuilder.Literal, message string) {
		literaltest.ExpectNear(t, expected, actual, spec, messageArgs(message)...)
	}
	return h.computeAndCompare(computation, expected, args, verify, shapeWithLayout)
}

// computeAndCompare executes the computation once per layout selected by the debug options, calling verify
// for each result. TestAllOutputLayouts takes precedence over TestAllInputLayouts.
func (h *Harness) computeAndCompare(computation *xlabuilder.XlaComputation, expected *xlabuilder.Literal,
	args []*client.GlobalData, verify VerifyFn, shapeWithLayout *xlabuilder.Shape) error {
	switch {
	case h.options.Debug.TestAllOutputLayouts:
		return h.ComputeAndCompareLiteralWithAllOutputLayouts(computation, expected, args, verify)
	case h.options.Debug.TestAllInputLayouts:
		return h.ComputeAndCompareLiteralWithAllInputLayouts(computation, expected, args, verify, shapeWithLayout)
	}
	actual, err := h.ExecuteAndTransferComputation(computation, args, shapeWithLayout)
	if err != nil {
		return err
	}
	verify(actual, "")
	return nil
}

// ComputeAndCompareLiteralWithAllOutputLayouts executes the computation first without requesting an output
// layout, and then once for each minor-to-major permutation of the axes of expected, using it as the output
// layout. So it executes 1+rank! times. Each result is checked with verify.
//
// Tuples have no layout to request, so for tuple results only the first execution is done.
func (h *Harness) ComputeAndCompareLiteralWithAllOutputLayouts(computation *xlabuilder.XlaComputation,
	expected *xlabuilder.Literal, args []*client.GlobalData, verify VerifyFn) error {
	actual, err := h.ExecuteAndTransferComputation(computation, args, nil)
	if err != nil {
		return err
	}
	verify(actual, "")

	expectedShape := expected.Shape()
	if expectedShape.IsTuple() {
		klog.V(1).Infof("clienttest: no output layouts to try for tuple %s", expectedShape.HumanString())
		return nil
	}
	for minorToMajor := range MinorToMajorPermutations(expectedShape.Rank()) {
		shapeWithLayout := expectedShape.WithLayout(xlabuilder.MakeLayout(minorToMajor...))
		layoutStr := shapeWithLayout.HumanStringWithLayout()
		actual, err := h.ExecuteAndTransferComputation(computation, args, &shapeWithLayout)
		if err != nil {
			return errors.WithMessagef(err, "execution with output layout %s", layoutStr)
		}
		verify(actual, "Test with output layout: "+layoutStr)
	}
	return nil
}

// ComputeAndCompareLiteralWithAllInputLayouts executes the computation once for each combination of layouts of
// the arguments (tuples are used as is), and checks each result with verify.
// So it executes product(rank_i!) times over the non-tuple arguments.
//
// For each combination the arguments are uploaded again with the chosen layouts. shapeWithLayout, if given,
// is the output layout used in every execution.
func (h *Harness) ComputeAndCompareLiteralWithAllInputLayouts(computation *xlabuilder.XlaComputation,
	expected *xlabuilder.Literal, args []*client.GlobalData, verify VerifyFn,
	shapeWithLayout *xlabuilder.Shape) error {
	numExecutions := 0
	for combination, err := range h.inputLayoutCombinations(args) {
		if err != nil {
			return err
		}
		actual, err := h.ExecuteAndTransferComputation(computation, combination.args(), shapeWithLayout)
		if err != nil {
			return errors.WithMessagef(err, "%s", combination.message())
		}
		verify(actual, combination.message())
		numExecutions++
	}
	klog.V(1).Infof("clienttest: %q expecting %s executed with %d input layouts combinations",
		computation.Name(), expected.Shape().HumanString(), numExecutions)
	return nil
}

// ComputeAndCompareR1 compares a rank-1 boolean result with the expected bits, exactly.
func (h *Harness) ComputeAndCompareR1(t TestingT, builder *xlabuilder.XlaBuilder, expected []bool,
	args []*client.GlobalData) {
	expectedLiteral, err := xlabuilder.NewArrayLiteral(expected, len(expected))
	if !assert.NoError(t, err) {
		return
	}
	h.ComputeAndCompareLiteral(t, builder, expectedLiteral, args, nil)
}

// ComputeAndCompareR1U8 compares a rank-1 uint8 result with the bytes of expected, exactly.
// No layouts are swept.
func (h *Harness) ComputeAndCompareR1U8(t TestingT, builder *xlabuilder.XlaBuilder, expected string,
	args []*client.GlobalData) {
	actual, err := h.ExecuteAndTransfer(builder, args, nil)
	if !assert.NoError(t, err) {
		return
	}
	klog.V(1).Infof("expected: %s", xlabuilder.NewLiteralR1U8(expected))
	klog.V(1).Infof("actual:   %s", actual)
	actualStr, err := actual.U8sString()
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, expected, actualStr)
}

// ComputeAndCompareTuple compares a tuple result with expected, exactly, element by element.
func (h *Harness) ComputeAndCompareTuple(t TestingT, builder *xlabuilder.XlaBuilder, expected *xlabuilder.Literal,
	args []*client.GlobalData) {
	actual, err := h.ExecuteAndTransfer(builder, args, nil)
	if !assert.NoError(t, err) {
		return
	}
	literaltest.ExpectEqualTuple(t, expected, actual)
}

// ComputeAndCompareTupleNear compares a tuple result with expected, within spec, element by element.
func (h *Harness) ComputeAndCompareTupleNear(t TestingT, builder *xlabuilder.XlaBuilder, expected *xlabuilder.Literal,
	args []*client.GlobalData, spec literaltest.ErrorSpec) {
	actual, err := h.ExecuteAndTransfer(builder, args, nil)
	if !assert.NoError(t, err) {
		return
	}
	literaltest.ExpectNearTuple(t, expected, actual, spec)
}

// hasLeaf returns whether any array in l (or in its tuple elements, recursively) has a dtype matching fn.
func hasLeaf(l *xlabuilder.Literal, fn func(dtypes.DType) bool) bool {
	if l.IsTuple() {
		for _, element := range l.Decompose() {
			if hasLeaf(element, fn) {
				return true
			}
		}
		return false
	}
	return fn(l.Shape().DType)
}

// allLeaves returns whether all arrays in l (or in its tuple elements, recursively) have dtypes matching fn.
func allLeaves(l *xlabuilder.Literal, fn func(dtypes.DType) bool) bool {
	if l.IsTuple() {
		for _, element := range l.Decompose() {
			if !allLeaves(element, fn) {
				return false
			}
		}
		return true
	}
	return fn(l.Shape().DType)
}
