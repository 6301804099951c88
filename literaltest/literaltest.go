// Package literaltest compares literals in tests: exact equality (Equal) or equality within an ErrorSpec (Near),
// recursively over tuples.
//
// Comparisons are logical: two literals with the same values stored in different layouts are equal.
// The Expect* functions report mismatches to a testing.T like the testify assert package does.
package literaltest

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/x448/float16"
)

// ErrorSpec is the tolerance for Near comparisons. An element is within the spec if the absolute error
// is <= Abs, or if the relative error (relative to the expected value) is <= Rel.
type ErrorSpec struct {
	Abs, Rel float64
}

// String implements fmt.Stringer.
func (spec ErrorSpec) String() string {
	return fmt.Sprintf("ErrorSpec{abs=%g, rel=%g}", spec.Abs, spec.Rel)
}

// MaxReportedMismatches is the maximum number of mismatching elements listed in an error.
var MaxReportedMismatches = 5

// Equal returns an error describing the differences if expected and actual are not exactly equal.
// NaNs are considered equal to NaNs.
func Equal(expected, actual *xlabuilder.Literal) error {
	return compare(expected, actual, nil, "")
}

// Near returns an error describing the differences if actual is not within spec of expected.
// All arrays must be of floating point or complex dtypes. Complex numbers are compared separately in their
// real and imaginary parts.
func Near(expected, actual *xlabuilder.Literal, spec ErrorSpec) error {
	if err := checkFloatLeaves(expected, ""); err != nil {
		return err
	}
	return compare(expected, actual, &spec, "")
}

// EqualTuple is like Equal, but requires both literals to be tuples.
func EqualTuple(expected, actual *xlabuilder.Literal) error {
	if err := checkTuples(expected, actual); err != nil {
		return err
	}
	return Equal(expected, actual)
}

// NearTuple is like Near, but requires both literals to be tuples.
func NearTuple(expected, actual *xlabuilder.Literal, spec ErrorSpec) error {
	if err := checkTuples(expected, actual); err != nil {
		return err
	}
	return Near(expected, actual, spec)
}

// ExpectEqual reports a test error if expected and actual are not equal. It returns whether they are.
func ExpectEqual(t assert.TestingT, expected, actual *xlabuilder.Literal, msgAndArgs ...any) bool {
	return assert.NoError(t, Equal(expected, actual), msgAndArgs...)
}

// ExpectNear reports a test error if actual is not within spec of expected. It returns whether it is.
func ExpectNear(t assert.TestingT, expected, actual *xlabuilder.Literal, spec ErrorSpec, msgAndArgs ...any) bool {
	return assert.NoError(t, Near(expected, actual, spec), msgAndArgs...)
}

// ExpectEqualTuple is the tuple version of ExpectEqual.
func ExpectEqualTuple(t assert.TestingT, expected, actual *xlabuilder.Literal, msgAndArgs ...any) bool {
	return assert.NoError(t, EqualTuple(expected, actual), msgAndArgs...)
}

// ExpectNearTuple is the tuple version of ExpectNear.
func ExpectNearTuple(t assert.TestingT, expected, actual *xlabuilder.Literal, spec ErrorSpec, msgAndArgs ...any) bool {
	return assert.NoError(t, NearTuple(expected, actual, spec), msgAndArgs...)
}

func checkTuples(expected, actual *xlabuilder.Literal) error {
	if expected.IsNil() || !expected.IsTuple() {
		return errors.Errorf("expected literal %s is not a tuple", expected)
	}
	if actual.IsNil() || !actual.IsTuple() {
		return errors.Errorf("actual literal %s is not a tuple", actual)
	}
	return nil
}

func checkFloatLeaves(l *xlabuilder.Literal, path string) error {
	if l.IsNil() {
		return errors.New("expected literal is nil")
	}
	if l.IsTuple() {
		for ii, element := range l.Decompose() {
			if err := checkFloatLeaves(element, tuplePath(path, ii)); err != nil {
				return err
			}
		}
		return nil
	}
	shape := l.Shape()
	if !shape.DType.IsFloatOrComplex() {
		return errors.Errorf("%snear comparison requires floating point or complex values, got %s",
			pathPrefix(path), shape.HumanString())
	}
	return nil
}

func tuplePath(path string, idx int) string {
	return fmt.Sprintf("%s{%d}", path, idx)
}

func pathPrefix(path string) string {
	if path == "" {
		return ""
	}
	return "tuple element " + path + ": "
}

// compare expected and actual exactly (spec == nil) or within spec.
func compare(expected, actual *xlabuilder.Literal, spec *ErrorSpec, path string) error {
	if expected.IsNil() || actual.IsNil() {
		return errors.Errorf("%scannot compare nil literals (expected=%s, actual=%s)", pathPrefix(path), expected, actual)
	}
	expectedShape, actualShape := expected.Shape(), actual.Shape()
	if !expectedShape.Equal(actualShape) {
		return errors.Errorf("%sshape mismatch: expected %s, got %s",
			pathPrefix(path), expectedShape.HumanString(), actualShape.HumanString())
	}
	if expected.IsTuple() {
		actualElements := actual.Decompose()
		for ii, element := range expected.Decompose() {
			if err := compare(element, actualElements[ii], spec, tuplePath(path, ii)); err != nil {
				return err
			}
		}
		return nil
	}

	var mismatches []string
	numMismatches := 0
	for indices := range expectedShape.Iter() {
		want, got := expected.Value(indices...), actual.Value(indices...)
		var ok bool
		if spec == nil {
			ok = valuesEqual(want, got)
		} else {
			ok = valuesNear(want, got, *spec)
		}
		if ok {
			continue
		}
		numMismatches++
		if len(mismatches) < MaxReportedMismatches {
			mismatches = append(mismatches, fmt.Sprintf("  at %v: expected %s, got %s",
				indices, xlabuilder.FormatValue(want), xlabuilder.FormatValue(got)))
		}
	}
	if numMismatches == 0 {
		return nil
	}

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "%s%d of %d elements differ", pathPrefix(path), numMismatches, expectedShape.Size())
	if spec != nil {
		_, _ = fmt.Fprintf(&sb, " beyond %s", spec)
	}
	_, _ = fmt.Fprintf(&sb, ":\n%s", strings.Join(mismatches, "\n"))
	if numMismatches > len(mismatches) {
		_, _ = fmt.Fprintf(&sb, "\n  ...")
	}
	_, _ = fmt.Fprintf(&sb, "\nexpected: %s\nactual:   %s", expected, actual)
	return errors.New(sb.String())
}

// valuesEqual compares two elements of the same dtype, with NaN equal to NaN.
func valuesEqual(want, got any) bool {
	if wantC, ok := toComplex(want); ok {
		gotC, _ := toComplex(got)
		return floatsEqual(real(wantC), real(gotC)) && floatsEqual(imag(wantC), imag(gotC))
	}
	return want == got
}

func floatsEqual(want, got float64) bool {
	return want == got || (math.IsNaN(want) && math.IsNaN(got))
}

func valuesNear(want, got any, spec ErrorSpec) bool {
	wantC, ok := toComplex(want)
	if !ok {
		return want == got
	}
	gotC, _ := toComplex(got)
	return floatNear(real(wantC), real(gotC), spec) && floatNear(imag(wantC), imag(gotC), spec)
}

// floatNear checks a single float against spec. The bounds are inclusive.
func floatNear(want, got float64, spec ErrorSpec) bool {
	if floatsEqual(want, got) {
		return true
	}
	absErr := math.Abs(got - want)
	if absErr <= spec.Abs {
		return true
	}
	return absErr/math.Abs(want) <= spec.Rel
}

// toComplex converts floating point and complex values to complex128. It returns false for other types.
func toComplex(value any) (complex128, bool) {
	switch v := value.(type) {
	case float16.Float16:
		return complex(float64(v.Float32()), 0), true
	case float32:
		return complex(float64(v), 0), true
	case float64:
		return complex(v, 0), true
	case complex64:
		return complex128(v), true
	case complex128:
		return v, true
	}
	return 0, false
}
