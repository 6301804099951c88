package xlabuilder

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/xlatest/dtypes"
	"github.com/pkg/errors"
)

// Shape is a minimalistic shape representation of an array.
// It is used to describe the output of an Op, the parameters of a computation, or part of a Literal value.
//
// It is defined as a DType (the underlying data type, e.g.: Float32, Int64, etc.), the dimensions on each axis
// and optionally the Layout used to store the elements. If len(Dimensions) is 0, it represents a scalar.
//
// Alternatively, a value can represent a "tuple" of sub-values.
// In this case Shape.TupleShapes is defined with the shapes of its sub-values -- it is a recursive structure.
// In this case DType is set to InvalidDType, and the shape doesn't have a value (or a layout) of itself.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int

	TupleShapes []Shape // Shapes of the tuple, if this is a tuple.

	// Layout of the array. Empty means the default row-major layout.
	Layout Layout
}

// MakeShape filled with the values given.
//
// The dimensions must be >= 0 (zero-sized arrays are valid), and it doesn't work for tuple shapes.
func MakeShape(dtype dtypes.DType, dimensions ...int) Shape {
	s, err := MakeShapeOrError(dtype, dimensions...)
	if err != nil {
		exceptions.Panicf("%v", err)
	}
	return s
}

// MakeShapeOrError is the same as MakeShape, but it returns an error instead if a dimension is negative.
func MakeShapeOrError(dtype dtypes.DType, dimensions ...int) (Shape, error) {
	s := Shape{Dimensions: slices.Clone(dimensions), DType: dtype}
	for _, dim := range dimensions {
		if dim < 0 {
			return Shape{}, errors.Errorf("MakeShape(%s): cannot create a shape with a negative dimension", s)
		}
	}
	return s, nil
}

// MakeShapeWithLayout creates an array shape with an explicit layout, given in minor-to-major order.
// It returns an error if minorToMajor is not a permutation of the axes.
func MakeShapeWithLayout(dtype dtypes.DType, dimensions []int, minorToMajor []int) (Shape, error) {
	s, err := MakeShapeOrError(dtype, dimensions...)
	if err != nil {
		return Shape{}, err
	}
	s.Layout = MakeLayout(minorToMajor...)
	if err = s.Layout.Validate(s.Rank()); err != nil {
		return Shape{}, errors.WithMessagef(err, "MakeShapeWithLayout(%s)", s)
	}
	return s, nil
}

// MakeTupleShape creates a tuple shape with the given element shapes. It can be empty.
func MakeTupleShape(elements ...Shape) Shape {
	s := Shape{TupleShapes: make([]Shape, 0, len(elements))}
	for _, element := range elements {
		s.TupleShapes = append(s.TupleShapes, element.Clone())
	}
	return s
}

// IsTuple returns whether the shape represents a tuple.
func (s Shape) IsTuple() bool {
	return s.DType == dtypes.InvalidDType && s.TupleShapes != nil
}

// IsScalar returns whether the Shape is a scalar, i.e. its len(Shape.Dimensions) == 0.
func (s Shape) IsScalar() bool { return !s.IsTuple() && s.Rank() == 0 }

// Rank of a shape is the number of axes. A shortcut to len(Shape.Dimensions).
// Scalar values have rank 0.
func (s Shape) Rank() int {
	return len(s.Dimensions)
}

// Size returns the total size of the shape. E.g.: a Shape of dimensions [3, 5] has size 15. A scalar has size 1.
func (s Shape) Size() int {
	size := 1
	for _, dim := range s.Dimensions {
		size *= dim
	}
	return size
}

// Memory returns the memory used to store an array of the given shape, the same as the size in bytes.
// For tuples it is the sum of the memory of its elements.
func (s Shape) Memory() uintptr {
	if s.IsTuple() {
		var total uintptr
		for _, element := range s.TupleShapes {
			total += element.Memory()
		}
		return total
	}
	return s.DType.Memory() * uintptr(s.Size())
}

// Clone makes a deep copy (including dimensions, tuples and layout) of the given shape.
func (s Shape) Clone() (newS Shape) {
	newS.DType = s.DType
	if len(s.Dimensions) > 0 {
		newS.Dimensions = slices.Clone(s.Dimensions)
	}
	if s.TupleShapes != nil {
		newS.TupleShapes = make([]Shape, len(s.TupleShapes))
		for ii, subS := range s.TupleShapes {
			newS.TupleShapes[ii] = subS.Clone()
		}
	}
	newS.Layout = s.Layout.Clone()
	return newS
}

// TupleSize is an alias to len(Shape.TupleShapes).
func (s Shape) TupleSize() int {
	return len(s.TupleShapes)
}

// WithLayout returns a copy of the shape with the given layout. It doesn't validate the layout.
func (s Shape) WithLayout(layout Layout) Shape {
	newS := s.Clone()
	newS.Layout = layout.Clone()
	return newS
}

// EffectiveLayout returns the layout of the array shape, resolving an empty layout to the default one.
func (s Shape) EffectiveLayout() Layout {
	return s.Layout.resolve(s.Rank()).Clone()
}

// Equal compares the logical shapes: dtype, dimensions and, recursively, tuple elements.
// Layouts are ignored.
func (s Shape) Equal(other Shape) bool {
	if s.IsTuple() != other.IsTuple() {
		return false
	}
	if s.IsTuple() {
		return slices.EqualFunc(s.TupleShapes, other.TupleShapes, Shape.Equal)
	}
	return s.DType == other.DType && slices.Equal(s.Dimensions, other.Dimensions)
}

// EqualWithLayout is like Equal, but also requires the (resolved) layouts of arrays to match.
func (s Shape) EqualWithLayout(other Shape) bool {
	if !s.Equal(other) {
		return false
	}
	if s.IsTuple() {
		return slices.EqualFunc(s.TupleShapes, other.TupleShapes, Shape.EqualWithLayout)
	}
	return s.Layout.Equal(other.Layout, s.Rank())
}

// String implements fmt.Stringer and pretty-print the shape.
func (s Shape) String() string {
	if s.IsTuple() {
		parts := make([]string, 0, s.TupleSize())
		for _, tuple := range s.TupleShapes {
			parts = append(parts, tuple.String())
		}
		return fmt.Sprintf("Tuple<%s>", strings.Join(parts, ", "))
	}
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)[]", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// HumanString returns the shape in XLA's notation, without the layout, e.g.: "f32[2,3]" or "(f32[], s32[4])".
func (s Shape) HumanString() string {
	return s.humanString(false)
}

// HumanStringWithLayout returns the shape in XLA's notation including the resolved layout of arrays,
// e.g.: "f32[2,3]{0,1}" or "(f32[]{}, s32[4]{0})".
func (s Shape) HumanStringWithLayout() string {
	return s.humanString(true)
}

func (s Shape) humanString(withLayout bool) string {
	if s.IsTuple() {
		parts := make([]string, 0, s.TupleSize())
		for _, element := range s.TupleShapes {
			parts = append(parts, element.humanString(withLayout))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	var sb strings.Builder
	sb.WriteString(s.DType.PrimitiveName())
	sb.WriteByte('[')
	for ii, dim := range s.Dimensions {
		if ii > 0 {
			sb.WriteByte(',')
		}
		_, _ = fmt.Fprint(&sb, dim)
	}
	sb.WriteByte(']')
	if withLayout {
		sb.WriteString(s.EffectiveLayout().String())
	}
	return sb.String()
}

// Iter iterates over all logical indices of the array shape, in row-major order (last axis varies fastest).
//
// The yielded slice is owned by the iterator and is reused: don't change it or hold on to it.
// Scalars yield one empty index slice. Tuples yield nothing.
func (s Shape) Iter() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if s.IsTuple() {
			return
		}
		rank := s.Rank()
		indices := make([]int, rank)
		for _, dim := range s.Dimensions {
			if dim <= 0 {
				return
			}
		}
		for {
			if !yield(indices) {
				return
			}
			axis := rank - 1
			for ; axis >= 0; axis-- {
				indices[axis]++
				if indices[axis] < s.Dimensions[axis] {
					break
				}
				indices[axis] = 0
			}
			if axis < 0 {
				return
			}
		}
	}
}

// Strides returns the distance in elements between consecutive indices of each axis, for the shape's layout.
func (s Shape) Strides() []int {
	return stridesFor(s.Dimensions, s.Layout)
}
