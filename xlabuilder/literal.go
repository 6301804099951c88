package xlabuilder

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/xlatest/dtypes"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Literal is a host resident value: either an array (with shape and layout) or a tuple of Literals.
//
// Array elements are stored flat, in the physical order given by the layout of its shape.
// Two literals holding the same logical values in different layouts are considered equal by comparisons: the
// layout only affects the storage.
//
// Literals are treated as immutable: operations that change the storage (Relayout) return a new Literal.
type Literal struct {
	shape Shape
	data  any // []T for array literals, in physical order.
	tuple []*Literal
}

// NewLiteralFromShape creates a zero-initialized literal with the given shape, including its layout.
// For tuple shapes it creates a tuple of zero-initialized literals.
func NewLiteralFromShape(shape Shape) (*Literal, error) {
	if shape.IsTuple() {
		elements := make([]*Literal, 0, shape.TupleSize())
		for ii, elementShape := range shape.TupleShapes {
			element, err := NewLiteralFromShape(elementShape)
			if err != nil {
				return nil, errors.WithMessagef(err, "NewLiteralFromShape, tuple element #%d", ii)
			}
			elements = append(elements, element)
		}
		return NewTupleLiteral(elements...), nil
	}
	if !shape.DType.IsSupported() {
		return nil, errors.Errorf("NewLiteralFromShape(%s): dtype not supported", shape)
	}
	if err := shape.Layout.Validate(shape.Rank()); err != nil {
		return nil, errors.WithMessagef(err, "NewLiteralFromShape(%s)", shape)
	}
	size := shape.Size()
	data := reflect.MakeSlice(reflect.SliceOf(shape.DType.GoType()), size, size).Interface()
	return &Literal{shape: shape.Clone(), data: data}, nil
}

// NewArrayLiteral creates a Literal initialized from the array flat data (a slice, in row-major order) and the
// dimensions of the array. The data is copied.
//
// If dimensions is omitted, it is assumed to represent a 1D-array of the length given.
func NewArrayLiteral[T dtypes.Supported](flat []T, dimensions ...int) (*Literal, error) {
	if len(dimensions) == 0 {
		dimensions = []int{len(flat)}
	}
	return NewArrayLiteralFromAny(slices.Clone(flat), dimensions...)
}

// NewArrayLiteralFromAny is like NewArrayLiteral, but takes the flat slice as an `any`.
// The slice is owned by the Literal afterwards (it is not copied), except for `[]int` which is converted.
func NewArrayLiteralFromAny(flatAny any, dimensions ...int) (*Literal, error) {
	flatV := reflect.ValueOf(flatAny)
	if flatV.Kind() != reflect.Slice {
		return nil, errors.Errorf("NewArrayLiteralFromAny expects a slice, got %T", flatAny)
	}
	dtype := dtypes.FromGoType(flatV.Type().Elem())
	if dtype == dtypes.InvalidDType {
		return nil, errors.Errorf("NewArrayLiteralFromAny: unsupported element type %s", flatV.Type().Elem())
	}
	if flatV.Type().Elem() != dtype.GoType() {
		// E.g.: []int stored as []int64.
		converted := reflect.MakeSlice(reflect.SliceOf(dtype.GoType()), flatV.Len(), flatV.Len())
		for ii := range flatV.Len() {
			converted.Index(ii).Set(flatV.Index(ii).Convert(dtype.GoType()))
		}
		flatV = converted
	}
	shape, err := MakeShapeOrError(dtype, dimensions...)
	if err != nil {
		return nil, err
	}
	if shape.Size() != flatV.Len() {
		return nil, errors.Errorf("NewArrayLiteral got a slice of length %d, but the shape %s given has %d elements",
			flatV.Len(), shape, shape.Size())
	}
	return &Literal{shape: shape, data: flatV.Interface()}, nil
}

// NewLiteralFromFlat creates an array Literal with the given shape (layout included) and flat data, a slice
// already in the physical order given by the layout. The slice is owned by the Literal afterwards.
func NewLiteralFromFlat(shape Shape, flat any) (*Literal, error) {
	if shape.IsTuple() {
		return nil, errors.Errorf("NewLiteralFromFlat(%s): tuples not accepted", shape.HumanString())
	}
	if !shape.DType.IsSupported() {
		return nil, errors.Errorf("NewLiteralFromFlat(%s): dtype not supported", shape)
	}
	flatV := reflect.ValueOf(flat)
	if flatV.Kind() != reflect.Slice || flatV.Type().Elem() != shape.DType.GoType() {
		return nil, errors.Errorf("NewLiteralFromFlat(%s): expected []%s, got %T", shape.HumanString(), shape.DType.GoType(), flat)
	}
	if flatV.Len() != shape.Size() {
		return nil, errors.Errorf("NewLiteralFromFlat(%s): got %d elements, wanted %d", shape.HumanString(), flatV.Len(), shape.Size())
	}
	if err := shape.Layout.Validate(shape.Rank()); err != nil {
		return nil, errors.WithMessagef(err, "NewLiteralFromFlat(%s)", shape.HumanString())
	}
	return &Literal{shape: shape.Clone(), data: flat}, nil
}

// NewScalarLiteral creates a scalar Literal initialized with the given value.
func NewScalarLiteral[T dtypes.Supported](value T) *Literal {
	l, err := NewScalarLiteralFromAny(value)
	if err != nil {
		exceptions.Panicf("NewScalarLiteral(%v): %v", value, err)
	}
	return l
}

// NewScalarLiteralFromAny creates a scalar Literal with the given dynamically typed value.
// It uses reflection to inspect the type.
func NewScalarLiteralFromAny(value any) (*Literal, error) {
	valueV := reflect.ValueOf(value)
	dtype := dtypes.FromAny(value)
	if dtype == dtypes.InvalidDType {
		return nil, errors.Errorf("NewScalarLiteralFromAny: unsupported type %T", value)
	}
	data := reflect.MakeSlice(reflect.SliceOf(dtype.GoType()), 1, 1)
	data.Index(0).Set(valueV.Convert(dtype.GoType()))
	return &Literal{shape: MakeShape(dtype), data: data.Interface()}, nil
}

// NewScalarLiteralFromFloat64 creates a scalar Literal with the given dtype initialized from the given value as
// float64. This can be used to create common constants for arbitrary dtypes.
func NewScalarLiteralFromFloat64(value float64, dtype dtypes.DType) (*Literal, error) {
	switch dtype {
	case dtypes.Bool:
		return NewScalarLiteral(value != 0), nil
	case dtypes.Complex64:
		return NewScalarLiteral(complex(float32(value), 0)), nil
	case dtypes.Complex128:
		return NewScalarLiteral(complex(value, 0)), nil
	case dtypes.Float16:
		return NewScalarLiteral(float16.Fromfloat32(float32(value))), nil
	}
	if !dtype.IsSupported() {
		return nil, errors.Errorf("NewScalarLiteralFromFloat64(%g, %s): dtype not supported", value, dtype)
	}
	return NewScalarLiteralFromAny(reflect.ValueOf(value).Convert(dtype.GoType()).Interface())
}

// NewTupleLiteral creates a tuple Literal holding the given elements. Elements are not copied.
func NewTupleLiteral(elements ...*Literal) *Literal {
	l := &Literal{tuple: slices.Clone(elements)}
	if l.tuple == nil {
		l.tuple = []*Literal{}
	}
	shapes := make([]Shape, len(elements))
	for ii, element := range elements {
		shapes[ii] = element.shape
	}
	l.shape = MakeTupleShape(shapes...)
	return l
}

// NewLiteralR1U8 creates a rank-1 Uint8 literal with the bytes of s.
func NewLiteralR1U8(s string) *Literal {
	data := []uint8(s)
	return &Literal{shape: MakeShape(dtypes.Uint8, len(data)), data: data}
}

// IsNil returns true if l is nil.
func (l *Literal) IsNil() bool {
	return l == nil
}

// Shape of the literal, including its layout.
func (l *Literal) Shape() Shape {
	return l.shape.Clone()
}

// IsTuple returns whether the literal is a tuple.
func (l *Literal) IsTuple() bool {
	return l.shape.IsTuple()
}

// TupleSize returns the number of elements of a tuple literal.
func (l *Literal) TupleSize() int {
	return len(l.tuple)
}

// TupleElement returns the ii-th element of a tuple literal.
func (l *Literal) TupleElement(ii int) (*Literal, error) {
	if !l.IsTuple() {
		return nil, errors.Errorf("TupleElement(%d) called on non-tuple literal of shape %s", ii, l.shape)
	}
	if ii < 0 || ii >= len(l.tuple) {
		return nil, errors.Errorf("TupleElement(%d) out-of-range for tuple of size %d", ii, len(l.tuple))
	}
	return l.tuple[ii], nil
}

// Decompose returns the elements of a tuple literal, or nil if l is not a tuple.
func (l *Literal) Decompose() []*Literal {
	return slices.Clone(l.tuple)
}

// Data returns the flat slice (e.g. []float32) with the elements stored in the physical order of the literal's
// layout. The slice is owned by the literal and must not be changed. It is nil for tuples.
func (l *Literal) Data() any {
	return l.data
}

// Clone makes a deep copy of the literal.
func (l *Literal) Clone() *Literal {
	if l.IsTuple() {
		elements := make([]*Literal, len(l.tuple))
		for ii, element := range l.tuple {
			elements[ii] = element.Clone()
		}
		return NewTupleLiteral(elements...)
	}
	src := reflect.ValueOf(l.data)
	dst := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
	reflect.Copy(dst, src)
	return &Literal{shape: l.shape.Clone(), data: dst.Interface()}
}

// Relayout returns a new literal with the same logical values stored in the given layout.
// It fails for tuples or if the layout is not valid for the rank of the literal.
func (l *Literal) Relayout(layout Layout) (*Literal, error) {
	if l.IsTuple() {
		return nil, errors.Errorf("cannot relayout tuple literal of shape %s", l.shape.HumanString())
	}
	if err := layout.Validate(l.shape.Rank()); err != nil {
		return nil, errors.WithMessagef(err, "Literal.Relayout(%s)", l.shape.HumanString())
	}
	newShape := l.shape.WithLayout(layout)
	data := copyWithStrides(l.data, l.shape.Dimensions, l.shape.Strides(), newShape.Strides())
	return &Literal{shape: newShape, data: data}, nil
}

// copyWithStrides copies every logical element from a flat slice using the source strides into a new flat slice,
// placed according to the target strides.
func copyWithStrides(data any, dimensions []int, fromStrides, toStrides []int) any {
	src := reflect.ValueOf(data)
	dst := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
	for indices := range (Shape{Dimensions: dimensions}).Iter() {
		dst.Index(flatOffset(indices, toStrides)).Set(src.Index(flatOffset(indices, fromStrides)))
	}
	return dst.Interface()
}

func flatOffset(indices, strides []int) int {
	offset := 0
	for axis, idx := range indices {
		offset += idx * strides[axis]
	}
	return offset
}

// Value returns the element at the given logical indices, as its Go type (e.g. float32).
// It panics if the literal is a tuple or if the indices are out-of-range.
func (l *Literal) Value(indices ...int) any {
	if l.IsTuple() {
		exceptions.Panicf("Literal.Value() called on tuple literal %s", l.shape.HumanString())
	}
	if len(indices) != l.shape.Rank() {
		exceptions.Panicf("Literal.Value(%v) for literal of rank %d", indices, l.shape.Rank())
	}
	for axis, idx := range indices {
		if idx < 0 || idx >= l.shape.Dimensions[axis] {
			exceptions.Panicf("Literal.Value(%v) out-of-bounds for shape %s", indices, l.shape.HumanString())
		}
	}
	return reflect.ValueOf(l.data).Index(flatOffset(indices, l.shape.Strides())).Interface()
}

// ToFlat returns a copy of the elements in logical row-major order, as a slice of the literal's Go type.
// It returns nil for tuples.
func (l *Literal) ToFlat() any {
	if l.IsTuple() {
		return nil
	}
	rowMajor := stridesFor(l.shape.Dimensions, Layout{})
	return copyWithStrides(l.data, l.shape.Dimensions, l.shape.Strides(), rowMajor)
}

// LiteralToArray returns the elements of the literal in logical row-major order and its dimensions.
// It returns an error if T doesn't match the literal's dtype.
func LiteralToArray[T dtypes.Supported](l *Literal) (flat []T, dimensions []int, err error) {
	if l.IsNil() || l.IsTuple() {
		err = errors.New("LiteralToArray requires a non-nil array literal")
		return
	}
	flat, ok := l.ToFlat().([]T)
	if !ok {
		var t T
		err = errors.Errorf("LiteralToArray[%T] called for literal of shape %s", t, l.shape)
		return
	}
	dimensions = slices.Clone(l.shape.Dimensions)
	return
}

// U8sString returns the bytes of a rank-1 Uint8 literal as a string.
func (l *Literal) U8sString() (string, error) {
	if l.IsTuple() || l.shape.DType != dtypes.Uint8 || l.shape.Rank() != 1 {
		return "", errors.Errorf("U8sString requires a rank-1 u8 literal, got %s", l.shape.HumanString())
	}
	return string(l.data.([]uint8)), nil
}

// String implements fmt.Stringer. It prints the shape followed by the values in logical order, e.g.:
// "f32[2,2] {{1, 2}, {3, 4}}" or "(f32[] 1, s32[2] {1, 2})".
func (l *Literal) String() string {
	if l.IsNil() {
		return "<nil>"
	}
	var sb strings.Builder
	l.writeTo(&sb)
	return sb.String()
}

func (l *Literal) writeTo(sb *strings.Builder) {
	if l.IsTuple() {
		sb.WriteByte('(')
		for ii, element := range l.tuple {
			if ii > 0 {
				sb.WriteString(", ")
			}
			element.writeTo(sb)
		}
		sb.WriteByte(')')
		return
	}
	sb.WriteString(l.shape.HumanString())
	sb.WriteByte(' ')
	l.writeValues(sb, 0, make([]int, l.shape.Rank()))
}

// valuesString returns only the values part of String.
func (l *Literal) valuesString() string {
	var sb strings.Builder
	if l.IsTuple() {
		l.writeTo(&sb)
	} else {
		l.writeValues(&sb, 0, make([]int, l.shape.Rank()))
	}
	return sb.String()
}

func (l *Literal) writeValues(sb *strings.Builder, axis int, indices []int) {
	if axis == l.shape.Rank() {
		sb.WriteString(FormatValue(l.Value(indices...)))
		return
	}
	sb.WriteByte('{')
	for ii := range l.shape.Dimensions[axis] {
		if ii > 0 {
			sb.WriteString(", ")
		}
		indices[axis] = ii
		l.writeValues(sb, axis+1, indices)
	}
	sb.WriteByte('}')
}

// FormatValue formats a single element value the way Literal.String does.
func FormatValue(value any) string {
	switch v := value.(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float16.Float16:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
