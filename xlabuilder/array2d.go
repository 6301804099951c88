package xlabuilder

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/xlatest/dtypes"
)

// Array2D is a host-side row-major 2D array, handy to build rank-2 literals in tests.
type Array2D[T dtypes.Supported] struct {
	rows, cols int
	data       []T
}

// NewArray2D creates a zero-filled rows x cols array.
func NewArray2D[T dtypes.Supported](rows, cols int) *Array2D[T] {
	if rows < 0 || cols < 0 {
		exceptions.Panicf("NewArray2D(%d, %d): dimensions cannot be negative", rows, cols)
	}
	return &Array2D[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}
}

// NewArray2DFromRows creates an array from a slice of rows. All rows must have the same length.
func NewArray2DFromRows[T dtypes.Supported](values [][]T) *Array2D[T] {
	rows := len(values)
	cols := 0
	if rows > 0 {
		cols = len(values[0])
	}
	a := NewArray2D[T](rows, cols)
	for row, rowValues := range values {
		if len(rowValues) != cols {
			exceptions.Panicf("NewArray2DFromRows: row %d has %d columns, expected %d", row, len(rowValues), cols)
		}
		copy(a.data[row*cols:], rowValues)
	}
	return a
}

// Rows returns the number of rows (first axis).
func (a *Array2D[T]) Rows() int { return a.rows }

// Cols returns the number of columns (second axis).
func (a *Array2D[T]) Cols() int { return a.cols }

// At returns the element at the given row and column.
func (a *Array2D[T]) At(row, col int) T {
	a.checkBounds(row, col)
	return a.data[row*a.cols+col]
}

// Set the element at the given row and column.
func (a *Array2D[T]) Set(row, col int, value T) {
	a.checkBounds(row, col)
	a.data[row*a.cols+col] = value
}

// Fill sets every element to value.
func (a *Array2D[T]) Fill(value T) {
	for ii := range a.data {
		a.data[ii] = value
	}
}

// Flat returns the underlying row-major data. It is owned by the array.
func (a *Array2D[T]) Flat() []T { return a.data }

func (a *Array2D[T]) checkBounds(row, col int) {
	if row < 0 || row >= a.rows || col < 0 || col >= a.cols {
		exceptions.Panicf("Array2D index (%d, %d) out-of-bounds for a %dx%d array", row, col, a.rows, a.cols)
	}
}

// NewLiteralFromArray2D creates a rank-2 literal (default layout) with a copy of the array contents.
func NewLiteralFromArray2D[T dtypes.Supported](a *Array2D[T]) (*Literal, error) {
	return NewArrayLiteral(a.data, a.rows, a.cols)
}

// NewLiteralFromArray2DWithLayout creates a rank-2 literal stored with the given layout.
func NewLiteralFromArray2DWithLayout[T dtypes.Supported](a *Array2D[T], layout Layout) (*Literal, error) {
	l, err := NewLiteralFromArray2D(a)
	if err != nil {
		return nil, err
	}
	return l.Relayout(layout)
}
