package xlabuilder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Layout describes how the logical elements of an array are ordered in memory.
//
// MinorToMajor lists the axes from the fastest varying (minor) to the slowest varying (major) one.
// An empty (nil) MinorToMajor means the default row-major layout, {rank-1, ..., 1, 0}.
//
// Layouts are only meaningful for arrays: tuples don't have a layout of their own.
type Layout struct {
	MinorToMajor []int
}

// MakeLayout returns a Layout with the given minor-to-major axes order.
func MakeLayout(minorToMajor ...int) Layout {
	return Layout{MinorToMajor: slices.Clone(minorToMajor)}
}

// DefaultLayout returns the row-major layout for the given rank: {rank-1, ..., 1, 0}.
func DefaultLayout(rank int) Layout {
	m2m := make([]int, rank)
	for ii := range m2m {
		m2m[ii] = rank - 1 - ii
	}
	return Layout{MinorToMajor: m2m}
}

// IsEmpty returns whether the layout is unset, which is interpreted as the default layout.
func (l Layout) IsEmpty() bool {
	return l.MinorToMajor == nil
}

// Validate checks that the layout is a permutation of {0, ..., rank-1}.
// An empty layout is always valid.
func (l Layout) Validate(rank int) error {
	if l.IsEmpty() {
		return nil
	}
	if len(l.MinorToMajor) != rank {
		return errors.Errorf("layout %s has %d axes, but shape has rank %d", l, len(l.MinorToMajor), rank)
	}
	seen := make([]bool, rank)
	for _, axis := range l.MinorToMajor {
		if axis < 0 || axis >= rank {
			return errors.Errorf("layout %s refers to axis %d, out-of-range for rank %d", l, axis, rank)
		}
		if seen[axis] {
			return errors.Errorf("layout %s repeats axis %d", l, axis)
		}
		seen[axis] = true
	}
	return nil
}

// Equal compares two layouts for the given rank, resolving empty layouts to the default one.
func (l Layout) Equal(other Layout, rank int) bool {
	return slices.Equal(l.resolve(rank).MinorToMajor, other.resolve(rank).MinorToMajor)
}

// resolve returns the layout itself, or the default layout of the rank if it is empty.
func (l Layout) resolve(rank int) Layout {
	if l.IsEmpty() {
		return DefaultLayout(rank)
	}
	return l
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	if l.IsEmpty() {
		return Layout{}
	}
	return MakeLayout(l.MinorToMajor...)
}

// String implements fmt.Stringer, using XLA's notation, e.g.: "{1,0}".
func (l Layout) String() string {
	parts := make([]string, len(l.MinorToMajor))
	for ii, axis := range l.MinorToMajor {
		parts[ii] = fmt.Sprint(axis)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// stridesFor returns the distance, in elements, between consecutive indices of each axis when stored with the
// given layout.
func stridesFor(dimensions []int, layout Layout) []int {
	rank := len(dimensions)
	strides := make([]int, rank)
	layout = layout.resolve(rank)
	stride := 1
	for _, axis := range layout.MinorToMajor {
		strides[axis] = stride
		stride *= dimensions[axis]
	}
	return strides
}
