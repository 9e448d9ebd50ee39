// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned by constructors when a capacity, dimension or other
// compile-time tunable is out of range. It aborts initialization; nothing is allocated.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Dim3 is a three component unsigned extent or coordinate, used for cluster grid
// dimensions, workgroup sizes, dispatch sizes and invocation IDs alike.
type Dim3 [3]uint32

// Count returns the number of cells spanned by the extent (x * y * z).
func (d Dim3) Count() uint32 {
	return d[0] * d[1] * d[2]
}

// Index flattens a coordinate inside the extent d into a row-major index with X varying
// fastest: x + X*(y + Y*z).
//
// Parameters:
//   - c: the coordinate to flatten (each component must be < the matching extent)
//
// Returns:
//   - uint32: the flat index
func (d Dim3) Index(c Dim3) uint32 {
	return c[0] + d[0]*(c[1]+d[1]*c[2])
}

// Coord expands a flat index produced by Index back into a coordinate inside d.
func (d Dim3) Coord(i uint32) Dim3 {
	x := i % d[0]
	i /= d[0]
	return Dim3{x, i % d[1], i / d[1]}
}

// Contains reports whether the coordinate c lies inside the extent d.
func (d Dim3) Contains(c Dim3) bool {
	return c[0] < d[0] && c[1] < d[1] && c[2] < d[2]
}

// Workgroups returns the per-axis workgroup count needed to cover d with groups of the
// given size, i.e. ceil(d / size) per axis.
//
// Parameters:
//   - size: the workgroup size (every component must be non-zero)
//
// Returns:
//   - Dim3: the dispatch size
func (d Dim3) Workgroups(size Dim3) Dim3 {
	return Dim3{CeilDiv(d[0], size[0]), CeilDiv(d[1], size[1]), CeilDiv(d[2], size[2])}
}

// ValidateDim returns ErrInvalidConfiguration when any component of the signed extent
// is not strictly positive, and converts it to a Dim3 otherwise.
//
// Parameters:
//   - name: the tunable being validated, used in the error message
//   - d: the extent to validate
//
// Returns:
//   - Dim3: the validated extent
//   - error: a wrapped ErrInvalidConfiguration if a component is <= 0
func ValidateDim(name string, d [3]int) (Dim3, error) {
	for i, v := range d {
		if v <= 0 {
			return Dim3{}, fmt.Errorf("%s[%d] = %d must be > 0: %w", name, i, v, ErrInvalidConfiguration)
		}
	}
	return Dim3{uint32(d[0]), uint32(d[1]), uint32(d[2])}, nil
}
