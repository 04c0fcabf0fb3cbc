package opt

import (
	"fmt"
	"math"
)

// Discretize maps a real position vector to a collision-free layout. Each
// coordinate is floored and clamped into [0, cellCount); a coordinate landing on
// an occupied cell probes forward, wrapping around, to the next free cell.
// Collisions resolve in vector order, so permuting the vector can change the
// resulting cell set.
//
// Discretize panics if the vector has more coordinates than the grid has cells.
func Discretize(vector []float64, cellCount int) []int {
	if len(vector) > cellCount {
		panic(fmt.Sprintf("cannot place %d turbines on %d cells", len(vector), cellCount))
	}

	layout := make([]int, len(vector))
	occupied := make([]bool, cellCount)

	for i, v := range vector {
		cell := floorCell(v, cellCount)
		for occupied[cell] {
			cell = (cell + 1) % cellCount
		}
		occupied[cell] = true
		layout[i] = cell
	}
	return layout
}

// floorCell clamps in float space first; converting an out-of-range float to
// int is implementation-defined.
func floorCell(v float64, cellCount int) int {
	f := math.Floor(v)
	switch {
	case !(f >= 0):
		return 0
	case f > float64(cellCount-1):
		return cellCount - 1
	default:
		return int(f)
	}
}

// upperMargin keeps clamped coordinates strictly below cellCount.
const upperMargin = 1e-9

// EnforceBounds clamps a position vector into [0, cellCount) in place. NaN
// coordinates become 0, the cell Discretize would pick for them.
func EnforceBounds(vector []float64, cellCount int) {
	hi := float64(cellCount) - upperMargin
	for i, v := range vector {
		if v < 0 || math.IsNaN(v) {
			vector[i] = 0
		} else if v >= float64(cellCount) {
			vector[i] = hi
		}
	}
}
