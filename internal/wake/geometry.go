package wake

import (
	"math"

	"github.com/cwbudde/windlayout/internal/problem"
)

// Offset is a relative cell offset in the wind-aligned frame. Y runs along the
// wind: a positive Y means the other turbine sits upwind.
type Offset struct {
	X, Y float64
}

// rotatedOffset returns the center delta (to - from) rotated by angle degrees.
func rotatedOffset(p *problem.Problem, from, to int, angle float64) Offset {
	x1, y1 := p.CellCenter(from)
	x2, y2 := p.CellCenter(to)
	dx := x2 - x1
	dy := y2 - y1

	sin, cos := math.Sincos(angle * math.Pi / 180)
	return Offset{
		X: dx*cos - dy*sin,
		Y: dx*sin + dy*cos,
	}
}

// overlapArea returns the area of the rotor disk of radius r covered by the wake
// of radius wakeRadius whose axis is at lateral distance |dx| from the rotor center.
// Callers only pass downstream positions, so wakeRadius >= r. Every partial
// overlap uses the exact lens area, so powers for |dx| < sqrt(R²-r²) differ
// from models that switch to a separate approximation in that band.
func overlapArea(r, wakeRadius, dx float64) float64 {
	R := wakeRadius
	d := math.Abs(dx)

	switch {
	case d <= math.Abs(R-r):
		return math.Pi * r * r
	case d < R+r:
		beta, gamma := lensAngles(R, r, d)
		return R*R*beta + r*r*gamma - R*d*math.Sin(beta)
	default:
		return 0
	}
}

// lensAngles returns the half angles subtended by the chord of two intersecting
// circles, seen from the wake (beta) and rotor (gamma) centers. d > 0 here
// because d == 0 always falls into the containment case.
func lensAngles(R, r, d float64) (beta, gamma float64) {
	beta = math.Acos(clampUnit((R*R + d*d - r*r) / (2 * R * d)))
	gamma = math.Acos(clampUnit((r*r + d*d - R*R) / (2 * r * d)))
	return beta, gamma
}

// clampUnit keeps rounding noise from pushing an acos argument out of [-1, 1].
func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
