// Package wake implements the Jensen wake model: linear wake-cone expansion,
// rotor/wake overlap by circle intersection and sum-of-squares superposition of
// the deficits caused by several upwind turbines.
package wake

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/windlayout/internal/problem"
)

// ErrUnknownAngle is returned when a wind condition's angle is not part of the
// problem's climate.
var ErrUnknownAngle = errors.New("wind angle not in problem climate")

// Model computes the effective wind speed at a turbine.
type Model interface {
	EffectiveSpeed(cond problem.WindCondition, downwind int, upwind []int) (float64, error)
}

// Jensen is the Jensen wake model, optionally backed by a GeometryCache.
// It is read-only and safe for concurrent use.
type Jensen struct {
	problem *problem.Problem
	cache   *GeometryCache

	rotorRadius  float64
	entrainment  float64
	invRotorArea float64
}

// NewJensen builds the model and precomputes the tensors selected by policy.
func NewJensen(p *problem.Problem, policy Policy) *Jensen {
	return NewJensenWithCache(p, NewGeometryCache(p, policy))
}

// NewJensenWithCache reuses an existing cache built for the same problem.
func NewJensenWithCache(p *problem.Problem, cache *GeometryCache) *Jensen {
	r := p.RotorRadius()
	return &Jensen{
		problem:      p,
		cache:        cache,
		rotorRadius:  r,
		entrainment:  p.Entrainment(),
		invRotorArea: 1 / (math.Pi * r * r),
	}
}

// Problem returns the instance the model was built for.
func (j *Jensen) Problem() *problem.Problem { return j.problem }

// EffectiveSpeed returns the wind speed at the downwind cell after the wakes of
// all cells in upwind that actually lie upwind under cond. The downwind cell
// itself may appear in upwind; it is skipped like any other non-upwind cell.
func (j *Jensen) EffectiveSpeed(cond problem.WindCondition, downwind int, upwind []int) (float64, error) {
	angleIdx, ok := j.problem.AngleIndex(cond.Angle)
	if !ok {
		return 0, fmt.Errorf("%w: %g", ErrUnknownAngle, cond.Angle)
	}

	base := cond.Speed
	var sum float64

	for _, u := range upwind {
		var off Offset
		if j.cache.HasDistances() {
			off = j.cache.Offset(downwind, u, angleIdx)
		} else {
			off = rotatedOffset(j.problem, downwind, u, cond.Angle)
		}
		if off.Y <= 0 {
			continue
		}

		wakeRadius := j.rotorRadius + j.entrainment*off.Y
		ratio := j.rotorRadius / wakeRadius
		single := base * (1 - ratio*ratio*2/3)

		var area float64
		if j.cache.HasAreas() {
			area = j.cache.Area(downwind, u, angleIdx)
		} else {
			area = overlapArea(j.rotorRadius, wakeRadius, off.X)
		}

		deficit := 1 - single/base
		sum += deficit * deficit * (area * j.invRotorArea)
	}

	if sum == 0 {
		return base, nil
	}
	return math.Max(0, base*(1-math.Sqrt(sum))), nil
}
