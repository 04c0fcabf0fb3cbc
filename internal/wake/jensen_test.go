package wake

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/windlayout/internal/problem"
)

func newTestProblem(t *testing.T, dimension, turbines int, wind ...problem.WindCondition) *problem.Problem {
	t.Helper()

	p, err := problem.New(problem.Params{
		RotorRadius:       40,
		HubHeight:         100,
		RotorEfficiency:   0.9,
		ThrustCoefficient: 0.8,
		AirDensity:        1.225,
		SurfaceRoughness:  0.1,
		GridWidth:         200,
		Dimension:         dimension,
		Turbines:          turbines,
		Wind:              wind,
	})
	require.NoError(t, err)
	return p
}

func TestOverlapAreaCases(t *testing.T) {
	r := 40.0
	R := 60.0
	disk := math.Pi * r * r

	assert.Equal(t, disk, overlapArea(r, R, 0), "concentric")
	assert.Equal(t, disk, overlapArea(r, R, 20), "touching inside")
	assert.Equal(t, 0.0, overlapArea(r, R, 100), "touching outside")
	assert.Equal(t, 0.0, overlapArea(r, R, 500), "far away")

	partial := overlapArea(r, R, 50)
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, disk)
}

func TestOverlapAreaStaysFiniteAndBounded(t *testing.T) {
	r := 40.0
	disk := math.Pi * r * r

	for _, R := range []float64{40, 40.0000001, 45, 60, 120, 400} {
		for d := 0.0; d <= R+r+10; d += 0.25 {
			a := overlapArea(r, R, d)
			require.False(t, math.IsNaN(a) || math.IsInf(a, 0), "R=%g d=%g", R, d)
			assert.GreaterOrEqual(t, a, 0.0, "R=%g d=%g", R, d)
			assert.LessOrEqual(t, a, disk+1e-9, "R=%g d=%g", R, d)
		}
	}
}

func TestOverlapAreaShrinksWithDistance(t *testing.T) {
	r, R := 40.0, 70.0
	prev := overlapArea(r, R, 0)
	for d := 0.5; d < R+r; d += 0.5 {
		a := overlapArea(r, R, d)
		assert.LessOrEqual(t, a, prev+1e-6, "d=%g", d)
		prev = a
	}
}

func TestRotatedOffsetAtZeroDegrees(t *testing.T) {
	p := newTestProblem(t, 10, 2, problem.WindCondition{Speed: 10, Angle: 0, Probability: 1})

	off := rotatedOffset(p, 0, 10, 0)
	assert.Equal(t, 0.0, off.X)
	assert.Equal(t, 200.0, off.Y)

	off = rotatedOffset(p, 0, 3, 0)
	assert.Equal(t, 600.0, off.X)
	assert.Equal(t, 0.0, off.Y)
}

func TestEffectiveSpeedWithoutUpwindTurbines(t *testing.T) {
	cond := problem.WindCondition{Speed: 9.5, Angle: 0, Probability: 1}
	p := newTestProblem(t, 10, 3, cond)
	model := NewJensen(p, NoCache())

	speed, err := model.EffectiveSpeed(cond, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 9.5, speed)

	// Same-row turbines and the turbine itself are not upwind at 0 degrees.
	speed, err = model.EffectiveSpeed(cond, 0, []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 9.5, speed)
}

func TestEffectiveSpeedSingleAlignedWake(t *testing.T) {
	cond := problem.WindCondition{Speed: 12, Angle: 0, Probability: 1}
	p := newTestProblem(t, 10, 2, cond)
	model := NewJensen(p, NoCache())

	speed, err := model.EffectiveSpeed(cond, 0, []int{0, 10})
	require.NoError(t, err)

	wakeRadius := 40 + p.Entrainment()*200
	ratio := 40 / wakeRadius
	deficit := ratio * ratio * 2 / 3
	assert.InDelta(t, 12*(1-deficit), speed, 1e-12)

	// The upwind turbine itself sees the free stream.
	speed, err = model.EffectiveSpeed(cond, 10, []int{0, 10})
	require.NoError(t, err)
	assert.Equal(t, 12.0, speed)
}

func TestEffectiveSpeedUnknownAngle(t *testing.T) {
	p := newTestProblem(t, 5, 2, problem.WindCondition{Speed: 10, Angle: 0, Probability: 1})
	model := NewJensen(p, FullCache())

	_, err := model.EffectiveSpeed(problem.WindCondition{Speed: 10, Angle: 45}, 0, []int{1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAngle))
}

func TestCachePoliciesAgree(t *testing.T) {
	wind := []problem.WindCondition{
		{Speed: 8, Angle: 0, Probability: 0.4},
		{Speed: 10, Angle: 90, Probability: 0.3},
		{Speed: 11, Angle: 225, Probability: 0.2},
		{Speed: 13, Angle: 90, Probability: 0.1},
	}
	p := newTestProblem(t, 6, 6, wind...)

	policies := []Policy{
		NoCache(),
		{CacheDistances: true},
		{CacheAreas: true},
		FullCache(),
	}
	models := make([]*Jensen, len(policies))
	for i, policy := range policies {
		models[i] = NewJensen(p, policy)
	}

	layout := []int{0, 7, 14, 21, 28, 35}
	for _, cond := range wind {
		for _, turbine := range layout {
			want, err := models[0].EffectiveSpeed(cond, turbine, layout)
			require.NoError(t, err)
			require.GreaterOrEqual(t, want, 0.0)

			for i := 1; i < len(models); i++ {
				got, err := models[i].EffectiveSpeed(cond, turbine, layout)
				require.NoError(t, err)
				assert.InDelta(t, want, got, 1e-12, "policy %+v", policies[i])
			}
		}
	}
}

func TestGeometryCacheFlags(t *testing.T) {
	p := newTestProblem(t, 4, 2, problem.WindCondition{Speed: 10, Angle: 30, Probability: 1})

	none := NewGeometryCache(p, NoCache())
	assert.False(t, none.HasDistances())
	assert.False(t, none.HasAreas())

	areas := NewGeometryCache(p, Policy{CacheAreas: true})
	assert.False(t, areas.HasDistances())
	assert.True(t, areas.HasAreas())

	full := NewGeometryCache(p, FullCache())
	off := full.Offset(0, 5, 0)
	assert.Equal(t, rotatedOffset(p, 0, 5, 30), off)
	if off.Y > 0 {
		r := p.RotorRadius()
		assert.Equal(t, overlapArea(r, r+p.Entrainment()*off.Y, off.X), full.Area(0, 5, 0))
	}
}
