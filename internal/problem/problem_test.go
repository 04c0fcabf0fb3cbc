package problem

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		RotorRadius:       40,
		HubHeight:         100,
		RotorEfficiency:   0.9,
		ThrustCoefficient: 0.8,
		AirDensity:        1.225,
		SurfaceRoughness:  0.1,
		GridWidth:         200,
		Dimension:         10,
		Turbines:          5,
		Wind: []WindCondition{
			{Speed: 8, Angle: 0, Probability: 0.5},
			{Speed: 10, Angle: 90, Probability: 0.3},
			{Speed: 12, Angle: 0, Probability: 0.2},
		},
	}
}

func TestNewDerivesConstants(t *testing.T) {
	p, err := New(testParams())
	require.NoError(t, err)

	assert.Equal(t, 100, p.CellCount())
	assert.InDelta(t, 0.5/math.Log(1000), p.Entrainment(), 1e-15)
	assert.InDelta(t, 1-math.Sqrt(0.2), p.AxialInduction(), 1e-15)
}

func TestAngleIndexDeduplicates(t *testing.T) {
	p, err := New(testParams())
	require.NoError(t, err)

	assert.Equal(t, 2, p.AngleCount())
	assert.Equal(t, []float64{0, 90}, p.Angles())

	idx, ok := p.AngleIndex(90)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = p.AngleIndex(45)
	assert.False(t, ok)
}

func TestProblemIsImmutable(t *testing.T) {
	params := testParams()
	p, err := New(params)
	require.NoError(t, err)

	params.Wind[0].Speed = 99
	wind := p.Wind()
	wind[1].Speed = 99

	assert.Equal(t, 8.0, p.Wind()[0].Speed)
	assert.Equal(t, 10.0, p.Wind()[1].Speed)
}

func TestCellCenter(t *testing.T) {
	p, err := New(testParams())
	require.NoError(t, err)

	x, y := p.CellCenter(0)
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 100.0, y)

	x, y = p.CellCenter(23)
	assert.Equal(t, 700.0, x)
	assert.Equal(t, 500.0, y)
}

func TestNewRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"too many turbines", func(p *Params) { p.Turbines = 101 }, "numberOfTurbines"},
		{"empty climate", func(p *Params) { p.Wind = nil }, "windProfiles"},
		{"zero speed", func(p *Params) { p.Wind[1].Speed = 0 }, "windProfiles[1].speed"},
		{"negative probability", func(p *Params) { p.Wind[0].Probability = -0.1 }, "windProfiles[0].probability"},
		{"zero dimension", func(p *Params) { p.Dimension = 0 }, "dimension"},
		{"hub below roughness", func(p *Params) { p.HubHeight = 0.05 }, "hubHeight"},
		{"thrust out of range", func(p *Params) { p.ThrustCoefficient = 1.5 }, "thrustCoefficient"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams()
			tt.mutate(&params)

			_, err := New(params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, &ValidationError{}))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
