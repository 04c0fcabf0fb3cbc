package opt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationLimit(t *testing.T) {
	g := NewGenerationLimit(4)
	g.OnStart()

	assert.False(t, g.ShouldTerminate())
	assert.Equal(t, 0.0, g.Progress().Fraction)

	g.OnGeneration(1)
	p := g.Progress()
	assert.Equal(t, 0.25, p.Fraction)
	assert.Equal(t, "Generations", p.Label)
	assert.Equal(t, int64(1), p.Current)
	assert.Equal(t, int64(4), p.Max)

	g.OnGeneration(4)
	assert.True(t, g.ShouldTerminate())
	assert.Equal(t, 1.0, g.Progress().Fraction)
}

func TestTimeLimitUsesClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tl := NewTimeLimit(10 * time.Second).WithClock(clock)
	tl.OnStart()
	assert.False(t, tl.ShouldTerminate())

	now = now.Add(2500 * time.Millisecond)
	p := tl.Progress()
	assert.InDelta(t, 0.25, p.Fraction, 1e-12)
	assert.Equal(t, "Time", p.Label)
	assert.Equal(t, int64(2500), p.Current)
	assert.Equal(t, int64(10000), p.Max)
	assert.False(t, tl.ShouldTerminate())

	now = now.Add(20 * time.Second)
	assert.True(t, tl.ShouldTerminate())
	assert.Equal(t, 1.0, tl.Progress().Fraction)
}

func TestTerminationConfigBuildsFreshConditions(t *testing.T) {
	cfg := Generations(3)

	first, err := cfg.New()
	require.NoError(t, err)
	first.OnStart()
	first.OnGeneration(3)
	require.True(t, first.ShouldTerminate())

	second, err := cfg.New()
	require.NoError(t, err)
	second.OnStart()
	assert.False(t, second.ShouldTerminate())

	timed, err := Duration(time.Minute).New()
	require.NoError(t, err)
	assert.IsType(t, &TimeLimit{}, timed)
}

func TestTerminationConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   TerminationConfig
		field string
	}{
		{"unknown type", TerminationConfig{Type: "forever"}, "termination.type"},
		{"zero generations", TerminationConfig{Type: TerminationGeneration}, "termination.maxGenerations"},
		{"zero duration", TerminationConfig{Type: TerminationTime}, "termination.durationMillis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, &ValidationError{}))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
