package opt

import (
	"log/slog"
	"math"
	"math/rand"
	"slices"
)

// Success-history defaults.
const (
	MemorySize        = 5
	initialMemoryMean = 0.5
	samplingScale     = 0.1
)

// Success records the control parameters of a trial that beat its parent and
// the fitness it gained.
type Success struct {
	F, CR float64
	Gain  float64
}

// Memory is the success-history memory of LSHADE: a ring of remembered (F, CR)
// means. The slot pointer only moves on generations with at least one success.
type Memory struct {
	f, cr []float64
	pos   int
}

// NewMemory returns a memory of size slots, every slot at 0.5.
func NewMemory(size int) *Memory {
	m := &Memory{
		f:  make([]float64, size),
		cr: make([]float64, size),
	}
	for i := range m.f {
		m.f[i] = initialMemoryMean
		m.cr[i] = initialMemoryMean
	}
	return m
}

// Sample draws per-individual control parameters around a random slot:
// F from a Cauchy distribution (redrawn until positive, capped at 1) and CR
// from a normal distribution clamped into [0, 1].
func (m *Memory) Sample(rng *rand.Rand) (f, cr float64) {
	r := rng.Intn(len(m.f))

	for {
		f = m.f[r] + samplingScale*math.Tan(math.Pi*(rng.Float64()-0.5))
		if f > 0 {
			break
		}
	}
	f = math.Min(f, 1)

	cr = m.cr[r] + samplingScale*rng.NormFloat64()
	cr = math.Max(0, math.Min(1, cr))
	return f, cr
}

// Update writes the gain-weighted Lehmer mean of the successful F values and
// the gain-weighted arithmetic mean of their CR values into the current slot,
// then advances the pointer. It returns false and changes nothing when there
// were no successes.
func (m *Memory) Update(successes []Success) bool {
	if len(successes) == 0 {
		return false
	}

	var totalGain float64
	for _, s := range successes {
		totalGain += s.Gain
	}
	if !(totalGain > 0) {
		return false
	}

	var sumF2, sumF, sumCR float64
	for _, s := range successes {
		w := s.Gain / totalGain
		sumF2 += w * s.F * s.F
		sumF += w * s.F
		sumCR += w * s.CR
	}

	m.f[m.pos] = sumF2 / sumF
	m.cr[m.pos] = sumCR
	slog.Debug("Adaptation memory updated",
		"slot", m.pos,
		"f", m.f[m.pos],
		"cr", m.cr[m.pos],
		"successes", len(successes),
	)
	m.pos = (m.pos + 1) % len(m.f)
	return true
}

// F returns a copy of the remembered F means.
func (m *Memory) F() []float64 { return slices.Clone(m.f) }

// CR returns a copy of the remembered CR means.
func (m *Memory) CR() []float64 { return slices.Clone(m.cr) }

// Position is the slot the next update writes.
func (m *Memory) Position() int { return m.pos }

// MinPopulationSize is the floor of the linear population reduction.
const MinPopulationSize = 4

// TargetPopulationSize implements linear population size reduction:
// max(minSize, floor(minSize + (maxSize-minSize)*(1-progress))). progress is
// clamped into [0, 1].
func TargetPopulationSize(minSize, maxSize int, progress float64) int {
	progress = math.Max(0, math.Min(1, progress))
	size := int(math.Floor(float64(minSize) + float64(maxSize-minSize)*(1-progress)))
	return max(minSize, size)
}
