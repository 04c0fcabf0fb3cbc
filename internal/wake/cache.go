package wake

import (
	"log/slog"
	"time"

	"github.com/cwbudde/windlayout/internal/problem"
)

// Policy selects which geometry tensors are precomputed.
type Policy struct {
	CacheDistances bool `yaml:"cacheDistances" json:"cacheDistances"`
	CacheAreas     bool `yaml:"cacheAreas" json:"cacheAreas"`
}

// FullCache enables both tensors.
func FullCache() Policy {
	return Policy{CacheDistances: true, CacheAreas: true}
}

// NoCache computes every quantity on demand.
func NoCache() Policy {
	return Policy{}
}

// GeometryCache holds precomputed rotated offsets and overlap areas for every
// (from cell, to cell, distinct angle) triple. It is read-only after construction.
type GeometryCache struct {
	cellCount  int
	angleCount int

	offsets []Offset  // nil unless Policy.CacheDistances
	areas   []float64 // nil unless Policy.CacheAreas
}

// NewGeometryCache builds the tensors enabled by policy. Memory and time are
// O(cellCount² × distinct angles) per enabled tensor.
func NewGeometryCache(p *problem.Problem, policy Policy) *GeometryCache {
	c := &GeometryCache{
		cellCount:  p.CellCount(),
		angleCount: p.AngleCount(),
	}
	if !policy.CacheDistances && !policy.CacheAreas {
		return c
	}

	start := time.Now()
	size := c.cellCount * c.cellCount * c.angleCount
	if policy.CacheDistances {
		c.offsets = make([]Offset, size)
	}
	if policy.CacheAreas {
		c.areas = make([]float64, size)
	}

	r := p.RotorRadius()
	k := p.Entrainment()
	angles := p.Angles()

	for from := 0; from < c.cellCount; from++ {
		for to := 0; to < c.cellCount; to++ {
			for a, angle := range angles {
				i := c.index(from, to, a)
				off := rotatedOffset(p, from, to, angle)
				if c.offsets != nil {
					c.offsets[i] = off
				}
				if c.areas != nil && off.Y > 0 {
					c.areas[i] = overlapArea(r, r+k*off.Y, off.X)
				}
			}
		}
	}

	slog.Debug("Geometry cache built",
		"cells", c.cellCount,
		"angles", c.angleCount,
		"distances", policy.CacheDistances,
		"areas", policy.CacheAreas,
		"elapsed", time.Since(start),
	)
	return c
}

func (c *GeometryCache) index(from, to, angleIdx int) int {
	return (from*c.cellCount+to)*c.angleCount + angleIdx
}

// HasDistances reports whether rotated offsets are cached.
func (c *GeometryCache) HasDistances() bool { return c != nil && c.offsets != nil }

// HasAreas reports whether overlap areas are cached.
func (c *GeometryCache) HasAreas() bool { return c != nil && c.areas != nil }

// Offset returns the cached rotated offset. Callers must check HasDistances.
func (c *GeometryCache) Offset(from, to, angleIdx int) Offset {
	return c.offsets[c.index(from, to, angleIdx)]
}

// Area returns the cached overlap area. Callers must check HasAreas.
func (c *GeometryCache) Area(from, to, angleIdx int) float64 {
	return c.areas[c.index(from, to, angleIdx)]
}
