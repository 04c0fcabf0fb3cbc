// Package problem describes a wind-farm layout problem instance: the site grid,
// the turbine physics and the wind climate. A Problem is immutable once built
// and can be shared by any number of evaluators and optimizer runs.
package problem

import (
	"fmt"
	"math"
)

// WindCondition is one entry of the wind climate.
type WindCondition struct {
	Speed       float64 `yaml:"speed" json:"speed"`             // m/s, > 0
	Angle       float64 `yaml:"angle" json:"angle"`             // degrees
	Probability float64 `yaml:"probability" json:"probability"` // occurrence weight
}

// Params holds the raw construction parameters of a problem instance.
// Field names follow the JSON instance files used by the experiment scripts.
type Params struct {
	RotorRadius       float64         `yaml:"rotorRadius" json:"rotorRadius"`
	HubHeight         float64         `yaml:"hubHeight" json:"hubHeight"`
	RotorEfficiency   float64         `yaml:"rotorEfficiency" json:"rotorEfficiency"`
	ThrustCoefficient float64         `yaml:"thrustCoefficient" json:"thrustCoefficient"`
	AirDensity        float64         `yaml:"airDensity" json:"airDensity"`
	SurfaceRoughness  float64         `yaml:"surfaceRoughness" json:"surfaceRoughness"`
	GridWidth         float64         `yaml:"gridWidth" json:"gridWidth"`
	Dimension         int             `yaml:"dimension" json:"dimension"`
	Turbines          int             `yaml:"numberOfTurbines" json:"numberOfTurbines"`
	Wind              []WindCondition `yaml:"windProfiles" json:"windProfiles"`
}

// Problem is a validated, immutable problem instance.
type Problem struct {
	params Params

	cellCount      int
	entrainment    float64
	axialInduction float64

	angles     []float64
	angleIndex map[float64]int
}

// New validates params and derives the fixed quantities of the instance.
// The wind slice is copied, so later changes to params do not leak in.
func New(params Params) (*Problem, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	p := &Problem{
		params:         params,
		cellCount:      params.Dimension * params.Dimension,
		entrainment:    0.5 / math.Log(params.HubHeight/params.SurfaceRoughness),
		axialInduction: 1 - math.Sqrt(1-params.ThrustCoefficient),
		angleIndex:     make(map[float64]int),
	}
	p.params.Wind = append([]WindCondition(nil), params.Wind...)

	for _, w := range p.params.Wind {
		if _, ok := p.angleIndex[w.Angle]; ok {
			continue
		}
		p.angleIndex[w.Angle] = len(p.angles)
		p.angles = append(p.angles, w.Angle)
	}

	return p, nil
}

// Validate checks the parameters without building a Problem.
func (p Params) Validate() error {
	switch {
	case p.RotorRadius <= 0:
		return &ValidationError{Field: "rotorRadius", Reason: "must be positive"}
	case p.SurfaceRoughness <= 0:
		return &ValidationError{Field: "surfaceRoughness", Reason: "must be positive"}
	case p.HubHeight <= p.SurfaceRoughness:
		return &ValidationError{Field: "hubHeight", Reason: "must exceed surfaceRoughness"}
	case p.ThrustCoefficient < 0 || p.ThrustCoefficient > 1:
		return &ValidationError{Field: "thrustCoefficient", Reason: "must be in [0, 1]"}
	case p.GridWidth <= 0:
		return &ValidationError{Field: "gridWidth", Reason: "must be positive"}
	case p.Dimension <= 0:
		return &ValidationError{Field: "dimension", Reason: "must be positive"}
	case p.Turbines <= 0:
		return &ValidationError{Field: "numberOfTurbines", Reason: "must be positive"}
	case p.Turbines > p.Dimension*p.Dimension:
		return &ValidationError{
			Field:  "numberOfTurbines",
			Reason: fmt.Sprintf("%d exceeds grid cell count %d", p.Turbines, p.Dimension*p.Dimension),
		}
	case len(p.Wind) == 0:
		return &ValidationError{Field: "windProfiles", Reason: "cannot be empty"}
	}

	for i, w := range p.Wind {
		if !(w.Speed > 0) || math.IsInf(w.Speed, 0) {
			return &ValidationError{
				Field:  fmt.Sprintf("windProfiles[%d].speed", i),
				Reason: "must be positive and finite",
			}
		}
		if !(w.Probability >= 0) || math.IsInf(w.Probability, 0) {
			return &ValidationError{
				Field:  fmt.Sprintf("windProfiles[%d].probability", i),
				Reason: "must be non-negative and finite",
			}
		}
		if math.IsNaN(w.Angle) || math.IsInf(w.Angle, 0) {
			return &ValidationError{
				Field:  fmt.Sprintf("windProfiles[%d].angle", i),
				Reason: "must be finite",
			}
		}
	}
	return nil
}

func (p *Problem) RotorRadius() float64       { return p.params.RotorRadius }
func (p *Problem) HubHeight() float64         { return p.params.HubHeight }
func (p *Problem) RotorEfficiency() float64   { return p.params.RotorEfficiency }
func (p *Problem) ThrustCoefficient() float64 { return p.params.ThrustCoefficient }
func (p *Problem) AirDensity() float64        { return p.params.AirDensity }
func (p *Problem) SurfaceRoughness() float64  { return p.params.SurfaceRoughness }
func (p *Problem) GridWidth() float64         { return p.params.GridWidth }
func (p *Problem) Dimension() int             { return p.params.Dimension }
func (p *Problem) Turbines() int              { return p.params.Turbines }
func (p *Problem) CellCount() int             { return p.cellCount }

// Entrainment is the wake expansion rate 0.5 / ln(hubHeight / surfaceRoughness).
func (p *Problem) Entrainment() float64 { return p.entrainment }

// AxialInduction is 1 - sqrt(1 - thrustCoefficient).
func (p *Problem) AxialInduction() float64 { return p.axialInduction }

// Wind returns a copy of the wind climate in configuration order.
func (p *Problem) Wind() []WindCondition {
	return append([]WindCondition(nil), p.params.Wind...)
}

// Params returns a copy of the construction parameters.
func (p *Problem) Params() Params {
	out := p.params
	out.Wind = p.Wind()
	return out
}

// AngleCount is the number of distinct wind angles in the climate.
func (p *Problem) AngleCount() int { return len(p.angles) }

// Angles returns the distinct angles in index order.
func (p *Problem) Angles() []float64 {
	return append([]float64(nil), p.angles...)
}

// AngleIndex maps a wind angle to its distinct-angle index.
func (p *Problem) AngleIndex(angle float64) (int, bool) {
	idx, ok := p.angleIndex[angle]
	return idx, ok
}

// CellCenter returns the metric coordinates of the center of a grid cell.
func (p *Problem) CellCenter(cell int) (x, y float64) {
	n := p.params.Dimension
	w := p.params.GridWidth
	col := cell % n
	row := cell / n
	return (float64(col) + 0.5) * w, (float64(row) + 0.5) * w
}
