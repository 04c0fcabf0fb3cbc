package fit

import "math"

// PowerCurve maps a hub-height wind speed to turbine power output.
type PowerCurve interface {
	Power(speed float64) float64
}

// PowerCurveFunc adapts a plain function to PowerCurve.
type PowerCurveFunc func(speed float64) float64

func (f PowerCurveFunc) Power(speed float64) float64 { return f(speed) }

// GE 1.5 sle reference turbine.
const (
	CutInSpeed   = 2.0
	RatedSpeed   = 12.8
	CutOutSpeed  = 18.0
	RatedPower   = 629.1
	cubicScaling = 0.3
)

// GE15SLE is the piecewise power curve of the GE 1.5 sle turbine: zero below
// cut-in, cubic up to rated speed, flat rated power up to cut-out, zero above.
type GE15SLE struct{}

func (GE15SLE) Power(speed float64) float64 {
	switch {
	case speed >= CutInSpeed && speed < RatedSpeed:
		return cubicScaling * math.Pow(speed, 3)
	case speed >= RatedSpeed && speed <= CutOutSpeed:
		return RatedPower
	default:
		return 0
	}
}
