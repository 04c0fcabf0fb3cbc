package opt

import (
	"fmt"
	"math"
)

// Algorithm names accepted by Config.
const (
	AlgorithmDE     = "de"
	AlgorithmLSHADE = "lshade"
	AlgorithmFODE   = "fode"
	AlgorithmMayfly = "mayfly"
)

// Default pbest rates for current-to-pbest style mutations.
const (
	LSHADEPBestRate = 0.2
	FODEPBestRate   = 0.11
)

// ValidationError reports an invalid optimizer setting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid optimizer config: " + e.Field + " " + e.Reason
}

// Is makes errors.Is(err, &ValidationError{}) match any validation error.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// Config selects and parameterizes an optimizer. Zero MinPopulationSize and
// PBestRate fall back to the algorithm defaults.
type Config struct {
	Algorithm         string            `yaml:"algorithm" json:"algorithm"`
	PopulationSize    int               `yaml:"populationSize" json:"populationSize"`
	MinPopulationSize int               `yaml:"minPopulationSize,omitempty" json:"minPopulationSize,omitempty"`
	F                 float64           `yaml:"f,omitempty" json:"f,omitempty"`
	CR                float64           `yaml:"cr,omitempty" json:"cr,omitempty"`
	PBestRate         float64           `yaml:"pbestRate,omitempty" json:"pbestRate,omitempty"`
	Seed              int64             `yaml:"seed" json:"seed"`
	Workers           int               `yaml:"workers,omitempty" json:"workers,omitempty"`
	Termination       TerminationConfig `yaml:"termination" json:"termination"`
	Convergence       ConvergenceConfig `yaml:"convergence,omitempty" json:"convergence,omitempty"`
}

// DefaultConfig returns a runnable configuration for the named algorithm.
func DefaultConfig(algorithm string) Config {
	cfg := Config{
		Algorithm:      algorithm,
		PopulationSize: 50,
		F:              0.5,
		CR:             0.9,
		Seed:           1,
		Termination:    Generations(500),
	}
	switch algorithm {
	case AlgorithmLSHADE:
		cfg.PopulationSize = 100
		cfg.PBestRate = LSHADEPBestRate
	case AlgorithmFODE:
		cfg.PopulationSize = 100
		cfg.PBestRate = FODEPBestRate
	case AlgorithmMayfly:
		cfg.PopulationSize = mayflyMinPopulation
	}
	return cfg
}

func (c Config) minPopulationSize() int {
	if c.MinPopulationSize == 0 {
		return MinPopulationSize
	}
	return c.MinPopulationSize
}

func (c Config) pbestRate() float64 {
	if c.PBestRate != 0 {
		return c.PBestRate
	}
	if c.Algorithm == AlgorithmFODE {
		return FODEPBestRate
	}
	return LSHADEPBestRate
}

// Validate checks the settings relevant to the selected algorithm.
func (c Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmDE:
		if c.PopulationSize < 4 {
			return &ValidationError{Field: "populationSize", Reason: "must be at least 4"}
		}
		if !(c.F > 0) || math.IsInf(c.F, 0) {
			return &ValidationError{Field: "f", Reason: "must be positive"}
		}
		if !(c.CR >= 0 && c.CR <= 1) {
			return &ValidationError{Field: "cr", Reason: "must be in [0, 1]"}
		}
	case AlgorithmLSHADE, AlgorithmFODE:
		minSize := c.minPopulationSize()
		if minSize < MinPopulationSize {
			return &ValidationError{Field: "minPopulationSize", Reason: fmt.Sprintf("must be at least %d", MinPopulationSize)}
		}
		if c.PopulationSize < minSize {
			return &ValidationError{Field: "populationSize", Reason: fmt.Sprintf("must be at least minPopulationSize (%d)", minSize)}
		}
		if !(c.PBestRate >= 0 && c.PBestRate <= 1) {
			return &ValidationError{Field: "pbestRate", Reason: "must be in [0, 1]"}
		}
	case AlgorithmMayfly:
		if c.PopulationSize < mayflyMinPopulation {
			return &ValidationError{Field: "populationSize", Reason: fmt.Sprintf("must be at least %d for mayfly", mayflyMinPopulation)}
		}
		if c.Termination.Type != TerminationGeneration {
			return &ValidationError{Field: "termination.type", Reason: "mayfly only supports generation termination"}
		}
	default:
		return &ValidationError{Field: "algorithm", Reason: fmt.Sprintf("unknown algorithm %q", c.Algorithm)}
	}

	if c.Workers < 0 {
		return &ValidationError{Field: "workers", Reason: "must not be negative"}
	}
	if c.Convergence.Enabled && c.Convergence.Patience <= 0 {
		return &ValidationError{Field: "convergence.patience", Reason: "must be positive when convergence is enabled"}
	}
	return c.Termination.Validate()
}

// New builds the optimizer selected by cfg.Algorithm.
func New(cfg Config) (Optimizer, error) {
	switch cfg.Algorithm {
	case AlgorithmDE:
		return NewDE(cfg)
	case AlgorithmLSHADE:
		return NewLSHADE(cfg)
	case AlgorithmFODE:
		return NewFODE(cfg)
	case AlgorithmMayfly:
		return NewMayfly(cfg)
	default:
		return nil, &ValidationError{Field: "algorithm", Reason: fmt.Sprintf("unknown algorithm %q", cfg.Algorithm)}
	}
}
