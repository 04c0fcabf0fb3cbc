package opt

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines parameters for stopping a run early once the best
// fitness stops improving.
type ConvergenceConfig struct {
	// Enabled controls whether convergence detection is active
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Patience is the number of generations with no significant improvement
	// before stopping
	Patience int `yaml:"patience" json:"patience"`

	// Threshold is the minimum relative improvement that counts as progress.
	// Relative improvement = (newBest - lastSignificant) / |lastSignificant|
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// DefaultConvergenceConfig returns sensible defaults for convergence detection
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  50,
		Threshold: 1e-4,
	}
}

// ConvergenceTracker tracks the best-fitness history of a run and detects when
// it has converged. Fitness is maximized.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	history         []float64
	best            float64
	lastSignificant float64 // Last best that was a significant improvement
	staleCount      int     // Generations without significant improvement
}

// NewConvergenceTracker creates a new convergence tracker with the given config
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		best:            math.Inf(-1),
		lastSignificant: math.Inf(-1),
	}
}

// Update records the best fitness of a generation and returns true if
// convergence is detected
func (c *ConvergenceTracker) Update(fitness float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, fitness)
	if fitness > c.best {
		c.best = fitness
	}

	if len(c.history) == 1 {
		c.lastSignificant = fitness
		return false
	}

	var relative float64
	switch {
	case c.lastSignificant != 0:
		relative = (fitness - c.lastSignificant) / math.Abs(c.lastSignificant)
	case fitness > 0:
		relative = math.Inf(1)
	}

	if relative >= c.config.Threshold {
		c.lastSignificant = fitness
		c.staleCount = 0
		return false
	}

	c.staleCount++
	slog.Debug("No significant fitness improvement",
		"fitness", fitness,
		"last_significant", c.lastSignificant,
		"relative_improvement", relative,
		"stale_count", c.staleCount,
		"patience", c.config.Patience,
	)

	if c.staleCount >= c.config.Patience {
		slog.Info("Convergence detected - stopping early",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_fitness", c.best,
		)
		return true
	}
	return false
}

// Best returns the best fitness seen so far
func (c *ConvergenceTracker) Best() float64 {
	return c.best
}

// History returns the full best-fitness history
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the current number of generations without improvement
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}
