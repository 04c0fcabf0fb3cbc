package opt

import (
	"log/slog"
	"sync"
	"time"
)

// ConvergencePoint is one sample of a convergence curve.
type ConvergencePoint struct {
	Iteration      int     `json:"iteration"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	BestFitness    float64 `json:"bestFitness"`
	AverageFitness float64 `json:"averageFitness"`
}

// ConvergenceRecorder collects the best fitness of every generation. Elapsed
// time is measured from the first event it receives.
type ConvergenceRecorder struct {
	mu     sync.Mutex
	start  time.Time
	points []ConvergencePoint
}

func NewConvergenceRecorder() *ConvergenceRecorder {
	return &ConvergenceRecorder{}
}

func (r *ConvergenceRecorder) OnGeneration(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.start.IsZero() {
		r.start = time.Now()
	}
	r.points = append(r.points, ConvergencePoint{
		Iteration:      event.Iteration,
		ElapsedSeconds: time.Since(r.start).Seconds(),
		BestFitness:    event.BestFitness,
		AverageFitness: event.AverageFitness,
	})
}

// Points returns a copy of the recorded curve.
func (r *ConvergenceRecorder) Points() []ConvergencePoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ConvergencePoint(nil), r.points...)
}

// LogListener reports progress through slog every Every generations.
type LogListener struct {
	Logger *slog.Logger
	Every  int
}

func (l LogListener) OnGeneration(event ProgressEvent) {
	every := max(1, l.Every)
	if event.Iteration%every != 0 {
		return
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		"iteration", event.Iteration,
		"best_fitness", event.BestFitness,
		"average_fitness", event.AverageFitness,
		"progress_label", event.Progress.Label,
		"progress_current", event.Progress.Current,
	}
	if event.PowerWithoutWake > 0 {
		attrs = append(attrs, "efficiency", event.BestFitness/event.PowerWithoutWake)
	}
	if event.Progress.Fraction >= 0 {
		attrs = append(attrs, "progress", event.Progress.Fraction)
	}
	logger.Info("Generation complete", attrs...)
}
