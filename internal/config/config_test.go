package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/windlayout/internal/opt"
	"github.com/cwbudde/windlayout/internal/problem"
	"github.com/cwbudde/windlayout/internal/wake"
)

const instanceJSON = `{
  "rotorRadius": 40.0,
  "hubHeight": 100.0,
  "rotorEfficiency": 0.9,
  "thrustCoefficient": 0.8,
  "airDensity": 1.225,
  "surfaceRoughness": 0.1,
  "gridWidth": 200.0,
  "dimension": 10,
  "numberOfTurbines": 20,
  "windProfiles": [
    { "speed": 12.0, "angle": 270, "probability": 0.75 },
    { "speed": 8.0, "angle": 0, "probability": 0.25 }
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadProblemFromInstanceJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wf_dim10_turb20.json", instanceJSON)

	p, err := LoadProblem(path)
	require.NoError(t, err)

	assert.Equal(t, 40.0, p.RotorRadius())
	assert.Equal(t, 10, p.Dimension())
	assert.Equal(t, 20, p.Turbines())
	assert.Equal(t, 100, p.CellCount())
	require.Len(t, p.Wind(), 2)
	assert.Equal(t, problem.WindCondition{Speed: 12, Angle: 270, Probability: 0.75}, p.Wind()[0])
}

func TestLoadProblemFromYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "site.yaml", `
rotorRadius: 38.5
hubHeight: 80
rotorEfficiency: 0.4
thrustCoefficient: 0.88
airDensity: 1.2
surfaceRoughness: 0.3
gridWidth: 154
dimension: 5
numberOfTurbines: 4
windProfiles:
  - {speed: 10, angle: 45, probability: 1}
`)
	p, err := LoadProblem(path)
	require.NoError(t, err)
	assert.Equal(t, 25, p.CellCount())
	assert.Equal(t, 1, p.AngleCount())
}

func TestLoadProblemErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadProblem(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	unknown := writeFile(t, dir, "typo.yaml", "rotorRadios: 40\n")
	_, err = LoadProblem(unknown)
	assert.ErrorContains(t, err, "rotorRadios")

	empty := writeFile(t, dir, "empty.yaml", "")
	_, err = LoadProblem(empty)
	assert.ErrorContains(t, err, "empty document")

	invalid := writeFile(t, dir, "invalid.json", `{"rotorRadius": -1, "dimension": 2, "numberOfTurbines": 1}`)
	_, err = LoadProblem(invalid)
	assert.True(t, errors.Is(err, &problem.ValidationError{}))
	assert.ErrorContains(t, err, invalid)
}

func TestLoadAlgorithmLayersOverDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "lshade.json", `{
  "algorithm": "lshade",
  "populationSize": 60,
  "termination": {"type": "time", "durationMillis": 5000}
}`)

	cfg, err := LoadAlgorithm(path)
	require.NoError(t, err)

	want := opt.DefaultConfig(opt.AlgorithmLSHADE)
	assert.Equal(t, opt.AlgorithmLSHADE, cfg.Algorithm)
	assert.Equal(t, 60, cfg.PopulationSize)
	assert.Equal(t, want.PBestRate, cfg.PBestRate)
	assert.Equal(t, want.Seed, cfg.Seed)
	assert.Equal(t, opt.TerminationTime, cfg.Termination.Type)
	assert.Equal(t, int64(5000), cfg.Termination.DurationMillis)
}

func TestLoadAlgorithmErrors(t *testing.T) {
	dir := t.TempDir()

	noName := writeFile(t, dir, "noname.yaml", "populationSize: 10\n")
	_, err := LoadAlgorithm(noName)
	assert.ErrorContains(t, err, "algorithm name is required")

	bad := writeFile(t, dir, "bad.yaml", "algorithm: de\nf: 0\npopulationSize: 2\n")
	_, err = LoadAlgorithm(bad)
	assert.ErrorIs(t, err, &opt.ValidationError{})

	empty := writeFile(t, dir, "empty.yaml", "")
	_, err = LoadAlgorithm(empty)
	assert.ErrorContains(t, err, "empty document")
}

func TestLoadExperiment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "instance.json", instanceJSON)
	path := writeFile(t, dir, "compare.yaml", `
name: compare
runs: 5
seed: 100
problem: instance.json
cache:
  cacheDistances: true
  cacheAreas: false
algorithms:
  - algorithm: de
    f: 0.7
    cr: 0.3
  - algorithm: fode
    termination: {type: generation, maxGenerations: 50}
`)

	cfg, err := LoadExperiment(path)
	require.NoError(t, err)

	assert.Equal(t, "compare", cfg.Name)
	assert.Equal(t, 5, cfg.Runs)
	assert.Equal(t, int64(100), cfg.Seed)
	assert.Equal(t, filepath.Join(dir, "instance.json"), cfg.Problem)
	assert.Equal(t, wake.Policy{CacheDistances: true}, cfg.Cache)

	require.Len(t, cfg.Algorithms, 2)
	assert.Equal(t, 0.7, cfg.Algorithms[0].F)
	assert.Equal(t, 0.3, cfg.Algorithms[0].CR)
	assert.Equal(t, opt.DefaultConfig(opt.AlgorithmDE).PopulationSize, cfg.Algorithms[0].PopulationSize)
	assert.Equal(t, opt.FODEPBestRate, cfg.Algorithms[1].PBestRate)
	assert.Equal(t, 50, cfg.Algorithms[1].Termination.MaxGenerations)

	_, err = LoadProblem(cfg.Problem)
	assert.NoError(t, err)
}

func TestLoadExperimentDefaultsToFullCache(t *testing.T) {
	path := writeFile(t, t.TempDir(), "exp.yaml", `
name: defaults
runs: 1
problem: /abs/instance.json
algorithms:
  - algorithm: lshade
`)
	cfg, err := LoadExperiment(path)
	require.NoError(t, err)
	assert.Equal(t, wake.FullCache(), cfg.Cache)
	assert.Equal(t, "/abs/instance.json", cfg.Problem)
}

func TestLoadExperimentErrors(t *testing.T) {
	dir := t.TempDir()

	noRuns := writeFile(t, dir, "noruns.yaml", "name: x\nproblem: p.json\nalgorithms:\n  - algorithm: de\n")
	_, err := LoadExperiment(noRuns)
	assert.ErrorContains(t, err, "runs must be positive")

	badAlg := writeFile(t, dir, "badalg.yaml", "name: x\nruns: 1\nproblem: p.json\nalgorithms:\n  - algorithm: pso\n")
	_, err = LoadExperiment(badAlg)
	assert.ErrorContains(t, err, "algorithms[0]")
	assert.ErrorIs(t, err, &opt.ValidationError{})

	unknown := writeFile(t, dir, "unknown.yaml", "name: x\nrepeats: 3\n")
	_, err = LoadExperiment(unknown)
	assert.ErrorContains(t, err, "repeats")
}
