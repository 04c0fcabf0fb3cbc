// Package config loads problem instances, optimizer settings and experiment
// definitions from YAML or JSON files. JSON documents are valid YAML, so the
// instance files produced by the benchmark scripts load unchanged.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/windlayout/internal/experiment"
	"github.com/cwbudde/windlayout/internal/opt"
	"github.com/cwbudde/windlayout/internal/problem"
	"github.com/cwbudde/windlayout/internal/wake"
)

// LoadParams reads raw problem parameters without validating them.
func LoadParams(path string) (problem.Params, error) {
	var params problem.Params
	if err := decodeFile(path, &params); err != nil {
		return problem.Params{}, err
	}
	return params, nil
}

// LoadProblem reads and validates a problem instance.
func LoadProblem(path string) (*problem.Problem, error) {
	params, err := LoadParams(path)
	if err != nil {
		return nil, err
	}
	p, err := problem.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadAlgorithm reads optimizer settings. Fields missing from the file keep
// the defaults of the named algorithm.
func LoadAlgorithm(path string) (opt.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return opt.Config{}, fmt.Errorf("reading algorithm file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return opt.Config{}, fmt.Errorf("parsing algorithm file %s: %w", path, err)
	}
	if doc.Kind == 0 {
		return opt.Config{}, fmt.Errorf("parsing algorithm file %s: empty document", path)
	}

	cfg, err := decodeAlgorithm(&doc)
	if err != nil {
		return opt.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// experimentFile mirrors experiment.Config but keeps algorithm entries raw so
// each one can be layered over its own defaults.
type experimentFile struct {
	Name       string       `yaml:"name"`
	Runs       int          `yaml:"runs"`
	Seed       int64        `yaml:"seed"`
	Problem    string       `yaml:"problem"`
	Cache      *wake.Policy `yaml:"cache"`
	Algorithms []yaml.Node  `yaml:"algorithms"`
}

// LoadExperiment reads an experiment definition. A relative problem path is
// resolved against the directory of the experiment file; the geometry cache
// defaults to fully enabled.
func LoadExperiment(path string) (*experiment.Config, error) {
	var raw experimentFile
	if err := decodeFile(path, &raw); err != nil {
		return nil, err
	}

	cfg := &experiment.Config{
		Name:    raw.Name,
		Runs:    raw.Runs,
		Seed:    raw.Seed,
		Problem: raw.Problem,
		Cache:   wake.FullCache(),
	}
	if raw.Cache != nil {
		cfg.Cache = *raw.Cache
	}
	if cfg.Problem != "" && !filepath.IsAbs(cfg.Problem) {
		cfg.Problem = filepath.Join(filepath.Dir(path), cfg.Problem)
	}

	for i := range raw.Algorithms {
		a, err := decodeAlgorithm(&raw.Algorithms[i])
		if err != nil {
			return nil, fmt.Errorf("%s: algorithms[%d]: %w", path, i, err)
		}
		cfg.Algorithms = append(cfg.Algorithms, a)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeAlgorithm(node *yaml.Node) (opt.Config, error) {
	var head struct {
		Algorithm string `yaml:"algorithm"`
	}
	if err := node.Decode(&head); err != nil {
		return opt.Config{}, fmt.Errorf("parsing algorithm: %w", err)
	}
	if head.Algorithm == "" {
		return opt.Config{}, fmt.Errorf("algorithm name is required")
	}

	cfg := opt.DefaultConfig(head.Algorithm)
	if err := node.Decode(&cfg); err != nil {
		return opt.Config{}, fmt.Errorf("parsing algorithm %s: %w", head.Algorithm, err)
	}
	if err := cfg.Validate(); err != nil {
		return opt.Config{}, err
	}
	return cfg, nil
}

// decodeFile strictly decodes a YAML or JSON file; unknown fields are errors.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("parsing config file %s: empty document", path)
		}
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
