package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/windlayout/internal/store"
)

func TestSelectRunsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{ID: "run1", FinishedAt: now.AddDate(0, 0, -10)}, // 10 days old
		{ID: "run2", FinishedAt: now.AddDate(0, 0, -5)},  // 5 days old
		{ID: "run3", FinishedAt: now.AddDate(0, 0, -1)},  // 1 day old
		{ID: "run4", FinishedAt: now.AddDate(0, 0, -30)}, // 30 days old
	}

	toDelete := selectRunsForDeletion(infos, 0, 7, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 runs to delete, got %d", len(toDelete))
	}
	if toDelete[0].ID != "run1" || toDelete[1].ID != "run4" {
		t.Errorf("Expected run1 and run4 to be selected, got %v", toDelete)
	}
}

func TestSelectRunsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{ID: "run1", FinishedAt: now.AddDate(0, 0, -10)},
		{ID: "run2", FinishedAt: now.AddDate(0, 0, -5)},
		{ID: "run3", FinishedAt: now.AddDate(0, 0, -1)},
		{ID: "run4", FinishedAt: now.AddDate(0, 0, -30)},
	}

	toDelete := selectRunsForDeletion(infos, 2, 0, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 runs to delete, got %d", len(toDelete))
	}
	// Oldest first
	if toDelete[0].ID != "run4" || toDelete[1].ID != "run1" {
		t.Errorf("Expected run4 and run1 to be selected, got %v", toDelete)
	}
}

func TestSelectRunsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{ID: "run1", FinishedAt: now.AddDate(0, 0, -10)},
		{ID: "run2", FinishedAt: now.AddDate(0, 0, -5)},
		{ID: "run3", FinishedAt: now.AddDate(0, 0, -1)},
	}

	// run1 is old and also outside the newest two; it must only appear once.
	toDelete := selectRunsForDeletion(infos, 2, 7, now)
	if len(toDelete) != 1 || toDelete[0].ID != "run1" {
		t.Errorf("Expected only run1, got %v", toDelete)
	}

	if got := selectRunsForDeletion(infos, 5, 0, now); len(got) != 0 {
		t.Errorf("Expected nothing to delete, got %v", got)
	}
}

func TestRenderGrid(t *testing.T) {
	got := renderGrid([]int{0, 4, 8}, 3)
	want := "X..\n.X.\n..X\n"
	if got != want {
		t.Errorf("renderGrid = %q, want %q", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug").String() != "DEBUG" {
		t.Error("debug level not parsed")
	}
	if parseLevel("bogus").String() != "INFO" {
		t.Error("unknown level should default to info")
	}
}

const testInstance = `{
  "rotorRadius": 40.0,
  "hubHeight": 100.0,
  "rotorEfficiency": 0.9,
  "thrustCoefficient": 0.8,
  "airDensity": 1.225,
  "surfaceRoughness": 0.1,
  "gridWidth": 200.0,
  "dimension": 5,
  "numberOfTurbines": 4,
  "windProfiles": [{ "speed": 12.0, "angle": 270, "probability": 1.0 }]
}`

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestRunAndManageRuns(t *testing.T) {
	dir := t.TempDir()
	problemFile := filepath.Join(dir, "instance.json")
	if err := os.WriteFile(problemFile, []byte(testInstance), 0644); err != nil {
		t.Fatal(err)
	}
	data := filepath.Join(dir, "data")

	out := execute(t, "run",
		"--problem", problemFile,
		"--algorithm", "de",
		"--pop", "8",
		"--generations", "5",
		"--seed", "3",
		"--store", "fs",
		"--data-dir", data,
		"--trace",
	)
	if !strings.Contains(out, "efficiency") {
		t.Errorf("run output missing summary:\n%s", out)
	}

	fs, err := store.NewFSStore(data)
	if err != nil {
		t.Fatal(err)
	}
	infos, err := fs.ListRuns(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Fatalf("Expected 1 stored run, got %d", len(infos))
	}
	id := infos[0].ID
	if infos[0].Algorithm != "de" || infos[0].Seed != 3 || infos[0].Generations != 5 {
		t.Errorf("Unexpected stored run: %+v", infos[0])
	}

	tr, err := store.NewTraceReader(data, id)
	if err != nil {
		t.Fatalf("Trace not written: %v", err)
	}
	entries, err := tr.ReadAll()
	tr.Close()
	if err != nil || len(entries) != 5 {
		t.Errorf("Expected 5 trace entries, got %d (%v)", len(entries), err)
	}

	out = execute(t, "runs", "list", "--store", "fs", "--data-dir", data)
	if !strings.Contains(out, "Total runs: 1") {
		t.Errorf("runs list output unexpected:\n%s", out)
	}

	out = execute(t, "runs", "show", id, "--store", "fs", "--data-dir", data)
	if !strings.Contains(out, id) {
		t.Errorf("runs show output missing run ID:\n%s", out)
	}

	execute(t, "runs", "delete", id, "--store", "fs", "--data-dir", data)
	infos, err = fs.ListRuns(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected no runs after delete, got %d", len(infos))
	}
}

func TestExperimentCommand(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "instance.json"), []byte(testInstance), 0644); err != nil {
		t.Fatal(err)
	}
	expFile := filepath.Join(dir, "exp.yaml")
	exp := `name: cli
runs: 2
seed: 5
problem: instance.json
algorithms:
  - algorithm: de
    populationSize: 8
    termination: {type: generation, maxGenerations: 3}
  - algorithm: lshade
    populationSize: 10
    termination: {type: generation, maxGenerations: 3}
`
	if err := os.WriteFile(expFile, []byte(exp), 0644); err != nil {
		t.Fatal(err)
	}
	data := filepath.Join(dir, "data")

	out := execute(t, "experiment", "--config", expFile, "--store", "sqlite", "--data-dir", data)
	if !strings.Contains(out, "Experiment cli") || !strings.Contains(out, "lshade") {
		t.Errorf("experiment output unexpected:\n%s", out)
	}

	out = execute(t, "runs", "list", "--store", "sqlite", "--data-dir", data)
	if !strings.Contains(out, "Total runs: 4") {
		t.Errorf("Expected 4 stored runs:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	if !strings.Contains(out, "windlayout version") {
		t.Errorf("unexpected version output: %q", out)
	}
}
