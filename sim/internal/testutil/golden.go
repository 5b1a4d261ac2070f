// Package testutil provides shared test infrastructure for the pricing
// engine. It consolidates the golden scenario dataset and float assertion
// helpers used across sim/ and its sub-package test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Cases []GoldenCase `json:"cases"`
}

// GoldenCase is a single European-option scenario. The expected price is not
// stored: it is the closed-form Black-Scholes value, which the consuming test
// computes, so the dataset stays valid under engine-internal changes that
// preserve correctness.
type GoldenCase struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"` // "call" or "put"
	Spot     float64 `json:"spot"`
	Strike   float64 `json:"strike"`
	Rate     float64 `json:"rate"`
	Vol      float64 `json:"vol"`
	Maturity float64 `json:"maturity"`
	Paths    int     `json:"paths"`
	Steps    int     `json:"steps"`
	Seed     uint64  `json:"seed"`

	// StdErrMultiple bounds |mc - analytic| as a multiple of the run's own
	// reported standard error.
	StdErrMultiple float64 `json:"stderr_multiple"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertWithinStdErr bounds |want - got| by a multiple of the Monte Carlo
// run's own reported standard error.
func AssertWithinStdErr(t *testing.T, name string, want, got, stdErr, multiple float64) {
	t.Helper()
	diff := math.Abs(want - got)
	if diff > multiple*stdErr {
		t.Errorf("%s: got %v, want %v (diff=%v exceeds %v x stderr %v)",
			name, got, want, diff, multiple, stdErr)
	}
}
