package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ktane-tracker/tracker/internal/missions"
	"github.com/ktane-tracker/tracker/internal/practice"
)

// Tuning holds the scoring constants that are meant to be adjusted without a
// code change
type Tuning struct {
	Scoring  missions.Weights `yaml:"scoring"`
	Practice PracticeTuning   `yaml:"practice"`
}

// PracticeTuning shapes the age weighting of the practice generator
type PracticeTuning struct {
	AgeDecayExponent float64 `yaml:"age_decay_exponent"`
	AgeCutoffYears   float64 `yaml:"age_cutoff_years"`
}

// DefaultTuning returns the built-in constants
func DefaultTuning() Tuning {
	return Tuning{
		Scoring: missions.DefaultWeights,
		Practice: PracticeTuning{
			AgeDecayExponent: practice.DefaultAgeWeighting.Exponent,
			AgeCutoffYears:   7,
		},
	}
}

// LoadTuning reads a YAML tuning file. Keys missing from the file keep their
// default values.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	tuning := DefaultTuning()
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := tuning.Validate(); err != nil {
		return nil, err
	}

	return &tuning, nil
}

// Validate checks the weights and the decay parameters
func (t Tuning) Validate() error {
	if t.Scoring.Defuser < 0 || t.Scoring.Expert < 0 {
		return fmt.Errorf("scoring weights must not be negative")
	}
	if sum := t.Scoring.Defuser + t.Scoring.Expert; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1, got %g", sum)
	}
	if t.Practice.AgeDecayExponent <= 0 {
		return fmt.Errorf("age_decay_exponent must be positive")
	}
	if t.Practice.AgeCutoffYears <= 0 {
		return fmt.Errorf("age_cutoff_years must be positive")
	}
	return nil
}

// AgeWeighting converts the practice tuning into generator weights
func (t Tuning) AgeWeighting() practice.AgeWeighting {
	year := 365 * 24 * time.Hour
	return practice.AgeWeighting{
		Cutoff:   time.Duration(t.Practice.AgeCutoffYears * float64(year)),
		Exponent: t.Practice.AgeDecayExponent,
	}
}
