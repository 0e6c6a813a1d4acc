package practice

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/ktane-tracker/tracker/internal/models"
)

// AgeWeighting favours older modules when sampling
type AgeWeighting struct {
	// Cutoff is the age from which a module gets full weight
	Cutoff time.Duration
	// Exponent shapes how fast weight falls off for newer modules
	Exponent float64
}

// DefaultAgeWeighting gives full weight at seven years and decays cubically
var DefaultAgeWeighting = AgeWeighting{
	Cutoff:   7 * 365 * 24 * time.Hour,
	Exponent: 3,
}

// Weight returns the sampling weight of a module published at published.
// Unpublished or unknown dates count as old.
func (a AgeWeighting) Weight(published *time.Time, now time.Time) float64 {
	if published == nil || a.Cutoff <= 0 {
		return 1
	}
	age := now.Sub(*published)
	if age >= a.Cutoff {
		return 1
	}
	if age <= 0 {
		return 0
	}
	return math.Pow(float64(age)/float64(a.Cutoff), a.Exponent)
}

// sampleUniform picks n distinct items uniformly at random
func sampleUniform(rng *rand.Rand, items []*models.Module, n int) []*models.Module {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	shuffled := slices.Clone(items)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:min(n, len(shuffled))]
}

// sampleWeighted picks n distinct items with probability proportional to
// weight using exponential keys: each item draws u^(1/w) and the n largest
// keys win. Items with zero weight are only picked once all others are.
func sampleWeighted(rng *rand.Rand, items []*models.Module, weight func(*models.Module) float64, n int) []*models.Module {
	if n <= 0 || len(items) == 0 {
		return nil
	}

	type keyed struct {
		module *models.Module
		key    float64
	}
	// Shuffled first so equal keys, such as all-zero weights, tie randomly
	shuffled := slices.Clone(items)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	keys := make([]keyed, len(shuffled))
	for i, m := range shuffled {
		w := weight(m)
		key := 0.0
		if w > 0 {
			key = math.Pow(rng.Float64(), 1/w)
		}
		keys[i] = keyed{module: m, key: key}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int {
		switch {
		case a.key > b.key:
			return -1
		case a.key < b.key:
			return 1
		}
		return 0
	})

	picked := make([]*models.Module, 0, min(n, len(keys)))
	for _, k := range keys[:min(n, len(keys))] {
		picked = append(picked, k.module)
	}
	return picked
}
