// Package practice generates practice bombs of a requested difficulty from the
// module catalog.
package practice

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/ktane-tracker/tracker/internal/models"
)

// Request describes the bomb to generate
type Request struct {
	BombSize        int
	Difficulty      int
	PrioritizeOlder bool
	AllowNeedy      bool
	AllowBoss       bool
}

// Generator builds practice bombs. It holds no mutable state and is safe for
// concurrent use; every call draws from its own random source.
type Generator struct {
	age     AgeWeighting
	now     func() time.Time
	newRand func() *rand.Rand
}

// Option configures a Generator
type Option func(*Generator)

// WithAgeWeighting overrides the age-based sampling weights
func WithAgeWeighting(a AgeWeighting) Option {
	return func(g *Generator) {
		g.age = a
	}
}

// WithClock sets the time source used for module ages
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithRandSource sets the factory for per-call random sources
func WithRandSource(newRand func() *rand.Rand) Option {
	return func(g *Generator) {
		g.newRand = newRand
	}
}

// NewGenerator creates a generator with default weighting and fresh randomness
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		age: DefaultAgeWeighting,
		now: time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate returns up to req.BombSize distinct modules ordered from easiest to
// hardest. The result is shorter than requested only when fewer usable
// modules exist; that is not an error.
func (g *Generator) Generate(modules []models.Module, scores []models.ModuleScore, req Request) []models.Module {
	if req.BombSize <= 0 {
		return []models.Module{}
	}
	level := ClampLevel(req.Difficulty)

	usable := usableModules(modules, scores, req)
	counts := BandCounts(level, req.BombSize)

	rng := g.newRand()
	now := g.now()
	weight := func(m *models.Module) float64 { return g.age.Weight(m.Published, now) }

	draw := func(pool []*models.Module, n int) []*models.Module {
		if req.PrioritizeOlder {
			return sampleWeighted(rng, pool, weight, n)
		}
		return sampleUniform(rng, pool, n)
	}

	capped := cappedBands(level)
	chosen := make(map[string]bool, req.BombSize)
	picked := make([]*models.Module, 0, req.BombSize)
	deficit := 0

	for b := Band(0); b < bandCount; b++ {
		want := counts[b]
		if want == 0 {
			continue
		}

		// A module rated into a capped band on its other side would push that
		// band over its limit, so it is only drawn when nothing else is left
		others := capped
		others[b] = false

		var pool, fallback []*models.Module
		for _, m := range usable {
			if chosen[m.ModuleID] || !InBand(m, b) {
				continue
			}
			if inAnyBand(m, others) {
				fallback = append(fallback, m)
			} else {
				pool = append(pool, m)
			}
		}

		selected := draw(pool, want)
		if rest := want - len(selected); rest > 0 {
			selected = append(selected, draw(fallback, rest)...)
		}

		for _, m := range selected {
			chosen[m.ModuleID] = true
			picked = append(picked, m)
		}
		deficit += want - len(selected)
	}

	if deficit > 0 {
		picked = append(picked, backfill(rng, usable, chosen, capped, deficit)...)
	}

	result := make([]models.Module, 0, len(picked))
	for _, m := range picked {
		result = append(result, *m)
	}
	slices.SortStableFunc(result, func(a, b models.Module) int {
		return a.CombinedRank() - b.CombinedRank()
	})
	return result
}

// usableModules drops needy and boss modules unless allowed, and every module
// the user marked as Avoid on either side
func usableModules(modules []models.Module, scores []models.ModuleScore, req Request) []*models.Module {
	avoid := make(map[string]bool)
	for i := range scores {
		if scores[i].Avoids() {
			avoid[scores[i].ModuleID] = true
		}
	}

	usable := make([]*models.Module, 0, len(modules))
	seen := make(map[string]bool, len(modules))
	for i := range modules {
		m := &modules[i]
		if seen[m.ModuleID] || avoid[m.ModuleID] {
			continue
		}
		if m.IsNeedy() && !req.AllowNeedy {
			continue
		}
		if m.IsFullBoss() && !req.AllowBoss {
			continue
		}
		seen[m.ModuleID] = true
		usable = append(usable, m)
	}
	return usable
}

// backfill fills n slots uniformly from unchosen usable modules, taking
// modules from capped bands only when nothing else is left
func backfill(rng *rand.Rand, usable []*models.Module, chosen map[string]bool, capped [bandCount]bool, n int) []*models.Module {
	var preferred, fallback []*models.Module
	for _, m := range usable {
		if chosen[m.ModuleID] {
			continue
		}
		if inAnyBand(m, capped) {
			fallback = append(fallback, m)
		} else {
			preferred = append(preferred, m)
		}
	}

	picked := sampleUniform(rng, preferred, n)
	if rest := n - len(picked); rest > 0 {
		picked = append(picked, sampleUniform(rng, fallback, rest)...)
	}
	for _, m := range picked {
		chosen[m.ModuleID] = true
	}
	return picked
}

func inAnyBand(m *models.Module, bands [bandCount]bool) bool {
	for b := Band(0); b < bandCount; b++ {
		if bands[b] && InBand(m, b) {
			return true
		}
	}
	return false
}
