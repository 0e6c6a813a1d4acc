package practice

import (
	"math"

	"github.com/ktane-tracker/tracker/internal/models"
)

// Band is one of the six difficulty buckets a practice bomb is built from
type Band int

const (
	BandTrivial Band = iota
	BandEasy
	BandMedium
	BandHard
	BandVeryHard
	BandExtreme

	bandCount
)

var bandNames = [bandCount]string{"Trivial", "Easy", "Medium", "Hard", "VeryHard", "Extreme"}

func (b Band) String() string {
	if b < 0 || b >= bandCount {
		return "unknown"
	}
	return bandNames[b]
}

// BandOf maps a module difficulty onto its band. VeryEasy shares the Trivial band.
func BandOf(d models.Difficulty) Band {
	switch d {
	case models.DifficultyTrivial, models.DifficultyVeryEasy:
		return BandTrivial
	case models.DifficultyEasy:
		return BandEasy
	case models.DifficultyMedium:
		return BandMedium
	case models.DifficultyHard:
		return BandHard
	case models.DifficultyVeryHard:
		return BandVeryHard
	case models.DifficultyExtreme:
		return BandExtreme
	}
	return BandTrivial
}

// InBand reports whether either side of the module falls in b
func InBand(m *models.Module, b Band) bool {
	return BandOf(m.DefuserDifficulty) == b || BandOf(m.ExpertDifficulty) == b
}

// Distribution is the fraction of a bomb drawn from each band; it sums to 1
type Distribution [bandCount]float64

const (
	MinLevel = 1
	MaxLevel = 10
)

// distributions is indexed by level-1
var distributions = [MaxLevel]Distribution{
	{0.60, 0.40, 0, 0, 0, 0},
	{0.30, 0.60, 0.10, 0, 0, 0},
	{0.10, 0.60, 0.30, 0, 0, 0},
	{0, 0.40, 0.50, 0.10, 0, 0},
	{0, 0.20, 0.60, 0.20, 0, 0},
	{0, 0.10, 0.50, 0.30, 0.10, 0},
	{0, 0, 0.30, 0.50, 0.20, 0},
	{0, 0, 0.10, 0.40, 0.40, 0.10},
	{0, 0, 0, 0.30, 0.50, 0.20},
	{0, 0, 0, 0.20, 0.50, 0.30},
}

// ClampLevel forces a requested difficulty into [MinLevel, MaxLevel]
func ClampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}

// DistributionFor returns the band weights of a level, clamping it first
func DistributionFor(level int) Distribution {
	return distributions[ClampLevel(level)-1]
}

// Counts is the number of modules drawn from each band
type Counts [bandCount]int

// Total sums all band counts
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// BandCounts converts a level's distribution into integer counts totalling
// size, then applies the hard per-level limits on Trivial and Extreme
func BandCounts(level, size int) Counts {
	level = ClampLevel(level)
	if size <= 0 {
		return Counts{}
	}

	weights := DistributionFor(level)
	var counts Counts
	for b, w := range weights {
		counts[b] = int(math.Round(w * float64(size)))
	}

	var locked [bandCount]bool
	Reconcile(&counts, weights, size, locked)

	switch level {
	case 1:
		counts[BandTrivial] = min(max(counts[BandTrivial], 1), 3)
		locked[BandTrivial] = true
	case 9:
		counts[BandExtreme] = min(counts[BandExtreme], 1)
		locked[BandExtreme] = true
	case 10:
		counts[BandExtreme] = 1
		locked[BandExtreme] = true
	}

	Reconcile(&counts, weights, size, locked)
	return counts
}

// Reconcile nudges rounded counts until they total size: a shortfall goes to
// the unlocked band with the largest weight, an excess is taken from the
// unlocked band with the smallest nonzero count. Locked bands never change.
func Reconcile(counts *Counts, weights Distribution, size int, locked [bandCount]bool) {
	for counts.Total() < size {
		b := largestWeight(weights, locked)
		if b < 0 {
			return
		}
		counts[b]++
	}

	for counts.Total() > size {
		b := smallestNonzero(*counts, locked)
		if b < 0 {
			return
		}
		counts[b]--
	}
}

func largestWeight(weights Distribution, locked [bandCount]bool) Band {
	best := Band(-1)
	for b := Band(0); b < bandCount; b++ {
		if locked[b] || weights[b] <= 0 {
			continue
		}
		if best < 0 || weights[b] > weights[best] {
			best = b
		}
	}
	return best
}

func smallestNonzero(counts Counts, locked [bandCount]bool) Band {
	best := Band(-1)
	for b := Band(0); b < bandCount; b++ {
		if locked[b] || counts[b] == 0 {
			continue
		}
		if best < 0 || counts[b] < counts[best] {
			best = b
		}
	}
	return best
}

// cappedBands lists bands whose count a level limits from above, so backfill
// should avoid adding more of them
func cappedBands(level int) [bandCount]bool {
	var capped [bandCount]bool
	switch ClampLevel(level) {
	case 1:
		capped[BandTrivial] = true
	case 9, 10:
		capped[BandExtreme] = true
	}
	return capped
}
