// Package missions scores the mission catalog against a simulated team and
// applies the mission browser's sorting and filters.
package missions

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/ktane-tracker/tracker/internal/models"
)

// Filter defaults. A range left at its default is inactive.
const (
	FirstMissionYear = 2015

	DefaultMinDifficulty = 0
	DefaultMaxDifficulty = 30

	DefaultMinModuleCount = 47
	DefaultMaxModuleCount = 200

	DefaultMinPossibleModules = 47
	DefaultMaxPossibleModules = 300
)

// DefaultFilters returns a filter panel that lets every mission through
func DefaultFilters(currentYear int) models.FilterSpec {
	return models.FilterSpec{
		DifficultyRange:          models.Range{DefaultMinDifficulty, DefaultMaxDifficulty},
		DateRange:                models.Range{FirstMissionYear, float64(currentYear)},
		ShowFactorySequence:      true,
		ShowFactoryStatic:        true,
		ShowFactoryNone:          true,
		ModuleCountRange:         models.Range{DefaultMinModuleCount, DefaultMaxModuleCount},
		PossibleModuleCountRange: models.Range{DefaultMinPossibleModules, DefaultMaxPossibleModules},
		FavesFilter:              models.FavesAll,
		KnownPercentRange:        models.Range{0, 100},
	}
}

// DefaultSort lists the newest missions first
var DefaultSort = models.Sort{Key: models.SortDateAdded, Order: models.OrderDesc}

// Query bundles everything Apply needs besides the catalog and the team
type Query struct {
	Filters models.FilterSpec
	Sort    models.Sort
	Weights Weights

	// HasViewer is false for anonymous requests; the favourites filter is
	// then inactive since no mission can be a favourite.
	HasViewer bool

	// CurrentYear bounds the default date range; zero means the current year
	CurrentYear int
}

// NewQuery returns a query with default filters, sort and weights
func NewQuery() Query {
	year := time.Now().Year()
	return Query{
		Filters:     DefaultFilters(year),
		Sort:        DefaultSort,
		Weights:     DefaultWeights,
		CurrentYear: year,
	}
}

// entry carries a mission through the pipeline with its unique module ids
type entry struct {
	mission models.Mission
	unique  []string
}

// Apply scores, sorts and filters missions for the given team. The input slice
// is left untouched; the returned missions are copies.
func Apply(missions []models.Mission, team []models.TeamMember, q Query) []models.Mission {
	year := q.CurrentYear
	if year == 0 {
		year = time.Now().Year()
	}
	defaults := DefaultFilters(year)
	f := q.Filters

	entries := make([]entry, len(missions))
	for i := range missions {
		entries[i] = entry{mission: missions[i], unique: missions[i].UniqueModuleIDs()}
		entries[i].mission.KnownPercentage = nil
	}

	knownActive := f.KnownPercentRange != defaults.KnownPercentRange
	scored := len(team) > 0 && (q.Sort.Key == models.SortKnownModules || knownActive)
	if scored {
		indexed := indexTeam(team)
		for i := range entries {
			known := knownPercentage(entries[i].unique, indexed, q.Weights)
			entries[i].mission.KnownPercentage = &known
		}
	}

	sortEntries(entries, q.Sort)

	preds := buildPredicates(f, defaults, scored && knownActive, q.HasViewer)

	result := make([]models.Mission, 0, len(entries))
	for i := range entries {
		if matchesAll(&entries[i], preds) {
			result = append(result, entries[i].mission)
		}
	}
	return result
}

func sortEntries(entries []entry, s models.Sort) {
	var compare func(a, b *entry) int
	switch s.Key {
	case models.SortKnownModules:
		compare = func(a, b *entry) int { return cmp.Compare(a.mission.Known(), b.mission.Known()) }
	case models.SortDifficulty:
		compare = func(a, b *entry) int {
			return cmp.Compare(a.mission.DifficultyValue(), b.mission.DifficultyValue())
		}
	case models.SortMissionName:
		compare = func(a, b *entry) int { return strings.Compare(a.mission.MissionName, b.mission.MissionName) }
	case models.SortDateAdded:
		compare = func(a, b *entry) int { return a.mission.AddedAt().Compare(b.mission.AddedAt()) }
	default:
		return
	}

	desc := s.Order == models.OrderDesc
	slices.SortStableFunc(entries, func(a, b entry) int {
		c := compare(&a, &b)
		if desc {
			return -c
		}
		return c
	})
}

type predicate func(e *entry) bool

func matchesAll(e *entry, preds []predicate) bool {
	for _, p := range preds {
		if !p(e) {
			return false
		}
	}
	return true
}

// buildPredicates turns every active filter into a predicate
func buildPredicates(f, defaults models.FilterSpec, knownActive, hasViewer bool) []predicate {
	var preds []predicate

	if f.DifficultyRange != defaults.DifficultyRange {
		r := f.DifficultyRange
		preds = append(preds, func(e *entry) bool { return r.Contains(e.mission.DifficultyValue()) })
	}

	if f.DateRange != defaults.DateRange {
		r := f.DateRange
		preds = append(preds, func(e *entry) bool { return r.Contains(float64(e.mission.AddedAt().Year())) })
	}

	if !(f.ShowFactorySequence && f.ShowFactoryStatic && f.ShowFactoryNone) {
		preds = append(preds, func(e *entry) bool {
			switch e.mission.Factory {
			case models.FactorySequence:
				return f.ShowFactorySequence
			case models.FactoryStatic:
				return f.ShowFactoryStatic
			default:
				return f.ShowFactoryNone
			}
		})
	}

	if f.ModuleCountRange != defaults.ModuleCountRange {
		r := f.ModuleCountRange
		preds = append(preds, func(e *entry) bool { return r.Contains(float64(e.mission.ModuleCount())) })
	}

	if f.PossibleModuleCountRange != defaults.PossibleModuleCountRange {
		r := f.PossibleModuleCountRange
		preds = append(preds, func(e *entry) bool { return r.Contains(float64(len(e.unique))) })
	}

	if terms := searchTerms(f.ModuleSearch); len(terms) > 0 {
		preds = append(preds, func(e *entry) bool {
			haystack := strings.ToLower(strings.Join(e.unique, " "))
			for _, term := range terms {
				if !strings.Contains(haystack, term) {
					return false
				}
			}
			return true
		})
	}

	if hasViewer {
		switch f.FavesFilter {
		case models.FavesOnlyFaves:
			preds = append(preds, func(e *entry) bool { return e.mission.IsFavourite })
		case models.FavesNoFaves:
			preds = append(preds, func(e *entry) bool { return !e.mission.IsFavourite })
		}
	}

	if knownActive {
		r := f.KnownPercentRange
		preds = append(preds, func(e *entry) bool { return r.Contains(e.mission.Known() * 100) })
	}

	return preds
}

// searchTerms splits a comma-separated search into trimmed lowercase terms
func searchTerms(search string) []string {
	var terms []string
	for _, t := range strings.Split(search, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
