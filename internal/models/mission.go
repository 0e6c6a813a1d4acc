package models

import "time"

// Factory describes how a mission's bombs are delivered
type Factory string

const (
	FactoryNone     Factory = ""
	FactorySequence Factory = "Sequence"
	FactoryStatic   Factory = "Static"
)

// Pool is a set of candidate modules from which Count are drawn per bomb.
// Duplicate ids in Modules weight the random draw.
type Pool struct {
	Modules []string `json:"modules"`
	Count   int      `json:"count"`
}

// Bomb is one bomb of a mission
type Bomb struct {
	Modules int    `json:"modules"`
	Time    int    `json:"time"`    // seconds
	Strikes int    `json:"strikes"`
	Pools   []Pool `json:"pools"`
}

// Mission is a community-built bomb configuration
type Mission struct {
	ID          int        `json:"id"`
	PackName    string     `json:"pack_name"`
	MissionName string     `json:"mission_name"`
	Authors     []string   `json:"authors"`
	DateAdded   *time.Time `json:"date_added,omitempty"`
	Factory     Factory    `json:"factory,omitempty"`
	Difficulty  *float64   `json:"difficulty,omitempty"`
	Bombs       []Bomb     `json:"bombs"`

	// Derived per request, never persisted
	KnownPercentage *float64 `json:"known_percentage,omitempty"`
	IsFavourite     bool     `json:"is_favourite"`
}

// UniqueModuleIDs returns every module id referenced by the mission's pools,
// deduplicated, in first-occurrence order
func (m *Mission) UniqueModuleIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, bomb := range m.Bombs {
		for _, pool := range bomb.Pools {
			for _, id := range pool.Modules {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// ModuleCount sums the module slots of every bomb
func (m *Mission) ModuleCount() int {
	total := 0
	for _, bomb := range m.Bombs {
		total += bomb.Modules
	}
	return total
}

// DifficultyValue returns the difficulty or 0 when unrated
func (m *Mission) DifficultyValue() float64 {
	if m.Difficulty == nil {
		return 0
	}
	return *m.Difficulty
}

// AddedAt returns the date the mission was added, or the Unix epoch when unknown
func (m *Mission) AddedAt() time.Time {
	if m.DateAdded == nil {
		return time.Unix(0, 0).UTC()
	}
	return *m.DateAdded
}

// Known returns the computed known percentage, 0 when it was not computed
func (m *Mission) Known() float64 {
	if m.KnownPercentage == nil {
		return 0
	}
	return *m.KnownPercentage
}
