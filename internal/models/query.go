package models

// Range is an inclusive [min, max] bound, encoded as a two-element JSON array
type Range [2]float64

// Min returns the lower bound
func (r Range) Min() float64 { return r[0] }

// Max returns the upper bound
func (r Range) Max() float64 { return r[1] }

// Contains reports whether v lies within the bounds
func (r Range) Contains(v float64) bool {
	return v >= r[0] && v <= r[1]
}

// FavesFilter restricts missions by the viewer's favourites
type FavesFilter string

const (
	FavesAll       FavesFilter = "all"
	FavesOnlyFaves FavesFilter = "only_faves"
	FavesNoFaves   FavesFilter = "no_faves"
)

// FilterSpec is the mission browser's filter panel
type FilterSpec struct {
	DifficultyRange          Range       `json:"difficulty_range"`
	DateRange                Range       `json:"date_range"`
	ShowFactorySequence      bool        `json:"show_factory_sequence"`
	ShowFactoryStatic        bool        `json:"show_factory_static"`
	ShowFactoryNone          bool        `json:"show_factory_none"`
	ModuleCountRange         Range       `json:"module_count_range"`
	PossibleModuleCountRange Range       `json:"possible_module_count_range"`
	ModuleSearch             string      `json:"module_search"`
	FavesFilter              FavesFilter `json:"faves_filter"`
	KnownPercentRange        Range       `json:"known_percent_range"`
}

// SortKey selects the mission ordering
type SortKey string

const (
	SortKnownModules SortKey = "known_modules"
	SortDifficulty   SortKey = "difficulty"
	SortMissionName  SortKey = "mission_name"
	SortDateAdded    SortKey = "date_added"
)

// Valid reports whether k is a supported sort key
func (k SortKey) Valid() bool {
	switch k {
	case SortKnownModules, SortDifficulty, SortMissionName, SortDateAdded:
		return true
	}
	return false
}

// SortOrder is asc or desc
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Sort pairs a key with a direction
type Sort struct {
	Key   SortKey   `json:"key"`
	Order SortOrder `json:"order"`
}

// TeamMemberRef names a team member in a mission query; scores are loaded server-side
type TeamMemberRef struct {
	ID        string `json:"id"`
	IsDefuser bool   `json:"is_defuser"`
}

// MissionQueryRequest is the body of a mission browser query
type MissionQueryRequest struct {
	Team    []TeamMemberRef `json:"team"`
	Filters *FilterSpec     `json:"filters,omitempty"`
	Sort    *Sort           `json:"sort,omitempty"`
}

// PracticeRequest asks for a generated practice bomb
type PracticeRequest struct {
	BombSize        int  `json:"bomb_size"`
	Difficulty      int  `json:"difficulty"`
	PrioritizeOlder bool `json:"prioritize_older"`
	AllowNeedy      bool `json:"allow_needy"`
	AllowBoss       bool `json:"allow_boss"`
}

// PracticeBomb is a generated practice bomb in presentation order
type PracticeBomb struct {
	ID         string   `json:"id"`
	Requested  int      `json:"requested"`
	Difficulty int      `json:"difficulty"`
	Short      bool     `json:"short"`
	Modules    []Module `json:"modules"`
}
