package models

import "time"

// Difficulty is the community-rated difficulty of one side of a module
type Difficulty string

const (
	DifficultyTrivial  Difficulty = "Trivial"
	DifficultyVeryEasy Difficulty = "VeryEasy"
	DifficultyEasy     Difficulty = "Easy"
	DifficultyMedium   Difficulty = "Medium"
	DifficultyHard     Difficulty = "Hard"
	DifficultyVeryHard Difficulty = "VeryHard"
	DifficultyExtreme  Difficulty = "Extreme"
)

var difficultyRanks = map[Difficulty]int{
	DifficultyTrivial:  0,
	DifficultyVeryEasy: 1,
	DifficultyEasy:     2,
	DifficultyMedium:   3,
	DifficultyHard:     4,
	DifficultyVeryHard: 5,
	DifficultyExtreme:  6,
}

// Rank orders difficulties from Trivial (0) to Extreme (6).
// Unrecognised values rank as Trivial.
func (d Difficulty) Rank() int {
	return difficultyRanks[d]
}

// Valid reports whether d is one of the known difficulty levels
func (d Difficulty) Valid() bool {
	_, ok := difficultyRanks[d]
	return ok
}

// ModuleType distinguishes regular modules from needy ones
type ModuleType string

const (
	ModuleRegular ModuleType = "Regular"
	ModuleNeedy   ModuleType = "Needy"
)

// BossStatus marks modules that interact with the rest of the bomb
type BossStatus string

const (
	BossNone BossStatus = ""
	BossFull BossStatus = "FullBoss"
	BossSemi BossStatus = "SemiBoss"
)

// Module is one entry of the module catalog
type Module struct {
	ModuleID          string     `json:"module_id"`
	Name              string     `json:"name"`
	DefuserDifficulty Difficulty `json:"defuser_difficulty"`
	ExpertDifficulty  Difficulty `json:"expert_difficulty"`
	Type              ModuleType `json:"type"`
	BossStatus        BossStatus `json:"boss_status,omitempty"`
	Published         *time.Time `json:"published,omitempty"`
	Quirks            []string   `json:"quirks,omitempty"`
}

// CombinedRank is the harder of the defuser and expert difficulty ranks
func (m *Module) CombinedRank() int {
	return max(m.DefuserDifficulty.Rank(), m.ExpertDifficulty.Rank())
}

// IsNeedy returns true for needy modules
func (m *Module) IsNeedy() bool {
	return m.Type == ModuleNeedy
}

// IsFullBoss returns true for modules that require the whole bomb to be solved first
func (m *Module) IsFullBoss() bool {
	return m.BossStatus == BossFull
}
