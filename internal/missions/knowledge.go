package missions

import (
	"github.com/ktane-tracker/tracker/internal/models"
)

// Weights splits a mission's known percentage between the defuser and the
// averaged experts. The two weights are expected to sum to 1.
type Weights struct {
	Defuser float64 `yaml:"defuser_weight" json:"defuser_weight"`
	Expert  float64 `yaml:"expert_weight" json:"expert_weight"`
}

// DefaultWeights favours the defuser, whose knowledge gates the whole bomb
var DefaultWeights = Weights{Defuser: 0.6, Expert: 0.4}

// SoloEffectiveTeam expands a single-member team into a defuser copy and an
// expert copy sharing the same scores. Larger teams are returned unchanged.
func SoloEffectiveTeam(team []models.TeamMember) []models.TeamMember {
	if len(team) != 1 {
		return team
	}

	defuser := team[0]
	defuser.IsDefuser = true
	expert := team[0]
	expert.IsDefuser = false

	return []models.TeamMember{defuser, expert}
}

// scoredMember is a team member with its scores indexed for lookups
type scoredMember struct {
	member models.TeamMember
	scores map[string]models.ModuleScore
}

// indexTeam runs the solo expansion and indexes every member's scores once
// per request rather than once per mission
func indexTeam(team []models.TeamMember) []scoredMember {
	effective := SoloEffectiveTeam(team)
	indexed := make([]scoredMember, 0, len(effective))
	for _, m := range effective {
		indexed = append(indexed, scoredMember{member: m, scores: m.ScoreIndex()})
	}
	return indexed
}

// KnownPercentage scores how much of the mission the team can handle, in [0,1]
func KnownPercentage(mission *models.Mission, team []models.TeamMember, w Weights) float64 {
	return knownPercentage(mission.UniqueModuleIDs(), indexTeam(team), w)
}

func knownPercentage(unique []string, team []scoredMember, w Weights) float64 {
	if len(unique) == 0 || len(team) == 0 {
		return 0
	}

	var defuserScore, expertSum float64
	defuserSeen := false
	experts := 0

	for _, sm := range team {
		known := 0
		for _, id := range unique {
			if sm.member.ActiveConfidence(sm.scores, id).Knows() {
				known++
			}
		}
		percent := float64(known) / float64(len(unique))

		if sm.member.IsDefuser {
			// Only one defuser counts; extra defusers are ignored
			if !defuserSeen {
				defuserScore = percent
				defuserSeen = true
			}
			continue
		}
		expertSum += percent
		experts++
	}

	avgExpert := 0.0
	if experts > 0 {
		avgExpert = expertSum / float64(experts)
	}

	return clamp01(w.Defuser*defuserScore + w.Expert*avgExpert)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
