package models

import "time"

// Confidence is how well a user knows one side of a module
type Confidence string

const (
	ConfidenceUnknown   Confidence = "Unknown"
	ConfidenceAttempted Confidence = "Attempted"
	ConfidenceConfident Confidence = "Confident"
	ConfidenceAvoid     Confidence = "Avoid"
)

// Knows returns true for Attempted and Confident
func (c Confidence) Knows() bool {
	return c == ConfidenceAttempted || c == ConfidenceConfident
}

// User is a tracker account, keyed by Discord id
type User struct {
	DiscordID string    `json:"discord_id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ModuleScore is a user's self-reported confidence on a module
type ModuleScore struct {
	ModuleID          string     `json:"module_id"`
	DefuserConfidence Confidence `json:"defuser_confidence"`
	ExpertConfidence  Confidence `json:"expert_confidence"`
	CanSolo           bool       `json:"can_solo"`
}

// Avoids returns true if the user marked either side of the module as Avoid
func (s *ModuleScore) Avoids() bool {
	return s.DefuserConfidence == ConfidenceAvoid || s.ExpertConfidence == ConfidenceAvoid
}

// TeamMember is a request-scoped participant of a simulated team
type TeamMember struct {
	ID        string        `json:"id"`
	IsDefuser bool          `json:"is_defuser"`
	Scores    []ModuleScore `json:"scores,omitempty"`
}

// ActiveConfidence returns the member's confidence for moduleID in the role
// they occupy: defuser confidence for the defuser, expert confidence otherwise
func (t *TeamMember) ActiveConfidence(scores map[string]ModuleScore, moduleID string) Confidence {
	score, ok := scores[moduleID]
	if !ok {
		return ConfidenceUnknown
	}
	if t.IsDefuser {
		return score.DefuserConfidence
	}
	return score.ExpertConfidence
}

// ScoreIndex returns the member's scores keyed by module id
func (t *TeamMember) ScoreIndex() map[string]ModuleScore {
	index := make(map[string]ModuleScore, len(t.Scores))
	for _, s := range t.Scores {
		index[s.ModuleID] = s
	}
	return index
}
