package missions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktane-tracker/tracker/internal/models"
)

func confident(ids ...string) []models.ModuleScore {
	scores := make([]models.ModuleScore, 0, len(ids))
	for _, id := range ids {
		scores = append(scores, models.ModuleScore{
			ModuleID:          id,
			DefuserConfidence: models.ConfidenceConfident,
			ExpertConfidence:  models.ConfidenceConfident,
		})
	}
	return scores
}

func missionWith(id int, pools ...[]string) models.Mission {
	bomb := models.Bomb{Modules: len(pools), Time: 600, Strikes: 3}
	for _, p := range pools {
		bomb.Pools = append(bomb.Pools, models.Pool{Modules: p, Count: 1})
	}
	return models.Mission{ID: id, MissionName: "mission", Bombs: []models.Bomb{bomb}}
}

func TestSoloEffectiveTeam(t *testing.T) {
	t.Run("single member becomes defuser and expert", func(t *testing.T) {
		solo := models.TeamMember{ID: "1", IsDefuser: false, Scores: confident("a")}
		team := SoloEffectiveTeam([]models.TeamMember{solo})

		require.Len(t, team, 2)
		assert.True(t, team[0].IsDefuser)
		assert.False(t, team[1].IsDefuser)
		assert.Equal(t, "1", team[0].ID)
		assert.Equal(t, "1", team[1].ID)
		assert.Equal(t, solo.Scores, team[1].Scores)
	})

	t.Run("larger teams are unchanged", func(t *testing.T) {
		team := []models.TeamMember{{ID: "1", IsDefuser: true}, {ID: "2"}}
		assert.Equal(t, team, SoloEffectiveTeam(team))
	})

	t.Run("empty team stays empty", func(t *testing.T) {
		assert.Empty(t, SoloEffectiveTeam(nil))
	})
}

func TestKnownPercentage(t *testing.T) {
	mission := missionWith(1, []string{"a", "b"}, []string{"c"}, []string{"d", "e", "a"})

	t.Run("defuser and expert are weighted 60/40", func(t *testing.T) {
		team := []models.TeamMember{
			{ID: "def", IsDefuser: true, Scores: confident("a", "b", "c")},
			{ID: "exp", Scores: confident("d")},
		}
		assert.InDelta(t, 0.44, KnownPercentage(&mission, team, DefaultWeights), 1e-9)
	})

	t.Run("solo member knowing everything scores 1", func(t *testing.T) {
		team := []models.TeamMember{{ID: "solo", Scores: confident("a", "b", "c", "d", "e")}}
		assert.InDelta(t, 1.0, KnownPercentage(&mission, team, DefaultWeights), 1e-9)
	})

	t.Run("attempted counts, avoid and unknown do not", func(t *testing.T) {
		team := []models.TeamMember{
			{ID: "def", IsDefuser: true, Scores: []models.ModuleScore{
				{ModuleID: "a", DefuserConfidence: models.ConfidenceAttempted},
				{ModuleID: "b", DefuserConfidence: models.ConfidenceAvoid},
				{ModuleID: "c", DefuserConfidence: models.ConfidenceUnknown},
			}},
			{ID: "exp"},
		}
		assert.InDelta(t, 0.6*0.2, KnownPercentage(&mission, team, DefaultWeights), 1e-9)
	})

	t.Run("role decides which confidence is read", func(t *testing.T) {
		scores := []models.ModuleScore{{ModuleID: "a", DefuserConfidence: models.ConfidenceConfident}}
		team := []models.TeamMember{
			{ID: "def", IsDefuser: true},
			{ID: "exp", Scores: scores},
		}
		assert.Zero(t, KnownPercentage(&mission, team, DefaultWeights))
	})

	t.Run("experts are averaged", func(t *testing.T) {
		team := []models.TeamMember{
			{ID: "def", IsDefuser: true},
			{ID: "e1", Scores: confident("a", "b", "c", "d", "e")},
			{ID: "e2"},
		}
		assert.InDelta(t, 0.4*0.5, KnownPercentage(&mission, team, DefaultWeights), 1e-9)
	})

	t.Run("no defuser contributes nothing for the defuser share", func(t *testing.T) {
		team := []models.TeamMember{
			{ID: "e1", Scores: confident("a", "b", "c", "d", "e")},
			{ID: "e2", Scores: confident("a", "b", "c", "d", "e")},
		}
		assert.InDelta(t, 0.4, KnownPercentage(&mission, team, DefaultWeights), 1e-9)
	})

	t.Run("empty mission scores 0", func(t *testing.T) {
		empty := models.Mission{ID: 2}
		team := []models.TeamMember{{ID: "solo", Scores: confident("a")}}
		assert.Zero(t, KnownPercentage(&empty, team, DefaultWeights))
	})

	t.Run("custom weights", func(t *testing.T) {
		team := []models.TeamMember{
			{ID: "def", IsDefuser: true, Scores: confident("a", "b", "c", "d", "e")},
			{ID: "exp"},
		}
		assert.InDelta(t, 0.5, KnownPercentage(&mission, team, Weights{Defuser: 0.5, Expert: 0.5}), 1e-9)
	})
}

func TestKnownPercentageBounds(t *testing.T) {
	catalog := []models.Mission{
		missionWith(1),
		missionWith(2, []string{"a"}),
		missionWith(3, []string{"a", "a", "a"}, []string{"b"}),
		missionWith(4, []string{"x", "y", "z"}),
	}
	teams := [][]models.TeamMember{
		{{ID: "solo", Scores: confident("a", "b", "x")}},
		{{ID: "d", IsDefuser: true, Scores: confident("a")}, {ID: "e", Scores: confident("a", "b", "x", "y", "z")}},
		{{ID: "d1", IsDefuser: true, Scores: confident("a")}, {ID: "d2", IsDefuser: true, Scores: confident("b")}},
	}

	for _, team := range teams {
		for i := range catalog {
			known := KnownPercentage(&catalog[i], team, DefaultWeights)
			assert.GreaterOrEqual(t, known, 0.0)
			assert.LessOrEqual(t, known, 1.0)
		}
	}
}
