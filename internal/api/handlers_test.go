package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktane-tracker/tracker/internal/config"
	"github.com/ktane-tracker/tracker/internal/models"
	"github.com/ktane-tracker/tracker/internal/tracker"
)

// ============================================================================
// Mock Service
// ============================================================================

type mockService struct {
	users    map[string]*models.User
	modules  []models.Module
	missions []models.Mission
	pingErr  error
	queryErr error

	lastQuery    models.MissionQueryRequest
	lastViewer   *models.User
	lastPractice models.PracticeRequest
}

func (m *mockService) ListModules(ctx context.Context) ([]models.Module, error) {
	return m.modules, nil
}

func (m *mockService) QueryMissions(ctx context.Context, viewer *models.User, req models.MissionQueryRequest) ([]models.Mission, error) {
	m.lastViewer, m.lastQuery = viewer, req
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.missions, nil
}

func (m *mockService) GeneratePractice(ctx context.Context, viewer *models.User, req models.PracticeRequest) (*models.PracticeBomb, error) {
	m.lastViewer, m.lastPractice = viewer, req
	return &models.PracticeBomb{ID: "bomb-1", Requested: req.BombSize, Difficulty: req.Difficulty, Modules: m.modules}, nil
}

func (m *mockService) GetUser(ctx context.Context, discordID string) (*models.User, error) {
	if u, ok := m.users[discordID]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: %s", tracker.ErrUserNotFound, discordID)
}

func (m *mockService) UserScores(ctx context.Context, discordID string) ([]models.ModuleScore, error) {
	if _, err := m.GetUser(ctx, discordID); err != nil {
		return nil, err
	}
	return []models.ModuleScore{{ModuleID: "wires", DefuserConfidence: models.ConfidenceConfident}}, nil
}

func (m *mockService) Ping(ctx context.Context) error {
	return m.pingErr
}

// ============================================================================
// Helpers
// ============================================================================

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func newTestServer() (*mockService, http.Handler) {
	svc := &mockService{
		users:    map[string]*models.User{"42": {DiscordID: "42", Username: "bomb squad"}},
		modules:  []models.Module{{ModuleID: "wires", Name: "Wires"}},
		missions: []models.Mission{{ID: 1, MissionName: "Centurion"}},
	}
	return svc, NewServer(config.ServerConfig{Port: 8080}, svc).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

// ============================================================================
// Tests
// ============================================================================

func TestHealthAndReady(t *testing.T) {
	svc, h := newTestServer()

	code, env := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, _ = do(t, h, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)

	svc.pingErr = errors.New("postgres unavailable")
	code, env = do(t, h, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", env.Error.Code)
}

func TestListModules(t *testing.T) {
	_, h := newTestServer()

	code, env := do(t, h, http.MethodGet, "/api/v1/modules", "", nil)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Modules []models.Module `json:"modules"`
		Total   int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.Total)
	assert.Equal(t, "wires", data.Modules[0].ModuleID)
}

func TestQueryMissions(t *testing.T) {
	t.Run("partial body keeps defaults", func(t *testing.T) {
		svc, h := newTestServer()
		body := `{"team":[{"id":"42","is_defuser":true}],"filters":{"module_search":"wires"},"sort":{"key":"known_modules"}}`

		code, env := do(t, h, http.MethodPost, "/api/v1/missions/query", body, nil)
		require.Equal(t, http.StatusOK, code, string(env.Data))

		q := svc.lastQuery
		require.Len(t, q.Team, 1)
		assert.True(t, q.Team[0].IsDefuser)
		assert.Equal(t, "wires", q.Filters.ModuleSearch)
		assert.Equal(t, models.Range{0, 30}, q.Filters.DifficultyRange)
		assert.True(t, q.Filters.ShowFactoryNone)
		assert.Equal(t, models.SortKnownModules, q.Sort.Key)
		assert.Equal(t, models.OrderAsc, q.Sort.Order, "a sort without order is ascending")
		assert.Nil(t, svc.lastViewer)
	})

	t.Run("explicit sort order is kept", func(t *testing.T) {
		svc, h := newTestServer()

		code, _ := do(t, h, http.MethodPost, "/api/v1/missions/query", `{"sort":{"key":"difficulty","order":"desc"}}`, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, models.Sort{Key: models.SortDifficulty, Order: models.OrderDesc}, *svc.lastQuery.Sort)
	})

	t.Run("sort without key is rejected", func(t *testing.T) {
		_, h := newTestServer()

		code, env := do(t, h, http.MethodPost, "/api/v1/missions/query", `{"sort":{"order":"asc"}}`, nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "validation_error", env.Error.Code)
	})

	t.Run("empty body is a default query", func(t *testing.T) {
		svc, h := newTestServer()

		code, _ := do(t, h, http.MethodPost, "/api/v1/missions/query", "", nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, models.SortDateAdded, svc.lastQuery.Sort.Key)
		assert.Equal(t, models.OrderDesc, svc.lastQuery.Sort.Order)
	})

	t.Run("viewer is passed through", func(t *testing.T) {
		svc, h := newTestServer()

		code, _ := do(t, h, http.MethodPost, "/api/v1/missions/query", "{}", map[string]string{DiscordIDHeader: "42"})
		require.Equal(t, http.StatusOK, code)
		require.NotNil(t, svc.lastViewer)
		assert.Equal(t, "42", svc.lastViewer.DiscordID)
	})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"team":`, "invalid_request"},
		{"unknown sort key", `{"sort":{"key":"popularity"}}`, "validation_error"},
		{"unknown sort order", `{"sort":{"key":"difficulty","order":"sideways"}}`, "validation_error"},
		{"inverted range", `{"filters":{"difficulty_range":[10,2]}}`, "validation_error"},
		{"unknown faves filter", `{"filters":{"faves_filter":"some"}}`, "validation_error"},
		{"missing member id", `{"team":[{"is_defuser":true}]}`, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestServer()
			code, env := do(t, h, http.MethodPost, "/api/v1/missions/query", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	t.Run("unknown team member", func(t *testing.T) {
		svc, h := newTestServer()
		svc.queryErr = fmt.Errorf("%w: 7", tracker.ErrUserNotFound)

		code, env := do(t, h, http.MethodPost, "/api/v1/missions/query", `{"team":[{"id":"7"}]}`, nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "user_not_found", env.Error.Code)
	})

	t.Run("service failure", func(t *testing.T) {
		svc, h := newTestServer()
		svc.queryErr = errors.New("db down")

		code, env := do(t, h, http.MethodPost, "/api/v1/missions/query", `{}`, nil)
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "internal_error", env.Error.Code)
	})
}

func TestListMissions(t *testing.T) {
	svc, h := newTestServer()

	code, env := do(t, h, http.MethodGet, "/api/v1/missions?sort=mission_name&search=wires,maze", "", nil)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Missions []models.Mission `json:"missions"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.Total)

	assert.Equal(t, models.Sort{Key: models.SortMissionName, Order: models.OrderAsc}, *svc.lastQuery.Sort)
	assert.Equal(t, "wires,maze", svc.lastQuery.Filters.ModuleSearch)
	assert.Empty(t, svc.lastQuery.Team)

	code, _ = do(t, h, http.MethodGet, "/api/v1/missions?sort=difficulty&order=desc", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.OrderDesc, svc.lastQuery.Sort.Order)

	code, env = do(t, h, http.MethodGet, "/api/v1/missions?sort=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestGeneratePractice(t *testing.T) {
	svc, h := newTestServer()

	code, env := do(t, h, http.MethodPost, "/api/v1/practice",
		`{"bomb_size":20,"difficulty":7,"prioritize_older":true}`, map[string]string{DiscordIDHeader: "42"})
	require.Equal(t, http.StatusOK, code)

	var bomb models.PracticeBomb
	require.NoError(t, json.Unmarshal(env.Data, &bomb))
	assert.Equal(t, "bomb-1", bomb.ID)
	assert.Equal(t, 20, svc.lastPractice.BombSize)
	assert.True(t, svc.lastPractice.PrioritizeOlder)
	require.NotNil(t, svc.lastViewer)

	for _, body := range []string{`{"bomb_size":0,"difficulty":5}`, `{"bomb_size":201,"difficulty":5}`} {
		code, env = do(t, h, http.MethodPost, "/api/v1/practice", body, nil)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, "validation_error", env.Error.Code)
	}

	code, env = do(t, h, http.MethodPost, "/api/v1/practice", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_request", env.Error.Code)
}

func TestUserScores(t *testing.T) {
	_, h := newTestServer()

	code, env := do(t, h, http.MethodGet, "/api/v1/users/42/scores", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"module_id":"wires"`)

	code, env = do(t, h, http.MethodGet, "/api/v1/users/7/scores", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestIdentity(t *testing.T) {
	_, h := newTestServer()

	code, env := do(t, h, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "not_authenticated", env.Error.Code)

	code, env = do(t, h, http.MethodGet, "/api/v1/me", "", map[string]string{DiscordIDHeader: "999"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unknown_user", env.Error.Code)

	code, env = do(t, h, http.MethodGet, "/api/v1/me", "", map[string]string{DiscordIDHeader: "42"})
	require.Equal(t, http.StatusOK, code)

	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "bomb squad", user.Username)
}
