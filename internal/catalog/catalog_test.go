package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktane-tracker/tracker/internal/models"
)

// ============================================================================
// Mock Implementations
// ============================================================================

type mockRepository struct {
	modules      []models.Module
	missions     []models.Mission
	moduleCalls  int
	missionCalls int
	listErr      error
}

func (m *mockRepository) ListModules(ctx context.Context) ([]models.Module, error) {
	m.moduleCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.modules, nil
}

func (m *mockRepository) ListMissions(ctx context.Context) ([]models.Mission, error) {
	m.missionCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.missions, nil
}

func (m *mockRepository) GetUser(ctx context.Context, discordID string) (*models.User, error) {
	return nil, nil
}

func (m *mockRepository) GetUserScores(ctx context.Context, discordID string) ([]models.ModuleScore, error) {
	return nil, nil
}

func (m *mockRepository) ListFavouriteMissionIDs(ctx context.Context, discordID string) ([]int, error) {
	return nil, nil
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

type mockCache struct {
	mu          sync.Mutex
	modules     []models.Module
	missions    []models.Mission
	hasModules  bool
	hasMissions bool
	readErr     error
	writeErr    error
	invalidated int
}

func (c *mockCache) Modules(ctx context.Context) ([]models.Module, bool, error) {
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	return c.modules, c.hasModules, nil
}

func (c *mockCache) StoreModules(ctx context.Context, modules []models.Module) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.modules, c.hasModules = modules, true
	return nil
}

func (c *mockCache) Missions(ctx context.Context) ([]models.Mission, bool, error) {
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	return c.missions, c.hasMissions, nil
}

func (c *mockCache) StoreMissions(ctx context.Context, missions []models.Mission) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.missions, c.hasMissions = missions, true
	return nil
}

func (c *mockCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.modules, c.missions = nil, nil
	c.hasModules, c.hasMissions = false, false
	return nil
}

// ============================================================================
// Tests
// ============================================================================

func newRepo() *mockRepository {
	return &mockRepository{
		modules:  []models.Module{{ModuleID: "Wires", Name: "Wires"}},
		missions: []models.Mission{{ID: 1, MissionName: "Alpha"}},
	}
}

func TestCatalogReadsThrough(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	cache := &mockCache{}
	c := New(repo, cache)

	modules, err := c.Modules(ctx)
	require.NoError(t, err)
	assert.Equal(t, repo.modules, modules)
	assert.True(t, cache.hasModules)

	_, err = c.Modules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.moduleCalls, "second read is served from cache")

	missions, err := c.Missions(ctx)
	require.NoError(t, err)
	assert.Equal(t, repo.missions, missions)
	_, _ = c.Missions(ctx)
	assert.Equal(t, 1, repo.missionCalls)
}

func TestCatalogWithoutCache(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	c := New(repo, nil)

	_, err := c.Modules(ctx)
	require.NoError(t, err)
	_, err = c.Modules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.moduleCalls)

	assert.NoError(t, c.Refresh(ctx))
	assert.NoError(t, c.Invalidate(ctx))
}

func TestCatalogCacheFailuresFallBack(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	cache := &mockCache{readErr: errors.New("redis down"), writeErr: errors.New("redis down")}
	c := New(repo, cache)

	modules, err := c.Modules(ctx)
	require.NoError(t, err)
	assert.Equal(t, repo.modules, modules)

	missions, err := c.Missions(ctx)
	require.NoError(t, err)
	assert.Equal(t, repo.missions, missions)
}

func TestCatalogRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepository{listErr: errors.New("db down")}
	c := New(repo, &mockCache{})

	_, err := c.Modules(ctx)
	assert.ErrorContains(t, err, "db down")
	_, err = c.Missions(ctx)
	assert.ErrorContains(t, err, "db down")
	assert.Error(t, c.Refresh(ctx))
}

func TestCatalogRefreshAndInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	cache := &mockCache{}
	c := New(repo, cache)

	require.NoError(t, c.Refresh(ctx))
	assert.True(t, cache.hasModules)
	assert.True(t, cache.hasMissions)

	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, cache.hasModules)
	assert.Equal(t, 1, cache.invalidated)
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestWarmerRefreshesOnStartAndTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &countingRefresher{}
	NewWarmer(r, 10*time.Millisecond).Start(ctx)

	assert.Eventually(t, func() bool { return r.count() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestNewWarmerDefaultsInterval(t *testing.T) {
	w := NewWarmer(&countingRefresher{}, 0)
	assert.Equal(t, 15*time.Minute, w.interval)
}
