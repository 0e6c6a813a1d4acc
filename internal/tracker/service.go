// Package tracker wires the catalogs, user data and the scoring cores into the
// operations served over HTTP.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ktane-tracker/tracker/internal/missions"
	"github.com/ktane-tracker/tracker/internal/models"
	"github.com/ktane-tracker/tracker/internal/practice"
	"github.com/ktane-tracker/tracker/internal/services"
	"github.com/ktane-tracker/tracker/internal/storage"
)

// Common errors
var (
	ErrUserNotFound = errors.New("user not found")
)

// Service defines the operations exposed by the tracker
type Service interface {
	ListModules(ctx context.Context) ([]models.Module, error)
	QueryMissions(ctx context.Context, viewer *models.User, req models.MissionQueryRequest) ([]models.Mission, error)
	GeneratePractice(ctx context.Context, viewer *models.User, req models.PracticeRequest) (*models.PracticeBomb, error)
	GetUser(ctx context.Context, discordID string) (*models.User, error)
	UserScores(ctx context.Context, discordID string) ([]models.ModuleScore, error)
	Ping(ctx context.Context) error
}

// CatalogSource provides the module and mission catalogs
type CatalogSource interface {
	Modules(ctx context.Context) ([]models.Module, error)
	Missions(ctx context.Context) ([]models.Mission, error)
}

// Tracker implements Service
type Tracker struct {
	repo      storage.Repository
	catalog   CatalogSource
	generator *practice.Generator
	weights   missions.Weights
	health    *services.Registry
}

// NewTracker creates a new Tracker. health may be nil when no backing
// services need checking.
func NewTracker(
	repo storage.Repository,
	catalog CatalogSource,
	generator *practice.Generator,
	weights missions.Weights,
	health *services.Registry,
) *Tracker {
	if health == nil {
		health = services.NewRegistry()
	}
	return &Tracker{
		repo:      repo,
		catalog:   catalog,
		generator: generator,
		weights:   weights,
		health:    health,
	}
}

// ListModules returns the module catalog
func (t *Tracker) ListModules(ctx context.Context) ([]models.Module, error) {
	return t.catalog.Modules(ctx)
}

// QueryMissions scores the mission catalog for the requested team and applies
// the requested filters and sort. A nil viewer is an anonymous request.
func (t *Tracker) QueryMissions(ctx context.Context, viewer *models.User, req models.MissionQueryRequest) ([]models.Mission, error) {
	catalog, err := t.catalog.Missions(ctx)
	if err != nil {
		return nil, err
	}

	team, err := t.loadTeam(ctx, req.Team)
	if err != nil {
		return nil, err
	}

	list := slices.Clone(catalog)
	if viewer != nil {
		if err := t.markFavourites(ctx, viewer.DiscordID, list); err != nil {
			return nil, err
		}
	}

	q := missions.NewQuery()
	q.Weights = t.weights
	q.HasViewer = viewer != nil
	if req.Filters != nil {
		q.Filters = *req.Filters
	}
	if req.Sort != nil {
		q.Sort = *req.Sort
		if q.Sort.Order == "" {
			q.Sort.Order = models.OrderAsc
		}
	}

	result := missions.Apply(list, team, q)

	slog.Debug("missions queried",
		"team_size", len(team),
		"sort", q.Sort.Key,
		"catalog", len(catalog),
		"matched", len(result),
	)

	return result, nil
}

// loadTeam resolves team member references into members with their scores,
// querying all members concurrently
func (t *Tracker) loadTeam(ctx context.Context, refs []models.TeamMemberRef) ([]models.TeamMember, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	team := make([]models.TeamMember, len(refs))
	g, gctx := errgroup.WithContext(ctx)

	for i, ref := range refs {
		g.Go(func() error {
			scores, err := t.UserScores(gctx, ref.ID)
			if err != nil {
				return err
			}
			team[i] = models.TeamMember{ID: ref.ID, IsDefuser: ref.IsDefuser, Scores: scores}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return team, nil
}

func (t *Tracker) markFavourites(ctx context.Context, discordID string, list []models.Mission) error {
	ids, err := t.repo.ListFavouriteMissionIDs(ctx, discordID)
	if err != nil {
		return fmt.Errorf("failed to load favourites: %w", err)
	}

	faves := make(map[int]bool, len(ids))
	for _, id := range ids {
		faves[id] = true
	}
	for i := range list {
		list[i].IsFavourite = faves[list[i].ID]
	}
	return nil
}

// GeneratePractice builds a practice bomb, excluding modules the viewer avoids
func (t *Tracker) GeneratePractice(ctx context.Context, viewer *models.User, req models.PracticeRequest) (*models.PracticeBomb, error) {
	modules, err := t.catalog.Modules(ctx)
	if err != nil {
		return nil, err
	}

	var scores []models.ModuleScore
	if viewer != nil {
		scores, err = t.repo.GetUserScores(ctx, viewer.DiscordID)
		if err != nil {
			return nil, fmt.Errorf("failed to load scores: %w", err)
		}
	}

	level := practice.ClampLevel(req.Difficulty)
	picked := t.generator.Generate(modules, scores, practice.Request{
		BombSize:        req.BombSize,
		Difficulty:      level,
		PrioritizeOlder: req.PrioritizeOlder,
		AllowNeedy:      req.AllowNeedy,
		AllowBoss:       req.AllowBoss,
	})

	bomb := &models.PracticeBomb{
		ID:         uuid.NewString(),
		Requested:  req.BombSize,
		Difficulty: level,
		Short:      len(picked) < req.BombSize,
		Modules:    picked,
	}

	if bomb.Short {
		slog.Warn("practice bomb short of requested size",
			"id", bomb.ID,
			"requested", req.BombSize,
			"generated", len(picked),
		)
	}
	slog.Info("practice bomb generated",
		"id", bomb.ID,
		"difficulty", level,
		"size", len(picked),
		"prioritize_older", req.PrioritizeOlder,
	)

	return bomb, nil
}

// GetUser returns the user or ErrUserNotFound
func (t *Tracker) GetUser(ctx context.Context, discordID string) (*models.User, error) {
	user, err := t.repo.GetUser(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, discordID)
	}
	return user, nil
}

// UserScores returns every module score of a known user
func (t *Tracker) UserScores(ctx context.Context, discordID string) ([]models.ModuleScore, error) {
	if _, err := t.GetUser(ctx, discordID); err != nil {
		return nil, err
	}

	scores, err := t.repo.GetUserScores(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	return scores, nil
}

// Ping checks every registered backing service
func (t *Tracker) Ping(ctx context.Context) error {
	return t.health.Healthy(ctx)
}
