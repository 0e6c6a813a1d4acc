// Package catalog serves the module and mission catalogs from a cache in front
// of the database and keeps that cache fresh.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ktane-tracker/tracker/internal/models"
	"github.com/ktane-tracker/tracker/internal/storage"
)

// Cache stores catalog snapshots. RedisCache is the production implementation.
type Cache interface {
	Modules(ctx context.Context) ([]models.Module, bool, error)
	StoreModules(ctx context.Context, modules []models.Module) error
	Missions(ctx context.Context) ([]models.Mission, bool, error)
	StoreMissions(ctx context.Context, missions []models.Mission) error
	Invalidate(ctx context.Context) error
}

// Catalog reads through the cache to the repository. Cache failures are
// logged and never fail a request.
type Catalog struct {
	repo  storage.Repository
	cache Cache
}

// New creates a catalog; cache may be nil to always read from the repository
func New(repo storage.Repository, cache Cache) *Catalog {
	return &Catalog{repo: repo, cache: cache}
}

// Modules returns the module catalog
func (c *Catalog) Modules(ctx context.Context) ([]models.Module, error) {
	if c.cache != nil {
		modules, ok, err := c.cache.Modules(ctx)
		if err != nil {
			slog.Warn("module cache read failed", "error", err)
		} else if ok {
			return modules, nil
		}
	}

	modules, err := c.repo.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load modules: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.StoreModules(ctx, modules); err != nil {
			slog.Warn("module cache write failed", "error", err)
		}
	}

	return modules, nil
}

// Missions returns the mission catalog
func (c *Catalog) Missions(ctx context.Context) ([]models.Mission, error) {
	if c.cache != nil {
		missions, ok, err := c.cache.Missions(ctx)
		if err != nil {
			slog.Warn("mission cache read failed", "error", err)
		} else if ok {
			return missions, nil
		}
	}

	missions, err := c.repo.ListMissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load missions: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.StoreMissions(ctx, missions); err != nil {
			slog.Warn("mission cache write failed", "error", err)
		}
	}

	return missions, nil
}

// Refresh reloads both catalogs from the repository into the cache
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}

	modules, err := c.repo.ListModules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}
	if err := c.cache.StoreModules(ctx, modules); err != nil {
		return err
	}

	missions, err := c.repo.ListMissions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load missions: %w", err)
	}
	if err := c.cache.StoreMissions(ctx, missions); err != nil {
		return err
	}

	slog.Info("catalog refreshed", "modules", len(modules), "missions", len(missions))
	return nil
}

// Invalidate drops the cached catalogs so the next read hits the repository
func (c *Catalog) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Invalidate(ctx)
}
