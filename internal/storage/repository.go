package storage

import (
	"context"

	"github.com/ktane-tracker/tracker/internal/models"
)

// Repository defines the read side of the tracker's persistence
type Repository interface {
	// Catalog
	ListModules(ctx context.Context) ([]models.Module, error)
	ListMissions(ctx context.Context) ([]models.Mission, error)

	// Users
	GetUser(ctx context.Context, discordID string) (*models.User, error)
	GetUserScores(ctx context.Context, discordID string) ([]models.ModuleScore, error)
	ListFavouriteMissionIDs(ctx context.Context, discordID string) ([]int, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
