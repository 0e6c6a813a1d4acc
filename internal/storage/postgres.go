package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ktane-tracker/tracker/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// ListModules returns the whole module catalog ordered by name
func (r *PostgresRepository) ListModules(ctx context.Context) ([]models.Module, error) {
	query := `
		SELECT module_id, name, defuser_difficulty, expert_difficulty, type, boss_status, published, quirks
		FROM modules
		ORDER BY name, module_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var modules []models.Module

	for rows.Next() {
		var m models.Module
		var defuser, expert, moduleType string
		var bossStatus sql.NullString
		var published sql.NullTime

		err := rows.Scan(
			&m.ModuleID,
			&m.Name,
			&defuser,
			&expert,
			&moduleType,
			&bossStatus,
			&published,
			&m.Quirks,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}

		m.DefuserDifficulty = models.Difficulty(defuser)
		m.ExpertDifficulty = models.Difficulty(expert)
		m.Type = models.ModuleType(moduleType)
		m.BossStatus = models.BossStatus(bossStatus.String)

		if published.Valid {
			m.Published = &published.Time
		}

		modules = append(modules, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating modules: %w", err)
	}

	return modules, nil
}

// ListMissions returns every mission with its bombs normalised
func (r *PostgresRepository) ListMissions(ctx context.Context) ([]models.Mission, error) {
	query := `
		SELECT id, pack_name, mission_name, authors, date_added, factory, difficulty, bombs
		FROM missions
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	var missions []models.Mission

	for rows.Next() {
		var m models.Mission
		var dateAdded sql.NullTime
		var factory sql.NullString
		var difficulty sql.NullFloat64
		var bombsJSON []byte

		err := rows.Scan(
			&m.ID,
			&m.PackName,
			&m.MissionName,
			&m.Authors,
			&dateAdded,
			&factory,
			&difficulty,
			&bombsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}

		if dateAdded.Valid {
			m.DateAdded = &dateAdded.Time
		}
		if difficulty.Valid {
			m.Difficulty = &difficulty.Float64
		}
		m.Factory = models.Factory(factory.String)
		m.Bombs = ParseBombs(bombsJSON)

		missions = append(missions, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missions: %w", err)
	}

	return missions, nil
}

// GetUser retrieves a user by Discord id
func (r *PostgresRepository) GetUser(ctx context.Context, discordID string) (*models.User, error) {
	query := `
		SELECT discord_id, username, avatar, created_at
		FROM users
		WHERE discord_id = $1
	`

	var user models.User
	var avatar sql.NullString

	err := r.pool.QueryRow(ctx, query, discordID).Scan(
		&user.DiscordID,
		&user.Username,
		&avatar,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Avatar = avatar.String

	return &user, nil
}

// GetUserScores returns every module score a user has recorded
func (r *PostgresRepository) GetUserScores(ctx context.Context, discordID string) ([]models.ModuleScore, error) {
	query := `
		SELECT module_id, defuser_confidence, expert_confidence, can_solo
		FROM user_module_scores
		WHERE discord_id = $1
		ORDER BY module_id
	`

	rows, err := r.pool.Query(ctx, query, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user scores: %w", err)
	}
	defer rows.Close()

	var scores []models.ModuleScore

	for rows.Next() {
		var s models.ModuleScore
		var defuser, expert string

		if err := rows.Scan(&s.ModuleID, &defuser, &expert, &s.CanSolo); err != nil {
			return nil, fmt.Errorf("failed to scan module score: %w", err)
		}

		s.DefuserConfidence = models.Confidence(defuser)
		s.ExpertConfidence = models.Confidence(expert)

		scores = append(scores, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating module scores: %w", err)
	}

	return scores, nil
}

// ListFavouriteMissionIDs returns the ids of a user's favourite missions
func (r *PostgresRepository) ListFavouriteMissionIDs(ctx context.Context, discordID string) ([]int, error) {
	query := `SELECT mission_id FROM user_favourites WHERE discord_id = $1`

	rows, err := r.pool.Query(ctx, query, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favourites: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("failed to scan favourites: %w", err)
	}

	return ids, nil
}
