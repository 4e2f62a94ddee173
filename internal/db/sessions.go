package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EvolutionSession records one evolution run across restarts.
type EvolutionSession struct {
	ID             uuid.UUID
	Symbol         string
	Exchange       string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Reason         *string
	Generations    int
	BestFitness    *float64
	BestGenomeID   *uuid.UUID
	PopulationSize int
	Seed           int64
	Config         map[string]interface{}
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateSession inserts a new evolution session record.
func (db *DB) CreateSession(ctx context.Context, session *EvolutionSession) error {
	query := `
		INSERT INTO evolution_sessions (
			id, symbol, exchange, started_at, population_size, seed,
			config, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	now := time.Now()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := db.pool.Exec(ctx, query,
		session.ID,
		session.Symbol,
		session.Exchange,
		session.StartedAt,
		session.PopulationSize,
		session.Seed,
		session.Config,
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", session.ID.String()).
			Msg("Failed to create evolution session")
		return fmt.Errorf("failed to create evolution session: %w", err)
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("symbol", session.Symbol).
		Int64("seed", session.Seed).
		Msg("Evolution session created")

	return nil
}

// GetSession retrieves an evolution session by ID.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID) (*EvolutionSession, error) {
	query := `
		SELECT id, symbol, exchange, started_at, finished_at, reason,
		       generations, best_fitness, best_genome_id, population_size,
		       seed, config, created_at, updated_at
		FROM evolution_sessions
		WHERE id = $1
	`

	var session EvolutionSession
	err := db.pool.QueryRow(ctx, query, sessionID).Scan(
		&session.ID,
		&session.Symbol,
		&session.Exchange,
		&session.StartedAt,
		&session.FinishedAt,
		&session.Reason,
		&session.Generations,
		&session.BestFitness,
		&session.BestGenomeID,
		&session.PopulationSize,
		&session.Seed,
		&session.Config,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get evolution session: %w", err)
	}

	return &session, nil
}

// FinishSession marks a session as terminated with its outcome.
func (db *DB) FinishSession(ctx context.Context, sessionID uuid.UUID, reason string, generations int, bestFitness float64, bestGenomeID uuid.UUID) error {
	query := `
		UPDATE evolution_sessions
		SET finished_at = NOW(),
		    reason = $1,
		    generations = $2,
		    best_fitness = $3,
		    best_genome_id = $4,
		    updated_at = NOW()
		WHERE id = $5
		AND finished_at IS NULL
	`

	result, err := db.pool.Exec(ctx, query, reason, generations, bestFitness, bestGenomeID, sessionID)
	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Msg("Failed to finish evolution session")
		return fmt.Errorf("failed to finish evolution session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("evolution session not found or already finished: %s", sessionID.String())
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("reason", reason).
		Int("generations", generations).
		Msg("Evolution session finished")

	return nil
}
