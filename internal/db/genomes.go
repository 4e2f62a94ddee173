package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/evofunk/internal/genome"
)

// GenomeRecord is the persisted form of a genome within a session.
type GenomeRecord struct {
	Genome     *genome.Genome
	SessionID  uuid.UUID
	Generation int
	SavedAt    time.Time
}

// SaveGenome persists a genome for a session. The genome's JSON form
// round-trips exactly, so reloading it restores parameters, lineage, and
// evaluation bit-for-bit.
func (db *DB) SaveGenome(ctx context.Context, sessionID uuid.UUID, g *genome.Genome) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal genome: %w", err)
	}

	query := `
		INSERT INTO genomes (
			id, session_id, generation, fitness, genome, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (id) DO NOTHING
	`

	var fitness *float64
	if g.HasFitness() {
		f := g.FitnessValue()
		fitness = &f
	}

	_, err = db.pool.Exec(ctx, query,
		g.ID,
		sessionID,
		g.Generation,
		fitness,
		payload,
		time.Now(),
	)

	if err != nil {
		log.Error().
			Err(err).
			Str("genome_id", g.ID.String()).
			Str("session_id", sessionID.String()).
			Msg("Failed to save genome")
		return fmt.Errorf("failed to save genome: %w", err)
	}

	return nil
}

// SavePopulation persists every genome in a generation snapshot.
func (db *DB) SavePopulation(ctx context.Context, sessionID uuid.UUID, genomes []*genome.Genome) error {
	for _, g := range genomes {
		if err := db.SaveGenome(ctx, sessionID, g); err != nil {
			return err
		}
	}

	log.Debug().
		Str("session_id", sessionID.String()).
		Int("count", len(genomes)).
		Msg("Population snapshot saved")

	return nil
}

// LoadTopGenomes returns the highest-fitness genomes across all sessions
// for a symbol, for seeding a new run from prior results.
func (db *DB) LoadTopGenomes(ctx context.Context, symbol string, limit int) ([]*genome.Genome, error) {
	query := `
		SELECT g.genome
		FROM genomes g
		JOIN evolution_sessions s ON s.id = g.session_id
		WHERE s.symbol = $1
		AND g.fitness IS NOT NULL
		ORDER BY g.fitness DESC
		LIMIT $2
	`

	rows, err := db.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top genomes: %w", err)
	}
	defer rows.Close()

	var genomes []*genome.Genome
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan genome row: %w", err)
		}
		var g genome.Genome
		if err := json.Unmarshal(payload, &g); err != nil {
			return nil, fmt.Errorf("failed to unmarshal genome: %w", err)
		}
		genomes = append(genomes, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate genome rows: %w", err)
	}

	log.Info().
		Str("symbol", symbol).
		Int("loaded", len(genomes)).
		Msg("Top genomes loaded for seeding")

	return genomes, nil
}
