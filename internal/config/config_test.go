package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "EvoFunk", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.App.LogLevel)

	assert.Equal(t, 5, cfg.Evolution.PopulationSize)
	assert.Equal(t, 20, cfg.Evolution.SeedSize)
	assert.Equal(t, 20, cfg.Evolution.OffspringCount)
	assert.Equal(t, 0.6, cfg.Evolution.CrossoverShare)
	assert.Equal(t, 50, cfg.Evolution.MaxGenerations)
	assert.Equal(t, 0.05, cfg.Evolution.ConvergenceThreshold)
	assert.Equal(t, 10, cfg.Evolution.StagnationLimit)
	assert.Equal(t, "adaptive", cfg.Evolution.CrossoverMethod)
	assert.Equal(t, "tournament", cfg.Evolution.SelectionMethod)
	assert.Equal(t, 4, cfg.Evolution.EvalWorkers)

	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, 2*time.Minute, cfg.NATS.GetTimeout())
	assert.True(t, cfg.Monitoring.EnableMetrics)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  log_level: debug
evolution:
  population_size: 8
  seed_size: 30
  selection_method: rank
nats:
  subject: custom.evaluate
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 8, cfg.Evolution.PopulationSize)
	assert.Equal(t, 30, cfg.Evolution.SeedSize)
	assert.Equal(t, "rank", cfg.Evolution.SelectionMethod)
	assert.Equal(t, "custom.evaluate", cfg.NATS.Subject)
	// Untouched keys keep their defaults.
	assert.Equal(t, 20, cfg.Evolution.OffspringCount)
}

func TestLoad_InvalidFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
evolution:
  population_size: 1
  crossover_method: mystery
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "population_size")
	assert.Contains(t, err.Error(), "crossover_method")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("collects every violation", func(t *testing.T) {
		cfg := valid()
		cfg.Evolution.PopulationSize = 0
		cfg.Evolution.MutationRate = 2
		cfg.Evolution.SelectionMethod = "psychic"

		err := cfg.Validate()
		require.Error(t, err)

		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.GreaterOrEqual(t, len(errs), 3)
	})

	t.Run("elite count must leave room for selection", func(t *testing.T) {
		cfg := valid()
		cfg.Evolution.EliteCount = cfg.Evolution.PopulationSize
		assert.Error(t, cfg.Validate())
	})

	t.Run("seed size must cover the population", func(t *testing.T) {
		cfg := valid()
		cfg.Evolution.SeedSize = cfg.Evolution.PopulationSize - 1
		assert.Error(t, cfg.Validate())
	})

	t.Run("database fields only required when enabled", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Enabled = true
		cfg.Database.Host = ""
		assert.Error(t, cfg.Validate())

		cfg.Database.Enabled = false
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown environment rejected", func(t *testing.T) {
		cfg := valid()
		cfg.App.Environment = "prod"
		assert.Error(t, cfg.Validate())
	})
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "evo",
		Password: "secret", Database: "evofunk", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=evo password=secret dbname=evofunk sslmode=require",
		cfg.GetDSN(),
	)
}
