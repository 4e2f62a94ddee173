package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Evolution  EvolutionConfig  `mapstructure:"evolution"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // "json" or "console"
}

// EvolutionConfig contains the genetic-search settings.
type EvolutionConfig struct {
	PopulationSize       int     `mapstructure:"population_size"`       // survivors per generation
	SeedSize             int     `mapstructure:"seed_size"`             // initial population size
	OffspringCount       int     `mapstructure:"offspring_count"`       // offspring per generation
	CrossoverShare       float64 `mapstructure:"crossover_share"`       // fraction of offspring from crossover
	MaxGenerations       int     `mapstructure:"max_generations"`       // hard generation cap
	ConvergenceThreshold float64 `mapstructure:"convergence_threshold"` // convergence/improvement threshold
	StagnationLimit      int     `mapstructure:"stagnation_limit"`      // generations without improvement
	EliteCount           int     `mapstructure:"elite_count"`           // unconditionally preserved genomes
	MutationRate         float64 `mapstructure:"mutation_rate"`         // base per-field mutation probability
	MutationStrength     float64 `mapstructure:"mutation_strength"`     // perturbation size vs bound range
	CrossoverRate        float64 `mapstructure:"crossover_rate"`        // recombine vs clone probability
	CrossoverMethod      string  `mapstructure:"crossover_method"`      // single_point, multi_point, uniform, blend, adaptive
	UniformRate          float64 `mapstructure:"uniform_rate"`          // parent1 share for uniform crossover
	BlendAlpha           float64 `mapstructure:"blend_alpha"`           // range widening for blend crossover
	SelectionMethod      string  `mapstructure:"selection_method"`      // tournament, roulette, rank, truncation
	TournamentSize       int     `mapstructure:"tournament_size"`       // contestants per tournament
	DiversityFraction    float64 `mapstructure:"diversity_fraction"`    // survivor share from diversity preservation
	EvalWorkers          int     `mapstructure:"eval_workers"`          // bounded evaluation worker pool
	Seed                 int64   `mapstructure:"seed"`                  // random seed (0 = time-based)
}

// DatabaseConfig contains PostgreSQL settings.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// NATSConfig contains the evaluator messaging settings.
type NATSConfig struct {
	URL       string `mapstructure:"url"`
	Subject   string `mapstructure:"subject"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// MonitoringConfig contains metrics settings.
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("EVOFUNK")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "EvoFunk")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Evolution defaults
	v.SetDefault("evolution.population_size", 5)
	v.SetDefault("evolution.seed_size", 20)
	v.SetDefault("evolution.offspring_count", 20)
	v.SetDefault("evolution.crossover_share", 0.6)
	v.SetDefault("evolution.max_generations", 50)
	v.SetDefault("evolution.convergence_threshold", 0.05)
	v.SetDefault("evolution.stagnation_limit", 10)
	v.SetDefault("evolution.elite_count", 2)
	v.SetDefault("evolution.mutation_rate", 0.1)
	v.SetDefault("evolution.mutation_strength", 0.2)
	v.SetDefault("evolution.crossover_rate", 0.8)
	v.SetDefault("evolution.crossover_method", "adaptive")
	v.SetDefault("evolution.uniform_rate", 0.5)
	v.SetDefault("evolution.blend_alpha", 0.3)
	v.SetDefault("evolution.selection_method", "tournament")
	v.SetDefault("evolution.tournament_size", 3)
	v.SetDefault("evolution.diversity_fraction", 0.2)
	v.SetDefault("evolution.eval_workers", 4)
	v.SetDefault("evolution.seed", 0)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "evofunk")
	v.SetDefault("database.ssl_mode", "disable")

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "evolution.evaluate.request")
	v.SetDefault("nats.timeout_ms", 120000)

	// Monitoring defaults
	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", true)
}

// GetDSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// GetTimeout returns the evaluator timeout as a time.Duration.
func (c *NATSConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
