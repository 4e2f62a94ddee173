// Evolution Runner CLI
// Drives the genetic search for trading strategy parameters
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/evofunk/internal/config"
	"github.com/ajitpratap0/evofunk/internal/crossover"
	"github.com/ajitpratap0/evofunk/internal/db"
	"github.com/ajitpratap0/evofunk/internal/evaluator"
	"github.com/ajitpratap0/evofunk/internal/genome"
	"github.com/ajitpratap0/evofunk/internal/metrics"
	"github.com/ajitpratap0/evofunk/internal/mutation"
	"github.com/ajitpratap0/evofunk/internal/population"
	"github.com/ajitpratap0/evofunk/internal/selection"
)

// ============================================================================
// CLI FLAGS
// ============================================================================

var (
	configPath  = flag.String("config", "", "Path to config file (optional)")
	symbol      = flag.String("symbol", "BTC/USDT", "Trading pair the strategies target")
	exchange    = flag.String("exchange", "binance", "Exchange the strategies target")
	generations = flag.Int("generations", 0, "Override max generations (0 = use config)")
	seedFlag    = flag.Int64("seed", 0, "Override random seed (0 = use config, config 0 = time-based)")
	seedFromDB  = flag.Int("seed-from-db", 0, "Seed the population with the top N genomes from prior sessions")
	outputFile  = flag.String("output", "", "Output file for the best strategy JSON (optional)")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

// ============================================================================
// MAIN
// ============================================================================

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logLevel := cfg.App.LogLevel
	if *verbose {
		logLevel = "debug"
	}
	config.InitLogger(logLevel, cfg.App.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Evolution run failed")
	}
}

// ============================================================================
// RUN
// ============================================================================

func run(ctx context.Context, cfg *config.Config) error {
	seed := cfg.Evolution.Seed
	if *seedFlag != 0 {
		seed = *seedFlag
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	maxGenerations := cfg.Evolution.MaxGenerations
	if *generations > 0 {
		maxGenerations = *generations
	}

	// Metrics server
	if cfg.Monitoring.EnableMetrics {
		metricsServer := metrics.NewServer(cfg.Monitoring.PrometheusPort, log.Logger)
		metricsServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	// Optional persistence
	var database *db.DB
	var session *db.EvolutionSession
	if cfg.Database.Enabled {
		var err error
		database, err = db.New(ctx, cfg.Database.GetDSN())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		session = &db.EvolutionSession{
			Symbol:         *symbol,
			Exchange:       *exchange,
			StartedAt:      time.Now(),
			PopulationSize: cfg.Evolution.PopulationSize,
			Seed:           seed,
			Config: map[string]interface{}{
				"max_generations":       maxGenerations,
				"offspring_count":       cfg.Evolution.OffspringCount,
				"crossover_method":      cfg.Evolution.CrossoverMethod,
				"selection_method":      cfg.Evolution.SelectionMethod,
				"mutation_rate":         cfg.Evolution.MutationRate,
				"convergence_threshold": cfg.Evolution.ConvergenceThreshold,
			},
		}
		if err := database.CreateSession(ctx, session); err != nil {
			return err
		}
	}

	// Evaluator client
	eval, err := evaluator.NewNATSEvaluator(evaluator.NATSConfig{
		URL:     cfg.NATS.URL,
		Subject: cfg.NATS.Subject,
		Timeout: cfg.NATS.GetTimeout(),
	})
	if err != nil {
		return err
	}
	defer eval.Close()

	manager := newManager(cfg, maxGenerations, seed)

	// Seed from prior sessions when requested
	var seedGenomes []*genome.Genome
	if database != nil && *seedFromDB > 0 {
		seedGenomes, err = database.LoadTopGenomes(ctx, *symbol, *seedFromDB)
		if err != nil {
			return fmt.Errorf("failed to load seed genomes: %w", err)
		}
	}
	manager.Initialize(seedGenomes)

	log.Info().
		Str("symbol", *symbol).
		Str("exchange", *exchange).
		Int64("seed", seed).
		Int("max_generations", maxGenerations).
		Msg("Starting evolution")

	result := manager.Run(ctx, instrumented(eval.Evaluate), func(stats population.GenerationStats) {
		observeGeneration(stats)
		if database != nil {
			snapshot, ok := manager.CachedGeneration(stats.Generation)
			if !ok {
				return
			}
			if err := database.SavePopulation(ctx, session.ID, snapshot); err != nil {
				log.Warn().Err(err).Int("generation", stats.Generation).Msg("Failed to persist generation")
			}
		}
	})

	metrics.SessionsFinished.WithLabelValues(string(result.Reason)).Inc()

	if database != nil {
		best := result.BestGenome
		if best != nil {
			if err := database.FinishSession(ctx, session.ID, string(result.Reason), result.Generations, best.FitnessValue(), best.ID); err != nil {
				log.Warn().Err(err).Msg("Failed to finish session record")
			}
		}
	}

	if result.Err != nil {
		return result.Err
	}

	return report(result)
}

// newManager assembles the genetic operators from the loaded configuration.
func newManager(cfg *config.Config, maxGenerations int, seed int64) *population.Manager {
	ev := cfg.Evolution

	popCfg := population.Config{
		PopulationSize:       ev.PopulationSize,
		SeedSize:             ev.SeedSize,
		OffspringCount:       ev.OffspringCount,
		CrossoverShare:       ev.CrossoverShare,
		MaxGenerations:       maxGenerations,
		ConvergenceThreshold: ev.ConvergenceThreshold,
		StagnationLimit:      ev.StagnationLimit,
		EvalWorkers:          ev.EvalWorkers,
	}
	mutCfg := mutation.Config{
		BaseRate:       ev.MutationRate,
		Strength:       ev.MutationStrength,
		EliteCount:     ev.EliteCount,
		TournamentSize: ev.TournamentSize,
	}
	crossCfg := crossover.Config{
		Method:        crossover.Method(ev.CrossoverMethod),
		CrossoverRate: ev.CrossoverRate,
		UniformRate:   ev.UniformRate,
		BlendAlpha:    ev.BlendAlpha,
	}
	selCfg := selection.Config{
		Method:            selection.Method(ev.SelectionMethod),
		EliteCount:        ev.EliteCount,
		DiversityFraction: ev.DiversityFraction,
		TournamentSize:    ev.TournamentSize,
	}

	return population.NewManager(popCfg, mutCfg, crossCfg, selCfg, genome.DefaultBounds, seed)
}

// ============================================================================
// INSTRUMENTATION
// ============================================================================

// instrumented wraps an evaluator with the Prometheus counters.
func instrumented(evaluate evaluator.Func) evaluator.Func {
	return func(ctx context.Context, g *genome.Genome) (*genome.BacktestMetrics, error) {
		metrics.EvaluationsTotal.Inc()
		start := time.Now()
		m, err := evaluate(ctx, g)
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.EvaluationFailures.WithLabelValues(metrics.NormalizeEvalError(err)).Inc()
		}
		return m, err
	}
}

func observeGeneration(stats population.GenerationStats) {
	metrics.GenerationsTotal.Inc()
	metrics.GenerationBestFitness.Set(stats.BestFitness)
	metrics.GenerationAvgFitness.Set(stats.AverageFitness)
	metrics.PopulationDiversity.Set(stats.Diversity)
	if stats.Improved {
		metrics.BestFitness.Set(stats.BestFitness)
	}
}

// ============================================================================
// REPORTING
// ============================================================================

func report(result *population.EvolutionResult) error {
	best := result.BestGenome
	if best == nil {
		return fmt.Errorf("evolution produced no best genome")
	}

	log.Info().
		Str("reason", string(result.Reason)).
		Int("generations", result.Generations).
		Float64("best_fitness", best.FitnessValue()).
		Str("best_genome_id", best.ID.String()).
		Msg("Evolution finished")

	view, err := json.MarshalIndent(best.ToStrategyView(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal best strategy: %w", err)
	}

	fmt.Println(string(view))

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, view, 0o644); err != nil {
			log.Warn().Err(err).Str("file", *outputFile).Msg("Failed to write output file")
		} else {
			log.Info().Str("file", *outputFile).Msg("Best strategy written to file")
		}
	}

	return nil
}
