package config

import (
	"fmt"
	"strings"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one validation pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("config validation failed: %s", strings.Join(msgs, "; "))
}

var validCrossoverMethods = map[string]bool{
	"single_point": true,
	"multi_point":  true,
	"uniform":      true,
	"blend":        true,
	"adaptive":     true,
}

var validSelectionMethods = map[string]bool{
	"tournament": true,
	"roulette":   true,
	"rank":       true,
	"truncation": true,
}

// Validate checks the whole configuration and returns every violation at once.
func (c *Config) Validate() error {
	var errs ValidationErrors

	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		errs = append(errs, ValidationError{
			Field:   "app.environment",
			Message: fmt.Sprintf("must be development, staging, or production, got %q", c.App.Environment),
		})
	}

	ev := c.Evolution

	if ev.PopulationSize < 2 {
		errs = append(errs, ValidationError{Field: "evolution.population_size", Message: "must be at least 2"})
	}
	if ev.SeedSize < ev.PopulationSize {
		errs = append(errs, ValidationError{Field: "evolution.seed_size", Message: "must be at least population_size"})
	}
	if ev.OffspringCount < 1 {
		errs = append(errs, ValidationError{Field: "evolution.offspring_count", Message: "must be positive"})
	}
	if ev.CrossoverShare < 0 || ev.CrossoverShare > 1 {
		errs = append(errs, ValidationError{Field: "evolution.crossover_share", Message: "must be in [0, 1]"})
	}
	if ev.MaxGenerations < 1 {
		errs = append(errs, ValidationError{Field: "evolution.max_generations", Message: "must be positive"})
	}
	if ev.ConvergenceThreshold <= 0 {
		errs = append(errs, ValidationError{Field: "evolution.convergence_threshold", Message: "must be positive"})
	}
	if ev.StagnationLimit < 1 {
		errs = append(errs, ValidationError{Field: "evolution.stagnation_limit", Message: "must be positive"})
	}
	if ev.EliteCount < 0 {
		errs = append(errs, ValidationError{Field: "evolution.elite_count", Message: "must be non-negative"})
	}
	if ev.EliteCount >= ev.PopulationSize {
		errs = append(errs, ValidationError{Field: "evolution.elite_count", Message: "must be less than population_size"})
	}
	if ev.MutationRate <= 0 || ev.MutationRate > 1 {
		errs = append(errs, ValidationError{Field: "evolution.mutation_rate", Message: "must be in (0, 1]"})
	}
	if ev.MutationStrength <= 0 || ev.MutationStrength > 1 {
		errs = append(errs, ValidationError{Field: "evolution.mutation_strength", Message: "must be in (0, 1]"})
	}
	if ev.CrossoverRate < 0 || ev.CrossoverRate > 1 {
		errs = append(errs, ValidationError{Field: "evolution.crossover_rate", Message: "must be in [0, 1]"})
	}
	if !validCrossoverMethods[ev.CrossoverMethod] {
		errs = append(errs, ValidationError{
			Field:   "evolution.crossover_method",
			Message: fmt.Sprintf("unknown method %q", ev.CrossoverMethod),
		})
	}
	if ev.UniformRate <= 0 || ev.UniformRate >= 1 {
		errs = append(errs, ValidationError{Field: "evolution.uniform_rate", Message: "must be in (0, 1)"})
	}
	if ev.BlendAlpha < 0 || ev.BlendAlpha > 1 {
		errs = append(errs, ValidationError{Field: "evolution.blend_alpha", Message: "must be in [0, 1]"})
	}
	if !validSelectionMethods[ev.SelectionMethod] {
		errs = append(errs, ValidationError{
			Field:   "evolution.selection_method",
			Message: fmt.Sprintf("unknown method %q", ev.SelectionMethod),
		})
	}
	if ev.TournamentSize < 2 {
		errs = append(errs, ValidationError{Field: "evolution.tournament_size", Message: "must be at least 2"})
	}
	if ev.DiversityFraction < 0 || ev.DiversityFraction > 1 {
		errs = append(errs, ValidationError{Field: "evolution.diversity_fraction", Message: "must be in [0, 1]"})
	}
	if ev.EvalWorkers < 1 {
		errs = append(errs, ValidationError{Field: "evolution.eval_workers", Message: "must be positive"})
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, ValidationError{Field: "database.host", Message: "required when database is enabled"})
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			errs = append(errs, ValidationError{Field: "database.port", Message: "must be a valid port"})
		}
		if c.Database.Database == "" {
			errs = append(errs, ValidationError{Field: "database.database", Message: "required when database is enabled"})
		}
	}

	if c.NATS.URL == "" {
		errs = append(errs, ValidationError{Field: "nats.url", Message: "required"})
	}
	if c.NATS.Subject == "" {
		errs = append(errs, ValidationError{Field: "nats.subject", Message: "required"})
	}
	if c.NATS.TimeoutMS < 1 {
		errs = append(errs, ValidationError{Field: "nats.timeout_ms", Message: "must be positive"})
	}

	if c.Monitoring.EnableMetrics && (c.Monitoring.PrometheusPort < 1 || c.Monitoring.PrometheusPort > 65535) {
		errs = append(errs, ValidationError{Field: "monitoring.prometheus_port", Message: "must be a valid port"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
