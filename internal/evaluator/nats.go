package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/evofunk/internal/genome"
)

// ============================================================================
// NATS EVALUATOR CLIENT
// ============================================================================

// NATSConfig configures the request/reply evaluator client.
type NATSConfig struct {
	URL     string
	Subject string
	Timeout time.Duration
}

// DefaultNATSConfig returns the default client settings.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:     nats.DefaultURL,
		Subject: "evolution.evaluate.request",
		Timeout: 2 * time.Minute,
	}
}

// EvaluationRequest is published for each offspring: the genome identity
// plus its strategy view in the execution system's native format, so the
// backtest service needs no knowledge of engine internals.
type EvaluationRequest struct {
	GenomeID   string              `json:"genome_id"`
	Generation int                 `json:"generation"`
	Strategy   genome.StrategyView `json:"strategy"`
}

// EvaluationReply carries the metrics back, or a failure description.
type EvaluationReply struct {
	GenomeID string                  `json:"genome_id"`
	Metrics  *genome.BacktestMetrics `json:"metrics,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// NATSEvaluator asks the platform's backtest service to evaluate genomes
// over NATS request/reply. Its Evaluate method satisfies Func.
type NATSEvaluator struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewNATSEvaluator connects to NATS with reconnect handling.
func NewNATSEvaluator(cfg NATSConfig) (*NATSEvaluator, error) {
	nc, err := nats.Connect(
		cfg.URL,
		nats.Name("evofunk-evaluator"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger := log.With().Str("component", "nats_evaluator").Logger()
	logger.Info().
		Str("url", cfg.URL).
		Str("subject", cfg.Subject).
		Msg("NATS evaluator connected")

	return &NATSEvaluator{
		nc:      nc,
		subject: cfg.Subject,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Evaluate sends the genome's strategy view to the backtest service and
// waits for its metrics. The per-request deadline is the shorter of the
// configured timeout and the caller's context.
func (e *NATSEvaluator) Evaluate(ctx context.Context, g *genome.Genome) (*genome.BacktestMetrics, error) {
	req := EvaluationRequest{
		GenomeID:   g.ID.String(),
		Generation: g.Generation,
		Strategy:   g.ToStrategyView(),
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal evaluation request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	msg, err := e.nc.RequestWithContext(reqCtx, e.subject, payload)
	if err != nil {
		return nil, fmt.Errorf("evaluation request failed: %w", err)
	}

	var reply EvaluationReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("failed to unmarshal evaluation reply: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("evaluator reported failure: %s", reply.Error)
	}
	if reply.Metrics == nil {
		return nil, fmt.Errorf("evaluator reply carried no metrics")
	}

	e.logger.Debug().
		Str("genome_id", req.GenomeID).
		Float64("sharpe", reply.Metrics.SharpeRatio).
		Int("trades", reply.Metrics.TotalTrades).
		Msg("Genome evaluated")

	return reply.Metrics, nil
}

// Close drains the NATS connection.
func (e *NATSEvaluator) Close() {
	if e.nc != nil {
		e.nc.Close()
	}
}
