package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/huddle/pkg/agent/analysis"
	"github.com/m-mizutani/huddle/pkg/agent/research"
	"github.com/m-mizutani/huddle/pkg/catalog"
	"github.com/m-mizutani/huddle/pkg/memory"
	"github.com/m-mizutani/huddle/pkg/metrics"
	"github.com/m-mizutani/huddle/pkg/router"
	"github.com/m-mizutani/huddle/pkg/usecase/coordinator"
	"github.com/m-mizutani/huddle/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Knowledge base
	catalogPath string
	policyDir   string

	// Logging
	logLevel  string
	logFormat string

	// Agents
	seed   int64
	topK   int64
	metric string

	showMetrics bool
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML document catalog (built-in demo catalog if empty)",
			Sources:     cli.EnvVars("HUDDLE_CATALOG"),
			Destination: &cfg.catalogPath,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego routing policies (built-in rules if empty)",
			Sources:     cli.EnvVars("HUDDLE_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("HUDDLE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("HUDDLE_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.IntFlag{
			Name:        "seed",
			Usage:       "Seed for low-confidence scores of unmatched documents (0 for random)",
			Sources:     cli.EnvVars("HUDDLE_SEED"),
			Destination: &cfg.seed,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of documents retrieved per query",
			Value:       research.DefaultTopK,
			Sources:     cli.EnvVars("HUDDLE_TOP_K"),
			Destination: &cfg.topK,
		},
		&cli.StringFlag{
			Name:        "metric",
			Usage:       "Metric name reported by the analysis step",
			Value:       analysis.DefaultMetric,
			Sources:     cli.EnvVars("HUDDLE_METRIC"),
			Destination: &cfg.metric,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Print coordinator metrics when the command finishes",
			Sources:     cli.EnvVars("HUDDLE_METRICS"),
			Destination: &cfg.showMetrics,
		},
	}
}

// newLogger creates the logger configured by the log flags
func (cfg *config) newLogger(w io.Writer) *slog.Logger {
	return logging.NewWithFormat(cfg.logLevel, logging.Format(cfg.logFormat), w)
}

// newCatalog loads the configured catalog, or the built-in one
func (cfg *config) newCatalog() (*catalog.Catalog, error) {
	if cfg.catalogPath == "" {
		return catalog.Default()
	}

	c, err := catalog.Load(cfg.catalogPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load catalog")
	}
	return c, nil
}

// newRouter creates a policy router when a policy directory is given
func (cfg *config) newRouter(ctx context.Context) (router.Router, error) {
	if cfg.policyDir == "" {
		return router.NewRuleRouter(), nil
	}

	r, err := router.NewPolicyRouter(ctx, cfg.policyDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create policy router")
	}
	return r, nil
}

// session bundles a coordinator with the stores it was built over
type session struct {
	coord   *coordinator.Coordinator
	index   *memory.Index
	metrics *metrics.Collector
}

// newSession wires catalog, agents, router and memory into a coordinator
func (cfg *config) newSession(ctx context.Context) (*session, error) {
	if cfg.topK <= 0 {
		return nil, goerr.New("top-k must be positive", goerr.V("top-k", cfg.topK))
	}

	kb, err := cfg.newCatalog()
	if err != nil {
		return nil, err
	}

	r, err := cfg.newRouter(ctx)
	if err != nil {
		return nil, err
	}

	var researchOpts []research.Option
	if cfg.seed != 0 {
		researchOpts = append(researchOpts, research.WithSeed(uint64(cfg.seed)))
	}

	index := memory.New()
	collector := metrics.New()
	coord := coordinator.New(
		research.New(kb.Documents, researchOpts...),
		analysis.New(),
		index,
		coordinator.WithRouter(r),
		coordinator.WithRecorder(collector),
		coordinator.WithTopK(int(cfg.topK)),
		coordinator.WithMetric(cfg.metric),
	)

	logging.From(ctx).Debug("session created",
		"session_id", coord.SessionID(),
		"documents", len(kb.Documents),
		"policy_dir", cfg.policyDir,
	)

	return &session{coord: coord, index: index, metrics: collector}, nil
}

// printMetrics writes the metrics summary when --metrics is set
func (cfg *config) printMetrics(w io.Writer, s *session) error {
	if !cfg.showMetrics {
		return nil
	}
	return s.metrics.WriteText(w)
}
