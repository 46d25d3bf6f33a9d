// Package sim orchestrates the single-pass localization pipeline:
// topology generation, position estimation, accuracy evaluation. Each
// stage consumes immutable inputs and produces a fresh structure; there is
// no feedback loop into the generator.
package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/vehicle-localization-sim/core"
	"github.com/signalsfoundry/vehicle-localization-sim/internal/logging"
	"github.com/signalsfoundry/vehicle-localization-sim/internal/observability"
	"github.com/signalsfoundry/vehicle-localization-sim/localize"
)

// RunResult bundles everything one pipeline pass produced. Topology and
// Estimates are exactly what a presentation layer needs to draw the
// network and the localization outcome.
type RunResult struct {
	RunID     string
	Algorithm string
	Topology  *core.Topology
	Estimates core.EstimatedPositions
	Report    *core.AccuracyReport
}

// Runner wires the pipeline stages together with logging, metrics and
// tracing. The zero value is not usable; construct with NewRunner.
type Runner struct {
	log     logging.Logger
	metrics *observability.SimCollector
	tracer  trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(log logging.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithMetrics sets the Prometheus collector.
func WithMetrics(m *observability.SimCollector) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner builds a Runner. Missing collaborators default to no-ops so
// tests can construct a bare runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		log:    logging.Noop(),
		tracer: otel.Tracer("vehicle-localization-sim"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one generate → estimate → evaluate pass. Configuration
// errors and unsatisfiable topologies are returned to the caller;
// estimator partial results are normal and show up in the report as
// unlocalized nodes.
func (r *Runner) Run(ctx context.Context, cfg core.Config, algorithm string, opts localize.Options) (*RunResult, error) {
	ctx, log := logging.WithRunLogger(ctx, r.log)
	runID := logging.RunIDFromContext(ctx)

	ctx, span := r.tracer.Start(ctx, "sim.run",
		trace.WithAttributes(attribute.String("algorithm", algorithm)))
	defer span.End()

	opts.AreaSize = cfg.AreaSize
	estimator, err := localize.New(algorithm, opts)
	if err != nil {
		r.metrics.RecordRun(algorithm, "unknown_algorithm")
		return nil, err
	}

	topo, err := r.generate(ctx, log, cfg)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidConfig):
			r.metrics.RecordRun(algorithm, "invalid_config")
		case errors.Is(err, core.ErrTopologyUnsatisfiable):
			r.metrics.RecordRun(algorithm, "unsatisfiable")
		default:
			r.metrics.RecordRun(algorithm, "error")
		}
		return nil, err
	}

	estimates, err := r.estimate(ctx, log, estimator, topo)
	if err != nil {
		r.metrics.RecordRun(algorithm, "estimator_error")
		return nil, fmt.Errorf("estimator %q: %w", algorithm, err)
	}

	report := r.evaluate(ctx, log, topo, estimates)
	r.metrics.RecordRun(algorithm, "ok")

	return &RunResult{
		RunID:     runID,
		Algorithm: algorithm,
		Topology:  topo,
		Estimates: estimates,
		Report:    report,
	}, nil
}

// RunTrials repeats the pipeline with seeds derived from cfg.Seed. Useful
// for statistical comparisons (e.g. noisy vs. noiseless accuracy) where a
// single draw proves nothing.
func (r *Runner) RunTrials(ctx context.Context, cfg core.Config, algorithm string, opts localize.Options, trials int) ([]*RunResult, error) {
	if trials <= 0 {
		trials = 1
	}
	results := make([]*RunResult, 0, trials)
	for i := 0; i < trials; i++ {
		trialCfg := cfg
		trialCfg.Seed = cfg.Seed + int64(i)
		res, err := r.Run(ctx, trialCfg, algorithm, opts)
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) generate(ctx context.Context, log logging.Logger, cfg core.Config) (*core.Topology, error) {
	ctx, span := r.tracer.Start(ctx, "sim.generate")
	defer span.End()

	start := time.Now()
	gen, err := core.NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	topo, err := gen.Generate()
	r.metrics.ObserveStage("generate", time.Since(start))
	if err != nil {
		log.Warn(ctx, "topology generation failed", logging.String("error", err.Error()))
		return nil, err
	}

	r.metrics.SetTopologyCounts(topo.NumNodes(), topo.NumAnchors(), topo.NumEdges())
	log.Info(ctx, "topology generated",
		logging.Int("nodes", topo.NumNodes()),
		logging.Int("anchors", topo.NumAnchors()),
		logging.Int("edges", topo.NumEdges()),
	)
	return topo, nil
}

func (r *Runner) estimate(ctx context.Context, log logging.Logger, estimator localize.Estimator, topo *core.Topology) (core.EstimatedPositions, error) {
	ctx, span := r.tracer.Start(ctx, "sim.estimate")
	defer span.End()

	start := time.Now()
	estimates, err := estimator.Estimate(topo.AnchorPositions(), topo.Measurements())
	r.metrics.ObserveStage("estimate", time.Since(start))
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "estimation finished",
		logging.String("algorithm", estimator.Name()),
		logging.Int("estimated", len(estimates)),
	)
	return estimates, nil
}

func (r *Runner) evaluate(ctx context.Context, log logging.Logger, topo *core.Topology, estimates core.EstimatedPositions) *core.AccuracyReport {
	ctx, span := r.tracer.Start(ctx, "sim.evaluate")
	defer span.End()

	start := time.Now()
	report := core.EvaluateAccuracy(topo.UnknownTruePositions(), estimates)
	r.metrics.ObserveStage("evaluate", time.Since(start))
	r.metrics.ObserveReport(report)

	log.Info(ctx, "accuracy evaluated",
		logging.Int("localized", report.Localized),
		logging.Int("unlocalized", report.Unlocalized),
		logging.Float64("mean_error", report.MeanError),
		logging.Float64("max_error", report.MaxError),
	)
	return report
}
