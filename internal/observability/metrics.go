package observability

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/vehicle-localization-sim/core"
)

// SimCollector bundles Prometheus metrics for the localization pipeline and
// provides a ready-to-use /metrics handler.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Runs           *prometheus.CounterVec
	StageDurations *prometheus.HistogramVec

	TopologyNodes   prometheus.Gauge
	TopologyAnchors prometheus.Gauge
	TopologyEdges   prometheus.Gauge

	LocalizationError prometheus.Histogram
	UnlocalizedNodes  prometheus.Gauge
}

// NewSimCollector registers the simulator's Prometheus metrics against the
// provided registerer, defaulting to the global registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_runs_total",
		Help: "Total number of simulation runs, labeled by algorithm and outcome.",
	}, []string{"algorithm", "outcome"})
	runs, err := registerCounterVec(reg, runs, "sim_runs_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sim_stage_duration_seconds",
		Help:    "Pipeline stage latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"stage"})
	durations, err = registerHistogramVec(reg, durations, "sim_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	nodes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_topology_nodes",
		Help: "Node count of the most recently generated topology.",
	}), "sim_topology_nodes")
	if err != nil {
		return nil, err
	}
	anchors, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_topology_anchors",
		Help: "Anchor count of the most recently generated topology.",
	}), "sim_topology_anchors")
	if err != nil {
		return nil, err
	}
	edges, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_topology_edges",
		Help: "Edge count of the most recently generated topology.",
	}), "sim_topology_edges")
	if err != nil {
		return nil, err
	}

	locErr := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_localization_error",
		Help:    "Per-node localization error in area units.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
	})
	locErr, err = registerHistogram(reg, locErr, "sim_localization_error")
	if err != nil {
		return nil, err
	}

	unlocalized, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_unlocalized_nodes",
		Help: "Unknown nodes the last run could not localize.",
	}), "sim_unlocalized_nodes")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:          gatherer,
		Runs:              runs,
		StageDurations:    durations,
		TopologyNodes:     nodes,
		TopologyAnchors:   anchors,
		TopologyEdges:     edges,
		LocalizationError: locErr,
		UnlocalizedNodes:  unlocalized,
	}, nil
}

// RecordRun counts a finished (or failed) run.
func (c *SimCollector) RecordRun(algorithm, outcome string) {
	if c == nil || c.Runs == nil {
		return
	}
	c.Runs.WithLabelValues(algorithm, outcome).Inc()
}

// ObserveStage records one pipeline stage duration.
func (c *SimCollector) ObserveStage(stage string, d time.Duration) {
	if c == nil || c.StageDurations == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(d.Seconds())
}

// SetTopologyCounts publishes the sizes of the latest generated topology.
func (c *SimCollector) SetTopologyCounts(nodes, anchors, edges int) {
	if c == nil {
		return
	}
	if c.TopologyNodes != nil {
		c.TopologyNodes.Set(float64(nodes))
	}
	if c.TopologyAnchors != nil {
		c.TopologyAnchors.Set(float64(anchors))
	}
	if c.TopologyEdges != nil {
		c.TopologyEdges.Set(float64(edges))
	}
}

// ObserveReport feeds accuracy results into the error histogram and the
// unlocalized gauge. NaN aggregates never reach Prometheus; only per-node
// errors are observed.
func (c *SimCollector) ObserveReport(report *core.AccuracyReport) {
	if c == nil || report == nil {
		return
	}
	if c.LocalizationError != nil {
		for _, e := range report.Errors {
			if !math.IsNaN(e) {
				c.LocalizationError.Observe(e)
			}
		}
	}
	if c.UnlocalizedNodes != nil {
		c.UnlocalizedNodes.Set(float64(report.Unlocalized))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
