package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/signalsfoundry/vehicle-localization-sim/core"
	"github.com/signalsfoundry/vehicle-localization-sim/internal/logging"
	"github.com/signalsfoundry/vehicle-localization-sim/internal/observability"
	"github.com/signalsfoundry/vehicle-localization-sim/internal/sim"
	"github.com/signalsfoundry/vehicle-localization-sim/localize"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a JSON scenario file; flags below are ignored when set")
	vehicles := flag.Int("vehicles", 10, "total number of vehicles")
	anchors := flag.Int("anchors", 3, "number of anchor nodes")
	commRange := flag.Float64("range", 70, "communication range")
	areaSize := flag.Float64("area", 100, "side length of the square simulation area")
	seed := flag.Int64("seed", 1, "random seed (runs with equal seeds reproduce exactly)")
	noise := flag.Float64("noise", 0, "gaussian measurement noise stddev (0 = exact distances)")
	algorithm := flag.String("algorithm", "trilateration", "localization algorithm name")
	trials := flag.Int("trials", 1, "number of trials with derived seeds")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (empty = disabled)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	scenario := &core.Scenario{
		Config: core.Config{
			NumVehicles: *vehicles,
			NumAnchors:  *anchors,
			CommRange:   *commRange,
			AreaSize:    *areaSize,
			Seed:        *seed,
			NoiseStdDev: *noise,
		},
		Algorithm: *algorithm,
		Trials:    *trials,
	}
	if *scenarioPath != "" {
		f, err := os.Open(*scenarioPath)
		if err != nil {
			log.Error(ctx, "failed to open scenario", logging.String("path", *scenarioPath), logging.String("error", err.Error()))
			os.Exit(1)
		}
		scenario, err = core.LoadScenario(f)
		f.Close()
		if err != nil {
			log.Error(ctx, "failed to load scenario", logging.String("error", err.Error()))
			os.Exit(1)
		}
	}

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	runner := sim.NewRunner(sim.WithLogger(log), sim.WithMetrics(collector))
	opts := localize.Options{MaxRounds: scenario.MaxRounds, Tolerance: scenario.Tolerance}

	results, err := runner.RunTrials(ctx, scenario.Config, scenario.Algorithm, opts, scenario.Trials)
	if err != nil {
		log.Error(ctx, "simulation failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	for i, res := range results {
		printResult(i, res)
	}
	printAggregate(results)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func printResult(trial int, res *sim.RunResult) {
	rep := res.Report
	fmt.Printf("Trial %d (run %s, algorithm %s): localized %d/%d, unlocalized %d\n",
		trial, res.RunID, res.Algorithm,
		rep.Localized, rep.Localized+rep.Unlocalized, rep.Unlocalized)
	fmt.Printf("  mean=%.3f median=%.3f max=%.3f\n", rep.MeanError, rep.MedianError, rep.MaxError)

	ids := make([]core.NodeID, 0, len(rep.Errors))
	for id := range rep.Errors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		actual := res.Topology.Node(id).TruePosition
		est := res.Estimates[id]
		fmt.Printf("  ↳ node %-3d true=(%7.2f, %7.2f) est=(%7.2f, %7.2f) err=%6.3f\n",
			id, actual.X, actual.Y, est.X, est.Y, rep.Errors[id])
	}
	for _, id := range rep.UnlocalizedIDs {
		fmt.Printf("  ↳ node %-3d unlocalized\n", id)
	}
}

func printAggregate(results []*sim.RunResult) {
	if len(results) <= 1 {
		return
	}
	sum, n := 0.0, 0
	for _, res := range results {
		if !math.IsNaN(res.Report.MeanError) {
			sum += res.Report.MeanError
			n++
		}
	}
	if n == 0 {
		fmt.Printf("Aggregate over %d trials: no localized nodes\n", len(results))
		return
	}
	fmt.Printf("Aggregate over %d trials: mean of per-trial mean errors = %.3f\n", len(results), sum/float64(n))
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
