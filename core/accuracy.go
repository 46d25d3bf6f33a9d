package core

import (
	"math"
	"sort"
)

// AccuracyReport compares estimated against true positions for the unknown
// nodes of one run. Nodes missing from the estimate are accounted as
// unlocalized; they never contribute a zero error to the aggregates.
type AccuracyReport struct {
	// Errors holds the euclidean error for every localized unknown node.
	Errors map[NodeID]float64

	// UnlocalizedIDs lists unknown nodes absent from the estimate, sorted.
	UnlocalizedIDs []NodeID

	Localized   int
	Unlocalized int

	// Aggregates over the localized set. NaN when nothing was localized;
	// callers render that as "undefined" rather than crashing on it.
	MeanError   float64
	MedianError float64
	MaxError    float64
}

// EvaluateAccuracy scores estimates against ground truth. It performs no
// estimation itself; truth must cover exactly the unknown nodes. Estimates
// for IDs outside truth (e.g. anchors an algorithm echoed back) are
// ignored.
func EvaluateAccuracy(truth map[NodeID]Vec2, estimates EstimatedPositions) *AccuracyReport {
	report := &AccuracyReport{
		Errors: make(map[NodeID]float64),
	}

	errs := make([]float64, 0, len(truth))
	for id, actual := range truth {
		est, ok := estimates[id]
		if !ok {
			report.UnlocalizedIDs = append(report.UnlocalizedIDs, id)
			continue
		}
		e := actual.DistanceTo(est)
		report.Errors[id] = e
		errs = append(errs, e)
	}

	sort.Slice(report.UnlocalizedIDs, func(i, j int) bool {
		return report.UnlocalizedIDs[i] < report.UnlocalizedIDs[j]
	})
	report.Localized = len(errs)
	report.Unlocalized = len(report.UnlocalizedIDs)

	if len(errs) == 0 {
		report.MeanError = math.NaN()
		report.MedianError = math.NaN()
		report.MaxError = math.NaN()
		return report
	}

	sort.Float64s(errs)
	sum := 0.0
	for _, e := range errs {
		sum += e
	}
	report.MeanError = sum / float64(len(errs))
	report.MaxError = errs[len(errs)-1]
	if n := len(errs); n%2 == 1 {
		report.MedianError = errs[n/2]
	} else {
		report.MedianError = (errs[n/2-1] + errs[n/2]) / 2
	}
	return report
}
