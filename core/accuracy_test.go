package core

import (
	"math"
	"testing"
)

func TestEvaluateAccuracyExact(t *testing.T) {
	truth := map[NodeID]Vec2{
		3: {X: 10, Y: 20},
		4: {X: 30, Y: 40},
	}
	estimates := EstimatedPositions{
		3: {X: 10, Y: 20},
		4: {X: 30, Y: 40},
	}

	report := EvaluateAccuracy(truth, estimates)
	if report.Localized != 2 || report.Unlocalized != 0 {
		t.Fatalf("localized=%d unlocalized=%d, want 2/0", report.Localized, report.Unlocalized)
	}
	if report.MeanError != 0 || report.MedianError != 0 || report.MaxError != 0 {
		t.Fatalf("exact estimates must yield zero aggregates, got %+v", report)
	}
}

func TestEvaluateAccuracyMissingNode(t *testing.T) {
	truth := map[NodeID]Vec2{
		5: {X: 0, Y: 0},
		6: {X: 10, Y: 0},
		7: {X: 20, Y: 0},
	}
	estimates := EstimatedPositions{
		5: {X: 3, Y: 4}, // error 5
		7: {X: 20, Y: 1}, // error 1
	}

	report := EvaluateAccuracy(truth, estimates)
	if report.Localized != 2 || report.Unlocalized != 1 {
		t.Fatalf("localized=%d unlocalized=%d, want 2/1", report.Localized, report.Unlocalized)
	}
	if len(report.UnlocalizedIDs) != 1 || report.UnlocalizedIDs[0] != 6 {
		t.Fatalf("UnlocalizedIDs = %v, want [6]", report.UnlocalizedIDs)
	}
	if _, ok := report.Errors[6]; ok {
		t.Fatalf("unlocalized node must not appear in Errors")
	}
	if report.MeanError != 3 {
		t.Fatalf("MeanError = %v, want 3", report.MeanError)
	}
	if report.MedianError != 3 {
		t.Fatalf("MedianError = %v, want 3", report.MedianError)
	}
	if report.MaxError != 5 {
		t.Fatalf("MaxError = %v, want 5", report.MaxError)
	}
}

func TestEvaluateAccuracyNothingLocalized(t *testing.T) {
	truth := map[NodeID]Vec2{1: {X: 5, Y: 5}}

	report := EvaluateAccuracy(truth, EstimatedPositions{})
	if report.Localized != 0 || report.Unlocalized != 1 {
		t.Fatalf("localized=%d unlocalized=%d, want 0/1", report.Localized, report.Unlocalized)
	}
	if !math.IsNaN(report.MeanError) || !math.IsNaN(report.MedianError) || !math.IsNaN(report.MaxError) {
		t.Fatalf("aggregates over an empty localized set must be NaN, got %+v", report)
	}
}

func TestEvaluateAccuracyIgnoresExtraEstimates(t *testing.T) {
	truth := map[NodeID]Vec2{2: {X: 1, Y: 1}}
	estimates := EstimatedPositions{
		0: {X: 99, Y: 99}, // anchor echoed back, not in truth
		2: {X: 1, Y: 1},
	}

	report := EvaluateAccuracy(truth, estimates)
	if report.Localized != 1 || report.Unlocalized != 0 {
		t.Fatalf("localized=%d unlocalized=%d, want 1/0", report.Localized, report.Unlocalized)
	}
	if _, ok := report.Errors[0]; ok {
		t.Fatalf("estimate outside truth must be ignored")
	}
}
