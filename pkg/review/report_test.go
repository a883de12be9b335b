package review

import "testing"

func TestMoveAccuracyCurve(t *testing.T) {
	if a := moveAccuracy(0); a < 99.9 || a > 100 {
		t.Errorf("moveAccuracy(0) = %v, want ~100", a)
	}
	if a := moveAccuracy(100); a != 0 {
		t.Errorf("moveAccuracy(100) = %v, want 0 after clamping", a)
	}
	prev := moveAccuracy(0)
	for drop := 1.0; drop <= 60; drop++ {
		a := moveAccuracy(drop)
		if a >= prev {
			t.Fatalf("moveAccuracy not decreasing at drop %.0f: %v >= %v", drop, a, prev)
		}
		prev = a
	}
}

func TestAggregate(t *testing.T) {
	afterE4 := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	afterF5 := "rnbqkbnr/ppppp1pp/8/5p2/4P3/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 2"

	positions := []EvaluatedPosition{
		evalPos(StartingFEN, nil, cpLine(1, 20, "e2e4"), cpLine(2, 10)),
		// White's move loses nothing.
		evalPos(afterE4, &MoveInfo{SAN: "e4", UCI: "e2e4"}, cpLine(1, -20), cpLine(2, -30)),
		// Black's reply hands white a winning position.
		evalPos(afterF5, &MoveInfo{SAN: "f5", UCI: "f7f5"}, cpLine(1, 1000), cpLine(2, 900)),
	}
	positions[1].Classification = ClassificationBest
	positions[2].Classification = ClassificationBlunder

	report := Aggregator{}.Aggregate(positions, BatchStats{Sampled: 3, FallbackEvals: 1})

	if len(report.Positions) != 3 {
		t.Fatalf("report carries %d positions, want 3", len(report.Positions))
	}
	if report.SampledPositions != 3 || report.FallbackEvals != 1 {
		t.Errorf("stats not carried over: %+v", report)
	}
	if report.Accuracy.White != 100 {
		t.Errorf("white accuracy = %v, want 100 for a zero-drop move", report.Accuracy.White)
	}
	if report.Accuracy.Black <= 0 || report.Accuracy.Black >= 20 {
		t.Errorf("black accuracy = %v, want a single-digit-ish score for a huge drop", report.Accuracy.Black)
	}
	if got := report.Summary[ClassificationBest]; got.White != 1 || got.Black != 0 {
		t.Errorf("best tally = %+v, want white 1", got)
	}
	if got := report.Summary[ClassificationBlunder]; got.White != 0 || got.Black != 1 {
		t.Errorf("blunder tally = %+v, want black 1", got)
	}
	if len(report.Summary) != 2 {
		t.Errorf("summary has %d labels, want 2: %+v", len(report.Summary), report.Summary)
	}
}

func TestAggregateSkipsUnmeasuredPlies(t *testing.T) {
	afterE4 := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	positions := []EvaluatedPosition{
		evalPos(StartingFEN, nil),
		// Sampler skipped the root, so this move has no before-lines.
		evalPos(afterE4, &MoveInfo{SAN: "e4", UCI: "e2e4"}, cpLine(1, -20), cpLine(2, -30)),
	}
	positions[1].Classification = ClassificationBest

	report := Aggregator{}.Aggregate(positions, BatchStats{Sampled: 1})
	if report.Accuracy.White != 100 || report.Accuracy.Black != 100 {
		t.Errorf("accuracy = %+v, want 100/100 with nothing measured", report.Accuracy)
	}
	if len(report.Summary) != 0 {
		t.Errorf("summary should stay empty for unmeasured moves: %+v", report.Summary)
	}
}

func TestAggregateEmptyGame(t *testing.T) {
	report := Aggregator{}.Aggregate([]EvaluatedPosition{evalPos(StartingFEN, nil)}, BatchStats{Sampled: 1})
	if report.Accuracy.White != 100 || report.Accuracy.Black != 100 {
		t.Errorf("accuracy = %+v, want 100/100", report.Accuracy)
	}
}
