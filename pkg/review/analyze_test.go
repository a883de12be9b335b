package review

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestAnalyzeGameFullPipeline(t *testing.T) {
	positions, _, err := BuildPositions("", []string{"e4", "e5", "Nf3"})
	if err != nil {
		t.Fatalf("BuildPositions: %v", err)
	}
	table := map[string][]EvaluationLine{
		positions[0].FEN: {cpLine(1, 20, "e2e4"), cpLine(2, 10)},
		positions[2].FEN: {cpLine(1, 25, "g1f3"), cpLine(2, 10)},
		positions[3].FEN: {cpLine(1, -15, "b8c6"), cpLine(2, -25)},
	}
	rec := &callRecorder{}
	pool := newStubPool(
		&scriptedWorker{rec: rec, table: table},
		&scriptedWorker{rec: rec, table: table},
	)
	book, err := NewOpeningBook()
	if err != nil {
		t.Fatalf("NewOpeningBook: %v", err)
	}
	a := NewAnalyzer(pool, book, nil, zap.NewNop().Sugar())

	report, err := a.AnalyzeGame(context.Background(), positions, Options{}, nil)
	if err != nil {
		t.Fatalf("AnalyzeGame: %v", err)
	}
	if len(report.Positions) != len(positions) {
		t.Fatalf("report has %d positions, want %d", len(report.Positions), len(positions))
	}
	if report.SampledPositions != 3 || report.FallbackEvals != 0 {
		t.Errorf("stats = %+v", report)
	}

	// Only the final pair carries evaluations on both ends, so only the
	// last move gets a label. It is still theory, hence book.
	if got := report.Positions[3].Classification; got != ClassificationBook {
		t.Errorf("ply 3 classified %q, want book", got)
	}
	for _, i := range []int{1, 2} {
		if got := report.Positions[i].Classification; got != Classification("") {
			t.Errorf("ply %d classified %q, want unlabeled", i, got)
		}
	}

	wantOpenings := []string{"", "King's Pawn Opening", "King's Pawn Game", "King's Knight Opening"}
	for i, want := range wantOpenings {
		if got := report.Positions[i].Opening; got != want {
			t.Errorf("ply %d opening = %q, want %q", i, got, want)
		}
	}

	if got := report.Summary[ClassificationBook]; got.White != 1 || got.Black != 0 {
		t.Errorf("book tally = %+v, want white 1", got)
	}
	if report.Accuracy.Black != 100 {
		t.Errorf("black accuracy = %v, want 100 with no measured black moves", report.Accuracy.Black)
	}
	if report.Accuracy.White <= 90 || report.Accuracy.White > 100 {
		t.Errorf("white accuracy = %v, want a high score for a small drop", report.Accuracy.White)
	}
}

func TestAnalyzeGameDetectsMotifs(t *testing.T) {
	start := "5k2/5ppp/8/8/8/8/8/K2R4 b - - 0 1"
	positions, _, err := BuildPositions(start, []string{"Kg8"})
	if err != nil {
		t.Fatalf("BuildPositions: %v", err)
	}
	table := map[string][]EvaluationLine{
		positions[0].FEN: {cpLine(1, -900, "f8g8"), cpLine(2, -950)},
		positions[1].FEN: {cpLine(1, 900, "d1d8"), cpLine(2, 850)},
	}
	rec := &callRecorder{}
	pool := newStubPool(&scriptedWorker{rec: rec, table: table})
	a := NewAnalyzer(pool, nil, nil, zap.NewNop().Sugar())

	var progressCalls [][2]int
	report, err := a.AnalyzeGame(context.Background(), positions, Options{},
		func(processed, total int) { progressCalls = append(progressCalls, [2]int{processed, total}) })
	if err != nil {
		t.Fatalf("AnalyzeGame: %v", err)
	}

	if got := report.Positions[1].Classification; got != ClassificationBest {
		t.Errorf("classified %q, want best for following the top line", got)
	}
	threats := motifsOfType(report.Positions[1].Motifs, MotifMateThreat)
	if len(threats) != 1 || threats[0].Move != "Rd8#" {
		t.Errorf("mate threat = %+v, want Rd8#", threats)
	}
	if got := report.Summary[ClassificationBest]; got.Black != 1 || got.White != 0 {
		t.Errorf("best tally = %+v, want black 1", got)
	}
	if report.Accuracy.White != 100 || report.Accuracy.Black != 100 {
		t.Errorf("accuracy = %+v, want 100/100", report.Accuracy)
	}
	if len(progressCalls) != 1 || progressCalls[0] != [2]int{2, 2} {
		t.Errorf("progress calls = %v, want one (2, 2) report", progressCalls)
	}
}

func TestAnalyzeGameEmptyInput(t *testing.T) {
	a := NewAnalyzer(newStubPool(), nil, nil, zap.NewNop().Sugar())
	if _, err := a.AnalyzeGame(context.Background(), nil, Options{}, nil); !errors.Is(err, ErrNoPositions) {
		t.Errorf("got %v, want ErrNoPositions", err)
	}
}

func TestBestMoveHint(t *testing.T) {
	rec := &callRecorder{}
	pool := newStubPool(&scriptedWorker{rec: rec, best: "e2e4"})
	a := NewAnalyzer(pool, nil, nil, zap.NewNop().Sugar())

	move, err := a.BestMoveHint(context.Background(), StartingFEN, 35, 0)
	if err != nil {
		t.Fatalf("BestMoveHint: %v", err)
	}
	if move != "e2e4" {
		t.Errorf("hint = %q, want e2e4", move)
	}
	calls := rec.all()
	if len(calls) != 1 || calls[0].skill != maxSkillLevel || calls[0].depth != DefaultDepth {
		t.Errorf("hint call = %+v, want clamped skill and default depth", calls)
	}
	if !pool.allIdle() {
		t.Error("worker not released after the hint")
	}

	if _, err := a.BestMoveHint(context.Background(), "garbage", 10, 12); err == nil {
		t.Error("bad fen accepted")
	}
	if got := rec.count(); got != 1 {
		t.Errorf("bad fen still reached the engine: %d calls", got)
	}
}
