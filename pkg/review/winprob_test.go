package review

import (
	"math"
	"testing"
)

func TestWinProbFromCentipawns(t *testing.T) {
	cases := []struct {
		cp   int
		want float64
	}{
		{0, 50},
		{100, 59.1},
		{-100, 40.9},
		{1000, 97.54},
		{-1000, 2.46},
	}
	for _, c := range cases {
		got := WinProbFromCentipawns(c.cp)
		if math.Abs(got-c.want) > 0.05 {
			t.Errorf("WinProbFromCentipawns(%d) = %.3f, want about %.2f", c.cp, got, c.want)
		}
	}
}

func TestWinProbBounds(t *testing.T) {
	for cp := -20000; cp <= 20000; cp += 250 {
		p := WinProbFromCentipawns(cp)
		if p <= 0 || p >= 100 {
			t.Fatalf("WinProbFromCentipawns(%d) = %f, out of (0, 100)", cp, p)
		}
	}
}

func TestWinProbMonotone(t *testing.T) {
	prev := WinProbFromCentipawns(-2000)
	for cp := -1999; cp <= 2000; cp++ {
		p := WinProbFromCentipawns(cp)
		if p < prev {
			t.Fatalf("win probability decreased at cp=%d: %f < %f", cp, p, prev)
		}
		prev = p
	}
}

func TestWinProbClampBeyondHorizon(t *testing.T) {
	if a, b := WinProbFromCentipawns(1000), WinProbFromCentipawns(5000); a != b {
		t.Errorf("clamp failed: prob(1000)=%f prob(5000)=%f", a, b)
	}
	if a, b := WinProbFromCentipawns(-1000), WinProbFromCentipawns(-5000); a != b {
		t.Errorf("clamp failed: prob(-1000)=%f prob(-5000)=%f", a, b)
	}
}

func TestWinProbFromMate(t *testing.T) {
	win := WinProbFromMate(3)
	loss := WinProbFromMate(-3)
	if win != WinProbFromCentipawns(1000) {
		t.Errorf("mate score should saturate the winning end, got %f", win)
	}
	if loss != WinProbFromCentipawns(-1000) {
		t.Errorf("mate score should saturate the losing end, got %f", loss)
	}
	if win <= WinProbFromCentipawns(900) {
		t.Errorf("mate for the mover should beat any clamped cp score")
	}
}

func TestWinProbFromScore(t *testing.T) {
	cp := Score{Type: ScoreCentipawn, Value: 120}
	mate := Score{Type: ScoreMate, Value: 2}
	if got, want := WinProbFromScore(cp), WinProbFromCentipawns(120); got != want {
		t.Errorf("cp dispatch: got %f want %f", got, want)
	}
	if got, want := WinProbFromScore(mate), WinProbFromMate(2); got != want {
		t.Errorf("mate dispatch: got %f want %f", got, want)
	}
}
