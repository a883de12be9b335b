package review

import (
	"strings"
	"testing"
)

func TestBuildPositionsStandardStart(t *testing.T) {
	positions, skipped, err := BuildPositions("", []string{"e4", "e5", "Nf3"})
	if err != nil {
		t.Fatalf("BuildPositions: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(positions) != 4 {
		t.Fatalf("got %d positions, want 4", len(positions))
	}
	if positions[0].Move != nil {
		t.Error("root position must have no move")
	}
	if !strings.HasPrefix(positions[0].FEN, "rnbqkbnr/pppppppp") {
		t.Errorf("root FEN wrong: %s", positions[0].FEN)
	}
	if positions[1].Move.SAN != "e4" || positions[1].Move.UCI != "e2e4" {
		t.Errorf("first move recorded as %+v", positions[1].Move)
	}
	if positions[3].Move.UCI != "g1f3" {
		t.Errorf("third move UCI = %s, want g1f3", positions[3].Move.UCI)
	}
	if got := fenSideToMove(positions[1].FEN); got != "b" {
		t.Errorf("after e4 side to move = %q, want b", got)
	}
}

func TestBuildPositionsSkipsIllegalMoves(t *testing.T) {
	// Ke2 is not a legal black reply to e4; the ply is dropped and the
	// replay continues with black still to move.
	positions, skipped, err := BuildPositions("", []string{"e4", "Ke2", "e5", "Nf3"})
	if err != nil {
		t.Fatalf("BuildPositions: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	// e4 (white), Ke2 skipped, e5 (black), Nf3 (white).
	if len(positions) != 4 {
		t.Fatalf("got %d positions, want 4", len(positions))
	}
	if positions[2].Move.SAN != "e5" {
		t.Errorf("second kept move = %s, want e5", positions[2].Move.SAN)
	}
}

func TestBuildPositionsCustomStart(t *testing.T) {
	fen := "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1"
	positions, skipped, err := BuildPositions(fen, []string{"e4"})
	if err != nil {
		t.Fatalf("BuildPositions: %v", err)
	}
	if skipped != 0 || len(positions) != 2 {
		t.Fatalf("skipped=%d len=%d", skipped, len(positions))
	}
	if positions[1].Move.UCI != "e2e4" {
		t.Errorf("move UCI = %s", positions[1].Move.UCI)
	}
}

func TestBuildPositionsBadStartFEN(t *testing.T) {
	if _, _, err := BuildPositions("not a fen", []string{"e4"}); err == nil {
		t.Fatal("invalid start FEN accepted")
	}
}

func TestBuildPositionsNormalizesSAN(t *testing.T) {
	positions, skipped, err := BuildPositions("", []string{"e4", "c5", "Nf3"})
	if err != nil || skipped != 0 {
		t.Fatalf("err=%v skipped=%d", err, skipped)
	}
	if positions[3].Move.SAN != "Nf3" {
		t.Errorf("SAN = %q, want canonical Nf3", positions[3].Move.SAN)
	}
}

func TestDecodeFEN(t *testing.T) {
	pos, err := decodeFEN(StartingFEN)
	if err != nil {
		t.Fatalf("decodeFEN: %v", err)
	}
	if got := len(pos.ValidMoves()); got != 20 {
		t.Errorf("starting position has %d moves, want 20", got)
	}
	if _, err := decodeFEN("garbage"); err == nil {
		t.Error("garbage FEN accepted")
	}
}
