package review

import "testing"

func motifsOfType(motifs []Motif, t MotifType) []Motif {
	var out []Motif
	for _, m := range motifs {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func hasSquare(m Motif, sq string) bool {
	for _, s := range m.Squares {
		if s == sq {
			return true
		}
	}
	return false
}

func TestDetectKnightFork(t *testing.T) {
	var d MotifDetector
	// Nd5 forks the queen on c7 and the rook on e7.
	prev := "4k3/2q1r3/8/8/8/2N5/8/6K1 w - - 0 1"
	fen := "4k3/2q1r3/8/3N4/8/8/8/6K1 b - - 1 1"
	motifs, err := d.Detect(prev, fen, "c3d5")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	forks := motifsOfType(motifs, MotifFork)
	if len(forks) != 1 {
		t.Fatalf("got %d forks, want 1 (motifs: %+v)", len(forks), motifs)
	}
	f := forks[0]
	if f.From != "d5" {
		t.Errorf("fork From = %s, want d5", f.From)
	}
	if !hasSquare(f, "c7") || !hasSquare(f, "e7") {
		t.Errorf("fork squares = %v, want c7 and e7", f.Squares)
	}
	// Both forked pieces are also insufficiently defended against the
	// cheaper knight.
	hanging := motifsOfType(motifs, MotifHangingPiece)
	if len(hanging) != 2 {
		t.Errorf("got %d hanging pieces, want 2 (%+v)", len(hanging), hanging)
	}
}

func TestDetectRoyalFork(t *testing.T) {
	var d MotifDetector
	// Nf6+ attacks the king on g8 and the rook on d7. Only one non-king
	// target, but the combined weight carries it.
	prev := "6k1/3r4/8/8/4N3/8/8/6K1 w - - 0 1"
	fen := "6k1/3r4/5N2/8/8/8/8/6K1 b - - 1 1"
	motifs, err := d.Detect(prev, fen, "e4f6")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	forks := motifsOfType(motifs, MotifFork)
	if len(forks) != 1 {
		t.Fatalf("got %d forks, want 1 (motifs: %+v)", len(forks), motifs)
	}
	if forks[0].From != "f6" || !hasSquare(forks[0], "g8") || !hasSquare(forks[0], "d7") {
		t.Errorf("fork = %+v, want f6 hitting g8 and d7", forks[0])
	}
}

func TestDetectPin(t *testing.T) {
	var d MotifDetector
	// Bb5 pins the knight on c6 against the king.
	prev := "4k3/8/2n5/8/8/8/8/4KB2 w - - 0 1"
	fen := "4k3/8/2n5/1B6/8/8/8/4K3 b - - 1 1"
	motifs, err := d.Detect(prev, fen, "f1b5")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	pins := motifsOfType(motifs, MotifPin)
	if len(pins) != 1 {
		t.Fatalf("got %d pins, want 1 (motifs: %+v)", len(pins), motifs)
	}
	p := pins[0]
	if p.From != "b5" {
		t.Errorf("pin From = %s, want b5", p.From)
	}
	if len(p.Squares) != 2 || p.Squares[0] != "c6" || p.Squares[1] != "e8" {
		t.Errorf("pin squares = %v, want [c6 e8]", p.Squares)
	}
	if forks := motifsOfType(motifs, MotifFork); len(forks) != 0 {
		t.Errorf("unexpected fork: %+v", forks)
	}
}

func TestDetectDiscoveredAttack(t *testing.T) {
	var d MotifDetector
	// The knight steps off the e-file and the rook on e1 suddenly
	// bears on the queen.
	prev := "4k3/4q3/8/8/4N3/8/8/4R1K1 w - - 0 1"
	fen := "4k3/4q3/8/2N5/8/8/8/4R1K1 b - - 1 1"
	motifs, err := d.Detect(prev, fen, "e4c5")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	disc := motifsOfType(motifs, MotifDiscoveredAttack)
	if len(disc) != 1 {
		t.Fatalf("got %d discovered attacks, want 1 (motifs: %+v)", len(disc), motifs)
	}
	if disc[0].From != "e1" || !hasSquare(disc[0], "e7") {
		t.Errorf("discovered attack = %+v, want rook e1 hitting e7", disc[0])
	}
	// The uncovered rook also pins the queen to the king.
	pins := motifsOfType(motifs, MotifPin)
	if len(pins) != 1 || pins[0].From != "e1" {
		t.Errorf("expected the e1 rook pin as well, got %+v", pins)
	}
}

func TestDetectHangingPiece(t *testing.T) {
	var d MotifDetector
	// The rook on d8 ends up attacked twice and defended once. The
	// white rook on d1 stays covered by its king.
	prev := "3rk3/8/8/8/1N6/8/8/3RK3 w - - 0 1"
	fen := "3rk3/8/2N5/8/8/8/8/3RK3 b - - 1 1"
	motifs, err := d.Detect(prev, fen, "b4c6")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	hanging := motifsOfType(motifs, MotifHangingPiece)
	if len(hanging) != 1 {
		t.Fatalf("got %d hanging pieces, want 1 (motifs: %+v)", len(hanging), motifs)
	}
	if hanging[0].From != "d8" {
		t.Errorf("hanging From = %s, want d8", hanging[0].From)
	}
	if forks := motifsOfType(motifs, MotifFork); len(forks) != 0 {
		t.Errorf("a single attacked piece is not a fork: %+v", forks)
	}
}

func TestDetectMateThreat(t *testing.T) {
	var d MotifDetector
	// After the king slide white to move has Rd8#.
	prev := "5k2/5ppp/8/8/8/8/8/K2R4 b - - 0 1"
	fen := "6k1/5ppp/8/8/8/8/8/K2R4 w - - 1 2"
	motifs, err := d.Detect(prev, fen, "f8g8")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	threats := motifsOfType(motifs, MotifMateThreat)
	if len(threats) != 1 {
		t.Fatalf("got %d mate threats, want 1 (motifs: %+v)", len(threats), motifs)
	}
	if threats[0].Move != "Rd8#" {
		t.Errorf("mate threat move = %q, want Rd8#", threats[0].Move)
	}
	if !hasSquare(threats[0], "d8") {
		t.Errorf("mate threat squares = %v, want d8", threats[0].Squares)
	}
}

func TestDetectQuietMoveHasNoMotifs(t *testing.T) {
	var d MotifDetector
	fen := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	motifs, err := d.Detect(StartingFEN, fen, "e2e4")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(motifs) != 0 {
		t.Errorf("1. e4 should produce no motifs, got %+v", motifs)
	}
}

func TestDetectRejectsBadInput(t *testing.T) {
	var d MotifDetector
	if _, err := d.Detect("junk", StartingFEN, "e2e4"); err == nil {
		t.Error("bad previous FEN accepted")
	}
	if _, err := d.Detect(StartingFEN, StartingFEN, "e2e5"); err == nil {
		t.Error("illegal move accepted")
	}
}
