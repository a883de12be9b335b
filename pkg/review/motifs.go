package review

import (
	"fmt"

	"github.com/notnil/chess"
)

const (
	kingValue = 100

	// minForkValue is the combined material weight (rook and pawn)
	// at which a two-target fork counts even when one target is the
	// king.
	minForkValue = 6
)

var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
	chess.King:   kingValue,
}

func materialValue(t chess.PieceType) int {
	return pieceValues[t]
}

type delta struct{ df, dr int }

var (
	orthogonalDirs = []delta{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalDirs   = []delta{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	allDirs        = append(append([]delta{}, orthogonalDirs...), diagonalDirs...)
	knightJumps    = []delta{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
)

func squareAt(file, rank int) (chess.Square, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, false
	}
	return chess.Square(rank*8 + file), true
}

func offset(sq chess.Square, d delta, steps int) (chess.Square, bool) {
	return squareAt(int(sq.File())+d.df*steps, int(sq.Rank())+d.dr*steps)
}

// attackSquares returns the squares the piece on from attacks,
// including occupied ones. Pawn attacks are the capture diagonals
// regardless of occupancy.
func attackSquares(b map[chess.Square]chess.Piece, from chess.Square) []chess.Square {
	p, ok := b[from]
	if !ok {
		return nil
	}
	var out []chess.Square
	appendIf := func(sq chess.Square, ok bool) {
		if ok {
			out = append(out, sq)
		}
	}
	switch p.Type() {
	case chess.Pawn:
		dr := 1
		if p.Color() == chess.Black {
			dr = -1
		}
		appendIf(offset(from, delta{-1, dr}, 1))
		appendIf(offset(from, delta{1, dr}, 1))
	case chess.Knight:
		for _, d := range knightJumps {
			appendIf(offset(from, d, 1))
		}
	case chess.King:
		for _, d := range allDirs {
			appendIf(offset(from, d, 1))
		}
	case chess.Bishop:
		out = rayAttacks(b, from, diagonalDirs)
	case chess.Rook:
		out = rayAttacks(b, from, orthogonalDirs)
	case chess.Queen:
		out = rayAttacks(b, from, allDirs)
	}
	return out
}

func rayAttacks(b map[chess.Square]chess.Piece, from chess.Square, dirs []delta) []chess.Square {
	var out []chess.Square
	for _, d := range dirs {
		for step := 1; ; step++ {
			sq, ok := offset(from, d, step)
			if !ok {
				break
			}
			out = append(out, sq)
			if _, occupied := b[sq]; occupied {
				break
			}
		}
	}
	return out
}

// attackersOf returns the squares of all pieces of the given color
// that attack target.
func attackersOf(b map[chess.Square]chess.Piece, target chess.Square, by chess.Color) []chess.Square {
	var out []chess.Square
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p, ok := b[sq]
		if !ok || p.Color() != by {
			continue
		}
		for _, a := range attackSquares(b, sq) {
			if a == target {
				out = append(out, sq)
				break
			}
		}
	}
	return out
}

// firstPiece walks from sq in direction d and returns the first
// occupied square it meets.
func firstPiece(b map[chess.Square]chess.Piece, sq chess.Square, d delta) (chess.Square, chess.Piece, bool) {
	for step := 1; ; step++ {
		s, ok := offset(sq, d, step)
		if !ok {
			return 0, chess.NoPiece, false
		}
		if p, occupied := b[s]; occupied {
			return s, p, true
		}
	}
}

func slidesAlong(t chess.PieceType, d delta) bool {
	diagonal := d.df != 0 && d.dr != 0
	switch t {
	case chess.Queen:
		return true
	case chess.Rook:
		return !diagonal
	case chess.Bishop:
		return diagonal
	}
	return false
}

// MotifDetector scans resulting positions for tactical patterns. The
// detectors work on plain board geometry rather than engine output, so
// they are cheap enough to run on every ply. A position with no motifs
// is the normal case, not an error.
type MotifDetector struct{}

// Detect replays moveUCI from prevFEN and scans the resulting position
// (which must equal fen) for tactical motifs. Errors are reserved for
// undecodable input.
func (MotifDetector) Detect(prevFEN, fen, moveUCI string) ([]Motif, error) {
	prev, err := decodeFEN(prevFEN)
	if err != nil {
		return nil, fmt.Errorf("motif scan: %w", err)
	}
	move, err := chess.UCINotation{}.Decode(prev, moveUCI)
	if err != nil {
		return nil, fmt.Errorf("motif scan: decoding move %q: %w", moveUCI, err)
	}
	pos, err := decodeFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("motif scan: %w", err)
	}
	b := pos.Board().SquareMap()
	mover := prev.Turn()

	var motifs []Motif
	if m := detectFork(b, move.S2(), mover); m != nil {
		motifs = append(motifs, *m)
	}
	motifs = append(motifs, detectPins(b, mover)...)
	motifs = append(motifs, detectDiscoveredAttacks(b, move.S1(), move.S2(), mover)...)
	motifs = append(motifs, detectHangingPieces(b)...)
	if m := detectMateThreat(pos); m != nil {
		motifs = append(motifs, *m)
	}
	return motifs, nil
}

// detectFork reports whether the piece that just landed on sq attacks
// two or more enemy pieces other than the king, or any two enemy
// pieces worth at least minForkValue together. The second branch keeps
// royal forks, where one of the targets is the king itself.
func detectFork(b map[chess.Square]chess.Piece, sq chess.Square, mover chess.Color) *Motif {
	p, ok := b[sq]
	if !ok || p.Color() != mover {
		return nil
	}
	var targets []string
	nonKing, combined := 0, 0
	for _, a := range attackSquares(b, sq) {
		t, occupied := b[a]
		if !occupied || t.Color() == mover {
			continue
		}
		targets = append(targets, a.String())
		combined += materialValue(t.Type())
		if t.Type() != chess.King {
			nonKing++
		}
	}
	if nonKing < 2 && (len(targets) < 2 || combined < minForkValue) {
		return nil
	}
	return &Motif{Type: MotifFork, From: sq.String(), Squares: targets}
}

// detectPins finds enemy pieces standing between one of the mover's
// sliders and a more valuable piece behind them.
func detectPins(b map[chess.Square]chess.Piece, mover chess.Color) []Motif {
	var motifs []Motif
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p, ok := b[sq]
		if !ok || p.Color() != mover {
			continue
		}
		var dirs []delta
		switch p.Type() {
		case chess.Rook:
			dirs = orthogonalDirs
		case chess.Bishop:
			dirs = diagonalDirs
		case chess.Queen:
			dirs = allDirs
		default:
			continue
		}
		for _, d := range dirs {
			frontSq, front, ok := firstPiece(b, sq, d)
			if !ok || front.Color() == mover {
				continue
			}
			backSq, back, ok := firstPiece(b, frontSq, d)
			if !ok || back.Color() == mover {
				continue
			}
			if materialValue(back.Type()) > materialValue(front.Type()) {
				motifs = append(motifs, Motif{
					Type:    MotifPin,
					From:    sq.String(),
					Squares: []string{frontSq.String(), backSq.String()},
				})
			}
		}
	}
	return motifs
}

// detectDiscoveredAttacks checks whether vacating from uncovered a
// friendly slider's line onto a valuable enemy piece. The moved piece
// itself does not count as the uncovered slider.
func detectDiscoveredAttacks(b map[chess.Square]chess.Piece, from, to chess.Square, mover chess.Color) []Motif {
	var motifs []Motif
	for _, d := range allDirs {
		sliderSq, slider, ok := firstPiece(b, from, delta{-d.df, -d.dr})
		if !ok || slider.Color() != mover || sliderSq == to || !slidesAlong(slider.Type(), d) {
			continue
		}
		targetSq, target, ok := firstPiece(b, from, d)
		if !ok || target.Color() == mover {
			continue
		}
		if v := materialValue(target.Type()); v >= 3 || target.Type() == chess.King {
			motifs = append(motifs, Motif{
				Type:    MotifDiscoveredAttack,
				From:    sliderSq.String(),
				Squares: []string{targetSq.String()},
			})
		}
	}
	return motifs
}

// detectHangingPieces flags pieces worth a bishop or more that stand
// attacked and insufficiently defended, for either color.
func detectHangingPieces(b map[chess.Square]chess.Piece) []Motif {
	var motifs []Motif
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p, ok := b[sq]
		if !ok || p.Type() == chess.King {
			continue
		}
		value := materialValue(p.Type())
		if value < 3 {
			continue
		}
		attackers := attackersOf(b, sq, p.Color().Other())
		if len(attackers) == 0 {
			continue
		}
		defenders := attackersOf(b, sq, p.Color())
		cheapest := kingValue
		for _, a := range attackers {
			if v := materialValue(b[a].Type()); v < cheapest {
				cheapest = v
			}
		}
		if len(attackers) > len(defenders) || cheapest < value {
			motifs = append(motifs, Motif{
				Type:    MotifHangingPiece,
				From:    sq.String(),
				Squares: []string{sq.String()},
			})
		}
	}
	return motifs
}

// detectMateThreat reports a mate in one for the side to move in the
// resulting position.
func detectMateThreat(pos *chess.Position) *Motif {
	for _, m := range pos.ValidMoves() {
		next := pos.Update(m)
		if next.Status() == chess.Checkmate {
			return &Motif{
				Type:    MotifMateThreat,
				Move:    chess.AlgebraicNotation{}.Encode(pos, m),
				Squares: []string{m.S2().String()},
			}
		}
	}
	return nil
}
