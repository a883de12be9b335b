package review

import "github.com/notnil/chess"

// Classification thresholds, expressed as win-probability drop in
// percentage points from the mover's point of view.
const (
	excellentMaxDrop  = 2.0
	goodMaxDrop       = 5.0
	inaccuracyMaxDrop = 10.0
	mistakeMaxDrop    = 15.0

	// soundSacrificeMaxDrop bounds how much win probability a move may
	// shed while still counting as a sound sacrifice.
	soundSacrificeMaxDrop = 2.0

	// onlyMoveGap is the win-probability lead the best line must hold
	// over the second line for the position to count as critical.
	onlyMoveGap = 10.0

	// sacrificeMinOffered is the net material, in pawns, a move must
	// leave en prise to count as a sacrifice.
	sacrificeMinOffered = 2
)

// DefaultBookPlyLimit caps how deep into the game book classification
// applies.
const DefaultBookPlyLimit = 20

// Classifier labels played moves by comparing win probability before
// and after each move, with dedicated labels for forced replies, book
// lines and sound sacrifices.
type Classifier struct {
	Book         *OpeningBook
	BookPlyLimit int
}

func NewClassifier(book *OpeningBook, bookPlyLimit int) *Classifier {
	if bookPlyLimit <= 0 {
		bookPlyLimit = DefaultBookPlyLimit
	}
	return &Classifier{Book: book, BookPlyLimit: bookPlyLimit}
}

// winProbDrop computes how much win probability the mover lost going
// from prev to curr, floored at zero, along with the mover's color.
// Engine scores are oriented toward the side to move, so the mover
// reads prev directly and curr inverted.
func winProbDrop(prev, curr *EvaluatedPosition) (drop float64, moverWhite bool) {
	before := WinProbFromScore(prev.TopLines[0].Score)
	after := 100 - WinProbFromScore(curr.TopLines[0].Score)
	drop = before - after
	if drop < 0 {
		drop = 0
	}
	return drop, fenSideToMove(prev.FEN) == "w"
}

// Classify labels the move that led from prev to curr. sans is the
// canonical SAN line of the whole game up to and including that move.
// Both positions must carry at least two evaluation lines; callers are
// expected to skip unevaluated plies, so anything less is a bug.
func (c *Classifier) Classify(prev, curr *EvaluatedPosition, sans []string) Classification {
	if len(prev.TopLines) < 2 || len(curr.TopLines) < 2 {
		panic("review: Classify called with fewer than two evaluation lines")
	}
	if curr.Move == nil {
		return ClassificationNone
	}
	prevPos, err := decodeFEN(prev.FEN)
	if err != nil {
		return ClassificationNone
	}

	if len(prevPos.ValidMoves()) == 1 {
		return ClassificationForced
	}
	if c.Book != nil && len(sans) <= c.BookPlyLimit {
		if _, ok := c.Book.Line(sans); ok {
			return ClassificationBook
		}
	}

	drop, _ := winProbDrop(prev, curr)
	if c.playedTopLine(prev, curr) {
		if drop <= soundSacrificeMaxDrop && isSacrifice(prevPos, curr) {
			return ClassificationBrilliant
		}
		if onlyGoodMove(prev) {
			return ClassificationGreat
		}
		return ClassificationBest
	}
	switch {
	case drop < excellentMaxDrop:
		return ClassificationExcellent
	case drop < goodMaxDrop:
		return ClassificationGood
	case drop < inaccuracyMaxDrop:
		return ClassificationInaccuracy
	case drop < mistakeMaxDrop:
		return ClassificationMistake
	default:
		return ClassificationBlunder
	}
}

// playedTopLine reports whether the played move heads the best line
// the engine suggested in the previous position.
func (c *Classifier) playedTopLine(prev, curr *EvaluatedPosition) bool {
	pv := prev.TopLines[0].PV
	return len(pv) > 0 && curr.Move != nil && pv[0] == curr.Move.UCI
}

// onlyGoodMove reports whether the best line towers over the second
// one, meaning any other move would have thrown away the position.
func onlyGoodMove(prev *EvaluatedPosition) bool {
	p1 := WinProbFromScore(prev.TopLines[0].Score)
	p2 := WinProbFromScore(prev.TopLines[1].Score)
	return p1-p2 >= onlyMoveGap
}

// isSacrifice reports whether the played move left a minor piece or
// more en prise for insufficient compensation. The en passant capture
// is credited a pawn even though the target square is empty.
func isSacrifice(prevPos *chess.Position, curr *EvaluatedPosition) bool {
	move, err := chess.UCINotation{}.Decode(prevPos, curr.Move.UCI)
	if err != nil {
		return false
	}
	moved := prevPos.Board().Piece(move.S1())
	movedValue := materialValue(moved.Type())
	if moved.Type() == chess.King || movedValue < 3 {
		return false
	}
	captured := 0
	if target := prevPos.Board().Piece(move.S2()); target != chess.NoPiece {
		captured = materialValue(target.Type())
	} else if move.HasTag(chess.EnPassant) {
		captured = materialValue(chess.Pawn)
	}
	if movedValue-captured < sacrificeMinOffered {
		return false
	}

	after, err := decodeFEN(curr.FEN)
	if err != nil {
		return false
	}
	b := after.Board().SquareMap()
	landed, ok := b[move.S2()]
	if !ok || landed.Color() != moved.Color() {
		return false
	}
	attackers := attackersOf(b, move.S2(), moved.Color().Other())
	if len(attackers) == 0 {
		return false
	}
	defenders := attackersOf(b, move.S2(), moved.Color())
	cheapest := kingValue
	for _, a := range attackers {
		if v := materialValue(b[a].Type()); v < cheapest {
			cheapest = v
		}
	}
	return len(attackers) > len(defenders) || cheapest < materialValue(landed.Type())
}
