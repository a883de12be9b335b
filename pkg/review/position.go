package review

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// StartingFEN is the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func decodeFEN(fen string) (*chess.Position, error) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(fen)); err != nil {
		return nil, fmt.Errorf("decoding fen %q: %w", fen, err)
	}
	return pos, nil
}

// fenSideToMove extracts the side-to-move field without a full decode.
func fenSideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// BuildPositions replays a game given as short algebraic moves from
// startFEN (the standard start when empty) and returns the resulting
// position list, root position first. Moves that do not parse or are
// illegal in their position are skipped and counted rather than
// aborting the replay; the game simply continues from the position
// before the bad ply. SAN is stored in canonical form, so decorated
// input like "Nf3!?" comes back as "Nf3".
func BuildPositions(startFEN string, sanMoves []string) ([]Position, int, error) {
	if startFEN == "" {
		startFEN = StartingFEN
	}
	fenOpt, err := chess.FEN(startFEN)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid start position: %w", err)
	}
	game := chess.NewGame(fenOpt)

	positions := make([]Position, 0, len(sanMoves)+1)
	positions = append(positions, Position{FEN: game.Position().String()})

	skipped := 0
	for _, san := range sanMoves {
		pos := game.Position()
		move, err := chess.AlgebraicNotation{}.Decode(pos, san)
		if err != nil {
			skipped++
			continue
		}
		canonical := chess.AlgebraicNotation{}.Encode(pos, move)
		uci := chess.UCINotation{}.Encode(pos, move)
		if err := game.Move(move); err != nil {
			skipped++
			continue
		}
		positions = append(positions, Position{
			FEN:  game.Position().String(),
			Move: &MoveInfo{SAN: canonical, UCI: uci},
		})
	}
	return positions, skipped, nil
}

// sanLine collects the canonical SAN moves of already-built positions,
// excluding the root.
func sanLine(positions []EvaluatedPosition) []string {
	sans := make([]string, 0, len(positions))
	for _, p := range positions[1:] {
		if p.Move == nil {
			continue
		}
		sans = append(sans, p.Move.SAN)
	}
	return sans
}
