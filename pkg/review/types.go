package review

// ScoreType discriminates the two kinds of engine evaluation.
type ScoreType string

const (
	ScoreCentipawn ScoreType = "cp"
	ScoreMate      ScoreType = "mate"
)

// Score is a single engine evaluation, oriented from the point of view
// of the side to move in the position it was produced for.
type Score struct {
	Type  ScoreType `json:"type" bson:"type"`
	Value int       `json:"value" bson:"value"`
}

// EvaluationLine is one ranked line of engine output. Rank 1 is the
// engine's best line, rank 2 the second best, and so on.
type EvaluationLine struct {
	Rank  int      `json:"rank" bson:"rank"`
	Depth int      `json:"depth" bson:"depth"`
	Score Score    `json:"score" bson:"score"`
	PV    []string `json:"pv,omitempty" bson:"pv,omitempty"`
}

// PositionEvaluation collects the ranked lines reported for one
// position. Lines are kept sorted by rank with at most one line per
// rank; a deeper report for a rank replaces the shallower one.
type PositionEvaluation struct {
	Lines []EvaluationLine `json:"lines" bson:"lines"`
}

func (pe *PositionEvaluation) upsert(line EvaluationLine) {
	for i := range pe.Lines {
		if pe.Lines[i].Rank == line.Rank {
			if line.Depth >= pe.Lines[i].Depth {
				pe.Lines[i] = line
			}
			return
		}
	}
	pe.Lines = append(pe.Lines, line)
	for i := len(pe.Lines) - 1; i > 0 && pe.Lines[i].Rank < pe.Lines[i-1].Rank; i-- {
		pe.Lines[i], pe.Lines[i-1] = pe.Lines[i-1], pe.Lines[i]
	}
}

// Best returns the rank-1 line, or nil if none was reported yet.
func (pe *PositionEvaluation) Best() *EvaluationLine {
	if len(pe.Lines) == 0 || pe.Lines[0].Rank != 1 {
		return nil
	}
	return &pe.Lines[0]
}

func (pe *PositionEvaluation) snapshot() PositionEvaluation {
	cp := PositionEvaluation{Lines: make([]EvaluationLine, len(pe.Lines))}
	copy(cp.Lines, pe.Lines)
	return cp
}

// MoveInfo identifies the move that produced a position, in both short
// algebraic and coordinate notation.
type MoveInfo struct {
	SAN string `json:"san" bson:"san"`
	UCI string `json:"uci" bson:"uci"`
}

// Position is one ply of a replayed game. Move is nil for the starting
// position.
type Position struct {
	FEN  string    `json:"fen" bson:"fen"`
	Move *MoveInfo `json:"move,omitempty" bson:"move,omitempty"`
}

// Classification is the quality label attached to a played move.
type Classification string

const (
	ClassificationBrilliant  Classification = "brilliant"
	ClassificationGreat      Classification = "great"
	ClassificationBest       Classification = "best"
	ClassificationExcellent  Classification = "excellent"
	ClassificationGood       Classification = "good"
	ClassificationInaccuracy Classification = "inaccuracy"
	ClassificationMistake    Classification = "mistake"
	ClassificationBlunder    Classification = "blunder"
	ClassificationForced     Classification = "forced"
	ClassificationBook       Classification = "book"
	ClassificationNone       Classification = "none"
)

// MotifType names a tactical pattern found on the board.
type MotifType string

const (
	MotifFork             MotifType = "fork"
	MotifPin              MotifType = "pin"
	MotifDiscoveredAttack MotifType = "discovered_attack"
	MotifHangingPiece     MotifType = "hanging_piece"
	MotifMateThreat       MotifType = "mate_threat"
)

// Motif is one detected tactical pattern. From is the square of the
// piece the pattern originates from, Squares the targets involved, and
// Move the threatened move in algebraic notation where applicable.
type Motif struct {
	Type    MotifType `json:"type" bson:"type"`
	From    string    `json:"from,omitempty" bson:"from,omitempty"`
	Squares []string  `json:"squares,omitempty" bson:"squares,omitempty"`
	Move    string    `json:"move,omitempty" bson:"move,omitempty"`
}

// EvaluatedPosition is a replayed position enriched with engine lines,
// a move quality label and detected tactical motifs. TopLines stays
// empty for plies the sampler skipped and for positions whose
// evaluation never resolved.
type EvaluatedPosition struct {
	Position       `bson:",inline"`
	TopLines       []EvaluationLine `json:"top_lines,omitempty" bson:"top_lines,omitempty"`
	Classification Classification   `json:"classification,omitempty" bson:"classification,omitempty"`
	Motifs         []Motif          `json:"tactical_motifs,omitempty" bson:"tactical_motifs,omitempty"`
	Opening        string           `json:"opening,omitempty" bson:"opening,omitempty"`
}

// SideTally is a per-color counter used in report summaries.
type SideTally struct {
	White int `json:"white" bson:"white"`
	Black int `json:"black" bson:"black"`
}

// Accuracy is the per-side accuracy of the whole game on a 0-100
// scale, 100 meaning every evaluated move held the win probability.
type Accuracy struct {
	White float64 `json:"white" bson:"white"`
	Black float64 `json:"black" bson:"black"`
}

// Report is the final product of a game analysis.
type Report struct {
	Positions []EvaluatedPosition          `json:"positions" bson:"positions"`
	Accuracy  Accuracy                     `json:"accuracy" bson:"accuracy"`
	Summary   map[Classification]SideTally `json:"summary" bson:"summary"`

	SampledPositions int `json:"sampled_positions" bson:"sampled_positions"`
	FallbackEvals    int `json:"fallback_evals" bson:"fallback_evals"`
	SkippedPlies     int `json:"skipped_plies,omitempty" bson:"skipped_plies,omitempty"`
}
