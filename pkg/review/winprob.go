package review

import "math"

// winProbK is the steepness of the logistic curve that maps centipawns
// to an expected score. The value matches the curve used by lichess
// for its move annotations.
const winProbK = -0.00368208

const (
	cpClamp     = 1000
	mateCpProxy = 10000
)

// WinProbFromCentipawns converts a centipawn score into the win
// probability of the side the score favors, as a percentage in
// (0, 100). Scores are clamped to +-1000 cp first, so the result is
// monotone in cp and flat beyond the clamp.
func WinProbFromCentipawns(cp int) float64 {
	v := float64(cp)
	if v > cpClamp {
		v = cpClamp
	} else if v < -cpClamp {
		v = -cpClamp
	}
	return 50 + 50*(2/(1+math.Exp(winProbK*v))-1)
}

// WinProbFromMate converts a mate-in-n score into a win probability by
// projecting it onto the far end of the centipawn scale. Negative n
// means the side to move is getting mated.
func WinProbFromMate(n int) float64 {
	return WinProbFromCentipawns(n * mateCpProxy)
}

// WinProbFromScore dispatches on the score type.
func WinProbFromScore(s Score) float64 {
	if s.Type == ScoreMate {
		return WinProbFromMate(s.Value)
	}
	return WinProbFromCentipawns(s.Value)
}
