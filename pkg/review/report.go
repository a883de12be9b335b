package review

import "math"

// Accuracy curve constants. The exponential decay maps one move's
// win-probability drop onto a 0-100 move score; a side's game accuracy
// is the mean move score over its measured moves.
const (
	accuracyScale = 103.1668
	accuracyDecay = 0.04354
	accuracyShift = 3.1669
)

// moveAccuracy maps a win-probability drop in percentage points to a
// move score, clamped to [0, 100].
func moveAccuracy(drop float64) float64 {
	a := accuracyScale*math.Exp(-accuracyDecay*drop) - accuracyShift
	if a < 0 {
		return 0
	}
	if a > 100 {
		return 100
	}
	return a
}

// Aggregator folds evaluated positions into the final Report.
type Aggregator struct{}

// Aggregate computes per-side accuracy and the per-side classification
// histogram, carrying the run statistics along. A move is measured
// only when both its positions hold evaluation lines; a side without a
// single measured move keeps a clean 100.
func (Aggregator) Aggregate(positions []EvaluatedPosition, stats BatchStats) *Report {
	report := &Report{
		Positions:        positions,
		Summary:          make(map[Classification]SideTally),
		SampledPositions: stats.Sampled,
		FallbackEvals:    stats.FallbackEvals,
	}

	var sums [2]float64
	var counts [2]int
	for i := 1; i < len(positions); i++ {
		prev, curr := &positions[i-1], &positions[i]
		if curr.Move == nil || len(prev.TopLines) < 2 || len(curr.TopLines) < 2 {
			continue
		}
		drop, moverWhite := winProbDrop(prev, curr)
		side := 0
		if !moverWhite {
			side = 1
		}
		sums[side] += moveAccuracy(drop)
		counts[side]++

		if c := curr.Classification; c != "" && c != ClassificationNone {
			tally := report.Summary[c]
			if moverWhite {
				tally.White++
			} else {
				tally.Black++
			}
			report.Summary[c] = tally
		}
	}

	report.Accuracy = Accuracy{White: 100, Black: 100}
	if counts[0] > 0 {
		report.Accuracy.White = round1(sums[0] / float64(counts[0]))
	}
	if counts[1] > 0 {
		report.Accuracy.Black = round1(sums[1] / float64(counts[1]))
	}
	return report
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
