package review

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// EvalCache caches finished evaluations keyed by position and request
// depth. Implementations must be safe for concurrent use; a nil cache
// disables caching.
type EvalCache interface {
	Get(ctx context.Context, fen string, depth int) (*PositionEvaluation, bool)
	Put(ctx context.Context, fen string, depth int, ev *PositionEvaluation)
}

// EvaluatorPool is the slice of the engine pool the batch layer
// schedules over.
type EvaluatorPool interface {
	Acquire(ctx context.Context) (Evaluator, error)
	Release(w Evaluator)
}

// ProgressFunc is called after every finished batch with the number of
// sampled positions handled so far and the total sampled count.
type ProgressFunc func(processed, total int)

const (
	retryDepthStep  = 4
	retryDepthFloor = 8
)

// BatchStats summarizes one analysis run.
type BatchStats struct {
	Sampled       int
	Processed     int
	CacheHits     int
	FallbackEvals int
}

// fallbackLines is the synthetic near-neutral evaluation attached to a
// position whose searches kept failing, so a sampled position never
// surfaces with fewer than two lines.
func fallbackLines() []EvaluationLine {
	return []EvaluationLine{
		{Rank: 1, Depth: 0, Score: Score{Type: ScoreCentipawn, Value: 0}},
		{Rank: 2, Depth: 0, Score: Score{Type: ScoreCentipawn, Value: -10}},
	}
}

// padToTwoLines tops a short evaluation up to two lines by cloning the
// best line slightly worsened: a tenth of a pawn for cp scores, one
// move further out for mate scores.
func padToTwoLines(lines []EvaluationLine) []EvaluationLine {
	if len(lines) >= 2 {
		return lines
	}
	if len(lines) == 0 {
		return fallbackLines()
	}
	second := lines[0]
	second.Rank = 2
	second.PV = nil
	if second.Score.Type == ScoreMate {
		if v := second.Score.Value + 1; v != 0 {
			second.Score.Value = v
		}
	} else {
		second.Score.Value -= 10
	}
	return append(lines, second)
}

// BatchAnalyzer fans sampled positions out over the engine pool in
// fixed-size waves. Results are written into per-index slots, so
// output order never depends on which worker finished first.
type BatchAnalyzer struct {
	pool    EvaluatorPool
	cache   EvalCache
	sampler Sampler
	log     *zap.SugaredLogger
}

func NewBatchAnalyzer(pool EvaluatorPool, cache EvalCache, log *zap.SugaredLogger) *BatchAnalyzer {
	return &BatchAnalyzer{pool: pool, cache: cache, log: ensureLogger(log)}
}

// Analyze evaluates the sampled subset of positions and returns one
// EvaluatedPosition per input, index-aligned with the input slice.
// Failed evaluations degrade to fallback lines rather than failing the
// run. Cancellation is cooperative: no new batch starts once ctx is
// done, finished work is kept and unresolved plies keep empty
// TopLines.
func (ba *BatchAnalyzer) Analyze(ctx context.Context, positions []Position, opts Options, progress ProgressFunc) ([]EvaluatedPosition, BatchStats) {
	opts = opts.withDefaults()
	out := make([]EvaluatedPosition, len(positions))
	for i, p := range positions {
		out[i].Position = p
	}
	sampled := ba.sampler.Choose(len(positions))
	stats := BatchStats{Sampled: len(sampled)}
	if len(sampled) == 0 {
		return out, stats
	}
	batchSize := ba.sampler.BatchSize(len(sampled))

	var fallbacks atomic.Int32
	for start := 0; start < len(sampled); start += batchSize {
		if ctx.Err() != nil {
			ba.log.Infow("analysis cancelled",
				"processed", stats.Processed, "sampled", len(sampled))
			break
		}
		end := start + batchSize
		if end > len(sampled) {
			end = len(sampled)
		}
		var wg sync.WaitGroup
		for _, idx := range sampled[start:end] {
			if ba.cache != nil {
				if ev, ok := ba.cache.Get(ctx, positions[idx].FEN, opts.Depth); ok && len(ev.Lines) > 0 {
					out[idx].TopLines = padToTwoLines(ev.Lines)
					stats.CacheHits++
					continue
				}
			}
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				ba.evaluateInto(ctx, &out[idx], opts, &fallbacks)
			}(idx)
		}
		wg.Wait()
		stats.Processed = end
		if progress != nil {
			progress(end, len(sampled))
		}
	}
	stats.FallbackEvals = int(fallbacks.Load())
	return out, stats
}

func (ba *BatchAnalyzer) evaluateInto(ctx context.Context, out *EvaluatedPosition, opts Options, fallbacks *atomic.Int32) {
	fen := out.FEN
	ev, err := ba.tryEvaluate(ctx, fen, opts.Depth, opts.MultiPV, opts.MoveBound)
	if err == nil {
		out.TopLines = padToTwoLines(ev.Lines)
		if ba.cache != nil {
			ba.cache.Put(ctx, fen, opts.Depth, ev)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}

	retryDepth := opts.Depth - retryDepthStep
	if retryDepth < retryDepthFloor {
		retryDepth = retryDepthFloor
	}
	ba.log.Warnw("evaluation failed, retrying shallower",
		"fen", fen, "depth", retryDepth, "error", err)
	ev, err = ba.tryEvaluate(ctx, fen, retryDepth, opts.MultiPV, opts.MoveBound/2)
	if err == nil {
		out.TopLines = padToTwoLines(ev.Lines)
		return
	}
	if ctx.Err() != nil {
		return
	}

	out.TopLines = fallbackLines()
	fallbacks.Add(1)
	ba.log.Warnw("evaluation failed twice, using fallback lines", "fen", fen, "error", err)
}

// tryEvaluate runs one bounded search on a pooled worker.
func (ba *BatchAnalyzer) tryEvaluate(ctx context.Context, fen string, depth, multiPV int, bound time.Duration) (*PositionEvaluation, error) {
	w, err := ba.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer ba.pool.Release(w)
	cctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()
	return w.Evaluate(cctx, fen, depth, multiPV, nil)
}
