package review

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultDepth      = 12
	DefaultMultiPV    = 2
	DefaultMoveBound  = 8 * time.Second
	DefaultSkillLevel = 20

	maxSkillLevel = 20
)

// Options tunes one analysis run. The zero value means all defaults,
// so callers can pass Options{} and get a sensible review.
type Options struct {
	// Depth is the target search depth per sampled position.
	Depth int
	// MultiPV is the number of ranked lines requested per search.
	// Classification needs the best alternative, so it is never
	// effectively below 2.
	MultiPV int
	// MoveBound is the wall-clock budget of one evaluation dispatch.
	MoveBound time.Duration
	// BookPlyLimit is the last ply that can still classify as a book
	// move.
	BookPlyLimit int
}

func (o Options) withDefaults() Options {
	if o.Depth <= 0 {
		o.Depth = DefaultDepth
	}
	if o.MultiPV < 2 {
		o.MultiPV = DefaultMultiPV
	}
	if o.MoveBound <= 0 {
		o.MoveBound = DefaultMoveBound
	}
	if o.BookPlyLimit <= 0 {
		o.BookPlyLimit = DefaultBookPlyLimit
	}
	return o
}

// Analyzer runs the whole review pipeline: batched engine evaluation,
// move classification, tactical motif detection and report
// aggregation.
type Analyzer struct {
	pool     EvaluatorPool
	batch    *BatchAnalyzer
	detector MotifDetector
	agg      Aggregator
	book     *OpeningBook
	log      *zap.SugaredLogger
}

// NewAnalyzer builds an analyzer on top of an initialized engine pool.
// book, cache and log may be nil; without a book no move classifies as
// a book move and positions carry no opening tag.
func NewAnalyzer(pool EvaluatorPool, book *OpeningBook, cache EvalCache, log *zap.SugaredLogger) *Analyzer {
	log = ensureLogger(log)
	return &Analyzer{
		pool:  pool,
		batch: NewBatchAnalyzer(pool, cache, log),
		book:  book,
		log:   log,
	}
}

// ensureLogger lets every constructor accept a nil logger.
func ensureLogger(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}

// AnalyzeGame evaluates the sampled plies of a game, classifies every
// move that has evaluations on both ends, scans every ply for
// tactical motifs and folds everything into a Report. Cancellation
// mid-run degrades the report to the work finished so far instead of
// failing it; only an empty input is an error.
func (a *Analyzer) AnalyzeGame(ctx context.Context, positions []Position, opts Options, progress ProgressFunc) (*Report, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}
	opts = opts.withDefaults()
	started := time.Now()

	evald, stats := a.batch.Analyze(ctx, positions, opts, progress)

	sans := sanLine(evald)
	classifier := NewClassifier(a.book, opts.BookPlyLimit)
	for i := 1; i < len(evald); i++ {
		curr := &evald[i]
		if curr.Move == nil {
			continue
		}
		if a.book != nil {
			if name, ok := a.book.Name(sans[:i]); ok {
				curr.Opening = name
			}
		}
		prev := &evald[i-1]
		if len(prev.TopLines) >= 2 && len(curr.TopLines) >= 2 {
			curr.Classification = classifier.Classify(prev, curr, sans[:i])
		}
		motifs, err := a.detector.Detect(prev.FEN, curr.FEN, curr.Move.UCI)
		if err != nil {
			a.log.Warnw("motif detection failed", "ply", i, "error", err)
			continue
		}
		curr.Motifs = motifs
	}

	report := a.agg.Aggregate(evald, stats)
	a.log.Infow("game analysis finished",
		"positions", len(positions),
		"sampled", stats.Sampled,
		"cache_hits", stats.CacheHits,
		"fallback_evals", stats.FallbackEvals,
		"elapsed", time.Since(started))
	return report, nil
}

// BestMoveHint asks a pooled engine for a single playable move at the
// given strength. skillLevel is clamped to [0, 20]; depth <= 0 means
// the default depth.
func (a *Analyzer) BestMoveHint(ctx context.Context, fen string, skillLevel, depth int) (string, error) {
	if _, err := decodeFEN(fen); err != nil {
		return "", err
	}
	if skillLevel < 0 {
		skillLevel = 0
	}
	if skillLevel > maxSkillLevel {
		skillLevel = maxSkillLevel
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	w, err := a.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer a.pool.Release(w)
	return w.BestMove(ctx, fen, skillLevel, depth)
}
