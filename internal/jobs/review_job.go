package jobs

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/chesskeep/chess-review-backend/internal/dao"
	"github.com/chesskeep/chess-review-backend/pkg/review"
)

// ReviewJobFactory stamps out background analysis jobs that share the
// engine-backed analyzer and the report store. The base context is the
// process context; jobs in flight stop when it ends.
type ReviewJobFactory struct {
	Analyzer   *review.Analyzer
	ReportRepo dao.ReportRepository
	Opts       review.Options

	baseCtx context.Context
	log     *zap.SugaredLogger
}

func NewReviewJobFactory(ctx context.Context, analyzer *review.Analyzer, reportRepo dao.ReportRepository, opts review.Options, log *zap.SugaredLogger) *ReviewJobFactory {
	return &ReviewJobFactory{
		Analyzer:   analyzer,
		ReportRepo: reportRepo,
		Opts:       opts,
		baseCtx:    ctx,
		log:        log,
	}
}

// GameRequest describes one game to review. Moves are SAN, in order.
type GameRequest struct {
	StartFEN string
	Moves    []string
	White    string
	Black    string
	Depth    int
}

func (f *ReviewJobFactory) CreateReviewJob(req GameRequest) *ReviewJob {
	opts := f.Opts
	if req.Depth > 0 {
		opts.Depth = req.Depth
	}
	return &ReviewJob{
		req:      req,
		opts:     opts,
		analyzer: f.Analyzer,
		repo:     f.ReportRepo,
		ctx:      f.baseCtx,
		log:      f.log,
	}
}

// ReviewJob analyzes one game in the background and keeps its state
// behind a mutex for polling.
type ReviewJob struct {
	mu        sync.Mutex
	report    *dao.StoredReport
	err       error
	done      bool
	processed int
	total     int

	req      GameRequest
	opts     review.Options
	analyzer *review.Analyzer
	repo     dao.ReportRepository
	ctx      context.Context
	log      *zap.SugaredLogger
}

func (j *ReviewJob) StartWork() {
	go j.run()
}

func (j *ReviewJob) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}

func (j *ReviewJob) Error() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *ReviewJob) Result() interface{} {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report
}

// Progress is the finished fraction of sampled positions, in [0, 1].
func (j *ReviewJob) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.total == 0 {
		return 0
	}
	return float64(j.processed) / float64(j.total)
}

func (j *ReviewJob) run() {
	positions, skipped, err := review.BuildPositions(j.req.StartFEN, j.req.Moves)
	if err != nil {
		j.fail(err)
		return
	}

	report, err := j.analyzer.AnalyzeGame(j.ctx, positions, j.opts, j.onProgress)
	if err != nil {
		j.fail(err)
		return
	}
	report.SkippedPlies = skipped

	stored := dao.StoredReport{
		White:     j.req.White,
		Black:     j.req.Black,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
		Report:    report,
	}
	id, err := j.repo.InsertReport(stored)
	if err != nil {
		j.log.Errorw("saving report failed", "white", j.req.White, "black", j.req.Black, "error", err)
		j.fail(err)
		return
	}
	stored.ID = id

	j.mu.Lock()
	defer j.mu.Unlock()
	j.report = &stored
	j.done = true
}

func (j *ReviewJob) onProgress(processed, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.processed = processed
	j.total = total
}

func (j *ReviewJob) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.err = err
	j.done = true
}
