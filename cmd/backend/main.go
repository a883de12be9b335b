package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chesskeep/chess-review-backend/internal/api"
	"github.com/chesskeep/chess-review-backend/internal/cache"
	"github.com/chesskeep/chess-review-backend/internal/config"
	"github.com/chesskeep/chess-review-backend/internal/dao"
	"github.com/chesskeep/chess-review-backend/internal/db"
	"github.com/chesskeep/chess-review-backend/internal/jobs"
	"github.com/chesskeep/chess-review-backend/pkg/review"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("loading config failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.NewDbClient(ctx, cfg)
	if err != nil {
		log.Fatalw("connecting to mongo failed", "error", err)
	}
	defer dbClient.Close(context.Background())
	reportRepo := dao.NewReportRepository(dbClient)

	var evalCache review.EvalCache
	if cfg.Redis.Address != "" {
		redisCache, err := cache.NewRedisEvalCache(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, log)
		if err != nil {
			log.Fatalw("connecting to redis failed", "error", err)
		}
		defer redisCache.Close()
		evalCache = redisCache
	}

	pool := review.NewEnginePool(review.PoolConfig{
		Engine: review.EngineConfig{
			Path: cfg.Engine.Path,
			Args: cfg.Engine.Args,
		},
		Primary:  review.DefaultPrimaryVariant(),
		Fallback: review.DefaultFallbackVariant(),
		Size:     cfg.Engine.Workers,
	}, log)
	if err := pool.Initialize(ctx); err != nil {
		log.Fatalw("starting engine pool failed", "error", err)
	}
	defer pool.Shutdown()

	book, err := review.NewOpeningBook()
	if err != nil {
		log.Fatalw("loading opening book failed", "error", err)
	}

	analyzer := review.NewAnalyzer(pool, book, evalCache, log)
	opts := review.Options{
		Depth:        cfg.Analysis.Depth,
		MoveBound:    cfg.Analysis.MoveBound,
		BookPlyLimit: cfg.Analysis.BookPlyLimit,
	}
	jobFactory := jobs.NewReviewJobFactory(ctx, analyzer, reportRepo, opts, log)
	reviewApi := api.NewReviewApi(reportRepo, jobFactory, analyzer)

	router := gin.Default()
	reviewApi.Register(router)

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("http server stopped", "error", err)
			stop()
		}
	}()
	log.Infow("backend listening", "addr", srv.Addr, "workers", pool.Workers())

	<-ctx.Done()
	log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http shutdown failed", "error", err)
	}
}
