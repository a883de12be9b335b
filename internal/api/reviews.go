package api

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chesskeep/chess-review-backend/internal/dao"
	"github.com/chesskeep/chess-review-backend/internal/jobs"
	"github.com/chesskeep/chess-review-backend/pkg/review"
)

type ReviewApi struct {
	ReportRepository dao.ReportRepository
	JobFactory       *jobs.ReviewJobFactory
	Analyzer         *review.Analyzer
	activeJobs       map[string]jobs.Worker
	mu               sync.RWMutex
}

func NewReviewApi(reportRepo dao.ReportRepository, jobFactory *jobs.ReviewJobFactory, analyzer *review.Analyzer) *ReviewApi {
	return &ReviewApi{
		reportRepo,
		jobFactory,
		analyzer,
		make(map[string]jobs.Worker),
		sync.RWMutex{},
	}
}

func (r *ReviewApi) Register(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	v1.POST("/reviews", r.StartReview)
	v1.GET("/reviews/:job_id", r.GetJobStatus)
	v1.GET("/reports/:id", r.GetReport)
	v1.GET("/reports", r.ListReports)
	v1.GET("/best-move", r.BestMove)
}

type startReviewRequest struct {
	StartFEN string   `json:"start_fen"`
	Moves    []string `json:"moves" binding:"required"`
	White    string   `json:"white"`
	Black    string   `json:"black"`
	Depth    int      `json:"depth"`
}

func (r *ReviewApi) StartReview(ctx *gin.Context) {
	var req startReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}
	if len(req.Moves) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "moves must not be empty",
		})
		return
	}

	job := r.JobFactory.CreateReviewJob(jobs.GameRequest{
		StartFEN: req.StartFEN,
		Moves:    req.Moves,
		White:    req.White,
		Black:    req.Black,
		Depth:    req.Depth,
	})
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeJobs[id] = job
	job.StartWork()
	ctx.JSON(http.StatusOK, gin.H{
		"job_id": id,
	})
}

func (r *ReviewApi) GetJobStatus(ctx *gin.Context) {
	id := ctx.Param("job_id")
	r.mu.Lock()
	defer r.mu.Unlock()
	worker, ok := r.activeJobs[id]
	if !ok {
		ctx.AbortWithStatus(http.StatusNotFound)
		return
	}
	if !worker.Done() {
		ctx.JSON(http.StatusOK, gin.H{
			"done":     false,
			"progress": worker.Progress(),
		})
		return
	}
	delete(r.activeJobs, id)
	if err := worker.Error(); err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"done":  true,
			"error": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"done":   true,
		"result": worker.Result(),
	})
}

func (r *ReviewApi) GetReport(ctx *gin.Context) {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "report id should be a hex object id",
		})
		return
	}

	report, err := r.ReportRepository.GetReport(id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.AbortWithStatus(http.StatusNotFound)
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, report)
}

func (r *ReviewApi) ListReports(ctx *gin.Context) {
	player := ctx.Query("player")
	if player == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "player is required",
		})
		return
	}
	limitStr := ctx.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "limit should be a positive integer",
		})
		return
	}

	reports, err := r.ReportRepository.GetPlayerReports(player, int64(limit))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, reports)
}

func (r *ReviewApi) BestMove(ctx *gin.Context) {
	fen := ctx.Query("fen")
	if fen == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "fen is required",
		})
		return
	}
	skillStr := ctx.DefaultQuery("skill", "20")
	skill, err := strconv.Atoi(skillStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "skill should be an integer",
		})
		return
	}
	depthStr := ctx.DefaultQuery("depth", "0")
	depth, err := strconv.Atoi(depthStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "depth should be an integer",
		})
		return
	}

	move, err := r.Analyzer.BestMoveHint(ctx.Request.Context(), fen, skill, depth)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"move": move,
	})
}
