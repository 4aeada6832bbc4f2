package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	bidanalysisdomain "github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
	"github.com/smallbiznis/tenderscope/internal/config"
	"github.com/smallbiznis/tenderscope/internal/observability"
	obslogger "github.com/smallbiznis/tenderscope/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tenderscope/internal/observability/metrics"
	obstracing "github.com/smallbiznis/tenderscope/internal/observability/tracing"
	"github.com/smallbiznis/tenderscope/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.Middleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	log = log.Named("http")
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	analysisSvc     bidanalysisdomain.Service
	obsMetrics      *obsmetrics.Metrics
	analysisLimiter *ratelimit.AnalysisLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	AnalysisSvc     bidanalysisdomain.Service
	ObsMetrics      *obsmetrics.Metrics        `optional:"true"`
	AnalysisLimiter *ratelimit.AnalysisLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		analysisSvc:     p.AnalysisSvc,
		obsMetrics:      p.ObsMetrics,
		analysisLimiter: p.AnalysisLimiter,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	// -------- Tender analysis --------
	tenders := api.Group("/tenders/:id", s.AnalysisRateLimit())
	{
		tenders.GET("/analysis", s.AnalyzeTender)
		tenders.GET("/outliers", s.GetTenderOutliers)
		tenders.GET("/recommendations", s.GetTenderRecommendations)
		tenders.GET("/items/:item_id/winner", s.GetItemWinner)
		tenders.GET("/proposals/totals", s.GetProposalTotals)
	}
}
