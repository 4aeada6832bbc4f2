package server

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenderscope/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tenderscope/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	rateLimitReasonClientRate        = "client-rate"
	rateLimitReasonTenderConcurrency = "tender-concurrency"
)

// AnalysisRateLimit throttles analysis routes per client IP and rejects a
// second concurrent request for the same tender from the same client.
func (s *Server) AnalysisRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.analysisLimiter.Enabled() {
			c.Next()
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		clientID := strings.TrimSpace(c.ClientIP())
		if clientID == "" {
			clientID = "unknown"
		}
		ctx := c.Request.Context()

		res, err := s.analysisLimiter.AllowClient(ctx, clientID)
		if err != nil {
			logger.FromContext(ctx).Warn("analysis rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !res.Allowed {
			denyAnalysisRateLimit(c, endpoint, rateLimitReasonClientRate, res.RetryAfter, s.obsMetrics)
			return
		}

		tenderID := strings.TrimSpace(c.Param("id"))
		lockToken, allowed, err := s.analysisLimiter.TryLockTender(ctx, clientID, tenderID)
		if err != nil {
			logger.FromContext(ctx).Warn("analysis concurrency lock failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !allowed {
			denyAnalysisRateLimit(c, endpoint, rateLimitReasonTenderConcurrency, time.Second, s.obsMetrics)
			return
		}
		defer func() {
			if err := s.analysisLimiter.ReleaseTender(context.WithoutCancel(ctx), clientID, tenderID, lockToken); err != nil {
				logger.FromContext(ctx).Warn("analysis concurrency unlock failed", zap.Error(err))
			}
		}()

		recordRateLimitAllowed(ctx, endpoint, s.obsMetrics)
		c.Next()
	}
}

func denyAnalysisRateLimit(c *gin.Context, endpoint, reason string, retryAfter time.Duration, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("analysis rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, reason, metrics)

	c.Header("Retry-After", retryAfterSeconds(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int64(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.FormatInt(seconds, 10)
}

func recordRateLimitAllowed(ctx context.Context, endpoint string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
