package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tenderscope/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyAnalysisClient = "analysis:client:%s"
	keyAnalysisLock   = "analysis:lock:%s:%s"
)

// AnalysisLimiter throttles analysis requests per client with a Redis token
// bucket and allows one in-flight analysis per client and tender.
type AnalysisLimiter struct {
	bucket  *TokenBucket
	locker  *Locker
	rate    float64
	burst   int
	lockTTL time.Duration
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle `optional:"true"`
	Config    config.Config
	Log       *zap.Logger
}

// NewAnalysisLimiter returns nil when rate limiting is disabled.
func NewAnalysisLimiter(p Params) (*AnalysisLimiter, error) {
	limitCfg := p.Config.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(p.Config.Redis.Addr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: p.Config.Redis.Password,
		DB:       p.Config.Redis.DB,
	})

	limiter, err := NewAnalysisLimiterWithClient(client, limitCfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	log := p.Log.Named("ratelimit")
	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					log.Warn("rate limit redis unreachable", zap.String("addr", addr), zap.Error(err))
				}
				return nil
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}
	log.Info("analysis rate limit enabled",
		zap.Float64("rps", limitCfg.RPS),
		zap.Int("burst", limitCfg.Burst),
	)
	return limiter, nil
}

func NewAnalysisLimiterWithClient(client *redis.Client, cfg config.RateLimitConfig) (*AnalysisLimiter, error) {
	if client == nil {
		return nil, errors.New("rate limit redis client is required")
	}
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil, errors.New("analysis rate limit must be positive")
	}
	lockTTL := time.Duration(cfg.ConcurrencyTTLSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}

	return &AnalysisLimiter{
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    cfg.RPS,
		burst:   cfg.Burst,
		lockTTL: lockTTL,
	}, nil
}

func (l *AnalysisLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *AnalysisLimiter) AllowClient(ctx context.Context, clientID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyAnalysisClient, strings.TrimSpace(clientID)), l.rate, l.burst)
}

func (l *AnalysisLimiter) TryLockTender(ctx context.Context, clientID, tenderID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyAnalysisLock, strings.TrimSpace(clientID), strings.TrimSpace(tenderID))
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

func (l *AnalysisLimiter) ReleaseTender(ctx context.Context, clientID, tenderID, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyAnalysisLock, strings.TrimSpace(clientID), strings.TrimSpace(tenderID))
	return l.locker.Release(ctx, key, token)
}
