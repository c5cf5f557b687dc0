package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/snelcrm/internal/config"
	"go.uber.org/zap"
)

const keySubmission = "snel:submit:%s:%s"

var ErrRateLimited = errors.New("rate_limited")

// LimitedError carries the wait before the next accepted submission.
type LimitedError struct {
	RetryAfter time.Duration
}

func (e *LimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *LimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// SubmissionLimiter throttles citizen submissions per client and kind.
// A nil limiter allows everything.
type SubmissionLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewSubmissionLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) (*SubmissionLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit requires a redis client")
	}
	if limitCfg.SubmissionRate <= 0 || limitCfg.SubmissionBurst <= 0 {
		return nil, errors.New("submission rate limit must be positive")
	}
	return &SubmissionLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.SubmissionRate,
		burst:  limitCfg.SubmissionBurst,
		log:    log.Named("ratelimit"),
	}, nil
}

func (l *SubmissionLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow spends one token for clientID. Redis failures fail open.
func (l *SubmissionLimiter) Allow(ctx context.Context, kind, clientID string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keySubmission, strings.TrimSpace(kind), strings.TrimSpace(clientID))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !res.Allowed {
		return &LimitedError{RetryAfter: res.RetryAfter}
	}
	return nil
}
