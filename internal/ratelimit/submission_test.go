package ratelimit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/snelcrm/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	limiter, err := NewSubmissionLimiter(config.Config{}, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())
	assert.NoError(t, limiter.Allow(context.Background(), "complaint", "1001"))
}

func TestEnabledLimiterNeedsRedis(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, SubmissionRate: 1, SubmissionBurst: 1}}
	_, err := NewSubmissionLimiter(cfg, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestLimitedErrorMatchesSentinel(t *testing.T) {
	err := error(&LimitedError{RetryAfter: 4 * time.Second})
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, "rate limited, retry after 4s", err.Error())
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 50*time.Second, defaultBucketTTL(0.2, 5))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 0))
}

func TestSubmissionLimiterAgainstRedis(t *testing.T) {
	addr := os.Getenv("SNELCRM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SNELCRM_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, SubmissionRate: 0.01, SubmissionBurst: 2}}
	limiter, err := NewSubmissionLimiter(cfg, client, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	clientID := time.Now().Format("150405.000000")
	require.NoError(t, limiter.Allow(ctx, "review", clientID))
	require.NoError(t, limiter.Allow(ctx, "review", clientID))

	err = limiter.Allow(ctx, "review", clientID)
	var limited *LimitedError
	require.ErrorAs(t, err, &limited)
	assert.Greater(t, limited.RetryAfter, time.Duration(0))
}
