//go:build integration

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"complaintdesk/internal/platform/ratelimit"
	"complaintdesk/pkg/testutil/containers"
)

type RedisLimiterSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	limiter *ratelimit.RedisLimiter
}

func TestRedisLimiterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLimiterSuite))
}

func (s *RedisLimiterSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.limiter = ratelimit.NewRedis(s.redis.Client, "test")
}

func (s *RedisLimiterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLimiterSuite) TestAllowCountsAcrossCalls() {
	ctx := context.Background()
	for range 2 {
		res, err := s.limiter.Allow(ctx, "public:1.1.1.1", 2, time.Hour)
		s.Require().NoError(err)
		s.True(res.Allowed)
	}
	res, err := s.limiter.Allow(ctx, "public:1.1.1.1", 2, time.Hour)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(0, res.Remaining)
}

func (s *RedisLimiterSuite) TestKeyExpires() {
	ctx := context.Background()
	_, err := s.limiter.Allow(ctx, "public:2.2.2.2", 5, time.Hour)
	s.Require().NoError(err)

	keys, err := s.redis.Client.Keys(ctx, "test:public:2.2.2.2:*").Result()
	s.Require().NoError(err)
	s.Require().Len(keys, 1)

	ttl, err := s.redis.Client.TTL(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}
