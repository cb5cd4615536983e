//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap/zaptest"

	"github.com/khanhnv2901/securitytxt/internal/checker"
	"github.com/khanhnv2901/securitytxt/internal/infrastructure/cache"
	"github.com/khanhnv2901/securitytxt/internal/parser"
	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

type RedisCacheSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
	cache     *cache.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	client, err := cache.NewClient(ctx, url)
	s.Require().NoError(err)
	s.client = client
	s.cache = cache.NewRedis(client, cache.WithTTL(time.Minute), cache.WithLogger(zaptest.NewLogger(s.T())))
}

func (s *RedisCacheSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		s.NoError(testcontainers.TerminateContainer(s.container))
	}
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisCacheSuite) sampleResult() checker.CheckResult {
	p := parser.New()
	parsed := p.ParseString("Contact: mailto:security@example.com\nExpires: "+time.Now().Add(48*time.Hour).UTC().Format(time.RFC3339)+"\nPolicy: http://example.com/policy\n", parser.Options{})
	return checker.NewResult("example.com", "example.com", parsed)
}

func (s *RedisCacheSuite) TestMiss() {
	_, err := s.cache.Get(context.Background(), cache.Key("example.com", cache.Options{}))
	s.ErrorIs(err, apperrors.ErrCacheMiss)
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	key := cache.Key("example.com", cache.Options{})
	original := s.sampleResult()

	s.Require().NoError(s.cache.Set(ctx, key, original))
	got, err := s.cache.Get(ctx, key)
	s.Require().NoError(err)

	s.Equal(original.Status, got.Status)
	s.Equal(original.Diagnostics(), got.Diagnostics())
	s.Equal(original.SecurityTxt.String(), got.SecurityTxt.String())

	ttl, err := s.client.TTL(ctx, key).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Second)
}

func (s *RedisCacheSuite) TestErrorResultsAreNotStored() {
	ctx := context.Background()
	key := cache.Key("down.example", cache.Options{})

	s.Require().NoError(s.cache.Set(ctx, key, checker.CheckResult{Target: "down.example", Status: checker.StatusError}))
	_, err := s.cache.Get(ctx, key)
	s.ErrorIs(err, apperrors.ErrCacheMiss)
}

func (s *RedisCacheSuite) TestCorruptEntryIsDropped() {
	ctx := context.Background()
	key := cache.Key("corrupt.example", cache.Options{})
	s.Require().NoError(s.client.Set(ctx, key, "{broken", time.Minute).Err())

	_, err := s.cache.Get(ctx, key)
	s.ErrorIs(err, apperrors.ErrCacheMiss)

	exists, err := s.client.Exists(ctx, key).Result()
	s.Require().NoError(err)
	s.Zero(exists)
}

func (s *RedisCacheSuite) TestHealth() {
	s.NoError(s.cache.Health(context.Background()))
}
