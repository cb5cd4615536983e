package api

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/khanhnv2901/securitytxt/internal/checker"
	"github.com/khanhnv2901/securitytxt/internal/fetcher"
	"github.com/khanhnv2901/securitytxt/internal/infrastructure/cache"
	"github.com/khanhnv2901/securitytxt/internal/parser"
	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

// CheckOptions are the per-request check settings.
type CheckOptions struct {
	Strict                  bool `json:"strict"`
	NoIPv6                  bool `json:"no_ipv6"`
	ExpiresWarningThreshold *int `json:"expires_warning_days,omitempty"`
}

func (o CheckOptions) parserOptions(observer fetcher.Observer) parser.Options {
	return parser.Options{
		Strict:                  o.Strict,
		ExpiresWarningThreshold: o.ExpiresWarningThreshold,
		AllowIPv6:               !o.NoIPv6,
		Observer:                observer,
	}
}

// ResultCache stores check results by key. Get returns
// apperrors.ErrCacheMiss for unknown keys.
type ResultCache interface {
	Get(ctx context.Context, key string) (checker.CheckResult, error)
	Set(ctx context.Context, key string, result checker.CheckResult) error
}

// Recorder receives fetch events and finished checks.
type Recorder interface {
	fetcher.Observer
	ObserveCheck(r checker.CheckResult)
	CacheHit()
	CacheMiss()
}

// Checks runs host checks and text parses for the API and batch jobs.
type Checks struct {
	Parser   *parser.Parser
	Cache    ResultCache // optional
	Recorder Recorder    // optional
	Logger   *zap.Logger
}

func (c *Checks) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// CheckHost checks target, serving from the cache when possible. The bool
// reports a cache hit.
func (c *Checks) CheckHost(ctx context.Context, target string, opts CheckOptions) (checker.CheckResult, bool, error) {
	host, err := checker.ParseHost(target)
	if err != nil {
		return checker.CheckResult{Target: target, Status: checker.StatusError, Error: err.Error()}, false, err
	}

	key := cache.Key(host, cache.Options{
		Strict:                  opts.Strict,
		NoIPv6:                  opts.NoIPv6,
		ExpiresWarningThreshold: opts.ExpiresWarningThreshold,
	})
	if c.Cache != nil {
		cached, err := c.Cache.Get(ctx, key)
		switch {
		case err == nil:
			c.cacheHit()
			cached.Target = target
			return cached, true, nil
		case errors.Is(err, apperrors.ErrCacheMiss):
			c.cacheMiss()
		default:
			c.logger().Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		}
	}

	var observer fetcher.Observer
	if c.Recorder != nil {
		observer = c.Recorder
	}
	hc := &checker.HostChecker{
		Parser:  c.Parser,
		Options: opts.parserOptions(observer),
		Logger:  c.Logger,
	}
	result, err := hc.CheckHost(ctx, target)
	if err != nil {
		result.Status = checker.StatusError
		result.Error = err.Error()
	}
	if c.Recorder != nil {
		c.Recorder.ObserveCheck(result)
	}
	if err != nil {
		return result, false, err
	}

	if c.Cache != nil {
		if err := c.Cache.Set(ctx, key, result); err != nil {
			c.logger().Warn("cache store failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, false, nil
}

// ParseText checks contents that were uploaded instead of fetched.
func (c *Checks) ParseText(contents string, opts CheckOptions) checker.CheckResult {
	parsed := c.Parser.ParseString(contents, opts.parserOptions(nil))
	result := checker.NewResult("", "", parsed)
	if c.Recorder != nil {
		c.Recorder.ObserveCheck(result)
	}
	return result
}

func (c *Checks) cacheHit() {
	if c.Recorder != nil {
		c.Recorder.CacheHit()
	}
}

func (c *Checks) cacheMiss() {
	if c.Recorder != nil {
		c.Recorder.CacheMiss()
	}
}

// hostChecker adapts Checks to checker.Checker for the batch runner.
type hostChecker struct {
	checks *Checks
	opts   CheckOptions
}

func (h hostChecker) Name() string { return "check host" }

func (h hostChecker) Check(ctx context.Context, target string) checker.CheckResult {
	result, _, _ := h.checks.CheckHost(ctx, target, h.opts)
	return result
}
