package checker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
)

// Check statuses.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

// CheckResult represents the result of a single target check
type CheckResult struct {
	Target       string    `json:"target"`
	Host         string    `json:"host,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
	Status       string    `json:"status"`
	ResponseTime float64   `json:"response_time_ms,omitempty"`
	Error        string    `json:"error,omitempty"`

	Redirects      map[string][]string `json:"redirects,omitempty"`
	ConstructedURL string              `json:"constructed_url,omitempty"`
	FinalURL       string              `json:"final_url,omitempty"`
	Contents       string              `json:"contents,omitempty"`

	FetchErrors   []violation.Error           `json:"fetch_errors,omitempty"`
	FetchWarnings []violation.Warning         `json:"fetch_warnings,omitempty"`
	LineErrors    map[int][]violation.Error   `json:"line_errors,omitempty"`
	LineWarnings  map[int][]violation.Warning `json:"line_warnings,omitempty"`
	FileErrors    []violation.Error           `json:"file_errors,omitempty"`
	FileWarnings  []violation.Warning         `json:"file_warnings,omitempty"`

	SecurityTxt             *securitytxt.SecurityTxt `json:"security_txt,omitempty"`
	ExpiresSoon             bool                     `json:"expires_soon"`
	IsExpired               *bool                    `json:"is_expired,omitempty"`
	ExpiryDays              *int                     `json:"expiry_days,omitempty"`
	Valid                   bool                     `json:"valid"`
	Strict                  bool                     `json:"strict_mode"`
	ExpiresWarningThreshold *int                     `json:"expires_warning_threshold,omitempty"`
}

// Checker is the interface that all check implementations must satisfy
type Checker interface {
	// Check performs the actual check logic for a single target
	Check(ctx context.Context, target string) CheckResult

	// Name returns the name of this checker (e.g., "check host")
	Name() string
}

// ReportFunc is called once per finished target.
type ReportFunc func(target string, result CheckResult, duration float64) error

// Runner orchestrates the execution of checks with concurrency and rate limiting
type Runner struct {
	Concurrency int           // Maximum number of concurrent checks
	RateLimit   int           // Requests per second (global), 0 for no limit
	Timeout     time.Duration // Timeout for each check
	Logger      *zap.Logger
}

// RunChecks executes checks against multiple targets using a worker pool.
// Results are returned in the order of targets.
func (r *Runner) RunChecks(ctx context.Context, targets []string, checker Checker, reportFn ReportFunc) []CheckResult {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Rate limiter
	limiter := rate.NewLimiter(rate.Inf, 1)
	if r.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.RateLimit), r.RateLimit)
	}

	// Worker pool
	concurrency := max(r.Concurrency, 1)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]CheckResult, len(targets))

	for i, target := range targets {
		wg.Add(1)
		go func(i int, t string) {
			defer wg.Done()

			// Acquire semaphore
			sem <- struct{}{}
			defer func() { <-sem }()

			// Wait for rate limiter
			if err := limiter.Wait(ctx); err != nil {
				results[i] = CheckResult{
					Target:    t,
					CheckedAt: time.Now().UTC(),
					Status:    StatusError,
					Error:     err.Error(),
				}
				return
			}

			start := time.Now()

			checkCtx := ctx
			if r.Timeout > 0 {
				var cancel context.CancelFunc
				checkCtx, cancel = context.WithTimeout(ctx, r.Timeout)
				defer cancel()
			}

			result := checker.Check(checkCtx, t)

			duration := time.Since(start).Seconds()

			if reportFn != nil {
				if err := reportFn(t, result, duration); err != nil {
					logger.Warn("report callback failed", zap.String("target", t), zap.Error(err))
				}
			}

			results[i] = result
		}(i, target)
	}

	wg.Wait()
	return results
}
