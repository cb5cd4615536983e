package checker

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
	"github.com/khanhnv2901/securitytxt/internal/parser"
)

// Events are optional callbacks fired after a successful parse.
type Events struct {
	OnHost           func(host string)
	OnExpired        func(daysAgo int, expires time.Time)
	OnExpiresSoon    func(inDays int, expires time.Time)
	OnExpires        func(inDays int, expires time.Time)
	OnValidSignature func(keyFingerprint string, signed time.Time)
}

// HostChecker fetches and validates the security.txt of a host.
type HostChecker struct {
	Parser  *parser.Parser
	Options parser.Options
	Events  Events
	Logger  *zap.Logger
}

func (h *HostChecker) Name() string {
	return "check host"
}

// Check never fails; problems end up in the result's Status and Error.
func (h *HostChecker) Check(ctx context.Context, target string) CheckResult {
	result, err := h.CheckHost(ctx, target)
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
	}
	return result
}

// CheckHost returns a *HostnameError for unusable input and the fetcher's
// error when the file could not be downloaded. The result always carries
// the target and the options used.
func (h *HostChecker) CheckHost(ctx context.Context, target string) (CheckResult, error) {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	base := CheckResult{
		Target:                  target,
		CheckedAt:               time.Now().UTC(),
		Strict:                  h.Options.Strict,
		ExpiresWarningThreshold: h.Options.ExpiresWarningThreshold,
	}

	host, err := ParseHost(target)
	if err != nil {
		return base, err
	}
	base.Host = host
	if h.Events.OnHost != nil {
		h.Events.OnHost(host)
	}

	start := time.Now()
	parsed, err := h.Parser.ParseHost(ctx, host, h.Options)
	base.ResponseTime = float64(time.Since(start).Milliseconds())
	if err != nil {
		logger.Info("security.txt fetch failed", zap.String("host", host), zap.Error(err))
		return base, err
	}

	result := NewResult(target, host, parsed)
	result.CheckedAt = base.CheckedAt
	result.ResponseTime = base.ResponseTime
	h.Events.Fire(result)
	return result, nil
}

// NewResult snapshots a parse result. host may be empty for files that were
// not fetched.
func NewResult(target, host string, r *parser.Result) CheckResult {
	result := CheckResult{
		Target:                  target,
		Host:                    host,
		CheckedAt:               time.Now().UTC(),
		Redirects:               map[string][]string{},
		Contents:                strings.Join(r.Lines, ""),
		FetchErrors:             r.FetchErrors(),
		FetchWarnings:           r.FetchWarnings(),
		LineErrors:              r.LineErrors,
		LineWarnings:            r.LineWarnings,
		FileErrors:              r.FileErrors,
		FileWarnings:            r.FileWarnings,
		SecurityTxt:             r.SecurityTxt,
		ExpiresSoon:             r.ExpiresSoon,
		Valid:                   r.IsValid(),
		Strict:                  r.Strict,
		ExpiresWarningThreshold: r.ExpiresWarningThreshold,
	}
	if r.Fetch != nil {
		result.Redirects = r.Fetch.Redirects
		result.ConstructedURL = r.Fetch.ConstructedURL
		result.FinalURL = r.Fetch.FinalURL
		result.Contents = r.Fetch.Contents
	}
	if e := r.SecurityTxt.Expires(); e != nil {
		expired, days := e.IsExpired(), e.InDays()
		result.IsExpired = &expired
		result.ExpiryDays = &days
	}
	result.Status = StatusInvalid
	if result.Valid {
		result.Status = StatusValid
	}
	return result
}

// Fire calls the expiry and signature callbacks that apply to r.
func (e Events) Fire(r CheckResult) {
	if r.SecurityTxt == nil {
		return
	}
	if exp := r.SecurityTxt.Expires(); exp != nil {
		days := exp.InDays()
		switch {
		case exp.IsExpired():
			if e.OnExpired != nil {
				e.OnExpired(abs(days), exp.DateTime())
			}
		case r.ExpiresSoon:
			if e.OnExpiresSoon != nil {
				e.OnExpiresSoon(days, exp.DateTime())
			}
		default:
			if e.OnExpires != nil {
				e.OnExpires(days, exp.DateTime())
			}
		}
	}
	if sig := r.SecurityTxt.Signature(); sig != nil && e.OnValidSignature != nil {
		e.OnValidSignature(sig.KeyFingerprint, sig.DateTime)
	}
}

// Source tells where a diagnostic was found.
type Source string

const (
	SourceFetch Source = "fetch"
	SourceLine  Source = "line"
	SourceFile  Source = "file"
)

// Diagnostic is one error or warning with its location.
type Diagnostic struct {
	Source    Source
	Line      int // 1-based, only for SourceLine
	Warning   bool
	Violation violation.Violation
}

// Diagnostics lists errors before warnings; within each severity fetch
// problems come first, then lines in order, then the whole file.
func (r CheckResult) Diagnostics() []Diagnostic {
	var out []Diagnostic
	for _, e := range r.FetchErrors {
		out = append(out, Diagnostic{Source: SourceFetch, Violation: e.Violation})
	}
	for _, n := range slices.Sorted(maps.Keys(r.LineErrors)) {
		for _, e := range r.LineErrors[n] {
			out = append(out, Diagnostic{Source: SourceLine, Line: n, Violation: e.Violation})
		}
	}
	for _, e := range r.FileErrors {
		out = append(out, Diagnostic{Source: SourceFile, Violation: e.Violation})
	}
	for _, w := range r.FetchWarnings {
		out = append(out, Diagnostic{Source: SourceFetch, Warning: true, Violation: w.Violation})
	}
	for _, n := range slices.Sorted(maps.Keys(r.LineWarnings)) {
		for _, w := range r.LineWarnings[n] {
			out = append(out, Diagnostic{Source: SourceLine, Line: n, Warning: true, Violation: w.Violation})
		}
	}
	for _, w := range r.FileWarnings {
		out = append(out, Diagnostic{Source: SourceFile, Warning: true, Violation: w.Violation})
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
