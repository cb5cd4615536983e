package parser

import (
	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
	"github.com/khanhnv2901/securitytxt/internal/fetcher"
)

// Result is the outcome of parsing one document.
type Result struct {
	SecurityTxt             *securitytxt.SecurityTxt
	Lines                   []string
	LineErrors              map[int][]violation.Error
	LineWarnings            map[int][]violation.Warning
	FileErrors              []violation.Error
	FileWarnings            []violation.Warning
	Fetch                   *fetcher.Result
	Strict                  bool
	ExpiresWarningThreshold *int
	ExpiresSoon             bool
}

// Line returns the raw 1-based line n.
func (r *Result) Line(n int) (string, bool) {
	if n < 1 || n > len(r.Lines) {
		return "", false
	}
	return r.Lines[n-1], true
}

func (r *Result) FetchErrors() []violation.Error {
	if r.Fetch == nil {
		return nil
	}
	return r.Fetch.Errors
}

func (r *Result) FetchWarnings() []violation.Warning {
	if r.Fetch == nil {
		return nil
	}
	return r.Fetch.Warnings
}

func (r *Result) IsExpired() bool {
	e := r.SecurityTxt.Expires()
	return e != nil && e.IsExpired()
}

// HasErrors looks at line, document and fetch errors.
func (r *Result) HasErrors() bool {
	return len(r.LineErrors) > 0 || len(r.FileErrors) > 0 || len(r.FetchErrors()) > 0
}

func (r *Result) HasWarnings() bool {
	return len(r.LineWarnings) > 0 || len(r.FileWarnings) > 0 || len(r.FetchWarnings()) > 0
}

// IsValid is false when the file expired, expires within the warning
// threshold, has any error, or has any warning in strict mode.
func (r *Result) IsValid() bool {
	return !r.IsExpired() &&
		!r.ExpiresSoon &&
		!r.HasErrors() &&
		(!r.Strict || !r.HasWarnings())
}
