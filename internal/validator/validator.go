// Package validator runs whole-document checks that no single line can
// decide, such as required fields.
package validator

import (
	"slices"
	"time"

	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
	"github.com/khanhnv2901/securitytxt/internal/fetcher"
)

// Rule is a single document-level check. fetch is nil when the document was
// not downloaded.
type Rule interface {
	Validate(doc *securitytxt.SecurityTxt, fetch *fetcher.Result) violation.Outcome
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(doc *securitytxt.SecurityTxt, fetch *fetcher.Result) violation.Outcome

func (f RuleFunc) Validate(doc *securitytxt.SecurityTxt, fetch *fetcher.Result) violation.Outcome {
	return f(doc, fetch)
}

// Result collects document-level violations.
type Result struct {
	Errors   []violation.Error
	Warnings []violation.Warning
}

// Validator runs its rules in order.
type Validator struct {
	rules []Rule
}

// New returns a validator with the default rules followed by extra.
func New(now func() time.Time, extra ...Rule) *Validator {
	if now == nil {
		now = time.Now
	}
	rules := []Rule{
		RuleFunc(CanonicalURL),
		RuleFunc(ContactPresent),
		ExpiresPresent{Now: now},
		RuleFunc(SignedHasCanonical),
	}
	return &Validator{rules: append(rules, extra...)}
}

func (v *Validator) Validate(doc *securitytxt.SecurityTxt, fetch *fetcher.Result) Result {
	result := Result{
		Errors:   []violation.Error{},
		Warnings: []violation.Warning{},
	}
	for _, rule := range v.rules {
		o := rule.Validate(doc, fetch)
		if e, ok := o.AsError(); ok {
			result.Errors = append(result.Errors, e)
		}
		if w, ok := o.AsWarning(); ok {
			result.Warnings = append(result.Warnings, w)
		}
	}
	return result
}

// CanonicalURL warns when Canonical fields exist but none of them is the
// URL the file was finally fetched from.
func CanonicalURL(doc *securitytxt.SecurityTxt, fetch *fetcher.Result) violation.Outcome {
	if fetch == nil {
		return violation.OK()
	}
	canonicals := doc.Canonical()
	if len(canonicals) == 0 {
		return violation.OK()
	}
	urls := make([]string, 0, len(canonicals))
	for _, c := range canonicals {
		urls = append(urls, c.URI())
	}
	if slices.Contains(urls, fetch.FinalURL) {
		return violation.OK()
	}
	return violation.Warn(violation.CanonicalURLMismatch(fetch.FinalURL, urls))
}

func ContactPresent(doc *securitytxt.SecurityTxt, _ *fetcher.Result) violation.Outcome {
	if len(doc.Contact()) == 0 {
		return violation.Fail(violation.NoContact())
	}
	return violation.OK()
}

// ExpiresPresent requires an Expires field. Now feeds the suggested value.
type ExpiresPresent struct {
	Now func() time.Time
}

func (r ExpiresPresent) Validate(doc *securitytxt.SecurityTxt, _ *fetcher.Result) violation.Outcome {
	if doc.Expires() == nil {
		return violation.Fail(violation.NoExpires(r.Now()))
	}
	return violation.OK()
}

func SignedHasCanonical(doc *securitytxt.SecurityTxt, _ *fetcher.Result) violation.Outcome {
	if doc.IsSigned() && len(doc.Canonical()) == 0 {
		return violation.Warn(violation.SignedButNoCanonical())
	}
	return violation.OK()
}
