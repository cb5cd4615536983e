// Package securitytxt holds the in-memory model of a security.txt document.
package securitytxt

import (
	"regexp"
	"strings"
	"time"

	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
	"github.com/khanhnv2901/securitytxt/internal/shared/constants"
)

var (
	languageTagPattern  = regexp.MustCompile(`(?i)^([a-z]{2,3}(-[a-z0-9]+)*|[xi]-[a-z0-9]+)$`)
	czechMistakePattern = regexp.MustCompile(`(?i)^cz-?`)
	czechFixPattern     = regexp.MustCompile(`(?i)^cz$|cz(-)`)
)

// SecurityTxt is a parsed security.txt document. It is not safe for
// concurrent mutation.
type SecurityTxt struct {
	now                func() time.Time
	expires            *Expires
	preferredLanguages *PreferredLanguages
	signature          *SignatureVerifyResult
	uris               map[Field][]URIField
	fields             []FieldValue
}

// Option configures a SecurityTxt.
type Option func(*SecurityTxt)

// WithClock overrides the clock used for expiry suggestions.
func WithClock(now func() time.Time) Option {
	return func(s *SecurityTxt) {
		s.now = now
	}
}

func New(opts ...Option) *SecurityTxt {
	s := &SecurityTxt{
		now:  time.Now,
		uris: make(map[Field][]URIField),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply stores a field value according to level and reports the first
// problem found with it. A second Expires or Preferred-Languages is never
// stored.
func (s *SecurityTxt) Apply(value FieldValue, level ValidationLevel) violation.Outcome {
	ok := func() violation.Outcome { return violation.OK() }

	switch v := value.(type) {
	case Expires:
		if s.expires != nil {
			return violation.Fail(violation.MultipleExpires())
		}
		return level.apply(
			func() { s.expires = &v; s.fields = append(s.fields, v) },
			func() violation.Outcome { return s.checkExpires(v) },
			func() violation.Outcome { return s.warnExpires(v) },
		)
	case PreferredLanguages:
		if s.preferredLanguages != nil {
			return violation.Fail(violation.MultiplePreferredLanguages())
		}
		return level.apply(
			func() { s.preferredLanguages = &v; s.fields = append(s.fields, v) },
			func() violation.Outcome { return checkLanguages(v) },
			ok,
		)
	case URIField:
		return level.apply(
			func() { s.uris[v.field] = append(s.uris[v.field], v); s.fields = append(s.fields, v) },
			func() violation.Outcome { return checkURI(v) },
			ok,
		)
	}
	return violation.OK()
}

func (s *SecurityTxt) checkExpires(e Expires) violation.Outcome {
	if e.IsExpired() {
		return violation.Fail(violation.Expired(s.now()))
	}
	return violation.OK()
}

func (s *SecurityTxt) warnExpires(e Expires) violation.Outcome {
	if e.InDays() > constants.ExpiresTooLongDays {
		return violation.Warn(violation.ExpiresTooLong(s.now()))
	}
	return violation.OK()
}

func checkLanguages(p PreferredLanguages) violation.Outcome {
	if len(p.languages) == 0 {
		return violation.Fail(violation.PreferredLanguagesEmpty())
	}

	var wrong []violation.LanguageTag
	for i, tag := range p.languages {
		if !languageTagPattern.MatchString(tag) {
			wrong = append(wrong, violation.LanguageTag{Position: i + 1, Tag: tag})
		}
	}
	if len(wrong) > 0 {
		return violation.Fail(violation.PreferredLanguagesWrongLanguageTags(wrong))
	}

	for i, tag := range p.languages {
		if czechMistakePattern.MatchString(tag) {
			return violation.Fail(violation.PreferredLanguagesCommonMistake(
				i+1,
				tag,
				czechFixPattern.ReplaceAllString(tag, "cs${1}"),
				"the code for Czech language is `cs`, not `cz`",
			))
		}
	}
	return violation.OK()
}

func checkURI(u URIField) violation.Outcome {
	switch u.Scheme() {
	case "":
		return violation.Fail(violation.FieldNotURI(string(u.field), u.uri))
	case "http":
		return violation.Fail(violation.FieldURINotHTTPS(string(u.field), u.uri))
	}
	return violation.OK()
}

// SetSignature records a verified signature.
func (s *SecurityTxt) SetSignature(result SignatureVerifyResult) {
	s.signature = &result
}

func (s *SecurityTxt) Signature() *SignatureVerifyResult {
	return s.signature
}

func (s *SecurityTxt) IsSigned() bool {
	return s.signature != nil
}

func (s *SecurityTxt) Expires() *Expires {
	return s.expires
}

func (s *SecurityTxt) PreferredLanguages() *PreferredLanguages {
	return s.preferredLanguages
}

// URIs returns the values of a URI field in file order.
func (s *SecurityTxt) URIs(field Field) []URIField {
	return s.uris[field]
}

func (s *SecurityTxt) Acknowledgments() []URIField { return s.uris[FieldAcknowledgments] }
func (s *SecurityTxt) Canonical() []URIField       { return s.uris[FieldCanonical] }
func (s *SecurityTxt) Contact() []URIField         { return s.uris[FieldContact] }
func (s *SecurityTxt) Encryption() []URIField      { return s.uris[FieldEncryption] }
func (s *SecurityTxt) Hiring() []URIField          { return s.uris[FieldHiring] }
func (s *SecurityTxt) Policy() []URIField          { return s.uris[FieldPolicy] }

// OrderedFields returns every stored value in the order it was applied.
func (s *SecurityTxt) OrderedFields() []FieldValue {
	out := make([]FieldValue, len(s.fields))
	copy(out, s.fields)
	return out
}

// String renders the stored fields back into security.txt syntax.
func (s *SecurityTxt) String() string {
	var b strings.Builder
	for _, f := range s.fields {
		b.WriteString(string(f.Field()))
		b.WriteString(": ")
		b.WriteString(f.Value())
		b.WriteString("\n")
	}
	return b.String()
}
