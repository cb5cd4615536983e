package parser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
	"github.com/khanhnv2901/securitytxt/internal/fetcher"
	"github.com/khanhnv2901/securitytxt/internal/signature"
)

var testNow = time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)

const (
	contact = "Contact: mailto:security@example.com\n"
	expires = "Expires: 2025-12-31T23:59:59Z\n"
)

func newParser(t *testing.T, opts ...Option) *Parser {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(zaptest.NewLogger(t)),
	}
	return New(append(base, opts...)...)
}

func lineKinds(r *Result, line int) []violation.Kind {
	var out []violation.Kind
	for _, e := range r.LineErrors[line] {
		out = append(out, e.Kind())
	}
	return out
}

func lineWarningKinds(r *Result, line int) []violation.Kind {
	var out []violation.Kind
	for _, w := range r.LineWarnings[line] {
		out = append(out, w.Kind())
	}
	return out
}

func fileKinds(r *Result) []violation.Kind {
	var out []violation.Kind
	for _, e := range r.FileErrors {
		out = append(out, e.Kind())
	}
	return out
}

func TestValidFile(t *testing.T) {
	p := newParser(t, WithClock(func() time.Time { return time.Date(2098, time.June, 1, 0, 0, 0, 0, time.UTC) }))

	r := p.ParseString("Contact: mailto:security@example.com\nExpires: 2099-01-01T00:00:00Z\n", Options{})

	assert.False(t, r.HasErrors())
	assert.False(t, r.HasWarnings())
	assert.True(t, r.IsValid())
	assert.Equal(t, "mailto:security@example.com", r.SecurityTxt.Contact()[0].URI())
}

func TestMissingContact(t *testing.T) {
	r := newParser(t).ParseString(expires, Options{})

	assert.Empty(t, r.LineErrors)
	assert.Equal(t, []violation.Kind{violation.KindNoContact}, fileKinds(r))
	assert.False(t, r.IsValid())
}

func TestContactNotURI(t *testing.T) {
	r := newParser(t).ParseString("Contact: security@example.com\n", Options{})

	require.Equal(t, []violation.Kind{violation.KindFieldNotURI}, lineKinds(r, 1))
	assert.Equal(t, "mailto:security@example.com", r.LineErrors[1][0].CorrectValue())
}

func TestCanonicalNotHTTPS(t *testing.T) {
	r := newParser(t).ParseString("Canonical: http://example.com/.well-known/security.txt\n", Options{})

	require.Equal(t, []violation.Kind{violation.KindFieldURINotHTTPS}, lineKinds(r, 1))
	assert.Equal(t, "https://example.com/.well-known/security.txt", r.LineErrors[1][0].CorrectValue())
}

func TestPreferredLanguagesCzech(t *testing.T) {
	r := newParser(t).ParseString("Preferred-Languages: en,cz\n", Options{})

	require.Equal(t, []violation.Kind{violation.KindPreferredLanguagesCommonMistake}, lineKinds(r, 1))
	assert.Equal(t, "cs", r.LineErrors[1][0].CorrectValue())
	assert.Contains(t, r.LineErrors[1][0].Message(), "#2 `cz`")
}

func TestPreferredLanguagesSeparators(t *testing.T) {
	r := newParser(t).ParseString(contact+expires+"Preferred-Languages: en; cs. de\n", Options{})

	require.Equal(t, []violation.Kind{violation.KindPreferredLanguagesSeparatorNotComma}, lineKinds(r, 3))
	e := r.LineErrors[3][0]
	assert.Equal(t, "en, cs, de", e.CorrectValue())
	assert.Contains(t, e.Message(), "`;` at position 3")
	assert.Contains(t, e.Message(), "`.` at position 7")
	assert.Nil(t, r.SecurityTxt.PreferredLanguages())

	ok := newParser(t).ParseString(contact+expires+"Preferred-Languages: en , cs\n", Options{})
	assert.Empty(t, ok.LineErrors)
	assert.Equal(t, []string{"en", "cs"}, ok.SecurityTxt.PreferredLanguages().Languages())
}

func TestLineWithoutEOL(t *testing.T) {
	r := newParser(t).ParseString(contact+"Expires: 2025-12-31T23:59:59Z", Options{})

	require.Equal(t, []violation.Kind{violation.KindLineNoEOL}, lineKinds(r, 2))
	assert.Equal(t, "Expires: 2025-12-31T23:59:59Z\n", r.LineErrors[2][0].CorrectValue())
	assert.NotNil(t, r.SecurityTxt.Expires(), "the line is still processed")
}

func TestCRLFLines(t *testing.T) {
	r := newParser(t).ParseString("Contact: mailto:security@example.com\r\nExpires: 2025-12-31T23:59:59Z\r\n", Options{})

	assert.False(t, r.HasErrors())
	assert.Equal(t, "mailto:security@example.com", r.SecurityTxt.Contact()[0].URI())
}

func TestCommentsAndBlankLines(t *testing.T) {
	r := newParser(t).ParseString("# Our policy\n\n"+contact+"# Contactt: nope\n"+expires, Options{})

	assert.False(t, r.HasErrors())
	assert.False(t, r.HasWarnings())
	assert.Len(t, r.SecurityTxt.Contact(), 1)
}

func TestFieldTypos(t *testing.T) {
	r := newParser(t).ParseString(contact+expires+"Hirring: https://example.com/jobs\nX-Custom: whatever\n", Options{})

	require.Equal(t, []violation.Kind{violation.KindPossibleFieldTypo}, lineWarningKinds(r, 3))
	w := r.LineWarnings[3][0]
	assert.Equal(t, "Hiring: https://example.com/jobs", w.CorrectValue())
	assert.Empty(t, r.LineWarnings[4], "unrelated names are ignored")
	assert.Empty(t, r.SecurityTxt.Hiring())
}

func TestStrictModeTreatsWarningsAsInvalid(t *testing.T) {
	text := contact + expires + "Hirring: https://example.com/jobs\n"

	assert.True(t, newParser(t).ParseString(text, Options{}).IsValid())
	assert.False(t, newParser(t).ParseString(text, Options{Strict: true}).IsValid())
	assert.True(t, newParser(t).ParseString(contact+expires, Options{Strict: true}).IsValid())
}

func TestMultipleExpiresKeepsFirst(t *testing.T) {
	r := newParser(t).ParseString(contact+expires+"Expires: 2025-06-30T00:00:00Z\n", Options{})

	require.Equal(t, []violation.Kind{violation.KindMultipleExpires}, lineKinds(r, 3))
	assert.Equal(t, 2025, r.SecurityTxt.Expires().DateTime().Year())
	assert.Equal(t, time.December, r.SecurityTxt.Expires().DateTime().Month())
}

func TestExpiresFormats(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		kind    violation.Kind
		correct string
	}{
		{"rfc3339 fraction", "2025-12-31T23:59:59.123+02:00", "", ""},
		{"rfc2822", "Wed, 31 Dec 2025 23:59:59 +0000", violation.KindExpiresOldFormat, "2025-12-31T23:59:59Z"},
		{"date only", "2025-12-31", violation.KindExpiresWrongFormat, "2025-12-31T00:00:00Z"},
		{"garbage", "next tuesday", violation.KindExpiresWrongFormat, "2026-03-09T23:59:59Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newParser(t).ParseString(contact+"Expires: "+tt.value+"\n", Options{})
			if tt.kind == "" {
				assert.Empty(t, r.LineErrors)
				assert.NotNil(t, r.SecurityTxt.Expires())
				return
			}
			require.Equal(t, []violation.Kind{tt.kind}, lineKinds(r, 2))
			assert.Equal(t, tt.correct, r.LineErrors[2][0].CorrectValue())
			assert.Nil(t, r.SecurityTxt.Expires())
			assert.Equal(t, []violation.Kind{violation.KindNoExpires}, fileKinds(r))
		})
	}
}

func TestExpiredAndExpiresSoon(t *testing.T) {
	expired := newParser(t).ParseString(contact+"Expires: 2024-01-01T00:00:00Z\n", Options{})
	assert.Equal(t, []violation.Kind{violation.KindExpired}, lineKinds(expired, 2))
	assert.True(t, expired.IsExpired())
	assert.False(t, expired.IsValid())

	threshold := 400
	soon := newParser(t).ParseString(contact+expires, Options{ExpiresWarningThreshold: &threshold})
	assert.True(t, soon.ExpiresSoon)
	assert.False(t, soon.HasErrors())
	assert.False(t, soon.IsValid())

	threshold = 30
	later := newParser(t).ParseString(contact+expires, Options{ExpiresWarningThreshold: &threshold})
	assert.False(t, later.ExpiresSoon)
	assert.True(t, later.IsValid())
}

type fakeSignature struct {
	result securitytxt.SignatureVerifyResult
	err    error
}

func (f fakeSignature) Verify(string) (securitytxt.SignatureVerifyResult, error) {
	return f.result, f.err
}

const signed = "-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA512\n\n" + contact + expires +
	"-----BEGIN PGP SIGNATURE-----\n\niQIzBAEBCgAdFiEE\n-----END PGP SIGNATURE-----\n"

func TestSignature(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p := newParser(t, WithSignature(fakeSignature{result: securitytxt.SignatureVerifyResult{KeyFingerprint: "ABCD", DateTime: testNow}}))
		r := p.ParseString(signed, Options{})

		assert.Empty(t, r.LineErrors)
		assert.Empty(t, r.LineWarnings)
		require.True(t, r.SecurityTxt.IsSigned())
		assert.Equal(t, "ABCD", r.SecurityTxt.Signature().KeyFingerprint)
		require.Len(t, r.FileWarnings, 1)
		assert.Equal(t, violation.KindSignedButNoCanonical, r.FileWarnings[0].Kind())
	})

	t.Run("invalid", func(t *testing.T) {
		r := newParser(t, WithSignature(fakeSignature{err: signature.ErrInvalid})).ParseString(signed, Options{})
		assert.Equal(t, []violation.Kind{violation.KindSignatureInvalid}, lineKinds(r, 1))
		assert.False(t, r.SecurityTxt.IsSigned())
	})

	t.Run("no verifier", func(t *testing.T) {
		r := newParser(t).ParseString(signed, Options{})
		assert.Equal(t, []violation.Kind{violation.KindSignatureUnavailable}, lineWarningKinds(r, 1))
	})
}

func TestCorrectionsAreAccepted(t *testing.T) {
	tests := []struct {
		name string
		line string
		fix  func(line, correct string) string
	}{
		{"mailto", "Contact: security@example.com\n", func(_, c string) string { return "Contact: " + c + "\n" }},
		{"https", "Policy: http://example.com/policy\n", func(_, c string) string { return "Policy: " + c + "\n" }},
		{"czech", "Preferred-Languages: cz\n", func(_, c string) string { return "Preferred-Languages: " + c + "\n" }},
		{"separators", "Preferred-Languages: en;cs\n", func(_, c string) string { return "Preferred-Languages: " + c + "\n" }},
		{"old format", "Expires: Wed, 31 Dec 2025 23:59:59 +0000\n", func(_, c string) string { return "Expires: " + c + "\n" }},
		{"typo", "Contactt: mailto:security@example.com\n", func(_, c string) string { return c + "\n" }},
		{"eol", "Hiring: https://example.com/jobs", func(_, c string) string { return c }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t)
			first := p.ParseString(tt.line, Options{})

			var correct string
			var kind violation.Kind
			if errs := first.LineErrors[1]; len(errs) > 0 {
				correct, kind = errs[0].CorrectValue(), errs[0].Kind()
			} else {
				require.NotEmpty(t, first.LineWarnings[1])
				correct, kind = first.LineWarnings[1][0].CorrectValue(), first.LineWarnings[1][0].Kind()
			}
			require.NotEmpty(t, correct)

			second := p.ParseString(tt.fix(tt.line, correct), Options{})
			assert.NotContains(t, lineKinds(second, 1), kind)
			assert.NotContains(t, lineWarningKinds(second, 1), kind)
		})
	}
}

type fakeFetcher struct {
	result  *fetcher.Result
	err     error
	gotHost string
	gotOpts fetcher.FetchOptions
}

func (f *fakeFetcher) FetchHost(_ context.Context, host string, opts fetcher.FetchOptions) (*fetcher.Result, error) {
	f.gotHost, f.gotOpts = host, opts
	return f.result, f.err
}

func TestParseHost(t *testing.T) {
	contents := contact + expires + "Canonical: https://example.com/.well-known/security.txt\n"
	fake := &fakeFetcher{result: &fetcher.Result{
		ConstructedURL: "https://www.example.com/.well-known/security.txt",
		FinalURL:       "https://www.example.com/.well-known/security.txt",
		Redirects:      map[string][]string{},
		Contents:       contents,
		Warnings:       []violation.Warning{violation.WellKnownPathOnly()},
	}}

	r, err := newParser(t, WithFetcher(fake)).ParseHost(context.Background(), "www.example.com", Options{AllowIPv6: true, Strict: true})
	require.NoError(t, err)

	assert.Equal(t, "www.example.com", fake.gotHost)
	assert.True(t, fake.gotOpts.AllowIPv6)
	assert.Same(t, fake.result, r.Fetch)
	require.Len(t, r.FileWarnings, 1)
	assert.Equal(t, violation.KindCanonicalURLMismatch, r.FileWarnings[0].Kind())
	assert.Equal(t, []violation.Kind{violation.KindWellKnownPathOnly}, []violation.Kind{r.FetchWarnings()[0].Kind()})
	assert.False(t, r.IsValid(), "strict mode with warnings")
}

func TestParseHostFetchFailure(t *testing.T) {
	fake := &fakeFetcher{err: &fetcher.NotFoundError{URLs: []fetcher.URLCode{{URL: "https://example.com/.well-known/security.txt", Code: 404}}}}

	_, err := newParser(t, WithFetcher(fake)).ParseHost(context.Background(), "example.com", Options{})
	assert.ErrorIs(t, err, fetcher.ErrFetch)

	_, err = newParser(t).ParseHost(context.Background(), "example.com", Options{})
	assert.ErrorIs(t, err, ErrNoFetcher)
}

func TestLineAccess(t *testing.T) {
	r := newParser(t).ParseString(contact+expires, Options{})

	line, ok := r.Line(2)
	require.True(t, ok)
	assert.Equal(t, expires, line)
	_, ok = r.Line(3)
	assert.False(t, ok)
}

func TestEmptyInput(t *testing.T) {
	r := newParser(t).ParseString("", Options{})

	assert.Empty(t, r.Lines)
	assert.ElementsMatch(t, []violation.Kind{violation.KindNoContact, violation.KindNoExpires}, fileKinds(r))
}

func TestSuggestField(t *testing.T) {
	tests := map[string]string{
		"Expire":             "Expires",
		"contacts":           "Contact",
		"Prefered-Languages": "Preferred-Languages",
		"Acknowledgements":   "Acknowledgments",
		"Hash":               "",
		"Contact":            "",
	}
	for name, want := range tests {
		got, ok := suggestField(name)
		if want == "" {
			assert.False(t, ok, name)
			continue
		}
		assert.Equal(t, want, string(got), name)
	}
}

func TestLevenshteinCosts(t *testing.T) {
	assert.Equal(t, 0, levenshtein("contact", "contact"))
	assert.Equal(t, 10, levenshtein("contact", "contactt"))
	assert.Equal(t, 10, levenshtein("contact", "contac"))
	assert.Equal(t, 11, levenshtein("policy", "polisy"))
	assert.Equal(t, 30, levenshtein("", "abc"))
}
