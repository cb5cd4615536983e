package violation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

var testNow = time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)

func TestOneYearFromNow(t *testing.T) {
	assert.Equal(t, "2026-03-09T23:59:59Z", OneYearFromNow(testNow))
}

func TestLineNoEOL(t *testing.T) {
	e := LineNoEOL("Contact: mailto:a@b.c")

	assert.Equal(t, KindLineNoEOL, e.Kind())
	assert.Equal(t, "The line (`Contact: mailto:a@b.c`) doesn't end with neither <CRLF> nor <LF>", e.Message())
	assert.Equal(t, "Contact: mailto:a@b.c\n", e.CorrectValue())
	assert.Equal(t, "2.2", e.SpecSection())
	assert.Equal(t, []string{"4"}, e.SeeAlsoSections())
	assert.Equal(t, "draft-foudil-securitytxt-03", e.Since())
}

func TestFieldNotURISuggestions(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		correct string
		fix     string
	}{
		{"email", "security@example.com", "mailto:security@example.com", `The value looks like an email address, add the "mailto" schema`},
		{"phone", "+1-201-555-0123", "tel:+1-201-555-0123", `The value looks like a phone number, add the "tel" schema`},
		{"other", "example.com/security", "", "Use an URI as the value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FieldNotURI("Contact", tt.uri)
			assert.Equal(t, tt.correct, e.CorrectValue())
			assert.Equal(t, tt.fix, e.HowToFix())
			assert.Equal(t, "2.5.3", e.SpecSection())
		})
	}
}

func TestFieldURINotHTTPS(t *testing.T) {
	e := FieldURINotHTTPS("Policy", "http://example.com/policy")

	assert.Equal(t, "https://example.com/policy", e.CorrectValue())
	assert.Equal(t, "2.5.7", e.SpecSection())
	assert.Contains(t, e.Message(), "`Policy`")
}

func TestContentTypeMessages(t *testing.T) {
	missing := ContentTypeInvalid("https://example.com/.well-known/security.txt", "")
	assert.Contains(t, missing.Message(), "has no `Content-Type`")

	html := ContentTypeInvalid("https://example.com/.well-known/security.txt", "text/html")
	assert.Contains(t, html.Message(), "a `Content-Type` of `text/html`")
	assert.Equal(t, "text/plain; charset=utf-8", html.CorrectValue())

	noCharset := ContentTypeWrongCharset("https://example.com/", "text/plain", "")
	assert.Contains(t, noCharset.Message(), "parameter is missing")
	assert.Equal(t, "Add a `charset=utf-8` parameter", noCharset.HowToFix())

	wrong := ContentTypeWrongCharset("https://example.com/", "text/plain", "charset=iso-8859-2")
	assert.Contains(t, wrong.Message(), "`charset=iso-8859-2` parameter should be changed")
}

func TestSeparatorNotCommaMessage(t *testing.T) {
	e := PreferredLanguagesSeparatorNotComma(
		[]Separator{{Separator: ";", Positions: []int{3, 7}}, {Separator: ".", Positions: []int{11}}},
		[]string{"en", "cs", "de", "fr"},
	)

	assert.Equal(t, "The `Preferred-Languages` field uses wrong separators (`;` at positions 3, 7 characters from the start; `.` at position 11 characters from the start), separate multiple values with a comma (`,`)", e.Message())
	assert.Equal(t, "en, cs, de, fr", e.CorrectValue())
}

func TestWrongLanguageTagsMessage(t *testing.T) {
	one := PreferredLanguagesWrongLanguageTags([]LanguageTag{{Position: 2, Tag: "e_n"}})
	assert.Contains(t, one.Message(), "The language tag #2 `e_n` seems invalid")

	two := PreferredLanguagesWrongLanguageTags([]LanguageTag{{Position: 1, Tag: "1"}, {Position: 3, Tag: "?"}})
	assert.Contains(t, two.Message(), "The language tags #1 `1`, #3 `?` seem invalid")
}

func TestPossibleFieldTypo(t *testing.T) {
	w := PossibleFieldTypo("Contactt", "Contact", "Contactt: mailto:a@example.com")

	assert.Equal(t, "Field `Contactt` may be a typo, did you mean `Contact`?", w.Message())
	assert.Equal(t, "Contact: mailto:a@example.com", w.CorrectValue())
	assert.Empty(t, w.Since())
	assert.Empty(t, w.SpecSection())
}

func TestCanonicalURLMismatchHowToFix(t *testing.T) {
	w := CanonicalURLMismatch("https://example.com/.well-known/security.txt", []string{"https://example.org/.well-known/security.txt"})

	assert.Equal(t, "The file was fetched from https://example.com/.well-known/security.txt but the Canonical field does not list this URL", w.Message())
	assert.Equal(t, "Add the URL https://example.com/.well-known/security.txt to the Canonical field, or ensure the file is fetched from the listed canonical URL: https://example.org/.well-known/security.txt", w.HowToFix())
}

func TestString(t *testing.T) {
	e := NoExpires(testNow)
	assert.Equal(t, "The `Expires` field must always be present (How to fix: Add an `Expires` field with a date and time in the future formatted according to the Internet profile of ISO 8601 as defined in RFC 3339, e.g. 2026-03-09T23:59:59Z)", e.String())
}

func TestOutcome(t *testing.T) {
	assert.True(t, OK().IsOK())

	failed := Fail(NoContact())
	assert.False(t, failed.IsOK())
	e, ok := failed.AsError()
	require.True(t, ok)
	assert.Equal(t, KindNoContact, e.Kind())
	_, ok = failed.AsWarning()
	assert.False(t, ok)

	warned := Warn(SignedButNoCanonical())
	_, ok = warned.AsError()
	assert.False(t, ok)
	w, ok := warned.AsWarning()
	require.True(t, ok)
	assert.Equal(t, KindSignedButNoCanonical, w.Kind())
}

func TestErrorsRoundTrip(t *testing.T) {
	expires := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.FixedZone("", 3600))
	errs := []Error{
		ContentTypeInvalid("https://example.com/security.txt", "text/html"),
		ContentTypeWrongCharset("https://example.com/security.txt", "text/plain", "charset=latin2"),
		Expired(testNow),
		ExpiresOldFormat(expires),
		ExpiresWrongFormat(nil, testNow),
		ExpiresWrongFormat(&expires, testNow),
		FieldNotURI("Contact", "security@example.com"),
		FieldURINotHTTPS("Hiring", "http://example.com/jobs"),
		LineNoEOL("Expires: 2026-01-01T00:00:00Z"),
		MultipleExpires(),
		MultiplePreferredLanguages(),
		NoContact(),
		NoExpires(testNow),
		PreferredLanguagesCommonMistake(2, "cz", "cs", "the code for Czech language is `cs`, not `cz`"),
		PreferredLanguagesEmpty(),
		PreferredLanguagesSeparatorNotComma([]Separator{{Separator: ";", Positions: []int{3}}}, []string{"en", "cs"}),
		PreferredLanguagesWrongLanguageTags([]LanguageTag{{Position: 1, Tag: "e_n"}}),
		SchemeNotHTTPS("http://example.com/.well-known/security.txt"),
		SignatureInvalid(),
	}

	data, err := json.Marshal(errs)
	require.NoError(t, err)

	var decoded []Error
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, len(errs))
	for i := range errs {
		assert.Equal(t, errs[i], decoded[i], "kind %s", errs[i].Kind())
	}
}

func TestWarningsRoundTrip(t *testing.T) {
	warnings := []Warning{
		CanonicalURLMismatch("https://example.com/", []string{"https://a.example/", "https://b.example/"}),
		ExpiresTooLong(testNow),
		PossibleFieldTypo("Contactt", "Contact", "Contactt: mailto:a@example.com"),
		SignatureUnavailable(),
		SignedButNoCanonical(),
		TopLevelDiffers("Contact: mailto:a@example.com\n", "Contact: mailto:b@example.com\n"),
		TopLevelPathOnly(),
		WellKnownPathOnly(),
	}

	data, err := json.Marshal(warnings)
	require.NoError(t, err)

	var decoded []Warning
	require.NoError(t, json.Unmarshal(data, &decoded))
	for i := range warnings {
		assert.Equal(t, warnings[i], decoded[i], "kind %s", warnings[i].Kind())
	}
}

func TestDecodeRejectsUnknownAndCrossSeverity(t *testing.T) {
	_, err := DecodeError(Record{Kind: "made-up"})
	assert.ErrorIs(t, err, apperrors.ErrDeserializationFailed)

	_, err = DecodeError(Record{Kind: KindTopLevelPathOnly})
	assert.ErrorIs(t, err, apperrors.ErrDeserializationFailed)

	_, err = DecodeWarning(Record{Kind: KindNoContact})
	assert.ErrorIs(t, err, apperrors.ErrDeserializationFailed)

	_, err = DecodeError(Record{Kind: KindLineNoEOL, Params: json.RawMessage(`{"line": 5}`)})
	assert.ErrorIs(t, err, apperrors.ErrDeserializationFailed)
}

func TestIsWarningKind(t *testing.T) {
	assert.True(t, IsWarningKind(KindExpiresTooLong))
	assert.False(t, IsWarningKind(KindExpired))
}
