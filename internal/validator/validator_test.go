package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
	"github.com/khanhnv2901/securitytxt/internal/fetcher"
)

var testNow = time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func validDoc() *securitytxt.SecurityTxt {
	doc := securitytxt.New(securitytxt.WithClock(clock))
	doc.Apply(securitytxt.NewURIField(securitytxt.FieldContact, "mailto:security@example.com"), securitytxt.Lenient)
	doc.Apply(securitytxt.NewExpires(testNow.AddDate(0, 6, 0), testNow), securitytxt.Lenient)
	return doc
}

func TestValidateEmptyDocument(t *testing.T) {
	result := New(clock).Validate(securitytxt.New(), nil)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, violation.KindNoContact, result.Errors[0].Kind())
	assert.Equal(t, violation.KindNoExpires, result.Errors[1].Kind())
	assert.Equal(t, "2026-03-09T23:59:59Z", result.Errors[1].CorrectValue())
	assert.Empty(t, result.Warnings)
}

func TestValidateValidDocument(t *testing.T) {
	result := New(clock).Validate(validDoc(), nil)

	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestSignedWithoutCanonical(t *testing.T) {
	doc := validDoc()
	doc.SetSignature(securitytxt.SignatureVerifyResult{KeyFingerprint: "ABCD", DateTime: testNow})

	result := New(clock).Validate(doc, nil)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, violation.KindSignedButNoCanonical, result.Warnings[0].Kind())
}

func TestCanonicalURL(t *testing.T) {
	doc := validDoc()
	doc.Apply(securitytxt.NewURIField(securitytxt.FieldCanonical, "https://example.com/.well-known/security.txt"), securitytxt.Lenient)

	assert.True(t, CanonicalURL(doc, nil).IsOK(), "skipped without a fetch")
	assert.True(t, CanonicalURL(doc, &fetcher.Result{FinalURL: "https://example.com/.well-known/security.txt"}).IsOK())

	o := CanonicalURL(doc, &fetcher.Result{FinalURL: "https://www.example.com/.well-known/security.txt"})
	w, ok := o.AsWarning()
	require.True(t, ok)
	assert.Equal(t, violation.KindCanonicalURLMismatch, w.Kind())
	assert.Contains(t, w.Message(), "https://www.example.com/.well-known/security.txt")

	assert.True(t, CanonicalURL(validDoc(), &fetcher.Result{FinalURL: "https://example.net/"}).IsOK(), "no Canonical field, nothing to compare")
}

func TestExtraRulesRunAfterDefaults(t *testing.T) {
	hiring := RuleFunc(func(doc *securitytxt.SecurityTxt, _ *fetcher.Result) violation.Outcome {
		if len(doc.Hiring()) == 0 {
			return violation.Warn(violation.TopLevelPathOnly())
		}
		return violation.OK()
	})

	result := New(clock, hiring).Validate(validDoc(), nil)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, violation.KindTopLevelPathOnly, result.Warnings[0].Kind())
}
