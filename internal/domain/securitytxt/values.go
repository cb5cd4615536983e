package securitytxt

import (
	"regexp"
	"strings"
	"time"
)

// FieldValue is a single parsed field line.
type FieldValue interface {
	Field() Field
	Value() string
}

// URIField is the shared shape of Acknowledgments, Canonical, Contact,
// Encryption, Hiring and Policy.
type URIField struct {
	field Field
	uri   string
}

func NewURIField(field Field, uri string) URIField {
	return URIField{field: field, uri: uri}
}

func (u URIField) Field() Field  { return u.field }
func (u URIField) Value() string { return u.uri }
func (u URIField) URI() string   { return u.uri }

var uriSchemePattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):(.*)$`)

// Scheme returns the lowercased URI scheme, or "" if the value has none.
// "host:8080" style values are not treated as having a scheme.
func (u URIField) Scheme() string {
	m := uriSchemePattern.FindStringSubmatch(u.uri)
	if m == nil || isPort(m[2]) {
		return ""
	}
	return strings.ToLower(m[1])
}

func isPort(s string) bool {
	digits := strings.SplitN(s, "/", 2)[0]
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Expires is the parsed Expires field together with its distance from the
// moment it was parsed.
type Expires struct {
	dateTime time.Time
	days     int
	expired  bool
}

// NewExpires computes the day distance from now. Days are whole days and
// negative when the date has passed.
func NewExpires(dateTime, now time.Time) Expires {
	diff := dateTime.Sub(now)
	days := int(diff / (24 * time.Hour))
	return Expires{
		dateTime: dateTime,
		days:     days,
		expired:  dateTime.Before(now),
	}
}

func (e Expires) Field() Field        { return FieldExpires }
func (e Expires) Value() string       { return e.dateTime.Format(time.RFC3339) }
func (e Expires) DateTime() time.Time { return e.dateTime }
func (e Expires) InDays() int         { return e.days }
func (e Expires) IsExpired() bool     { return e.expired }

// PreferredLanguages is the ordered list of language tags.
type PreferredLanguages struct {
	languages []string
}

func NewPreferredLanguages(languages []string) PreferredLanguages {
	return PreferredLanguages{languages: languages}
}

func (p PreferredLanguages) Field() Field { return FieldPreferredLanguages }

func (p PreferredLanguages) Value() string {
	return strings.Join(p.languages, ", ")
}

func (p PreferredLanguages) Languages() []string {
	return p.languages
}

// SignatureVerifyResult holds the signer's key fingerprint and the signing
// time of a verified OpenPGP cleartext signature.
type SignatureVerifyResult struct {
	KeyFingerprint string    `json:"keyFingerprint"`
	DateTime       time.Time `json:"dateTime"`
}
