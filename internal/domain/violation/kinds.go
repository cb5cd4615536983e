package violation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Kind identifies a violation type. The set is closed.
type Kind string

const (
	KindCanonicalURLMismatch                Kind = "canonical-url-mismatch"
	KindContentTypeInvalid                  Kind = "content-type-invalid"
	KindContentTypeWrongCharset             Kind = "content-type-wrong-charset"
	KindExpired                             Kind = "expired"
	KindExpiresOldFormat                    Kind = "expires-old-format"
	KindExpiresTooLong                      Kind = "expires-too-long"
	KindExpiresWrongFormat                  Kind = "expires-wrong-format"
	KindFieldNotURI                         Kind = "field-not-uri"
	KindFieldURINotHTTPS                    Kind = "field-uri-not-https"
	KindLineNoEOL                           Kind = "line-no-eol"
	KindMultipleExpires                     Kind = "multiple-expires"
	KindMultiplePreferredLanguages          Kind = "multiple-preferred-languages"
	KindNoContact                           Kind = "no-contact"
	KindNoExpires                           Kind = "no-expires"
	KindPossibleFieldTypo                   Kind = "possible-field-typo"
	KindPreferredLanguagesCommonMistake     Kind = "preferred-languages-common-mistake"
	KindPreferredLanguagesEmpty             Kind = "preferred-languages-empty"
	KindPreferredLanguagesSeparatorNotComma Kind = "preferred-languages-separator-not-comma"
	KindPreferredLanguagesWrongLanguageTags Kind = "preferred-languages-wrong-language-tags"
	KindSchemeNotHTTPS                      Kind = "scheme-not-https"
	KindSignatureInvalid                    Kind = "signature-invalid"
	KindSignatureUnavailable                Kind = "signature-unavailable"
	KindSignedButNoCanonical                Kind = "signed-but-no-canonical"
	KindTopLevelDiffers                     Kind = "top-level-differs"
	KindTopLevelPathOnly                    Kind = "top-level-path-only"
	KindWellKnownPathOnly                   Kind = "well-known-path-only"
)

const (
	draft = "draft-foudil-securitytxt-"

	expiresFormatHint = "The `Expires` field should contain a date and time in the future formatted according to the Internet profile of ISO 8601 as defined in RFC 3339"
	languageTagsHint  = "Use language tags as defined in RFC 5646, which usually means the shortest ISO 639 code"
	redirectHint      = "Redirect the top-level file to the one under the `/.well-known/` path"
	contentTypeValue  = "text/plain; charset=utf-8"
)

// URI field sections and the draft each field appeared in.
var uriFields = map[string]struct{ section, since string }{
	"Acknowledgments": {"2.5.1", draft + "03"},
	"Canonical":       {"2.5.2", draft + "05"},
	"Contact":         {"2.5.3", draft + "03"},
	"Encryption":      {"2.5.4", draft + "00"},
	"Hiring":          {"2.5.6", draft + "03"},
	"Policy":          {"2.5.7", draft + "02"},
}

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9][0-9 ()./-]{4,}$`)
	httpURIPattern = regexp.MustCompile(`(?i)^http://`)
)

// OneYearFromNow is the suggested Expires value: the last second of the day
// before the same date next year.
func OneYearFromNow(now time.Time) string {
	y, m, d := now.Date()
	return time.Date(y+1, m, d, 0, 0, 0, 0, now.Location()).Add(-time.Second).Format(time.RFC3339)
}

type canonicalURLMismatch struct {
	FetchedURL    string   `json:"fetchedUrl"`
	CanonicalURLs []string `json:"canonicalUrls"`
}

func (p canonicalURLMismatch) build() Violation {
	placeholders := strings.TrimSuffix(strings.Repeat("%s, ", len(p.CanonicalURLs)), ", ")
	fix := "Add the URL %s to the %s field, or ensure the file is fetched from one of the listed canonical URLs: " + placeholders
	if len(p.CanonicalURLs) == 1 {
		fix = "Add the URL %s to the %s field, or ensure the file is fetched from the listed canonical URL: " + placeholders
	}
	fixValues := []any{p.FetchedURL, "Canonical"}
	for _, u := range p.CanonicalURLs {
		fixValues = append(fixValues, u)
	}
	return Violation{
		kind:           KindCanonicalURLMismatch,
		params:         p,
		messageFormat:  "The file was fetched from %s but the %s field does not list this URL",
		messageValues:  []any{p.FetchedURL, "Canonical"},
		since:          draft + "09",
		howToFixFormat: fix,
		howToFixValues: fixValues,
		specSection:    "2.5.2",
	}
}

// CanonicalURLMismatch is raised when the fetched URL is not one of the
// listed Canonical URLs.
func CanonicalURLMismatch(fetchedURL string, canonicalURLs []string) Warning {
	return Warning{canonicalURLMismatch{FetchedURL: fetchedURL, CanonicalURLs: canonicalURLs}.build()}
}

type contentTypeInvalid struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
}

func (p contentTypeInvalid) build() Violation {
	v := Violation{
		kind:           KindContentTypeInvalid,
		params:         p,
		messageFormat:  "The file at `%s` has no `Content-Type` but it should be a `Content-Type` of `text/plain` with the `charset` parameter set to `utf-8`",
		messageValues:  []any{p.URL},
		since:          draft + "03",
		correctValue:   contentTypeValue,
		howToFixFormat: "Send a correct `Content-Type` header value of `text/plain` with the `charset` parameter set to `utf-8`",
		specSection:    "3",
	}
	if p.ContentType != "" {
		v.messageFormat = "The file at `%s` has a `Content-Type` of `%s` but it should be a `Content-Type` of `text/plain` with the `charset` parameter set to `utf-8`"
		v.messageValues = append(v.messageValues, p.ContentType)
	}
	return v
}

// ContentTypeInvalid is raised when the media type is not text/plain. An
// empty contentType means the header was missing.
func ContentTypeInvalid(url, contentType string) Error {
	return Error{contentTypeInvalid{URL: url, ContentType: contentType}.build()}
}

type contentTypeWrongCharset struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Charset     string `json:"charset,omitempty"`
}

func (p contentTypeWrongCharset) build() Violation {
	v := Violation{
		kind:          KindContentTypeWrongCharset,
		params:        p,
		since:         draft + "03",
		correctValue:  contentTypeValue,
		specSection:   "3",
		messageFormat: "The file at `%s` has a correct `Content-Type` of `%s` but the `charset=utf-8` parameter is missing",
		messageValues: []any{p.URL, p.ContentType},
	}
	v.howToFixFormat = "Add a `charset=utf-8` parameter"
	if p.Charset != "" {
		v.messageFormat = "The file at `%s` has a correct `Content-Type` of `%s` but the `%s` parameter should be changed to `charset=utf-8`"
		v.messageValues = append(v.messageValues, p.Charset)
		v.howToFixFormat = "Change the parameter to `charset=utf-8`"
	}
	return v
}

// ContentTypeWrongCharset is raised for text/plain without charset=utf-8. An
// empty charset means the parameter was missing.
func ContentTypeWrongCharset(url, contentType, charset string) Error {
	return Error{contentTypeWrongCharset{URL: url, ContentType: contentType, Charset: charset}.build()}
}

type suggestion struct {
	CorrectValue string `json:"correctValue"`
}

type expired suggestion

func (p expired) build() Violation {
	return Violation{
		kind:           KindExpired,
		params:         p,
		messageFormat:  "The file is considered stale and should not be used",
		since:          draft + "09",
		correctValue:   p.CorrectValue,
		howToFixFormat: expiresFormatHint,
		specSection:    "2.5.5",
		seeAlso:        []string{"5.3"},
	}
}

// Expired is raised when the Expires date is in the past.
func Expired(now time.Time) Error {
	return Error{expired{CorrectValue: OneYearFromNow(now)}.build()}
}

type expiresOldFormat struct {
	Expires string `json:"expires"`
}

func (p expiresOldFormat) build() Violation {
	return Violation{
		kind:           KindExpiresOldFormat,
		params:         p,
		messageFormat:  "The value of the `Expires` field follows the format defined in section 3.3 of RFC 5322 but it should be formatted according to the Internet profile of ISO 8601 as defined in RFC 3339 (`%s`)",
		messageValues:  []any{p.Expires},
		since:          draft + "12",
		correctValue:   p.Expires,
		howToFixFormat: "Change the value of the `Expires` field to `%s`",
		howToFixValues: []any{p.Expires},
		specSection:    "2.5.5",
	}
}

// ExpiresOldFormat is raised for an RFC 5322 date; the suggestion is the same
// instant in RFC 3339.
func ExpiresOldFormat(expires time.Time) Error {
	return Error{expiresOldFormat{Expires: expires.Format(time.RFC3339)}.build()}
}

type expiresTooLong suggestion

func (p expiresTooLong) build() Violation {
	return Violation{
		kind:           KindExpiresTooLong,
		params:         p,
		messageFormat:  "The value of the `Expires` should be less than a year into the future to avoid staleness",
		since:          draft + "10",
		correctValue:   p.CorrectValue,
		howToFixFormat: "Change the value of the `Expires` field to less than a year into the future",
		specSection:    "2.5.5",
	}
}

func ExpiresTooLong(now time.Time) Warning {
	return Warning{expiresTooLong{CorrectValue: OneYearFromNow(now)}.build()}
}

type expiresWrongFormat suggestion

func (p expiresWrongFormat) build() Violation {
	return Violation{
		kind:           KindExpiresWrongFormat,
		params:         p,
		messageFormat:  "The format of the value of the `Expires` field is wrong",
		since:          draft + "09",
		correctValue:   p.CorrectValue,
		howToFixFormat: expiresFormatHint,
		specSection:    "2.5.5",
	}
}

// ExpiresWrongFormat is raised for an unrecognized date. If the value could
// still be read loosely, pass it as parsed; otherwise pass nil.
func ExpiresWrongFormat(parsed *time.Time, now time.Time) Error {
	correct := OneYearFromNow(now)
	if parsed != nil {
		correct = parsed.Format(time.RFC3339)
	}
	return Error{expiresWrongFormat{CorrectValue: correct}.build()}
}

type fieldNotURI struct {
	Field string `json:"field"`
	URI   string `json:"uri"`
}

func (p fieldNotURI) build() Violation {
	meta := uriFields[p.Field]
	v := Violation{
		kind:           KindFieldNotURI,
		params:         p,
		messageFormat:  "The `%s` value doesn't follow the URI syntax described in RFC 3986, the scheme is missing",
		messageValues:  []any{p.Field},
		since:          meta.since,
		howToFixFormat: "Use an URI as the value",
		specSection:    meta.section,
	}
	switch {
	case looksLikeEmail(p.URI):
		v.correctValue = "mailto:" + p.URI
		v.howToFixFormat = `The value looks like an email address, add the "mailto" schema`
	case phonePattern.MatchString(p.URI):
		v.correctValue = "tel:" + p.URI
		v.howToFixFormat = `The value looks like a phone number, add the "tel" schema`
	}
	return v
}

// FieldNotURI is raised when a URI field has no scheme. Values that look
// like an email address or a phone number get a mailto: or tel: suggestion.
func FieldNotURI(field, uri string) Error {
	return Error{fieldNotURI{Field: field, URI: uri}.build()}
}

type fieldURINotHTTPS fieldNotURI

func (p fieldURINotHTTPS) build() Violation {
	return Violation{
		kind:           KindFieldURINotHTTPS,
		params:         p,
		messageFormat:  "If the `%s` field indicates a web URI, then it must begin with \"https://\"",
		messageValues:  []any{p.Field},
		since:          draft + "06",
		correctValue:   httpURIPattern.ReplaceAllString(p.URI, "https://"),
		howToFixFormat: "Make sure the `%s` field points to an https:// URI",
		howToFixValues: []any{p.Field},
		specSection:    uriFields[p.Field].section,
	}
}

// FieldURINotHTTPS is raised when a URI field uses plain http.
func FieldURINotHTTPS(field, uri string) Error {
	return Error{fieldURINotHTTPS{Field: field, URI: uri}.build()}
}

type lineNoEOL struct {
	Line string `json:"line"`
}

func (p lineNoEOL) build() Violation {
	return Violation{
		kind:           KindLineNoEOL,
		params:         p,
		messageFormat:  "The line (`%s`) doesn't end with neither <CRLF> nor <LF>",
		messageValues:  []any{p.Line},
		since:          draft + "03",
		correctValue:   p.Line + "\n",
		howToFixFormat: "End the line with either <CRLF> or <LF>",
		specSection:    "2.2",
		seeAlso:        []string{"4"},
	}
}

func LineNoEOL(line string) Error {
	return Error{lineNoEOL{Line: line}.build()}
}

type noParams struct{}

type multipleExpires noParams

func (p multipleExpires) build() Violation {
	return Violation{
		kind:           KindMultipleExpires,
		messageFormat:  "The `Expires` field must not appear more than once",
		since:          draft + "09",
		howToFixFormat: "Make sure the `Expires` field is present only once in the file",
		specSection:    "2.5.5",
	}
}

func MultipleExpires() Error {
	return Error{multipleExpires{}.build()}
}

type multiplePreferredLanguages noParams

func (p multiplePreferredLanguages) build() Violation {
	return Violation{
		kind:           KindMultiplePreferredLanguages,
		messageFormat:  "The `Preferred-Languages` field must not appear more than once",
		since:          draft + "05",
		howToFixFormat: "Make sure the `Preferred-Languages` field is present only once in the file",
		specSection:    "2.5.8",
	}
}

func MultiplePreferredLanguages() Error {
	return Error{multiplePreferredLanguages{}.build()}
}

type noContact noParams

func (p noContact) build() Violation {
	return Violation{
		kind:           KindNoContact,
		messageFormat:  "The `Contact` field must always be present",
		since:          draft + "00",
		howToFixFormat: `Add at least one ` + "`Contact`" + ` field with a value that follows the URI syntax described in RFC 3986. This means that "mailto" and "tel" URI schemes must be used when specifying email addresses and telephone numbers, e.g. mailto:security@example.com`,
		specSection:    "2.5.3",
		seeAlso:        []string{"2.5.4"},
	}
}

func NoContact() Error {
	return Error{noContact{}.build()}
}

type noExpires suggestion

func (p noExpires) build() Violation {
	return Violation{
		kind:           KindNoExpires,
		params:         p,
		messageFormat:  "The `Expires` field must always be present",
		since:          draft + "10",
		correctValue:   p.CorrectValue,
		howToFixFormat: "Add an `Expires` field with a date and time in the future formatted according to the Internet profile of ISO 8601 as defined in RFC 3339",
		specSection:    "2.5.5",
	}
}

func NoExpires(now time.Time) Error {
	return Error{noExpires{CorrectValue: OneYearFromNow(now)}.build()}
}

type possibleFieldTypo struct {
	FieldName  string `json:"fieldName"`
	Suggestion string `json:"suggestion"`
	Line       string `json:"line"`
}

func (p possibleFieldTypo) build() Violation {
	return Violation{
		kind:           KindPossibleFieldTypo,
		params:         p,
		messageFormat:  "Field `%s` may be a typo, did you mean `%s`?",
		messageValues:  []any{p.FieldName, p.Suggestion},
		correctValue:   strings.Replace(p.Line, p.FieldName, p.Suggestion, 1),
		howToFixFormat: "Change `%s` to `%s`",
		howToFixValues: []any{p.FieldName, p.Suggestion},
	}
}

// PossibleFieldTypo is raised for an unknown field name close to a known one.
func PossibleFieldTypo(fieldName, suggestion, line string) Warning {
	return Warning{possibleFieldTypo{FieldName: fieldName, Suggestion: suggestion, Line: line}.build()}
}

type preferredLanguagesCommonMistake struct {
	Position     int    `json:"position"`
	Mistake      string `json:"mistake"`
	CorrectValue string `json:"correctValue,omitempty"`
	Reason       string `json:"reason"`
}

func (p preferredLanguagesCommonMistake) build() Violation {
	return Violation{
		kind:           KindPreferredLanguagesCommonMistake,
		params:         p,
		messageFormat:  "The language tag #%d `%s` in the `Preferred-Languages` field is not correct, %s",
		messageValues:  []any{p.Position, p.Mistake, p.Reason},
		since:          draft + "05",
		correctValue:   p.CorrectValue,
		howToFixFormat: languageTagsHint,
		specSection:    "2.5.8",
	}
}

// PreferredLanguagesCommonMistake flags a well-known wrong tag at a 1-based
// position in the list.
func PreferredLanguagesCommonMistake(position int, mistake, correctValue, reason string) Error {
	return Error{preferredLanguagesCommonMistake{Position: position, Mistake: mistake, CorrectValue: correctValue, Reason: reason}.build()}
}

type preferredLanguagesEmpty noParams

func (p preferredLanguagesEmpty) build() Violation {
	return Violation{
		kind:           KindPreferredLanguagesEmpty,
		messageFormat:  "The `Preferred-Languages` field must have at least one language listed",
		since:          draft + "05",
		howToFixFormat: "Add one or more languages to the field, separated by commas",
		specSection:    "2.5.8",
	}
}

func PreferredLanguagesEmpty() Error {
	return Error{preferredLanguagesEmpty{}.build()}
}

// Separator lists the 1-based character offsets of one wrong separator.
type Separator struct {
	Separator string `json:"separator"`
	Positions []int  `json:"positions"`
}

type preferredLanguagesSeparatorNotComma struct {
	Separators []Separator `json:"separators"`
	Languages  []string    `json:"languages"`
}

func (p preferredLanguagesSeparatorNotComma) build() Violation {
	parts := make([]string, 0, len(p.Separators))
	for _, s := range p.Separators {
		noun := "position"
		if len(s.Positions) > 1 {
			noun = "positions"
		}
		positions := make([]string, 0, len(s.Positions))
		for _, pos := range s.Positions {
			positions = append(positions, fmt.Sprint(pos))
		}
		parts = append(parts, fmt.Sprintf("`%s` at %s %s characters from the start", s.Separator, noun, strings.Join(positions, ", ")))
	}
	uses := "uses a wrong separator"
	if len(p.Separators) > 1 {
		uses = "uses wrong separators"
	}
	return Violation{
		kind:           KindPreferredLanguagesSeparatorNotComma,
		params:         p,
		messageFormat:  "The `Preferred-Languages` field %s (%s), separate multiple values with a comma (`,`)",
		messageValues:  []any{uses, strings.Join(parts, "; ")},
		since:          draft + "05",
		correctValue:   strings.Join(p.Languages, ", "),
		howToFixFormat: "Use comma (`,`) to list multiple languages in the `Preferred-Languages` field",
		specSection:    "2.5.8",
	}
}

// PreferredLanguagesSeparatorNotComma is raised when tags are separated by
// something other than a comma. The suggestion rejoins languages with commas.
func PreferredLanguagesSeparatorNotComma(separators []Separator, languages []string) Error {
	return Error{preferredLanguagesSeparatorNotComma{Separators: separators, Languages: languages}.build()}
}

// LanguageTag is a tag and its 1-based position in the list.
type LanguageTag struct {
	Position int    `json:"position"`
	Tag      string `json:"tag"`
}

type preferredLanguagesWrongLanguageTags struct {
	Tags []LanguageTag `json:"tags"`
}

func (p preferredLanguagesWrongLanguageTags) build() Violation {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, fmt.Sprintf("#%d `%s`", t.Position, t.Tag))
	}
	format := "The language tag %s seems invalid, the `Preferred-Languages` field must contain one or more language tags as defined in RFC 5646"
	if len(p.Tags) > 1 {
		format = "The language tags %s seem invalid, the `Preferred-Languages` field must contain one or more language tags as defined in RFC 5646"
	}
	return Violation{
		kind:           KindPreferredLanguagesWrongLanguageTags,
		params:         p,
		messageFormat:  format,
		messageValues:  []any{strings.Join(tags, ", ")},
		since:          draft + "05",
		howToFixFormat: languageTagsHint + " like for example `en`",
		specSection:    "2.5.8",
	}
}

func PreferredLanguagesWrongLanguageTags(tags []LanguageTag) Error {
	return Error{preferredLanguagesWrongLanguageTags{Tags: tags}.build()}
}

type schemeNotHTTPS struct {
	URL string `json:"url"`
}

func (p schemeNotHTTPS) build() Violation {
	return Violation{
		kind:           KindSchemeNotHTTPS,
		params:         p,
		messageFormat:  "The file at `%s` must use HTTPS",
		messageValues:  []any{p.URL},
		since:          draft + "06",
		correctValue:   httpURIPattern.ReplaceAllString(p.URL, "https://"),
		howToFixFormat: "Use HTTPS to serve the `security.txt` file",
		specSection:    "3",
	}
}

// SchemeNotHTTPS is raised when the final URL of the fetch is not https.
func SchemeNotHTTPS(url string) Error {
	return Error{schemeNotHTTPS{URL: url}.build()}
}

type signatureInvalid noParams

func (p signatureInvalid) build() Violation {
	return Violation{
		kind:           KindSignatureInvalid,
		messageFormat:  "The file is digitally signed using an OpenPGP cleartext signature but the signature is not valid",
		since:          draft + "01",
		howToFixFormat: "Sign the file again",
		specSection:    "2.3",
	}
}

func SignatureInvalid() Error {
	return Error{signatureInvalid{}.build()}
}

type signatureUnavailable noParams

func (p signatureUnavailable) build() Violation {
	return Violation{
		kind:           KindSignatureUnavailable,
		messageFormat:  "The file is digitally signed using an OpenPGP cleartext signature but signatures cannot be verified",
		since:          draft + "01",
		howToFixFormat: "Configure an OpenPGP keyring to verify signatures",
		specSection:    "3.3",
	}
}

// SignatureUnavailable is raised when no signature verifier is configured.
func SignatureUnavailable() Warning {
	return Warning{signatureUnavailable{}.build()}
}

type signedButNoCanonical noParams

func (p signedButNoCanonical) build() Violation {
	return Violation{
		kind:           KindSignedButNoCanonical,
		messageFormat:  "When digital signatures are used, it is also recommended that organizations use the `Canonical` field",
		since:          draft + "05",
		howToFixFormat: "Add `Canonical` field pointing where the `security.txt` file is located",
		specSection:    "2.3",
		seeAlso:        []string{"2.5.2"},
	}
}

func SignedButNoCanonical() Warning {
	return Warning{signedButNoCanonical{}.build()}
}

type topLevelDiffers struct {
	WellKnownContents string `json:"wellKnownContents"`
	TopLevelContents  string `json:"topLevelContents"`
}

func (p topLevelDiffers) build() Violation {
	return Violation{
		kind:           KindTopLevelDiffers,
		params:         p,
		messageFormat:  "The file at the top-level path is different than the one in the `/.well-known/` path",
		since:          draft + "09",
		howToFixFormat: redirectHint,
		specSection:    "4",
	}
}

// TopLevelDiffers is raised when both locations serve different files.
func TopLevelDiffers(wellKnownContents, topLevelContents string) Warning {
	return Warning{topLevelDiffers{WellKnownContents: wellKnownContents, TopLevelContents: topLevelContents}.build()}
}

type topLevelPathOnly noParams

func (p topLevelPathOnly) build() Violation {
	return Violation{
		kind:           KindTopLevelPathOnly,
		messageFormat:  "`security.txt` wasn't found under the `/.well-known/` path",
		since:          draft + "02",
		howToFixFormat: "Move the `security.txt` file from the top-level location under the `/.well-known/` path and redirect `/security.txt` to `/.well-known/security.txt`",
		specSection:    "3",
	}
}

// TopLevelPathOnly is raised when the file exists only at /security.txt.
func TopLevelPathOnly() Warning {
	return Warning{topLevelPathOnly{}.build()}
}

type wellKnownPathOnly noParams

func (p wellKnownPathOnly) build() Violation {
	return Violation{
		kind:           KindWellKnownPathOnly,
		messageFormat:  "`security.txt` not found at the top-level path",
		since:          draft + "02",
		howToFixFormat: redirectHint,
		specSection:    "3",
	}
}

// WellKnownPathOnly is raised when the file exists only under /.well-known/.
func WellKnownPathOnly() Warning {
	return Warning{wellKnownPathOnly{}.build()}
}

func looksLikeEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
