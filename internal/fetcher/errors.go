package fetcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFetch is matched by every fatal fetch failure.
var ErrFetch = errors.New("security.txt fetch failed")

// Transport classification returned by HTTPClient implementations.
var (
	ErrCannotOpen = errors.New("cannot open url")
	ErrCannotRead = errors.New("cannot read url")
	ErrNoHTTPCode = errors.New("missing http status code")
)

func redirectSuffix(redirects []string) string {
	if len(redirects) == 0 {
		return ""
	}
	return fmt.Sprintf(" (redirects: %s)", strings.Join(redirects, " => "))
}

// HostNotFoundError means DNS returned no usable address.
type HostNotFoundError struct {
	URL  string
	Host string
	Err  error
}

func (e *HostNotFoundError) Error() string {
	return fmt.Sprintf("Can't open %s, can't resolve %s", e.URL, e.Host)
}

func (e *HostNotFoundError) Is(target error) bool { return target == ErrFetch }
func (e *HostNotFoundError) Unwrap() error        { return e.Err }

// OnlyIPv6HostError means the host has only AAAA records while IPv6 is
// disabled.
type OnlyIPv6HostError struct {
	URL  string
	Host string
	IP   string
}

func (e *OnlyIPv6HostError) Error() string {
	return fmt.Sprintf("Can't open %s, %s resolves only to the IPv6 address %s and IPv6 is disabled", e.URL, e.Host, e.IP)
}

func (e *OnlyIPv6HostError) Is(target error) bool { return target == ErrFetch }

// CannotOpenURLError wraps a connection or TLS failure.
type CannotOpenURLError struct {
	URL       string
	Redirects []string
	Err       error
}

func (e *CannotOpenURLError) Error() string {
	return fmt.Sprintf("Can't open %s%s", e.URL, redirectSuffix(e.Redirects))
}

func (e *CannotOpenURLError) Is(target error) bool { return target == ErrFetch }
func (e *CannotOpenURLError) Unwrap() error        { return e.Err }

// CannotReadURLError wraps a failure while reading the response body.
type CannotReadURLError struct {
	URL       string
	Redirects []string
	Err       error
}

func (e *CannotReadURLError) Error() string {
	return fmt.Sprintf("Can't get contents of %s%s", e.URL, redirectSuffix(e.Redirects))
}

func (e *CannotReadURLError) Is(target error) bool { return target == ErrFetch }
func (e *CannotReadURLError) Unwrap() error        { return e.Err }

// NoHTTPCodeError means the response had no parseable status line.
type NoHTTPCodeError struct {
	URL       string
	Redirects []string
}

func (e *NoHTTPCodeError) Error() string {
	return fmt.Sprintf("Missing HTTP code when fetching %s%s", e.URL, redirectSuffix(e.Redirects))
}

func (e *NoHTTPCodeError) Is(target error) bool { return target == ErrFetch }

// NoLocationHeaderError is a 3xx response without a Location header.
type NoLocationHeaderError struct {
	URL  string
	Code int
}

func (e *NoLocationHeaderError) Error() string {
	return fmt.Sprintf("HTTP response with code %d is missing a Location header when fetching %s", e.Code, e.URL)
}

func (e *NoLocationHeaderError) Is(target error) bool { return target == ErrFetch }

// TooManyRedirectsError carries the redirect chain that exceeded the limit.
type TooManyRedirectsError struct {
	URL        string
	Redirects  []string
	MaxAllowed int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("Can't read %s, too many redirects, max allowed is %d (%s [not loaded])", e.URL, e.MaxAllowed, strings.Join(e.Redirects, " → "))
}

func (e *TooManyRedirectsError) Is(target error) bool { return target == ErrFetch }

// URLCode is the HTTP status a URL answered with.
type URLCode struct {
	URL  string `json:"url"`
	Code int    `json:"code"`
}

// NotFoundError means neither location served the file.
type NotFoundError struct {
	URLs []URLCode
}

func (e *NotFoundError) Error() string {
	parts := make([]string, 0, len(e.URLs))
	for _, u := range e.URLs {
		parts = append(parts, fmt.Sprintf("%s => %d", u.URL, u.Code))
	}
	return "Can't read security.txt: " + strings.Join(parts, ", ")
}

func (e *NotFoundError) Is(target error) bool { return target == ErrFetch }

// Codes returns the status per URL.
func (e *NotFoundError) Codes() map[string]int {
	codes := make(map[string]int, len(e.URLs))
	for _, u := range e.URLs {
		codes[u.URL] = u.Code
	}
	return codes
}

// SeemsLikeHTMLPageError means a location answered with a regular web page,
// typically a soft 404 or a redirect to a home page.
type SeemsLikeHTMLPageError struct {
	URL       string
	Redirects []string
}

func (e *SeemsLikeHTMLPageError) Error() string {
	if len(e.Redirects) == 0 {
		return fmt.Sprintf("The page at %s seems like a regular HTML page, not a security.txt file", e.URL)
	}
	return fmt.Sprintf("When trying to load %s, the request got redirected to what seems like a regular HTML page, not a security.txt file (redirected to: %s)", e.URL, strings.Join(e.Redirects, " → "))
}

func (e *SeemsLikeHTMLPageError) Is(target error) bool { return target == ErrFetch }

// urlNotFound is the per-URL ≥400 outcome. It is not fatal on its own.
type urlNotFound struct {
	URL  string
	Code int
}

func (e *urlNotFound) Error() string {
	return fmt.Sprintf("URL %s not found, code %d", e.URL, e.Code)
}
