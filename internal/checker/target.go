package checker

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

// HostnameError means no host name could be extracted from the input.
type HostnameError struct {
	Input string
	Err   error
}

func (e *HostnameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Can't extract hostname from %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("Can't extract hostname from %q", e.Input)
}

func (e *HostnameError) Unwrap() error        { return e.Err }
func (e *HostnameError) Is(target error) bool { return target == apperrors.ErrInvalidHost }

// ParseHost extracts the host name to check from user input and converts
// it to its ASCII form. It handles these formats:
//   - example.com
//   - example.com/foo
//   - https://example.com:8443/foo
//   - https:/example.com/foo
func ParseHost(input string) (string, error) {
	target := strings.TrimSpace(input)
	if target == "" {
		return "", &HostnameError{Input: input, Err: apperrors.ErrEmptyTarget}
	}

	host := hostFromURL(target)
	if host == "" {
		return "", &HostnameError{Input: input}
	}
	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(host, "."))
	if err != nil {
		return "", &HostnameError{Input: input, Err: err}
	}
	return strings.ToLower(ascii), nil
}

func hostFromURL(target string) string {
	parsed, err := url.Parse(target)
	if err == nil && parsed.Host != "" {
		return parsed.Hostname()
	}

	if err == nil && parsed.Scheme != "" && parsed.Opaque == "" {
		// A single slash after the scheme puts the host into the path.
		if strings.HasPrefix(parsed.Path, "/") {
			if fixed, err := url.Parse(parsed.Scheme + ":/" + parsed.Path); err == nil {
				return fixed.Hostname()
			}
		}
		return ""
	}

	if bare, err := url.Parse("//" + target); err == nil {
		return bare.Hostname()
	}
	return ""
}
