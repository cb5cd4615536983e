package checker

import (
	"errors"
	"testing"

	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

func TestParseHost(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain domain",
			input:    "example.com",
			expected: "example.com",
		},
		{
			name:     "Domain with path",
			input:    "example.com/foo/bar",
			expected: "example.com",
		},
		{
			name:     "HTTPS URL",
			input:    "https://example.com",
			expected: "example.com",
		},
		{
			name:     "URL with port and path",
			input:    "https://example.com:8443/.well-known/security.txt",
			expected: "example.com",
		},
		{
			name:     "Single slash after scheme",
			input:    "https:/example.com/foo",
			expected: "example.com",
		},
		{
			name:     "Domain with port",
			input:    "example.com:8080",
			expected: "example.com",
		},
		{
			name:     "Upper case and whitespace",
			input:    "  WWW.Example.COM \n",
			expected: "www.example.com",
		},
		{
			name:     "Trailing dot",
			input:    "example.com.",
			expected: "example.com",
		},
		{
			name:     "Internationalized domain",
			input:    "https://bücher.example/",
			expected: "xn--bcher-kva.example",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			host, err := ParseHost(tc.input)
			if err != nil {
				t.Fatalf("ParseHost(%q) returned error: %v", tc.input, err)
			}
			if host != tc.expected {
				t.Errorf("ParseHost(%q) = %q, want %q", tc.input, host, tc.expected)
			}
		})
	}
}

func TestParseHost_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"https://",
		"exa mple.com",
	}

	for _, input := range inputs {
		_, err := ParseHost(input)
		if err == nil {
			t.Errorf("ParseHost(%q) expected error", input)
			continue
		}
		var hostErr *HostnameError
		if !errors.As(err, &hostErr) {
			t.Errorf("ParseHost(%q) error %T is not *HostnameError", input, err)
		}
		if !errors.Is(err, apperrors.ErrInvalidHost) {
			t.Errorf("ParseHost(%q) error does not match ErrInvalidHost", input)
		}
	}

	_, err := ParseHost("")
	if !errors.Is(err, apperrors.ErrEmptyTarget) {
		t.Errorf("empty input should wrap ErrEmptyTarget, got %v", err)
	}
}
