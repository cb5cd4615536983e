package fetcher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/khanhnv2901/securitytxt/internal/shared/constants"
)

// Response is what the fetcher needs from an HTTP exchange.
type Response struct {
	StatusCode int
	Header     map[string]string // lower-cased names, first value only
	Body       []byte
}

// HeaderValue returns a header by case-insensitive name.
func (r *Response) HeaderValue(name string) (string, bool) {
	v, ok := r.Header[strings.ToLower(name)]
	return v, ok
}

// HTTPClient performs a single GET without following redirects. When
// tlsServerName is set, it is used as both the Host header and the TLS
// server name, so rawURL may address an IP. Errors should wrap ErrCannotOpen,
// ErrCannotRead or ErrNoHTTPCode.
type HTTPClient interface {
	GetResponse(ctx context.Context, rawURL, tlsServerName string) (*Response, error)
}

// malformedStatusLine is the prefix net/http's ReadResponse uses for the
// unexported errors it returns when the status line cannot be parsed:
// "malformed HTTP response", "malformed HTTP version" and "malformed HTTP
// status code". The transport only wraps them as text, so they are matched
// by message.
const malformedStatusLine = "malformed HTTP"

// TransportClient is the net/http implementation of HTTPClient.
type TransportClient struct {
	Timeout   time.Duration
	UserAgent string
	MaxBody   int64
	RootCAs   *x509.CertPool // nil uses the system pool
}

// NewTransportClient returns a client with the default limits.
func NewTransportClient(timeout time.Duration) *TransportClient {
	return &TransportClient{
		Timeout:   timeout,
		UserAgent: constants.UserAgent,
		MaxBody:   constants.MaxBodyBytes,
	}
}

func (c *TransportClient) GetResponse(ctx context.Context, rawURL, tlsServerName string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrCannotOpen, err)
	}
	if tlsServerName != "" {
		req.Host = tlsServerName
	}
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = constants.UserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			ServerName: tlsServerName,
			RootCAs:    c.RootCAs,
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2: true,
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), malformedStatusLine) {
			return nil, fmt.Errorf("%w: %w", ErrNoHTTPCode, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrCannotOpen, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 0 {
		return nil, ErrNoHTTPCode
	}

	maxBody := c.MaxBody
	if maxBody <= 0 {
		maxBody = constants.MaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrCannotRead, err)
	}

	header := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		if len(values) > 0 {
			header[strings.ToLower(name)] = values[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
	}, nil
}
