package api

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/khanhnv2901/securitytxt/internal/checker"
	"github.com/khanhnv2901/securitytxt/internal/fetcher"
	"github.com/khanhnv2901/securitytxt/internal/parser"
	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

var testNow = time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)

const validFile = "Contact: mailto:security@example.com\nExpires: 2025-12-31T23:59:59Z\nPreferred-Languages: en, cs\n"

// hostFiles serves fixed contents per host. Hosts without an entry are
// not found.
type hostFiles struct {
	mu    sync.Mutex
	files map[string]string
	calls map[string]int
}

func newHostFiles(files map[string]string) *hostFiles {
	return &hostFiles{files: files, calls: map[string]int{}}
}

func (h *hostFiles) FetchHost(_ context.Context, host string, opts fetcher.FetchOptions) (*fetcher.Result, error) {
	h.mu.Lock()
	h.calls[host]++
	contents, ok := h.files[host]
	h.mu.Unlock()

	wellKnown := "https://" + host + "/.well-known/security.txt"
	if opts.Observer != nil {
		opts.Observer.OnURL(wellKnown)
	}
	if !ok {
		return nil, &fetcher.NotFoundError{URLs: []fetcher.URLCode{
			{URL: wellKnown, Code: 404},
			{URL: "https://" + host + "/security.txt", Code: 404},
		}}
	}
	return &fetcher.Result{
		ConstructedURL: wellKnown,
		FinalURL:       wellKnown,
		Redirects:      map[string][]string{},
		Contents:       contents,
	}, nil
}

func (h *hostFiles) callsFor(host string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[host]
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]checker.CheckResult
}

func (m *memoryCache) Get(_ context.Context, key string) (checker.CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[key]
	if !ok {
		return checker.CheckResult{}, apperrors.ErrCacheMiss
	}
	return r, nil
}

func (m *memoryCache) Set(_ context.Context, key string, r checker.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]checker.CheckResult{}
	}
	m.entries[key] = r
	return nil
}

type countingRecorder struct {
	mu       sync.Mutex
	urls     int
	checks   []string
	hits     int
	misses   int
	notFound int
}

func (c *countingRecorder) OnURL(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls++
}
func (c *countingRecorder) OnRedirect(string, string) {}
func (c *countingRecorder) OnURLNotFound(string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notFound++
}
func (c *countingRecorder) ObserveCheck(r checker.CheckResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, r.Status)
}
func (c *countingRecorder) CacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits++
}
func (c *countingRecorder) CacheMiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
}

func newChecks(t *testing.T, files *hostFiles) (*Checks, *memoryCache, *countingRecorder) {
	t.Helper()
	p := parser.New(
		parser.WithFetcher(files),
		parser.WithClock(func() time.Time { return testNow }),
		parser.WithLogger(zaptest.NewLogger(t)),
	)
	c := &memoryCache{}
	rec := &countingRecorder{}
	return &Checks{Parser: p, Cache: c, Recorder: rec, Logger: zaptest.NewLogger(t)}, c, rec
}

func TestChecks_CachesSuccessfulChecks(t *testing.T) {
	files := newHostFiles(map[string]string{"example.com": validFile})
	checks, _, rec := newChecks(t, files)
	ctx := context.Background()

	first, cached, err := checks.CheckHost(ctx, "https://example.com/", CheckOptions{})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, checker.StatusValid, first.Status)

	second, cached, err := checks.CheckHost(ctx, "example.com", CheckOptions{})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "example.com", second.Target)
	assert.Equal(t, 1, files.callsFor("example.com"))

	_, cached, err = checks.CheckHost(ctx, "example.com", CheckOptions{Strict: true})
	require.NoError(t, err)
	assert.False(t, cached, "different options use a different key")

	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 2, rec.misses)
	assert.Equal(t, []string{checker.StatusValid, checker.StatusValid}, rec.checks)
	assert.Equal(t, 2, rec.urls)
}

func TestChecks_FetchErrorsAreNotCached(t *testing.T) {
	files := newHostFiles(nil)
	checks, cache, rec := newChecks(t, files)

	result, _, err := checks.CheckHost(context.Background(), "missing.example", CheckOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, fetcher.ErrFetch)
	assert.Equal(t, checker.StatusError, result.Status)
	assert.Empty(t, cache.entries)
	assert.Equal(t, []string{checker.StatusError}, rec.checks)
}

func TestChecks_InvalidHost(t *testing.T) {
	checks, _, rec := newChecks(t, newHostFiles(nil))

	result, _, err := checks.CheckHost(context.Background(), "exa mple.com", CheckOptions{})

	assert.ErrorIs(t, err, apperrors.ErrInvalidHost)
	assert.Equal(t, checker.StatusError, result.Status)
	assert.Empty(t, rec.checks)
}

func TestChecks_ParseText(t *testing.T) {
	checks, _, rec := newChecks(t, newHostFiles(nil))

	result := checks.ParseText("Contact: security@example.com\n", CheckOptions{})

	assert.Equal(t, checker.StatusInvalid, result.Status)
	require.Len(t, result.LineErrors[1], 1)
	assert.Equal(t, []string{checker.StatusInvalid}, rec.checks)
}
