// Package fetcher downloads security.txt from both RFC 9116 locations of a
// host and reconciles the two answers.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
	"github.com/khanhnv2901/securitytxt/internal/shared/constants"
)

const tracerName = "github.com/khanhnv2901/securitytxt/internal/fetcher"

// Result is a successful fetch.
type Result struct {
	ConstructedURL string              `json:"constructedUrl"`
	FinalURL       string              `json:"finalUrl"`
	Redirects      map[string][]string `json:"redirects"`
	Contents       string              `json:"contents"`
	Errors         []violation.Error   `json:"errors"`
	Warnings       []violation.Warning `json:"warnings"`
}

// FetchOptions tune a single FetchHost call.
type FetchOptions struct {
	AllowIPv6 bool
	Observer  Observer
}

// Fetcher retrieves security.txt files. It holds no per-call state and is
// safe for concurrent use.
type Fetcher struct {
	client   HTTPClient
	resolver Resolver
	observer Observer
	logger   *zap.Logger
	deadline time.Duration
	tracer   trace.Tracer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithObserver adds an observer notified on every fetch.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observer = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithDeadline bounds a whole FetchHost call. Zero disables the bound.
func WithDeadline(d time.Duration) Option {
	return func(f *Fetcher) { f.deadline = d }
}

func New(client HTTPClient, resolver Resolver, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   client,
		resolver: resolver,
		logger:   zap.NewNop(),
		deadline: constants.DefaultFetchDeadline,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// attempt accumulates the state of one location's redirect chain.
type attempt struct {
	constructedURL string
	finalURL       string
	redirects      []string
	response       *Response
	notFound       *urlNotFound
}

// FetchHost fetches both locations concurrently and reconciles them. All
// returned errors match ErrFetch.
func (f *Fetcher) FetchHost(ctx context.Context, host string, opts FetchOptions) (*Result, error) {
	ctx, span := f.tracer.Start(ctx, "fetcher.FetchHost", trace.WithAttributes(attribute.String("host", host)))
	defer span.End()

	if f.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.deadline)
		defer cancel()
	}

	result, err := f.fetchHost(ctx, host, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.Info("fetch failed", zap.String("host", host), zap.Error(err))
		return nil, err
	}
	f.logger.Debug("fetched security.txt",
		zap.String("host", host),
		zap.String("final_url", result.FinalURL),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

func (f *Fetcher) fetchHost(ctx context.Context, host string, opts FetchOptions) (*Result, error) {
	obs := Observers{f.observer, opts.Observer}
	wellKnownURL := "https://" + host + constants.WellKnownPath

	addrs, err := f.resolver.LookupAddrs(ctx, host)
	if err != nil || len(addrs) == 0 {
		return nil, &HostNotFoundError{URL: wellKnownURL, Host: host, Err: err}
	}
	addr, onlyIPv6 := pickAddr(addrs, opts.AllowIPv6)
	if onlyIPv6 {
		return nil, &OnlyIPv6HostError{URL: wellKnownURL, Host: host, IP: addr.String()}
	}

	var (
		wellKnown, topLevel       *attempt
		wellKnownErr, topLevelErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wellKnown, wellKnownErr = f.fetchURL(gctx, host, addr, opts.AllowIPv6, constants.WellKnownPath, obs)
		return wellKnownErr
	})
	g.Go(func() error {
		topLevel, topLevelErr = f.fetchURL(gctx, host, addr, opts.AllowIPv6, constants.TopLevelPath, obs)
		return topLevelErr
	})
	_ = g.Wait()

	if err := firstFatal(wellKnownErr, topLevelErr); err != nil {
		return nil, err
	}
	return reconcile(wellKnown, topLevel)
}

// firstFatal prefers the well-known error, skipping failures that are only
// the other fetch being cancelled.
func firstFatal(errs ...error) error {
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Fetcher) fetchURL(ctx context.Context, host string, addr netip.Addr, allowIPv6 bool, path string, obs Observer) (*attempt, error) {
	ctx, span := f.tracer.Start(ctx, "fetcher.fetchURL", trace.WithAttributes(attribute.String("url.path", path)))
	defer span.End()

	a := &attempt{constructedURL: "https://" + host + path}
	a.finalURL = a.constructedURL
	obs.OnURL(a.constructedURL)

	pins := newPinner(f.resolver, allowIPv6, host, addr)
	target, serverName, err := pins.pin(ctx, a.constructedURL)
	if err != nil {
		return nil, err
	}
	for {
		resp, err := f.client.GetResponse(ctx, target, serverName)
		if err != nil {
			return nil, classify(err, a)
		}

		switch {
		case resp.StatusCode >= 400:
			a.notFound = &urlNotFound{URL: a.finalURL, Code: resp.StatusCode}
			f.logger.Debug(a.notFound.Error())
			obs.OnURLNotFound(a.finalURL, resp.StatusCode)
			return a, nil
		case resp.StatusCode >= 300:
			location, ok := resp.HeaderValue("location")
			if !ok || strings.TrimSpace(location) == "" {
				return nil, &NoLocationHeaderError{URL: a.finalURL, Code: resp.StatusCode}
			}
			next, err := resolveLocation(a.finalURL, strings.TrimSpace(location))
			if err != nil {
				return nil, &CannotOpenURLError{URL: location, Redirects: a.redirects, Err: err}
			}
			obs.OnRedirect(a.finalURL, next)
			a.redirects = append(a.redirects, next)
			a.finalURL = next
			if len(a.redirects) > constants.MaxRedirects {
				return nil, &TooManyRedirectsError{URL: a.constructedURL, Redirects: a.redirects, MaxAllowed: constants.MaxRedirects}
			}
			if target, serverName, err = pins.pin(ctx, next); err != nil {
				return nil, err
			}
			continue
		}

		if looksLikeHTML(resp.Body) {
			return nil, &SeemsLikeHTMLPageError{URL: a.constructedURL, Redirects: a.redirects}
		}
		a.response = resp
		return a, nil
	}
}

func classify(err error, a *attempt) error {
	switch {
	case errors.Is(err, ErrNoHTTPCode):
		return &NoHTTPCodeError{URL: a.finalURL, Redirects: a.redirects}
	case errors.Is(err, ErrCannotRead):
		return &CannotReadURLError{URL: a.finalURL, Redirects: a.redirects, Err: err}
	}
	return &CannotOpenURLError{URL: a.finalURL, Redirects: a.redirects, Err: err}
}

func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func looksLikeHTML(body []byte) bool {
	head := bytes.TrimSpace(body)
	if len(head) > 64 {
		head = head[:64]
	}
	lower := strings.ToLower(string(head))
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")
}

func reconcile(wellKnown, topLevel *attempt) (*Result, error) {
	wellKnownFound, topLevelFound := wellKnown.response != nil, topLevel.response != nil
	if !wellKnownFound && !topLevelFound {
		return nil, &NotFoundError{URLs: []URLCode{
			{URL: wellKnown.constructedURL, Code: wellKnown.notFound.Code},
			{URL: topLevel.constructedURL, Code: topLevel.notFound.Code},
		}}
	}

	result := &Result{
		Redirects: map[string][]string{
			wellKnown.constructedURL: nonNil(wellKnown.redirects),
			topLevel.constructedURL:  nonNil(topLevel.redirects),
		},
		Errors:   []violation.Error{},
		Warnings: []violation.Warning{},
	}

	chosen := wellKnown
	switch {
	case wellKnownFound && !topLevelFound:
		result.Warnings = append(result.Warnings, violation.WellKnownPathOnly())
	case !wellKnownFound && topLevelFound:
		result.Warnings = append(result.Warnings, violation.TopLevelPathOnly())
		chosen = topLevel
	case !bytes.Equal(wellKnown.response.Body, topLevel.response.Body):
		result.Warnings = append(result.Warnings, violation.TopLevelDiffers(string(wellKnown.response.Body), string(topLevel.response.Body)))
	}

	result.ConstructedURL = chosen.constructedURL
	result.FinalURL = chosen.finalURL
	result.Contents = string(chosen.response.Body)

	if u, err := url.Parse(chosen.finalURL); err != nil || !strings.EqualFold(u.Scheme, "https") {
		result.Errors = append(result.Errors, violation.SchemeNotHTTPS(chosen.finalURL))
	}
	contentType, _ := chosen.response.HeaderValue("content-type")
	if e, ok := checkContentType(chosen.finalURL, contentType); ok {
		result.Errors = append(result.Errors, e)
	}
	return result, nil
}

func checkContentType(fileURL, header string) (violation.Error, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return violation.ContentTypeInvalid(fileURL, ""), true
	}
	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil || mediaType != "text/plain" {
		return violation.ContentTypeInvalid(fileURL, header), true
	}
	charset, ok := params["charset"]
	if !ok {
		return violation.ContentTypeWrongCharset(fileURL, mediaType, ""), true
	}
	if !strings.EqualFold(charset, "utf-8") {
		return violation.ContentTypeWrongCharset(fileURL, mediaType, "charset="+charset), true
	}
	return violation.Error{}, false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
