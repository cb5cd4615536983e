// Package parser turns security.txt text into a document plus the
// violations found on each line and in the document as a whole.
package parser

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
	"github.com/khanhnv2901/securitytxt/internal/fetcher"
	"github.com/khanhnv2901/securitytxt/internal/signature"
	"github.com/khanhnv2901/securitytxt/internal/validator"
)

// ErrNoFetcher is returned by ParseHost when no fetcher is configured.
var ErrNoFetcher = errors.New("parser has no fetcher")

// HostFetcher downloads a host's security.txt.
type HostFetcher interface {
	FetchHost(ctx context.Context, host string, opts fetcher.FetchOptions) (*fetcher.Result, error)
}

// Options tune a single parse.
type Options struct {
	Strict                  bool
	ExpiresWarningThreshold *int // days; nil disables the check
	AllowIPv6               bool
	Observer                fetcher.Observer
}

// Parser is stateless between calls and safe for concurrent use.
type Parser struct {
	validator  *validator.Validator
	signature  signature.Provider
	fetcher    HostFetcher
	logger     *zap.Logger
	now        func() time.Time
	processors map[securitytxt.Field][]FieldProcessor
}

// Option configures a Parser.
type Option func(*Parser)

func WithFetcher(f HostFetcher) Option {
	return func(p *Parser) { p.fetcher = f }
}

// WithSignature sets the verifier. Without one, signed files get a
// warning that the signature could not be checked.
func WithSignature(s signature.Provider) Option {
	return func(p *Parser) { p.signature = s }
}

func WithValidator(v *validator.Validator) Option {
	return func(p *Parser) { p.validator = v }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

func New(opts ...Option) *Parser {
	p := &Parser{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.validator == nil {
		p.validator = validator.New(p.now)
	}
	p.processors = processorTable(p.now)
	return p
}

// ParseString parses contents that were not fetched from a host.
func (p *Parser) ParseString(contents string, opts Options) *Result {
	return p.parse(contents, opts, nil)
}

// ParseHost fetches the host's file and parses it. Fetch failures are
// returned as errors matching fetcher.ErrFetch.
func (p *Parser) ParseHost(ctx context.Context, host string, opts Options) (*Result, error) {
	if p.fetcher == nil {
		return nil, ErrNoFetcher
	}
	fetched, err := p.fetcher.FetchHost(ctx, host, fetcher.FetchOptions{
		AllowIPv6: opts.AllowIPv6,
		Observer:  opts.Observer,
	})
	if err != nil {
		return nil, err
	}
	return p.parse(fetched.Contents, opts, fetched), nil
}

func (p *Parser) parse(contents string, opts Options, fetched *fetcher.Result) *Result {
	doc := securitytxt.New(securitytxt.WithClock(p.now))
	result := &Result{
		SecurityTxt:             doc,
		Lines:                   splitLines(contents),
		LineErrors:              map[int][]violation.Error{},
		LineWarnings:            map[int][]violation.Warning{},
		Fetch:                   fetched,
		Strict:                  opts.Strict,
		ExpiresWarningThreshold: opts.ExpiresWarningThreshold,
	}
	addError := func(n int, e violation.Error) { result.LineErrors[n] = append(result.LineErrors[n], e) }
	addWarning := func(n int, w violation.Warning) { result.LineWarnings[n] = append(result.LineWarnings[n], w) }

	for i, raw := range result.Lines {
		n := i + 1
		line := strings.TrimSpace(raw)
		if !strings.HasSuffix(raw, "\n") {
			addError(n, violation.LineNoEOL(line))
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if signature.IsCleartextHeader(line) {
			p.checkSignature(n, contents, doc, addError, addWarning)
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field, known := securitytxt.LookupField(name)
		if !known {
			if suggestion, ok := suggestField(name); ok {
				addWarning(n, violation.PossibleFieldTypo(name, string(suggestion), line))
			}
			continue
		}
		for _, processor := range p.processors[field] {
			o := processor.Process(strings.TrimSpace(value), doc)
			if w, ok := o.AsWarning(); ok {
				addWarning(n, w)
			}
			if e, ok := o.AsError(); ok {
				addError(n, e)
				break
			}
		}
	}

	validated := p.validator.Validate(doc, fetched)
	result.FileErrors = validated.Errors
	result.FileWarnings = validated.Warnings

	if opts.ExpiresWarningThreshold != nil {
		if e := doc.Expires(); e != nil && e.InDays() < *opts.ExpiresWarningThreshold {
			result.ExpiresSoon = true
		}
	}

	p.logger.Debug("parsed security.txt",
		zap.Int("lines", len(result.Lines)),
		zap.Int("line_errors", len(result.LineErrors)),
		zap.Int("line_warnings", len(result.LineWarnings)),
		zap.Int("file_errors", len(result.FileErrors)),
		zap.Bool("valid", result.IsValid()),
	)
	return result
}

func (p *Parser) checkSignature(n int, contents string, doc *securitytxt.SecurityTxt, addError func(int, violation.Error), addWarning func(int, violation.Warning)) {
	if p.signature == nil {
		addWarning(n, violation.SignatureUnavailable())
		return
	}
	verified, err := p.signature.Verify(contents)
	switch {
	case err == nil:
		doc.SetSignature(verified)
	case errors.Is(err, signature.ErrUnavailable):
		addWarning(n, violation.SignatureUnavailable())
	default:
		p.logger.Debug("signature verification failed", zap.Error(err))
		addError(n, violation.SignatureInvalid())
	}
}

// splitLines splits after every LF, keeping the terminators.
func splitLines(contents string) []string {
	lines := strings.SplitAfter(contents, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
