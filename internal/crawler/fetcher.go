package crawler

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent is sent when no User-Agent option is given.
const DefaultUserAgent = "hopcrawl/1.0"

// defaultMaxBodySize caps how much of a body the extractor may read.
const defaultMaxBodySize = 10 * 1024 * 1024

// Outcome is the classified result of one fetch.
// The concrete types are Success, Redirect, ClientError, ServerError and
// TransportError; callers match them with a type switch.
type Outcome interface {
	outcome()
}

// Success is a response outside the 4xx and 5xx ranges.
// The caller owns Body and must close it.
type Success struct {
	// URL is the URL that was requested first.
	URL string

	// FinalURL is the URL whose response is carried here: the redirect
	// target if the first response was a 3xx, URL otherwise.
	FinalURL string

	StatusCode  int
	Redirected  bool
	ContentType string

	// Body is the decompressed, UTF-8 decoded body, capped at the fetcher's
	// maximum body size.
	Body io.ReadCloser
}

// Redirect is a 3xx on the first leg. HTTPFetcher.Fetch resolves it with
// exactly one follow-up request and never returns it.
type Redirect struct {
	URL        string
	Location   string
	StatusCode int
}

// ClientError is a 4xx response.
type ClientError struct {
	// URL is the URL that answered: the redirect target when the first
	// response was a 3xx.
	URL  string
	Code int
}

// ServerError is a 5xx response. URL is the URL that answered, as for
// ClientError.
type ServerError struct {
	URL  string
	Code int
}

// TransportErrorKind separates read timeouts from every other failure.
type TransportErrorKind int

const (
	// TransportOther covers malformed URLs, unknown hosts, refused
	// connections and redirects without a Location header.
	TransportOther TransportErrorKind = iota

	// TransportTimeout is a read timeout.
	TransportTimeout
)

// TransportError means no usable response was received.
type TransportError struct {
	URL  string
	Kind TransportErrorKind
	Err  error
}

func (Success) outcome()        {}
func (Redirect) outcome()       {}
func (ClientError) outcome()    {}
func (ServerError) outcome()    {}
func (TransportError) outcome() {}

// Fetcher performs one fetch.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) Outcome
}

// HTTPFetcher is the Fetcher backed by an *http.Client.
// The client must not follow redirects itself and is expected to enforce
// the read timeout; see the transport package.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize caps the number of body bytes handed to the extractor.
// Zero or negative means the default.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithFetcherLogger sets the logger for request tracing.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher using client.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: defaultMaxBodySize,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch requests rawURL. A 3xx is followed exactly once; the follow-up
// response decides the outcome and is not itself re-resolved, so a second
// 3xx is returned as Success.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) Outcome {
	first := f.fetchOnce(ctx, rawURL, rawURL, false)

	redirect, ok := first.(Redirect)
	if !ok {
		return first
	}

	if redirect.Location == "" {
		return TransportError{URL: rawURL, Kind: TransportOther, Err: ErrMissingLocation}
	}

	target, err := resolveLocation(rawURL, redirect.Location)
	if err != nil {
		return TransportError{URL: rawURL, Kind: TransportOther, Err: err}
	}

	f.logger.Debug("following redirect", "url", rawURL, "status", redirect.StatusCode, "location", target)

	return f.fetchOnce(ctx, rawURL, target, true)
}

// fetchOnce performs a single GET of target and classifies the response.
// Failures name target, so a redirect whose target fails reports the target.
// origin is kept as Success.URL. On the follow-up leg (redirected) a 3xx is
// not classified as Redirect and falls through to Success.
func (f *HTTPFetcher) fetchOnce(ctx context.Context, origin, target string, redirected bool) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return TransportError{URL: target, Kind: TransportOther, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("request failed", "url", target, "error", err)
		return TransportError{URL: target, Kind: ClassifyError(err), Err: err}
	}

	f.logger.Debug("response", "url", target, "status", resp.StatusCode)

	code := resp.StatusCode
	switch {
	case code >= 300 && code <= 399 && !redirected:
		drainAndClose(resp.Body)
		return Redirect{URL: origin, Location: resp.Header.Get("Location"), StatusCode: code}
	case code >= 400 && code <= 499:
		drainAndClose(resp.Body)
		return ClientError{URL: target, Code: code}
	case code >= 500 && code <= 599:
		drainAndClose(resp.Body)
		return ServerError{URL: target, Code: code}
	}

	body, err := f.decodeBody(resp)
	if err != nil {
		drainAndClose(resp.Body)
		return TransportError{URL: target, Kind: ClassifyError(err), Err: err}
	}

	return Success{
		URL:         origin,
		FinalURL:    target,
		StatusCode:  code,
		Redirected:  redirected,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
}

// decodeBody undoes Content-Encoding, caps the size and converts the body
// to UTF-8 according to the declared or sniffed charset.
func (f *HTTPFetcher) decodeBody(resp *http.Response) (io.ReadCloser, error) {
	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	reader = io.LimitReader(reader, f.maxBodySize)

	if utf8, err := charset.NewReader(reader, resp.Header.Get("Content-Type")); err == nil {
		reader = utf8
	} else {
		f.logger.Debug("charset detection failed, reading raw bytes", "error", err)
	}

	return &body{Reader: reader, closers: closers}, nil
}

type body struct {
	io.Reader
	closers []io.Closer
}

func (b *body) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClassifyError maps a transport error to its kind. Deadline and
// timeout errors are TransportTimeout; everything else is TransportOther.
func ClassifyError(err error) TransportErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return TransportTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportTimeout
	}
	return TransportOther
}

func resolveLocation(base, location string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse request URL: %w", err)
	}
	loc, err := b.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse Location %q: %w", location, err)
	}
	return loc.String(), nil
}

func drainAndClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 4096))
	_ = rc.Close()
}
