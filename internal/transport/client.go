package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/hopcrawl/internal/config"
)

// Options configures the HTTP client used by the fetcher.
type Options struct {
	// Timeout bounds the dial, the wait for response headers and every
	// single read from the connection. It is not a whole-request deadline:
	// a body that keeps trickling in is read to the end.
	Timeout time.Duration

	// ProxyAddress routes every connection through a SOCKS5 proxy in
	// "host:port" form. Empty means direct connections.
	ProxyAddress string

	// Sites supplies per-host cookies, headers and User-Agent overrides.
	// Nil disables injection.
	Sites *config.File

	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

// NewClient builds an *http.Client that never follows redirects, applies
// Timeout to each read, keeps cookies per registrable domain, and injects
// per-host settings from Sites.
func NewClient(opts Options) (*http.Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dial, err := newDialFunc(opts.ProxyAddress, opts.Timeout)
	if err != nil {
		return nil, err
	}

	base := &http.Transport{
		DialContext:           dial,
		ResponseHeaderTimeout: opts.Timeout,
		TLSHandshakeTimeout:   opts.Timeout,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		// Content-Encoding is negotiated and decoded by the fetcher.
		DisableCompression: true,
	}
	if opts.ProxyAddress == "" {
		base.Proxy = http.ProxyFromEnvironment
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	var rt http.RoundTripper = base
	if opts.Sites != nil {
		rt = &headerInjectingTransport{base: base, sites: opts.Sites, logger: logger}
	}

	return &http.Client{
		Transport: rt,
		Jar:       jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// newDialFunc returns a dialer whose connections carry a fresh read
// deadline before every Read.
func newDialFunc(proxyAddress string, timeout time.Duration) (dialFunc, error) {
	direct := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}

	var dial dialFunc = direct.DialContext
	if proxyAddress != "" {
		if !isValidProxyAddress(proxyAddress) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, proxyAddress)
		}
		socks, err := proxy.SOCKS5("tcp", proxyAddress, nil, direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		cd, ok := socks.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("SOCKS5 dialer for %s does not support contexts", proxyAddress)
		}
		dial = cd.DialContext
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return &deadlineConn{Conn: conn, timeout: timeout}, nil
	}, nil
}

// deadlineConn sets a read deadline of timeout from now before each Read,
// so any single stalled read fails with a timeout error.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

// Read implements net.Conn.
func (c *deadlineConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

// headerInjectingTransport adds the cookie, headers and User-Agent
// configured for the request's host. The crawl crosses hosts freely, so the
// lookup happens on every request rather than once per client.
type headerInjectingTransport struct {
	base   http.RoundTripper
	sites  *config.File
	logger *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	sc := t.sites.GetSiteConfig(req.URL.Host)
	if sc.IsZero() {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())

	if sc.Cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+sc.Cookie)
		} else {
			clone.Header.Set("Cookie", sc.Cookie)
		}
	}
	if sc.UserAgent != "" {
		clone.Header.Set("User-Agent", sc.UserAgent)
	}
	for key, value := range sc.Headers {
		clone.Header.Set(key, value)
	}

	t.logger.Debug("applied site config", "host", req.URL.Host, "cookie", sc.Cookie, "headers", len(sc.Headers))

	return t.base.RoundTrip(clone)
}
