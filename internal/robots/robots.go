package robots

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// Agent evaluates robots.txt rules, fetching each host's file once.
// It is safe for concurrent use, so a batch can share one Agent.
type Agent struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger

	mu       sync.Mutex
	cache    map[string]*robotstxt.Group
	inflight singleflight.Group
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger for fetch and parse problems.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAgent creates an Agent that fetches robots.txt with client and matches
// rules for userAgent, falling back to the "*" group.
func NewAgent(client *http.Client, userAgent string, opts ...Option) *Agent {
	if client == nil {
		client = http.DefaultClient
	}
	a := &Agent{
		client:    client,
		userAgent: userAgent,
		logger:    slog.New(slog.DiscardHandler),
		cache:     make(map[string]*robotstxt.Group),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allowed reports whether rawURL may be fetched. Unparsable URLs and hosts
// whose robots.txt cannot be fetched or parsed are allowed; the fetch
// itself then decides what happens.
func (a *Agent) Allowed(ctx context.Context, rawURL string) bool {
	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() || target.Host == "" {
		return true
	}

	group := a.group(ctx, target)
	if group == nil {
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return group.Test(path)
}

// group returns the cached rule group for target's host, fetching it on
// first use. A nil group means everything is allowed.
// Concurrent callers for one host share a single fetch. The mutex is never
// held during the request.
func (a *Agent) group(ctx context.Context, target *url.URL) *robotstxt.Group {
	key := strings.ToLower(target.Scheme + "://" + target.Host)

	if g, ok := a.cached(key); ok {
		return g
	}

	v, _, _ := a.inflight.Do(key, func() (any, error) {
		if g, ok := a.cached(key); ok {
			return g, nil
		}

		data, err := a.fetch(ctx, key+"/robots.txt")
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			a.logger.Debug("robots.txt unavailable, allowing host", "host", target.Host, "error", err)
			a.store(key, nil)
			return nil, nil
		}

		g := data.FindGroup(a.userAgent)
		a.store(key, g)
		return g, nil
	})
	g, _ := v.(*robotstxt.Group)
	return g
}

func (a *Agent) cached(key string) (*robotstxt.Group, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	g, ok := a.cache[key]
	return g, ok
}

func (a *Agent) store(key string, g *robotstxt.Group) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache[key] = g
}

func (a *Agent) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
