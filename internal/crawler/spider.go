package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"golang.org/x/time/rate"

	"github.com/nao1215/hopcrawl/internal/model"
)

// Reporter receives crawl events in the order they happen.
// Visited fires before the page body is scanned and Scanned after, so a
// console reporter can print the visit line without waiting for the body.
type Reporter interface {
	Visited(v model.Visit)
	Scanned(v model.Visit)
	Failed(f model.Failure)
	Finished(s model.Summary)
}

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// State is the mutable state of one crawl: the frontier with its visited
// set, the remaining hop budget and the number of successful fetches.
// A State belongs to exactly one crawl.
type State struct {
	frontier     *Frontier
	hopBudget    int
	visitedCount int
	reason       model.Reason
}

// NewState creates the state for a crawl from start with the given budget.
// The start URL is normalized before it is queued, so the first fetch
// already uses the canonical form.
func NewState(start string, hops int) *State {
	f := NewFrontier()
	f.Push(Normalize(start))
	return &State{
		frontier:  f,
		hopBudget: max(hops, 0),
	}
}

// Frontier returns the state's frontier.
func (s *State) Frontier() *Frontier { return s.frontier }

// HopBudget returns the remaining number of hops.
func (s *State) HopBudget() int { return s.hopBudget }

// VisitedCount returns the number of successful fetches so far.
func (s *State) VisitedCount() int { return s.visitedCount }

// Done reports whether the crawl reached a terminal state.
func (s *State) Done() bool { return s.reason != model.ReasonNone }

// Reason returns the terminal state, or ReasonNone while running.
func (s *State) Reason() model.Reason { return s.reason }

// Summary returns the current totals.
func (s *State) Summary() model.Summary {
	return model.Summary{Hops: s.visitedCount, Reason: s.reason}
}

// Spider runs the single-path crawl: fetch a page, follow the first
// unvisited link on it, repeat until the budget or the links run out.
type Spider struct {
	fetcher Fetcher
	logger  *slog.Logger
	limiter *rate.Limiter
	robots  RobotsPolicy
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithLogger sets the logger for crawl decisions.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimit limits fetches to rps requests per second.
// Zero or negative disables the limit.
func WithRateLimit(rps float64) SpiderOption {
	return func(s *Spider) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		burst := max(1, int(math.Ceil(rps)))
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRobots gates every fetch on policy. A disallowed URL is abandoned
// without consuming a hop.
func WithRobots(policy RobotsPolicy) SpiderOption {
	return func(s *Spider) {
		s.robots = policy
	}
}

// NewSpider creates a Spider that fetches with fetcher.
func NewSpider(fetcher Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher: fetcher,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Crawl runs a crawl from startURL with a budget of hops successful
// fetches and reports every event to reporter. Fetch failures never end
// the crawl; it stops when the frontier is empty, the budget is spent or
// ctx is cancelled. The summary is always reported.
func (s *Spider) Crawl(ctx context.Context, startURL string, hops int, reporter Reporter) model.Summary {
	if reporter == nil {
		reporter = nopReporter{}
	}

	st := NewState(startURL, hops)
	s.logger.Debug("crawl started", "url", startURL, "hops", hops)

	for {
		if ctx.Err() != nil {
			st.reason = model.ReasonCancelled
			break
		}
		if !s.Step(ctx, st, reporter) {
			break
		}
	}

	summary := st.Summary()
	s.logger.Debug("crawl finished", "hops", summary.Hops, "reason", summary.Reason)
	reporter.Finished(summary)
	return summary
}

// Step performs one iteration of the crawl loop on st. It returns false
// once st has reached a terminal state.
func (s *Spider) Step(ctx context.Context, st *State, reporter Reporter) bool {
	if st.Done() {
		return false
	}
	if st.frontier.Len() == 0 {
		st.reason = model.ReasonFrontierEmpty
		return false
	}
	if st.hopBudget == 0 {
		st.reason = model.ReasonHopsExhausted
		return false
	}

	u, _ := st.frontier.Pop()
	st.frontier.MarkVisited(Normalize(u))

	if s.robots != nil && !s.robots.Allowed(ctx, u) {
		s.logger.Debug("disallowed by robots.txt", "url", u)
		reporter.Failed(model.Failure{URL: u, Kind: model.FailureRobots})
		return true
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			st.reason = model.ReasonCancelled
			return false
		}
	}

	s.logger.Debug("fetching", "url", u, "budget", st.hopBudget)

	switch o := s.fetcher.Fetch(ctx, u).(type) {
	case Success:
		s.visit(st, o, reporter)
	case ClientError:
		reporter.Failed(model.Failure{URL: o.URL, Kind: model.FailureClientError, Code: o.Code})
	case ServerError:
		reporter.Failed(model.Failure{URL: o.URL, Kind: model.FailureServerError, Code: o.Code})
	case TransportError:
		if ctx.Err() != nil {
			st.reason = model.ReasonCancelled
			return false
		}
		reporter.Failed(transportFailure(o.URL, o.Kind, o.Err))
	default:
		reporter.Failed(transportFailure(u, TransportOther, fmt.Errorf("%w: %T", ErrUnexpectedOutcome, o)))
	}
	return true
}

// visit accounts for a successful fetch and scans its body for the next link.
func (s *Spider) visit(st *State, o Success, reporter Reporter) {
	defer o.Body.Close()

	final := Normalize(o.FinalURL)
	st.frontier.Clear()
	st.hopBudget--
	st.visitedCount++
	st.frontier.MarkVisited(final)

	v := model.Visit{
		Seq:         st.visitedCount,
		URL:         final,
		StatusCode:  o.StatusCode,
		Redirected:  o.Redirected,
		ContentType: o.ContentType,
	}
	reporter.Visited(v)

	rec := newPageRecorder()
	lines := Lines(io.TeeReader(o.Body, rec))
	if candidate, ok := ExtractFirstUnvisited(lines.All(), st.frontier.IsVisited); ok {
		next := Normalize(candidate)
		st.frontier.Push(next)
		v.NextLink = next
		s.logger.Debug("next link", "from", final, "to", next)
	}

	v.Title = rec.Title()
	v.ContentHash = rec.Fingerprint()
	v.BytesScanned = rec.BytesRead()
	reporter.Scanned(v)

	if err := lines.Err(); err != nil {
		s.logger.Debug("body read failed", "url", final, "error", err)
		reporter.Failed(transportFailure(final, ClassifyError(err), err))
	}
}

func transportFailure(u string, kind TransportErrorKind, err error) model.Failure {
	f := model.Failure{URL: u, Kind: model.FailureTransport}
	if kind == TransportTimeout {
		f.Kind = model.FailureTimeout
	}
	if err != nil {
		f.Message = err.Error()
	}
	return f
}

type nopReporter struct{}

func (nopReporter) Visited(model.Visit)    {}
func (nopReporter) Scanned(model.Visit)    {}
func (nopReporter) Failed(model.Failure)   {}
func (nopReporter) Finished(model.Summary) {}
