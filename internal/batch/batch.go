package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"cloudeng.io/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/hopcrawl/internal/crawler"
	"github.com/nao1215/hopcrawl/internal/model"
	"github.com/nao1215/hopcrawl/internal/report"
)

// DefaultConcurrency is the number of crawls run at the same time.
const DefaultConcurrency = 4

// SpiderFactory builds a fresh Spider for one crawl.
type SpiderFactory func() (*crawler.Spider, error)

// Result is the outcome of one crawl in a batch.
type Result struct {
	// Index is the position of the start URL in the input list.
	Index int

	// StartURL is the start URL as given.
	StartURL string

	// Run is the recorded crawl, nil if the crawl never started.
	Run *model.Run

	// Err is set when the crawl could not be started or its result
	// could not be handled.
	Err error
}

// Runner runs crawls with bounded concurrency.
type Runner struct {
	// factory creates a new Spider for each crawl so no state leaks
	// between crawls.
	factory SpiderFactory

	// concurrency is the maximum number of crawls in flight.
	concurrency int

	logger *slog.Logger

	// onResult is called for every finished crawl, e.g. to save it.
	onResult func(context.Context, *Result) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency sets the maximum number of concurrent crawls.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger for batch progress.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResultHandler sets a function called once per finished crawl, from
// the crawl's goroutine. Its error is recorded on the Result and in the
// batch error.
func WithResultHandler(fn func(context.Context, *Result) error) Option {
	return func(r *Runner) {
		r.onResult = fn
	}
}

// NewRunner creates a Runner that builds each crawl's Spider with factory.
func NewRunner(factory SpiderFactory, opts ...Option) *Runner {
	r := &Runner{
		factory:     factory,
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run crawls every start URL with the same hop budget and writes each
// crawl's console output to out as one block, in input order. Crawls that
// have not started when ctx is cancelled are skipped.
//
// The returned slice has one Result per start URL. The error aggregates
// every Result.Err and the cancellation, if any.
func (r *Runner) Run(ctx context.Context, startURLs []string, hops int, out io.Writer) ([]Result, error) {
	r.logger.Debug("starting batch", "crawls", len(startURLs), "concurrency", r.concurrency)
	started := time.Now()

	results := make([]Result, len(startURLs))
	flusher := newOrderedFlusher(out, len(startURLs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, startURL := range startURLs {
		g.Go(func() error {
			results[i] = Result{Index: i, StartURL: startURL}

			if err := ctx.Err(); err != nil {
				flusher.done(i, nil)
				return nil
			}

			var buf bytes.Buffer
			fmt.Fprintf(&buf, "[%d/%d] %s\n", i+1, len(startURLs), startURL) //nolint:errcheck

			r.crawlOne(ctx, &results[i], hops, &buf)
			flusher.done(i, buf.Bytes())
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	errs := &errors.M{}
	for _, res := range results {
		errs.Append(res.Err)
	}
	errs.Append(ctx.Err())

	r.logger.Debug("batch finished", "crawls", len(startURLs), "elapsed", time.Since(started))
	return results, errs.Err()
}

func (r *Runner) crawlOne(ctx context.Context, res *Result, hops int, out io.Writer) {
	spider, err := r.factory()
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", res.StartURL, err)
		fmt.Fprintf(out, "ERROR: %v\n", err) //nolint:errcheck
		return
	}

	rec := report.NewRecorder(res.StartURL, hops)
	spider.Crawl(ctx, res.StartURL, hops, report.NewMulti(report.NewConsole(out), rec))
	res.Run = rec.Run()

	r.logger.Debug("crawl finished", "url", res.StartURL, "hops", res.Run.Hops, "reason", res.Run.Reason)

	if r.onResult != nil {
		if err := r.onResult(ctx, res); err != nil {
			res.Err = fmt.Errorf("%s: %w", res.StartURL, err)
		}
	}
}

// orderedFlusher writes per-crawl output blocks in index order as soon as
// every earlier block has been written.
type orderedFlusher struct {
	mu      sync.Mutex
	out     io.Writer
	pending [][]byte
	ready   []bool
	next    int
}

func newOrderedFlusher(out io.Writer, n int) *orderedFlusher {
	return &orderedFlusher{
		out:     out,
		pending: make([][]byte, n),
		ready:   make([]bool, n),
	}
}

// done marks block i as complete and writes every block that is now in order.
func (f *orderedFlusher) done(i int, block []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending[i] = block
	f.ready[i] = true
	for f.next < len(f.ready) && f.ready[f.next] {
		if b := f.pending[f.next]; len(b) > 0 {
			f.out.Write(b) //nolint:errcheck
		}
		f.pending[f.next] = nil
		f.next++
	}
}

// Stats summarizes a batch.
type Stats struct {
	Crawls  int
	Skipped int
	Errors  int
	Hops    int
	// Unreachable counts crawls whose start URL never produced a visit.
	Unreachable int
}

// Summarize counts the results.
func Summarize(results []Result) Stats {
	s := Stats{Crawls: len(results)}
	for _, res := range results {
		if res.Err != nil {
			s.Errors++
		}
		if res.Run == nil {
			if res.Err == nil {
				s.Skipped++
			}
			continue
		}
		s.Hops += res.Run.Hops
		if res.Run.Hops == 0 && res.Run.Reason == model.ReasonFrontierEmpty {
			s.Unreachable++
		}
	}
	return s
}

// Line returns the batch total line.
func (s Stats) Line() string {
	return fmt.Sprintf("Batch finished: %d crawl(s), %d hop(s), %d unreachable, %d skipped, %d error(s)",
		s.Crawls, s.Hops, s.Unreachable, s.Skipped, s.Errors)
}
