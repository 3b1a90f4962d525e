package report

import (
	"time"

	"github.com/nao1215/hopcrawl/internal/crawler"
	"github.com/nao1215/hopcrawl/internal/model"
)

// Recorder collects crawl events into a model.Run.
type Recorder struct {
	run *model.Run
	now func() time.Time
}

var _ crawler.Reporter = (*Recorder)(nil)

// NewRecorder starts recording a crawl of startURL with the given budget.
func NewRecorder(startURL string, budget int) *Recorder {
	return &Recorder{
		run: model.NewRun(startURL, budget),
		now: time.Now,
	}
}

// Visited implements crawler.Reporter. Visits are recorded once scanned.
func (r *Recorder) Visited(model.Visit) {}

// Scanned records the visit with its page details.
func (r *Recorder) Scanned(v model.Visit) {
	r.run.Visits = append(r.run.Visits, v)
}

// Failed records the failure.
func (r *Recorder) Failed(f model.Failure) {
	r.run.Failures = append(r.run.Failures, f)
}

// Finished records the totals and the finish time.
func (r *Recorder) Finished(s model.Summary) {
	r.run.Hops = s.Hops
	r.run.Reason = s.Reason
	r.run.FinishedAt = r.now()
}

// Run returns the recorded run. It is complete once Finished was called.
func (r *Recorder) Run() *model.Run {
	return r.run
}
