package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sjsage522/pricesheet/helpers"
	"sjsage522/pricesheet/internal/merge"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/report"
	"sjsage522/pricesheet/internal/schedule"
	"sjsage522/pricesheet/internal/scraper"
	"sjsage522/pricesheet/pkg/errors"
	"sjsage522/pricesheet/services/cache"
	"sjsage522/pricesheet/services/publisher"
)

// Merger writes a batch into a workbook.
type Merger interface {
	RunOnce(batch *price.Batch, runAt time.Time, path string) (*merge.RunResult, error)
}

// Snapshotter keeps the latest batch of a domain.
type Snapshotter interface {
	Write(batch *price.Batch) error
}

// Job is everything needed to price one domain.
type Job struct {
	Source   scraper.Source
	Merger   Merger
	Workbook string
	// Snapshot may be nil.
	Snapshot Snapshotter
	Schedule schedule.Schedule
}

// Options tune a worker. The zero value runs without a run marker, report or
// run on start.
type Options struct {
	// Marker guards scheduled runs against running twice on one day.
	Marker *cache.RunMarker
	// Report receives the console summary of each run.
	Report     io.Writer
	RunOnStart bool
	Production bool
	Clock      func() time.Time
}

// Worker handles the scraping, merging and publishing process
type Worker struct {
	ctx       context.Context
	jobs      []Job
	publisher publisher.Publisher
	logger    helpers.LoggerInterface
	opts      Options
	now       func() time.Time

	reportMu sync.Mutex
}

// NewWorker creates a new worker. pub may be nil when no stream is configured.
func NewWorker(
	ctx context.Context,
	jobs []Job,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
	opts Options,
) *Worker {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Worker{
		ctx:       ctx,
		jobs:      jobs,
		publisher: pub,
		logger:    logger,
		opts:      opts,
		now:       now,
	}
}

// Start runs every job on its schedule until the context is cancelled. Jobs
// due at start run first, in parallel. A run still in progress when its next
// time comes is skipped.
func (w *Worker) Start() error {
	log := cronLogger{}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	var wg sync.WaitGroup
	for _, job := range w.jobs {
		if w.opts.RunOnStart && job.Schedule.Due(w.now()) {
			wg.Add(1)
			go func(job Job) {
				defer wg.Done()
				w.runScheduled(job)
			}(job)
		}
	}
	wg.Wait()

	for _, job := range w.jobs {
		c.Schedule(job.Schedule, cron.FuncJob(func() {
			w.runScheduled(job)
			w.logNext(job)
		}))
		w.logNext(job)
	}

	c.Start()
	<-w.ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (w *Worker) logNext(job Job) {
	next := job.Schedule.Next(w.now())
	w.logger.LogInfo("next %s run at %s", job.Source.Domain(), next.Format(time.RFC3339))
}

// runScheduled runs job unless it already ran on the current day.
func (w *Worker) runScheduled(job Job) {
	domain := string(job.Source.Domain())
	day := job.Schedule.Day(w.now())
	if w.opts.Marker != nil && w.opts.Marker.Ran(domain, day) {
		w.logger.LogInfo("%s already ran on %s, skipping", domain, day)
		return
	}

	if _, err := w.RunOnce(job); err != nil {
		return
	}
	if w.opts.Marker != nil {
		if err := w.opts.Marker.Mark(domain, day); err != nil {
			w.logger.LogError("RunMarker", err)
		}
	}
}

// RunOnce scrapes job's source, stores the snapshot, publishes the batch and
// merges it into the workbook. Per-identity failures are journalled and do
// not fail the run.
func (w *Worker) RunOnce(job Job) (*merge.RunResult, error) {
	name := job.Source.Name()
	start := time.Now()

	batch, err := job.Source.Scrape(w.ctx)
	if err != nil {
		w.logger.LogError(name, err)
		return nil, err
	}
	for _, f := range batch.Failures {
		w.logger.LogError(name, failureError(f))
	}
	if batch.Empty() {
		err := errors.NewValidation(name, "no prices scraped, workbook left untouched")
		w.logger.LogError(name, err)
		w.printReport(batch, nil)
		return nil, err
	}
	w.logFirstPoint(name, batch)

	if job.Snapshot != nil {
		if err := job.Snapshot.Write(batch); err != nil {
			w.logger.LogError("Snapshot", err)
		}
	}
	w.publish(batch)

	result, err := job.Merger.RunOnce(batch, batch.RunAt, job.Workbook)
	w.printReport(batch, result)
	if err != nil {
		w.logger.LogError("Merge", err)
		return result, err
	}

	w.logger.LogInfo("%s run finished in %s: %d prices, %d failures", batch.Domain, time.Since(start).Round(time.Millisecond), len(batch.Points), len(batch.Failures))
	return result, nil
}

// publish sends the batch to the domain's stream and trims the streams
func (w *Worker) publish(batch *price.Batch) {
	if w.publisher == nil {
		return
	}
	data, err := json.Marshal(batch)
	if err != nil {
		w.logger.LogError("Publisher", err)
		return
	}
	if err := w.publisher.Publish(string(batch.Domain), data); err != nil {
		w.logger.LogError("Publisher", err)
		return
	}
	if err := w.publisher.TrimStreams(); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}
}

func (w *Worker) printReport(batch *price.Batch, result *merge.RunResult) {
	if w.opts.Report == nil {
		return
	}
	w.reportMu.Lock()
	defer w.reportMu.Unlock()
	report.Run(w.opts.Report, batch, result)
}

// logFirstPoint logs one sample price outside production.
func (w *Worker) logFirstPoint(name string, batch *price.Batch) {
	if w.opts.Production {
		return
	}
	data, err := json.Marshal(batch.Points[0])
	if err != nil {
		w.logger.LogError(name, err)
		return
	}
	w.logger.LogInfo("scraped data: %s", string(data))
}

func failureError(f price.Failure) error {
	if f.Err != nil {
		return fmt.Errorf("%s: %w", f.Identity, f.Err)
	}
	return fmt.Errorf("%s: %s", f.Identity, f.Reason)
}
