package worker

import (
	"context"
	"sync"
	"time"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/internal/pipeline"
	"sjsage522/catalogworker/logger"
	"sjsage522/catalogworker/pkg/errors"
	"sjsage522/catalogworker/services/export"
	"sjsage522/catalogworker/services/metrics"
	"sjsage522/catalogworker/services/publisher"
)

// Options configures a Worker
type Options struct {
	InputPath   string
	Processor   *pipeline.Processor
	MergePolicy pipeline.MergePolicy

	// Outputs must all succeed; a failure stops the run
	Outputs []export.Sink
	// Sinks are optional; failures are logged and counted
	Sinks []export.Sink
	// Feed publishes changed records when set
	Feed *publisher.ChangeFeed

	Metrics     *metrics.Metrics
	MetricsPath string

	// Interval between runs; zero runs once
	Interval time.Duration
	Logger   *logger.Logger
}

// Worker runs the catalog pipeline from input file to outputs
type Worker struct {
	opts      Options
	finalizer *pipeline.Finalizer
	log       *logger.Logger
}

// Result summarizes one run
type Result struct {
	Document     *catalog.Document
	Engine       pipeline.Stats
	Finalize     pipeline.FinalizeStats
	Feed         publisher.FeedResult
	SinkFailures map[string]error
	Duration     time.Duration
}

// NewWorker creates a new worker
func NewWorker(opts Options) *Worker {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return &Worker{
		opts:      opts,
		finalizer: pipeline.NewFinalizer(log),
		log:       log,
	}
}

// Start runs the pipeline once, then again every interval until ctx is
// cancelled. Fatal errors stop the loop; other run errors are logged.
func (w *Worker) Start(ctx context.Context) error {
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			if errors.IsFatal(err) {
				return err
			}
			w.log.WithError(err).Error().Msg("Run failed")
		}

		if w.opts.Interval <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return nil
		case <-time.After(w.opts.Interval):
		}
	}
}

// RunOnce loads the input, reconciles it, finalizes the catalog and writes
// every output. Only input and required output failures are returned as
// errors; optional sinks and the change feed never fail the run.
func (w *Worker) RunOnce(ctx context.Context) (*Result, error) {
	start := time.Now()

	products, err := catalog.LoadFile(w.opts.InputPath)
	if err != nil {
		return nil, err
	}
	w.log.Info().
		Str("input", w.opts.InputPath).
		Int("products", len(products)).
		Msg("Loaded input")

	engine := pipeline.NewEngine(w.opts.Processor, w.opts.MergePolicy, w.log)
	engine.Reconcile(products)

	doc, finalizeStats := w.finalizer.Finalize(engine.Store().Records())
	result := &Result{
		Document:     doc,
		Engine:       engine.Stats(),
		Finalize:     finalizeStats,
		SinkFailures: make(map[string]error),
	}

	for _, sink := range w.opts.Outputs {
		if err := sink.Write(ctx, doc); err != nil {
			return result, err
		}
		w.log.Debug().Str("sink", sink.Name()).Msg("Output written")
	}

	w.writeSinks(ctx, doc, result)

	if w.opts.Feed != nil {
		feed, err := w.opts.Feed.PublishChanged(ctx, doc.Data)
		result.Feed = feed
		if err != nil {
			w.log.Warn().Err(err).Msg("Change feed incomplete")
		}
	}

	result.Duration = time.Since(start)
	w.observe(result)

	w.log.Info().
		Str("run_id", doc.RunID).
		Int("products", result.Engine.Products).
		Int("variants", result.Engine.Variants).
		Int("rejected", result.Engine.Rejected()).
		Int("records", result.Finalize.Kept).
		Int("published", result.Feed.Published).
		Dur("duration", result.Duration).
		Msg("Catalog run completed")

	if logger.IsDebugEnabled() {
		for reason, n := range result.Engine.Rejections {
			w.log.Debug().Str("reason", reason).Int("count", n).Msg("Rejected items")
		}
		for reason, n := range result.Finalize.Dropped {
			w.log.Debug().Str("reason", reason).Int("count", n).Msg("Dropped records")
		}
	}

	return result, nil
}

// writeSinks writes the optional sinks in parallel
func (w *Worker) writeSinks(ctx context.Context, doc *catalog.Document, result *Result) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, sink := range w.opts.Sinks {
		wg.Add(1)
		go func(sink export.Sink) {
			defer wg.Done()
			if err := sink.Write(ctx, doc); err != nil {
				w.log.Error().Err(err).Str("sink", sink.Name()).Msg("Sink write failed")
				mu.Lock()
				result.SinkFailures[sink.Name()] = err
				mu.Unlock()
				return
			}
			w.log.Debug().Str("sink", sink.Name()).Msg("Sink written")
		}(sink)
	}
	wg.Wait()
}

func (w *Worker) observe(result *Result) {
	m := w.opts.Metrics
	m.ObserveEngine(result.Engine)
	m.ObserveFinalize(result.Finalize)
	m.Published.Set(float64(result.Feed.Published))
	for name := range result.SinkFailures {
		m.SinkFailures.WithLabelValues(name).Inc()
	}
	m.ObserveRun(result.Duration, time.Now())

	if w.opts.MetricsPath == "" {
		return
	}
	if err := m.WriteTextfile(w.opts.MetricsPath); err != nil {
		w.log.Warn().Err(err).Str("path", w.opts.MetricsPath).Msg("Failed to write metrics")
	}
}
