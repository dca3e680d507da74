package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

// Status is the outcome of one unit.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	// StatusCancelled marks a unit stopped because the run was cancelled,
	// either by the caller or by a fatal error in another unit.
	StatusCancelled Status = "cancelled"
)

// Unit processes one path and reports how many records it wrote.
type Unit func(ctx context.Context, path string) (int64, error)

// Result describes one finished unit.
type Result struct {
	Path    string
	Status  Status
	Items   int64
	Err     error
	Elapsed time.Duration
}

// Summary aggregates the results of a run. Results are in completion order.
type Summary struct {
	Completed int
	Skipped   int
	Failed    int
	Cancelled int
	Results   []Result
}

// Err returns an error if any unit failed.
func (s Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d units failed", s.Failed, len(s.Results))
}

// Runner executes units over a list of paths with a fixed number of workers.
// Units own their inputs and outputs; the runner only collects results.
//
// A unit error wrapping kmer.ErrIdentifierNotFound marks the unit skipped.
// One wrapping kmer.ErrMissingArtifact cancels the remaining units and is
// returned from Run; units it interrupts are marked cancelled, not failed.
// Any other error marks the unit failed and the run continues.
type Runner struct {
	command  string
	workers  int
	progress bool
	metrics  *Metrics
	logger   *slog.Logger
}

// NewRunner returns a Runner labelled command with the given number of
// workers. Fewer than one worker means one.
func NewRunner(command string, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		command: command,
		workers: workers,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Runner. By default, all logs are discarded.
func (r *Runner) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetMetrics makes the Runner record every result in m.
func (r *Runner) SetMetrics(m *Metrics) {
	r.metrics = m
}

// SetProgress enables a progress bar on stderr counting finished units.
func (r *Runner) SetProgress(enabled bool) {
	r.progress = enabled
}

// Run executes unit once per path and waits for all started units to finish.
func (r *Runner) Run(parent context.Context, paths []string, unit Unit) (Summary, error) {
	if err := parent.Err(); err != nil {
		return Summary{}, err
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var bar *pb.ProgressBar
	if r.progress {
		bar = pb.Full.Start(len(paths))
		defer bar.Finish()
	}

	r.logger.InfoContext(ctx, "Batch started",
		slog.String("command", r.command),
		slog.Int("units", len(paths)),
		slog.Int("workers", r.workers),
	)
	start := time.Now()

	jobs := make(chan string, r.workers*2)
	results := make(chan Result, r.workers*2)

	// Workers
	var wg sync.WaitGroup
	wg.Add(r.workers)
	for w := 0; w < r.workers; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case path, ok := <-jobs:
					if !ok {
						return
					}
					res := r.runUnit(ctx, path, unit)
					select {
					case results <- res:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	// Collector
	var (
		summary Summary
		fatal   error
		cwg     sync.WaitGroup
	)
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		for res := range results {
			summary.Results = append(summary.Results, res)
			switch res.Status {
			case StatusCompleted:
				summary.Completed++
			case StatusSkipped:
				summary.Skipped++
			case StatusFailed:
				summary.Failed++
			case StatusCancelled:
				summary.Cancelled++
			}
			if r.metrics != nil {
				r.metrics.observe(r.command, res)
			}
			if bar != nil {
				bar.Increment()
			}
			if errors.Is(res.Err, kmer.ErrMissingArtifact) && fatal == nil {
				fatal = res.Err
				cancel()
			}
		}
	}()

	// Feed work
feed:
	for _, path := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- path:
		}
	}

	close(jobs)
	wg.Wait()
	close(results)
	cwg.Wait()

	r.logger.InfoContext(ctx, "Batch finished",
		slog.String("command", r.command),
		slog.Int("completed", summary.Completed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("cancelled", summary.Cancelled),
		slog.Duration("elapsed", time.Since(start)),
	)

	if fatal != nil {
		return summary, fatal
	}
	if err := parent.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) runUnit(ctx context.Context, path string, unit Unit) Result {
	ctx, span := otel.Tracer("kmerspace/batch").Start(ctx, "batch.Runner.unit",
		trace.WithAttributes(
			attribute.String("command", r.command),
			attribute.String("path", path),
		),
	)
	defer span.End()

	start := time.Now()
	items, err := unit(ctx, path)
	res := Result{Path: path, Items: items, Err: err, Elapsed: time.Since(start)}

	switch {
	case err == nil:
		res.Status = StatusCompleted
		span.SetAttributes(attribute.Int64("items", items))
		span.SetStatus(codes.Ok, "completed")
		r.logger.InfoContext(ctx, "Unit completed",
			slog.String("path", path),
			slog.Int64("items", items),
			slog.Duration("elapsed", res.Elapsed),
		)
	case errors.Is(err, kmer.ErrIdentifierNotFound):
		res.Status = StatusSkipped
		span.AddEvent("skipped")
		r.logger.WarnContext(ctx, "Unit skipped",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		res.Status = StatusCancelled
		span.AddEvent("cancelled")
		r.logger.DebugContext(ctx, "Unit cancelled",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	default:
		res.Status = StatusFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, "unit failed")
		r.logger.ErrorContext(ctx, "Unit failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
	return res
}
