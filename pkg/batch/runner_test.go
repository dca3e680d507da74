package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

func TestRunnerStatuses(t *testing.T) {
	paths := []string{"ok1", "missing-id", "broken", "ok2"}
	unit := func(_ context.Context, path string) (int64, error) {
		switch path {
		case "missing-id":
			return 0, fmt.Errorf("table for %s: %w", path, kmer.ErrIdentifierNotFound)
		case "broken":
			return 0, errors.New("disk on fire")
		}
		return 10, nil
	}

	r := NewRunner("extract", 2)
	m := NewMetrics()
	r.SetMetrics(m)
	summary, err := r.Run(context.Background(), paths, unit)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if summary.Completed != 2 || summary.Skipped != 1 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(summary.Results) != len(paths) {
		t.Errorf("expected %d results, got %d", len(paths), len(summary.Results))
	}
	if summary.Err() == nil {
		t.Error("expected Summary.Err() to report the failed unit")
	}

	if got := testutil.ToFloat64(m.units.WithLabelValues("extract", "completed")); got != 2 {
		t.Errorf("expected 2 completed units in metrics, got %v", got)
	}
	if got := testutil.ToFloat64(m.units.WithLabelValues("extract", "skipped")); got != 1 {
		t.Errorf("expected 1 skipped unit in metrics, got %v", got)
	}
	if got := testutil.ToFloat64(m.items.WithLabelValues("extract")); got != 20 {
		t.Errorf("expected 20 items written, got %v", got)
	}
}

func TestRunnerAllCompleted(t *testing.T) {
	var calls atomic.Int32
	unit := func(_ context.Context, _ string) (int64, error) {
		calls.Add(1)
		return 1, nil
	}
	paths := make([]string, 50)
	for i := range paths {
		paths[i] = fmt.Sprintf("p%d", i)
	}
	summary, err := NewRunner("score", 4).Run(context.Background(), paths, unit)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if summary.Err() != nil {
		t.Errorf("expected no failed units, got %v", summary.Err())
	}
	if int(calls.Load()) != len(paths) || summary.Completed != len(paths) {
		t.Errorf("expected %d units to run, got %d calls and %+v", len(paths), calls.Load(), summary)
	}
}

func TestRunnerMissingArtifactIsFatal(t *testing.T) {
	paths := make([]string, 100)
	for i := range paths {
		paths[i] = fmt.Sprintf("p%d", i)
	}
	var calls atomic.Int32
	unit := func(ctx context.Context, path string) (int64, error) {
		calls.Add(1)
		if path == "p0" {
			return 0, fmt.Errorf("exhaustive space: %w", kmer.ErrMissingArtifact)
		}
		<-ctx.Done()
		return 0, ctx.Err()
	}

	r := NewRunner("nullomers", 2)
	m := NewMetrics()
	r.SetMetrics(m)
	summary, err := r.Run(context.Background(), paths, unit)
	if !errors.Is(err, kmer.ErrMissingArtifact) {
		t.Fatalf("expected ErrMissingArtifact, got %v", err)
	}
	if int(calls.Load()) == len(paths) {
		t.Error("expected the remaining units to be cancelled")
	}
	// Only the unit that hit the missing artifact failed; the ones it
	// interrupted were cancelled.
	if summary.Failed != 1 {
		t.Errorf("expected 1 failed unit, got %+v", summary)
	}
	for _, res := range summary.Results {
		if res.Path != "p0" && res.Status != StatusCancelled {
			t.Errorf("expected %s to be cancelled, got %s", res.Path, res.Status)
		}
	}
	if got := testutil.ToFloat64(m.units.WithLabelValues("nullomers", "failed")); got != 1 {
		t.Errorf("expected 1 failed unit in metrics, got %v", got)
	}
}

func TestRunnerParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner("extract", 2).Run(ctx, []string{"a", "b", "c"}, func(context.Context, string) (int64, error) {
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMetricsWriteTextfile(t *testing.T) {
	m := NewMetrics()
	r := NewRunner("transitions", 1)
	r.SetMetrics(m)
	if _, err := r.Run(context.Background(), []string{"a"}, func(context.Context, string) (int64, error) {
		return 3, nil
	}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "kmerspace.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	want := `kmerspace_batch_units_total{command="transitions",status="completed"} 1`
	if !strings.Contains(string(data), want) {
		t.Errorf("expected %q in textfile, got:\n%s", want, data)
	}
}

func TestRunnerTracesUnits(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	unit := func(_ context.Context, path string) (int64, error) {
		if path == "bad" {
			return 0, errors.New("bad archive")
		}
		return 1, nil
	}
	if _, err := NewRunner("extract", 1).Run(context.Background(), []string{"good", "bad"}, unit); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	statuses := map[string]codes.Code{}
	for _, s := range spans {
		for _, kv := range s.Attributes {
			if kv.Key == "path" {
				statuses[kv.Value.AsString()] = s.Status.Code
			}
		}
	}
	if statuses["good"] != codes.Ok || statuses["bad"] != codes.Error {
		t.Errorf("unexpected span statuses: %v", statuses)
	}
}
