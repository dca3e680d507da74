package markov

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

func TestEstimateTransitions(t *testing.T) {
	ab := kmer.MustAlphabet("AB")
	e := NewEstimator(ab)
	e.AddSequence([]byte("AAB"))
	est := e.Estimate()

	want := map[string]float64{"AA": 0.5, "AB": 0.5, "BA": 0, "BB": 0}
	if len(est.Table) != len(want) {
		t.Fatalf("expected %d pairs, got %d: %v", len(want), len(est.Table), est.Table)
	}
	for pair, p := range want {
		got, ok := est.Table[pair]
		if !ok {
			t.Errorf("pair %q missing from table", pair)
			continue
		}
		if got != p {
			t.Errorf("P(%s): expected %v, got %v", pair, p, got)
		}
	}
	if est.Totals['A'] != 2 || est.Totals['B'] != 0 {
		t.Errorf("unexpected totals: %v", est.Totals)
	}
	if est.Sequences != 1 {
		t.Errorf("expected 1 sequence, got %d", est.Sequences)
	}
}

func TestEstimateRowsSumToOne(t *testing.T) {
	e := NewEstimator(kmer.DefaultProtein)
	if err := e.Train(context.Background(), strings.NewReader(createBenchmarkProteome())); err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	est := e.Estimate()

	for _, from := range []byte(kmer.DefaultProtein.Symbols()) {
		sum := 0.0
		for _, to := range []byte(kmer.DefaultProtein.Symbols()) {
			sum += est.Table[string([]byte{from, to})]
		}
		if est.Totals[from] == 0 {
			if sum != 0 {
				t.Errorf("row %c has no predecessors but sums to %v", from, sum)
			}
			continue
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %c sums to %v, expected 1", from, sum)
		}
	}
}

func TestEstimateSkipsInvalidBoundaries(t *testing.T) {
	ab := kmer.MustAlphabet("AB")
	e := NewEstimator(ab)
	e.AddSequence([]byte("AXB"))
	est := e.Estimate()

	for pair, count := range est.Counts {
		if count != 0 {
			t.Errorf("expected no transitions across an invalid symbol, got %s=%d", pair, count)
		}
	}
}

func TestEstimateFoldsCase(t *testing.T) {
	ab := kmer.MustAlphabet("AB")

	folded := NewEstimator(ab)
	folded.AddSequence([]byte("aab"))
	if got := folded.Estimate().Counts["AA"]; got != 1 {
		t.Errorf("folded: expected AA=1, got %d", got)
	}

	sensitive := NewEstimator(ab, WithCaseSensitive())
	sensitive.AddSequence([]byte("aab"))
	for pair, count := range sensitive.Estimate().Counts {
		if count != 0 {
			t.Errorf("case-sensitive: expected no counts, got %s=%d", pair, count)
		}
	}
}

func TestHistogramRunOfTen(t *testing.T) {
	e := NewEstimator(kmer.DefaultProtein)
	e.AddSequence([]byte("MKVLAAGIVG"))
	h := e.Estimate().Histogram

	want := map[int]uint64{3: 5, 4: 5, 5: 5, 6: 5, 7: 4}
	for k, n := range want {
		if got := h.Count(k); got != n {
			t.Errorf("%s: expected %d, got %d", HistogramLabel(k), n, got)
		}
	}
	if h.Count(2) != 0 || h.Count(8) != 0 {
		t.Error("expected buckets outside the range to read 0")
	}
}

func TestHistogramRunResetsPerSequence(t *testing.T) {
	e := NewEstimator(kmer.DefaultProtein)
	// Neither sequence reaches the gate on its own.
	e.AddSequence([]byte("MKVLA"))
	e.AddSequence([]byte("MKVLA"))
	h := e.Estimate().Histogram
	for k := MinRunBucket; k <= MaxRunBucket; k++ {
		if h.Count(k) != 0 {
			t.Errorf("%s: expected 0, got %d", HistogramLabel(k), h.Count(k))
		}
	}
}

func TestHistogramInvalidResetsRun(t *testing.T) {
	e := NewEstimator(kmer.DefaultProtein)
	// Runs of 5 and 6 around an X: only the final position passes the gate.
	e.AddSequence([]byte("MKVLAXMKVLAA"))
	h := e.Estimate().Histogram
	want := map[int]uint64{3: 1, 4: 1, 5: 1, 6: 1, 7: 0}
	for k, n := range want {
		if got := h.Count(k); got != n {
			t.Errorf("%s: expected %d, got %d", HistogramLabel(k), n, got)
		}
	}
}

func TestWriteReport(t *testing.T) {
	ab := kmer.MustAlphabet("AB")
	e := NewEstimator(ab)
	e.AddSequence([]byte("AAB"))

	var buf bytes.Buffer
	if err := WriteReport(&buf, e.Estimate()); err != nil {
		t.Fatalf("WriteReport() failed: %v", err)
	}
	want := strings.Join([]string{
		"Type,Key,Value",
		"Transition Probability,AA,0.5000",
		"Transition Probability,AB,0.5000",
		"Transition Probability,BA,0.0000",
		"Transition Probability,BB,0.0000",
		"K-mer Count,kmers3_pos,0",
		"K-mer Count,kmers4_pos,0",
		"K-mer Count,kmers5_pos,0",
		"K-mer Count,kmers6_pos,0",
		"K-mer Count,kmers7_pos,0",
	}, "\n") + "\n"
	if buf.String() != want {
		t.Errorf("unexpected report:\n%s\nexpected:\n%s", buf.String(), want)
	}
}

func BenchmarkEstimatorTrain(b *testing.B) {
	proteome := createBenchmarkProteome()
	ctx := context.Background()
	b.SetBytes(int64(len(proteome)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := NewEstimator(kmer.DefaultProtein)
		if err := e.Train(ctx, strings.NewReader(proteome)); err != nil {
			b.Fatalf("Train() failed: %v", err)
		}
		_ = e.Estimate()
	}
}
