package markov

import (
	"context"
	"fmt"
	"io"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
	"github.com/proteome-lab/kmerspace/pkg/seqio"
)

const (
	// MinRunBucket and MaxRunBucket bound the run-length histogram buckets.
	MinRunBucket = 3
	MaxRunBucket = 7
	// RunGate is the run length a position must reach before any bucket is
	// updated for it. Once it is reached, every bucket from MinRunBucket up to
	// the current run length is incremented, so buckets below the gate only
	// count positions that are already past it.
	RunGate = 6
)

// Histogram counts, per bucket k in [MinRunBucket, MaxRunBucket], the
// scanned positions whose valid run length passed RunGate and was at least k.
type Histogram [MaxRunBucket - MinRunBucket + 1]uint64

// HistogramLabel returns the external label of bucket k, e.g. "kmers3_pos".
func HistogramLabel(k int) string {
	return fmt.Sprintf("kmers%d_pos", k)
}

// Count returns the value of bucket k, or 0 outside the bucket range.
func (h *Histogram) Count(k int) uint64 {
	if k < MinRunBucket || k > MaxRunBucket {
		return 0
	}
	return h[k-MinRunBucket]
}

func (h *Histogram) observe(run int) {
	if run < RunGate {
		return
	}
	for k := MinRunBucket; k <= MaxRunBucket && run >= k; k++ {
		h[k-MinRunBucket]++
	}
}

// Estimate is the result of an estimation pass.
type Estimate struct {
	Alphabet  *kmer.Alphabet
	Sequences int
	// Counts holds every ordered pair of the alphabet, including zeros.
	Counts map[string]uint64
	// Totals is, per symbol, the number of times it preceded a valid symbol.
	Totals    map[byte]uint64
	Table     Table
	Histogram Histogram
}

// EstimatorOption configures an Estimator.
type EstimatorOption func(*Estimator)

// WithCaseSensitive disables upper-casing of sequence letters before counting.
func WithCaseSensitive() EstimatorOption {
	return func(e *Estimator) {
		e.foldCase = false
	}
}

// Estimator accumulates transition counts and run lengths. It is not safe
// for concurrent use; give each unit of work its own.
type Estimator struct {
	alphabet  *kmer.Alphabet
	foldCase  bool
	counts    []uint64
	totals    []uint64
	hist      Histogram
	sequences int
}

// NewEstimator returns an empty estimator over a. Letters are upper-cased
// before classification unless WithCaseSensitive is given.
func NewEstimator(a *kmer.Alphabet, opts ...EstimatorOption) *Estimator {
	n := a.Len()
	e := &Estimator{
		alphabet: a,
		foldCase: true,
		counts:   make([]uint64, n*n),
		totals:   make([]uint64, n),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddSequence scans seq once, updating the histogram and the pair counts.
// The distance to the last invalid symbol restarts at every sequence.
func (e *Estimator) AddSequence(seq []byte) {
	e.sequences++
	var opts []kmer.ScanOption
	if e.foldCase {
		opts = append(opts, kmer.WithFoldCase())
	}
	n := e.alphabet.Len()
	sc := kmer.NewScanner(e.alphabet, seq, opts...)
	for {
		p, ok := sc.Next()
		if !ok {
			return
		}
		if !p.Valid {
			continue
		}
		e.hist.observe(p.Run)
		next, valid, ok := sc.Peek()
		if !ok || !valid {
			continue
		}
		from := e.alphabet.Index(p.Symbol)
		e.counts[from*n+e.alphabet.Index(next)]++
		e.totals[from]++
	}
}

// Train streams FASTA records from r into the estimator.
func (e *Estimator) Train(ctx context.Context, r io.Reader) error {
	return seqio.Stream(ctx, r, func(rec seqio.Record) error {
		e.AddSequence(rec.Seq)
		return nil
	})
}

// Estimate derives probabilities from the counts gathered so far. The
// estimator can keep accumulating afterwards.
func (e *Estimator) Estimate() *Estimate {
	symbols := e.alphabet.Symbols()
	n := len(symbols)
	est := &Estimate{
		Alphabet:  e.alphabet,
		Sequences: e.sequences,
		Counts:    make(map[string]uint64, n*n),
		Totals:    make(map[byte]uint64, n),
		Table:     make(Table, n*n),
		Histogram: e.hist,
	}
	for i := 0; i < n; i++ {
		total := e.totals[i]
		est.Totals[symbols[i]] = total
		for j := 0; j < n; j++ {
			pair := string([]byte{symbols[i], symbols[j]})
			count := e.counts[i*n+j]
			est.Counts[pair] = count
			if total > 0 {
				est.Table[pair] = float64(count) / float64(total)
			} else {
				est.Table[pair] = 0
			}
		}
	}
	return est
}
