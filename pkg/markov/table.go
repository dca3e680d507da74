package markov

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
)

// Table maps an ordered symbol pair, as a two-byte string, to the
// probability that the second symbol follows the first.
type Table map[string]float64

// Prob returns the probability of pair, or 0 if the table has no entry.
func (t Table) Prob(pair string) float64 {
	return t[pair]
}

// Pairs returns the table's keys in ascending byte order.
func (t Table) Pairs() []string {
	pairs := make([]string, 0, len(t))
	for pair := range t {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	return pairs
}

// TableSource yields the transition table registered for an identifier,
// or an error wrapping kmer.ErrIdentifierNotFound.
type TableSource interface {
	Table(ctx context.Context, identifier string) (Table, error)
}

// Report row types.
const (
	ReportTransition = "Transition Probability"
	ReportRunLength  = "K-mer Count"
)

// FormatProbability renders a transition probability with four fixed
// decimal places, the format of estimator reports.
func FormatProbability(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}

// WriteReport writes est as Type,Key,Value CSV rows: every transition
// probability sorted by pair, then every histogram bucket by label.
func WriteReport(w io.Writer, est *Estimate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Type", "Key", "Value"}); err != nil {
		return err
	}
	for _, pair := range est.Table.Pairs() {
		if err := cw.Write([]string{ReportTransition, pair, FormatProbability(est.Table[pair])}); err != nil {
			return err
		}
	}
	for k := MinRunBucket; k <= MaxRunBucket; k++ {
		count := strconv.FormatUint(est.Histogram.Count(k), 10)
		if err := cw.Write([]string{ReportRunLength, HistogramLabel(k), count}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
