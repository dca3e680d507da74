package markov

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
)

// Scored is a k-mer with its likelihood under a transition table.
type Scored struct {
	Kmer string
	Prob float64
}

// Score returns the product of the table's probabilities over each adjacent
// pair of kmer. A pair missing from the table contributes 0. A k-mer with
// fewer than two symbols has no transitions and scores 1.
func Score(kmer string, t Table) float64 {
	p := 1.0
	for i := 0; i+1 < len(kmer); i++ {
		p *= t.Prob(kmer[i : i+2])
	}
	return p
}

// ScoreAll scores kmers, preserving their order.
func ScoreAll(kmers []string, t Table) []Scored {
	out := make([]Scored, len(kmers))
	for i, kmer := range kmers {
		out[i] = Scored{Kmer: kmer, Prob: Score(kmer, t)}
	}
	return out
}

// FormatScore renders a k-mer probability in scientific notation with four
// decimal places, e.g. 3.4521e-02.
func FormatScore(p float64) string {
	return strconv.FormatFloat(p, 'e', 4, 64)
}

// ScoreStream reads one k-mer per line from r and writes "<kmer> <prob>"
// lines to w in input order. Blank lines are skipped. It returns the number
// of k-mers scored.
func ScoreStream(ctx context.Context, r io.Reader, t Table, w io.Writer) (int, error) {
	sc := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	n := 0
	for sc.Scan() {
		if n%4096 == 0 {
			select {
			case <-ctx.Done():
				return n, ctx.Err()
			default:
			}
		}
		kmer := bytes.TrimSpace(sc.Bytes())
		if len(kmer) == 0 {
			continue
		}
		if _, err := bw.Write(kmer); err != nil {
			return n, err
		}
		if err := bw.WriteByte(' '); err != nil {
			return n, err
		}
		if _, err := bw.WriteString(FormatScore(Score(string(kmer), t))); err != nil {
			return n, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("k-mer list scan: %w", err)
	}
	return n, bw.Flush()
}
