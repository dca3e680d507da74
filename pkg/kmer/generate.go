package kmer

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"
)

// Stream is a lazily produced sequence of k-mers of one length. Next returns
// io.EOF once the stream is exhausted.
type Stream interface {
	K() int
	Next() (string, error)
}

// Generator enumerates the full Cartesian product of an alphabet with itself
// k times. The leftmost symbol varies slowest and symbols are taken in
// code-point order, so the output is in ascending byte order. Only the
// current k-mer is held in memory.
type Generator struct {
	symbols string
	k       int
	digits  []int
	buf     []byte
	done    bool
}

// NewGenerator returns a generator positioned before the first k-mer.
func NewGenerator(a *Alphabet, k int) (*Generator, error) {
	if k < 1 {
		return nil, fmt.Errorf("k=%d: %w", k, ErrInvalidLength)
	}
	g := &Generator{
		symbols: a.Symbols(),
		k:       k,
		digits:  make([]int, k),
		buf:     make([]byte, k),
	}
	g.Reset()
	return g, nil
}

// K returns the k-mer length.
func (g *Generator) K() int {
	return g.k
}

// Count returns |alphabet|^k. ok is false if the count overflows uint64.
func (g *Generator) Count() (n uint64, ok bool) {
	n = 1
	base := uint64(len(g.symbols))
	for i := 0; i < g.k; i++ {
		hi, lo := bits.Mul64(n, base)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}

// Reset rewinds the generator to the first k-mer. The sequence produced
// after a Reset is identical to the first one.
func (g *Generator) Reset() {
	for i := range g.digits {
		g.digits[i] = -1
	}
	g.done = false
}

// Next returns the next k-mer, or io.EOF when the space is exhausted.
func (g *Generator) Next() (string, error) {
	if g.done {
		return "", io.EOF
	}
	if g.digits[0] < 0 {
		for i := range g.digits {
			g.digits[i] = 0
			g.buf[i] = g.symbols[0]
		}
		return string(g.buf), nil
	}
	// Odometer increment from the rightmost position.
	for i := g.k - 1; i >= 0; i-- {
		g.digits[i]++
		if g.digits[i] < len(g.symbols) {
			g.buf[i] = g.symbols[g.digits[i]]
			return string(g.buf), nil
		}
		g.digits[i] = 0
		g.buf[i] = g.symbols[0]
	}
	g.done = true
	return "", io.EOF
}

// WriteTo writes the remaining k-mers one per line.
func (g *Generator) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for {
		kmer, err := g.Next()
		if err == io.EOF {
			break
		}
		m, err := bw.WriteString(kmer)
		n += int64(m)
		if err != nil {
			return n, err
		}
		if err = bw.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

// Materialize returns the whole space as a slice, from the first k-mer,
// provided it holds at most limit k-mers. The generator is left exhausted.
func (g *Generator) Materialize(limit uint64) ([]string, error) {
	n, ok := g.Count()
	if !ok || n > limit {
		return nil, fmt.Errorf("%d-mers over %d symbols exceed limit %d: %w", g.k, len(g.symbols), limit, ErrSpaceTooLarge)
	}
	g.Reset()
	out := make([]string, 0, n)
	for {
		kmer, err := g.Next()
		if err == io.EOF {
			return out, nil
		}
		out = append(out, kmer)
	}
}
