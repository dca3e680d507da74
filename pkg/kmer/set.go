package kmer

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// Set is a deduplicated collection of k-mers of a single length.
// The zero k adopts the length of the first k-mer added.
type Set struct {
	k     int
	kmers map[string]struct{}
}

// NewSet returns an empty set for k-mers of length k. k may be 0, in which
// case the set takes its length from the first element added.
func NewSet(k int) *Set {
	return &Set{k: k, kmers: make(map[string]struct{})}
}

// K returns the k-mer length of the set, or 0 if it is still undetermined.
func (s *Set) K() int {
	return s.k
}

// Len returns the number of distinct k-mers.
func (s *Set) Len() int {
	return len(s.kmers)
}

// Add inserts kmer, returning ErrSpaceMismatch if its length is not the
// set's k.
func (s *Set) Add(kmer string) error {
	if s.k == 0 {
		if len(kmer) == 0 {
			return fmt.Errorf("empty k-mer: %w", ErrInvalidLength)
		}
		s.k = len(kmer)
	}
	if len(kmer) != s.k {
		return fmt.Errorf("k-mer %q has length %d, set has k=%d: %w", kmer, len(kmer), s.k, ErrSpaceMismatch)
	}
	s.kmers[kmer] = struct{}{}
	return nil
}

// Contains reports whether kmer is in the set.
func (s *Set) Contains(kmer string) bool {
	_, ok := s.kmers[kmer]
	return ok
}

// Union adds every k-mer of other to s.
func (s *Set) Union(other *Set) error {
	if other.Len() == 0 {
		return nil
	}
	if s.k != 0 && other.k != s.k {
		return fmt.Errorf("union of k=%d into k=%d: %w", other.k, s.k, ErrSpaceMismatch)
	}
	s.k = other.k
	for kmer := range other.kmers {
		s.kmers[kmer] = struct{}{}
	}
	return nil
}

// Sorted returns the k-mers in ascending byte order.
func (s *Set) Sorted() []string {
	out := make([]string, 0, len(s.kmers))
	for kmer := range s.kmers {
		out = append(out, kmer)
	}
	sort.Strings(out)
	return out
}

// WriteTo writes the set one k-mer per line in ascending byte order.
func (s *Set) WriteTo(w io.Writer) (int64, error) {
	return WriteList(w, s.Sorted())
}

// WriteList writes kmers one per line, in the order given.
func WriteList(w io.Writer, kmers []string) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, kmer := range kmers {
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
