package kmer

import (
	"fmt"
	"io"
	"sort"
)

// Resolve streams space and calls emit for every k-mer that is not in
// observed, in the order space produces them. It returns the number of
// k-mers emitted.
//
// observed must be for the same k as space. An observed set whose k is still
// undetermined (it is empty) matches any space.
func Resolve(observed *Set, space Stream, emit func(string) error) (int, error) {
	k := space.K()
	if observed.K() != 0 && observed.K() != k {
		return 0, fmt.Errorf("observed k=%d, exhaustive k=%d: %w", observed.K(), k, ErrSpaceMismatch)
	}
	n := 0
	for {
		kmer, err := space.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if len(kmer) != k {
			return n, fmt.Errorf("exhaustive k-mer %q is not of length %d: %w", kmer, k, ErrSpaceMismatch)
		}
		if observed.Contains(kmer) {
			continue
		}
		if err = emit(kmer); err != nil {
			return n, err
		}
		n++
	}
}

// Difference returns space minus observed, sorted. Use it when the space
// comes from a source whose order is not known to be ascending; ascending
// spaces should go through Resolve directly. At most limit nullomers are
// held before ErrSpaceTooLarge is returned.
func Difference(observed *Set, space Stream, limit int) ([]string, error) {
	var out []string
	if _, err := Resolve(observed, space, func(kmer string) error {
		if len(out) >= limit {
			return fmt.Errorf("more than %d nullomers to sort: %w", limit, ErrSpaceTooLarge)
		}
		out = append(out, kmer)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Ascending wraps space so that Next fails with ErrSpaceUnsorted as soon as
// a k-mer is not strictly greater than the one before it.
func Ascending(space Stream) Stream {
	return &ascendingStream{Stream: space}
}

type ascendingStream struct {
	Stream
	prev    string
	started bool
}

func (a *ascendingStream) Next() (string, error) {
	kmer, err := a.Stream.Next()
	if err != nil {
		return kmer, err
	}
	if a.started && kmer <= a.prev {
		return "", fmt.Errorf("%q after %q: %w", kmer, a.prev, ErrSpaceUnsorted)
	}
	a.prev, a.started = kmer, true
	return kmer, nil
}
